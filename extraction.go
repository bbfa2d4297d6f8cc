package mpfs2

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"
)

// Intel HEX record types used here.
const (
	hexRecordData            = 0x00
	hexRecordEOF             = 0x01
	hexRecordExtendedSegment = 0x02
	hexRecordExtendedLinear  = 0x04
	hexRecordStartLinear     = 0x05

	maxAssembledHexSpan = 64 << 20
)

// ExtractFromHex extracts an MPFS2 image embedded in an Intel HEX firmware
// file - the form Microchip build output ships in - and parses it. The hex
// records are assembled into a flat address space, the "MPFS" signature is
// located, and everything from there to the end of the assembled span is
// parsed as the image.
func ExtractFromHex(r io.Reader, options *ParseOptions) (*FileSystem, error) {
	data, err := assembleHex(r)
	if err != nil {
		return nil, err
	}
	start := bytes.Index(data, []byte(signature))
	for start >= 0 {
		// the signature may appear in code bytes; require a parseable header
		if _, err := parseHeader(NewImage(data[start:])); err == nil {
			return Parse(data[start:], options)
		}
		next := bytes.Index(data[start+1:], []byte(signature))
		if next < 0 {
			break
		}
		start += 1 + next
	}
	return nil, errors.New("no MPFS2 image found")
}

type hexChunk struct {
	addr uint32
	data []byte
}

// assembleHex decodes Intel HEX records into one flat buffer covering the
// span of all data records, gap bytes zero-filled.
func assembleHex(r io.Reader) ([]byte, error) {
	var (
		chunks []hexChunk
		base   uint32
		line   int
	)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		if text[0] != ':' {
			return nil, fmt.Errorf("hex line %d: missing ':' start code", line)
		}
		record, err := hex.DecodeString(string(text[1:]))
		if err != nil {
			return nil, fmt.Errorf("hex line %d: %w", line, err)
		}
		if len(record) < 5 {
			return nil, fmt.Errorf("hex line %d: record too short", line)
		}
		length := int(record[0])
		if len(record) != 5+length {
			return nil, fmt.Errorf("hex line %d: length field %d does not match record size", line, length)
		}
		var sum byte
		for _, b := range record {
			sum += b
		}
		if sum != 0 {
			return nil, fmt.Errorf("hex line %d: checksum mismatch", line)
		}
		offset := uint32(record[1])<<8 | uint32(record[2])
		payload := record[4 : 4+length]
		switch record[3] {
		case hexRecordData:
			chunks = append(chunks, hexChunk{addr: base + offset, data: append([]byte(nil), payload...)})
		case hexRecordEOF:
			return flattenChunks(chunks)
		case hexRecordExtendedLinear:
			if length != 2 {
				return nil, fmt.Errorf("hex line %d: bad extended linear address record", line)
			}
			base = uint32(payload[0])<<24 | uint32(payload[1])<<16
		case hexRecordExtendedSegment:
			if length != 2 {
				return nil, fmt.Errorf("hex line %d: bad extended segment address record", line)
			}
			base = (uint32(payload[0])<<8 | uint32(payload[1])) << 4
		case hexRecordStartLinear:
			// entry point, irrelevant to data assembly
		default:
			return nil, fmt.Errorf("hex line %d: unsupported record type 0x%02X", line, record[3])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, errors.New("hex input ended without an EOF record")
}

func flattenChunks(chunks []hexChunk) ([]byte, error) {
	if len(chunks) == 0 {
		return nil, errors.New("hex input contains no data records")
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].addr < chunks[j].addr })
	lo := chunks[0].addr
	hi := lo
	for _, c := range chunks {
		if end := c.addr + uint32(len(c.data)); end > hi {
			hi = end
		}
	}
	if int64(hi)-int64(lo) > maxAssembledHexSpan {
		return nil, fmt.Errorf("hex data spans %d bytes, exceeds max allowed (%d)", int64(hi)-int64(lo), maxAssembledHexSpan)
	}
	flat := make([]byte, hi-lo)
	for _, c := range chunks {
		copy(flat[c.addr-lo:], c.data)
	}
	return flat, nil
}
