package mpfs2

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"
)

// File record flag bits.
const (
	// FlagZipped marks a payload stored with GZIP compression.
	FlagZipped uint16 = 0x0001
	// FlagHasIndex marks a file whose dynamic-variable index is stored as the
	// record immediately following it.
	FlagHasIndex uint16 = 0x0002
)

// FileEntry is one decoded directory record. Entries are immutable once
// decoded; all pointer fields are absolute offsets into the image.
type FileEntry struct {
	Name      string // raw name bytes; empty for index records
	NameHash  uint16
	StringPtr uint32
	DataPtr   uint32
	Length    uint32
	Timestamp uint32 // UNIX timestamp, passed through as stored
	Microtime uint32 // unimplemented by the format, passed through as stored
	Flags     uint16
	// IsIndex is set when the preceding record declared FlagHasIndex, which
	// makes this record that file's dynamic-variable index.
	IsIndex bool

	img      *Image
	data     []byte
	resolved bool
	err      error
}

// Zipped reports whether the payload is GZIP compressed.
func (e *FileEntry) Zipped() bool {
	return e.Flags&FlagZipped != 0
}

// HasIndex reports whether the following record is this file's
// dynamic-variable index.
func (e *FileEntry) HasIndex() bool {
	return e.Flags&FlagHasIndex != 0
}

// ModTime returns the record timestamp as a time.
func (e *FileEntry) ModTime() time.Time {
	return time.Unix(int64(e.Timestamp), 0).UTC()
}

// DisplayName renders the name the way the Microchip tooling lists it:
// control bytes as <n> escapes, "<no name>" for unnamed entries. Name keeps
// the raw bytes; interpretation for display is the caller's concern.
func (e *FileEntry) DisplayName() string {
	if e.Name == "" {
		return "<no name>"
	}
	var b strings.Builder
	for i := 0; i < len(e.Name); i++ {
		if c := e.Name[i]; c < 32 {
			fmt.Fprintf(&b, "<%d>", c)
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// decodeFileEntry decodes the 22-byte record at offset and resolves its name
// string, returning the entry and the offset of the record that follows.
// An all-zero record signals ErrEndOfDirectory rather than an entry.
func decodeFileEntry(img *Image, offset int64) (*FileEntry, int64, error) {
	raw, err := img.Read(offset, recordSize)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: file record at 0x%X: %d byte image too short", ErrTruncatedRecord, offset, img.Len())
	}
	if isZeroRecord(raw) {
		return nil, 0, ErrEndOfDirectory
	}
	e := &FileEntry{
		StringPtr: binary.LittleEndian.Uint32(raw[0:4]),
		DataPtr:   binary.LittleEndian.Uint32(raw[4:8]),
		Length:    binary.LittleEndian.Uint32(raw[8:12]),
		Timestamp: binary.LittleEndian.Uint32(raw[12:16]),
		Microtime: binary.LittleEndian.Uint32(raw[16:20]),
		Flags:     binary.LittleEndian.Uint16(raw[20:22]),
		img:       img,
	}
	if int64(e.DataPtr)+int64(e.Length) > int64(img.Len()) {
		return nil, 0, fmt.Errorf("%w: record at 0x%X declares payload [0x%X:0x%X) beyond %d byte image",
			ErrCorruptEntry, offset, e.DataPtr, int64(e.DataPtr)+int64(e.Length), img.Len())
	}
	if e.Name, err = readName(img, e.StringPtr); err != nil {
		return nil, 0, fmt.Errorf("record at 0x%X: %w", offset, err)
	}
	return e, offset + recordSize, nil
}

func isZeroRecord(raw []byte) bool {
	for _, b := range raw {
		if b != 0 {
			return false
		}
	}
	return true
}

// readName reads the NUL-terminated name string at ptr, bounded by
// maxNameLength.
func readName(img *Image, ptr uint32) (string, error) {
	window := int64(maxNameLength)
	if rem := int64(img.Len()) - int64(ptr); rem < window {
		window = rem
	}
	if window <= 0 {
		return "", fmt.Errorf("%w: name pointer 0x%X beyond %d byte image", ErrCorruptEntry, ptr, img.Len())
	}
	raw, err := img.Read(int64(ptr), window)
	if err != nil {
		return "", err
	}
	i := bytes.IndexByte(raw, 0)
	if i < 0 {
		return "", fmt.Errorf("%w: name at 0x%X unterminated within %d bytes", ErrCorruptEntry, ptr, maxNameLength)
	}
	return string(raw[:i]), nil
}

// DirectoryWalker is a lazy cursor over the directory record table. It yields
// entries in file order, stops at the declared file count or at an all-zero
// terminator record, and never reads past its first error. Reset rewinds it
// to the first record; two walks over the same image yield identical entries.
type DirectoryWalker struct {
	img       *Image
	header    Header
	index     int
	offset    int64
	prevFlags uint16
	done      bool
	err       error
}

// NewDirectoryWalker positions a walker at the first record of the directory
// described by header.
func NewDirectoryWalker(img *Image, header Header) *DirectoryWalker {
	w := &DirectoryWalker{img: img, header: header}
	w.Reset()
	return w
}

// Reset rewinds the walker to the first record, clearing any terminal state.
func (w *DirectoryWalker) Reset() {
	w.index = 0
	w.offset = w.header.recordTableOffset()
	w.prevFlags = 0
	w.done = false
	w.err = nil
}

// Next returns the next directory entry. It returns ErrEndOfDirectory once
// the table is exhausted; any other error is terminal and repeated by
// subsequent calls.
func (w *DirectoryWalker) Next() (*FileEntry, error) {
	if w.err != nil {
		return nil, w.err
	}
	if w.done || w.index >= int(w.header.FileCount) {
		w.done = true
		return nil, ErrEndOfDirectory
	}
	hash, err := w.img.uint16At(w.header.hashTableOffset() + hashEntrySize*int64(w.index))
	if err != nil {
		w.err = fmt.Errorf("%w: name hash %d: %d byte image too short", ErrTruncatedRecord, w.index, w.img.Len())
		return nil, w.err
	}
	entry, next, err := decodeFileEntry(w.img, w.offset)
	if errors.Is(err, ErrEndOfDirectory) {
		w.done = true
		return nil, ErrEndOfDirectory
	}
	if err != nil {
		w.err = err
		return nil, w.err
	}
	entry.NameHash = hash
	entry.IsIndex = w.prevFlags&FlagHasIndex != 0
	w.prevFlags = entry.Flags
	w.offset = next
	w.index++
	return entry, nil
}
