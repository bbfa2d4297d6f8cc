// Package images builds synthetic MPFS2 images for tests.
package images

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
)

const (
	headerSize    = 8
	hashEntrySize = 2
	recordSize    = 22
)

// File is one file to place into a built image.
type File struct {
	Name      string
	Data      []byte
	Flags     uint16
	Timestamp uint32
}

// Builder assembles syntactically valid MPFS2 images the way the Microchip
// generator lays them out: header, name-hash table, record table, strings,
// payloads.
type Builder struct {
	version [2]byte
	files   []File
}

func New() *Builder {
	return &Builder{version: [2]byte{2, 1}}
}

// Version overrides the header version bytes.
func (b *Builder) Version(major, minor byte) *Builder {
	b.version = [2]byte{major, minor}
	return b
}

// Add appends a plain file.
func (b *Builder) Add(name string, data []byte) *Builder {
	return b.AddFile(File{Name: name, Data: data})
}

// AddFile appends a file with full control over flags and timestamp.
func (b *Builder) AddFile(f File) *Builder {
	b.files = append(b.files, f)
	return b
}

// Bytes lays out the image.
func (b *Builder) Bytes() []byte {
	n := len(b.files)
	stringsOffset := headerSize + n*(hashEntrySize+recordSize)

	stringPtrs := make([]uint32, n)
	var stringRegion bytes.Buffer
	for i, f := range b.files {
		stringPtrs[i] = uint32(stringsOffset + stringRegion.Len())
		stringRegion.WriteString(f.Name)
		stringRegion.WriteByte(0)
	}

	dataOffset := stringsOffset + stringRegion.Len()
	dataPtrs := make([]uint32, n)
	var dataRegion bytes.Buffer
	for i, f := range b.files {
		dataPtrs[i] = uint32(dataOffset + dataRegion.Len())
		dataRegion.Write(f.Data)
	}

	var img bytes.Buffer
	img.WriteString("MPFS")
	img.Write(b.version[:])
	le := binary.LittleEndian
	var u16 [2]byte
	var u32 [4]byte
	le.PutUint16(u16[:], uint16(n))
	img.Write(u16[:])
	for _, f := range b.files {
		le.PutUint16(u16[:], NameHash(f.Name))
		img.Write(u16[:])
	}
	for i, f := range b.files {
		le.PutUint32(u32[:], stringPtrs[i])
		img.Write(u32[:])
		le.PutUint32(u32[:], dataPtrs[i])
		img.Write(u32[:])
		le.PutUint32(u32[:], uint32(len(f.Data)))
		img.Write(u32[:])
		le.PutUint32(u32[:], f.Timestamp)
		img.Write(u32[:])
		le.PutUint32(u32[:], 0) // microtime
		img.Write(u32[:])
		le.PutUint16(u16[:], f.Flags)
		img.Write(u16[:])
	}
	img.Write(stringRegion.Bytes())
	img.Write(dataRegion.Bytes())
	return img.Bytes()
}

// NameHash mirrors the generator's 16-bit name hash.
func NameHash(name string) uint16 {
	var hash uint16
	for i := 0; i < len(name); i++ {
		hash += uint16(name[i])
		hash <<= 1
	}
	return hash
}

// RecordOffset returns the absolute offset of record i in an image holding
// fileCount records.
func RecordOffset(fileCount, i int) int {
	return headerSize + fileCount*hashEntrySize + i*recordSize
}

// Gzip compresses data the way the generator stores ISZIPPED payloads.
func Gzip(data []byte) []byte {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write(data)
	_ = zw.Close()
	return buf.Bytes()
}

// NVMMediaData is the reference image from Microchip's MPLAB Harmony mpfs.c
// template: two files, FILE.txt ("Hello World") and TEST.txt ("1234567890").
func NVMMediaData() []byte {
	return []byte{
		0x4d, 0x50, 0x46, 0x53, 0x02, 0x01, 0x02, 0x00, 0x68, 0x8f, 0x08, 0x9f, 0x38, 0x00, 0x00, 0x00,
		0x4a, 0x00, 0x00, 0x00, 0x0b, 0x00, 0x00, 0x00, 0x4a, 0x3c, 0xd6, 0x53, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x41, 0x00, 0x00, 0x00, 0x55, 0x00, 0x00, 0x00, 0x0a, 0x00, 0x00, 0x00, 0x50, 0x3c,
		0xd6, 0x53, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x46, 0x49, 0x4c, 0x45, 0x2e, 0x74, 0x78, 0x74,
		0x00, 0x54, 0x45, 0x53, 0x54, 0x2e, 0x74, 0x78, 0x74, 0x00, 0x48, 0x65, 0x6c, 0x6c, 0x6f, 0x20,
		0x57, 0x6f, 0x72, 0x6c, 0x64, 0x31, 0x32, 0x33, 0x34, 0x35, 0x36, 0x37, 0x38, 0x39, 0x30,
	}
}
