package mpfs2

import (
	"encoding/binary"
	"fmt"
)

const (
	signature     = "MPFS"
	headerSize    = 8
	hashEntrySize = 2
	recordSize    = 22

	supportedMajorVersion = 2

	// The format's uint16 file count would let a crafted image claim 65535
	// records; images from real builds stay far below this.
	maxFileCount = 4096

	// The format defines name strings as 1 to 64 bytes including the NUL.
	maxNameLength = 64
)

// Header represents the parsed MPFS2 image header (8 bytes).
type Header struct {
	Version   Version
	FileCount uint16
}

type Version struct {
	Major int
	Minor int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

func parseHeader(img *Image) (Header, error) {
	buf, err := img.Read(0, headerSize)
	if err != nil {
		return Header{}, fmt.Errorf("%w: image smaller than %d byte header", ErrInvalidSignature, headerSize)
	}
	if string(buf[0:4]) != signature {
		return Header{}, fmt.Errorf("%w: missing %q magic", ErrInvalidSignature, signature)
	}
	version := Version{Major: int(buf[4]), Minor: int(buf[5])}
	if version.Major != supportedMajorVersion {
		return Header{}, fmt.Errorf("%w: unsupported filesystem version %s", ErrInvalidSignature, version)
	}
	count := binary.LittleEndian.Uint16(buf[6:8])
	if count > maxFileCount {
		return Header{}, fmt.Errorf("%w: file count %d exceeds max allowed (%d)", ErrCorruptEntry, count, maxFileCount)
	}
	return Header{Version: version, FileCount: count}, nil
}

// hashTableOffset is where the name-hash table starts (directly after the
// header).
func (h Header) hashTableOffset() int64 {
	return headerSize
}

// recordTableOffset is where the file record table starts (after the
// name-hash table).
func (h Header) recordTableOffset() int64 {
	return headerSize + hashEntrySize*int64(h.FileCount)
}

// NameHash computes the 16-bit hash the MPFS2 generator stores for each file
// name: hash += byte; hash <<= 1. Only the final 15 characters of a name
// influence the result.
func NameHash(name string) uint16 {
	var hash uint16
	for i := 0; i < len(name); i++ {
		hash += uint16(name[i])
		hash <<= 1
	}
	return hash
}
