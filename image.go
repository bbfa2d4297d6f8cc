package mpfs2

import (
	"encoding/binary"
	"fmt"
)

// Image is an immutable, randomly addressable view over a loaded MPFS2
// filesystem image. Nothing ever mutates it, so a single Image may be shared
// by any number of concurrent walks without locking.
type Image struct {
	data []byte
}

// NewImage wraps an already loaded image buffer. The Image takes no copy;
// the caller must not modify data afterwards.
func NewImage(data []byte) *Image {
	return &Image{data: data}
}

// Len returns the total image size in bytes.
func (img *Image) Len() int {
	return len(img.data)
}

// Read returns a read-only view of length bytes starting at offset. The view
// aliases the image buffer and stays valid for the image's lifetime; callers
// that need the bytes beyond that must copy them. Any request outside the
// image fails with ErrOutOfBounds.
func (img *Image) Read(offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 || offset > int64(len(img.data))-length {
		return nil, fmt.Errorf("%w: [0x%X:0x%X) of %d byte image", ErrOutOfBounds, offset, offset+length, len(img.data))
	}
	return img.data[offset : offset+length : offset+length], nil
}

func (img *Image) uint16At(offset int64) (uint16, error) {
	b, err := img.Read(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}
