package mpfs2

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// Payload returns a read-only view of the entry's raw payload bytes within
// the image, exactly as stored (GZIP compressed payloads are not inflated).
// The view aliases the image and never copies. The range was validated at
// decode time; it is re-checked here so that an entry applied to a different
// (shorter) image still fails with ErrOutOfBounds instead of reading garbage.
func (img *Image) Payload(e *FileEntry) ([]byte, error) {
	view, err := img.Read(int64(e.DataPtr), int64(e.Length))
	if err != nil {
		return nil, fmt.Errorf("payload of %q: %w", e.DisplayName(), err)
	}
	return view, nil
}

// Data materializes the entry's payload, inflating it when the record is
// flagged GZIP. The result is resolved once and cached; repeated calls return
// the same bytes (or the same error).
func (e *FileEntry) Data() ([]byte, error) {
	if !e.resolved {
		e.data, e.err = e.resolve()
		e.resolved = true
	}
	return e.data, e.err
}

func (e *FileEntry) resolve() ([]byte, error) {
	raw, err := e.img.Payload(e)
	if err != nil {
		return nil, err
	}
	if !e.Zipped() {
		return raw, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %q flagged GZIP but payload is not gzip: %v", ErrCorruptEntry, e.DisplayName(), err)
	}
	defer func() {
		_ = zr.Close()
	}()
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: inflating %q: %v", ErrCorruptEntry, e.DisplayName(), err)
	}
	return data, nil
}
