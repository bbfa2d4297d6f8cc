package mpfs2

import "errors"

var (
	// ErrInvalidSignature is returned when the image does not begin with the
	// "MPFS" magic or declares a filesystem version other than 2.
	ErrInvalidSignature = errors.New("invalid MPFS2 signature")

	// ErrTruncatedRecord is returned when a fixed-size field extends past the
	// end of the image.
	ErrTruncatedRecord = errors.New("truncated record")

	// ErrCorruptEntry is returned for internally inconsistent records - a
	// payload range beyond the image, an unterminated or oversized name, a
	// malformed variable index.
	ErrCorruptEntry = errors.New("corrupt entry")

	// ErrOutOfBounds is returned by Image.Read for any request outside the
	// image. Reads are never silently clamped.
	ErrOutOfBounds = errors.New("read out of bounds")

	// ErrEndOfDirectory is returned by DirectoryWalker.Next once the record
	// table is exhausted or a terminator record was reached. It signals a
	// clean end of iteration, not a failure.
	ErrEndOfDirectory = errors.New("end of directory")
)
