package mpfs2

import (
	"fmt"
	"io"
)

type ParseMode uint8

const (
	// ParseFull parses the header, the directory and the dynamic-variable
	// table.
	ParseFull ParseMode = iota
	// ParseHeaderAndDirectory skips the dynamic-variable table.
	ParseHeaderAndDirectory
	// ParseHeaderOnly stops after the 8 byte header - useful for just probing
	// an image's version and file count.
	ParseHeaderOnly
)

// ParseOptions represents the parsing options passed to Parse
type ParseOptions struct {
	// Mode determines how much of the image to parse
	//
	// the default is ParseFull - parses everything
	Mode ParseMode
	// ErrorOnPayloadDecode forces every payload to be materialized at parse
	// time, so a payload range or GZIP problem fails the parse
	//
	// defaults to false - payloads are resolved lazily on the first call to
	// FileEntry.Data
	ErrorOnPayloadDecode bool
}

// FileSystem represents the decoded contents of an MPFS2 image
type FileSystem struct {
	// Header is the image header (version, file count)
	Header Header
	// Entries are the directory records in file order, index records included
	Entries []*FileEntry
	// Variables is the dynamic-variable table, ordered by variable number
	Variables []Variable

	image         *Image
	entriesByName map[string]*FileEntry
}

// Image returns the underlying byte source. Entries and payload views stay
// valid only as long as it does.
func (fs *FileSystem) Image() *Image {
	return fs.image
}

// EntryByName retrieves the directory entry with the given name. Unnamed
// index records are not reachable this way.
func (fs *FileSystem) EntryByName(name string) (result *FileEntry, ok bool) {
	if name == "" {
		return nil, false
	}
	result, ok = fs.entriesByName[name]
	return result, ok
}

// FileData retrieves a named file's materialized payload - the bytes the
// firmware would serve, inflated when stored GZIP compressed.
func (fs *FileSystem) FileData(name string) ([]byte, error) {
	if e, ok := fs.entriesByName[name]; ok {
		return e.Data()
	}
	return nil, fmt.Errorf("file %q not found", name)
}

func (fs *FileSystem) mapEntries() {
	fs.entriesByName = make(map[string]*FileEntry, len(fs.Entries))
	for _, e := range fs.Entries {
		if e.Name != "" {
			fs.entriesByName[e.Name] = e
		}
	}
}

// Parse decodes an MPFS2 filesystem image from an already loaded buffer with
// the supplied ParseOptions.
//
// if the ParseOptions supplied is nil, default (full) options are used
//
// On a directory decode error the entries decoded before the failure point
// are kept on the returned FileSystem alongside the error.
func Parse(data []byte, options *ParseOptions) (result *FileSystem, err error) {
	if options == nil {
		options = &ParseOptions{
			Mode: ParseFull,
		}
	}
	result = &FileSystem{image: NewImage(data)}
	if result.Header, err = parseHeader(result.image); err == nil && options.Mode < ParseHeaderOnly {
		if result.Entries, err = collectEntries(result.image, result.Header, options); err == nil && options.Mode < ParseHeaderAndDirectory {
			result.Variables, err = parseVariables(result.image, result.Entries)
		}
		result.mapEntries()
	}
	return result, err
}

// ParseImage reads the whole of r into memory and parses it as an MPFS2
// image.
func ParseImage(r io.Reader, options *ParseOptions) (*FileSystem, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return Parse(data, options)
}

func collectEntries(img *Image, header Header, options *ParseOptions) ([]*FileEntry, error) {
	walker := NewDirectoryWalker(img, header)
	entries := make([]*FileEntry, 0, header.FileCount)
	for {
		entry, err := walker.Next()
		if err == ErrEndOfDirectory {
			break
		}
		if err != nil {
			return entries, err
		}
		if options.ErrorOnPayloadDecode {
			if _, err = entry.Data(); err != nil {
				return entries, err
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
