package mpfs2

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"slices"
)

// Variable is one dynamic variable declared by a file's index record - a
// number the firmware substitutes at serve time and the ~name~ it was
// declared with in the file's content.
type Variable struct {
	Number uint32
	Name   string
}

const (
	variableRecordSize = 8
	variableMarker     = '~'

	// Same defensive bound as file names; declared variable names in real
	// images are short identifiers.
	maxVariableNameLength = 64
)

// parseVariables decodes the dynamic-variable table from the already decoded
// directory. Each record flagged FlagHasIndex is followed by an index record
// whose payload is a run of (name offset, variable number) pairs; the name
// lives inside the owning file's payload, framed by '~' markers. An image
// with no index records yields an empty table, not an error. The same number
// resolving to two different names is corruption.
func parseVariables(img *Image, entries []*FileEntry) ([]Variable, error) {
	byNumber := make(map[uint32]string)
	for i, r := range entries {
		if !r.HasIndex() {
			continue
		}
		if i+1 >= len(entries) {
			return nil, fmt.Errorf("%w: %q declares an index but is the last record", ErrCorruptEntry, r.DisplayName())
		}
		v := entries[i+1]
		for off := int64(0); off+variableRecordSize <= int64(v.Length); off += variableRecordSize {
			rec, err := img.Read(int64(v.DataPtr)+off, variableRecordSize)
			if err != nil {
				return nil, fmt.Errorf("index of %q: %w", r.DisplayName(), err)
			}
			nameOffset := binary.LittleEndian.Uint32(rec[0:4])
			number := binary.LittleEndian.Uint32(rec[4:8])
			name, err := readVariableName(img, int64(r.DataPtr)+int64(nameOffset))
			if err != nil {
				return nil, fmt.Errorf("index of %q, variable %d: %w", r.DisplayName(), number, err)
			}
			if existing, ok := byNumber[number]; ok {
				if existing != name {
					return nil, fmt.Errorf("%w: variable %d resolves to both %q and %q", ErrCorruptEntry, number, existing, name)
				}
				continue
			}
			byNumber[number] = name
		}
	}
	numbers := make([]uint32, 0, len(byNumber))
	for n := range byNumber {
		numbers = append(numbers, n)
	}
	slices.Sort(numbers)
	result := make([]Variable, 0, len(numbers))
	for _, n := range numbers {
		result = append(result, Variable{Number: n, Name: byNumber[n]})
	}
	return result, nil
}

// readVariableName reads a ~name~ framed variable name at ptr.
func readVariableName(img *Image, ptr int64) (string, error) {
	first, err := img.Read(ptr, 1)
	if err != nil {
		return "", err
	}
	if first[0] != variableMarker {
		return "", fmt.Errorf("%w: no %q marker at 0x%X", ErrCorruptEntry, string(variableMarker), ptr)
	}
	window := int64(maxVariableNameLength) + 1
	if rem := int64(img.Len()) - ptr - 1; rem < window {
		window = rem
	}
	raw, err := img.Read(ptr+1, window)
	if err != nil {
		return "", err
	}
	i := bytes.IndexByte(raw, variableMarker)
	if i < 0 {
		return "", fmt.Errorf("%w: variable name at 0x%X unterminated within %d bytes", ErrCorruptEntry, ptr, maxVariableNameLength)
	}
	return string(raw[:i]), nil
}
