package mpfs2

import (
	"encoding/binary"
	"testing"

	"github.com/rene-d/mpfs2/_test_data/images"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indexPayload(pairs ...[2]uint32) []byte {
	out := make([]byte, 0, len(pairs)*8)
	var u32 [4]byte
	for _, p := range pairs {
		binary.LittleEndian.PutUint32(u32[:], p[0])
		out = append(out, u32[:]...)
		binary.LittleEndian.PutUint32(u32[:], p[1])
		out = append(out, u32[:]...)
	}
	return out
}

func TestParseVariables(t *testing.T) {
	content := []byte("Hello ~date~ and ~time~!")
	data := images.New().
		AddFile(images.File{Name: "dyn.htm", Data: content, Flags: FlagHasIndex}).
		Add("", indexPayload([2]uint32{6, 0}, [2]uint32{17, 1})).
		Add("plain.txt", []byte("static")).
		Bytes()

	fs, err := Parse(data, nil)
	require.NoError(t, err)
	assert.Equal(t, []Variable{
		{Number: 0, Name: "date"},
		{Number: 1, Name: "time"},
	}, fs.Variables)
}

func TestParseVariables_NoIndexes(t *testing.T) {
	fs, err := Parse(images.NVMMediaData(), nil)
	require.NoError(t, err)
	assert.Empty(t, fs.Variables)
}

func TestParseVariables_SharedNumberSameName(t *testing.T) {
	content := []byte("~date~")
	data := images.New().
		AddFile(images.File{Name: "a.htm", Data: content, Flags: FlagHasIndex}).
		Add("", indexPayload([2]uint32{0, 7}, [2]uint32{0, 7})).
		Bytes()

	fs, err := Parse(data, nil)
	require.NoError(t, err)
	assert.Equal(t, []Variable{{Number: 7, Name: "date"}}, fs.Variables)
}

func TestParseVariables_ConflictingNumber(t *testing.T) {
	a := []byte("~date~")
	b := []byte("~time~")
	data := images.New().
		AddFile(images.File{Name: "a.htm", Data: a, Flags: FlagHasIndex}).
		Add("", indexPayload([2]uint32{0, 0})).
		AddFile(images.File{Name: "b.htm", Data: b, Flags: FlagHasIndex}).
		Add("", indexPayload([2]uint32{0, 0})).
		Bytes()

	_, err := Parse(data, nil)
	assert.ErrorIs(t, err, ErrCorruptEntry)
}

func TestParseVariables_IndexIsLastRecord(t *testing.T) {
	data := images.New().
		AddFile(images.File{Name: "a.htm", Data: []byte("~x~"), Flags: FlagHasIndex}).
		Bytes()

	_, err := Parse(data, nil)
	assert.ErrorIs(t, err, ErrCorruptEntry)
}

func TestParseVariables_MissingMarker(t *testing.T) {
	data := images.New().
		AddFile(images.File{Name: "a.htm", Data: []byte("no markers here"), Flags: FlagHasIndex}).
		Add("", indexPayload([2]uint32{0, 0})).
		Bytes()

	_, err := Parse(data, nil)
	assert.ErrorIs(t, err, ErrCorruptEntry)
}

func TestParseVariables_UnterminatedName(t *testing.T) {
	data := images.New().
		AddFile(images.File{Name: "a.htm", Data: []byte("~never-closed"), Flags: FlagHasIndex}).
		Add("", indexPayload([2]uint32{0, 0})).
		Bytes()

	_, err := Parse(data, nil)
	assert.ErrorIs(t, err, ErrCorruptEntry)
}

func TestParseVariables_SkippedInDirectoryMode(t *testing.T) {
	data := images.New().
		AddFile(images.File{Name: "a.htm", Data: []byte("broken"), Flags: FlagHasIndex}).
		Add("", indexPayload([2]uint32{0, 0})).
		Bytes()

	fs, err := Parse(data, &ParseOptions{Mode: ParseHeaderAndDirectory})
	require.NoError(t, err)
	assert.Len(t, fs.Entries, 2)
	assert.Empty(t, fs.Variables)
}
