package mpfs2

import (
	"testing"

	"github.com/rene-d/mpfs2/_test_data/images"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImagePayload(t *testing.T) {
	data := images.New().Add("a.txt", []byte("abc")).Bytes()
	fs, err := Parse(data, nil)
	require.NoError(t, err)
	entry := fs.Entries[0]

	view, err := fs.Image().Payload(entry)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), view)
	// the view aliases the image, it is not a copy
	assert.Same(t, &data[entry.DataPtr], &view[0])
}

func TestImagePayload_ForeignImage(t *testing.T) {
	data := images.New().Add("a.txt", []byte("abc")).Bytes()
	fs, err := Parse(data, nil)
	require.NoError(t, err)
	entry := fs.Entries[0]

	// the entry's pre-validated range must be re-checked against whatever
	// image it is applied to
	short := NewImage(data[:10])
	_, err = short.Payload(entry)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestFileEntryData(t *testing.T) {
	data := images.New().Add("a.txt", []byte("abc")).Bytes()
	fs, err := Parse(data, nil)
	require.NoError(t, err)

	got, err := fs.Entries[0].Data()
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	// cached - same backing bytes on a second call
	again, err := fs.Entries[0].Data()
	require.NoError(t, err)
	assert.Same(t, &got[0], &again[0])
}

func TestFileEntryData_Gzip(t *testing.T) {
	content := []byte("Hello World, compressed edition")
	data := images.New().
		AddFile(images.File{Name: "z.txt", Data: images.Gzip(content), Flags: FlagZipped}).
		Bytes()

	fs, err := Parse(data, nil)
	require.NoError(t, err)
	require.Len(t, fs.Entries, 1)
	assert.True(t, fs.Entries[0].Zipped())

	got, err := fs.FileData("z.txt")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	// the raw payload view stays compressed
	raw, err := fs.Image().Payload(fs.Entries[0])
	require.NoError(t, err)
	assert.Equal(t, images.Gzip(content), raw)
}

func TestFileEntryData_BadGzip(t *testing.T) {
	data := images.New().
		AddFile(images.File{Name: "z.txt", Data: []byte("not gzip at all"), Flags: FlagZipped}).
		Bytes()

	fs, err := Parse(data, nil)
	require.NoError(t, err)

	_, err = fs.Entries[0].Data()
	assert.ErrorIs(t, err, ErrCorruptEntry)

	// the error is cached too
	_, repeated := fs.Entries[0].Data()
	assert.Equal(t, err, repeated)
}

func TestParse_ErrorOnPayloadDecode(t *testing.T) {
	data := images.New().
		Add("good.txt", []byte("ok")).
		AddFile(images.File{Name: "bad.txt", Data: []byte("not gzip"), Flags: FlagZipped}).
		Bytes()

	fs, err := Parse(data, &ParseOptions{Mode: ParseFull, ErrorOnPayloadDecode: true})
	assert.ErrorIs(t, err, ErrCorruptEntry)
	// entries decoded before the failing payload are kept
	require.Len(t, fs.Entries, 1)
	assert.Equal(t, "good.txt", fs.Entries[0].Name)
}
