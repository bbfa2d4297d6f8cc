package mpfs2

import (
	"bytes"
	"testing"

	"github.com/rene-d/mpfs2/_test_data/images"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	data := images.New().
		Add("a.txt", []byte("abc")).
		Add("", nil).
		Bytes()

	fs, err := Parse(data, nil)
	require.NoError(t, err)
	require.NotNil(t, fs)
	require.Len(t, fs.Entries, 2)

	assert.Equal(t, "a.txt", fs.Entries[0].Name)
	payload, err := fs.Image().Payload(fs.Entries[0])
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), payload)

	assert.Equal(t, "", fs.Entries[1].Name)
	assert.Equal(t, uint32(0), fs.Entries[1].Length)
	empty, err := fs.Entries[1].Data()
	require.NoError(t, err)
	assert.Len(t, empty, 0)
}

func TestParse_NVMMediaData(t *testing.T) {
	fs, err := Parse(images.NVMMediaData(), nil)
	require.NoError(t, err)

	assert.Equal(t, "2.1", fs.Header.Version.String())
	assert.Equal(t, uint16(2), fs.Header.FileCount)
	require.Len(t, fs.Entries, 2)
	assert.Empty(t, fs.Variables)

	for _, e := range fs.Entries {
		assert.Equal(t, NameHash(e.Name), e.NameHash)
		assert.LessOrEqual(t, int64(e.DataPtr)+int64(e.Length), int64(fs.Image().Len()))
	}

	hello, err := fs.FileData("FILE.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("Hello World"), hello)

	digits, err := fs.FileData("TEST.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("1234567890"), digits)

	entry, ok := fs.EntryByName("TEST.txt")
	require.True(t, ok)
	assert.Equal(t, uint32(10), entry.Length)

	_, ok = fs.EntryByName("")
	assert.False(t, ok)
	_, ok = fs.EntryByName("missing.txt")
	assert.False(t, ok)
	_, err = fs.FileData("missing.txt")
	assert.Error(t, err)
}

func TestParse_Modes(t *testing.T) {
	data := images.NVMMediaData()

	t.Run("header only", func(t *testing.T) {
		fs, err := Parse(data, &ParseOptions{Mode: ParseHeaderOnly})
		require.NoError(t, err)
		assert.Equal(t, uint16(2), fs.Header.FileCount)
		assert.Empty(t, fs.Entries)
		assert.Empty(t, fs.Variables)
	})

	t.Run("header and directory", func(t *testing.T) {
		fs, err := Parse(data, &ParseOptions{Mode: ParseHeaderAndDirectory})
		require.NoError(t, err)
		assert.Len(t, fs.Entries, 2)
		assert.Empty(t, fs.Variables)
	})
}

func TestParse_InvalidSignature(t *testing.T) {
	data := images.NVMMediaData()
	data[1] = 'X'

	fs, err := Parse(data, nil)
	assert.ErrorIs(t, err, ErrInvalidSignature)
	// no directory entry is read once the signature check fails
	assert.Empty(t, fs.Entries)
}

func TestParse_KeepsEntriesDecodedBeforeFailure(t *testing.T) {
	data := images.New().
		Add("a.txt", []byte("abc")).
		Add("b.txt", []byte("0123456789")).
		Bytes()
	truncated := data[:len(data)-5]

	fs, err := Parse(truncated, nil)
	assert.ErrorIs(t, err, ErrCorruptEntry)
	require.Len(t, fs.Entries, 1)
	assert.Equal(t, "a.txt", fs.Entries[0].Name)

	// the surviving entry still resolves
	payload, perr := fs.Entries[0].Data()
	require.NoError(t, perr)
	assert.Equal(t, []byte("abc"), payload)
}

func TestParseImage(t *testing.T) {
	fs, err := ParseImage(bytes.NewReader(images.NVMMediaData()), nil)
	require.NoError(t, err)
	assert.Len(t, fs.Entries, 2)
}
