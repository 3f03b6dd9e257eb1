package imagestore_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resep/pkg/imagestore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	jpegSample = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01}
	pngSample  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D}
	gifSample  = []byte("GIF89a\x01\x00\x01\x00")
)

func newStore(t *testing.T) (*imagestore.Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := imagestore.NewStore(dir)
	require.NoError(t, err)
	return store, dir
}

func TestAllowed(t *testing.T) {
	tests := map[string]bool{
		"photo.jpg":  true,
		"photo.JPG":  true,
		"photo.jpeg": true,
		"photo.png":  true,
		"photo.gif":  true,
		"shell.exe":  false,
		"noext":      false,
		"photo.bmp":  false,
		"photo.jpg.": false,
	}
	for filename, want := range tests {
		assert.Equal(t, want, imagestore.Allowed(filename), filename)
	}
}

func TestSaveRejectsDisallowedExtension(t *testing.T) {
	store, dir := newStore(t)

	_, err := store.Save("shell.exe", bytes.NewReader(jpegSample))
	assert.ErrorIs(t, err, imagestore.ErrUnsupportedFormat)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveAcceptsMixedCaseExtension(t *testing.T) {
	store, dir := newStore(t)

	stored, err := store.Save("photo.JPG", bytes.NewReader(jpegSample))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(stored, ".jpg"))

	data, err := os.ReadFile(filepath.Join(dir, stored))
	require.NoError(t, err)
	assert.Equal(t, jpegSample, data)
}

func TestSaveRejectsMismatchedContent(t *testing.T) {
	store, dir := newStore(t)

	// An executable renamed to .jpg does not get past content sniffing
	_, err := store.Save("photo.jpg", strings.NewReader("#!/bin/sh\necho pwned\n"))
	assert.ErrorIs(t, err, imagestore.ErrContentMismatch)

	// Neither does a real image behind the wrong extension
	_, err = store.Save("photo.png", bytes.NewReader(jpegSample))
	assert.ErrorIs(t, err, imagestore.ErrContentMismatch)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveGeneratesUniqueNames(t *testing.T) {
	store, dir := newStore(t)

	first, err := store.Save("pic.png", bytes.NewReader(pngSample))
	require.NoError(t, err)
	second, err := store.Save("pic.png", bytes.NewReader(pngSample))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestSaveAcceptsEveryWhitelistedType(t *testing.T) {
	store, _ := newStore(t)

	for filename, content := range map[string][]byte{
		"a.jpg":  jpegSample,
		"b.jpeg": jpegSample,
		"c.png":  pngSample,
		"d.gif":  gifSample,
	} {
		_, err := store.Save(filename, bytes.NewReader(content))
		assert.NoError(t, err, filename)
	}
}

func TestSaveStripsPathComponents(t *testing.T) {
	store, dir := newStore(t)

	stored, err := store.Save("../../etc/evil.png", bytes.NewReader(pngSample))
	require.NoError(t, err)
	assert.NotContains(t, stored, "/")

	_, err = os.Stat(filepath.Join(dir, stored))
	assert.NoError(t, err)
}
