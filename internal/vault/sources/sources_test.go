package sources

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestFromPath_ExtensionAndSniff(t *testing.T) {
	dir := t.TempDir()

	jpg := filepath.Join(dir, "IMG_0001.JPG")
	require.NoError(t, os.WriteFile(jpg, []byte("not really a jpeg"), 0o600))

	f, err := FromPath(jpg)
	require.NoError(t, err)
	require.Equal(t, "IMG_0001.JPG", f.Name())
	require.Equal(t, "image/jpeg", f.MimeType())
	require.Equal(t, int64(17), f.Size())

	noext := filepath.Join(dir, "blob")
	require.NoError(t, os.WriteFile(noext, pngHeader, 0o600))

	f, err = FromPath(noext)
	require.NoError(t, err)
	require.Equal(t, "image/png", f.MimeType())

	rc, err := f.Open()
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, pngHeader, data)
}

func TestFromPath_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := FromPath(filepath.Join(dir, "missing.jpg"))
	require.Error(t, err)

	_, err = FromPath(dir)
	require.ErrorContains(t, err, "is a directory")
}

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), pngHeader, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.mp4"), []byte("video"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o700))

	single := filepath.Join(t.TempDir(), "c.gif")
	require.NoError(t, os.WriteFile(single, []byte("GIF89a"), 0o600))

	missing := filepath.Join(dir, "nope.jpg")

	out, failed := Expand([]string{dir, single, missing})

	names := make([]string, 0, len(out))
	for _, s := range out {
		names = append(names, s.Name())
	}
	require.Equal(t, []string{"a.png", "b.mp4", "c.gif"}, names)
	require.Len(t, failed, 1)
	require.Contains(t, failed, missing)
}

func TestMemory(t *testing.T) {
	m := NewMemory("x.jpg", "image/jpeg", []byte("abc"))
	require.Equal(t, "x.jpg", m.Name())
	require.Equal(t, "image/jpeg", m.MimeType())
	require.Equal(t, int64(3), m.Size())

	rc, err := m.Open()
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	require.Equal(t, []byte("abc"), data)
}
