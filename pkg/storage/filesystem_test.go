package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	name, err := store.Save("students/ADM-1.txt", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "students/ADM-1.txt", name)

	raw, err := os.ReadFile(filepath.Join(dir, "students", "ADM-1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(raw))

	require.NoError(t, store.Delete(name))
	require.NoError(t, store.Delete(name))
	_, err = os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(err))
}

func TestSaveStream(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.SaveStream("a.csv", strings.NewReader("x,y"))
	require.NoError(t, err)
	raw, err := os.ReadFile(filepath.Join(store.BaseDir(), name))
	require.NoError(t, err)
	assert.Equal(t, "x,y", string(raw))
}

func TestRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("../escape.txt", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = store.Save("/etc/passwd", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestSaveImageResizes(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	src := image.NewNRGBA(image.Rect(0, 0, 1200, 800))
	for x := 0; x < 1200; x++ {
		src.Set(x, x%800, color.NRGBA{R: 200, A: 255})
	}
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, src))

	name, err := store.SaveImage("students/ADM-1.jpg", buf, ImageOptions{MaxWidth: 600})
	require.NoError(t, err)

	img, err := imaging.Open(filepath.Join(store.BaseDir(), name))
	require.NoError(t, err)
	assert.Equal(t, 600, img.Bounds().Dx())
	assert.Equal(t, 400, img.Bounds().Dy())
}

func TestSaveImageRejectsGarbage(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.SaveImage("bad.jpg", strings.NewReader("not an image"), ImageOptions{MaxWidth: 600})
	assert.Error(t, err)
}
