package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func checker() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(1, 0, color.NRGBA{G: 255, A: 255})
	img.Set(0, 1, color.NRGBA{B: 255, A: 255})
	img.Set(1, 1, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	return img
}

func writeImage(t *testing.T, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	switch filepath.Ext(name) {
	case ".png":
		require.NoError(t, png.Encode(f, img))
	case ".bmp":
		require.NoError(t, bmp.Encode(f, img))
	}
	return path
}

func TestFromImageIsTopDownRGBA(t *testing.T) {
	sub := checker().SubImage(image.Rect(1, 0, 2, 2))
	buf := FromImage(sub)
	assert.Equal(t, 1, buf.Width)
	assert.Equal(t, 2, buf.Height)
	assert.Equal(t, []byte{0, 255, 0, 255, 255, 255, 255, 255}, buf.Pix)
}

func TestLoadFileDecodesPNGAndBMP(t *testing.T) {
	for _, name := range []string{"overlay.png", "overlay.bmp"} {
		buf, err := LoadFile(writeImage(t, name, checker()))
		require.NoError(t, err, name)
		assert.Equal(t, 2, buf.Width, name)
		assert.Equal(t, 2, buf.Height, name)
		assert.Equal(t, []byte{255, 0, 0, 255}, buf.Pix[:4], name)
		assert.Equal(t, []byte{0, 0, 255, 255}, buf.Pix[8:12], name)
	}
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "garbage.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))
	_, err = LoadFile(path)
	assert.ErrorIs(t, err, image.ErrFormat)
}

func TestLoadFilesRepeatsToCount(t *testing.T) {
	a := writeImage(t, "a.png", checker())
	b := writeImage(t, "b.png", image.NewNRGBA(image.Rect(0, 0, 3, 1)))

	bufs, err := LoadFiles([]string{a, b}, 5)
	require.NoError(t, err)
	require.Len(t, bufs, 5)
	widths := []int{}
	for _, buf := range bufs {
		widths = append(widths, buf.Width)
	}
	assert.Equal(t, []int{2, 3, 2, 3, 2}, widths)

	_, err = LoadFiles(nil, 5)
	assert.Error(t, err)
	_, err = LoadFiles([]string{a, a, a}, 2)
	assert.Error(t, err)
}

func TestLoadAllUsesOpener(t *testing.T) {
	var encoded bytes.Buffer
	require.NoError(t, png.Encode(&encoded, checker()))
	opened := []string{}
	open := func(name string) (io.ReadCloser, error) {
		opened = append(opened, name)
		if name != "overlay0.png" {
			return nil, fs.ErrNotExist
		}
		return io.NopCloser(bytes.NewReader(encoded.Bytes())), nil
	}

	bufs, err := LoadAll(open, []string{"overlay0.png"}, 3)
	require.NoError(t, err)
	require.Len(t, bufs, 3)
	assert.Equal(t, 2, bufs[2].Width)
	assert.Equal(t, []string{"overlay0.png", "overlay0.png", "overlay0.png"}, opened)

	_, err = LoadAll(open, []string{"overlay0.png", "overlay1.png"}, 2)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
