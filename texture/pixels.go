package texture

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/charmbracelet/log"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrReleased is returned when a pixel buffer is used after its upload.
var ErrReleased = errors.New("texture: pixel buffer already released")

// PixelBuffer is a tightly packed RGBA8 image, rows top to bottom.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []byte
}

// Release drops the pixel data. The buffer cannot be uploaded again.
func (b *PixelBuffer) Release() {
	b.Pix = nil
}

// Released reports whether Release has been called.
func (b *PixelBuffer) Released() bool {
	return b.Pix == nil
}

func (b *PixelBuffer) validate() error {
	if b == nil || b.Released() {
		return ErrReleased
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("texture: invalid pixel buffer size %dx%d", b.Width, b.Height)
	}
	if len(b.Pix) < b.Width*b.Height*4 {
		return fmt.Errorf("texture: pixel buffer holds %d bytes, %dx%d RGBA needs %d", len(b.Pix), b.Width, b.Height, b.Width*b.Height*4)
	}
	return nil
}

// FromImage converts any image to a PixelBuffer.
func FromImage(img image.Image) *PixelBuffer {
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return &PixelBuffer{Width: bounds.Dx(), Height: bounds.Dy(), Pix: rgba.Pix}
}

// Opener opens a named image. LoadFiles uses os.Open; an app bundle passes
// its asset loader.
type Opener func(name string) (io.ReadCloser, error)

func openFile(name string) (io.ReadCloser, error) {
	return os.Open(name)
}

// Decode reads one PNG, JPEG, GIF, BMP, TIFF or WebP image. name is only used
// in messages.
func Decode(r io.Reader, name string) (*PixelBuffer, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode overlay image %s: %w", name, err)
	}
	b := img.Bounds()
	log.Debug("decoded overlay", "name", name, "format", format, "width", b.Dx(), "height", b.Dy())
	return FromImage(img), nil
}

func load(open Opener, name string) (*PixelBuffer, error) {
	f, err := open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open overlay image: %w", err)
	}
	defer f.Close()
	return Decode(f, name)
}

// LoadFile decodes an image file.
func LoadFile(path string) (*PixelBuffer, error) {
	return load(openFile, path)
}

// LoadFiles decodes paths in order. With fewer paths than count the list is
// repeated until count buffers are produced.
func LoadFiles(paths []string, count int) ([]*PixelBuffer, error) {
	return LoadAll(openFile, paths, count)
}

// LoadAll is LoadFiles with images opened through open.
func LoadAll(open Opener, names []string, count int) ([]*PixelBuffer, error) {
	if len(names) == 0 {
		return nil, errors.New("texture: no overlay images given")
	}
	if len(names) > count {
		return nil, fmt.Errorf("texture: %d overlay images given, at most %d supported", len(names), count)
	}
	bufs := make([]*PixelBuffer, 0, count)
	for i := 0; i < count; i++ {
		b, err := load(open, names[i%len(names)])
		if err != nil {
			return nil, err
		}
		bufs = append(bufs, b)
	}
	return bufs, nil
}
