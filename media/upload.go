// Package media connects the compositor to video files through ffmpeg: a
// decoder that produces RGBA frames for the streaming texture and an encoder
// that consumes frames read back from the capture target.
package media

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/gooverlay/gles"
)

// UploadFrame writes one RGBA frame into a 2D streaming texture. Rows are
// expected top to bottom as ffmpeg produces them; pair with FlipTransform.
func UploadFrame(api gles.API, texture uint32, width, height int, rgba []byte) error {
	if len(rgba) < width*height*4 {
		return fmt.Errorf("frame holds %d bytes, %dx%d RGBA needs %d", len(rgba), width, height, width*height*4)
	}
	api.ActiveTexture(gles.TEXTURE0)
	api.BindTexture(gles.TEXTURE_2D, texture)
	api.TexImage2D(gles.TEXTURE_2D, int32(width), int32(height), gles.RGBA, rgba)
	return gles.Check(api, "glTexImage2D streaming frame")
}

// FlipTransform is the texture transform for frames uploaded top row first:
// it maps v to 1-v so the first row lands at the top of the quad.
func FlipTransform() mgl32.Mat4 {
	return mgl32.Translate3D(0, 1, 0).Mul4(mgl32.Scale3D(1, -1, 1))
}
