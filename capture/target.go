// Package capture renders into an offscreen framebuffer and reads the result
// back for encoding.
package capture

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/richinsley/gooverlay/gles"
)

// Target is an RGBA8 colour texture with a depth renderbuffer attached to a
// framebuffer object.
type Target struct {
	api               gles.API
	fbo               uint32
	textureID         uint32
	depthRenderbuffer uint32
	width             int
	height            int
}

// New allocates a width x height target.
func New(api gles.API, width, height int) (*Target, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid capture size %dx%d", width, height)
	}
	t := &Target{api: api, width: width, height: height}

	t.fbo = api.GenFramebuffer()
	api.BindFramebuffer(gles.FRAMEBUFFER, t.fbo)

	t.textureID = api.GenTexture()
	api.ActiveTexture(gles.TEXTURE0)
	api.BindTexture(gles.TEXTURE_2D, t.textureID)
	api.TexImage2D(gles.TEXTURE_2D, int32(width), int32(height), gles.RGBA, nil)
	api.TexParameteri(gles.TEXTURE_2D, gles.TEXTURE_MIN_FILTER, gles.LINEAR)
	api.TexParameteri(gles.TEXTURE_2D, gles.TEXTURE_MAG_FILTER, gles.LINEAR)
	api.FramebufferTexture2D(gles.FRAMEBUFFER, gles.COLOR_ATTACHMENT0, gles.TEXTURE_2D, t.textureID)

	t.depthRenderbuffer = api.GenRenderbuffer()
	api.BindRenderbuffer(gles.RENDERBUFFER, t.depthRenderbuffer)
	api.RenderbufferStorage(gles.RENDERBUFFER, gles.DEPTH_COMPONENT24, int32(width), int32(height))
	api.FramebufferRenderbuffer(gles.FRAMEBUFFER, gles.DEPTH_ATTACHMENT, gles.RENDERBUFFER, t.depthRenderbuffer)

	if err := gles.Check(api, "capture framebuffer"); err != nil {
		t.Destroy()
		return nil, err
	}
	if status := api.CheckFramebufferStatus(gles.FRAMEBUFFER); status != gles.FRAMEBUFFER_COMPLETE {
		t.Destroy()
		return nil, fmt.Errorf("capture framebuffer is not complete: status %#x", status)
	}

	api.BindTexture(gles.TEXTURE_2D, 0)
	api.BindFramebuffer(gles.FRAMEBUFFER, 0)
	log.Debug("created capture target", "width", width, "height", height, "fbo", t.fbo)
	return t, nil
}

// FrameSize is the number of bytes ReadPixels fills.
func (t *Target) FrameSize() int {
	return t.width * t.height * 4
}

// Bind directs drawing into the target and sets the viewport to cover it.
func (t *Target) Bind() {
	t.api.BindFramebuffer(gles.FRAMEBUFFER, t.fbo)
	t.api.Viewport(0, 0, int32(t.width), int32(t.height))
}

// Unbind restores the default framebuffer.
func (t *Target) Unbind() {
	t.api.BindFramebuffer(gles.FRAMEBUFFER, 0)
}

// ReadPixels copies the target into dst as RGBA rows, bottom row first. dst
// must hold at least FrameSize bytes.
func (t *Target) ReadPixels(dst []byte) error {
	if len(dst) < t.FrameSize() {
		return fmt.Errorf("read buffer holds %d bytes, need %d", len(dst), t.FrameSize())
	}
	t.api.BindFramebuffer(gles.FRAMEBUFFER, t.fbo)
	t.api.ReadPixels(0, 0, int32(t.width), int32(t.height), gles.RGBA, dst)
	return gles.Check(t.api, "glReadPixels")
}

// Destroy deletes the framebuffer and its attachments.
func (t *Target) Destroy() {
	if t.fbo != 0 {
		t.api.DeleteFramebuffer(t.fbo)
		t.fbo = 0
	}
	if t.textureID != 0 {
		t.api.DeleteTexture(t.textureID)
		t.textureID = 0
	}
	if t.depthRenderbuffer != 0 {
		t.api.DeleteRenderbuffer(t.depthRenderbuffer)
		t.depthRenderbuffer = 0
	}
}
