package capture

import (
	"testing"

	"github.com/richinsley/gooverlay/gles"
	"github.com/richinsley/gooverlay/gles/glfake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTargetAllocatesColourAttachment(t *testing.T) {
	api := glfake.New()
	target, err := New(api, 8, 4)
	require.NoError(t, err)

	assert.Equal(t, 1, api.LiveTextures())
	assert.Equal(t, int32(gles.LINEAR), api.TextureParam(target.textureID, gles.TEXTURE_MIN_FILTER))
	w, h := api.TextureSize(target.textureID)
	assert.Equal(t, int32(8), w)
	assert.Equal(t, int32(4), h)
	assert.Equal(t, 8*4*4, target.FrameSize())

	target.Destroy()
	assert.Equal(t, 0, api.LiveTextures())
}

func TestBindSetsViewport(t *testing.T) {
	api := glfake.New()
	target, err := New(api, 320, 240)
	require.NoError(t, err)
	target.Bind()
	assert.Equal(t, [4]int32{0, 0, 320, 240}, api.ViewportRect)
}

func TestReadPixels(t *testing.T) {
	api := glfake.New()
	target, err := New(api, 2, 2)
	require.NoError(t, err)

	api.ClearColor(0, 1, 0, 1)
	buf := make([]byte, target.FrameSize())
	require.NoError(t, target.ReadPixels(buf))
	assert.Equal(t, []byte{0, 255, 0, 255}, buf[:4])
	assert.Equal(t, []byte{0, 255, 0, 255}, buf[12:])

	assert.Error(t, target.ReadPixels(make([]byte, 3)))
}

func TestReadPixelsSurfacesGLError(t *testing.T) {
	api := glfake.New()
	target, err := New(api, 1, 1)
	require.NoError(t, err)
	api.FailAfter("glReadPixels", gles.INVALID_OPERATION)

	err = target.ReadPixels(make([]byte, 4))
	var glErr *gles.Error
	require.ErrorAs(t, err, &glErr)
	assert.Equal(t, "glReadPixels", glErr.Op)
}

func TestNewRejectsEmptySize(t *testing.T) {
	_, err := New(glfake.New(), 0, 10)
	assert.Error(t, err)
}
