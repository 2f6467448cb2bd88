package shader_test

import (
	"testing"

	"github.com/richinsley/gooverlay/shader"
	"github.com/stretchr/testify/assert"
)

func TestCompositeHalfTransparentBlueOverRed(t *testing.T) {
	red := [4]float32{1, 0, 0, 1}
	blue := [4]float32{0, 0, 1, 0.5}
	assert.Equal(t, [4]float32{0.5, 0, 1, 1}, shader.CompositePixel(red, blue))
}

func TestCompositeIsNotPremultipliedOver(t *testing.T) {
	// the overlay colour is added in full; a true over operator would give 0.5
	out := shader.CompositePixel([4]float32{0, 0, 0, 1}, [4]float32{1, 1, 1, 0.5})
	assert.Equal(t, [4]float32{1, 1, 1, 1}, out)
}

func TestCompositeTransparentOverlayPassesVideo(t *testing.T) {
	video := [4]float32{0.2, 0.4, 0.6, 0.3}
	assert.Equal(t, [4]float32{0.2, 0.4, 0.6, 1}, shader.CompositePixel(video, [4]float32{}))
}

func TestOverlayForFrame(t *testing.T) {
	for i := 0; i < shader.OverlayCount; i++ {
		assert.Equal(t, i, shader.OverlayForFrame(float32(i)))
	}
	assert.Equal(t, -1, shader.OverlayForFrame(10))
	assert.Equal(t, -1, shader.OverlayForFrame(0.5))
}
