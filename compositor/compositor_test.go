package compositor_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/gooverlay/compositor"
	"github.com/richinsley/gooverlay/geometry"
	"github.com/richinsley/gooverlay/gles"
	"github.com/richinsley/gooverlay/gles/glfake"
	"github.com/richinsley/gooverlay/shader"
	"github.com/richinsley/gooverlay/texture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(c [4]byte) *texture.PixelBuffer {
	pix := make([]byte, 2*2*4)
	for i := 0; i < len(pix); i += 4 {
		copy(pix[i:], c[:])
	}
	return &texture.PixelBuffer{Width: 2, Height: 2, Pix: pix}
}

func overlays(colors map[int][4]byte) []*texture.PixelBuffer {
	bufs := make([]*texture.PixelBuffer, shader.OverlayCount)
	for i := range bufs {
		c, ok := colors[i]
		if !ok {
			c = [4]byte{0, 255, 0, 255}
		}
		bufs[i] = solid(c)
	}
	return bufs
}

func newReady(t *testing.T, cfg compositor.Config) (*glfake.GL, *compositor.Compositor) {
	t.Helper()
	api := glfake.New()
	c := compositor.New(api, cfg)
	require.NoError(t, c.OnSurfaceReady(overlays(nil)))
	return api, c
}

// shade evaluates the fragment stage for one texel using the state a draw saw.
func shade(t *testing.T, api *glfake.GL, d glfake.Draw, target uint32) [4]float32 {
	t.Helper()
	stream, ok := d.Sampler(shader.SamplerStream, target)
	require.True(t, ok)
	frame, ok := d.Uniforms[shader.UniformFrame].(float32)
	require.True(t, ok)
	slot := shader.OverlayForFrame(frame)
	require.GreaterOrEqual(t, slot, 0)
	overlay, ok := d.Sampler(shader.OverlaySampler(slot), gles.TEXTURE_2D)
	require.True(t, ok)
	return shader.CompositePixel(api.Texel(stream, 0, 0), api.Texel(overlay, 0, 0))
}

func TestSetupAllocatesOneProgramElevenTexturesOneBuffer(t *testing.T) {
	api, c := newReady(t, compositor.DefaultConfig())
	assert.Equal(t, 1, api.LivePrograms())
	assert.Equal(t, 11, api.LiveTextures())
	assert.Equal(t, 1, api.LiveBuffers())
	assert.Equal(t, 0, api.LiveShaders())
	assert.Equal(t, uint32(gles.TEXTURE_EXTERNAL_OES), api.TextureTarget(c.StreamingTexture()))
	assert.Equal(t, uint32(gles.TEXTURE_EXTERNAL_OES), c.StreamTarget())
	assert.NoError(t, c.Err())
}

func TestDrawFrameProtocol(t *testing.T) {
	api, c := newReady(t, compositor.DefaultConfig())
	st := mgl32.Translate3D(0, 1, 0).Mul4(mgl32.Scale3D(1, -1, 1))

	before := len(api.Calls)
	require.NoError(t, c.DrawFrame(st, 0))
	calls := api.Calls[before:]

	require.Len(t, api.Draws, 1)
	d := api.Draws[0]
	assert.Equal(t, uint32(gles.TRIANGLE_STRIP), d.Mode)
	assert.Equal(t, int32(0), d.First)
	assert.Equal(t, int32(geometry.VertexCount), d.Count)
	assert.Equal(t, api.CurrentProgram(), d.Program)

	assert.Equal(t, [16]float32(mgl32.Ident4()), d.Uniforms[shader.UniformMVP])
	assert.Equal(t, [16]float32(st), d.Uniforms[shader.UniformST])
	assert.Equal(t, float32(0), d.Uniforms[shader.UniformFrame])

	pos := d.Attribs[shader.AttribPosition]
	assert.Equal(t, int32(3), pos.Size)
	assert.Equal(t, int32(20), pos.Stride)
	assert.Equal(t, uintptr(0), pos.Offset)
	uv := d.Attribs[shader.AttribTexCoord]
	assert.Equal(t, int32(2), uv.Size)
	assert.Equal(t, int32(20), uv.Stride)
	assert.Equal(t, uintptr(12), uv.Offset)
	assert.Equal(t, geometry.Interleave(), d.Vertices)

	assert.Equal(t, compositor.Green, api.ClearValue)
	assert.Equal(t, []uint32{gles.COLOR_BUFFER_BIT | gles.DEPTH_BUFFER_BIT}, api.ClearMasks)
	assert.Equal(t, 1, api.Finishes)

	order := []string{"glClear", "glUseProgram", "glActiveTexture", "glUniformMatrix4fv", "glVertexAttribPointer", "glDrawArrays", "glFinish"}
	last := -1
	for _, name := range order {
		i := indexFrom(calls, name, last+1)
		require.NotEqual(t, -1, i, "%s missing or out of order", name)
		last = i
	}
	assert.Equal(t, "glFinish", calls[len(calls)-1])
}

func indexFrom(calls []string, name string, from int) int {
	for i := from; i < len(calls); i++ {
		if calls[i] == name {
			return i
		}
	}
	return -1
}

func TestDrawFrameAdvancesSelection(t *testing.T) {
	api, c := newReady(t, compositor.DefaultConfig())
	for f := int64(0); f <= 30; f++ {
		require.NoError(t, c.DrawFrame(mgl32.Ident4(), f))
	}
	frames := map[int]float32{0: 0, 2: 0, 3: 1, 6: 2, 29: 9, 30: 0}
	for f, want := range frames {
		assert.Equal(t, want, api.Draws[f].Uniforms[shader.UniformFrame], "frame %d", f)
	}
	assert.Equal(t, 0, c.Index())
	assert.Equal(t, 31, api.Finishes)
}

func TestEndToEndHalfTransparentBlueOverRed(t *testing.T) {
	api := glfake.New()
	c := compositor.New(api, compositor.DefaultConfig())
	blue := [4]byte{0, 0, 255, 128}
	require.NoError(t, c.OnSurfaceReady(overlays(map[int][4]byte{1: blue})))

	// the platform writes an opaque red frame into the external image
	api.SetTexels(c.StreamingTexture(), 1, 1, []byte{255, 0, 0, 255})
	for f := int64(0); f <= 3; f++ {
		require.NoError(t, c.DrawFrame(mgl32.Ident4(), f))
	}
	require.Equal(t, 1, c.Index())

	got := shade(t, api, api.Draws[3], gles.TEXTURE_EXTERNAL_OES)
	want := []float32{0.5, 0, 1, 1}
	assert.InDeltaSlice(t, want, got[:], 1.0/255)

	// frame 0 selected an opaque green overlay, which hides the video
	got = shade(t, api, api.Draws[0], gles.TEXTURE_EXTERNAL_OES)
	assert.Equal(t, [4]float32{0, 1, 0, 1}, got)
}

func TestGLErrorDuringDrawIsFatal(t *testing.T) {
	api, c := newReady(t, compositor.DefaultConfig())
	api.FailAfter("glDrawArrays", gles.INVALID_OPERATION)

	err := c.DrawFrame(mgl32.Ident4(), 0)
	var glErr *gles.Error
	require.ErrorAs(t, err, &glErr)
	assert.Equal(t, "glDrawArrays: glError 1282", err.Error())
	assert.Equal(t, 0, api.Finishes)

	draws := len(api.Draws)
	assert.Equal(t, err, c.DrawFrame(mgl32.Ident4(), 1))
	assert.Equal(t, err, c.ReplaceFragmentShader(shader.DialectGLES2.FragmentSource()))
	assert.Equal(t, err, c.OnSurfaceReady(overlays(nil)))
	assert.Equal(t, err, c.Err())
	assert.Len(t, api.Draws, draws)

	assert.Equal(t, 0, api.LivePrograms())
	assert.Equal(t, 0, api.LiveTextures())
	assert.Equal(t, 0, api.LiveBuffers())
}

func TestAttributeLayoutErrorIsFatal(t *testing.T) {
	api, c := newReady(t, compositor.DefaultConfig())
	api.FailAfter("glVertexAttribPointer", gles.INVALID_VALUE)

	err := c.DrawFrame(mgl32.Ident4(), 0)
	var glErr *gles.Error
	require.ErrorAs(t, err, &glErr)
	assert.Equal(t, "glVertexAttribPointer position", glErr.Op)
	assert.Empty(t, api.Draws)
}

func TestInvalidFragmentSourceFailsSetup(t *testing.T) {
	api := glfake.New()
	cfg := compositor.DefaultConfig()
	cfg.FragmentSource = "precision mediump float;\nvoid main() {\n  gl_FragColor = vec4(1.0, 0.0, 0.0, 1.0)\n"
	c := compositor.New(api, cfg)

	err := c.OnSurfaceReady(overlays(nil))
	var ce *shader.CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, shader.StageFragment, ce.Stage)
	assert.Equal(t, 0, api.LivePrograms())
	assert.Equal(t, 0, api.LiveTextures())

	err = c.DrawFrame(mgl32.Ident4(), 0)
	require.ErrorAs(t, err, &ce)
	assert.Empty(t, api.Draws)
}

func TestFragmentMissingSamplerFailsSetup(t *testing.T) {
	api := glfake.New()
	cfg := compositor.DefaultConfig()
	cfg.FragmentSource = strings.Replace(shader.DialectGLES2.FragmentSource(), "uniform sampler2D sampler2d7;\n", "", 1)
	c := compositor.New(api, cfg)

	err := c.OnSurfaceReady(overlays(nil))
	var re *shader.ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "sampler2d7", re.Name)
	assert.Equal(t, "could not get uniform location for sampler2d7", err.Error())
}

func TestOverlayUploadFailureReleasesEverything(t *testing.T) {
	api := glfake.New()
	c := compositor.New(api, compositor.DefaultConfig())
	bufs := overlays(nil)
	bufs[4].Pix = bufs[4].Pix[:3]

	err := c.OnSurfaceReady(bufs)
	assert.ErrorContains(t, err, "overlay 4")
	assert.Equal(t, 0, api.LiveTextures())
	assert.Equal(t, 0, api.LivePrograms())
	assert.Equal(t, 0, api.LiveBuffers())
}

func TestSetupPreconditions(t *testing.T) {
	c := compositor.New(glfake.New(), compositor.DefaultConfig())
	assert.ErrorIs(t, c.DrawFrame(mgl32.Ident4(), 0), compositor.ErrNotReady)
	assert.ErrorIs(t, c.ReplaceFragmentShader("void main() {}"), compositor.ErrNotReady)

	_, c = newReady(t, compositor.DefaultConfig())
	assert.ErrorIs(t, c.OnSurfaceReady(overlays(nil)), compositor.ErrAlreadySetUp)
	assert.NoError(t, c.Err())

	c = compositor.New(glfake.New(), compositor.DefaultConfig())
	assert.Error(t, c.OnSurfaceReady(overlays(nil)[:9]))
	assert.Error(t, c.Err())
}

func TestReplaceFragmentShaderKeepsPreviousOnFailure(t *testing.T) {
	api, c := newReady(t, compositor.DefaultConfig())
	require.NoError(t, c.DrawFrame(mgl32.Ident4(), 0))
	first := api.Draws[0].Program

	err := c.ReplaceFragmentShader("void main() { gl_FragColor = vec4(1.0); ")
	var ce *shader.CompileError
	require.ErrorAs(t, err, &ce)
	assert.NoError(t, c.Err())

	require.NoError(t, c.DrawFrame(mgl32.Ident4(), 1))
	assert.Equal(t, first, api.Draws[1].Program)

	replacement := strings.Replace(shader.DialectGLES2.FragmentSource(), "alpha = 1.0 - colorSample2.a;", "alpha = 0.0;", 1)
	require.NoError(t, c.ReplaceFragmentShader(replacement))
	require.NoError(t, c.DrawFrame(mgl32.Ident4(), 2))
	assert.NotEqual(t, first, api.Draws[2].Program)
	assert.Equal(t, 1, api.LivePrograms())
}

func TestGLErrorDuringShaderReplacementIsFatal(t *testing.T) {
	api, c := newReady(t, compositor.DefaultConfig())
	require.NoError(t, c.DrawFrame(mgl32.Ident4(), 0))
	draws := len(api.Draws)

	api.FailAfter("glAttachShader", gles.OUT_OF_MEMORY)
	err := c.ReplaceFragmentShader(shader.DialectGLES2.FragmentSource())
	var glErr *gles.Error
	require.ErrorAs(t, err, &glErr)
	assert.Equal(t, "glAttachShader: glError 1285", err.Error())
	assert.Equal(t, err, c.Err())

	assert.Equal(t, err, c.DrawFrame(mgl32.Ident4(), 1))
	assert.Len(t, api.Draws, draws)
	assert.Equal(t, 0, api.LivePrograms())
	assert.Equal(t, 0, api.LiveShaders())
	assert.Equal(t, 0, api.LiveTextures())
}

func TestClearErrorIsReportedAsClear(t *testing.T) {
	api, c := newReady(t, compositor.DefaultConfig())
	api.FailAfter("glClear", gles.INVALID_VALUE)

	err := c.DrawFrame(mgl32.Ident4(), 0)
	var glErr *gles.Error
	require.ErrorAs(t, err, &glErr)
	assert.Equal(t, "glClear", glErr.Op)
	assert.Empty(t, api.Draws)
	assert.Equal(t, err, c.Err())
}

func TestClearColorAndCadenceAreConfigurable(t *testing.T) {
	cfg := compositor.DefaultConfig()
	cfg.ClearColor = [4]float32{0, 0, 0, 1}
	cfg.AdvanceEvery = 2
	api, c := newReady(t, cfg)

	require.NoError(t, c.DrawFrame(mgl32.Ident4(), 0))
	require.NoError(t, c.DrawFrame(mgl32.Ident4(), 2))
	assert.Equal(t, [4]float32{0, 0, 0, 1}, api.ClearValue)
	assert.Equal(t, 1, c.Index())
}

func TestZeroTransformDrawsWithIdentity(t *testing.T) {
	api, c := newReady(t, compositor.DefaultConfig())
	require.NoError(t, c.DrawFrame(mgl32.Mat4{}, 0))
	assert.Equal(t, [16]float32(mgl32.Ident4()), api.Draws[0].Uniforms[shader.UniformST])
}

func TestResizeSetsViewport(t *testing.T) {
	api, c := newReady(t, compositor.DefaultConfig())
	require.NoError(t, c.Resize(640, 360))
	assert.Equal(t, [4]int32{0, 0, 640, 360}, api.ViewportRect)
}

type passthrough struct{ calls int }

func (p *passthrough) Translate(source string, stage shader.Stage) (string, map[string]string, error) {
	p.calls++
	return source, nil, nil
}

func TestDesktopDialectStreamsThroughTexture2D(t *testing.T) {
	tr := &passthrough{}
	cfg := compositor.DefaultConfig()
	cfg.Dialect = shader.DialectDesktop
	cfg.Translator = tr
	api, c := newReady(t, cfg)
	assert.Equal(t, 2, tr.calls)
	assert.Equal(t, uint32(gles.TEXTURE_2D), api.TextureTarget(c.StreamingTexture()))

	// desktop uploads frames with TexImage2D
	api.ActiveTexture(gles.TEXTURE0)
	api.BindTexture(gles.TEXTURE_2D, c.StreamingTexture())
	api.TexImage2D(gles.TEXTURE_2D, 1, 1, gles.RGBA, []byte{255, 0, 0, 255})
	require.NoError(t, gles.Check(api, "upload"))

	for f := int64(0); f <= 3; f++ {
		require.NoError(t, c.DrawFrame(mgl32.Ident4(), f))
	}
	got := shade(t, api, api.Draws[3], gles.TEXTURE_2D)
	assert.Equal(t, [4]float32{0, 1, 0, 1}, got)
}

func TestDestroyReleasesAndStops(t *testing.T) {
	api, c := newReady(t, compositor.DefaultConfig())
	c.Destroy()
	assert.Equal(t, 0, api.LivePrograms())
	assert.Equal(t, 0, api.LiveTextures())
	assert.Equal(t, 0, api.LiveBuffers())
	assert.True(t, errors.Is(c.DrawFrame(mgl32.Ident4(), 0), c.Err()))
}
