// Package compositor draws one full-screen quad per frame that blends the
// streaming video texture with the overlay chosen for that frame.
//
// A Compositor is driven from the thread that owns the GL context:
// OnSurfaceReady once, then DrawFrame for every output frame. Any GL error,
// and any failure during setup, is fatal; the compositor records it and
// returns it from every later call.
package compositor

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/gooverlay/geometry"
	"github.com/richinsley/gooverlay/gles"
	"github.com/richinsley/gooverlay/selector"
	"github.com/richinsley/gooverlay/shader"
	"github.com/richinsley/gooverlay/texture"
)

var (
	// ErrNotReady is returned before OnSurfaceReady has succeeded.
	ErrNotReady = errors.New("compositor: surface not ready")
	// ErrAlreadySetUp is returned by a second OnSurfaceReady.
	ErrAlreadySetUp = errors.New("compositor: surface already set up")
)

// Green is the default background. The quad covers the whole viewport, so it
// only shows through where nothing is drawn.
var Green = [4]float32{0, 1, 0, 1}

// Config selects the shader dialect and the few tunables of the draw.
type Config struct {
	Dialect    shader.Dialect
	Translator shader.Translator

	// FragmentSource replaces the built-in fragment stage when non-empty. It
	// must declare the same samplers and uniforms.
	FragmentSource string

	ClearColor   [4]float32
	AdvanceEvery int
}

// DefaultConfig is the GLES 2 configuration with a green background and a new
// overlay every three frames.
func DefaultConfig() Config {
	return Config{
		Dialect:      shader.DialectGLES2,
		ClearColor:   Green,
		AdvanceEvery: selector.DefaultAdvanceEvery,
	}
}

// Compositor owns the program, textures and quad of one render surface.
type Compositor struct {
	api      gles.API
	cfg      Config
	programs *shader.Manager
	textures *texture.Set
	quad     *geometry.Buffer
	selector *selector.Selector
	mvp      [16]float32
	ready    bool
	err      error
}

// New returns a compositor that has not touched the GL context yet.
func New(api gles.API, cfg Config) *Compositor {
	if cfg.AdvanceEvery < 1 {
		cfg.AdvanceEvery = selector.DefaultAdvanceEvery
	}
	return &Compositor{
		api:      api,
		cfg:      cfg,
		programs: shader.NewManager(api, cfg.Translator, shader.Required()),
		textures: texture.NewSet(api),
		selector: selector.New(shader.OverlayCount, cfg.AdvanceEvery),
		mvp:      mgl32.Ident4(),
	}
}

// fail latches err and releases everything allocated so far.
func (c *Compositor) fail(err error) error {
	c.err = err
	c.release()
	log.Error("compositor stopped", "err", err)
	return err
}

func (c *Compositor) usable() error {
	if c.err != nil {
		return c.err
	}
	if !c.ready {
		return ErrNotReady
	}
	return nil
}

// Err returns the fatal error that stopped the compositor, if any.
func (c *Compositor) Err() error {
	return c.err
}

// OnSurfaceReady builds the program, the quad and the streaming texture and
// uploads one pixel buffer per overlay slot, in slot order. The buffers are
// released as they are uploaded.
func (c *Compositor) OnSurfaceReady(overlays []*texture.PixelBuffer) error {
	if c.err != nil {
		return c.err
	}
	if c.ready {
		return ErrAlreadySetUp
	}
	if len(overlays) != shader.OverlayCount {
		return c.fail(fmt.Errorf("compositor: need %d overlay images, got %d", shader.OverlayCount, len(overlays)))
	}

	fs := c.cfg.FragmentSource
	if fs == "" {
		fs = c.cfg.Dialect.FragmentSource()
	}
	if err := c.programs.Install(c.cfg.Dialect.VertexSource(), fs); err != nil {
		return c.fail(err)
	}

	quad, err := geometry.Upload(c.api)
	if err != nil {
		return c.fail(err)
	}
	c.quad = quad

	if _, err := c.textures.CreateStreaming(c.cfg.Dialect.StreamTarget()); err != nil {
		return c.fail(err)
	}
	for i, buf := range overlays {
		if _, err := c.textures.UploadStatic(i, buf); err != nil {
			return c.fail(fmt.Errorf("failed to upload overlay %d: %w", i, err))
		}
	}

	c.ready = true
	log.Info("compositor ready", "dialect", c.cfg.Dialect, "program", c.programs.Program().Handle, "stream", c.textures.Stream.Handle)
	return nil
}

// Resize sets the viewport to the surface size.
func (c *Compositor) Resize(width, height int) error {
	if c.err != nil {
		return c.err
	}
	c.api.Viewport(0, 0, int32(width), int32(height))
	if err := gles.Check(c.api, "glViewport"); err != nil {
		return c.fail(err)
	}
	return nil
}

// DrawFrame composites one frame. stMatrix is the platform's transform for
// the streaming texture; a zero matrix means none has been supplied and the
// identity is used. DrawFrame returns only after the GL pipeline has
// finished, so the result can be read back or presented immediately.
func (c *Compositor) DrawFrame(stMatrix mgl32.Mat4, frame int64) error {
	if err := c.usable(); err != nil {
		return err
	}
	if err := c.draw(stMatrix, frame); err != nil {
		return c.fail(err)
	}
	return nil
}

func (c *Compositor) draw(stMatrix mgl32.Mat4, frame int64) error {
	api := c.api
	index := c.selector.Advance(frame)

	cc := c.cfg.ClearColor
	api.ClearColor(cc[0], cc[1], cc[2], cc[3])
	api.Clear(gles.COLOR_BUFFER_BIT | gles.DEPTH_BUFFER_BIT)
	if err := gles.Check(api, "glClear"); err != nil {
		return err
	}

	p := c.programs.Program()
	api.UseProgram(p.Handle)
	if err := gles.Check(api, "glUseProgram"); err != nil {
		return err
	}

	if err := c.textures.BindAll(p); err != nil {
		return err
	}

	if stMatrix == (mgl32.Mat4{}) {
		stMatrix = mgl32.Ident4()
	}
	st := [16]float32(stMatrix)
	api.UniformMatrix4fv(p.Uniform(shader.UniformMVP), &c.mvp)
	api.UniformMatrix4fv(p.Uniform(shader.UniformST), &st)
	api.Uniform1f(p.Uniform(shader.UniformFrame), float32(index))
	if err := gles.Check(api, "glUniform"); err != nil {
		return err
	}

	if err := c.quad.Bind(api, p.Attrib(shader.AttribPosition), p.Attrib(shader.AttribTexCoord)); err != nil {
		return err
	}
	if err := c.quad.Draw(api); err != nil {
		return err
	}
	api.Finish()
	return nil
}

// ReplaceFragmentShader rebuilds the program with a new fragment stage. A
// source that fails to compile, link or resolve leaves the previous program
// installed and drawing continues with it. A GL error raised while building
// the replacement is fatal like any other.
func (c *Compositor) ReplaceFragmentShader(source string) error {
	if err := c.usable(); err != nil {
		return err
	}
	err := c.programs.SwapFragment(source)
	var glErr *gles.Error
	if errors.As(err, &glErr) {
		return c.fail(err)
	}
	return err
}

// StreamingTexture is the texture the platform writes video frames into.
func (c *Compositor) StreamingTexture() uint32 {
	return c.textures.Stream.Handle
}

// StreamTarget is the texture target of StreamingTexture.
func (c *Compositor) StreamTarget() uint32 {
	return c.cfg.Dialect.StreamTarget()
}

// Index is the overlay slot selected by the last DrawFrame.
func (c *Compositor) Index() int {
	return c.selector.Index()
}

func (c *Compositor) release() {
	c.programs.Destroy()
	c.textures.Destroy()
	if c.quad != nil {
		c.quad.Destroy(c.api)
		c.quad = nil
	}
	c.ready = false
}

// Destroy releases every GL object. The compositor cannot be used afterwards.
func (c *Compositor) Destroy() {
	c.release()
	if c.err == nil {
		c.err = errors.New("compositor: destroyed")
	}
}
