// Package surface drives a Compositor through the lifecycle of a mobile
// render surface: the GL context appears when the app becomes visible and is
// lost when it goes to the background, so the compositor is built anew on
// every start.
package surface

import (
	"errors"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/gooverlay/compositor"
	"github.com/richinsley/gooverlay/gles"
	"github.com/richinsley/gooverlay/texture"
)

// ErrStopped is returned by Paint while no context is attached.
var ErrStopped = errors.New("surface: no GL context")

// Loader produces the overlay buffers for one compositor. Buffers are
// released on upload, so it is called again after every context loss.
type Loader func() ([]*texture.PixelBuffer, error)

// Surface owns at most one compositor at a time.
type Surface struct {
	cfg    compositor.Config
	load   Loader
	comp   *compositor.Compositor
	width  int
	height int
	frame  int64
}

// New returns a stopped surface.
func New(cfg compositor.Config, load Loader) *Surface {
	return &Surface{cfg: cfg, load: load}
}

// Start builds a compositor on api, the context that just became current.
// Frame numbering restarts at zero.
func (s *Surface) Start(api gles.API) error {
	s.Stop()
	overlays, err := s.load()
	if err != nil {
		return err
	}
	comp := compositor.New(api, s.cfg)
	if err := comp.OnSurfaceReady(overlays); err != nil {
		return err
	}
	if s.width > 0 && s.height > 0 {
		if err := comp.Resize(s.width, s.height); err != nil {
			return err
		}
	}
	s.comp = comp
	s.frame = 0
	log.Info("surface started", "stream", comp.StreamingTexture(), "width", s.width, "height", s.height)
	return nil
}

// Resize records the surface size and applies it when running.
func (s *Surface) Resize(width, height int) error {
	s.width, s.height = width, height
	if s.comp == nil {
		return nil
	}
	return s.comp.Resize(width, height)
}

// Paint composites the next frame. st is the platform's stream transform; a
// zero matrix draws with the identity.
func (s *Surface) Paint(st mgl32.Mat4) error {
	if s.comp == nil {
		return ErrStopped
	}
	if err := s.comp.DrawFrame(st, s.frame); err != nil {
		return err
	}
	s.frame++
	return nil
}

// Running reports whether a compositor is attached.
func (s *Surface) Running() bool {
	return s.comp != nil
}

// Compositor is the attached compositor, or nil.
func (s *Surface) Compositor() *compositor.Compositor {
	return s.comp
}

// Stop releases the compositor. It must run while the old context is still
// current.
func (s *Surface) Stop() {
	if s.comp == nil {
		return
	}
	s.comp.Destroy()
	s.comp = nil
	log.Debug("surface stopped", "frames", s.frame)
}
