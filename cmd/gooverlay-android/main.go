//go:build android

// Command gooverlay-android runs the compositor in a golang.org/x/mobile app.
// The GLES 2 program samples the stream as an external image; the decoder
// attaches to the texture logged at start. Overlays are read from the app
// assets overlay0.png .. overlay9.png, repeated when fewer are bundled.
package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/gooverlay/compositor"
	"github.com/richinsley/gooverlay/gles"
	"github.com/richinsley/gooverlay/shader"
	"github.com/richinsley/gooverlay/surface"
	"github.com/richinsley/gooverlay/texture"
	"golang.org/x/mobile/app"
	"golang.org/x/mobile/asset"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"
	"golang.org/x/mobile/gl"
)

func openAsset(name string) (io.ReadCloser, error) {
	return asset.Open(name)
}

// bundledOverlays lists the overlay assets that exist.
func bundledOverlays() []string {
	var names []string
	for i := 0; i < shader.OverlayCount; i++ {
		name := fmt.Sprintf("overlay%d.png", i)
		f, err := asset.Open(name)
		if err != nil {
			break
		}
		f.Close()
		names = append(names, name)
	}
	return names
}

func loadOverlays() ([]*texture.PixelBuffer, error) {
	return texture.LoadAll(openAsset, bundledOverlays(), shader.OverlayCount)
}

func main() {
	app.Main(func(a app.App) {
		s := surface.New(compositor.DefaultConfig(), loadOverlays)
		for e := range a.Events() {
			switch e := a.Filter(e).(type) {
			case lifecycle.Event:
				switch e.Crosses(lifecycle.StageVisible) {
				case lifecycle.CrossOn:
					glctx, ok := e.DrawContext.(gl.Context)
					if !ok {
						log.Error("no GL context on lifecycle event")
						continue
					}
					if err := s.Start(gles.NewMobile(glctx)); err != nil {
						log.Error("compositor setup failed", "err", err)
						continue
					}
					a.Send(paint.Event{})
				case lifecycle.CrossOff:
					s.Stop()
				}
			case size.Event:
				if err := s.Resize(e.WidthPx, e.HeightPx); err != nil {
					log.Error("resize failed", "err", err)
				}
			case paint.Event:
				if !s.Running() || e.External {
					continue
				}
				if err := s.Paint(mgl32.Mat4{}); err != nil {
					log.Error("draw failed", "err", err)
					s.Stop()
					continue
				}
				a.Publish()
				a.Send(paint.Event{})
			}
		}
	})
}
