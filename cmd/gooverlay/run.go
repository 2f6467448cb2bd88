//go:build !android

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/charmbracelet/log"
	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/richinsley/gooverlay/capture"
	"github.com/richinsley/gooverlay/compositor"
	"github.com/richinsley/gooverlay/gles"
	"github.com/richinsley/gooverlay/glfwcontext"
	"github.com/richinsley/gooverlay/graphics"
	"github.com/richinsley/gooverlay/headless"
	"github.com/richinsley/gooverlay/media"
	"github.com/richinsley/gooverlay/options"
	"github.com/richinsley/gooverlay/shader"
	"github.com/richinsley/gooverlay/shaderwatch"
	"github.com/richinsley/gooverlay/texture"
	"github.com/richinsley/gooverlay/translator"
	"github.com/schollz/progressbar/v3"
)

// session is everything one run owns on the render thread.
type session struct {
	opts    *options.Options
	ctx     graphics.Context
	api     *gles.Desktop
	comp    *compositor.Compositor
	decoder *media.Decoder
	watcher *shaderwatch.Watcher
	width   int
	height  int
	reload  bool
}

func run(opts *options.Options) error {
	overlays, err := texture.LoadFiles(opts.OverlayPaths(), shader.OverlayCount)
	if err != nil {
		return err
	}
	var fragmentSource string
	if *opts.FragmentShader != "" {
		data, err := os.ReadFile(*opts.FragmentShader)
		if err != nil {
			return fmt.Errorf("failed to read fragment shader: %w", err)
		}
		fragmentSource = string(data)
	}
	clearColor, err := options.ParseColor(*opts.ClearColor)
	if err != nil {
		return err
	}

	s := &session{opts: opts, width: *opts.Width, height: *opts.Height}
	tr := &translator.Translator{}
	if *opts.Headless {
		egl, err := headless.New(s.width, s.height)
		if err != nil {
			return fmt.Errorf("failed to create headless context: %w", err)
		}
		s.ctx = egl
		tr.ES = true
	} else {
		if err := glfwcontext.InitGraphics(); err != nil {
			return fmt.Errorf("failed to initialize glfw: %w", err)
		}
		defer glfwcontext.TerminateGraphics()

		window, err := glfwcontext.New(s.width, s.height, *opts.Preview)
		if err != nil {
			return fmt.Errorf("failed to create window: %w", err)
		}
		s.ctx = window
		if *opts.FragmentShader != "" {
			window.RegisterKeyCallback(glfw.KeyR, func() { s.reload = true })
		}
	}
	defer s.ctx.Shutdown()

	if s.api, err = gles.NewDesktop(); err != nil {
		return err
	}
	defer s.api.Release()

	s.comp = compositor.New(s.api, compositor.Config{
		Dialect:        shader.DialectDesktop,
		Translator:     tr,
		FragmentSource: fragmentSource,
		ClearColor:     clearColor,
		AdvanceEvery:   *opts.AdvanceEvery,
	})
	if err := s.comp.OnSurfaceReady(overlays); err != nil {
		return err
	}
	defer s.comp.Destroy()

	s.decoder, err = media.OpenDecoder(media.DecoderOptions{
		Input:      *opts.Input,
		Width:      s.width,
		Height:     s.height,
		FPS:        *opts.FPS,
		FFmpegPath: *opts.FFMPEGPath,
		Realtime:   *opts.Preview,
	})
	if err != nil {
		return err
	}
	defer s.decoder.Close()

	if *opts.Watch {
		if s.watcher, err = shaderwatch.New(*opts.FragmentShader); err != nil {
			return fmt.Errorf("failed to watch fragment shader: %w", err)
		}
		defer s.watcher.Close()
	}

	if *opts.Preview {
		log.Info("Starting preview loop...")
		return s.preview()
	}
	log.Info("Starting offscreen render loop...")
	if err := s.record(); err != nil {
		return err
	}
	log.Infof("Successfully rendered to %s", *opts.OutputFile)
	return nil
}

// nextFrame decodes the next input frame into the streaming texture. It
// returns false at the end of the input or the frame limit.
func (s *session) nextFrame(frame int64) (bool, error) {
	if limit := *s.opts.MaxFrames; limit > 0 && frame >= int64(limit) {
		return false, nil
	}
	pix, err := s.decoder.ReadFrame()
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	w, h := s.decoder.Size()
	return true, media.UploadFrame(s.api, s.comp.StreamingTexture(), w, h, pix)
}

// applyShaderChange installs a changed fragment shader between frames, from
// the watcher or from a reload requested with the R key. A rejected shader
// leaves the current one drawing; only a GL error is returned.
func (s *session) applyShaderChange() error {
	var src string
	var ok bool
	if s.reload {
		s.reload = false
		data, err := os.ReadFile(*s.opts.FragmentShader)
		if err != nil {
			log.Warn("Shader reload failed", "err", err)
			return nil
		}
		src, ok = string(data), true
	} else if s.watcher != nil {
		src, ok = s.watcher.Pending()
	}
	if !ok {
		return nil
	}
	if err := s.comp.ReplaceFragmentShader(src); err != nil {
		if fatal := s.comp.Err(); fatal != nil {
			return fatal
		}
		log.Warn("Shader reload failed", "err", err)
		return nil
	}
	log.Info("Shader reloaded", "path", *s.opts.FragmentShader)
	return nil
}

func (s *session) preview() error {
	for frame := int64(0); !s.ctx.ShouldClose(); frame++ {
		if err := s.applyShaderChange(); err != nil {
			return err
		}
		ok, err := s.nextFrame(frame)
		if err != nil || !ok {
			return err
		}
		w, h := s.ctx.GetFramebufferSize()
		if err := s.comp.Resize(w, h); err != nil {
			return err
		}
		if err := s.comp.DrawFrame(media.FlipTransform(), frame); err != nil {
			return err
		}
		s.ctx.EndFrame()
	}
	return nil
}

func (s *session) record() error {
	target, err := capture.New(s.api, s.width, s.height)
	if err != nil {
		return err
	}
	defer target.Destroy()

	enc, err := media.StartEncoder(media.EncoderOptions{
		Output:     *s.opts.OutputFile,
		Codec:      *s.opts.Codec,
		Bitrate:    *s.opts.Bitrate,
		Width:      s.width,
		Height:     s.height,
		FPS:        *s.opts.FPS,
		FFmpegPath: *s.opts.FFMPEGPath,
		HWAccel:    *s.opts.HWAccel,
		Stream:     *s.opts.Stream,
	}, runtime.GOOS)
	if err != nil {
		return err
	}

	bar := progressbar.Default(s.expectedFrames(), "compositing")
	var frame int64
	for ; ; frame++ {
		if err := s.applyShaderChange(); err != nil {
			enc.Close()
			return err
		}
		ok, err := s.nextFrame(frame)
		if err != nil {
			enc.Close()
			return err
		}
		if !ok {
			break
		}

		target.Bind()
		err = s.comp.DrawFrame(media.FlipTransform(), frame)
		if err == nil {
			pixels := make([]byte, target.FrameSize())
			if err = target.ReadPixels(pixels); err == nil {
				err = enc.WriteFrame(&media.Frame{Pixels: pixels, PTS: frame})
			}
		}
		target.Unbind()
		if err != nil {
			enc.Close()
			return fmt.Errorf("frame %d: %w", frame, err)
		}
		bar.Add(1)
	}
	bar.Finish()
	log.Debug("input exhausted", "frames", frame)
	return enc.Close()
}

// expectedFrames is the progress bar total, or -1 when unknown.
func (s *session) expectedFrames() int64 {
	total := int64(-1)
	if info, err := media.Probe(*s.opts.Input); err == nil && info.FPS > 0 {
		total = int64(info.Duration*float64(*s.opts.FPS) + 0.5)
	} else if err != nil {
		log.Debug("probe failed, frame count unknown", "err", err)
	}
	if limit := int64(*s.opts.MaxFrames); limit > 0 && (total < 0 || limit < total) {
		total = limit
	}
	return total
}
