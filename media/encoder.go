package media

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ErrEncoderClosed is returned by WriteFrame after Close.
var ErrEncoderClosed = errors.New("media: encoder closed")

// EncoderOptions describes the output stream.
type EncoderOptions struct {
	Output     string
	Codec      string // "h264", "hevc" or an ffmpeg encoder name
	Bitrate    string
	Width      int
	Height     int
	FPS        int
	FFmpegPath string
	// HWAccel selects the platform hardware encoder where one is known.
	HWAccel bool
	// Stream writes MPEG-TS instead of guessing the container from Output.
	Stream bool
}

// Frame is one read-back RGBA frame, bottom row first.
type Frame struct {
	Pixels []byte
	PTS    int64
}

// EncodeArgs builds the ffmpeg arguments for encoding bottom-up RGBA frames
// on goos.
func EncodeArgs(o EncoderOptions, goos string) (inputArgs ffmpeg.KwArgs, outputArgs ffmpeg.KwArgs) {
	inputArgs = ffmpeg.KwArgs{
		"format":    "rawvideo",
		"pix_fmt":   "rgba",
		"s":         fmt.Sprintf("%dx%d", o.Width, o.Height),
		"framerate": o.FPS,
	}

	// GL rows come bottom first
	outputArgs = ffmpeg.KwArgs{"vf": "vflip"}

	codec := o.Codec
	if codec == "" {
		codec = "h264"
	}
	switch {
	case codec != "h264" && codec != "hevc":
		outputArgs["c:v"] = codec
	case o.HWAccel && goos == "linux":
		log.Debug("using NVENC hardware encoder")
		outputArgs["c:v"] = codec + "_nvenc"
		outputArgs["preset"] = "p2"
		outputArgs["pix_fmt"] = "yuv420p"
	case o.HWAccel && goos == "darwin":
		log.Debug("using VideoToolbox hardware encoder")
		outputArgs["c:v"] = codec + "_videotoolbox"
		outputArgs["pix_fmt"] = "yuv420p"
	default:
		if codec == "hevc" {
			outputArgs["c:v"] = "libx265"
		} else {
			outputArgs["c:v"] = "libx264"
		}
		outputArgs["pix_fmt"] = "yuv420p"
	}

	if o.Bitrate != "" {
		outputArgs["b:v"] = o.Bitrate
	}
	if codec == "hevc" && strings.EqualFold(filepath.Ext(o.Output), ".mp4") {
		outputArgs["tag:v"] = "hvc1"
	}
	if o.Stream {
		outputArgs["f"] = "mpegts"
	}
	return
}

// Encoder feeds frames to an ffmpeg process. Frames are queued on a channel
// and written to ffmpeg's stdin by a separate goroutine.
type Encoder struct {
	frames chan *Frame
	done   chan error
	closed bool
}

const queueDepth = 3

// StartEncoder starts ffmpeg for the given platform.
func StartEncoder(o EncoderOptions, goos string) (*Encoder, error) {
	if o.Width <= 0 || o.Height <= 0 || o.FPS <= 0 {
		return nil, fmt.Errorf("invalid encode geometry %dx%d@%d", o.Width, o.Height, o.FPS)
	}
	e := &Encoder{
		frames: make(chan *Frame, queueDepth),
		done:   make(chan error, 1),
	}

	pipeReader, pipeWriter := io.Pipe()
	inputArgs, outputArgs := EncodeArgs(o, goos)
	ffmpegCmd := ffmpeg.Input("pipe:", inputArgs).
		Output(o.Output, outputArgs).
		OverWriteOutput().WithInput(pipeReader).ErrorToStdOut()
	if o.FFmpegPath != "" {
		ffmpegCmd = ffmpegCmd.SetFfmpegPath(o.FFmpegPath)
	}

	errc := make(chan error, 1)
	go func() {
		err := ffmpegCmd.Run()
		pipeReader.CloseWithError(err)
		errc <- err
	}()
	go e.run(pipeWriter, errc)

	log.Info("encoding", "output", o.Output, "codec", outputArgs["c:v"], "width", o.Width, "height", o.Height, "fps", o.FPS)
	return e, nil
}

func (e *Encoder) run(w *io.PipeWriter, errc <-chan error) {
	var writeErr error
	for frame := range e.frames {
		if writeErr != nil {
			continue
		}
		if _, err := w.Write(frame.Pixels); err != nil {
			writeErr = fmt.Errorf("failed to write frame %d to ffmpeg: %w", frame.PTS, err)
			log.Error("encoder stopped accepting frames", "err", writeErr)
		}
	}
	w.Close()
	if err := <-errc; err != nil {
		e.done <- fmt.Errorf("ffmpeg encode failed: %w", err)
		return
	}
	e.done <- writeErr
}

// WriteFrame queues a frame. The encoder keeps the slice, so callers must not
// reuse it.
func (e *Encoder) WriteFrame(f *Frame) error {
	if e.closed {
		return ErrEncoderClosed
	}
	e.frames <- f
	return nil
}

// Close flushes queued frames and waits for ffmpeg to exit.
func (e *Encoder) Close() error {
	if e.closed {
		return ErrEncoderClosed
	}
	e.closed = true
	close(e.frames)
	return <-e.done
}
