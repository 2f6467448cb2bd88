package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// DecoderOptions selects the input and the frame size ffmpeg scales to.
type DecoderOptions struct {
	Input      string
	Width      int
	Height     int
	FPS        int
	FFmpegPath string
	// Realtime reads the input at its native rate.
	Realtime bool
}

// DecodeArgs builds the ffmpeg arguments for raw RGBA output.
func DecodeArgs(o DecoderOptions) (inputArgs ffmpeg.KwArgs, outputArgs ffmpeg.KwArgs) {
	inputArgs = ffmpeg.KwArgs{}
	if o.Realtime {
		inputArgs["re"] = ""
	}
	outputArgs = ffmpeg.KwArgs{
		"format":  "rawvideo",
		"pix_fmt": "rgba",
		"s":       fmt.Sprintf("%dx%d", o.Width, o.Height),
	}
	if o.FPS > 0 {
		outputArgs["r"] = o.FPS
	}
	return
}

// Decoder reads fixed-size RGBA frames from an ffmpeg process.
type Decoder struct {
	width  int
	height int
	reader *io.PipeReader
	stderr bytes.Buffer
	errc   chan error
	frame  []byte
	frames int64
	done   bool
	err    error
}

// OpenDecoder starts ffmpeg on the input.
func OpenDecoder(o DecoderOptions) (*Decoder, error) {
	if o.Width <= 0 || o.Height <= 0 {
		return nil, fmt.Errorf("invalid decode size %dx%d", o.Width, o.Height)
	}
	d := &Decoder{
		width:  o.Width,
		height: o.Height,
		errc:   make(chan error, 1),
		frame:  make([]byte, o.Width*o.Height*4),
	}

	pipeReader, pipeWriter := io.Pipe()
	d.reader = pipeReader
	inputArgs, outputArgs := DecodeArgs(o)
	ffmpegCmd := ffmpeg.Input(o.Input, inputArgs).
		Output("pipe:", outputArgs).
		WithOutput(pipeWriter).
		WithErrorOutput(&d.stderr)
	if o.FFmpegPath != "" {
		ffmpegCmd = ffmpegCmd.SetFfmpegPath(o.FFmpegPath)
	}

	go func() {
		err := ffmpegCmd.Run()
		pipeWriter.CloseWithError(err)
		d.errc <- err
	}()
	log.Info("decoding", "input", o.Input, "width", o.Width, "height", o.Height)
	return d, nil
}

// Size returns the frame dimensions.
func (d *Decoder) Size() (int, int) {
	return d.width, d.height
}

// Frames is the number of complete frames read so far.
func (d *Decoder) Frames() int64 {
	return d.frames
}

// ReadFrame returns the next frame. The slice is reused by the next call. At
// the end of the input it returns io.EOF.
func (d *Decoder) ReadFrame() ([]byte, error) {
	if d.done {
		return nil, d.err
	}
	_, err := io.ReadFull(d.reader, d.frame)
	if err == nil {
		d.frames++
		return d.frame, nil
	}

	d.done = true
	runErr := <-d.errc
	switch {
	case runErr != nil:
		d.err = fmt.Errorf("ffmpeg decode failed: %w: %s", runErr, lastLine(d.stderr.String()))
	case errors.Is(err, io.ErrUnexpectedEOF):
		log.Warn("input ended inside a frame, dropping it", "frames", d.frames)
		d.err = io.EOF
	default:
		d.err = io.EOF
	}
	return nil, d.err
}

// Close stops ffmpeg if it is still running.
func (d *Decoder) Close() error {
	if d.done {
		return nil
	}
	d.done = true
	d.err = io.EOF
	d.reader.Close()
	<-d.errc
	return nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
