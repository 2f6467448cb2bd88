package media

import (
	"io"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/gooverlay/gles"
	"github.com/richinsley/gooverlay/gles/glfake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

func TestEncodeArgsPerPlatform(t *testing.T) {
	o := EncoderOptions{Output: "out.mp4", Width: 1280, Height: 720, FPS: 30, Bitrate: "25M"}

	in, out := EncodeArgs(o, "linux")
	assert.Equal(t, ffmpeg.KwArgs{"format": "rawvideo", "pix_fmt": "rgba", "s": "1280x720", "framerate": 30}, in)
	assert.Equal(t, "vflip", out["vf"])
	assert.Equal(t, "libx264", out["c:v"])
	assert.Equal(t, "yuv420p", out["pix_fmt"])
	assert.Equal(t, "25M", out["b:v"])
	assert.NotContains(t, out, "f")

	o.HWAccel = true
	_, out = EncodeArgs(o, "linux")
	assert.Equal(t, "h264_nvenc", out["c:v"])
	assert.Equal(t, "p2", out["preset"])

	o.Codec = "hevc"
	_, out = EncodeArgs(o, "darwin")
	assert.Equal(t, "hevc_videotoolbox", out["c:v"])
	assert.Equal(t, "hvc1", out["tag:v"])

	_, out = EncodeArgs(o, "windows")
	assert.Equal(t, "libx265", out["c:v"])

	o.Codec = "ffv1"
	o.Stream = true
	_, out = EncodeArgs(o, "linux")
	assert.Equal(t, "ffv1", out["c:v"])
	assert.NotContains(t, out, "pix_fmt")
	assert.Equal(t, "mpegts", out["f"])
}

func TestDecodeArgs(t *testing.T) {
	in, out := DecodeArgs(DecoderOptions{Input: "in.mp4", Width: 640, Height: 360, FPS: 25, Realtime: true})
	assert.Equal(t, ffmpeg.KwArgs{"re": ""}, in)
	assert.Equal(t, ffmpeg.KwArgs{"format": "rawvideo", "pix_fmt": "rgba", "s": "640x360", "r": 25}, out)

	_, out = DecodeArgs(DecoderOptions{Width: 2, Height: 2})
	assert.NotContains(t, out, "r")
}

func TestParseProbe(t *testing.T) {
	data := `{
  "streams": [
    {"codec_type": "audio", "sample_rate": "44100"},
    {"codec_type": "video", "width": 1920, "height": 1080, "avg_frame_rate": "30000/1001", "nb_frames": "300", "duration": "10.01"}
  ],
  "format": {"duration": "10.02"}
}`
	info, err := parseProbe(data)
	require.NoError(t, err)
	assert.Equal(t, 1920, info.Width)
	assert.Equal(t, 1080, info.Height)
	assert.InDelta(t, 29.97, info.FPS, 0.01)
	assert.Equal(t, int64(300), info.Frames)
	assert.Equal(t, 10.01, info.Duration)

	info, err = parseProbe(`{"streams":[{"codec_type":"video","width":4,"height":2,"avg_frame_rate":"0/0","r_frame_rate":"25/1"}],"format":{"duration":"2.0"}}`)
	require.NoError(t, err)
	assert.Equal(t, float64(25), info.FPS)
	assert.Equal(t, int64(50), info.Frames)

	_, err = parseProbe(`{"streams":[{"codec_type":"audio"}]}`)
	assert.Error(t, err)
	_, err = parseProbe(`not json`)
	assert.Error(t, err)
}

func TestParseRate(t *testing.T) {
	assert.Equal(t, 25.0, parseRate("25/1"))
	assert.Equal(t, 24.0, parseRate("24"))
	assert.Equal(t, 0.0, parseRate("1/0"))
	assert.Equal(t, 0.0, parseRate(""))
}

func TestUploadFrame(t *testing.T) {
	api := glfake.New()
	tex := api.GenTexture()
	pix := []byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 255, 255, 255, 255,
	}
	require.NoError(t, UploadFrame(api, tex, 2, 2, pix))
	assert.Equal(t, [4]float32{0, 0, 1, 1}, api.Texel(tex, 0, 1))

	assert.Error(t, UploadFrame(api, tex, 4, 4, pix))

	ext := api.GenTexture()
	api.BindTexture(gles.TEXTURE_EXTERNAL_OES, ext)
	err := UploadFrame(api, ext, 2, 2, pix)
	var glErr *gles.Error
	require.ErrorAs(t, err, &glErr)
	assert.Equal(t, "glTexImage2D streaming frame", glErr.Op)
}

func TestFlipTransform(t *testing.T) {
	m := FlipTransform()
	top := m.Mul4x1(mgl32.Vec4{0.25, 0, 0, 1})
	bottom := m.Mul4x1(mgl32.Vec4{0.25, 1, 0, 1})
	assert.InDeltaSlice(t, []float32{0.25, 1, 0, 1}, top[:], 1e-6)
	assert.InDeltaSlice(t, []float32{0.25, 0, 0, 1}, bottom[:], 1e-6)
}

func requireFFmpeg(t *testing.T) {
	t.Helper()
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not found in PATH", bin)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	requireFFmpeg(t)
	path := filepath.Join(t.TempDir(), "frames.nut")

	enc, err := StartEncoder(EncoderOptions{Output: path, Codec: "rawvideo", Width: 2, Height: 2, FPS: 10}, "linux")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		// bottom row red, top row blue, as ReadPixels returns them
		pix := []byte{
			255, 0, 0, 255, 255, 0, 0, 255,
			0, 0, 255, 255, 0, 0, 255, 255,
		}
		require.NoError(t, enc.WriteFrame(&Frame{Pixels: pix, PTS: int64(i)}))
	}
	require.NoError(t, enc.Close())
	assert.ErrorIs(t, enc.WriteFrame(&Frame{}), ErrEncoderClosed)

	info, err := Probe(path)
	require.NoError(t, err)
	assert.Equal(t, 2, info.Width)
	assert.Equal(t, 2, info.Height)

	dec, err := OpenDecoder(DecoderOptions{Input: path, Width: 2, Height: 2})
	require.NoError(t, err)
	defer dec.Close()

	frame, err := dec.ReadFrame()
	require.NoError(t, err)
	// the encoder flips, so the file is top row first
	assert.Equal(t, []byte{0, 0, 255, 255}, frame[:4])
	assert.Equal(t, []byte{255, 0, 0, 255}, frame[8:12])

	for {
		if _, err = dec.ReadFrame(); err != nil {
			break
		}
	}
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, int64(3), dec.Frames())
}

func TestDecoderReportsMissingInput(t *testing.T) {
	requireFFmpeg(t)
	dec, err := OpenDecoder(DecoderOptions{Input: filepath.Join(t.TempDir(), "missing.mp4"), Width: 2, Height: 2})
	require.NoError(t, err)
	_, err = dec.ReadFrame()
	assert.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
}
