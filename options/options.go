package options

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Options holds the command line. Fields are flag pointers; values from a
// config file are written through them for every flag not given explicitly.
type Options struct {
	ConfigFile     *string
	Input          *string
	OutputFile     *string
	Overlays       *string
	FragmentShader *string
	Watch          *bool
	Width          *int
	Height         *int
	FPS            *int
	MaxFrames      *int
	Codec          *string
	Bitrate        *string
	HWAccel        *bool
	Stream         *bool
	FFMPEGPath     *string
	ClearColor     *string
	AdvanceEvery   *int
	Preview        *bool
	Headless       *bool
	Verbose        *bool
	Help           *bool
}

// Register defines every flag on fs.
func Register(fs *flag.FlagSet) *Options {
	return &Options{
		ConfigFile:     fs.String("config", "", "YAML file with default settings"),
		Input:          fs.String("input", "", "Input video file or URL"),
		OutputFile:     fs.String("output", "output.mp4", "Output file name"),
		Overlays:       fs.String("overlays", "", "Comma-separated overlay images, up to 10, repeated to fill all slots"),
		FragmentShader: fs.String("frag", "", "Fragment shader replacing the built-in composite"),
		Watch:          fs.Bool("watch", false, "Reload the fragment shader when the file changes"),
		Width:          fs.Int("width", 1280, "Width of the output"),
		Height:         fs.Int("height", 720, "Height of the output"),
		FPS:            fs.Int("fps", 30, "Frames per second"),
		MaxFrames:      fs.Int("frames", 0, "Stop after this many frames (0 = whole input)"),
		Codec:          fs.String("codec", "h264", "Video codec: h264, hevc or an ffmpeg encoder name"),
		Bitrate:        fs.String("bitrate", "25M", "Video bitrate"),
		HWAccel:        fs.Bool("hwaccel", false, "Use the platform hardware encoder"),
		Stream:         fs.Bool("stream", false, "Write MPEG-TS, for piping or streaming the output"),
		FFMPEGPath:     fs.String("ffmpeg", "", "Path to ffmpeg executable"),
		ClearColor:     fs.String("clear", "0,1,0,1", "Background colour as r,g,b,a in [0,1]"),
		AdvanceEvery:   fs.Int("advance", 3, "Frames each overlay stays on screen"),
		Preview:        fs.Bool("preview", false, "Show the composite in a window instead of encoding"),
		Headless:       fs.Bool("headless", false, "Render on an EGL pbuffer instead of a hidden window (Linux only)"),
		Verbose:        fs.Bool("v", false, "Verbose logging"),
		Help:           fs.Bool("help", false, "Show help message"),
	}
}

// Color is an RGBA colour. In YAML it is either a four-element sequence or an
// "r,g,b,a" string.
type Color [4]float32

// UnmarshalYAML implements yaml.Unmarshaler for Color.
func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var v []float32
		if err := value.Decode(&v); err != nil {
			return err
		}
		if len(v) != 4 {
			return fmt.Errorf("clear colour needs 4 components, got %d", len(v))
		}
		copy(c[:], v)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Color) String() string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
	}
	return strings.Join(parts, ",")
}

// ParseColor parses "r,g,b,a" with each component in [0,1].
func ParseColor(s string) (Color, error) {
	var c Color
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return c, fmt.Errorf("invalid colour %q: want r,g,b,a", s)
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return c, fmt.Errorf("invalid colour %q: %w", s, err)
		}
		if v < 0 || v > 1 {
			return c, fmt.Errorf("invalid colour %q: component %d out of [0,1]", s, i)
		}
		c[i] = float32(v)
	}
	return c, nil
}

// File is the YAML config file.
type File struct {
	Input          string   `yaml:"input"`
	Output         string   `yaml:"output"`
	Overlays       []string `yaml:"overlays"`
	FragmentShader string   `yaml:"fragment_shader"`
	Watch          *bool    `yaml:"watch"`
	Width          int      `yaml:"width"`
	Height         int      `yaml:"height"`
	FPS            int      `yaml:"fps"`
	MaxFrames      int      `yaml:"frames"`
	Codec          string   `yaml:"codec"`
	Bitrate        string   `yaml:"bitrate"`
	HWAccel        *bool    `yaml:"hwaccel"`
	Stream         *bool    `yaml:"stream"`
	FFMPEGPath     string   `yaml:"ffmpeg"`
	ClearColor     *Color   `yaml:"clear_color"`
	AdvanceEvery   int      `yaml:"advance_every"`
	Headless       *bool    `yaml:"headless"`
}

// LoadFile reads a config file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &f, nil
}

// Parse parses args into a new Options and merges the config file, if one is
// named. Flags given on the command line win over the file.
func Parse(fs *flag.FlagSet, args []string) (*Options, error) {
	o := Register(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *o.ConfigFile == "" {
		return o, nil
	}
	f, err := LoadFile(*o.ConfigFile)
	if err != nil {
		return nil, err
	}
	set := map[string]bool{}
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	o.merge(f, set)
	return o, nil
}

func (o *Options) merge(f *File, set map[string]bool) {
	str := func(name string, dst *string, v string) {
		if !set[name] && v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int, v int) {
		if !set[name] && v != 0 {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool, v *bool) {
		if !set[name] && v != nil {
			*dst = *v
		}
	}

	str("input", o.Input, f.Input)
	str("output", o.OutputFile, f.Output)
	str("overlays", o.Overlays, strings.Join(f.Overlays, ","))
	str("frag", o.FragmentShader, f.FragmentShader)
	boolean("watch", o.Watch, f.Watch)
	num("width", o.Width, f.Width)
	num("height", o.Height, f.Height)
	num("fps", o.FPS, f.FPS)
	num("frames", o.MaxFrames, f.MaxFrames)
	str("codec", o.Codec, f.Codec)
	str("bitrate", o.Bitrate, f.Bitrate)
	boolean("hwaccel", o.HWAccel, f.HWAccel)
	boolean("stream", o.Stream, f.Stream)
	str("ffmpeg", o.FFMPEGPath, f.FFMPEGPath)
	if f.ClearColor != nil {
		str("clear", o.ClearColor, f.ClearColor.String())
	}
	num("advance", o.AdvanceEvery, f.AdvanceEvery)
	boolean("headless", o.Headless, f.Headless)
}

// OverlayPaths splits the overlay list.
func (o *Options) OverlayPaths() []string {
	var paths []string
	for _, p := range strings.Split(*o.Overlays, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// Validate checks values the flag package cannot.
func (o *Options) Validate() error {
	if *o.Input == "" {
		return fmt.Errorf("no input video given")
	}
	if len(o.OverlayPaths()) == 0 {
		return fmt.Errorf("no overlay images given")
	}
	if *o.Width <= 0 || *o.Height <= 0 {
		return fmt.Errorf("invalid output size %dx%d", *o.Width, *o.Height)
	}
	if *o.FPS <= 0 {
		return fmt.Errorf("invalid frame rate %d", *o.FPS)
	}
	if *o.AdvanceEvery < 1 {
		return fmt.Errorf("advance must be at least 1, got %d", *o.AdvanceEvery)
	}
	if *o.Headless && *o.Preview {
		return fmt.Errorf("-headless and -preview are mutually exclusive")
	}
	if *o.Watch && *o.FragmentShader == "" {
		return fmt.Errorf("-watch needs -frag")
	}
	_, err := ParseColor(*o.ClearColor)
	return err
}
