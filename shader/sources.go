package shader

import (
	"bytes"
	"embed"
	"text/template"

	"github.com/richinsley/gooverlay/gles"
)

//go:embed *.vert *.frag
var templateDir embed.FS

var templates = template.Must(template.ParseFS(templateDir, "*.vert", "*.frag"))

// Dialect selects the GLSL flavour and streaming texture target for a context.
type Dialect int

const (
	// DialectGLES2 is GLSL ES 1.00 with the OES external-image sampler. The
	// sources are compiled as-is.
	DialectGLES2 Dialect = iota
	// DialectDesktop is WebGL2 source translated for a GL 4.1 core context.
	// The streaming texture is an ordinary 2D texture there.
	DialectDesktop
)

func (d Dialect) String() string {
	switch d {
	case DialectGLES2:
		return "gles2"
	case DialectDesktop:
		return "desktop"
	}
	return "unknown"
}

// StreamTarget is the texture target the streaming texture is bound to.
func (d Dialect) StreamTarget() uint32 {
	if d == DialectGLES2 {
		return gles.TEXTURE_EXTERNAL_OES
	}
	return gles.TEXTURE_2D
}

type sourceData struct {
	ES3           bool
	In            string
	Out           string
	FragIn        string
	StreamSampler string
	Sample        string
	FragColor     string
	Overlays      []string
}

func dataFor(d Dialect) *sourceData {
	data := &sourceData{
		In:            "attribute",
		Out:           "varying",
		FragIn:        "varying",
		StreamSampler: "samplerExternalOES",
		Sample:        "texture2D",
		FragColor:     "gl_FragColor",
	}
	if d == DialectDesktop {
		data = &sourceData{
			ES3:           true,
			In:            "in",
			Out:           "out",
			FragIn:        "in",
			StreamSampler: "sampler2D",
			Sample:        "texture",
			FragColor:     "fragColor",
		}
	}
	for i := 0; i < OverlayCount; i++ {
		data.Overlays = append(data.Overlays, OverlaySampler(i))
	}
	return data
}

func render(name string, d Dialect) string {
	var b bytes.Buffer
	if err := templates.ExecuteTemplate(&b, name, dataFor(d)); err != nil {
		panic("shader: rendering " + name + ": " + err.Error())
	}
	return b.String()
}

// VertexSource returns the overlay vertex stage for the dialect.
func (d Dialect) VertexSource() string {
	return render("overlay.vert", d)
}

// FragmentSource returns the overlay fragment stage for the dialect.
func (d Dialect) FragmentSource() string {
	return render("overlay.frag", d)
}
