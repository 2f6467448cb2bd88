// Package texture manages the compositor's textures: one streaming texture
// written by the platform and a fixed row of static overlays, each bound to a
// texture unit chosen by its position.
package texture

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/richinsley/gooverlay/gles"
	"github.com/richinsley/gooverlay/shader"
)

// Kind distinguishes the two texture classes.
type Kind int

const (
	Streaming Kind = iota
	Static
)

func (k Kind) String() string {
	if k == Streaming {
		return "streaming"
	}
	return "static"
}

// StreamUnit is the texture unit of the streaming texture. Overlay slot i is
// on unit StreamUnit+1+i.
const StreamUnit = 0

// Texture is a GL texture object and the unit it is bound to for drawing.
type Texture struct {
	Handle uint32
	Unit   uint32
	Target uint32
	Kind   Kind
}

// OverlaySlot is one static overlay position.
type OverlaySlot struct {
	Texture
	Width  int
	Height int
}

// Loaded reports whether the slot holds an uploaded texture.
func (s *OverlaySlot) Loaded() bool {
	return s.Handle != 0
}

// Set owns the streaming texture and the overlay slots.
type Set struct {
	api      gles.API
	Stream   Texture
	Overlays [shader.OverlayCount]OverlaySlot
}

// NewSet returns an empty set with every slot assigned its unit.
func NewSet(api gles.API) *Set {
	s := &Set{api: api}
	s.Stream = Texture{Unit: StreamUnit, Kind: Streaming}
	for i := range s.Overlays {
		s.Overlays[i].Unit = StreamUnit + 1 + uint32(i)
		s.Overlays[i].Target = gles.TEXTURE_2D
		s.Overlays[i].Kind = Static
	}
	return s
}

// CreateStreaming allocates the texture the platform writes frames into. No
// pixel data is uploaded here.
func (s *Set) CreateStreaming(target uint32) (Texture, error) {
	api := s.api
	tex := api.GenTexture()
	api.ActiveTexture(gles.TEXTURE0 + StreamUnit)
	api.BindTexture(target, tex)
	if err := gles.Check(api, "glBindTexture streaming"); err != nil {
		api.DeleteTexture(tex)
		return Texture{}, err
	}
	api.TexParameteri(target, gles.TEXTURE_MIN_FILTER, gles.NEAREST)
	api.TexParameteri(target, gles.TEXTURE_MAG_FILTER, gles.LINEAR)
	api.TexParameteri(target, gles.TEXTURE_WRAP_S, gles.CLAMP_TO_EDGE)
	api.TexParameteri(target, gles.TEXTURE_WRAP_T, gles.CLAMP_TO_EDGE)
	if err := gles.Check(api, "glTexParameter streaming"); err != nil {
		api.DeleteTexture(tex)
		return Texture{}, err
	}

	s.Stream.Handle = tex
	s.Stream.Target = target
	log.Debug("created streaming texture", "texture", tex, "target", fmt.Sprintf("%#x", target))
	return s.Stream, nil
}

// UploadStatic uploads buf into overlay slot and releases buf. A slot is meant
// to be filled once; uploading into an occupied slot replaces it and leaks
// the previous texture object.
func (s *Set) UploadStatic(slot int, buf *PixelBuffer) (Texture, error) {
	if slot < 0 || slot >= len(s.Overlays) {
		return Texture{}, fmt.Errorf("texture: overlay slot %d out of range [0,%d)", slot, len(s.Overlays))
	}
	if err := buf.validate(); err != nil {
		return Texture{}, err
	}
	o := &s.Overlays[slot]
	if o.Loaded() {
		log.Warn("overlay slot uploaded twice, previous texture is leaked", "slot", slot, "texture", o.Handle)
	}

	api := s.api
	tex := api.GenTexture()
	api.ActiveTexture(gles.TEXTURE0 + o.Unit)
	api.BindTexture(gles.TEXTURE_2D, tex)
	api.TexParameteri(gles.TEXTURE_2D, gles.TEXTURE_WRAP_S, gles.CLAMP_TO_EDGE)
	api.TexParameteri(gles.TEXTURE_2D, gles.TEXTURE_WRAP_T, gles.CLAMP_TO_EDGE)
	api.TexParameteri(gles.TEXTURE_2D, gles.TEXTURE_MIN_FILTER, gles.LINEAR)
	api.TexParameteri(gles.TEXTURE_2D, gles.TEXTURE_MAG_FILTER, gles.LINEAR)
	api.BlendFunc(gles.SRC_ALPHA, gles.ONE_MINUS_SRC_ALPHA)
	api.Enable(gles.BLEND)
	api.TexImage2D(gles.TEXTURE_2D, int32(buf.Width), int32(buf.Height), gles.RGBA, buf.Pix)
	if err := gles.Check(api, fmt.Sprintf("glTexImage2D overlay %d", slot)); err != nil {
		api.DeleteTexture(tex)
		return Texture{}, err
	}

	o.Handle = tex
	o.Width, o.Height = buf.Width, buf.Height
	buf.Release()
	return o.Texture, nil
}

// BindAll binds the streaming texture to its unit and every overlay to its
// unit, and points each sampler of p at the matching unit. Unit bindings are
// context state, so this runs before every draw.
func (s *Set) BindAll(p *shader.Program) error {
	api := s.api
	api.ActiveTexture(gles.TEXTURE0 + s.Stream.Unit)
	api.BindTexture(s.Stream.Target, s.Stream.Handle)
	api.Uniform1i(p.Uniform(shader.SamplerStream), int32(s.Stream.Unit))
	if err := gles.Check(api, "glBindTexture streaming"); err != nil {
		return err
	}

	for i := range s.Overlays {
		o := &s.Overlays[i]
		api.ActiveTexture(gles.TEXTURE0 + o.Unit)
		api.BindTexture(gles.TEXTURE_2D, o.Handle)
		api.Uniform1i(p.Uniform(shader.OverlaySampler(i)), int32(o.Unit))
	}
	return gles.Check(api, "glBindTexture overlays")
}

// Destroy deletes every texture the set still references.
func (s *Set) Destroy() {
	if s.Stream.Handle != 0 {
		s.api.DeleteTexture(s.Stream.Handle)
		s.Stream.Handle = 0
	}
	for i := range s.Overlays {
		if s.Overlays[i].Handle != 0 {
			s.api.DeleteTexture(s.Overlays[i].Handle)
			s.Overlays[i].Handle = 0
		}
	}
}
