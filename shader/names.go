package shader

import "fmt"

// OverlayCount is the number of static overlay samplers the program declares.
const OverlayCount = 10

// Fixed attribute and uniform names shared by the program and the compositor.
const (
	AttribPosition = "aPosition"
	AttribTexCoord = "aTextureCoord"

	UniformMVP    = "uMVPMatrix"
	UniformST     = "uSTMatrix"
	UniformFrame  = "uFrame"
	SamplerStream = "sTexture"
)

// OverlaySampler returns the sampler name for overlay slot (0-based).
func OverlaySampler(slot int) string {
	return fmt.Sprintf("sampler2d%d", slot+1)
}

// Requirements lists the names a program must expose before it may draw.
type Requirements struct {
	Attributes []string
	Uniforms   []string
}

// Required returns the full set of bindings the overlay compositor uses.
func Required() Requirements {
	req := Requirements{
		Attributes: []string{AttribPosition, AttribTexCoord},
		Uniforms:   []string{UniformMVP, UniformST, UniformFrame, SamplerStream},
	}
	for i := 0; i < OverlayCount; i++ {
		req.Uniforms = append(req.Uniforms, OverlaySampler(i))
	}
	return req
}
