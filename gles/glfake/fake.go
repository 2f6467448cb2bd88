// Package glfake is a software stand-in for a GL context. It keeps enough
// object state to catch binding mistakes, emulates compile and link by
// scanning declarations, and records every draw for inspection by tests.
package glfake

import (
	"fmt"
	"sort"
	"strings"

	"github.com/richinsley/gooverlay/gles"
)

// MaxTextureUnits is the number of texture units the fake exposes.
const MaxTextureUnits = 16

type decls struct {
	attributes  []string
	uniforms    []string
	varyingsIn  []string
	varyingsOut []string
}

type shaderObj struct {
	kind     uint32
	source   string
	compiled bool
	log      string
	decls    decls
}

type programObj struct {
	shaders  []uint32
	linked   bool
	log      string
	attribs  map[string]int32
	uniforms map[string]int32
	values   map[int32]interface{}
}

type textureObj struct {
	target uint32
	width  int32
	height int32
	pixels []byte
	params map[uint32]int32
}

// Binding is the texture bound to one target of a texture unit.
type Binding struct {
	Target  uint32
	Texture uint32
}

// AttribPointer is the recorded layout of one vertex attribute stream.
type AttribPointer struct {
	Buffer     uint32
	Size       int32
	Type       uint32
	Normalized bool
	Stride     int32
	Offset     uintptr
	Enabled    bool
}

// Draw is a snapshot of the state a draw call saw.
type Draw struct {
	Program  uint32
	Mode     uint32
	First    int32
	Count    int32
	Uniforms map[string]interface{}
	Units    map[uint32][]Binding
	Attribs  map[string]AttribPointer
	Vertices []float32
}

// GL implements gles.API in memory.
type GL struct {
	next uint32

	shaders       map[uint32]*shaderObj
	programs      map[uint32]*programObj
	textures      map[uint32]*textureObj
	buffers       map[uint32][]float32
	framebuffers  map[uint32]uint32
	renderbuffers map[uint32]bool

	current     uint32
	activeUnit  uint32
	units       map[uint32]map[uint32]uint32
	arrayBuffer uint32
	attribs     map[uint32]AttribPointer
	framebuffer uint32

	errs      []uint32
	failAfter map[string]uint32

	// FailLink forces every link to fail with this log when non-empty.
	FailLink string

	Enabled      map[uint32]bool
	BlendSrc     uint32
	BlendDst     uint32
	ClearValue   [4]float32
	ClearMasks   []uint32
	ViewportRect [4]int32
	Finishes     int
	Draws        []Draw
	Calls        []string
}

var _ gles.API = (*GL)(nil)

// New returns an empty context.
func New() *GL {
	return &GL{
		shaders:       map[uint32]*shaderObj{},
		programs:      map[uint32]*programObj{},
		textures:      map[uint32]*textureObj{},
		buffers:       map[uint32][]float32{},
		framebuffers:  map[uint32]uint32{},
		renderbuffers: map[uint32]bool{},
		units:         map[uint32]map[uint32]uint32{},
		attribs:       map[uint32]AttribPointer{},
		failAfter:     map[string]uint32{},
		Enabled:       map[uint32]bool{},
	}
}

// FailAfter makes the next call named call raise code on the error queue.
func (g *GL) FailAfter(call string, code uint32) {
	g.failAfter[call] = code
}

func (g *GL) call(name string) {
	g.Calls = append(g.Calls, name)
	if code, ok := g.failAfter[name]; ok {
		delete(g.failAfter, name)
		g.errs = append(g.errs, code)
	}
}

func (g *GL) raise(code uint32) {
	g.errs = append(g.errs, code)
}

func (g *GL) alloc() uint32 {
	g.next++
	return g.next
}

// LiveTextures is the number of texture objects not yet deleted.
func (g *GL) LiveTextures() int { return len(g.textures) }

// LivePrograms is the number of program objects not yet deleted.
func (g *GL) LivePrograms() int { return len(g.programs) }

// LiveShaders is the number of shader objects not yet deleted.
func (g *GL) LiveShaders() int { return len(g.shaders) }

// LiveBuffers is the number of buffer objects not yet deleted.
func (g *GL) LiveBuffers() int { return len(g.buffers) }

// CurrentProgram is the program last passed to UseProgram.
func (g *GL) CurrentProgram() uint32 { return g.current }

// TextureTarget reports the target a texture was first bound to.
func (g *GL) TextureTarget(texture uint32) uint32 {
	if t, ok := g.textures[texture]; ok {
		return t.target
	}
	return 0
}

// TextureParam returns a parameter set with TexParameteri.
func (g *GL) TextureParam(texture, pname uint32) int32 {
	if t, ok := g.textures[texture]; ok {
		return t.params[pname]
	}
	return 0
}

// TextureSize returns the dimensions of the last upload.
func (g *GL) TextureSize(texture uint32) (int32, int32) {
	if t, ok := g.textures[texture]; ok {
		return t.width, t.height
	}
	return 0, 0
}

// Texel returns the normalised RGBA value at (x, y) of a texture, clamped to
// its edges. Textures without pixel data read as transparent black.
func (g *GL) Texel(texture uint32, x, y int) [4]float32 {
	t, ok := g.textures[texture]
	if !ok || t.width == 0 || t.height == 0 || len(t.pixels) == 0 {
		return [4]float32{}
	}
	x = clamp(x, 0, int(t.width)-1)
	y = clamp(y, 0, int(t.height)-1)
	off := (y*int(t.width) + x) * 4
	var c [4]float32
	for i := range c {
		c[i] = float32(t.pixels[off+i]) / 255
	}
	return c
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Sampler returns the texture a draw saw through a sampler uniform, looking at
// the unit the sampler was set to and the given target.
func (d Draw) Sampler(name string, target uint32) (uint32, bool) {
	v, ok := d.Uniforms[name]
	if !ok {
		return 0, false
	}
	unit, ok := v.(int32)
	if !ok {
		return 0, false
	}
	for _, b := range d.Units[uint32(unit)] {
		if b.Target == target {
			return b.Texture, true
		}
	}
	return 0, false
}

func (g *GL) GetError() uint32 {
	if len(g.errs) == 0 {
		return gles.NO_ERROR
	}
	code := g.errs[0]
	g.errs = g.errs[1:]
	return code
}

func (g *GL) CreateShader(kind uint32) uint32 {
	g.call("glCreateShader")
	if kind != gles.VERTEX_SHADER && kind != gles.FRAGMENT_SHADER {
		g.raise(gles.INVALID_ENUM)
		return 0
	}
	id := g.alloc()
	g.shaders[id] = &shaderObj{kind: kind}
	return id
}

func (g *GL) ShaderSource(shader uint32, source string) {
	g.call("glShaderSource")
	s, ok := g.shaders[shader]
	if !ok {
		g.raise(gles.INVALID_VALUE)
		return
	}
	s.source = source
}

func (g *GL) CompileShader(shader uint32) {
	g.call("glCompileShader")
	s, ok := g.shaders[shader]
	if !ok {
		g.raise(gles.INVALID_VALUE)
		return
	}
	if msg := syntaxCheck(s.source); msg != "" {
		s.compiled = false
		s.log = "ERROR: 0:1: " + msg
		return
	}
	s.compiled = true
	s.log = ""
	s.decls = scan(s.source, s.kind)
}

func syntaxCheck(src string) string {
	if !strings.Contains(src, "void main(") {
		return "'main' : function not defined"
	}
	braces, parens := 0, 0
	for _, r := range src {
		switch r {
		case '{':
			braces++
		case '}':
			braces--
		case '(':
			parens++
		case ')':
			parens--
		}
		if braces < 0 || parens < 0 {
			return "syntax error"
		}
	}
	if braces != 0 || parens != 0 {
		return "syntax error: unexpected end of file"
	}
	return ""
}

func scan(src string, kind uint32) decls {
	var d decls
	for _, line := range strings.Split(src, "\n") {
		f := strings.Fields(strings.TrimSuffix(strings.TrimSpace(line), ";"))
		if len(f) < 3 {
			continue
		}
		// qualifier, optional precision, type, name
		name := f[len(f)-1]
		if i := strings.IndexByte(name, '['); i >= 0 {
			name = name[:i]
		}
		switch f[0] {
		case "uniform":
			d.uniforms = append(d.uniforms, name)
		case "attribute":
			d.attributes = append(d.attributes, name)
		case "varying":
			if kind == gles.VERTEX_SHADER {
				d.varyingsOut = append(d.varyingsOut, name)
			} else {
				d.varyingsIn = append(d.varyingsIn, name)
			}
		case "in":
			if kind == gles.VERTEX_SHADER {
				d.attributes = append(d.attributes, name)
			} else {
				d.varyingsIn = append(d.varyingsIn, name)
			}
		case "out":
			if kind == gles.VERTEX_SHADER {
				d.varyingsOut = append(d.varyingsOut, name)
			}
		}
	}
	return d
}

func (g *GL) GetShaderiv(shader uint32, pname uint32) int32 {
	g.call("glGetShaderiv")
	s, ok := g.shaders[shader]
	if !ok {
		g.raise(gles.INVALID_VALUE)
		return 0
	}
	switch pname {
	case gles.COMPILE_STATUS:
		if s.compiled {
			return gles.TRUE
		}
		return gles.FALSE
	case gles.INFO_LOG_LENGTH:
		if s.log == "" {
			return 0
		}
		return int32(len(s.log) + 1)
	}
	g.raise(gles.INVALID_ENUM)
	return 0
}

func (g *GL) GetShaderInfoLog(shader uint32) string {
	g.call("glGetShaderInfoLog")
	if s, ok := g.shaders[shader]; ok {
		return s.log
	}
	return ""
}

func (g *GL) DeleteShader(shader uint32) {
	g.call("glDeleteShader")
	delete(g.shaders, shader)
}

func (g *GL) CreateProgram() uint32 {
	g.call("glCreateProgram")
	id := g.alloc()
	g.programs[id] = &programObj{values: map[int32]interface{}{}}
	return id
}

func (g *GL) AttachShader(program, shader uint32) {
	g.call("glAttachShader")
	p, ok := g.programs[program]
	if !ok {
		g.raise(gles.INVALID_VALUE)
		return
	}
	if _, ok := g.shaders[shader]; !ok {
		g.raise(gles.INVALID_VALUE)
		return
	}
	p.shaders = append(p.shaders, shader)
}

func (g *GL) LinkProgram(program uint32) {
	g.call("glLinkProgram")
	p, ok := g.programs[program]
	if !ok {
		g.raise(gles.INVALID_VALUE)
		return
	}
	p.linked = false
	if g.FailLink != "" {
		p.log = g.FailLink
		return
	}

	var vs, fs *shaderObj
	for _, id := range p.shaders {
		s := g.shaders[id]
		if s == nil || !s.compiled {
			p.log = "attached shader is not compiled"
			return
		}
		if s.kind == gles.VERTEX_SHADER {
			vs = s
		} else {
			fs = s
		}
	}
	if vs == nil || fs == nil {
		p.log = "program requires a vertex and a fragment shader"
		return
	}
	for _, in := range fs.decls.varyingsIn {
		if !contains(vs.decls.varyingsOut, in) {
			p.log = fmt.Sprintf("varying %s is not written by the vertex shader", in)
			return
		}
	}

	p.attribs = map[string]int32{}
	for i, name := range vs.decls.attributes {
		p.attribs[name] = int32(i)
	}
	p.uniforms = map[string]int32{}
	for _, name := range append(append([]string{}, vs.decls.uniforms...), fs.decls.uniforms...) {
		if _, ok := p.uniforms[name]; !ok {
			p.uniforms[name] = int32(len(p.uniforms))
		}
	}
	p.linked = true
	p.log = ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (g *GL) GetProgramiv(program uint32, pname uint32) int32 {
	g.call("glGetProgramiv")
	p, ok := g.programs[program]
	if !ok {
		g.raise(gles.INVALID_VALUE)
		return 0
	}
	switch pname {
	case gles.LINK_STATUS:
		if p.linked {
			return gles.TRUE
		}
		return gles.FALSE
	case gles.INFO_LOG_LENGTH:
		if p.log == "" {
			return 0
		}
		return int32(len(p.log) + 1)
	}
	g.raise(gles.INVALID_ENUM)
	return 0
}

func (g *GL) GetProgramInfoLog(program uint32) string {
	g.call("glGetProgramInfoLog")
	if p, ok := g.programs[program]; ok {
		return p.log
	}
	return ""
}

func (g *GL) UseProgram(program uint32) {
	g.call("glUseProgram")
	if program != 0 {
		p, ok := g.programs[program]
		if !ok || !p.linked {
			g.raise(gles.INVALID_OPERATION)
			return
		}
	}
	g.current = program
}

func (g *GL) DeleteProgram(program uint32) {
	g.call("glDeleteProgram")
	delete(g.programs, program)
	if g.current == program {
		g.current = 0
	}
}

func (g *GL) GetAttribLocation(program uint32, name string) int32 {
	g.call("glGetAttribLocation")
	p, ok := g.programs[program]
	if !ok || !p.linked {
		g.raise(gles.INVALID_OPERATION)
		return -1
	}
	if loc, ok := p.attribs[name]; ok {
		return loc
	}
	return -1
}

func (g *GL) GetUniformLocation(program uint32, name string) int32 {
	g.call("glGetUniformLocation")
	p, ok := g.programs[program]
	if !ok || !p.linked {
		g.raise(gles.INVALID_OPERATION)
		return -1
	}
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	return -1
}

func (g *GL) setUniform(name string, location int32, v interface{}) {
	g.call(name)
	p, ok := g.programs[g.current]
	if !ok {
		g.raise(gles.INVALID_OPERATION)
		return
	}
	if location == -1 {
		return
	}
	if location < 0 || int(location) >= len(p.uniforms) {
		g.raise(gles.INVALID_OPERATION)
		return
	}
	p.values[location] = v
}

func (g *GL) Uniform1i(location int32, v int32) { g.setUniform("glUniform1i", location, v) }

func (g *GL) Uniform1f(location int32, v float32) { g.setUniform("glUniform1f", location, v) }

func (g *GL) UniformMatrix4fv(location int32, m *[16]float32) {
	g.setUniform("glUniformMatrix4fv", location, *m)
}

func (g *GL) GenTexture() uint32 {
	g.call("glGenTextures")
	id := g.alloc()
	g.textures[id] = &textureObj{params: map[uint32]int32{}}
	return id
}

func (g *GL) DeleteTexture(texture uint32) {
	g.call("glDeleteTextures")
	delete(g.textures, texture)
	for _, targets := range g.units {
		for target, t := range targets {
			if t == texture {
				delete(targets, target)
			}
		}
	}
}

func (g *GL) ActiveTexture(unit uint32) {
	g.call("glActiveTexture")
	if unit < gles.TEXTURE0 || unit >= gles.TEXTURE0+MaxTextureUnits {
		g.raise(gles.INVALID_ENUM)
		return
	}
	g.activeUnit = unit - gles.TEXTURE0
}

func (g *GL) BindTexture(target, texture uint32) {
	g.call("glBindTexture")
	if target != gles.TEXTURE_2D && target != gles.TEXTURE_EXTERNAL_OES {
		g.raise(gles.INVALID_ENUM)
		return
	}
	if texture != 0 {
		t, ok := g.textures[texture]
		if !ok {
			g.raise(gles.INVALID_VALUE)
			return
		}
		if t.target == 0 {
			t.target = target
		} else if t.target != target {
			g.raise(gles.INVALID_OPERATION)
			return
		}
	}
	if g.units[g.activeUnit] == nil {
		g.units[g.activeUnit] = map[uint32]uint32{}
	}
	g.units[g.activeUnit][target] = texture
}

func (g *GL) bound(target uint32) *textureObj {
	id := g.units[g.activeUnit][target]
	if id == 0 {
		return nil
	}
	return g.textures[id]
}

func (g *GL) TexParameteri(target, pname uint32, param int32) {
	g.call("glTexParameteri")
	t := g.bound(target)
	if t == nil {
		g.raise(gles.INVALID_OPERATION)
		return
	}
	t.params[pname] = param
}

func (g *GL) TexImage2D(target uint32, width, height int32, format uint32, pixels []byte) {
	g.call("glTexImage2D")
	if target == gles.TEXTURE_EXTERNAL_OES {
		// external images are never specified through TexImage2D
		g.raise(gles.INVALID_ENUM)
		return
	}
	t := g.bound(target)
	if t == nil {
		g.raise(gles.INVALID_OPERATION)
		return
	}
	if width < 0 || height < 0 || (pixels != nil && len(pixels) < int(width*height*4)) {
		g.raise(gles.INVALID_VALUE)
		return
	}
	t.width, t.height = width, height
	t.pixels = nil
	if pixels != nil {
		t.pixels = append([]byte(nil), pixels[:width*height*4]...)
	}
}

// SetTexels replaces a texture's contents without a GL call, the way a
// platform producer writes into an external image.
func (g *GL) SetTexels(texture uint32, width, height int32, pixels []byte) {
	if t, ok := g.textures[texture]; ok {
		t.width, t.height = width, height
		t.pixels = append([]byte(nil), pixels...)
	}
}

func (g *GL) GenBuffer() uint32 {
	g.call("glGenBuffers")
	id := g.alloc()
	g.buffers[id] = nil
	return id
}

func (g *GL) DeleteBuffer(buffer uint32) {
	g.call("glDeleteBuffers")
	delete(g.buffers, buffer)
	if g.arrayBuffer == buffer {
		g.arrayBuffer = 0
	}
}

func (g *GL) BindBuffer(target, buffer uint32) {
	g.call("glBindBuffer")
	if target != gles.ARRAY_BUFFER {
		g.raise(gles.INVALID_ENUM)
		return
	}
	if _, ok := g.buffers[buffer]; buffer != 0 && !ok {
		g.raise(gles.INVALID_VALUE)
		return
	}
	g.arrayBuffer = buffer
}

func (g *GL) BufferData(target uint32, data []float32, usage uint32) {
	g.call("glBufferData")
	if g.arrayBuffer == 0 {
		g.raise(gles.INVALID_OPERATION)
		return
	}
	g.buffers[g.arrayBuffer] = append([]float32(nil), data...)
}

func (g *GL) VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset uintptr) {
	g.call("glVertexAttribPointer")
	if size < 1 || size > 4 || stride < 0 {
		g.raise(gles.INVALID_VALUE)
		return
	}
	a := g.attribs[index]
	a.Buffer, a.Size, a.Type, a.Normalized, a.Stride, a.Offset = g.arrayBuffer, size, xtype, normalized, stride, offset
	g.attribs[index] = a
}

func (g *GL) EnableVertexAttribArray(index uint32) {
	g.call("glEnableVertexAttribArray")
	a := g.attribs[index]
	a.Enabled = true
	g.attribs[index] = a
}

func (g *GL) Enable(capability uint32) {
	g.call("glEnable")
	g.Enabled[capability] = true
}

func (g *GL) BlendFunc(sfactor, dfactor uint32) {
	g.call("glBlendFunc")
	g.BlendSrc, g.BlendDst = sfactor, dfactor
}

func (g *GL) Viewport(x, y, width, height int32) {
	g.call("glViewport")
	g.ViewportRect = [4]int32{x, y, width, height}
}

func (g *GL) ClearColor(r, gg, b, a float32) {
	g.call("glClearColor")
	g.ClearValue = [4]float32{r, gg, b, a}
}

func (g *GL) Clear(mask uint32) {
	g.call("glClear")
	g.ClearMasks = append(g.ClearMasks, mask)
}

func (g *GL) DrawArrays(mode uint32, first, count int32) {
	g.call("glDrawArrays")
	p, ok := g.programs[g.current]
	if !ok || !p.linked {
		g.raise(gles.INVALID_OPERATION)
		return
	}

	d := Draw{
		Program:  g.current,
		Mode:     mode,
		First:    first,
		Count:    count,
		Uniforms: map[string]interface{}{},
		Units:    map[uint32][]Binding{},
		Attribs:  map[string]AttribPointer{},
	}
	for name, loc := range p.uniforms {
		if v, ok := p.values[loc]; ok {
			d.Uniforms[name] = v
		}
	}
	for unit, targets := range g.units {
		for target, tex := range targets {
			if tex != 0 {
				d.Units[unit] = append(d.Units[unit], Binding{Target: target, Texture: tex})
			}
		}
		sort.Slice(d.Units[unit], func(i, j int) bool { return d.Units[unit][i].Target < d.Units[unit][j].Target })
	}
	for name, loc := range p.attribs {
		a, ok := g.attribs[uint32(loc)]
		if !ok || !a.Enabled {
			g.raise(gles.INVALID_OPERATION)
			return
		}
		d.Attribs[name] = a
		if d.Vertices == nil {
			d.Vertices = g.buffers[a.Buffer]
		}
	}
	g.Draws = append(g.Draws, d)
}

func (g *GL) Finish() {
	g.call("glFinish")
	g.Finishes++
}

func (g *GL) GenFramebuffer() uint32 {
	g.call("glGenFramebuffers")
	id := g.alloc()
	g.framebuffers[id] = 0
	return id
}

func (g *GL) DeleteFramebuffer(fbo uint32) {
	g.call("glDeleteFramebuffers")
	delete(g.framebuffers, fbo)
	if g.framebuffer == fbo {
		g.framebuffer = 0
	}
}

func (g *GL) BindFramebuffer(target, fbo uint32) {
	g.call("glBindFramebuffer")
	if _, ok := g.framebuffers[fbo]; fbo != 0 && !ok {
		g.raise(gles.INVALID_OPERATION)
		return
	}
	g.framebuffer = fbo
}

func (g *GL) FramebufferTexture2D(target, attachment, textarget, texture uint32) {
	g.call("glFramebufferTexture2D")
	if g.framebuffer == 0 {
		g.raise(gles.INVALID_OPERATION)
		return
	}
	if attachment == gles.COLOR_ATTACHMENT0 {
		g.framebuffers[g.framebuffer] = texture
	}
}

func (g *GL) CheckFramebufferStatus(target uint32) uint32 {
	g.call("glCheckFramebufferStatus")
	if g.framebuffer == 0 || g.framebuffers[g.framebuffer] != 0 {
		return gles.FRAMEBUFFER_COMPLETE
	}
	return 0
}

func (g *GL) GenRenderbuffer() uint32 {
	g.call("glGenRenderbuffers")
	id := g.alloc()
	g.renderbuffers[id] = true
	return id
}

func (g *GL) DeleteRenderbuffer(rbo uint32) {
	g.call("glDeleteRenderbuffers")
	delete(g.renderbuffers, rbo)
}

func (g *GL) BindRenderbuffer(target, rbo uint32) { g.call("glBindRenderbuffer") }

func (g *GL) RenderbufferStorage(target, internalFormat uint32, width, height int32) {
	g.call("glRenderbufferStorage")
}

func (g *GL) FramebufferRenderbuffer(target, attachment, rbTarget, rbo uint32) {
	g.call("glFramebufferRenderbuffer")
}

// ReadPixels fills dst with the current clear colour.
func (g *GL) ReadPixels(x, y, width, height int32, format uint32, dst []byte) {
	g.call("glReadPixels")
	n := int(width * height * 4)
	if len(dst) < n {
		g.raise(gles.INVALID_OPERATION)
		return
	}
	for i := 0; i < n; i += 4 {
		for c := 0; c < 4; c++ {
			dst[i+c] = byte(g.ClearValue[c]*255 + 0.5)
		}
	}
}
