//go:build android

package gles

import (
	"encoding/binary"

	"golang.org/x/mobile/exp/f32"
	"golang.org/x/mobile/gl"
)

// Mobile drives a GLES 2 context owned by a golang.org/x/mobile app. It is
// the only backend on which the external-image streaming target exists.
type Mobile struct {
	ctx gl.Context
}

// NewMobile wraps the context delivered with the app's lifecycle event.
func NewMobile(ctx gl.Context) *Mobile {
	return &Mobile{ctx: ctx}
}

func (m *Mobile) GetError() uint32 { return uint32(m.ctx.GetError()) }

func (m *Mobile) CreateShader(kind uint32) uint32 {
	return m.ctx.CreateShader(gl.Enum(kind)).Value
}

func (m *Mobile) ShaderSource(shader uint32, source string) {
	m.ctx.ShaderSource(gl.Shader{Value: shader}, source)
}

func (m *Mobile) CompileShader(shader uint32) { m.ctx.CompileShader(gl.Shader{Value: shader}) }

func (m *Mobile) GetShaderiv(shader uint32, pname uint32) int32 {
	return int32(m.ctx.GetShaderi(gl.Shader{Value: shader}, gl.Enum(pname)))
}

func (m *Mobile) GetShaderInfoLog(shader uint32) string {
	return m.ctx.GetShaderInfoLog(gl.Shader{Value: shader})
}

func (m *Mobile) DeleteShader(shader uint32) { m.ctx.DeleteShader(gl.Shader{Value: shader}) }

func (m *Mobile) CreateProgram() uint32 { return m.ctx.CreateProgram().Value }

func program(p uint32) gl.Program { return gl.Program{Init: true, Value: p} }

func (m *Mobile) AttachShader(p, shader uint32) {
	m.ctx.AttachShader(program(p), gl.Shader{Value: shader})
}

func (m *Mobile) LinkProgram(p uint32) { m.ctx.LinkProgram(program(p)) }

func (m *Mobile) GetProgramiv(p uint32, pname uint32) int32 {
	return int32(m.ctx.GetProgrami(program(p), gl.Enum(pname)))
}

func (m *Mobile) GetProgramInfoLog(p uint32) string { return m.ctx.GetProgramInfoLog(program(p)) }

func (m *Mobile) UseProgram(p uint32) { m.ctx.UseProgram(program(p)) }

func (m *Mobile) DeleteProgram(p uint32) { m.ctx.DeleteProgram(program(p)) }

func (m *Mobile) GetAttribLocation(p uint32, name string) int32 {
	return int32(m.ctx.GetAttribLocation(program(p), name).Value)
}

func (m *Mobile) GetUniformLocation(p uint32, name string) int32 {
	return m.ctx.GetUniformLocation(program(p), name).Value
}

func (m *Mobile) Uniform1i(location int32, v int32) {
	m.ctx.Uniform1i(gl.Uniform{Value: location}, int(v))
}

func (m *Mobile) Uniform1f(location int32, v float32) {
	m.ctx.Uniform1f(gl.Uniform{Value: location}, v)
}

func (m *Mobile) UniformMatrix4fv(location int32, mat *[16]float32) {
	m.ctx.UniformMatrix4fv(gl.Uniform{Value: location}, mat[:])
}

func (m *Mobile) GenTexture() uint32 { return m.ctx.CreateTexture().Value }

func (m *Mobile) DeleteTexture(texture uint32) { m.ctx.DeleteTexture(gl.Texture{Value: texture}) }

func (m *Mobile) ActiveTexture(unit uint32) { m.ctx.ActiveTexture(gl.Enum(unit)) }

func (m *Mobile) BindTexture(target, texture uint32) {
	m.ctx.BindTexture(gl.Enum(target), gl.Texture{Value: texture})
}

func (m *Mobile) TexParameteri(target, pname uint32, param int32) {
	m.ctx.TexParameteri(gl.Enum(target), gl.Enum(pname), int(param))
}

// TexImage2D uses the unsized internal format GLES 2 requires.
func (m *Mobile) TexImage2D(target uint32, width, height int32, format uint32, pixels []byte) {
	m.ctx.TexImage2D(gl.Enum(target), 0, int(format), int(width), int(height), gl.Enum(format), gl.UNSIGNED_BYTE, pixels)
}

func (m *Mobile) GenBuffer() uint32 { return m.ctx.CreateBuffer().Value }

func (m *Mobile) DeleteBuffer(buffer uint32) { m.ctx.DeleteBuffer(gl.Buffer{Value: buffer}) }

func (m *Mobile) BindBuffer(target, buffer uint32) {
	m.ctx.BindBuffer(gl.Enum(target), gl.Buffer{Value: buffer})
}

func (m *Mobile) BufferData(target uint32, data []float32, usage uint32) {
	m.ctx.BufferData(gl.Enum(target), f32.Bytes(binary.LittleEndian, data...), gl.Enum(usage))
}

func (m *Mobile) VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset uintptr) {
	m.ctx.VertexAttribPointer(gl.Attrib{Value: uint(index)}, int(size), gl.Enum(xtype), normalized, int(stride), int(offset))
}

func (m *Mobile) EnableVertexAttribArray(index uint32) {
	m.ctx.EnableVertexAttribArray(gl.Attrib{Value: uint(index)})
}

func (m *Mobile) Enable(capability uint32) { m.ctx.Enable(gl.Enum(capability)) }

func (m *Mobile) BlendFunc(sfactor, dfactor uint32) {
	m.ctx.BlendFunc(gl.Enum(sfactor), gl.Enum(dfactor))
}

func (m *Mobile) Viewport(x, y, width, height int32) {
	m.ctx.Viewport(int(x), int(y), int(width), int(height))
}

func (m *Mobile) ClearColor(r, g, b, a float32) { m.ctx.ClearColor(r, g, b, a) }

func (m *Mobile) Clear(mask uint32) { m.ctx.Clear(gl.Enum(mask)) }

func (m *Mobile) DrawArrays(mode uint32, first, count int32) {
	m.ctx.DrawArrays(gl.Enum(mode), int(first), int(count))
}

func (m *Mobile) Finish() { m.ctx.Finish() }

func (m *Mobile) GenFramebuffer() uint32 { return m.ctx.CreateFramebuffer().Value }

func (m *Mobile) DeleteFramebuffer(fbo uint32) {
	m.ctx.DeleteFramebuffer(gl.Framebuffer{Value: fbo})
}

func (m *Mobile) BindFramebuffer(target, fbo uint32) {
	m.ctx.BindFramebuffer(gl.Enum(target), gl.Framebuffer{Value: fbo})
}

func (m *Mobile) FramebufferTexture2D(target, attachment, textarget, texture uint32) {
	m.ctx.FramebufferTexture2D(gl.Enum(target), gl.Enum(attachment), gl.Enum(textarget), gl.Texture{Value: texture}, 0)
}

func (m *Mobile) CheckFramebufferStatus(target uint32) uint32 {
	return uint32(m.ctx.CheckFramebufferStatus(gl.Enum(target)))
}

func (m *Mobile) GenRenderbuffer() uint32 { return m.ctx.CreateRenderbuffer().Value }

func (m *Mobile) DeleteRenderbuffer(rbo uint32) {
	m.ctx.DeleteRenderbuffer(gl.Renderbuffer{Value: rbo})
}

func (m *Mobile) BindRenderbuffer(target, rbo uint32) {
	m.ctx.BindRenderbuffer(gl.Enum(target), gl.Renderbuffer{Value: rbo})
}

func (m *Mobile) RenderbufferStorage(target, internalFormat uint32, width, height int32) {
	m.ctx.RenderbufferStorage(gl.Enum(target), gl.Enum(internalFormat), int(width), int(height))
}

func (m *Mobile) FramebufferRenderbuffer(target, attachment, rbTarget, rbo uint32) {
	m.ctx.FramebufferRenderbuffer(gl.Enum(target), gl.Enum(attachment), gl.Enum(rbTarget), gl.Renderbuffer{Value: rbo})
}

func (m *Mobile) ReadPixels(x, y, width, height int32, format uint32, dst []byte) {
	m.ctx.ReadPixels(dst, int(x), int(y), int(width), int(height), gl.Enum(format), gl.UNSIGNED_BYTE)
}
