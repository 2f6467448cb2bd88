//go:build !android

package gles

import (
	"fmt"
	"strings"
	"sync"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

var glInitOnce sync.Once

// Desktop drives a GL 4.1 core profile context through go-gl.
type Desktop struct {
	vao uint32
}

// NewDesktop loads the GL function pointers for the current context and binds
// the single vertex array object the core profile requires before any
// attribute pointer may be set. The context must be current on the calling
// thread.
func NewDesktop() (*Desktop, error) {
	var initErr error
	glInitOnce.Do(func() {
		initErr = gl.Init()
	})
	if initErr != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", initErr)
	}

	d := &Desktop{}
	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)
	return d, nil
}

// Release deletes the vertex array object created by NewDesktop.
func (d *Desktop) Release() {
	gl.BindVertexArray(0)
	gl.DeleteVertexArrays(1, &d.vao)
}

func (d *Desktop) GetError() uint32 { return gl.GetError() }

func (d *Desktop) CreateShader(kind uint32) uint32 { return gl.CreateShader(kind) }

func (d *Desktop) ShaderSource(shader uint32, source string) {
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
}

func (d *Desktop) CompileShader(shader uint32) { gl.CompileShader(shader) }

func (d *Desktop) GetShaderiv(shader uint32, pname uint32) int32 {
	var v int32
	gl.GetShaderiv(shader, pname, &v)
	return v
}

func (d *Desktop) GetShaderInfoLog(shader uint32) string {
	var logLength int32
	gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
	if logLength <= 0 {
		return ""
	}
	logText := strings.Repeat("\x00", int(logLength+1))
	gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
	return strings.TrimRight(logText, "\x00")
}

func (d *Desktop) DeleteShader(shader uint32) { gl.DeleteShader(shader) }

func (d *Desktop) CreateProgram() uint32 { return gl.CreateProgram() }

func (d *Desktop) AttachShader(program, shader uint32) { gl.AttachShader(program, shader) }

func (d *Desktop) LinkProgram(program uint32) { gl.LinkProgram(program) }

func (d *Desktop) GetProgramiv(program uint32, pname uint32) int32 {
	var v int32
	gl.GetProgramiv(program, pname, &v)
	return v
}

func (d *Desktop) GetProgramInfoLog(program uint32) string {
	var logLength int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
	if logLength <= 0 {
		return ""
	}
	logText := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(program, logLength, nil, gl.Str(logText))
	return strings.TrimRight(logText, "\x00")
}

func (d *Desktop) UseProgram(program uint32) { gl.UseProgram(program) }

func (d *Desktop) DeleteProgram(program uint32) { gl.DeleteProgram(program) }

func (d *Desktop) GetAttribLocation(program uint32, name string) int32 {
	return gl.GetAttribLocation(program, gl.Str(name+"\x00"))
}

func (d *Desktop) GetUniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (d *Desktop) Uniform1i(location int32, v int32) { gl.Uniform1i(location, v) }

func (d *Desktop) Uniform1f(location int32, v float32) { gl.Uniform1f(location, v) }

func (d *Desktop) UniformMatrix4fv(location int32, m *[16]float32) {
	gl.UniformMatrix4fv(location, 1, false, &m[0])
}

func (d *Desktop) GenTexture() uint32 {
	var t uint32
	gl.GenTextures(1, &t)
	return t
}

func (d *Desktop) DeleteTexture(texture uint32) { gl.DeleteTextures(1, &texture) }

func (d *Desktop) ActiveTexture(unit uint32) { gl.ActiveTexture(unit) }

func (d *Desktop) BindTexture(target, texture uint32) { gl.BindTexture(target, texture) }

func (d *Desktop) TexParameteri(target, pname uint32, param int32) {
	gl.TexParameteri(target, pname, param)
}

func (d *Desktop) TexImage2D(target uint32, width, height int32, format uint32, pixels []byte) {
	if len(pixels) == 0 {
		gl.TexImage2D(target, 0, gl.RGBA8, width, height, 0, format, gl.UNSIGNED_BYTE, nil)
		return
	}
	gl.TexImage2D(target, 0, gl.RGBA8, width, height, 0, format, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
}

func (d *Desktop) GenBuffer() uint32 {
	var b uint32
	gl.GenBuffers(1, &b)
	return b
}

func (d *Desktop) DeleteBuffer(buffer uint32) { gl.DeleteBuffers(1, &buffer) }

func (d *Desktop) BindBuffer(target, buffer uint32) { gl.BindBuffer(target, buffer) }

func (d *Desktop) BufferData(target uint32, data []float32, usage uint32) {
	gl.BufferData(target, len(data)*4, gl.Ptr(data), usage)
}

func (d *Desktop) VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset uintptr) {
	gl.VertexAttribPointerWithOffset(index, size, xtype, normalized, stride, offset)
}

func (d *Desktop) EnableVertexAttribArray(index uint32) { gl.EnableVertexAttribArray(index) }

func (d *Desktop) Enable(capability uint32) { gl.Enable(capability) }

func (d *Desktop) BlendFunc(sfactor, dfactor uint32) { gl.BlendFunc(sfactor, dfactor) }

func (d *Desktop) Viewport(x, y, width, height int32) { gl.Viewport(x, y, width, height) }

func (d *Desktop) ClearColor(r, g, b, a float32) { gl.ClearColor(r, g, b, a) }

func (d *Desktop) Clear(mask uint32) { gl.Clear(mask) }

func (d *Desktop) DrawArrays(mode uint32, first, count int32) { gl.DrawArrays(mode, first, count) }

func (d *Desktop) Finish() { gl.Finish() }

func (d *Desktop) GenFramebuffer() uint32 {
	var f uint32
	gl.GenFramebuffers(1, &f)
	return f
}

func (d *Desktop) DeleteFramebuffer(fbo uint32) { gl.DeleteFramebuffers(1, &fbo) }

func (d *Desktop) BindFramebuffer(target, fbo uint32) { gl.BindFramebuffer(target, fbo) }

func (d *Desktop) FramebufferTexture2D(target, attachment, textarget, texture uint32) {
	gl.FramebufferTexture2D(target, attachment, textarget, texture, 0)
}

func (d *Desktop) CheckFramebufferStatus(target uint32) uint32 {
	return gl.CheckFramebufferStatus(target)
}

func (d *Desktop) GenRenderbuffer() uint32 {
	var r uint32
	gl.GenRenderbuffers(1, &r)
	return r
}

func (d *Desktop) DeleteRenderbuffer(rbo uint32) { gl.DeleteRenderbuffers(1, &rbo) }

func (d *Desktop) BindRenderbuffer(target, rbo uint32) { gl.BindRenderbuffer(target, rbo) }

func (d *Desktop) RenderbufferStorage(target, internalFormat uint32, width, height int32) {
	gl.RenderbufferStorage(target, internalFormat, width, height)
}

func (d *Desktop) FramebufferRenderbuffer(target, attachment, rbTarget, rbo uint32) {
	gl.FramebufferRenderbuffer(target, attachment, rbTarget, rbo)
}

func (d *Desktop) ReadPixels(x, y, width, height int32, format uint32, dst []byte) {
	gl.ReadPixels(x, y, width, height, format, gl.UNSIGNED_BYTE, gl.Ptr(dst))
}
