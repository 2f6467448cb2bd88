// Package gles is the narrow slice of OpenGL (ES) 2.0 the compositor needs.
//
// Every GPU call made by the core goes through API so the same code drives a
// desktop core-profile context, an Android GLES 2 context, or the software
// fake used by tests. Handles are uint32 and locations int32, as in go-gl.
package gles

// Khronos enum values. They are identical for desktop GL and GLES.
const (
	NO_ERROR = 0

	FALSE = 0
	TRUE  = 1

	VERTEX_SHADER   = 0x8B31
	FRAGMENT_SHADER = 0x8B30
	COMPILE_STATUS  = 0x8B81
	LINK_STATUS     = 0x8B82
	INFO_LOG_LENGTH = 0x8B84

	TEXTURE_2D           = 0x0DE1
	TEXTURE_EXTERNAL_OES = 0x8D65
	TEXTURE0             = 0x84C0
	TEXTURE_MIN_FILTER   = 0x2801
	TEXTURE_MAG_FILTER   = 0x2800
	TEXTURE_WRAP_S       = 0x2802
	TEXTURE_WRAP_T       = 0x2803
	CLAMP_TO_EDGE        = 0x812F
	NEAREST              = 0x2600
	LINEAR               = 0x2601

	RGBA          = 0x1908
	RGBA8         = 0x8058
	UNSIGNED_BYTE = 0x1401
	FLOAT         = 0x1406

	BLEND               = 0x0BE2
	SRC_ALPHA           = 0x0302
	ONE_MINUS_SRC_ALPHA = 0x0303

	ARRAY_BUFFER   = 0x8892
	STATIC_DRAW    = 0x88E4
	TRIANGLE_STRIP = 0x0005

	COLOR_BUFFER_BIT = 0x4000
	DEPTH_BUFFER_BIT = 0x0100

	FRAMEBUFFER          = 0x8D40
	RENDERBUFFER         = 0x8D41
	COLOR_ATTACHMENT0    = 0x8CE0
	DEPTH_ATTACHMENT     = 0x8D00
	DEPTH_COMPONENT24    = 0x81A6
	FRAMEBUFFER_COMPLETE = 0x8CD5

	INVALID_ENUM      = 0x0500
	INVALID_VALUE     = 0x0501
	INVALID_OPERATION = 0x0502
	OUT_OF_MEMORY     = 0x0505
)

// API is implemented by every GL backend.
type API interface {
	GetError() uint32

	CreateShader(kind uint32) uint32
	ShaderSource(shader uint32, source string)
	CompileShader(shader uint32)
	GetShaderiv(shader uint32, pname uint32) int32
	GetShaderInfoLog(shader uint32) string
	DeleteShader(shader uint32)

	CreateProgram() uint32
	AttachShader(program, shader uint32)
	LinkProgram(program uint32)
	GetProgramiv(program uint32, pname uint32) int32
	GetProgramInfoLog(program uint32) string
	UseProgram(program uint32)
	DeleteProgram(program uint32)
	GetAttribLocation(program uint32, name string) int32
	GetUniformLocation(program uint32, name string) int32

	Uniform1i(location int32, v int32)
	Uniform1f(location int32, v float32)
	UniformMatrix4fv(location int32, m *[16]float32)

	GenTexture() uint32
	DeleteTexture(texture uint32)
	ActiveTexture(unit uint32)
	BindTexture(target, texture uint32)
	TexParameteri(target, pname uint32, param int32)
	TexImage2D(target uint32, width, height int32, format uint32, pixels []byte)

	GenBuffer() uint32
	DeleteBuffer(buffer uint32)
	BindBuffer(target, buffer uint32)
	BufferData(target uint32, data []float32, usage uint32)
	VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset uintptr)
	EnableVertexAttribArray(index uint32)

	Enable(capability uint32)
	BlendFunc(sfactor, dfactor uint32)
	Viewport(x, y, width, height int32)
	ClearColor(r, g, b, a float32)
	Clear(mask uint32)
	DrawArrays(mode uint32, first, count int32)
	Finish()

	GenFramebuffer() uint32
	DeleteFramebuffer(fbo uint32)
	BindFramebuffer(target, fbo uint32)
	FramebufferTexture2D(target, attachment, textarget, texture uint32)
	CheckFramebufferStatus(target uint32) uint32
	GenRenderbuffer() uint32
	DeleteRenderbuffer(rbo uint32)
	BindRenderbuffer(target, rbo uint32)
	RenderbufferStorage(target, internalFormat uint32, width, height int32)
	FramebufferRenderbuffer(target, attachment, rbTarget, rbo uint32)
	ReadPixels(x, y, width, height int32, format uint32, dst []byte)
}
