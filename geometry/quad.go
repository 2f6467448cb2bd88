// Package geometry holds the full-screen quad every frame is drawn with.
package geometry

import (
	"github.com/richinsley/gooverlay/gles"
)

const floatSize = 4

// Interleaved layout of one vertex: X, Y, Z, U, V.
const (
	Stride         = 5 * floatSize
	PositionOffset = 0
	UVOffset       = 3 * floatSize
	PositionSize   = 3
	UVSize         = 2
	VertexCount    = 4
)

// Vertex is one corner of the quad.
type Vertex struct {
	Position [3]float32
	UV       [2]float32
}

// Quad spans clip space [-1,1]x[-1,1] and texture space [0,1]x[0,1] in
// triangle-strip order.
var Quad = [VertexCount]Vertex{
	{Position: [3]float32{-1, -1, 0}, UV: [2]float32{0, 0}},
	{Position: [3]float32{1, -1, 0}, UV: [2]float32{1, 0}},
	{Position: [3]float32{-1, 1, 0}, UV: [2]float32{0, 1}},
	{Position: [3]float32{1, 1, 0}, UV: [2]float32{1, 1}},
}

// Interleave flattens the quad into the buffer layout.
func Interleave() []float32 {
	data := make([]float32, 0, VertexCount*5)
	for _, v := range Quad {
		data = append(data, v.Position[0], v.Position[1], v.Position[2], v.UV[0], v.UV[1])
	}
	return data
}

// ClipBounds returns the clip-space rectangle covered by the quad.
func ClipBounds() (lo, hi [2]float32) {
	lo = [2]float32{Quad[0].Position[0], Quad[0].Position[1]}
	hi = lo
	for _, v := range Quad[1:] {
		for i := 0; i < 2; i++ {
			if v.Position[i] < lo[i] {
				lo[i] = v.Position[i]
			}
			if v.Position[i] > hi[i] {
				hi[i] = v.Position[i]
			}
		}
	}
	return lo, hi
}

// Buffer is the quad uploaded to a static vertex buffer. It is read-only
// after Upload and shared by every draw.
type Buffer struct {
	vbo uint32
}

// Upload creates the vertex buffer and fills it with the quad.
func Upload(api gles.API) (*Buffer, error) {
	b := &Buffer{vbo: api.GenBuffer()}
	api.BindBuffer(gles.ARRAY_BUFFER, b.vbo)
	api.BufferData(gles.ARRAY_BUFFER, Interleave(), gles.STATIC_DRAW)
	if err := gles.Check(api, "glBufferData quad"); err != nil {
		api.DeleteBuffer(b.vbo)
		return nil, err
	}
	return b, nil
}

// Bind points the position and UV attribute streams at the buffer.
func (b *Buffer) Bind(api gles.API, position, uv uint32) error {
	api.BindBuffer(gles.ARRAY_BUFFER, b.vbo)

	api.VertexAttribPointer(position, PositionSize, gles.FLOAT, false, Stride, PositionOffset)
	if err := gles.Check(api, "glVertexAttribPointer position"); err != nil {
		return err
	}
	api.EnableVertexAttribArray(position)
	if err := gles.Check(api, "glEnableVertexAttribArray position"); err != nil {
		return err
	}

	api.VertexAttribPointer(uv, UVSize, gles.FLOAT, false, Stride, UVOffset)
	if err := gles.Check(api, "glVertexAttribPointer uv"); err != nil {
		return err
	}
	api.EnableVertexAttribArray(uv)
	return gles.Check(api, "glEnableVertexAttribArray uv")
}

// Draw submits the quad as one triangle strip.
func (b *Buffer) Draw(api gles.API) error {
	api.DrawArrays(gles.TRIANGLE_STRIP, 0, VertexCount)
	return gles.Check(api, "glDrawArrays")
}

// Destroy deletes the vertex buffer.
func (b *Buffer) Destroy(api gles.API) {
	if b.vbo != 0 {
		api.DeleteBuffer(b.vbo)
		b.vbo = 0
	}
}
