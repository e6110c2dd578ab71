package renderer

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

type Vertex struct {
	Position mgl32.Vec3
	TexCoord mgl32.Vec2
}

// VertexLayout is the vertex input state a pipeline is built with.
type VertexLayout struct {
	Bindings   []core1_0.VertexInputBindingDescription
	Attributes []core1_0.VertexInputAttributeDescription
}

func vertexLayout() VertexLayout {
	v := Vertex{}
	return VertexLayout{
		Bindings: []core1_0.VertexInputBindingDescription{
			{
				Binding:   0,
				Stride:    int(unsafe.Sizeof(v)),
				InputRate: core1_0.VertexInputRateVertex,
			},
		},
		Attributes: []core1_0.VertexInputAttributeDescription{
			{
				Binding:  0,
				Location: 0,
				Format:   core1_0.FormatR32G32B32SignedFloat,
				Offset:   int(unsafe.Offsetof(v.Position)),
			},
			{
				Binding:  0,
				Location: 1,
				Format:   core1_0.FormatR32G32SignedFloat,
				Offset:   int(unsafe.Offsetof(v.TexCoord)),
			},
		},
	}
}

// quadVertices is a unit quad on the z = -1 plane, texture coordinates matching positions.
var quadVertices = []Vertex{
	{Position: mgl32.Vec3{0, 0, -1}, TexCoord: mgl32.Vec2{0, 0}},
	{Position: mgl32.Vec3{0, 1, -1}, TexCoord: mgl32.Vec2{0, 1}},
	{Position: mgl32.Vec3{1, 0, -1}, TexCoord: mgl32.Vec2{1, 0}},
	{Position: mgl32.Vec3{1, 1, -1}, TexCoord: mgl32.Vec2{1, 1}},
}

// quadIndices wind counter-clockwise in framebuffer space once the camera's projection has
// flipped Y.
var quadIndices = []uint32{0, 2, 1, 1, 2, 3}

func encodeSlice(data any) []byte {
	buf := &bytes.Buffer{}
	// writing fixed-size values into a bytes.Buffer cannot fail
	_ = binary.Write(buf, common.ByteOrder, data)
	return buf.Bytes()
}
