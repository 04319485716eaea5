package trade

import (
	"encoding/binary"
	"fmt"
	"math"
)

// MeshPrimitive is the primitive type of a mesh.
type MeshPrimitive uint8

const (
	MeshPrimitivePoints MeshPrimitive = iota + 1
	MeshPrimitiveLines
	MeshPrimitiveLineStrip
	MeshPrimitiveTriangles
	MeshPrimitiveTriangleStrip
	MeshPrimitiveTriangleFan
)

// String returns the primitive name.
func (p MeshPrimitive) String() string {
	switch p {
	case MeshPrimitivePoints:
		return "Points"
	case MeshPrimitiveLines:
		return "Lines"
	case MeshPrimitiveLineStrip:
		return "LineStrip"
	case MeshPrimitiveTriangles:
		return "Triangles"
	case MeshPrimitiveTriangleStrip:
		return "TriangleStrip"
	case MeshPrimitiveTriangleFan:
		return "TriangleFan"
	}
	return fmt.Sprintf("MeshPrimitive(%d)", uint8(p))
}

// MeshAttribute identifies a vertex attribute.
type MeshAttribute uint32

const (
	MeshAttributePosition MeshAttribute = iota + 1
	MeshAttributeNormal
	MeshAttributeTangent
	MeshAttributeBitangent
	MeshAttributeTextureCoordinates
	MeshAttributeColor
	MeshAttributeObjectID

	meshAttributeCustomBase MeshAttribute = 0x8000
)

// MeshAttributeCustom returns a custom (file-format specific) attribute
// identifier.
func MeshAttributeCustom(i uint32) MeshAttribute {
	return meshAttributeCustomBase + MeshAttribute(i)
}

// IsMeshAttributeCustom returns whether a is a custom attribute.
func IsMeshAttributeCustom(a MeshAttribute) bool {
	return a >= meshAttributeCustomBase
}

// String returns the attribute name, or "Custom(i)" for custom attributes.
func (a MeshAttribute) String() string {
	switch a {
	case MeshAttributePosition:
		return "Position"
	case MeshAttributeNormal:
		return "Normal"
	case MeshAttributeTangent:
		return "Tangent"
	case MeshAttributeBitangent:
		return "Bitangent"
	case MeshAttributeTextureCoordinates:
		return "TextureCoordinates"
	case MeshAttributeColor:
		return "Color"
	case MeshAttributeObjectID:
		return "ObjectID"
	}
	if IsMeshAttributeCustom(a) {
		return fmt.Sprintf("Custom(%d)", uint32(a-meshAttributeCustomBase))
	}
	return fmt.Sprintf("MeshAttribute(%d)", uint32(a))
}

// VertexFormat is the per-vertex storage format of an attribute.
type VertexFormat uint8

const (
	VertexFormatFloat VertexFormat = iota + 1
	VertexFormatVector2
	VertexFormatVector3
	VertexFormatVector4
	VertexFormatUint32
)

// Size returns the byte size of one vertex in this format.
func (f VertexFormat) Size() int {
	switch f {
	case VertexFormatFloat, VertexFormatUint32:
		return 4
	case VertexFormatVector2:
		return 8
	case VertexFormatVector3:
		return 12
	case VertexFormatVector4:
		return 16
	}
	return 0
}

// Components returns the component count, 1 for scalar formats.
func (f VertexFormat) Components() int {
	switch f {
	case VertexFormatFloat, VertexFormatUint32:
		return 1
	case VertexFormatVector2:
		return 2
	case VertexFormatVector3:
		return 3
	case VertexFormatVector4:
		return 4
	}
	return 0
}

// Float returns whether the format stores floating-point components.
func (f VertexFormat) Float() bool {
	return f != VertexFormatUint32
}

// String returns the format name.
func (f VertexFormat) String() string {
	switch f {
	case VertexFormatFloat:
		return "Float"
	case VertexFormatVector2:
		return "Vector2"
	case VertexFormatVector3:
		return "Vector3"
	case VertexFormatVector4:
		return "Vector4"
	case VertexFormatUint32:
		return "Uint32"
	}
	return fmt.Sprintf("VertexFormat(%d)", uint8(f))
}

// MeshAttributeData is one tightly packed vertex attribute column.
type MeshAttributeData struct {
	Name   MeshAttribute
	Format VertexFormat

	// Data holds vertexCount packed values; vertex i occupies bytes
	// [i*Format.Size(), (i+1)*Format.Size()).
	Data []byte
}

// Vertex returns the raw bytes of the i-th vertex.
func (a *MeshAttributeData) Vertex(i int) []byte {
	sz := a.Format.Size()
	return a.Data[i*sz : (i+1)*sz]
}

// Floats returns the float components of the i-th vertex. Panics for
// non-float formats.
func (a *MeshAttributeData) Floats(i int) []float32 {
	if !a.Format.Float() {
		panic(fmt.Sprintf("trade: Floats(): non-float format %v", a.Format))
	}
	b := a.Vertex(i)
	out := make([]float32, a.Format.Components())
	for c := range out {
		out[c] = math.Float32frombits(binary.LittleEndian.Uint32(b[c*4:]))
	}
	return out
}

// SetFloats stores float components as the i-th vertex.
func (a *MeshAttributeData) SetFloats(i int, v []float32) {
	b := a.Vertex(i)
	for c, f := range v {
		binary.LittleEndian.PutUint32(b[c*4:], math.Float32bits(f))
	}
}

// MeshData is an indexed or non-indexed mesh with an arbitrary set of
// vertex attributes. The payload is borrowed by converters only for the
// duration of an add call.
type MeshData struct {
	Primitive MeshPrimitive

	// Indices is nil for non-indexed meshes.
	Indices []uint32

	VertexCount int
	Attributes  []MeshAttributeData
}

// Indexed returns whether the mesh has an index buffer.
func (m *MeshData) Indexed() bool {
	return m.Indices != nil
}

// AttributeID returns the position of the first attribute with the given
// name, or false if the mesh has no such attribute.
func (m *MeshData) AttributeID(name MeshAttribute) (int, bool) {
	for i := range m.Attributes {
		if m.Attributes[i].Name == name {
			return i, true
		}
	}
	return 0, false
}

// Attribute returns the first attribute column with the given name, or nil.
func (m *MeshData) Attribute(name MeshAttribute) *MeshAttributeData {
	if i, ok := m.AttributeID(name); ok {
		return &m.Attributes[i]
	}
	return nil
}

// Positions returns the positions attribute expanded to 3 components, or
// nil if the mesh has no position attribute.
func (m *MeshData) Positions() [][3]float32 {
	attr := m.Attribute(MeshAttributePosition)
	if attr == nil {
		return nil
	}
	out := make([][3]float32, m.VertexCount)
	for i := range out {
		f := attr.Floats(i)
		copy(out[i][:], f)
	}
	return out
}
