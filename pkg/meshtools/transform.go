package meshtools

import (
	"github.com/assettools/sceneforge/pkg/mathx"
	"github.com/assettools/sceneforge/pkg/trade"
)

// Transform3D returns a copy of the mesh with positions transformed by
// the given matrix and normals, tangents and bitangents by its normal
// matrix. Other attributes are copied unchanged.
func Transform3D(mesh *trade.MeshData, m mathx.Mat4) *trade.MeshData {
	attributes := make([]trade.MeshAttributeData, len(mesh.Attributes))
	for ai := range mesh.Attributes {
		src := &mesh.Attributes[ai]
		attributes[ai] = trade.MeshAttributeData{
			Name:   src.Name,
			Format: src.Format,
			Data:   append([]byte(nil), src.Data...),
		}
	}
	out := &trade.MeshData{
		Primitive:   mesh.Primitive,
		Indices:     mesh.Indices,
		VertexCount: mesh.VertexCount,
		Attributes:  attributes,
	}
	Transform3DInPlace(out, m)
	return out
}

// Transform3DInPlace is Transform3D mutating the mesh's attribute
// storage directly.
func Transform3DInPlace(mesh *trade.MeshData, m mathx.Mat4) {
	normal := mathx.FromMat3x3(m.NormalMatrix())
	for ai := range mesh.Attributes {
		a := &mesh.Attributes[ai]
		switch a.Name {
		case trade.MeshAttributePosition:
			transformVectors(a, mesh.VertexCount, m.TransformPoint)
		case trade.MeshAttributeNormal, trade.MeshAttributeTangent, trade.MeshAttributeBitangent:
			normalize := func(d [3]float32) [3]float32 {
				return mathx.FromArray(normal.TransformDirection(d)).Normalize().Array()
			}
			transformVectors(a, mesh.VertexCount, normalize)
		}
	}
}

func transformVectors(a *trade.MeshAttributeData, vertexCount int, f func([3]float32) [3]float32) {
	components := a.Format.Components()
	for i := 0; i < vertexCount; i++ {
		var v [3]float32
		copy(v[:], a.Floats(i))
		v = f(v)
		a.SetFloats(i, v[:components])
	}
}
