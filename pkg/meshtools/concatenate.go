package meshtools

import (
	"errors"
	"fmt"

	"github.com/assettools/sceneforge/pkg/trade"
)

// ErrNothingToConcatenate is returned when Concatenate gets no meshes.
var ErrNothingToConcatenate = errors.New("no meshes to concatenate")

// Concatenate joins all meshes into one indexed mesh. The attribute
// layout is taken from the first mesh; attributes missing in a later
// mesh stay zero-filled for its vertex range. All meshes have to share a
// plain list primitive since strips and fans can not be joined by index
// offsetting.
func Concatenate(meshes []*trade.MeshData) (*trade.MeshData, error) {
	if len(meshes) == 0 {
		return nil, ErrNothingToConcatenate
	}

	primitive := meshes[0].Primitive
	vertexCount := 0
	indexCount := 0
	for i, mesh := range meshes {
		switch mesh.Primitive {
		case trade.MeshPrimitiveLineStrip, trade.MeshPrimitiveTriangleStrip, trade.MeshPrimitiveTriangleFan:
			return nil, fmt.Errorf("can not concatenate mesh primitive %v", mesh.Primitive)
		}
		if mesh.Primitive != primitive {
			return nil, fmt.Errorf("mesh %d has primitive %v, expected %v", i, mesh.Primitive, primitive)
		}
		vertexCount += mesh.VertexCount
		if mesh.Indexed() {
			indexCount += len(mesh.Indices)
		} else {
			indexCount += mesh.VertexCount
		}
	}

	layout := meshes[0].Attributes
	attributes := make([]trade.MeshAttributeData, len(layout))
	for ai := range layout {
		attributes[ai] = trade.MeshAttributeData{
			Name:   layout[ai].Name,
			Format: layout[ai].Format,
			Data:   make([]byte, vertexCount*layout[ai].Format.Size()),
		}
	}

	indices := make([]uint32, 0, indexCount)
	base := 0
	for _, mesh := range meshes {
		for ai := range attributes {
			dst := &attributes[ai]
			src := mesh.Attribute(dst.Name)
			if src == nil || src.Format != dst.Format {
				continue
			}
			sz := dst.Format.Size()
			copy(dst.Data[base*sz:], src.Data[:mesh.VertexCount*sz])
		}
		if mesh.Indexed() {
			for _, idx := range mesh.Indices {
				indices = append(indices, uint32(base)+idx)
			}
		} else {
			for i := 0; i < mesh.VertexCount; i++ {
				indices = append(indices, uint32(base+i))
			}
		}
		base += mesh.VertexCount
	}

	return &trade.MeshData{
		Primitive:   primitive,
		Indices:     indices,
		VertexCount: vertexCount,
		Attributes:  attributes,
	}, nil
}
