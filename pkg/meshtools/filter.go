package meshtools

import (
	"fmt"

	"github.com/assettools/sceneforge/pkg/trade"
)

// FilterOnlyAttributes returns a mesh with only the attribute columns at
// the given positions, in their original order. The attribute storage is
// shared with the input. Duplicate positions are collapsed.
func FilterOnlyAttributes(mesh *trade.MeshData, ids []int) (*trade.MeshData, error) {
	keep := make(map[int]bool, len(ids))
	for _, id := range ids {
		if id < 0 || id >= len(mesh.Attributes) {
			return nil, fmt.Errorf("attribute index %d out of range for %d attributes", id, len(mesh.Attributes))
		}
		keep[id] = true
	}

	attributes := make([]trade.MeshAttributeData, 0, len(keep))
	for i := range mesh.Attributes {
		if keep[i] {
			attributes = append(attributes, mesh.Attributes[i])
		}
	}

	return &trade.MeshData{
		Primitive:   mesh.Primitive,
		Indices:     mesh.Indices,
		VertexCount: mesh.VertexCount,
		Attributes:  attributes,
	}, nil
}
