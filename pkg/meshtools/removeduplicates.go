// Package meshtools provides whole-mesh transformations: duplicate vertex
// removal, concatenation, spatial transforms and attribute filtering.
package meshtools

import (
	"encoding/binary"

	"github.com/chewxy/math32"

	"github.com/assettools/sceneforge/pkg/trade"
)

// RemoveDuplicates returns a mesh with exactly equal vertices collapsed
// into one. The first occurrence of each vertex survives and keeps its
// position in the vertex stream relative to other survivors; the index
// buffer is remapped accordingly. A non-indexed input becomes indexed.
func RemoveDuplicates(mesh *trade.MeshData) *trade.MeshData {
	return removeDuplicates(mesh, 0)
}

// RemoveDuplicatesFuzzy is RemoveDuplicates comparing float attribute
// components quantized to an epsilon grid, so vertices closer than
// epsilon collapse. Non-float attributes still compare exactly. The
// surviving vertex keeps its original, unquantized data. A zero epsilon
// degenerates to the exact variant.
func RemoveDuplicatesFuzzy(mesh *trade.MeshData, epsilon float32) *trade.MeshData {
	return removeDuplicates(mesh, epsilon)
}

func removeDuplicates(mesh *trade.MeshData, epsilon float32) *trade.MeshData {
	seen := make(map[string]uint32, mesh.VertexCount)
	remap := make([]uint32, mesh.VertexCount)
	survivors := make([]int, 0, mesh.VertexCount)

	key := make([]byte, 0, 64)
	for i := 0; i < mesh.VertexCount; i++ {
		key = vertexKey(key[:0], mesh, i, epsilon)
		if unique, ok := seen[string(key)]; ok {
			remap[i] = unique
			continue
		}
		unique := uint32(len(survivors))
		seen[string(key)] = unique
		remap[i] = unique
		survivors = append(survivors, i)
	}

	attributes := make([]trade.MeshAttributeData, len(mesh.Attributes))
	for ai := range mesh.Attributes {
		src := &mesh.Attributes[ai]
		sz := src.Format.Size()
		dst := trade.MeshAttributeData{
			Name:   src.Name,
			Format: src.Format,
			Data:   make([]byte, len(survivors)*sz),
		}
		for ui, vi := range survivors {
			copy(dst.Data[ui*sz:], src.Vertex(vi))
		}
		attributes[ai] = dst
	}

	var indices []uint32
	if mesh.Indexed() {
		indices = make([]uint32, len(mesh.Indices))
		for i, old := range mesh.Indices {
			indices[i] = remap[old]
		}
	} else {
		indices = remap
	}

	return &trade.MeshData{
		Primitive:   mesh.Primitive,
		Indices:     indices,
		VertexCount: len(survivors),
		Attributes:  attributes,
	}
}

// vertexKey appends the comparison key of vertex i to dst. With a
// non-zero epsilon, float components enter the key as their grid cell
// index instead of their exact bits.
func vertexKey(dst []byte, mesh *trade.MeshData, i int, epsilon float32) []byte {
	for ai := range mesh.Attributes {
		a := &mesh.Attributes[ai]
		if epsilon == 0 || !a.Format.Float() {
			dst = append(dst, a.Vertex(i)...)
			continue
		}
		for _, v := range a.Floats(i) {
			cell := int32(math32.Round(v / epsilon))
			dst = binary.LittleEndian.AppendUint32(dst, uint32(cell))
		}
	}
	return dst
}
