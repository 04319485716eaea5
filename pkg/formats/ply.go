package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/assettools/sceneforge/pkg/trade"
)

var (
	// ErrPlyNoMesh is returned when a conversion ends without a mesh.
	ErrPlyNoMesh = errors.New("no mesh added")

	// ErrPlySecondMesh is returned for a second AddMesh in one session, a
	// PLY file holds exactly one mesh.
	ErrPlySecondMesh = errors.New("only one mesh can be written to a PLY file")
)

func init() {
	trade.RegisterConverter("StanfordSceneConverter", []string{".ply"}, func() trade.Backend {
		return &StanfordConverter{}
	})
}

// StanfordConverter writes binary little-endian PLY files. It accepts
// exactly one triangle mesh per conversion; positions, normals and
// texture coordinates are written as vertex properties, anything else is
// dropped.
type StanfordConverter struct {
	mesh *trade.MeshData
}

// Features declares in-memory output with single-mesh batch sessions.
func (*StanfordConverter) Features() trade.ConverterFeatures {
	return trade.FeatureConvertMultipleToData | trade.FeatureAddMeshes
}

// BeginData starts a conversion.
func (c *StanfordConverter) BeginData() error {
	c.mesh = nil
	return nil
}

// AddMesh stages the mesh to be written.
func (c *StanfordConverter) AddMesh(mesh *trade.MeshData, name string) error {
	if c.mesh != nil {
		return ErrPlySecondMesh
	}
	if mesh.Primitive != trade.MeshPrimitiveTriangles {
		return fmt.Errorf("unsupported primitive %v, expected Triangles", mesh.Primitive)
	}
	if mesh.Attribute(trade.MeshAttributePosition) == nil {
		return errors.New("mesh has no position attribute")
	}
	c.mesh = mesh
	return nil
}

// SetMeshAttributeName is accepted and ignored, PLY has no custom
// attribute names.
func (*StanfordConverter) SetMeshAttributeName(trade.MeshAttribute, string) {}

// Abort throws the staged mesh away.
func (c *StanfordConverter) Abort() {
	c.mesh = nil
}

// EndData serializes the staged mesh.
func (c *StanfordConverter) EndData() ([]byte, error) {
	mesh := c.mesh
	c.mesh = nil
	if mesh == nil {
		return nil, ErrPlyNoMesh
	}

	positions := mesh.Attribute(trade.MeshAttributePosition)
	normals := mesh.Attribute(trade.MeshAttributeNormal)
	texcoords := mesh.Attribute(trade.MeshAttributeTextureCoordinates)

	indices := mesh.Indices
	if indices == nil {
		indices = make([]uint32, mesh.VertexCount)
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	faceCount := len(indices) / 3

	var header bytes.Buffer
	header.WriteString("ply\n")
	header.WriteString("format binary_little_endian 1.0\n")
	fmt.Fprintf(&header, "element vertex %d\n", mesh.VertexCount)
	header.WriteString("property float x\nproperty float y\nproperty float z\n")
	if normals != nil {
		header.WriteString("property float nx\nproperty float ny\nproperty float nz\n")
	}
	if texcoords != nil {
		header.WriteString("property float s\nproperty float t\n")
	}
	fmt.Fprintf(&header, "element face %d\n", faceCount)
	header.WriteString("property list uchar uint vertex_indices\n")
	header.WriteString("end_header\n")

	out := header.Bytes()
	for i := 0; i < mesh.VertexCount; i++ {
		out = appendComponents(out, positions, i, 3)
		if normals != nil {
			out = appendComponents(out, normals, i, 3)
		}
		if texcoords != nil {
			out = appendComponents(out, texcoords, i, 2)
		}
	}
	for f := 0; f < faceCount; f++ {
		out = append(out, 3)
		for _, idx := range indices[f*3 : f*3+3] {
			out = binary.LittleEndian.AppendUint32(out, idx)
		}
	}
	return out, nil
}

// appendComponents writes count float components of vertex i, zero
// padding attributes with fewer.
func appendComponents(dst []byte, a *trade.MeshAttributeData, i, count int) []byte {
	f := a.Floats(i)
	for c := 0; c < count; c++ {
		if c < len(f) {
			dst = float32LE(dst, f[c])
		} else {
			dst = float32LE(dst, 0)
		}
	}
	return dst
}
