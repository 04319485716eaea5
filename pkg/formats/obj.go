// Package formats provides the concrete codec plugins shipped with the
// converter: a Wavefront OBJ importer, a Stanford PLY converter and TGA
// and BMP image importers. Each registers itself with the trade plugin
// registry on import.
package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/assettools/sceneforge/pkg/trade"
)

var (
	// ErrObjTruncatedFace is returned for faces with fewer than three
	// vertices.
	ErrObjTruncatedFace = errors.New("face with fewer than 3 vertices")

	// ErrObjIndexOutOfRange is returned for face indices pointing past the
	// declared vertex data.
	ErrObjIndexOutOfRange = errors.New("face index out of range")
)

func init() {
	trade.RegisterImporter("ObjImporter", []string{".obj"}, func() trade.Importer {
		return &ObjImporter{}
	})
}

// ObjImporter reads Wavefront OBJ files. Each o/g group becomes one
// triangle mesh; faces with more than three vertices are fan
// triangulated. Positions, normals and texture coordinates are
// supported, material libraries are ignored.
type ObjImporter struct {
	trade.UnimplementedImporter

	meshes []objMesh
	opened bool
}

type objMesh struct {
	name string
	mesh *trade.MeshData
}

// Open parses the given OBJ file.
func (o *ObjImporter) Open(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	return o.OpenData(data)
}

// OpenData parses OBJ text from a buffer.
func (o *ObjImporter) OpenData(data []byte) error {
	o.Close()

	var (
		positions [][3]float32
		normals   [][3]float32
		texcoords [][2]float32
	)
	current := objBuilder{name: ""}
	flush := func() {
		if mesh := current.build(); mesh != nil {
			o.meshes = append(o.meshes, objMesh{name: current.name, mesh: mesh})
		}
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(strings.TrimSpace(scanner.Text()))
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			v, err := parseFloats3(fields[1:])
			if err != nil {
				return fmt.Errorf("line %d: invalid vertex: %w", line, err)
			}
			positions = append(positions, v)
		case "vn":
			v, err := parseFloats3(fields[1:])
			if err != nil {
				return fmt.Errorf("line %d: invalid normal: %w", line, err)
			}
			normals = append(normals, v)
		case "vt":
			v, err := parseFloats3(fields[1:])
			if err != nil {
				return fmt.Errorf("line %d: invalid texture coordinate: %w", line, err)
			}
			texcoords = append(texcoords, [2]float32{v[0], v[1]})
		case "f":
			if len(fields) < 4 {
				return fmt.Errorf("line %d: %w", line, ErrObjTruncatedFace)
			}
			if err := current.addFace(fields[1:], positions, normals, texcoords); err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
		case "o", "g":
			flush()
			name := ""
			if len(fields) > 1 {
				name = fields[1]
			}
			current = objBuilder{name: name}
		}
		// mtllib, usemtl, s and anything unknown are skipped.
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	flush()

	o.opened = true
	return nil
}

// IsOpened reports whether a file is opened.
func (o *ObjImporter) IsOpened() bool { return o.opened }

// Close discards the opened file.
func (o *ObjImporter) Close() {
	o.meshes = nil
	o.opened = false
}

// MeshCount returns the number of o/g groups with faces.
func (o *ObjImporter) MeshCount() int { return len(o.meshes) }

// MeshLevelCount is always 1, OBJ has no levels of detail.
func (o *ObjImporter) MeshLevelCount(int) int { return 1 }

// Mesh returns the i-th mesh.
func (o *ObjImporter) Mesh(i, level int) (*trade.MeshData, error) {
	if !o.opened {
		return nil, trade.ErrNotOpened
	}
	return o.meshes[i].mesh, nil
}

// MeshName returns the o/g group name, empty for the implicit group.
func (o *ObjImporter) MeshName(i int) string { return o.meshes[i].name }

// objBuilder accumulates the vertex stream of one group, collapsing
// repeated v/vt/vn index triplets into shared vertices.
type objBuilder struct {
	name string

	positions [][3]float32
	normals   [][3]float32
	texcoords [][2]float32
	indices   []uint32
	vertices  map[string]uint32

	hasNormals   bool
	hasTexcoords bool
}

func (b *objBuilder) addFace(verts []string, positions, normals [][3]float32, texcoords [][2]float32) error {
	face := make([]uint32, len(verts))
	for i, v := range verts {
		idx, err := b.addVertex(v, positions, normals, texcoords)
		if err != nil {
			return err
		}
		face[i] = idx
	}
	for i := 2; i < len(face); i++ {
		b.indices = append(b.indices, face[0], face[i-1], face[i])
	}
	return nil
}

func (b *objBuilder) addVertex(spec string, positions, normals [][3]float32, texcoords [][2]float32) (uint32, error) {
	if b.vertices == nil {
		b.vertices = make(map[string]uint32)
	}
	if idx, ok := b.vertices[spec]; ok {
		return idx, nil
	}

	parts := strings.Split(spec, "/")
	pi, err := resolveIndex(parts[0], len(positions))
	if err != nil {
		return 0, err
	}

	ti := -1
	if len(parts) > 1 && parts[1] != "" {
		if ti, err = resolveIndex(parts[1], len(texcoords)); err != nil {
			return 0, err
		}
	}
	ni := -1
	if len(parts) > 2 && parts[2] != "" {
		if ni, err = resolveIndex(parts[2], len(normals)); err != nil {
			return 0, err
		}
	}

	idx := uint32(len(b.positions))
	b.positions = append(b.positions, positions[pi])
	if ti >= 0 {
		b.texcoords = append(b.texcoords, texcoords[ti])
		b.hasTexcoords = true
	} else {
		b.texcoords = append(b.texcoords, [2]float32{})
	}
	if ni >= 0 {
		b.normals = append(b.normals, normals[ni])
		b.hasNormals = true
	} else {
		b.normals = append(b.normals, [3]float32{})
	}
	b.vertices[spec] = idx
	return idx, nil
}

// resolveIndex turns a 1-based, possibly negative OBJ index into a
// 0-based one.
func resolveIndex(s string, count int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", s)
	}
	if v < 0 {
		v = count + v
	} else {
		v--
	}
	if v < 0 || v >= count {
		return 0, fmt.Errorf("%w: %s of %d", ErrObjIndexOutOfRange, s, count)
	}
	return v, nil
}

func (b *objBuilder) build() *trade.MeshData {
	if len(b.indices) == 0 {
		return nil
	}

	attributes := []trade.MeshAttributeData{
		packVec3(trade.MeshAttributePosition, b.positions),
	}
	if b.hasNormals {
		attributes = append(attributes, packVec3(trade.MeshAttributeNormal, b.normals))
	}
	if b.hasTexcoords {
		attributes = append(attributes, packVec2(trade.MeshAttributeTextureCoordinates, b.texcoords))
	}

	return &trade.MeshData{
		Primitive:   trade.MeshPrimitiveTriangles,
		Indices:     b.indices,
		VertexCount: len(b.positions),
		Attributes:  attributes,
	}
}

func packVec3(name trade.MeshAttribute, values [][3]float32) trade.MeshAttributeData {
	a := trade.MeshAttributeData{
		Name:   name,
		Format: trade.VertexFormatVector3,
		Data:   make([]byte, len(values)*12),
	}
	for i, v := range values {
		a.SetFloats(i, v[:])
	}
	return a
}

func packVec2(name trade.MeshAttribute, values [][2]float32) trade.MeshAttributeData {
	a := trade.MeshAttributeData{
		Name:   name,
		Format: trade.VertexFormatVector2,
		Data:   make([]byte, len(values)*8),
	}
	for i, v := range values {
		a.SetFloats(i, v[:])
	}
	return a
}

func parseFloats3(fields []string) ([3]float32, error) {
	var out [3]float32
	if len(fields) < 2 {
		return out, fmt.Errorf("expected at least 2 components, got %d", len(fields))
	}
	for i := 0; i < len(fields) && i < 3; i++ {
		v, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return out, err
		}
		out[i] = float32(v)
	}
	return out, nil
}

// float32LE appends the little-endian bits of v, shared by the PLY
// writer.
func float32LE(dst []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
}
