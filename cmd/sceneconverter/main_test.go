package main

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/assettools/sceneforge/internal/config"
	"github.com/assettools/sceneforge/pkg/trade"
)

const quadObj = `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3 4
`

func TestParseIndexList(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []int
		wantErr bool
	}{
		{name: "single", input: "3", want: []int{3}},
		{name: "list", input: "0,2,5", want: []int{0, 2, 5}},
		{name: "range", input: "1-4", want: []int{1, 2, 3, 4}},
		{name: "mixed", input: "0,2,4-6", want: []int{0, 2, 4, 5, 6}},
		{name: "empty", input: "", wantErr: true},
		{name: "negative", input: "-3", wantErr: true},
		{name: "reversed range", input: "4-1", wantErr: true},
		{name: "garbage", input: "a,b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIndexList(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMergeOptions(t *testing.T) {
	defaults := map[string]string{"binary": "true", "level": "1"}
	got, err := mergeOptions(defaults, "level=2,extra=x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]string{"binary": "true", "level": "2", "extra": "x"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	if _, err := mergeOptions(nil, "novalue"); err == nil {
		t.Error("expected error for option without a value")
	}
}

func TestPreferences(t *testing.T) {
	cfg := config.Default()
	cfg.Plugins.Prefer["ply"] = "StanfordSceneConverter"

	got, err := preferences(cfg, []string{".TGA=TgaImporter", "obj=ObjImporter"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]string{
		".ply": "StanfordSceneConverter",
		".tga": "TgaImporter",
		".obj": "ObjImporter",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	if _, err := preferences(cfg, []string{"noequals"}); err == nil {
		t.Error("expected error for malformed --prefer")
	}
}

func TestRunConvertObjToPly(t *testing.T) {
	tmpDir := t.TempDir()
	input := filepath.Join(tmpDir, "quad.obj")
	output := filepath.Join(tmpDir, "quad.ply")
	if err := os.WriteFile(input, []byte(quadObj), 0644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}

	if code := run([]string{"--quiet", input, output}); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if !strings.HasPrefix(string(data), "ply\n") {
		t.Errorf("output is not a PLY file, starts with %q", data[:min(len(data), 16)])
	}
}

func TestRunDuplicateRemoval(t *testing.T) {
	tmpDir := t.TempDir()
	input := filepath.Join(tmpDir, "quad.obj")
	output := filepath.Join(tmpDir, "quad.ply")
	if err := os.WriteFile(input, []byte(quadObj), 0644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}

	code := run([]string{"--quiet", "--remove-duplicate-vertices", input, output})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("output not written: %v", err)
	}
}

func TestRunInfo(t *testing.T) {
	tmpDir := t.TempDir()
	input := filepath.Join(tmpDir, "quad.obj")
	if err := os.WriteFile(input, []byte(quadObj), 0644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}

	// Info mode needs no output file.
	if code := run([]string{"--quiet", "--info", input}); code != 0 {
		t.Errorf("expected exit code 0, got %d", code)
	}
}

// stageBackend records a data-session conversion for the scene-path
// tests.
type stageBackend struct {
	features trade.ConverterFeatures

	calls     []string
	meshes    []*trade.MeshData
	attrNames map[trade.MeshAttribute]string
}

func (b *stageBackend) Features() trade.ConverterFeatures { return b.features }
func (b *stageBackend) BeginData() error                  { return nil }
func (b *stageBackend) EndData() ([]byte, error)          { return []byte("out"), nil }

func (b *stageBackend) AddMesh(mesh *trade.MeshData, name string) error {
	b.calls = append(b.calls, "mesh")
	b.meshes = append(b.meshes, mesh)
	return nil
}

func (b *stageBackend) SetMeshAttributeName(a trade.MeshAttribute, name string) {
	if b.attrNames == nil {
		b.attrNames = map[trade.MeshAttribute]string{}
	}
	b.attrNames[a] = name
}

func (b *stageBackend) AddMaterial(*trade.MaterialData, string) error {
	b.calls = append(b.calls, "material")
	return nil
}

func (b *stageBackend) AddScene(*trade.SceneData, string) error {
	b.calls = append(b.calls, "scene")
	return nil
}

func (b *stageBackend) SetDefaultScene(int)                        {}
func (b *stageBackend) SetSceneFieldName(trade.SceneField, string) {}
func (b *stageBackend) SetObjectName(uint64, string)               {}

// stubImporter is a pre-opened importer with canned contents.
type stubImporter struct {
	trade.UnimplementedImporter
	meshes    []*trade.MeshData
	materials []*trade.MaterialData
	scenes    []*trade.SceneData
	attrNames map[trade.MeshAttribute]string
}

func (s *stubImporter) Open(string) error     { return nil }
func (s *stubImporter) OpenData([]byte) error { return nil }
func (s *stubImporter) Close()                {}
func (s *stubImporter) IsOpened() bool        { return true }

func (s *stubImporter) MeshCount() int { return len(s.meshes) }
func (s *stubImporter) Mesh(i, level int) (*trade.MeshData, error) {
	return s.meshes[i], nil
}

func (s *stubImporter) MaterialCount() int { return len(s.materials) }
func (s *stubImporter) Material(i int) (*trade.MaterialData, error) {
	return s.materials[i], nil
}

func (s *stubImporter) SceneCount() int { return len(s.scenes) }
func (s *stubImporter) Scene(i int) (*trade.SceneData, error) {
	return s.scenes[i], nil
}

func (s *stubImporter) MeshAttributeName(a trade.MeshAttribute) string {
	return s.attrNames[a]
}

// triangleMesh returns a triangle with its first vertex duplicated, so
// duplicate removal shrinks it from 4 to 3 vertices.
func triangleMesh() *trade.MeshData {
	positions := trade.MeshAttributeData{
		Name:   trade.MeshAttributePosition,
		Format: trade.VertexFormatVector3,
		Data:   make([]byte, 4*12),
	}
	for i, p := range [][]float32{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 0},
	} {
		positions.SetFloats(i, p)
	}
	return &trade.MeshData{
		Primitive:   trade.MeshPrimitiveTriangles,
		Indices:     []uint32{0, 1, 2},
		VertexCount: 4,
		Attributes:  []trade.MeshAttributeData{positions},
	}
}

func TestConvertSceneLooseCategoryOrdering(t *testing.T) {
	// An active mesh stage replaces the mesh category with loose data,
	// and the scenes referencing it have to go in afterwards.
	meshField := trade.SceneFieldData{
		Field:   trade.SceneFieldMesh,
		Type:    trade.SceneFieldTypeUint32,
		Mapping: []uint32{0},
		Data:    make([]byte, 4),
	}
	imp := &stubImporter{
		meshes:    []*trade.MeshData{triangleMesh()},
		materials: []*trade.MaterialData{{Types: trade.MaterialTypePhong}},
		scenes:    []*trade.SceneData{{MappingBound: 1, Fields: []trade.SceneFieldData{meshField}}},
	}
	backend := &stageBackend{
		features: trade.FeatureConvertMultipleToData |
			trade.FeatureAddMeshes | trade.FeatureAddMaterials | trade.FeatureAddScenes,
	}
	chain := []*trade.Converter{trade.NewConverter(backend)}

	output := filepath.Join(t.TempDir(), "out.bin")
	stages := meshStages{dedup: true, quiet: true}
	if code := convertScene(imp, chain, []string{"test"}, output, stages, options{quiet: true}); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}

	want := []string{"material", "mesh", "scene"}
	if !reflect.DeepEqual(backend.calls, want) {
		t.Errorf("expected add order %v, got %v", want, backend.calls)
	}
	if len(backend.meshes) != 1 || backend.meshes[0].VertexCount != 3 {
		t.Errorf("expected one deduplicated mesh with 3 vertices, got %v", backend.meshes)
	}
}

func TestConvertSceneLooseMeshAttributeNames(t *testing.T) {
	custom := trade.MeshAttributeCustom(0)
	mesh := triangleMesh()
	mesh.Attributes = append(mesh.Attributes, trade.MeshAttributeData{
		Name:   custom,
		Format: trade.VertexFormatFloat,
		Data:   make([]byte, 4*4),
	})
	imp := &stubImporter{
		meshes:    []*trade.MeshData{mesh},
		attrNames: map[trade.MeshAttribute]string{custom: "vertexWeight"},
	}
	backend := &stageBackend{
		features: trade.FeatureConvertMultipleToData | trade.FeatureAddMeshes,
	}
	conv := trade.NewConverter(backend)
	if err := conv.BeginData(); err != nil {
		t.Fatal(err)
	}

	if code := addLooseMeshes(conv, imp, imp.meshes, options{quiet: true}); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if backend.attrNames[custom] != "vertexWeight" {
		t.Errorf("custom attribute name not propagated, got %v", backend.attrNames)
	}
}

// vertexCounter counts vertices of every mesh passed through it.
type vertexCounter struct {
	counts []int
}

func (c *vertexCounter) Features() trade.ConverterFeatures { return trade.FeatureConvertMesh }

func (c *vertexCounter) ConvertMesh(mesh *trade.MeshData) (*trade.MeshData, error) {
	c.counts = append(c.counts, mesh.VertexCount)
	return mesh, nil
}

func TestMeshStagesDedupBeforeConverters(t *testing.T) {
	counter := &vertexCounter{}
	stages := meshStages{
		dedup:      true,
		quiet:      true,
		chain:      []*trade.Converter{trade.NewConverter(counter)},
		chainNames: []string{"counter"},
	}

	out, err := stages.apply(triangleMesh(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if out.VertexCount != 3 {
		t.Fatalf("expected 3 vertices after duplicate removal, got %d", out.VertexCount)
	}
	if !reflect.DeepEqual(counter.counts, []int{3}) {
		t.Errorf("mesh converter saw vertex counts %v, want [3]", counter.counts)
	}
}

func TestRunArgumentErrors(t *testing.T) {
	tmpDir := t.TempDir()
	input := filepath.Join(tmpDir, "quad.obj")
	if err := os.WriteFile(input, []byte(quadObj), 0644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}

	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "no input", args: []string{}, want: exitUsage},
		{name: "no output", args: []string{input}, want: exitUsage},
		{name: "unknown importer", args: []string{"-I", "NoSuchImporter", input, filepath.Join(tmpDir, "out.ply")}, want: exitPlugin},
		{name: "unknown output format", args: []string{"--quiet", input, filepath.Join(tmpDir, "out.xyz")}, want: exitPlugin},
		{name: "missing input file", args: []string{"--quiet", filepath.Join(tmpDir, "nope.obj"), filepath.Join(tmpDir, "out.ply")}, want: exitOpen},
		{name: "bad attribute list", args: []string{"--quiet", "--only-mesh-attributes", "x", input, filepath.Join(tmpDir, "out.ply")}, want: exitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := run(tt.args); code != tt.want {
				t.Errorf("expected exit code %d, got %d", tt.want, code)
			}
		})
	}
}
