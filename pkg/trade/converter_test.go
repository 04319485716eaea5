package trade

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// recordingBackend collects everything added to it and can play it back
// through a memoryImporter.
type recordingBackend struct {
	features ConverterFeatures

	begun, ended, aborted int
	dataBegun             int
	calls                 []string

	meshes    []*MeshData
	materials []*MaterialData
	scenes    []*SceneData
	textures  []*TextureData
	images2D  []*ImageData
	names     []string

	defaultScene int

	addErr error
}

func (b *recordingBackend) Features() ConverterFeatures { return b.features }

func (b *recordingBackend) Begin() error {
	b.begun++
	b.defaultScene = -1
	return nil
}

func (b *recordingBackend) End() (Importer, error) {
	b.ended++
	return &memoryImporter{backend: b, opened: true}, nil
}

func (b *recordingBackend) BeginData() error {
	b.dataBegun++
	return nil
}

func (b *recordingBackend) EndData() ([]byte, error) {
	return []byte(fmt.Sprintf("%d meshes", len(b.meshes))), nil
}

func (b *recordingBackend) Abort() { b.aborted++ }

func (b *recordingBackend) AddMesh(mesh *MeshData, name string) error {
	if b.addErr != nil {
		return b.addErr
	}
	b.calls = append(b.calls, "mesh")
	b.meshes = append(b.meshes, mesh)
	b.names = append(b.names, name)
	return nil
}

func (b *recordingBackend) SetMeshAttributeName(MeshAttribute, string) {}

func (b *recordingBackend) AddMaterial(material *MaterialData, name string) error {
	b.calls = append(b.calls, "material")
	b.materials = append(b.materials, material)
	b.names = append(b.names, name)
	return nil
}

func (b *recordingBackend) AddTexture(texture *TextureData, name string) error {
	b.calls = append(b.calls, "texture")
	b.textures = append(b.textures, texture)
	b.names = append(b.names, name)
	return nil
}

func (b *recordingBackend) AddImage2D(image *ImageData, name string) error {
	b.calls = append(b.calls, "image2D")
	b.images2D = append(b.images2D, image)
	b.names = append(b.names, name)
	return nil
}

func (b *recordingBackend) AddScene(scene *SceneData, name string) error {
	b.calls = append(b.calls, "scene")
	b.scenes = append(b.scenes, scene)
	b.names = append(b.names, name)
	return nil
}

func (b *recordingBackend) SetDefaultScene(id int)               { b.defaultScene = id }
func (b *recordingBackend) SetSceneFieldName(SceneField, string) {}
func (b *recordingBackend) SetObjectName(uint64, string)         {}

// memoryImporter exposes what a recordingBackend collected.
type memoryImporter struct {
	UnimplementedImporter
	backend *recordingBackend
	opened  bool
}

func (m *memoryImporter) Open(string) error     { return nil }
func (m *memoryImporter) OpenData([]byte) error { return nil }
func (m *memoryImporter) IsOpened() bool        { return m.opened }
func (m *memoryImporter) Close()                { m.opened = false }

func (m *memoryImporter) MeshCount() int { return len(m.backend.meshes) }
func (m *memoryImporter) Mesh(i, level int) (*MeshData, error) {
	return m.backend.meshes[i], nil
}

func quadMesh() *MeshData {
	positions := MeshAttributeData{
		Name:   MeshAttributePosition,
		Format: VertexFormatVector3,
		Data:   make([]byte, 4*12),
	}
	for i, p := range [][]float32{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
	} {
		positions.SetFloats(i, p)
	}
	return &MeshData{
		Primitive:   MeshPrimitiveTriangles,
		Indices:     []uint32{0, 1, 2, 2, 3, 0},
		VertexCount: 4,
		Attributes:  []MeshAttributeData{positions},
	}
}

func TestConverterBatchSession(t *testing.T) {
	backend := &recordingBackend{features: FeatureConvertMultiple | FeatureAddMeshes}
	conv := NewConverter(backend)

	if conv.IsConverting() {
		t.Fatal("converting before Begin")
	}
	if err := conv.Begin(); err != nil {
		t.Fatal(err)
	}
	if !conv.IsConverting() {
		t.Fatal("not converting after Begin")
	}

	for want := 0; want < 2; want++ {
		id, err := conv.AddMesh(quadMesh(), fmt.Sprintf("mesh-%d", want))
		if err != nil {
			t.Fatal(err)
		}
		if id != want {
			t.Fatalf("AddMesh returned %d, want %d", id, want)
		}
	}
	if conv.MeshCount() != 2 {
		t.Fatalf("MeshCount = %d, want 2", conv.MeshCount())
	}

	imp, err := conv.End()
	if err != nil {
		t.Fatal(err)
	}
	if conv.IsConverting() {
		t.Fatal("still converting after End")
	}
	if imp.MeshCount() != 2 {
		t.Fatalf("result importer has %d meshes, want 2", imp.MeshCount())
	}
}

func TestConverterImplicitAbort(t *testing.T) {
	backend := &recordingBackend{features: FeatureConvertMultiple | FeatureAddMeshes}
	conv := NewConverter(backend)

	if err := conv.Begin(); err != nil {
		t.Fatal(err)
	}
	if _, err := conv.AddMesh(quadMesh(), ""); err != nil {
		t.Fatal(err)
	}

	// A second Begin throws the first session away.
	if err := conv.Begin(); err != nil {
		t.Fatal(err)
	}
	if backend.aborted != 1 {
		t.Fatalf("backend aborted %d times, want 1", backend.aborted)
	}
	if conv.MeshCount() != 0 {
		t.Fatalf("MeshCount = %d after re-begin, want 0", conv.MeshCount())
	}
}

func TestConverterFeatureNormalization(t *testing.T) {
	backend := &recordingBackend{features: FeatureConvertMultipleToData | FeatureAddMeshes}
	conv := NewConverter(backend)

	if conv.Features()&FeatureConvertMultipleToFile == 0 {
		t.Fatal("ConvertMultipleToData should imply ConvertMultipleToFile")
	}
}

func TestConverterFileViaData(t *testing.T) {
	backend := &recordingBackend{features: FeatureConvertMultipleToData | FeatureAddMeshes}
	conv := NewConverter(backend)

	path := filepath.Join(t.TempDir(), "out.mesh")
	if err := conv.BeginFile(path); err != nil {
		t.Fatal(err)
	}
	if _, err := conv.AddMesh(quadMesh(), ""); err != nil {
		t.Fatal(err)
	}
	if err := conv.EndFile(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "1 meshes" {
		t.Fatalf("file contents %q", data)
	}
}

func TestConvertMeshViaBatch(t *testing.T) {
	backend := &recordingBackend{features: FeatureConvertMultiple | FeatureAddMeshes}
	conv := NewConverter(backend)

	in := quadMesh()
	out, err := conv.ConvertMesh(in)
	if err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Fatal("batch fallback should pass the mesh through the backend")
	}
	if backend.begun != 1 || backend.ended != 1 {
		t.Fatalf("begun %d ended %d, want 1 and 1", backend.begun, backend.ended)
	}
}

func TestConverterPreconditionPanics(t *testing.T) {
	tests := []struct {
		name string
		call func(*Converter)
	}{
		{"add without begin", func(c *Converter) { c.AddMesh(quadMesh(), "") }},
		{"unsupported begin", func(c *Converter) {
			// The backend only does single-mesh conversion.
			NewConverter(&recordingBackend{features: FeatureConvertMesh}).Begin()
		}},
		{"unsupported add", func(c *Converter) {
			c.Begin()
			c.AddScene(&SceneData{}, "")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected a panic")
				}
			}()
			conv := NewConverter(&recordingBackend{features: FeatureConvertMultiple | FeatureAddMeshes})
			tt.call(conv)
		})
	}
}

func TestConverterAddErrorKeepsCount(t *testing.T) {
	backend := &recordingBackend{
		features: FeatureConvertMultiple | FeatureAddMeshes,
		addErr:   errors.New("disk full"),
	}
	conv := NewConverter(backend)
	if err := conv.Begin(); err != nil {
		t.Fatal(err)
	}
	if _, err := conv.AddMesh(quadMesh(), ""); err == nil {
		t.Fatal("expected an error")
	}
	if conv.MeshCount() != 0 {
		t.Fatalf("MeshCount = %d after failed add, want 0", conv.MeshCount())
	}
}

// contentImporter is a canned importer for aggregation tests.
type contentImporter struct {
	UnimplementedImporter
	meshes      []*MeshData
	meshLevels  int
	materials   []*MaterialData
	scenes      []*SceneData
	images2D    []*ImageData
	imageLevels int
	images3D    []*ImageData
	defScene    int
}

func (c *contentImporter) Open(string) error     { return nil }
func (c *contentImporter) OpenData([]byte) error { return nil }
func (c *contentImporter) IsOpened() bool        { return true }
func (c *contentImporter) Close()                {}

func (c *contentImporter) DefaultScene() int { return c.defScene }

func (c *contentImporter) MeshCount() int { return len(c.meshes) }
func (c *contentImporter) Mesh(i, level int) (*MeshData, error) {
	return c.meshes[i], nil
}
func (c *contentImporter) MeshName(i int) string { return fmt.Sprintf("mesh-%d", i) }
func (c *contentImporter) MeshLevelCount(int) int {
	if c.meshLevels > 0 {
		return c.meshLevels
	}
	return 1
}

func (c *contentImporter) Image2DCount() int { return len(c.images2D) }
func (c *contentImporter) Image2DLevelCount(int) int {
	if c.imageLevels > 0 {
		return c.imageLevels
	}
	return 1
}
func (c *contentImporter) Image2D(i, level int) (*ImageData, error) {
	return c.images2D[i], nil
}

func (c *contentImporter) Image3DCount() int { return len(c.images3D) }
func (c *contentImporter) Image3D(i, level int) (*ImageData, error) {
	return c.images3D[i], nil
}

func (c *contentImporter) MaterialCount() int { return len(c.materials) }
func (c *contentImporter) Material(i int) (*MaterialData, error) {
	return c.materials[i], nil
}

func (c *contentImporter) SceneCount() int { return len(c.scenes) }
func (c *contentImporter) Scene(i int) (*SceneData, error) {
	return c.scenes[i], nil
}

func TestAddImporterContentsOrder(t *testing.T) {
	imp := &contentImporter{
		meshes:    []*MeshData{quadMesh()},
		materials: []*MaterialData{{Types: MaterialTypePhong}},
		scenes:    []*SceneData{{MappingBound: 1}, {MappingBound: 2}},
		defScene:  1,
	}
	backend := &recordingBackend{
		features: FeatureConvertMultiple | FeatureAddMeshes | FeatureAddMaterials | FeatureAddScenes,
	}
	conv := NewConverter(backend)
	if err := conv.Begin(); err != nil {
		t.Fatal(err)
	}
	if err := conv.AddImporterContents(imp, ContentsFor(imp)); err != nil {
		t.Fatal(err)
	}

	want := []string{"material", "mesh", "scene", "scene"}
	if len(backend.calls) != len(want) {
		t.Fatalf("calls %v, want %v", backend.calls, want)
	}
	for i := range want {
		if backend.calls[i] != want[i] {
			t.Fatalf("calls %v, want %v", backend.calls, want)
		}
	}
	if backend.defaultScene != 1 {
		t.Fatalf("default scene %d, want 1", backend.defaultScene)
	}
	// Names requested, so they come through.
	if backend.names[1] != "mesh-0" {
		t.Fatalf("mesh name %q, want mesh-0", backend.names[1])
	}
}

func TestAddImporterContentsUnsupportedPanics(t *testing.T) {
	imp := &contentImporter{scenes: []*SceneData{{}}}
	conv := NewConverter(&recordingBackend{features: FeatureConvertMultiple | FeatureAddMeshes})
	if err := conv.Begin(); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for unsupported contents")
		}
	}()
	conv.AddImporterContents(imp, SceneContentScenes)
}

func TestAddSupportedImporterContentsSkips(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	imp := &contentImporter{
		meshes: []*MeshData{quadMesh()},
		scenes: []*SceneData{{}, {}},
	}
	backend := &recordingBackend{features: FeatureConvertMultiple | FeatureAddMeshes}
	conv := NewConverter(backend)
	if err := conv.Begin(); err != nil {
		t.Fatal(err)
	}
	if err := conv.AddSupportedImporterContents(imp, ContentsFor(imp)); err != nil {
		t.Fatal(err)
	}

	if len(backend.meshes) != 1 {
		t.Fatalf("added %d meshes, want 1", len(backend.meshes))
	}
	if len(backend.scenes) != 0 {
		t.Fatalf("added %d scenes, want 0", len(backend.scenes))
	}

	found := false
	for _, entry := range logs.All() {
		if entry.Message == "ignoring 2 scenes not supported by the converter" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing skip warning, got %v", logs.All())
	}
}

func checkerImage2D(compressed bool) *ImageData {
	img := &ImageData{
		Dimensions: 2,
		Size:       [3]int{2, 2, 1},
		Format:     PixelFormatRGBA8,
		Data:       make([]byte, 2*2*4),
	}
	if compressed {
		img.Compressed = true
		img.CompressedFormat = CompressedPixelFormatBC1
		img.Data = make([]byte, 8)
	}
	return img
}

func TestAddImporterContentsLevelMismatchErrors(t *testing.T) {
	// Level counts aren't known until the data is opened, so a converter
	// without level support fails at add time instead of panicking on the
	// content bits.
	imp := &contentImporter{
		meshes:     []*MeshData{quadMesh()},
		meshLevels: 2,
	}
	conv := NewConverter(&recordingBackend{features: FeatureConvertMultiple | FeatureAddMeshes})
	if err := conv.Begin(); err != nil {
		t.Fatal(err)
	}
	err := conv.AddImporterContents(imp, SceneContentMeshes|SceneContentMeshLevels)
	if err == nil {
		t.Fatal("expected an error for a multi-level mesh")
	}
	if !strings.Contains(err.Error(), "2 levels not supported by the converter") {
		t.Fatalf("error %q", err)
	}
}

func TestAddSupportedImporterContentsDegradesLevels(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	imp := &contentImporter{
		meshes:      []*MeshData{quadMesh()},
		meshLevels:  2,
		images2D:    []*ImageData{checkerImage2D(false)},
		imageLevels: 3,
	}
	backend := &recordingBackend{
		features: FeatureConvertMultiple | FeatureAddMeshes | FeatureAddImages2D,
	}
	conv := NewConverter(backend)
	if err := conv.Begin(); err != nil {
		t.Fatal(err)
	}
	if err := conv.AddSupportedImporterContents(imp, ContentsFor(imp)); err != nil {
		t.Fatal(err)
	}

	// Only the first level of each went in.
	if len(backend.meshes) != 1 {
		t.Fatalf("added %d meshes, want 1", len(backend.meshes))
	}
	if len(backend.images2D) != 1 {
		t.Fatalf("added %d 2D images, want 1", len(backend.images2D))
	}

	want := map[string]bool{
		"ignoring extra mesh levels not supported by the converter":  false,
		"ignoring extra image levels not supported by the converter": false,
	}
	for _, entry := range logs.All() {
		if _, ok := want[entry.Message]; ok {
			want[entry.Message] = true
		}
	}
	for msg, found := range want {
		if !found {
			t.Fatalf("missing warning %q, got %v", msg, logs.All())
		}
	}
}

func TestAddSupportedImporterContentsSkipsImages(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	imp := &contentImporter{
		images2D: []*ImageData{checkerImage2D(false)},
		images3D: []*ImageData{{}, {}},
	}
	backend := &recordingBackend{features: FeatureConvertMultiple | FeatureAddImages2D}
	conv := NewConverter(backend)
	if err := conv.Begin(); err != nil {
		t.Fatal(err)
	}
	if err := conv.AddSupportedImporterContents(imp, ContentsFor(imp)); err != nil {
		t.Fatal(err)
	}

	if len(backend.images2D) != 1 {
		t.Fatalf("added %d 2D images, want 1", len(backend.images2D))
	}
	found := false
	for _, entry := range logs.All() {
		if entry.Message == "ignoring 2 3D images not supported by the converter" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing skip warning, got %v", logs.All())
	}
}

func TestAddImporterContentsCompressionMismatch(t *testing.T) {
	// The content bits don't distinguish compressed from uncompressed
	// images, so the mismatch only surfaces as a runtime error.
	imp := &contentImporter{images2D: []*ImageData{checkerImage2D(true)}}
	conv := NewConverter(&recordingBackend{features: FeatureConvertMultiple | FeatureAddImages2D})
	if err := conv.Begin(); err != nil {
		t.Fatal(err)
	}
	err := conv.AddImporterContents(imp, SceneContentImages2D)
	if err == nil {
		t.Fatal("expected an error for a compressed image")
	}
	if !strings.Contains(err.Error(), "compressed images not supported by the converter") {
		t.Fatalf("error %q", err)
	}
}

func TestContentsFor(t *testing.T) {
	imp := &contentImporter{
		meshes: []*MeshData{quadMesh()},
		scenes: []*SceneData{{}},
	}
	c := ContentsFor(imp)
	if c&SceneContentMeshes == 0 || c&SceneContentScenes == 0 {
		t.Fatalf("contents %v missing meshes or scenes", c)
	}
	if c&SceneContentMaterials != 0 {
		t.Fatalf("contents %v should not report materials", c)
	}
}
