package formats

import (
	"testing"

	"github.com/assettools/sceneforge/pkg/trade"
)

const quadObj = `# a quad
o quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
f 1/1 2/2 3/3 4/4
`

func TestObjImporterQuad(t *testing.T) {
	var imp ObjImporter
	if err := imp.OpenData([]byte(quadObj)); err != nil {
		t.Fatal(err)
	}
	defer imp.Close()

	if imp.MeshCount() != 1 {
		t.Fatalf("MeshCount = %d, want 1", imp.MeshCount())
	}
	if name := imp.MeshName(0); name != "quad" {
		t.Fatalf("MeshName = %q, want quad", name)
	}

	mesh, err := imp.Mesh(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if mesh.Primitive != trade.MeshPrimitiveTriangles {
		t.Fatalf("primitive %v, want Triangles", mesh.Primitive)
	}
	// Four corners, fan triangulated into two triangles.
	if mesh.VertexCount != 4 {
		t.Fatalf("VertexCount = %d, want 4", mesh.VertexCount)
	}
	want := []uint32{0, 1, 2, 0, 2, 3}
	if len(mesh.Indices) != len(want) {
		t.Fatalf("Indices = %v, want %v", mesh.Indices, want)
	}
	for i := range want {
		if mesh.Indices[i] != want[i] {
			t.Fatalf("Indices = %v, want %v", mesh.Indices, want)
		}
	}
	if mesh.Attribute(trade.MeshAttributeTextureCoordinates) == nil {
		t.Fatal("missing texture coordinates")
	}
	if mesh.Attribute(trade.MeshAttributeNormal) != nil {
		t.Fatal("normals present without vn lines")
	}
	if got := mesh.Positions()[2]; got != [3]float32{1, 1, 0} {
		t.Fatalf("vertex 2 = %v, want (1,1,0)", got)
	}
}

func TestObjImporterSharedVertices(t *testing.T) {
	// Two triangles sharing an edge through identical index triplets.
	src := `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3
f 3 4 1
`
	var imp ObjImporter
	if err := imp.OpenData([]byte(src)); err != nil {
		t.Fatal(err)
	}
	mesh, err := imp.Mesh(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if mesh.VertexCount != 4 {
		t.Fatalf("VertexCount = %d, want 4 shared vertices", mesh.VertexCount)
	}
}

func TestObjImporterNegativeIndices(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
f -3 -2 -1
`
	var imp ObjImporter
	if err := imp.OpenData([]byte(src)); err != nil {
		t.Fatal(err)
	}
	mesh, err := imp.Mesh(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := mesh.Positions()[1]; got != [3]float32{1, 0, 0} {
		t.Fatalf("vertex 1 = %v, want (1,0,0)", got)
	}
}

func TestObjImporterErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"face index out of range", "v 0 0 0\nf 1 2 3\n"},
		{"truncated face", "v 0 0 0\nv 1 0 0\nf 1 2\n"},
		{"bad float", "v zero 0 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var imp ObjImporter
			if err := imp.OpenData([]byte(tt.src)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestObjImporterRegistered(t *testing.T) {
	imp, name, err := trade.ImporterForPath("model.obj", nil)
	if err != nil {
		t.Fatal(err)
	}
	if name != "ObjImporter" {
		t.Fatalf("dispatched to %s", name)
	}
	if _, ok := imp.(*ObjImporter); !ok {
		t.Fatalf("dispatched to %T", imp)
	}
}
