package scenetools

import (
	"testing"

	"github.com/assettools/sceneforge/pkg/trade"
)

func meshField(t trade.SceneFieldType, values []int64) *trade.SceneData {
	f := trade.SceneFieldData{
		Field:   trade.SceneFieldMesh,
		Type:    t,
		Mapping: make([]uint32, len(values)),
		Data:    make([]byte, len(values)*t.Size()),
	}
	for i, v := range values {
		f.Mapping[i] = uint32(i)
		f.SetValueInt(i, v)
	}
	return &trade.SceneData{
		MappingBound: uint64(len(values)),
		Flags:        trade.DataFlagMutable,
		Fields:       []trade.SceneFieldData{f},
	}
}

func fieldValues(s *trade.SceneData, field trade.SceneField) []int64 {
	id, ok := s.FieldID(field)
	if !ok {
		return nil
	}
	f := s.Field(id)
	out := make([]int64, f.Len())
	for i := range out {
		out[i] = f.ValueInt(i)
	}
	return out
}

func TestMapIndexField(t *testing.T) {
	tests := []struct {
		name     string
		typ      trade.SceneFieldType
		values   []int64
		mapping  []uint32
		want     []int64
		wantType trade.SceneFieldType
	}{
		{
			name:     "unsigned widens to Uint32",
			typ:      trade.SceneFieldTypeUint16,
			values:   []int64{2, 0, 1, 2},
			mapping:  []uint32{7, 100000, 3},
			want:     []int64{3, 7, 100000, 3},
			wantType: trade.SceneFieldTypeUint32,
		},
		{
			name:     "signed negatives pass through",
			typ:      trade.SceneFieldTypeInt16,
			values:   []int64{1, -1, 0, -15},
			mapping:  []uint32{4, 2},
			want:     []int64{2, -1, 4, -15},
			wantType: trade.SceneFieldTypeInt32,
		},
		{
			name:     "sentinel mapping entries are never looked up",
			typ:      trade.SceneFieldTypeUint8,
			values:   []int64{0, 3},
			mapping:  []uint32{5, 0xffffffff, 0xffffffff, 9},
			want:     []int64{5, 9},
			wantType: trade.SceneFieldTypeUint32,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scene := meshField(tt.typ, tt.values)
			out := MapIndexField(scene, trade.SceneFieldMesh, tt.mapping)

			got := fieldValues(out, trade.SceneFieldMesh)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("values %v, want %v", got, tt.want)
				}
			}
			if typ := out.Field(0).Type; typ != tt.wantType {
				t.Fatalf("type %v, want %v", typ, tt.wantType)
			}

			// The input is untouched.
			orig := fieldValues(scene, trade.SceneFieldMesh)
			for i := range tt.values {
				if orig[i] != tt.values[i] {
					t.Fatalf("input modified: %v, want %v", orig, tt.values)
				}
			}
		})
	}
}

func TestMapIndexFieldInPlace(t *testing.T) {
	// Mapping entries at unreferenced positions may hold values that do
	// not fit the narrow field type, including the 0xffffffff sentinel.
	scene := meshField(trade.SceneFieldTypeUint8, []int64{5, 9, 1, 0})
	mapping := []uint32{12, 0, 0xffffffff, 0xffffffff, 0xffffffff, 0xff, 0xffffffff, 0xffffffff, 0xffffffff, 3}

	MapIndexFieldInPlace(scene, trade.SceneFieldMesh, mapping)

	want := []int64{0xff, 3, 0, 12}
	got := fieldValues(scene, trade.SceneFieldMesh)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("values %v, want %v", got, want)
		}
	}
	if typ := scene.Field(0).Type; typ != trade.SceneFieldTypeUint8 {
		t.Fatalf("in-place remap changed the type to %v", typ)
	}
}

func TestMapIndexFieldOwned(t *testing.T) {
	t.Run("reuses full-width owned storage", func(t *testing.T) {
		scene := meshField(trade.SceneFieldTypeUint32, []int64{1, 0})
		scene.Flags = trade.DataFlagOwned | trade.DataFlagMutable
		backing := scene.Field(0).Data

		out := MapIndexFieldOwned(scene, trade.SceneFieldMesh, []uint32{4, 2})
		if out != scene {
			t.Fatal("owned full-width remap should return the input scene")
		}
		if &backing[0] != &out.Field(0).Data[0] {
			t.Fatal("owned full-width remap should reuse the backing storage")
		}
		got := fieldValues(out, trade.SceneFieldMesh)
		if got[0] != 2 || got[1] != 4 {
			t.Fatalf("values %v, want [2 4]", got)
		}
	})

	t.Run("copies narrow storage", func(t *testing.T) {
		scene := meshField(trade.SceneFieldTypeUint8, []int64{1, 0})
		scene.Flags = trade.DataFlagOwned | trade.DataFlagMutable

		out := MapIndexFieldOwned(scene, trade.SceneFieldMesh, []uint32{4, 2})
		if out == scene {
			t.Fatal("narrow field remap should copy")
		}
		if typ := out.Field(0).Type; typ != trade.SceneFieldTypeUint32 {
			t.Fatalf("type %v, want Uint32", typ)
		}
	})
}

func TestMapIndexFieldPanics(t *testing.T) {
	tests := []struct {
		name string
		call func()
	}{
		{"missing field", func() {
			MapIndexField(meshField(trade.SceneFieldTypeUint8, []int64{0}), trade.SceneFieldLight, []uint32{0})
		}},
		{"non-index type", func() {
			scene := &trade.SceneData{Fields: []trade.SceneFieldData{{
				Field: trade.SceneFieldTransformation,
				Type:  trade.SceneFieldTypeFloat32,
			}}}
			MapIndexFieldID(scene, 0, []uint32{0})
		}},
		{"array field", func() {
			scene := &trade.SceneData{Fields: []trade.SceneFieldData{{
				Field:     trade.SceneFieldMesh,
				Type:      trade.SceneFieldTypeUint32,
				ArraySize: 2,
			}}}
			MapIndexFieldID(scene, 0, []uint32{0})
		}},
		{"value out of mapping range", func() {
			MapIndexField(meshField(trade.SceneFieldTypeUint16, []int64{10}), trade.SceneFieldMesh, make([]uint32, 10))
		}},
		{"not representable in place", func() {
			scene := meshField(trade.SceneFieldTypeUint16, []int64{0})
			MapIndexFieldInPlace(scene, trade.SceneFieldMesh, []uint32{65536})
		}},
		{"immutable in place", func() {
			scene := meshField(trade.SceneFieldTypeUint16, []int64{0})
			scene.Flags = 0
			MapIndexFieldInPlace(scene, trade.SceneFieldMesh, []uint32{1})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected a panic")
				}
			}()
			tt.call()
		})
	}
}
