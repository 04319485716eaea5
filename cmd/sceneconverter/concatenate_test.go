package main

import (
	"math"
	"testing"

	"github.com/assettools/sceneforge/pkg/mathx"
	"github.com/assettools/sceneforge/pkg/trade"
)

func floatField(field trade.SceneField, fieldType trade.SceneFieldType, mapping []uint32, values [][]float32) trade.SceneFieldData {
	f := trade.SceneFieldData{
		Field:   field,
		Type:    fieldType,
		Mapping: mapping,
		Data:    make([]byte, len(mapping)*fieldType.Size()),
	}
	for i, v := range values {
		f.SetValueFloats(i, v)
	}
	return f
}

func nearVec3(a, b [3]float32, epsilon float32) bool {
	for i := range a {
		if float32(math.Abs(float64(a[i]-b[i]))) > epsilon {
			return false
		}
	}
	return true
}

func TestAbsoluteTransformsDecomposed(t *testing.T) {
	// No matrix field, so the transforms come from the translation,
	// rotation and scaling columns. Object 0 rotates 90 degrees around Z
	// and moves to (1, 2, 3), object 1 only scales.
	q := mathx.QuatFromAxisAngle(mathx.Vec3{Z: 1}, float32(math.Pi/2))
	scene := &trade.SceneData{
		MappingBound: 2,
		Fields: []trade.SceneFieldData{
			floatField(trade.SceneFieldTranslation, trade.SceneFieldTypeVec3,
				[]uint32{0}, [][]float32{{1, 2, 3}}),
			floatField(trade.SceneFieldRotation, trade.SceneFieldTypeQuat,
				[]uint32{0}, [][]float32{{q.X, q.Y, q.Z, q.W}}),
			floatField(trade.SceneFieldScaling, trade.SceneFieldTypeVec3,
				[]uint32{1}, [][]float32{{2, 2, 2}}),
		},
	}

	transforms := absoluteTransforms(scene)
	if len(transforms) != 2 {
		t.Fatalf("got transforms for %d objects, want 2", len(transforms))
	}

	// The rotation maps (1, 0, 0) to (0, 1, 0), then the translation
	// applies on top.
	got := transforms[0].TransformPoint([3]float32{1, 0, 0})
	if !nearVec3(got, [3]float32{1, 3, 3}, 1e-5) {
		t.Errorf("object 0 maps (1,0,0) to %v, want (1,3,3)", got)
	}
	got = transforms[1].TransformPoint([3]float32{1, 1, 1})
	if !nearVec3(got, [3]float32{2, 2, 2}, 1e-5) {
		t.Errorf("object 1 maps (1,1,1) to %v, want (2,2,2)", got)
	}
}

func TestAbsoluteTransformsDecomposedParent(t *testing.T) {
	// Child translation composes with the parent's.
	parents := trade.SceneFieldData{
		Field:   trade.SceneFieldParent,
		Type:    trade.SceneFieldTypeInt32,
		Mapping: []uint32{0, 1},
		Data:    make([]byte, 2*4),
	}
	parents.SetValueInt(0, -1)
	parents.SetValueInt(1, 0)
	scene := &trade.SceneData{
		MappingBound: 2,
		Fields: []trade.SceneFieldData{
			parents,
			floatField(trade.SceneFieldTranslation, trade.SceneFieldTypeVec3,
				[]uint32{0, 1}, [][]float32{{0, 0, 5}, {1, 0, 0}}),
		},
	}

	transforms := absoluteTransforms(scene)
	got := transforms[1].TransformPoint([3]float32{0, 0, 0})
	if !nearVec3(got, [3]float32{1, 0, 5}, 1e-5) {
		t.Errorf("child origin maps to %v, want (1,0,5)", got)
	}
}
