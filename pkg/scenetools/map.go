// Package scenetools provides transformations operating on whole scenes,
// currently remapping of index fields after their referenced data got
// reordered or compacted.
package scenetools

import (
	"fmt"
	"math"

	"github.com/assettools/sceneforge/pkg/trade"
)

// MapIndexField returns a copy of the scene with every value of the given
// field passed through the mapping, so that after meshes or materials got
// reordered the field keeps pointing at the right data. The remapped field
// is widened to 32 bits (Uint32, or Int32 for signed fields); all other
// fields share their backing storage with the input.
//
// Negative values of signed fields mean "unset" and pass through
// unchanged. A non-negative value outside the mapping and a target field
// that is an array or not of an index type are caller errors and panic.
func MapIndexField(scene *trade.SceneData, field trade.SceneField, mapping []uint32) *trade.SceneData {
	id, ok := scene.FieldID(field)
	if !ok {
		panic(fmt.Sprintf("scenetools.MapIndexField(): field %v not found", field))
	}
	return MapIndexFieldID(scene, id, mapping)
}

// MapIndexFieldID is MapIndexField addressing the field by position
// instead of by name.
func MapIndexFieldID(scene *trade.SceneData, fieldID int, mapping []uint32) *trade.SceneData {
	const op = "scenetools.MapIndexFieldID()"
	f := checkIndexField(op, scene, fieldID)

	widened := trade.SceneFieldTypeUint32
	if f.Type.Signed() {
		widened = trade.SceneFieldTypeInt32
	}
	out := trade.SceneFieldData{
		Field:   f.Field,
		Flags:   f.Flags,
		Type:    widened,
		Mapping: f.Mapping,
		Data:    make([]byte, f.Len()*4),
	}
	for i := 0; i < f.Len(); i++ {
		out.SetValueInt(i, mapValue(op, f, i, mapping, widened))
	}

	fields := make([]trade.SceneFieldData, len(scene.Fields))
	copy(fields, scene.Fields)
	fields[fieldID] = out
	return &trade.SceneData{
		MappingBound: scene.MappingBound,
		Flags:        scene.Flags,
		Fields:       fields,
	}
}

// MapIndexFieldOwned is MapIndexField taking over the scene. When the
// scene data is owned and mutable and the field is already full-width the
// backing storage is reused and the input scene returned, otherwise this
// falls back to the copying variant.
func MapIndexFieldOwned(scene *trade.SceneData, field trade.SceneField, mapping []uint32) *trade.SceneData {
	const op = "scenetools.MapIndexFieldOwned()"
	id, ok := scene.FieldID(field)
	if !ok {
		panic(fmt.Sprintf("%s: field %v not found", op, field))
	}
	f := checkIndexField(op, scene, id)

	owned := trade.DataFlagOwned | trade.DataFlagMutable
	if scene.Flags&owned != owned || f.Type.Size() != 4 {
		return MapIndexFieldID(scene, id, mapping)
	}

	widened := trade.SceneFieldTypeUint32
	if f.Type.Signed() {
		widened = trade.SceneFieldTypeInt32
	}
	for i := 0; i < f.Len(); i++ {
		f.SetValueInt(i, mapValue(op, f, i, mapping, widened))
	}
	f.Type = widened
	return scene
}

// MapIndexFieldInPlace remaps the given field directly in the scene's
// storage, keeping the field's storage type. Mapped values that do not
// fit the type are a caller error and panic, same as values outside the
// mapping. The scene data has to be mutable.
func MapIndexFieldInPlace(scene *trade.SceneData, field trade.SceneField, mapping []uint32) {
	id, ok := scene.FieldID(field)
	if !ok {
		panic(fmt.Sprintf("scenetools.MapIndexFieldInPlace(): field %v not found", field))
	}
	MapIndexFieldIDInPlace(scene, id, mapping)
}

// MapIndexFieldIDInPlace is MapIndexFieldInPlace addressing the field by
// position instead of by name.
func MapIndexFieldIDInPlace(scene *trade.SceneData, fieldID int, mapping []uint32) {
	const op = "scenetools.MapIndexFieldIDInPlace()"
	if scene.Flags&trade.DataFlagMutable == 0 {
		panic(op + ": scene data is not mutable")
	}
	f := checkIndexField(op, scene, fieldID)

	for i := 0; i < f.Len(); i++ {
		f.SetValueInt(i, mapValue(op, f, i, mapping, f.Type))
	}
}

func checkIndexField(op string, scene *trade.SceneData, fieldID int) *trade.SceneFieldData {
	if fieldID < 0 || fieldID >= len(scene.Fields) {
		panic(fmt.Sprintf("%s: index %d out of range for %d fields", op, fieldID, len(scene.Fields)))
	}
	f := scene.Field(fieldID)
	if f.ArraySize != 0 {
		panic(fmt.Sprintf("%s: array field %v is not supported", op, f.Field))
	}
	if !f.Type.Index() {
		panic(fmt.Sprintf("%s: field %v of type %v is not an index field", op, f.Field, f.Type))
	}
	return f
}

// mapValue maps the i-th value of a field, checking representability in
// the target type. Negative values of signed fields pass through.
func mapValue(op string, f *trade.SceneFieldData, i int, mapping []uint32, target trade.SceneFieldType) int64 {
	v := f.ValueInt(i)
	if v < 0 {
		return v
	}
	if uint64(v) >= uint64(len(mapping)) {
		panic(fmt.Sprintf("%s: index %d out of range for %d mapping values", op, v, len(mapping)))
	}
	mapped := uint64(mapping[v])
	if mapped > typeMax(target) {
		panic(fmt.Sprintf("%s: mapping value %d not representable in %v", op, mapped, target))
	}
	return int64(mapped)
}

func typeMax(t trade.SceneFieldType) uint64 {
	switch t {
	case trade.SceneFieldTypeUint8:
		return math.MaxUint8
	case trade.SceneFieldTypeUint16:
		return math.MaxUint16
	case trade.SceneFieldTypeUint32:
		return math.MaxUint32
	case trade.SceneFieldTypeInt8:
		return math.MaxInt8
	case trade.SceneFieldTypeInt16:
		return math.MaxInt16
	case trade.SceneFieldTypeInt32:
		return math.MaxInt32
	}
	return 0
}
