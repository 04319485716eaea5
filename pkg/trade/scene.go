package trade

import (
	"encoding/binary"
	"fmt"
	"math"
)

// SceneField identifies a per-object data column in a scene.
type SceneField uint32

const (
	// SceneFieldParent is the parent object index, -1 for root objects.
	SceneFieldParent SceneField = iota

	// SceneFieldTransformation is the object transformation matrix.
	SceneFieldTransformation

	// SceneFieldMesh is a mesh index attached to an object.
	SceneFieldMesh

	// SceneFieldMeshMaterial is the material index for the mesh attached
	// to the same entry, -1 when the mesh has no material.
	SceneFieldMeshMaterial

	// SceneFieldLight is a light index attached to an object.
	SceneFieldLight

	// SceneFieldCamera is a camera index attached to an object.
	SceneFieldCamera

	// SceneFieldSkin is a skin index attached to an object.
	SceneFieldSkin

	// SceneFieldTranslation, SceneFieldRotation and SceneFieldScaling are
	// the decomposed alternative to SceneFieldTransformation, stored as
	// Vec3, Quat and Vec3 values.
	SceneFieldTranslation
	SceneFieldRotation
	SceneFieldScaling

	sceneFieldCustomBase SceneField = 0x8000
)

// SceneFieldCustom returns a custom (file-format specific) field identifier.
func SceneFieldCustom(i uint32) SceneField {
	return sceneFieldCustomBase + SceneField(i)
}

// IsSceneFieldCustom returns whether f is a custom field identifier.
func IsSceneFieldCustom(f SceneField) bool {
	return f >= sceneFieldCustomBase
}

// SceneFieldCustomID returns the ID a custom field was created with.
func SceneFieldCustomID(f SceneField) uint32 {
	return uint32(f - sceneFieldCustomBase)
}

// String returns the field name, or "Custom(i)" for custom fields.
func (f SceneField) String() string {
	switch f {
	case SceneFieldParent:
		return "Parent"
	case SceneFieldTransformation:
		return "Transformation"
	case SceneFieldMesh:
		return "Mesh"
	case SceneFieldMeshMaterial:
		return "MeshMaterial"
	case SceneFieldLight:
		return "Light"
	case SceneFieldCamera:
		return "Camera"
	case SceneFieldSkin:
		return "Skin"
	case SceneFieldTranslation:
		return "Translation"
	case SceneFieldRotation:
		return "Rotation"
	case SceneFieldScaling:
		return "Scaling"
	}
	if IsSceneFieldCustom(f) {
		return fmt.Sprintf("Custom(%d)", SceneFieldCustomID(f))
	}
	return fmt.Sprintf("SceneField(%d)", uint32(f))
}

// SceneFieldType is the storage type of scene field values.
type SceneFieldType uint8

const (
	SceneFieldTypeUint8 SceneFieldType = iota + 1
	SceneFieldTypeUint16
	SceneFieldTypeUint32
	SceneFieldTypeInt8
	SceneFieldTypeInt16
	SceneFieldTypeInt32
	SceneFieldTypeFloat32
	SceneFieldTypeVec3
	SceneFieldTypeQuat
	SceneFieldTypeMat4
)

// Size returns the byte size of one value of this type.
func (t SceneFieldType) Size() int {
	switch t {
	case SceneFieldTypeUint8, SceneFieldTypeInt8:
		return 1
	case SceneFieldTypeUint16, SceneFieldTypeInt16:
		return 2
	case SceneFieldTypeUint32, SceneFieldTypeInt32, SceneFieldTypeFloat32:
		return 4
	case SceneFieldTypeVec3:
		return 12
	case SceneFieldTypeQuat:
		return 16
	case SceneFieldTypeMat4:
		return 64
	}
	return 0
}

// Signed returns whether the type is a signed integer type.
func (t SceneFieldType) Signed() bool {
	switch t {
	case SceneFieldTypeInt8, SceneFieldTypeInt16, SceneFieldTypeInt32:
		return true
	}
	return false
}

// Index returns whether the type is valid for index fields, i.e. an
// unsigned or signed 8/16/32-bit integer.
func (t SceneFieldType) Index() bool {
	switch t {
	case SceneFieldTypeUint8, SceneFieldTypeUint16, SceneFieldTypeUint32,
		SceneFieldTypeInt8, SceneFieldTypeInt16, SceneFieldTypeInt32:
		return true
	}
	return false
}

// String returns the type name.
func (t SceneFieldType) String() string {
	switch t {
	case SceneFieldTypeUint8:
		return "Uint8"
	case SceneFieldTypeUint16:
		return "Uint16"
	case SceneFieldTypeUint32:
		return "Uint32"
	case SceneFieldTypeInt8:
		return "Int8"
	case SceneFieldTypeInt16:
		return "Int16"
	case SceneFieldTypeInt32:
		return "Int32"
	case SceneFieldTypeFloat32:
		return "Float32"
	case SceneFieldTypeVec3:
		return "Vec3"
	case SceneFieldTypeQuat:
		return "Quat"
	case SceneFieldTypeMat4:
		return "Mat4"
	}
	return fmt.Sprintf("SceneFieldType(%d)", uint8(t))
}

// SceneFieldFlags carry extra field semantics that transforms must
// preserve verbatim.
type SceneFieldFlags uint8

const (
	// SceneFieldFlagOrderedMapping marks the field's object mapping as
	// monotonically non-decreasing.
	SceneFieldFlagOrderedMapping SceneFieldFlags = 1 << iota

	// SceneFieldFlagMultiEntry marks a field that can have multiple
	// entries per object.
	SceneFieldFlagMultiEntry
)

// DataFlags describe ownership and mutability of a payload's backing
// storage.
type DataFlags uint8

const (
	// DataFlagOwned means the payload owns its backing slices exclusively
	// and a consumer may steal them instead of copying.
	DataFlagOwned DataFlags = 1 << iota

	// DataFlagMutable means in-place mutation of the backing storage is
	// allowed.
	DataFlagMutable
)

// SceneFieldData is one per-object data column: which objects have the
// field and the field values, stored as raw little-endian bytes so narrow
// index types survive round trips unchanged.
type SceneFieldData struct {
	Field     SceneField
	Flags     SceneFieldFlags
	Type      SceneFieldType
	ArraySize int // 0 for non-array fields

	// Mapping holds the object ID of each entry.
	Mapping []uint32

	// Data holds Len() packed values of Type.
	Data []byte
}

// Len returns the number of entries in the field.
func (f *SceneFieldData) Len() int {
	return len(f.Mapping)
}

// ValueInt returns the i-th value sign-extended to int64. Panics for
// non-integer field types.
func (f *SceneFieldData) ValueInt(i int) int64 {
	sz := f.Type.Size()
	b := f.Data[i*sz : (i+1)*sz]
	switch f.Type {
	case SceneFieldTypeUint8:
		return int64(b[0])
	case SceneFieldTypeUint16:
		return int64(binary.LittleEndian.Uint16(b))
	case SceneFieldTypeUint32:
		return int64(binary.LittleEndian.Uint32(b))
	case SceneFieldTypeInt8:
		return int64(int8(b[0]))
	case SceneFieldTypeInt16:
		return int64(int16(binary.LittleEndian.Uint16(b)))
	case SceneFieldTypeInt32:
		return int64(int32(binary.LittleEndian.Uint32(b)))
	}
	panic(fmt.Sprintf("trade: ValueInt(): non-integer field type %v", f.Type))
}

// SetValueInt stores v as the i-th value. The caller is responsible for v
// being representable in the field's type.
func (f *SceneFieldData) SetValueInt(i int, v int64) {
	sz := f.Type.Size()
	b := f.Data[i*sz : (i+1)*sz]
	switch f.Type {
	case SceneFieldTypeUint8, SceneFieldTypeInt8:
		b[0] = byte(v)
	case SceneFieldTypeUint16, SceneFieldTypeInt16:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case SceneFieldTypeUint32, SceneFieldTypeInt32:
		binary.LittleEndian.PutUint32(b, uint32(v))
	default:
		panic(fmt.Sprintf("trade: SetValueInt(): non-integer field type %v", f.Type))
	}
}

// ValueFloats returns the float components of the i-th value. Panics for
// non-float field types.
func (f *SceneFieldData) ValueFloats(i int) []float32 {
	switch f.Type {
	case SceneFieldTypeFloat32, SceneFieldTypeVec3, SceneFieldTypeQuat, SceneFieldTypeMat4:
	default:
		panic(fmt.Sprintf("trade: ValueFloats(): non-float field type %v", f.Type))
	}
	sz := f.Type.Size()
	b := f.Data[i*sz : (i+1)*sz]
	out := make([]float32, sz/4)
	for c := range out {
		out[c] = math.Float32frombits(binary.LittleEndian.Uint32(b[c*4:]))
	}
	return out
}

// SetValueFloats stores the float components of the i-th value. Panics
// for non-float field types or a component count mismatch.
func (f *SceneFieldData) SetValueFloats(i int, v []float32) {
	switch f.Type {
	case SceneFieldTypeFloat32, SceneFieldTypeVec3, SceneFieldTypeQuat, SceneFieldTypeMat4:
	default:
		panic(fmt.Sprintf("trade: SetValueFloats(): non-float field type %v", f.Type))
	}
	sz := f.Type.Size()
	if len(v) != sz/4 {
		panic(fmt.Sprintf("trade: SetValueFloats(): %d components for field type %v", len(v), f.Type))
	}
	b := f.Data[i*sz : (i+1)*sz]
	for c, x := range v {
		binary.LittleEndian.PutUint32(b[c*4:], math.Float32bits(x))
	}
}

// SceneData describes one scene: a set of objects identified by dense IDs
// below MappingBound and an arbitrary set of per-object data columns.
type SceneData struct {
	// MappingBound is one past the largest object ID used by any field.
	MappingBound uint64

	// Flags describe ownership of the field storage.
	Flags DataFlags

	Fields []SceneFieldData
}

// FieldID returns the position of the given field, or false if the scene
// has no such field.
func (s *SceneData) FieldID(field SceneField) (int, bool) {
	for i := range s.Fields {
		if s.Fields[i].Field == field {
			return i, true
		}
	}
	return 0, false
}

// Field returns a pointer to the field at the given position.
func (s *SceneData) Field(i int) *SceneFieldData {
	return &s.Fields[i]
}

// MeshesMaterials returns the object, mesh index and material index of
// every SceneFieldMesh entry. The material is -1 for entries without a
// SceneFieldMeshMaterial counterpart or when the material field stores -1.
func (s *SceneData) MeshesMaterials() []MeshMaterialEntry {
	mi, ok := s.FieldID(SceneFieldMesh)
	if !ok {
		return nil
	}
	meshes := s.Field(mi)
	var materials *SceneFieldData
	if mmi, ok := s.FieldID(SceneFieldMeshMaterial); ok {
		materials = s.Field(mmi)
	}
	out := make([]MeshMaterialEntry, meshes.Len())
	for i := range out {
		out[i] = MeshMaterialEntry{
			Object:   meshes.Mapping[i],
			Mesh:     uint32(meshes.ValueInt(i)),
			Material: -1,
		}
		if materials != nil && i < materials.Len() {
			out[i].Material = int32(materials.ValueInt(i))
		}
	}
	return out
}

// MeshMaterialEntry is one object→mesh assignment with an optional
// material.
type MeshMaterialEntry struct {
	Object   uint32
	Mesh     uint32
	Material int32
}
