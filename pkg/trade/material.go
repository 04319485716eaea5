package trade

import (
	"sort"
	"strings"
)

// MaterialTypes is a set of shading models a material can be rendered with.
type MaterialTypes uint8

const (
	MaterialTypeFlat MaterialTypes = 1 << iota
	MaterialTypePhong
	MaterialTypePbrMetallicRoughness
	MaterialTypePbrSpecularGlossiness
	MaterialTypePbrClearCoat
)

var materialTypeNames = []struct {
	bit  MaterialTypes
	name string
}{
	{MaterialTypeFlat, "Flat"},
	{MaterialTypePhong, "Phong"},
	{MaterialTypePbrMetallicRoughness, "PbrMetallicRoughness"},
	{MaterialTypePbrSpecularGlossiness, "PbrSpecularGlossiness"},
	{MaterialTypePbrClearCoat, "PbrClearCoat"},
}

// String returns a "|"-joined list of set type names.
func (t MaterialTypes) String() string {
	if t == 0 {
		return "None"
	}
	var parts []string
	for _, n := range materialTypeNames {
		if t&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// Well-known material attribute names. Values are comparable Go types:
// bool, float32, uint32, Color (RGBA), Matrix3 or string.
const (
	MaterialAmbientColor                = "AmbientColor"
	MaterialAmbientTexture              = "AmbientTexture"
	MaterialAmbientTextureMatrix        = "AmbientTextureMatrix"
	MaterialAmbientTextureCoordinates   = "AmbientTextureCoordinates"
	MaterialAmbientTextureLayer         = "AmbientTextureLayer"
	MaterialDiffuseColor                = "DiffuseColor"
	MaterialDiffuseTexture              = "DiffuseTexture"
	MaterialDiffuseTextureMatrix        = "DiffuseTextureMatrix"
	MaterialDiffuseTextureCoordinates   = "DiffuseTextureCoordinates"
	MaterialDiffuseTextureLayer         = "DiffuseTextureLayer"
	MaterialSpecularColor               = "SpecularColor"
	MaterialSpecularTexture             = "SpecularTexture"
	MaterialSpecularTextureMatrix       = "SpecularTextureMatrix"
	MaterialSpecularTextureCoordinates  = "SpecularTextureCoordinates"
	MaterialSpecularTextureLayer        = "SpecularTextureLayer"
	MaterialShininess                   = "Shininess"
	MaterialBaseColor                   = "BaseColor"
	MaterialBaseColorTexture            = "BaseColorTexture"
	MaterialBaseColorTextureMatrix      = "BaseColorTextureMatrix"
	MaterialBaseColorTextureCoordinates = "BaseColorTextureCoordinates"
	MaterialBaseColorTextureLayer       = "BaseColorTextureLayer"
	MaterialMetalness                   = "Metalness"
	MaterialRoughness                   = "Roughness"
	MaterialAlphaMask                   = "AlphaMask"
	MaterialDoubleSided                 = "DoubleSided"
	MaterialLayerName                   = "LayerName"
	MaterialLayerFactor                 = "LayerFactor"
)

// Color is an RGBA color material attribute value.
type Color [4]float32

// Matrix3 is a 3x3 texture transformation matrix attribute value, stored
// column-major.
type Matrix3 [9]float32

// MaterialAttribute is one named material property. Values must be
// comparable types so that structural material equality works via plain
// interface comparison.
type MaterialAttribute struct {
	Name  string
	Value any
}

// MaterialData is a list of material attributes split into layers. Layer 0
// is the base material; Layers holds one past the last attribute index of
// each layer (empty meaning a single base layer covering everything).
type MaterialData struct {
	Types      MaterialTypes
	Attributes []MaterialAttribute
	Layers     []uint32
}

// LayerCount returns the number of layers, at least 1.
func (m *MaterialData) LayerCount() int {
	if len(m.Layers) == 0 {
		return 1
	}
	return len(m.Layers)
}

// layerRange returns the attribute index range of the given layer.
func (m *MaterialData) layerRange(layer int) (int, int) {
	if len(m.Layers) == 0 {
		if layer != 0 {
			return 0, 0
		}
		return 0, len(m.Attributes)
	}
	start := 0
	if layer > 0 {
		start = int(m.Layers[layer-1])
	}
	return start, int(m.Layers[layer])
}

// LayerAttributes returns the attributes of the given layer.
func (m *MaterialData) LayerAttributes(layer int) []MaterialAttribute {
	start, end := m.layerRange(layer)
	return m.Attributes[start:end]
}

// Attribute returns the value of the named attribute in the base layer, or
// false if not present.
func (m *MaterialData) Attribute(name string) (any, bool) {
	for _, a := range m.LayerAttributes(0) {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// Has returns whether the base layer contains the named attribute.
func (m *MaterialData) Has(name string) bool {
	_, ok := m.Attribute(name)
	return ok
}

// normalizedAttributes returns the attributes of one layer sorted by name,
// used for structural comparison.
func (m *MaterialData) normalizedAttributes(layer int) []MaterialAttribute {
	attrs := m.LayerAttributes(layer)
	out := make([]MaterialAttribute, len(attrs))
	copy(out, attrs)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// MaterialsEqual compares two materials for full structural equality:
// types, layer structure and per-layer attribute content, with attribute
// order normalized away.
func MaterialsEqual(a, b *MaterialData) bool {
	if a.Types != b.Types || a.LayerCount() != b.LayerCount() {
		return false
	}
	for layer := 0; layer < a.LayerCount(); layer++ {
		na := a.normalizedAttributes(layer)
		nb := b.normalizedAttributes(layer)
		if len(na) != len(nb) {
			return false
		}
		for i := range na {
			if na[i] != nb[i] {
				return false
			}
		}
	}
	return true
}
