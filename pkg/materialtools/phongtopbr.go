// Package materialtools provides material transformations: shading model
// conversion and duplicate removal.
package materialtools

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/assettools/sceneforge/pkg/trade"
)

var log = zap.NewNop()

// SetLogger routes conversion warnings through the given logger.
// Defaults to a no-op.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	log = l
}

// ConversionFlags adjust how PhongToPbrMetallicRoughness treats
// attributes that have no PBR equivalent.
type ConversionFlags uint8

const (
	// KeepOriginalAttributes keeps the Phong attributes (both converted
	// and unconvertible ones) next to their PBR replacements instead of
	// dropping them.
	KeepOriginalAttributes ConversionFlags = 1 << iota

	// FailOnUnconvertible turns unconvertible attributes into an error
	// instead of a warning.
	FailOnUnconvertible
)

// phongToPbrNames maps convertible Phong attributes to their PBR
// metallic/roughness equivalents. The three texture satellites convert
// only together with the texture itself.
var phongToPbrNames = map[string]string{
	trade.MaterialDiffuseColor:              trade.MaterialBaseColor,
	trade.MaterialDiffuseTexture:            trade.MaterialBaseColorTexture,
	trade.MaterialDiffuseTextureMatrix:      trade.MaterialBaseColorTextureMatrix,
	trade.MaterialDiffuseTextureCoordinates: trade.MaterialBaseColorTextureCoordinates,
	trade.MaterialDiffuseTextureLayer:       trade.MaterialBaseColorTextureLayer,
}

// unconvertibleNames lists Phong attributes with no PBR equivalent.
var unconvertibleNames = map[string]bool{
	trade.MaterialAmbientColor:               true,
	trade.MaterialAmbientTexture:             true,
	trade.MaterialAmbientTextureMatrix:       true,
	trade.MaterialAmbientTextureCoordinates:  true,
	trade.MaterialAmbientTextureLayer:        true,
	trade.MaterialSpecularColor:              true,
	trade.MaterialSpecularTexture:            true,
	trade.MaterialSpecularTextureMatrix:      true,
	trade.MaterialSpecularTextureCoordinates: true,
	trade.MaterialSpecularTextureLayer:       true,
	trade.MaterialShininess:                  true,
}

// PhongToPbrMetallicRoughness converts the Phong attributes of the base
// layer to their PBR metallic/roughness equivalents. Attributes the PBR
// model already has win over converted ones. Unconvertible attributes
// are dropped with a warning by default; with FailOnUnconvertible the
// first one is an error and with KeepOriginalAttributes everything Phong
// stays in the output alongside the conversion result. Extra layers are
// carried over unchanged.
func PhongToPbrMetallicRoughness(material *trade.MaterialData, flags ConversionFlags) (*trade.MaterialData, error) {
	keep := flags&KeepOriginalAttributes != 0
	base := material.LayerAttributes(0)

	// Texture satellites only make sense when the texture they describe
	// converts too.
	hasDiffuseTexture := material.Has(trade.MaterialDiffuseTexture)

	var out []trade.MaterialAttribute
	var converted []trade.MaterialAttribute
	for _, a := range base {
		target, convertible := phongToPbrNames[a.Name]
		unconvertible := unconvertibleNames[a.Name]
		if convertible && isTextureSatellite(a.Name) && !hasDiffuseTexture {
			convertible = false
			unconvertible = true
		}

		switch {
		case convertible:
			if !material.Has(target) {
				converted = append(converted, trade.MaterialAttribute{Name: target, Value: a.Value})
			}
			if keep {
				out = append(out, a)
			}
		case unconvertible:
			if flags&FailOnUnconvertible != 0 {
				return nil, fmt.Errorf("unable to convert material attribute %s", a.Name)
			}
			log.Warn(fmt.Sprintf("unable to convert material attribute %s, skipping", a.Name))
			if keep {
				out = append(out, a)
			}
		default:
			out = append(out, a)
		}
	}
	out = append(out, converted...)

	types := material.Types | trade.MaterialTypePbrMetallicRoughness
	if !keep {
		types &^= trade.MaterialTypePhong
	}

	result := &trade.MaterialData{Types: types, Attributes: out}
	if material.LayerCount() > 1 {
		layers := []uint32{uint32(len(out))}
		for layer := 1; layer < material.LayerCount(); layer++ {
			result.Attributes = append(result.Attributes, material.LayerAttributes(layer)...)
			layers = append(layers, uint32(len(result.Attributes)))
		}
		result.Layers = layers
	}
	return result, nil
}

func isTextureSatellite(name string) bool {
	switch name {
	case trade.MaterialDiffuseTextureMatrix,
		trade.MaterialDiffuseTextureCoordinates,
		trade.MaterialDiffuseTextureLayer:
		return true
	}
	return false
}
