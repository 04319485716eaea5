package trade

import "strings"

// ConverterFeatures is the capability set a converter backend advertises.
// The Converter front-end checks it at every call boundary; calling an
// operation whose feature bit isn't set is a programmer error.
type ConverterFeatures uint32

const (
	// FeatureConvertMesh allows converting a single mesh to a mesh.
	FeatureConvertMesh ConverterFeatures = 1 << iota

	// FeatureConvertMeshInPlace allows mutating a single mesh in place.
	FeatureConvertMeshInPlace

	// FeatureConvertMeshToFile allows writing a single mesh to a file.
	FeatureConvertMeshToFile

	// FeatureConvertMeshToData allows serializing a single mesh to a byte
	// blob. Implies FeatureConvertMeshToFile.
	FeatureConvertMeshToData

	// FeatureConvertMultiple allows a Begin/Add/End session producing an
	// importer-shaped in-memory result.
	FeatureConvertMultiple

	// FeatureConvertMultipleToFile allows a BeginFile/Add/EndFile session.
	FeatureConvertMultipleToFile

	// FeatureConvertMultipleToData allows a BeginData/Add/EndData session.
	// Implies FeatureConvertMultipleToFile.
	FeatureConvertMultipleToData

	FeatureAddScenes
	FeatureAddAnimations
	FeatureAddLights
	FeatureAddCameras
	FeatureAddSkins2D
	FeatureAddSkins3D
	FeatureAddMeshes
	FeatureAddMaterials
	FeatureAddTextures
	FeatureAddImages1D
	FeatureAddImages2D
	FeatureAddImages3D
	FeatureAddCompressedImages1D
	FeatureAddCompressedImages2D
	FeatureAddCompressedImages3D

	// FeatureMeshLevels allows adding multi-level meshes as one unit.
	FeatureMeshLevels

	// FeatureImageLevels allows adding multi-level images as one unit.
	FeatureImageLevels
)

var converterFeatureNames = []struct {
	bit  ConverterFeatures
	name string
}{
	{FeatureConvertMesh, "ConvertMesh"},
	{FeatureConvertMeshInPlace, "ConvertMeshInPlace"},
	{FeatureConvertMeshToFile, "ConvertMeshToFile"},
	{FeatureConvertMeshToData, "ConvertMeshToData"},
	{FeatureConvertMultiple, "ConvertMultiple"},
	{FeatureConvertMultipleToFile, "ConvertMultipleToFile"},
	{FeatureConvertMultipleToData, "ConvertMultipleToData"},
	{FeatureAddScenes, "AddScenes"},
	{FeatureAddAnimations, "AddAnimations"},
	{FeatureAddLights, "AddLights"},
	{FeatureAddCameras, "AddCameras"},
	{FeatureAddSkins2D, "AddSkins2D"},
	{FeatureAddSkins3D, "AddSkins3D"},
	{FeatureAddMeshes, "AddMeshes"},
	{FeatureAddMaterials, "AddMaterials"},
	{FeatureAddTextures, "AddTextures"},
	{FeatureAddImages1D, "AddImages1D"},
	{FeatureAddImages2D, "AddImages2D"},
	{FeatureAddImages3D, "AddImages3D"},
	{FeatureAddCompressedImages1D, "AddCompressedImages1D"},
	{FeatureAddCompressedImages2D, "AddCompressedImages2D"},
	{FeatureAddCompressedImages3D, "AddCompressedImages3D"},
	{FeatureMeshLevels, "MeshLevels"},
	{FeatureImageLevels, "ImageLevels"},
}

// String returns a "|"-joined list of set feature names.
func (f ConverterFeatures) String() string {
	if f == 0 {
		return "None"
	}
	var parts []string
	for _, n := range converterFeatureNames {
		if f&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// normalized returns the features with implied bits filled in:
// ConvertMeshToData implies ConvertMeshToFile and ConvertMultipleToData
// implies ConvertMultipleToFile.
func (f ConverterFeatures) normalized() ConverterFeatures {
	if f&FeatureConvertMeshToData != 0 {
		f |= FeatureConvertMeshToFile
	}
	if f&FeatureConvertMultipleToData != 0 {
		f |= FeatureConvertMultipleToFile
	}
	return f
}

// supportedContents translates capability bits into the content categories
// a session on this converter can accept.
func (f ConverterFeatures) supportedContents() SceneContents {
	var c SceneContents = SceneContentNames
	if f&FeatureAddScenes != 0 {
		c |= SceneContentScenes
	}
	if f&FeatureAddAnimations != 0 {
		c |= SceneContentAnimations
	}
	if f&FeatureAddLights != 0 {
		c |= SceneContentLights
	}
	if f&FeatureAddCameras != 0 {
		c |= SceneContentCameras
	}
	if f&FeatureAddSkins2D != 0 {
		c |= SceneContentSkins2D
	}
	if f&FeatureAddSkins3D != 0 {
		c |= SceneContentSkins3D
	}
	if f&FeatureAddMeshes != 0 {
		c |= SceneContentMeshes
		if f&FeatureMeshLevels != 0 {
			c |= SceneContentMeshLevels
		}
	}
	if f&FeatureAddMaterials != 0 {
		c |= SceneContentMaterials
	}
	if f&FeatureAddTextures != 0 {
		c |= SceneContentTextures
	}
	if f&(FeatureAddImages1D|FeatureAddCompressedImages1D) != 0 {
		c |= SceneContentImages1D
	}
	if f&(FeatureAddImages2D|FeatureAddCompressedImages2D) != 0 {
		c |= SceneContentImages2D
	}
	if f&(FeatureAddImages3D|FeatureAddCompressedImages3D) != 0 {
		c |= SceneContentImages3D
	}
	if f&FeatureImageLevels != 0 &&
		c&(SceneContentImages1D|SceneContentImages2D|SceneContentImages3D) != 0 {
		c |= SceneContentImageLevels
	}
	return c
}

// ConverterFlags adjust converter diagnostics.
type ConverterFlags uint8

const (
	// FlagQuiet suppresses all warnings and non-fatal diagnostics.
	FlagQuiet ConverterFlags = 1 << iota

	// FlagVerbose enables progress diagnostics from batch operations.
	FlagVerbose
)

// String returns a "|"-joined list of set flag names.
func (f ConverterFlags) String() string {
	if f == 0 {
		return "None"
	}
	var parts []string
	if f&FlagQuiet != 0 {
		parts = append(parts, "Quiet")
	}
	if f&FlagVerbose != 0 {
		parts = append(parts, "Verbose")
	}
	return strings.Join(parts, "|")
}
