// Package trade provides the data model and conversion contracts shared
// between scene importers and scene converters: content classification,
// converter capability flags, payload types for meshes, materials, scenes,
// images and the rest, the Importer interface and the Converter front-end
// with its batch aggregation logic.
package trade

import "strings"

// SceneContents is a set of content categories present in a scene file or
// requested for conversion.
type SceneContents uint32

const (
	SceneContentScenes SceneContents = 1 << iota
	SceneContentAnimations
	SceneContentLights
	SceneContentCameras
	SceneContentSkins2D
	SceneContentSkins3D
	SceneContentMeshes
	SceneContentMaterials
	SceneContentTextures
	SceneContentImages1D
	SceneContentImages2D
	SceneContentImages3D

	// SceneContentMeshLevels selects all levels of multi-level meshes
	// instead of just the first one. Only meaningful together with
	// SceneContentMeshes.
	SceneContentMeshLevels

	// SceneContentImageLevels selects all levels of multi-level images.
	// Only meaningful together with one of the SceneContentImagesND bits.
	SceneContentImageLevels

	// SceneContentNames selects data names and custom field/attribute
	// names. Attached per-item while each category is walked, not in a
	// separate pass.
	SceneContentNames
)

var sceneContentNames = []struct {
	bit  SceneContents
	name string
}{
	{SceneContentScenes, "Scenes"},
	{SceneContentAnimations, "Animations"},
	{SceneContentLights, "Lights"},
	{SceneContentCameras, "Cameras"},
	{SceneContentSkins2D, "Skins2D"},
	{SceneContentSkins3D, "Skins3D"},
	{SceneContentMeshes, "Meshes"},
	{SceneContentMaterials, "Materials"},
	{SceneContentTextures, "Textures"},
	{SceneContentImages1D, "Images1D"},
	{SceneContentImages2D, "Images2D"},
	{SceneContentImages3D, "Images3D"},
	{SceneContentMeshLevels, "MeshLevels"},
	{SceneContentImageLevels, "ImageLevels"},
	{SceneContentNames, "Names"},
}

// String returns a "|"-joined list of set category names.
func (c SceneContents) String() string {
	if c == 0 {
		return "None"
	}
	var parts []string
	for _, n := range sceneContentNames {
		if c&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// ContentsFor returns the categories the importer actually exposes, with
// level bits set when any mesh or image has more than one level. Names are
// always reported as present since there is no cheap way to know whether an
// importer has any.
func ContentsFor(imp Importer) SceneContents {
	c := SceneContentNames
	if imp.SceneCount() > 0 {
		c |= SceneContentScenes
	}
	if imp.AnimationCount() > 0 {
		c |= SceneContentAnimations
	}
	if imp.LightCount() > 0 {
		c |= SceneContentLights
	}
	if imp.CameraCount() > 0 {
		c |= SceneContentCameras
	}
	if imp.Skin2DCount() > 0 {
		c |= SceneContentSkins2D
	}
	if imp.Skin3DCount() > 0 {
		c |= SceneContentSkins3D
	}
	if n := imp.MeshCount(); n > 0 {
		c |= SceneContentMeshes
		for i := 0; i < n; i++ {
			if imp.MeshLevelCount(i) > 1 {
				c |= SceneContentMeshLevels
				break
			}
		}
	}
	if imp.MaterialCount() > 0 {
		c |= SceneContentMaterials
	}
	if imp.TextureCount() > 0 {
		c |= SceneContentTextures
	}
	if n := imp.Image1DCount(); n > 0 {
		c |= SceneContentImages1D
		for i := 0; i < n; i++ {
			if imp.Image1DLevelCount(i) > 1 {
				c |= SceneContentImageLevels
				break
			}
		}
	}
	if n := imp.Image2DCount(); n > 0 {
		c |= SceneContentImages2D
		for i := 0; i < n; i++ {
			if imp.Image2DLevelCount(i) > 1 {
				c |= SceneContentImageLevels
				break
			}
		}
	}
	if n := imp.Image3DCount(); n > 0 {
		c |= SceneContentImages3D
		for i := 0; i < n; i++ {
			if imp.Image3DLevelCount(i) > 1 {
				c |= SceneContentImageLevels
				break
			}
		}
	}
	return c
}
