package trade

import "fmt"

// AddImporterContents feeds everything the opened importer exposes, or
// the requested subset of it, into the conversion in progress. Contents
// the converter cannot accept are a caller error and panic; use
// AddSupportedImporterContents to silently narrow to what the converter
// takes. Multi-level meshes or images hitting a converter without level
// support are a runtime error instead, the level counts are only known
// once the data is opened.
//
// Categories are added in dependency order so that cross-references of
// earlier-added data always resolve: images, textures, materials, then
// meshes, lights, cameras and skins, then scenes and finally animations.
// Data names and custom field and attribute names are propagated when
// SceneContentNames is requested.
func (c *Converter) AddImporterContents(imp Importer, contents SceneContents) error {
	c.requireConverting("AddImporterContents")
	if !imp.IsOpened() {
		panic("trade.Converter.AddImporterContents(): the importer is not opened")
	}
	levelBits := SceneContentMeshLevels | SceneContentImageLevels
	if unsupported := contents &^ c.Features().supportedContents() &^ levelBits; unsupported != 0 {
		panic(fmt.Sprintf("trade.Converter.AddImporterContents(): %v not supported by the converter", unsupported))
	}
	return c.addContents(imp, contents)
}

// AddSupportedImporterContents is AddImporterContents narrowed to the
// intersection of the requested contents and what the converter
// supports. Every skipped non-empty category is logged as a warning;
// multi-level meshes and images degrade to their first level when the
// converter cannot take levels.
func (c *Converter) AddSupportedImporterContents(imp Importer, contents SceneContents) error {
	c.requireConverting("AddSupportedImporterContents")
	if !imp.IsOpened() {
		panic("trade.Converter.AddSupportedImporterContents(): the importer is not opened")
	}
	supported := c.Features().supportedContents()
	if skipped := contents &^ supported; skipped != 0 {
		c.warnSkipped(imp, skipped)
	}
	return c.addContents(imp, contents&supported)
}

func (c *Converter) warnSkipped(imp Importer, skipped SceneContents) {
	if c.flags&FlagQuiet != 0 {
		return
	}
	counts := []struct {
		bit  SceneContents
		n    int
		kind string
	}{
		{SceneContentScenes, imp.SceneCount(), "scenes"},
		{SceneContentAnimations, imp.AnimationCount(), "animations"},
		{SceneContentLights, imp.LightCount(), "lights"},
		{SceneContentCameras, imp.CameraCount(), "cameras"},
		{SceneContentSkins2D, imp.Skin2DCount(), "2D skins"},
		{SceneContentSkins3D, imp.Skin3DCount(), "3D skins"},
		{SceneContentMeshes, imp.MeshCount(), "meshes"},
		{SceneContentMaterials, imp.MaterialCount(), "materials"},
		{SceneContentTextures, imp.TextureCount(), "textures"},
		{SceneContentImages1D, imp.Image1DCount(), "1D images"},
		{SceneContentImages2D, imp.Image2DCount(), "2D images"},
		{SceneContentImages3D, imp.Image3DCount(), "3D images"},
	}
	for _, e := range counts {
		if skipped&e.bit != 0 && e.n > 0 {
			log.Warn(fmt.Sprintf("ignoring %d %s not supported by the converter", e.n, e.kind))
		}
	}
	if skipped&SceneContentMeshLevels != 0 {
		log.Warn("ignoring extra mesh levels not supported by the converter")
	}
	if skipped&SceneContentImageLevels != 0 {
		log.Warn("ignoring extra image levels not supported by the converter")
	}
}

func (c *Converter) addContents(imp Importer, contents SceneContents) error {
	names := contents&SceneContentNames != 0

	if contents&SceneContentImages1D != 0 {
		if err := c.addImporterImages(imp, 1, contents, names); err != nil {
			return err
		}
	}
	if contents&SceneContentImages2D != 0 {
		if err := c.addImporterImages(imp, 2, contents, names); err != nil {
			return err
		}
	}
	if contents&SceneContentImages3D != 0 {
		if err := c.addImporterImages(imp, 3, contents, names); err != nil {
			return err
		}
	}

	if contents&SceneContentTextures != 0 {
		n := imp.TextureCount()
		for i := 0; i < n; i++ {
			c.progress("texture", i, n)
			texture, err := imp.Texture(i)
			if err != nil {
				return fmt.Errorf("adding texture %d: %w", i, err)
			}
			if _, err := c.AddTexture(texture, dataName(names, imp.TextureName, i)); err != nil {
				return fmt.Errorf("adding texture %d: %w", i, err)
			}
		}
	}

	if contents&SceneContentMaterials != 0 {
		n := imp.MaterialCount()
		for i := 0; i < n; i++ {
			c.progress("material", i, n)
			material, err := imp.Material(i)
			if err != nil {
				return fmt.Errorf("adding material %d: %w", i, err)
			}
			if _, err := c.AddMaterial(material, dataName(names, imp.MaterialName, i)); err != nil {
				return fmt.Errorf("adding material %d: %w", i, err)
			}
		}
	}

	if contents&SceneContentMeshes != 0 {
		if err := c.addImporterMeshes(imp, contents, names); err != nil {
			return err
		}
	}

	if contents&SceneContentLights != 0 {
		n := imp.LightCount()
		for i := 0; i < n; i++ {
			c.progress("light", i, n)
			light, err := imp.Light(i)
			if err != nil {
				return fmt.Errorf("adding light %d: %w", i, err)
			}
			if _, err := c.AddLight(light, dataName(names, imp.LightName, i)); err != nil {
				return fmt.Errorf("adding light %d: %w", i, err)
			}
		}
	}

	if contents&SceneContentCameras != 0 {
		n := imp.CameraCount()
		for i := 0; i < n; i++ {
			c.progress("camera", i, n)
			camera, err := imp.Camera(i)
			if err != nil {
				return fmt.Errorf("adding camera %d: %w", i, err)
			}
			if _, err := c.AddCamera(camera, dataName(names, imp.CameraName, i)); err != nil {
				return fmt.Errorf("adding camera %d: %w", i, err)
			}
		}
	}

	if contents&SceneContentSkins2D != 0 {
		n := imp.Skin2DCount()
		for i := 0; i < n; i++ {
			c.progress("2D skin", i, n)
			skin, err := imp.Skin2D(i)
			if err != nil {
				return fmt.Errorf("adding 2D skin %d: %w", i, err)
			}
			if _, err := c.AddSkin2D(skin, dataName(names, imp.Skin2DName, i)); err != nil {
				return fmt.Errorf("adding 2D skin %d: %w", i, err)
			}
		}
	}

	if contents&SceneContentSkins3D != 0 {
		n := imp.Skin3DCount()
		for i := 0; i < n; i++ {
			c.progress("3D skin", i, n)
			skin, err := imp.Skin3D(i)
			if err != nil {
				return fmt.Errorf("adding 3D skin %d: %w", i, err)
			}
			if _, err := c.AddSkin3D(skin, dataName(names, imp.Skin3DName, i)); err != nil {
				return fmt.Errorf("adding 3D skin %d: %w", i, err)
			}
		}
	}

	if contents&SceneContentScenes != 0 {
		if err := c.addImporterScenes(imp, names); err != nil {
			return err
		}
	}

	if contents&SceneContentAnimations != 0 {
		n := imp.AnimationCount()
		for i := 0; i < n; i++ {
			c.progress("animation", i, n)
			animation, err := imp.Animation(i)
			if err != nil {
				return fmt.Errorf("adding animation %d: %w", i, err)
			}
			if names {
				for _, track := range animation.Tracks {
					if !IsAnimationTrackTargetCustom(track.Target) {
						continue
					}
					if name := imp.AnimationTrackTargetName(track.Target); name != "" {
						c.SetAnimationTrackTargetName(track.Target, name)
					}
				}
			}
			if _, err := c.AddAnimation(animation, dataName(names, imp.AnimationName, i)); err != nil {
				return fmt.Errorf("adding animation %d: %w", i, err)
			}
		}
	}

	return nil
}

func (c *Converter) addImporterMeshes(imp Importer, contents SceneContents, names bool) error {
	features := c.Features()
	n := imp.MeshCount()
	for i := 0; i < n; i++ {
		c.progress("mesh", i, n)
		levelCount := 1
		if contents&SceneContentMeshLevels != 0 {
			levelCount = imp.MeshLevelCount(i)
			if levelCount > 1 && features&FeatureMeshLevels == 0 {
				return fmt.Errorf("adding mesh %d: %d levels not supported by the converter", i, levelCount)
			}
		}
		levels := make([]*MeshData, levelCount)
		for l := range levels {
			mesh, err := imp.Mesh(i, l)
			if err != nil {
				return fmt.Errorf("adding mesh %d: %w", i, err)
			}
			levels[l] = mesh
		}
		if names {
			for _, mesh := range levels {
				for _, a := range mesh.Attributes {
					if !IsMeshAttributeCustom(a.Name) {
						continue
					}
					if name := imp.MeshAttributeName(a.Name); name != "" {
						c.SetMeshAttributeName(a.Name, name)
					}
				}
			}
		}
		var err error
		if len(levels) > 1 {
			_, err = c.AddMeshLevels(levels, dataName(names, imp.MeshName, i))
		} else {
			_, err = c.AddMesh(levels[0], dataName(names, imp.MeshName, i))
		}
		if err != nil {
			return fmt.Errorf("adding mesh %d: %w", i, err)
		}
	}
	return nil
}

// addImporterImages handles one image dimensionality. Compressed images
// hitting a converter that only takes uncompressed ones (or vice versa)
// are a runtime failure since the content bits do not distinguish
// compression.
func (c *Converter) addImporterImages(imp Importer, dimensions int, contents SceneContents, names bool) error {
	var (
		count      func() int
		levelCount func(int) int
		image      func(int, int) (*ImageData, error)
		name       func(int) string
		kind       string
	)
	switch dimensions {
	case 1:
		count, levelCount, image, name, kind = imp.Image1DCount, imp.Image1DLevelCount, imp.Image1D, imp.Image1DName, "1D image"
	case 2:
		count, levelCount, image, name, kind = imp.Image2DCount, imp.Image2DLevelCount, imp.Image2D, imp.Image2DName, "2D image"
	default:
		count, levelCount, image, name, kind = imp.Image3DCount, imp.Image3DLevelCount, imp.Image3D, imp.Image3DName, "3D image"
	}

	features := c.Features()
	n := count()
	for i := 0; i < n; i++ {
		c.progress(kind, i, n)
		levels := 1
		if contents&SceneContentImageLevels != 0 {
			levels = levelCount(i)
			if levels > 1 && features&FeatureImageLevels == 0 {
				return fmt.Errorf("adding %s %d: %d levels not supported by the converter", kind, i, levels)
			}
		}
		images := make([]*ImageData, levels)
		for l := range images {
			img, err := image(i, l)
			if err != nil {
				return fmt.Errorf("adding %s %d: %w", kind, i, err)
			}
			images[l] = img
		}
		if features&imageFeature(dimensions, images[0].Compressed) == 0 {
			if images[0].Compressed {
				return fmt.Errorf("adding %s %d: compressed images not supported by the converter", kind, i)
			}
			return fmt.Errorf("adding %s %d: uncompressed images not supported by the converter", kind, i)
		}

		var err error
		if len(images) > 1 {
			switch dimensions {
			case 1:
				_, err = c.AddImage1DLevels(images, dataName(names, name, i))
			case 2:
				_, err = c.AddImage2DLevels(images, dataName(names, name, i))
			default:
				_, err = c.AddImage3DLevels(images, dataName(names, name, i))
			}
		} else {
			switch dimensions {
			case 1:
				_, err = c.AddImage1D(images[0], dataName(names, name, i))
			case 2:
				_, err = c.AddImage2D(images[0], dataName(names, name, i))
			default:
				_, err = c.AddImage3D(images[0], dataName(names, name, i))
			}
		}
		if err != nil {
			return fmt.Errorf("adding %s %d: %w", kind, i, err)
		}
	}
	return nil
}

func (c *Converter) addImporterScenes(imp Importer, names bool) error {
	n := imp.SceneCount()
	for i := 0; i < n; i++ {
		c.progress("scene", i, n)
		scene, err := imp.Scene(i)
		if err != nil {
			return fmt.Errorf("adding scene %d: %w", i, err)
		}
		if names {
			for _, f := range scene.Fields {
				if !IsSceneFieldCustom(f.Field) {
					continue
				}
				if name := imp.SceneFieldName(f.Field); name != "" {
					c.SetSceneFieldName(f.Field, name)
				}
			}
		}
		if _, err := c.AddScene(scene, dataName(names, imp.SceneName, i)); err != nil {
			return fmt.Errorf("adding scene %d: %w", i, err)
		}
		if names {
			for object := uint64(0); object < scene.MappingBound; object++ {
				if name := imp.ObjectName(object); name != "" {
					c.SetObjectName(object, name)
				}
			}
		}
	}
	if def := imp.DefaultScene(); def >= 0 && def < c.counts.scenes {
		c.SetDefaultScene(def)
	}
	return nil
}

func (c *Converter) progress(kind string, i, n int) {
	if c.flags&FlagVerbose != 0 {
		log.Info(fmt.Sprintf("adding %s %d out of %d", kind, i, n))
	}
}

func dataName(names bool, get func(int) string, i int) string {
	if !names {
		return ""
	}
	return get(i)
}
