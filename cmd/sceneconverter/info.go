package main

import (
	"fmt"
	"strings"

	"github.com/assettools/sceneforge/pkg/trade"
)

// references holds cross-reference counts gathered from the whole file,
// printed next to each item.
type references struct {
	objectsPerMesh     map[uint32]int
	objectsPerMaterial map[uint32]int
	objectsPerLight    map[uint32]int
	objectsPerCamera   map[uint32]int
	objectsPerSkin     map[uint32]int

	materialsPerTexture map[uint32]int
	texturesPerImage    map[int]map[uint32]int
}

func gatherReferences(imp trade.Importer) (*references, error) {
	refs := &references{
		objectsPerMesh:      map[uint32]int{},
		objectsPerMaterial:  map[uint32]int{},
		objectsPerLight:     map[uint32]int{},
		objectsPerCamera:    map[uint32]int{},
		objectsPerSkin:      map[uint32]int{},
		materialsPerTexture: map[uint32]int{},
		texturesPerImage: map[int]map[uint32]int{
			1: {}, 2: {}, 3: {},
		},
	}

	for i := 0; i < imp.SceneCount(); i++ {
		scene, err := imp.Scene(i)
		if err != nil {
			return nil, fmt.Errorf("scene %d: %w", i, err)
		}
		for f := range scene.Fields {
			field := scene.Field(f)
			var counts map[uint32]int
			switch field.Field {
			case trade.SceneFieldMesh:
				counts = refs.objectsPerMesh
			case trade.SceneFieldMeshMaterial:
				counts = refs.objectsPerMaterial
			case trade.SceneFieldLight:
				counts = refs.objectsPerLight
			case trade.SceneFieldCamera:
				counts = refs.objectsPerCamera
			case trade.SceneFieldSkin:
				counts = refs.objectsPerSkin
			default:
				continue
			}
			for e := 0; e < field.Len(); e++ {
				if v := field.ValueInt(e); v >= 0 {
					counts[uint32(v)]++
				}
			}
		}
	}

	for i := 0; i < imp.MaterialCount(); i++ {
		material, err := imp.Material(i)
		if err != nil {
			return nil, fmt.Errorf("material %d: %w", i, err)
		}
		seen := map[uint32]bool{}
		for _, attr := range material.Attributes {
			if !strings.HasSuffix(attr.Name, "Texture") {
				continue
			}
			if v, ok := attr.Value.(uint32); ok && !seen[v] {
				seen[v] = true
				refs.materialsPerTexture[v]++
			}
		}
	}

	for i := 0; i < imp.TextureCount(); i++ {
		texture, err := imp.Texture(i)
		if err != nil {
			return nil, fmt.Errorf("texture %d: %w", i, err)
		}
		refs.texturesPerImage[texture.Type.ImageDimensions()][texture.Image]++
	}
	return refs, nil
}

func nameSuffix(name string) string {
	if name == "" {
		return ""
	}
	return fmt.Sprintf(" (%q)", name)
}

func plural(n int, kind string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, kind)
	}
	switch kind {
	case "entry":
		kind = "entries"
	case "vertex":
		kind = "vertices"
	case "index":
		kind = "indices"
	default:
		kind += "s"
	}
	return fmt.Sprintf("%d %s", n, kind)
}

// printInfo prints what the input file contains. --info selects all
// categories, the more specific flags narrow to one each.
func printInfo(imp trade.Importer, opts options) error {
	refs, err := gatherReferences(imp)
	if err != nil {
		return err
	}

	if opts.info || opts.infoScenes {
		if err := printSceneInfo(imp); err != nil {
			return err
		}
	}
	if opts.info || opts.infoAnimations {
		for i := 0; i < imp.AnimationCount(); i++ {
			animation, err := imp.Animation(i)
			if err != nil {
				return fmt.Errorf("animation %d: %w", i, err)
			}
			fmt.Printf("Animation %d%s: %s, %.3f - %.3f seconds\n",
				i, nameSuffix(imp.AnimationName(i)),
				plural(len(animation.Tracks), "track"),
				animation.Duration[0], animation.Duration[1])
		}
	}
	if opts.info || opts.infoLights {
		for i := 0; i < imp.LightCount(); i++ {
			light, err := imp.Light(i)
			if err != nil {
				return fmt.Errorf("light %d: %w", i, err)
			}
			fmt.Printf("Light %d%s: %v, referenced by %s\n",
				i, nameSuffix(imp.LightName(i)), light.Type,
				plural(refs.objectsPerLight[uint32(i)], "object"))
		}
	}
	if opts.info || opts.infoCameras {
		for i := 0; i < imp.CameraCount(); i++ {
			if _, err := imp.Camera(i); err != nil {
				return fmt.Errorf("camera %d: %w", i, err)
			}
			fmt.Printf("Camera %d%s: referenced by %s\n",
				i, nameSuffix(imp.CameraName(i)),
				plural(refs.objectsPerCamera[uint32(i)], "object"))
		}
	}
	if opts.info || opts.infoSkins {
		for i := 0; i < imp.Skin2DCount(); i++ {
			skin, err := imp.Skin2D(i)
			if err != nil {
				return fmt.Errorf("2D skin %d: %w", i, err)
			}
			fmt.Printf("2D skin %d%s: %s\n",
				i, nameSuffix(imp.Skin2DName(i)), plural(len(skin.Joints), "joint"))
		}
		for i := 0; i < imp.Skin3DCount(); i++ {
			skin, err := imp.Skin3D(i)
			if err != nil {
				return fmt.Errorf("3D skin %d: %w", i, err)
			}
			fmt.Printf("3D skin %d%s: %s, referenced by %s\n",
				i, nameSuffix(imp.Skin3DName(i)), plural(len(skin.Joints), "joint"),
				plural(refs.objectsPerSkin[uint32(i)], "object"))
		}
	}
	if opts.info || opts.infoMeshes {
		if err := printMeshInfo(imp, refs); err != nil {
			return err
		}
	}
	if opts.info || opts.infoMaterials {
		if err := printMaterialInfo(imp, refs); err != nil {
			return err
		}
	}
	if opts.info || opts.infoTextures {
		for i := 0; i < imp.TextureCount(); i++ {
			texture, err := imp.Texture(i)
			if err != nil {
				return fmt.Errorf("texture %d: %w", i, err)
			}
			fmt.Printf("Texture %d%s: %v, image %d, referenced by %s\n",
				i, nameSuffix(imp.TextureName(i)), texture.Type, texture.Image,
				plural(refs.materialsPerTexture[uint32(i)], "material"))
		}
	}
	if opts.info || opts.infoImages {
		printImageInfo(imp)
	}
	return nil
}

func printSceneInfo(imp trade.Importer) error {
	if def := imp.DefaultScene(); def != -1 {
		fmt.Printf("Default scene: %d\n", def)
	}
	for i := 0; i < imp.SceneCount(); i++ {
		scene, err := imp.Scene(i)
		if err != nil {
			return fmt.Errorf("scene %d: %w", i, err)
		}
		fmt.Printf("Scene %d%s: %d objects\n", i, nameSuffix(imp.SceneName(i)), scene.MappingBound)
		for f := range scene.Fields {
			field := scene.Field(f)
			name := field.Field.String()
			if trade.IsSceneFieldCustom(field.Field) {
				if custom := imp.SceneFieldName(field.Field); custom != "" {
					name = custom
				}
			}
			fmt.Printf("  Field %s @ %v, %s\n", name, field.Type, plural(field.Len(), "entry"))
		}
	}
	return nil
}

func printMeshInfo(imp trade.Importer, refs *references) error {
	for i := 0; i < imp.MeshCount(); i++ {
		levels := imp.MeshLevelCount(i)
		for level := 0; level < levels; level++ {
			mesh, err := imp.Mesh(i, level)
			if err != nil {
				return fmt.Errorf("mesh %d level %d: %w", i, level, err)
			}
			head := fmt.Sprintf("Mesh %d%s", i, nameSuffix(imp.MeshName(i)))
			if levels > 1 {
				head = fmt.Sprintf("%s, level %d", head, level)
			}
			indexed := ""
			if mesh.Indexed() {
				indexed = fmt.Sprintf(", %s", plural(len(mesh.Indices), "index"))
			}
			fmt.Printf("%s: %v, %s%s", head, mesh.Primitive,
				plural(mesh.VertexCount, "vertex"), indexed)
			if level == 0 {
				fmt.Printf(", referenced by %s", plural(refs.objectsPerMesh[uint32(i)], "object"))
			}
			fmt.Println()
			for _, attr := range mesh.Attributes {
				name := attr.Name.String()
				if trade.IsMeshAttributeCustom(attr.Name) {
					if custom := imp.MeshAttributeName(attr.Name); custom != "" {
						name = custom
					}
				}
				fmt.Printf("  Attribute %s @ %v\n", name, attr.Format)
			}
		}
	}
	return nil
}

func printMaterialInfo(imp trade.Importer, refs *references) error {
	for i := 0; i < imp.MaterialCount(); i++ {
		material, err := imp.Material(i)
		if err != nil {
			return fmt.Errorf("material %d: %w", i, err)
		}
		layers := ""
		if len(material.Layers) > 0 {
			layers = fmt.Sprintf(", %s", plural(len(material.Layers), "extra layer"))
		}
		fmt.Printf("Material %d%s: %v, %s%s, referenced by %s\n",
			i, nameSuffix(imp.MaterialName(i)), material.Types,
			plural(len(material.Attributes), "attribute"), layers,
			plural(refs.objectsPerMaterial[uint32(i)], "object"))
		for _, attr := range material.Attributes {
			fmt.Printf("  %s = %v\n", attr.Name, attr.Value)
		}
	}
	return nil
}

func printImageInfo(imp trade.Importer) {
	printOne := func(kind string, i int, name string, image *trade.ImageData, levels int) {
		size := fmt.Sprintf("%d", image.Size[0])
		if image.Dimensions >= 2 {
			size += fmt.Sprintf("x%d", image.Size[1])
		}
		if image.Dimensions >= 3 {
			size += fmt.Sprintf("x%d", image.Size[2])
		}
		format := image.Format.String()
		if image.Compressed {
			format = image.CompressedFormat.String()
		}
		extra := ""
		if levels > 1 {
			extra = fmt.Sprintf(", %d levels", levels)
		}
		fmt.Printf("%s image %d%s: %s, %s%s\n", kind, i, nameSuffix(name), size, format, extra)
	}
	for i := 0; i < imp.Image1DCount(); i++ {
		if image, err := imp.Image1D(i, 0); err == nil {
			printOne("1D", i, imp.Image1DName(i), image, imp.Image1DLevelCount(i))
		}
	}
	for i := 0; i < imp.Image2DCount(); i++ {
		if image, err := imp.Image2D(i, 0); err == nil {
			printOne("2D", i, imp.Image2DName(i), image, imp.Image2DLevelCount(i))
		}
	}
	for i := 0; i < imp.Image3DCount(); i++ {
		if image, err := imp.Image3D(i, 0); err == nil {
			printOne("3D", i, imp.Image3DName(i), image, imp.Image3DLevelCount(i))
		}
	}
}
