package trade

import (
	"fmt"
	"os"
)

// Backend is the minimal surface a converter plugin implements. All
// actual functionality lives in the optional interfaces below; Features
// declares which of them the plugin supports and the Converter front-end
// refuses calls outside of that set.
type Backend interface {
	Features() ConverterFeatures
}

// FlagsSetter is implemented by backends that want to observe the
// quiet/verbose flags set on the front-end.
type FlagsSetter interface {
	SetFlags(ConverterFlags)
}

// BatchBeginner backs FeatureConvertMultiple. End returns an importer
// over the converted result.
type BatchBeginner interface {
	Begin() error
	End() (Importer, error)
}

// DataBeginner backs FeatureConvertMultipleToData.
type DataBeginner interface {
	BeginData() error
	EndData() ([]byte, error)
}

// FileBeginner backs FeatureConvertMultipleToFile. Backends without it
// get a BeginData plus write-file fallback from the front-end.
type FileBeginner interface {
	BeginFile(path string) error
	EndFile() error
}

// Aborter is implemented by backends that need to release resources when
// an in-progress conversion is thrown away. Optional even for batch
// backends; the front-end resets its own state either way.
type Aborter interface {
	Abort()
}

// Per-category batch sinks. A backend implements the ones matching its
// advertised features.
type (
	SceneAdder interface {
		AddScene(scene *SceneData, name string) error
		SetDefaultScene(id int)
		SetSceneFieldName(field SceneField, name string)
		SetObjectName(object uint64, name string)
	}
	AnimationAdder interface {
		AddAnimation(animation *AnimationData, name string) error
		SetAnimationTrackTargetName(target AnimationTrackTarget, name string)
	}
	LightAdder interface {
		AddLight(light *LightData, name string) error
	}
	CameraAdder interface {
		AddCamera(camera *CameraData, name string) error
	}
	Skin2DAdder interface {
		AddSkin2D(skin *SkinData2D, name string) error
	}
	Skin3DAdder interface {
		AddSkin3D(skin *SkinData3D, name string) error
	}
	MeshAdder interface {
		AddMesh(mesh *MeshData, name string) error
		SetMeshAttributeName(attribute MeshAttribute, name string)
	}
	MeshLevelsAdder interface {
		AddMeshLevels(levels []*MeshData, name string) error
	}
	MaterialAdder interface {
		AddMaterial(material *MaterialData, name string) error
	}
	TextureAdder interface {
		AddTexture(texture *TextureData, name string) error
	}
	Image1DAdder interface {
		AddImage1D(image *ImageData, name string) error
	}
	Image2DAdder interface {
		AddImage2D(image *ImageData, name string) error
	}
	Image3DAdder interface {
		AddImage3D(image *ImageData, name string) error
	}
	Image1DLevelsAdder interface {
		AddImage1DLevels(levels []*ImageData, name string) error
	}
	Image2DLevelsAdder interface {
		AddImage2DLevels(levels []*ImageData, name string) error
	}
	Image3DLevelsAdder interface {
		AddImage3DLevels(levels []*ImageData, name string) error
	}
)

// Single-mesh converters, for backends that do whole-mesh transforms
// without a batch session.
type (
	MeshConverter interface {
		ConvertMesh(mesh *MeshData) (*MeshData, error)
	}
	MeshInPlaceConverter interface {
		ConvertMeshInPlace(mesh *MeshData) error
	}
	MeshToDataConverter interface {
		ConvertMeshToData(mesh *MeshData) ([]byte, error)
	}
	MeshToFileConverter interface {
		ConvertMeshToFile(mesh *MeshData, path string) error
	}
)

type sessionKind uint8

const (
	sessionNone sessionKind = iota
	sessionBatch
	sessionData
	sessionFile
)

// batchCounts tracks how many items of each category were added to the
// current session. The value before an Add is the index that Add returns.
type batchCounts struct {
	scenes, animations           int
	lights, cameras              int
	skins2D, skins3D             int
	meshes, materials            int
	textures                     int
	images1D, images2D, images3D int
}

// Converter wraps a Backend with the session state machine, feature
// checking and the fallbacks composing missing capabilities out of
// present ones (file output via in-memory output, single-mesh conversion
// via a one-mesh batch).
//
// Precondition violations (calling an operation the backend does not
// advertise, adding data with no conversion in progress) panic; runtime
// failures are returned as errors.
type Converter struct {
	backend Backend
	flags   ConverterFlags

	kind   sessionKind
	path   string
	counts batchCounts

	// endFileViaData is set when BeginFile fell back to BeginData.
	endFileViaData bool
}

// NewConverter wraps a backend. The backend's feature set is normalized,
// so a backend advertising only in-memory output also accepts file
// output through a fallback.
func NewConverter(backend Backend) *Converter {
	return &Converter{backend: backend}
}

// Backend returns the wrapped backend, for callers that need to reach
// capabilities outside the conversion contract, plugin options mostly.
func (c *Converter) Backend() Backend {
	return c.backend
}

// Features returns the normalized feature set of the wrapped backend.
func (c *Converter) Features() ConverterFeatures {
	return c.backend.Features().normalized()
}

// Flags returns the currently set converter flags.
func (c *Converter) Flags() ConverterFlags { return c.flags }

// SetFlags stores quiet/verbose flags and forwards them to the backend
// if it cares.
func (c *Converter) SetFlags(flags ConverterFlags) {
	c.flags = flags
	if s, ok := c.backend.(FlagsSetter); ok {
		s.SetFlags(flags)
	}
}

// IsConverting reports whether a batch conversion is in progress.
func (c *Converter) IsConverting() bool { return c.kind != sessionNone }

func (c *Converter) require(op string, feature ConverterFeatures) {
	if c.Features()&feature != feature {
		panic(fmt.Sprintf("trade.Converter.%s(): feature not supported", op))
	}
}

func (c *Converter) requireConverting(op string) {
	if c.kind == sessionNone {
		panic(fmt.Sprintf("trade.Converter.%s(): no conversion in progress", op))
	}
}

func (c *Converter) reset() {
	c.kind = sessionNone
	c.path = ""
	c.counts = batchCounts{}
	c.endFileViaData = false
}

// Abort discards an in-progress conversion. A no-op when nothing is in
// progress.
func (c *Converter) Abort() {
	if c.kind == sessionNone {
		return
	}
	if a, ok := c.backend.(Aborter); ok {
		a.Abort()
	}
	c.reset()
}

// Begin starts a batch conversion producing an in-memory result,
// implicitly aborting any conversion already in progress. End retrieves
// the result.
func (c *Converter) Begin() error {
	c.require("Begin", FeatureConvertMultiple)
	c.Abort()
	if err := c.backend.(BatchBeginner).Begin(); err != nil {
		return err
	}
	c.kind = sessionBatch
	return nil
}

// End finishes a batch conversion started with Begin and returns an
// importer over the result.
func (c *Converter) End() (Importer, error) {
	c.requireConverting("End")
	if c.kind != sessionBatch {
		panic("trade.Converter.End(): the conversion was not begun with Begin()")
	}
	imp, err := c.backend.(BatchBeginner).End()
	c.reset()
	return imp, err
}

// BeginData starts a batch conversion producing a byte buffer, implicitly
// aborting any conversion already in progress.
func (c *Converter) BeginData() error {
	c.require("BeginData", FeatureConvertMultipleToData)
	c.Abort()
	if err := c.backend.(DataBeginner).BeginData(); err != nil {
		return err
	}
	c.kind = sessionData
	return nil
}

// EndData finishes a conversion started with BeginData and returns the
// serialized output.
func (c *Converter) EndData() ([]byte, error) {
	c.requireConverting("EndData")
	if c.kind != sessionData {
		panic("trade.Converter.EndData(): the conversion was not begun with BeginData()")
	}
	data, err := c.backend.(DataBeginner).EndData()
	c.reset()
	return data, err
}

// BeginFile starts a batch conversion writing to the given path,
// implicitly aborting any conversion already in progress. Backends that
// only produce in-memory data get the file written by EndFile.
func (c *Converter) BeginFile(path string) error {
	c.require("BeginFile", FeatureConvertMultipleToFile)
	c.Abort()
	if f, ok := c.backend.(FileBeginner); ok {
		if err := f.BeginFile(path); err != nil {
			return err
		}
		c.kind = sessionFile
		c.path = path
		return nil
	}
	if err := c.backend.(DataBeginner).BeginData(); err != nil {
		return err
	}
	c.kind = sessionFile
	c.path = path
	c.endFileViaData = true
	return nil
}

// EndFile finishes a conversion started with BeginFile.
func (c *Converter) EndFile() error {
	c.requireConverting("EndFile")
	if c.kind != sessionFile {
		panic("trade.Converter.EndFile(): the conversion was not begun with BeginFile()")
	}
	if !c.endFileViaData {
		err := c.backend.(FileBeginner).EndFile()
		c.reset()
		return err
	}
	data, err := c.backend.(DataBeginner).EndData()
	path := c.path
	c.reset()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// SceneCount returns how many scenes were added to the current session.
func (c *Converter) SceneCount() int { return c.counts.scenes }

// AddScene adds a scene and returns its index in the output.
func (c *Converter) AddScene(scene *SceneData, name string) (int, error) {
	c.requireConverting("AddScene")
	c.require("AddScene", FeatureAddScenes)
	if err := c.backend.(SceneAdder).AddScene(scene, name); err != nil {
		return 0, err
	}
	id := c.counts.scenes
	c.counts.scenes++
	return id, nil
}

// SetDefaultScene marks one of the added scenes as the default one.
func (c *Converter) SetDefaultScene(id int) {
	c.requireConverting("SetDefaultScene")
	c.require("SetDefaultScene", FeatureAddScenes)
	if id < 0 || id >= c.counts.scenes {
		panic(fmt.Sprintf("trade.Converter.SetDefaultScene(): index %d out of range for %d scenes", id, c.counts.scenes))
	}
	c.backend.(SceneAdder).SetDefaultScene(id)
}

// SetSceneFieldName supplies a string name for a custom scene field.
func (c *Converter) SetSceneFieldName(field SceneField, name string) {
	c.requireConverting("SetSceneFieldName")
	c.require("SetSceneFieldName", FeatureAddScenes)
	if !IsSceneFieldCustom(field) {
		panic(fmt.Sprintf("trade.Converter.SetSceneFieldName(): %v is not a custom field", field))
	}
	c.backend.(SceneAdder).SetSceneFieldName(field, name)
}

// SetObjectName supplies a name for an object referenced by added scenes.
func (c *Converter) SetObjectName(object uint64, name string) {
	c.requireConverting("SetObjectName")
	c.require("SetObjectName", FeatureAddScenes)
	c.backend.(SceneAdder).SetObjectName(object, name)
}

// AnimationCount returns how many animations were added to the current
// session.
func (c *Converter) AnimationCount() int { return c.counts.animations }

// AddAnimation adds an animation and returns its index in the output.
func (c *Converter) AddAnimation(animation *AnimationData, name string) (int, error) {
	c.requireConverting("AddAnimation")
	c.require("AddAnimation", FeatureAddAnimations)
	if err := c.backend.(AnimationAdder).AddAnimation(animation, name); err != nil {
		return 0, err
	}
	id := c.counts.animations
	c.counts.animations++
	return id, nil
}

// SetAnimationTrackTargetName supplies a string name for a custom
// animation track target.
func (c *Converter) SetAnimationTrackTargetName(target AnimationTrackTarget, name string) {
	c.requireConverting("SetAnimationTrackTargetName")
	c.require("SetAnimationTrackTargetName", FeatureAddAnimations)
	if !IsAnimationTrackTargetCustom(target) {
		panic(fmt.Sprintf("trade.Converter.SetAnimationTrackTargetName(): %v is not a custom target", target))
	}
	c.backend.(AnimationAdder).SetAnimationTrackTargetName(target, name)
}

// LightCount returns how many lights were added to the current session.
func (c *Converter) LightCount() int { return c.counts.lights }

// AddLight adds a light and returns its index in the output.
func (c *Converter) AddLight(light *LightData, name string) (int, error) {
	c.requireConverting("AddLight")
	c.require("AddLight", FeatureAddLights)
	if err := c.backend.(LightAdder).AddLight(light, name); err != nil {
		return 0, err
	}
	id := c.counts.lights
	c.counts.lights++
	return id, nil
}

// CameraCount returns how many cameras were added to the current session.
func (c *Converter) CameraCount() int { return c.counts.cameras }

// AddCamera adds a camera and returns its index in the output.
func (c *Converter) AddCamera(camera *CameraData, name string) (int, error) {
	c.requireConverting("AddCamera")
	c.require("AddCamera", FeatureAddCameras)
	if err := c.backend.(CameraAdder).AddCamera(camera, name); err != nil {
		return 0, err
	}
	id := c.counts.cameras
	c.counts.cameras++
	return id, nil
}

// Skin2DCount returns how many 2D skins were added to the current
// session.
func (c *Converter) Skin2DCount() int { return c.counts.skins2D }

// AddSkin2D adds a 2D skin and returns its index in the output.
func (c *Converter) AddSkin2D(skin *SkinData2D, name string) (int, error) {
	c.requireConverting("AddSkin2D")
	c.require("AddSkin2D", FeatureAddSkins2D)
	if err := c.backend.(Skin2DAdder).AddSkin2D(skin, name); err != nil {
		return 0, err
	}
	id := c.counts.skins2D
	c.counts.skins2D++
	return id, nil
}

// Skin3DCount returns how many 3D skins were added to the current
// session.
func (c *Converter) Skin3DCount() int { return c.counts.skins3D }

// AddSkin3D adds a 3D skin and returns its index in the output.
func (c *Converter) AddSkin3D(skin *SkinData3D, name string) (int, error) {
	c.requireConverting("AddSkin3D")
	c.require("AddSkin3D", FeatureAddSkins3D)
	if err := c.backend.(Skin3DAdder).AddSkin3D(skin, name); err != nil {
		return 0, err
	}
	id := c.counts.skins3D
	c.counts.skins3D++
	return id, nil
}

// MeshCount returns how many meshes were added to the current session.
func (c *Converter) MeshCount() int { return c.counts.meshes }

// AddMesh adds a single-level mesh and returns its index in the output.
func (c *Converter) AddMesh(mesh *MeshData, name string) (int, error) {
	c.requireConverting("AddMesh")
	c.require("AddMesh", FeatureAddMeshes)
	if err := c.backend.(MeshAdder).AddMesh(mesh, name); err != nil {
		return 0, err
	}
	id := c.counts.meshes
	c.counts.meshes++
	return id, nil
}

// AddMeshLevels adds a mesh with multiple LOD levels and returns its
// index in the output.
func (c *Converter) AddMeshLevels(levels []*MeshData, name string) (int, error) {
	c.requireConverting("AddMeshLevels")
	c.require("AddMeshLevels", FeatureAddMeshes|FeatureMeshLevels)
	if len(levels) == 0 {
		panic("trade.Converter.AddMeshLevels(): at least one level expected")
	}
	if err := c.backend.(MeshLevelsAdder).AddMeshLevels(levels, name); err != nil {
		return 0, err
	}
	id := c.counts.meshes
	c.counts.meshes++
	return id, nil
}

// SetMeshAttributeName supplies a string name for a custom mesh
// attribute.
func (c *Converter) SetMeshAttributeName(attribute MeshAttribute, name string) {
	c.requireConverting("SetMeshAttributeName")
	c.require("SetMeshAttributeName", FeatureAddMeshes)
	if !IsMeshAttributeCustom(attribute) {
		panic(fmt.Sprintf("trade.Converter.SetMeshAttributeName(): %v is not a custom attribute", attribute))
	}
	c.backend.(MeshAdder).SetMeshAttributeName(attribute, name)
}

// MaterialCount returns how many materials were added to the current
// session.
func (c *Converter) MaterialCount() int { return c.counts.materials }

// AddMaterial adds a material and returns its index in the output.
func (c *Converter) AddMaterial(material *MaterialData, name string) (int, error) {
	c.requireConverting("AddMaterial")
	c.require("AddMaterial", FeatureAddMaterials)
	if err := c.backend.(MaterialAdder).AddMaterial(material, name); err != nil {
		return 0, err
	}
	id := c.counts.materials
	c.counts.materials++
	return id, nil
}

// TextureCount returns how many textures were added to the current
// session.
func (c *Converter) TextureCount() int { return c.counts.textures }

// AddTexture adds a texture and returns its index in the output.
func (c *Converter) AddTexture(texture *TextureData, name string) (int, error) {
	c.requireConverting("AddTexture")
	c.require("AddTexture", FeatureAddTextures)
	if err := c.backend.(TextureAdder).AddTexture(texture, name); err != nil {
		return 0, err
	}
	id := c.counts.textures
	c.counts.textures++
	return id, nil
}

// Image1DCount returns how many 1D images were added to the current
// session.
func (c *Converter) Image1DCount() int { return c.counts.images1D }

// AddImage1D adds a single-level 1D image and returns its index in the
// output.
func (c *Converter) AddImage1D(image *ImageData, name string) (int, error) {
	c.requireConverting("AddImage1D")
	c.require("AddImage1D", imageFeature(1, image.Compressed))
	image.validate("trade.Converter.AddImage1D")
	if err := c.backend.(Image1DAdder).AddImage1D(image, name); err != nil {
		return 0, err
	}
	id := c.counts.images1D
	c.counts.images1D++
	return id, nil
}

// AddImage1DLevels adds a 1D image with multiple mip levels and returns
// its index in the output.
func (c *Converter) AddImage1DLevels(levels []*ImageData, name string) (int, error) {
	c.requireConverting("AddImage1DLevels")
	if len(levels) == 0 {
		panic("trade.Converter.AddImage1DLevels(): at least one level expected")
	}
	c.require("AddImage1DLevels", imageFeature(1, levels[0].Compressed)|FeatureImageLevels)
	validateLevels("trade.Converter.AddImage1DLevels", levels)
	if err := c.backend.(Image1DLevelsAdder).AddImage1DLevels(levels, name); err != nil {
		return 0, err
	}
	id := c.counts.images1D
	c.counts.images1D++
	return id, nil
}

// Image2DCount returns how many 2D images were added to the current
// session.
func (c *Converter) Image2DCount() int { return c.counts.images2D }

// AddImage2D adds a single-level 2D image and returns its index in the
// output.
func (c *Converter) AddImage2D(image *ImageData, name string) (int, error) {
	c.requireConverting("AddImage2D")
	c.require("AddImage2D", imageFeature(2, image.Compressed))
	image.validate("trade.Converter.AddImage2D")
	if err := c.backend.(Image2DAdder).AddImage2D(image, name); err != nil {
		return 0, err
	}
	id := c.counts.images2D
	c.counts.images2D++
	return id, nil
}

// AddImage2DLevels adds a 2D image with multiple mip levels and returns
// its index in the output.
func (c *Converter) AddImage2DLevels(levels []*ImageData, name string) (int, error) {
	c.requireConverting("AddImage2DLevels")
	if len(levels) == 0 {
		panic("trade.Converter.AddImage2DLevels(): at least one level expected")
	}
	c.require("AddImage2DLevels", imageFeature(2, levels[0].Compressed)|FeatureImageLevels)
	validateLevels("trade.Converter.AddImage2DLevels", levels)
	if err := c.backend.(Image2DLevelsAdder).AddImage2DLevels(levels, name); err != nil {
		return 0, err
	}
	id := c.counts.images2D
	c.counts.images2D++
	return id, nil
}

// Image3DCount returns how many 3D images were added to the current
// session.
func (c *Converter) Image3DCount() int { return c.counts.images3D }

// AddImage3D adds a single-level 3D image and returns its index in the
// output.
func (c *Converter) AddImage3D(image *ImageData, name string) (int, error) {
	c.requireConverting("AddImage3D")
	c.require("AddImage3D", imageFeature(3, image.Compressed))
	image.validate("trade.Converter.AddImage3D")
	if err := c.backend.(Image3DAdder).AddImage3D(image, name); err != nil {
		return 0, err
	}
	id := c.counts.images3D
	c.counts.images3D++
	return id, nil
}

// AddImage3DLevels adds a 3D image with multiple mip levels and returns
// its index in the output.
func (c *Converter) AddImage3DLevels(levels []*ImageData, name string) (int, error) {
	c.requireConverting("AddImage3DLevels")
	if len(levels) == 0 {
		panic("trade.Converter.AddImage3DLevels(): at least one level expected")
	}
	c.require("AddImage3DLevels", imageFeature(3, levels[0].Compressed)|FeatureImageLevels)
	validateLevels("trade.Converter.AddImage3DLevels", levels)
	if err := c.backend.(Image3DLevelsAdder).AddImage3DLevels(levels, name); err != nil {
		return 0, err
	}
	id := c.counts.images3D
	c.counts.images3D++
	return id, nil
}

// ConvertMesh converts a single mesh. Backends without a dedicated
// single-mesh path get a one-mesh batch conversion instead, with the
// result read back through the returned importer.
func (c *Converter) ConvertMesh(mesh *MeshData) (*MeshData, error) {
	features := c.Features()
	switch {
	case features&FeatureConvertMesh != 0:
		return c.backend.(MeshConverter).ConvertMesh(mesh)
	case features&(FeatureConvertMultiple|FeatureAddMeshes) == FeatureConvertMultiple|FeatureAddMeshes:
		if err := c.Begin(); err != nil {
			return nil, err
		}
		if _, err := c.AddMesh(mesh, ""); err != nil {
			c.Abort()
			return nil, err
		}
		imp, err := c.End()
		if err != nil {
			return nil, err
		}
		return imp.Mesh(0, 0)
	default:
		panic("trade.Converter.ConvertMesh(): feature not supported")
	}
}

// ConvertMeshInPlace converts a single mesh in place.
func (c *Converter) ConvertMeshInPlace(mesh *MeshData) error {
	c.require("ConvertMeshInPlace", FeatureConvertMeshInPlace)
	return c.backend.(MeshInPlaceConverter).ConvertMeshInPlace(mesh)
}

// ConvertMeshToData serializes a single mesh. Backends without a
// dedicated single-mesh path get a one-mesh batch conversion instead.
func (c *Converter) ConvertMeshToData(mesh *MeshData) ([]byte, error) {
	features := c.Features()
	switch {
	case features&FeatureConvertMeshToData != 0:
		return c.backend.(MeshToDataConverter).ConvertMeshToData(mesh)
	case features&(FeatureConvertMultipleToData|FeatureAddMeshes) == FeatureConvertMultipleToData|FeatureAddMeshes:
		if err := c.BeginData(); err != nil {
			return nil, err
		}
		if _, err := c.AddMesh(mesh, ""); err != nil {
			c.Abort()
			return nil, err
		}
		return c.EndData()
	default:
		panic("trade.Converter.ConvertMeshToData(): feature not supported")
	}
}

// ConvertMeshToFile writes a single mesh to the given path. Composed out
// of ConvertMeshToData or a one-mesh batch when the backend has no
// dedicated path.
func (c *Converter) ConvertMeshToFile(mesh *MeshData, path string) error {
	features := c.Features()
	switch {
	case c.backend.Features()&FeatureConvertMeshToFile != 0:
		if m, ok := c.backend.(MeshToFileConverter); ok {
			return m.ConvertMeshToFile(mesh, path)
		}
		fallthrough
	case features&FeatureConvertMeshToData != 0:
		data, err := c.ConvertMeshToData(mesh)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		return nil
	case features&(FeatureConvertMultipleToFile|FeatureAddMeshes) == FeatureConvertMultipleToFile|FeatureAddMeshes:
		if err := c.BeginFile(path); err != nil {
			return err
		}
		if _, err := c.AddMesh(mesh, ""); err != nil {
			c.Abort()
			return err
		}
		return c.EndFile()
	default:
		panic("trade.Converter.ConvertMeshToFile(): feature not supported")
	}
}

func imageFeature(dimensions int, compressed bool) ConverterFeatures {
	switch {
	case dimensions == 1 && !compressed:
		return FeatureAddImages1D
	case dimensions == 1:
		return FeatureAddCompressedImages1D
	case dimensions == 2 && !compressed:
		return FeatureAddImages2D
	case dimensions == 2:
		return FeatureAddCompressedImages2D
	case dimensions == 3 && !compressed:
		return FeatureAddImages3D
	default:
		return FeatureAddCompressedImages3D
	}
}
