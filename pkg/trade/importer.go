package trade

import "errors"

// ErrNotOpened is returned by importer accessors called before a
// successful Open.
var ErrNotOpened = errors.New("no file opened")

// Importer is the source side of the conversion pipeline: per-category
// counts and per-index accessors over an opened scene file. The pipeline
// only ever reads through this interface.
//
// Concrete codecs embed UnimplementedImporter and override what they
// actually expose; unexposed categories report zero counts.
type Importer interface {
	// Open parses the given file. Accessors are valid only after a
	// successful Open.
	Open(path string) error

	// OpenData parses an in-memory buffer.
	OpenData(data []byte) error

	// IsOpened reports whether a file is currently opened.
	IsOpened() bool

	// Close discards the opened file. Safe to call when nothing is open.
	Close()

	// DefaultScene returns the scene shown by default, -1 if none.
	DefaultScene() int

	SceneCount() int
	Scene(i int) (*SceneData, error)
	SceneName(i int) string

	// SceneFieldName returns the string name of a custom scene field,
	// empty if unknown.
	SceneFieldName(f SceneField) string

	// ObjectName returns the name of an object, empty if it has none.
	ObjectName(id uint64) string

	AnimationCount() int
	Animation(i int) (*AnimationData, error)
	AnimationName(i int) string

	// AnimationTrackTargetName returns the string name of a custom track
	// target, empty if unknown.
	AnimationTrackTargetName(t AnimationTrackTarget) string

	LightCount() int
	Light(i int) (*LightData, error)
	LightName(i int) string

	CameraCount() int
	Camera(i int) (*CameraData, error)
	CameraName(i int) string

	Skin2DCount() int
	Skin2D(i int) (*SkinData2D, error)
	Skin2DName(i int) string

	Skin3DCount() int
	Skin3D(i int) (*SkinData3D, error)
	Skin3DName(i int) string

	MeshCount() int
	MeshLevelCount(i int) int
	Mesh(i, level int) (*MeshData, error)
	MeshName(i int) string

	// MeshAttributeName returns the string name of a custom mesh
	// attribute, empty if unknown.
	MeshAttributeName(a MeshAttribute) string

	MaterialCount() int
	Material(i int) (*MaterialData, error)
	MaterialName(i int) string

	TextureCount() int
	Texture(i int) (*TextureData, error)
	TextureName(i int) string

	Image1DCount() int
	Image1DLevelCount(i int) int
	Image1D(i, level int) (*ImageData, error)
	Image1DName(i int) string

	Image2DCount() int
	Image2DLevelCount(i int) int
	Image2D(i, level int) (*ImageData, error)
	Image2DName(i int) string

	Image3DCount() int
	Image3DLevelCount(i int) int
	Image3D(i, level int) (*ImageData, error)
	Image3DName(i int) string
}

// UnimplementedImporter provides zero-count defaults for all optional
// Importer methods. Codecs embed it and override the categories they
// expose; Open, OpenData, IsOpened and Close remain the codec's job.
type UnimplementedImporter struct{}

func (UnimplementedImporter) DefaultScene() int { return -1 }

func (UnimplementedImporter) SceneCount() int                  { return 0 }
func (UnimplementedImporter) Scene(int) (*SceneData, error)    { return nil, ErrNotOpened }
func (UnimplementedImporter) SceneName(int) string             { return "" }
func (UnimplementedImporter) SceneFieldName(SceneField) string { return "" }
func (UnimplementedImporter) ObjectName(uint64) string         { return "" }

func (UnimplementedImporter) AnimationCount() int                   { return 0 }
func (UnimplementedImporter) Animation(int) (*AnimationData, error) { return nil, ErrNotOpened }
func (UnimplementedImporter) AnimationName(int) string              { return "" }
func (UnimplementedImporter) AnimationTrackTargetName(AnimationTrackTarget) string {
	return ""
}

func (UnimplementedImporter) LightCount() int               { return 0 }
func (UnimplementedImporter) Light(int) (*LightData, error) { return nil, ErrNotOpened }
func (UnimplementedImporter) LightName(int) string          { return "" }

func (UnimplementedImporter) CameraCount() int                { return 0 }
func (UnimplementedImporter) Camera(int) (*CameraData, error) { return nil, ErrNotOpened }
func (UnimplementedImporter) CameraName(int) string           { return "" }

func (UnimplementedImporter) Skin2DCount() int                { return 0 }
func (UnimplementedImporter) Skin2D(int) (*SkinData2D, error) { return nil, ErrNotOpened }
func (UnimplementedImporter) Skin2DName(int) string           { return "" }

func (UnimplementedImporter) Skin3DCount() int                { return 0 }
func (UnimplementedImporter) Skin3D(int) (*SkinData3D, error) { return nil, ErrNotOpened }
func (UnimplementedImporter) Skin3DName(int) string           { return "" }

func (UnimplementedImporter) MeshCount() int                   { return 0 }
func (UnimplementedImporter) MeshLevelCount(int) int           { return 1 }
func (UnimplementedImporter) Mesh(int, int) (*MeshData, error) { return nil, ErrNotOpened }
func (UnimplementedImporter) MeshName(int) string              { return "" }
func (UnimplementedImporter) MeshAttributeName(MeshAttribute) string {
	return ""
}

func (UnimplementedImporter) MaterialCount() int                  { return 0 }
func (UnimplementedImporter) Material(int) (*MaterialData, error) { return nil, ErrNotOpened }
func (UnimplementedImporter) MaterialName(int) string             { return "" }

func (UnimplementedImporter) TextureCount() int                 { return 0 }
func (UnimplementedImporter) Texture(int) (*TextureData, error) { return nil, ErrNotOpened }
func (UnimplementedImporter) TextureName(int) string            { return "" }

func (UnimplementedImporter) Image1DCount() int                    { return 0 }
func (UnimplementedImporter) Image1DLevelCount(int) int            { return 1 }
func (UnimplementedImporter) Image1D(int, int) (*ImageData, error) { return nil, ErrNotOpened }
func (UnimplementedImporter) Image1DName(int) string               { return "" }

func (UnimplementedImporter) Image2DCount() int                    { return 0 }
func (UnimplementedImporter) Image2DLevelCount(int) int            { return 1 }
func (UnimplementedImporter) Image2D(int, int) (*ImageData, error) { return nil, ErrNotOpened }
func (UnimplementedImporter) Image2DName(int) string               { return "" }

func (UnimplementedImporter) Image3DCount() int                    { return 0 }
func (UnimplementedImporter) Image3DLevelCount(int) int            { return 1 }
func (UnimplementedImporter) Image3D(int, int) (*ImageData, error) { return nil, ErrNotOpened }
func (UnimplementedImporter) Image3DName(int) string               { return "" }
