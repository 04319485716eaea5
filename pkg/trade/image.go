package trade

import "fmt"

// PixelFormat is an uncompressed pixel format.
type PixelFormat uint8

const (
	PixelFormatR8 PixelFormat = iota + 1
	PixelFormatRG8
	PixelFormatRGB8
	PixelFormatRGBA8
	PixelFormatRGBA32F
)

// Size returns the byte size of one pixel.
func (f PixelFormat) Size() int {
	switch f {
	case PixelFormatR8:
		return 1
	case PixelFormatRG8:
		return 2
	case PixelFormatRGB8:
		return 3
	case PixelFormatRGBA8:
		return 4
	case PixelFormatRGBA32F:
		return 16
	}
	return 0
}

// String returns the format name.
func (f PixelFormat) String() string {
	switch f {
	case PixelFormatR8:
		return "R8"
	case PixelFormatRG8:
		return "RG8"
	case PixelFormatRGB8:
		return "RGB8"
	case PixelFormatRGBA8:
		return "RGBA8"
	case PixelFormatRGBA32F:
		return "RGBA32F"
	}
	return fmt.Sprintf("PixelFormat(%d)", uint8(f))
}

// CompressedPixelFormat is a block-compressed pixel format.
type CompressedPixelFormat uint8

const (
	CompressedPixelFormatBC1 CompressedPixelFormat = iota + 1
	CompressedPixelFormatBC3
	CompressedPixelFormatETC2
	CompressedPixelFormatASTC4x4
)

// String returns the format name.
func (f CompressedPixelFormat) String() string {
	switch f {
	case CompressedPixelFormatBC1:
		return "BC1"
	case CompressedPixelFormatBC3:
		return "BC3"
	case CompressedPixelFormatETC2:
		return "ETC2"
	case CompressedPixelFormatASTC4x4:
		return "ASTC4x4"
	}
	return fmt.Sprintf("CompressedPixelFormat(%d)", uint8(f))
}

// ImageData is a 1D, 2D or 3D image. Unused size dimensions are 1.
type ImageData struct {
	// Dimensions is 1, 2 or 3.
	Dimensions int

	Size [3]int

	Compressed       bool
	Format           PixelFormat
	CompressedFormat CompressedPixelFormat

	Data []byte
}

// validate panics if the image violates the add() preconditions: nil data
// or a zero size in any used dimension. Caller errors, not runtime
// failures.
func (i *ImageData) validate(op string) {
	if i.Data == nil {
		panic(op + ": image data is nil")
	}
	for d := 0; d < i.Dimensions; d++ {
		if i.Size[d] == 0 {
			panic(fmt.Sprintf("%s: image size %v has a zero dimension", op, i.Size[:i.Dimensions]))
		}
	}
}

// validateLevels panics unless all levels are non-empty, uniformly
// compressed or uncompressed and share a pixel format. Caller errors.
func validateLevels(op string, levels []*ImageData) {
	if len(levels) == 0 {
		panic(op + ": at least one image level required")
	}
	first := levels[0]
	for _, l := range levels {
		l.validate(op)
		if l.Compressed != first.Compressed {
			panic(op + ": image levels mix compressed and uncompressed data")
		}
		if l.Compressed {
			if l.CompressedFormat != first.CompressedFormat {
				panic(fmt.Sprintf("%s: image levels have different formats %v and %v", op, first.CompressedFormat, l.CompressedFormat))
			}
		} else if l.Format != first.Format {
			panic(fmt.Sprintf("%s: image levels have different formats %v and %v", op, first.Format, l.Format))
		}
	}
}

// TextureType is the GPU texture type a texture maps to.
type TextureType uint8

const (
	TextureType1D TextureType = iota + 1
	TextureType1DArray
	TextureType2D
	TextureType2DArray
	TextureType3D
	TextureTypeCubeMap
	TextureTypeCubeMapArray
)

// String returns the type name.
func (t TextureType) String() string {
	switch t {
	case TextureType1D:
		return "Texture1D"
	case TextureType1DArray:
		return "Texture1DArray"
	case TextureType2D:
		return "Texture2D"
	case TextureType2DArray:
		return "Texture2DArray"
	case TextureType3D:
		return "Texture3D"
	case TextureTypeCubeMap:
		return "CubeMap"
	case TextureTypeCubeMapArray:
		return "CubeMapArray"
	}
	return fmt.Sprintf("TextureType(%d)", uint8(t))
}

// ImageDimensions returns which image category the texture references:
// 1D textures reference 1D images, 1D-array and 2D textures reference 2D
// images, everything else references 3D images.
func (t TextureType) ImageDimensions() int {
	switch t {
	case TextureType1D:
		return 1
	case TextureType1DArray, TextureType2D:
		return 2
	}
	return 3
}

// SamplerFilter is a texture minification or magnification filter.
type SamplerFilter uint8

const (
	SamplerFilterNearest SamplerFilter = iota
	SamplerFilterLinear
)

// SamplerWrapping is a texture coordinate wrapping mode.
type SamplerWrapping uint8

const (
	SamplerWrappingRepeat SamplerWrapping = iota
	SamplerWrappingMirroredRepeat
	SamplerWrappingClampToEdge
)

// TextureData references an image by index together with sampler state.
type TextureData struct {
	Type                TextureType
	MinificationFilter  SamplerFilter
	MagnificationFilter SamplerFilter
	MipmapFilter        SamplerFilter
	Wrapping            [3]SamplerWrapping

	// Image indexes into the image category given by
	// Type.ImageDimensions().
	Image uint32
}
