package formats

import (
	"errors"
	"fmt"
	"os"

	"github.com/assettools/sceneforge/pkg/trade"
)

var (
	// ErrTgaTruncated is returned for TGA data shorter than its header or
	// pixel payload claims.
	ErrTgaTruncated = errors.New("TGA data truncated")

	// ErrTgaUnsupported is returned for color-mapped or grayscale TGA
	// variants.
	ErrTgaUnsupported = errors.New("unsupported TGA variant")
)

func init() {
	trade.RegisterImporter("TgaImporter", []string{".tga"}, func() trade.Importer {
		return &TgaImporter{}
	})
}

// TgaImporter reads TGA images, uncompressed or RLE compressed
// true-color (types 2 and 10) with 24 or 32 bits per pixel. The result
// is always RGBA8 with the top row first.
type TgaImporter struct {
	trade.UnimplementedImporter

	image  *trade.ImageData
	opened bool
}

// Open parses the given TGA file.
func (t *TgaImporter) Open(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	return t.OpenData(data)
}

// OpenData parses TGA data from a buffer.
func (t *TgaImporter) OpenData(data []byte) error {
	t.Close()

	if len(data) < 18 {
		return ErrTgaTruncated
	}
	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return fmt.Errorf("%w: color-mapped", ErrTgaUnsupported)
	}
	if imageType != 2 && imageType != 10 {
		return fmt.Errorf("%w: type %d", ErrTgaUnsupported, imageType)
	}
	if bpp != 24 && bpp != 32 {
		return fmt.Errorf("%w: %d bits per pixel", ErrTgaUnsupported, bpp)
	}

	offset := 18 + idLength
	if offset > len(data) {
		return ErrTgaTruncated
	}
	pixelData := data[offset:]
	bytesPerPixel := bpp / 8

	// Bit 5 of the descriptor means rows are already top to bottom.
	topToBottom := descriptor&0x20 != 0

	pixels := make([]byte, width*height*4)
	var err error
	if imageType == 2 {
		err = decodeTgaRaw(pixels, pixelData, width, height, bytesPerPixel, topToBottom)
	} else {
		err = decodeTgaRLE(pixels, pixelData, width, height, bytesPerPixel, topToBottom)
	}
	if err != nil {
		return err
	}

	t.image = &trade.ImageData{
		Dimensions: 2,
		Size:       [3]int{width, height, 1},
		Format:     trade.PixelFormatRGBA8,
		Data:       pixels,
	}
	t.opened = true
	return nil
}

// IsOpened reports whether an image is opened.
func (t *TgaImporter) IsOpened() bool { return t.opened }

// Close discards the opened image.
func (t *TgaImporter) Close() {
	t.image = nil
	t.opened = false
}

// Image2DCount is 1 once an image is opened.
func (t *TgaImporter) Image2DCount() int {
	if !t.opened {
		return 0
	}
	return 1
}

// Image2DLevelCount is always 1.
func (t *TgaImporter) Image2DLevelCount(int) int { return 1 }

// Image2D returns the decoded image.
func (t *TgaImporter) Image2D(i, level int) (*trade.ImageData, error) {
	if !t.opened {
		return nil, trade.ErrNotOpened
	}
	return t.image, nil
}

func decodeTgaRaw(pixels, pixelData []byte, width, height, bytesPerPixel int, topToBottom bool) error {
	if len(pixelData) < width*height*bytesPerPixel {
		return ErrTgaTruncated
	}
	for y := 0; y < height; y++ {
		destY := y
		if !topToBottom {
			destY = height - 1 - y
		}
		for x := 0; x < width; x++ {
			src := (y*width + x) * bytesPerPixel
			writeTgaPixel(pixels, (destY*width+x)*4, pixelData[src:], bytesPerPixel)
		}
	}
	return nil
}

func decodeTgaRLE(pixels, pixelData []byte, width, height, bytesPerPixel int, topToBottom bool) error {
	pixelCount := width * height
	pixelIdx := 0
	dataIdx := 0

	put := func(src []byte) {
		y := pixelIdx / width
		x := pixelIdx % width
		if !topToBottom {
			y = height - 1 - y
		}
		writeTgaPixel(pixels, (y*width+x)*4, src, bytesPerPixel)
		pixelIdx++
	}

	for pixelIdx < pixelCount {
		if dataIdx >= len(pixelData) {
			return ErrTgaTruncated
		}
		packet := pixelData[dataIdx]
		dataIdx++
		count := int(packet&0x7f) + 1

		if packet&0x80 != 0 {
			// Run-length packet, one pixel repeated.
			if dataIdx+bytesPerPixel > len(pixelData) {
				return ErrTgaTruncated
			}
			for i := 0; i < count && pixelIdx < pixelCount; i++ {
				put(pixelData[dataIdx:])
			}
			dataIdx += bytesPerPixel
		} else {
			// Raw packet, count literal pixels.
			if dataIdx+count*bytesPerPixel > len(pixelData) {
				return ErrTgaTruncated
			}
			for i := 0; i < count && pixelIdx < pixelCount; i++ {
				put(pixelData[dataIdx:])
				dataIdx += bytesPerPixel
			}
		}
	}
	return nil
}

// writeTgaPixel converts one BGR(A) source pixel to RGBA.
func writeTgaPixel(pixels []byte, dst int, src []byte, bytesPerPixel int) {
	pixels[dst] = src[2]
	pixels[dst+1] = src[1]
	pixels[dst+2] = src[0]
	if bytesPerPixel == 4 {
		pixels[dst+3] = src[3]
	} else {
		pixels[dst+3] = 0xff
	}
}
