package formats

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"os"

	"golang.org/x/image/bmp"

	"github.com/assettools/sceneforge/pkg/trade"
)

func init() {
	trade.RegisterImporter("BmpImporter", []string{".bmp"}, func() trade.Importer {
		return &BmpImporter{}
	})
}

// BmpImporter reads BMP images, normalized to RGBA8.
type BmpImporter struct {
	trade.UnimplementedImporter

	image  *trade.ImageData
	opened bool
}

// Open parses the given BMP file.
func (b *BmpImporter) Open(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	return b.OpenData(data)
}

// OpenData parses BMP data from a buffer.
func (b *BmpImporter) OpenData(data []byte) error {
	b.Close()

	img, err := bmp.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decoding BMP: %w", err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	b.image = &trade.ImageData{
		Dimensions: 2,
		Size:       [3]int{bounds.Dx(), bounds.Dy(), 1},
		Format:     trade.PixelFormatRGBA8,
		Data:       rgba.Pix,
	}
	b.opened = true
	return nil
}

// IsOpened reports whether an image is opened.
func (b *BmpImporter) IsOpened() bool { return b.opened }

// Close discards the opened image.
func (b *BmpImporter) Close() {
	b.image = nil
	b.opened = false
}

// Image2DCount is 1 once an image is opened.
func (b *BmpImporter) Image2DCount() int {
	if !b.opened {
		return 0
	}
	return 1
}

// Image2DLevelCount is always 1.
func (b *BmpImporter) Image2DLevelCount(int) int { return 1 }

// Image2D returns the decoded image.
func (b *BmpImporter) Image2D(i, level int) (*trade.ImageData, error) {
	if !b.opened {
		return nil, trade.ErrNotOpened
	}
	return b.image, nil
}
