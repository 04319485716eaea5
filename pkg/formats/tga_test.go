package formats

import (
	"errors"
	"testing"

	"github.com/assettools/sceneforge/pkg/trade"
)

// rawTga builds an uncompressed 24-bit true-color TGA with bottom-to-top
// rows, the common layout in the wild.
func rawTga(width, height int, bgr []byte) []byte {
	header := make([]byte, 18)
	header[2] = 2
	header[12] = byte(width)
	header[13] = byte(width >> 8)
	header[14] = byte(height)
	header[15] = byte(height >> 8)
	header[16] = 24
	return append(header, bgr...)
}

func TestTgaImporter(t *testing.T) {
	// 2x2, bottom row first: bottom is red+green, top is blue+white.
	data := rawTga(2, 2, []byte{
		0, 0, 255 /* red */, 0, 255, 0, /* green */
		255, 0, 0 /* blue */, 255, 255, 255, /* white */
	})

	var imp TgaImporter
	if err := imp.OpenData(data); err != nil {
		t.Fatal(err)
	}
	defer imp.Close()

	if imp.Image2DCount() != 1 {
		t.Fatalf("Image2DCount = %d, want 1", imp.Image2DCount())
	}
	img, err := imp.Image2D(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if img.Format != trade.PixelFormatRGBA8 {
		t.Fatalf("format %v, want RGBA8", img.Format)
	}
	if img.Size != [3]int{2, 2, 1} {
		t.Fatalf("size %v", img.Size)
	}

	// Top-left pixel of the normalized image is the blue one.
	if r, g, b, a := img.Data[0], img.Data[1], img.Data[2], img.Data[3]; r != 0 || g != 0 || b != 255 || a != 255 {
		t.Fatalf("top-left pixel (%d,%d,%d,%d), want blue", r, g, b, a)
	}
	// Bottom-left is red.
	if r := img.Data[8]; r != 255 {
		t.Fatalf("bottom-left red channel %d, want 255", r)
	}
}

func TestTgaImporterRLE(t *testing.T) {
	header := make([]byte, 18)
	header[2] = 10
	header[12] = 4
	header[14] = 1
	header[16] = 24
	header[17] = 0x20 // top to bottom
	// One run-length packet: 4x the same green pixel.
	data := append(header, 0x83, 0, 255, 0)

	var imp TgaImporter
	if err := imp.OpenData(data); err != nil {
		t.Fatal(err)
	}
	img, err := imp.Image2D(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	for p := 0; p < 4; p++ {
		if img.Data[p*4+1] != 255 {
			t.Fatalf("pixel %d green channel %d, want 255", p, img.Data[p*4+1])
		}
	}
}

func TestTgaImporterErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short header", make([]byte, 10), ErrTgaTruncated},
		{"color mapped", func() []byte {
			d := rawTga(1, 1, []byte{0, 0, 0})
			d[1] = 1
			return d
		}(), ErrTgaUnsupported},
		{"truncated pixels", rawTga(4, 4, []byte{0, 0, 0}), ErrTgaTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var imp TgaImporter
			if err := imp.OpenData(tt.data); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}
