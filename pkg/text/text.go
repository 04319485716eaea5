// Package text defines the interface surface for feeding shaped text
// into the conversion pipeline. A shaping backend turns a string and a
// font face into a positioned glyph run; a quad layout turns that run
// into textured quads that can be added to a converter session as a
// regular mesh. No backend ships with this module.
package text

import "github.com/assettools/sceneforge/pkg/trade"

// Glyph is one glyph of a font face: its identifier in the face and the
// metrics needed to lay it out.
type Glyph struct {
	ID uint32

	// Advance is how far the pen moves after this glyph, in em units.
	Advance [2]float32

	// Offset is the glyph quad's offset from the pen position.
	Offset [2]float32

	// Size is the glyph quad's dimensions.
	Size [2]float32
}

// Face is a loaded font face a shaper can pull glyphs from.
type Face interface {
	// Glyph returns the glyph for a rune, with ok false when the face has
	// no coverage and a fallback or the replacement glyph should be used.
	Glyph(r rune) (Glyph, bool)

	// LineHeight returns the baseline-to-baseline distance in em units.
	LineHeight() float32
}

// GlyphRun is the result of shaping one piece of text: glyphs with
// absolute pen positions, in visual order.
type GlyphRun struct {
	Glyphs    []Glyph
	Positions [][2]float32
}

// Shaper turns text into a positioned glyph run. Implementations decide
// script handling, ligatures and kerning.
type Shaper interface {
	Shape(face Face, text string) (GlyphRun, error)
}

// QuadLayout turns a shaped run into one textured quad per glyph, packed
// as a mesh that can go straight into a converter session.
type QuadLayout interface {
	Layout(run GlyphRun) (*trade.MeshData, error)
}
