package model

// Glyph is one rendered character with its page-local box. Text may be empty
// or whitespace.
type Glyph struct {
	Text string
	Box  Rect
	Page int
}

// TextLine is a cluster of glyphs sharing a vertical band
type TextLine struct {
	// Text is the line-preserving join: glyphs separated by a single space
	// where the horizontal gap is wide enough.
	Text string

	// Raw is the plain concatenation of glyph text in the same order.
	Raw string

	Box Rect

	// Y is the vertical centre of the line band.
	Y float64

	Page int

	// Index is the 0-based reading-order position within the page.
	Index int

	Glyphs []Glyph
}
