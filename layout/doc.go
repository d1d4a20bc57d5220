// Package layout groups positioned glyphs into text lines.
//
// The [Aggregator] clusters the glyphs of one page by vertical band and
// orders the resulting lines top to bottom:
//
//	agg := layout.NewAggregator(layout.DefaultLineConfig())
//	lines := agg.Lines(glyphs)
//
// A glyph joins the open line whose band, widened by [LineConfig]
// BandTolerance times the median glyph height (never less than
// MinTolerance points), contains its vertical centre. Each line carries two
// joins of the same glyphs:
//
//   - Text - a single space between glyphs separated by more than
//     SpaceGapRatio times the mean glyph width, whitespace collapsed and
//     trimmed
//   - Raw - plain concatenation of glyph text
//
// Lines whose glyphs carry no printable text are dropped.
// [Aggregator.PageText] concatenates the raw joins of a page.
package layout
