// Package graphicsstate tracks the PDF graphics state while a content
// stream is interpreted.
//
// [GraphicsState] holds the CTM, the q/Q save stack and the text state (font,
// spacing, scaling, leading, rise, text and line matrices). [Interpreter]
// runs parsed operations against it and reports to a [Handler]:
//
//   - every shown character as a [TextGlyph] whose corners are in user space
//   - every Do and inline image together with the state in effect
//
// Example usage:
//
//	in := graphicsstate.NewInterpreter(handler, nil)
//	err := in.RunBytes(contentData)
//
// Glyph cells span the advance width horizontally and the font's descent to
// ascent vertically, mapped through the text rendering matrix.
package graphicsstate
