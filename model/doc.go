// Package model defines the data passed between the PDF engine and the
// structuring layer.
//
// # Geometry
//
// All boxes are [Rect] values in a page-local, top-down coordinate space:
// the origin is the top-left corner of the visible page area and y grows
// downward. [Matrix] and [Point] are used by the engine to map content
// stream coordinates into that space.
//
// # Input
//
//   - [Glyph] - one rendered character
//   - [ImageObject] - an embedded raster image, decoded lazily through a
//     [PixelSource] into a [PixelBuffer]
//
// # Output
//
//   - [TextLine] - a reading-order line built from glyphs
//   - [ExtractedImage] - an image written to disk, with related text
//   - [PageResult] and [DocumentResult] - the serialised result
//
// # Errors
//
// [DocumentOpenError] is fatal. [PageAccessError] and
// [ImageExtractionError] are recorded as [Diagnostic] values and processing
// continues.
package model
