// Package images writes the embedded images of a page to numbered files.
//
// Identifiers are document-global: the caller passes the last identifier
// used and receives the updated value, so numbering continues across pages:
//
//	ext := images.NewExtractor(imaging.PNGEncoder{}, images.WithLogger(logger))
//	imgs, counter, diags := ext.ExtractPage(ctx, page, objs, outDir, counter)
//
// Every image object consumes one identifier. An image that cannot be
// decoded, encoded or written is skipped and reported as a diagnostic
// wrapping a model.ImageExtractionError. Files are written to a temporary
// name and renamed only when complete.
package images
