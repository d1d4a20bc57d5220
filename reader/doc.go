// Package reader opens PDF files, resolves their objects and runs page
// content streams to collect glyphs and images.
//
// This package ties the lower-level core, pages, font, graphicsstate and
// imaging packages together.
//
// # Opening PDF Files
//
// Use [Open] to read a file, or [NewReader] for bytes already in memory:
//
//	r, err := reader.Open("document.pdf", reader.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
// Files with a damaged cross-reference table are repaired by scanning for
// object headers. Encrypted files return [ErrEncrypted].
//
// # Document Information
//
//   - Version() - PDF version from the header (e.g., 1.7)
//   - PageCount() - number of pages
//   - GetCatalog() - document catalog dictionary
//   - GetInfo() - document info dictionary, nil when absent
//   - Trailer() - trailer dictionary
//
// # Page Content
//
// Pages are addressed by 0-based index. [Reader.PageGlyphs] returns one
// glyph per shown character and [Reader.PageImages] the images painted on
// the page, including those drawn by form XObjects:
//
//	glyphs, err := r.PageGlyphs(0)
//	images, err := r.PageImages(0)
//
// Boxes are in top-down coordinates relative to the crop box with the page
// rotation applied (see [PageMatrix]).
//
// # Object Caching
//
// Resolved objects, object streams and fonts are held in LRU caches. The
// object cache size is set with [WithCacheSize]. A Reader is not safe for
// concurrent use.
package reader
