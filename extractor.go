package pdflib

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cioplenu/pdf-lib/images"
	"github.com/cioplenu/pdf-lib/layout"
	"github.com/cioplenu/pdf-lib/model"
)

// Extractor provides a fluent interface for extracting content from PDFs.
// Each configuration method returns a new Extractor instance, making it
// safe for concurrent use and allowing method chaining.
type Extractor struct {
	// Source: a file opened per operation, or a caller-owned document
	filename string
	doc      Document

	outDir string

	// Configuration
	options ExtractOptions

	// Accumulated error (fail-fast)
	err error
}

// Open returns an Extractor for the file at filename. The file is opened by
// each terminal operation and closed before it returns.
//
// Example:
//
//	pages, err := pdflib.Open("document.pdf").Text(ctx)
func Open(filename string) *Extractor {
	return &Extractor{
		filename: filename,
		options:  defaultOptions(),
	}
}

// FromDocument creates an Extractor over an already-opened document.
// The caller is responsible for closing it.
//
// Example:
//
//	r, err := reader.Open("document.pdf")
//	if err != nil {
//	    // handle error
//	}
//	defer r.Close()
//	pages, err := pdflib.FromDocument(r).Text(ctx)
func FromDocument(doc Document) *Extractor {
	return &Extractor{
		doc:     doc,
		options: defaultOptions(),
	}
}

func newExtractor(path string, opts []Option) *Extractor {
	e := Open(path)
	e.options = newOptions(opts)
	return e
}

// clone creates a shallow copy of the Extractor with a deep copy of options.
// This ensures immutability - each chain method returns a new instance.
func (e *Extractor) clone() *Extractor {
	return &Extractor{
		filename: e.filename,
		doc:      e.doc,
		outDir:   e.outDir,
		options:  e.options.clone(),
		err:      e.err,
	}
}

// with returns a copy with opt applied
func (e *Extractor) with(opt Option) *Extractor {
	newExt := e.clone()
	opt(&newExt.options)
	return newExt
}

// ============================================================================
// Configuration Methods (return new Extractor instance)
// ============================================================================

// OutputDir sets the directory images are written to. It must exist.
func (e *Extractor) OutputDir(dir string) *Extractor {
	newExt := e.clone()
	newExt.outDir = dir
	return newExt
}

// Pages specifies which pages to extract from (1-indexed).
// Multiple calls are cumulative.
//
// Example:
//
//	pages, err := pdflib.Open("doc.pdf").Pages(1, 3, 5).Text(ctx)
func (e *Extractor) Pages(pages ...int) *Extractor {
	return e.with(WithPages(pages...))
}

// PageRange specifies a range of pages to extract (1-indexed, inclusive).
//
// Example:
//
//	pages, err := pdflib.Open("doc.pdf").PageRange(5, 10).Text(ctx)
func (e *Extractor) PageRange(start, end int) *Extractor {
	newExt := e.clone()
	if start > end {
		if newExt.err == nil {
			newExt.err = fmt.Errorf("%w: invalid range %d-%d", ErrPageRange, start, end)
		}
		return newExt
	}
	for i := start; i <= end; i++ {
		newExt.options.pages = append(newExt.options.pages, i)
	}
	return newExt
}

// WithLogger sets the logger
func (e *Extractor) WithLogger(l *zap.Logger) *Extractor {
	return e.with(WithLogger(l))
}

// WithEngine sets the engine used to open the file
func (e *Extractor) WithEngine(engine Engine) *Extractor {
	return e.with(WithEngine(engine))
}

// WithEncoder sets the image encoder
func (e *Extractor) WithEncoder(enc images.Encoder) *Extractor {
	return e.with(WithEncoder(enc))
}

// WithLineConfig sets the line aggregation parameters
func (e *Extractor) WithLineConfig(cfg layout.LineConfig) *Extractor {
	return e.with(WithLineConfig(cfg))
}

// WithMaxRelated sets how many text lines are attached to each image
func (e *Extractor) WithMaxRelated(n int) *Extractor {
	return e.with(WithMaxRelated(n))
}

// ============================================================================
// Terminal Operations
// ============================================================================

// open returns the document to read and a function releasing it
func (e *Extractor) open() (Document, func(), error) {
	if e.doc != nil {
		return e.doc, func() {}, nil
	}
	if e.filename == "" {
		return nil, nil, &model.DocumentOpenError{Err: fmt.Errorf("no filename specified")}
	}
	doc, err := openDocument(e.options.documentEngine(), e.filename)
	if err != nil {
		e.options.logger.Error("document not opened", zap.String("path", e.filename), zap.Error(err))
		return nil, nil, err
	}
	release := func() {
		if err := doc.Close(); err != nil {
			e.options.logger.Warn("close failed", zap.String("path", e.filename), zap.Error(err))
		}
	}
	return doc, release, nil
}

// session opens the document and resolves the page selection
func (e *Extractor) session() (Document, []int, func(), error) {
	if e.err != nil {
		return nil, nil, nil, e.err
	}
	doc, release, err := e.open()
	if err != nil {
		return nil, nil, nil, err
	}
	indices, err := e.options.pageIndices(doc.PageCount())
	if err != nil {
		release()
		return nil, nil, nil, err
	}
	return doc, indices, release, nil
}

// TextAndImages extracts text lines and images, writing images to the
// output directory. The output directory is checked before the document is
// opened.
//
// Example:
//
//	result, err := pdflib.Open("doc.pdf").OutputDir("out").TextAndImages(ctx)
func (e *Extractor) TextAndImages(ctx context.Context) (result *DocumentResult, err error) {
	start := time.Now()
	defer func() { recordDocument(start, err) }()

	if e.err != nil {
		return nil, e.err
	}
	if err := checkOutputDir(e.outDir); err != nil {
		return nil, err
	}
	doc, indices, release, err := e.session()
	if err != nil {
		return nil, err
	}
	defer release()

	return e.options.extractTextAndImages(ctx, doc, e.filename, e.outDir, indices)
}

// Text returns one string per readable page: the raw text of its lines
// concatenated in reading order. No images are read.
func (e *Extractor) Text(ctx context.Context) ([]string, error) {
	texts, _, err := e.TextWithDiagnostics(ctx)
	return texts, err
}

// TextWithDiagnostics is Text, also returning the pages that were skipped
func (e *Extractor) TextWithDiagnostics(ctx context.Context) (texts []string, diags []Diagnostic, err error) {
	start := time.Now()
	defer func() { recordDocument(start, err) }()

	doc, indices, release, err := e.session()
	if err != nil {
		return nil, nil, err
	}
	defer release()

	return e.options.extractText(ctx, doc, e.filename, indices)
}

// Lines returns the text lines of the selected pages in page order. Each
// line carries its page number and glyphs.
func (e *Extractor) Lines(ctx context.Context) ([]model.TextLine, error) {
	doc, indices, release, err := e.session()
	if err != nil {
		return nil, err
	}
	defer release()

	lines, _, err := e.options.extractLines(ctx, doc, e.filename, indices)
	return lines, err
}

// PageCount returns the number of pages in the document.
func (e *Extractor) PageCount() (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	doc, release, err := e.open()
	if err != nil {
		return 0, err
	}
	defer release()
	return doc.PageCount(), nil
}
