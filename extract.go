package pdflib

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/cioplenu/pdf-lib/images"
	"github.com/cioplenu/pdf-lib/internal/metrics"
	"github.com/cioplenu/pdf-lib/layout"
	"github.com/cioplenu/pdf-lib/linker"
	"github.com/cioplenu/pdf-lib/model"
)

// ExtractTextAndImages extracts the text lines and images of every page.
// Images are written to outDir, which must already exist. Cancellation of
// ctx is checked between pages; the pages finished before it are returned
// with the context error.
func ExtractTextAndImages(ctx context.Context, path, outDir string, opts ...Option) (*DocumentResult, error) {
	return newExtractor(path, opts).OutputDir(outDir).TextAndImages(ctx)
}

// ExtractText returns the text of each page as one string: the lines of
// the page concatenated without separators. Pages that cannot be read are
// omitted and logged.
func ExtractText(ctx context.Context, path string, opts ...Option) ([]string, error) {
	return newExtractor(path, opts).Text(ctx)
}

// checkOutputDir verifies that dir exists and is a directory
func checkOutputDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutputDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrOutputDir, dir)
	}
	return nil
}

// openDocument opens path, reporting every failure as a DocumentOpenError
func openDocument(engine Engine, path string) (doc Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, &model.DocumentOpenError{Path: path, Err: fmt.Errorf("engine panic: %v", r)}
		}
	}()
	doc, err = engine.Open(path)
	if err != nil {
		return nil, &model.DocumentOpenError{Path: path, Err: err}
	}
	return doc, nil
}

// pageIndices converts 1-indexed page numbers to 0-indexed and validates
// them. If no pages are specified, it returns all pages.
func (o ExtractOptions) pageIndices(pageCount int) ([]int, error) {
	if len(o.pages) == 0 {
		pageIndices := make([]int, pageCount)
		for i := range pageIndices {
			pageIndices[i] = i
		}
		return pageIndices, nil
	}

	seen := make(map[int]bool)
	var pageIndices []int
	for _, p := range o.pages {
		if p < 1 || p > pageCount {
			return nil, fmt.Errorf("%w: page %d (1-%d)", ErrPageRange, p, pageCount)
		}
		if !seen[p-1] {
			seen[p-1] = true
			pageIndices = append(pageIndices, p-1)
		}
	}

	sort.Ints(pageIndices)
	return pageIndices, nil
}

// readPage fetches the glyphs, and the images when asked, of one page. A
// panic in the engine becomes an error.
func readPage(doc Document, index int, withImages bool) (glyphs []model.Glyph, objs []model.ImageObject, err error) {
	defer func() {
		if r := recover(); r != nil {
			glyphs, objs, err = nil, nil, fmt.Errorf("engine panic: %v", r)
		}
	}()

	glyphs, err = doc.PageGlyphs(index)
	if err != nil {
		return nil, nil, fmt.Errorf("glyphs: %w", err)
	}
	if withImages {
		objs, err = doc.PageImages(index)
		if err != nil {
			return nil, nil, fmt.Errorf("images: %w", err)
		}
	}
	return glyphs, objs, nil
}

// pageVisitor handles one readable page and returns its diagnostics
type pageVisitor func(page int, glyphs []model.Glyph, objs []model.ImageObject) []model.Diagnostic

// walkPages reads the pages at indices in order. Unreadable pages are
// recorded as diagnostics and skipped. It stops early only when ctx is done
// and reports ctx.Err when ctx ended before the walk finished.
func (o ExtractOptions) walkPages(ctx context.Context, doc Document, path string, indices []int, withImages bool, visit pageVisitor) ([]model.Diagnostic, error) {
	logger := o.logger.With(zap.String("path", path))

	var diags []model.Diagnostic
	for _, index := range indices {
		if err := ctx.Err(); err != nil {
			return diags, err
		}

		page := index + 1
		glyphs, objs, err := readPage(doc, index, withImages)
		if err != nil {
			logger.Warn("page skipped", zap.Int("page", page), zap.Error(err))
			metrics.RecordPage(metrics.StatusFailed)
			diags = append(diags, model.NewDiagnostic(page, &model.PageAccessError{Page: page, Err: err}))
			continue
		}

		logger.Debug("page read",
			zap.Int("page", page),
			zap.Int("glyphs", len(glyphs)),
			zap.Int("images", len(objs)))
		metrics.RecordPage(metrics.StatusOK)
		diags = append(diags, visit(page, glyphs, objs)...)
	}
	return diags, ctx.Err()
}

// extractTextAndImages runs full mode over an open document
func (o ExtractOptions) extractTextAndImages(ctx context.Context, doc Document, path, outDir string, indices []int) (*model.DocumentResult, error) {
	agg := layout.NewAggregator(o.lineConfig)
	ext := images.NewExtractor(o.encoder, images.WithLogger(o.logger.With(zap.String("path", path))))
	lnk := linker.New(linker.WithMaxRelated(o.maxRelated))

	result := &model.DocumentResult{Pages: []model.PageResult{}}
	counter := 0
	diags, err := o.walkPages(ctx, doc, path, indices, true, func(page int, glyphs []model.Glyph, objs []model.ImageObject) []model.Diagnostic {
		lines := agg.Lines(glyphs)

		var (
			extracted []model.ExtractedImage
			imgDiags  []model.Diagnostic
		)
		extracted, counter, imgDiags = ext.ExtractPage(ctx, page, objs, outDir, counter)
		metrics.RecordImage(metrics.StatusOK, len(extracted))
		metrics.RecordImage(metrics.StatusFailed, len(imgDiags))

		result.Pages = append(result.Pages, model.NewPageResult(lines, lnk.Link(lines, extracted)))
		return imgDiags
	})
	result.Diagnostics = diags
	return result, err
}

// extractText runs text mode over an open document
func (o ExtractOptions) extractText(ctx context.Context, doc Document, path string, indices []int) ([]string, []model.Diagnostic, error) {
	agg := layout.NewAggregator(o.lineConfig)

	texts := []string{}
	diags, err := o.walkPages(ctx, doc, path, indices, false, func(page int, glyphs []model.Glyph, _ []model.ImageObject) []model.Diagnostic {
		texts = append(texts, agg.PageText(glyphs))
		return nil
	})
	return texts, diags, err
}

// extractLines returns the lines of all pages in page order
func (o ExtractOptions) extractLines(ctx context.Context, doc Document, path string, indices []int) ([]model.TextLine, []model.Diagnostic, error) {
	agg := layout.NewAggregator(o.lineConfig)

	var lines []model.TextLine
	diags, err := o.walkPages(ctx, doc, path, indices, false, func(page int, glyphs []model.Glyph, _ []model.ImageObject) []model.Diagnostic {
		lines = append(lines, agg.Lines(glyphs)...)
		return nil
	})
	return lines, diags, err
}

// recordDocument updates the document metrics for a finished call
func recordDocument(start time.Time, err error) {
	metrics.ObserveDuration(start)
	switch {
	case err == nil:
		metrics.RecordDocument(metrics.StatusOK)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		metrics.RecordDocument(metrics.StatusCanceled)
	default:
		metrics.RecordDocument(metrics.StatusFailed)
	}
}
