// Package batch extracts many documents concurrently, each into its own
// output directory.
//
//	report, err := batch.Run(ctx, []string{"a.pdf", "b.pdf"}, "out",
//	    batch.WithWorkers(8),
//	    batch.WithLogger(logger))
//
// A document that fails does not stop the others. Run returns the report
// together with the combined error of every failed document.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	pdflib "github.com/cioplenu/pdf-lib"
)

// DefaultWorkers is the number of documents processed at once
const DefaultWorkers = 4

// DirMode is the permission of per-document output directories
const DirMode os.FileMode = 0o755

// Result is the outcome for one input document
type Result struct {
	Index     int                    `json:"index" yaml:"index"`
	Path      string                 `json:"path" yaml:"path"`
	OutputDir string                 `json:"outputDir" yaml:"outputDir"`
	Document  *pdflib.DocumentResult `json:"document,omitempty" yaml:"document,omitempty"`
	Error     string                 `json:"error,omitempty" yaml:"error,omitempty"`
	Duration  time.Duration          `json:"durationNs" yaml:"durationNs"`

	err error
}

// Err returns the error of a failed document
func (r Result) Err() error { return r.err }

// Report collects the results of a run in input order
type Report struct {
	RunID     string   `json:"runId" yaml:"runId"`
	Results   []Result `json:"results" yaml:"results"`
	Succeeded int      `json:"succeeded" yaml:"succeeded"`
	Failed    int      `json:"failed" yaml:"failed"`
}

type options struct {
	workers int
	logger  *zap.Logger
	extract []pdflib.Option
}

// Option configures a run
type Option func(*options)

// WithWorkers sets how many documents are processed at once. Values below
// one are ignored.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithLogger sets the logger for the run and each document
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithExtractOptions passes options to every document extraction
func WithExtractOptions(opts ...pdflib.Option) Option {
	return func(o *options) {
		o.extract = append(o.extract, opts...)
	}
}

// DirName returns the output directory name of the document at index
// (0-based) in the input list: the 1-based position and the file name
// without its extension.
func DirName(index int, path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return fmt.Sprintf("%d-%s", index+1, base)
}

// Run extracts docs into sub-directories of outRoot, which is created when
// missing. Results keep the input order.
func Run(ctx context.Context, docs []string, outRoot string, opts ...Option) (*Report, error) {
	o := options{workers: DefaultWorkers, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	report := &Report{
		RunID:   uuid.NewString(),
		Results: make([]Result, len(docs)),
	}
	logger := o.logger.With(zap.String("run_id", report.RunID))

	if err := os.MkdirAll(outRoot, DirMode); err != nil {
		return nil, fmt.Errorf("create output root: %w", err)
	}

	logger.Info("batch started", zap.Int("documents", len(docs)), zap.Int("workers", o.workers))
	start := time.Now()

	var (
		mu  sync.Mutex
		g   errgroup.Group
		err error
	)
	g.SetLimit(o.workers)

	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			res := runOne(ctx, i, doc, outRoot, o, logger)

			mu.Lock()
			defer mu.Unlock()
			report.Results[i] = res
			if res.err != nil {
				report.Failed++
				err = multierr.Append(err, fmt.Errorf("%s: %w", doc, res.err))
			} else {
				report.Succeeded++
			}
			return nil
		})
	}
	_ = g.Wait()

	logger.Info("batch finished",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Duration("elapsed", time.Since(start)))
	return report, err
}

// runOne extracts a single document into its own directory
func runOne(ctx context.Context, index int, path, outRoot string, o options, logger *zap.Logger) Result {
	dir := filepath.Join(outRoot, DirName(index, path))
	res := Result{Index: index, Path: path, OutputDir: dir}
	logger = logger.With(zap.String("path", path), zap.String("dir", dir))

	start := time.Now()
	fail := func(err error) Result {
		res.err = err
		res.Error = err.Error()
		res.Duration = time.Since(start)
		logger.Error("document failed", zap.Error(err))
		return res
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if err := os.MkdirAll(dir, DirMode); err != nil {
		return fail(fmt.Errorf("create output directory: %w", err))
	}

	extractOpts := append([]pdflib.Option{pdflib.WithLogger(logger)}, o.extract...)
	doc, err := pdflib.ExtractTextAndImages(ctx, path, dir, extractOpts...)
	res.Document = doc
	if err != nil {
		return fail(err)
	}

	res.Duration = time.Since(start)
	logger.Debug("document done",
		zap.Int("pages", len(doc.Pages)),
		zap.Int("images", doc.ImageCount()),
		zap.Int("diagnostics", len(doc.Diagnostics)))
	return res
}
