package pdflib

import (
	"go.uber.org/zap"

	"github.com/cioplenu/pdf-lib/images"
	"github.com/cioplenu/pdf-lib/layout"
	"github.com/cioplenu/pdf-lib/linker"
	"github.com/cioplenu/pdf-lib/reader"
)

// ExtractOptions holds configuration for extraction.
type ExtractOptions struct {
	// Page selection (1-indexed in API, stored as-is)
	pages []int

	// Collaborators
	engine  Engine
	encoder images.Encoder
	logger  *zap.Logger

	// Processing options
	lineConfig layout.LineConfig
	maxRelated int
	cacheSize  int
}

// Option configures an extraction
type Option func(*ExtractOptions)

// defaultOptions returns the default extraction options.
func defaultOptions() ExtractOptions {
	return ExtractOptions{
		pages:      nil, // nil means all pages
		logger:     zap.NewNop(),
		lineConfig: layout.DefaultLineConfig(),
		maxRelated: linker.DefaultMaxRelated,
		cacheSize:  reader.DefaultCacheSize,
	}
}

func newOptions(opts []Option) ExtractOptions {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// clone creates a deep copy of ExtractOptions.
func (o ExtractOptions) clone() ExtractOptions {
	newOpts := o
	if o.pages != nil {
		newOpts.pages = make([]int, len(o.pages))
		copy(newOpts.pages, o.pages)
	}
	return newOpts
}

// documentEngine returns the configured engine or a reader engine using
// the configured logger and cache size
func (o ExtractOptions) documentEngine() Engine {
	if o.engine != nil {
		return o.engine
	}
	return ReaderEngine{Options: []reader.Option{
		reader.WithLogger(o.logger),
		reader.WithCacheSize(o.cacheSize),
	}}
}

// WithPages restricts extraction to the given 1-indexed pages
func WithPages(pages ...int) Option {
	return func(o *ExtractOptions) {
		o.pages = append(o.pages, pages...)
	}
}

// WithEngine sets the engine used to open documents
func WithEngine(e Engine) Option {
	return func(o *ExtractOptions) {
		o.engine = e
	}
}

// WithEncoder sets the image encoder. The default writes PNG.
func WithEncoder(enc images.Encoder) Option {
	return func(o *ExtractOptions) {
		o.encoder = enc
	}
}

// WithLogger sets the logger. Skipped pages and images are logged at Warn.
func WithLogger(l *zap.Logger) Option {
	return func(o *ExtractOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithLineConfig sets the line aggregation parameters
func WithLineConfig(cfg layout.LineConfig) Option {
	return func(o *ExtractOptions) {
		o.lineConfig = cfg
	}
}

// WithMaxRelated sets how many text lines are attached to each image
func WithMaxRelated(n int) Option {
	return func(o *ExtractOptions) {
		o.maxRelated = n
	}
}

// WithObjectCacheSize sets the object cache size of the default engine
func WithObjectCacheSize(n int) Option {
	return func(o *ExtractOptions) {
		o.cacheSize = n
	}
}
