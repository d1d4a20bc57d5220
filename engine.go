package pdflib

import (
	"github.com/cioplenu/pdf-lib/model"
	"github.com/cioplenu/pdf-lib/reader"
)

// Engine opens documents
type Engine interface {
	Open(path string) (Document, error)
}

// Document is an open document. Page indexes are 0-based; glyphs and images
// carry the 1-based page number.
type Document interface {
	PageCount() int
	PageGlyphs(i int) ([]model.Glyph, error)
	PageImages(i int) ([]model.ImageObject, error)
	Close() error
}

// ReaderEngine opens documents with the reader package
type ReaderEngine struct {
	Options []reader.Option
}

var _ Document = (*reader.Reader)(nil)

// Open opens the file at path
func (e ReaderEngine) Open(path string) (Document, error) {
	r, err := reader.Open(path, e.Options...)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// EngineFunc adapts a function to Engine
type EngineFunc func(path string) (Document, error)

// Open calls f
func (f EngineFunc) Open(path string) (Document, error) { return f(path) }
