package model

import (
	"errors"
	"fmt"
)

// DocumentOpenError reports a document that could not be opened or parsed
// at all. It is always fatal.
type DocumentOpenError struct {
	Path string
	Err  error
}

func (e *DocumentOpenError) Error() string {
	return fmt.Sprintf("open document %q: %v", e.Path, e.Err)
}

func (e *DocumentOpenError) Unwrap() error { return e.Err }

// PageAccessError reports a page whose glyphs or images could not be read.
// Page is 1-based.
type PageAccessError struct {
	Page int
	Err  error
}

func (e *PageAccessError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

func (e *PageAccessError) Unwrap() error { return e.Err }

// ImageExtractionError reports an image that could not be decoded, encoded
// or written. Its identifier stays consumed.
type ImageExtractionError struct {
	Page     int
	ID       int
	Filename string
	Err      error
}

func (e *ImageExtractionError) Error() string {
	return fmt.Sprintf("page %d: image %s: %v", e.Page, e.Filename, e.Err)
}

func (e *ImageExtractionError) Unwrap() error { return e.Err }

// DiagnosticKind classifies a non-fatal failure
type DiagnosticKind string

const (
	DiagnosticPage  DiagnosticKind = "page"
	DiagnosticImage DiagnosticKind = "image"
)

// Diagnostic is a recorded non-fatal failure
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind" yaml:"kind"`
	Page    int            `json:"page" yaml:"page"`
	ImageID int            `json:"imageId,omitempty" yaml:"imageId,omitempty"`
	Message string         `json:"message" yaml:"message"`
	Err     error          `json:"-" yaml:"-"`
}

// Unwrap returns the underlying typed error
func (d Diagnostic) Unwrap() error { return d.Err }

// NewDiagnostic builds a diagnostic from a PageAccessError or
// ImageExtractionError. Other errors are recorded as page diagnostics for
// the given page.
func NewDiagnostic(page int, err error) Diagnostic {
	var imgErr *ImageExtractionError
	if errors.As(err, &imgErr) {
		return Diagnostic{
			Kind:    DiagnosticImage,
			Page:    imgErr.Page,
			ImageID: imgErr.ID,
			Message: err.Error(),
			Err:     err,
		}
	}
	var pageErr *PageAccessError
	if errors.As(err, &pageErr) {
		page = pageErr.Page
	}
	return Diagnostic{
		Kind:    DiagnosticPage,
		Page:    page,
		Message: err.Error(),
		Err:     err,
	}
}
