// Package pdflib extracts ordered text lines and embedded images from PDF
// files, and relates each image to the lines printed nearest to it.
//
// Basic usage:
//
//	result, err := pdflib.ExtractTextAndImages(ctx, "document.pdf", "out")
//	if err != nil {
//	    // handle error
//	}
//	for _, page := range result.Pages {
//	    fmt.Println(page.PageTextLines)
//	}
//
// Images are written to the output directory as image-1.png, image-2.png
// and so on, numbered across the whole document. The directory must exist.
//
// Text only:
//
//	pages, err := pdflib.ExtractText(ctx, "document.pdf")
//
// With the fluent form:
//
//	result, err := pdflib.Open("report.pdf").
//	    OutputDir("out").
//	    Pages(1, 3).
//	    WithLogger(logger).
//	    TextAndImages(ctx)
//
// A page whose content cannot be read is skipped and reported in
// DocumentResult.Diagnostics, as is an image that cannot be written. Only a
// document that cannot be opened fails the call.
//
// Documents are read through an [Engine]. The default [ReaderEngine] uses
// the in-tree reader package; [WithEngine] substitutes another.
package pdflib

import (
	"errors"

	"github.com/cioplenu/pdf-lib/model"
)

var (
	// ErrOutputDir is returned when the output directory does not exist or
	// is not a directory
	ErrOutputDir = errors.New("output directory does not exist or is not a directory")

	// ErrPageRange is returned when a selected page is outside the document
	ErrPageRange = errors.New("page out of range")
)

// Result and error types shared with the model package
type (
	DocumentResult       = model.DocumentResult
	PageResult           = model.PageResult
	PageImage            = model.PageImage
	Diagnostic           = model.Diagnostic
	DocumentOpenError    = model.DocumentOpenError
	PageAccessError      = model.PageAccessError
	ImageExtractionError = model.ImageExtractionError
)

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	count := pdflib.Must(pdflib.Open("document.pdf").PageCount())
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
