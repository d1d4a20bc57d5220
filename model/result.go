package model

// PageImage is the serialised form of an extracted image
type PageImage struct {
	Filename      string   `json:"filename" yaml:"filename"`
	FileSizeBytes int64    `json:"fileSizeBytes" yaml:"fileSizeBytes"`
	RelatedText   []string `json:"relatedText" yaml:"relatedText"`
}

// PageResult is the structured output for one page
type PageResult struct {
	PageTextLines []string    `json:"pageTextLines" yaml:"pageTextLines"`
	PageImages    []PageImage `json:"pageImages" yaml:"pageImages"`
}

// NewPageResult builds a page result from line texts and linked images.
// Both slices are non-nil so that empty pages serialise as [].
func NewPageResult(lines []TextLine, imgs []ExtractedImage) PageResult {
	pr := PageResult{
		PageTextLines: make([]string, 0, len(lines)),
		PageImages:    make([]PageImage, 0, len(imgs)),
	}
	for _, l := range lines {
		pr.PageTextLines = append(pr.PageTextLines, l.Text)
	}
	for _, img := range imgs {
		related := img.RelatedText
		if related == nil {
			related = []string{}
		}
		pr.PageImages = append(pr.PageImages, PageImage{
			Filename:      img.Filename,
			FileSizeBytes: img.FileSizeBytes,
			RelatedText:   related,
		})
	}
	return pr
}

// DocumentResult collects page results in page order plus non-fatal
// diagnostics in the order they occurred.
type DocumentResult struct {
	Pages       []PageResult `json:"pages" yaml:"pages"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// ImageCount returns the number of images across all pages
func (r *DocumentResult) ImageCount() int {
	n := 0
	for _, p := range r.Pages {
		n += len(p.PageImages)
	}
	return n
}

// HasDiagnostics reports whether any page or image was skipped
func (r *DocumentResult) HasDiagnostics() bool {
	return len(r.Diagnostics) > 0
}
