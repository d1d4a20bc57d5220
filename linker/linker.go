// Package linker relates extracted images to the text lines printed nearest
// to them, which are usually their captions.
package linker

import (
	"sort"

	"github.com/cioplenu/pdf-lib/model"
)

// DefaultMaxRelated is the number of lines attached to each image
const DefaultMaxRelated = 2

// Option configures a Linker
type Option func(*Linker)

// WithMaxRelated sets how many lines an image may receive. Values below 0
// are treated as 0.
func WithMaxRelated(n int) Option {
	return func(l *Linker) {
		l.maxRelated = max(n, 0)
	}
}

// Linker attaches related text lines to images on the same page
type Linker struct {
	maxRelated int
}

// New creates a linker
func New(opts ...Option) *Linker {
	l := &Linker{maxRelated: DefaultMaxRelated}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Distance is the vertical distance between a line and an image box. It is
// 0 when the line band overlaps the image band, otherwise the gap from the
// line's centre to the nearest image edge.
func Distance(line model.TextLine, img model.Rect) float64 {
	if line.Box.OverlapsVertically(img) {
		return 0
	}
	if line.Y <= img.CenterY() {
		return img.Top - line.Y
	}
	return line.Y - img.Bottom
}

type candidate struct {
	line  int
	dist  float64
	above bool
}

// Link returns copies of imgs with RelatedText set to the text of the
// nearest lines, in reading order. Neither input slice is modified.
func (l *Linker) Link(lines []model.TextLine, imgs []model.ExtractedImage) []model.ExtractedImage {
	if imgs == nil {
		return nil
	}
	out := make([]model.ExtractedImage, len(imgs))
	for i, img := range imgs {
		img.RelatedText = l.related(lines, img.Box)
		out[i] = img
	}
	return out
}

func (l *Linker) related(lines []model.TextLine, box model.Rect) []string {
	if l.maxRelated == 0 || len(lines) == 0 {
		return []string{}
	}

	candidates := make([]candidate, len(lines))
	for i, line := range lines {
		candidates[i] = candidate{
			line:  i,
			dist:  Distance(line, box),
			above: line.Y <= box.CenterY(),
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.dist != b.dist {
			return a.dist < b.dist
		}
		if a.above != b.above {
			return a.above
		}
		return lines[a.line].Index < lines[b.line].Index
	})

	chosen := candidates[:min(l.maxRelated, len(candidates))]
	sort.Slice(chosen, func(i, j int) bool {
		return lines[chosen[i].line].Index < lines[chosen[j].line].Index
	})

	related := make([]string, len(chosen))
	for i, c := range chosen {
		related[i] = lines[c.line].Text
	}
	return related
}
