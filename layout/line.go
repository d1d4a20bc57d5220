package layout

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/cioplenu/pdf-lib/model"
)

// LineConfig holds configuration for line aggregation
type LineConfig struct {
	// BandTolerance widens each line band by this fraction of the median
	// glyph height when testing whether a glyph belongs to it (default: 0.25)
	BandTolerance float64

	// MinTolerance is the smallest band widening in points (default: 1.0)
	MinTolerance float64

	// SpaceGapRatio is the horizontal gap, as a fraction of the line's mean
	// glyph width, above which a space is inserted between glyphs
	// (default: 0.3)
	SpaceGapRatio float64
}

// DefaultLineConfig returns sensible default configuration
func DefaultLineConfig() LineConfig {
	return LineConfig{
		BandTolerance: 0.25,
		MinTolerance:  1.0,
		SpaceGapRatio: 0.3,
	}
}

// withDefaults replaces non-positive fields with their defaults
func (c LineConfig) withDefaults() LineConfig {
	def := DefaultLineConfig()
	if c.BandTolerance <= 0 {
		c.BandTolerance = def.BandTolerance
	}
	if c.MinTolerance <= 0 {
		c.MinTolerance = def.MinTolerance
	}
	if c.SpaceGapRatio <= 0 {
		c.SpaceGapRatio = def.SpaceGapRatio
	}
	return c
}

// Aggregator groups the glyphs of one page into text lines. It holds no
// per-page state and is safe for concurrent use.
type Aggregator struct {
	config LineConfig
}

// NewAggregator creates an aggregator. Zero fields in cfg take their
// defaults.
func NewAggregator(cfg LineConfig) *Aggregator {
	return &Aggregator{config: cfg.withDefaults()}
}

// Config returns the effective configuration
func (a *Aggregator) Config() LineConfig {
	return a.config
}

// band is an open line while glyphs are being assigned. Membership is tested
// against ref, the centre of the glyph that opened the band, so a tall glyph
// widens box without widening the band.
type band struct {
	ref    float64
	box    model.Rect
	glyphs []model.Glyph
}

func (b *band) y() float64 {
	return b.box.CenterY()
}

// contains reports whether centre y lies within half of the reference
// height plus tol of the band's reference centre
func (b *band) contains(y, half float64) bool {
	return math.Abs(y-b.ref) <= half
}

func (b *band) add(g model.Glyph) {
	if len(b.glyphs) == 0 {
		b.ref = g.Box.CenterY()
		b.box = g.Box
	} else {
		b.box = b.box.Union(g.Box)
	}
	b.glyphs = append(b.glyphs, g)
}

// Lines clusters glyphs into lines ordered top to bottom, ties broken by the
// left edge. Lines without printable text are dropped. The input slice is
// not modified.
func (a *Aggregator) Lines(glyphs []model.Glyph) []model.TextLine {
	if len(glyphs) == 0 {
		return nil
	}

	// Step 1: Group glyphs into bands by vertical centre
	bands := a.groupIntoBands(glyphs)

	// Step 2: Build lines from bands
	lines := make([]model.TextLine, 0, len(bands))
	for _, b := range bands {
		if !hasPrintable(b.glyphs) {
			continue
		}
		lines = append(lines, a.buildLine(b))
	}

	// Step 3: Order and index
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].Y != lines[j].Y {
			return lines[i].Y < lines[j].Y
		}
		return lines[i].Box.Left < lines[j].Box.Left
	})
	for i := range lines {
		lines[i].Index = i
	}

	if len(lines) == 0 {
		return nil
	}
	return lines
}

// PageText returns the raw joins of all lines concatenated in line order
func (a *Aggregator) PageText(glyphs []model.Glyph) string {
	var sb strings.Builder
	for _, line := range a.Lines(glyphs) {
		sb.WriteString(line.Raw)
	}
	return sb.String()
}

// Tolerance returns the band widening used for glyphs
func (a *Aggregator) Tolerance(glyphs []model.Glyph) float64 {
	return math.Max(a.config.BandTolerance*medianHeight(glyphs), a.config.MinTolerance)
}

// groupIntoBands assigns glyphs, in vertical-centre order, to the band whose
// reference centre is nearest among those containing the glyph's centre.
// Every band spans the median glyph height widened by the tolerance.
func (a *Aggregator) groupIntoBands(glyphs []model.Glyph) []*band {
	half := medianHeight(glyphs)/2 + a.Tolerance(glyphs)

	sorted := make([]model.Glyph, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		ci, cj := sorted[i].Box.CenterY(), sorted[j].Box.CenterY()
		if ci != cj {
			return ci < cj
		}
		return sorted[i].Box.Left < sorted[j].Box.Left
	})

	var bands []*band
	for _, g := range sorted {
		cy := g.Box.CenterY()
		var best *band
		bestDist := math.Inf(1)
		for _, b := range bands {
			if !b.contains(cy, half) {
				continue
			}
			if d := math.Abs(b.ref - cy); d < bestDist {
				best, bestDist = b, d
			}
		}
		if best == nil {
			best = &band{}
			bands = append(bands, best)
		}
		best.add(g)
	}
	return bands
}

func (a *Aggregator) buildLine(b *band) model.TextLine {
	glyphs := make([]model.Glyph, len(b.glyphs))
	copy(glyphs, b.glyphs)
	sort.SliceStable(glyphs, func(i, j int) bool {
		return glyphs[i].Box.Left < glyphs[j].Box.Left
	})

	return model.TextLine{
		Text:   a.assembleLineText(glyphs),
		Raw:    rawText(glyphs),
		Box:    b.box,
		Y:      b.y(),
		Page:   glyphs[0].Page,
		Glyphs: glyphs,
	}
}

// assembleLineText joins glyphs, inserting a space where the gap to the
// previous glyph exceeds SpaceGapRatio times the mean glyph width.
// Whitespace runs collapse to one space and the result is trimmed.
func (a *Aggregator) assembleLineText(glyphs []model.Glyph) string {
	threshold := a.config.SpaceGapRatio * meanWidth(glyphs)

	var sb strings.Builder
	var prev *model.Glyph
	for i := range glyphs {
		g := &glyphs[i]
		if g.Text == "" {
			continue
		}
		if prev != nil && !isBlank(prev.Text) && !isBlank(g.Text) &&
			g.Box.Left-prev.Box.Right > threshold {
			sb.WriteByte(' ')
		}
		sb.WriteString(g.Text)
		prev = g
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

func rawText(glyphs []model.Glyph) string {
	var sb strings.Builder
	for _, g := range glyphs {
		sb.WriteString(g.Text)
	}
	return sb.String()
}

// hasPrintable reports whether any glyph carries a visible character
func hasPrintable(glyphs []model.Glyph) bool {
	for _, g := range glyphs {
		for _, r := range g.Text {
			if unicode.IsPrint(r) && !unicode.IsSpace(r) {
				return true
			}
		}
	}
	return false
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// medianHeight returns the median height of glyphs with a positive height
func medianHeight(glyphs []model.Glyph) float64 {
	heights := make([]float64, 0, len(glyphs))
	for _, g := range glyphs {
		if h := g.Box.Height(); h > 0 {
			heights = append(heights, h)
		}
	}
	if len(heights) == 0 {
		return 0
	}
	sort.Float64s(heights)
	mid := len(heights) / 2
	if len(heights)%2 == 0 {
		return (heights[mid-1] + heights[mid]) / 2
	}
	return heights[mid]
}

func meanWidth(glyphs []model.Glyph) float64 {
	if len(glyphs) == 0 {
		return 0
	}
	total := 0.0
	for _, g := range glyphs {
		total += g.Box.Width()
	}
	return total / float64(len(glyphs))
}
