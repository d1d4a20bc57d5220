package graphicsstate

import (
	"errors"
	"strings"
	"testing"

	"github.com/cioplenu/pdf-lib/contentstream"
	"github.com/cioplenu/pdf-lib/font"
	"github.com/cioplenu/pdf-lib/model"
)

type recorder struct {
	fonts   map[string]*font.Font
	glyphs  []TextGlyph
	xobjs   []string
	ctms    []model.Matrix
	inlines []*contentstream.InlineImage
	failDo  error
}

func newRecorder() *recorder {
	return &recorder{fonts: map[string]*font.Font{
		"F1": font.NewFont("F1", "Helvetica", "Type1"),
		"F2": font.NewFont("F2", "Courier", "Type1"),
	}}
}

func (r *recorder) Font(name string) (*font.Font, error) {
	f, ok := r.fonts[name]
	if !ok {
		return nil, errors.New("no such font")
	}
	return f, nil
}

func (r *recorder) Glyph(g TextGlyph) { r.glyphs = append(r.glyphs, g) }

func (r *recorder) XObject(name string, gs *GraphicsState) error {
	r.xobjs = append(r.xobjs, name)
	r.ctms = append(r.ctms, gs.CTM)
	return r.failDo
}

func (r *recorder) InlineImage(img *contentstream.InlineImage, gs *GraphicsState) error {
	r.inlines = append(r.inlines, img)
	r.ctms = append(r.ctms, gs.CTM)
	return nil
}

func (r *recorder) text() string {
	var sb strings.Builder
	for _, g := range r.glyphs {
		sb.WriteString(g.Text)
	}
	return sb.String()
}

func (r *recorder) box(i int) model.Rect {
	return model.RectFromPoints(r.glyphs[i].Corners...)
}

func run(t *testing.T, content string) *recorder {
	t.Helper()
	rec := newRecorder()
	if err := NewInterpreter(rec, nil).RunBytes([]byte(content)); err != nil {
		t.Fatalf("RunBytes failed: %v", err)
	}
	return rec
}

func TestInterpreterGlyphBoxes(t *testing.T) {
	rec := run(t, "BT /F1 10 Tf 100 700 Td (Hi) Tj ET")

	if rec.text() != "Hi" {
		t.Fatalf("text = %q, want Hi", rec.text())
	}

	// Helvetica: H = 722, i = 222, ascent 718, descent -207
	h := rec.box(0)
	want := model.Rect{Left: 100, Top: 700 - 2.07, Right: 107.22, Bottom: 707.18}
	if !almostEqual(h.Left, want.Left) || !almostEqual(h.Right, want.Right) ||
		!almostEqual(h.Top, want.Top) || !almostEqual(h.Bottom, want.Bottom) {
		t.Errorf("H box = %+v, want %+v", h, want)
	}

	i := rec.box(1)
	if !almostEqual(i.Left, 107.22) || !almostEqual(i.Right, 109.44) {
		t.Errorf("i box = %+v", i)
	}
}

func TestInterpreterTJAdjustments(t *testing.T) {
	rec := run(t, "BT /F2 10 Tf 0 0 Td [(A) -1000 (B)] TJ ET")
	if rec.text() != "AB" {
		t.Fatalf("text = %q", rec.text())
	}
	// Courier is 600 wide: A ends at 6, the adjustment adds 10
	if b := rec.box(1); !almostEqual(b.Left, 16) {
		t.Errorf("B left = %v, want 16", b.Left)
	}
}

func TestInterpreterWordSpacing(t *testing.T) {
	rec := run(t, "BT /F2 10 Tf 5 Tw (a b) Tj ET")
	if rec.text() != "a b" {
		t.Fatalf("text = %q", rec.text())
	}
	// a: 0-6, space: 6-12 plus 5 word spacing, b at 17
	if b := rec.box(2); !almostEqual(b.Left, 17) {
		t.Errorf("b left = %v, want 17", b.Left)
	}
}

func TestInterpreterLineOperators(t *testing.T) {
	rec := run(t, "BT /F2 10 Tf 14 TL 0 100 Td (a) Tj (b) ' 1 2 (c) \" ET")
	if rec.text() != "abc" {
		t.Fatalf("text = %q", rec.text())
	}
	if got := rec.glyphs[1].Corners[0].Y; !almostEqual(got, 86-1.57) {
		t.Errorf("second line baseline box bottom = %v", got)
	}
	if got := rec.box(2).Left; !almostEqual(got, 0) {
		t.Errorf("third line left = %v, want 0", got)
	}
}

func TestInterpreterUnknownFontFallsBack(t *testing.T) {
	rec := run(t, "BT /Missing 12 Tf (ok) Tj ET")
	if rec.text() != "ok" {
		t.Errorf("text = %q, want ok", rec.text())
	}
}

func TestInterpreterTextBeforeTf(t *testing.T) {
	rec := run(t, "BT (x) Tj ET")
	if rec.text() != "x" {
		t.Errorf("text = %q, want x", rec.text())
	}
}

func TestInterpreterXObjectState(t *testing.T) {
	rec := run(t, "q 200 0 0 100 50 60 cm /Im1 Do Q /Im2 Do")
	if len(rec.xobjs) != 2 || rec.xobjs[0] != "Im1" || rec.xobjs[1] != "Im2" {
		t.Fatalf("xobjects = %v", rec.xobjs)
	}
	if rec.ctms[0] != (model.Matrix{200, 0, 0, 100, 50, 60}) {
		t.Errorf("Im1 CTM = %v", rec.ctms[0])
	}
	if !rec.ctms[1].IsIdentity() {
		t.Errorf("Im2 CTM = %v, want identity after Q", rec.ctms[1])
	}
}

func TestInterpreterInlineImage(t *testing.T) {
	rec := run(t, "q 10 0 0 10 0 0 cm BI /W 1 /H 1 ID \x80 EI Q")
	if len(rec.inlines) != 1 {
		t.Fatalf("inline images = %d", len(rec.inlines))
	}
	if rec.ctms[0] != (model.Matrix{10, 0, 0, 10, 0, 0}) {
		t.Errorf("inline CTM = %v", rec.ctms[0])
	}
}

func TestInterpreterHandlerErrorStops(t *testing.T) {
	rec := newRecorder()
	rec.failDo = errors.New("boom")
	err := NewInterpreter(rec, nil).RunBytes([]byte("/Im1 Do /Im2 Do"))
	if err == nil || err.Error() != "boom" {
		t.Errorf("err = %v, want boom", err)
	}
	if len(rec.xobjs) != 1 {
		t.Errorf("expected to stop after the first Do, got %v", rec.xobjs)
	}
}

func TestInterpreterUnbalancedRestore(t *testing.T) {
	rec := run(t, "Q Q BT /F1 10 Tf (a) Tj ET")
	if rec.text() != "a" {
		t.Errorf("text = %q", rec.text())
	}
}

func TestInterpreterRenderingMode(t *testing.T) {
	rec := run(t, "BT 3 Tr /F1 10 Tf (a) Tj ET")
	if rec.glyphs[0].RenderingMode != 3 {
		t.Errorf("rendering mode = %d, want 3", rec.glyphs[0].RenderingMode)
	}
}
