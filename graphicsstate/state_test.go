package graphicsstate

import (
	"math"
	"testing"

	"github.com/cioplenu/pdf-lib/font"
	"github.com/cioplenu/pdf-lib/model"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestNewGraphicsState tests initial state
func TestNewGraphicsState(t *testing.T) {
	gs := NewGraphicsState()

	if gs.Text.FontSize != 12.0 {
		t.Errorf("expected font size 12.0, got %f", gs.Text.FontSize)
	}
	if gs.Text.HorizontalScaling != 100.0 {
		t.Errorf("expected horizontal scaling 100.0, got %f", gs.Text.HorizontalScaling)
	}
	if !gs.CTM.IsIdentity() {
		t.Error("expected CTM to be identity matrix")
	}
	if gs.Depth() != 0 {
		t.Errorf("expected empty stack, got %d", gs.Depth())
	}
}

// TestSaveRestore tests q/Q operators
func TestSaveRestore(t *testing.T) {
	gs := NewGraphicsState()
	f := font.NewFont("F1", "Helvetica", "Type1")
	gs.SetFont("F1", f, 14)

	gs.Save()
	gs.Transform(model.Translate(10, 20))
	gs.SetFont("F2", nil, 8)
	gs.SetCharSpacing(3)
	gs.SetTextMatrix(model.Translate(5, 5))

	if err := gs.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if !gs.CTM.IsIdentity() {
		t.Errorf("CTM not restored: %v", gs.CTM)
	}
	if gs.Text.FontName != "F1" || gs.Text.Font != f || gs.Text.FontSize != 14 {
		t.Errorf("font not restored: %s %v", gs.Text.FontName, gs.Text.FontSize)
	}
	if gs.Text.CharSpacing != 0 {
		t.Errorf("char spacing not restored: %v", gs.Text.CharSpacing)
	}
	// text matrix survives Q
	if gs.Text.TextMatrix != model.Translate(5, 5) {
		t.Errorf("text matrix changed by Q: %v", gs.Text.TextMatrix)
	}

	if err := gs.Restore(); err == nil {
		t.Error("expected stack underflow error")
	}
}

func TestSaveDepthLimit(t *testing.T) {
	gs := NewGraphicsState()
	for i := 0; i < maxStackDepth+10; i++ {
		gs.Save()
	}
	if gs.Depth() != maxStackDepth {
		t.Errorf("depth = %d, want %d", gs.Depth(), maxStackDepth)
	}
}

// TestTransformOrder checks that cm pre-multiplies the CTM
func TestTransformOrder(t *testing.T) {
	gs := NewGraphicsState()
	gs.Transform(model.Translate(100, 200))
	gs.Transform(model.Scale(2, 2))

	// the scale applies in the translated space: (1,1) -> (2,2) -> (102,202)
	p := gs.CTM.Transform(model.Point{X: 1, Y: 1})
	if p != (model.Point{X: 102, Y: 202}) {
		t.Errorf("CTM maps (1,1) to %v, want (102,202)", p)
	}
}

func TestTranslateTextInScaledTextSpace(t *testing.T) {
	gs := NewGraphicsState()
	gs.SetTextMatrix(model.Matrix{2, 0, 0, 2, 100, 100})
	gs.TranslateText(10, -5)

	// Td offsets are in text space and therefore scaled by Tm
	if gs.Text.TextMatrix[4] != 120 || gs.Text.TextMatrix[5] != 90 {
		t.Errorf("text matrix = %v, want e=120 f=90", gs.Text.TextMatrix)
	}
	if gs.Text.TextLineMatrix != gs.Text.TextMatrix {
		t.Error("line matrix should equal text matrix after Td")
	}
}

func TestTextLeading(t *testing.T) {
	gs := NewGraphicsState()
	gs.SetTextMatrix(model.Translate(72, 720))
	gs.TranslateTextSetLeading(0, -14)
	if gs.Text.Leading != 14 {
		t.Errorf("leading = %v, want 14", gs.Text.Leading)
	}
	gs.NextLine()
	if gs.Text.TextMatrix[5] != 720-28 {
		t.Errorf("y = %v, want %v", gs.Text.TextMatrix[5], 720-28)
	}
}

func TestTextRenderingMatrix(t *testing.T) {
	gs := NewGraphicsState()
	gs.Transform(model.Translate(0, 10))
	gs.SetFont("F1", nil, 12)
	gs.SetHorizontalScaling(50)
	gs.SetTextRise(2)
	gs.SetTextMatrix(model.Translate(100, 700))

	trm := gs.TextRenderingMatrix()
	want := model.Matrix{6, 0, 0, 12, 100, 712}
	for i := range want {
		if !almostEqual(trm[i], want[i]) {
			t.Fatalf("Trm = %v, want %v", trm, want)
		}
	}

	x, y := gs.GetTextPosition()
	if x != 100 || y != 712 {
		t.Errorf("text position = (%v, %v), want (100, 712)", x, y)
	}
}

func TestAdvanceGlyph(t *testing.T) {
	tests := []struct {
		name      string
		tc, tw    float64
		tz        float64
		width     float64
		wordSpace bool
		want      float64
	}{
		{"plain", 0, 0, 100, 500, false, 5},
		{"char spacing", 1, 0, 100, 500, false, 6},
		{"word spacing on space", 1, 2, 100, 250, true, 5.5},
		{"word spacing ignored", 0, 2, 100, 500, false, 5},
		{"horizontal scaling", 1, 0, 50, 500, false, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := NewGraphicsState()
			gs.SetFont("F1", nil, 10)
			gs.SetCharSpacing(tt.tc)
			gs.SetWordSpacing(tt.tw)
			gs.SetHorizontalScaling(tt.tz)
			gs.AdvanceGlyph(tt.width, tt.wordSpace, false)
			if !almostEqual(gs.Text.TextMatrix[4], tt.want) {
				t.Errorf("advance = %v, want %v", gs.Text.TextMatrix[4], tt.want)
			}
		})
	}
}

func TestAdvanceGlyphVertical(t *testing.T) {
	gs := NewGraphicsState()
	gs.SetFont("F1", nil, 10)
	gs.AdvanceGlyph(1000, false, true)
	if gs.Text.TextMatrix[4] != 0 || gs.Text.TextMatrix[5] != -10 {
		t.Errorf("vertical advance = %v", gs.Text.TextMatrix)
	}
}

func TestAdjustTJ(t *testing.T) {
	gs := NewGraphicsState()
	gs.SetFont("F1", nil, 10)
	gs.AdjustTJ(-200, false)
	if !almostEqual(gs.Text.TextMatrix[4], 2) {
		t.Errorf("TJ -200 moved to %v, want 2", gs.Text.TextMatrix[4])
	}
	gs.AdjustTJ(400, false)
	if !almostEqual(gs.Text.TextMatrix[4], -2) {
		t.Errorf("TJ 400 moved to %v, want -2", gs.Text.TextMatrix[4])
	}

	// the shift is in text space: a rotated text matrix moves along y
	gs = NewGraphicsState()
	gs.SetFont("F1", nil, 10)
	gs.SetTextMatrix(model.Matrix{0, 1, -1, 0, 0, 0})
	gs.AdjustTJ(-1000, false)
	if !almostEqual(gs.Text.TextMatrix[4], 0) || !almostEqual(gs.Text.TextMatrix[5], 10) {
		t.Errorf("rotated TJ = %v", gs.Text.TextMatrix)
	}
}

func TestClone(t *testing.T) {
	gs := NewGraphicsState()
	gs.Save()
	gs.Transform(model.Translate(1, 2))
	c := gs.Clone()
	if c.CTM != gs.CTM || c.Depth() != 0 {
		t.Errorf("clone = %+v", c)
	}
	c.Transform(model.Translate(5, 5))
	if gs.CTM == c.CTM {
		t.Error("clone shares CTM with original")
	}
}
