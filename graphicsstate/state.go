package graphicsstate

import (
	"fmt"

	"github.com/cioplenu/pdf-lib/font"
	"github.com/cioplenu/pdf-lib/model"
)

// maxStackDepth bounds q nesting; deeper saves are ignored
const maxStackDepth = 256

// GraphicsState represents the parts of the PDF graphics state that affect
// where text and images land on the page.
type GraphicsState struct {
	// Current Transformation Matrix
	CTM model.Matrix

	// Text state
	Text TextState

	// Graphics state stack (for q/Q operators)
	stack []savedState
}

type savedState struct {
	ctm  model.Matrix
	text TextState
}

// TextState represents text-specific state
type TextState struct {
	FontName string
	FontSize float64

	// Font is the loaded font selected by Tf, nil before the first Tf.
	Font *font.Font

	CharSpacing float64
	WordSpacing float64

	// Horizontal scaling (percentage)
	HorizontalScaling float64

	// Leading (line spacing)
	Leading float64

	RenderingMode int
	Rise          float64

	TextMatrix     model.Matrix
	TextLineMatrix model.Matrix
}

// NewGraphicsState creates a new graphics state with default values
func NewGraphicsState() *GraphicsState {
	return NewGraphicsStateWithCTM(model.Identity())
}

// NewGraphicsStateWithCTM creates a default state with the given CTM
func NewGraphicsStateWithCTM(ctm model.Matrix) *GraphicsState {
	return &GraphicsState{
		CTM: ctm,
		Text: TextState{
			FontSize:          12.0,
			HorizontalScaling: 100.0,
			TextMatrix:        model.Identity(),
			TextLineMatrix:    model.Identity(),
		},
	}
}

// Clone copies the current state without the save stack, as the starting
// state of a form XObject
func (gs *GraphicsState) Clone() *GraphicsState {
	return &GraphicsState{CTM: gs.CTM, Text: gs.Text}
}

// Depth returns the number of saved states
func (gs *GraphicsState) Depth() int { return len(gs.stack) }

// Save pushes the current graphics state onto the stack (q operator)
func (gs *GraphicsState) Save() {
	if len(gs.stack) >= maxStackDepth {
		return
	}
	gs.stack = append(gs.stack, savedState{ctm: gs.CTM, text: gs.Text})
}

// Restore pops a graphics state from the stack (Q operator)
func (gs *GraphicsState) Restore() error {
	if len(gs.stack) == 0 {
		return fmt.Errorf("graphics state stack underflow")
	}

	saved := gs.stack[len(gs.stack)-1]
	gs.stack = gs.stack[:len(gs.stack)-1]
	gs.CTM = saved.ctm

	// the text and line matrices belong to the text object, not the
	// saved state
	tm, tlm := gs.Text.TextMatrix, gs.Text.TextLineMatrix
	gs.Text = saved.text
	gs.Text.TextMatrix, gs.Text.TextLineMatrix = tm, tlm
	return nil
}

// Transform concatenates m with the CTM (cm operator): CTM' = m × CTM
func (gs *GraphicsState) Transform(m model.Matrix) {
	gs.CTM = m.Multiply(gs.CTM)
}

// SetFont sets the current font (Tf operator)
func (gs *GraphicsState) SetFont(name string, f *font.Font, size float64) {
	gs.Text.FontName = name
	gs.Text.Font = f
	gs.Text.FontSize = size
}

// SetCharSpacing sets character spacing (Tc operator)
func (gs *GraphicsState) SetCharSpacing(spacing float64) {
	gs.Text.CharSpacing = spacing
}

// SetWordSpacing sets word spacing (Tw operator)
func (gs *GraphicsState) SetWordSpacing(spacing float64) {
	gs.Text.WordSpacing = spacing
}

// SetHorizontalScaling sets horizontal scaling (Tz operator)
func (gs *GraphicsState) SetHorizontalScaling(scale float64) {
	gs.Text.HorizontalScaling = scale
}

// SetLeading sets text leading (TL operator)
func (gs *GraphicsState) SetLeading(leading float64) {
	gs.Text.Leading = leading
}

// SetRenderingMode sets text rendering mode (Tr operator)
func (gs *GraphicsState) SetRenderingMode(mode int) {
	gs.Text.RenderingMode = mode
}

// SetTextRise sets text rise (Ts operator)
func (gs *GraphicsState) SetTextRise(rise float64) {
	gs.Text.Rise = rise
}

// BeginText initializes text state (BT operator)
func (gs *GraphicsState) BeginText() {
	gs.Text.TextMatrix = model.Identity()
	gs.Text.TextLineMatrix = model.Identity()
}

// SetTextMatrix sets the text matrix (Tm operator)
func (gs *GraphicsState) SetTextMatrix(m model.Matrix) {
	gs.Text.TextMatrix = m
	gs.Text.TextLineMatrix = m
}

// TranslateText starts a new line offset by tx, ty in text space (Td
// operator): Tlm' = T(tx, ty) × Tlm
func (gs *GraphicsState) TranslateText(tx, ty float64) {
	gs.Text.TextLineMatrix = model.Translate(tx, ty).Multiply(gs.Text.TextLineMatrix)
	gs.Text.TextMatrix = gs.Text.TextLineMatrix
}

// TranslateTextSetLeading translates text and sets leading (TD operator)
func (gs *GraphicsState) TranslateTextSetLeading(tx, ty float64) {
	gs.SetLeading(-ty)
	gs.TranslateText(tx, ty)
}

// NextLine moves to next line (T* operator)
func (gs *GraphicsState) NextLine() {
	gs.TranslateText(0, -gs.Text.Leading)
}

// scale returns the horizontal scaling as a factor
func (gs *GraphicsState) scale() float64 {
	return gs.Text.HorizontalScaling / 100.0
}

// TextRenderingMatrix returns Trm = [fs×Th 0 0 fs 0 rise] × Tm × CTM,
// mapping glyph space (in text space units of one em) to user space.
func (gs *GraphicsState) TextRenderingMatrix() model.Matrix {
	fs := gs.Text.FontSize
	params := model.Matrix{fs * gs.scale(), 0, 0, fs, 0, gs.Text.Rise}
	return params.Multiply(gs.Text.TextMatrix).Multiply(gs.CTM)
}

// AdvanceGlyph moves the text matrix past one glyph. width is the glyph
// width in thousandths of an em; wordSpace is true for the single-byte
// code 32, which also receives word spacing.
func (gs *GraphicsState) AdvanceGlyph(width float64, wordSpace bool, vertical bool) {
	spacing := gs.Text.CharSpacing
	if wordSpace {
		spacing += gs.Text.WordSpacing
	}

	if vertical {
		ty := -gs.Text.FontSize + spacing
		gs.Text.TextMatrix = model.Translate(0, ty).Multiply(gs.Text.TextMatrix)
		return
	}

	tx := (width/1000.0*gs.Text.FontSize + spacing) * gs.scale()
	gs.Text.TextMatrix = model.Translate(tx, 0).Multiply(gs.Text.TextMatrix)
}

// AdjustTJ applies a TJ array number, in thousandths of an em
func (gs *GraphicsState) AdjustTJ(v float64, vertical bool) {
	shift := -v / 1000.0 * gs.Text.FontSize
	if vertical {
		gs.Text.TextMatrix = model.Translate(0, shift).Multiply(gs.Text.TextMatrix)
		return
	}
	gs.Text.TextMatrix = model.Translate(shift*gs.scale(), 0).Multiply(gs.Text.TextMatrix)
}

// GetTextPosition returns the current text origin in user space
func (gs *GraphicsState) GetTextPosition() (x, y float64) {
	p := gs.TextRenderingMatrix().Transform(model.Point{})
	return p.X, p.Y
}
