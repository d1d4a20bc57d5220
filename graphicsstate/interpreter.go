package graphicsstate

import (
	"github.com/cioplenu/pdf-lib/contentstream"
	"github.com/cioplenu/pdf-lib/core"
	"github.com/cioplenu/pdf-lib/font"
	"github.com/cioplenu/pdf-lib/model"
)

// TextGlyph is one shown character positioned in user space
type TextGlyph struct {
	Text string

	// Corners are the four corners of the glyph cell (width by ascent to
	// descent) after the text rendering matrix and CTM.
	Corners []model.Point

	RenderingMode int
}

// Handler receives the content the interpreter encounters
type Handler interface {
	// Font loads the font resource selected by Tf
	Font(name string) (*font.Font, error)

	// Glyph is called once per shown character
	Glyph(g TextGlyph)

	// XObject is called for Do with the state in effect
	XObject(name string, gs *GraphicsState) error

	// InlineImage is called for BI ... EI with the state in effect
	InlineImage(img *contentstream.InlineImage, gs *GraphicsState) error
}

// Interpreter walks content stream operations, tracks the graphics state and
// reports text and images to a Handler
type Interpreter struct {
	gs       *GraphicsState
	handler  Handler
	fallback *font.Font
}

// NewInterpreter creates an interpreter starting from gs. A nil gs starts
// from the default state.
func NewInterpreter(handler Handler, gs *GraphicsState) *Interpreter {
	if gs == nil {
		gs = NewGraphicsState()
	}
	return &Interpreter{
		gs:       gs,
		handler:  handler,
		fallback: font.NewFont("", "Helvetica", "Type1"),
	}
}

// State returns the current graphics state
func (in *Interpreter) State() *GraphicsState { return in.gs }

// Run processes operations in order. It stops at the first error returned
// by the Handler; malformed operators are ignored.
func (in *Interpreter) Run(operations []contentstream.Operation) error {
	for _, op := range operations {
		if err := in.processOperation(op); err != nil {
			return err
		}
	}
	return nil
}

// RunBytes parses and runs raw content stream data. Operations parsed
// before a truncated inline image still run.
func (in *Interpreter) RunBytes(data []byte) error {
	ops, parseErr := contentstream.NewParser(data).Parse()
	if err := in.Run(ops); err != nil {
		return err
	}
	return parseErr
}

func (in *Interpreter) processOperation(op contentstream.Operation) error {
	gs := in.gs
	args := op.Operands

	switch op.Operator {
	// Graphics state operators
	case "q":
		gs.Save()
	case "Q":
		// unbalanced Q is common and harmless
		_ = gs.Restore()
	case "cm":
		if m, ok := operandsToMatrix(args); ok {
			gs.Transform(m)
		}

	// Text object and state operators
	case "BT":
		gs.BeginText()
	case "ET":
	case "Tf":
		if len(args) == 2 {
			name, _ := args[0].(core.Name)
			size, _ := toFloat(args[1])
			f, err := in.handler.Font(string(name))
			if err != nil || f == nil {
				f = in.fallback
			}
			gs.SetFont(string(name), f, size)
		}
	case "Tc":
		if v, ok := floatArg(args, 0, 1); ok {
			gs.SetCharSpacing(v)
		}
	case "Tw":
		if v, ok := floatArg(args, 0, 1); ok {
			gs.SetWordSpacing(v)
		}
	case "Tz":
		if v, ok := floatArg(args, 0, 1); ok {
			gs.SetHorizontalScaling(v)
		}
	case "TL":
		if v, ok := floatArg(args, 0, 1); ok {
			gs.SetLeading(v)
		}
	case "Tr":
		if v, ok := floatArg(args, 0, 1); ok {
			gs.SetRenderingMode(int(v))
		}
	case "Ts":
		if v, ok := floatArg(args, 0, 1); ok {
			gs.SetTextRise(v)
		}

	// Text positioning operators
	case "Td", "TD":
		if len(args) == 2 {
			tx, _ := toFloat(args[0])
			ty, _ := toFloat(args[1])
			if op.Operator == "TD" {
				gs.TranslateTextSetLeading(tx, ty)
			} else {
				gs.TranslateText(tx, ty)
			}
		}
	case "Tm":
		if m, ok := operandsToMatrix(args); ok {
			gs.SetTextMatrix(m)
		}
	case "T*":
		gs.NextLine()

	// Text showing operators
	case "Tj":
		if s, ok := lastString(args); ok {
			in.showText(s)
		}
	case "'":
		gs.NextLine()
		if s, ok := lastString(args); ok {
			in.showText(s)
		}
	case `"`:
		if len(args) == 3 {
			if aw, ok := toFloat(args[0]); ok {
				gs.SetWordSpacing(aw)
			}
			if ac, ok := toFloat(args[1]); ok {
				gs.SetCharSpacing(ac)
			}
		}
		gs.NextLine()
		if s, ok := lastString(args); ok {
			in.showText(s)
		}
	case "TJ":
		if len(args) > 0 {
			if arr, ok := args[len(args)-1].(core.Array); ok {
				in.showTextArray(arr)
			}
		}

	// XObjects and inline images
	case "Do":
		if len(args) > 0 {
			if name, ok := args[len(args)-1].(core.Name); ok {
				return in.handler.XObject(string(name), gs)
			}
		}
	case "BI":
		if op.Image != nil {
			return in.handler.InlineImage(op.Image, gs)
		}
	}

	return nil
}

func (in *Interpreter) currentFont() *font.Font {
	if f := in.gs.Text.Font; f != nil {
		return f
	}
	return in.fallback
}

// showText reports one glyph per character code and advances the text
// matrix after each
func (in *Interpreter) showText(s core.String) {
	f := in.currentFont()
	vertical := f.IsVertical()
	ascent := f.Ascent() / 1000.0
	descent := f.Descent() / 1000.0

	for _, ch := range f.Chars([]byte(s)) {
		trm := in.gs.TextRenderingMatrix()
		w := ch.Width / 1000.0

		var corners []model.Point
		if vertical {
			half := w / 2
			if half == 0 {
				half = 0.5
			}
			corners = trm.Corners(-half, -1, half, 0)
		} else {
			corners = trm.Corners(0, descent, w, ascent)
		}

		in.handler.Glyph(TextGlyph{
			Text:          ch.Text,
			Corners:       corners,
			RenderingMode: in.gs.Text.RenderingMode,
		})

		wordSpace := ch.Bytes == 1 && ch.Code == ' '
		in.gs.AdvanceGlyph(ch.Width, wordSpace, vertical)
	}
}

func (in *Interpreter) showTextArray(arr core.Array) {
	vertical := in.currentFont().IsVertical()
	for _, item := range arr {
		switch v := item.(type) {
		case core.String:
			in.showText(v)
		case core.Int, core.Real:
			n, _ := toFloat(v)
			in.gs.AdjustTJ(n, vertical)
		}
	}
}

// Helper functions

func toFloat(obj core.Object) (float64, bool) {
	switch v := obj.(type) {
	case core.Int:
		return float64(v), true
	case core.Real:
		return float64(v), true
	default:
		return 0, false
	}
}

// floatArg returns args[i] as a number when exactly n operands are present
func floatArg(args []core.Object, i, n int) (float64, bool) {
	if len(args) != n {
		return 0, false
	}
	return toFloat(args[i])
}

func lastString(args []core.Object) (core.String, bool) {
	if len(args) == 0 {
		return "", false
	}
	s, ok := args[len(args)-1].(core.String)
	return s, ok
}

func operandsToMatrix(operands []core.Object) (model.Matrix, bool) {
	var m model.Matrix
	if len(operands) != 6 {
		return m, false
	}
	for i, op := range operands {
		v, ok := toFloat(op)
		if !ok {
			return m, false
		}
		m[i] = v
	}
	return m, true
}
