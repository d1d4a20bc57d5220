package contentstream

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cioplenu/pdf-lib/core"
)

// Operation represents a single content stream operation consisting of an
// operator and its operands. Operands are PDF objects that precede the operator.
type Operation struct {
	Operator string        // The operator (e.g., "Tj", "Tm", "q")
	Operands []core.Object // The operands

	// Image is set for the "BI" operator and holds the inline image.
	Image *InlineImage
}

// InlineImage is an image embedded in the content stream between BI and EI.
// Dict keys are kept as written, abbreviations included.
type InlineImage struct {
	Dict core.Dict
	Data []byte
}

// ErrInlineImage is returned when an inline image has no ID or EI marker
var ErrInlineImage = errors.New("malformed inline image")

// maxOperands caps the operand stack between two operators
const maxOperands = 1024

// Parser parses PDF content streams into a sequence of operations.
type Parser struct {
	lex      *core.Lexer
	objects  *core.Parser
	operands []core.Object
	ops      []Operation
}

// NewParser creates a new content stream parser for the given data.
func NewParser(data []byte) *Parser {
	lex := core.NewLexer(data)
	return &Parser{
		lex:     lex,
		objects: core.NewOperandParser(lex),
		ops:     make([]Operation, 0),
	}
}

// Parse parses the content stream and returns all operations in order.
// Malformed tokens are skipped. A non-nil error means the stream ended
// inside an inline image; the operations returned up to that point are
// still valid.
func (p *Parser) Parse() ([]Operation, error) {
	for {
		tok, err := p.lex.NextToken()
		if err != nil {
			p.skipByte()
			continue
		}

		switch tok.Type {
		case core.TokenEOF:
			return p.ops, nil

		case core.TokenKeyword:
			switch string(tok.Value) {
			case "true", "false", "null":
				obj, _ := p.objects.ParseToken(tok)
				p.push(obj)
			case "BI":
				if err := p.parseInlineImage(); err != nil {
					return p.ops, fmt.Errorf("at offset %d: %w", tok.Pos, err)
				}
			default:
				p.emit(string(tok.Value))
			}

		case core.TokenArrayEnd, core.TokenDictEnd:
			// stray closing delimiter

		default:
			obj, err := p.objects.ParseToken(tok)
			if err != nil {
				continue
			}
			p.push(obj)
		}
	}
}

func (p *Parser) push(obj core.Object) {
	if len(p.operands) >= maxOperands {
		return
	}
	p.operands = append(p.operands, obj)
}

// emit creates an operation with the current operand stack, then clears it
func (p *Parser) emit(operator string) {
	operation := Operation{
		Operator: operator,
		Operands: make([]core.Object, len(p.operands)),
	}
	copy(operation.Operands, p.operands)
	p.ops = append(p.ops, operation)
	p.operands = p.operands[:0]
}

func (p *Parser) skipByte() {
	p.lex.SkipWhitespace()
	p.lex.Seek(p.lex.Pos() + 1)
}

// parseInlineImage reads the key/value pairs after BI, then the raw data
// between ID and EI.
func (p *Parser) parseInlineImage() error {
	dict := core.Dict{}
	for {
		tok, err := p.lex.NextToken()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInlineImage, err)
		}
		if tok.Type == core.TokenEOF {
			return fmt.Errorf("%w: missing ID", ErrInlineImage)
		}
		if tok.Keyword("ID") {
			break
		}
		if tok.Type != core.TokenName {
			return fmt.Errorf("%w: key is not a name", ErrInlineImage)
		}
		value, err := p.objects.ParseObject()
		if err != nil {
			return fmt.Errorf("%w: value of /%s: %v", ErrInlineImage, tok.Value, err)
		}
		dict[string(tok.Value)] = value
	}

	// a single whitespace byte separates ID from the data
	data := p.lex.Data()
	start := p.lex.Pos()
	if start < len(data) && core.IsWhitespace(data[start]) {
		start++
	}

	end, next := findEI(data, start)
	if end < 0 {
		return fmt.Errorf("%w: missing EI", ErrInlineImage)
	}

	p.ops = append(p.ops, Operation{
		Operator: "BI",
		Operands: []core.Object{},
		Image:    &InlineImage{Dict: dict, Data: data[start:end]},
	})
	p.operands = p.operands[:0]
	p.lex.Seek(next)
	return nil
}

// findEI locates the EI that ends inline image data starting at start. It
// returns the end of the data and the offset just past EI, or -1. EI must
// be preceded by whitespace, followed by whitespace, a delimiter or the end
// of the stream, and followed by text that looks like content operators so
// that "EI" inside binary data is not taken for the marker.
func findEI(data []byte, start int) (int, int) {
	for i := start; i+2 <= len(data); {
		idx := bytes.Index(data[i:], []byte("EI"))
		if idx < 0 {
			return -1, -1
		}
		pos := i + idx
		i = pos + 1

		if pos == 0 || !core.IsWhitespace(data[pos-1]) {
			continue
		}
		after := pos + 2
		if after < len(data) && !core.IsWhitespace(data[after]) && !core.IsDelimiter(data[after]) {
			continue
		}
		if !looksLikeContent(data[after:]) {
			continue
		}
		return max(pos-1, start), after
	}
	return -1, -1
}

// looksLikeContent reports whether the next bytes are printable ASCII
func looksLikeContent(rest []byte) bool {
	if len(rest) > 32 {
		rest = rest[:32]
	}
	for _, b := range rest {
		if b >= 0x80 || (b < 0x20 && !core.IsWhitespace(b)) {
			return false
		}
	}
	return true
}
