package core

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// maxNesting bounds array/dictionary depth so hostile input cannot exhaust
// the stack
const maxNesting = 256

// ReferenceResolver resolves indirect references. The parser uses it for
// streams whose /Length is an indirect object.
type ReferenceResolver interface {
	ResolveReference(ref IndirectRef) (Object, error)
}

// ErrUnexpectedKeyword is returned when a keyword appears where an object
// was expected
var ErrUnexpectedKeyword = errors.New("unexpected keyword")

// Parser builds PDF objects from tokens
type Parser struct {
	lex      *Lexer
	resolver ReferenceResolver
	refs     bool // recognise "num gen R"
	depth    int
}

// NewParser creates a parser over data starting at offset 0
func NewParser(data []byte) *Parser {
	return &Parser{lex: NewLexer(data), refs: true}
}

// NewParserAt creates a parser over data starting at offset
func NewParserAt(data []byte, offset int) *Parser {
	p := NewParser(data)
	p.lex.Seek(offset)
	return p
}

// NewOperandParser creates a parser for content stream operands, where
// indirect references cannot occur.
func NewOperandParser(lex *Lexer) *Parser {
	return &Parser{lex: lex}
}

// SetReferenceResolver sets the resolver used for indirect stream lengths
func (p *Parser) SetReferenceResolver(resolver ReferenceResolver) {
	p.resolver = resolver
}

// Lexer returns the underlying lexer
func (p *Parser) Lexer() *Lexer { return p.lex }

// ParseObject parses the next object
func (p *Parser) ParseObject() (Object, error) {
	tok, err := p.lex.NextToken()
	if err != nil {
		return nil, err
	}
	return p.ParseToken(tok)
}

// ParseToken parses an object whose first token has already been read
func (p *Parser) ParseToken(tok Token) (Object, error) {
	switch tok.Type {
	case TokenEOF:
		return nil, fmt.Errorf("unexpected EOF at offset %d", tok.Pos)
	case TokenInteger:
		return p.parseInteger(tok)
	case TokenReal:
		f, err := strconv.ParseFloat(string(tok.Value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid real %q at offset %d: %w", tok.Value, tok.Pos, err)
		}
		return Real(f), nil
	case TokenString, TokenHexString:
		return String(tok.Value), nil
	case TokenName:
		return Name(tok.Value), nil
	case TokenArrayStart:
		return p.parseArray()
	case TokenDictStart:
		return p.parseDict()
	case TokenKeyword:
		switch string(tok.Value) {
		case "null":
			return Null{}, nil
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		}
		return nil, fmt.Errorf("%w %q at offset %d", ErrUnexpectedKeyword, tok.Value, tok.Pos)
	}
	return nil, fmt.Errorf("unexpected token %d at offset %d", tok.Type, tok.Pos)
}

// parseInteger parses an integer, or an indirect reference detected by
// looking ahead for "gen R"
func (p *Parser) parseInteger(tok Token) (Object, error) {
	n, err := strconv.ParseInt(string(tok.Value), 10, 64)
	if err != nil {
		// out of range integers degrade to reals
		f, ferr := strconv.ParseFloat(string(tok.Value), 64)
		if ferr != nil {
			return nil, fmt.Errorf("invalid integer %q at offset %d: %w", tok.Value, tok.Pos, err)
		}
		return Real(f), nil
	}
	if !p.refs || n < 0 {
		return Int(n), nil
	}

	mark := p.lex.Pos()
	gen, err := p.lex.NextToken()
	if err == nil && gen.Type == TokenInteger {
		r, err := p.lex.NextToken()
		if err == nil && r.Keyword("R") {
			g, _ := strconv.Atoi(string(gen.Value))
			return IndirectRef{Number: int(n), Generation: g}, nil
		}
	}
	p.lex.Seek(mark)
	return Int(n), nil
}

func (p *Parser) parseArray() (Object, error) {
	if p.depth >= maxNesting {
		return nil, fmt.Errorf("nesting deeper than %d", maxNesting)
	}
	p.depth++
	defer func() { p.depth-- }()

	arr := Array{}
	for {
		tok, err := p.lex.NextToken()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case TokenArrayEnd:
			return arr, nil
		case TokenEOF:
			return nil, fmt.Errorf("unexpected EOF in array")
		}
		obj, err := p.ParseToken(tok)
		if err != nil {
			return nil, fmt.Errorf("array element: %w", err)
		}
		arr = append(arr, obj)
	}
}

func (p *Parser) parseDict() (Object, error) {
	if p.depth >= maxNesting {
		return nil, fmt.Errorf("nesting deeper than %d", maxNesting)
	}
	p.depth++
	defer func() { p.depth-- }()

	dict := Dict{}
	for {
		tok, err := p.lex.NextToken()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case TokenDictEnd:
			return dict, nil
		case TokenEOF:
			return nil, fmt.Errorf("unexpected EOF in dictionary")
		case TokenName:
		default:
			return nil, fmt.Errorf("dictionary key must be a name, got token %d at offset %d", tok.Type, tok.Pos)
		}
		key := string(tok.Value)

		valTok, err := p.lex.NextToken()
		if err != nil {
			return nil, err
		}
		if valTok.Type == TokenDictEnd {
			// "/Key >>" with the value missing
			dict[key] = Null{}
			return dict, nil
		}
		value, err := p.ParseToken(valTok)
		if err != nil {
			return nil, fmt.Errorf("value for /%s: %w", key, err)
		}
		// a null value is equivalent to an absent key
		if _, isNull := value.(Null); isNull {
			continue
		}
		dict[key] = value
	}
}

// ParseIndirectObject parses "num gen obj <object> endobj", including a
// trailing stream body
func (p *Parser) ParseIndirectObject() (*IndirectObject, error) {
	numTok, err := p.lex.NextToken()
	if err != nil {
		return nil, err
	}
	genTok, err := p.lex.NextToken()
	if err != nil {
		return nil, err
	}
	objTok, err := p.lex.NextToken()
	if err != nil {
		return nil, err
	}
	if numTok.Type != TokenInteger || genTok.Type != TokenInteger || !objTok.Keyword("obj") {
		return nil, fmt.Errorf("expected object header at offset %d", numTok.Pos)
	}
	num, _ := strconv.Atoi(string(numTok.Value))
	gen, _ := strconv.Atoi(string(genTok.Value))
	ref := IndirectRef{Number: num, Generation: gen}

	tok, err := p.lex.NextToken()
	if err != nil {
		return nil, err
	}
	if tok.Keyword("endobj") {
		// empty object body
		return &IndirectObject{Ref: ref, Object: Null{}}, nil
	}
	obj, err := p.ParseToken(tok)
	if err != nil {
		return nil, fmt.Errorf("object %d %d: %w", num, gen, err)
	}

	mark := p.lex.Pos()
	next, err := p.lex.NextToken()
	if err == nil && next.Keyword("stream") {
		dict, ok := obj.(Dict)
		if !ok {
			return nil, fmt.Errorf("object %d %d: stream without dictionary", num, gen)
		}
		stream, err := p.parseStreamBody(dict)
		if err != nil {
			return nil, fmt.Errorf("object %d %d: %w", num, gen, err)
		}
		obj = stream
	} else {
		// endobj is frequently missing or misspelled; the object is complete
		p.lex.Seek(mark)
	}

	return &IndirectObject{Ref: ref, Object: obj}, nil
}

var endstreamKeyword = []byte("endstream")

// parseStreamBody reads stream data after the "stream" keyword. /Length is
// trusted when it lands on "endstream"; otherwise the data runs to the next
// "endstream" marker.
func (p *Parser) parseStreamBody(dict Dict) (*Stream, error) {
	data := p.lex.Data()
	start := p.lex.Pos()
	// the keyword is followed by CRLF or LF (a lone CR is tolerated)
	if start < len(data) && data[start] == '\r' {
		start++
	}
	if start < len(data) && data[start] == '\n' {
		start++
	}

	if length, ok := p.streamLength(dict); ok && length >= 0 && start+length <= len(data) {
		end := start + length
		probe := NewLexer(data)
		probe.Seek(end)
		if tok, err := probe.NextToken(); err == nil && tok.Keyword("endstream") {
			p.lex.Seek(probe.Pos())
			return &Stream{Dict: dict, Data: data[start:end]}, nil
		}
	}

	idx := bytes.Index(data[start:], endstreamKeyword)
	if idx < 0 {
		return nil, fmt.Errorf("stream at offset %d has no endstream", start)
	}
	end := start + idx
	if end > start && data[end-1] == '\n' {
		end--
	}
	if end > start && data[end-1] == '\r' {
		end--
	}
	p.lex.Seek(start + idx + len(endstreamKeyword))
	return &Stream{Dict: dict, Data: data[start:end]}, nil
}

func (p *Parser) streamLength(dict Dict) (int, bool) {
	switch v := dict.Get("Length").(type) {
	case Int:
		return int(v), true
	case Real:
		return int(v), true
	case IndirectRef:
		if p.resolver == nil {
			return 0, false
		}
		obj, err := p.resolver.ResolveReference(v)
		if err != nil {
			return 0, false
		}
		if n, ok := obj.(Int); ok {
			return int(n), true
		}
	}
	return 0, false
}
