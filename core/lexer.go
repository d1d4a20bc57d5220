package core

import (
	"bytes"
	"fmt"
)

// TokenType represents the type of token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenKeyword     // obj, endobj, stream, R, true, content operators, ...
	TokenInteger     // 123
	TokenReal        // 3.14
	TokenString      // (hello)
	TokenHexString   // <48656C6C6F>
	TokenName        // /Type
	TokenArrayStart  // [
	TokenArrayEnd    // ]
	TokenDictStart   // <<
	TokenDictEnd     // >>
)

// Token is a lexical token. For strings, hex strings and names Value holds
// the decoded bytes.
type Token struct {
	Type  TokenType
	Value []byte
	Pos   int
}

// Keyword reports whether the token is the given keyword
func (t Token) Keyword(kw string) bool {
	return t.Type == TokenKeyword && string(t.Value) == kw
}

// Lexer tokenizes PDF syntax held in memory. Comments are skipped.
type Lexer struct {
	data []byte
	pos  int
}

// NewLexer creates a lexer positioned at the start of data
func NewLexer(data []byte) *Lexer {
	return &Lexer{data: data}
}

// Pos returns the current byte offset
func (l *Lexer) Pos() int { return l.pos }

// Seek moves the lexer to an absolute offset
func (l *Lexer) Seek(pos int) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(l.data) {
		pos = len(l.data)
	}
	l.pos = pos
}

// Data returns the underlying buffer
func (l *Lexer) Data() []byte { return l.data }

// AtEOF reports whether only whitespace and comments remain
func (l *Lexer) AtEOF() bool {
	l.SkipWhitespace()
	return l.pos >= len(l.data)
}

// NextToken returns the next token
func (l *Lexer) NextToken() (Token, error) {
	l.SkipWhitespace()
	if l.pos >= len(l.data) {
		return Token{Type: TokenEOF, Pos: l.pos}, nil
	}

	start := l.pos
	b := l.data[l.pos]
	switch b {
	case '[':
		l.pos++
		return Token{Type: TokenArrayStart, Pos: start}, nil
	case ']':
		l.pos++
		return Token{Type: TokenArrayEnd, Pos: start}, nil
	case '(':
		return l.readString()
	case '<':
		if l.peekAt(1) == '<' {
			l.pos += 2
			return Token{Type: TokenDictStart, Pos: start}, nil
		}
		return l.readHexString()
	case '>':
		if l.peekAt(1) == '>' {
			l.pos += 2
			return Token{Type: TokenDictEnd, Pos: start}, nil
		}
		return Token{}, fmt.Errorf("unexpected '>' at offset %d", start)
	case '/':
		return l.readName()
	case '{', '}':
		l.pos++
		return Token{Type: TokenKeyword, Value: []byte{b}, Pos: start}, nil
	case ')':
		return Token{}, fmt.Errorf("unbalanced ')' at offset %d", start)
	}

	if isDigit(b) || b == '-' || b == '+' || b == '.' {
		return l.readNumber()
	}
	return l.readKeyword()
}

// SkipWhitespace skips whitespace and comments
func (l *Lexer) SkipWhitespace() {
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if isWhitespace(b) {
			l.pos++
			continue
		}
		if b == '%' {
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
			continue
		}
		return
	}
}

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.data) {
		return 0
	}
	return l.data[l.pos+n]
}

func (l *Lexer) readString() (Token, error) {
	start := l.pos
	l.pos++ // (
	var buf bytes.Buffer
	depth := 1
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		l.pos++
		switch b {
		case '(':
			depth++
			buf.WriteByte(b)
		case ')':
			depth--
			if depth == 0 {
				return Token{Type: TokenString, Value: buf.Bytes(), Pos: start}, nil
			}
			buf.WriteByte(b)
		case '\\':
			l.readEscape(&buf)
		case '\r':
			// EOL inside a literal string is always read as \n
			if l.pos < len(l.data) && l.data[l.pos] == '\n' {
				l.pos++
			}
			buf.WriteByte('\n')
		default:
			buf.WriteByte(b)
		}
	}
	return Token{}, fmt.Errorf("unterminated string at offset %d", start)
}

func (l *Lexer) readEscape(buf *bytes.Buffer) {
	if l.pos >= len(l.data) {
		return
	}
	next := l.data[l.pos]
	l.pos++
	switch next {
	case 'n':
		buf.WriteByte('\n')
	case 'r':
		buf.WriteByte('\r')
	case 't':
		buf.WriteByte('\t')
	case 'b':
		buf.WriteByte('\b')
	case 'f':
		buf.WriteByte('\f')
	case '\r':
		if l.pos < len(l.data) && l.data[l.pos] == '\n' {
			l.pos++
		}
	case '\n':
		// line continuation
	default:
		if isOctalDigit(next) {
			val := int(next - '0')
			for i := 0; i < 2 && l.pos < len(l.data) && isOctalDigit(l.data[l.pos]); i++ {
				val = val*8 + int(l.data[l.pos]-'0')
				l.pos++
			}
			buf.WriteByte(byte(val))
			return
		}
		buf.WriteByte(next)
	}
}

func (l *Lexer) readHexString() (Token, error) {
	start := l.pos
	l.pos++ // <
	var out []byte
	var hi byte
	half := false
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		l.pos++
		if b == '>' {
			if half {
				out = append(out, hi<<4)
			}
			return Token{Type: TokenHexString, Value: out, Pos: start}, nil
		}
		if isWhitespace(b) {
			continue
		}
		if !isHexDigit(b) {
			return Token{}, fmt.Errorf("invalid hex digit %q at offset %d", b, l.pos-1)
		}
		if half {
			out = append(out, hi<<4|hexValue(b))
		} else {
			hi = hexValue(b)
		}
		half = !half
	}
	return Token{}, fmt.Errorf("unterminated hex string at offset %d", start)
}

func (l *Lexer) readName() (Token, error) {
	start := l.pos
	l.pos++ // /
	var buf bytes.Buffer
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.pos++
		if b == '#' && isHexDigit(l.peekAt(0)) && isHexDigit(l.peekAt(1)) {
			buf.WriteByte(hexValue(l.data[l.pos])<<4 | hexValue(l.data[l.pos+1]))
			l.pos += 2
			continue
		}
		buf.WriteByte(b)
	}
	return Token{Type: TokenName, Value: buf.Bytes(), Pos: start}, nil
}

func (l *Lexer) readNumber() (Token, error) {
	start := l.pos
	hasDecimal := false
	if b := l.data[l.pos]; b == '-' || b == '+' {
		l.pos++
		// producers sometimes write "--1" or "-+1"
		for l.pos < len(l.data) && (l.data[l.pos] == '-' || l.data[l.pos] == '+') {
			l.pos++
		}
	}
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if b == '.' && !hasDecimal {
			hasDecimal = true
			l.pos++
			continue
		}
		if !isDigit(b) {
			break
		}
		l.pos++
	}

	value := normalizeNumber(l.data[start:l.pos])
	if len(value) == 0 {
		// a lone sign or dot reads as zero
		value = []byte("0")
	}
	if hasDecimal {
		return Token{Type: TokenReal, Value: value, Pos: start}, nil
	}
	return Token{Type: TokenInteger, Value: value, Pos: start}, nil
}

// normalizeNumber collapses repeated signs into one
func normalizeNumber(raw []byte) []byte {
	neg := false
	i := 0
	for i < len(raw) && (raw[i] == '-' || raw[i] == '+') {
		if raw[i] == '-' {
			neg = true
		}
		i++
	}
	digits := raw[i:]
	if len(digits) == 0 || (len(digits) == 1 && digits[0] == '.') {
		return nil
	}
	out := make([]byte, 0, len(digits)+1)
	if neg {
		out = append(out, '-')
	}
	return append(out, digits...)
}

func (l *Lexer) readKeyword() (Token, error) {
	start := l.pos
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.pos++
	}
	if l.pos == start {
		return Token{}, fmt.Errorf("unexpected character %q at offset %d", l.data[start], start)
	}
	return Token{Type: TokenKeyword, Value: l.data[start:l.pos], Pos: start}, nil
}

// ReadBytes returns the next n bytes and advances past them
func (l *Lexer) ReadBytes(n int) ([]byte, error) {
	if n < 0 || l.pos+n > len(l.data) {
		return nil, fmt.Errorf("unexpected EOF: need %d bytes at offset %d", n, l.pos)
	}
	out := l.data[l.pos : l.pos+n]
	l.pos += n
	return out, nil
}

// Helper functions

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isOctalDigit(b byte) bool {
	return b >= '0' && b <= '7'
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func hexValue(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}

// IsWhitespace reports whether b is PDF whitespace
func IsWhitespace(b byte) bool { return isWhitespace(b) }

// IsDelimiter reports whether b is a PDF delimiter
func IsDelimiter(b byte) bool { return isDelimiter(b) }
