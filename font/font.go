package font

import (
	"strings"
	"unicode/utf8"
)

// Font is a loaded PDF font: how to split a shown string into character
// codes, what text each code stands for and how far each glyph advances
type Font struct {
	Name     string
	BaseFont string
	Subtype  string
	// Encoding is the simple font encoding name or the composite font CMap name
	Encoding string

	// ToUnicode CMap for character code to Unicode mapping
	ToUnicodeCMap *CMap

	// simple fonts: text per code from the base encoding and /Differences
	codeText    [256]string
	hasEncoding bool
	symbolic    bool

	// composite fonts
	composite bool
	cmap      *CMap // nil means Identity
	ucs2      bool  // codes are UCS-2 values (Uni*-UCS2-* CMaps)
	vertical  bool

	widths       map[int]float64 // by code (simple) or CID (composite)
	defaultWidth float64
	widthScale   float64
	std          *standardMetrics

	ascent  float64
	descent float64
}

// Char is one decoded character code
type Char struct {
	Code uint32
	CID  int
	// Text is the Unicode text for the code. It is empty when the font has
	// no usable mapping.
	Text string
	// Width is the horizontal advance in thousandths of a text space unit
	Width float64
	// Bytes is the length of the code in the shown string
	Bytes int
}

// NewFont creates a simple font with standard metrics when baseFont is one
// of the standard 14 fonts
func NewFont(name, baseFont, subtype string) *Font {
	f := &Font{
		Name:         name,
		BaseFont:     baseFont,
		Subtype:      subtype,
		widths:       make(map[int]float64),
		defaultWidth: 500,
		widthScale:   1,
		ascent:       800,
		descent:      -200,
	}
	if m, ok := lookupStandard(baseFont); ok {
		f.std = m
		f.ascent = m.ascent
		f.descent = m.descent
		f.defaultWidth = m.ascii[0]
	}
	f.SetEncoding(f.builtinEncoding(), nil)
	return f
}

// SetEncoding sets the base encoding of a simple font and applies glyph
// name differences keyed by code
func (f *Font) SetEncoding(base Encoding, differences map[byte]string) {
	f.Encoding = base.Name()
	f.hasEncoding = true
	for i := 0; i < 256; i++ {
		if r := base.Decode(byte(i)); r != 0 {
			f.codeText[i] = string(r)
		} else {
			f.codeText[i] = ""
		}
	}
	for code, glyph := range differences {
		f.codeText[code] = GlyphToString(glyph)
	}
}

func (f *Font) builtinEncoding() Encoding {
	switch {
	case strings.Contains(f.BaseFont, "Symbol"):
		return SymbolEncoding
	case f.Subtype == "TrueType":
		return WinAnsiEncoding
	}
	return StandardEncodingTable
}

// IsComposite reports whether the font is a Type0 font
func (f *Font) IsComposite() bool { return f.composite }

// IsVertical reports whether the font uses vertical writing mode
func (f *Font) IsVertical() bool { return f.vertical }

// Ascent returns the ascent in thousandths of an em
func (f *Font) Ascent() float64 { return f.ascent }

// Descent returns the (negative) descent in thousandths of an em
func (f *Font) Descent() float64 { return f.descent }

// Chars splits a shown string into character codes
func (f *Font) Chars(data []byte) []Char {
	chars := make([]Char, 0, len(data))
	for len(data) > 0 {
		var c Char
		if f.composite {
			c = f.compositeChar(data)
		} else {
			c = f.simpleChar(data[0])
		}
		if c.Bytes <= 0 {
			c.Bytes = 1
		}
		chars = append(chars, c)
		data = data[c.Bytes:]
	}
	return chars
}

func (f *Font) simpleChar(b byte) Char {
	c := Char{Code: uint32(b), CID: int(b), Bytes: 1}
	if s, ok := f.ToUnicodeCMap.Lookup(uint32(b)); ok {
		c.Text = s
	} else if f.hasEncoding && f.codeText[b] != "" {
		c.Text = f.codeText[b]
	} else if b >= 0x20 && b < 0x7F {
		c.Text = string(rune(b))
	}
	c.Width = f.simpleWidth(b, c.Text)
	return c
}

func (f *Font) simpleWidth(b byte, text string) float64 {
	if w, ok := f.widths[int(b)]; ok {
		return w * f.widthScale
	}
	if f.std != nil {
		r, _ := utf8.DecodeRuneInString(text)
		if w, ok := f.std.width(r); ok {
			return w
		}
	}
	return f.defaultWidth * f.widthScale
}

func (f *Font) compositeChar(data []byte) Char {
	code, n := f.cmap.NextCode(data, 2)
	c := Char{Code: code, CID: int(code), Bytes: n}
	if cid, ok := f.cmap.CID(code); ok {
		c.CID = cid
	}
	if s, ok := f.ToUnicodeCMap.Lookup(code); ok {
		c.Text = s
	} else if f.ucs2 && code > 0 {
		c.Text = string(rune(code))
	}
	if w, ok := f.widths[c.CID]; ok {
		c.Width = w
	} else {
		c.Width = f.defaultWidth
	}
	return c
}

// DecodeString decodes a shown string to NFC-normalized Unicode text
func (f *Font) DecodeString(data []byte) string {
	if !f.composite && f.ToUnicodeCMap == nil && len(data) >= 2 {
		// some producers show UTF-16 text with a byte order mark
		if data[0] == 0xFE && data[1] == 0xFF {
			return NormalizeUnicode(DecodeUTF16BE(data[2:]))
		}
		if data[0] == 0xFF && data[1] == 0xFE {
			return NormalizeUnicode(DecodeUTF16LE(data[2:]))
		}
	}
	var sb strings.Builder
	for _, c := range f.Chars(data) {
		sb.WriteString(c.Text)
	}
	return NormalizeUnicode(sb.String())
}

// StringWidth returns the total advance of a shown string in thousandths of
// a text space unit
func (f *Font) StringWidth(data []byte) float64 {
	total := 0.0
	for _, c := range f.Chars(data) {
		total += c.Width
	}
	return total
}

// SpaceWidth returns the advance of the space character, or an estimate
// when the font does not define one
func (f *Font) SpaceWidth() float64 {
	if !f.composite {
		c := f.simpleChar(' ')
		if c.Text == " " && c.Width > 0 {
			return c.Width
		}
	}
	if f.std != nil {
		return f.std.ascii[0]
	}
	return 250
}
