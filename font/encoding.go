package font

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// Encoding maps single-byte character codes of a simple font to Unicode
type Encoding interface {
	Name() string
	Decode(b byte) rune
	DecodeString(data []byte) string
}

// tableEncoding is an Encoding backed by a 256 entry table. Zero entries
// are undefined codes.
type tableEncoding struct {
	name  string
	table [256]rune
}

func (e *tableEncoding) Name() string { return e.name }

func (e *tableEncoding) Decode(b byte) rune { return e.table[b] }

func (e *tableEncoding) DecodeString(data []byte) string {
	return decodeWith(e, data)
}

func decodeWith(enc Encoding, data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data))
	for _, b := range data {
		if r := enc.Decode(b); r != 0 {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// fromCharmap builds a table from an x/text single-byte charmap
func fromCharmap(name string, cm *charmap.Charmap) *tableEncoding {
	e := &tableEncoding{name: name}
	for i := 0; i < 256; i++ {
		r := cm.DecodeByte(byte(i))
		if r == utf8.RuneError || r < 0x20 {
			continue
		}
		e.table[i] = r
	}
	return e
}

// Standard simple font encodings
var (
	WinAnsiEncoding       Encoding = newWinAnsi()
	MacRomanEncoding      Encoding = fromCharmap("MacRomanEncoding", charmap.Macintosh)
	StandardEncodingTable Encoding = &tableEncoding{name: "StandardEncoding", table: standardEncoding}
	SymbolEncoding        Encoding = &tableEncoding{name: "SymbolEncoding", table: symbolEncoding}
	PDFDocEncoding        Encoding = newPDFDoc()
)

func newWinAnsi() *tableEncoding {
	e := fromCharmap("WinAnsiEncoding", charmap.Windows1252)
	// codes left undefined by cp1252 render as a bullet in WinAnsiEncoding
	for _, b := range []byte{0x81, 0x8D, 0x8F, 0x90, 0x9D} {
		e.table[b] = 0x2022
	}
	return e
}

func newPDFDoc() *tableEncoding {
	e := fromCharmap("PDFDocEncoding", charmap.ISO8859_1)
	for i, r := range []rune{0x02D8, 0x02C7, 0x02C6, 0x02D9, 0x02DD, 0x02DB, 0x02DA, 0x02DC} {
		e.table[0x18+i] = r
	}
	high := []rune{
		0x2022, 0x2020, 0x2021, 0x2026, 0x2014, 0x2013, 0x0192, 0x2044,
		0x2039, 0x203A, 0x2212, 0x2030, 0x201E, 0x201C, 0x201D, 0x2018,
		0x2019, 0x201A, 0x2122, 0xFB01, 0xFB02, 0x0141, 0x0152, 0x0160,
		0x0178, 0x017D, 0x0131, 0x0142, 0x0153, 0x0161, 0x017E, 0x0000,
		0x20AC,
	}
	for i, r := range high {
		e.table[0x80+i] = r
	}
	return e
}

// GetEncoding returns a predefined encoding by PDF name. Unknown names fall
// back to WinAnsiEncoding.
func GetEncoding(name string) Encoding {
	switch name {
	case "WinAnsiEncoding":
		return WinAnsiEncoding
	case "MacRomanEncoding", "MacExpertEncoding":
		return MacRomanEncoding
	case "StandardEncoding":
		return StandardEncodingTable
	case "SymbolEncoding":
		return SymbolEncoding
	case "PDFDocEncoding":
		return PDFDocEncoding
	}
	return WinAnsiEncoding
}

// DecodeWithEncoding decodes data using the named encoding
func DecodeWithEncoding(data []byte, encodingName string) string {
	return NormalizeUnicode(GetEncoding(encodingName).DecodeString(data))
}

// CustomEncoding overrides individual codes of a base encoding, as a font's
// /Differences array does
type CustomEncoding struct {
	base        Encoding
	differences map[byte]rune
}

// NewCustomEncoding creates an encoding with the given code overrides
func NewCustomEncoding(base Encoding, differences map[byte]rune) *CustomEncoding {
	d := make(map[byte]rune, len(differences))
	for k, v := range differences {
		d[k] = v
	}
	return &CustomEncoding{base: base, differences: d}
}

// NewCustomEncodingFromGlyphs creates an encoding from glyph name overrides.
// Names that cannot be mapped to Unicode leave the code undefined.
func NewCustomEncodingFromGlyphs(base Encoding, differences map[byte]string) *CustomEncoding {
	d := make(map[byte]rune, len(differences))
	for code, name := range differences {
		if r, ok := GlyphToRune(name); ok {
			d[code] = r
		} else {
			d[code] = 0
		}
	}
	return &CustomEncoding{base: base, differences: d}
}

func (e *CustomEncoding) Name() string { return e.base.Name() + "+custom" }

func (e *CustomEncoding) Decode(b byte) rune {
	if r, ok := e.differences[b]; ok {
		return r
	}
	return e.base.Decode(b)
}

func (e *CustomEncoding) DecodeString(data []byte) string {
	return decodeWith(e, data)
}

// NormalizeUnicode applies NFC normalization
func NormalizeUnicode(text string) string {
	return norm.NFC.String(text)
}

// IsValidUTF8 reports whether s is valid UTF-8
func IsValidUTF8(s string) bool {
	return utf8.ValidString(s)
}

// DecodeUTF16BE decodes big-endian UTF-16, combining surrogate pairs. A
// trailing odd byte is ignored.
func DecodeUTF16BE(data []byte) string {
	units := make([]uint16, len(data)/2)
	for i := range units {
		units[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return string(utf16.Decode(units))
}

// DecodeUTF16LE decodes little-endian UTF-16
func DecodeUTF16LE(data []byte) string {
	units := make([]uint16, len(data)/2)
	for i := range units {
		units[i] = uint16(data[2*i+1])<<8 | uint16(data[2*i])
	}
	return string(utf16.Decode(units))
}

// GlyphToRune maps a glyph name to a single rune. It understands the
// standard Latin glyph names, "uniXXXX", "uXXXX[XX]" and suffixed variants
// such as "a.sc".
func GlyphToRune(name string) (rune, bool) {
	s := GlyphToString(name)
	if s == "" {
		return 0, false
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) {
		// ligatures such as f_i keep their presentation form when one exists
		if lig, ok := glyphNameToUnicode[name]; ok {
			return lig, true
		}
		return r, true
	}
	return r, true
}

// GlyphToString maps a glyph name to text. Ligature names joined by '_'
// produce several characters.
func GlyphToString(name string) string {
	if r, ok := glyphNameToUnicode[name]; ok {
		return string(r)
	}
	if i := strings.IndexByte(name, '.'); i > 0 {
		name = name[:i]
		if r, ok := glyphNameToUnicode[name]; ok {
			return string(r)
		}
	}
	if strings.Contains(name, "_") {
		var sb strings.Builder
		for _, part := range strings.Split(name, "_") {
			sb.WriteString(GlyphToString(part))
		}
		return sb.String()
	}
	if strings.HasPrefix(name, "uni") && len(name) >= 7 && (len(name)-3)%4 == 0 {
		var units []uint16
		for i := 3; i+4 <= len(name); i += 4 {
			v, err := strconv.ParseUint(name[i:i+4], 16, 16)
			if err != nil {
				return ""
			}
			units = append(units, uint16(v))
		}
		return string(utf16.Decode(units))
	}
	if strings.HasPrefix(name, "u") && len(name) >= 5 && len(name) <= 7 {
		v, err := strconv.ParseUint(name[1:], 16, 32)
		if err == nil && v > 0 && v <= 0x10FFFF {
			return string(rune(v))
		}
	}
	return ""
}

// glyphNameToUnicode covers the glyph names used by the standard Latin
// encodings plus common typographic extras
var glyphNameToUnicode = map[string]rune{
	"quoteleft": 0x2018, "quoteright": 0x2019, "quotesinglbase": 0x201A,
	"quotedblleft": 0x201C, "quotedblright": 0x201D, "quotedblbase": 0x201E,
	"guilsinglleft": 0x2039, "guilsinglright": 0x203A,
	"endash": 0x2013, "emdash": 0x2014, "bullet": 0x2022, "ellipsis": 0x2026,
	"dagger": 0x2020, "daggerdbl": 0x2021, "perthousand": 0x2030,
	"Euro": 0x20AC, "trademark": 0x2122, "florin": 0x0192, "fraction": 0x2044,
	"OE": 0x0152, "oe": 0x0153, "Scaron": 0x0160, "scaron": 0x0161,
	"Zcaron": 0x017D, "zcaron": 0x017E, "Ydieresis": 0x0178,
	"Lslash": 0x0141, "lslash": 0x0142, "dotlessi": 0x0131,
	"circumflex": 0x02C6, "caron": 0x02C7, "breve": 0x02D8, "dotaccent": 0x02D9,
	"ring": 0x02DA, "ogonek": 0x02DB, "tilde": 0x02DC, "hungarumlaut": 0x02DD,
	"ff": 0xFB00, "fi": 0xFB01, "fl": 0xFB02, "ffi": 0xFB03, "ffl": 0xFB04,
	"minus": 0x2212, "sfthyphen": 0x00AD, "nbspace": 0x00A0, "nonbreakingspace": 0x00A0,
	"Delta": 0x2206, "Omega": 0x2126, "pi": 0x03C0, "notequal": 0x2260,
	"lessequal": 0x2264, "greaterequal": 0x2265, "infinity": 0x221E,
	"partialdiff": 0x2202, "summation": 0x2211, "product": 0x220F,
	"integral": 0x222B, "radical": 0x221A, "approxequal": 0x2248, "lozenge": 0x25CA,
	"arrowleft": 0x2190, "arrowup": 0x2191, "arrowright": 0x2192, "arrowdown": 0x2193,
	"checkmark": 0x2713,
}

func init() {
	ascii := []string{
		"space", "exclam", "quotedbl", "numbersign", "dollar", "percent", "ampersand", "quotesingle",
		"parenleft", "parenright", "asterisk", "plus", "comma", "hyphen", "period", "slash",
		"zero", "one", "two", "three", "four", "five", "six", "seven",
		"eight", "nine", "colon", "semicolon", "less", "equal", "greater", "question",
		"at",
	}
	for i, n := range ascii {
		glyphNameToUnicode[n] = rune(0x20 + i)
	}
	for r := 'A'; r <= 'Z'; r++ {
		glyphNameToUnicode[string(r)] = r
		glyphNameToUnicode[string(r+0x20)] = r + 0x20
	}
	punct := map[string]rune{
		"bracketleft": '[', "backslash": '\\', "bracketright": ']', "asciicircum": '^',
		"underscore": '_', "grave": '`', "braceleft": '{', "bar": '|',
		"braceright": '}', "asciitilde": '~',
	}
	for n, r := range punct {
		glyphNameToUnicode[n] = r
	}

	// Latin-1 supplement, 0xA1 onwards
	latin1 := []string{
		"exclamdown", "cent", "sterling", "currency", "yen", "brokenbar", "section",
		"dieresis", "copyright", "ordfeminine", "guillemotleft", "logicalnot", "", "registered", "macron",
		"degree", "plusminus", "twosuperior", "threesuperior", "acute", "mu", "paragraph", "periodcentered",
		"cedilla", "onesuperior", "ordmasculine", "guillemotright", "onequarter", "onehalf", "threequarters", "questiondown",
		"Agrave", "Aacute", "Acircumflex", "Atilde", "Adieresis", "Aring", "AE", "Ccedilla",
		"Egrave", "Eacute", "Ecircumflex", "Edieresis", "Igrave", "Iacute", "Icircumflex", "Idieresis",
		"Eth", "Ntilde", "Ograve", "Oacute", "Ocircumflex", "Otilde", "Odieresis", "multiply",
		"Oslash", "Ugrave", "Uacute", "Ucircumflex", "Udieresis", "Yacute", "Thorn", "germandbls",
		"agrave", "aacute", "acircumflex", "atilde", "adieresis", "aring", "ae", "ccedilla",
		"egrave", "eacute", "ecircumflex", "edieresis", "igrave", "iacute", "icircumflex", "idieresis",
		"eth", "ntilde", "ograve", "oacute", "ocircumflex", "otilde", "odieresis", "divide",
		"oslash", "ugrave", "uacute", "ucircumflex", "udieresis", "yacute", "thorn", "ydieresis",
	}
	for i, n := range latin1 {
		if n != "" {
			glyphNameToUnicode[n] = rune(0xA1 + i)
		}
	}
}
