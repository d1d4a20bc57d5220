package font

import "strings"

// standardMetrics holds widths of the printable ASCII range and vertical
// metrics for one standard 14 family, in thousandths of an em
type standardMetrics struct {
	ascii   [95]float64
	ascent  float64
	descent float64
}

func (m *standardMetrics) width(r rune) (float64, bool) {
	if r >= 0x20 && r <= 0x7E {
		return m.ascii[r-0x20], true
	}
	return 0, false
}

func metricsFrom(ascent, descent float64, widths ...float64) *standardMetrics {
	m := &standardMetrics{ascent: ascent, descent: descent}
	copy(m.ascii[:], widths)
	return m
}

func monospace(w, ascent, descent float64) *standardMetrics {
	m := &standardMetrics{ascent: ascent, descent: descent}
	for i := range m.ascii {
		m.ascii[i] = w
	}
	return m
}

var (
	helvetica = metricsFrom(718, -207,
		278, 278, 355, 556, 556, 889, 667, 191, 333, 333, 389, 584, 278, 333, 278, 278,
		556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 278, 278, 584, 584, 584, 556,
		1015, 667, 667, 722, 722, 667, 611, 778, 722, 278, 500, 667, 556, 833, 722, 778,
		667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611, 278, 278, 278, 469, 556,
		333, 556, 556, 500, 556, 556, 278, 556, 556, 222, 222, 500, 222, 833, 556, 556,
		556, 556, 333, 500, 278, 556, 500, 722, 500, 500, 500, 334, 260, 334, 584)

	helveticaBold = metricsFrom(718, -207,
		278, 333, 474, 556, 556, 889, 722, 238, 333, 333, 389, 584, 278, 333, 278, 278,
		556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 333, 333, 584, 584, 584, 611,
		975, 722, 722, 722, 722, 667, 611, 778, 722, 278, 556, 722, 611, 833, 722, 778,
		667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611, 333, 278, 333, 584, 556,
		333, 556, 611, 556, 611, 556, 333, 611, 611, 278, 278, 556, 278, 889, 611, 611,
		611, 611, 389, 556, 333, 611, 556, 778, 556, 556, 500, 389, 280, 389, 584)

	timesRoman = metricsFrom(683, -217,
		250, 333, 408, 500, 500, 833, 778, 180, 333, 333, 500, 564, 250, 333, 250, 278,
		500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 278, 278, 564, 564, 564, 444,
		921, 722, 667, 667, 722, 611, 556, 722, 722, 333, 389, 722, 611, 889, 722, 722,
		556, 722, 667, 556, 611, 722, 722, 944, 722, 722, 611, 333, 278, 333, 469, 500,
		333, 444, 500, 444, 500, 444, 333, 500, 500, 278, 278, 500, 278, 778, 500, 500,
		500, 500, 333, 389, 278, 500, 500, 722, 500, 500, 444, 480, 200, 480, 541)

	timesBold = metricsFrom(683, -217,
		250, 333, 555, 500, 500, 1000, 833, 278, 333, 333, 500, 570, 250, 333, 250, 278,
		500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 333, 333, 570, 570, 570, 500,
		930, 722, 667, 722, 722, 667, 611, 778, 778, 389, 500, 778, 667, 944, 722, 778,
		611, 778, 722, 556, 667, 722, 722, 1000, 722, 722, 667, 333, 278, 333, 581, 500,
		333, 500, 556, 444, 556, 444, 333, 500, 556, 278, 333, 556, 278, 833, 556, 500,
		556, 556, 444, 389, 333, 556, 500, 722, 500, 500, 444, 394, 220, 394, 520)

	courier      = monospace(600, 629, -157)
	symbol       = monospace(500, 1010, -293)
	zapfDingbats = monospace(500, 820, -143)
)

// standardFonts maps the standard 14 names (and common aliases) to metrics
var standardFonts = map[string]*standardMetrics{
	"Helvetica":             helvetica,
	"Helvetica-Oblique":     helvetica,
	"Helvetica-Bold":        helveticaBold,
	"Helvetica-BoldOblique": helveticaBold,
	"Times-Roman":           timesRoman,
	"Times-Italic":          timesRoman,
	"Times-Bold":            timesBold,
	"Times-BoldItalic":      timesBold,
	"Courier":               courier,
	"Courier-Oblique":       courier,
	"Courier-Bold":          courier,
	"Courier-BoldOblique":   courier,
	"Symbol":                symbol,
	"ZapfDingbats":          zapfDingbats,
	"Arial":                 helvetica,
	"Arial,Bold":            helveticaBold,
	"ArialMT":               helvetica,
	"Arial-BoldMT":          helveticaBold,
	"TimesNewRoman":         timesRoman,
	"TimesNewRomanPSMT":     timesRoman,
	"TimesNewRoman,Bold":    timesBold,
	"CourierNew":            courier,
	"CourierNewPSMT":        courier,
}

// lookupStandard finds metrics for a base font name, ignoring a subset
// prefix such as "ABCDEF+"
func lookupStandard(baseFont string) (*standardMetrics, bool) {
	if i := strings.IndexByte(baseFont, '+'); i == 6 {
		baseFont = baseFont[i+1:]
	}
	m, ok := standardFonts[baseFont]
	return m, ok
}

// IsStandardFont reports whether baseFont names one of the standard 14
// fonts or a common alias
func IsStandardFont(baseFont string) bool {
	_, ok := lookupStandard(baseFont)
	return ok
}

var standardEncoding, symbolEncoding [256]rune

func init() {
	for c := 0x20; c <= 0x7E; c++ {
		standardEncoding[c] = rune(c)
	}
	standardEncoding[0x27] = 0x2019
	standardEncoding[0x60] = 0x2018
	for code, r := range map[byte]rune{
		0xA1: 0x00A1, 0xA2: 0x00A2, 0xA3: 0x00A3, 0xA4: 0x2044, 0xA5: 0x00A5, 0xA6: 0x0192,
		0xA7: 0x00A7, 0xA8: 0x00A4, 0xA9: 0x0027, 0xAA: 0x201C, 0xAB: 0x00AB, 0xAC: 0x2039,
		0xAD: 0x203A, 0xAE: 0xFB01, 0xAF: 0xFB02, 0xB1: 0x2013, 0xB2: 0x2020, 0xB3: 0x2021,
		0xB4: 0x00B7, 0xB6: 0x00B6, 0xB7: 0x2022, 0xB8: 0x201A, 0xB9: 0x201E, 0xBA: 0x201D,
		0xBB: 0x00BB, 0xBC: 0x2026, 0xBD: 0x2030, 0xBF: 0x00BF, 0xC1: 0x0060, 0xC2: 0x00B4,
		0xC3: 0x02C6, 0xC4: 0x02DC, 0xC5: 0x00AF, 0xC6: 0x02D8, 0xC7: 0x02D9, 0xC8: 0x00A8,
		0xCA: 0x02DA, 0xCB: 0x00B8, 0xCD: 0x02DD, 0xCE: 0x02DB, 0xCF: 0x02C7, 0xD0: 0x2014,
		0xE1: 0x00C6, 0xE3: 0x00AA, 0xE8: 0x0141, 0xE9: 0x00D8, 0xEA: 0x0152, 0xEB: 0x00BA,
		0xF1: 0x00E6, 0xF5: 0x0131, 0xF8: 0x0142, 0xF9: 0x00F8, 0xFA: 0x0153, 0xFB: 0x00DF,
	} {
		standardEncoding[code] = r
	}

	// Symbol shares ASCII punctuation and digits but maps letters to Greek
	copy(symbolEncoding[0x20:0x7F], standardEncoding[0x20:0x7F])
	symbolEncoding[0x27] = 0x220B
	symbolEncoding[0x60] = 0xF8E5
	for i, r := range []rune("ΑΒΧΔΕΦΓΗΙϑΚΛΜΝΟΠΘΡΣΤΥςΩΞΨΖ") {
		symbolEncoding[0x41+i] = r
	}
	for i, r := range []rune("αβχδεφγηιϕκλμνοπθρστυϖωξψζ") {
		symbolEncoding[0x61+i] = r
	}
	for code, r := range map[byte]rune{
		0x22: 0x2200, 0x24: 0x2203, 0x2A: 0x2217, 0x2D: 0x2212, 0x40: 0x2245,
		0x5C: 0x2234, 0x5E: 0x22A5, 0x7E: 0x223C,
	} {
		symbolEncoding[code] = r
	}
	high := []rune("€ϒ′≤⁄∞ƒ♣♦♥♠↔←↑→↓°±″≥×∝∂•÷≠≡≈…⏐⎯↵ℵℑℜ℘⊗⊕∅∩∪⊃⊇⊄⊂⊆∈∉∠∇®©™∏√⋅¬∧∨⇔⇐⇑⇒⇓◊〈®©™∑⎛⎜⎝⎡⎢⎣⎧⎨⎩⎪")
	for i, r := range high {
		symbolEncoding[0xA0+i] = r
	}
	for i, r := range []rune("〉∫⌠⎮⌡⎞⎟⎠⎤⎥⎦⎫⎬⎭") {
		symbolEncoding[0xF1+i] = r
	}
}
