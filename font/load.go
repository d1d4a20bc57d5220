package font

import (
	"fmt"

	"github.com/cioplenu/pdf-lib/core"
)

// Resolver resolves an indirect reference to its object
type Resolver func(core.IndirectRef) (core.Object, error)

// resolve follows a reference when obj is one. Resolution failures yield nil.
func resolve(r Resolver, obj core.Object) core.Object {
	ref, ok := obj.(core.IndirectRef)
	if !ok || r == nil {
		return obj
	}
	resolved, err := r(ref)
	if err != nil {
		return nil
	}
	return resolved
}

// FontDescriptor holds the metrics of a /FontDescriptor dictionary
type FontDescriptor struct {
	FontName     string
	Flags        int
	FontBBox     [4]float64
	ItalicAngle  float64
	Ascent       float64
	Descent      float64
	CapHeight    float64
	MissingWidth float64
}

const flagSymbolic = 1 << 2

// Symbolic reports whether the descriptor marks the font as symbolic
func (fd *FontDescriptor) Symbolic() bool { return fd != nil && fd.Flags&flagSymbolic != 0 }

func parseFontDescriptor(obj core.Object, r Resolver) *FontDescriptor {
	dict, ok := resolve(r, obj).(core.Dict)
	if !ok {
		return nil
	}
	fd := &FontDescriptor{}
	if n, ok := dict.GetName("FontName"); ok {
		fd.FontName = string(n)
	}
	if flags, ok := dict.GetInt("Flags"); ok {
		fd.Flags = int(flags)
	}
	if bbox, ok := resolve(r, dict.Get("FontBBox")).(core.Array); ok {
		if vals, ok := bbox.Floats(); ok && len(vals) >= 4 {
			copy(fd.FontBBox[:], vals)
		}
	}
	fd.ItalicAngle, _ = core.Number(resolve(r, dict.Get("ItalicAngle")))
	fd.Ascent, _ = core.Number(resolve(r, dict.Get("Ascent")))
	fd.Descent, _ = core.Number(resolve(r, dict.Get("Descent")))
	fd.CapHeight, _ = core.Number(resolve(r, dict.Get("CapHeight")))
	fd.MissingWidth, _ = core.Number(resolve(r, dict.Get("MissingWidth")))
	return fd
}

// applyDescriptor takes vertical metrics from a descriptor when they are
// plausible, falling back to the font bounding box
func (f *Font) applyDescriptor(fd *FontDescriptor) {
	if fd == nil {
		return
	}
	ascent, descent := fd.Ascent, fd.Descent
	if ascent <= 0 && fd.FontBBox[3] > 0 {
		ascent = fd.FontBBox[3]
	}
	if descent >= 0 && fd.FontBBox[1] < 0 {
		descent = fd.FontBBox[1]
	}
	if ascent > 0 && ascent < 2000 {
		f.ascent = ascent
	}
	if descent < 0 && descent > -1000 {
		f.descent = descent
	}
	if fd.MissingWidth > 0 {
		f.defaultWidth = fd.MissingWidth
	}
	f.symbolic = fd.Symbolic()
}

// Load builds a Font from a font dictionary
func Load(dict core.Dict, r Resolver) (*Font, error) {
	subtype, _ := dict.GetName("Subtype")
	switch subtype {
	case "Type0":
		return loadComposite(dict, r)
	case "Type1", "MMType1", "TrueType", "Type3", "":
		return loadSimple(dict, r)
	}
	return nil, fmt.Errorf("unsupported font subtype %q", subtype)
}

func loadSimple(dict core.Dict, r Resolver) (*Font, error) {
	name, _ := dict.GetName("Name")
	baseFont, _ := dict.GetName("BaseFont")
	subtype, _ := dict.GetName("Subtype")
	if subtype == "" {
		subtype = "Type1"
	}

	f := NewFont(string(name), string(baseFont), string(subtype))
	fd := parseFontDescriptor(dict.Get("FontDescriptor"), r)
	f.applyDescriptor(fd)

	if subtype == "Type3" {
		f.widthScale = 1
		if m, ok := resolve(r, dict.Get("FontMatrix")).(core.Array); ok {
			if vals, ok := m.Floats(); ok && len(vals) >= 1 && vals[0] != 0 {
				f.widthScale = vals[0] * 1000
			}
		}
		f.defaultWidth = 0
	}

	if err := f.loadWidths(dict, r); err != nil {
		return nil, err
	}
	f.loadEncoding(dict, r)

	if tu, ok := resolve(r, dict.Get("ToUnicode")).(*core.Stream); ok {
		if cm, err := ParseToUnicodeCMap(tu); err == nil {
			f.ToUnicodeCMap = cm
		}
	}
	return f, nil
}

func (f *Font) loadWidths(dict core.Dict, r Resolver) error {
	widthsObj := resolve(r, dict.Get("Widths"))
	if widthsObj == nil {
		return nil
	}
	widths, ok := widthsObj.(core.Array)
	if !ok {
		return fmt.Errorf("font /Widths is %T, not an array", widthsObj)
	}
	first := 0
	if fc, ok := core.Number(resolve(r, dict.Get("FirstChar"))); ok {
		first = int(fc)
	}
	for i, w := range widths {
		if v, ok := core.Number(resolve(r, w)); ok {
			f.widths[first+i] = v
		}
	}
	// explicit widths replace the standard metrics
	f.std = nil
	return nil
}

func (f *Font) loadEncoding(dict core.Dict, r Resolver) {
	base := f.builtinEncoding()
	if f.symbolic && f.Subtype == "TrueType" {
		// symbolic TrueType codes index the font's own cmap; ASCII is the
		// best guess without ToUnicode
		base = StandardEncodingTable
	}

	var differences map[byte]string
	switch enc := resolve(r, dict.Get("Encoding")).(type) {
	case core.Name:
		base = GetEncoding(string(enc))
	case core.Dict:
		if bn, ok := enc.GetName("BaseEncoding"); ok {
			base = GetEncoding(string(bn))
		}
		if diffs, ok := resolve(r, enc.Get("Differences")).(core.Array); ok {
			differences = parseDifferences(diffs)
		}
	}
	f.SetEncoding(base, differences)
}

// parseDifferences reads [code /name /name ... code /name ...]
func parseDifferences(diffs core.Array) map[byte]string {
	out := make(map[byte]string)
	code := 0
	for _, item := range diffs {
		switch v := item.(type) {
		case core.Int:
			code = int(v)
		case core.Real:
			code = int(v)
		case core.Name:
			if code >= 0 && code < 256 {
				out[byte(code)] = string(v)
			}
			code++
		}
	}
	return out
}
