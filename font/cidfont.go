package font

import (
	"fmt"
	"strings"

	"github.com/cioplenu/pdf-lib/core"
)

// CIDSystemInfo identifies a character collection
type CIDSystemInfo struct {
	Registry   string
	Ordering   string
	Supplement int
}

// loadComposite builds a Type0 font from its dictionary and first
// descendant CIDFont
func loadComposite(dict core.Dict, r Resolver) (*Font, error) {
	name, _ := dict.GetName("Name")
	baseFont, _ := dict.GetName("BaseFont")

	f := &Font{
		Name:         string(name),
		BaseFont:     string(baseFont),
		Subtype:      "Type0",
		composite:    true,
		widths:       make(map[int]float64),
		defaultWidth: 1000,
		widthScale:   1,
		ascent:       880,
		descent:      -120,
	}

	switch enc := resolve(r, dict.Get("Encoding")).(type) {
	case core.Name:
		f.Encoding = string(enc)
		f.vertical = strings.HasSuffix(f.Encoding, "-V")
		f.ucs2 = strings.Contains(f.Encoding, "UCS2") || strings.Contains(f.Encoding, "UTF16")
	case *core.Stream:
		cm, err := ParseToUnicodeCMap(enc)
		if err != nil {
			return nil, fmt.Errorf("encoding CMap: %w", err)
		}
		f.cmap = cm
		f.Encoding = cm.Name
		f.vertical = cm.WMode == 1
	case nil:
		f.Encoding = "Identity-H"
	default:
		return nil, fmt.Errorf("invalid Type0 /Encoding %T", enc)
	}

	descendants, ok := resolve(r, dict.Get("DescendantFonts")).(core.Array)
	if !ok || len(descendants) == 0 {
		return nil, fmt.Errorf("missing DescendantFonts")
	}
	cidDict, ok := resolve(r, descendants[0]).(core.Dict)
	if !ok {
		return nil, fmt.Errorf("descendant font is not a dictionary")
	}

	if dw, ok := core.Number(resolve(r, cidDict.Get("DW"))); ok && dw > 0 {
		f.defaultWidth = dw
	}
	if w, ok := resolve(r, cidDict.Get("W")).(core.Array); ok {
		parseCIDWidths(w, r, f.widths)
	}
	f.applyDescriptor(parseFontDescriptor(cidDict.Get("FontDescriptor"), r))
	if info := parseCIDSystemInfo(resolve(r, cidDict.Get("CIDSystemInfo")), r); info != nil && info.Ordering == "UCS" {
		f.ucs2 = true
	}

	if tu, ok := resolve(r, dict.Get("ToUnicode")).(*core.Stream); ok {
		if cm, err := ParseToUnicodeCMap(tu); err == nil {
			f.ToUnicodeCMap = cm
		}
	}
	return f, nil
}

// parseCIDWidths reads a /W array: "c [w1 w2 ...]" or "cfirst clast w"
func parseCIDWidths(w core.Array, r Resolver, out map[int]float64) {
	for i := 0; i < len(w); {
		start, ok := core.Number(resolve(r, w[i]))
		if !ok || i+1 >= len(w) {
			return
		}
		if list, ok := resolve(r, w[i+1]).(core.Array); ok {
			for j, item := range list {
				if v, ok := core.Number(resolve(r, item)); ok {
					out[int(start)+j] = v
				}
			}
			i += 2
			continue
		}
		if i+2 >= len(w) {
			return
		}
		end, ok1 := core.Number(resolve(r, w[i+1]))
		width, ok2 := core.Number(resolve(r, w[i+2]))
		if ok1 && ok2 && end >= start && end-start < 1<<16 {
			for cid := int(start); cid <= int(end); cid++ {
				out[cid] = width
			}
		}
		i += 3
	}
}

func parseCIDSystemInfo(obj core.Object, r Resolver) *CIDSystemInfo {
	dict, ok := obj.(core.Dict)
	if !ok {
		return nil
	}
	info := &CIDSystemInfo{}
	if s, ok := resolve(r, dict.Get("Registry")).(core.String); ok {
		info.Registry = string(s)
	}
	if s, ok := resolve(r, dict.Get("Ordering")).(core.String); ok {
		info.Ordering = string(s)
	}
	if n, ok := dict.GetInt("Supplement"); ok {
		info.Supplement = int(n)
	}
	return info
}
