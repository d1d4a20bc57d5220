package pdftest

import (
	"fmt"
	"sort"
	"strings"
)

// Image describes an image XObject. Pix holds raw samples; they are
// Flate-compressed unless Filter is set, in which case Pix is written as is.
type Image struct {
	Width, Height    int
	ColorSpace       string // DeviceGray by default
	BitsPerComponent int    // 8 by default
	Pix              []byte
	Filter           string
	Extra            string // additional dictionary entries
}

// Gray returns a uniform 8-bit grayscale image
func Gray(w, h int, v byte) Image {
	pix := make([]byte, w*h)
	for i := range pix {
		pix[i] = v
	}
	return Image{Width: w, Height: h, ColorSpace: "DeviceGray", Pix: pix}
}

// RGB returns a uniform 8-bit RGB image
func RGB(w, h int, r, g, b byte) Image {
	pix := make([]byte, 0, w*h*3)
	for i := 0; i < w*h; i++ {
		pix = append(pix, r, g, b)
	}
	return Image{Width: w, Height: h, ColorSpace: "DeviceRGB", Pix: pix}
}

// Page describes one page. Content is the raw content stream; images are
// registered as XObject resources under their map keys.
type Page struct {
	Content string
	// MediaBox defaults to US Letter
	MediaBox []float64
	Rotate   int
	Images   map[string]Image
	// Forms are form XObjects: name to content stream
	Forms map[string]string
}

// Document builds a complete PDF. Pages share two fonts: /F1 is Helvetica
// and /F2 Times-Roman, both WinAnsiEncoding.
func Document(pages ...Page) []byte {
	return NewDocument(pages...).Bytes("/Root 1 0 R")
}

// NewDocument returns the builder for Document so tests can add objects or
// choose the cross-reference format
func NewDocument(pages ...Page) *Builder {
	b := NewBuilder()
	catalog := b.Reserve()
	pagesNum := b.Reserve()
	f1 := b.Add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	f2 := b.Add("<< /Type /Font /Subtype /Type1 /BaseFont /Times-Roman /Encoding /WinAnsiEncoding >>")

	var kids []string
	for _, p := range pages {
		xobjects := make(map[string]int)
		for _, name := range sortedKeys(p.Images) {
			xobjects[name] = b.addImage(p.Images[name])
		}
		for _, name := range sortedKeys(p.Forms) {
			xobjects[name] = b.AddStream(fmt.Sprintf(
				"/Type /XObject /Subtype /Form /BBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >>", f1),
				[]byte(p.Forms[name]))
		}

		var xo strings.Builder
		for _, name := range sortedKeys(xobjects) {
			fmt.Fprintf(&xo, "/%s %d 0 R ", name, xobjects[name])
		}

		content := b.AddFlateStream("", []byte(p.Content))
		box := p.MediaBox
		if box == nil {
			box = []float64{0, 0, 612, 792}
		}
		body := fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox %s /Contents %d 0 R /Resources << /Font << /F1 %d 0 R /F2 %d 0 R >> /XObject << %s>> >>",
			pagesNum, floats(box), content, f1, f2, xo.String())
		if p.Rotate != 0 {
			body += fmt.Sprintf(" /Rotate %d", p.Rotate)
		}
		body += " >>"
		kids = append(kids, fmt.Sprintf("%d 0 R", b.Add(body)))
	}

	b.Set(pagesNum, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids)))
	b.Set(catalog, fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesNum))
	return b
}

func (b *Builder) addImage(img Image) int {
	cs := img.ColorSpace
	if cs == "" {
		cs = "DeviceGray"
	}
	bpc := img.BitsPerComponent
	if bpc == 0 {
		bpc = 8
	}
	entries := fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /%s /BitsPerComponent %d %s",
		img.Width, img.Height, cs, bpc, img.Extra)
	if img.Filter != "" {
		return b.AddStream(entries+" /Filter /"+img.Filter, img.Pix)
	}
	return b.AddFlateStream(entries, img.Pix)
}

func floats(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TextAt returns content stream text that shows s at (x, y) in font /F1
func TextAt(x, y, size float64, s string) string {
	return fmt.Sprintf("BT /F1 %g Tf %g %g Td (%s) Tj ET\n", size, x, y, escape(s))
}

// ImageAt returns content stream text that paints XObject name into the
// rectangle with lower-left corner (x, y)
func ImageAt(name string, x, y, w, h float64) string {
	return fmt.Sprintf("q %g 0 0 %g %g %g cm /%s Do Q\n", w, h, x, y, name)
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
