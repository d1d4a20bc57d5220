package reader

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cioplenu/pdf-lib/core"
	"github.com/cioplenu/pdf-lib/internal/pdftest"
	"github.com/cioplenu/pdf-lib/model"
)

// minimalPDF is a minimal valid PDF for testing
const minimalPDF = `%PDF-1.4
1 0 obj
<< /Type /Catalog /Pages 2 0 R >>
endobj
2 0 obj
<< /Type /Pages /Kids [] /Count 0 >>
endobj
xref
0 3
0000000000 65535 f
0000000009 00000 n
0000000058 00000 n
trailer
<< /Size 3 /Root 1 0 R >>
startxref
110
%%EOF`

// createTempPDF creates a temporary PDF file with the given content
func createTempPDF(t *testing.T, content string) string {
	t.Helper()

	tmpFile := filepath.Join(t.TempDir(), "test.pdf")
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create temp PDF: %v", err)
	}
	return tmpFile
}

func openBytes(t *testing.T, data []byte, opts ...Option) *Reader {
	t.Helper()
	r, err := NewReader(data, opts...)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func rectNear(a, b model.Rect) bool {
	return near(a.Left, b.Left) && near(a.Top, b.Top) && near(a.Right, b.Right) && near(a.Bottom, b.Bottom)
}

// TestOpen tests opening a PDF file
func TestOpen(t *testing.T) {
	reader, err := Open(createTempPDF(t, minimalPDF))
	if err != nil {
		t.Fatalf("failed to open PDF: %v", err)
	}
	defer reader.Close()

	if reader.XRefTable() == nil {
		t.Error("expected xref table to be set")
	}
	if !reader.Trailer().Has("Root") {
		t.Error("expected trailer with /Root")
	}
	if reader.PageCount() != 0 {
		t.Errorf("expected 0 pages, got %d", reader.PageCount())
	}
}

// TestOpenNonExistent tests opening a non-existent file
func TestOpenNonExistent(t *testing.T) {
	if _, err := Open("/nonexistent/file.pdf"); err == nil {
		t.Error("expected error when opening non-existent file")
	}
}

// TestParseHeader tests PDF header parsing
func TestParseHeader(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantMajor int
		wantMinor int
		wantErr   bool
	}{
		{"PDF 1.4", "%PDF-1.4\n" + minimalPDF[9:], 1, 4, false},
		{"PDF 1.7", "%PDF-1.7\n" + minimalPDF[9:], 1, 7, false},
		{"PDF 2.0", "%PDF-2.0\n" + minimalPDF[9:], 2, 0, false},
		{"leading junk", "junk\n%PDF-1.6\n" + minimalPDF[9:], 1, 6, false},
		{"invalid header", "NOT-PDF-1.4\n" + minimalPDF[9:], 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, err := NewReader([]byte(tt.content))
			if (err != nil) != tt.wantErr {
				t.Fatalf("wantErr=%v, got error: %v", tt.wantErr, err)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrNotPDF) {
					t.Errorf("expected ErrNotPDF, got %v", err)
				}
				return
			}
			defer reader.Close()

			version := reader.Version()
			if version.Major != tt.wantMajor || version.Minor != tt.wantMinor {
				t.Errorf("version = %s, want %d.%d", version, tt.wantMajor, tt.wantMinor)
			}
		})
	}
}

func TestGetObject(t *testing.T) {
	r := openBytes(t, []byte(minimalPDF))

	obj, err := r.GetObject(1)
	if err != nil {
		t.Fatalf("GetObject failed: %v", err)
	}
	dict, ok := obj.(core.Dict)
	if !ok {
		t.Fatalf("expected Dict, got %T", obj)
	}
	if typ, _ := dict.GetName("Type"); typ != "Catalog" {
		t.Errorf("expected /Type /Catalog, got %v", typ)
	}

	// missing objects are null
	obj, err = r.GetObject(99)
	if err != nil {
		t.Fatalf("GetObject(99) failed: %v", err)
	}
	if _, ok := obj.(core.Null); !ok {
		t.Errorf("expected null for a missing object, got %T", obj)
	}
}

func TestResolve(t *testing.T) {
	r := openBytes(t, []byte(minimalPDF))

	direct := core.Int(42)
	if got, err := r.Resolve(direct); err != nil || got != direct {
		t.Errorf("Resolve(direct) = %v, %v", got, err)
	}

	got, err := r.Resolve(core.IndirectRef{Number: 2})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if _, ok := got.(core.Dict); !ok {
		t.Errorf("expected Dict, got %T", got)
	}
}

func TestGetCatalogAndInfo(t *testing.T) {
	b := pdftest.NewBuilder()
	b.Add("<< /Type /Catalog /Pages 2 0 R >>")
	b.Add("<< /Type /Pages /Kids [] /Count 0 >>")
	b.Add("<< /Title (Test Document) /Author (Test Author) >>")
	r := openBytes(t, b.Bytes("/Root 1 0 R /Info 3 0 R"))

	catalog, err := r.GetCatalog()
	if err != nil {
		t.Fatalf("GetCatalog failed: %v", err)
	}
	if !catalog.Has("Pages") {
		t.Error("catalog missing /Pages")
	}

	info, err := r.GetInfo()
	if err != nil {
		t.Fatalf("GetInfo failed: %v", err)
	}
	if title, _ := info.GetString("Title"); title != "Test Document" {
		t.Errorf("title = %q", title)
	}
}

func TestGetInfoMissing(t *testing.T) {
	r := openBytes(t, []byte(minimalPDF))
	info, err := r.GetInfo()
	if err != nil || info != nil {
		t.Errorf("GetInfo = %v, %v; want nil, nil", info, err)
	}
}

func TestEncryptedDocument(t *testing.T) {
	b := pdftest.NewBuilder()
	b.Add("<< /Type /Catalog /Pages 2 0 R >>")
	b.Add("<< /Type /Pages /Kids [] /Count 0 >>")
	b.Add("<< /Filter /Standard /V 2 /R 3 >>")
	if _, err := NewReader(b.Bytes("/Root 1 0 R /Encrypt 3 0 R")); !errors.Is(err, ErrEncrypted) {
		t.Errorf("expected ErrEncrypted, got %v", err)
	}
}

// objStmPDF writes a file whose object 4 lives in object stream 3 and is
// located through a cross-reference stream
func objStmPDF() []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.5\n")
	offsets := make(map[int]int)
	write := func(n int, body string) {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, body)
	}
	write(1, "<< /Type /Catalog /Pages 2 0 R >>")
	write(2, "<< /Type /Pages /Kids [] /Count 0 >>")
	write(3, pdftest.StreamBody("/Type /ObjStm /N 1 /First 4", []byte("4 0 << /Answer 42 >>")))

	xref := buf.Len()
	offsets[5] = xref
	row := func(typ byte, field int, idx byte) []byte {
		return []byte{typ, byte(field >> 8), byte(field), idx}
	}
	var rows []byte
	rows = append(rows, row(0, 0, 255)...)
	rows = append(rows, row(1, offsets[1], 0)...)
	rows = append(rows, row(1, offsets[2], 0)...)
	rows = append(rows, row(1, offsets[3], 0)...)
	rows = append(rows, row(2, 3, 0)...)
	rows = append(rows, row(1, offsets[5], 0)...)
	write(5, pdftest.StreamBody("/Type /XRef /Size 6 /W [1 2 1] /Root 1 0 R", rows))
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

func TestCompressedObjects(t *testing.T) {
	r := openBytes(t, objStmPDF())

	obj, err := r.GetObject(4)
	if err != nil {
		t.Fatalf("GetObject(4) failed: %v", err)
	}
	dict, ok := obj.(core.Dict)
	if !ok {
		t.Fatalf("expected Dict, got %T", obj)
	}
	if n, _ := dict.GetInt("Answer"); n != 42 {
		t.Errorf("Answer = %d, want 42", n)
	}
}

func TestCacheSizeOption(t *testing.T) {
	r := openBytes(t, objStmPDF(), WithCacheSize(1))
	for _, n := range []int{1, 2, 4} {
		if _, err := r.GetObject(n); err != nil {
			t.Fatalf("GetObject(%d) failed: %v", n, err)
		}
	}
	if r.objCache.Len() != 1 {
		t.Errorf("cache holds %d objects, want 1", r.objCache.Len())
	}
}

func TestClose(t *testing.T) {
	r, err := NewReader([]byte(minimalPDF))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if _, err := r.GetObject(1); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := r.PageGlyphs(0); err == nil {
		t.Error("expected an error after Close")
	}
}

func TestPageCountAndRange(t *testing.T) {
	r := openBytes(t, pdftest.Document(
		pdftest.Page{Content: pdftest.TextAt(72, 720, 12, "one")},
		pdftest.Page{Content: pdftest.TextAt(72, 720, 12, "two")},
	))

	if r.PageCount() != 2 {
		t.Fatalf("PageCount = %d, want 2", r.PageCount())
	}
	if _, err := r.GetPage(2); err == nil {
		t.Error("expected out of range error")
	}
	if _, err := r.PageGlyphs(-1); err == nil {
		t.Error("expected out of range error")
	}
}

func glyphText(glyphs []model.Glyph) string {
	var s string
	for _, g := range glyphs {
		s += g.Text
	}
	return s
}

func TestPageGlyphs(t *testing.T) {
	r := openBytes(t, pdftest.Document(
		pdftest.Page{Content: pdftest.TextAt(100, 700, 10, "Hi")},
		pdftest.Page{Content: pdftest.TextAt(72, 720, 12, "second")},
	))

	glyphs, err := r.PageGlyphs(0)
	if err != nil {
		t.Fatalf("PageGlyphs failed: %v", err)
	}
	if glyphText(glyphs) != "Hi" {
		t.Fatalf("text = %q, want Hi", glyphText(glyphs))
	}

	// Helvetica H: width 722, ascent 718, descent -207; page height 792
	want := model.Rect{Left: 100, Top: 792 - 707.18, Right: 107.22, Bottom: 792 - 697.93}
	if !rectNear(glyphs[0].Box, want) {
		t.Errorf("H box = %+v, want %+v", glyphs[0].Box, want)
	}
	if glyphs[0].Page != 1 {
		t.Errorf("page = %d, want 1", glyphs[0].Page)
	}

	second, err := r.PageGlyphs(1)
	if err != nil {
		t.Fatalf("PageGlyphs(1) failed: %v", err)
	}
	if glyphText(second) != "second" || second[0].Page != 2 {
		t.Errorf("second page = %q on page %d", glyphText(second), second[0].Page)
	}
}

func TestPageGlyphsCropBoxOrigin(t *testing.T) {
	r := openBytes(t, pdftest.Document(pdftest.Page{
		Content:  pdftest.TextAt(150, 300, 10, "x"),
		MediaBox: []float64{100, 100, 400, 500},
	}))

	glyphs, err := r.PageGlyphs(0)
	if err != nil {
		t.Fatalf("PageGlyphs failed: %v", err)
	}
	if !near(glyphs[0].Box.Left, 50) {
		t.Errorf("left = %v, want 50", glyphs[0].Box.Left)
	}
	// baseline at 300 in a box whose top is 500
	if got := glyphs[0].Box.Bottom; !near(got, 200+2.07) {
		t.Errorf("bottom = %v, want %v", got, 202.07)
	}
}

func TestPageImages(t *testing.T) {
	r := openBytes(t, pdftest.Document(pdftest.Page{
		Content: pdftest.ImageAt("Im1", 100, 500, 200, 100) + pdftest.ImageAt("Im2", 0, 0, 10, 10),
		Images: map[string]pdftest.Image{
			"Im1": pdftest.Gray(4, 2, 128),
			"Im2": pdftest.RGB(1, 1, 255, 0, 0),
		},
	}))

	imgs, err := r.PageImages(0)
	if err != nil {
		t.Fatalf("PageImages failed: %v", err)
	}
	if len(imgs) != 2 {
		t.Fatalf("got %d images, want 2", len(imgs))
	}

	im1 := imgs[0]
	if im1.Name != "Im1" || im1.Width != 4 || im1.Height != 2 || im1.ColorModel != model.Gray || im1.Page != 1 {
		t.Errorf("Im1 = %+v", im1)
	}
	if want := (model.Rect{Left: 100, Top: 192, Right: 300, Bottom: 292}); !rectNear(im1.Box, want) {
		t.Errorf("Im1 box = %+v, want %+v", im1.Box, want)
	}

	buf, err := im1.Source.Pixels()
	if err != nil {
		t.Fatalf("Pixels failed: %v", err)
	}
	if len(buf.Pix) != 8 || buf.Pix[0] != 128 {
		t.Errorf("pixels = %v", buf.Pix)
	}

	if imgs[1].Name != "Im2" || imgs[1].ColorModel != model.RGB {
		t.Errorf("Im2 = %+v", imgs[1])
	}
}

func TestPageImagesRotated(t *testing.T) {
	r := openBytes(t, pdftest.Document(pdftest.Page{
		Content: pdftest.ImageAt("Im1", 100, 500, 200, 100),
		Images:  map[string]pdftest.Image{"Im1": pdftest.Gray(1, 1, 0)},
		Rotate:  90,
	}))

	imgs, err := r.PageImages(0)
	if err != nil {
		t.Fatalf("PageImages failed: %v", err)
	}
	want := model.Rect{Left: 500, Top: 100, Right: 600, Bottom: 300}
	if !rectNear(imgs[0].Box, want) {
		t.Errorf("box = %+v, want %+v", imgs[0].Box, want)
	}
}

func TestPageMatrix(t *testing.T) {
	crop := [4]float64{0, 0, 100, 200}
	tests := []struct {
		rotate int
		want   model.Point
	}{
		// the user-space top-left corner (0, 200)
		{0, model.Point{X: 0, Y: 0}},
		{90, model.Point{X: 200, Y: 0}},
		{180, model.Point{X: 100, Y: 200}},
		{270, model.Point{X: 0, Y: 100}},
	}
	for _, tt := range tests {
		got := PageMatrix(crop, tt.rotate).Transform(model.Point{X: 0, Y: 200})
		if !near(got.X, tt.want.X) || !near(got.Y, tt.want.Y) {
			t.Errorf("rotate %d: top-left maps to %v, want %v", tt.rotate, got, tt.want)
		}
	}
}

func TestInlineImage(t *testing.T) {
	r := openBytes(t, pdftest.Document(pdftest.Page{
		Content: "q 20 0 0 10 50 700 cm BI /W 2 /H 1 /CS /G /BPC 8 ID \x00\xff EI Q",
	}))

	imgs, err := r.PageImages(0)
	if err != nil {
		t.Fatalf("PageImages failed: %v", err)
	}
	if len(imgs) != 1 || imgs[0].Name != "inline" {
		t.Fatalf("images = %+v", imgs)
	}
	if want := (model.Rect{Left: 50, Top: 82, Right: 70, Bottom: 92}); !rectNear(imgs[0].Box, want) {
		t.Errorf("box = %+v, want %+v", imgs[0].Box, want)
	}
	buf, err := imgs[0].Source.Pixels()
	if err != nil {
		t.Fatalf("Pixels failed: %v", err)
	}
	if !bytes.Equal(buf.Pix, []byte{0, 255}) {
		t.Errorf("pixels = %v", buf.Pix)
	}
}

func TestFormXObject(t *testing.T) {
	r := openBytes(t, pdftest.Document(pdftest.Page{
		Content: "q 1 0 0 1 0 -100 cm /Fm1 Do Q",
		Forms:   map[string]string{"Fm1": pdftest.TextAt(50, 700, 10, "Hi")},
	}))

	glyphs, err := r.PageGlyphs(0)
	if err != nil {
		t.Fatalf("PageGlyphs failed: %v", err)
	}
	if glyphText(glyphs) != "Hi" {
		t.Fatalf("text = %q, want Hi", glyphText(glyphs))
	}
	if got := glyphs[0].Box.Top; !near(got, 792-607.18) {
		t.Errorf("top = %v, want %v", got, 792-607.18)
	}
}

func TestFormMatrixAndImages(t *testing.T) {
	b := pdftest.NewBuilder()
	b.Add("<< /Type /Catalog /Pages 2 0 R >>")
	b.Add("<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.Add("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /XObject << /Fm 5 0 R >> >> >>")
	b.AddStream("", []byte("/Fm Do"))
	b.AddStream("/Type /XObject /Subtype /Form /BBox [0 0 1 1] /Matrix [1 0 0 1 100 100] /Resources << /XObject << /Im 6 0 R >> >>",
		[]byte("q 10 0 0 10 0 0 cm /Im Do Q"))
	b.AddStream("/Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceGray /BitsPerComponent 8", []byte{7})
	r := openBytes(t, b.Bytes("/Root 1 0 R"))

	imgs, err := r.PageImages(0)
	if err != nil {
		t.Fatalf("PageImages failed: %v", err)
	}
	if len(imgs) != 1 {
		t.Fatalf("got %d images, want 1", len(imgs))
	}
	if want := (model.Rect{Left: 100, Top: 682, Right: 110, Bottom: 692}); !rectNear(imgs[0].Box, want) {
		t.Errorf("box = %+v, want %+v", imgs[0].Box, want)
	}
}

func TestSelfReferencingForm(t *testing.T) {
	b := pdftest.NewBuilder()
	b.Add("<< /Type /Catalog /Pages 2 0 R >>")
	b.Add("<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.Add("<< /Type /Page /Parent 2 0 R /Contents 4 0 R /Resources << /XObject << /Me 5 0 R >> /Font << /F1 6 0 R >> >> >>")
	b.AddStream("", []byte("/Me Do"))
	b.AddStream("/Type /XObject /Subtype /Form /BBox [0 0 612 792] /Resources << /XObject << /Me 5 0 R >> /Font << /F1 6 0 R >> >>",
		[]byte("BT /F1 10 Tf 10 10 Td (a) Tj ET /Me Do"))
	b.Add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	r := openBytes(t, b.Bytes("/Root 1 0 R"))

	glyphs, err := r.PageGlyphs(0)
	if err != nil {
		t.Fatalf("PageGlyphs failed: %v", err)
	}
	if glyphText(glyphs) != "a" {
		t.Errorf("text = %q, want a single a", glyphText(glyphs))
	}
}

func TestXRefStreamDocument(t *testing.T) {
	data := pdftest.NewDocument(pdftest.Page{Content: pdftest.TextAt(72, 720, 12, "stream")}).
		BytesXRefStream("/Root 1 0 R")
	r := openBytes(t, data)

	glyphs, err := r.PageGlyphs(0)
	if err != nil {
		t.Fatalf("PageGlyphs failed: %v", err)
	}
	if glyphText(glyphs) != "stream" {
		t.Errorf("text = %q", glyphText(glyphs))
	}
}
