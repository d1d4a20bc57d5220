package model

import (
	"encoding/json"
	"errors"
	"io/fs"
	"math"
	"testing"
)

// ============================================================================
// Point Tests
// ============================================================================

func TestPointDistance(t *testing.T) {
	tests := []struct {
		name     string
		p1, p2   Point
		expected float64
	}{
		{"same point", Point{0, 0}, Point{0, 0}, 0},
		{"horizontal", Point{0, 0}, Point{3, 0}, 3},
		{"diagonal 3-4-5", Point{0, 0}, Point{3, 4}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.p1.Distance(tt.p2)
			if math.Abs(result-tt.expected) > 0.0001 {
				t.Errorf("Distance() = %v, want %v", result, tt.expected)
			}
		})
	}
}

// ============================================================================
// Rect Tests
// ============================================================================

func TestRectDimensions(t *testing.T) {
	r := Rect{Left: 10, Top: 20, Right: 50, Bottom: 30}
	if r.Width() != 40 {
		t.Errorf("Width() = %v, want 40", r.Width())
	}
	if r.Height() != 10 {
		t.Errorf("Height() = %v, want 10", r.Height())
	}
	if r.CenterY() != 25 {
		t.Errorf("CenterY() = %v, want 25", r.CenterY())
	}
	if r.CenterX() != 30 {
		t.Errorf("CenterX() = %v, want 30", r.CenterX())
	}
}

func TestRectFromPoints(t *testing.T) {
	got := RectFromPoints(Point{50, 70}, Point{10, 20}, Point{30, 90})
	want := Rect{Left: 10, Top: 20, Right: 50, Bottom: 90}
	if got != want {
		t.Errorf("RectFromPoints() = %+v, want %+v", got, want)
	}
	if RectFromPoints() != (Rect{}) {
		t.Error("RectFromPoints() with no points should be zero")
	}
}

func TestRectNormalize(t *testing.T) {
	got := Rect{Left: 5, Top: 9, Right: 1, Bottom: 3}.Normalize()
	want := Rect{Left: 1, Top: 3, Right: 5, Bottom: 9}
	if got != want {
		t.Errorf("Normalize() = %+v, want %+v", got, want)
	}
}

func TestRectUnion(t *testing.T) {
	a := Rect{Left: 0, Top: 0, Right: 10, Bottom: 10}
	b := Rect{Left: 5, Top: -5, Right: 20, Bottom: 8}
	want := Rect{Left: 0, Top: -5, Right: 20, Bottom: 10}
	if got := a.Union(b); got != want {
		t.Errorf("Union() = %+v, want %+v", got, want)
	}
}

func TestRectOverlapsVertically(t *testing.T) {
	base := Rect{Left: 0, Top: 10, Right: 10, Bottom: 20}
	tests := []struct {
		name  string
		other Rect
		want  bool
	}{
		{"inside", Rect{Top: 12, Bottom: 18}, true},
		{"touching bottom", Rect{Top: 20, Bottom: 30}, true},
		{"touching top", Rect{Top: 0, Bottom: 10}, true},
		{"above", Rect{Top: 0, Bottom: 9.9}, false},
		{"below", Rect{Top: 20.1, Bottom: 25}, false},
		{"covering", Rect{Top: 0, Bottom: 100}, true},
		{"different column", Rect{Left: 500, Top: 15, Right: 600, Bottom: 16}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.OverlapsVertically(tt.other); got != tt.want {
				t.Errorf("OverlapsVertically() = %v, want %v", got, tt.want)
			}
			if got := tt.other.OverlapsVertically(base); got != tt.want {
				t.Errorf("OverlapsVertically() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRectIntersects(t *testing.T) {
	a := Rect{Left: 0, Top: 0, Right: 10, Bottom: 10}
	if !a.Intersects(Rect{Left: 5, Top: 5, Right: 15, Bottom: 15}) {
		t.Error("overlapping rects should intersect")
	}
	if a.Intersects(Rect{Left: 20, Top: 0, Right: 30, Bottom: 10}) {
		t.Error("side-by-side rects should not intersect")
	}
}

func TestRectTranslateAndEmpty(t *testing.T) {
	r := Rect{Left: 1, Top: 2, Right: 3, Bottom: 4}.Translate(10, -2)
	if r != (Rect{Left: 11, Top: 0, Right: 13, Bottom: 2}) {
		t.Errorf("Translate() = %+v", r)
	}
	if r.IsEmpty() {
		t.Error("IsEmpty() = true for a 2x2 rect")
	}
	if !(Rect{Left: 1, Right: 1, Top: 0, Bottom: 5}).IsEmpty() {
		t.Error("IsEmpty() = false for a zero-width rect")
	}
}

// ============================================================================
// Matrix Tests
// ============================================================================

func TestMatrixTransform(t *testing.T) {
	tests := []struct {
		name   string
		matrix Matrix
		point  Point
		want   Point
	}{
		{"identity", Identity(), Point{10, 20}, Point{10, 20}},
		{"translate", Translate(5, 10), Point{10, 20}, Point{15, 30}},
		{"scale", Scale(2, 3), Point{10, 20}, Point{20, 60}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.matrix.Transform(tt.point); got != tt.want {
				t.Errorf("Transform(%v) = %v, want %v", tt.point, got, tt.want)
			}
		})
	}
}

func TestMatrixMultiply(t *testing.T) {
	// translate.Multiply(scale) applies translate first, then scale
	combined := Translate(10, 20).Multiply(Scale(2, 2))
	got := combined.Transform(Point{5, 5})
	if got != (Point{30, 50}) {
		t.Errorf("combined transform = %v, want {30 50}", got)
	}
}

func TestMatrixRotate(t *testing.T) {
	got := Rotate(math.Pi / 2).Transform(Point{1, 0})
	if math.Abs(got.X) > 1e-9 || math.Abs(got.Y-1) > 1e-9 {
		t.Errorf("Rotate(pi/2) of (1,0) = %v, want (0,1)", got)
	}
}

func TestMatrixCorners(t *testing.T) {
	m := Matrix{100, 0, 0, 50, 10, 20}
	got := RectFromPoints(m.Corners(0, 0, 1, 1)...)
	want := Rect{Left: 10, Top: 20, Right: 110, Bottom: 70}
	if got != want {
		t.Errorf("bbox of corners = %+v, want %+v", got, want)
	}
}

func TestMatrixIsIdentity(t *testing.T) {
	if !Identity().IsIdentity() {
		t.Error("Identity().IsIdentity() = false")
	}
	if Translate(1, 0).IsIdentity() {
		t.Error("Translate(1, 0).IsIdentity() = true")
	}
}

// ============================================================================
// Pixel Buffer Tests
// ============================================================================

func TestColorModel(t *testing.T) {
	tests := []struct {
		model ColorModel
		name  string
		bpp   int
	}{
		{Gray, "gray", 1},
		{Gray16, "gray16", 2},
		{RGB, "rgb", 3},
		{RGB16, "rgb16", 6},
		{RGBA, "rgba", 4},
		{ColorModel(42), "unknown", 0},
	}
	for _, tt := range tests {
		if tt.model.String() != tt.name {
			t.Errorf("String() = %q, want %q", tt.model.String(), tt.name)
		}
		if tt.model.BytesPerPixel() != tt.bpp {
			t.Errorf("%s BytesPerPixel() = %d, want %d", tt.name, tt.model.BytesPerPixel(), tt.bpp)
		}
	}
}

func TestPixelBufferValid(t *testing.T) {
	buf := NewPixelBuffer(3, 2, RGB)
	if buf.Stride != 9 || len(buf.Pix) != 18 {
		t.Fatalf("NewPixelBuffer stride=%d len=%d", buf.Stride, len(buf.Pix))
	}
	if !buf.Valid() {
		t.Error("fresh buffer should be valid")
	}

	short := &PixelBuffer{Width: 3, Height: 2, Stride: 9, Model: RGB, Pix: make([]byte, 10)}
	if short.Valid() {
		t.Error("short buffer should be invalid")
	}
	var nilBuf *PixelBuffer
	if nilBuf.Valid() {
		t.Error("nil buffer should be invalid")
	}
}

func TestPixelSourceFunc(t *testing.T) {
	want := NewPixelBuffer(1, 1, Gray)
	src := PixelSourceFunc(func() (*PixelBuffer, error) { return want, nil })
	got, err := src.Pixels()
	if err != nil || got != want {
		t.Errorf("Pixels() = %v, %v", got, err)
	}
}

// ============================================================================
// Result Tests
// ============================================================================

func TestNewPageResultEmptySlices(t *testing.T) {
	pr := NewPageResult(nil, nil)
	data, err := json.Marshal(pr)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"pageTextLines":[],"pageImages":[]}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}

func TestNewPageResultJSON(t *testing.T) {
	lines := []TextLine{{Text: "1. How to program", Raw: "1.Howtoprogram"}, {Text: "AA-FFF222 - AY"}}
	imgs := []ExtractedImage{
		{ID: 1, Filename: "image-1.png", FileSizeBytes: 120, Box: Rect{Top: 5}, RelatedText: []string{"1. How to program"}},
		{ID: 2, Filename: "image-2.png", FileSizeBytes: 64},
	}
	data, err := json.Marshal(NewPageResult(lines, imgs))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"pageTextLines":["1. How to program","AA-FFF222 - AY"],"pageImages":[` +
		`{"filename":"image-1.png","fileSizeBytes":120,"relatedText":["1. How to program"]},` +
		`{"filename":"image-2.png","fileSizeBytes":64,"relatedText":[]}]}`
	if string(data) != want {
		t.Errorf("json =\n%s\nwant\n%s", data, want)
	}
}

func TestExtractedImageHidesBox(t *testing.T) {
	data, err := json.Marshal(ExtractedImage{ID: 3, Filename: "image-3.png", Box: Rect{Left: 1}})
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if _, ok := m["Box"]; ok {
		t.Error("Box should not be serialised")
	}
}

func TestDocumentResultCounts(t *testing.T) {
	r := &DocumentResult{Pages: []PageResult{
		{PageImages: []PageImage{{Filename: "image-1.png"}}},
		{},
		{PageImages: []PageImage{{Filename: "image-2.png"}, {Filename: "image-3.png"}}},
	}}
	if r.ImageCount() != 3 {
		t.Errorf("ImageCount() = %d, want 3", r.ImageCount())
	}
	if r.HasDiagnostics() {
		t.Error("HasDiagnostics() = true without diagnostics")
	}
}

// ============================================================================
// Error Tests
// ============================================================================

func TestErrorsUnwrap(t *testing.T) {
	open := &DocumentOpenError{Path: "a.pdf", Err: fs.ErrNotExist}
	if !errors.Is(open, fs.ErrNotExist) {
		t.Error("DocumentOpenError should unwrap")
	}
	if open.Error() != `open document "a.pdf": file does not exist` {
		t.Errorf("Error() = %q", open.Error())
	}

	page := &PageAccessError{Page: 2, Err: fs.ErrInvalid}
	if !errors.Is(page, fs.ErrInvalid) || page.Error() != "page 2: invalid argument" {
		t.Errorf("PageAccessError = %q", page.Error())
	}

	img := &ImageExtractionError{Page: 1, ID: 4, Filename: "image-4.png", Err: fs.ErrPermission}
	if !errors.Is(img, fs.ErrPermission) {
		t.Error("ImageExtractionError should unwrap")
	}
}

func TestNewDiagnostic(t *testing.T) {
	imgErr := &ImageExtractionError{Page: 3, ID: 7, Filename: "image-7.png", Err: errors.New("bad data")}
	d := NewDiagnostic(0, imgErr)
	if d.Kind != DiagnosticImage || d.Page != 3 || d.ImageID != 7 {
		t.Errorf("image diagnostic = %+v", d)
	}
	var target *ImageExtractionError
	if !errors.As(d.Unwrap(), &target) {
		t.Error("diagnostic should carry the typed error")
	}

	d = NewDiagnostic(0, &PageAccessError{Page: 5, Err: errors.New("broken")})
	if d.Kind != DiagnosticPage || d.Page != 5 || d.ImageID != 0 {
		t.Errorf("page diagnostic = %+v", d)
	}

	d = NewDiagnostic(9, errors.New("other"))
	if d.Kind != DiagnosticPage || d.Page != 9 || d.Message != "other" {
		t.Errorf("plain diagnostic = %+v", d)
	}
}
