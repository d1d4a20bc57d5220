package model

// ColorModel describes the sample layout of a PixelBuffer
type ColorModel int

const (
	Gray ColorModel = iota
	Gray16
	RGB
	RGB16
	RGBA
)

// String returns the color model name
func (c ColorModel) String() string {
	switch c {
	case Gray:
		return "gray"
	case Gray16:
		return "gray16"
	case RGB:
		return "rgb"
	case RGB16:
		return "rgb16"
	case RGBA:
		return "rgba"
	default:
		return "unknown"
	}
}

// BytesPerPixel returns the number of bytes one pixel occupies
func (c ColorModel) BytesPerPixel() int {
	switch c {
	case Gray:
		return 1
	case Gray16:
		return 2
	case RGB:
		return 3
	case RGB16:
		return 6
	case RGBA:
		return 4
	default:
		return 0
	}
}

// PixelBuffer holds decoded samples, row by row, 16-bit samples big-endian.
type PixelBuffer struct {
	Width  int
	Height int
	Stride int
	Model  ColorModel
	Pix    []byte
}

// NewPixelBuffer allocates a zeroed buffer with a tight stride
func NewPixelBuffer(width, height int, model ColorModel) *PixelBuffer {
	stride := width * model.BytesPerPixel()
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Stride: stride,
		Model:  model,
		Pix:    make([]byte, stride*height),
	}
}

// Valid reports whether the buffer dimensions match its data
func (b *PixelBuffer) Valid() bool {
	if b == nil || b.Width <= 0 || b.Height <= 0 {
		return false
	}
	if b.Stride < b.Width*b.Model.BytesPerPixel() {
		return false
	}
	return len(b.Pix) >= b.Stride*(b.Height-1)+b.Width*b.Model.BytesPerPixel()
}

// PixelSource decodes image samples on demand
type PixelSource interface {
	Pixels() (*PixelBuffer, error)
}

// PixelSourceFunc adapts a function to PixelSource
type PixelSourceFunc func() (*PixelBuffer, error)

// Pixels calls f
func (f PixelSourceFunc) Pixels() (*PixelBuffer, error) { return f() }

// ImageObject is a raw embedded image as placed on a page
type ImageObject struct {
	Box        Rect
	Width      int
	Height     int
	ColorModel ColorModel
	Page       int

	// Name is the resource name (or "inline") the image was painted under.
	Name string

	Source PixelSource
}

// ExtractedImage is an image persisted to disk
type ExtractedImage struct {
	ID            int      `json:"id" yaml:"id"`
	Filename      string   `json:"filename" yaml:"filename"`
	FileSizeBytes int64    `json:"fileSizeBytes" yaml:"fileSizeBytes"`
	Box           Rect     `json:"-" yaml:"-"`
	RelatedText   []string `json:"relatedText" yaml:"relatedText"`
}
