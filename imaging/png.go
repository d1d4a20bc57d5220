package imaging

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/cioplenu/pdf-lib/model"
)

// PNGEncoder writes pixel buffers as PNG. Output is lossless and the same
// buffer always encodes to the same bytes.
type PNGEncoder struct {
	CompressionLevel png.CompressionLevel
}

// Encode writes buf to w
func (e PNGEncoder) Encode(w io.Writer, buf *model.PixelBuffer) error {
	img, err := ToImage(buf)
	if err != nil {
		return err
	}
	enc := png.Encoder{CompressionLevel: e.CompressionLevel}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

// ToImage converts a pixel buffer to the matching image type from the image
// package. RGB buffers become opaque RGBA images.
func ToImage(buf *model.PixelBuffer) (image.Image, error) {
	if !buf.Valid() {
		return nil, fmt.Errorf("invalid pixel buffer")
	}
	rect := image.Rect(0, 0, buf.Width, buf.Height)

	switch buf.Model {
	case model.Gray:
		img := image.NewGray(rect)
		for y := 0; y < buf.Height; y++ {
			copy(img.Pix[y*img.Stride:], buf.Pix[y*buf.Stride:y*buf.Stride+buf.Width])
		}
		return img, nil

	case model.Gray16:
		img := image.NewGray16(rect)
		for y := 0; y < buf.Height; y++ {
			copy(img.Pix[y*img.Stride:], buf.Pix[y*buf.Stride:y*buf.Stride+2*buf.Width])
		}
		return img, nil

	case model.RGB:
		img := image.NewRGBA(rect)
		for y := 0; y < buf.Height; y++ {
			for x := 0; x < buf.Width; x++ {
				src := buf.Pix[y*buf.Stride+x*3:]
				dst := img.Pix[y*img.Stride+x*4:]
				dst[0], dst[1], dst[2], dst[3] = src[0], src[1], src[2], 255
			}
		}
		return img, nil

	case model.RGB16:
		img := image.NewRGBA64(rect)
		for y := 0; y < buf.Height; y++ {
			for x := 0; x < buf.Width; x++ {
				src := buf.Pix[y*buf.Stride+x*6:]
				dst := img.Pix[y*img.Stride+x*8:]
				copy(dst, src[:6])
				dst[6], dst[7] = 0xff, 0xff
			}
		}
		return img, nil

	case model.RGBA:
		img := image.NewNRGBA(rect)
		for y := 0; y < buf.Height; y++ {
			copy(img.Pix[y*img.Stride:], buf.Pix[y*buf.Stride:y*buf.Stride+4*buf.Width])
		}
		return img, nil
	}
	return nil, fmt.Errorf("unsupported color model %s", buf.Model)
}
