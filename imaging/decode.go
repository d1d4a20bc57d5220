package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"

	"github.com/cioplenu/pdf-lib/model"
)

// outputModel is the buffer layout for samples in cs at bpc bits
func outputModel(cs *ColorSpace, bpc int) model.ColorModel {
	wide := bpc == 16 && cs.Family != FamilyIndexed
	switch cs.outputFamily() {
	case FamilyRGB:
		if wide {
			return model.RGB16
		}
		return model.RGB
	case FamilyCMYK:
		return model.RGB
	default:
		if wide && cs.Family == FamilyGray {
			return model.Gray16
		}
		return model.Gray
	}
}

// bitReader reads big-endian samples of 1 to 16 bits from a row
type bitReader struct {
	data []byte
	pos  int // in bits
}

func (r *bitReader) read(bits int) uint32 {
	switch bits {
	case 8:
		v := r.data[r.pos/8]
		r.pos += 8
		return uint32(v)
	case 16:
		i := r.pos / 8
		r.pos += 16
		return uint32(r.data[i])<<8 | uint32(r.data[i+1])
	}
	b := r.data[r.pos/8]
	shift := 8 - bits - r.pos%8
	r.pos += bits
	return uint32(b>>shift) & (1<<bits - 1)
}

// unpack converts packed samples to a pixel buffer. When key holds a colour
// key mask the returned alpha is 0 for masked pixels and 255 elsewhere.
func unpack(data []byte, w, h, bpc int, cs *ColorSpace, decode []float64, key []int) (*model.PixelBuffer, []byte, error) {
	n := cs.Components
	rowBytes := (w*n*bpc + 7) / 8
	if need := rowBytes * h; len(data) < need {
		return nil, nil, fmt.Errorf("truncated image data: got %d bytes, need %d", len(data), need)
	}

	out := model.NewPixelBuffer(w, h, outputModel(cs, bpc))
	var alpha []byte
	if key != nil {
		alpha = make([]byte, w*h)
	}

	if alpha == nil && bpc == 8 && isDefaultDecode(decode) &&
		(cs.Family == FamilyGray || cs.Family == FamilyRGB) {
		for y := 0; y < h; y++ {
			copy(out.Pix[y*out.Stride:], data[y*rowBytes:y*rowBytes+w*n])
		}
		return out, nil, nil
	}

	maxVal := float64(uint32(1)<<bpc - 1)
	raw := make([]uint32, n)
	comps := make([]float64, n)
	bpp := out.Model.BytesPerPixel()

	for y := 0; y < h; y++ {
		br := bitReader{data: data[y*rowBytes : (y+1)*rowBytes]}
		for x := 0; x < w; x++ {
			for c := 0; c < n; c++ {
				raw[c] = br.read(bpc)
				lo, hi := decode[2*c], decode[2*c+1]
				comps[c] = lo + float64(raw[c])*(hi-lo)/maxVal
			}
			px := out.Pix[y*out.Stride+x*bpp : y*out.Stride+(x+1)*bpp]
			if cs.Family == FamilyIndexed {
				writeIndexed(px, cs, comps[0])
			} else {
				writeColor(px, cs.Family, out.Model, comps)
			}
			if alpha != nil {
				alpha[y*w+x] = 255
				if keyed(raw, key) {
					alpha[y*w+x] = 0
				}
			}
		}
	}
	return out, alpha, nil
}

func isDefaultDecode(decode []float64) bool {
	for i := 0; i+1 < len(decode); i += 2 {
		if decode[i] != 0 || decode[i+1] != 1 {
			return false
		}
	}
	return true
}

func keyed(raw []uint32, key []int) bool {
	for c, v := range raw {
		if int(v) < key[2*c] || int(v) > key[2*c+1] {
			return false
		}
	}
	return true
}

func writeIndexed(px []byte, cs *ColorSpace, v float64) {
	idx := int(math.Round(v))
	idx = max(0, min(idx, cs.HiVal))
	nb := cs.Base.Components
	entry := cs.Lookup[idx*nb : (idx+1)*nb]

	comps := make([]float64, nb)
	for i, b := range entry {
		comps[i] = float64(b) / 255
	}
	m := model.Gray
	if f := cs.Base.outputFamily(); f == FamilyRGB || f == FamilyCMYK {
		m = model.RGB
	}
	writeColor(px, cs.Base.Family, m, comps)
}

func to8(v float64) byte {
	return byte(math.Round(clamp01(v) * 255))
}

func to16(v float64) (byte, byte) {
	n := uint16(math.Round(clamp01(v) * 65535))
	return byte(n >> 8), byte(n)
}

func clamp01(v float64) float64 {
	return max(0, min(v, 1))
}

// writeColor stores one pixel of components in family into px
func writeColor(px []byte, family Family, m model.ColorModel, comps []float64) {
	switch family {
	case FamilyGray:
		if m == model.Gray16 {
			px[0], px[1] = to16(comps[0])
			return
		}
		px[0] = to8(comps[0])
	case FamilySeparation:
		px[0] = to8(1 - comps[0])
	case FamilyRGB:
		if m == model.RGB16 {
			px[0], px[1] = to16(comps[0])
			px[2], px[3] = to16(comps[1])
			px[4], px[5] = to16(comps[2])
			return
		}
		px[0], px[1], px[2] = to8(comps[0]), to8(comps[1]), to8(comps[2])
	case FamilyCMYK:
		px[0], px[1], px[2] = color.CMYKToRGB(to8(comps[0]), to8(comps[1]), to8(comps[2]), to8(comps[3]))
	}
}

// stencil decodes a 1-bit image mask: painted pixels are black, the rest
// white. decode may be nil for the default [0 1].
func stencil(data []byte, w, h int, decode []float64) (*model.PixelBuffer, error) {
	rowBytes := (w + 7) / 8
	if need := rowBytes * h; len(data) < need {
		return nil, fmt.Errorf("truncated image mask: got %d bytes, need %d", len(data), need)
	}
	// a 0 sample paints unless the decode array is inverted
	paint := uint32(0)
	if len(decode) == 2 && decode[0] > decode[1] {
		paint = 1
	}

	out := model.NewPixelBuffer(w, h, model.Gray)
	for y := 0; y < h; y++ {
		br := bitReader{data: data[y*rowBytes : (y+1)*rowBytes]}
		for x := 0; x < w; x++ {
			v := byte(255)
			if br.read(1) == paint {
				v = 0
			}
			out.Pix[y*out.Stride+x] = v
		}
	}
	return out, nil
}

// grayChannel returns one 8-bit value per pixel
func grayChannel(buf *model.PixelBuffer) []byte {
	out := make([]byte, buf.Width*buf.Height)
	bpp := buf.Model.BytesPerPixel()
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			px := buf.Pix[y*buf.Stride+x*bpp:]
			switch buf.Model {
			case model.Gray, model.Gray16:
				out[y*buf.Width+x] = px[0]
			case model.RGB, model.RGBA:
				out[y*buf.Width+x] = byte((299*int(px[0]) + 587*int(px[1]) + 114*int(px[2]) + 500) / 1000)
			case model.RGB16:
				out[y*buf.Width+x] = byte((299*int(px[0]) + 587*int(px[2]) + 114*int(px[4]) + 500) / 1000)
			}
		}
	}
	return out
}

// withAlpha converts buf to 8-bit RGBA with the given alpha channel
func withAlpha(buf *model.PixelBuffer, alpha []byte) *model.PixelBuffer {
	out := model.NewPixelBuffer(buf.Width, buf.Height, model.RGBA)
	bpp := buf.Model.BytesPerPixel()
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			src := buf.Pix[y*buf.Stride+x*bpp:]
			dst := out.Pix[y*out.Stride+x*4:]
			switch buf.Model {
			case model.Gray:
				dst[0], dst[1], dst[2] = src[0], src[0], src[0]
			case model.Gray16:
				dst[0], dst[1], dst[2] = src[0], src[0], src[0]
			case model.RGB, model.RGBA:
				dst[0], dst[1], dst[2] = src[0], src[1], src[2]
			case model.RGB16:
				dst[0], dst[1], dst[2] = src[0], src[2], src[4]
			}
			dst[3] = alpha[y*buf.Width+x]
		}
	}
	return out
}

func decodeJPEG(data []byte) (*model.PixelBuffer, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("dct: %w", err)
	}
	return FromImage(img), nil
}

// FromImage converts a decoded Go image to a Gray or RGB pixel buffer
func FromImage(img image.Image) *model.PixelBuffer {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok {
		out := model.NewPixelBuffer(b.Dx(), b.Dy(), model.Gray)
		for y := 0; y < b.Dy(); y++ {
			copy(out.Pix[y*out.Stride:], g.Pix[y*g.Stride:y*g.Stride+b.Dx()])
		}
		return out
	}

	out := model.NewPixelBuffer(b.Dx(), b.Dy(), model.RGB)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			i := y*out.Stride + x*3
			out.Pix[i], out.Pix[i+1], out.Pix[i+2] = c.R, c.G, c.B
		}
	}
	return out
}
