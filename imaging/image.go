package imaging

import (
	"errors"
	"fmt"

	"github.com/cioplenu/pdf-lib/core"
	"github.com/cioplenu/pdf-lib/model"
)

// ErrUnsupported is returned for image encodings and colour spaces that
// cannot be converted to pixels
var ErrUnsupported = errors.New("unsupported image encoding")

// ErrTooLarge is returned when an image's declared size exceeds maxPixels
var ErrTooLarge = errors.New("image too large")

// maxPixels bounds width × height of a single image
const maxPixels = 1 << 26

// Resolver resolves indirect references inside image dictionaries
type Resolver interface {
	Resolve(obj core.Object) (core.Object, error)
}

func resolve(r Resolver, obj core.Object) (core.Object, error) {
	if _, ok := obj.(core.IndirectRef); ok && r != nil {
		return r.Resolve(obj)
	}
	return obj, nil
}

// inline image keys and their full names
var inlineKeys = map[string]string{
	"BPC": "BitsPerComponent",
	"CS":  "ColorSpace",
	"D":   "Decode",
	"DP":  "DecodeParms",
	"F":   "Filter",
	"H":   "Height",
	"IM":  "ImageMask",
	"I":   "Interpolate",
	"W":   "Width",
}

// Image is an image dictionary with its still encoded samples. It
// implements model.PixelSource and decodes only when Pixels is called.
type Image struct {
	Dict core.Dict
	Data []byte

	// ColorSpaces is the /ColorSpace resource dictionary for named colour
	// spaces, may be nil
	ColorSpaces core.Dict

	resolver Resolver
}

// Info describes an image without decoding its samples
type Info struct {
	Width            int
	Height           int
	BitsPerComponent int
	ColorModel       model.ColorModel

	// Codec is the image codec filter left after generic filters, or ""
	Codec string

	Stencil bool
}

// FromStream wraps an image XObject
func FromStream(s *core.Stream, colorSpaces core.Dict, r Resolver) *Image {
	return &Image{Dict: s.Dict, Data: s.Data, ColorSpaces: colorSpaces, resolver: r}
}

// FromInline wraps an inline image, expanding abbreviated keys
func FromInline(dict core.Dict, data []byte, colorSpaces core.Dict, r Resolver) *Image {
	full := make(core.Dict, len(dict))
	for k, v := range dict {
		if long, ok := inlineKeys[k]; ok {
			k = long
		}
		full[k] = v
	}
	return &Image{Dict: full, Data: data, ColorSpaces: colorSpaces, resolver: r}
}

func (img *Image) intValue(key string) (int, bool) {
	obj, err := resolve(img.resolver, img.Dict.Get(key))
	if err != nil {
		return 0, false
	}
	n, ok := core.Number(obj)
	return int(n), ok
}

func (img *Image) boolValue(key string) bool {
	obj, err := resolve(img.resolver, img.Dict.Get(key))
	if err != nil {
		return false
	}
	b, _ := obj.(core.Bool)
	return bool(b)
}

func (img *Image) size() (int, int, error) {
	w, okW := img.intValue("Width")
	h, okH := img.intValue("Height")
	if !okW || !okH {
		return 0, 0, fmt.Errorf("image missing Width or Height")
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid image size %dx%d", w, h)
	}
	if int64(w)*int64(h) > maxPixels {
		return 0, 0, fmt.Errorf("%w: %dx%d", ErrTooLarge, w, h)
	}
	return w, h, nil
}

func (img *Image) bitsPerComponent() int {
	if img.boolValue("ImageMask") {
		return 1
	}
	if bpc, ok := img.intValue("BitsPerComponent"); ok {
		return bpc
	}
	return 8
}

func (img *Image) colorSpace() (*ColorSpace, error) {
	return ParseColorSpace(img.Dict.Get("ColorSpace"), img.ColorSpaces, img.resolver)
}

func (img *Image) codec() string {
	names, _, err := core.FilterChain(img.Dict)
	if err != nil || len(names) == 0 {
		return ""
	}
	switch last := names[len(names)-1]; last {
	case "DCTDecode", "JPXDecode", "JBIG2Decode":
		return last
	}
	return ""
}

func (img *Image) hasMask() bool {
	return img.Dict.Get("SMask") != nil || img.Dict.Get("Mask") != nil
}

// Info reports the image size and the colour model Pixels will produce
func (img *Image) Info() (Info, error) {
	w, h, err := img.size()
	if err != nil {
		return Info{}, err
	}
	info := Info{
		Width:            w,
		Height:           h,
		BitsPerComponent: img.bitsPerComponent(),
		Codec:            img.codec(),
		Stencil:          img.boolValue("ImageMask"),
	}

	switch {
	case info.Stencil:
		info.ColorModel = model.Gray
	case img.hasMask():
		info.ColorModel = model.RGBA
	default:
		cs, err := img.colorSpace()
		if err != nil {
			if info.Codec != "DCTDecode" {
				return info, err
			}
			cs = deviceRGB
		}
		info.ColorModel = outputModel(cs, info.BitsPerComponent)
	}
	return info, nil
}

// Pixels decodes the image into a pixel buffer
func (img *Image) Pixels() (*model.PixelBuffer, error) {
	w, h, err := img.size()
	if err != nil {
		return nil, err
	}

	data, codec, _, err := core.DecodeData(img.Data, img.filterDict(w, h))
	if err != nil {
		return nil, fmt.Errorf("decode image data: %w", err)
	}

	var buf *model.PixelBuffer
	switch codec {
	case "DCTDecode":
		buf, err = decodeJPEG(data)
	case "":
		if img.boolValue("ImageMask") {
			return stencil(data, w, h, img.decodeArray(2))
		}
		buf, err = img.samples(data, w, h)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, codec)
	}
	if err != nil {
		return nil, err
	}

	return img.applyMask(buf)
}

func (img *Image) samples(data []byte, w, h int) (*model.PixelBuffer, error) {
	cs, err := img.colorSpace()
	if err != nil {
		return nil, err
	}
	bpc := img.bitsPerComponent()
	switch bpc {
	case 1, 2, 4, 8, 16:
	default:
		return nil, fmt.Errorf("%w: %d bits per component", ErrUnsupported, bpc)
	}

	decode := img.decodeArray(2 * cs.Components)
	if decode == nil {
		decode = cs.defaultDecode(bpc)
	}

	var key []int
	if arr, ok := img.resolved("Mask").(core.Array); ok {
		key = colorKey(arr, cs.Components)
	}

	buf, alpha, err := unpack(data, w, h, bpc, cs, decode, key)
	if err != nil {
		return nil, err
	}
	if alpha != nil {
		return withAlpha(buf, alpha), nil
	}
	return buf, nil
}

func (img *Image) resolved(key string) core.Object {
	obj, err := resolve(img.resolver, img.Dict.Get(key))
	if err != nil {
		return nil
	}
	return obj
}

// decodeArray returns /Decode when it holds exactly n numbers
func (img *Image) decodeArray(n int) []float64 {
	arr, ok := img.resolved("Decode").(core.Array)
	if !ok || len(arr) != n {
		return nil
	}
	vals, ok := arr.Floats()
	if !ok {
		return nil
	}
	return vals
}

// filterDict fills in the CCITT Columns and Rows parameters from the image
// size when the stream omits them
func (img *Image) filterDict(w, h int) core.Dict {
	names, params, err := core.FilterChain(img.Dict)
	if err != nil {
		return img.Dict
	}
	idx := -1
	for i, n := range names {
		if n == "CCITTFaxDecode" {
			idx = i
		}
	}
	if idx < 0 {
		return img.Dict
	}

	p := core.Dict{"Columns": core.Int(w), "Rows": core.Int(h)}
	for k, v := range params[idx] {
		if obj, err := resolve(img.resolver, v); err == nil {
			p[k] = obj
		}
	}

	out := make(core.Dict, len(img.Dict))
	for k, v := range img.Dict {
		if k != "DP" && k != "DecodeParms" {
			out[k] = v
		}
	}
	arr := make(core.Array, len(names))
	for i := range arr {
		switch {
		case i == idx:
			arr[i] = p
		case params[i] != nil:
			arr[i] = params[i]
		default:
			arr[i] = core.Null{}
		}
	}
	out["DecodeParms"] = arr
	return out
}

// applyMask turns /SMask or a stencil /Mask of the same size into alpha
func (img *Image) applyMask(buf *model.PixelBuffer) (*model.PixelBuffer, error) {
	for _, key := range []string{"SMask", "Mask"} {
		stream, ok := img.resolved(key).(*core.Stream)
		if !ok {
			continue
		}
		mask := FromStream(stream, nil, img.resolver)
		if key == "Mask" {
			mask.Dict = withImageMask(stream.Dict)
		}
		mw, mh, err := mask.size()
		if err != nil || mw != buf.Width || mh != buf.Height {
			continue
		}
		mbuf, err := mask.Pixels()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		alpha := grayChannel(mbuf)
		if key == "Mask" {
			// stencil output is 0 where painted
			for i := range alpha {
				alpha[i] = 255 - alpha[i]
			}
		}
		return withAlpha(buf, alpha), nil
	}
	return buf, nil
}

func withImageMask(d core.Dict) core.Dict {
	out := make(core.Dict, len(d)+1)
	for k, v := range d {
		out[k] = v
	}
	out["ImageMask"] = core.Bool(true)
	return out
}

// colorKey reads a colour key mask [min0 max0 min1 max1 ...]
func colorKey(arr core.Array, components int) []int {
	if len(arr) != 2*components {
		return nil
	}
	key := make([]int, len(arr))
	for i, v := range arr {
		n, ok := core.Number(v)
		if !ok {
			return nil
		}
		key[i] = int(n)
	}
	return key
}
