package filters

import "fmt"

// Unpredict reverses a TIFF (2) or PNG (10-15) predictor. Predictor 1 or a
// missing /Predictor returns data unchanged.
func Unpredict(data []byte, params Params) ([]byte, error) {
	predictor := params.Int("Predictor", 1)
	switch {
	case predictor <= 1:
		return data, nil
	case predictor == 2:
		return unpredictTIFF(data, params)
	case predictor >= 10 && predictor <= 15:
		return unpredictPNG(data, params)
	}
	return nil, fmt.Errorf("unsupported predictor %d", predictor)
}

type rowLayout struct {
	colors, bpc, columns int
	pixelBytes, rowBytes int
}

func layoutFor(params Params) (rowLayout, error) {
	l := rowLayout{
		colors:  params.Int("Colors", 1),
		bpc:     params.Int("BitsPerComponent", 8),
		columns: params.Int("Columns", 1),
	}
	if l.colors < 1 || l.columns < 1 {
		return l, fmt.Errorf("invalid predictor layout: colors=%d columns=%d", l.colors, l.columns)
	}
	switch l.bpc {
	case 1, 2, 4, 8, 16:
	default:
		return l, fmt.Errorf("invalid predictor bits per component %d", l.bpc)
	}
	l.pixelBytes = (l.colors*l.bpc + 7) / 8
	l.rowBytes = (l.colors*l.bpc*l.columns + 7) / 8
	return l, nil
}

func unpredictPNG(data []byte, params Params) ([]byte, error) {
	l, err := layoutFor(params)
	if err != nil {
		return nil, err
	}
	stride := l.rowBytes + 1
	rows := len(data) / stride
	out := make([]byte, rows*l.rowBytes)
	prev := make([]byte, l.rowBytes)
	bpp := l.pixelBytes

	for r := 0; r < rows; r++ {
		tag := data[r*stride]
		src := data[r*stride+1 : (r+1)*stride]
		cur := out[r*l.rowBytes : (r+1)*l.rowBytes]
		for i := range src {
			var left, upLeft byte
			if i >= bpp {
				left = cur[i-bpp]
				upLeft = prev[i-bpp]
			}
			up := prev[i]
			switch tag {
			case 0:
				cur[i] = src[i]
			case 1:
				cur[i] = src[i] + left
			case 2:
				cur[i] = src[i] + up
			case 3:
				cur[i] = src[i] + byte((int(left)+int(up))/2)
			case 4:
				cur[i] = src[i] + paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("row %d: unknown PNG filter type %d", r, tag)
			}
		}
		prev = cur
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := absInt(p-int(a)), absInt(p-int(b)), absInt(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// unpredictTIFF handles TIFF predictor 2 for 8 and 16 bit samples
func unpredictTIFF(data []byte, params Params) ([]byte, error) {
	l, err := layoutFor(params)
	if err != nil {
		return nil, err
	}
	if l.bpc != 8 && l.bpc != 16 {
		return nil, fmt.Errorf("TIFF predictor with %d bits per component is not supported", l.bpc)
	}
	out := make([]byte, len(data))
	copy(out, data)
	rows := len(out) / l.rowBytes
	for r := 0; r < rows; r++ {
		row := out[r*l.rowBytes : (r+1)*l.rowBytes]
		if l.bpc == 8 {
			for i := l.colors; i < len(row); i++ {
				row[i] += row[i-l.colors]
			}
			continue
		}
		step := 2 * l.colors
		for i := step; i+1 < len(row); i += 2 {
			v := uint16(row[i])<<8 | uint16(row[i+1])
			p := uint16(row[i-step])<<8 | uint16(row[i-step+1])
			v += p
			row[i], row[i+1] = byte(v>>8), byte(v)
		}
	}
	return out, nil
}
