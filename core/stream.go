package core

import (
	"errors"
	"fmt"

	"github.com/cioplenu/pdf-lib/internal/filters"
)

// ErrUnsupportedFilter is returned for filters this package cannot decode
var ErrUnsupportedFilter = errors.New("unsupported filter")

// Image codec filters are left for the imaging layer
var imageCodecs = map[string]bool{
	"DCTDecode":   true,
	"DCT":         true,
	"JPXDecode":   true,
	"JBIG2Decode": true,
}

// Filters returns the stream's filter chain and matching decode parameters.
// Abbreviated names are expanded.
func (s *Stream) Filters() ([]string, []Dict, error) {
	return FilterChain(s.Dict)
}

// FilterChain reads /Filter and /DecodeParms (or the inline image
// abbreviations /F and /DP) from a stream dictionary
func FilterChain(dict Dict) ([]string, []Dict, error) {
	filterObj := dict.Get("Filter")
	if filterObj == nil {
		filterObj = dict.Get("F")
	}
	paramsObj := dict.Get("DecodeParms")
	if paramsObj == nil {
		paramsObj = dict.Get("DP")
	}

	var names []string
	switch v := filterObj.(type) {
	case nil:
		return nil, nil, nil
	case Name:
		names = []string{expandFilterName(string(v))}
	case Array:
		for i, f := range v {
			n, ok := f.(Name)
			if !ok {
				return nil, nil, fmt.Errorf("filter %d is %T, not a name", i, f)
			}
			names = append(names, expandFilterName(string(n)))
		}
	default:
		return nil, nil, fmt.Errorf("invalid /Filter type %T", filterObj)
	}

	params := make([]Dict, len(names))
	switch v := paramsObj.(type) {
	case Dict:
		params[0] = v
	case Array:
		for i := range params {
			if d, ok := v.Get(i).(Dict); ok {
				params[i] = d
			}
		}
	}
	return names, params, nil
}

func expandFilterName(name string) string {
	switch name {
	case "Fl":
		return "FlateDecode"
	case "LZW":
		return "LZWDecode"
	case "AHx":
		return "ASCIIHexDecode"
	case "A85":
		return "ASCII85Decode"
	case "RL":
		return "RunLengthDecode"
	case "CCF":
		return "CCITTFaxDecode"
	case "DCT":
		return "DCTDecode"
	}
	return name
}

// Decode applies the full filter chain. Streams ending in an image codec
// return an ErrUnsupportedFilter error; use DecodeImageData for images.
func (s *Stream) Decode() ([]byte, error) {
	data, codec, _, err := s.DecodeImageData()
	if err != nil {
		return nil, err
	}
	if codec != "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFilter, codec)
	}
	return data, nil
}

// DecodeImageData applies every filter up to an image codec. It returns the
// partially decoded data, the codec name ("" when fully decoded) and the
// codec's parameters.
func (s *Stream) DecodeImageData() ([]byte, string, Dict, error) {
	return DecodeData(s.Data, s.Dict)
}

// DecodeData runs the filter chain described by dict over data
func DecodeData(data []byte, dict Dict) ([]byte, string, Dict, error) {
	names, params, err := FilterChain(dict)
	if err != nil {
		return nil, "", nil, err
	}
	for i, name := range names {
		if imageCodecs[name] {
			return data, name, params[i], nil
		}
		data, err = decodeWithFilter(data, name, params[i])
		if err != nil {
			return nil, "", nil, fmt.Errorf("filter %d (%s): %w", i, name, err)
		}
	}
	return data, "", nil, nil
}

func decodeWithFilter(data []byte, name string, params Dict) ([]byte, error) {
	p := toParams(params)
	switch name {
	case "FlateDecode":
		return filters.FlateDecode(data, p)
	case "LZWDecode":
		return filters.LZWDecode(data, p)
	case "ASCIIHexDecode":
		return filters.ASCIIHexDecode(data)
	case "ASCII85Decode":
		return filters.ASCII85Decode(data)
	case "RunLengthDecode":
		return filters.RunLengthDecode(data)
	case "CCITTFaxDecode":
		return filters.CCITTFaxDecode(data, p)
	case "Crypt":
		// only the Identity crypt filter can appear without encryption
		if n, ok := params.GetName("Name"); !ok || n == "Identity" {
			return data, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFilter, name)
}

// toParams converts PDF decode parameters to Go values
func toParams(dict Dict) filters.Params {
	if dict == nil {
		return nil
	}
	params := make(filters.Params, len(dict))
	for k, v := range dict {
		switch obj := v.(type) {
		case Int:
			params[k] = int(obj)
		case Real:
			params[k] = float64(obj)
		case Bool:
			params[k] = bool(obj)
		case Name:
			params[k] = string(obj)
		case String:
			params[k] = string(obj)
		}
	}
	return params
}
