package imaging

import (
	"fmt"

	"github.com/cioplenu/pdf-lib/core"
)

// Family is the device colour model samples are converted through
type Family int

const (
	FamilyGray Family = iota
	FamilyRGB
	FamilyCMYK
	// FamilySeparation is a single tint component; 1 is full ink
	FamilySeparation
	FamilyIndexed
)

// ColorSpace is a parsed image colour space
type ColorSpace struct {
	Name   string
	Family Family

	// Components is the number of samples per pixel
	Components int

	// Indexed colour spaces only
	Base   *ColorSpace
	HiVal  int
	Lookup []byte
}

// maxIndexedDepth bounds Indexed bases that are themselves Indexed
const maxIndexedDepth = 2

var (
	deviceGray = &ColorSpace{Name: "DeviceGray", Family: FamilyGray, Components: 1}
	deviceRGB  = &ColorSpace{Name: "DeviceRGB", Family: FamilyRGB, Components: 3}
	deviceCMYK = &ColorSpace{Name: "DeviceCMYK", Family: FamilyCMYK, Components: 4}
)

// abbreviations used by inline images
var colorSpaceAbbrev = map[string]string{
	"G":    "DeviceGray",
	"RGB":  "DeviceRGB",
	"CMYK": "DeviceCMYK",
	"I":    "Indexed",
}

// ParseColorSpace resolves a /ColorSpace value. Names that are not device
// colour spaces are looked up in named, the resource /ColorSpace dictionary,
// which may be nil.
func ParseColorSpace(obj core.Object, named core.Dict, r Resolver) (*ColorSpace, error) {
	return parseColorSpace(obj, named, r, 0)
}

func parseColorSpace(obj core.Object, named core.Dict, r Resolver, depth int) (*ColorSpace, error) {
	obj, err := resolve(r, obj)
	if err != nil {
		return nil, err
	}

	switch v := obj.(type) {
	case nil, core.Null:
		return deviceGray, nil
	case core.Name:
		name := string(v)
		if full, ok := colorSpaceAbbrev[name]; ok {
			name = full
		}
		switch name {
		case "DeviceGray", "CalGray":
			return deviceGray, nil
		case "DeviceRGB", "CalRGB":
			return deviceRGB, nil
		case "DeviceCMYK":
			return deviceCMYK, nil
		case "Pattern":
			return nil, fmt.Errorf("%w: pattern colour space for image", ErrUnsupported)
		}
		if named != nil && depth == 0 {
			if def := named.Get(name); def != nil {
				return parseColorSpace(def, nil, r, depth+1)
			}
		}
		return nil, fmt.Errorf("%w: colour space %s", ErrUnsupported, name)
	case core.Array:
		return parseColorSpaceArray(v, named, r, depth)
	}
	return nil, fmt.Errorf("invalid colour space %T", obj)
}

func parseColorSpaceArray(arr core.Array, named core.Dict, r Resolver, depth int) (*ColorSpace, error) {
	if len(arr) == 0 {
		return nil, fmt.Errorf("empty colour space array")
	}
	family, _ := arr[0].(core.Name)
	if full, ok := colorSpaceAbbrev[string(family)]; ok {
		family = core.Name(full)
	}

	switch family {
	case "DeviceGray", "DeviceRGB", "DeviceCMYK", "CalGray", "CalRGB":
		return parseColorSpace(family, nil, r, depth)

	case "ICCBased":
		obj, err := resolve(r, arr.Get(1))
		if err != nil {
			return nil, err
		}
		stream, ok := obj.(*core.Stream)
		if !ok {
			return nil, fmt.Errorf("ICCBased profile is %T, not a stream", obj)
		}
		n, _ := stream.Dict.GetInt("N")
		switch n {
		case 1:
			return deviceGray, nil
		case 3:
			return deviceRGB, nil
		case 4:
			return deviceCMYK, nil
		}
		if alt := stream.Dict.Get("Alternate"); alt != nil && depth < maxIndexedDepth {
			return parseColorSpace(alt, named, r, depth+1)
		}
		return nil, fmt.Errorf("%w: ICCBased with %d components", ErrUnsupported, n)

	case "Indexed":
		if len(arr) < 4 {
			return nil, fmt.Errorf("indexed colour space needs 4 entries, has %d", len(arr))
		}
		if depth >= maxIndexedDepth {
			return nil, fmt.Errorf("indexed colour space nested too deeply")
		}
		base, err := parseColorSpace(arr[1], named, r, depth+1)
		if err != nil {
			return nil, fmt.Errorf("indexed base: %w", err)
		}
		if base.Family == FamilyIndexed {
			return nil, fmt.Errorf("indexed base cannot be indexed")
		}
		hiObj, err := resolve(r, arr[2])
		if err != nil {
			return nil, err
		}
		hi, ok := core.Number(hiObj)
		if !ok || hi < 0 {
			return nil, fmt.Errorf("invalid indexed hival %v", hiObj)
		}
		hival := min(int(hi), 255)
		lookup, err := lookupBytes(arr[3], r)
		if err != nil {
			return nil, err
		}
		if need := (hival + 1) * base.Components; len(lookup) < need {
			// short tables are padded with zeros
			lookup = append(lookup, make([]byte, need-len(lookup))...)
		}
		return &ColorSpace{
			Name:       "Indexed",
			Family:     FamilyIndexed,
			Components: 1,
			Base:       base,
			HiVal:      hival,
			Lookup:     lookup,
		}, nil

	case "Separation":
		return &ColorSpace{Name: "Separation", Family: FamilySeparation, Components: 1}, nil

	case "DeviceN":
		names, _ := resolveArray(r, arr.Get(1))
		if len(names) == 1 {
			return &ColorSpace{Name: "DeviceN", Family: FamilySeparation, Components: 1}, nil
		}
		return nil, fmt.Errorf("%w: DeviceN with %d colourants", ErrUnsupported, len(names))
	}
	return nil, fmt.Errorf("%w: colour space %s", ErrUnsupported, family)
}

func lookupBytes(obj core.Object, r Resolver) ([]byte, error) {
	obj, err := resolve(r, obj)
	if err != nil {
		return nil, err
	}
	switch v := obj.(type) {
	case core.String:
		return []byte(v), nil
	case *core.Stream:
		data, err := v.Decode()
		if err != nil {
			return nil, fmt.Errorf("indexed lookup: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("invalid indexed lookup %T", obj)
}

func resolveArray(r Resolver, obj core.Object) (core.Array, error) {
	obj, err := resolve(r, obj)
	if err != nil {
		return nil, err
	}
	arr, _ := obj.(core.Array)
	return arr, nil
}

// defaultDecode returns the /Decode array used when the image has none
func (cs *ColorSpace) defaultDecode(bpc int) []float64 {
	if cs.Family == FamilyIndexed {
		return []float64{0, float64(int(1)<<bpc - 1)}
	}
	d := make([]float64, 0, 2*cs.Components)
	for i := 0; i < cs.Components; i++ {
		d = append(d, 0, 1)
	}
	return d
}

// outputFamily is the family pixels end up in after lookup
func (cs *ColorSpace) outputFamily() Family {
	if cs.Family == FamilyIndexed {
		return cs.Base.outputFamily()
	}
	return cs.Family
}
