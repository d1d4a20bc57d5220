package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Object is any PDF object
type Object interface {
	Type() ObjectType
	String() string
}

// ObjectType identifies the kind of a PDF object
type ObjectType int

const (
	ObjNull ObjectType = iota
	ObjBool
	ObjInt
	ObjReal
	ObjString
	ObjName
	ObjArray
	ObjDict
	ObjStream
	ObjIndirect
)

var objectTypeNames = [...]string{
	ObjNull:     "Null",
	ObjBool:     "Bool",
	ObjInt:      "Int",
	ObjReal:     "Real",
	ObjString:   "String",
	ObjName:     "Name",
	ObjArray:    "Array",
	ObjDict:     "Dict",
	ObjStream:   "Stream",
	ObjIndirect: "IndirectRef",
}

func (t ObjectType) String() string {
	if t < 0 || int(t) >= len(objectTypeNames) {
		return "Unknown"
	}
	return objectTypeNames[t]
}

// Null is the PDF null object
type Null struct{}

func (Null) Type() ObjectType { return ObjNull }
func (Null) String() string   { return "null" }

// Bool is a PDF boolean
type Bool bool

func (b Bool) Type() ObjectType { return ObjBool }
func (b Bool) String() string   { return strconv.FormatBool(bool(b)) }

// Int is a PDF integer
type Int int64

func (i Int) Type() ObjectType { return ObjInt }
func (i Int) String() string   { return strconv.FormatInt(int64(i), 10) }

// Real is a PDF real number
type Real float64

func (r Real) Type() ObjectType { return ObjReal }
func (r Real) String() string   { return strconv.FormatFloat(float64(r), 'f', -1, 64) }

// String is a PDF string. The value holds the raw bytes after escape and hex
// decoding; interpreting them as text is the font layer's job.
type String string

func (s String) Type() ObjectType { return ObjString }
func (s String) String() string   { return string(s) }

// Name is a PDF name without the leading slash
type Name string

func (n Name) Type() ObjectType { return ObjName }
func (n Name) String() string   { return "/" + string(n) }

// Array is a PDF array
type Array []Object

func (a Array) Type() ObjectType { return ObjArray }
func (a Array) String() string {
	parts := make([]string, len(a))
	for i, obj := range a {
		parts[i] = objString(obj)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Get returns the element at index, or nil when out of range
func (a Array) Get(index int) Object {
	if index < 0 || index >= len(a) {
		return nil
	}
	return a[index]
}

// Floats converts an array of numbers. ok is false if any element is not a
// number.
func (a Array) Floats() ([]float64, bool) {
	out := make([]float64, len(a))
	for i, obj := range a {
		f, ok := Number(obj)
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

// Dict is a PDF dictionary keyed by name (without slash)
type Dict map[string]Object

func (d Dict) Type() ObjectType { return ObjDict }
func (d Dict) String() string {
	keys := d.Keys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, "/"+k+" "+objString(d[k]))
	}
	return "<<" + strings.Join(parts, " ") + ">>"
}

// Get returns the value for key or nil
func (d Dict) Get(key string) Object {
	if d == nil {
		return nil
	}
	return d[key]
}

// Has reports whether key is present
func (d Dict) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// GetName returns a name value
func (d Dict) GetName(key string) (Name, bool) {
	n, ok := d.Get(key).(Name)
	return n, ok
}

// GetInt returns an integer value. Reals with an integral value are accepted
// since some producers write /Length 123.0.
func (d Dict) GetInt(key string) (Int, bool) {
	switch v := d.Get(key).(type) {
	case Int:
		return v, true
	case Real:
		if float64(v) == float64(int64(v)) {
			return Int(v), true
		}
	}
	return 0, false
}

// GetNumber returns an Int or Real as float64
func (d Dict) GetNumber(key string) (float64, bool) {
	return Number(d.Get(key))
}

// GetBool returns a boolean value
func (d Dict) GetBool(key string) (Bool, bool) {
	b, ok := d.Get(key).(Bool)
	return b, ok
}

// GetString returns a string value
func (d Dict) GetString(key string) (String, bool) {
	s, ok := d.Get(key).(String)
	return s, ok
}

// GetArray returns an array value
func (d Dict) GetArray(key string) (Array, bool) {
	a, ok := d.Get(key).(Array)
	return a, ok
}

// GetDict returns a dictionary value
func (d Dict) GetDict(key string) (Dict, bool) {
	v, ok := d.Get(key).(Dict)
	return v, ok
}

// GetStream returns a stream value
func (d Dict) GetStream(key string) (*Stream, bool) {
	s, ok := d.Get(key).(*Stream)
	return s, ok
}

// GetIndirectRef returns an indirect reference value
func (d Dict) GetIndirectRef(key string) (IndirectRef, bool) {
	r, ok := d.Get(key).(IndirectRef)
	return r, ok
}

// Keys returns the keys in sorted order
func (d Dict) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Stream is a dictionary followed by raw (still encoded) bytes
type Stream struct {
	Dict Dict
	Data []byte
}

func (s *Stream) Type() ObjectType { return ObjStream }
func (s *Stream) String() string {
	return fmt.Sprintf("stream %s (%d bytes)", s.Dict.String(), len(s.Data))
}

// IndirectRef is a reference "num gen R"
type IndirectRef struct {
	Number     int
	Generation int
}

func (r IndirectRef) Type() ObjectType { return ObjIndirect }
func (r IndirectRef) String() string {
	return fmt.Sprintf("%d %d R", r.Number, r.Generation)
}

// IndirectObject is an object definition "num gen obj ... endobj"
type IndirectObject struct {
	Ref    IndirectRef
	Object Object
}

// Number converts an Int or Real to float64
func Number(obj Object) (float64, bool) {
	switch v := obj.(type) {
	case Int:
		return float64(v), true
	case Real:
		return float64(v), true
	}
	return 0, false
}

func objString(obj Object) string {
	if obj == nil {
		return "null"
	}
	return obj.String()
}
