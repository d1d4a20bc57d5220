package core

import (
	"fmt"
	"strconv"
)

// ObjectStream is a decoded /Type /ObjStm stream holding compressed objects
type ObjectStream struct {
	data    []byte
	first   int
	entries []objStmEntry
}

type objStmEntry struct {
	number int
	offset int
}

// NewObjectStream decodes an object stream and reads its header of
// "objnum offset" pairs
func NewObjectStream(stream *Stream) (*ObjectStream, error) {
	if stream == nil {
		return nil, fmt.Errorf("object stream is nil")
	}
	if t, _ := stream.Dict.GetName("Type"); t != "ObjStm" {
		return nil, fmt.Errorf("stream is not an object stream (type %q)", t)
	}
	n, ok := stream.Dict.GetInt("N")
	if !ok || n < 0 {
		return nil, fmt.Errorf("object stream has invalid /N")
	}
	first, ok := stream.Dict.GetInt("First")
	if !ok || first < 0 {
		return nil, fmt.Errorf("object stream has invalid /First")
	}

	data, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode object stream: %w", err)
	}
	if int(first) > len(data) {
		return nil, fmt.Errorf("object stream /First %d beyond data length %d", first, len(data))
	}

	lex := NewLexer(data[:first])
	entries := make([]objStmEntry, 0, n)
	for i := 0; i < int(n); i++ {
		numTok, err1 := lex.NextToken()
		offTok, err2 := lex.NextToken()
		if err1 != nil || err2 != nil || numTok.Type != TokenInteger || offTok.Type != TokenInteger {
			return nil, fmt.Errorf("object stream header entry %d is malformed", i)
		}
		num, _ := strconv.Atoi(string(numTok.Value))
		off, _ := strconv.Atoi(string(offTok.Value))
		entries = append(entries, objStmEntry{number: num, offset: off})
	}

	return &ObjectStream{data: data, first: int(first), entries: entries}, nil
}

// Len returns the number of objects in the stream
func (os *ObjectStream) Len() int { return len(os.entries) }

// Object parses the object at index. The object number found in the header
// is returned with it.
func (os *ObjectStream) Object(index int) (int, Object, error) {
	if index < 0 || index >= len(os.entries) {
		return 0, nil, fmt.Errorf("object stream index %d out of range [0, %d)", index, len(os.entries))
	}
	e := os.entries[index]
	start := os.first + e.offset
	if start >= len(os.data) {
		return 0, nil, fmt.Errorf("object %d offset %d beyond stream data", e.number, e.offset)
	}
	obj, err := NewParserAt(os.data, start).ParseObject()
	if err != nil {
		return 0, nil, fmt.Errorf("object %d in object stream: %w", e.number, err)
	}
	return e.number, obj, nil
}

// Find returns the object with the given number
func (os *ObjectStream) Find(number int) (Object, error) {
	for i, e := range os.entries {
		if e.number == number {
			_, obj, err := os.Object(i)
			return obj, err
		}
	}
	return nil, fmt.Errorf("object %d not in object stream", number)
}
