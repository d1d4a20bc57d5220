package core

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// XRefEntryType distinguishes free, in-use and compressed entries
type XRefEntryType int

const (
	XRefFree XRefEntryType = iota
	XRefInUse
	XRefCompressed
)

// XRefEntry locates one object. In-use entries carry a file Offset;
// compressed entries carry the object stream number and index within it.
type XRefEntry struct {
	Type       XRefEntryType
	Offset     int64
	Generation int
	StreamObj  int
	Index      int
}

// XRefTable maps object numbers to locations and holds the merged trailer
type XRefTable struct {
	Entries map[int]XRefEntry
	Trailer Dict
	// Repaired is set when the table was rebuilt by scanning the file
	Repaired bool
}

// NewXRefTable creates an empty table
func NewXRefTable() *XRefTable {
	return &XRefTable{Entries: make(map[int]XRefEntry), Trailer: Dict{}}
}

// Get returns the entry for an object number
func (x *XRefTable) Get(objNum int) (XRefEntry, bool) {
	e, ok := x.Entries[objNum]
	return e, ok
}

// addSection merges entries and trailer keys that are not already present.
// Sections are added newest first, so the first definition wins.
func (x *XRefTable) addSection(entries map[int]XRefEntry, trailer Dict) {
	for num, e := range entries {
		if _, exists := x.Entries[num]; !exists {
			x.Entries[num] = e
		}
	}
	for k, v := range trailer {
		if _, exists := x.Trailer[k]; !exists {
			x.Trailer[k] = v
		}
	}
}

// ErrNoXRef is returned when no usable cross-reference data exists
var ErrNoXRef = errors.New("no cross-reference data")

// FindStartXRef returns the offset recorded after the last "startxref"
func FindStartXRef(data []byte) (int64, error) {
	tail := data
	if len(tail) > 2048 {
		tail = tail[len(tail)-2048:]
	}
	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return 0, fmt.Errorf("%w: startxref not found", ErrNoXRef)
	}
	lex := NewLexer(tail[idx+len("startxref"):])
	tok, err := lex.NextToken()
	if err != nil || tok.Type != TokenInteger {
		return 0, fmt.Errorf("%w: startxref offset missing", ErrNoXRef)
	}
	off, err := strconv.ParseInt(string(tok.Value), 10, 64)
	if err != nil || off < 0 || off >= int64(len(data)) {
		return 0, fmt.Errorf("%w: startxref offset %q out of range", ErrNoXRef, tok.Value)
	}
	return off, nil
}

// LoadXRef reads the cross-reference chain starting at startxref, following
// /Prev and /XRefStm. If the chain is unusable the file is scanned for
// object headers instead.
func LoadXRef(data []byte) (*XRefTable, error) {
	table, err := loadXRefChain(data)
	if err == nil && table.Trailer.Has("Root") {
		return table, nil
	}
	rebuilt, rerr := RebuildXRef(data)
	if rerr != nil {
		if err != nil {
			return nil, fmt.Errorf("%v; rebuild: %w", err, rerr)
		}
		return nil, rerr
	}
	return rebuilt, nil
}

func loadXRefChain(data []byte) (*XRefTable, error) {
	offset, err := FindStartXRef(data)
	if err != nil {
		return nil, err
	}

	table := NewXRefTable()
	visited := make(map[int64]bool)
	for {
		if visited[offset] {
			break
		}
		visited[offset] = true

		entries, trailer, err := parseXRefSection(data, offset)
		if err != nil {
			if len(visited) == 1 {
				return nil, err
			}
			// a broken older section still leaves the newer ones usable
			break
		}

		// hybrid files list some objects only in the stream named by /XRefStm
		if stmOff, ok := trailer.GetInt("XRefStm"); ok && !visited[int64(stmOff)] {
			visited[int64(stmOff)] = true
			if stmEntries, _, err := parseXRefSection(data, int64(stmOff)); err == nil {
				for num, e := range stmEntries {
					if cur, ok := entries[num]; !ok || cur.Type == XRefFree {
						entries[num] = e
					}
				}
			}
		}

		table.addSection(entries, trailer)

		prev, ok := trailer.GetInt("Prev")
		if !ok || prev < 0 || int64(prev) >= int64(len(data)) {
			break
		}
		offset = int64(prev)
	}
	delete(table.Trailer, "Prev")
	delete(table.Trailer, "XRefStm")
	return table, nil
}

// parseXRefSection reads either a classic "xref" table or an xref stream at
// offset
func parseXRefSection(data []byte, offset int64) (map[int]XRefEntry, Dict, error) {
	lex := NewLexer(data)
	lex.Seek(int(offset))
	tok, err := lex.NextToken()
	if err != nil {
		return nil, nil, fmt.Errorf("xref at %d: %w", offset, err)
	}
	if tok.Keyword("xref") {
		return parseXRefTable(lex)
	}
	return parseXRefStream(data, offset)
}

func parseXRefTable(lex *Lexer) (map[int]XRefEntry, Dict, error) {
	entries := make(map[int]XRefEntry)
	for {
		tok, err := lex.NextToken()
		if err != nil {
			return nil, nil, fmt.Errorf("xref table: %w", err)
		}
		if tok.Keyword("trailer") {
			break
		}
		if tok.Type != TokenInteger {
			return nil, nil, fmt.Errorf("xref table: expected subsection start at offset %d", tok.Pos)
		}
		countTok, err := lex.NextToken()
		if err != nil || countTok.Type != TokenInteger {
			return nil, nil, fmt.Errorf("xref table: expected subsection count at offset %d", tok.Pos)
		}
		start, _ := strconv.Atoi(string(tok.Value))
		count, _ := strconv.Atoi(string(countTok.Value))

		for i := 0; i < count; i++ {
			offTok, err1 := lex.NextToken()
			genTok, err2 := lex.NextToken()
			kindTok, err3 := lex.NextToken()
			if err1 != nil || err2 != nil || err3 != nil || offTok.Type != TokenInteger || genTok.Type != TokenInteger {
				return nil, nil, fmt.Errorf("xref table: malformed entry %d of subsection %d", i, start)
			}
			off, _ := strconv.ParseInt(string(offTok.Value), 10, 64)
			gen, _ := strconv.Atoi(string(genTok.Value))
			e := XRefEntry{Offset: off, Generation: gen}
			switch {
			case kindTok.Keyword("n"):
				e.Type = XRefInUse
			case kindTok.Keyword("f"):
				e.Type = XRefFree
			default:
				return nil, nil, fmt.Errorf("xref table: entry type %q", kindTok.Value)
			}
			if _, dup := entries[start+i]; !dup {
				entries[start+i] = e
			}
		}
	}

	p := &Parser{lex: lex, refs: true}
	trailer, err := p.ParseObject()
	if err != nil {
		return nil, nil, fmt.Errorf("trailer: %w", err)
	}
	dict, ok := trailer.(Dict)
	if !ok {
		return nil, nil, fmt.Errorf("trailer is %T, not a dictionary", trailer)
	}
	return entries, dict, nil
}

func parseXRefStream(data []byte, offset int64) (map[int]XRefEntry, Dict, error) {
	ind, err := NewParserAt(data, int(offset)).ParseIndirectObject()
	if err != nil {
		return nil, nil, fmt.Errorf("xref stream at %d: %w", offset, err)
	}
	stream, ok := ind.Object.(*Stream)
	if !ok {
		return nil, nil, fmt.Errorf("object at %d is not an xref stream", offset)
	}
	if t, _ := stream.Dict.GetName("Type"); t != "XRef" {
		return nil, nil, fmt.Errorf("stream at %d has type %q, not XRef", offset, t)
	}
	entries, err := decodeXRefStream(stream)
	if err != nil {
		return nil, nil, fmt.Errorf("xref stream at %d: %w", offset, err)
	}
	return entries, stream.Dict, nil
}

func decodeXRefStream(stream *Stream) (map[int]XRefEntry, error) {
	wArr, ok := stream.Dict.GetArray("W")
	if !ok || len(wArr) < 3 {
		return nil, fmt.Errorf("missing or short /W")
	}
	var w [3]int
	for i := 0; i < 3; i++ {
		n, ok := wArr[i].(Int)
		if !ok || n < 0 || n > 8 {
			return nil, fmt.Errorf("invalid /W element %v", wArr[i])
		}
		w[i] = int(n)
	}
	rowLen := w[0] + w[1] + w[2]
	if rowLen == 0 {
		return nil, fmt.Errorf("zero-width /W")
	}

	size, _ := stream.Dict.GetInt("Size")
	index := []int{0, int(size)}
	if idxArr, ok := stream.Dict.GetArray("Index"); ok && len(idxArr)%2 == 0 {
		index = index[:0]
		for _, v := range idxArr {
			n, ok := v.(Int)
			if !ok {
				return nil, fmt.Errorf("invalid /Index element %v", v)
			}
			index = append(index, int(n))
		}
	}

	data, err := stream.Decode()
	if err != nil {
		return nil, err
	}

	entries := make(map[int]XRefEntry)
	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		start, count := index[i], index[i+1]
		for j := 0; j < count; j++ {
			if pos+rowLen > len(data) {
				return entries, nil
			}
			row := data[pos : pos+rowLen]
			pos += rowLen

			typ := int64(1) // absent type field means in use
			if w[0] > 0 {
				typ = readBigEndian(row[:w[0]])
			}
			f2 := readBigEndian(row[w[0] : w[0]+w[1]])
			f3 := readBigEndian(row[w[0]+w[1]:])

			var e XRefEntry
			switch typ {
			case 0:
				e = XRefEntry{Type: XRefFree, Offset: f2, Generation: int(f3)}
			case 1:
				e = XRefEntry{Type: XRefInUse, Offset: f2, Generation: int(f3)}
			case 2:
				e = XRefEntry{Type: XRefCompressed, StreamObj: int(f2), Index: int(f3)}
			default:
				// unknown types are treated as references to the null object
				continue
			}
			if _, dup := entries[start+j]; !dup {
				entries[start+j] = e
			}
		}
	}
	return entries, nil
}

func readBigEndian(b []byte) int64 {
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}

var objHeader = regexp.MustCompile(`(\d{1,10})[\x00\t\n\f\r ]+(\d{1,5})[\x00\t\n\f\r ]+obj\b`)

// RebuildXRef scans the whole file for "num gen obj" headers. Later
// definitions override earlier ones, as incremental updates append. Objects
// inside object streams are registered as compressed entries.
func RebuildXRef(data []byte) (*XRefTable, error) {
	table := NewXRefTable()
	table.Repaired = true

	for _, m := range objHeader.FindAllSubmatchIndex(data, -1) {
		if m[0] > 0 && isDigit(data[m[0]-1]) {
			continue
		}
		num, err1 := strconv.Atoi(string(data[m[2]:m[3]]))
		gen, err2 := strconv.Atoi(string(data[m[4]:m[5]]))
		if err1 != nil || err2 != nil {
			continue
		}
		table.Entries[num] = XRefEntry{Type: XRefInUse, Offset: int64(m[0]), Generation: gen}
	}
	if len(table.Entries) == 0 {
		return nil, fmt.Errorf("%w: no objects found", ErrNoXRef)
	}

	// trailer dictionaries, newest last
	for _, idx := range allIndexes(data, []byte("trailer")) {
		obj, err := NewParserAt(data, idx+len("trailer")).ParseObject()
		if err != nil {
			continue
		}
		if d, ok := obj.(Dict); ok {
			for k, v := range d {
				table.Trailer[k] = v
			}
		}
	}

	compressed := make(map[int]XRefEntry)
	for num, e := range table.Entries {
		ind, err := NewParserAt(data, int(e.Offset)).ParseIndirectObject()
		if err != nil {
			continue
		}
		var dict Dict
		switch v := ind.Object.(type) {
		case Dict:
			dict = v
		case *Stream:
			dict = v.Dict
		}
		switch t, _ := dict.GetName("Type"); t {
		case "Catalog":
			if !table.Trailer.Has("Root") {
				table.Trailer["Root"] = IndirectRef{Number: num, Generation: e.Generation}
			}
		case "XRef":
			if root := dict.Get("Root"); root != nil && !table.Trailer.Has("Root") {
				table.Trailer["Root"] = root
			}
			if info := dict.Get("Info"); info != nil && !table.Trailer.Has("Info") {
				table.Trailer["Info"] = info
			}
		case "ObjStm":
			os, err := NewObjectStream(ind.Object.(*Stream))
			if err != nil {
				continue
			}
			for i, se := range os.entries {
				compressed[se.number] = XRefEntry{Type: XRefCompressed, StreamObj: num, Index: i}
			}
		}
	}
	for num, e := range compressed {
		if _, ok := table.Entries[num]; !ok {
			table.Entries[num] = e
		}
	}

	if !table.Trailer.Has("Root") {
		return nil, fmt.Errorf("%w: no document catalog found", ErrNoXRef)
	}
	delete(table.Trailer, "Prev")
	delete(table.Trailer, "XRefStm")
	return table, nil
}

func allIndexes(data, sep []byte) []int {
	var out []int
	for off := 0; ; {
		i := bytes.Index(data[off:], sep)
		if i < 0 {
			return out
		}
		out = append(out, off+i)
		off += i + len(sep)
	}
}
