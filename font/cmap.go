package font

import (
	"fmt"

	"github.com/cioplenu/pdf-lib/core"
)

// CMap maps character codes to Unicode text (ToUnicode CMaps) or to CIDs
// (embedded encoding CMaps). Codespace ranges decide how many bytes each
// code occupies.
type CMap struct {
	Name  string
	WMode int

	codespaces []codespaceRange

	charMappings  map[uint32]string
	rangeMappings []CMapRange

	cidMappings map[uint32]int
	cidRanges   []cidRange
}

// CMapRange maps a run of codes to consecutive Unicode values
type CMapRange struct {
	StartCode    uint32
	EndCode      uint32
	StartUnicode []rune
}

type codespaceRange struct {
	low, high []byte
}

type cidRange struct {
	start, end uint32
	cid        int
}

// NewCMap creates an empty CMap
func NewCMap() *CMap {
	return &CMap{
		charMappings: make(map[uint32]string),
		cidMappings:  make(map[uint32]int),
	}
}

// ParseToUnicodeCMap decodes and parses a CMap stream
func ParseToUnicodeCMap(stream *core.Stream) (*CMap, error) {
	if stream == nil {
		return nil, fmt.Errorf("stream is nil")
	}
	data, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode stream: %w", err)
	}
	return ParseCMap(data)
}

// ParseCMap parses CMap program text. Malformed entries are skipped.
func ParseCMap(data []byte) (*CMap, error) {
	cm := NewCMap()
	lex := core.NewLexer(data)
	parser := core.NewOperandParser(lex)

	var operands []core.Object
	for {
		tok, err := lex.NextToken()
		if err != nil {
			// skip the offending byte and keep going
			lex.Seek(lex.Pos() + 1)
			operands = operands[:0]
			continue
		}
		if tok.Type == core.TokenEOF {
			break
		}
		if tok.Type != core.TokenKeyword {
			obj, err := parser.ParseToken(tok)
			if err == nil {
				operands = append(operands, obj)
			}
			continue
		}

		switch string(tok.Value) {
		case "def":
			if len(operands) >= 2 {
				key, _ := operands[len(operands)-2].(core.Name)
				switch key {
				case "CMapName":
					if n, ok := operands[len(operands)-1].(core.Name); ok {
						cm.Name = string(n)
					}
				case "WMode":
					if n, ok := operands[len(operands)-1].(core.Int); ok {
						cm.WMode = int(n)
					}
				}
			}
		case "endcodespacerange":
			for i := 0; i+1 < len(operands); i += 2 {
				lo, ok1 := operands[i].(core.String)
				hi, ok2 := operands[i+1].(core.String)
				if ok1 && ok2 && len(lo) == len(hi) && len(lo) > 0 {
					cm.codespaces = append(cm.codespaces, codespaceRange{low: []byte(lo), high: []byte(hi)})
				}
			}
		case "endbfchar":
			for i := 0; i+1 < len(operands); i += 2 {
				src, ok := operands[i].(core.String)
				if !ok {
					continue
				}
				switch dst := operands[i+1].(type) {
				case core.String:
					cm.charMappings[codeValue(src)] = DecodeUTF16BE(padUTF16(dst))
				case core.Name:
					cm.charMappings[codeValue(src)] = GlyphToString(string(dst))
				}
			}
		case "endbfrange":
			for i := 0; i+2 < len(operands); i += 3 {
				lo, ok1 := operands[i].(core.String)
				hi, ok2 := operands[i+1].(core.String)
				if !ok1 || !ok2 {
					continue
				}
				start, end := codeValue(lo), codeValue(hi)
				if end < start {
					continue
				}
				switch dst := operands[i+2].(type) {
				case core.String:
					cm.rangeMappings = append(cm.rangeMappings, CMapRange{
						StartCode:    start,
						EndCode:      end,
						StartUnicode: []rune(DecodeUTF16BE(padUTF16(dst))),
					})
				case core.Array:
					for j, item := range dst {
						s, ok := item.(core.String)
						if !ok || start+uint32(j) > end {
							continue
						}
						cm.charMappings[start+uint32(j)] = DecodeUTF16BE(padUTF16(s))
					}
				}
			}
		case "endcidchar":
			for i := 0; i+1 < len(operands); i += 2 {
				src, ok1 := operands[i].(core.String)
				cid, ok2 := operands[i+1].(core.Int)
				if ok1 && ok2 {
					cm.cidMappings[codeValue(src)] = int(cid)
				}
			}
		case "endcidrange":
			for i := 0; i+2 < len(operands); i += 3 {
				lo, ok1 := operands[i].(core.String)
				hi, ok2 := operands[i+1].(core.String)
				cid, ok3 := operands[i+2].(core.Int)
				if ok1 && ok2 && ok3 {
					cm.cidRanges = append(cm.cidRanges, cidRange{start: codeValue(lo), end: codeValue(hi), cid: int(cid)})
				}
			}
		}
		operands = operands[:0]
	}

	return cm, nil
}

// codeValue reads a big-endian code from its byte string
func codeValue(b core.String) uint32 {
	var v uint32
	for _, c := range []byte(b) {
		v = v<<8 | uint32(c)
	}
	return v
}

// padUTF16 prepends a zero byte to single-byte destinations
func padUTF16(b core.String) []byte {
	if len(b) == 1 {
		return []byte{0, b[0]}
	}
	return []byte(b)
}

// HasCodespace reports whether codespace ranges were declared
func (cm *CMap) HasCodespace() bool { return cm != nil && len(cm.codespaces) > 0 }

// NextCode reads one character code from data, using the codespace ranges.
// When no range matches, defaultLen bytes are consumed.
func (cm *CMap) NextCode(data []byte, defaultLen int) (uint32, int) {
	if cm != nil {
		for n := 1; n <= 4 && n <= len(data); n++ {
			for _, cs := range cm.codespaces {
				if len(cs.low) == n && inCodespace(data[:n], cs) {
					return bytesValue(data[:n]), n
				}
			}
		}
	}
	n := defaultLen
	if n > len(data) {
		n = len(data)
	}
	return bytesValue(data[:n]), n
}

func inCodespace(b []byte, cs codespaceRange) bool {
	for i := range b {
		if b[i] < cs.low[i] || b[i] > cs.high[i] {
			return false
		}
	}
	return true
}

func bytesValue(b []byte) uint32 {
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}
	return v
}

// Lookup returns the Unicode text for a code
func (cm *CMap) Lookup(charCode uint32) (string, bool) {
	if cm == nil {
		return "", false
	}
	if s, ok := cm.charMappings[charCode]; ok {
		return s, true
	}
	for _, r := range cm.rangeMappings {
		if charCode < r.StartCode || charCode > r.EndCode || len(r.StartUnicode) == 0 {
			continue
		}
		out := append([]rune(nil), r.StartUnicode...)
		out[len(out)-1] += rune(charCode - r.StartCode)
		return string(out), true
	}
	return "", false
}

// CID maps a code to a CID through cidchar and cidrange entries
func (cm *CMap) CID(charCode uint32) (int, bool) {
	if cm == nil {
		return 0, false
	}
	if cid, ok := cm.cidMappings[charCode]; ok {
		return cid, true
	}
	for _, r := range cm.cidRanges {
		if charCode >= r.start && charCode <= r.end {
			return r.cid + int(charCode-r.start), true
		}
	}
	return 0, false
}

// LookupString decodes a whole byte string, falling back to the raw byte
// for unmapped codes
func (cm *CMap) LookupString(data []byte) string {
	var out []rune
	for len(data) > 0 {
		code, n := cm.NextCode(data, 1)
		if s, ok := cm.Lookup(code); ok {
			out = append(out, []rune(s)...)
		} else if n == 1 {
			out = append(out, rune(data[0]))
		}
		data = data[n:]
	}
	return string(out)
}
