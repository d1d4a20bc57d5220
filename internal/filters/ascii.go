package filters

import (
	"bytes"
	"encoding/ascii85"
	"encoding/hex"
	"fmt"
)

// ASCIIHexDecode decodes hex digits up to the '>' end marker. Whitespace is
// ignored and an odd final digit is padded with 0.
func ASCIIHexDecode(data []byte) ([]byte, error) {
	digits := make([]byte, 0, len(data))
	for _, c := range data {
		if c == '>' {
			break
		}
		if isWhitespace(c) {
			continue
		}
		digits = append(digits, c)
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	if _, err := hex.Decode(out, digits); err != nil {
		return nil, fmt.Errorf("ascii hex: %w", err)
	}
	return out, nil
}

// ASCII85Decode decodes base-85 data between an optional "<~" and the "~>"
// end marker.
func ASCII85Decode(data []byte) ([]byte, error) {
	if i := bytes.Index(data, []byte("~>")); i >= 0 {
		data = data[:i]
	}
	data = bytes.TrimPrefix(bytes.TrimSpace(data), []byte("<~"))

	clean := make([]byte, 0, len(data))
	for _, c := range data {
		if !isWhitespace(c) {
			clean = append(clean, c)
		}
	}

	out := make([]byte, 4*len(clean)/5+8+4*bytes.Count(clean, []byte("z")))
	n, _, err := ascii85.Decode(out, clean, true)
	if err != nil {
		return nil, fmt.Errorf("ascii85: %w", err)
	}
	return out[:n], nil
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}
