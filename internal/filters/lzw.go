package filters

import (
	"bytes"
	"compress/lzw"
	"errors"
	"fmt"
	"io"

	tifflzw "golang.org/x/image/tiff/lzw"
)

// LZWDecode decodes LZW data. PDF's default /EarlyChange 1 is the "off by
// one" code width switch also used by TIFF; /EarlyChange 0 is plain LZW.
func LZWDecode(data []byte, params Params) ([]byte, error) {
	var r io.ReadCloser
	if params.Int("EarlyChange", 1) == 0 {
		r = lzw.NewReader(bytes.NewReader(data), lzw.MSB, 8)
	} else {
		r = tifflzw.NewReader(bytes.NewReader(data), tifflzw.MSB, 8)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil && !(len(out) > 0 && errors.Is(err, io.ErrUnexpectedEOF)) {
		return nil, fmt.Errorf("lzw: %w", err)
	}
	return Unpredict(out, params)
}
