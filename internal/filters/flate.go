package filters

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
)

// FlateDecode inflates zlib data and applies the predictor named in params.
// Truncated or slightly corrupt streams return whatever inflated cleanly, as
// long as something did.
func FlateDecode(data []byte, params Params) ([]byte, error) {
	out, err := inflate(data)
	if err != nil {
		return nil, fmt.Errorf("flate: %w", err)
	}
	return Unpredict(out, params)
}

func inflate(data []byte) ([]byte, error) {
	var src io.ReadCloser
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		// some producers omit the zlib header; try raw deflate
		src = flate.NewReader(bytes.NewReader(data))
	} else {
		src = zr
	}
	defer src.Close()

	var buf bytes.Buffer
	_, err = io.Copy(&buf, src)
	if err != nil {
		if buf.Len() > 0 && (errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, zlib.ErrChecksum) || isCorrupt(err)) {
			return buf.Bytes(), nil
		}
		return nil, err
	}
	return buf.Bytes(), nil
}

func isCorrupt(err error) bool {
	var ce flate.CorruptInputError
	return errors.As(err, &ce)
}
