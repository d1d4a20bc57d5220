package filters

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/image/ccitt"
)

// CCITTFaxDecode decodes Group 3 or Group 4 fax data. The output is packed
// 1 bit per pixel, rows byte aligned, with 0 meaning black, which is the
// layout of a DeviceGray image with 1 bit per component.
//
// Parameters: K (<0 Group 4, otherwise Group 3), Columns (default 1728),
// Rows (0 detects the height), BlackIs1.
func CCITTFaxDecode(data []byte, params Params) ([]byte, error) {
	columns := params.Int("Columns", 1728)
	rows := params.Int("Rows", 0)
	if rows <= 0 {
		rows = ccitt.AutoDetectHeight
	}

	sf := ccitt.Group3
	if params.Int("K", 0) < 0 {
		sf = ccitt.Group4
	}

	r := ccitt.NewReader(bytes.NewReader(data), ccitt.MSB, sf, columns, rows,
		&ccitt.Options{Invert: params.Bool("BlackIs1", false)})
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ccitt: %w", err)
	}
	return out, nil
}
