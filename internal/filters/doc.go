// Package filters implements the PDF stream decoding filters.
//
// Each filter takes the encoded bytes and, where the filter has parameters,
// the stream's /DecodeParms converted to Params:
//
//	decoded, err := filters.FlateDecode(data, filters.Params{"Predictor": 12, "Columns": 5})
//
// Supported: FlateDecode and LZWDecode (both with TIFF and PNG predictors),
// ASCIIHexDecode, ASCII85Decode, RunLengthDecode and CCITTFaxDecode. Image
// codecs (DCT, JPX, JBIG2) are not filters here; the imaging layer handles
// DCT and rejects the others.
package filters
