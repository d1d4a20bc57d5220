// Package font loads PDF fonts for text extraction.
//
// [Load] builds a [Font] from a font dictionary. Simple fonts (Type1,
// TrueType, Type3) map single-byte codes through a base encoding and an
// optional /Differences array; composite Type0 fonts split shown strings
// with their encoding CMap and look widths up by CID.
//
// # Text Decoding
//
// A ToUnicode CMap always wins over the encoding:
//
//	chars := f.Chars(shown)      // codes, text and advances
//	text := f.DecodeString(shown) // NFC-normalized text
//
// # Widths
//
// Advances come from /Widths, /W, the standard 14 metrics or the
// descriptor's /MissingWidth, in thousandths of a text space unit.
package font
