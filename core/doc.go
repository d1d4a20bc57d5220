// Package core provides low-level PDF parsing primitives and object types.
//
// Documents are parsed from an in-memory byte slice. The package covers the
// eight PDF object types, streams, indirect references, cross-reference data
// and object streams.
//
// # Object Types
//
//   - [Null], [Bool], [Int], [Real]
//   - [String] holds raw bytes from literal or hexadecimal strings
//   - [Name], [Array], [Dict]
//
// [Stream] pairs a dictionary with its undecoded data and [IndirectRef]
// references an indirect object.
//
// # Parsing
//
// [Lexer] turns bytes into tokens and [Parser] builds objects from them. The
// parser recognises "num gen R" references except when built with
// [NewOperandParser] for content streams.
//
// # Cross-Reference Data
//
// [LoadXRef] follows the startxref chain through classic tables, xref
// streams, hybrid /XRefStm sections and /Prev links. When the chain is
// broken [RebuildXRef] scans the file for object headers instead.
//
// # Stream Decoding
//
// [Stream.Decode] runs the filter chain. Image codecs (DCT, JPX, JBIG2) are
// left in place by [Stream.DecodeImageData] for the imaging layer.
package core
