// Package contentstream parses PDF content streams into operations.
//
//	parser := contentstream.NewParser(streamData)
//	ops, err := parser.Parse()
//	for _, op := range ops {
//	    fmt.Printf("Operator: %s, Operands: %v\n", op.Operator, op.Operands)
//	}
//
// Each [Operation] carries the operands that preceded its operator. Inline
// images (BI ... ID ... EI) become a single "BI" operation whose Image field
// holds the parameter dictionary and the raw sample data.
//
// The parser is tolerant: bytes that do not form a valid token are skipped
// so that one damaged operator does not lose the rest of the page.
package contentstream
