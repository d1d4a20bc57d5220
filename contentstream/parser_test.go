package contentstream

import (
	"errors"
	"reflect"
	"testing"

	"github.com/cioplenu/pdf-lib/core"
)

func parseOps(t *testing.T, input string) []Operation {
	t.Helper()
	ops, err := NewParser([]byte(input)).Parse()
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return ops
}

func operators(ops []Operation) []string {
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.Operator
	}
	return names
}

// TestParseSimpleOperator tests parsing a simple operator with no operands
func TestParseSimpleOperator(t *testing.T) {
	ops := parseOps(t, "q")
	if len(ops) != 1 {
		t.Fatalf("expected 1 operation, got %d", len(ops))
	}
	if ops[0].Operator != "q" {
		t.Errorf("expected operator 'q', got %q", ops[0].Operator)
	}
	if len(ops[0].Operands) != 0 {
		t.Errorf("expected 0 operands, got %d", len(ops[0].Operands))
	}
}

func TestParseOperands(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		operator string
		operands []core.Object
	}{
		{"integer", "100 Tz", "Tz", []core.Object{core.Int(100)}},
		{"real", "12.5 TL", "TL", []core.Object{core.Real(12.5)}},
		{"negative", "-2 -0.5 Td", "Td", []core.Object{core.Int(-2), core.Real(-0.5)}},
		{"leading decimal", ".5 w", "w", []core.Object{core.Real(0.5)}},
		{"font", "/F1 12 Tf", "Tf", []core.Object{core.Name("F1"), core.Int(12)}},
		{"string", "(Hello World) Tj", "Tj", []core.Object{core.String("Hello World")}},
		{"hex string", "<48656C6C6F> Tj", "Tj", []core.Object{core.String("Hello")}},
		{"escaped", `(a\(b\)\\c) Tj`, "Tj", []core.Object{core.String(`a(b)\c`)}},
		{"octal", `(\101\102) Tj`, "Tj", []core.Object{core.String("AB")}},
		{"matrix", "1 0 0 1 72 720 Tm", "Tm", []core.Object{core.Int(1), core.Int(0), core.Int(0), core.Int(1), core.Int(72), core.Int(720)}},
		{"array", "[(A) -120 (B)] TJ", "TJ", []core.Object{core.Array{core.String("A"), core.Int(-120), core.String("B")}}},
		{"dict", "/OC << /Type /OCMD >> BDC", "BDC", []core.Object{core.Name("OC"), core.Dict{"Type": core.Name("OCMD")}}},
		{"boolean and null", "true false null xx", "xx", []core.Object{core.Bool(true), core.Bool(false), core.Null{}}},
		{"name escape", "/A#20B Do", "Do", []core.Object{core.Name("A B")}},
		{"quote operator", "(line) '", "'", []core.Object{core.String("line")}},
		{"double quote operator", `1 2 (x) "`, `"`, []core.Object{core.Int(1), core.Int(2), core.String("x")}},
		{"type3 glyph", "500 0 d0", "d0", []core.Object{core.Int(500), core.Int(0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops := parseOps(t, tt.input)
			if len(ops) != 1 {
				t.Fatalf("expected 1 operation, got %d: %v", len(ops), operators(ops))
			}
			if ops[0].Operator != tt.operator {
				t.Errorf("expected operator %q, got %q", tt.operator, ops[0].Operator)
			}
			if !reflect.DeepEqual(ops[0].Operands, tt.operands) {
				t.Errorf("operands = %#v, want %#v", ops[0].Operands, tt.operands)
			}
		})
	}
}

func TestParseTextBlock(t *testing.T) {
	ops := parseOps(t, `BT
/F1 12 Tf
72 720 Td
(Hello) Tj
T*
ET`)
	want := []string{"BT", "Tf", "Td", "Tj", "T*", "ET"}
	if !reflect.DeepEqual(operators(ops), want) {
		t.Errorf("operators = %v, want %v", operators(ops), want)
	}
}

func TestParseOperandsDoNotLeakBetweenParsers(t *testing.T) {
	// trailing operands without an operator belong to no operation
	if _, err := NewParser([]byte("1 2 3")).Parse(); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	ops := parseOps(t, "Q")
	if len(ops[0].Operands) != 0 {
		t.Errorf("expected no operands, got %v", ops[0].Operands)
	}
}

func TestParseWithComments(t *testing.T) {
	ops := parseOps(t, "BT % begin text\n/F1 12 Tf\n% full line\n(Hi) Tj ET")
	want := []string{"BT", "Tf", "Tj", "ET"}
	if !reflect.DeepEqual(operators(ops), want) {
		t.Errorf("operators = %v, want %v", operators(ops), want)
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n\t  "} {
		ops := parseOps(t, input)
		if len(ops) != 0 {
			t.Errorf("input %q: expected 0 operations, got %d", input, len(ops))
		}
	}
}

func TestParseSkipsMalformedTokens(t *testing.T) {
	ops := parseOps(t, "BT ) /F1 12 Tf ] >> (ok) Tj ET")
	want := []string{"BT", "Tf", "Tj", "ET"}
	if !reflect.DeepEqual(operators(ops), want) {
		t.Fatalf("operators = %v, want %v", operators(ops), want)
	}
	if ops[2].Operands[0] != core.String("ok") {
		t.Errorf("Tj operand = %v", ops[2].Operands[0])
	}
}

func TestParseInlineImage(t *testing.T) {
	input := "q 10 0 0 10 0 0 cm BI /W 2 /H 1 /CS /G /BPC 8 ID \x00\xff EI Q"
	ops := parseOps(t, input)

	want := []string{"q", "cm", "BI", "Q"}
	if !reflect.DeepEqual(operators(ops), want) {
		t.Fatalf("operators = %v, want %v", operators(ops), want)
	}

	img := ops[2].Image
	if img == nil {
		t.Fatal("expected inline image")
	}
	wantDict := core.Dict{"W": core.Int(2), "H": core.Int(1), "CS": core.Name("G"), "BPC": core.Int(8)}
	if !reflect.DeepEqual(img.Dict, wantDict) {
		t.Errorf("dict = %v, want %v", img.Dict, wantDict)
	}
	if string(img.Data) != "\x00\xff" {
		t.Errorf("data = %q", img.Data)
	}
}

func TestParseInlineImageEIInsideData(t *testing.T) {
	// the first "EI" is followed by binary bytes and is part of the samples
	data := "A EI\x01\x02 B"
	input := "BI /W 1 /H 1 ID " + data + " EI Q"
	ops := parseOps(t, input)
	if len(ops) != 2 || ops[0].Image == nil {
		t.Fatalf("operators = %v", operators(ops))
	}
	if string(ops[0].Image.Data) != data {
		t.Errorf("data = %q, want %q", ops[0].Image.Data, data)
	}
}

func TestParseInlineImageEmptyData(t *testing.T) {
	ops := parseOps(t, "BI\n/W 100\n/H 50\n/CS /G\n/BPC 8\nID\nEI")
	if len(ops) != 1 || ops[0].Image == nil {
		t.Fatalf("operators = %v", operators(ops))
	}
	if len(ops[0].Image.Data) != 0 {
		t.Errorf("data = %q", ops[0].Image.Data)
	}
}

func TestParseInlineImageErrors(t *testing.T) {
	tests := []string{
		"q BI /W 1 /H 1",
		"q BI /W 1 ID \x00\x00",
		"q BI 5 ID x EI",
	}
	for _, input := range tests {
		ops, err := NewParser([]byte(input)).Parse()
		if !errors.Is(err, ErrInlineImage) {
			t.Errorf("input %q: expected ErrInlineImage, got %v", input, err)
		}
		if len(ops) != 1 || ops[0].Operator != "q" {
			t.Errorf("input %q: expected the q before BI, got %v", input, operators(ops))
		}
	}
}

func TestFindEI(t *testing.T) {
	tests := []struct {
		data      string
		end, next int
	}{
		{" ab EI", 3, 6},
		{" abEI Q", -1, -1},
		{" ab EIQ", -1, -1},
		{" ab EI/x", 3, 6},
	}
	for _, tt := range tests {
		end, next := findEI([]byte(tt.data), 1)
		if end != tt.end || next != tt.next {
			t.Errorf("findEI(%q) = %d, %d, want %d, %d", tt.data, end, next, tt.end, tt.next)
		}
	}
}
