package core

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestParseObjects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Object
	}{
		{"null", "null", Null{}},
		{"true", "true", Bool(true)},
		{"integer", "-17", Int(-17)},
		{"real", "3.25", Real(3.25)},
		{"string", "(abc)", String("abc")},
		{"name", "/Type", Name("Type")},
		{"reference", "12 0 R", IndirectRef{Number: 12, Generation: 0}},
		{"array", "[1 2.5 /X (s)]", Array{Int(1), Real(2.5), Name("X"), String("s")}},
		{"array with refs", "[1 0 R 2 0 R 3]", Array{IndirectRef{Number: 1}, IndirectRef{Number: 2}, Int(3)}},
		{"dict", "<< /A 1 /B << /C /D >> >>", Dict{"A": Int(1), "B": Dict{"C": Name("D")}}},
		{"dict drops null", "<< /A null /B 2 >>", Dict{"B": Int(2)}},
		{"huge integer", "99999999999999999999", Real(99999999999999999999.0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewParser([]byte(tt.input)).ParseObject()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %#v, got %#v", tt.want, got)
			}
		})
	}
}

func TestParseIntegerNotReference(t *testing.T) {
	p := NewParser([]byte("1 2 3"))
	for _, want := range []Int{1, 2, 3} {
		got, err := p.ParseObject()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("expected %v, got %#v", want, got)
		}
	}
}

func TestOperandParserIgnoresReferences(t *testing.T) {
	p := NewOperandParser(NewLexer([]byte("1 0 R")))
	got, err := p.ParseObject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != Int(1) {
		t.Errorf("expected Int 1, got %#v", got)
	}
}

func TestParseDictMissingValue(t *testing.T) {
	got, err := NewParser([]byte("<< /A 1 /B >>")).ParseObject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Dict{"A": Int(1), "B": Null{}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{"[1 2", "<< /A 1", "<< 1 2 >>", "endobj", ""} {
		if _, err := NewParser([]byte(input)).ParseObject(); err == nil {
			t.Errorf("input %q: expected error", input)
		}
	}
}

func TestParseNestingLimit(t *testing.T) {
	input := strings.Repeat("[", maxNesting+10) + strings.Repeat("]", maxNesting+10)
	if _, err := NewParser([]byte(input)).ParseObject(); err == nil {
		t.Error("expected nesting error")
	}
}

func TestParseIndirectObject(t *testing.T) {
	obj, err := NewParser([]byte("7 1 obj\n<< /Type /Catalog >>\nendobj")).ParseIndirectObject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj.Ref != (IndirectRef{Number: 7, Generation: 1}) {
		t.Errorf("expected 7 1 R, got %v", obj.Ref)
	}
	if !reflect.DeepEqual(obj.Object, Dict{"Type": Name("Catalog")}) {
		t.Errorf("unexpected object %v", obj.Object)
	}
}

func TestParseIndirectObjectEmptyBody(t *testing.T) {
	obj, err := NewParser([]byte("3 0 obj endobj")).ParseIndirectObject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := obj.Object.(Null); !ok {
		t.Errorf("expected null, got %#v", obj.Object)
	}
}

func TestParseStreamWithLength(t *testing.T) {
	data := "1 0 obj\n<< /Length 11 >>\nstream\nhello world\nendstream\nendobj"
	obj, err := NewParser([]byte(data)).ParseIndirectObject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, ok := obj.Object.(*Stream)
	if !ok {
		t.Fatalf("expected stream, got %T", obj.Object)
	}
	if string(s.Data) != "hello world" {
		t.Errorf("expected 'hello world', got %q", s.Data)
	}
}

func TestParseStreamWrongLength(t *testing.T) {
	data := "1 0 obj\n<< /Length 4 >>\nstream\r\nhello world\r\nendstream\nendobj"
	obj, err := NewParser([]byte(data)).ParseIndirectObject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := obj.Object.(*Stream)
	if string(s.Data) != "hello world" {
		t.Errorf("expected 'hello world', got %q", s.Data)
	}
}

type fixedResolver map[int]Object

func (r fixedResolver) ResolveReference(ref IndirectRef) (Object, error) {
	if obj, ok := r[ref.Number]; ok {
		return obj, nil
	}
	return nil, fmt.Errorf("no object %d", ref.Number)
}

func TestParseStreamIndirectLength(t *testing.T) {
	// "endstream" inside the data must not end the stream when /Length is known
	payload := "abc endstream xyz"
	data := fmt.Sprintf("1 0 obj\n<< /Length 9 0 R >>\nstream\n%s\nendstream\nendobj", payload)
	p := NewParser([]byte(data))
	p.SetReferenceResolver(fixedResolver{9: Int(len(payload))})
	obj, err := p.ParseIndirectObject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := string(obj.Object.(*Stream).Data); got != payload {
		t.Errorf("expected %q, got %q", payload, got)
	}
}

func TestParseStreamMissingEndstream(t *testing.T) {
	if _, err := NewParser([]byte("1 0 obj\n<< /Length 100 >>\nstream\nabc")).ParseIndirectObject(); err == nil {
		t.Error("expected error for missing endstream")
	}
}

func TestParseIndirectObjectBadHeader(t *testing.T) {
	if _, err := NewParser([]byte("1 obj << >> endobj")).ParseIndirectObject(); err == nil {
		t.Error("expected error for bad header")
	}
}
