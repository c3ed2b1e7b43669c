package quickadd

import "testing"

func TestParseAmountFirst(t *testing.T) {
	e, ok := Parse("25.50 comida")
	if !ok {
		t.Fatal("expected match")
	}
	if e.Amount != 25.50 {
		t.Fatalf("amount = %v", e.Amount)
	}
	if e.Hint != "comida" {
		t.Fatalf("hint = %q", e.Hint)
	}
}

func TestParseAmountLast(t *testing.T) {
	e, ok := Parse("taxi 12,5")
	if !ok {
		t.Fatal("expected match")
	}
	if e.Amount != 12.5 {
		t.Fatalf("amount = %v", e.Amount)
	}
	if e.Hint != "taxi" {
		t.Fatalf("hint = %q", e.Hint)
	}
}

func TestParseCommaEqualsDot(t *testing.T) {
	a, ok := Parse("9,99 cine")
	if !ok {
		t.Fatal("expected match")
	}
	b, ok := Parse("9.99 cine")
	if !ok {
		t.Fatal("expected match")
	}
	if a.Amount != b.Amount {
		t.Fatalf("comma and dot amounts differ: %v vs %v", a.Amount, b.Amount)
	}
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{"", "menu", "0 comida", "comida"} {
		if _, ok := Parse(in); ok {
			t.Fatalf("Parse(%q) should not match", in)
		}
	}
}

func TestParseAmount(t *testing.T) {
	if a, ok := ParseAmount("S/ 15,50"); !ok || a != 15.50 {
		t.Fatalf("ParseAmount = %v, %v", a, ok)
	}
	if _, ok := ParseAmount("cero"); ok {
		t.Fatal("non-numeric input should be rejected")
	}
	if _, ok := ParseAmount("0"); ok {
		t.Fatal("zero should be rejected")
	}
}
