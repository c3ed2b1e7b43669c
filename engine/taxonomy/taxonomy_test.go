package taxonomy

import "testing"

func TestByIndexBounds(t *testing.T) {
	if _, ok := ByIndex(0); ok {
		t.Fatal("index 0 should be invalid")
	}
	if _, ok := ByIndex(Count() + 1); ok {
		t.Fatal("index past the end should be invalid")
	}
	first, ok := ByIndex(1)
	if !ok || first != "🍔 Comida y Bebida" {
		t.Fatalf("ByIndex(1) = %q, %v", first, ok)
	}
	last, ok := ByIndex(9)
	if !ok || last != "🎁 Otros" {
		t.Fatalf("ByIndex(9) = %q, %v", last, ok)
	}
}

func TestClassifyMatchesSubstring(t *testing.T) {
	cases := map[string]string{
		"almuerzo con amigos": "🍔 Comida y Bebida",
		"TAXI al aeropuerto":  "🚕 Transporte",
		"  farmacia  ":        "💊 Salud",
		"regalo de cumple":    "🎁 Otros",
	}
	for in, want := range cases {
		got, ok := Classify(in)
		if !ok || got != want {
			t.Fatalf("Classify(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := Classify("asdfgh"); ok {
		t.Fatal("expected no match for gibberish")
	}
}

func TestClassifyFirstDeclaredWins(t *testing.T) {
	// "gas" is a keyword of Vivienda but is also a substring of
	// "gasolina" (Transporte). Transporte is declared earlier, so a text
	// containing "gasolina" must classify as Transporte, while plain
	// "gas" must fall to Vivienda.
	got, ok := Classify("gasolina")
	if !ok || got != "🚕 Transporte" {
		t.Fatalf("Classify(gasolina) = %q, %v", got, ok)
	}
	got, ok = Classify("recibo de gas")
	if !ok || got != "🏠 Vivienda" {
		t.Fatalf("Classify(recibo de gas) = %q, %v", got, ok)
	}
}
