// Package taxonomy holds the fixed set of expense categories and the
// keyword table used to classify free text.
package taxonomy

import "strings"

// entry pairs a category label with the keywords that map free text to it.
type entry struct {
	label    string
	keywords []string
}

// categories is the ordered taxonomy. The order is a contract: it defines
// the 1-indexed numbering shown in menus and the precedence of keyword
// matching (first declared wins on overlap).
var categories = []entry{
	{"🍔 Comida y Bebida", []string{"comida", "bebida", "restaurante", "almuerzo", "cena", "cafe", "bar", "supermercado", "mercado"}},
	{"🚕 Transporte", []string{"transporte", "taxi", "uber", "didi", "cabify", "pasaje", "bus", "gasolina", "combustible"}},
	{"🏠 Vivienda", []string{"vivienda", "alquiler", "renta", "hipoteca", "luz", "agua", "gas", "internet", "mantenimiento"}},
	{"👕 Compras Personales", []string{"compras", "ropa", "zapatos", "accesorios", "cuidado personal", "shopping"}},
	{"💊 Salud", []string{"salud", "farmacia", "doctor", "medico", "medicina", "hospital", "seguro"}},
	{"🎉 Ocio y Entretenimiento", []string{"ocio", "entretenimiento", "cine", "concierto", "fiesta", "salida", "juegos", "hobby"}},
	{"📚 Educación", []string{"educacion", "libros", "curso", "universidad", "colegio"}},
	{"💼 Trabajo / Negocio", []string{"trabajo", "negocio", "oficina", "herramientas", "equipo"}},
	{"🎁 Otros", []string{"otros", "regalo", "donacion", "varios"}},
}

// Count returns the number of categories.
func Count() int {
	return len(categories)
}

// Labels returns the category labels in declaration order.
func Labels() []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = c.label
	}
	return out
}

// ByIndex returns the category for a 1-based menu index.
func ByIndex(i int) (string, bool) {
	if i < 1 || i > len(categories) {
		return "", false
	}
	return categories[i-1].label, true
}

// Classify maps free text to the first category with a keyword contained
// in the normalized text. Returns false when nothing matches.
func Classify(text string) (string, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(text))
	for _, c := range categories {
		for _, kw := range c.keywords {
			if strings.Contains(cleaned, kw) {
				return c.label, true
			}
		}
	}
	return "", false
}
