package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/m3rciful/gastobot/engine/taxonomy"
	"github.com/m3rciful/gastobot/expenses"
)

// cancelKeyword aborts any flow from any state.
const cancelKeyword = "cancelar"

// menuKeywords open the main menu from an idle conversation.
var menuKeywords = map[string]struct{}{
	"hola": {}, "menu": {}, "inicio": {}, "empezar": {},
	"start": {}, "hi": {}, "hello": {},
}

const (
	replyOnboarding = "Hola 👋. Para usar el bot, primero debes registrarte en nuestra aplicación web y vincular tu número de WhatsApp. ¡Te esperamos!"

	replyCancelled       = "✅ Proceso cancelado. Escribe \"menu\" para empezar de nuevo."
	replyNothingToCancel = "No hay ningún proceso activo para cancelar. Escribe \"menu\" para ver las opciones."

	replyMenu = "¡Hola! 👋 Elige una opción:\n1️⃣ Añadir gasto\n2️⃣ Analizar gastos\n3️⃣ Borrar o Modificar Gasto\n\nPuedes también registrar un gasto rápido escribiendo, por ejemplo: `25 comida`"

	replyFallback = "No entendí 🤔. Escribe 'menu' para ver las opciones."

	replyCurrencyPrompt  = "¿En qué moneda fue el gasto?\n1️⃣ PEN (Soles)\n2️⃣ USD (Dólares)\n\nEscribe \"cancelar\" en cualquier momento para detener el proceso."
	replyCurrencyInvalid = "Opción no válida. Por favor, elige:\n1️⃣ PEN (Soles)\n2️⃣ USD (Dólares)\n\nO escribe 'cancelar' para salir."

	replyAmountPrompt  = "Por favor, introduce el monto del gasto (ej: 25.50)"
	replyAmountInvalid = "Monto no válido. Por favor, introduce solo el número (ej: 15.50).\n\nO escribe 'cancelar' para salir."

	replyCategoryInvalid = "Categoría no válida. Por favor, elige un número de la lista.\n\nO escribe 'cancelar' para salir."

	replyInsertError = "Hubo un error al guardar tu gasto. Por favor, intenta de nuevo."
	replyAddAnother  = "Escribe \"1\" para añadir otro gasto o \"menu\" para volver al menú principal."
	replyBackToMenu  = "Escribe \"menu\" para volver al inicio."

	replyDeleteOrModifyMenu    = "Elige una opción:\n1️⃣ Borrar Gasto\n2️⃣ Modificar Gasto\n3️⃣ Volver al menú"
	replyDeleteOrModifyInvalid = "Opción no válida. Elige (1) para borrar, (2) para modificar o (3) para volver al menú."

	replyListError      = "Hubo un error al obtener tus gastos."
	replyNoneToDelete   = "No tienes gastos para borrar."
	replyNoneToModify   = "No tienes gastos para modificar."
	replyMorePagesError = "Hubo un error al obtener más gastos. Intenta de nuevo."
	replyNoMorePages    = "No hay más gastos para mostrar. Aún puedes cancelar uno de la lista anterior."
	replyDeleteError    = "Hubo un error al eliminar el gasto. Intenta de nuevo."
	replyDeleteInvalid  = "Opción no válida. Por favor, elige un número de la lista, o '11' para ver más.\n\nEscribe 'menu' para salir."

	replySelectionInvalid = "Opción no válida. Por favor, elige un número de la lista."

	replyFieldMenu    = "\n¿Qué quieres modificar?\n1️⃣ Monto\n2️⃣ Moneda\n3️⃣ Categoría\n\nEscribe 'menu' para cancelar."
	replyFieldInvalid = "Opción no válida. Elige 1, 2 o 3."

	replyNewAmountPrompt    = "Por favor, introduce el nuevo monto (ej: 25.50)."
	replyNewAmountInvalid   = "Monto no válido. Por favor, introduce un número positivo."
	replyNewAmountError     = "Hubo un error al actualizar el monto."
	replyNewCurrencyPrompt  = "Elige la nueva moneda:\n1️⃣ PEN (Soles)\n2️⃣ USD (Dólares)"
	replyNewCurrencyInvalid = "Opción no válida. Elige 1 o 2."
	replyNewCurrencyError   = "Hubo un error al actualizar la moneda."
	replyNewCategoryError   = "Hubo un error al actualizar la categoría."
	replyNewCategoryInvalid = "Categoría no válida. Por favor, elige un número de la lista."

	replyTimeframeMenu = "Selecciona un período para analizar:\n" +
		"1️⃣ Semana actual\n" +
		"2️⃣ Mes actual\n" +
		"3️⃣ Hace 1 mes\n" +
		"4️⃣ Hace 3 meses\n" +
		"5️⃣ Hace 6 meses\n" +
		"6️⃣ Este año (YTD)\n" +
		"7️⃣ Hace 1 año"
	replyTimeframeInvalid = "Opción no válida. Por favor, elige un número de la lista (1-7)."
	replyAnalysisError    = "Hubo un error al obtener tus gastos. Intenta de nuevo."
	replyAnalysisEmpty    = "No tienes gastos registrados en este período."

	replyDeepAnalysisInvalid = "Opción no válida. Elige (1) para análisis profundo o (2) para volver al menú."
)

const (
	dateFormat     = "02/01/2006"
	dateTimeFormat = "02/01/2006 15:04"
)

// keycap renders a number as the keycap emoji sequence used in menus.
func keycap(n int) string {
	return fmt.Sprintf("%d️⃣", n)
}

func renderCategoryList(header string) string {
	b := strings.Builder{}
	b.WriteString(header)
	b.WriteString("\n")
	for i, label := range taxonomy.Labels() {
		fmt.Fprintf(&b, "%s %s\n", keycap(i+1), label)
	}
	return b.String()
}

// renderExpensePage lists one page of expenses with 1-based selection
// numbers. A full page offers the "see more" sentinel.
func renderExpensePage(header string, items []expenses.Expense, loc *time.Location) string {
	b := strings.Builder{}
	b.WriteString(header)
	b.WriteString("\n\n")
	for i, e := range items {
		fmt.Fprintf(&b, "%s %s - %s%.2f - %s\n",
			keycap(i+1),
			e.CreatedAt.In(loc).Format(dateTimeFormat),
			e.Currency.Symbol(), e.Amount, e.Category)
	}
	if len(items) == pageSize {
		b.WriteString("\n*11*️⃣ Ver más gastos")
	}
	b.WriteString("\n\nEscribe 'menu' para volver al inicio.")
	return b.String()
}

// expenseLine renders one expense the way confirmation messages show it.
func expenseLine(e *expenses.Expense, loc *time.Location) string {
	return fmt.Sprintf("• %s - %s%.2f - %s",
		e.CreatedAt.In(loc).Format(dateFormat),
		e.Currency.Symbol(), e.Amount, e.Category)
}

func replySaved(amount float64, currency expenses.Currency, category string) string {
	return fmt.Sprintf("✅ Gasto de %s%.2f en %q registrado correctamente.",
		currency.Symbol(), amount, category)
}

func replyQuickSaved(amount float64, category string) string {
	return fmt.Sprintf("✅ Gasto rápido de S/%.2f en %q registrado.", amount, category)
}

func replyDeleted(e *expenses.Expense) string {
	return fmt.Sprintf("✅ Gasto de %s%.2f en %q eliminado correctamente.",
		e.Currency.Symbol(), e.Amount, e.Category)
}

func replyUpdated(what string, e *expenses.Expense, loc *time.Location) string {
	return fmt.Sprintf("✅ %s. El gasto ahora es:\n%s", what, expenseLine(e, loc))
}
