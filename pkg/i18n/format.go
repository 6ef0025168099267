package i18n

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCurrency is used when no ISO code is given or the code is unknown.
var DefaultCurrency = currency.EUR

var printer = message.NewPrinter(language.German)

var germanMonths = [...]string{
	"Januar", "Februar", "März", "April", "Mai", "Juni",
	"Juli", "August", "September", "Oktober", "November", "Dezember",
}

// FormatPrice renders amount (major units) in de-DE order with German
// grouping and the symbol last, e.g. FormatPrice(1299, "EUR") -> "1.299,00 €".
func FormatPrice(amount float64, code ...string) string {
	unit := DefaultCurrency
	if len(code) > 0 && strings.TrimSpace(code[0]) != "" {
		if parsed, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code[0]))); err == nil {
			unit = parsed
		}
	}
	// x/text prints "<symbol> <number>".
	formatted := printer.Sprint(currency.Symbol(unit.Amount(amount)))
	symbol, number, ok := strings.Cut(formatted, " ")
	if !ok {
		return formatted
	}
	return number + " " + symbol
}

// FormatDate renders t as a long German date, e.g. "15. Oktober 2026".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d. %s %d", t.Day(), germanMonths[t.Month()-1], t.Year())
}

// FormatDateShort renders t as "15.10.2026".
func FormatDateShort(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02.01.2006")
}
