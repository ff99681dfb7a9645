package funcs

import (
	"strings"
	"text/template"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var TemplateFuncs = template.FuncMap{
	"formatRand": FormatRand,
	"formatDate": FormatDate,
	"upper":      strings.ToUpper,
}

// FormatRand renders a premium amount in South African rand, e.g. "R 149,50".
func FormatRand(amount float64) string {
	printer := message.NewPrinter(language.Afrikaans)
	return printer.Sprintf("%v", currency.ZAR.Amount(amount))
}

func FormatDate(t time.Time) string {
	return t.Format("02 January 2006")
}
