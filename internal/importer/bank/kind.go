package bank

import (
	"strings"
	"unicode"

	"github.com/MrJamesThe3rd/heshbon/internal/importer/field"
	"github.com/MrJamesThe3rd/heshbon/internal/transaction"
)

type kindRule struct {
	kind     transaction.Kind
	keywords []string
}

// kindRules are checked in order. A single-word keyword must equal a whole
// token of the description; a multi-word keyword must appear as a phrase.
var kindRules = []kindRule{
	{
		kind: transaction.KindCreditCharge,
		keywords: []string{
			"ישראכרט", "כאל", "מקס", "לאומי קארד", "לאומיקארד", "דיינרס", "אמריקן אקספרס",
			"אמקס", "ויזה", "כרטיסי אשראי", "כרטיס אשראי", "מסטרקארד",
			"isracard", "cal", "max", "leumi card", "diners", "amex", "american express", "visa", "mastercard",
		},
	},
	{
		kind:     transaction.KindCash,
		keywords: []string{"כספומט", "משיכת מזומן", "משיכה מכספומט", "מזומן", "atm", "cash withdrawal"},
	},
	{
		kind:     transaction.KindFee,
		keywords: []string{"עמלה", "עמלת", "עמלות", "דמי ניהול", "דמי כרטיס", "fee", "commission"},
	},
	{
		kind:     transaction.KindDebit,
		keywords: []string{"הוראת קבע", "הו\"ק", "הוק", "direct debit"},
	},
}

// detectKind tags an expense row by the keywords in its description. Income
// rows are always regular.
func detectKind(description string, direction transaction.Direction) transaction.Kind {
	if direction != transaction.DirectionExpense {
		return transaction.KindRegular
	}

	text := " " + strings.Join(tokens(description), " ") + " "

	for _, rule := range kindRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, " "+strings.Join(tokens(kw), " ")+" ") {
				return rule.kind
			}
		}
	}

	return transaction.KindRegular
}

// tokens lowercases s and splits it on anything that is not a letter, digit
// or quote mark.
func tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '"'
	})
}

// cardFromDescription extracts card digits from a card charge description such
// as "ישראכרט 1234".
func cardFromDescription(description string) string {
	return field.LastFour(description)
}
