package bank

import "github.com/MrJamesThe3rd/heshbon/internal/importer/field"

// maxDescriptionParts is how many description columns are folded into one.
const maxDescriptionParts = 3

// headers lists the spellings used by Israeli bank exports (Hapoalim, Leumi,
// Discount, Mizrahi) and generic English exports, per canonical field.
var headers = struct {
	Date        field.Synonyms
	Description [maxDescriptionParts]field.Synonyms
	Debit       field.Synonyms
	Credit      field.Synonyms
	Amount      field.Synonyms
}{
	Date: field.Synonyms{"תאריך", "תאריך הפעולה", "תאריך פעולה", "תאריך תנועה", "date", "תאריך ערך", "value date"},
	Description: [maxDescriptionParts]field.Synonyms{
		{"תיאור הפעולה", "תיאור", "תיאור התנועה", "הפעולה", "סוג פעולה", "description"},
		{"פרטים", "פרטים נוספים", "פרטי הפעולה", "details"},
		{"לטובת", "עבור", "שם המוטב", "beneficiary"},
	},
	Debit:  field.Synonyms{"חובה", "בחובה", "סכום חובה", "debit"},
	Credit: field.Synonyms{"זכות", "בזכות", "סכום זכות", "credit"},
	Amount: field.Synonyms{"סכום", "₪ זכות/חובה", "זכות/חובה", "סכום בש\"ח", "סכום הפעולה", "amount"},
}

// columns is the header layout resolved for one sheet.
type columns struct {
	date        int
	description []int
	debit       int
	credit      int
	amount      int
}

func (c columns) hasSplit() bool {
	return c.debit >= 0 && c.credit >= 0
}

// resolve reports false unless header has a date column, a description column,
// and either a debit/credit pair or a single amount column.
func resolve(header []string) (columns, bool) {
	c := columns{
		date:   headers.Date.Index(header),
		debit:  headers.Debit.Index(header),
		credit: headers.Credit.Index(header),
		amount: headers.Amount.Index(header),
	}

	for _, syn := range headers.Description {
		if i := syn.Index(header); i >= 0 && i != c.date {
			c.description = append(c.description, i)
		}
	}

	if c.date < 0 || len(c.description) == 0 {
		return columns{}, false
	}

	if !c.hasSplit() && c.amount < 0 {
		return columns{}, false
	}

	return c, true
}
