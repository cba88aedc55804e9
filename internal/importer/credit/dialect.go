package credit

import "github.com/MrJamesThe3rd/heshbon/internal/importer/field"

// Dialect describes the column layout of one issuer's card statement export.
// Headers are compared by field.Key, so embedded newlines and spacing do not
// matter. Adding an export format is adding a Dialect to the dialects slice.
type Dialect struct {
	Name        string
	Date        field.Synonyms
	Description field.Synonyms
	Amount      field.Synonyms
	Category    field.Synonyms
	ChargeDate  field.Synonyms
	Card        field.Synonyms
}

// dialects is the ordered list of layouts tried during header detection.
// More specific dialects come first.
var dialects = []Dialect{
	{
		// Bank Hapoalim card exports wrap every header over two lines.
		Name:        "poalim",
		Date:        field.Synonyms{"תאריך עסקה", "תאריך העסקה"},
		Description: field.Synonyms{"שם בית העסק"},
		Amount:      field.Synonyms{"סכום החיוב", "סכום חיוב בש\"ח", "סכום החיוב בש\"ח"},
		Category:    field.Synonyms{"ענף", "ענף עסקה"},
		ChargeDate:  field.Synonyms{"תאריך החיוב", "מועד החיוב"},
		Card:        field.Synonyms{"מספר כרטיס", "4 ספרות אחרונות"},
	},
	{
		// Max, Isracard and Cal.
		Name:        "standard",
		Date:        field.Synonyms{"תאריך עסקה", "תאריך רכישה", "תאריך", "transaction date", "date"},
		Description: field.Synonyms{"שם בית העסק", "שם בית עסק", "בית עסק", "תיאור", "merchant", "description"},
		Amount:      field.Synonyms{"סכום חיוב", "סכום החיוב", "סכום חיוב ₪", "סכום עסקה", "סכום", "charge amount", "amount"},
		Category:    field.Synonyms{"קטגוריה", "ענף", "category"},
		ChargeDate:  field.Synonyms{"תאריך חיוב", "מועד חיוב", "charge date"},
		Card:        field.Synonyms{"4 ספרות אחרונות של כרטיס האשראי", "כרטיס", "card"},
	},
}

// columns is a dialect resolved against one concrete header row.
type columns struct {
	dialect     *Dialect
	date        int
	description int
	amount      int
	category    int
	chargeDate  int
	card        int
}

// resolve maps the dialect onto header. It reports false when any required
// column (date, description, amount) is missing.
func (d *Dialect) resolve(header []string) (columns, bool) {
	c := columns{
		dialect:     d,
		date:        d.Date.Index(header),
		description: d.Description.Index(header),
		amount:      d.Amount.Index(header),
		category:    d.Category.Index(header),
		chargeDate:  d.ChargeDate.Index(header),
		card:        d.Card.Index(header),
	}

	if c.date < 0 || c.description < 0 || c.amount < 0 {
		return columns{}, false
	}

	return c, true
}
