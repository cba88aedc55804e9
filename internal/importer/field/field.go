// Package field holds the cell-level helpers shared by the statement normalizers:
// cell cleanup, header synonym resolution, date and amount normalization.
package field

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/heshbon/internal/transaction"
)

// Clean strips quotes and embedded newlines from a cell and trims it.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\"", "")
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)

	return strings.Join(strings.Fields(s), " ")
}

// Key is the comparison form of a header cell: cleaned, lowercased and with all
// whitespace and quote marks removed. "סכום\nחיוב" and "סכום חיוב" share a key.
func Key(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '"' || r == '\'' || r == '`' {
			return -1
		}

		return unicode.ToLower(r)
	}, s)
}

// Cell safely gets a cleaned cell value from a row.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return Clean(row[idx])
}

// Synonyms is an ordered list of header spellings for one canonical field.
type Synonyms []string

// Index returns the column of the first synonym present in header, or -1.
// Synonyms are probed in order, so earlier spellings win.
func (s Synonyms) Index(header []string) int {
	keys := make(map[string]int, len(header))

	for i, cell := range header {
		k := Key(cell)
		if k == "" {
			continue
		}

		if _, ok := keys[k]; !ok {
			keys[k] = i
		}
	}

	for _, syn := range s {
		if i, ok := keys[Key(syn)]; ok {
			return i
		}
	}

	return -1
}

var (
	excelSerial = regexp.MustCompile(`^\d{1,5}(\.\d+)?$`)
	excelEpoch  = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
)

// ExcelSerialToTime converts an Excel date serial (days since 1899-12-30).
func ExcelSerialToTime(serial int) time.Time {
	return excelEpoch.Add(time.Duration(serial) * 24 * time.Hour)
}

// NormalizeDate turns a raw date cell into the D/M/YY family. A bare 1-5 digit
// number is an Excel serial; otherwise "." and "-" separators become "/".
func NormalizeDate(raw string) string {
	s := Clean(raw)
	if s == "" {
		return ""
	}

	if excelSerial.MatchString(s) {
		whole, _, _ := strings.Cut(s, ".")

		serial := 0
		for _, r := range whole {
			serial = serial*10 + int(r-'0')
		}

		return transaction.FormatDate(ExcelSerialToTime(serial))
	}

	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}

	return strings.NewReplacer(".", "/", "-", "/").Replace(s)
}

var (
	notNumeric    = regexp.MustCompile(`[^0-9,.\-]`)
	leadingNumber = regexp.MustCompile(`^-?\d*\.?\d*`)
)

// ParseCreditAmount parses an amount in the credit statement dialect: currency
// symbols and any other noise are stripped, and a comma is always a decimal point.
// Like a lenient float parse, the longest numeric prefix is used.
func ParseCreditAmount(raw string) (decimal.Decimal, bool) {
	s := notNumeric.ReplaceAllString(raw, "")
	s = strings.ReplaceAll(s, ",", ".")

	s = leadingNumber.FindString(s)
	s = strings.TrimSuffix(s, ".")

	if s == "" || s == "-" {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}

	return d, true
}

// ParseBankAmount parses an amount in the bank statement dialect. When both a
// comma and a period are present the comma is a thousands separator and is
// dropped; a lone comma is a decimal point. "1,234" is therefore read as 1.234:
// that input is ambiguous without locale knowledge.
func ParseBankAmount(raw string) (decimal.Decimal, bool) {
	s := notNumeric.ReplaceAllString(raw, "")

	if strings.Contains(s, ",") && strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", "")
	} else {
		s = strings.ReplaceAll(s, ",", ".")
	}

	// Some exports print the sign after the number ("120.00-").
	if strings.HasSuffix(s, "-") && !strings.HasPrefix(s, "-") {
		s = "-" + strings.TrimSuffix(s, "-")
	}

	if s == "" || s == "-" {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}

	return d, true
}

// ToCents converts a decimal amount to whole cents, rounding half away from zero.
func ToCents(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

var lastFour = regexp.MustCompile(`(\d{4})\D*$`)

// LastFour extracts the trailing four digits of a card identifier cell.
func LastFour(s string) string {
	m := lastFour.FindStringSubmatch(s)
	if m == nil {
		return ""
	}

	return m[1]
}
