// Package credit parses credit card statement grids into transactions.
package credit

import (
	"errors"
	"regexp"
	"strings"

	"github.com/MrJamesThe3rd/heshbon/internal/importer/field"
	"github.com/MrJamesThe3rd/heshbon/internal/tabular"
	"github.com/MrJamesThe3rd/heshbon/internal/transaction"
)

// ErrNoHeader is returned when no known dialect header is found in a sheet.
var ErrNoHeader = errors.New("no credit statement header found")

// maxHeaderRow bounds the header search.
const maxHeaderRow = 40

var (
	chargeDateLine = regexp.MustCompile(`(?i)(?:תאריך חיוב|מועד חיוב|לחיוב|charge date)\D{0,20}?(\d{1,2}[./-]\d{1,2}[./-]\d{2,4})`)
	cardEndingLine = regexp.MustCompile(`(?i)(?:המסתיים ב|מסתיים ב|ending in)\s*-?\s*(\d{4})`)
)

// Parser reads credit card statement grids. The same grid yields the same
// transactions, ids included, whether it came from a workbook or a CSV file.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse converts one sheet of fileName into credit transactions.
func (p *Parser) Parse(fileName string, sheet tabular.Sheet) ([]transaction.Transaction, error) {
	cols, headerIdx, ok := detectHeader(sheet.Rows)
	if !ok {
		return nil, ErrNoHeader
	}

	chargeDate, card := scanBanner(sheet.Rows[:headerIdx])

	var txs []transaction.Transaction

	for i := headerIdx + 1; i < len(sheet.Rows); i++ {
		tx, ok := parseRow(cols, sheet.Rows[i])
		if !ok {
			continue
		}

		if tx.ChargeDate == "" {
			tx.ChargeDate = chargeDate
		}

		if tx.CardLast4 == "" {
			tx.CardLast4 = card
		}

		tx.FileName = fileName
		tx.SheetName = sheet.Name
		tx.RowIndex = i
		tx.HeaderIdx = headerIdx

		txs = append(txs, tx)
	}

	transaction.UniqueIDs(txs)

	return txs, nil
}

// detectHeader returns the first row that resolves against a dialect.
func detectHeader(rows [][]string) (columns, int, bool) {
	for i, row := range rows {
		if i >= maxHeaderRow {
			break
		}

		for d := range dialects {
			if cols, ok := dialects[d].resolve(row); ok {
				return cols, i, true
			}
		}
	}

	return columns{}, 0, false
}

// scanBanner extracts the fallback charge date and card digits printed in the
// free text above the header.
func scanBanner(rows [][]string) (chargeDate, card string) {
	for _, row := range rows {
		line := make([]string, 0, len(row))
		for _, cell := range row {
			if c := field.Clean(cell); c != "" {
				line = append(line, c)
			}
		}

		text := strings.Join(line, " ")

		if chargeDate == "" {
			if m := chargeDateLine.FindStringSubmatch(text); m != nil {
				chargeDate = canonicalDate(m[1])
			}
		}

		if card == "" {
			if m := cardEndingLine.FindStringSubmatch(text); m != nil {
				card = m[1]
			}
		}
	}

	return chargeDate, card
}

// parseRow reports false for rows that are not transactions: subtotals,
// section titles, blank lines.
func parseRow(cols columns, row []string) (transaction.Transaction, bool) {
	date := canonicalDate(field.Cell(row, cols.date))
	desc := field.Cell(row, cols.description)
	rawAmount := field.Cell(row, cols.amount)

	if date == "" || desc == "" || rawAmount == "" {
		return transaction.Transaction{}, false
	}

	amount, ok := field.ParseCreditAmount(rawAmount)
	if !ok {
		return transaction.Transaction{}, false
	}

	direction := transaction.DirectionExpense
	if amount.IsNegative() {
		direction = transaction.DirectionIncome
	}

	cents := field.ToCents(amount.Abs())

	return transaction.Transaction{
		ID:                transaction.CreditID(date, amount, desc),
		Date:              date,
		ChargeDate:        canonicalDate(field.Cell(row, cols.chargeDate)),
		Amount:            cents,
		Direction:         direction,
		DirectionDetected: direction,
		Description:       desc,
		Category:          field.Cell(row, cols.category),
		Source:            transaction.SourceCredit,
		Kind:              transaction.KindRegular,
		CardLast4:         field.LastFour(field.Cell(row, cols.card)),
		Neutral:           cents == 0,
	}, true
}

// canonicalDate normalizes a raw date cell and renders it as D/M/YY, so a
// workbook serial and the same date typed in a CSV agree. Cells that are not
// real dates yield "".
func canonicalDate(raw string) string {
	t, ok := transaction.ParseDate(field.NormalizeDate(raw))
	if !ok {
		return ""
	}

	return transaction.FormatDate(t)
}
