// Package bank parses bank account statement grids into transactions.
package bank

import (
	"errors"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/heshbon/internal/importer/field"
	"github.com/MrJamesThe3rd/heshbon/internal/tabular"
	"github.com/MrJamesThe3rd/heshbon/internal/transaction"
)

// ErrNoHeader is returned when a sheet has no recognizable bank header.
var ErrNoHeader = errors.New("no bank statement header found")

const maxHeaderRow = 40

// Parser reads bank account statement grids.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse converts one sheet of fileName into bank transactions. Rows without a
// date, a description or any amount are skipped.
func (p *Parser) Parse(fileName string, sheet tabular.Sheet) ([]transaction.Transaction, error) {
	cols, headerIdx, ok := detectHeader(sheet.Rows)
	if !ok {
		return nil, ErrNoHeader
	}

	var txs []transaction.Transaction

	for i := headerIdx + 1; i < len(sheet.Rows); i++ {
		row := sheet.Rows[i]

		t, ok := transaction.ParseDate(field.NormalizeDate(field.Cell(row, cols.date)))
		if !ok {
			continue
		}

		desc := description(row, cols.description)
		if desc == "" {
			continue
		}

		cents, direction, ok := resolveAmount(cols, row)
		if !ok {
			continue
		}

		date := transaction.FormatDate(t)
		kind := detectKind(desc, direction)

		tx := transaction.Transaction{
			ID:                transaction.BankID(fileName, sheet.Name, i, date, cents, desc),
			Date:              date,
			Amount:            cents,
			Direction:         direction,
			DirectionDetected: direction,
			Description:       desc,
			Source:            transaction.SourceBank,
			Kind:              kind,
			Neutral:           cents == 0,
			FileName:          fileName,
			SheetName:         sheet.Name,
			RowIndex:          i,
			HeaderIdx:         headerIdx,
		}

		if kind == transaction.KindCreditCharge {
			tx.CardLast4 = cardFromDescription(desc)
		}

		txs = append(txs, tx)
	}

	transaction.UniqueIDs(txs)

	return txs, nil
}

func detectHeader(rows [][]string) (columns, int, bool) {
	for i, row := range rows {
		if i >= maxHeaderRow {
			break
		}

		if cols, ok := resolve(row); ok {
			return cols, i, true
		}
	}

	return columns{}, 0, false
}

// description joins the non-empty description parts with " - ", dropping
// parts identical to one already taken.
func description(row []string, idx []int) string {
	parts := make([]string, 0, len(idx))

	for _, i := range idx {
		v := field.Cell(row, i)
		if v == "" || slices.Contains(parts, v) {
			continue
		}

		parts = append(parts, v)
	}

	return strings.Join(parts, " - ")
}

// resolveAmount decides the magnitude and direction of a row.
//
// With debit/credit columns, a positive debit is an expense and a positive
// credit is income; when both are positive the larger wins. Otherwise the
// signed amount column decides, negative meaning expense. ok is false when
// the row carries no number at all.
func resolveAmount(cols columns, row []string) (int64, transaction.Direction, bool) {
	var found bool

	parse := func(idx int) decimal.Decimal {
		if idx < 0 {
			return decimal.Zero
		}

		d, ok := field.ParseBankAmount(field.Cell(row, idx))
		if ok {
			found = true
		}

		return d
	}

	if cols.hasSplit() {
		debit, credit := parse(cols.debit), parse(cols.credit)

		switch {
		case debit.IsPositive() && !credit.IsPositive():
			return field.ToCents(debit), transaction.DirectionExpense, true
		case credit.IsPositive() && !debit.IsPositive():
			return field.ToCents(credit), transaction.DirectionIncome, true
		case debit.IsPositive() && credit.IsPositive():
			if debit.GreaterThanOrEqual(credit) {
				return field.ToCents(debit), transaction.DirectionExpense, true
			}

			return field.ToCents(credit), transaction.DirectionIncome, true
		}

		// Some exports print debits as negative numbers in the debit column.
		if debit.IsNegative() {
			return field.ToCents(debit.Abs()), transaction.DirectionExpense, true
		}
	}

	amount := parse(cols.amount)
	if !found {
		return 0, "", false
	}

	if amount.IsNegative() {
		return field.ToCents(amount.Abs()), transaction.DirectionExpense, true
	}

	if amount.IsZero() {
		return 0, transaction.DirectionExpense, true
	}

	return field.ToCents(amount), transaction.DirectionIncome, true
}
