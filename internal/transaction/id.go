package transaction

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// CreditID builds the id of a credit statement row from its date, its signed raw
// amount and its description. The raw sign keeps an expense and its refund apart.
func CreditID(date string, rawAmount decimal.Decimal, description string) string {
	return fmt.Sprintf("%s-%s-%s", date, rawAmount.String(), description)
}

// BankID builds the id of a bank statement row. It is the dedup key the
// reconciliation engine uses to recognize the same row across reruns.
func BankID(fileName, sheetName string, rowIndex int, date string, cents int64, description string) string {
	parts := []string{string(SourceBank), fileName}
	if sheetName != "" {
		parts = append(parts, sheetName)
	}

	parts = append(parts,
		strconv.Itoa(rowIndex),
		date,
		FormatCents(cents),
		strings.ToLower(strings.TrimSpace(description)),
	)

	return strings.Join(parts, "|")
}

// FormatCents renders cents with two decimals, e.g. 150000 -> "1500.00".
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// UniqueIDs suffixes repeated ids within one sheet with #2, #3... in row order,
// so two identical purchases on the same day stay distinct and stable.
func UniqueIDs(txs []Transaction) {
	seen := make(map[string]int, len(txs))

	for i := range txs {
		id := txs[i].ID

		seen[id]++
		if n := seen[id]; n > 1 {
			txs[i].ID = fmt.Sprintf("%s#%d", id, n)
		}
	}
}

// Dedupe drops a transaction when one with the same source, billing cycle and
// id was already seen, keeping the first. It collapses overlapping exports of
// the same statement across files. The same purchase billed in another cycle,
// such as an installment repeated on every monthly statement or a purchase on
// a second card, is a distinct event and is kept.
func Dedupe(txs []Transaction) []Transaction {
	type key struct {
		source     Source
		chargeDate string
		card       string
		id         string
	}

	seen := make(map[key]struct{}, len(txs))
	out := make([]Transaction, 0, len(txs))

	for _, t := range txs {
		k := key{source: t.Source, chargeDate: t.ChargeDate, card: t.CardLast4, id: t.ID}
		if _, ok := seen[k]; ok {
			continue
		}

		seen[k] = struct{}{}
		out = append(out, t)
	}

	return out
}
