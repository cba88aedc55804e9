package reconcile

import (
	"cmp"
	"slices"
	"time"

	"github.com/MrJamesThe3rd/heshbon/internal/transaction"
)

// cycle is a billing cycle under reconciliation.
type cycle struct {
	summary transaction.CycleSummary
	date    time.Time
	dated   bool
	members []int // indices of the cycle's credit transactions
}

// matchable reports whether a bank debit can settle the cycle at all.
func (c *cycle) matchable() bool {
	return c.dated && c.summary.NetCharge > 0
}

// buildCycles groups credit transactions by chargeDate::cardLast4. Cycles are
// ordered by charge date, then key; undated cycles come last.
func buildCycles(txs []transaction.Transaction) []*cycle {
	byKey := map[string]*cycle{}

	var cycles []*cycle

	for i, t := range txs {
		if t.Source != transaction.SourceCredit {
			continue
		}

		key := transaction.CycleKey(t.ChargeDate, t.CardLast4)

		c, ok := byKey[key]
		if !ok {
			date, dated := transaction.ParseDate(t.ChargeDate)
			c = &cycle{
				summary: transaction.CycleSummary{
					Key:             key,
					ChargeDate:      t.ChargeDate,
					CardLast4:       t.CardLast4,
					BankMatchStatus: transaction.MatchNone,
				},
				date:  date,
				dated: dated,
			}
			byKey[key] = c
			cycles = append(cycles, c)
		}

		c.members = append(c.members, i)
		c.summary.TransactionIDs = append(c.summary.TransactionIDs, t.ID)

		if t.Neutral {
			continue
		}

		if t.Direction == transaction.DirectionIncome {
			c.summary.TotalRefunds += t.Amount
		} else {
			c.summary.TotalExpenses += t.Amount
		}
	}

	for _, c := range cycles {
		c.summary.NetCharge = c.summary.TotalExpenses - c.summary.TotalRefunds
	}

	slices.SortStableFunc(cycles, func(a, b *cycle) int {
		if a.dated != b.dated {
			if a.dated {
				return -1
			}

			return 1
		}

		if r := a.date.Compare(b.date); r != 0 {
			return r
		}

		return cmp.Compare(a.summary.Key, b.summary.Key)
	})

	return cycles
}
