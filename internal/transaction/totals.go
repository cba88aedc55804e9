package transaction

// SignedAmount returns the amount in cents with its sign restored:
// positive for income, negative for expense.
func SignedAmount(t Transaction) int64 {
	if t.Direction == DirectionIncome {
		return t.Amount
	}

	return -t.Amount
}

// ShouldSkip reports whether t must be left out of totals to avoid double counting.
//
// A credit_charge bank row is skipped only when it carries a breakdown, since the
// itemized credit rows are counted instead. Combined charges and neutral rows are
// always skipped.
func ShouldSkip(t Transaction) bool {
	if t.Neutral {
		return true
	}

	switch t.Kind {
	case KindCreditChargeCombined:
		return true
	case KindCreditCharge:
		return len(t.RelatedTransactionIDs) > 0
	}

	return false
}

// Summary holds aggregated totals in cents.
type Summary struct {
	Income  int64 `json:"income"`
	Expense int64 `json:"expense"`
	Net     int64 `json:"net"`
}

// Totals sums every transaction that is not skipped by ShouldSkip.
func Totals(txs []Transaction) Summary {
	var s Summary

	for _, t := range txs {
		if ShouldSkip(t) {
			continue
		}

		if t.Direction == DirectionIncome {
			s.Income += t.Amount
		} else {
			s.Expense += t.Amount
		}

		s.Net += SignedAmount(t)
	}

	return s
}
