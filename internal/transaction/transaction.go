package transaction

// Direction is the authoritative signed interpretation of an amount.
type Direction string

const (
	DirectionIncome  Direction = "income"
	DirectionExpense Direction = "expense"
)

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	return d == DirectionIncome || d == DirectionExpense
}

// Source is the statement family a transaction originated from.
type Source string

const (
	SourceCredit Source = "credit"
	SourceBank   Source = "bank"
)

// Kind classifies what a row represents economically.
type Kind string

const (
	KindRegular              Kind = "regular"
	KindCreditCharge         Kind = "credit_charge"
	KindCreditChargeCombined Kind = "credit_charge_combined"
	KindDebit                Kind = "debit"
	KindCash                 Kind = "cash"
	KindFee                  Kind = "fee"
)

// Transaction is one line item of economic activity from either a credit card
// statement or a bank statement.
//
// Amount is always a non-negative number of cents. The sign lives in Direction.
type Transaction struct {
	ID                    string    `json:"id"`
	Date                  string    `json:"date"`
	ChargeDate            string    `json:"chargeDate,omitempty"`
	Amount                int64     `json:"amount"`
	Direction             Direction `json:"direction"`
	DirectionDetected     Direction `json:"directionDetected"`
	UserAdjustedDirection bool      `json:"userAdjustedDirection,omitempty"`
	Description           string    `json:"description"`
	Category              string    `json:"category,omitempty"`
	Source                Source    `json:"source"`
	Kind                  Kind      `json:"transactionType"`

	CardLast4           string   `json:"cardLast4,omitempty"`
	MatchedCardLast4    string   `json:"matchedCardLast4,omitempty"`
	MatchedCardLast4All []string `json:"matchedCardLast4All,omitempty"`

	RelatedTransactionIDs []string `json:"relatedTransactionIds,omitempty"`
	MatchedCycleKeys      []string `json:"matchedCycleKeys,omitempty"`
	MatchedComboSize      int      `json:"matchedComboSize,omitempty"`

	Neutral bool `json:"neutral,omitempty"`

	// Provenance, used for diagnostics and id construction only.
	FileName  string `json:"fileName,omitempty"`
	SheetName string `json:"sheetName,omitempty"`
	RowIndex  int    `json:"rowIndex"`
	HeaderIdx int    `json:"headerIdx"`
}

// Clone returns a deep copy of t so passes can modify it without touching the input.
func (t Transaction) Clone() Transaction {
	c := t
	c.MatchedCardLast4All = cloneStrings(t.MatchedCardLast4All)
	c.RelatedTransactionIDs = cloneStrings(t.RelatedTransactionIDs)
	c.MatchedCycleKeys = cloneStrings(t.MatchedCycleKeys)

	return c
}

// CloneAll deep-copies a slice of transactions.
func CloneAll(txs []Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	for i, t := range txs {
		out[i] = t.Clone()
	}

	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}

	return append([]string(nil), s...)
}

// MatchStatus records how a billing cycle was reconciled against bank data.
type MatchStatus string

const (
	MatchFull    MatchStatus = "full"
	MatchMulti   MatchStatus = "multi"
	MatchGrouped MatchStatus = "grouped"
	MatchNone    MatchStatus = "none"
)

// CycleSummary aggregates the credit transactions collected in one issuer charge.
type CycleSummary struct {
	Key                string      `json:"key"`
	ChargeDate         string      `json:"chargeDate"`
	CardLast4          string      `json:"cardLast4,omitempty"`
	TotalExpenses      int64       `json:"totalExpenses"`
	TotalRefunds       int64       `json:"totalRefunds"`
	NetCharge          int64       `json:"netCharge"`
	TransactionIDs     []string    `json:"transactionIds"`
	BankMatchStatus    MatchStatus `json:"bankMatchStatus"`
	BankTransactionIDs []string    `json:"bankTransactionIds,omitempty"`
}

// CycleKey identifies a billing cycle as chargeDate::cardLast4.
func CycleKey(chargeDate, cardLast4 string) string {
	return chargeDate + "::" + cardLast4
}
