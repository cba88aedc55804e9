package export

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/MrJamesThe3rd/heshbon/internal/analysis"
	"github.com/MrJamesThe3rd/heshbon/internal/classifier"
	"github.com/MrJamesThe3rd/heshbon/internal/rules"
	"github.com/MrJamesThe3rd/heshbon/internal/transaction"
	"github.com/MrJamesThe3rd/heshbon/internal/workspace"
)

// Archive entry names.
const (
	TransactionsFile = "transactions.csv"
	CyclesFile       = "cycles.csv"
	SummaryFile      = "summary.txt"
)

// Service handles the export of analyzed transactions.
type Service struct {
	analysis *analysis.Service
}

// NewService creates a new export Service.
func NewService(svc *analysis.Service) *Service {
	return &Service{analysis: svc}
}

// Export analyzes ws without prompting; ambiguous sheets are left out and
// reported in the result's Pending list.
func (s *Service) Export(ctx context.Context, ws workspace.Workspace, repo rules.Repository) (*analysis.Result, error) {
	res, err := s.analysis.Analyze(ctx, ws, repo, classifier.NewDeferred())
	if err != nil {
		return nil, fmt.Errorf("analyzing workspace: %w", err)
	}

	return res, nil
}

type transactionRow struct {
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
	Direction   string `csv:"direction"`
	Category    string `csv:"category"`
	Type        string `csv:"transaction_type"`
	Source      string `csv:"source"`
	ChargeDate  string `csv:"charge_date"`
	Card        string `csv:"card_last4"`
	Counted     bool   `csv:"counted"`
	ID          string `csv:"id"`
}

type cycleRow struct {
	Key              string `csv:"key"`
	ChargeDate       string `csv:"charge_date"`
	Card             string `csv:"card_last4"`
	Transactions     int    `csv:"transactions"`
	TotalExpenses    string `csv:"total_expenses"`
	TotalRefunds     string `csv:"total_refunds"`
	NetCharge        string `csv:"net_charge"`
	Status           string `csv:"bank_match_status"`
	BankTransactions string `csv:"bank_transaction_ids"`
}

// WriteTransactions writes one CSV row per transaction. Amounts are signed
// decimals; counted is false for rows totals leave out.
func WriteTransactions(w io.Writer, txs []transaction.Transaction) error {
	rows := make([]transactionRow, 0, len(txs))

	for _, t := range txs {
		card := t.CardLast4
		if card == "" {
			card = t.MatchedCardLast4
		}

		rows = append(rows, transactionRow{
			Date:        t.Date,
			Description: t.Description,
			Amount:      money(transaction.SignedAmount(t)),
			Direction:   string(t.Direction),
			Category:    t.Category,
			Type:        string(t.Kind),
			Source:      string(t.Source),
			ChargeDate:  t.ChargeDate,
			Card:        card,
			Counted:     !transaction.ShouldSkip(t),
			ID:          t.ID,
		})
	}

	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("writing transactions csv: %w", err)
	}

	return nil
}

// WriteCycles writes one CSV row per billing cycle.
func WriteCycles(w io.Writer, cycles []transaction.CycleSummary) error {
	rows := make([]cycleRow, 0, len(cycles))

	for _, c := range cycles {
		rows = append(rows, cycleRow{
			Key:              c.Key,
			ChargeDate:       c.ChargeDate,
			Card:             c.CardLast4,
			Transactions:     len(c.TransactionIDs),
			TotalExpenses:    money(c.TotalExpenses),
			TotalRefunds:     money(c.TotalRefunds),
			NetCharge:        money(c.NetCharge),
			Status:           string(c.BankMatchStatus),
			BankTransactions: strings.Join(c.BankTransactionIDs, ";"),
		})
	}

	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("writing cycles csv: %w", err)
	}

	return nil
}

// Summary renders a plain text overview: totals, then one line per counted
// transaction.
func Summary(res *analysis.Result) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Income: %s ₪\nExpense: %s ₪\nNet: %s ₪\n",
		money(res.Totals.Income), money(res.Totals.Expense), money(res.Totals.Net))

	if n := len(res.Unmatched()); n > 0 {
		fmt.Fprintf(&sb, "Billing cycles without a bank charge: %d\n", n)
	}

	sb.WriteString("\n")

	for _, t := range res.Transactions {
		if transaction.ShouldSkip(t) {
			continue
		}

		sign := "-"
		if t.Direction == transaction.DirectionIncome {
			sign = "+"
		}

		category := t.Category
		if category == "" {
			category = "Uncategorized"
		}

		fmt.Fprintf(&sb, "* %s | %s | %s%s ₪ | %s\n", t.Date, t.Description, sign, money(t.Amount), category)
	}

	return sb.String()
}

// WriteArchive writes a zip holding the transactions CSV, the cycles CSV and
// the text summary.
func WriteArchive(w io.Writer, res *analysis.Result) error {
	zw := zip.NewWriter(w)

	entries := []struct {
		name  string
		write func(io.Writer) error
	}{
		{TransactionsFile, func(w io.Writer) error { return WriteTransactions(w, res.Transactions) }},
		{CyclesFile, func(w io.Writer) error { return WriteCycles(w, res.Cycles) }},
		{SummaryFile, func(w io.Writer) error {
			_, err := io.WriteString(w, Summary(res))
			return err
		}},
	}

	for _, e := range entries {
		f, err := zw.Create(e.name)
		if err != nil {
			return fmt.Errorf("creating %s: %w", e.name, err)
		}

		if err := e.write(f); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing archive: %w", err)
	}

	return nil
}

func money(cents int64) string {
	return transaction.FormatCents(cents)
}
