package export_test

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/heshbon/internal/analysis"
	"github.com/MrJamesThe3rd/heshbon/internal/export"
	"github.com/MrJamesThe3rd/heshbon/internal/reconcile"
	"github.com/MrJamesThe3rd/heshbon/internal/rules/store"
	"github.com/MrJamesThe3rd/heshbon/internal/transaction"
	"github.com/MrJamesThe3rd/heshbon/internal/workspace"
)

const card = `לכרטיס המסתיים ב-1234
תאריך חיוב: 10/03/2024
תאריך עסקה,שם בית העסק,סכום חיוב
01/03/2024,סופר,100
02/03/2024,מסעדה,50.5
`

const bank = `תאריך,תיאור,אסמכתא,בחובה,בזכות
11/03/2024,כאל,1,150.50,
12/03/2024,משכורת,2,,5000
`

func analyzed(t *testing.T) *analysis.Result {
	t.Helper()

	ws := workspace.NewMemory()
	ws.Add("card.csv", []byte(card))
	ws.Add("bank.csv", []byte(bank))
	ws.Add("unknown.csv", []byte("x,y\n1,2\n"))

	svc := export.NewService(analysis.NewService(reconcile.DefaultOptions(), nil))

	res, err := svc.Export(context.Background(), ws, store.NewSidecar(ws))
	require.NoError(t, err)

	return res
}

func TestExportService_Export(t *testing.T) {
	res := analyzed(t)

	assert.Len(t, res.Transactions, 4)
	require.Len(t, res.Cycles, 1)
	assert.Equal(t, transaction.MatchFull, res.Cycles[0].BankMatchStatus)
	require.Len(t, res.Pending, 1)
	assert.Equal(t, "unknown.csv::", res.Pending[0].Key)
}

func TestWriteTransactions(t *testing.T) {
	txs := []transaction.Transaction{
		{
			ID: "a", Date: "1/3/24", Description: "סופר, סניף", Amount: 10000,
			Direction: transaction.DirectionExpense, Source: transaction.SourceCredit, Kind: transaction.KindRegular,
			Category: "Food", ChargeDate: "10/3/24", CardLast4: "1234",
		},
		{
			ID: "b", Date: "11/3/24", Description: "כאל", Amount: 15050,
			Direction: transaction.DirectionExpense, Source: transaction.SourceBank, Kind: transaction.KindCreditCharge,
			MatchedCardLast4: "1234", RelatedTransactionIDs: []string{"a"},
		},
		{
			ID: "c", Date: "12/3/24", Description: "משכורת", Amount: 500000,
			Direction: transaction.DirectionIncome, Source: transaction.SourceBank, Kind: transaction.KindRegular,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, export.WriteTransactions(&buf, txs))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)

	assert.Equal(t, "date,description,amount,direction,category,transaction_type,source,charge_date,card_last4,counted,id", lines[0])
	assert.Equal(t, `1/3/24,"סופר, סניף",-100.00,expense,Food,regular,credit,10/3/24,1234,true,a`, lines[1])
	assert.Equal(t, "11/3/24,כאל,-150.50,expense,,credit_charge,bank,,1234,false,b", lines[2])
	assert.Equal(t, "12/3/24,משכורת,5000.00,income,,regular,bank,,,true,c", lines[3])
}

func TestWriteCycles(t *testing.T) {
	cycles := []transaction.CycleSummary{{
		Key:                "10/3/24::1234",
		ChargeDate:         "10/3/24",
		CardLast4:          "1234",
		TotalExpenses:      16050,
		TotalRefunds:       1000,
		NetCharge:          15050,
		TransactionIDs:     []string{"a", "b", "c"},
		BankMatchStatus:    transaction.MatchMulti,
		BankTransactionIDs: []string{"x", "y"},
	}}

	var buf bytes.Buffer
	require.NoError(t, export.WriteCycles(&buf, cycles))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "key,charge_date,card_last4,transactions,total_expenses,total_refunds,net_charge,bank_match_status,bank_transaction_ids", lines[0])
	assert.Equal(t, "10/3/24::1234,10/3/24,1234,3,160.50,10.00,150.50,multi,x;y", lines[1])
}

func TestSummary(t *testing.T) {
	body := export.Summary(analyzed(t))

	assert.Contains(t, body, "Income: 5000.00 ₪")
	assert.Contains(t, body, "Expense: 150.50 ₪")
	assert.Contains(t, body, "Net: 4849.50 ₪")
	assert.Contains(t, body, "* 1/3/24 | סופר | -100.00 ₪ | Uncategorized")
	assert.Contains(t, body, "* 12/3/24 | משכורת | +5000.00 ₪ | Uncategorized")
	assert.NotContains(t, body, "כאל")
	assert.NotContains(t, body, "without a bank charge")
}

func TestWriteArchive(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteArchive(&buf, analyzed(t)))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	contents := map[string]string{}

	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()

		contents[f.Name] = string(data)
	}

	require.Len(t, contents, 3)
	assert.Contains(t, contents[export.TransactionsFile], "משכורת")
	assert.Contains(t, contents[export.CyclesFile], "10/3/24::1234")
	assert.Contains(t, contents[export.SummaryFile], "Net: 4849.50 ₪")
}
