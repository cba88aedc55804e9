package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/heshbon/internal/rules"
	"github.com/MrJamesThe3rd/heshbon/internal/transaction"
)

func sampleTransactions() []transaction.Transaction {
	return []transaction.Transaction{
		{ID: "c1", Date: "1/2/24", Amount: 12050, Direction: transaction.DirectionExpense, DirectionDetected: transaction.DirectionExpense, Description: "שופרסל דיל", Source: transaction.SourceCredit, Category: "Groceries"},
		{ID: "c2", Date: "3/2/24", Amount: 4500, Direction: transaction.DirectionExpense, DirectionDetected: transaction.DirectionExpense, Description: "WOLT TLV", Source: transaction.SourceCredit},
		{ID: "b1", Date: "7/3/24", Amount: 1250050, Direction: transaction.DirectionIncome, DirectionDetected: transaction.DirectionIncome, Description: "משכורת", Source: transaction.SourceBank},
		{ID: "b2", Date: "9/3/24", Amount: 690, Direction: transaction.DirectionExpense, DirectionDetected: transaction.DirectionExpense, Description: "עמלת פעולה", Source: transaction.SourceBank},
	}
}

func TestApplyAliases(t *testing.T) {
	type args struct {
		aliases      map[string]string
		descriptions map[string]string
	}

	type testCase struct {
		name string
		args args
		want []string
	}

	tests := []testCase{
		{
			name: "Category alias",
			args: args{aliases: map[string]string{"Groceries": "Food"}},
			want: []string{"Food", "", "", ""},
		},
		{
			name: "Alias chain",
			args: args{aliases: map[string]string{"Groceries": "Supermarket", "Supermarket": "Food"}},
			want: []string{"Food", "", "", ""},
		},
		{
			name: "Alias loop leaves category",
			args: args{aliases: map[string]string{"Groceries": "Food", "Food": "Groceries"}},
			want: []string{"Groceries", "", "", ""},
		},
		{
			name: "Description only fills uncategorized",
			args: args{descriptions: map[string]string{"WOLT TLV": "Eating out", "שופרסל דיל": "Other"}},
			want: []string{"Groceries", "Eating out", "", ""},
		},
		{
			name: "Description category is aliased too",
			args: args{
				aliases:      map[string]string{"Eating out": "Food"},
				descriptions: map[string]string{"WOLT TLV": "Eating out"},
			},
			want: []string{"Groceries", "Food", "", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleTransactions()
			got := rules.ApplyAliases(in, tt.args.aliases, tt.args.descriptions)

			assert.Equal(t, tt.want, categories(got))
			assert.Equal(t, sampleTransactions(), in)
			assert.Equal(t, got, rules.ApplyAliases(got, tt.args.aliases, tt.args.descriptions))
		})
	}
}

func TestApplyCategoryRules(t *testing.T) {
	type testCase struct {
		name  string
		rules []rules.Rule
		want  []string
	}

	tests := []testCase{
		{
			name: "Description equals matches exactly",
			rules: []rules.Rule{
				{ID: "1", Category: "Food", Conditions: rules.Conditions{DescriptionEquals: "WOLT TLV"}},
			},
			want: []string{"Groceries", "Food", "", ""},
		},
		{
			name: "Description equals is case and space sensitive",
			rules: []rules.Rule{
				{ID: "1", Category: "Food", Conditions: rules.Conditions{DescriptionEquals: " wolt tlv "}},
				{ID: "2", Category: "Food", Conditions: rules.Conditions{DescriptionEquals: "Wolt TLV"}},
			},
			want: []string{"Groceries", "", "", ""},
		},
		{
			name: "First match wins",
			rules: []rules.Rule{
				{ID: "1", Category: "Bank", Conditions: rules.Conditions{Source: transaction.SourceBank}},
				{ID: "2", Category: "Fees", Conditions: rules.Conditions{DescriptionRegex: "עמלת"}},
			},
			want: []string{"Groceries", "", "Bank", "Bank"},
		},
		{
			name: "Conditions are ANDed",
			rules: []rules.Rule{
				{ID: "1", Category: "Big", Conditions: rules.Conditions{Source: transaction.SourceCredit, AmountMin: new(100.0)}},
			},
			want: []string{"Big", "", "", ""},
		},
		{
			name: "Amount range is inclusive",
			rules: []rules.Rule{
				{ID: "1", Category: "Small", Conditions: rules.Conditions{AmountMin: new(6.90), AmountMax: new(45.0)}},
			},
			want: []string{"Groceries", "Small", "", "Small"},
		},
		{
			name: "Invalid regex never matches",
			rules: []rules.Rule{
				{ID: "1", Category: "Broken", Conditions: rules.Conditions{DescriptionRegex: "(unclosed"}},
				{ID: "2", Category: "Salary", Conditions: rules.Conditions{DescriptionRegex: "^משכ"}},
			},
			want: []string{"Groceries", "", "Salary", ""},
		},
		{
			name: "Rule without conditions never matches",
			rules: []rules.Rule{
				{ID: "1", Category: "All"},
			},
			want: []string{"Groceries", "", "", ""},
		},
		{
			name: "Disabled rule is skipped",
			rules: []rules.Rule{
				{ID: "1", Category: "Pinned", Disabled: true, Conditions: rules.Conditions{TransactionID: "b2"}},
			},
			want: []string{"Groceries", "", "", ""},
		},
		{
			name: "Transaction pin and direction",
			rules: []rules.Rule{
				{ID: "1", Category: "Pinned", Conditions: rules.Conditions{TransactionID: "b1", Direction: transaction.DirectionIncome}},
			},
			want: []string{"Groceries", "", "Pinned", ""},
		},
		{
			name: "Date range",
			rules: []rules.Rule{
				{ID: "1", Category: "March", Conditions: rules.Conditions{DateFrom: "2024-03-01", DateTo: "8/3/24"}},
			},
			want: []string{"Groceries", "", "March", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleTransactions()
			once := rules.ApplyCategoryRules(in, tt.rules)

			assert.Equal(t, tt.want, categories(once))
			assert.Equal(t, sampleTransactions(), in)
			assert.Equal(t, once, rules.ApplyCategoryRules(once, tt.rules))
		})
	}
}

func TestApplyDirectionOverrides(t *testing.T) {
	overrides := map[string]rules.DirectionOverride{
		"b2": {Direction: transaction.DirectionIncome, Note: "refund"},
		"c1": {Direction: "sideways"},
	}

	once := rules.ApplyDirectionOverrides(sampleTransactions(), overrides)
	twice := rules.ApplyDirectionOverrides(once, overrides)

	assert.Equal(t, once, twice)

	b2 := once[3]
	assert.Equal(t, transaction.DirectionIncome, b2.Direction)
	assert.Equal(t, transaction.DirectionExpense, b2.DirectionDetected)
	assert.True(t, b2.UserAdjustedDirection)

	assert.Equal(t, transaction.DirectionExpense, once[0].Direction)
	assert.False(t, once[0].UserAdjustedDirection)
}

func TestApply(t *testing.T) {
	rs := rules.New()
	rs.CategoryAliases["Groceries"] = "Food"
	rs.DescriptionCategories["WOLT TLV"] = "Eating out"
	rs.CategoryRules = []rules.Rule{
		{ID: "1", Category: "Refunds", Conditions: rules.Conditions{Direction: transaction.DirectionIncome, Source: transaction.SourceBank}},
	}
	rs.DirectionOverrides["b2"] = rules.DirectionOverride{Direction: transaction.DirectionIncome}

	once := rules.Apply(sampleTransactions(), rs)
	require.Len(t, once, 4)

	assert.Equal(t, []string{"Food", "Eating out", "Refunds", ""}, categories(once))
	assert.Equal(t, transaction.DirectionIncome, once[3].Direction)
	assert.Equal(t, once, rules.Apply(once, rs))
}

func categories(txs []transaction.Transaction) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.Category
	}

	return out
}
