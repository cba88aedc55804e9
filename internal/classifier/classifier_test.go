package classifier_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/heshbon/internal/classifier"
)

var (
	creditRows = [][]string{
		{"פירוט עסקאות לכרטיס המסתיים ב-1234"},
		{"תאריך חיוב: 10/03/2024"},
		{},
		{"תאריך עסקה", "שם בית העסק", "סכום עסקה", "סכום חיוב"},
		{"01/02/2024", "שופרסל", "120.50", "120.50"},
	}
	bankRows = [][]string{
		{"תאריך", "תיאור הפעולה", "אסמכתא", "חובה", "זכות", "יתרה בש\"ח"},
		{"06/03/2024", "ישראכרט", "1234", "2,300.00", "", "10,000.00"},
	}
	ambiguousRows = [][]string{
		{"date", "text", "value"},
		{"1/1/24", "x", "3"},
	}
)

func TestDetect(t *testing.T) {
	type testCase struct {
		name string
		rows [][]string
		want classifier.SheetType
	}

	tests := []testCase{
		{name: "Credit with banner charge date", rows: creditRows, want: classifier.TypeCredit},
		{
			name: "Credit Poalim newline headers",
			rows: [][]string{{"תאריך\nעסקה", "שם בית\nהעסק", "תאריך\nחיוב", "סכום\nהחיוב"}},
			want: classifier.TypeCredit,
		},
		{name: "Bank", rows: bankRows, want: classifier.TypeBank},
		{name: "Bank by debit and credit only", rows: [][]string{{"Date", "Description", "Debit", "Credit"}}, want: classifier.TypeBank},
		{name: "Neither", rows: ambiguousRows, want: classifier.TypeUnknown},
		{
			name: "Both",
			rows: [][]string{{"תאריך חיוב", "שם בית העסק", "יתרה"}},
			want: classifier.TypeUnknown,
		},
		{name: "Empty", rows: nil, want: classifier.TypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifier.Detect(tt.rows)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, classifier.Detect(tt.rows))
		})
	}
}

func TestDetect_OnlyScansLeadingRows(t *testing.T) {
	rows := make([][]string, 40)
	rows[35] = []string{"תאריך", "תיאור", "אסמכתא"}

	assert.Equal(t, classifier.TypeUnknown, classifier.Detect(rows))
}

func TestClassifier_Classify(t *testing.T) {
	ctx := context.Background()
	key := classifier.Key{FileName: "mixed.xlsx", SheetName: "Sheet1"}

	t.Run("Detected without prompting", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		resolver := classifier.NewMockResolver(ctrl)

		c := classifier.New(nil, resolver)
		got, err := c.Classify(ctx, key, bankRows)

		require.NoError(t, err)
		assert.Equal(t, classifier.TypeBank, got)
		assert.False(t, c.Changed())
	})

	t.Run("Override wins over detection", func(t *testing.T) {
		c := classifier.New(map[string]classifier.SheetType{key.String(): classifier.TypeCredit}, nil)

		got, err := c.Classify(ctx, key, bankRows)
		require.NoError(t, err)
		assert.Equal(t, classifier.TypeCredit, got)
	})

	t.Run("Ambiguous is resolved once and recorded", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		resolver := classifier.NewMockResolver(ctrl)
		resolver.EXPECT().
			ResolveSheetType(gomock.Any(), key, ambiguousRows).
			Return(classifier.TypeBank, nil).
			Times(1)

		c := classifier.New(nil, resolver)

		for range 3 {
			got, err := c.Classify(ctx, key, ambiguousRows)
			require.NoError(t, err)
			assert.Equal(t, classifier.TypeBank, got)
		}

		assert.True(t, c.Changed())
		assert.Equal(t, map[string]classifier.SheetType{"mixed.xlsx::Sheet1": classifier.TypeBank}, c.Overrides())
	})

	t.Run("Cancellation is distinguishable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		resolver := classifier.NewMockResolver(ctrl)
		resolver.EXPECT().
			ResolveSheetType(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(classifier.TypeUnknown, classifier.ErrUserCancelled)

		c := classifier.New(nil, resolver)
		_, err := c.Classify(ctx, key, ambiguousRows)

		assert.True(t, errors.Is(err, classifier.ErrUserCancelled))
		assert.False(t, c.Changed())
	})

	t.Run("No resolver", func(t *testing.T) {
		c := classifier.New(nil, nil)
		_, err := c.Classify(ctx, key, ambiguousRows)

		assert.ErrorIs(t, err, classifier.ErrUnknownSheetType)
	})

	t.Run("Invalid answer", func(t *testing.T) {
		c := classifier.New(nil, classifier.Static("pdf"))
		_, err := c.Classify(ctx, key, ambiguousRows)

		assert.ErrorIs(t, err, classifier.ErrUserCancelled)
	})
}

func TestDeferred(t *testing.T) {
	d := classifier.NewDeferred()
	c := classifier.New(nil, d)

	_, err := c.Classify(context.Background(), classifier.Key{FileName: "a.csv"}, ambiguousRows)
	require.ErrorIs(t, err, classifier.ErrUserCancelled)

	pending := d.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "a.csv::", pending[0].Key)
	assert.Equal(t, ambiguousRows, pending[0].Preview)
}
