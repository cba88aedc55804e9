package importer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/heshbon/internal/classifier"
	"github.com/MrJamesThe3rd/heshbon/internal/importer"
	"github.com/MrJamesThe3rd/heshbon/internal/importer/bank"
	"github.com/MrJamesThe3rd/heshbon/internal/tabular"
	"github.com/MrJamesThe3rd/heshbon/internal/transaction"
)

func TestService_Import(t *testing.T) {
	type args struct {
		sheetType classifier.SheetType
		rows      [][]string
	}

	type testCase struct {
		name       string
		args       args
		wantSource transaction.Source
		wantErr    error
	}

	tests := []testCase{
		{
			name: "Credit",
			args: args{
				sheetType: classifier.TypeCredit,
				rows: [][]string{
					{"תאריך עסקה", "שם בית העסק", "סכום חיוב"},
					{"01/02/2024", "קפה", "12"},
				},
			},
			wantSource: transaction.SourceCredit,
		},
		{
			name: "Bank",
			args: args{
				sheetType: classifier.TypeBank,
				rows: [][]string{
					{"תאריך", "תיאור", "חובה", "זכות"},
					{"01/02/2024", "ארנונה", "300", ""},
				},
			},
			wantSource: transaction.SourceBank,
		},
		{
			name: "Bank layout without header",
			args: args{
				sheetType: classifier.TypeBank,
				rows:      [][]string{{"x"}},
			},
			wantErr: bank.ErrNoHeader,
		},
	}

	svc := importer.NewService()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs, err := svc.Import("f.csv", tt.args.sheetType, tabular.Sheet{Rows: tt.args.rows})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.Len(t, txs, 1)
			assert.Equal(t, tt.wantSource, txs[0].Source)
		})
	}
}

func TestService_Import_UnknownType(t *testing.T) {
	_, err := importer.NewService().Import("f.csv", classifier.TypeUnknown, tabular.Sheet{})
	assert.Error(t, err)
}
