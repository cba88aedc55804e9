package importer

import (
	"fmt"

	"github.com/MrJamesThe3rd/heshbon/internal/classifier"
	"github.com/MrJamesThe3rd/heshbon/internal/importer/bank"
	"github.com/MrJamesThe3rd/heshbon/internal/importer/credit"
	"github.com/MrJamesThe3rd/heshbon/internal/tabular"
	"github.com/MrJamesThe3rd/heshbon/internal/transaction"
)

type Service struct {
	creditParser Normalizer
	bankParser   Normalizer
}

func NewService() *Service {
	return &Service{
		creditParser: credit.NewParser(),
		bankParser:   bank.NewParser(),
	}
}

// Import parses sheet with the normalizer for its type.
func (s *Service) Import(fileName string, sheetType classifier.SheetType, sheet tabular.Sheet) ([]transaction.Transaction, error) {
	var normalizer Normalizer

	switch sheetType {
	case classifier.TypeCredit:
		normalizer = s.creditParser
	case classifier.TypeBank:
		normalizer = s.bankParser
	default:
		return nil, fmt.Errorf("unknown sheet type: %s", sheetType)
	}

	txs, err := normalizer.Parse(fileName, sheet)
	if err != nil {
		return nil, fmt.Errorf("parse %s statement: %w", sheetType, err)
	}

	return txs, nil
}
