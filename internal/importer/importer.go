package importer

import (
	"github.com/MrJamesThe3rd/heshbon/internal/tabular"
	"github.com/MrJamesThe3rd/heshbon/internal/transaction"
)

// Normalizer converts one classified sheet into canonical transactions.
type Normalizer interface {
	Parse(fileName string, sheet tabular.Sheet) ([]transaction.Transaction, error)
}
