// Package classifier decides whether a grid is a credit card statement or a bank
// account statement. Ambiguous sheets are never guessed: they go to a Resolver
// and the answer is remembered per file and sheet.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrJamesThe3rd/heshbon/internal/importer/field"
)

// SheetType is the statement family of a sheet.
type SheetType string

const (
	TypeBank    SheetType = "bank"
	TypeCredit  SheetType = "credit"
	TypeUnknown SheetType = "unknown"
)

// Valid reports whether t is a concrete, resolvable type.
func (t SheetType) Valid() bool {
	return t == TypeBank || t == TypeCredit
}

var (
	// ErrUserCancelled means the user declined to pick a type; the sheet is skipped.
	ErrUserCancelled = errors.New("sheet type selection cancelled")
	// ErrUnknownSheetType means no resolver could settle an ambiguous sheet.
	ErrUnknownSheetType = errors.New("sheet type unknown")
)

// maxScanRows bounds how far into a sheet the anchors are searched.
const maxScanRows = 30

var (
	chargeDatePhrases = []string{"תאריך חיוב", "מועד חיוב", "לחיוב", "charge date", "billing date"}
	merchantHeaders   = []string{"שם בית העסק", "שם בית עסק", "בית עסק", "שם העסק", "merchant", "merchant name"}
	debitHeaders      = []string{"חובה", "בחובה", "סכום חובה", "debit"}
	creditHeaders     = []string{"זכות", "בזכות", "סכום זכות", "credit"}
	balanceHeaders    = []string{"יתרה", "יתרה בש\"ח", "היתרה בש''ח", "יתרה לאחר פעולה", "יתרה משוערכת", "₪ יתרה", "balance"}
	referenceHeaders  = []string{"אסמכתא", "אסמכתה", "reference"}
)

// Detect inspects the first rows of a grid and returns its type, or TypeUnknown
// when both or neither family of anchors is found. It is a pure function of the
// header tokens.
func Detect(rows [][]string) SheetType {
	var credit, bank, chargePhrase, merchant bool

	for i, row := range rows {
		if i >= maxScanRows {
			break
		}

		keys := make(map[string]struct{}, len(row))
		joined := make([]string, 0, len(row))

		for _, cell := range row {
			c := field.Clean(cell)
			if c == "" {
				continue
			}

			keys[field.Key(c)] = struct{}{}
			joined = append(joined, strings.ToLower(c))
		}

		line := strings.Join(joined, " ")
		rowCharge := containsAny(line, chargeDatePhrases)
		rowMerchant := hasAny(keys, merchantHeaders)

		if rowCharge && rowMerchant {
			credit = true
		}

		chargePhrase = chargePhrase || rowCharge
		merchant = merchant || rowMerchant

		if (hasAny(keys, debitHeaders) && hasAny(keys, creditHeaders)) ||
			hasAny(keys, balanceHeaders) || hasAny(keys, referenceHeaders) {
			bank = true
		}
	}

	// The charge date often sits in a banner line above the merchant header.
	if chargePhrase && merchant {
		credit = true
	}

	switch {
	case credit && !bank:
		return TypeCredit
	case bank && !credit:
		return TypeBank
	}

	return TypeUnknown
}

func containsAny(line string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(line, strings.ToLower(p)) {
			return true
		}
	}

	return false
}

func hasAny(keys map[string]struct{}, headers []string) bool {
	for _, h := range headers {
		if _, ok := keys[field.Key(h)]; ok {
			return true
		}
	}

	return false
}

// Key identifies a sheet across runs.
type Key struct {
	FileName  string
	SheetName string
}

func (k Key) String() string {
	return k.FileName + "::" + k.SheetName
}

// Resolver asks someone (usually the user) to settle an ambiguous sheet.
// Implementations return ErrUserCancelled when the user declines.
//
//go:generate mockgen -source=classifier.go -destination=resolver_mock.go -package=classifier
type Resolver interface {
	ResolveSheetType(ctx context.Context, key Key, preview [][]string) (SheetType, error)
}

// Classifier combines detection with persisted overrides and a resolver.
type Classifier struct {
	overrides map[string]SheetType
	resolver  Resolver
	changed   bool
}

// New returns a Classifier seeded with previously persisted overrides, keyed by
// "fileName::sheetName". The map is copied.
func New(overrides map[string]SheetType, resolver Resolver) *Classifier {
	own := make(map[string]SheetType, len(overrides))
	for k, v := range overrides {
		own[k] = v
	}

	return &Classifier{overrides: own, resolver: resolver}
}

// previewRows is how many rows a resolver is shown.
const previewRows = 8

// Classify returns the type of a sheet. A recorded override wins over detection,
// so a user's explicit choice is never second-guessed. Otherwise detection runs,
// and an unknown result escalates to the resolver; the answer is recorded.
func (c *Classifier) Classify(ctx context.Context, key Key, rows [][]string) (SheetType, error) {
	if t, ok := c.overrides[key.String()]; ok && t.Valid() {
		return t, nil
	}

	if t := Detect(rows); t != TypeUnknown {
		return t, nil
	}

	if c.resolver == nil {
		return TypeUnknown, fmt.Errorf("%s: %w", key, ErrUnknownSheetType)
	}

	t, err := c.resolver.ResolveSheetType(ctx, key, rows[:min(len(rows), previewRows)])
	if err != nil {
		return TypeUnknown, fmt.Errorf("%s: %w", key, err)
	}

	if !t.Valid() {
		return TypeUnknown, fmt.Errorf("%s: %w", key, ErrUnknownSheetType)
	}

	c.overrides[key.String()] = t
	c.changed = true

	return t, nil
}

// Overrides returns a copy of the override map including new resolutions.
func (c *Classifier) Overrides() map[string]SheetType {
	out := make(map[string]SheetType, len(c.overrides))
	for k, v := range c.overrides {
		out[k] = v
	}

	return out
}

// Changed reports whether any resolution was recorded and should be persisted.
func (c *Classifier) Changed() bool {
	return c.changed
}
