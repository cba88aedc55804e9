// Package rules holds the user's persisted classification state and the pure
// passes that apply it to a transaction list.
package rules

import (
	"errors"
	"maps"
	"slices"
	"time"

	"github.com/MrJamesThe3rd/heshbon/internal/classifier"
	"github.com/MrJamesThe3rd/heshbon/internal/transaction"
)

var (
	ErrRuleNotFound     = errors.New("category rule not found")
	ErrInvalidRule      = errors.New("invalid category rule")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrInvalidSheetType = errors.New("invalid sheet type")
)

// Category is a user-defined category with its presentation hints.
type Category struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

// Origin records who created a rule.
type Origin string

const (
	OriginUser      Origin = "user"
	OriginMigration Origin = "migration"
)

// Conditions of one rule. Every condition that is set must hold; a rule with
// no conditions never matches.
type Conditions struct {
	DescriptionEquals string                `json:"descriptionEquals,omitempty"`
	DescriptionRegex  string                `json:"descriptionRegex,omitempty"`
	TransactionID     string                `json:"transactionId,omitempty"`
	AmountMin         *float64              `json:"amountMin,omitempty"`
	AmountMax         *float64              `json:"amountMax,omitempty"`
	Source            transaction.Source    `json:"source,omitempty"`
	Direction         transaction.Direction `json:"direction,omitempty"`
	DateFrom          string                `json:"dateFrom,omitempty"`
	DateTo            string                `json:"dateTo,omitempty"`
}

// Empty reports whether no condition is set.
func (c Conditions) Empty() bool {
	return c.DescriptionEquals == "" && c.DescriptionRegex == "" && c.TransactionID == "" &&
		c.AmountMin == nil && c.AmountMax == nil && c.Source == "" && c.Direction == "" &&
		c.DateFrom == "" && c.DateTo == ""
}

// Rule assigns Category to transactions matching Conditions.
type Rule struct {
	ID         string     `json:"id"`
	Name       string     `json:"name,omitempty"`
	Category   string     `json:"category"`
	Conditions Conditions `json:"conditions"`
	Disabled   bool       `json:"disabled,omitempty"`
	Origin     Origin     `json:"source"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// DirectionOverride is a user-forced direction for one transaction id.
type DirectionOverride struct {
	Direction transaction.Direction `json:"direction"`
	Note      string                `json:"note,omitempty"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

// RuleSet is everything the user has taught the system for one workspace.
// CategoryRules are evaluated front to back; their order is significant and
// user-controlled.
type RuleSet struct {
	Categories            []Category                      `json:"categories"`
	CategoryAliases       map[string]string               `json:"categoryAliases"`
	DescriptionCategories map[string]string               `json:"descriptionCategories"`
	CategoryRules         []Rule                          `json:"categoryRules"`
	DirectionOverrides    map[string]DirectionOverride    `json:"directionOverrides"`
	SheetTypes            map[string]classifier.SheetType `json:"sheetTypes"`
}

// New returns an empty RuleSet with initialized maps.
func New() *RuleSet {
	rs := &RuleSet{}
	rs.init()

	return rs
}

func (rs *RuleSet) init() {
	if rs.CategoryAliases == nil {
		rs.CategoryAliases = map[string]string{}
	}

	if rs.DescriptionCategories == nil {
		rs.DescriptionCategories = map[string]string{}
	}

	if rs.DirectionOverrides == nil {
		rs.DirectionOverrides = map[string]DirectionOverride{}
	}

	if rs.SheetTypes == nil {
		rs.SheetTypes = map[string]classifier.SheetType{}
	}
}

// Clone returns a deep copy of rs.
func (rs *RuleSet) Clone() *RuleSet {
	c := &RuleSet{
		Categories:            slices.Clone(rs.Categories),
		CategoryAliases:       maps.Clone(rs.CategoryAliases),
		DescriptionCategories: maps.Clone(rs.DescriptionCategories),
		CategoryRules:         make([]Rule, len(rs.CategoryRules)),
		DirectionOverrides:    maps.Clone(rs.DirectionOverrides),
		SheetTypes:            maps.Clone(rs.SheetTypes),
	}

	for i, r := range rs.CategoryRules {
		r.Conditions.AmountMin = cloneFloat(r.Conditions.AmountMin)
		r.Conditions.AmountMax = cloneFloat(r.Conditions.AmountMax)
		c.CategoryRules[i] = r
	}

	c.init()

	return c
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}

	return new(*f)
}
