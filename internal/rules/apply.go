package rules

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/heshbon/internal/transaction"
)

// Apply runs the passes in pipeline order: aliases, category rules, direction
// overrides. The input is never modified.
func Apply(txs []transaction.Transaction, rs *RuleSet) []transaction.Transaction {
	out := ApplyAliases(txs, rs.CategoryAliases, rs.DescriptionCategories)
	out = ApplyCategoryRules(out, rs.CategoryRules)

	return ApplyDirectionOverrides(out, rs.DirectionOverrides)
}

// ApplyAliases rewrites aliased categories to their canonical name, and gives
// uncategorized transactions the category mapped to their description.
// Alias chains are followed; a chain that loops leaves the category as is.
func ApplyAliases(txs []transaction.Transaction, aliases, descriptions map[string]string) []transaction.Transaction {
	out := transaction.CloneAll(txs)

	for i := range out {
		t := &out[i]

		if t.Category == "" {
			if c, ok := descriptions[t.Description]; ok {
				t.Category = c
			} else if c, ok := descriptions[strings.TrimSpace(t.Description)]; ok {
				t.Category = c
			}
		}

		if t.Category != "" {
			t.Category = resolveAlias(t.Category, aliases)
		}
	}

	return out
}

func resolveAlias(category string, aliases map[string]string) string {
	seen := map[string]bool{category: true}
	cur := category

	for {
		next, ok := aliases[cur]
		if !ok || next == "" || next == cur {
			return cur
		}

		if seen[next] {
			return category
		}

		seen[next] = true
		cur = next
	}
}

// ApplyCategoryRules gives each transaction the category of the first enabled
// rule that matches it. Invalid regular expressions never match.
//
// Direction conditions are tested against the detected direction, so a user
// override applied later cannot change which rule matches on a rerun.
func ApplyCategoryRules(txs []transaction.Transaction, rules []Rule) []transaction.Transaction {
	out := transaction.CloneAll(txs)
	compiled := compile(rules)

	for i := range out {
		t := &out[i]

		for _, m := range compiled {
			if !m.matches(t) {
				continue
			}

			if t.Category != m.rule.Category {
				t.Category = m.rule.Category
			}

			break
		}
	}

	return out
}

// ApplyDirectionOverrides forces the direction of overridden transactions.
// The detected direction is kept the first time a transaction is adjusted.
func ApplyDirectionOverrides(txs []transaction.Transaction, overrides map[string]DirectionOverride) []transaction.Transaction {
	out := transaction.CloneAll(txs)

	for i := range out {
		t := &out[i]

		o, ok := overrides[t.ID]
		if !ok || !o.Direction.Valid() {
			continue
		}

		if !t.UserAdjustedDirection {
			t.DirectionDetected = t.Direction
		}

		t.Direction = o.Direction
		t.UserAdjustedDirection = true
	}

	return out
}

type matcher struct {
	rule     Rule
	re       *regexp.Regexp
	badRegex bool
	minCents *int64
	maxCents *int64
}

func compile(rules []Rule) []matcher {
	out := make([]matcher, 0, len(rules))

	for _, r := range rules {
		if r.Disabled || r.Category == "" || r.Conditions.Empty() {
			continue
		}

		m := matcher{rule: r}
		c := r.Conditions

		if c.DescriptionRegex != "" {
			re, err := regexp.Compile("(?i)" + c.DescriptionRegex)
			if err != nil {
				m.badRegex = true
			}

			m.re = re
		}

		if c.AmountMin != nil {
			m.minCents = new(toCents(*c.AmountMin))
		}

		if c.AmountMax != nil {
			m.maxCents = new(toCents(*c.AmountMax))
		}

		out = append(out, m)
	}

	return out
}

func toCents(v float64) int64 {
	return decimal.NewFromFloat(v).Shift(2).Round(0).IntPart()
}

func (m matcher) matches(t *transaction.Transaction) bool {
	c := m.rule.Conditions

	if m.badRegex {
		return false
	}

	if c.TransactionID != "" && c.TransactionID != t.ID {
		return false
	}

	if c.DescriptionEquals != "" && c.DescriptionEquals != t.Description {
		return false
	}

	if m.re != nil && !m.re.MatchString(t.Description) {
		return false
	}

	if m.minCents != nil && t.Amount < *m.minCents {
		return false
	}

	if m.maxCents != nil && t.Amount > *m.maxCents {
		return false
	}

	if c.Source != "" && c.Source != t.Source {
		return false
	}

	if c.Direction != "" && c.Direction != detected(t) {
		return false
	}

	return inDateRange(t.Date, c.DateFrom, c.DateTo)
}

func detected(t *transaction.Transaction) transaction.Direction {
	if t.UserAdjustedDirection && t.DirectionDetected != "" {
		return t.DirectionDetected
	}

	return t.Direction
}

// inDateRange checks the inclusive bounds. Bounds accept the internal D/M/YY
// family and ISO dates; an unreadable bound or date fails the match.
func inDateRange(date, from, to string) bool {
	if from == "" && to == "" {
		return true
	}

	d, ok := transaction.ParseDate(date)
	if !ok {
		return false
	}

	if from != "" {
		f, ok := transaction.ParseDate(from)
		if !ok || d.Before(f) {
			return false
		}
	}

	if to != "" {
		u, ok := transaction.ParseDate(to)
		if !ok || d.After(u) {
			return false
		}
	}

	return true
}
