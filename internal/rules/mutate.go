package rules

import (
	"fmt"
	"regexp"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/heshbon/internal/classifier"
	"github.com/MrJamesThe3rd/heshbon/internal/transaction"
)

// AddRule validates r, fills in its id, origin and creation time when missing,
// and appends it to the end of the rule list.
func (rs *RuleSet) AddRule(r Rule, now time.Time) (Rule, error) {
	if err := validateRule(r); err != nil {
		return Rule{}, err
	}

	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	if rs.ruleIndex(r.ID) >= 0 {
		return Rule{}, fmt.Errorf("%w: duplicate id %s", ErrInvalidRule, r.ID)
	}

	if r.Origin == "" {
		r.Origin = OriginUser
	}

	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}

	rs.CategoryRules = append(rs.CategoryRules, r)

	return r, nil
}

// UpdateRule replaces the rule with the same id, keeping its position.
func (rs *RuleSet) UpdateRule(r Rule) error {
	i := rs.ruleIndex(r.ID)
	if i < 0 {
		return ErrRuleNotFound
	}

	if err := validateRule(r); err != nil {
		return err
	}

	if r.Origin == "" {
		r.Origin = rs.CategoryRules[i].Origin
	}

	if r.CreatedAt.IsZero() {
		r.CreatedAt = rs.CategoryRules[i].CreatedAt
	}

	rs.CategoryRules[i] = r

	return nil
}

// MoveRule moves a rule to position to, clamped to the list bounds.
func (rs *RuleSet) MoveRule(id string, to int) error {
	i := rs.ruleIndex(id)
	if i < 0 {
		return ErrRuleNotFound
	}

	r := rs.CategoryRules[i]
	rs.CategoryRules = slices.Delete(rs.CategoryRules, i, i+1)

	to = max(0, min(to, len(rs.CategoryRules)))
	rs.CategoryRules = slices.Insert(rs.CategoryRules, to, r)

	return nil
}

func (rs *RuleSet) RemoveRule(id string) error {
	i := rs.ruleIndex(id)
	if i < 0 {
		return ErrRuleNotFound
	}

	rs.CategoryRules = slices.Delete(rs.CategoryRules, i, i+1)

	return nil
}

func (rs *RuleSet) SetDirectionOverride(id string, d transaction.Direction, note string, now time.Time) error {
	if !d.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, d)
	}

	rs.init()
	rs.DirectionOverrides[id] = DirectionOverride{Direction: d, Note: note, UpdatedAt: now}

	return nil
}

func (rs *RuleSet) ClearDirectionOverride(id string) {
	delete(rs.DirectionOverrides, id)
}

// SetSheetType records the type of the sheet identified by key ("file::sheet").
func (rs *RuleSet) SetSheetType(key string, t classifier.SheetType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSheetType, t)
	}

	rs.init()
	rs.SheetTypes[key] = t

	return nil
}

func (rs *RuleSet) ruleIndex(id string) int {
	return slices.IndexFunc(rs.CategoryRules, func(r Rule) bool { return r.ID == id })
}

func validateRule(r Rule) error {
	if r.Category == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidRule)
	}

	if r.Conditions.Empty() {
		return fmt.Errorf("%w: at least one condition is required", ErrInvalidRule)
	}

	if r.Conditions.DescriptionRegex != "" {
		if _, err := regexp.Compile(r.Conditions.DescriptionRegex); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRule, err)
		}
	}

	c := r.Conditions
	if c.AmountMin != nil && c.AmountMax != nil && *c.AmountMin > *c.AmountMax {
		return fmt.Errorf("%w: amountMin is greater than amountMax", ErrInvalidRule)
	}

	if c.Direction != "" && !c.Direction.Valid() {
		return fmt.Errorf("%w: %w", ErrInvalidRule, ErrInvalidDirection)
	}

	return nil
}
