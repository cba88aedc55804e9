package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/MrJamesThe3rd/heshbon/internal/classifier"
	"github.com/MrJamesThe3rd/heshbon/internal/transaction"
)

// Repository loads and saves a workspace's RuleSet. Saves replace the whole
// set; the last write wins.
//
//go:generate mockgen -source=service.go -destination=repository_mock.go -package=rules
type Repository interface {
	Load(ctx context.Context) (*RuleSet, error)
	Save(ctx context.Context, rs *RuleSet) error
}

// Service applies one mutation at a time: load, change, save.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Get(ctx context.Context) (*RuleSet, error) {
	rs, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	return rs, nil
}

// Replace stores rs as the whole rule set.
func (s *Service) Replace(ctx context.Context, rs *RuleSet) error {
	for _, r := range rs.CategoryRules {
		if err := validateRule(r); err != nil {
			return fmt.Errorf("rule %s: %w", r.ID, err)
		}
	}

	rs.init()

	if err := s.repo.Save(ctx, rs); err != nil {
		return fmt.Errorf("save rules: %w", err)
	}

	return nil
}

func (s *Service) AddRule(ctx context.Context, r Rule) (Rule, error) {
	var added Rule

	err := s.mutate(ctx, func(rs *RuleSet) error {
		var err error
		added, err = rs.AddRule(r, s.now())

		return err
	})

	return added, err
}

func (s *Service) UpdateRule(ctx context.Context, r Rule) error {
	return s.mutate(ctx, func(rs *RuleSet) error {
		return rs.UpdateRule(r)
	})
}

func (s *Service) MoveRule(ctx context.Context, id string, to int) error {
	return s.mutate(ctx, func(rs *RuleSet) error {
		return rs.MoveRule(id, to)
	})
}

func (s *Service) RemoveRule(ctx context.Context, id string) error {
	return s.mutate(ctx, func(rs *RuleSet) error {
		return rs.RemoveRule(id)
	})
}

func (s *Service) SetDirectionOverride(ctx context.Context, id string, d transaction.Direction, note string) error {
	return s.mutate(ctx, func(rs *RuleSet) error {
		return rs.SetDirectionOverride(id, d, note, s.now())
	})
}

func (s *Service) ClearDirectionOverride(ctx context.Context, id string) error {
	return s.mutate(ctx, func(rs *RuleSet) error {
		rs.ClearDirectionOverride(id)
		return nil
	})
}

func (s *Service) SetSheetType(ctx context.Context, key string, t classifier.SheetType) error {
	return s.mutate(ctx, func(rs *RuleSet) error {
		return rs.SetSheetType(key, t)
	})
}

func (s *Service) SetCategories(ctx context.Context, categories []Category) error {
	return s.mutate(ctx, func(rs *RuleSet) error {
		rs.Categories = categories
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, fn func(*RuleSet) error) error {
	rs, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	if err := fn(rs); err != nil {
		return err
	}

	if err := s.repo.Save(ctx, rs); err != nil {
		return fmt.Errorf("save rules: %w", err)
	}

	return nil
}
