// Package store persists a RuleSet as the sidecar JSON documents kept next to
// the statement files.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/heshbon/internal/rules"
	"github.com/MrJamesThe3rd/heshbon/internal/workspace"
)

// Sidecar document names.
const (
	FileCategories           = "categories.json"
	FileCategoryAliases      = "categories-aliases.json"
	FileDescriptionAliases   = "description-categories.json"
	FileCategoryRules        = "category-rules.json"
	FileDirectionOverrides   = "directionOverrides.json"
	FileSheetTypeOverrides   = "sheetTypeOverrides.json"
	migrationNamespacePrefix = "description-categories:"
)

// Documents reads and writes named text documents. workspace.Workspace
// satisfies it, and so does Postgres.
type Documents interface {
	ReadText(ctx context.Context, name string) (string, error)
	WriteText(ctx context.Context, name, content string) error
}

// BatchWriter is implemented by Documents that can replace several documents
// atomically.
type BatchWriter interface {
	WriteAll(ctx context.Context, docs map[string]string) error
}

// Sidecar is a rules.Repository over a set of JSON documents.
type Sidecar struct {
	docs Documents
	now  func() time.Time
}

func NewSidecar(docs Documents) *Sidecar {
	return &Sidecar{docs: docs, now: time.Now}
}

// Load reads every document; absent documents are empty. When the rules
// document is absent but legacy description mappings exist, they are migrated
// into rules and the result is saved immediately.
func (s *Sidecar) Load(ctx context.Context) (*rules.RuleSet, error) {
	rs := rules.New()

	targets := []struct {
		name string
		dst  any
	}{
		{FileCategories, &rs.Categories},
		{FileCategoryAliases, &rs.CategoryAliases},
		{FileDescriptionAliases, &rs.DescriptionCategories},
		{FileDirectionOverrides, &rs.DirectionOverrides},
		{FileSheetTypeOverrides, &rs.SheetTypes},
	}

	for _, tgt := range targets {
		if _, err := s.read(ctx, tgt.name, tgt.dst); err != nil {
			return nil, err
		}
	}

	found, err := s.read(ctx, FileCategoryRules, &rs.CategoryRules)
	if err != nil {
		return nil, err
	}

	// A JSON null leaves the maps nil.
	rs = rs.Clone()

	if !found && len(rs.DescriptionCategories) > 0 {
		rs.CategoryRules = MigrateDescriptionCategories(rs.DescriptionCategories, s.now())

		if err := s.Save(ctx, rs); err != nil {
			return nil, fmt.Errorf("persist migrated rules: %w", err)
		}
	}

	return rs, nil
}

// Save writes every document.
func (s *Sidecar) Save(ctx context.Context, rs *rules.RuleSet) error {
	docs := map[string]any{
		FileCategories:         nonNil(rs.Categories),
		FileCategoryAliases:    rs.CategoryAliases,
		FileDescriptionAliases: rs.DescriptionCategories,
		FileCategoryRules:      nonNil(rs.CategoryRules),
		FileDirectionOverrides: rs.DirectionOverrides,
		FileSheetTypeOverrides: rs.SheetTypes,
	}

	encoded := make(map[string]string, len(docs))

	for name, v := range docs {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}

		encoded[name] = string(b)
	}

	if bw, ok := s.docs.(BatchWriter); ok {
		return bw.WriteAll(ctx, encoded)
	}

	names := make([]string, 0, len(encoded))
	for name := range encoded {
		names = append(names, name)
	}

	slices.Sort(names)

	for _, name := range names {
		if err := s.docs.WriteText(ctx, name, encoded[name]); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	return nil
}

func (s *Sidecar) read(ctx context.Context, name string, dst any) (bool, error) {
	text, err := s.docs.ReadText(ctx, name)
	if err != nil {
		if errors.Is(err, workspace.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("read %s: %w", name, err)
	}

	if err := json.Unmarshal([]byte(text), dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}

	return true, nil
}

// MigrateDescriptionCategories turns legacy description mappings into one
// descriptionEquals rule each, ordered by description. Ids are derived from
// the description, so migrating twice yields the same rules.
func MigrateDescriptionCategories(legacy map[string]string, now time.Time) []rules.Rule {
	descs := make([]string, 0, len(legacy))
	for d := range legacy {
		descs = append(descs, d)
	}

	slices.Sort(descs)

	out := make([]rules.Rule, 0, len(descs))

	for _, d := range descs {
		if legacy[d] == "" {
			continue
		}

		out = append(out, rules.Rule{
			ID:         uuid.NewSHA1(uuid.NameSpaceOID, []byte(migrationNamespacePrefix+d)).String(),
			Name:       d,
			Category:   legacy[d],
			Conditions: rules.Conditions{DescriptionEquals: d},
			Origin:     rules.OriginMigration,
			CreatedAt:  now,
		})
	}

	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}

	return s
}

var _ rules.Repository = (*Sidecar)(nil)
