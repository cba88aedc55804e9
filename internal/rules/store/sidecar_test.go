package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/heshbon/internal/classifier"
	"github.com/MrJamesThe3rd/heshbon/internal/rules"
	"github.com/MrJamesThe3rd/heshbon/internal/rules/store"
	"github.com/MrJamesThe3rd/heshbon/internal/transaction"
	"github.com/MrJamesThe3rd/heshbon/internal/workspace"
)

func TestSidecar_LoadEmpty(t *testing.T) {
	ws := workspace.NewMemory()

	rs, err := store.NewSidecar(ws).Load(context.Background())
	require.NoError(t, err)

	assert.Empty(t, rs.CategoryRules)
	assert.NotNil(t, rs.DirectionOverrides)
	assert.NotNil(t, rs.SheetTypes)

	names, err := ws.ListFiles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestSidecar_RoundTrip(t *testing.T) {
	ctx := context.Background()
	ws := workspace.NewMemory()
	s := store.NewSidecar(ws)

	rs := rules.New()
	rs.Categories = []rules.Category{{Name: "Food", Color: "#00ff00", Icon: "utensils"}}
	rs.CategoryAliases["Groceries"] = "Food"
	_, err := rs.AddRule(rules.Rule{Category: "Food", Conditions: rules.Conditions{DescriptionRegex: "wolt"}}, time.Now())
	require.NoError(t, err)
	require.NoError(t, rs.SetDirectionOverride("b1", transaction.DirectionIncome, "refund", time.Now()))
	require.NoError(t, rs.SetSheetType("mixed.xlsx::Sheet1", classifier.TypeBank))

	require.NoError(t, s.Save(ctx, rs))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, rs.Categories, loaded.Categories)
	assert.Equal(t, rs.CategoryAliases, loaded.CategoryAliases)
	assert.Equal(t, rs.SheetTypes, loaded.SheetTypes)
	require.Len(t, loaded.CategoryRules, 1)
	assert.Equal(t, rs.CategoryRules[0].ID, loaded.CategoryRules[0].ID)
	assert.Equal(t, rules.OriginUser, loaded.CategoryRules[0].Origin)
	assert.Equal(t, "refund", loaded.DirectionOverrides["b1"].Note)

	raw, err := ws.ReadText(ctx, store.FileSheetTypeOverrides)
	require.NoError(t, err)

	var sheetTypes map[string]string
	require.NoError(t, json.Unmarshal([]byte(raw), &sheetTypes))
	assert.Equal(t, map[string]string{"mixed.xlsx::Sheet1": "bank"}, sheetTypes)

	raw, err = ws.ReadText(ctx, store.FileCategoryRules)
	require.NoError(t, err)
	assert.Contains(t, raw, `"source": "user"`)
}

func TestSidecar_MigratesLegacyDescriptions(t *testing.T) {
	ctx := context.Background()
	ws := workspace.NewMemory()
	ws.Add(store.FileDescriptionAliases, []byte(`{"WOLT TLV": "Eating out", "ארנונה": "Home", "empty": ""}`))

	s := store.NewSidecar(ws)

	rs, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, rs.CategoryRules, 2)

	first := rs.CategoryRules[0]
	assert.Equal(t, "WOLT TLV", first.Conditions.DescriptionEquals)
	assert.Equal(t, "Eating out", first.Category)
	assert.Equal(t, rules.OriginMigration, first.Origin)
	assert.Equal(t, "ארנונה", rs.CategoryRules[1].Conditions.DescriptionEquals)

	_, err = ws.ReadText(ctx, store.FileCategoryRules)
	require.NoError(t, err)

	again, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, ruleIDs(rs), ruleIDs(again))

	fresh := store.MigrateDescriptionCategories(map[string]string{"WOLT TLV": "Eating out"}, time.Now())
	assert.Equal(t, first.ID, fresh[0].ID)
}

func TestSidecar_DoesNotMigrateWhenRulesExist(t *testing.T) {
	ws := workspace.NewMemory()
	ws.Add(store.FileDescriptionAliases, []byte(`{"WOLT TLV": "Eating out"}`))
	ws.Add(store.FileCategoryRules, []byte(`[]`))

	rs, err := store.NewSidecar(ws).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rs.CategoryRules)
	assert.Equal(t, "Eating out", rs.DescriptionCategories["WOLT TLV"])
}

func TestSidecar_NullDocuments(t *testing.T) {
	ws := workspace.NewMemory()
	ws.Add(store.FileDirectionOverrides, []byte(`null`))

	rs, err := store.NewSidecar(ws).Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, rs.DirectionOverrides)
}

func TestSidecar_CorruptDocument(t *testing.T) {
	ws := workspace.NewMemory()
	ws.Add(store.FileCategoryRules, []byte(`{not json`))

	_, err := store.NewSidecar(ws).Load(context.Background())
	assert.ErrorContains(t, err, store.FileCategoryRules)
}

type readOnly struct {
	*workspace.Memory
}

func (readOnly) WriteText(context.Context, string, string) error {
	return errors.New("permission denied")
}

func TestSidecar_SaveError(t *testing.T) {
	err := store.NewSidecar(readOnly{workspace.NewMemory()}).Save(context.Background(), rules.New())
	assert.ErrorContains(t, err, "permission denied")
}

func ruleIDs(rs *rules.RuleSet) []string {
	out := make([]string, len(rs.CategoryRules))
	for i, r := range rs.CategoryRules {
		out[i] = r.ID
	}

	return out
}
