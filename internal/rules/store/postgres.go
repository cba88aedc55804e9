package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/heshbon/internal/workspace"
)

// ErrNotFound is returned for a sidecar document that was never written.
var ErrNotFound = workspace.ErrNotExist

const schema = `
	CREATE TABLE IF NOT EXISTS sidecar_documents (
		workspace  TEXT        NOT NULL,
		name       TEXT        NOT NULL,
		content    JSONB       NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (workspace, name)
	)
`

// Postgres keeps sidecar documents in a table, one row per workspace and
// document name.
type Postgres struct {
	db        *sql.DB
	workspace string
}

func NewPostgres(db *sql.DB, workspace string) *Postgres {
	return &Postgres{db: db, workspace: workspace}
}

// EnsureSchema creates the documents table when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating sidecar_documents: %w", err)
	}

	return nil
}

func (p *Postgres) ReadText(ctx context.Context, name string) (string, error) {
	query := `SELECT content::text FROM sidecar_documents WHERE workspace = $1 AND name = $2`

	var content string

	err := p.db.QueryRowContext(ctx, query, p.workspace, name).Scan(&content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}

		return "", fmt.Errorf("reading document %s: %w", name, err)
	}

	return content, nil
}

func (p *Postgres) WriteText(ctx context.Context, name, content string) error {
	if err := upsert(ctx, p.db, p.workspace, name, content); err != nil {
		return fmt.Errorf("writing document %s: %w", name, err)
	}

	return nil
}

// WriteAll replaces every document in one database transaction.
func (p *Postgres) WriteAll(ctx context.Context, docs map[string]string) error {
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	for name, content := range docs {
		if err := upsert(ctx, dbTx, p.workspace, name, content); err != nil {
			return fmt.Errorf("writing document %s: %w", name, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing documents: %w", err)
	}

	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, db execer, ws, name, content string) error {
	query := `
		INSERT INTO sidecar_documents (workspace, name, content, updated_at)
		VALUES ($1, $2, $3::jsonb, NOW())
		ON CONFLICT (workspace, name) DO UPDATE
		SET content = EXCLUDED.content, updated_at = NOW()
	`

	_, err := db.ExecContext(ctx, query, ws, name, content)

	return err
}

var (
	_ Documents   = (*Postgres)(nil)
	_ BatchWriter = (*Postgres)(nil)
)
