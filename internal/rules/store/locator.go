package store

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/MrJamesThe3rd/heshbon/internal/workspace"
)

var ErrOutsideRoot = errors.New("workspace must be a directory inside the workspace root")

// Locator resolves a workspace name, a path relative to a root directory, to
// its statement directory and its rule store. Rules live next to the
// statements unless a database is configured.
type Locator struct {
	root string
	db   *sql.DB
}

// NewLocator returns a Locator for workspaces under root. A nil db keeps rules
// in sidecar files.
func NewLocator(root string, db *sql.DB) *Locator {
	return &Locator{root: root, db: db}
}

// Dir returns the statement directory of name. An empty name is the root.
func (l *Locator) Dir(name string) (*workspace.Dir, error) {
	if name == "" {
		return workspace.NewDir(l.root), nil
	}

	if !filepath.IsLocal(name) {
		return nil, fmt.Errorf("%q: %w", name, ErrOutsideRoot)
	}

	return workspace.NewDir(filepath.Join(l.root, name)), nil
}

// Rules returns the rule store of name.
func (l *Locator) Rules(name string) (*Sidecar, error) {
	dir, err := l.Dir(name)
	if err != nil {
		return nil, err
	}

	if l.db != nil {
		return NewSidecar(NewPostgres(l.db, filepath.ToSlash(filepath.Clean("./"+name)))), nil
	}

	return NewSidecar(dir), nil
}
