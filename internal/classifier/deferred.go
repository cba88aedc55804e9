package classifier

import (
	"context"
	"sync"
)

// Pending is an ambiguous sheet waiting for a user decision.
type Pending struct {
	Key     string     `json:"key"`
	File    string     `json:"file"`
	Sheet   string     `json:"sheet"`
	Preview [][]string `json:"preview"`
}

// Deferred is a non-interactive Resolver. It records every ambiguous sheet and
// declines it, so the caller can ask the user out of band and rerun with the
// answers stored as overrides.
type Deferred struct {
	mu      sync.Mutex
	pending []Pending
}

// NewDeferred returns an empty Deferred resolver.
func NewDeferred() *Deferred {
	return &Deferred{}
}

func (d *Deferred) ResolveSheetType(_ context.Context, key Key, preview [][]string) (SheetType, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = append(d.pending, Pending{
		Key:     key.String(),
		File:    key.FileName,
		Sheet:   key.SheetName,
		Preview: preview,
	})

	return TypeUnknown, ErrUserCancelled
}

// Pending returns the sheets recorded so far.
func (d *Deferred) Pending() []Pending {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]Pending(nil), d.pending...)
}

// Static resolves every ambiguous sheet with the same answer.
type Static SheetType

func (s Static) ResolveSheetType(context.Context, Key, [][]string) (SheetType, error) {
	if t := SheetType(s); t.Valid() {
		return t, nil
	}

	return TypeUnknown, ErrUserCancelled
}
