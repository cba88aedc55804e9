// Package workspace is the narrow file capability the pipeline needs: list the
// statement directory, read files from it and write sidecar files back.
package workspace

import (
	"context"
	"io/fs"
)

// ErrNotExist is returned when a named file is absent.
var ErrNotExist = fs.ErrNotExist

// Workspace is a flat directory of statement files and sidecar documents.
type Workspace interface {
	// ListFiles returns the regular file names in listing order.
	ListFiles(ctx context.Context) ([]string, error)
	ReadText(ctx context.Context, name string) (string, error)
	ReadBytes(ctx context.Context, name string) ([]byte, error)
	WriteText(ctx context.Context, name, content string) error
}
