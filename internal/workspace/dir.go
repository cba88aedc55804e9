package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Dir is a Workspace backed by a directory on disk. Subdirectories are ignored.
type Dir struct {
	root string
}

func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// Root returns the directory path.
func (d *Dir) Root() string {
	return d.root
}

func (d *Dir) ListFiles(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", d.root, err)
	}

	names := make([]string, 0, len(entries))

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}

	return names, nil
}

func (d *Dir) ReadText(ctx context.Context, name string) (string, error) {
	b, err := d.ReadBytes(ctx, name)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

func (d *Dir) ReadBytes(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := d.path(name)
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	return b, nil
}

// WriteText replaces name atomically through a temporary file.
func (d *Dir) WriteText(ctx context.Context, name, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := d.path(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.root, "."+name+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	return nil
}

var errBadName = errors.New("file name must not contain a path")

func (d *Dir) path(name string) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("%q: %w", name, errBadName)
	}

	return filepath.Join(d.root, name), nil
}
