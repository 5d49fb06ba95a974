// Package collector gathers the notes a run processes.
package collector

import (
	"context"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Vault is the read-only note store a run draws from. Paths are
// slash-separated and relative to the vault root.
type Vault interface {
	ListNotes(ctx context.Context) ([]string, error)
	ReadNote(ctx context.Context, path string) (string, error)
}

// DirVault serves the markdown files of a file system.
type DirVault struct {
	fsys fs.FS
}

// NewDirVault returns a vault over the directory at root.
func NewDirVault(root string) *DirVault {
	return &DirVault{fsys: os.DirFS(root)}
}

// NewFSVault returns a vault over fsys.
func NewFSVault(fsys fs.FS) *DirVault {
	return &DirVault{fsys: fsys}
}

// ListNotes returns the paths of all .md files in lexical order.
// Hidden directories such as .git or .obsidian are skipped.
func (v *DirVault) ListNotes(ctx context.Context) ([]string, error) {
	var paths []string
	err := fs.WalkDir(v.fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".md") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing notes")
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadNote returns the content of the note at path.
func (v *DirVault) ReadNote(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	content, err := fs.ReadFile(v.fsys, path)
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", path)
	}
	return string(content), nil
}
