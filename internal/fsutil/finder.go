// Package fsutil discovers and loads the Markdown documents of a corpus.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/specialistvlad/refgraph/internal/model"
)

// ErrNoDocuments is returned when a corpus root holds no matching files.
var ErrNoDocuments = errors.New("no documents found")

// FindFilesByExtension recursively searches root for files ending with
// extension. Paths are returned relative to root, slash-separated and
// sorted. Hidden directories (".git", ".cache") are not entered.
func FindFilesByExtension(root string, extension string) ([]string, error) {
	if extension == "" {
		return nil, errors.New("extension must not be empty")
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !strings.HasSuffix(d.Name(), extension) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	slices.Sort(files)
	return files, nil
}

// LoadDocuments reads every matching file under root. Document paths are
// the corpus-relative paths links are resolved against.
func LoadDocuments(root, extension string) ([]model.Document, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("corpus root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus root %s is not a directory", root)
	}

	paths, err := FindFilesByExtension(root, extension)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w under %s (extension %s)", ErrNoDocuments, root, extension)
	}

	docs := make([]model.Document, 0, len(paths))
	for _, p := range paths {
		text, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(p)))
		if err != nil {
			return nil, fmt.Errorf("read document %s: %w", p, err)
		}
		docs = append(docs, model.Document{Path: p, Text: text})
	}
	return docs, nil
}
