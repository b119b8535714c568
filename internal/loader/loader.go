// Package loader enumerates corpus source files on disk. It is the only
// part of the system that touches the filesystem; everything downstream
// works on in-memory sources.
package loader

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"orgdex/internal/corpus"
	"orgdex/internal/parser"
)

// Loader walks one or more root directories and loads every supported
// file. Hidden directories (dot-prefixed) are skipped. Walk order is
// lexical, so repeated loads over an unchanged tree yield the same
// source order and therefore the same corpus.
type Loader struct {
	Roots        []string
	MaxFileBytes int64 // files larger than this are skipped, 0 means no cap
	Log          *slog.Logger
}

// Load reads all supported files under the roots. The document id is the
// path relative to its root, slash-separated. A root that cannot be
// walked fails the load; an unreadable individual file is skipped with a
// warning.
func (l *Loader) Load() ([]corpus.Source, error) {
	log := l.Log
	if log == nil {
		log = slog.Default()
	}

	var sources []corpus.Source
	for _, root := range l.Roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			if d.IsDir() {
				if path != root && strings.HasPrefix(name, ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasPrefix(name, ".") || !parser.IsSupportedExtension(name) {
				return nil
			}

			if l.MaxFileBytes > 0 {
				info, err := d.Info()
				if err != nil {
					log.Warn("file skipped", "path", path, "error", err)
					return nil
				}
				if info.Size() > l.MaxFileBytes {
					log.Warn("file skipped", "path", path, "size", info.Size(), "max", l.MaxFileBytes)
					return nil
				}
			}

			data, err := os.ReadFile(path)
			if err != nil {
				log.Warn("file skipped", "path", path, "error", err)
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				rel = name
			}
			sources = append(sources, corpus.Source{
				ID:   filepath.ToSlash(rel),
				Data: data,
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}

	log.Info("sources loaded", "roots", len(l.Roots), "files", len(sources))
	return sources, nil
}
