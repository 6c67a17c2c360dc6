package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/tuannm99/flatsql/internal/catalog"
)

const sessionVersion = 1

// sessionDoc is the on-disk form of the session file.
type sessionDoc struct {
	Version int              `yaml:"version"`
	SavedAt time.Time        `yaml:"saved_at"`
	Catalog *catalog.Catalog `yaml:"catalog"`
}

// loadSession returns (nil, nil) when persistence is off or no file exists.
func (s *Session) loadSession() (*catalog.Catalog, error) {
	path := s.opts.SessionFile
	if path == "" {
		return nil, nil
	}
	data, err := afero.ReadFile(s.opts.Fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var doc sessionDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("engine: decode session file: %w", err)
	}
	if doc.Version != sessionVersion {
		return nil, fmt.Errorf("engine: session file version %d, want %d", doc.Version, sessionVersion)
	}
	if doc.Catalog == nil {
		doc.Catalog = catalog.New()
	}
	return doc.Catalog, nil
}

func (s *Session) saveSession() error {
	path := s.opts.SessionFile
	if path == "" {
		return nil
	}
	data, err := yaml.Marshal(sessionDoc{
		Version: sessionVersion,
		SavedAt: time.Now().UTC(),
		Catalog: s.catalog,
	})
	if err != nil {
		return fmt.Errorf("engine: encode session file: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := s.opts.Fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := afero.WriteFile(s.opts.Fs, path, data, 0o644); err != nil {
		return fmt.Errorf("engine: write session file: %w", err)
	}
	return nil
}

// Default positions of scanned items on the canvas.
const (
	scanOriginX    = -200
	scanOriginY    = -200
	scanDBStepX    = -150
	scanDBStepY    = -100
	scanTableDX    = 50
	scanTableDY    = 100
	scanTableStepY = 100
)

// bootstrap builds the catalog from the root: one database per directory in
// name order, one table per *.csv with its header as INTEGER columns. Names
// that are not upper-case are renamed on disk so that names map 1:1 to paths;
// an entry whose canonical name is already taken is skipped.
func (s *Session) bootstrap() (*catalog.Catalog, error) {
	cat := catalog.New()

	dirs, err := s.sm.ListDatabases()
	if err != nil {
		return nil, err
	}
	dbNames, err := s.canonicalNames(dirs, "database", func(oldName, newName string) error {
		return s.sm.RenameDatabase(oldName, newName)
	})
	if err != nil {
		return nil, err
	}
	for i, name := range dbNames {
		db := &catalog.Database{
			Name: name,
			X:    float64(scanOriginX + i*scanDBStepX),
			Y:    float64(scanOriginY + i*scanDBStepY),
		}

		files, err := s.sm.ListTables(name)
		if err != nil {
			return nil, err
		}
		tables, err := s.canonicalNames(files, "table", func(oldName, newName string) error {
			return s.sm.RenameTable(name, oldName, newName)
		})
		if err != nil {
			return nil, err
		}
		for _, tname := range tables {
			header, err := s.canonicalHeader(name, tname)
			if err != nil {
				return nil, err
			}
			t := catalog.NewTable(tname, header)
			t.X = db.X + scanTableDX
			t.Y = db.Y + scanTableDY + float64(len(db.Tables)*scanTableStepY)
			db.AddTable(t)
		}
		cat.AddDatabase(db)
	}
	return cat, nil
}

// canonicalNames upper-cases the listed names, renaming on disk where needed.
// A name whose canonical form is listed too, or was already produced, is
// skipped with a warning.
func (s *Session) canonicalNames(names []string, kind string, rename func(oldName, newName string) error) ([]string, error) {
	listed := make(map[string]struct{}, len(names))
	for _, n := range names {
		listed[n] = struct{}{}
	}
	seen := make(map[string]struct{}, len(names))

	out := make([]string, 0, len(names))
	for _, name := range names {
		norm := catalog.Normalize(name)
		_, dup := seen[norm]
		_, shadowed := listed[norm]
		if dup || (norm != name && shadowed) {
			s.logger.Warn("engine: skipping entry with colliding canonical name",
				zap.String("kind", kind), zap.String("name", name), zap.String("canonical", norm))
			continue
		}
		if norm != name {
			if err := rename(name, norm); err != nil {
				return nil, fmt.Errorf("engine: normalize %s %q: %w", kind, name, err)
			}
			s.logger.Info("engine: renamed to canonical name",
				zap.String("kind", kind), zap.String("from", name), zap.String("to", norm))
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out, nil
}

// canonicalHeader returns the upper-cased header of db.table and rewrites the
// file when the header on disk differs.
func (s *Session) canonicalHeader(db, table string) ([]string, error) {
	header, err := s.sm.ReadHeader(db, table)
	if err != nil {
		return nil, err
	}
	canon := make([]string, len(header))
	changed := false
	for i, h := range header {
		canon[i] = catalog.Normalize(h)
		changed = changed || canon[i] != h
	}
	if !changed {
		return header, nil
	}

	td, err := s.sm.ReadTable(db, table)
	if err != nil {
		return nil, err
	}
	if err := s.sm.WriteTable(db, table, canon, td.Rows); err != nil {
		return nil, fmt.Errorf("engine: normalize header of %s.%s: %w", db, table, err)
	}
	s.logger.Info("engine: rewrote header with canonical names",
		zap.String("database", db), zap.String("table", table))
	return canon, nil
}
