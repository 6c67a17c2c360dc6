package snapshot

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// captureTree reads every directory and file under root into blobs.
func (m *Manager) captureTree() (map[string]Entry, error) {
	files := make(map[string]Entry)
	err := afero.Walk(m.fs, m.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := m.rel(path)
		if err != nil || rel == "." {
			return err
		}
		if info.IsDir() {
			files[rel] = Entry{Dir: true}
			return nil
		}
		data, err := afero.ReadFile(m.fs, path)
		if err != nil {
			return err
		}
		files[rel] = Entry{Blob: m.blobs.Put(data)}
		return nil
	})
	if err != nil {
		m.releaseFiles(files)
		return nil, err
	}
	return files, nil
}

func (m *Manager) rel(path string) (string, error) {
	rel, err := filepath.Rel(m.root, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func (m *Manager) abs(rel string) string {
	return filepath.Join(m.root, filepath.FromSlash(rel))
}

// restoreTree makes the tree under root byte-identical to files.
//
// Pass 1 walks the current tree bottom-up and deletes files missing from the
// target, then directories missing from the target once they are empty.
// Pass 2 recreates every directory and rewrites every file, changed or not.
func (m *Manager) restoreTree(files map[string]Entry) error {
	var current []string
	err := afero.Walk(m.fs, m.root, func(path string, _ os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path != m.root {
			current = append(current, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	var errs error
	for i := len(current) - 1; i >= 0; i-- {
		path := current[i]
		rel, err := m.rel(path)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if _, keep := files[rel]; keep {
			continue
		}
		info, err := m.fs.Stat(path)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			errs = multierr.Append(errs, m.fs.Remove(path))
			continue
		}
		empty, err := afero.IsEmpty(m.fs, path)
		if err != nil || !empty {
			m.logger.Debug("snapshot: keeping non-empty directory", zap.String("path", rel))
			continue
		}
		errs = multierr.Append(errs, m.fs.Remove(path))
	}

	paths := make([]string, 0, len(files))
	for rel := range files {
		paths = append(paths, rel)
	}
	sort.Strings(paths)

	if err := m.fs.MkdirAll(m.root, 0o755); err != nil {
		return multierr.Append(errs, err)
	}
	for _, rel := range paths {
		e := files[rel]
		path := m.abs(rel)
		if e.Dir {
			errs = multierr.Append(errs, m.fs.MkdirAll(path, 0o755))
			continue
		}
		data, ok := m.blobs.Get(e.Blob)
		if !ok {
			errs = multierr.Append(errs, &os.PathError{Op: "restore", Path: rel, Err: os.ErrNotExist})
			continue
		}
		if err := m.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		errs = multierr.Append(errs, afero.WriteFile(m.fs, path, data, 0o644))
	}
	return errs
}

func (m *Manager) releaseFiles(files map[string]Entry) {
	for _, e := range files {
		if !e.Dir {
			m.blobs.Release(e.Blob)
		}
	}
}
