package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

var (
	ErrAlreadyExists = errors.New("storage: already exists")
	ErrNotFound      = errors.New("storage: not found")
)

const (
	TableExt          = ".csv"
	DefaultResultFile = "RESULT.csv"

	dirMode  os.FileMode = 0o755
	fileMode os.FileMode = 0o644
)

// StorageManager maps databases to directories and tables to CSV files
// under a single root:
//
//	<root>/<DB>/            one directory per database
//	<root>/<DB>/<TABLE>.csv one file per table, first row = header
//	<root>/RESULT.csv       projection of the last SELECT
//
// Every operation is a full open/read-or-write/close cycle; no handle is
// kept between calls.
type StorageManager struct {
	fs         afero.Fs
	root       string
	resultFile string
}

type Option func(*StorageManager)

// WithResultFile overrides the result file name (default RESULT.csv).
func WithResultFile(name string) Option {
	return func(sm *StorageManager) {
		if name != "" {
			sm.resultFile = name
		}
	}
}

func NewStorageManager(fs afero.Fs, root string, opts ...Option) *StorageManager {
	sm := &StorageManager{
		fs:         fs,
		root:       filepath.Clean(root),
		resultFile: DefaultResultFile,
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

func (sm *StorageManager) Fs() afero.Fs { return sm.fs }
func (sm *StorageManager) Root() string { return sm.root }

// Init creates the root directory if needed.
func (sm *StorageManager) Init() error {
	return sm.fs.MkdirAll(sm.root, dirMode)
}

func (sm *StorageManager) DatabaseDir(db string) string {
	return filepath.Join(sm.root, db)
}

func (sm *StorageManager) TablePath(db, table string) string {
	return filepath.Join(sm.root, db, table+TableExt)
}

func (sm *StorageManager) ResultPath() string {
	return filepath.Join(sm.root, sm.resultFile)
}

func (sm *StorageManager) exists(path string) bool {
	ok, err := afero.Exists(sm.fs, path)
	return err == nil && ok
}

// ---- databases ----

// ListDatabases returns database directory names sorted by name.
func (sm *StorageManager) ListDatabases() ([]string, error) {
	entries, err := afero.ReadDir(sm.fs, sm.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list databases: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func (sm *StorageManager) DatabaseExists(name string) bool {
	return sm.exists(sm.DatabaseDir(name))
}

func (sm *StorageManager) CreateDatabase(name string) error {
	dir := sm.DatabaseDir(name)
	if sm.exists(dir) {
		return fmt.Errorf("%w: database %s", ErrAlreadyExists, name)
	}
	if err := sm.fs.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("storage: create database %s: %w", name, err)
	}
	return nil
}

// DeleteDatabase removes the database directory recursively.
func (sm *StorageManager) DeleteDatabase(name string) error {
	dir := sm.DatabaseDir(name)
	if !sm.exists(dir) {
		return fmt.Errorf("%w: database %s", ErrNotFound, name)
	}
	if err := sm.fs.RemoveAll(dir); err != nil {
		return fmt.Errorf("storage: delete database %s: %w", name, err)
	}
	return nil
}

func (sm *StorageManager) RenameDatabase(oldName, newName string) error {
	return sm.rename(sm.DatabaseDir(oldName), sm.DatabaseDir(newName), "database")
}

// ---- tables ----

// ListTables returns the table names (file stems of *.csv) of db, sorted.
func (sm *StorageManager) ListTables(db string) ([]string, error) {
	entries, err := afero.ReadDir(sm.fs, sm.DatabaseDir(db))
	if err != nil {
		return nil, fmt.Errorf("storage: list tables of %s: %w", db, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), TableExt) {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), TableExt))
	}
	sort.Strings(out)
	return out, nil
}

func (sm *StorageManager) TableExists(db, table string) bool {
	return sm.exists(sm.TablePath(db, table))
}

// CreateTable creates an empty backing file.
func (sm *StorageManager) CreateTable(db, table string) error {
	path := sm.TablePath(db, table)
	if sm.exists(path) {
		return fmt.Errorf("%w: table %s.%s", ErrAlreadyExists, db, table)
	}
	if err := sm.fs.MkdirAll(sm.DatabaseDir(db), dirMode); err != nil {
		return err
	}
	if err := afero.WriteFile(sm.fs, path, nil, fileMode); err != nil {
		return fmt.Errorf("storage: create table %s.%s: %w", db, table, err)
	}
	return nil
}

func (sm *StorageManager) DeleteTable(db, table string) error {
	path := sm.TablePath(db, table)
	if !sm.exists(path) {
		return fmt.Errorf("%w: table %s.%s", ErrNotFound, db, table)
	}
	if err := sm.fs.Remove(path); err != nil {
		return fmt.Errorf("storage: delete table %s.%s: %w", db, table, err)
	}
	return nil
}

func (sm *StorageManager) RenameTable(db, oldName, newName string) error {
	return sm.rename(sm.TablePath(db, oldName), sm.TablePath(db, newName), "table")
}

func (sm *StorageManager) rename(oldPath, newPath, kind string) error {
	if oldPath == newPath {
		return nil
	}
	if !sm.exists(oldPath) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, kind, filepath.Base(oldPath))
	}
	if sm.exists(newPath) {
		return fmt.Errorf("%w: %s %s", ErrAlreadyExists, kind, filepath.Base(newPath))
	}
	if err := sm.fs.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("storage: rename %s: %w", kind, err)
	}
	return nil
}

// ReadTable loads header and rows of a table file.
func (sm *StorageManager) ReadTable(db, table string) (*TableData, error) {
	return sm.readFile(sm.TablePath(db, table))
}

// ReadHeader returns only the header row (nil for an empty file).
func (sm *StorageManager) ReadHeader(db, table string) ([]string, error) {
	td, err := sm.ReadTable(db, table)
	if err != nil {
		return nil, err
	}
	return td.Header, nil
}

// WriteTable overwrites the whole file with header followed by rows.
func (sm *StorageManager) WriteTable(db, table string, header []string, rows [][]string) error {
	return sm.writeFile(sm.TablePath(db, table), header, rows)
}

// ---- result file ----

func (sm *StorageManager) WriteResult(header []string, rows [][]string) error {
	return sm.writeFile(sm.ResultPath(), header, rows)
}

func (sm *StorageManager) ReadResult() (*TableData, error) {
	return sm.readFile(sm.ResultPath())
}

func (sm *StorageManager) ResultExists() bool {
	return sm.exists(sm.ResultPath())
}

// RemoveResult deletes the result file; a missing file is not an error.
func (sm *StorageManager) RemoveResult() error {
	err := sm.fs.Remove(sm.ResultPath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: remove result: %w", err)
	}
	return nil
}

// ---- helpers ----

func (sm *StorageManager) readFile(path string) (*TableData, error) {
	data, err := afero.ReadFile(sm.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return decodeTable(data)
}

func (sm *StorageManager) writeFile(path string, header []string, rows [][]string) error {
	data, err := encodeTable(header, rows)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(sm.fs, path, data, fileMode); err != nil {
		return fmt.Errorf("storage: write %s: %w", path, err)
	}
	return nil
}
