package engine

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/tuannm99/flatsql/internal/catalog"
	"github.com/tuannm99/flatsql/internal/integrity"
	"github.com/tuannm99/flatsql/internal/snapshot"
	"github.com/tuannm99/flatsql/internal/storage"
)

var ErrSessionClosed = errors.New("flatsql: session is closed")

const (
	DefaultRoot        = "DATABASES"
	DefaultSessionFile = "flatsql_session.yaml"
	DefaultIDColumn    = "ID"
)

type Options struct {
	// Fs defaults to the OS filesystem.
	Fs         afero.Fs
	Root       string
	ResultFile string
	// SessionFile is read at Open and written at Close; "" disables it.
	SessionFile string
	// MaxUndoDepth caps undo history; 0 is unbounded.
	MaxUndoDepth int
	// IDColumn is the column every new table starts with; "" starts empty.
	IDColumn string
	Viewport Viewport
	Logger   *zap.Logger
}

// Session is the state one command interpreter works against: the catalog,
// the navigation level with its open database/table, and the storage,
// integrity and snapshot services bound to one root.
type Session struct {
	opts   Options
	logger *zap.Logger

	catalog *catalog.Catalog
	level   catalog.Level
	db      *catalog.Database
	table   *catalog.Table

	sm        *storage.StorageManager
	checker   *integrity.Checker
	snapshots *snapshot.Manager
	viewport  Viewport

	closed bool
}

var _ snapshot.Stateful = (*Session)(nil)

// Open prepares the root, loads the catalog from the session file or by
// scanning the root, removes a stale result file and records the undo
// baseline.
func Open(opts Options) (*Session, error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Root == "" {
		opts.Root = DefaultRoot
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := storage.NewStorageManager(opts.Fs, opts.Root, storage.WithResultFile(opts.ResultFile))
	if err := sm.Init(); err != nil {
		return nil, fmt.Errorf("engine: init root: %w", err)
	}

	s := &Session{
		opts:     opts,
		logger:   logger,
		level:    catalog.LevelCatalog,
		sm:       sm,
		checker:  integrity.NewChecker(sm),
		viewport: opts.Viewport,
	}

	cat, err := s.loadSession()
	switch {
	case err == nil && cat != nil:
		logger.Info("engine: catalog loaded from session file",
			zap.String("path", opts.SessionFile),
			zap.Int("databases", len(cat.Databases)))
	default:
		if err != nil {
			logger.Warn("engine: ignoring unreadable session file",
				zap.String("path", opts.SessionFile), zap.Error(err))
		}
		if cat, err = s.bootstrap(); err != nil {
			return nil, err
		}
		logger.Info("engine: catalog bootstrapped from root",
			zap.String("root", sm.Root()),
			zap.Int("databases", len(cat.Databases)))
	}
	s.catalog = cat

	if err := sm.RemoveResult(); err != nil {
		return nil, err
	}

	s.snapshots = snapshot.NewManager(opts.Fs, sm.Root(), s,
		snapshot.WithMaxDepth(opts.MaxUndoDepth),
		snapshot.WithLogger(logger))
	if err := s.snapshots.Init(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close removes the result file and writes the session file.
func (s *Session) Close() error {
	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true
	return multierr.Combine(s.sm.RemoveResult(), s.saveSession())
}

// ---- read-only accessors ----

func (s *Session) Catalog() *catalog.Catalog { return s.catalog }
func (s *Session) Level() catalog.Level      { return s.level }

func (s *Session) Databases() []*catalog.Database { return s.catalog.Databases }

// Tables lists the tables of the open database, nil at catalog level.
func (s *Session) Tables() []*catalog.Table {
	if s.db == nil {
		return nil
	}
	return s.db.Tables
}

func (s *Session) OpenDatabase() *catalog.Database { return s.db }
func (s *Session) OpenTable() *catalog.Table       { return s.table }

func (s *Session) Storage() *storage.StorageManager { return s.sm }
func (s *Session) Checker() *integrity.Checker      { return s.checker }
func (s *Session) Snapshots() *snapshot.Manager     { return s.snapshots }
func (s *Session) Logger() *zap.Logger              { return s.logger }
func (s *Session) IDColumn() string                 { return s.opts.IDColumn }

// ---- navigation ----

// EnterDatabase opens db and moves to database level.
func (s *Session) EnterDatabase(db *catalog.Database) {
	s.db, s.table = db, nil
	s.level = catalog.LevelDatabase
}

// EnterTable opens t of the open database and moves to table level.
func (s *Session) EnterTable(t *catalog.Table) {
	s.table = t
	s.level = catalog.LevelTable
}

// Back moves one level up. Leaving table level removes the result file.
func (s *Session) Back() (bool, error) {
	switch s.level {
	case catalog.LevelTable:
		s.table = nil
		s.level = catalog.LevelDatabase
		return true, s.sm.RemoveResult()
	case catalog.LevelDatabase:
		s.db = nil
		s.level = catalog.LevelCatalog
		return true, nil
	default:
		return false, nil
	}
}

// ---- snapshot.Stateful ----

func (s *Session) CaptureState() snapshot.State {
	st := snapshot.State{Catalog: s.catalog, Level: s.level}
	if s.db != nil {
		st.Database = s.db.Name
	}
	if s.table != nil {
		st.Table = s.table.Name
	}
	return st
}

// RestoreState swaps in st and re-resolves the open database/table by name.
// A pointer that no longer resolves drops the level accordingly.
func (s *Session) RestoreState(st snapshot.State) error {
	if st.Catalog == nil {
		st.Catalog = catalog.New()
	}
	s.catalog = st.Catalog
	s.level = st.Level
	s.db, s.table = nil, nil

	if st.Database != "" {
		s.db, _ = s.catalog.Database(st.Database)
	}
	if s.db != nil && st.Table != "" {
		s.table, _ = s.db.Table(st.Table)
	}

	switch {
	case s.db == nil:
		s.level = catalog.LevelCatalog
	case s.table == nil && s.level == catalog.LevelTable:
		s.level = catalog.LevelDatabase
	}
	return nil
}
