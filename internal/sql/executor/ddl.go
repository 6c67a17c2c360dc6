package executor

import (
	"errors"

	"github.com/tuannm99/flatsql/internal/catalog"
	"github.com/tuannm99/flatsql/internal/sql/parser"
	"github.com/tuannm99/flatsql/internal/storage"
)

const (
	statusDBNotFound     = "DATABASE NOT FOUND"
	statusDBExists       = "DATABASE ALREADY EXISTS"
	statusTableNotFound  = "TABLE NOT FOUND"
	statusTableExists    = "TABLE ALREADY EXISTS"
	statusNothingToUndo  = "NOTHING TO UNDO"
	statusNothingToRedo  = "NOTHING TO REDO"
	statusColumnNotFound = "COLUMN NOT FOUND"
)

// ----- navigation -----

func (e *Executor) execOpen(s *parser.OpenStmt) (*Result, error) {
	switch e.S.Level() {
	case catalog.LevelCatalog:
		db, found := e.S.Catalog().Database(s.Name)
		if !found {
			return nil, validation(statusDBNotFound)
		}
		e.S.EnterDatabase(db)
	case catalog.LevelDatabase:
		t, found := e.S.OpenDatabase().Table(s.Name)
		if !found {
			return nil, validation(statusTableNotFound)
		}
		e.S.EnterTable(t)
	default:
		return noop(), nil
	}
	return okResult(), nil
}

func (e *Executor) execBack() (*Result, error) {
	moved, err := e.S.Back()
	if err != nil {
		return nil, err
	}
	if !moved {
		return noop(), nil
	}
	return okResult(), nil
}

func (e *Executor) execUndo() (*Result, error) {
	did, err := e.S.Snapshots().Undo()
	if err != nil {
		return nil, err
	}
	if !did {
		return &Result{Status: statusNothingToUndo, NoOp: true}, nil
	}
	return okResult(), nil
}

func (e *Executor) execRedo() (*Result, error) {
	did, err := e.S.Snapshots().Redo()
	if err != nil {
		return nil, err
	}
	if !did {
		return &Result{Status: statusNothingToRedo, NoOp: true}, nil
	}
	return okResult(), nil
}

func (e *Executor) execFocus(s *parser.FocusStmt) (*Result, error) {
	if e.S.Level() == catalog.LevelTable {
		return noop(), nil
	}
	if s.All {
		n := e.S.FocusAll()
		if n == 0 {
			return noop(), nil
		}
		return &Result{Status: "OK", Affected: n}, nil
	}
	if !e.S.Focus(s.Name) {
		if e.S.Level() == catalog.LevelCatalog {
			return nil, validation(statusDBNotFound)
		}
		return nil, validation(statusTableNotFound)
	}
	return &Result{Status: "OK", Affected: 1}, nil
}

// ----- databases / tables -----

// execCreate creates databases at catalog level and tables at database level.
// A taken name gets the first free _N suffix; names on disk count as taken
// even when the catalog does not know them.
func (e *Executor) execCreate(s *parser.CreateStmt) (*Result, error) {
	sm := e.S.Storage()
	vp := e.S.Viewport()

	switch e.S.Level() {
	case catalog.LevelCatalog:
		cat := e.S.Catalog()
		for _, name := range s.Names {
			name = catalog.UniqueName(name, func(n string) bool {
				_, found := cat.Database(n)
				return found || sm.DatabaseExists(n)
			})
			if err := sm.CreateDatabase(name); err != nil {
				return nil, err
			}
			cat.AddDatabase(&catalog.Database{Name: name, X: vp.CenterX, Y: vp.CenterY})
		}

	case catalog.LevelDatabase:
		db := e.S.OpenDatabase()
		var initial []string
		if id := e.S.IDColumn(); id != "" {
			initial = []string{id}
		}
		for _, name := range s.Names {
			name = db.UniqueTableName(name, func(n string) bool {
				return sm.TableExists(db.Name, n)
			})
			t := catalog.NewTable(name, initial)
			t.X, t.Y = vp.CenterX, vp.CenterY

			if err := sm.CreateTable(db.Name, t.Name); err != nil {
				return nil, err
			}
			if len(t.Columns) > 0 {
				if err := sm.WriteTable(db.Name, t.Name, t.ColumnNames(), nil); err != nil {
					return nil, err
				}
			}
			db.AddTable(t)
		}

	default:
		return noop(), nil
	}
	return &Result{Status: "OK", Affected: len(s.Names)}, nil
}

func (e *Executor) execDelete(s *parser.DeleteStmt) (*Result, error) {
	sm := e.S.Storage()

	switch e.S.Level() {
	case catalog.LevelCatalog:
		cat := e.S.Catalog()
		if _, found := cat.Database(s.Name); !found {
			return nil, validation(statusDBNotFound)
		}
		if err := sm.DeleteDatabase(s.Name); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		if err := cat.RemoveDatabase(s.Name); err != nil {
			return nil, err
		}

	case catalog.LevelDatabase:
		db := e.S.OpenDatabase()
		if _, found := db.Table(s.Name); !found {
			return nil, validation(statusTableNotFound)
		}
		if err := sm.DeleteTable(db.Name, s.Name); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		if err := db.DropTable(s.Name); err != nil {
			return nil, err
		}

	default:
		return noop(), nil
	}
	return okResult(), nil
}

// execRename renames a database or a table. Table renames carry every
// foreign key that names the table along.
func (e *Executor) execRename(s *parser.RenameStmt) (*Result, error) {
	sm := e.S.Storage()

	switch e.S.Level() {
	case catalog.LevelCatalog:
		cat := e.S.Catalog()
		db, found := cat.Database(s.Old)
		if !found {
			return nil, validation(statusDBNotFound)
		}
		if s.New == db.Name {
			return okResult(), nil
		}
		if _, taken := cat.Database(s.New); taken || sm.DatabaseExists(s.New) {
			return nil, conflict(statusDBExists)
		}
		if err := sm.RenameDatabase(db.Name, s.New); err != nil {
			return nil, renameError(err, statusDBExists, statusDBNotFound)
		}
		db.Name = s.New

	case catalog.LevelDatabase:
		db := e.S.OpenDatabase()
		t, found := db.Table(s.Old)
		if !found {
			return nil, validation(statusTableNotFound)
		}
		if s.New == t.Name {
			return okResult(), nil
		}
		if _, taken := db.Table(s.New); taken || sm.TableExists(db.Name, s.New) {
			return nil, conflict(statusTableExists)
		}
		if err := sm.RenameTable(db.Name, t.Name, s.New); err != nil {
			return nil, renameError(err, statusTableExists, statusTableNotFound)
		}
		db.RenameTable(t, s.New)

	default:
		return noop(), nil
	}
	return okResult(), nil
}

func renameError(err error, exists, notFound string) error {
	switch {
	case errors.Is(err, storage.ErrAlreadyExists):
		return &StatusError{Kind: KindConflict, Status: exists, Err: err}
	case errors.Is(err, storage.ErrNotFound):
		return &StatusError{Kind: KindValidation, Status: notFound, Err: err}
	default:
		return err
	}
}
