package executor

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tuannm99/flatsql/internal/catalog"
	"github.com/tuannm99/flatsql/internal/record"
	"github.com/tuannm99/flatsql/internal/sql/parser"
)

// schemaTarget resolves the table a structural command edits. Structural
// commands only run at database level; a nil table with a nil error means
// the command is a no-op at the current level.
func (e *Executor) schemaTarget(name string) (*catalog.Database, *catalog.Table, error) {
	if e.S.Level() != catalog.LevelDatabase || e.S.OpenDatabase() == nil {
		return nil, nil, nil
	}
	db := e.S.OpenDatabase()
	t, found := db.Table(name)
	if !found {
		return nil, nil, validation(statusTableNotFound)
	}
	return db, t, nil
}

func columnIndex(t *catalog.Table, name string) (int, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return -1, validation(statusColumnNotFound)
	}
	return idx, nil
}

func (e *Executor) execAddFields(s *parser.AddFieldsStmt) (*Result, error) {
	db, t, err := e.schemaTarget(s.Table)
	if t == nil {
		return noopOr(err)
	}

	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if _, dup := seen[f]; dup {
			return nil, validation("DUPLICATE FIELDS IN QUERY")
		}
		seen[f] = struct{}{}
		if t.ColumnIndex(f) >= 0 {
			return nil, conflict("FIELD '%s' ALREADY EXISTS", f)
		}
	}

	rows, err := e.loadRows(db, t)
	if err != nil {
		return nil, err
	}
	if err := t.AddColumns(s.Fields...); err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i] = padTo(rows[i], len(t.Columns))
	}
	if err := e.saveRows(db, t, rows); err != nil {
		return nil, err
	}
	return &Result{Status: "OK", Affected: len(s.Fields)}, nil
}

func (e *Executor) execDeleteFields(s *parser.DeleteFieldsStmt) (*Result, error) {
	db, t, err := e.schemaTarget(s.Table)
	if t == nil {
		return noopOr(err)
	}

	var indices []int
	seen := make(map[int]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		idx, err := columnIndex(t, f)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[idx]; !dup {
			seen[idx] = struct{}{}
			indices = append(indices, idx)
		}
	}

	rows, err := e.loadRows(db, t)
	if err != nil {
		return nil, err
	}

	// highest first so earlier indices stay valid
	sort.Sort(sort.Reverse(sort.IntSlice(indices)))
	for _, idx := range indices {
		for i, row := range rows {
			if idx < len(row) {
				rows[i] = append(row[:idx:idx], row[idx+1:]...)
			}
		}
		if err := db.DeleteColumn(t, idx); err != nil {
			return nil, err
		}
	}

	if err := e.saveRows(db, t, rows); err != nil {
		return nil, err
	}
	return &Result{Status: "OK", Affected: len(indices)}, nil
}

func (e *Executor) execRenameField(s *parser.RenameFieldStmt) (*Result, error) {
	db, t, err := e.schemaTarget(s.Table)
	if t == nil {
		return noopOr(err)
	}
	if _, err := columnIndex(t, s.Old); err != nil {
		return nil, err
	}

	rows, err := e.loadRows(db, t)
	if err != nil {
		return nil, err
	}
	if err := t.RenameColumn(s.Old, s.New); err != nil {
		if errors.Is(err, catalog.ErrColumnExists) {
			return nil, conflict("FIELD '%s' ALREADY EXISTS", s.New)
		}
		return nil, err
	}
	if err := e.saveRows(db, t, rows); err != nil {
		return nil, err
	}
	return okResult(), nil
}

// execMoveField moves Field to the position Dest holds now. Key indices
// follow the move.
func (e *Executor) execMoveField(s *parser.MoveFieldStmt) (*Result, error) {
	db, t, err := e.schemaTarget(s.Table)
	if t == nil {
		return noopOr(err)
	}
	src, err := columnIndex(t, s.Field)
	if err != nil {
		return nil, err
	}
	dst, err := columnIndex(t, s.Dest)
	if err != nil {
		return nil, err
	}

	rows, err := e.loadRows(db, t)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		rows[i] = moveCell(row, src, dst)
	}
	if err := db.MoveColumn(t, src, dst); err != nil {
		return nil, err
	}
	if err := e.saveRows(db, t, rows); err != nil {
		return nil, err
	}
	return okResult(), nil
}

func moveCell(row []string, src, dst int) []string {
	if src == dst || src >= len(row) || dst >= len(row) {
		return row
	}
	v := row[src]
	out := append(row[:src:src], row[src+1:]...)
	out = append(out[:dst], append([]string{v}, out[dst:]...)...)
	return out
}

// ----- keys / types -----

// execPrimaryKey toggles the primary key. A foreign key source column never
// becomes the key: the command drops its foreign keys instead. Setting the
// key requires the existing rows to hold unique, non-empty values.
func (e *Executor) execPrimaryKey(s *parser.PrimaryKeyStmt) (*Result, error) {
	db, t, err := e.schemaTarget(s.Table)
	if t == nil {
		return noopOr(err)
	}
	idx, err := columnIndex(t, s.Column)
	if err != nil {
		return nil, err
	}
	if t.IsPrimaryKey(idx) {
		t.ClearPrimaryKey()
		return okResult(), nil
	}
	if t.HasForeignKey(idx) {
		n := t.RemoveForeignKeys(idx)
		return &Result{Status: "OK", Affected: n}, nil
	}

	rows, err := e.loadRows(db, t)
	if err != nil {
		return nil, err
	}
	col := t.Columns[idx].Name
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		v := row[idx]
		if v == "" {
			return nil, violation(nil, "ERROR: Primary key '%s' cannot be None", col)
		}
		if _, dup := seen[v]; dup {
			return nil, violation(nil, "ERROR: Duplicate primary key '%s' in column '%s'", v, col)
		}
		seen[v] = struct{}{}
	}
	if err := t.SetPrimaryKey(idx); err != nil {
		return nil, err
	}
	return okResult(), nil
}

func (e *Executor) execForeignKey(s *parser.ForeignKeyStmt) (*Result, error) {
	db, t, err := e.schemaTarget(s.Table)
	if t == nil {
		return noopOr(err)
	}
	col, err := columnIndex(t, s.Column)
	if err != nil {
		return nil, err
	}
	ref, found := db.Table(s.RefTable)
	if !found {
		return nil, validation(statusTableNotFound)
	}
	refCol, err := columnIndex(ref, s.RefColumn)
	if err != nil {
		return nil, err
	}

	if err := db.AddForeignKey(t, col, ref, refCol); err != nil {
		switch {
		case errors.Is(err, catalog.ErrTypeMismatch):
			return nil, &StatusError{Kind: KindValidation, Status: "TYPE MISMATCH", Err: err}
		case errors.Is(err, catalog.ErrForeignKeyExists):
			return nil, &StatusError{Kind: KindConflict, Status: "FOREIGN KEY ALREADY EXISTS", Err: err}
		default:
			return nil, err
		}
	}
	return okResult(), nil
}

func (e *Executor) execDropForeignKey(s *parser.DropForeignKeyStmt) (*Result, error) {
	_, t, err := e.schemaTarget(s.Table)
	if t == nil {
		return noopOr(err)
	}
	col, err := columnIndex(t, s.Column)
	if err != nil {
		return nil, err
	}
	n := t.RemoveForeignKeys(col)
	if n == 0 {
		return nil, validation("FOREIGN KEY NOT FOUND")
	}
	return &Result{Status: "OK", Affected: n}, nil
}

// execChangeType retypes a column, or steps it to the next type in the cycle.
// Existing cells are not revalidated; foreign keys touching the column are
// dropped.
func (e *Executor) execChangeType(s *parser.ChangeTypeStmt) (*Result, error) {
	db, t, err := e.schemaTarget(s.Table)
	if t == nil {
		return noopOr(err)
	}
	col, err := columnIndex(t, s.Column)
	if err != nil {
		return nil, err
	}
	typ := s.Type
	if s.Cycle {
		typ = t.Columns[col].Type.Next()
	}
	if err := db.SetColumnType(t, col, typ); err != nil {
		return nil, err
	}
	return okResult(), nil
}

func noopOr(err error) (*Result, error) {
	if err != nil {
		return nil, err
	}
	return noop(), nil
}

// typeError renders a failed record.Normalize for column col.
func typeError(err error, col string, t record.ColumnType) error {
	status := fmt.Sprintf("ERROR: Column '%s' expects %s", col, t)
	if t == record.ColBoolean {
		status += " (true/false)"
	}
	return &StatusError{Kind: KindIntegrity, Status: status, Err: err}
}
