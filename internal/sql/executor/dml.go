package executor

import (
	"errors"
	"fmt"

	"github.com/tuannm99/flatsql/internal/catalog"
	"github.com/tuannm99/flatsql/internal/integrity"
	"github.com/tuannm99/flatsql/internal/record"
	"github.com/tuannm99/flatsql/internal/sql/parser"
	"github.com/tuannm99/flatsql/internal/sql/where"
)

// rowTarget returns the open database and table, or nils when no table is
// open and the row command is a no-op.
func (e *Executor) rowTarget() (*catalog.Database, *catalog.Table) {
	if e.S.Level() != catalog.LevelTable {
		return nil, nil
	}
	return e.S.OpenDatabase(), e.S.OpenTable()
}

// loadRows reads the data rows of t, each padded to the schema width.
func (e *Executor) loadRows(db *catalog.Database, t *catalog.Table) ([][]string, error) {
	td, err := e.S.Storage().ReadTable(db.Name, t.Name)
	if err != nil {
		return nil, fmt.Errorf("load %s.%s: %w", db.Name, t.Name, err)
	}
	for i := range td.Rows {
		td.Rows[i] = padTo(td.Rows[i], len(t.Columns))
	}
	return td.Rows, nil
}

// saveRows rewrites t with the schema's column names as header.
func (e *Executor) saveRows(db *catalog.Database, t *catalog.Table, rows [][]string) error {
	return e.S.Storage().WriteTable(db.Name, t.Name, t.ColumnNames(), rows)
}

func padTo(row []string, width int) []string {
	for len(row) < width {
		row = append(row, "")
	}
	return row
}

// keyError maps integrity failures to their status strings. Anything else is
// returned unchanged and reported as internal.
func keyError(t *catalog.Table, values []string, err error) error {
	var ref *integrity.ReferenceError
	switch {
	case errors.As(err, &ref):
		return violation(err, "ERROR: Foreign key '%s' does not exist in table '%s' column '%s'",
			ref.Value, ref.RefTable, ref.RefColumn)
	case errors.Is(err, integrity.ErrNullPrimaryKey):
		return violation(err, "ERROR: Primary key '%s' cannot be None", t.Columns[*t.PrimaryKey].Name)
	case errors.Is(err, integrity.ErrDuplicateKey):
		pk := *t.PrimaryKey
		return violation(err, "ERROR: Duplicate primary key '%s' in column '%s'", values[pk], t.Columns[pk].Name)
	default:
		return err
	}
}

// execAddData appends one row after arity, type and key checks. The table
// file is untouched when any check fails.
func (e *Executor) execAddData(s *parser.AddDataStmt) (*Result, error) {
	db, t := e.rowTarget()
	if t == nil {
		return noop(), nil
	}
	if len(s.Values) != len(t.Columns) {
		return nil, validation("ERROR: Expected %d values, got %d", len(t.Columns), len(s.Values))
	}

	values := make([]string, len(s.Values))
	for i, raw := range s.Values {
		col := t.Columns[i]
		if record.IsNull(raw) && t.IsPrimaryKey(i) {
			return nil, violation(integrity.ErrNullPrimaryKey, "ERROR: Primary key '%s' cannot be None", col.Name)
		}
		v, err := record.Normalize(col.Type, raw)
		if err != nil {
			return nil, typeError(err, col.Name, col.Type)
		}
		values[i] = v
	}

	rows, err := e.loadRows(db, t)
	if err != nil {
		return nil, err
	}
	if err := e.S.Checker().CheckInsert(db, t, rows, values); err != nil {
		return nil, keyError(t, values, err)
	}

	rows = append(rows, values)
	if err := e.saveRows(db, t, rows); err != nil {
		return nil, err
	}
	return &Result{Status: "1 ROW ADDED", Affected: 1}, nil
}

// execSet assigns one value to a column on every matching row. The value is
// type-checked, a primary key column stays unique and non-empty, and a
// foreign key column must reference an existing value.
func (e *Executor) execSet(s *parser.SetStmt) (*Result, error) {
	db, t := e.rowTarget()
	if t == nil {
		return noop(), nil
	}
	idx := t.ColumnIndex(s.Column)
	if idx < 0 {
		return nil, validation("ERROR: Column %s does not exist", s.Column)
	}
	col := t.Columns[idx]
	if record.IsNull(s.Value) && t.IsPrimaryKey(idx) {
		return nil, violation(integrity.ErrNullPrimaryKey, "ERROR: Primary key '%s' cannot be None", col.Name)
	}
	value, err := record.Normalize(col.Type, s.Value)
	if err != nil {
		return nil, typeError(err, col.Name, col.Type)
	}

	rows, err := e.loadRows(db, t)
	if err != nil {
		return nil, err
	}
	clause := where.Parse(s.Where)
	header := t.ColumnNames()

	var matched []int
	for i, row := range rows {
		if clause.Match(header, row) {
			matched = append(matched, i)
		}
	}
	if len(matched) == 0 {
		return &Result{Status: "0 ROWS UPDATED"}, nil
	}

	probe := make([]string, len(t.Columns))
	probe[idx] = value
	if t.IsPrimaryKey(idx) {
		if len(matched) > 1 {
			return nil, violation(integrity.ErrDuplicateKey,
				"ERROR: Duplicate primary key '%s' in column '%s'", value, col.Name)
		}
		if err := e.S.Checker().CheckPrimaryKey(t, rows, probe, matched[0]); err != nil {
			return nil, keyError(t, probe, err)
		}
	}
	if t.HasForeignKey(idx) {
		onlyCol := &catalog.Table{Name: t.Name, Columns: t.Columns}
		for _, fk := range t.ForeignKeys {
			if fk.Column == idx {
				onlyCol.ForeignKeys = append(onlyCol.ForeignKeys, fk)
			}
		}
		if err := e.S.Checker().CheckForeignKeys(db, onlyCol, probe); err != nil {
			return nil, keyError(t, probe, err)
		}
	}

	for _, i := range matched {
		rows[i][idx] = value
	}
	if err := e.saveRows(db, t, rows); err != nil {
		return nil, err
	}
	return &Result{Status: fmt.Sprintf("%d ROWS UPDATED", len(matched)), Affected: len(matched)}, nil
}

func (e *Executor) execDeleteRows(s *parser.DeleteRowsStmt) (*Result, error) {
	db, t := e.rowTarget()
	if t == nil {
		return noop(), nil
	}
	rows, err := e.loadRows(db, t)
	if err != nil {
		return nil, err
	}
	clause := where.Parse(s.Where)
	header := t.ColumnNames()

	kept := rows[:0]
	deleted := 0
	for _, row := range rows {
		if clause.Match(header, row) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	if deleted > 0 {
		if err := e.saveRows(db, t, kept); err != nil {
			return nil, err
		}
	}
	return &Result{Status: fmt.Sprintf("%d ROWS DELETED", deleted), Affected: deleted}, nil
}

// execSelect projects matching rows into the result file. SELECT * with no
// WHERE clears the result file and returns the base table instead.
func (e *Executor) execSelect(s *parser.SelectStmt) (*Result, error) {
	db, t := e.rowTarget()
	if t == nil {
		return noop(), nil
	}
	header := t.ColumnNames()

	cols := make([]int, 0, len(header))
	if s.Star() {
		for i := range header {
			cols = append(cols, i)
		}
	} else {
		for _, name := range s.Columns {
			idx := t.ColumnIndex(name)
			if idx < 0 {
				return nil, validation("ERROR: Column %s does not exist", name)
			}
			cols = append(cols, idx)
		}
	}

	rows, err := e.loadRows(db, t)
	if err != nil {
		return nil, err
	}

	if s.Star() && s.Where == "" {
		if err := e.S.Storage().RemoveResult(); err != nil {
			return nil, err
		}
		return &Result{
			Status:   fmt.Sprintf("%d ROWS FOUND", len(rows)),
			Columns:  header,
			Rows:     rows,
			Affected: len(rows),
		}, nil
	}

	clause := where.Parse(s.Where)
	outHeader := make([]string, len(cols))
	for i, c := range cols {
		outHeader[i] = header[c]
	}
	var out [][]string
	for _, row := range rows {
		if !clause.Match(header, row) {
			continue
		}
		proj := make([]string, len(cols))
		for i, c := range cols {
			proj[i] = row[c]
		}
		out = append(out, proj)
	}

	if err := e.S.Storage().WriteResult(outHeader, out); err != nil {
		return nil, err
	}
	return &Result{
		Status:   fmt.Sprintf("%d ROWS FOUND", len(out)),
		Columns:  outHeader,
		Rows:     out,
		Affected: len(out),
	}, nil
}
