// Package integrity enforces primary-key uniqueness and foreign-key existence
// against the row data held by the storage layer.
package integrity

import (
	"errors"
	"fmt"

	"github.com/tuannm99/flatsql/internal/catalog"
	"github.com/tuannm99/flatsql/internal/storage"
)

var (
	ErrNullPrimaryKey   = errors.New("integrity: primary key cannot be empty")
	ErrDuplicateKey     = errors.New("integrity: duplicate primary key")
	ErrMissingReference = errors.New("integrity: foreign key target missing")
)

// TableReader is the slice of the storage adapter the checker needs.
type TableReader interface {
	ReadTable(db, table string) (*storage.TableData, error)
}

// ReferenceError names the value and the referenced table/column that did
// not contain it.
type ReferenceError struct {
	Value     string
	RefTable  string
	RefColumn string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%q not found in %s.%s", e.Value, e.RefTable, e.RefColumn)
}

func (e *ReferenceError) Unwrap() error { return ErrMissingReference }

type Checker struct {
	Tables TableReader
}

func NewChecker(r TableReader) *Checker {
	return &Checker{Tables: r}
}

// CheckPrimaryKey validates the PK cell of values against rows. skipRow is
// the index of a row being replaced (-1 on insert) and is left out of the
// uniqueness scan.
func (c *Checker) CheckPrimaryKey(t *catalog.Table, rows [][]string, values []string, skipRow int) error {
	if !t.HasPrimaryKey() {
		return nil
	}
	pk := *t.PrimaryKey
	if pk >= len(values) {
		return fmt.Errorf("%w: column %d", catalog.ErrBadIndex, pk)
	}
	v := values[pk]
	if v == "" {
		return fmt.Errorf("%w: %s", ErrNullPrimaryKey, t.Columns[pk].Name)
	}
	for i, row := range rows {
		if i == skipRow || pk >= len(row) {
			continue
		}
		if row[pk] == v {
			return fmt.Errorf("%w: %s = %s", ErrDuplicateKey, t.Columns[pk].Name, v)
		}
	}
	return nil
}

// CheckForeignKeys loads every referenced table and requires an exact match
// for each non-empty source value.
func (c *Checker) CheckForeignKeys(db *catalog.Database, t *catalog.Table, values []string) error {
	for _, fk := range t.ForeignKeys {
		if fk.Column >= len(values) || values[fk.Column] == "" {
			continue
		}
		if err := c.checkReference(db, fk, values[fk.Column]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Checker) checkReference(db *catalog.Database, fk catalog.ForeignKey, v string) error {
	ref, ok := db.Table(fk.RefTable)
	if !ok || fk.RefColumn >= len(ref.Columns) {
		return &ReferenceError{Value: v, RefTable: fk.RefTable, RefColumn: fmt.Sprintf("#%d", fk.RefColumn)}
	}
	refCol := ref.Columns[fk.RefColumn].Name

	td, err := c.Tables.ReadTable(db.Name, ref.Name)
	if err != nil {
		return fmt.Errorf("integrity: load %s.%s: %w", db.Name, ref.Name, err)
	}
	for _, row := range td.Rows {
		if fk.RefColumn < len(row) && row[fk.RefColumn] == v {
			return nil
		}
	}
	return &ReferenceError{Value: v, RefTable: ref.Name, RefColumn: refCol}
}

// CheckInsert runs the primary- and foreign-key checks for a new row.
func (c *Checker) CheckInsert(db *catalog.Database, t *catalog.Table, rows [][]string, values []string) error {
	if err := c.CheckPrimaryKey(t, rows, values, -1); err != nil {
		return err
	}
	return c.CheckForeignKeys(db, t, values)
}
