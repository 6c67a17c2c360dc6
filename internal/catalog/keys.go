package catalog

import (
	"fmt"

	"github.com/tuannm99/flatsql/internal/record"
)

// shiftMoved maps a column index across a move of src to dst.
func shiftMoved(i, src, dst int) int {
	switch {
	case i == src:
		return dst
	case src < i && i <= dst:
		return i - 1
	case dst <= i && i < src:
		return i + 1
	default:
		return i
	}
}

// MoveColumn moves column src of table to position dst and rewrites every
// primary/foreign key index that points into the table.
func (db *Database) MoveColumn(table *Table, src, dst int) error {
	n := len(table.Columns)
	if src < 0 || src >= n || dst < 0 || dst >= n {
		return fmt.Errorf("%w: move %d -> %d of %d", ErrBadIndex, src, dst, n)
	}
	if src == dst {
		return nil
	}

	col := table.Columns[src]
	cols := append(table.Columns[:src:src], table.Columns[src+1:]...)
	cols = append(cols[:dst], append([]Column{col}, cols[dst:]...)...)
	table.Columns = cols

	if table.PrimaryKey != nil {
		pk := shiftMoved(*table.PrimaryKey, src, dst)
		table.PrimaryKey = &pk
	}
	for i := range table.ForeignKeys {
		table.ForeignKeys[i].Column = shiftMoved(table.ForeignKeys[i].Column, src, dst)
	}
	for _, other := range db.Tables {
		for i := range other.ForeignKeys {
			fk := &other.ForeignKeys[i]
			if fk.RefTable == table.Name {
				fk.RefColumn = shiftMoved(fk.RefColumn, src, dst)
			}
		}
	}
	return nil
}

// DeleteColumn removes column idx of table. Keys touching idx are dropped,
// keys past idx shift down by one.
func (db *Database) DeleteColumn(table *Table, idx int) error {
	if idx < 0 || idx >= len(table.Columns) {
		return fmt.Errorf("%w: %d", ErrBadIndex, idx)
	}

	table.Columns = append(table.Columns[:idx:idx], table.Columns[idx+1:]...)

	if table.PrimaryKey != nil {
		switch pk := *table.PrimaryKey; {
		case pk == idx:
			table.PrimaryKey = nil
		case pk > idx:
			pk--
			table.PrimaryKey = &pk
		}
	}

	kept := table.ForeignKeys[:0]
	for _, fk := range table.ForeignKeys {
		if fk.Column == idx {
			continue
		}
		if fk.Column > idx {
			fk.Column--
		}
		kept = append(kept, fk)
	}
	table.ForeignKeys = kept

	for _, other := range db.Tables {
		kept := other.ForeignKeys[:0]
		for _, fk := range other.ForeignKeys {
			if fk.RefTable == table.Name {
				if fk.RefColumn == idx {
					continue
				}
				if fk.RefColumn > idx {
					fk.RefColumn--
				}
			}
			kept = append(kept, fk)
		}
		other.ForeignKeys = kept
	}
	return nil
}

// SetColumnType changes the declared type of a column. Foreign keys that use
// the column as source or target no longer type-check and are dropped.
func (db *Database) SetColumnType(table *Table, idx int, t record.ColumnType) error {
	if idx < 0 || idx >= len(table.Columns) {
		return fmt.Errorf("%w: %d", ErrBadIndex, idx)
	}
	if table.Columns[idx].Type == t {
		return nil
	}
	table.Columns[idx].Type = t

	table.RemoveForeignKeys(idx)
	for _, other := range db.Tables {
		kept := other.ForeignKeys[:0]
		for _, fk := range other.ForeignKeys {
			if fk.RefTable == table.Name && fk.RefColumn == idx {
				continue
			}
			kept = append(kept, fk)
		}
		other.ForeignKeys = kept
	}
	return nil
}

// AddForeignKey links table.col to ref.refCol. Both columns must share a type.
func (db *Database) AddForeignKey(table *Table, col int, ref *Table, refCol int) error {
	if col < 0 || col >= len(table.Columns) || refCol < 0 || refCol >= len(ref.Columns) {
		return ErrBadIndex
	}
	if table.Columns[col].Type != ref.Columns[refCol].Type {
		return fmt.Errorf("%w: %s.%s is %s, %s.%s is %s", ErrTypeMismatch,
			table.Name, table.Columns[col].Name, table.Columns[col].Type,
			ref.Name, ref.Columns[refCol].Name, ref.Columns[refCol].Type)
	}
	fk := ForeignKey{Column: col, RefTable: ref.Name, RefColumn: refCol}
	for _, existing := range table.ForeignKeys {
		if existing == fk {
			return ErrForeignKeyExists
		}
	}
	table.ForeignKeys = append(table.ForeignKeys, fk)
	return nil
}

// HasForeignKey reports whether col is the source of any foreign key.
func (t *Table) HasForeignKey(col int) bool {
	return t.foreignKeyOn(col)
}

// RemoveForeignKeys drops every foreign key whose source is col and returns
// how many were removed.
func (t *Table) RemoveForeignKeys(col int) int {
	kept := t.ForeignKeys[:0]
	removed := 0
	for _, fk := range t.ForeignKeys {
		if fk.Column == col {
			removed++
			continue
		}
		kept = append(kept, fk)
	}
	t.ForeignKeys = kept
	return removed
}

// RenameTable renames a table and every foreign key that refers to it.
func (db *Database) RenameTable(table *Table, newName string) {
	oldName := table.Name
	table.Name = Normalize(newName)
	for _, other := range db.Tables {
		for i := range other.ForeignKeys {
			if other.ForeignKeys[i].RefTable == oldName {
				other.ForeignKeys[i].RefTable = table.Name
			}
		}
	}
}

// DropTable removes the named table along with foreign keys pointing at it.
func (db *Database) DropTable(name string) error {
	name = Normalize(name)
	idx := -1
	for i, t := range db.Tables {
		if t.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	db.Tables = append(db.Tables[:idx], db.Tables[idx+1:]...)

	for _, other := range db.Tables {
		kept := other.ForeignKeys[:0]
		for _, fk := range other.ForeignKeys {
			if fk.RefTable != name {
				kept = append(kept, fk)
			}
		}
		other.ForeignKeys = kept
	}
	return nil
}
