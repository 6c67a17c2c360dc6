package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tuannm99/flatsql/internal/record"
)

var (
	ErrDatabaseNotFound = errors.New("catalog: database not found")
	ErrTableNotFound    = errors.New("catalog: table not found")
	ErrColumnNotFound   = errors.New("catalog: column not found")
	ErrColumnExists     = errors.New("catalog: column already exists")
	ErrTypeMismatch     = errors.New("catalog: foreign key types differ")
	ErrForeignKeyExists = errors.New("catalog: foreign key already exists")
	ErrBadIndex         = errors.New("catalog: column index out of range")
)

// Level is the navigation depth a command runs against.
type Level uint8

const (
	LevelCatalog Level = iota
	LevelDatabase
	LevelTable
)

func (l Level) String() string {
	switch l {
	case LevelCatalog:
		return "CATALOG"
	case LevelDatabase:
		return "DATABASE"
	case LevelTable:
		return "TABLE"
	default:
		return fmt.Sprintf("Level(%d)", uint8(l))
	}
}

type Column struct {
	Name string            `yaml:"name"`
	Type record.ColumnType `yaml:"type"`
}

// ForeignKey is an edge from a column of the owning table to a column of
// RefTable in the same database. Tables are referenced by name.
type ForeignKey struct {
	Column    int    `yaml:"column"`
	RefTable  string `yaml:"ref_table"`
	RefColumn int    `yaml:"ref_column"`
}

type Table struct {
	Name        string       `yaml:"name"`
	X           float64      `yaml:"x"`
	Y           float64      `yaml:"y"`
	Columns     []Column     `yaml:"columns"`
	PrimaryKey  *int         `yaml:"primary_key,omitempty"`
	ForeignKeys []ForeignKey `yaml:"foreign_keys,omitempty"`
}

type Database struct {
	Name   string   `yaml:"name"`
	X      float64  `yaml:"x"`
	Y      float64  `yaml:"y"`
	Tables []*Table `yaml:"tables"`
}

// Catalog is the whole schema graph. It holds no row data.
type Catalog struct {
	Databases []*Database `yaml:"databases"`
}

// Normalize is the canonical form of every database, table and column name.
func Normalize(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

func New() *Catalog {
	return &Catalog{}
}

// NewTable builds a table whose columns all default to INTEGER.
func NewTable(name string, columns []string) *Table {
	t := &Table{Name: Normalize(name)}
	for _, c := range columns {
		t.Columns = append(t.Columns, Column{Name: Normalize(c), Type: record.ColInteger})
	}
	return t
}

func (c *Catalog) Database(name string) (*Database, bool) {
	name = Normalize(name)
	for _, db := range c.Databases {
		if db.Name == name {
			return db, true
		}
	}
	return nil, false
}

func (c *Catalog) AddDatabase(db *Database) {
	c.Databases = append(c.Databases, db)
}

func (c *Catalog) RemoveDatabase(name string) error {
	name = Normalize(name)
	for i, db := range c.Databases {
		if db.Name == name {
			c.Databases = append(c.Databases[:i], c.Databases[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrDatabaseNotFound, name)
}

// Clone returns a deep copy; no pointer is shared with c.
func (c *Catalog) Clone() *Catalog {
	if c == nil {
		return nil
	}
	out := &Catalog{Databases: make([]*Database, 0, len(c.Databases))}
	for _, db := range c.Databases {
		out.Databases = append(out.Databases, db.Clone())
	}
	return out
}

func (db *Database) Clone() *Database {
	cp := &Database{Name: db.Name, X: db.X, Y: db.Y, Tables: make([]*Table, 0, len(db.Tables))}
	for _, t := range db.Tables {
		cp.Tables = append(cp.Tables, t.Clone())
	}
	return cp
}

func (t *Table) Clone() *Table {
	cp := &Table{
		Name:    t.Name,
		X:       t.X,
		Y:       t.Y,
		Columns: append([]Column(nil), t.Columns...),
	}
	if t.PrimaryKey != nil {
		pk := *t.PrimaryKey
		cp.PrimaryKey = &pk
	}
	if len(t.ForeignKeys) > 0 {
		cp.ForeignKeys = append([]ForeignKey(nil), t.ForeignKeys...)
	}
	return cp
}

func (db *Database) Table(name string) (*Table, bool) {
	name = Normalize(name)
	for _, t := range db.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

func (db *Database) AddTable(t *Table) {
	db.Tables = append(db.Tables, t)
}

// UniqueTableName appends _1, _2, ... to base until neither a table of db
// nor onDisk (may be nil) claims the name.
func (db *Database) UniqueTableName(base string, onDisk func(string) bool) string {
	return UniqueName(Normalize(base), func(n string) bool {
		if _, ok := db.Table(n); ok {
			return true
		}
		return onDisk != nil && onDisk(n)
	})
}

// UniqueName returns base, or base_N for the smallest N >= 1 that taken rejects.
func UniqueName(base string, taken func(string) bool) string {
	name := base
	for n := 1; taken(name); n++ {
		name = fmt.Sprintf("%s_%d", base, n)
	}
	return name
}

func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// ColumnIndex returns the position of name, or -1.
func (t *Table) ColumnIndex(name string) int {
	name = Normalize(name)
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (t *Table) HasPrimaryKey() bool { return t.PrimaryKey != nil }

func (t *Table) IsPrimaryKey(idx int) bool {
	return t.PrimaryKey != nil && *t.PrimaryKey == idx
}

func (t *Table) SetPrimaryKey(idx int) error {
	if idx < 0 || idx >= len(t.Columns) {
		return fmt.Errorf("%w: %d", ErrBadIndex, idx)
	}
	t.PrimaryKey = &idx
	return nil
}

func (t *Table) ClearPrimaryKey() { t.PrimaryKey = nil }

// AddColumns appends INTEGER columns. It rejects duplicates inside names as
// well as names already present.
func (t *Table) AddColumns(names ...string) error {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = Normalize(n)
		if _, dup := seen[n]; dup {
			return fmt.Errorf("%w: %s (repeated)", ErrColumnExists, n)
		}
		if t.ColumnIndex(n) >= 0 {
			return fmt.Errorf("%w: %s", ErrColumnExists, n)
		}
		seen[n] = struct{}{}
	}
	for _, n := range names {
		t.Columns = append(t.Columns, Column{Name: Normalize(n), Type: record.ColInteger})
	}
	return nil
}

func (t *Table) RenameColumn(oldName, newName string) error {
	idx := t.ColumnIndex(oldName)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrColumnNotFound, Normalize(oldName))
	}
	newName = Normalize(newName)
	if newName == "" {
		return fmt.Errorf("%w: empty name", ErrColumnNotFound)
	}
	if other := t.ColumnIndex(newName); other >= 0 && other != idx {
		return fmt.Errorf("%w: %s", ErrColumnExists, newName)
	}
	t.Columns[idx].Name = newName
	return nil
}

func (t *Table) foreignKeyOn(col int) bool {
	for _, fk := range t.ForeignKeys {
		if fk.Column == col {
			return true
		}
	}
	return false
}
