package parser

import "github.com/tuannm99/flatsql/internal/record"

// Statement is the root interface for all commands. Each concrete type is
// one command kind with typed operands; identifiers are already upper-cased.
type Statement interface {
	stmtNode()
	// Command is the canonical command name used in status strings.
	Command() string
}

// ----- navigation -----

type OpenStmt struct {
	Name string
}

type BackStmt struct{}

type UndoStmt struct{}

type RedoStmt struct{}

// FocusStmt recentres one item, or lays out every item of the current level
// on a grid when All is set.
type FocusStmt struct {
	Name string
	All  bool
}

// ----- databases / tables -----

// CreateStmt creates one database per name at catalog level, or one table
// per name at database level.
type CreateStmt struct {
	Names []string
}

type DeleteStmt struct {
	Name string
}

type RenameStmt struct {
	Old string
	New string
}

// ----- fields -----

type AddFieldsStmt struct {
	Table  string
	Fields []string
}

type DeleteFieldsStmt struct {
	Table  string
	Fields []string
}

type RenameFieldStmt struct {
	Table string
	Old   string
	New   string
}

// MoveFieldStmt moves Field of Table to the position currently held by Dest.
type MoveFieldStmt struct {
	Table string
	Field string
	Dest  string
}

// ----- keys / types -----

// PrimaryKeyStmt toggles the primary key on Table.Column.
type PrimaryKeyStmt struct {
	Table  string
	Column string
}

type ForeignKeyStmt struct {
	Table     string
	Column    string
	RefTable  string
	RefColumn string
}

type DropForeignKeyStmt struct {
	Table  string
	Column string
}

// ChangeTypeStmt sets Column to Type, or advances it one step along the
// I -> S -> F -> B cycle when Cycle is set (no TO clause).
type ChangeTypeStmt struct {
	Table  string
	Column string
	Type   record.ColumnType
	Cycle  bool
}

// ----- rows -----

// AddDataStmt values are verbatim apart from trimming and outer quotes.
type AddDataStmt struct {
	Values []string
}

// SetStmt assigns Value to Column on rows matching Where (all rows when empty).
type SetStmt struct {
	Column string
	Value  string
	Where  string
}

type DeleteRowsStmt struct {
	Where string
}

// SelectStmt projects Columns (nil means every column) of rows matching Where.
type SelectStmt struct {
	Columns []string
	Where   string
}

// Star reports whether the projection is "*".
func (s *SelectStmt) Star() bool { return s.Columns == nil }

func (*OpenStmt) stmtNode()           {}
func (*BackStmt) stmtNode()           {}
func (*UndoStmt) stmtNode()           {}
func (*RedoStmt) stmtNode()           {}
func (*FocusStmt) stmtNode()          {}
func (*CreateStmt) stmtNode()         {}
func (*DeleteStmt) stmtNode()         {}
func (*RenameStmt) stmtNode()         {}
func (*AddFieldsStmt) stmtNode()      {}
func (*DeleteFieldsStmt) stmtNode()   {}
func (*RenameFieldStmt) stmtNode()    {}
func (*MoveFieldStmt) stmtNode()      {}
func (*PrimaryKeyStmt) stmtNode()     {}
func (*ForeignKeyStmt) stmtNode()     {}
func (*DropForeignKeyStmt) stmtNode() {}
func (*ChangeTypeStmt) stmtNode()     {}
func (*AddDataStmt) stmtNode()        {}
func (*SetStmt) stmtNode()            {}
func (*DeleteRowsStmt) stmtNode()     {}
func (*SelectStmt) stmtNode()         {}

func (*OpenStmt) Command() string           { return "OPEN" }
func (*BackStmt) Command() string           { return "BACK" }
func (*UndoStmt) Command() string           { return "UNDO" }
func (*RedoStmt) Command() string           { return "REDO" }
func (*FocusStmt) Command() string          { return "FOCUS" }
func (*CreateStmt) Command() string         { return "CREATE" }
func (*DeleteStmt) Command() string         { return "DELETE" }
func (*RenameStmt) Command() string         { return "RENAME" }
func (*AddFieldsStmt) Command() string      { return "ADD FIELDS" }
func (*DeleteFieldsStmt) Command() string   { return "DELETE FIELDS" }
func (*RenameFieldStmt) Command() string    { return "RENAME FIELD" }
func (*MoveFieldStmt) Command() string      { return "MOVE FIELD" }
func (*PrimaryKeyStmt) Command() string     { return "PRIMARY KEY" }
func (*ForeignKeyStmt) Command() string     { return "FOREIGN KEY" }
func (*DropForeignKeyStmt) Command() string { return "DROP FOREIGN KEY" }
func (*ChangeTypeStmt) Command() string     { return "CHANGE TYPE" }
func (*AddDataStmt) Command() string        { return "ADD DATA" }
func (*SetStmt) Command() string            { return "SET" }
func (*DeleteRowsStmt) Command() string     { return "DELETE ROWS" }
func (*SelectStmt) Command() string         { return "SELECT" }
