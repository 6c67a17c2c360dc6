package parser

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/tuannm99/flatsql/internal/record"
)

var (
	// ErrInvalidQuery is returned when the leading keyword names no command.
	ErrInvalidQuery = errors.New("INVALID QUERY")
	// ErrSyntax is returned when a known command has the wrong shape.
	ErrSyntax = errors.New("INVALID SYNTAX")
)

// keywords lists every leading word a command may start with.
var keywords = map[string]struct{}{
	"CREATE": {}, "DELETE": {}, "RENAME": {}, "OPEN": {}, "BACK": {},
	"UNDO": {}, "REDO": {}, "FOCUS": {}, "ADD": {}, "MOVE": {},
	"PRIMARY": {}, "FOREIGN": {}, "DROP": {}, "CHANGE": {},
	"SET": {}, "SELECT": {},
}

// Keywords returns the leading command words, for completion.
func Keywords() []string {
	return []string{
		"CREATE", "DELETE", "DELETE FIELDS", "DELETE ROWS WHERE", "RENAME",
		"RENAME FIELD", "OPEN", "BACK", "UNDO", "REDO", "FOCUS", "FOCUS <ALL>",
		"ADD FIELDS TO", "ADD DATA(", "MOVE FIELD", "PRIMARY KEY", "FOREIGN KEY",
		"REFERENCES", "DROP FOREIGN KEY", "CHANGE TYPE", "SET", "SELECT", "WHERE",
		"AND", "OR", "LIKE",
	}
}

// Parse turns one command string into a Statement. Keywords are matched
// case-insensitively; a trailing ';' is accepted and ignored.
func Parse(cmd string) (Statement, error) {
	s := strings.TrimSpace(cmd)
	s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	if s == "" {
		return nil, ErrInvalidQuery
	}

	head := strings.ToUpper(strings.Fields(s)[0])
	if i := strings.IndexAny(head, punctChars); i >= 0 {
		head = head[:i]
	}
	if _, ok := keywords[head]; !ok {
		return nil, ErrInvalidQuery
	}

	toks, err := lex(s)
	if err != nil {
		return nil, err
	}
	p := &parser{src: s, toks: toks, i: 1}

	switch head {
	case "CREATE":
		return p.parseCreate()
	case "DELETE":
		return p.parseDelete()
	case "RENAME":
		return p.parseRename()
	case "OPEN":
		name, err := p.ident("name")
		if err != nil {
			return nil, err
		}
		return &OpenStmt{Name: name}, p.done()
	case "BACK":
		return &BackStmt{}, p.done()
	case "UNDO":
		return &UndoStmt{}, p.done()
	case "REDO":
		return &RedoStmt{}, p.done()
	case "FOCUS":
		return p.parseFocus()
	case "ADD":
		return p.parseAdd()
	case "MOVE":
		return p.parseMove()
	case "PRIMARY":
		return p.parsePrimaryKey()
	case "FOREIGN":
		return p.parseForeignKey()
	case "DROP":
		return p.parseDropForeignKey()
	case "CHANGE":
		return p.parseChangeType()
	case "SET":
		return p.parseSet()
	case "SELECT":
		return p.parseSelect()
	default:
		return nil, ErrInvalidQuery
	}
}

type parser struct {
	src  string
	toks []token
	i    int
}

func (p *parser) peek() (token, bool) {
	if p.i >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.i], true
}

func (p *parser) peekIs(kw string) bool {
	t, ok := p.peek()
	return ok && t.is(kw)
}

func (p *parser) next() (token, bool) {
	t, ok := p.peek()
	if ok {
		p.i++
	}
	return t, ok
}

func syntaxErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSyntax, fmt.Sprintf(format, args...))
}

func (p *parser) expect(kw string) error {
	t, ok := p.next()
	if !ok {
		return syntaxErr("expected %s", kw)
	}
	if !t.is(kw) {
		return syntaxErr("expected %s, got %q", kw, t.text)
	}
	return nil
}

func (p *parser) expectPunct(punct string) (token, error) {
	t, ok := p.next()
	if !ok {
		return token{}, syntaxErr("expected %q", punct)
	}
	if !t.isPunct(punct) {
		return token{}, syntaxErr("expected %q, got %q", punct, t.text)
	}
	return t, nil
}

// done fails if tokens are left over.
func (p *parser) done() error {
	if t, ok := p.peek(); ok {
		return syntaxErr("unexpected %q", t.text)
	}
	return nil
}

// ident consumes one identifier and returns it upper-cased.
// Rules: first char letter or '_', rest letters, digits or '_'.
func (p *parser) ident(what string) (string, error) {
	t, ok := p.next()
	if !ok {
		return "", syntaxErr("missing %s", what)
	}
	if t.kind != tokWord || !validIdent(t.text) {
		return "", syntaxErr("invalid %s %q", what, t.text)
	}
	return strings.ToUpper(t.text), nil
}

func validIdent(id string) bool {
	for i, r := range id {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return id != ""
}

// identList parses ident (',' ident)*.
func (p *parser) identList(what string) ([]string, error) {
	var out []string
	for {
		id, err := p.ident(what)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
		t, ok := p.peek()
		if !ok || !t.isPunct(",") {
			return out, nil
		}
		p.i++
	}
}

// tableColumn parses table '(' column ')'.
func (p *parser) tableColumn() (string, string, error) {
	table, err := p.ident("table name")
	if err != nil {
		return "", "", err
	}
	if _, err := p.expectPunct("("); err != nil {
		return "", "", err
	}
	col, err := p.ident("column name")
	if err != nil {
		return "", "", err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return "", "", err
	}
	return table, col, nil
}

// whereAt returns the token index of the first unquoted WHERE at or after
// p.i, or -1.
func (p *parser) whereAt() int {
	for j := p.i; j < len(p.toks); j++ {
		if p.toks[j].is("WHERE") {
			return j
		}
	}
	return -1
}

// whereText returns the raw clause following the WHERE token at j.
func (p *parser) whereText(j int) (string, error) {
	clause := strings.TrimSpace(p.src[p.toks[j].end:])
	if clause == "" {
		return "", syntaxErr("empty WHERE clause")
	}
	return clause, nil
}

// ---- commands ----

func (p *parser) parseCreate() (Statement, error) {
	names, err := p.identList("name")
	if err != nil {
		return nil, err
	}
	return &CreateStmt{Names: names}, p.done()
}

func (p *parser) parseDelete() (Statement, error) {
	switch {
	case p.peekIs("FIELDS"):
		p.i++
		fields, err := p.identList("field name")
		if err != nil {
			return nil, err
		}
		if err := p.expect("FROM"); err != nil {
			return nil, err
		}
		table, err := p.ident("table name")
		if err != nil {
			return nil, err
		}
		return &DeleteFieldsStmt{Table: table, Fields: fields}, p.done()

	case p.peekIs("ROWS"):
		p.i++
		if !p.peekIs("WHERE") {
			return nil, syntaxErr("DELETE ROWS requires WHERE")
		}
		where, err := p.whereText(p.i)
		if err != nil {
			return nil, err
		}
		return &DeleteRowsStmt{Where: where}, nil

	default:
		name, err := p.ident("name")
		if err != nil {
			return nil, err
		}
		return &DeleteStmt{Name: name}, p.done()
	}
}

func (p *parser) parseRename() (Statement, error) {
	if p.peekIs("FIELD") {
		p.i++
		oldName, err := p.ident("field name")
		if err != nil {
			return nil, err
		}
		if err := p.expect("TO"); err != nil {
			return nil, err
		}
		newName, err := p.ident("field name")
		if err != nil {
			return nil, err
		}
		if err := p.expect("IN"); err != nil {
			return nil, err
		}
		table, err := p.ident("table name")
		if err != nil {
			return nil, err
		}
		return &RenameFieldStmt{Table: table, Old: oldName, New: newName}, p.done()
	}

	oldName, err := p.ident("name")
	if err != nil {
		return nil, err
	}
	if err := p.expect("TO"); err != nil {
		return nil, err
	}
	newName, err := p.ident("name")
	if err != nil {
		return nil, err
	}
	return &RenameStmt{Old: oldName, New: newName}, p.done()
}

func (p *parser) parseFocus() (Statement, error) {
	if t, ok := p.peek(); ok {
		rest := strings.Join(strings.Fields(p.src[t.pos:]), "")
		if strings.EqualFold(rest, "<ALL>") {
			return &FocusStmt{All: true}, nil
		}
	}
	name, err := p.ident("name")
	if err != nil {
		return nil, err
	}
	return &FocusStmt{Name: name}, p.done()
}

func (p *parser) parseAdd() (Statement, error) {
	switch {
	case p.peekIs("FIELDS"):
		p.i++
		if err := p.expect("TO"); err != nil {
			return nil, err
		}
		table, err := p.ident("table name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct("("); err != nil {
			return nil, err
		}
		fields, err := p.identList("field name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return &AddFieldsStmt{Table: table, Fields: fields}, p.done()

	case p.peekIs("DATA"):
		p.i++
		open, err := p.expectPunct("(")
		if err != nil {
			return nil, syntaxErr("use ADD DATA(v1, v2, ...)")
		}
		last := p.toks[len(p.toks)-1]
		if !last.isPunct(")") || last.pos < open.end {
			return nil, syntaxErr("use ADD DATA(v1, v2, ...)")
		}
		return &AddDataStmt{Values: splitValues(p.src[open.end:last.pos])}, nil

	default:
		return nil, syntaxErr("expected FIELDS or DATA after ADD")
	}
}

func (p *parser) parseMove() (Statement, error) {
	if err := p.expect("FIELD"); err != nil {
		return nil, err
	}
	table, col, err := p.tableColumn()
	if err != nil {
		return nil, err
	}
	if err := p.expect("TO"); err != nil {
		return nil, err
	}
	dest, err := p.ident("field name")
	if err != nil {
		return nil, err
	}
	return &MoveFieldStmt{Table: table, Field: col, Dest: dest}, p.done()
}

func (p *parser) parsePrimaryKey() (Statement, error) {
	if err := p.expect("KEY"); err != nil {
		return nil, err
	}
	table, col, err := p.tableColumn()
	if err != nil {
		return nil, err
	}
	return &PrimaryKeyStmt{Table: table, Column: col}, p.done()
}

func (p *parser) parseForeignKey() (Statement, error) {
	if err := p.expect("KEY"); err != nil {
		return nil, err
	}
	table, col, err := p.tableColumn()
	if err != nil {
		return nil, err
	}
	if err := p.expect("REFERENCES"); err != nil {
		return nil, err
	}
	refTable, refCol, err := p.tableColumn()
	if err != nil {
		return nil, err
	}
	return &ForeignKeyStmt{Table: table, Column: col, RefTable: refTable, RefColumn: refCol}, p.done()
}

func (p *parser) parseDropForeignKey() (Statement, error) {
	if err := p.expect("FOREIGN"); err != nil {
		return nil, err
	}
	if err := p.expect("KEY"); err != nil {
		return nil, err
	}
	table, col, err := p.tableColumn()
	if err != nil {
		return nil, err
	}
	return &DropForeignKeyStmt{Table: table, Column: col}, p.done()
}

func (p *parser) parseChangeType() (Statement, error) {
	if err := p.expect("TYPE"); err != nil {
		return nil, err
	}
	table, col, err := p.tableColumn()
	if err != nil {
		return nil, err
	}
	if _, more := p.peek(); !more {
		return &ChangeTypeStmt{Table: table, Column: col, Cycle: true}, nil
	}
	if err := p.expect("TO"); err != nil {
		return nil, err
	}
	t, ok := p.next()
	if !ok {
		return nil, syntaxErr("missing type")
	}
	ct, err := record.ParseColumnType(t.text)
	if err != nil {
		return nil, syntaxErr("unknown type %q", t.text)
	}
	return &ChangeTypeStmt{Table: table, Column: col, Type: ct}, p.done()
}

// parseSet handles SET col = value [WHERE clause]. The value is the raw text
// between '=' and WHERE.
func (p *parser) parseSet() (Statement, error) {
	col, err := p.ident("column name")
	if err != nil {
		return nil, syntaxErr("SET syntax must be SET column = value")
	}
	eq, err := p.expectPunct("=")
	if err != nil {
		return nil, syntaxErr("SET syntax must be SET column = value")
	}

	stmt := &SetStmt{Column: col}
	end := len(p.src)
	if j := p.whereAt(); j >= 0 {
		if stmt.Where, err = p.whereText(j); err != nil {
			return nil, err
		}
		end = p.toks[j].pos
	}
	stmt.Value = unquote(strings.TrimSpace(p.src[eq.end:end]))
	return stmt, nil
}

func (p *parser) parseSelect() (Statement, error) {
	stmt := &SelectStmt{}
	t, ok := p.peek()
	switch {
	case !ok:
		return nil, syntaxErr("SELECT needs a column list or *")
	case t.kind == tokWord && t.text == "*":
		p.i++
	default:
		cols, err := p.identList("column name")
		if err != nil {
			return nil, err
		}
		stmt.Columns = cols
	}

	if p.peekIs("WHERE") {
		where, err := p.whereText(p.i)
		if err != nil {
			return nil, err
		}
		stmt.Where = where
		return stmt, nil
	}
	return stmt, p.done()
}

// ---- values ----

// splitValues splits a comma-separated value list. A quote opens a quoted
// value only at the start of a value; commas inside it are kept.
func splitValues(s string) []string {
	var (
		out   []string
		cur   strings.Builder
		quote byte
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			cur.WriteByte(c)
		case (c == '"' || c == '\'') && strings.TrimSpace(cur.String()) == "":
			quote = c
			cur.WriteByte(c)
		case c == ',':
			out = append(out, unquote(strings.TrimSpace(cur.String())))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(out, unquote(strings.TrimSpace(cur.String())))
}

// unquote strips one pair of matching outer quotes.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
