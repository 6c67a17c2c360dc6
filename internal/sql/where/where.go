// Package where evaluates the filter clause shared by SET, DELETE ROWS and
// SELECT: an OR of AND-groups of "<column> <op> <value>" conditions, no
// parentheses.
package where

import (
	"strconv"
	"strings"
)

type Op string

const (
	OpGE   Op = ">="
	OpLE   Op = "<="
	OpNE   Op = "!="
	OpGT   Op = ">"
	OpLT   Op = "<"
	OpLike Op = "LIKE"
	OpEQ   Op = "="
)

// opOrder is the split priority: the first operator found in a condition
// wins, so two-character operators come before their one-character prefixes.
var opOrder = []struct {
	op  Op
	tok string
}{
	{OpGE, ">="},
	{OpLE, "<="},
	{OpNE, "!="},
	{OpGT, ">"},
	{OpLT, "<"},
	{OpLike, " LIKE "},
	{OpEQ, "="},
}

// Cond is one "<column> <op> <value>" test. Column is upper-cased.
type Cond struct {
	Column string
	Op     Op
	Value  string
}

// Clause is a disjunction of conjunctions. A zero Clause matches every row.
type Clause struct {
	Or [][]Cond
}

// Parse splits raw into OR-groups and AND-conditions. It never fails: a
// condition with no operator is kept with an empty Op and never matches.
func Parse(raw string) Clause {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Clause{}
	}
	var c Clause
	for _, orPart := range splitKeyword(raw, "OR") {
		var group []Cond
		for _, andPart := range splitKeyword(strings.TrimSpace(orPart), "AND") {
			group = append(group, parseCond(strings.TrimSpace(andPart)))
		}
		c.Or = append(c.Or, group)
	}
	return c
}

func parseCond(s string) Cond {
	up := asciiUpper(s)
	for _, o := range opOrder {
		i := strings.Index(up, o.tok)
		if i < 0 {
			continue
		}
		val := strings.TrimSpace(s[i+len(o.tok):])
		if o.op == OpLike {
			val = strings.Trim(val, "'")
			val = strings.Trim(val, `"`)
		}
		return Cond{
			Column: strings.ToUpper(strings.TrimSpace(s[:i])),
			Op:     o.op,
			Value:  val,
		}
	}
	return Cond{Column: strings.ToUpper(strings.TrimSpace(s))}
}

// splitKeyword splits s on " KW " matched case-insensitively.
func splitKeyword(s, kw string) []string {
	sep := " " + kw + " "
	up := asciiUpper(s)
	var out []string
	for {
		i := strings.Index(up, sep)
		if i < 0 {
			return append(out, s)
		}
		out = append(out, s[:i])
		s, up = s[i+len(sep):], up[i+len(sep):]
	}
}

// asciiUpper upper-cases ASCII letters only, so byte offsets found in the
// result are valid in the input.
func asciiUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// Empty reports whether the clause has no conditions.
func (c Clause) Empty() bool { return len(c.Or) == 0 }

// Match evaluates the clause against row, resolving column names through
// header. Rows shorter than the header read missing cells as "".
func (c Clause) Match(header, row []string) bool {
	if c.Empty() {
		return true
	}
	for _, group := range c.Or {
		if matchAll(group, header, row) {
			return true
		}
	}
	return false
}

func matchAll(group []Cond, header, row []string) bool {
	for _, cond := range group {
		idx := indexOf(header, cond.Column)
		if idx < 0 {
			return false
		}
		cell := ""
		if idx < len(row) {
			cell = row[idx]
		}
		if !cond.Eval(cell) {
			return false
		}
	}
	return true
}

func indexOf(header []string, col string) int {
	for i, h := range header {
		if h == col {
			return i
		}
	}
	return -1
}

// Eval applies the condition to one cell. Comparisons are numeric when both
// sides parse as floats and fall back to string comparison otherwise.
func (c Cond) Eval(cell string) bool {
	if c.Op == OpLike {
		return strings.Contains(strings.ToLower(cell), strings.ToLower(c.Value))
	}

	l, lerr := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	r, rerr := strconv.ParseFloat(strings.TrimSpace(c.Value), 64)
	if lerr == nil && rerr == nil {
		return compare(c.Op, cmpFloat(l, r), l == r)
	}
	return compare(c.Op, strings.Compare(cell, c.Value), cell == c.Value)
}

func cmpFloat(l, r float64) int {
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	default:
		return 0
	}
}

// compare maps an ordering to op. eq is passed separately so NaN never
// compares equal.
func compare(op Op, ord int, eq bool) bool {
	switch op {
	case OpEQ:
		return eq
	case OpNE:
		return !eq
	case OpGT:
		return ord > 0
	case OpLT:
		return ord < 0
	case OpGE:
		return ord > 0 || eq
	case OpLE:
		return ord < 0 || eq
	default:
		return false
	}
}
