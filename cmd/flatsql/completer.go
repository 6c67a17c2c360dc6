package main

import (
	"sort"
	"strings"
	"unicode"

	"github.com/sahilm/fuzzy"

	"github.com/tuannm99/flatsql"
	"github.com/tuannm99/flatsql/internal/sql/parser"
)

const maxCandidates = 50

// completer suggests command keywords and the names visible at the current
// level. It satisfies readline.AutoCompleter.
type completer struct {
	s *flatsql.Session
}

func (c *completer) candidates() []string {
	var out []string
	for _, kw := range parser.Keywords() {
		out = append(out, strings.Fields(kw)...)
	}
	for _, db := range c.s.Databases() {
		out = append(out, db.Name)
	}
	for _, t := range c.s.Tables() {
		out = append(out, t.Name)
		for _, col := range t.Columns {
			out = append(out, col.Name)
		}
	}
	out = append(out, "\\q", "\\help", "\\schema", "\\result", "\\history")

	sort.Strings(out)
	uniq := out[:0]
	for i, v := range out {
		if i == 0 || v != out[i-1] {
			uniq = append(uniq, v)
		}
	}
	return uniq
}

// Do returns the suffixes that complete the word before pos, best fuzzy
// score first. Only candidates that extend the typed word are offered since
// readline appends the suffix in place.
func (c *completer) Do(line []rune, pos int) ([][]rune, int) {
	if pos > len(line) {
		pos = len(line)
	}
	start := pos
	for start > 0 && !isBreak(line[start-1]) {
		start--
	}
	word := string(line[start:pos])
	if word == "" {
		return nil, 0
	}

	matches := rankCandidates(word, c.candidates())
	out := make([][]rune, 0, len(matches))
	for _, m := range matches {
		out = append(out, []rune(m[len(word):]))
	}
	return out, len([]rune(word))
}

func isBreak(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune("(),=<>!", r)
}

// lowerLabels implements fuzzy.Source.
type lowerLabels []string

func (l lowerLabels) String(i int) string { return l[i] }
func (l lowerLabels) Len() int            { return len(l) }

// rankCandidates keeps the candidates that start with word (ignoring case)
// and orders them by fuzzy score.
func rankCandidates(word string, candidates []string) []string {
	lw := strings.ToLower(word)
	lower := make(lowerLabels, len(candidates))
	for i, c := range candidates {
		lower[i] = strings.ToLower(c)
	}

	matches := fuzzy.FindFrom(lw, lower)
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	var out []string
	for _, m := range matches {
		if !strings.HasPrefix(lower[m.Index], lw) || len(candidates[m.Index]) == len(word) {
			continue
		}
		out = append(out, candidates[m.Index])
		if len(out) == maxCandidates {
			break
		}
	}
	return out
}

// filterCommands fuzzy-filters past commands for \history PATTERN.
func filterCommands(pattern string, cmds []string) []string {
	if pattern == "" {
		return cmds
	}
	matches := fuzzy.Find(strings.ToLower(pattern), lowerAll(cmds))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, cmds[m.Index])
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
