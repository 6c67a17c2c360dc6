package parser

import (
	"fmt"
	"strings"
)

type tokenKind uint8

const (
	tokWord tokenKind = iota
	tokString
	tokPunct
)

// token is a lexeme with its byte span in the source, so callers can cut
// raw text (WHERE clauses, SET values) straight out of the command.
type token struct {
	kind tokenKind
	text string
	pos  int
	end  int
}

func (t token) is(kw string) bool {
	return t.kind == tokWord && strings.EqualFold(t.text, kw)
}

func (t token) isPunct(p string) bool {
	return t.kind == tokPunct && t.text == p
}

const punctChars = "(),=<>!"

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// lex splits src into words, quoted strings and single-byte punctuation.
// A quote only opens a string at the start of a token, so O'BRIEN is a word.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case isSpace(c):
			i++

		case c == '"' || c == '\'':
			j := strings.IndexByte(src[i+1:], c)
			if j < 0 {
				return nil, fmt.Errorf("%w: unterminated string at %d", ErrSyntax, i)
			}
			end := i + 1 + j + 1
			toks = append(toks, token{kind: tokString, text: src[i+1 : end-1], pos: i, end: end})
			i = end

		case strings.IndexByte(punctChars, c) >= 0:
			toks = append(toks, token{kind: tokPunct, text: src[i : i+1], pos: i, end: i + 1})
			i++

		default:
			j := i
			for j < len(src) && !isSpace(src[j]) && strings.IndexByte(punctChars, src[j]) < 0 {
				j++
			}
			toks = append(toks, token{kind: tokWord, text: src[i:j], pos: i, end: j})
			i = j
		}
	}
	return toks, nil
}
