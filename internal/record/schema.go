package record

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ColumnType is the declared type of a column. Cells are always stored as
// strings; the type only governs what a write may put into them.
type ColumnType uint8

const (
	ColInteger ColumnType = iota
	ColFloat
	ColString
	ColBoolean
)

// NullLiteral is the value literal that stands for an empty cell.
const NullLiteral = "NONE"

var ErrTypeMismatch = errors.New("record: value does not match column type")

var ErrUnknownType = errors.New("record: unknown column type")

func (t ColumnType) String() string {
	switch t {
	case ColInteger:
		return "INTEGER"
	case ColFloat:
		return "FLOAT"
	case ColString:
		return "STRING"
	case ColBoolean:
		return "BOOLEAN"
	default:
		return fmt.Sprintf("ColumnType(%d)", uint8(t))
	}
}

// Code is the one-letter tag shown next to a column in the schema view.
func (t ColumnType) Code() string {
	switch t {
	case ColInteger:
		return "I"
	case ColFloat:
		return "F"
	case ColString:
		return "S"
	case ColBoolean:
		return "B"
	default:
		return "?"
	}
}

// Next returns the type that follows t in the I -> S -> F -> B cycle.
func (t ColumnType) Next() ColumnType {
	switch t {
	case ColInteger:
		return ColString
	case ColString:
		return ColFloat
	case ColFloat:
		return ColBoolean
	default:
		return ColInteger
	}
}

// ParseColumnType accepts a full type name, a common alias or a one-letter code.
func ParseColumnType(s string) (ColumnType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INTEGER", "INT", "I":
		return ColInteger, nil
	case "FLOAT", "REAL", "F":
		return ColFloat, nil
	case "STRING", "TEXT", "S":
		return ColString, nil
	case "BOOLEAN", "BOOL", "B":
		return ColBoolean, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

// MarshalText/UnmarshalText keep the session file readable.
func (t ColumnType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *ColumnType) UnmarshalText(b []byte) error {
	ct, err := ParseColumnType(string(b))
	if err != nil {
		return err
	}
	*t = ct
	return nil
}

// IsNull reports whether raw is the NONE literal.
func IsNull(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), NullLiteral)
}

// Normalize checks raw against t and returns the cell text to store.
// NONE becomes the empty cell; booleans are stored lower-case.
func Normalize(t ColumnType, raw string) (string, error) {
	if IsNull(raw) {
		return "", nil
	}

	switch t {
	case ColInteger:
		if !isIntegerLiteral(raw) {
			return "", fmt.Errorf("%w: expects %s", ErrTypeMismatch, t)
		}
		return raw, nil
	case ColFloat:
		if _, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err != nil {
			return "", fmt.Errorf("%w: expects %s", ErrTypeMismatch, t)
		}
		return raw, nil
	case ColBoolean:
		low := strings.ToLower(raw)
		switch low {
		case "true", "false", "0", "1":
			return low, nil
		}
		return "", fmt.Errorf("%w: expects %s (true/false)", ErrTypeMismatch, t)
	case ColString:
		return raw, nil
	default:
		return raw, nil
	}
}

// isIntegerLiteral accepts an optional run of leading '-' followed by digits.
func isIntegerLiteral(s string) bool {
	s = strings.TrimLeft(s, "-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
