package executor

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Result is what one command produced.
type Result struct {
	// Command is the canonical command name, "" when parsing failed.
	Command string
	// Status is the human-readable outcome shown to the user.
	Status string

	// Columns/Rows carry the projection of a SELECT.
	Columns []string
	Rows    [][]string

	// Affected counts rows added, updated, deleted or found.
	Affected int

	// NoOp is set when the command is not valid at the current level and
	// therefore changed nothing.
	NoOp bool

	// SnapshotID identifies the checkpoint taken before the command, zero if
	// none was taken.
	SnapshotID uuid.UUID
}

// Kind classifies a failed command.
type Kind uint8

const (
	// KindValidation: malformed command, arity mismatch, unknown name.
	KindValidation Kind = iota
	// KindIntegrity: primary/foreign key or type violation.
	KindIntegrity
	// KindConflict: name already taken.
	KindConflict
	// KindInternal: anything unexpected, including panics.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindIntegrity:
		return "integrity"
	case KindConflict:
		return "conflict"
	case KindInternal:
		return "internal"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// StatusError is the error returned by Execute. Its message is the status
// string shown to the user.
type StatusError struct {
	Kind    Kind
	Command string
	Status  string
	Err     error
}

func (e *StatusError) Error() string { return e.Status }
func (e *StatusError) Unwrap() error { return e.Err }

func validation(format string, args ...any) error {
	return &StatusError{Kind: KindValidation, Status: fmt.Sprintf(format, args...)}
}

func violation(err error, format string, args ...any) error {
	return &StatusError{Kind: KindIntegrity, Status: fmt.Sprintf(format, args...), Err: err}
}

func conflict(format string, args ...any) error {
	return &StatusError{Kind: KindConflict, Status: fmt.Sprintf(format, args...)}
}

// internal renders err as "ERROR IN <COMMAND>: <detail>".
func internal(command string, err error) error {
	if command == "" {
		command = "COMMAND"
	}
	return &StatusError{
		Kind:    KindInternal,
		Command: command,
		Status:  fmt.Sprintf("ERROR IN %s: %v", command, err),
		Err:     err,
	}
}

// Status returns the status string for an Execute outcome.
func Status(res *Result, err error) string {
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			return se.Status
		}
		return err.Error()
	}
	if res == nil {
		return ""
	}
	return res.Status
}
