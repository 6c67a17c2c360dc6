// Package executor interprets command strings against an engine.Session.
//
// Every command is parsed into a parser.Statement, checkpointed through the
// session's snapshot manager when it may mutate state, and dispatched by
// statement type. Failures come back as *StatusError whose message is the
// status string shown to the user.
package executor

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tuannm99/flatsql/internal/engine"
	"github.com/tuannm99/flatsql/internal/history"
	"github.com/tuannm99/flatsql/internal/sql/parser"
)

// Recorder receives one entry per executed command.
type Recorder interface {
	Record(e history.Entry) error
}

// Executor runs commands against one session. It is not safe for concurrent
// use; a session has a single writer.
type Executor struct {
	S *engine.Session

	logger   *zap.Logger
	recorder Recorder
	now      func() time.Time
}

type Option func(*Executor)

func WithLogger(l *zap.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(e *Executor) { e.recorder = r }
}

// New binds an executor to s. Without WithLogger it logs through the
// session's logger.
func New(s *engine.Session, opts ...Option) *Executor {
	e := &Executor{
		S:      s,
		logger: s.Logger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one command. The returned Result is never nil; on failure its
// Status equals the error's status and err is a *StatusError.
func (e *Executor) Execute(cmd string) (*Result, error) {
	start := e.now()

	var (
		res *Result
		err error
	)
	stmt, perr := parser.Parse(cmd)
	if perr != nil {
		err = parseError(perr)
		if errors.Is(perr, parser.ErrSyntax) {
			res = e.checkpointMalformed()
		}
	} else {
		res, err = e.run(stmt)
	}

	if res == nil {
		res = &Result{}
	}
	if stmt != nil {
		res.Command = stmt.Command()
	}
	if err != nil {
		res.Status = Status(nil, err)
	}

	e.observe(cmd, res, err, e.now().Sub(start))
	return res, err
}

// Run executes cmd and returns only its status string.
func (e *Executor) Run(cmd string) string {
	res, err := e.Execute(cmd)
	return Status(res, err)
}

func parseError(err error) error {
	switch {
	case errors.Is(err, parser.ErrInvalidQuery):
		return &StatusError{Kind: KindValidation, Status: parser.ErrInvalidQuery.Error(), Err: err}
	case errors.Is(err, parser.ErrSyntax):
		return &StatusError{Kind: KindValidation, Status: err.Error(), Err: err}
	default:
		return internal("", err)
	}
}

// run checkpoints when the statement calls for it and dispatches. A panic in
// a handler becomes an internal status; the checkpoint already taken lets the
// user undo whatever the handler left behind.
func (e *Executor) run(stmt parser.Statement) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, internal(stmt.Command(), fmt.Errorf("%v", r))
		}
	}()

	var snapID uuid.UUID
	if e.checkpoints(stmt) {
		snap, cerr := e.S.Snapshots().Checkpoint()
		if cerr != nil {
			return nil, internal(stmt.Command(), cerr)
		}
		snapID = snap.ID
	}

	res, err = e.dispatch(stmt)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			se.Command = stmt.Command()
		} else {
			err = internal(stmt.Command(), err)
		}
	}
	if res == nil {
		res = &Result{}
	}
	res.SnapshotID = snapID
	return res, err
}

// checkpointMalformed snapshots a known command that failed to parse. An
// unknown keyword is not snapshotted.
func (e *Executor) checkpointMalformed() *Result {
	res := &Result{}
	snap, err := e.S.Snapshots().Checkpoint()
	if err != nil {
		e.logger.Warn("executor: checkpoint before syntax error failed", zap.Error(err))
		return res
	}
	res.SnapshotID = snap.ID
	return res
}

// checkpoints reports whether stmt is snapshotted before it runs. Navigation,
// undo/redo, a bare SELECT * and a FOCUS with nothing to move are not.
func (e *Executor) checkpoints(stmt parser.Statement) bool {
	switch s := stmt.(type) {
	case *parser.OpenStmt, *parser.BackStmt, *parser.UndoStmt, *parser.RedoStmt:
		return false
	case *parser.SelectStmt:
		return !(s.Star() && s.Where == "")
	case *parser.FocusStmt:
		if s.All {
			return e.S.FocusCount() > 0
		}
		return e.S.CanFocus(s.Name)
	default:
		return true
	}
}

func (e *Executor) dispatch(stmt parser.Statement) (*Result, error) {
	switch s := stmt.(type) {
	case *parser.OpenStmt:
		return e.execOpen(s)
	case *parser.BackStmt:
		return e.execBack()
	case *parser.UndoStmt:
		return e.execUndo()
	case *parser.RedoStmt:
		return e.execRedo()
	case *parser.FocusStmt:
		return e.execFocus(s)
	case *parser.CreateStmt:
		return e.execCreate(s)
	case *parser.DeleteStmt:
		return e.execDelete(s)
	case *parser.RenameStmt:
		return e.execRename(s)
	case *parser.AddFieldsStmt:
		return e.execAddFields(s)
	case *parser.DeleteFieldsStmt:
		return e.execDeleteFields(s)
	case *parser.RenameFieldStmt:
		return e.execRenameField(s)
	case *parser.MoveFieldStmt:
		return e.execMoveField(s)
	case *parser.PrimaryKeyStmt:
		return e.execPrimaryKey(s)
	case *parser.ForeignKeyStmt:
		return e.execForeignKey(s)
	case *parser.DropForeignKeyStmt:
		return e.execDropForeignKey(s)
	case *parser.ChangeTypeStmt:
		return e.execChangeType(s)
	case *parser.AddDataStmt:
		return e.execAddData(s)
	case *parser.SetStmt:
		return e.execSet(s)
	case *parser.DeleteRowsStmt:
		return e.execDeleteRows(s)
	case *parser.SelectStmt:
		return e.execSelect(s)
	default:
		return nil, fmt.Errorf("unsupported statement %T", stmt)
	}
}

func noop() *Result { return &Result{NoOp: true} }

func okResult() *Result { return &Result{Status: "OK"} }

func (e *Executor) observe(cmd string, res *Result, err error, d time.Duration) {
	fields := []zap.Field{
		zap.String("command", cmd),
		zap.Stringer("level", e.S.Level()),
		zap.String("status", res.Status),
		zap.Duration("duration", d),
	}
	var se *StatusError
	if errors.As(err, &se) && se.Kind == KindInternal {
		e.logger.Warn("executor: internal error", append(fields, zap.Error(se.Err))...)
	} else {
		e.logger.Debug("executor: command", fields...)
	}

	if e.recorder == nil {
		return
	}
	entry := history.Entry{
		Command:    cmd,
		Status:     res.Status,
		Level:      e.S.Level().String(),
		ExecutedAt: e.now().UTC(),
		DurationMS: d.Milliseconds(),
		IsError:    err != nil,
	}
	if db := e.S.OpenDatabase(); db != nil {
		entry.Database = db.Name
	}
	if t := e.S.OpenTable(); t != nil {
		entry.Table = t.Name
	}
	if res.SnapshotID != uuid.Nil {
		entry.SnapshotID = res.SnapshotID.String()
	}
	if rerr := e.recorder.Record(entry); rerr != nil {
		e.logger.Warn("executor: history record failed", zap.Error(rerr))
	}
}
