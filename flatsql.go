// Package flatsql is the top-level facade: a session over a directory of
// CSV-backed databases, the command interpreter bound to it and an optional
// command history.
package flatsql

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tuannm99/flatsql/internal"
	"github.com/tuannm99/flatsql/internal/engine"
	"github.com/tuannm99/flatsql/internal/history"
	"github.com/tuannm99/flatsql/internal/sql/executor"
)

type (
	Session = engine.Session
	Options = engine.Options
	Result  = executor.Result
	Config  = internal.FlatSQLConfig
)

// DB bundles one session with its executor. History is nil unless enabled.
type DB struct {
	Session *engine.Session
	History *history.History

	exec   *executor.Executor
	logger *zap.Logger
}

// Open opens a session with opts. A non-empty historyPath also opens the
// command history there and records every executed command.
func Open(opts Options, historyPath string) (*DB, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s, err := engine.Open(opts)
	if err != nil {
		return nil, err
	}
	db := &DB{Session: s, logger: logger}

	var execOpts []executor.Option
	if historyPath != "" {
		h, err := history.Open(historyPath)
		if err != nil {
			return nil, multierr.Append(err, s.Close())
		}
		db.History = h
		execOpts = append(execOpts, executor.WithRecorder(h))
	}
	db.exec = executor.New(s, execOpts...)
	return db, nil
}

// OpenConfig maps cfg onto engine options and opens the DB.
func OpenConfig(cfg *Config, logger *zap.Logger) (*DB, error) {
	opts := Options{
		Root:         cfg.Storage.Root,
		ResultFile:   cfg.Storage.ResultFile,
		MaxUndoDepth: cfg.Snapshot.MaxDepth,
		IDColumn:     cfg.Catalog.IDColumn,
		Logger:       logger,
	}
	if cfg.Session.Persist {
		opts.SessionFile = cfg.Session.File
	}
	var historyPath string
	if cfg.History.Enabled {
		historyPath = cfg.History.Path
	}
	return Open(opts, historyPath)
}

// Execute runs one command.
func (db *DB) Execute(cmd string) (*Result, error) {
	return db.exec.Execute(cmd)
}

// Run runs one command and returns its status string.
func (db *DB) Run(cmd string) string {
	return db.exec.Run(cmd)
}

// Close saves the session and closes the history store.
func (db *DB) Close() error {
	err := db.Session.Close()
	if db.History != nil {
		err = multierr.Append(err, db.History.Close())
	}
	return err
}

// NewLogger builds a zap logger for level; development selects the console
// encoder.
func NewLogger(level string, development bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
