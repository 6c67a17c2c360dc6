package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/tuannm99/flatsql"
	"github.com/tuannm99/flatsql/internal"
	"github.com/tuannm99/flatsql/internal/catalog"
)

const (
	historyPreload = 500
	historyShown   = 50
)

const helpText = `meta commands:
  \q | quit | exit       quit
  \schema                databases, or tables and columns of the open database
  \result                contents of the result file of the last SELECT
  \history [PATTERN]     recent commands, fuzzy-filtered by PATTERN
  \help                  show help

commands (one per line, trailing ';' optional):
  CREATE a,b | DELETE x | RENAME a TO b | OPEN x | BACK | UNDO | REDO
  FOCUS x | FOCUS <ALL>
  ADD FIELDS TO t(a,b) | DELETE FIELDS a,b FROM t | RENAME FIELD a TO b IN t
  MOVE FIELD t(a) TO b | PRIMARY KEY t(c) | CHANGE TYPE t(c) [TO STRING]
  FOREIGN KEY t(c) REFERENCES u(d) | DROP FOREIGN KEY t(c)
  ADD DATA(v1,v2) | SET c = v [WHERE ...] | DELETE ROWS WHERE ...
  SELECT *|a,b [WHERE ...]`

type repl struct {
	db     *flatsql.DB
	cfg    *internal.FlatSQLConfig
	out    io.Writer
	prompt string
}

func newREPL(db *flatsql.DB, cfg *internal.FlatSQLConfig, out io.Writer) *repl {
	return &repl{db: db, cfg: cfg, out: out, prompt: cfg.Repl.Prompt}
}

// promptFor shows the open database and table in front of the base prompt.
func promptFor(base string, s *flatsql.Session) string {
	switch s.Level() {
	case catalog.LevelDatabase:
		return s.OpenDatabase().Name + " " + base
	case catalog.LevelTable:
		return s.OpenDatabase().Name + "/" + s.OpenTable().Name + " " + base
	default:
		return base
	}
}

func (r *repl) Run() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          promptFor(r.prompt, r.db.Session),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    &completer{s: r.db.Session},
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer func() { _ = rl.Close() }()

	// preload history so the arrow keys work immediately
	if r.db.History != nil {
		if cmds, err := r.db.History.Commands(historyPreload); err == nil {
			for i := len(cmds) - 1; i >= 0; i-- {
				_ = rl.SaveHistory(cmds[i])
			}
		}
	}

	fmt.Fprintf(r.out, "%s on %s\n", r.cfg.AppName, r.db.Session.Storage().Root())
	fmt.Fprintln(r.out, "type \\help for help")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			// EOF
			fmt.Fprintln(r.out)
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if isMetaCommand(line) {
			if quit := r.meta(line); quit {
				return nil
			}
			continue
		}

		res, _ := r.db.Execute(line)
		printResult(r.out, res)
		rl.SetPrompt(promptFor(r.prompt, r.db.Session))
	}
}

func isMetaCommand(line string) bool {
	return strings.HasPrefix(line, "\\") || line == "quit" || line == "exit"
}

// meta runs a backslash command and reports whether the shell should exit.
func (r *repl) meta(line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	switch name {
	case "\\q", "quit", "exit":
		return true
	case "\\help":
		fmt.Fprintln(r.out, helpText)
	case "\\schema":
		fmt.Fprintln(r.out, renderSchema(r.db.Session))
	case "\\result":
		fmt.Fprintln(r.out, renderResultFile(r.db.Session))
	case "\\history":
		r.printHistory(strings.TrimSpace(arg))
	default:
		fmt.Fprintf(r.out, "unknown command: %s\n", line)
	}
	return false
}

func (r *repl) printHistory(pattern string) {
	if r.db.History == nil {
		fmt.Fprintln(r.out, dimStyle.Render("(history disabled; use --history or history.enabled)"))
		return
	}
	if pattern == "" {
		entries, err := r.db.History.Recent(historyShown)
		if err != nil {
			fmt.Fprintln(r.out, errorStyle.Render(err.Error()))
			return
		}
		fmt.Fprint(r.out, renderHistory(entries))
		return
	}

	cmds, err := r.db.History.Commands(historyPreload)
	if err != nil {
		fmt.Fprintln(r.out, errorStyle.Render(err.Error()))
		return
	}
	for i, c := range filterCommands(pattern, cmds) {
		if i == historyShown {
			break
		}
		fmt.Fprintf(r.out, "%5d  %s\n", i+1, c)
	}
}
