package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/tuannm99/flatsql"
	"github.com/tuannm99/flatsql/internal/catalog"
	"github.com/tuannm99/flatsql/internal/history"
)

var (
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// renderTable draws cols/rows as a bordered grid.
func renderTable(cols []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(cols...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

// printResult writes the status line and, for SELECT, the projection.
func printResult(w io.Writer, res *flatsql.Result) {
	if res == nil {
		return
	}
	if len(res.Columns) > 0 {
		fmt.Fprintln(w, renderTable(res.Columns, res.Rows))
	}
	switch {
	case res.NoOp && res.Status == "":
		fmt.Fprintln(w, dimStyle.Render("(not available at this level)"))
	case isErrorStatus(res.Status):
		fmt.Fprintln(w, errorStyle.Render(res.Status))
	default:
		fmt.Fprintln(w, statusStyle.Render(res.Status))
	}
}

func isErrorStatus(s string) bool {
	return strings.HasPrefix(s, "ERROR") ||
		strings.HasPrefix(s, "INVALID") ||
		strings.HasSuffix(s, "NOT FOUND") ||
		strings.HasSuffix(s, "ALREADY EXISTS") ||
		strings.HasPrefix(s, "DUPLICATE") ||
		s == "TYPE MISMATCH"
}

// renderSchema lists the databases, or the tables of the open database with
// their columns, types and keys.
func renderSchema(s *flatsql.Session) string {
	db := s.OpenDatabase()
	if db == nil {
		rows := make([][]string, 0, len(s.Databases()))
		for _, d := range s.Databases() {
			rows = append(rows, []string{d.Name, strconv.Itoa(len(d.Tables))})
		}
		return renderTable([]string{"DATABASE", "TABLES"}, rows)
	}

	var rows [][]string
	for _, t := range db.Tables {
		if len(t.Columns) == 0 {
			rows = append(rows, []string{t.Name, "", "", ""})
			continue
		}
		for i, c := range t.Columns {
			name := ""
			if i == 0 {
				name = t.Name
			}
			typ := c.Type.String() + " (" + c.Type.Code() + ")"
			rows = append(rows, []string{name, c.Name, typ, keyLabel(db, t, i)})
		}
	}
	return renderTable([]string{"TABLE", "COLUMN", "TYPE", "KEY"}, rows)
}

func keyLabel(db *catalog.Database, t *catalog.Table, col int) string {
	var parts []string
	if t.IsPrimaryKey(col) {
		parts = append(parts, "PK")
	}
	for _, fk := range t.ForeignKeys {
		if fk.Column == col {
			ref := fmt.Sprintf("%s#%d", fk.RefTable, fk.RefColumn)
			if rt, ok := db.Table(fk.RefTable); ok && fk.RefColumn < len(rt.Columns) {
				ref = rt.Name + "." + rt.Columns[fk.RefColumn].Name
			}
			parts = append(parts, "FK "+ref)
		}
	}
	return strings.Join(parts, ", ")
}

// renderResultFile shows the projection left by the last SELECT.
func renderResultFile(s *flatsql.Session) string {
	sm := s.Storage()
	if !sm.ResultExists() {
		return dimStyle.Render("(no result file)")
	}
	td, err := sm.ReadResult()
	if err != nil {
		return errorStyle.Render(err.Error())
	}
	return renderTable(td.Header, td.Rows)
}

func renderHistory(entries []history.Entry) string {
	if len(entries) == 0 {
		return dimStyle.Render("(no history)") + "\n"
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.ExecutedAt.Local().Format("2006-01-02 15:04:05"),
			e.Level,
			e.Command,
			e.Status,
			strconv.FormatInt(e.DurationMS, 10) + "ms",
		})
	}
	return renderTable([]string{"AT", "LEVEL", "COMMAND", "STATUS", "TOOK"}, rows) + "\n"
}
