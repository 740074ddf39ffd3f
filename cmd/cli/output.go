package main

import (
	"io"
	"iter"
	"slices"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/numkem/sqlscript"
	"github.com/numkem/sqlscript/executor"
)

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateRows = false
	t.Style().Options.SeparateColumns = false
	t.Style().Options.SeparateHeader = false
	t.Style().Options.SeparateFooter = false

	return t
}

func renderRecords(out io.Writer, records iter.Seq[*sqlscript.ScriptRecord]) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Name", "Category", "Description", "Body"})

	for rec := range records {
		t.AppendRow(table.Row{rec.Name, rec.Category, rec.Description, bodyLabel(rec.Body)})
	}

	t.Render()
}

func bodyLabel(body sqlscript.Body) string {
	switch b := body.(type) {
	case sqlscript.InlineBody:
		return "inline"
	case sqlscript.FileRef:
		return b.Path
	default:
		return "?"
	}
}

func renderRows(out io.Writer, rows []executor.Row) {
	if len(rows) == 0 {
		return
	}

	var columns []string
	for col := range rows[0] {
		columns = append(columns, col)
	}
	slices.Sort(columns)

	t := newTable(out)
	header := make(table.Row, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, row := range rows {
		line := make(table.Row, len(columns))
		for i, col := range columns {
			line[i] = row[col]
		}
		t.AppendRow(line)
	}

	t.Render()
}

// parseParams turns repeated key=value flags into a parameter set. Values
// that look like numbers or booleans are converted so drivers see typed
// arguments.
func parseParams(pairs []string) (executor.Params, error) {
	params := executor.Params{}
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, &invalidParamError{pair}
		}

		params[key] = coerce(value)
	}

	return params, nil
}

func coerce(value string) any {
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return value
}

type invalidParamError struct {
	pair string
}

func (e *invalidParamError) Error() string {
	return "invalid parameter " + strconv.Quote(e.pair) + ", expected key=value"
}
