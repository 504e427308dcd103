// Package display renders extraction results for the terminal.
package display

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/albapepper/scoracle-standings/internal/persist"
	"github.com/albapepper/scoracle-standings/internal/standings"
)

// Render writes res as a rounded table: position, team, raw label, then
// every metric column of the tabular projection.
func Render(w io.Writer, res *standings.Result) {
	header, rows := persist.Flatten(res)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("%s / %s", res.League, res.Date))

	head := table.Row{"#", "Team", "Raw"}
	for _, h := range header[3:] {
		head = append(head, h)
	}
	t.AppendHeader(head)

	for i, r := range rows {
		row := table.Row{i + 1, r[1], r[2]}
		for _, v := range r[3:] {
			row = append(row, v)
		}
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d teams", len(rows))})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
