// Package persist writes extraction results to the output directory and
// reads them back.
//
// A successful run leaves <date>.json and <date>.csv. A failed run leaves
// only error_<date>.log.
package persist

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/albapepper/scoracle-standings/internal/standings"
)

// utf8BOM lets spreadsheet tools detect the encoding of the CSV.
const utf8BOM = "\ufeff"

// Base columns of the tabular projection, in order.
var baseColumns = []string{"date", "team", "team_raw"}

// EncodeJSON writes res as indented JSON with non-ASCII and HTML
// characters left as they are.
func EncodeJSON(w io.Writer, res *standings.Result) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// Flatten projects res to one row per team. The header is the base
// columns followed by every metric label in first-seen order; a team
// without a given metric leaves that cell empty. A metric whose label
// collides with a base column is renamed "metric_<label>".
func Flatten(res *standings.Result) (header []string, rows [][]string) {
	header = append(header, baseColumns...)
	index := map[string]int{}
	for i, c := range baseColumns {
		index[c] = i
	}

	for _, t := range res.Teams {
		for _, m := range t.Metrics {
			label := metricColumn(m.Label)
			if _, ok := index[label]; !ok {
				index[label] = len(header)
				header = append(header, label)
			}
		}
	}

	rows = make([][]string, 0, len(res.Teams))
	for _, t := range res.Teams {
		row := make([]string, len(header))
		row[0], row[1], row[2] = res.Date, t.Team, t.TeamRaw
		for _, m := range t.Metrics {
			row[index[metricColumn(m.Label)]] = m.Value
		}
		rows = append(rows, row)
	}
	return header, rows
}

func metricColumn(label string) string {
	for _, c := range baseColumns {
		if label == c {
			return "metric_" + label
		}
	}
	return label
}

// EncodeCSV writes the flattened projection of res, prefixed with a BOM.
func EncodeCSV(w io.Writer, res *standings.Result) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	header, rows := Flatten(res)
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
