package table

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Candidate is one <table> element that parsed into a grid.
type Candidate struct {
	// Index is the element's position among all <table> elements of the
	// page, including the ones that were dropped.
	Index int
	Node  *goquery.Selection
	Table *Table
}

const (
	maxColspan = 1000
	maxRowspan = 65534
)

var innerWhitespace = regexp.MustCompile(`\s+`)

// Extract parses markup and returns every table that yields at least one
// body row and one column, in document order. Tables that do not are
// skipped; a page without usable tables gives an empty slice, not an error.
func Extract(markup string) ([]Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	var out []Candidate
	doc.Find("table").Each(func(i int, s *goquery.Selection) {
		t, ok := parseTable(s)
		if !ok {
			return
		}
		out = append(out, Candidate{Index: i, Node: s, Table: t})
	})
	return out, nil
}

type rawRow struct {
	cells  []*goquery.Selection
	allTH  bool
	header bool
}

// parseTable reads the table's own rows (nested tables are separate nodes).
func parseTable(s *goquery.Selection) (*Table, bool) {
	var head, body, foot []rawRow
	s.Children().Each(func(_ int, child *goquery.Selection) {
		switch goquery.NodeName(child) {
		case "thead":
			head = append(head, collectRows(child)...)
		case "tbody":
			body = append(body, collectRows(child)...)
		case "tfoot":
			foot = append(foot, collectRows(child)...)
		case "tr":
			body = append(body, newRawRow(child))
		}
	})

	for i := range head {
		head[i].header = true
	}
	if len(head) == 0 {
		for i := range body {
			if !body[i].allTH {
				break
			}
			body[i].header = true
		}
	}

	rows := append(append(head, body...), foot...)
	grid := expandSpans(rows)

	var headerRows, bodyRows [][]string
	for i, r := range rows {
		if r.header {
			headerRows = append(headerRows, grid[i])
		} else {
			bodyRows = append(bodyRows, grid[i])
		}
	}

	t := New(nil, bodyRows)
	if t.NumCols() < widest(headerRows) {
		t = New(make([]string, widest(headerRows)), bodyRows)
	}
	if t.NumRows() == 0 || t.NumCols() == 0 {
		return nil, false
	}
	t.Columns = columnLabels(headerRows, t.NumCols())
	return t, true
}

func collectRows(section *goquery.Selection) []rawRow {
	var rows []rawRow
	section.ChildrenFiltered("tr").Each(func(_ int, tr *goquery.Selection) {
		rows = append(rows, newRawRow(tr))
	})
	return rows
}

func newRawRow(tr *goquery.Selection) rawRow {
	r := rawRow{allTH: true}
	tr.ChildrenFiltered("td, th").Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) != "th" {
			r.allTH = false
		}
		r.cells = append(r.cells, c)
	})
	if len(r.cells) == 0 {
		r.allTH = false
	}
	return r
}

type pendingSpan struct {
	text      string
	remaining int
}

// expandSpans flattens colspan and rowspan into repeated text so every
// logical column position holds a value.
func expandSpans(rows []rawRow) [][]string {
	pending := map[int]*pendingSpan{}
	out := make([][]string, len(rows))

	take := func(col int, row []string) []string {
		p := pending[col]
		row = append(row, p.text)
		p.remaining--
		if p.remaining == 0 {
			delete(pending, col)
		}
		return row
	}

	for i, r := range rows {
		var row []string
		col := 0
		for _, c := range r.cells {
			for pending[col] != nil {
				row = take(col, row)
				col++
			}
			text := cellText(c)
			colspan := spanAttr(c, "colspan", maxColspan)
			rowspan := spanAttr(c, "rowspan", maxRowspan)
			for k := 0; k < colspan; k++ {
				row = append(row, text)
				if rowspan > 1 {
					pending[col] = &pendingSpan{text: text, remaining: rowspan - 1}
				}
				col++
			}
		}

		// Spans hanging past the last cell of this row.
		if len(pending) > 0 {
			cols := make([]int, 0, len(pending))
			for k := range pending {
				if k >= col {
					cols = append(cols, k)
				}
			}
			sort.Ints(cols)
			for _, k := range cols {
				for col < k {
					row = append(row, "")
					col++
				}
				row = take(col, row)
				col++
			}
		}
		out[i] = row
	}
	return out
}

func cellText(c *goquery.Selection) string {
	return strings.TrimSpace(innerWhitespace.ReplaceAllString(c.Text(), " "))
}

func spanAttr(c *goquery.Selection, name string, limit int) int {
	v, ok := c.Attr(name)
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 1
	}
	if n > limit {
		return limit
	}
	return n
}

func widest(rows [][]string) int {
	w := 0
	for _, r := range rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// columnLabels collapses the header rows into one label per column.
// Without a header, labels are positions. Blank labels become "Unnamed: i"
// and repeats get a ".n" suffix so every label is unique.
func columnLabels(headerRows [][]string, width int) []string {
	labels := make([]string, width)
	for i := 0; i < width; i++ {
		if len(headerRows) == 0 {
			labels[i] = positional(i)
			continue
		}
		var parts []string
		for _, hr := range headerRows {
			if i >= len(hr) || hr[i] == "" {
				continue
			}
			if len(parts) > 0 && parts[len(parts)-1] == hr[i] {
				continue
			}
			parts = append(parts, hr[i])
		}
		labels[i] = strings.Join(parts, " ")
		if labels[i] == "" {
			labels[i] = fmt.Sprintf("Unnamed: %d", i)
		}
	}
	return dedupe(labels)
}

func dedupe(labels []string) []string {
	seen := make(map[string]int, len(labels))
	taken := make(map[string]bool, len(labels))
	for _, l := range labels {
		taken[l] = true
	}
	out := make([]string, len(labels))
	for i, l := range labels {
		n := seen[l]
		seen[l] = n + 1
		if n == 0 {
			out[i] = l
			continue
		}
		candidate := fmt.Sprintf("%s.%d", l, n)
		for taken[candidate] {
			n++
			candidate = fmt.Sprintf("%s.%d", l, n)
		}
		seen[l] = n + 1
		taken[candidate] = true
		out[i] = candidate
	}
	return out
}

func positional(i int) string {
	return strconv.Itoa(i)
}
