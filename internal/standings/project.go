package standings

import (
	"strings"

	"github.com/albapepper/scoracle-standings/internal/table"
)

// MaxMetrics is how many columns after the team column become metrics.
const MaxMetrics = 5

// SkipReason explains why a row produced no team record.
type SkipReason int

const (
	NotSkipped SkipReason = iota
	SkipEmptyName
	SkipHeaderRow
	SkipMalformedRow
)

func (r SkipReason) String() string {
	switch r {
	case NotSkipped:
		return "not_skipped"
	case SkipEmptyName:
		return "empty_name"
	case SkipHeaderRow:
		return "header_row"
	case SkipMalformedRow:
		return "malformed_row"
	default:
		return "unknown"
	}
}

// RowOutcome is the result of projecting one table row.
type RowOutcome struct {
	Row    int
	Record TeamRecord
	Skip   SkipReason
}

// OK reports whether the row produced a record.
func (o RowOutcome) OK() bool { return o.Skip == NotSkipped }

// Aliases maps a raw team label to its canonical name.
type Aliases map[string]string

// Normalize returns the canonical name for raw, or raw itself (trimmed)
// when no alias exists.
func (a Aliases) Normalize(raw string) string {
	key := strings.TrimSpace(raw)
	if canonical, ok := a[key]; ok {
		return canonical
	}
	return key
}

// ProjectRow reads row i of t as a team record: column 0 is the team and
// the next MaxMetrics columns, keyed by their labels, are metrics. Cells
// missing from a short row become empty strings.
func ProjectRow(t *table.Table, i int, aliases Aliases) RowOutcome {
	out := RowOutcome{Row: i}

	raw, ok := t.Cell(i, 0)
	if !ok {
		out.Skip = SkipMalformedRow
		return out
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		out.Skip = SkipEmptyName
		return out
	}
	if strings.HasPrefix(strings.ToLower(raw), "team") {
		out.Skip = SkipHeaderRow
		return out
	}

	last := max(1, min(t.NumCols(), 1+MaxMetrics))
	metrics := make(Metrics, 0, last-1)
	for c := 1; c < last; c++ {
		v, _ := t.Cell(i, c)
		metrics = append(metrics, Metric{Label: t.Columns[c], Value: v})
	}

	out.Record = TeamRecord{
		TeamRaw: raw,
		Team:    aliases.Normalize(raw),
		Metrics: metrics,
	}
	return out
}

// Project projects every row of t in order and returns the kept records
// alongside the per-row outcomes.
func Project(t *table.Table, aliases Aliases) ([]TeamRecord, []RowOutcome) {
	records := []TeamRecord{}
	outcomes := make([]RowOutcome, 0, t.NumRows())
	for i := range t.Rows {
		o := ProjectRow(t, i, aliases)
		outcomes = append(outcomes, o)
		if o.OK() {
			records = append(records, o.Record)
		}
	}
	return records, outcomes
}

// SkipCounts tallies outcomes by reason, leaving out kept rows.
func SkipCounts(outcomes []RowOutcome) map[SkipReason]int {
	counts := map[SkipReason]int{}
	for _, o := range outcomes {
		if !o.OK() {
			counts[o.Skip]++
		}
	}
	return counts
}
