package standings

import (
	"errors"
	"unicode"

	"github.com/albapepper/scoracle-standings/internal/table"
)

// Heuristic parameters for recognising a standings table.
const (
	NameSampleSize = 8 // leading first-column values inspected
	MinNameLike    = 3 // name-like values needed to accept a table
	MinColumns     = 2 // narrower tables only qualify through the fallback
)

// ErrNoTable means the page had no candidate tables at all.
var ErrNoTable = errors.New("no table found")

// Method records how a table was chosen.
type Method int

const (
	// MethodNameLike: first table whose first column looks like team names.
	MethodNameLike Method = iota
	// MethodLargest: no table looked right, so the one with most rows won.
	MethodLargest
)

func (m Method) String() string {
	switch m {
	case MethodNameLike:
		return "name_like"
	case MethodLargest:
		return "largest"
	default:
		return "unknown"
	}
}

// Selection is the chosen candidate plus how it was chosen.
type Selection struct {
	Candidate table.Candidate
	Method    Method
	NameLike  int
}

// SelectTeamTable returns the first candidate, in extraction order, with at
// least MinColumns columns and MinNameLike name-like values among the first
// NameSampleSize cells of its first column. Later candidates are not
// compared, even if they score higher.
//
// When nothing qualifies it falls back to the candidate with the most rows
// (earliest wins a tie), regardless of column count. An empty candidate set
// yields ErrNoTable.
func SelectTeamTable(cands []table.Candidate) (Selection, error) {
	if len(cands) == 0 {
		return Selection{}, ErrNoTable
	}

	for _, c := range cands {
		if c.Table.NumCols() < MinColumns {
			continue
		}
		n := NameLikeCount(c.Table.Column(0, NameSampleSize))
		if n >= MinNameLike {
			return Selection{Candidate: c, Method: MethodNameLike, NameLike: n}, nil
		}
	}

	best := 0
	for i, c := range cands {
		if c.Table.NumRows() > cands[best].Table.NumRows() {
			best = i
		}
	}
	c := cands[best]
	return Selection{
		Candidate: c,
		Method:    MethodLargest,
		NameLike:  NameLikeCount(c.Table.Column(0, NameSampleSize)),
	}, nil
}

// NameLikeCount counts values containing at least one letter.
func NameLikeCount(values []string) int {
	n := 0
	for _, v := range values {
		if IsNameLike(v) {
			n++
		}
	}
	return n
}

// IsNameLike reports whether v contains a letter.
func IsNameLike(v string) bool {
	for _, r := range v {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
