package table

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_HeaderFromThead(t *testing.T) {
	html := `<html><body>
<table>
  <thead><tr><th>Team</th><th>GP</th><th>W</th><th>Pts</th></tr></thead>
  <tbody>
    <tr><td> Arsenal </td><td>10</td><td>8</td><td>26</td></tr>
    <tr><td>Man   Utd</td><td>10</td><td>5</td><td>17</td></tr>
  </tbody>
</table>
</body></html>`

	cands, err := Extract(html)
	require.NoError(t, err)
	require.Len(t, cands, 1)

	tbl := cands[0].Table
	assert.Equal(t, []string{"Team", "GP", "W", "Pts"}, tbl.Columns)
	assert.Equal(t, 2, tbl.NumRows())
	assert.Equal(t, []string{"Arsenal", "Man Utd"}, tbl.Column(0, 0))
	assert.Equal(t, "table", cands[0].Node.Nodes[0].Data)
}

func TestExtract_LeadingThRowsBecomeHeader(t *testing.T) {
	html := `<table>
<tr><th></th><th>GP</th><th>GP</th></tr>
<tr><td>Leeds</td><td>3</td><td>4</td></tr>
</table>`

	cands, err := Extract(html)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, []string{"Unnamed: 0", "GP", "GP.1"}, cands[0].Table.Columns)
	assert.Equal(t, [][]string{{"Leeds", "3", "4"}}, cands[0].Table.Rows)
}

func TestExtract_NoHeaderUsesPositions(t *testing.T) {
	html := `<table><tr><td>a</td><td>1</td></tr><tr><td>b</td></tr></table>`

	cands, err := Extract(html)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, []string{"0", "1"}, cands[0].Table.Columns)
	assert.Equal(t, [][]string{{"a", "1"}, {"b", ""}}, cands[0].Table.Rows, "ragged rows are padded")
}

func TestExtract_Spans(t *testing.T) {
	html := `<table>
<tr><td rowspan="2">Group A</td><td colspan="2">x</td></tr>
<tr><td>1</td><td>2</td></tr>
</table>`

	cands, err := Extract(html)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, [][]string{
		{"Group A", "x", "x"},
		{"Group A", "1", "2"},
	}, cands[0].Table.Rows)
}

func TestExtract_MultiRowHeader(t *testing.T) {
	html := `<table>
<thead>
<tr><th rowspan="2">Team</th><th colspan="2">Home</th></tr>
<tr><th>W</th><th>L</th></tr>
</thead>
<tbody><tr><td>Everton</td><td>3</td><td>1</td></tr></tbody>
</table>`

	cands, err := Extract(html)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, []string{"Team", "Home W", "Home L"}, cands[0].Table.Columns)
}

func TestExtract_DropsTablesWithoutBody(t *testing.T) {
	html := `
<table></table>
<table><thead><tr><th>Only</th><th>Header</th></tr></thead></table>
<table><tr><td>kept</td></tr></table>`

	cands, err := Extract(html)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, 2, cands[0].Index, "index counts dropped tables too")
}

func TestExtract_NestedTablesAreSeparateCandidates(t *testing.T) {
	html := `<table>
<tr><td>outer</td><td><table><tr><td>inner</td><td>9</td></tr></table></td></tr>
</table>`

	cands, err := Extract(html)
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, 1, cands[0].Table.NumRows(), "outer table does not absorb nested rows")
	assert.Equal(t, []string{"inner", "9"}, cands[1].Table.Rows[0])
}

func TestExtract_NoTables(t *testing.T) {
	cands, err := Extract("<html><body><p>maintenance</p></body></html>")
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestTable_ColumnAndCell(t *testing.T) {
	tbl := New([]string{"Team"}, [][]string{{"a", "1"}, {"b", "2"}, {"c", "3"}})

	assert.Equal(t, []string{"Team", "1"}, tbl.Columns)
	assert.Equal(t, []string{"a", "b"}, tbl.Column(0, 2))
	assert.Equal(t, []string{"1", "2", "3"}, tbl.Column(1, 0))
	assert.Nil(t, tbl.Column(5, 0))

	v, ok := tbl.Cell(2, 1)
	assert.True(t, ok)
	assert.Equal(t, "3", v)
	_, ok = tbl.Cell(3, 0)
	assert.False(t, ok)
}

func TestExtract_MixedPage(t *testing.T) {
	html := `<html><body>
<table><tr><td><a href="/">Home</a></td><td>Leagues</td></tr></table>
<table><tr><th>Form</th><th>Last 8</th></tr></table>
<table>
  <thead><tr><th>Team</th><th>GP</th><th>Pts</th></tr></thead>
  <tbody>
    <tr><td>Girona</td><td>9</td><td>22</td></tr>
    <tr><td>Atlético</td><td>9</td><td>21</td></tr>
  </tbody>
</table>
</body></html>`

	cands, err := Extract(html)
	require.NoError(t, err)

	want := []Candidate{
		{Index: 0, Table: &Table{Columns: []string{"0", "1"}, Rows: [][]string{{"Home", "Leagues"}}}},
		{Index: 2, Table: &Table{
			Columns: []string{"Team", "GP", "Pts"},
			Rows:    [][]string{{"Girona", "9", "22"}, {"Atlético", "9", "21"}},
		}},
	}
	if diff := cmp.Diff(want, cands, cmpopts.IgnoreFields(Candidate{}, "Node")); diff != "" {
		t.Fatal(diff)
	}
}
