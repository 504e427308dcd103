package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-standings/internal/config"
	"github.com/albapepper/scoracle-standings/internal/fetch"
	"github.com/albapepper/scoracle-standings/internal/persist"
	"github.com/albapepper/scoracle-standings/internal/standings"
)

type fakeFetcher struct {
	body string
	err  error
	url  string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.url = url
	return f.body, f.err
}

type fakeMirror struct {
	saved []*standings.Result
	err   error
}

func (m *fakeMirror) Save(_ context.Context, res *standings.Result) error {
	m.saved = append(m.saved, res)
	return m.err
}

var fixedNow = func() time.Time { return time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC) }

// standingsPage renders a page with a navigation table ahead of a
// standings table holding n teams and a repeated header row.
func standingsPage(n int) string {
	var b strings.Builder
	b.WriteString(`<html><body>
<table><tr><td>1</td><td>2</td></tr><tr><td>3</td><td>4</td></tr></table>
<table>
<thead><tr><th>Team</th><th>GP</th><th>W</th><th>D</th><th>L</th><th>GF</th><th>Pts</th></tr></thead>
<tbody>
<tr><td>Team</td><td>GP</td><td>W</td><td>D</td><td>L</td><td>GF</td><td>Pts</td></tr>
`)
	names := []string{"Man Utd", "Arsenal", "Chelsea", "Liverpool", "Everton", "Fulham", "Brentford", "Burnley", "Wolves", "Leeds"}
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>10</td><td>%d</td><td>2</td><td>1</td><td>15</td><td>%d</td></tr>\n", names[i], 7-i/2, 30-i)
	}
	b.WriteString("</tbody></table></body></html>")
	return b.String()
}

func newPipeline(t *testing.T, body string) (*Pipeline, string, *fakeFetcher) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "data")
	cfg := config.Default()
	f := &fakeFetcher{body: body}
	p := New(cfg, f, persist.NewWriter(dir, nil), standings.Aliases{"Man Utd": "Manchester United"}, nil).
		WithClock(fixedNow)
	return p, dir, f
}

func TestRun_Success(t *testing.T) {
	p, dir, f := newPipeline(t, standingsPage(10))

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, config.DefaultSourceURL, f.url)
	assert.Equal(t, StatusOK, report.Status)
	assert.False(t, report.Failed())
	assert.Equal(t, 2, report.Candidates)
	assert.Equal(t, standings.MethodNameLike, report.Selection.Method)
	assert.Equal(t, 1, report.Selection.Candidate.Index)
	assert.Equal(t, 1, report.Skipped[standings.SkipHeaderRow])

	res := report.Result
	assert.Equal(t, "2026-10-18", res.Date)
	assert.Equal(t, "england", res.League)
	require.Len(t, res.Teams, 10)
	assert.Equal(t, "Manchester United", res.Teams[0].Team)
	assert.Equal(t, "Man Utd", res.Teams[0].TeamRaw)
	assert.Equal(t, []string{"GP", "W", "D", "L", "GF"}, res.Teams[0].Metrics.Labels())

	assert.FileExists(t, persist.JSONPath(dir, "2026-10-18"))
	assert.FileExists(t, persist.CSVPath(dir, "2026-10-18"))
	assert.NoFileExists(t, persist.ErrorPath(dir, "2026-10-18"))
	assert.True(t, strings.HasPrefix(report.Summary(), "OK: 10 teams saved"))
}

func TestRun_ExactlyThresholdSucceeds(t *testing.T) {
	p, dir, _ := newPipeline(t, standingsPage(8))

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusOK, report.Status)
	assert.FileExists(t, persist.JSONPath(dir, "2026-10-18"))
	assert.FileExists(t, persist.CSVPath(dir, "2026-10-18"))
}

func TestRun_BelowThresholdWritesDiagnosticOnly(t *testing.T) {
	p, dir, _ := newPipeline(t, standingsPage(7))
	m := &fakeMirror{}
	p.WithMirror(m)

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusValidationFailed, report.Status)
	assert.True(t, report.Failed())

	assert.NoFileExists(t, persist.JSONPath(dir, "2026-10-18"))
	assert.NoFileExists(t, persist.CSVPath(dir, "2026-10-18"))
	data, err := os.ReadFile(persist.ErrorPath(dir, "2026-10-18"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"team": "Manchester United"`, "diagnostic holds the partial document")
	assert.Empty(t, m.saved)
	assert.Contains(t, report.Summary(), "7 teams extracted, need 8")
}

func TestRun_NoTables(t *testing.T) {
	p, dir, _ := newPipeline(t, "<html><body><p>Under maintenance</p></body></html>")

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusNoTable, report.Status)
	assert.Nil(t, report.Selection)

	data, err := os.ReadFile(persist.ErrorPath(dir, "2026-10-18"))
	require.NoError(t, err)
	assert.Equal(t, "No table found\n", string(data))
	assert.NoFileExists(t, persist.JSONPath(dir, "2026-10-18"))
	assert.NoFileExists(t, persist.CSVPath(dir, "2026-10-18"))
}

func TestRun_FallbackToLargestTable(t *testing.T) {
	var b strings.Builder
	b.WriteString("<table><tr><td>1</td></tr><tr><td>2</td></tr></table><table>")
	for i := 0; i < 9; i++ {
		fmt.Fprintf(&b, "<tr><td>%d</td><td>x</td></tr>", i+1)
	}
	b.WriteString("</table>")
	p, _, _ := newPipeline(t, b.String())

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, standings.MethodLargest, report.Selection.Method)
	assert.Equal(t, 1, report.Selection.Candidate.Index)
	assert.Equal(t, StatusOK, report.Status, "numeric team labels still count as teams")
}

func TestRun_FetchFailureWritesNothing(t *testing.T) {
	p, dir, f := newPipeline(t, "")
	f.err = errors.New("connection refused")

	report, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Contains(t, err.Error(), "connection refused")
	assert.NoDirExists(t, dir)
}

func TestRun_MirrorFailureKeepsSuccess(t *testing.T) {
	p, dir, _ := newPipeline(t, standingsPage(9))
	m := &fakeMirror{err: errors.New("db down")}
	p.WithMirror(m)

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusOK, report.Status)
	require.Len(t, m.saved, 1)
	assert.Len(t, m.saved[0].Teams, 9)
	assert.FileExists(t, persist.JSONPath(dir, "2026-10-18"))
}

func TestRun_Latin1PageRoundTrips(t *testing.T) {
	page := strings.Replace(standingsPage(9), "Burnley", "Atl\xe9tico", 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		w.Write([]byte(page))
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.SourceURL = srv.URL + "/latest.asp?league=spain"
	client := fetch.NewClient(cfg.RequestHeaders, time.Second, nil)
	p := New(cfg, client, persist.NewWriter(dir, nil), standings.Aliases{"Atlético": "Atlético Madrid"}, nil).
		WithClock(fixedNow)

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusOK, report.Status)

	res, err := persist.ReadResult(dir, "2026-10-18")
	require.NoError(t, err)
	assert.Equal(t, "Atlético", res.Teams[7].TeamRaw)
	assert.Equal(t, "Atlético Madrid", res.Teams[7].Team, "decoded names match UTF-8 alias keys")

	raw, err := persist.ReadTabular(dir, "2026-10-18")
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(raw, []byte("\ufeff")))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-10-18", "Atlético Madrid", "Atlético"}, records[8][:3])
}
