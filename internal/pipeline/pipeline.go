// Package pipeline runs one extraction: fetch the page, pick the standings
// table, build team records, validate, persist.
//
// The run is single-pass. A fetch failure is returned as an error and leaves
// no files. A page without tables and a result with too few teams are
// ordinary outcomes reported through Report.Status; each leaves only the
// diagnostic artifact.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/albapepper/scoracle-standings/internal/config"
	"github.com/albapepper/scoracle-standings/internal/persist"
	"github.com/albapepper/scoracle-standings/internal/standings"
	"github.com/albapepper/scoracle-standings/internal/table"
)

// Fetcher returns the markup at url.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Mirror receives successful results after they are on disk.
type Mirror interface {
	Save(ctx context.Context, res *standings.Result) error
}

// Status is the outcome of a run that got past the fetch.
type Status int

const (
	StatusOK Status = iota
	StatusNoTable
	StatusValidationFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoTable:
		return "no_table"
	case StatusValidationFailed:
		return "validation_failed"
	default:
		return "unknown"
	}
}

// Report describes a finished run.
type Report struct {
	Status     Status
	Date       string
	Candidates int
	Selection  *standings.Selection
	Skipped    map[standings.SkipReason]int
	Result     *standings.Result
	Paths      persist.Paths
	Diagnostic string
	MinTeams   int
}

// Failed reports whether the run ended without writing the documents.
func (r *Report) Failed() bool { return r.Status != StatusOK }

// Summary is the one-line status printed at the end of a run.
func (r *Report) Summary() string {
	switch r.Status {
	case StatusOK:
		return fmt.Sprintf("OK: %d teams saved -> %s / %s", len(r.Result.Teams), r.Paths.JSON, r.Paths.CSV)
	case StatusNoTable:
		return fmt.Sprintf("ERROR: no table found (see %s)", r.Diagnostic)
	case StatusValidationFailed:
		return fmt.Sprintf("Validation failed: %d teams extracted, need %d (see %s)",
			len(r.Result.Teams), r.MinTeams, r.Diagnostic)
	default:
		return r.Status.String()
	}
}

// Pipeline holds everything one run needs.
type Pipeline struct {
	sourceURL string
	league    string
	minTeams  int

	fetcher Fetcher
	writer  *persist.Writer
	aliases standings.Aliases
	mirror  Mirror
	now     func() time.Time
	logger  *slog.Logger
}

// New creates a pipeline for cfg. aliases may be nil.
func New(cfg *config.Config, fetcher Fetcher, writer *persist.Writer, aliases standings.Aliases, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		sourceURL: cfg.SourceURL,
		league:    cfg.League(),
		minTeams:  cfg.MinTeamsExpected,
		fetcher:   fetcher,
		writer:    writer,
		aliases:   aliases,
		now:       time.Now,
		logger:    logger,
	}
}

// WithMirror copies successful results to m.
func (p *Pipeline) WithMirror(m Mirror) *Pipeline {
	p.mirror = m
	return p
}

// WithClock replaces the clock used to stamp the run date.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Run executes the pipeline once.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	p.logger.Info("Starting extraction", "url", p.sourceURL, "league", p.league)

	markup, err := p.fetcher.Fetch(ctx, p.sourceURL)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}

	cands, err := table.Extract(markup)
	if err != nil {
		return nil, fmt.Errorf("extract tables: %w", err)
	}

	date := p.now().Format(persist.DateLayout)
	report := &Report{
		Date:       date,
		Candidates: len(cands),
		MinTeams:   p.minTeams,
		Result:     standings.NewResult(date, p.sourceURL, p.league),
	}
	p.logger.Info("Extracted tables", "candidates", len(cands))

	sel, err := standings.SelectTeamTable(cands)
	if errors.Is(err, standings.ErrNoTable) {
		report.Status = StatusNoTable
		report.Diagnostic, err = p.writer.WriteNoTable(date)
		if err != nil {
			return report, err
		}
		return report, nil
	}
	if err != nil {
		return nil, err
	}
	report.Selection = &sel
	p.logger.Info("Selected team table",
		"method", sel.Method.String(),
		"table_index", sel.Candidate.Index,
		"rows", sel.Candidate.Table.NumRows(),
		"cols", sel.Candidate.Table.NumCols(),
		"name_like", sel.NameLike)

	teams, outcomes := standings.Project(sel.Candidate.Table, p.aliases)
	report.Result.Teams = teams
	report.Skipped = standings.SkipCounts(outcomes)
	p.logger.Info("Projected rows", "teams", len(teams), "skipped", len(outcomes)-len(teams))

	if err := standings.Validate(teams, p.minTeams); err != nil {
		p.logger.Warn("Validation failed", "error", err)
		report.Status = StatusValidationFailed
		report.Diagnostic, err = p.writer.WriteValidationFailure(report.Result)
		if err != nil {
			return report, err
		}
		return report, nil
	}

	report.Paths, err = p.writer.WriteResult(report.Result)
	if err != nil {
		return report, err
	}
	report.Status = StatusOK

	if p.mirror != nil {
		if err := p.mirror.Save(ctx, report.Result); err != nil {
			p.logger.Error("Mirror failed", "error", err)
		}
	}
	return report, nil
}
