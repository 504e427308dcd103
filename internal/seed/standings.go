package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/albapepper/scoracle-standings/internal/persist"
	"github.com/albapepper/scoracle-standings/internal/standings"
)

// Execer is the part of pgxpool.Pool the mirror needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Mirror upserts every team of a successful result as one snapshot row.
type Mirror struct {
	db     Execer
	logger *slog.Logger
}

// NewMirror creates a mirror writing through db.
func NewMirror(db Execer, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror{db: db, logger: logger}
}

// Save upserts res and removes rows of the same date and league that the
// new result no longer contains.
func (m *Mirror) Save(ctx context.Context, res *standings.Result) error {
	result := SeedStandings(ctx, m.db, res)
	m.logger.Info("Mirror finished", "date", res.Date, "league", res.League, "summary", result.Summary())
	for _, e := range result.Errors {
		m.logger.Error("mirror error", "error", e)
	}
	return result.Err()
}

// SeedStandings writes one row per team of res.
func SeedStandings(ctx context.Context, db Execer, res *standings.Result) SeedResult {
	var result SeedResult

	day, err := time.Parse(persist.DateLayout, res.Date)
	if err != nil {
		result.AddErrorf("parse date %q: %v", res.Date, err)
		return result
	}

	keep := make([]string, 0, len(res.Teams))
	for i, t := range res.Teams {
		if err := UpsertTeam(ctx, db, day, res, i, t); err != nil {
			result.AddErrorf("upsert team %q: %v", t.TeamRaw, err)
			continue
		}
		result.TeamsUpserted++
		keep = append(keep, t.TeamRaw)
	}

	if len(result.Errors) == 0 {
		tag, err := db.Exec(ctx, "delete_snapshot_extra", day, res.League, keep)
		if err != nil {
			result.AddErrorf("delete stale rows: %v", err)
		} else {
			result.StaleRemoved = tag.RowsAffected()
		}
	}
	return result
}

// UpsertTeam writes one team of res at the given table position.
func UpsertTeam(ctx context.Context, db Execer, day time.Time, res *standings.Result, position int, t standings.TeamRecord) error {
	metrics, err := json.Marshal(t.Metrics)
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}
	_, err = db.Exec(ctx, "upsert_snapshot_team",
		day, res.League, t.TeamRaw, t.Team, res.SourceURL, position+1, metrics,
	)
	return err
}
