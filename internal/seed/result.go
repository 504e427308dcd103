// Package seed mirrors extraction results into Postgres.
package seed

import "fmt"

// SeedResult tracks counts and errors from a mirror operation.
type SeedResult struct {
	TeamsUpserted int
	StaleRemoved  int64
	Errors        []string
}

// AddErrorf records a formatted error message.
func (r *SeedResult) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Err folds the recorded errors into one error, or nil.
func (r *SeedResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("%d mirror errors, first: %s", len(r.Errors), r.Errors[0])
}

// Summary returns a human-readable summary of the seed operation.
func (r *SeedResult) Summary() string {
	return fmt.Sprintf(
		"teams=%d stale_removed=%d errors=%d",
		r.TeamsUpserted, r.StaleRemoved, len(r.Errors),
	)
}
