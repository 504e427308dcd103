package standings

import (
	"errors"
	"fmt"
)

// ErrTooFewTeams means fewer team records than the configured minimum.
var ErrTooFewTeams = errors.New("too few teams extracted")

// Validate succeeds iff teams holds at least minTeams records.
func Validate(teams []TeamRecord, minTeams int) error {
	if len(teams) < minTeams {
		return fmt.Errorf("%w: got %d, need %d", ErrTooFewTeams, len(teams), minTeams)
	}
	return nil
}
