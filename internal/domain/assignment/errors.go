package assignment

import "errors"

// Sentinel kinds for assignment errors.
var (
	// ErrTeamNamesExhausted means all 26 single-letter names are in use.
	ErrTeamNamesExhausted = errors.New("no team name available")
)
