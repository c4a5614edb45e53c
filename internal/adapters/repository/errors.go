package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrTeamNotFound        = errors.New("team not found")
	ErrTeamNameTaken       = errors.New("team name already taken")
	ErrParticipantNotFound = errors.New("participant not found")
)
