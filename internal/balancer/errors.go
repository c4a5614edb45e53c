package balancer

import "errors"

// Sentinel kinds for balancing domain errors. These abort a use case before
// any mutation; infrastructure failures from the ports are wrapped and
// propagated instead.
var (
	// ErrNoAvailableTeam means no team can accept a new member.
	ErrNoAvailableTeam = errors.New("no team available for assignment")

	// ErrTeamTooSmallToSplit means the team is below the split threshold.
	ErrTeamTooSmallToSplit = errors.New("team member count too low to split")
)
