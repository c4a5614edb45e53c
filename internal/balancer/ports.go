// Package balancer implements the team capacity balancing use cases: member
// join, member leave, and team split. It depends only on the ports declared
// here; storage and notification adapters implement them.
package balancer

import (
	"context"

	"github.com/okian/huddle/internal/domain/assignment"
	"github.com/okian/huddle/internal/domain/team"
)

// MemberCountQuery reads team populations from the participant store.
// Member counts cover active participants whose team pointer equals the team.
type MemberCountQuery interface {
	// AllTeamMemberCounts returns every team with its current member count.
	AllTeamMemberCounts(ctx context.Context) ([]assignment.TeamWithMemberCount, error)

	// TeamMemberCount returns the member count of one team.
	TeamMemberCount(ctx context.Context, teamID team.ID) (int, error)

	// TeamMembers returns the members of one team.
	TeamMembers(ctx context.Context, teamID team.ID) ([]team.MemberInfo, error)
}

// Assignment mutates a participant's team pointer in the participant store.
type Assignment interface {
	AssignToTeam(ctx context.Context, participantID team.ParticipantID, teamID team.ID) error
}

// UnderMinimumNotice carries the context of a team shrinking to the minimum.
type UnderMinimumNotice struct {
	LeavingParticipantName    string
	TeamID                    team.ID
	CurrentMemberCount        int
	RemainingParticipantNames []string
}

// NoMergeTargetNotice carries the context of a stranded sole survivor.
type NoMergeTargetNotice struct {
	LeavingParticipantName string
	SoleParticipantName    string
}

// AdminNotifier escalates situations the balancer cannot resolve on its own.
type AdminNotifier interface {
	NotifyTeamUnderMinimum(ctx context.Context, notice UnderMinimumNotice) error
	NotifyNoMergeTarget(ctx context.Context, notice NoMergeTargetNotice) error
}

// TeamRepository persists the team aggregate.
type TeamRepository interface {
	Save(ctx context.Context, t team.Team) error
	FindByID(ctx context.Context, id team.ID) (team.Team, error)
	FindAll(ctx context.Context) ([]team.Team, error)
}

// Splitter divides an oversized team in two. Implemented by Split; declared
// as an interface so Join does not depend on the concrete use case.
type Splitter interface {
	Execute(ctx context.Context, teamID team.ID) error
}
