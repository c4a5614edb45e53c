package balancer

import (
	"context"
	"fmt"

	"github.com/okian/huddle/internal/domain/assignment"
	"github.com/okian/huddle/internal/domain/team"
	"github.com/okian/huddle/pkg/logger"
	"github.com/okian/huddle/pkg/metrics"
)

// Split divides a team at the split threshold into two teams inside the
// capacity band. Membership is shuffled first so the two halves are a random
// partition, and the new team takes the lowest free letter name.
type Split struct {
	counts  MemberCountQuery
	assign  Assignment
	teams   TeamRepository
	divider *assignment.Service
	log     logger.Logger
}

// NewSplit creates the team split use case.
func NewSplit(counts MemberCountQuery, assign Assignment, teams TeamRepository, divider *assignment.Service, opts ...SplitOption) *Split {
	u := &Split{
		counts:  counts,
		assign:  assign,
		teams:   teams,
		divider: divider,
	}

	// Apply all options
	for _, opt := range opts {
		opt(u)
	}

	if u.log == nil {
		u.log = logger.Get().Named("split")
	}

	return u
}

// SplitOption applies a configuration option to the Split use case.
type SplitOption func(*Split)

// WithSplitLogger sets a custom logger.
func WithSplitLogger(log logger.Logger) SplitOption {
	return func(u *Split) {
		if log != nil {
			u.log = log
		}
	}
}

// Execute splits teamID in two. The precondition is re-checked against the
// store so a stale trigger cannot split an undersized team; on precondition
// failure nothing is persisted.
func (u *Split) Execute(ctx context.Context, teamID team.ID) error {
	members, err := u.counts.TeamMembers(ctx, teamID)
	if err != nil {
		return fmt.Errorf("querying team members: %w", err)
	}

	if len(members) < team.SplitThreshold {
		return fmt.Errorf("%w: team %s has %d members", ErrTeamTooSmallToSplit, teamID, len(members))
	}

	parts := u.divider.SplitMembers(members)

	existing, err := u.teams.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("querying existing teams: %w", err)
	}
	used := make([]team.Name, 0, len(existing))
	for _, t := range existing {
		used = append(used, t.Name)
	}

	name, err := assignment.NextTeamName(used)
	if err != nil {
		return err
	}

	newTeam := team.New(name)
	if err := u.teams.Save(ctx, newTeam); err != nil {
		return fmt.Errorf("saving new team: %w", err)
	}

	for _, m := range parts.NewTeamMembers {
		if err := u.assign.AssignToTeam(ctx, m.ParticipantID, newTeam.ID); err != nil {
			return fmt.Errorf("moving participant to new team: %w", err)
		}
	}
	metrics.RecordSplit()

	u.log.Info(ctx, "team split",
		logger.String("teamID", string(teamID)),
		logger.String("newTeamID", string(newTeam.ID)),
		logger.String("newTeamName", string(name)),
		logger.Int("stayed", len(parts.OriginalTeamMembers)),
		logger.Int("moved", len(parts.NewTeamMembers)),
	)
	return nil
}
