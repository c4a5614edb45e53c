package balancer

import (
	"context"
	"fmt"

	"github.com/okian/huddle/internal/domain/assignment"
	"github.com/okian/huddle/internal/domain/team"
	"github.com/okian/huddle/pkg/logger"
	"github.com/okian/huddle/pkg/metrics"
)

// JoinResult reports where a participant landed and whether the assignment
// forced a split.
type JoinResult struct {
	AssignedTeamID team.ID
	TeamWasSplit   bool
}

// Join assigns a newly active participant to the least populated team.
//
// Eligibility runs against the split threshold rather than the maximum size:
// a team may be filled to the threshold by a join, and is then immediately
// split back into two teams inside the band.
type Join struct {
	counts   MemberCountQuery
	assign   Assignment
	splitter Splitter
	picker   *assignment.Service
	log      logger.Logger
}

// NewJoin creates the member join use case.
func NewJoin(counts MemberCountQuery, assign Assignment, splitter Splitter, picker *assignment.Service, opts ...JoinOption) *Join {
	u := &Join{
		counts:   counts,
		assign:   assign,
		splitter: splitter,
		picker:   picker,
	}

	// Apply all options
	for _, opt := range opts {
		opt(u)
	}

	if u.log == nil {
		u.log = logger.Get().Named("join")
	}

	return u
}

// JoinOption applies a configuration option to the Join use case.
type JoinOption func(*Join)

// WithJoinLogger sets a custom logger.
func WithJoinLogger(log logger.Logger) JoinOption {
	return func(u *Join) {
		if log != nil {
			u.log = log
		}
	}
}

// Execute assigns the participant to a team, splitting the destination when
// the assignment fills it to the split threshold.
func (u *Join) Execute(ctx context.Context, participantID string) (JoinResult, error) {
	pid, err := team.ParseParticipantID(participantID)
	if err != nil {
		return JoinResult{}, err
	}

	allCounts, err := u.counts.AllTeamMemberCounts(ctx)
	if err != nil {
		return JoinResult{}, fmt.Errorf("querying team member counts: %w", err)
	}

	target, ok := u.picker.SelectLeastPopulated(allCounts, team.SplitThreshold)
	if !ok {
		return JoinResult{}, ErrNoAvailableTeam
	}

	if err := u.assign.AssignToTeam(ctx, pid, target.TeamID); err != nil {
		return JoinResult{}, fmt.Errorf("assigning participant to team: %w", err)
	}
	metrics.RecordJoin()

	newMemberCount := target.MemberCount + 1
	if newMemberCount >= team.SplitThreshold {
		if err := u.splitter.Execute(ctx, target.TeamID); err != nil {
			return JoinResult{}, fmt.Errorf("splitting team after join: %w", err)
		}
		u.log.Info(ctx, "participant assigned; destination split",
			logger.String("participantID", participantID),
			logger.String("teamID", string(target.TeamID)),
			logger.Int("memberCount", newMemberCount),
		)
		return JoinResult{AssignedTeamID: target.TeamID, TeamWasSplit: true}, nil
	}

	u.log.Info(ctx, "participant assigned",
		logger.String("participantID", participantID),
		logger.String("teamID", string(target.TeamID)),
		logger.Int("memberCount", newMemberCount),
	)
	return JoinResult{AssignedTeamID: target.TeamID, TeamWasSplit: false}, nil
}
