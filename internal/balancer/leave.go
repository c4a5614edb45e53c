package balancer

import (
	"context"
	"fmt"

	"github.com/okian/huddle/internal/domain/assignment"
	"github.com/okian/huddle/internal/domain/team"
	"github.com/okian/huddle/pkg/logger"
	"github.com/okian/huddle/pkg/metrics"
)

// Leave checks the consistency of a team after a member departed and repairs
// what it can: a sole survivor is merged into another team, and situations
// without an automatic fix are escalated to an administrator.
//
// The departure itself has already happened by the time Execute runs; the
// leaving participant no longer counts toward the team's population.
type Leave struct {
	counts   MemberCountQuery
	assign   Assignment
	notifier AdminNotifier
	picker   *assignment.Service
	log      logger.Logger
}

// NewLeave creates the member leave use case.
func NewLeave(counts MemberCountQuery, assign Assignment, notifier AdminNotifier, picker *assignment.Service, opts ...LeaveOption) *Leave {
	u := &Leave{
		counts:   counts,
		assign:   assign,
		notifier: notifier,
		picker:   picker,
	}

	// Apply all options
	for _, opt := range opts {
		opt(u)
	}

	if u.log == nil {
		u.log = logger.Get().Named("leave")
	}

	return u
}

// LeaveOption applies a configuration option to the Leave use case.
type LeaveOption func(*Leave)

// WithLeaveLogger sets a custom logger.
func WithLeaveLogger(log logger.Logger) LeaveOption {
	return func(u *Leave) {
		if log != nil {
			u.log = log
		}
	}
}

// Execute inspects the team the participant left and returns the resulting
// consistency state. leavingName is the display name of the departed
// participant, used in escalation notices.
func (u *Leave) Execute(ctx context.Context, teamID team.ID, leavingName string) (team.ConsistencyResult, error) {
	count, err := u.counts.TeamMemberCount(ctx, teamID)
	if err != nil {
		return team.ConsistencyResult{}, fmt.Errorf("querying team member count: %w", err)
	}
	metrics.RecordLeave()

	switch {
	case count >= team.MinSize+1:
		// Still comfortably inside the band.
		return team.ConsistencyOK(), nil

	case count == team.MinSize:
		return u.handleUnderMinimum(ctx, teamID, leavingName, count)

	case count == 1:
		return u.handleSoleSurvivor(ctx, teamID, leavingName)

	default:
		// Empty team; nothing left to repair.
		return team.ConsistencyOK(), nil
	}
}

// handleUnderMinimum escalates a team that dropped to the minimum size. The
// team keeps operating but the next departure strands a sole survivor, so an
// administrator is warned ahead of time.
func (u *Leave) handleUnderMinimum(ctx context.Context, teamID team.ID, leavingName string, count int) (team.ConsistencyResult, error) {
	members, err := u.counts.TeamMembers(ctx, teamID)
	if err != nil {
		return team.ConsistencyResult{}, fmt.Errorf("querying team members: %w", err)
	}

	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.Name)
	}

	notice := UnderMinimumNotice{
		LeavingParticipantName:    leavingName,
		TeamID:                    teamID,
		CurrentMemberCount:        count,
		RemainingParticipantNames: names,
	}
	if err := u.notifier.NotifyTeamUnderMinimum(ctx, notice); err != nil {
		return team.ConsistencyResult{}, fmt.Errorf("notifying admin of under-minimum team: %w", err)
	}
	metrics.RecordEscalation("under_minimum")

	u.log.Warn(ctx, "team at minimum size after departure",
		logger.String("teamID", string(teamID)),
		logger.Int("memberCount", count),
	)
	return team.ConsistencyUnderMinimum(teamID, count, members), nil
}

// handleSoleSurvivor merges the last remaining member into another team, or
// escalates when every other team is full.
func (u *Leave) handleSoleSurvivor(ctx context.Context, teamID team.ID, leavingName string) (team.ConsistencyResult, error) {
	members, err := u.counts.TeamMembers(ctx, teamID)
	if err != nil {
		return team.ConsistencyResult{}, fmt.Errorf("querying team members: %w", err)
	}
	if len(members) == 0 {
		// Count and membership disagree; the member left in the meantime.
		return team.ConsistencyOK(), nil
	}
	sole := members[0]

	allCounts, err := u.counts.AllTeamMemberCounts(ctx)
	if err != nil {
		return team.ConsistencyResult{}, fmt.Errorf("querying team member counts: %w", err)
	}

	// The survivor's own team is not a merge candidate.
	others := make([]assignment.TeamWithMemberCount, 0, len(allCounts))
	for _, c := range allCounts {
		if c.TeamID != teamID {
			others = append(others, c)
		}
	}

	// Merge destinations must stay within the maximum size after the move.
	target, ok := u.picker.SelectLeastPopulated(others, team.MaxSize)
	if !ok {
		notice := NoMergeTargetNotice{
			LeavingParticipantName: leavingName,
			SoleParticipantName:    sole.Name,
		}
		if err := u.notifier.NotifyNoMergeTarget(ctx, notice); err != nil {
			return team.ConsistencyResult{}, fmt.Errorf("notifying admin of stranded participant: %w", err)
		}
		metrics.RecordEscalation("no_merge_target")

		u.log.Warn(ctx, "sole survivor stranded; no merge target",
			logger.String("teamID", string(teamID)),
			logger.String("participant", sole.Name),
		)
		return team.ConsistencyNoMergeTarget(sole), nil
	}

	if err := u.assign.AssignToTeam(ctx, sole.ParticipantID, target.TeamID); err != nil {
		return team.ConsistencyResult{}, fmt.Errorf("merging sole survivor into team: %w", err)
	}
	metrics.RecordMerge()

	u.log.Info(ctx, "sole survivor merged",
		logger.String("fromTeamID", string(teamID)),
		logger.String("toTeamID", string(target.TeamID)),
		logger.String("participant", sole.Name),
	)
	return team.ConsistencyNeedsMerge(teamID, sole), nil
}
