// Package notify delivers admin escalations. The console notifier writes
// them to the structured log; a real deployment would swap in email or chat.
package notify

import (
	"context"
	"strings"

	"github.com/okian/huddle/internal/balancer"
	"github.com/okian/huddle/pkg/logger"
)

// ConsoleNotifier implements balancer.AdminNotifier on the logger.
type ConsoleNotifier struct {
	log logger.Logger
}

var _ balancer.AdminNotifier = (*ConsoleNotifier)(nil)

// Option applies a configuration option to the ConsoleNotifier.
type Option func(*ConsoleNotifier)

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(n *ConsoleNotifier) {
		if log != nil {
			n.log = log
		}
	}
}

// NewConsoleNotifier creates a notifier that logs escalations.
func NewConsoleNotifier(opts ...Option) *ConsoleNotifier {
	n := &ConsoleNotifier{}

	// Apply all options
	for _, opt := range opts {
		opt(n)
	}

	if n.log == nil {
		n.log = logger.Get().Named("notify")
	}

	return n
}

// NotifyTeamUnderMinimum reports a team that shrank to the minimum size.
func (n *ConsoleNotifier) NotifyTeamUnderMinimum(ctx context.Context, notice balancer.UnderMinimumNotice) error {
	n.log.Warn(ctx, "admin notice: team at minimum size",
		logger.String("teamID", string(notice.TeamID)),
		logger.Int("memberCount", notice.CurrentMemberCount),
		logger.String("leavingParticipant", notice.LeavingParticipantName),
		logger.String("remainingParticipants", strings.Join(notice.RemainingParticipantNames, ", ")),
	)
	return nil
}

// NotifyNoMergeTarget reports a sole survivor that could not be merged.
func (n *ConsoleNotifier) NotifyNoMergeTarget(ctx context.Context, notice balancer.NoMergeTargetNotice) error {
	n.log.Warn(ctx, "admin notice: stranded participant, no merge target",
		logger.String("leavingParticipant", notice.LeavingParticipantName),
		logger.String("soleParticipant", notice.SoleParticipantName),
	)
	return nil
}
