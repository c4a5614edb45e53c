package notify_test

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/huddle/internal/adapters/notify"
	"github.com/okian/huddle/internal/balancer"
	"github.com/okian/huddle/internal/domain/team"
	"github.com/okian/huddle/pkg/logger"
)

func TestConsoleNotifier(t *testing.T) {
	Convey("Given a console notifier", t, func() {
		_ = logger.Init()
		ctx := context.Background()
		n := notify.NewConsoleNotifier()

		Convey("When reporting an under-minimum team", func() {
			err := n.NotifyTeamUnderMinimum(ctx, balancer.UnderMinimumNotice{
				LeavingParticipantName:    "carol",
				TeamID:                    team.NewID(),
				CurrentMemberCount:        2,
				RemainingParticipantNames: []string{"alice", "bob"},
			})

			Convey("Then the notice is accepted", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When reporting a stranded participant", func() {
			err := n.NotifyNoMergeTarget(ctx, balancer.NoMergeTargetNotice{
				LeavingParticipantName: "erin",
				SoleParticipantName:    "dave",
			})

			Convey("Then the notice is accepted", func() {
				So(err, ShouldBeNil)
			})
		})
	})
}
