package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	service "github.com/okian/huddle/internal/app"
	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/pkg/logger"
	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(50_000),
			service.WithDedupeSize(25_000),
			service.WithBootstrapTeams(3),
			service.WithSeed(42),
		)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()
		// Ensure service is stopped after test
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
			})

			Convey("And it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
			})

			Convey("And it should have created the bootstrap teams", func() {
				teams, err := svc.Teams(ctx)
				So(err, ShouldBeNil)
				So(teams, ShouldHaveLength, 2)
				So(string(teams[0].Name), ShouldEqual, "a")
				So(string(teams[1].Name), ShouldEqual, "b")
			})
		})
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := svc.Start(ctx)
		So(err, ShouldBeNil)

		Convey("When stopping the service", func() {
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_SeenAndRecord(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := svc.Start(ctx)
		So(err, ShouldBeNil)
		// Ensure service is stopped after test
		defer svc.Stop()

		Convey("When checking a new event ID", func() {
			eventID := "event-123"
			seen := svc.SeenAndRecord(ctx, eventID)

			Convey("Then it should not have been seen before", func() {
				So(seen, ShouldBeFalse)
			})
		})

		Convey("When checking the same event ID again", func() {
			eventID := "event-456"
			svc.SeenAndRecord(ctx, eventID)         // First time
			seen := svc.SeenAndRecord(ctx, eventID) // Second time

			Convey("Then it should have been seen before", func() {
				So(seen, ShouldBeTrue)
			})
		})

		Convey("When unrecording an event ID", func() {
			eventID := "event-789"
			svc.SeenAndRecord(ctx, eventID)
			svc.Unrecord(ctx, eventID)
			seen := svc.SeenAndRecord(ctx, eventID)

			Convey("Then it should be treated as new again", func() {
				So(seen, ShouldBeFalse)
			})
		})
	})
}

func TestService_Enqueue(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := svc.Start(ctx)
		So(err, ShouldBeNil)
		// Ensure service is stopped after test
		defer svc.Stop()

		Convey("When enqueueing a reactivation event", func() {
			event := model.Event{
				EventID:         "event-123",
				Type:            model.ParticipantReactivated,
				ParticipantID:   uuid.NewString(),
				ParticipantName: "alice",
				TS:              time.Now(),
			}

			success := svc.Enqueue(ctx, event)

			Convey("Then it should be enqueued successfully", func() {
				So(success, ShouldBeTrue)
			})
		})
	})
}

func TestService_Balancing(t *testing.T) {
	Convey("Given a started service with a fixed seed", t, func() {
		svc := service.New(service.WithSeed(1))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := svc.Start(ctx)
		So(err, ShouldBeNil)
		defer svc.Stop()

		Convey("When five participants are reactivated", func() {
			for i := 0; i < 5; i++ {
				event := model.Event{
					EventID:         fmt.Sprintf("join-%d", i),
					Type:            model.ParticipantReactivated,
					ParticipantID:   uuid.NewString(),
					ParticipantName: fmt.Sprintf("member%d", i),
					TS:              time.Now(),
				}
				So(svc.Enqueue(ctx, event), ShouldBeTrue)
			}

			// Wait for the workers to drain the queue
			assigned := 0
			deadline := time.Now().Add(5 * time.Second)
			for time.Now().Before(deadline) {
				teams, err := svc.Teams(ctx)
				So(err, ShouldBeNil)
				assigned = 0
				for _, team := range teams {
					assigned += team.MemberCount
				}
				if assigned == 5 {
					break
				}
				time.Sleep(20 * time.Millisecond)
			}

			Convey("Then every participant ends up on a team within capacity", func() {
				So(assigned, ShouldEqual, 5)
				teams, err := svc.Teams(ctx)
				So(err, ShouldBeNil)
				for _, team := range teams {
					So(team.MemberCount, ShouldBeLessThanOrEqualTo, 4)
				}
			})
		})
	})
}

func TestService_GetStats(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()

		Convey("When getting stats before starting", func() {
			stats := svc.GetStats()

			Convey("Then it should return basic stats", func() {
				So(stats, ShouldNotBeNil)
				So(stats["started"], ShouldEqual, false)
			})
		})
	})
}
