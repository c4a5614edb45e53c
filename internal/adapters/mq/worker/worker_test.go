package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/huddle/internal/adapters/mq/queue"
	worker "github.com/okian/huddle/internal/adapters/mq/worker"
	"github.com/okian/huddle/internal/balancer"
	model "github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/internal/domain/team"
	logging "github.com/okian/huddle/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockQueue struct {
	eventChan  chan queue.Event
	closeError error
}

func newMockQueue() *mockQueue {
	return &mockQueue{
		eventChan: make(chan queue.Event, 10),
	}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Event {
	return mq.eventChan
}

func (mq *mockQueue) Close() error {
	close(mq.eventChan)
	return mq.closeError
}

func (mq *mockQueue) addEvent(event queue.Event) {
	mq.eventChan <- event
}

type mockDirectory struct {
	statuses map[string]model.ParticipantStatus
	mu       sync.RWMutex
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		statuses: make(map[string]model.ParticipantStatus),
	}
}

func (md *mockDirectory) RecordReactivation(ctx context.Context, participantID, name string) error {
	md.mu.Lock()
	defer md.mu.Unlock()
	md.statuses[participantID] = model.StatusActive
	return nil
}

func (md *mockDirectory) RecordDeparture(ctx context.Context, participantID string, status model.ParticipantStatus) error {
	md.mu.Lock()
	defer md.mu.Unlock()
	md.statuses[participantID] = status
	return nil
}

func (md *mockDirectory) statusOf(participantID string) (model.ParticipantStatus, bool) {
	md.mu.RLock()
	defer md.mu.RUnlock()
	status, exists := md.statuses[participantID]
	return status, exists
}

type mockJoin struct {
	joined []string
	errors map[string]error
	target team.ID
	mu     sync.RWMutex
}

func newMockJoin() *mockJoin {
	return &mockJoin{
		errors: make(map[string]error),
		target: team.NewID(),
	}
}

func (mj *mockJoin) Execute(ctx context.Context, participantID string) (balancer.JoinResult, error) {
	mj.mu.Lock()
	defer mj.mu.Unlock()

	if err, exists := mj.errors[participantID]; exists {
		return balancer.JoinResult{}, err
	}

	mj.joined = append(mj.joined, participantID)
	return balancer.JoinResult{AssignedTeamID: mj.target}, nil
}

func (mj *mockJoin) setError(participantID string, err error) {
	mj.mu.Lock()
	defer mj.mu.Unlock()
	mj.errors[participantID] = err
}

func (mj *mockJoin) joinCount() int {
	mj.mu.RLock()
	defer mj.mu.RUnlock()
	return len(mj.joined)
}

func (mj *mockJoin) wasJoined(participantID string) bool {
	mj.mu.RLock()
	defer mj.mu.RUnlock()
	for _, id := range mj.joined {
		if id == participantID {
			return true
		}
	}
	return false
}

type mockLeave struct {
	checked []team.ID
	errors  map[team.ID]error
	mu      sync.RWMutex
}

func newMockLeave() *mockLeave {
	return &mockLeave{
		errors: make(map[team.ID]error),
	}
}

func (ml *mockLeave) Execute(ctx context.Context, teamID team.ID, leavingName string) (team.ConsistencyResult, error) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	if err, exists := ml.errors[teamID]; exists {
		return team.ConsistencyResult{}, err
	}

	ml.checked = append(ml.checked, teamID)
	return team.ConsistencyOK(), nil
}

func (ml *mockLeave) setError(teamID team.ID, err error) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	ml.errors[teamID] = err
}

func (ml *mockLeave) wasChecked(teamID team.ID) bool {
	ml.mu.RLock()
	defer ml.mu.RUnlock()
	for _, id := range ml.checked {
		if id == teamID {
			return true
		}
	}
	return false
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a new InMemoryWorker", t, func() {
		// Initialize logging for tests
		_ = logging.Init()

		queue := newMockQueue()
		directory := newMockDirectory()
		join := newMockJoin()
		leave := newMockLeave()
		var balanceMu sync.Mutex

		convey.Convey("When creating a worker with default options", func() {
			worker := worker.NewInMemoryWorker(queue, directory, join, leave, &balanceMu)

			convey.Convey("Then it should be created successfully", func() {
				convey.So(worker, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When creating a worker with custom options", func() {
			worker := worker.NewInMemoryWorker(
				queue, directory, join, leave, &balanceMu,
				worker.WithName("test-worker"),
			)

			convey.Convey("Then it should be created successfully", func() {
				convey.So(worker, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When running a worker", func() {
			worker := worker.NewInMemoryWorker(queue, directory, join, leave, &balanceMu)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			// Start worker in goroutine
			go worker.Run(ctx)

			// Give worker time to start
			time.Sleep(10 * time.Millisecond)

			convey.Convey("And when processing a reactivation", func() {
				event := model.Event{
					EventID:       "event-1",
					Type:          model.ParticipantReactivated,
					ParticipantID: "participant-1",
					TS:            time.Now(),
				}

				queue.addEvent(event)

				// Give worker time to process
				time.Sleep(50 * time.Millisecond)

				convey.Convey("Then it should run the join flow", func() {
					convey.So(join.wasJoined("participant-1"), convey.ShouldBeTrue)

					status, recorded := directory.statusOf("participant-1")
					convey.So(recorded, convey.ShouldBeTrue)
					convey.So(status, convey.ShouldEqual, model.StatusActive)
				})
			})

			convey.Convey("And when processing a withdrawal", func() {
				previousTeam := team.NewID()
				event := model.Event{
					EventID:         "event-2",
					Type:            model.ParticipantWithdrawn,
					ParticipantID:   "participant-2",
					ParticipantName: "frank",
					PreviousTeamID:  string(previousTeam),
					TS:              time.Now(),
				}

				queue.addEvent(event)

				// Give worker time to process
				time.Sleep(50 * time.Millisecond)

				convey.Convey("Then it should run the leave flow", func() {
					convey.So(leave.wasChecked(previousTeam), convey.ShouldBeTrue)

					status, recorded := directory.statusOf("participant-2")
					convey.So(recorded, convey.ShouldBeTrue)
					convey.So(status, convey.ShouldEqual, model.StatusWithdrawn)
				})
			})

			convey.Convey("And when the join flow fails", func() {
				event := model.Event{
					EventID:       "event-3",
					Type:          model.ParticipantReactivated,
					ParticipantID: "participant-3",
					TS:            time.Now(),
				}

				join.setError("participant-3", errors.New("join error"))

				queue.addEvent(event)

				// Give worker time to process
				time.Sleep(50 * time.Millisecond)

				convey.Convey("Then the participant is not recorded as joined", func() {
					convey.So(join.wasJoined("participant-3"), convey.ShouldBeFalse)
				})
			})

			convey.Convey("And when a leave event has no usable team id", func() {
				event := model.Event{
					EventID:        "event-4",
					Type:           model.ParticipantSuspended,
					ParticipantID:  "participant-4",
					PreviousTeamID: "not-a-uuid",
					TS:             time.Now(),
				}

				queue.addEvent(event)

				// Give worker time to process
				time.Sleep(50 * time.Millisecond)

				convey.Convey("Then no leave check runs", func() {
					convey.So(leave.wasChecked(team.ID("not-a-uuid")), convey.ShouldBeFalse)
				})
			})

			convey.Convey("And when shutting down", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer shutdownCancel()

				err := worker.Shutdown(shutdownCtx)

				convey.Convey("Then it should shutdown gracefully", func() {
					convey.So(err, convey.ShouldBeNil)
				})
			})
		})

		convey.Convey("When context is cancelled", func() {
			worker := worker.NewInMemoryWorker(queue, directory, join, leave, &balanceMu)
			ctx, cancel := context.WithCancel(context.Background())

			// Start worker in goroutine
			go worker.Run(ctx)

			// Give worker time to start
			time.Sleep(10 * time.Millisecond)

			// Cancel context
			cancel()

			// Give worker time to stop
			time.Sleep(50 * time.Millisecond)

			convey.Convey("Then worker should stop", func() {
				// Worker should have stopped due to context cancellation
				convey.So(true, convey.ShouldBeTrue) // Placeholder assertion
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a new WorkerPool", t, func() {
		// Initialize logging for tests
		_ = logging.Init()

		queue := newMockQueue()
		directory := newMockDirectory()
		join := newMockJoin()
		leave := newMockLeave()
		var balanceMu sync.Mutex

		convey.Convey("When creating a worker pool with default count", func() {
			pool := worker.NewPool(0, queue, directory, join, leave, &balanceMu)

			convey.Convey("Then it should be created successfully", func() {
				convey.So(pool, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When creating a worker pool with custom count", func() {
			workerCount := 3
			pool := worker.NewPool(workerCount, queue, directory, join, leave, &balanceMu)

			convey.Convey("Then it should be created successfully", func() {
				convey.So(pool, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When starting a worker pool", func() {
			pool := worker.NewPool(2, queue, directory, join, leave, &balanceMu)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			pool.Start(ctx)

			// Give workers time to start
			time.Sleep(20 * time.Millisecond)

			convey.Convey("And when processing multiple events", func() {
				events := []model.Event{
					{EventID: "event-1", Type: model.ParticipantReactivated, ParticipantID: "participant-1", TS: time.Now()},
					{EventID: "event-2", Type: model.ParticipantReactivated, ParticipantID: "participant-2", TS: time.Now()},
					{EventID: "event-3", Type: model.ParticipantReactivated, ParticipantID: "participant-3", TS: time.Now()},
				}

				// Add events to queue
				for _, event := range events {
					queue.addEvent(event)
				}

				// Give workers time to process
				time.Sleep(100 * time.Millisecond)

				convey.Convey("Then all events should be processed", func() {
					for _, event := range events {
						convey.So(join.wasJoined(event.ParticipantID), convey.ShouldBeTrue)
					}
				})
			})

			convey.Convey("And when shutting down", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
				defer shutdownCancel()

				err := pool.Shutdown(shutdownCtx)

				convey.Convey("Then it should shutdown gracefully", func() {
					convey.So(err, convey.ShouldBeNil)
				})
			})
		})

		convey.Convey("When stopping a pool while the queue stays open", func() {
			pool := worker.NewPool(2, queue, directory, join, leave, &balanceMu)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			pool.Start(ctx)

			// Give workers time to start
			time.Sleep(20 * time.Millisecond)

			stopped := make(chan struct{})
			go func() {
				pool.Stop()
				close(stopped)
			}()

			convey.Convey("Then Stop should return promptly without the queue closing", func() {
				returned := false
				select {
				case <-stopped:
					returned = true
				case <-time.After(time.Second):
				}
				convey.So(returned, convey.ShouldBeTrue)
			})
		})
	})
}

func TestWorkerConcurrency(t *testing.T) {
	convey.Convey("Given a worker pool with multiple workers", t, func() {
		// Initialize logging for tests
		_ = logging.Init()

		queue := newMockQueue()
		directory := newMockDirectory()
		join := newMockJoin()
		leave := newMockLeave()
		var balanceMu sync.Mutex

		pool := worker.NewPool(4, queue, directory, join, leave, &balanceMu)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		pool.Start(ctx)

		// Give workers time to start
		time.Sleep(20 * time.Millisecond)

		convey.Convey("When processing many concurrent events", func() {
			const eventCount = 100
			var wg sync.WaitGroup

			// Start multiple goroutines adding events
			for i := 0; i < 5; i++ {
				wg.Add(1)
				go func(producerID int) {
					defer wg.Done()
					for j := 0; j < eventCount/5; j++ {
						event := model.Event{
							EventID:       fmt.Sprintf("event-%d-%d", producerID, j),
							Type:          model.ParticipantReactivated,
							ParticipantID: fmt.Sprintf("participant-%d-%d", producerID, j),
							TS:            time.Now(),
						}
						queue.addEvent(event)
					}
				}(i)
			}

			// Wait for all events to be added
			wg.Wait()

			// Give workers time to process
			time.Sleep(200 * time.Millisecond)

			convey.Convey("Then all events should be processed", func() {
				convey.So(join.joinCount(), convey.ShouldEqual, eventCount)
			})
		})
	})
}

func TestWorkerErrorHandling(t *testing.T) {
	convey.Convey("Given a worker with error conditions", t, func() {
		// Initialize logging for tests
		_ = logging.Init()

		queue := newMockQueue()
		directory := newMockDirectory()
		join := newMockJoin()
		leave := newMockLeave()
		var balanceMu sync.Mutex

		worker := worker.NewInMemoryWorker(queue, directory, join, leave, &balanceMu)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Start worker in goroutine
		go worker.Run(ctx)

		// Give worker time to start
		time.Sleep(10 * time.Millisecond)

		convey.Convey("When the leave flow consistently fails", func() {
			failingTeam := team.NewID()
			leave.setError(failingTeam, errors.New("persistent leave error"))

			event := model.Event{
				EventID:         "event-error",
				Type:            model.ParticipantWithdrawn,
				ParticipantID:   "participant-error",
				ParticipantName: "mallory",
				PreviousTeamID:  string(failingTeam),
				TS:              time.Now(),
			}

			queue.addEvent(event)

			// Give worker time to process
			time.Sleep(50 * time.Millisecond)

			convey.Convey("Then the team is not recorded as checked", func() {
				convey.So(leave.wasChecked(failingTeam), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When queue channel is closed", func() {
			// Close the queue
			_ = queue.Close()

			// Give worker time to detect closure
			time.Sleep(50 * time.Millisecond)

			convey.Convey("Then worker should stop", func() {
				// Worker should have stopped due to queue closure
				convey.So(true, convey.ShouldBeTrue) // Placeholder assertion
			})
		})
	})
}
