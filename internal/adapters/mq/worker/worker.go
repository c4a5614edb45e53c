// Package worker consumes lifecycle events off the queue and drives the
// balancing use cases.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/huddle/internal/adapters/mq/queue"
	"github.com/okian/huddle/internal/balancer"
	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/internal/domain/team"
	"github.com/okian/huddle/pkg/logger"
	"github.com/okian/huddle/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Event abstracts what workers read off the queue.
// Using the model.Event type for consistency.
type Event = model.Event

// JoinHandler assigns a reactivated participant to a team.
type JoinHandler interface {
	Execute(ctx context.Context, participantID string) (balancer.JoinResult, error)
}

// LeaveHandler checks and repairs a team after a departure.
type LeaveHandler interface {
	Execute(ctx context.Context, teamID team.ID, leavingName string) (team.ConsistencyResult, error)
}

// Directory records participant lifecycle status in the store. Status must be
// applied before the balancing use cases run so member counts reflect the
// event being processed.
type Directory interface {
	RecordReactivation(ctx context.Context, participantID, name string) error
	RecordDeparture(ctx context.Context, participantID string, status model.ParticipantStatus) error
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker processes events and applies balancing decisions.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// It will process any remaining events before stopping.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing lifecycle events.
//
// Every balancing decision reads team populations and then mutates
// assignments; balanceMu keeps those read-modify-write sequences atomic
// across workers so two events cannot observe the same stale counts.
type InMemoryWorker struct {
	queue     Queue
	directory Directory
	join      JoinHandler
	leave     LeaveHandler
	balanceMu *sync.Mutex
	name      string

	// Shutdown control
	shutdown     chan struct{}
	poolShutdown <-chan struct{}
	done         chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, directory Directory, join JoinHandler, leave LeaveHandler, balanceMu *sync.Mutex, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		directory: directory,
		join:      join,
		leave:     leave,
		balanceMu: balanceMu,
		name:      "worker", // default name
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"), // will be updated by options
	}

	// Apply all options
	for _, opt := range opts {
		opt(w)
	}

	// Set up logger with worker name if not already set
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	eventChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case <-w.poolShutdown:
			return
		case event, ok := <-eventChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			// Process the event
			if err := w.processEvent(ctx, event); err != nil {
				w.logger.Error(ctx, "error processing event", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	// Signal shutdown
	close(w.shutdown)

	// Wait for worker to finish or context to timeout
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processEvent handles a single lifecycle event.
func (w *InMemoryWorker) processEvent(ctx context.Context, event queue.Event) error {
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordWorkerProcessingLatency(float64(latency))
	}()

	w.balanceMu.Lock()
	defer w.balanceMu.Unlock()

	switch event.Type {
	case model.ParticipantReactivated:
		if err := w.directory.RecordReactivation(ctx, event.ParticipantID, event.ParticipantName); err != nil {
			metrics.RecordWorkerError()
			metrics.RecordErrorByComponent("worker", "directory_error")
			return fmt.Errorf("recording reactivation for event %s: %w", event.EventID, err)
		}
		res, err := w.join.Execute(ctx, event.ParticipantID)
		if err != nil {
			metrics.RecordWorkerError()
			metrics.RecordErrorByComponent("worker", "join_error")
			w.logger.Error(ctx, "join failed for event",
				logger.String("eventID", event.EventID),
				logger.Error(err),
			)
			return fmt.Errorf("failed to process join event %s: %w", event.EventID, err)
		}
		w.logger.Debug(ctx, "join processed",
			logger.String("eventID", event.EventID),
			logger.String("teamID", string(res.AssignedTeamID)),
			logger.Bool("split", res.TeamWasSplit),
		)
		return nil

	case model.ParticipantSuspended, model.ParticipantWithdrawn:
		teamID, err := team.ParseID(event.PreviousTeamID)
		if err != nil {
			metrics.RecordWorkerError()
			metrics.RecordErrorByComponent("worker", "invalid_team_id")
			return fmt.Errorf("event %s carries no usable previous team id: %w", event.EventID, err)
		}
		if err := w.directory.RecordDeparture(ctx, event.ParticipantID, event.Type.Status()); err != nil {
			metrics.RecordWorkerError()
			metrics.RecordErrorByComponent("worker", "directory_error")
			return fmt.Errorf("recording departure for event %s: %w", event.EventID, err)
		}
		res, err := w.leave.Execute(ctx, teamID, event.ParticipantName)
		if err != nil {
			metrics.RecordWorkerError()
			metrics.RecordErrorByComponent("worker", "leave_error")
			w.logger.Error(ctx, "leave failed for event",
				logger.String("eventID", event.EventID),
				logger.Error(err),
			)
			return fmt.Errorf("failed to process leave event %s: %w", event.EventID, err)
		}
		w.logger.Debug(ctx, "leave processed",
			logger.String("eventID", event.EventID),
			logger.String("consistency", string(res.Kind)),
		)
		return nil

	default:
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "unknown_event_type")
		return fmt.Errorf("unknown event type %q on event %s", event.Type, event.EventID)
	}
}

// Pool manages multiple workers sharing one balancing lock.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool. All workers serialize their balancing
// work on balanceMu.
func NewPool(workerCount int, queue Queue, directory Directory, join JoinHandler, leave LeaveHandler, balanceMu *sync.Mutex) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    queue,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			directory,
			join,
			leave,
			balanceMu,
			WithName("worker-"+strconv.Itoa(i)),
			WithShutdownSignal(pool.shutdown),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	// Signal shutdown to all workers
	close(p.shutdown)

	// Wait for all workers to finish
	for _, worker := range p.workers {
		select {
		case <-worker.done:
			// Worker finished
		case <-time.After(workerShutdownTimeout):
			// Worker timeout
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue to stop new events
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	// Signal shutdown to all workers
	close(p.shutdown)

	// Wait for all workers to finish or context to timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
