// Package service wires the balancing core to its adapters and implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	eventqueue "github.com/okian/huddle/internal/adapters/mq/queue"
	workerpool "github.com/okian/huddle/internal/adapters/mq/worker"
	"github.com/okian/huddle/internal/adapters/notify"
	"github.com/okian/huddle/internal/adapters/repository"
	"github.com/okian/huddle/internal/balancer"
	"github.com/okian/huddle/internal/domain/assignment"
	"github.com/okian/huddle/internal/domain/dedupe"
	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/internal/domain/team"
	"github.com/okian/huddle/pkg/logger"
	"github.com/okian/huddle/pkg/metrics"
)

// Service implements the API dependencies for the capacity balancer.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	deduper    dedupe.Deduper
	eventQueue eventqueue.Queue
	notifier   balancer.AdminNotifier
	picker     *assignment.Service
	workerPool *workerpool.Pool

	// balanceMu serializes every balancing sequence across workers so a
	// query-then-assign pair can never interleave with another one.
	balanceMu sync.Mutex

	// Configuration
	workerCount    int
	queueSize      int
	dedupeSize     int
	bootstrapTeams int
	seed           int64
	seeded         bool

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithBootstrapTeams sets how many empty teams are created on start when the
// store holds none. Without at least one team no participant can ever join,
// since new teams only appear through splits.
func WithBootstrapTeams(count int) Option {
	return func(s *Service) {
		if count >= 0 {
			s.bootstrapTeams = count
		}
	}
}

// WithSeed fixes the pseudo-random source used for tie-breaking and
// split shuffling. Useful for reproducing a balancing sequence.
func WithSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
		s.seeded = true
	}
}

// WithStore sets a custom persistence backend.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDeduper sets a custom deduplication backend.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		if d != nil {
			s.deduper = d
		}
	}
}

// WithNotifier sets a custom admin notification channel.
func WithNotifier(n balancer.AdminNotifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    runtime.NumCPU() * 2, // Default to 2x CPU cores
		queueSize:      100000,               // Default queue size
		dedupeSize:     50000,                // Default dedupe cache size
		bootstrapTeams: 2,
		logger:         nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting balancer service...")

	// Initialize components
	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory store")
	}
	if s.deduper == nil {
		s.deduper = dedupe.NewInMemoryDeduper(
			dedupe.WithMaxSize(s.dedupeSize),
		)
	}
	if s.notifier == nil {
		s.notifier = notify.NewConsoleNotifier()
	}
	s.eventQueue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
		eventqueue.WithBufferSize(s.queueSize),
	)
	if s.seeded {
		s.picker = assignment.NewService(assignment.WithSeed(s.seed))
	} else {
		s.picker = assignment.NewService()
	}

	if err := s.bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrapping teams: %w", err)
	}

	// Wire the use cases and start the worker pool
	split := balancer.NewSplit(s.store, s.store, s.store, s.picker)
	join := balancer.NewJoin(s.store, s.store, split, s.picker)
	leave := balancer.NewLeave(s.store, s.store, s.notifier, s.picker)
	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s.store, join, leave, &s.balanceMu)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "balancer service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// bootstrap creates the initial empty teams when the store holds none.
func (s *Service) bootstrap(ctx context.Context) error {
	existing, err := s.store.FindAll(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 || s.bootstrapTeams == 0 {
		return nil
	}
	used := make([]team.Name, 0, s.bootstrapTeams)
	for i := 0; i < s.bootstrapTeams; i++ {
		name, err := assignment.NextTeamName(used)
		if err != nil {
			return err
		}
		t := team.New(name)
		if err := s.store.Save(ctx, t); err != nil {
			return err
		}
		used = append(used, name)
		s.logger.Info(ctx, "created bootstrap team",
			logger.String("teamID", string(t.ID)),
			logger.String("name", string(t.Name)),
		)
	}
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping balancer service...")

	// Close queue first so workers drain and exit
	if q, ok := s.eventQueue.(*eventqueue.InMemoryQueue); ok {
		_ = q.Close()
	}

	// Stop worker pool
	if s.workerPool != nil {
		s.workerPool.Stop()
	}

	// Close store
	if closer, ok := s.store.(interface{ Close() }); ok {
		closer.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "balancer service stopped")
}

// SeenAndRecord atomically checks if an event id was seen and records it if not.
// Returns true if the event was already seen, false if it was newly recorded.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.deduper.SeenAndRecord(ctx, id)
}

// Unrecord removes an event ID from the seen list, allowing it to be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue submits an event for asynchronous processing.
func (s *Service) Enqueue(ctx context.Context, e model.Event) bool {
	success := s.eventQueue.Enqueue(ctx, e)
	if success {
		s.logger.Debug(ctx, "enqueued event",
			logger.String("eventID", e.EventID),
			logger.String("type", string(e.Type)),
			logger.String("participantID", e.ParticipantID),
		)
	}
	return success
}

// Teams returns all teams with their member rosters.
func (s *Service) Teams(ctx context.Context) ([]repository.TeamDetail, error) {
	details, err := s.store.TeamDetails(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	return details, nil
}

// Team returns a single team with its member roster.
func (s *Service) Team(ctx context.Context, id team.ID) (repository.TeamDetail, error) {
	t, err := s.store.FindByID(ctx, id)
	if err != nil {
		return repository.TeamDetail{}, err
	}
	members, err := s.store.TeamMembers(ctx, id)
	if err != nil {
		return repository.TeamDetail{}, err
	}
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	return repository.TeamDetail{
		ID:          t.ID,
		Name:        t.Name,
		MemberCount: len(members),
		Members:     names,
	}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.eventQueue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["dedupeEntries"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.workerCount)

		if overview, err := s.store.Overview(ctx); err == nil {
			stats["teams"] = overview.Teams
			stats["activeParticipants"] = overview.ActiveParticipants
			stats["suspended"] = overview.Suspended
			stats["withdrawn"] = overview.Withdrawn

			metrics.UpdateTeamsTotal(overview.Teams)
			metrics.UpdateActiveParticipants(overview.ActiveParticipants)
		}
	}

	return stats
}
