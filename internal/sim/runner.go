package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/huddle/pkg/logger"
)

// processingDelay is how long the runner waits for the service to drain
// its queue between the seeding and churn phases.
const processingDelay = 2 * time.Second

// Run executes the complete balancing simulation: seed a roster of
// reactivations, wait for assignment, then fire departures against the
// observed team layout.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting balancing simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int("participants", config.Participants),
		logger.Int("churn", config.Churn),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Any("verbose", config.Verbose))

	client := newHTTPClient(config.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Seed the roster with reactivations
	roster := makeRoster(config.Participants)
	events := make([]Event, len(roster))
	for i, p := range roster {
		events[i] = joinEvent(p)
	}
	if err := submitEvents(ctx, client, config, events, stats); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	stats.JoinsSubmitted = len(events)

	// Step 3: Wait for processing
	logger.Get().Info(ctx, "waiting for joins to be processed")
	time.Sleep(processingDelay)

	// Step 4: Churn - fire departures against the current team layout
	if err := runChurn(ctx, client, config, roster, stats); err != nil {
		return fmt.Errorf("churn failed: %w", err)
	}

	// Step 5: Report the final team layout
	teams, err := fetchTeams(ctx, client, config)
	if err != nil {
		return fmt.Errorf("team retrieval failed: %w", err)
	}
	for _, t := range teams {
		logger.Get().Info(ctx, "final team",
			logger.String("name", t.Name),
			logger.Int("members", t.MemberCount))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	logger.Get().Info(ctx, "simulation completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// fetchTeams retrieves the current team layout.
func fetchTeams(ctx context.Context, client *HTTPClient, config *Config) ([]TeamView, error) {
	resp, err := client.Get(ctx, config.BaseURL+"/teams")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch teams: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read teams response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("teams request failed with status: %d", resp.StatusCode)
	}
	var teams []TeamView
	if err := json.Unmarshal(body, &teams); err != nil {
		return nil, fmt.Errorf("failed to decode teams response: %w", err)
	}
	return teams, nil
}

// submitEvents submits events concurrently using a worker pool.
func submitEvents(ctx context.Context, client *HTTPClient, config *Config, events []Event, stats *Stats) error {
	url := config.BaseURL + "/events"

	var (
		successful int64
		duplicate  int64
		failed     int64
	)

	eventChan := make(chan Event, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for event := range eventChan {
				select {
				case <-ctx.Done():
					return
				default:
					switch submitSingleEvent(ctx, client, url, event) {
					case "success":
						atomic.AddInt64(&successful, 1)
					case "duplicate":
						atomic.AddInt64(&duplicate, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}
				}
			}
		}()
	}

	go func() {
		defer close(eventChan)
		for _, event := range events {
			select {
			case <-ctx.Done():
				return
			case eventChan <- event:
			}
		}
	}()

	wg.Wait()

	stats.Successful += int(atomic.LoadInt64(&successful))
	stats.Duplicate += int(atomic.LoadInt64(&duplicate))
	stats.Failed += int(atomic.LoadInt64(&failed))

	if config.Verbose {
		logger.Get().Info(ctx, "batch submitted",
			logger.Int("events", len(events)),
			logger.Int("successful", int(atomic.LoadInt64(&successful))),
			logger.Int("duplicate", int(atomic.LoadInt64(&duplicate))),
			logger.Int("failed", int(atomic.LoadInt64(&failed))))
	}
	return nil
}

// runChurn fires departure events one at a time, re-reading the team
// layout between events so each departure names a real current team.
func runChurn(ctx context.Context, client *HTTPClient, config *Config, roster []participant, stats *Stats) error {
	byName := make(map[string]participant, len(roster))
	for _, p := range roster {
		byName[p.name] = p
	}

	url := config.BaseURL + "/events"
	for i := 0; i < config.Churn; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		teams, err := fetchTeams(ctx, client, config)
		if err != nil {
			return err
		}

		populated := make([]TeamView, 0, len(teams))
		for _, t := range teams {
			if t.MemberCount > 0 {
				populated = append(populated, t)
			}
		}
		if len(populated) == 0 {
			logger.Get().Info(ctx, "no populated teams left, stopping churn", logger.Int("fired", i))
			return nil
		}

		target := populated[randomInt(len(populated))]
		name := target.Members[randomInt(len(target.Members))]
		p, ok := byName[name]
		if !ok {
			continue
		}

		event := departureEvent(p, target.ID)
		switch submitSingleEvent(ctx, client, url, event) {
		case "success":
			stats.Successful++
		case "duplicate":
			stats.Duplicate++
		case "failed":
			stats.Failed++
		}
		stats.LeavesSubmitted++

		if config.Verbose {
			logger.Get().Info(ctx, "departure fired",
				logger.String("participant", name),
				logger.String("team", target.Name),
				logger.String("type", event.EventType))
		}

		// Give the worker pool a moment so the next layout read is fresh.
		time.Sleep(50 * time.Millisecond)
	}
	return nil
}

// displayFinalStats prints the final simulation statistics.
func displayFinalStats(stats *Stats) {
	var eventsPerSecond float64
	total := stats.JoinsSubmitted + stats.LeavesSubmitted
	if stats.Duration > 0 {
		eventsPerSecond = float64(total) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("joinsSubmitted", stats.JoinsSubmitted),
		logger.Int("leavesSubmitted", stats.LeavesSubmitted),
		logger.Int("successful", stats.Successful),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("eventsPerSecond", eventsPerSecond))
}
