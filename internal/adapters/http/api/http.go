// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/huddle/internal/adapters/repository"
	"github.com/okian/huddle/internal/domain/dedupe"
	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/internal/domain/team"
	"github.com/okian/huddle/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes an event for async processing. Returns false on backpressure.
	Enqueue(ctx context.Context, e model.Event) bool

	// Read operations expose the team read models.
	Teams(ctx context.Context) ([]repository.TeamDetail, error)
	Team(ctx context.Context, id team.ID) (repository.TeamDetail, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	eventsHandler *EventsHandler
	teamsHandler  *TeamsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		eventsHandler: NewEventsHandler(deps),
		teamsHandler:  NewTeamsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "events"))
	mux.HandleFunc("/teams", MetricsMiddleware(s.teamsHandler.HandleListTeams, "teams"))
	mux.HandleFunc("/teams/", MetricsMiddleware(s.teamsHandler.HandleGetTeam, "team"))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
}

// eventRequest mirrors the wire schema for POST /events.
type eventRequest struct {
	EventID         string `json:"event_id"`
	EventType       string `json:"event_type"`
	ParticipantID   string `json:"participant_id"`
	ParticipantName string `json:"participant_name"`
	PreviousTeamID  string `json:"previous_team_id,omitempty"`
	TS              string `json:"ts"`
}

func (e eventRequest) validate() error {
	switch {
	case strings.TrimSpace(e.EventID) == "":
		return errors.New("missing event_id")
	case strings.TrimSpace(e.EventType) == "":
		return errors.New("missing event_type")
	case strings.TrimSpace(e.ParticipantID) == "":
		return errors.New("missing participant_id")
	case strings.TrimSpace(e.ParticipantName) == "":
		return errors.New("missing participant_name")
	case strings.TrimSpace(e.TS) == "":
		return errors.New("missing ts")
	}
	eventType := model.EventType(e.EventType)
	if !eventType.Valid() {
		return errors.New("unknown event_type")
	}
	if _, err := team.ParseParticipantID(e.ParticipantID); err != nil {
		return errors.New("invalid participant_id; must be a UUID")
	}
	if eventType == model.ParticipantSuspended || eventType == model.ParticipantWithdrawn {
		if strings.TrimSpace(e.PreviousTeamID) == "" {
			return errors.New("missing previous_team_id")
		}
		if _, err := team.ParseID(e.PreviousTeamID); err != nil {
			return errors.New("invalid previous_team_id; must be a UUID")
		}
	}
	if _, err := time.Parse(time.RFC3339, e.TS); err != nil {
		return errors.New("invalid ts; must be RFC3339")
	}
	return nil
}

// toEvent converts a validated request to the domain event.
func (e eventRequest) toEvent() model.Event {
	ts, _ := time.Parse(time.RFC3339, e.TS)
	return model.Event{
		EventID:         e.EventID,
		Type:            model.EventType(e.EventType),
		ParticipantID:   e.ParticipantID,
		ParticipantName: e.ParticipantName,
		PreviousTeamID:  e.PreviousTeamID,
		TS:              ts,
	}
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrTeamNotFound) ||
		errors.Is(err, repository.ErrParticipantNotFound)
}
