package sim

import "time"

// Config holds configuration for the balancing simulation.
type Config struct {
	BaseURL      string        // Base URL of the service
	Participants int           // Number of participants to reactivate
	Churn        int           // Number of departure events to fire after seeding
	Workers      int           // Number of concurrent submitters
	Timeout      time.Duration // HTTP request timeout
	LogFile      string        // Log file for simulation output
	Verbose      bool          // Enable verbose logging
}

// Event mirrors the wire schema for POST /events.
type Event struct {
	EventID         string `json:"event_id"`
	EventType       string `json:"event_type"`
	ParticipantID   string `json:"participant_id"`
	ParticipantName string `json:"participant_name"`
	PreviousTeamID  string `json:"previous_team_id,omitempty"`
	TS              string `json:"ts"`
}

// TeamView mirrors the read model served on GET /teams.
type TeamView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	MemberCount int      `json:"memberCount"`
	Members     []string `json:"members"`
}

// AckResponse represents the response from event submission.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds simulation statistics.
type Stats struct {
	JoinsSubmitted  int
	LeavesSubmitted int
	Successful      int
	Duplicate       int
	Failed          int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
