// Package model contains domain models passed between layers.
package model

import "time"

// EventType identifies a participant lifecycle integration event.
type EventType string

// Lifecycle event types delivered by the participant domain.
const (
	ParticipantReactivated EventType = "PARTICIPANT_REACTIVATED"
	ParticipantSuspended   EventType = "PARTICIPANT_SUSPENDED"
	ParticipantWithdrawn   EventType = "PARTICIPANT_WITHDRAWN"
)

// Valid reports whether t is a known lifecycle event type.
func (t EventType) Valid() bool {
	switch t {
	case ParticipantReactivated, ParticipantSuspended, ParticipantWithdrawn:
		return true
	}
	return false
}

// Event is a participant lifecycle event flowing through the queue.
// Reactivations trigger a join; suspensions and withdrawals trigger a leave
// against the team the participant was detached from.
type Event struct {
	EventID         string    // unique id for idempotency
	Type            EventType // lifecycle transition
	ParticipantID   string    // subject participant
	ParticipantName string    // display name, used in admin escalations
	PreviousTeamID  string    // team left behind; set on suspend/withdraw
	TS              time.Time // event timestamp
}
