package model

// ParticipantStatus is the lifecycle state recorded in the participant store.
// Only active participants count toward team populations.
type ParticipantStatus string

// Participant lifecycle states.
const (
	StatusActive    ParticipantStatus = "ACTIVE"
	StatusSuspended ParticipantStatus = "SUSPENDED"
	StatusWithdrawn ParticipantStatus = "WITHDRAWN"
)

// Status maps a lifecycle event type to the participant status it implies.
func (t EventType) Status() ParticipantStatus {
	switch t {
	case ParticipantSuspended:
		return StatusSuspended
	case ParticipantWithdrawn:
		return StatusWithdrawn
	default:
		return StatusActive
	}
}
