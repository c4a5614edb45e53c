// Package team contains the team aggregate and its capacity rules.
package team

import (
	"github.com/google/uuid"
)

// Capacity band constants. A team should stay between MinSize and MaxSize
// active members; reaching SplitThreshold forces a split into two teams.
const (
	MinSize        = 2
	MaxSize        = 4
	SplitThreshold = 5

	// MaxTeams is the hard ceiling of the single-letter naming scheme.
	MaxTeams = 26
)

// ID identifies a team. UUID-formatted, generated on creation, immutable.
type ID string

// ParseID validates a raw string as a team identifier.
func ParseID(value string) (ID, error) {
	if _, err := uuid.Parse(value); err != nil {
		return "", &ValidationError{Field: "TeamID", Value: value, Reason: "must be a UUID"}
	}
	return ID(value), nil
}

// NewID generates a fresh team identifier.
func NewID() ID {
	return ID(uuid.NewString())
}

// ParticipantID identifies a participant in the team context. The balancer
// treats it as an inert token owned by the participant domain.
type ParticipantID string

// ParseParticipantID validates a raw string as a participant identifier.
func ParseParticipantID(value string) (ParticipantID, error) {
	if _, err := uuid.Parse(value); err != nil {
		return "", &ValidationError{Field: "ParticipantID", Value: value, Reason: "must be a UUID"}
	}
	return ParticipantID(value), nil
}

// Name is a team name: exactly one lowercase ASCII letter, unique across teams.
type Name string

// ParseName validates a raw string as a team name.
func ParseName(value string) (Name, error) {
	if len(value) == 0 {
		return "", &ValidationError{Field: "TeamName", Value: value, Reason: "must not be empty"}
	}
	if len(value) > 1 {
		return "", &ValidationError{Field: "TeamName", Value: value, Reason: "must be a single letter"}
	}
	if value[0] < 'a' || value[0] > 'z' {
		return "", &ValidationError{Field: "TeamName", Value: value, Reason: "must be a lowercase letter"}
	}
	return Name(value), nil
}

// Team is the persisted aggregate. Created once, never mutated afterwards;
// membership lives in the participant store, not here.
type Team struct {
	ID   ID
	Name Name
}

// New creates a team with a fresh identifier and the given name.
func New(name Name) Team {
	return Team{ID: NewID(), Name: name}
}

// MemberInfo is a transient projection of a participant used when deciding
// who moves during a split or merge.
type MemberInfo struct {
	ParticipantID ParticipantID
	Name          string
}
