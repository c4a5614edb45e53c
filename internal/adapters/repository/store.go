// Package repository persists teams and participant assignments. Two
// implementations exist: an in-memory store for single-instance deployments
// and tests, and a PostgreSQL store for durable setups.
package repository

import (
	"context"

	"github.com/okian/huddle/internal/balancer"
	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/internal/domain/team"
)

// TeamDetail is the read model served on the team listing endpoints.
type TeamDetail struct {
	ID          team.ID   `json:"id"`
	Name        team.Name `json:"name"`
	MemberCount int       `json:"memberCount"`
	Members     []string  `json:"members"`
}

// Overview aggregates store-wide counts for the stats endpoint.
type Overview struct {
	Teams              int `json:"teams"`
	ActiveParticipants int `json:"activeParticipants"`
	Suspended          int `json:"suspended"`
	Withdrawn          int `json:"withdrawn"`
}

// Store is the persistence surface the service is wired against. It covers
// the balancing ports plus the lifecycle recording and read models.
type Store interface {
	balancer.MemberCountQuery
	balancer.Assignment
	balancer.TeamRepository

	// RecordReactivation upserts a participant as active and unassigned.
	RecordReactivation(ctx context.Context, participantID, name string) error

	// RecordDeparture marks a participant suspended or withdrawn and detaches
	// them from their team.
	RecordDeparture(ctx context.Context, participantID string, status model.ParticipantStatus) error

	// TeamDetails returns all teams with their active memberships.
	TeamDetails(ctx context.Context) ([]TeamDetail, error)

	// Overview returns aggregate counts.
	Overview(ctx context.Context) (Overview, error)
}
