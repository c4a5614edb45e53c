package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/okian/huddle/internal/domain/assignment"
	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/internal/domain/team"
)

// participantRecord is the stored participant row.
type participantRecord struct {
	id     string
	name   string
	status model.ParticipantStatus
	teamID team.ID // empty when unassigned
}

// MemoryStore keeps teams and participants in maps guarded by one RWMutex.
type MemoryStore struct {
	mu           sync.RWMutex
	teams        map[team.ID]team.Team
	participants map[string]*participantRecord
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		teams:        make(map[team.ID]team.Team),
		participants: make(map[string]*participantRecord),
	}
}

// Save stores a team. Saving an existing id overwrites it; a name already
// held by a different team is rejected.
func (s *MemoryStore) Save(ctx context.Context, t team.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.teams {
		if existing.Name == t.Name && id != t.ID {
			return ErrTeamNameTaken
		}
	}
	s.teams[t.ID] = t
	return nil
}

// FindByID returns a team by id.
func (s *MemoryStore) FindByID(ctx context.Context, id team.ID) (team.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teams[id]
	if !ok {
		return team.Team{}, ErrTeamNotFound
	}
	return t, nil
}

// FindAll returns every team ordered by name.
func (s *MemoryStore) FindAll(ctx context.Context) ([]team.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	teams := make([]team.Team, 0, len(s.teams))
	for _, t := range s.teams {
		teams = append(teams, t)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })
	return teams, nil
}

// AllTeamMemberCounts returns every team with its active member count.
// Teams without members are included with a count of zero.
func (s *MemoryStore) AllTeamMemberCounts(ctx context.Context) ([]assignment.TeamWithMemberCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[team.ID]int, len(s.teams))
	for id := range s.teams {
		counts[id] = 0
	}
	for _, p := range s.participants {
		if p.status == model.StatusActive && p.teamID != "" {
			if _, ok := counts[p.teamID]; ok {
				counts[p.teamID]++
			}
		}
	}

	out := make([]assignment.TeamWithMemberCount, 0, len(counts))
	for id, count := range counts {
		out = append(out, assignment.TeamWithMemberCount{TeamID: id, MemberCount: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out, nil
}

// TeamMemberCount returns the active member count of one team.
func (s *MemoryStore) TeamMemberCount(ctx context.Context, teamID team.ID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.teams[teamID]; !ok {
		return 0, ErrTeamNotFound
	}

	count := 0
	for _, p := range s.participants {
		if p.status == model.StatusActive && p.teamID == teamID {
			count++
		}
	}
	return count, nil
}

// TeamMembers returns the active members of one team ordered by name.
func (s *MemoryStore) TeamMembers(ctx context.Context, teamID team.ID) ([]team.MemberInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.teams[teamID]; !ok {
		return nil, ErrTeamNotFound
	}

	members := make([]team.MemberInfo, 0)
	for _, p := range s.participants {
		if p.status == model.StatusActive && p.teamID == teamID {
			members = append(members, team.MemberInfo{
				ParticipantID: team.ParticipantID(p.id),
				Name:          p.name,
			})
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })
	return members, nil
}

// AssignToTeam points a participant at a team and marks them active.
func (s *MemoryStore) AssignToTeam(ctx context.Context, participantID team.ParticipantID, teamID team.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.teams[teamID]; !ok {
		return ErrTeamNotFound
	}
	p, ok := s.participants[string(participantID)]
	if !ok {
		return ErrParticipantNotFound
	}
	p.teamID = teamID
	p.status = model.StatusActive
	return nil
}

// RecordReactivation upserts a participant as active and unassigned.
func (s *MemoryStore) RecordReactivation(ctx context.Context, participantID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[participantID]
	if !ok {
		s.participants[participantID] = &participantRecord{
			id:     participantID,
			name:   name,
			status: model.StatusActive,
		}
		return nil
	}
	if name != "" {
		p.name = name
	}
	p.status = model.StatusActive
	p.teamID = ""
	return nil
}

// RecordDeparture marks a participant suspended or withdrawn and detaches
// them. Unknown participants are recorded as-is so a late join event cannot
// resurrect stale state.
func (s *MemoryStore) RecordDeparture(ctx context.Context, participantID string, status model.ParticipantStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[participantID]
	if !ok {
		s.participants[participantID] = &participantRecord{
			id:     participantID,
			status: status,
		}
		return nil
	}
	p.status = status
	p.teamID = ""
	return nil
}

// TeamDetails returns all teams with their active memberships, ordered by
// team name.
func (s *MemoryStore) TeamDetails(ctx context.Context) ([]TeamDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	membersByTeam := make(map[team.ID][]string)
	for _, p := range s.participants {
		if p.status == model.StatusActive && p.teamID != "" {
			membersByTeam[p.teamID] = append(membersByTeam[p.teamID], p.name)
		}
	}

	details := make([]TeamDetail, 0, len(s.teams))
	for id, t := range s.teams {
		members := membersByTeam[id]
		sort.Strings(members)
		if members == nil {
			members = []string{}
		}
		details = append(details, TeamDetail{
			ID:          t.ID,
			Name:        t.Name,
			MemberCount: len(members),
			Members:     members,
		})
	}
	sort.Slice(details, func(i, j int) bool { return details[i].Name < details[j].Name })
	return details, nil
}

// Overview returns aggregate counts.
func (s *MemoryStore) Overview(ctx context.Context) (Overview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o := Overview{Teams: len(s.teams)}
	for _, p := range s.participants {
		switch p.status {
		case model.StatusActive:
			o.ActiveParticipants++
		case model.StatusSuspended:
			o.Suspended++
		case model.StatusWithdrawn:
			o.Withdrawn++
		}
	}
	return o, nil
}
