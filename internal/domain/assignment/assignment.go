// Package assignment holds the pure team selection, splitting, and naming
// algorithms. Functions here never perform I/O; callers supply projections
// read from the participant store.
package assignment

import (
	"math/rand"
	"time"

	"github.com/okian/huddle/internal/domain/team"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz"

// TeamWithMemberCount pairs a team with its current active member count.
// It is a transient read-model projection, recomputed per operation.
type TeamWithMemberCount struct {
	TeamID      team.ID
	MemberCount int
}

// SplitResult partitions a membership into the members that stay on the
// original team and the members that move to the new one.
type SplitResult struct {
	OriginalTeamMembers []team.MemberInfo
	NewTeamMembers      []team.MemberInfo
}

// Service runs the balancing algorithms with an explicit pseudo-random
// source, so ties and shuffles are reproducible under test.
type Service struct {
	rng *rand.Rand
}

// NewService creates an assignment service with configuration options.
func NewService(opts ...Option) *Service {
	s := &Service{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // selection tie-breaks, not crypto
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SelectLeastPopulated returns the team with the fewest members among those
// strictly below capacity. Ties are broken uniformly at random. The second
// return value is false when no team is eligible.
//
// Callers pass team.MaxSize when picking a merge destination and
// team.SplitThreshold when picking a join destination; a join that fills a
// team to the threshold is resolved by splitting it afterwards.
func (s *Service) SelectLeastPopulated(teams []TeamWithMemberCount, capacity int) (TeamWithMemberCount, bool) {
	eligible := make([]TeamWithMemberCount, 0, len(teams))
	for _, t := range teams {
		if t.MemberCount < capacity {
			eligible = append(eligible, t)
		}
	}

	if len(eligible) == 0 {
		return TeamWithMemberCount{}, false
	}

	minCount := eligible[0].MemberCount
	for _, t := range eligible[1:] {
		if t.MemberCount < minCount {
			minCount = t.MemberCount
		}
	}

	candidates := eligible[:0]
	for _, t := range eligible {
		if t.MemberCount == minCount {
			candidates = append(candidates, t)
		}
	}

	return candidates[s.rng.Intn(len(candidates))], true
}

// SplitMembers shuffles the membership and keeps the first ceil(n/2) members
// on the original team; the rest move. Callers verify the team is at the
// split threshold before invoking this.
func (s *Service) SplitMembers(members []team.MemberInfo) SplitResult {
	shuffled := make([]team.MemberInfo, len(members))
	copy(shuffled, members)
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	// Odd counts leave the extra member on the original team.
	splitIndex := (len(shuffled) + 1) / 2

	return SplitResult{
		OriginalTeamMembers: shuffled[:splitIndex],
		NewTeamMembers:      shuffled[splitIndex:],
	}
}

// NextTeamName returns the lowest letter a..z not present in used.
// Returns ErrTeamNamesExhausted once all 26 letters are taken.
func NextTeamName(used []team.Name) (team.Name, error) {
	taken := make(map[team.Name]struct{}, len(used))
	for _, n := range used {
		taken[n] = struct{}{}
	}

	for _, letter := range alphabet {
		candidate := team.Name(letter)
		if _, ok := taken[candidate]; !ok {
			return candidate, nil
		}
	}

	return "", ErrTeamNamesExhausted
}
