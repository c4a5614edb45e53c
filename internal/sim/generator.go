package sim

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Lifecycle event type strings as accepted on the wire.
const (
	eventReactivated = "PARTICIPANT_REACTIVATED"
	eventSuspended   = "PARTICIPANT_SUSPENDED"
	eventWithdrawn   = "PARTICIPANT_WITHDRAWN"
)

// participant is a simulated roster entry. The simulator keeps the
// name -> id mapping because the read surface only exposes names.
type participant struct {
	id   string
	name string
}

// makeRoster pre-allocates participants with unique ids and names.
func makeRoster(count int) []participant {
	roster := make([]participant, count)
	for i := range roster {
		roster[i] = participant{
			id:   uuid.New().String(),
			name: fmt.Sprintf("member%d", i),
		}
	}
	return roster
}

// joinEvent builds a reactivation event for a roster entry.
func joinEvent(p participant) Event {
	return Event{
		EventID:         "join_" + p.id,
		EventType:       eventReactivated,
		ParticipantID:   p.id,
		ParticipantName: p.name,
		TS:              time.Now().UTC().Format(time.RFC3339),
	}
}

// departureEvent builds a suspension or withdrawal for a roster entry,
// choosing the type at random.
func departureEvent(p participant, teamID string) Event {
	eventType := eventSuspended
	if randomInt(2) == 0 {
		eventType = eventWithdrawn
	}
	return Event{
		EventID:         "leave_" + uuid.New().String(),
		EventType:       eventType,
		ParticipantID:   p.id,
		ParticipantName: p.name,
		PreviousTeamID:  teamID,
		TS:              time.Now().UTC().Format(time.RFC3339),
	}
}

// randomInt returns a uniform random int in [0, n) using crypto/rand.
func randomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}
