//go:build unit

package resource_test

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/gabpmcp/bolivar-test/internal/domain/event"
	"github.com/gabpmcp/bolivar-test/internal/domain/resource"
	"github.com/gabpmcp/bolivar-test/internal/domain/user"
	"github.com/gabpmcp/bolivar-test/internal/pkg/ptr"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// seal records an accepted proposal as the stream's next event.
func seal(t *testing.T, streamID uuid.UUID, version int64, p event.Proposed) event.Event {
	t.Helper()
	e, err := event.New(event.StreamTypeResource, streamID, version, p, now, event.Meta{})
	require.NoError(t, err)
	return e
}

// TestActiveReservationsNeverOverlap drives random command sequences through
// Decide and Fold and checks that the active slots stay pairwise disjoint
// under half-open semantics after every accepted step.
func TestActiveReservationsNeverOverlap(t *testing.T) {
	rng := rand.New(rand.NewSource(20261201))
	owners := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	for trial := 0; trial < 40; trial++ {
		resourceID := uuid.New()
		p, err := resource.Decide(nil, resource.CreateResource{
			ResourceID: resourceID,
			Name:       "SalaA",
			Details:    "Piso 1",
			ActorRole:  user.RoleAdmin,
		}, now)
		require.NoError(t, err)

		version := int64(1)
		state := resource.Fold(nil, seal(t, resourceID, version, p))

		for step := 0; step < 60; step++ {
			p, err := resource.Decide(state, randomCommand(rng, resourceID, owners, state), now)
			if err != nil {
				// Rejected commands emit nothing; the fold stays put.
				continue
			}
			version++
			state = resource.Fold(state, seal(t, resourceID, version, p))
			assertActiveDisjoint(t, state)
		}
	}
}

// randomCommand books a random future slot or cancels a random known
// reservation, sometimes with the wrong actor so rejection paths run too.
func randomCommand(rng *rand.Rand, resourceID uuid.UUID, owners []uuid.UUID, s *resource.State) resource.Command {
	if len(s.Reservations) > 0 && rng.Intn(3) == 0 {
		r := s.Reservations[rng.Intn(len(s.Reservations))]
		actor, role := r.UserID, user.RoleUser
		if rng.Intn(4) == 0 {
			actor = owners[rng.Intn(len(owners))]
		}
		if rng.Intn(4) == 0 {
			role = user.RoleAdmin
		}
		return resource.CancelReservation{
			ReservationID: r.ReservationID,
			ResourceID:    resourceID,
			ActorUserID:   actor,
			ActorRole:     role,
		}
	}

	from := now.Add(time.Duration(1+rng.Intn(48)) * time.Hour)
	return resource.AddReservation{
		ReservationID: uuid.New(),
		ResourceID:    resourceID,
		UserID:        owners[rng.Intn(len(owners))],
		FromUTC:       from,
		ToUTC:         from.Add(time.Duration(1+rng.Intn(3)) * time.Hour),
	}
}

func assertActiveDisjoint(t *testing.T, s *resource.State) {
	t.Helper()
	var active []resource.Reservation
	for _, r := range s.Reservations {
		if r.Status == resource.ReservationStatusActive {
			active = append(active, r)
		}
	}
	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			a, b := active[i], active[j]
			if a.FromUTC.Before(b.ToUTC) && b.FromUTC.Before(a.ToUTC) {
				t.Fatalf("active slots overlap: [%s, %s) and [%s, %s)",
					a.FromUTC.Format(time.RFC3339), a.ToUTC.Format(time.RFC3339),
					b.FromUTC.Format(time.RFC3339), b.ToUTC.Format(time.RFC3339))
			}
		}
	}
}

// TestFoldMatchesSnapshotResume checks that folding a full stream equals
// folding any prefix, round-tripping it through snapshot JSON, and folding
// the tail on top of the restored state.
func TestFoldMatchesSnapshotResume(t *testing.T) {
	resourceID := uuid.New()
	events := acceptedSequence(t, resourceID, uuid.New())
	full := foldAll(nil, events)

	for k := 1; k < len(events); k++ {
		raw, err := json.Marshal(foldAll(nil, events[:k]))
		require.NoError(t, err)
		var restored *resource.State
		require.NoError(t, json.Unmarshal(raw, &restored))

		resumed := foldAll(restored, events[k:])

		if diff := cmp.Diff(full, resumed); diff != "" {
			t.Errorf("fold resumed from version %d diverged (-full +resumed):\n%s", k, diff)
		}
	}
}

func foldAll(s *resource.State, events []event.Event) *resource.State {
	for _, e := range events {
		s = resource.Fold(s, e)
	}
	return s
}

// acceptedSequence runs a fixed command script through Decide, sealing each
// accepted proposal at the next version.
func acceptedSequence(t *testing.T, resourceID, owner uuid.UUID) []event.Event {
	t.Helper()

	first, second, third := uuid.New(), uuid.New(), uuid.New()
	cmds := []resource.Command{
		resource.CreateResource{ResourceID: resourceID, Name: "SalaA", Details: "Piso 1", ActorRole: user.RoleAdmin},
		resource.AddReservation{ReservationID: first, ResourceID: resourceID, UserID: owner,
			FromUTC: now.Add(1 * time.Hour), ToUTC: now.Add(2 * time.Hour)},
		resource.AddReservation{ReservationID: second, ResourceID: resourceID, UserID: owner,
			FromUTC: now.Add(2 * time.Hour), ToUTC: now.Add(3 * time.Hour)},
		resource.CancelReservation{ReservationID: second, ResourceID: resourceID, ActorUserID: owner, ActorRole: user.RoleUser},
		resource.AddReservation{ReservationID: third, ResourceID: resourceID, UserID: owner,
			FromUTC: now.Add(2 * time.Hour), ToUTC: now.Add(4 * time.Hour)},
		resource.UpdateMetadata{ResourceID: resourceID, Name: ptr.To("SalaB"), ActorRole: user.RoleAdmin},
	}

	var state *resource.State
	events := make([]event.Event, 0, len(cmds))
	for i, cmd := range cmds {
		p, err := resource.Decide(state, cmd, now)
		require.NoError(t, err)
		e := seal(t, resourceID, int64(i+1), p)
		events = append(events, e)
		state = resource.Fold(state, e)
	}
	return events
}
