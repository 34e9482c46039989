//go:build unit

package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/gabpmcp/bolivar-test/internal/domain/event"
	"github.com/gabpmcp/bolivar-test/internal/domain/resource"
	"github.com/gabpmcp/bolivar-test/internal/domain/user"
	"github.com/gabpmcp/bolivar-test/internal/infra/eventstore"
	"github.com/gabpmcp/bolivar-test/internal/pkg/clock"
	"github.com/gabpmcp/bolivar-test/internal/pkg/config"
	"github.com/gabpmcp/bolivar-test/internal/pkg/errs"
	"github.com/gabpmcp/bolivar-test/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEventStore mimics the object store's semantics in memory: appends are
// create-if-absent per version, snapshots are immutable per version. Lost
// races can be staged with loseNextAppends, optionally slipping the winner's
// event into the stream so retries observe it.
type fakeEventStore struct {
	mu              sync.Mutex
	streams         map[string][]event.Event
	snaps           map[string][]event.Snapshot
	loadErr         error
	snapErr         error
	loseNextAppends int
	winnerOnRace    func(lastVersion int64) *event.Event
	appendCalls     int
	snapshotPuts    int
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{
		streams: map[string][]event.Event{},
		snaps:   map[string][]event.Snapshot{},
	}
}

func streamKey(st event.StreamType, id uuid.UUID) string {
	return fmt.Sprintf("%s/%s", st, id)
}

func (f *fakeEventStore) LoadStream(_ context.Context, st event.StreamType, id uuid.UUID, from int64) ([]event.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	var out []event.Event
	for _, e := range f.streams[streamKey(st, id)] {
		if e.Version >= from {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventStore) LoadLatestSnapshot(_ context.Context, st event.StreamType, id uuid.UUID) (*event.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snaps := f.snaps[streamKey(st, id)]
	if len(snaps) == 0 {
		return nil, nil
	}
	latest := snaps[0]
	for _, s := range snaps[1:] {
		if s.SnapshotVersion > latest.SnapshotVersion {
			latest = s
		}
	}
	return &latest, nil
}

func (f *fakeEventStore) AppendEvent(_ context.Context, e event.Event, expected int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appendCalls++

	key := streamKey(e.StreamType, e.StreamID)
	if f.loseNextAppends > 0 {
		f.loseNextAppends--
		if f.winnerOnRace != nil {
			if winner := f.winnerOnRace(int64(len(f.streams[key]))); winner != nil {
				f.streams[key] = append(f.streams[key], *winner)
			}
		}
		return errs.Mark(errs.New("object already exists"), eventstore.ErrVersionConflict)
	}
	if int64(len(f.streams[key])) != expected {
		return errs.Mark(errs.New("object already exists"), eventstore.ErrVersionConflict)
	}
	f.streams[key] = append(f.streams[key], e)
	return nil
}

func (f *fakeEventStore) PutSnapshot(_ context.Context, snap event.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshotPuts++
	if f.snapErr != nil {
		return f.snapErr
	}
	key := streamKey(snap.StreamType, snap.StreamID)
	for _, existing := range f.snaps[key] {
		if existing.SnapshotVersion == snap.SnapshotVersion {
			return eventstore.ErrSnapshotExists
		}
	}
	f.snaps[key] = append(f.snaps[key], snap)
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []event.Event
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, e event.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, e)
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runnerConfig() config.RunnerConfig {
	return config.RunnerConfig{
		SnapshotEveryDefault:      500,
		SnapshotByStreamType:      config.SnapshotThresholds{"resource": 500, "user": 0},
		VersionConflictMaxRetries: 1,
	}
}

func resourceRunner(store *fakeEventStore, pub *fakePublisher, clk clock.Clock, cfg config.RunnerConfig) *Runner[*resource.State] {
	return NewRunner(event.StreamTypeResource, resource.Fold, store, pub, clk, cfg, discardLogger())
}

func decideCreateFn(resourceID uuid.UUID) Decide[*resource.State] {
	return func(s *resource.State, at time.Time) (event.Proposed, error) {
		return resource.Decide(s, resource.CreateResource{
			ResourceID: resourceID,
			Name:       "SalaA",
			Details:    "Piso 1",
			ActorRole:  user.RoleAdmin,
		}, at)
	}
}

func TestRunnerExecute(t *testing.T) {
	now := builder.BaseTime
	resourceID := uuid.New()
	meta := event.Meta{CommandName: "CreateResource", ActorUserID: uuid.New().String()}
	decideCreate := decideCreateFn(resourceID)

	t.Run("appends at version 1 on an empty stream and publishes", func(t *testing.T) {
		store := newFakeEventStore()
		pub := &fakePublisher{}
		r := resourceRunner(store, pub, clock.NewMockClock(now), runnerConfig())

		evt, state, err := r.Execute(context.Background(), resourceID, meta, decideCreate)

		require.NoError(t, err)
		assert.Equal(t, int64(1), evt.Version)
		assert.Equal(t, resource.EventTypeCreated, evt.Type)
		assert.True(t, evt.OccurredAtUTC.Equal(now))
		assert.Equal(t, "SalaA", state.Name)
		assert.Equal(t, 1, pub.count())
	})

	t.Run("versions stay contiguous across sequential commands", func(t *testing.T) {
		store := newFakeEventStore()
		pub := &fakePublisher{}
		clk := clock.NewMockClock(now)
		r := resourceRunner(store, pub, clk, runnerConfig())

		_, _, err := r.Execute(context.Background(), resourceID, meta, decideCreate)
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			from := now.Add(time.Duration(24*(i+1)) * time.Hour)
			evt, _, err := r.Execute(context.Background(), resourceID, meta,
				func(s *resource.State, at time.Time) (event.Proposed, error) {
					return resource.Decide(s, resource.AddReservation{
						ReservationID: uuid.New(),
						ResourceID:    resourceID,
						UserID:        uuid.New(),
						FromUTC:       from,
						ToUTC:         from.Add(time.Hour),
					}, at)
				})
			require.NoError(t, err)
			assert.Equal(t, int64(i+2), evt.Version)
		}
	})

	t.Run("decider rejection surfaces without touching the store", func(t *testing.T) {
		store := newFakeEventStore()
		pub := &fakePublisher{}
		r := resourceRunner(store, pub, clock.NewMockClock(now), runnerConfig())

		_, _, err := r.Execute(context.Background(), resourceID, meta,
			func(s *resource.State, at time.Time) (event.Proposed, error) {
				return resource.Decide(s, resource.AddReservation{
					ReservationID: uuid.New(),
					ResourceID:    resourceID,
					UserID:        uuid.New(),
					FromUTC:       now.Add(time.Hour),
					ToUTC:         now.Add(2 * time.Hour),
				}, at)
			})

		assert.ErrorIs(t, err, resource.ErrNotFound)
		assert.Zero(t, store.appendCalls)
		assert.Zero(t, pub.count())
	})

	t.Run("one lost race retries against fresh state and wins", func(t *testing.T) {
		store := newFakeEventStore()
		store.loseNextAppends = 1
		pub := &fakePublisher{}
		r := resourceRunner(store, pub, clock.NewMockClock(now), runnerConfig())

		evt, _, err := r.Execute(context.Background(), resourceID, meta, decideCreate)

		require.NoError(t, err)
		assert.Equal(t, int64(1), evt.Version)
		assert.Equal(t, 2, store.appendCalls)
	})

	t.Run("retry re-decides against the winner's event", func(t *testing.T) {
		store := newFakeEventStore()
		winnerUser := uuid.New()
		loserUser := uuid.New()
		from := now.Add(24 * time.Hour)

		// Seed the resource, then stage a race where the winner books the
		// same slot between the loser's rehydrate and append.
		pub := &fakePublisher{}
		r := resourceRunner(store, pub, clock.NewMockClock(now), runnerConfig())
		_, _, err := r.Execute(context.Background(), resourceID, meta, decideCreate)
		require.NoError(t, err)

		store.loseNextAppends = 1
		store.winnerOnRace = func(lastVersion int64) *event.Event {
			evt := builder.NewEventBuilder().
				WithStream(event.StreamTypeResource, resourceID).
				WithVersion(lastVersion+1).
				WithType(resource.EventTypeReservationAdded).
				WithPayload(resource.ReservationAddedPayload{
					ReservationID: uuid.New(),
					ResourceID:    resourceID,
					UserID:        winnerUser,
					FromUTC:       from,
					ToUTC:         from.Add(time.Hour),
					Status:        resource.ReservationStatusActive,
					CreatedAtUTC:  now,
				}).
				Build()
			return &evt
		}

		_, _, err = r.Execute(context.Background(), resourceID, meta,
			func(s *resource.State, at time.Time) (event.Proposed, error) {
				return resource.Decide(s, resource.AddReservation{
					ReservationID: uuid.New(),
					ResourceID:    resourceID,
					UserID:        loserUser,
					FromUTC:       from.Add(30 * time.Minute),
					ToUTC:         from.Add(90 * time.Minute),
				}, at)
			})

		assert.ErrorIs(t, err, resource.ErrReservationOverlap)
	})

	t.Run("exhausted retries surface a version conflict", func(t *testing.T) {
		store := newFakeEventStore()
		store.loseNextAppends = 10
		pub := &fakePublisher{}
		cfg := runnerConfig()
		cfg.VersionConflictMaxRetries = 2
		r := resourceRunner(store, pub, clock.NewMockClock(now), cfg)

		_, _, err := r.Execute(context.Background(), resourceID, meta, decideCreate)

		assert.ErrorIs(t, err, ErrVersionConflict)
		assert.Equal(t, 3, store.appendCalls)
		assert.Zero(t, pub.count())
	})

	t.Run("publish failure does not fail the command", func(t *testing.T) {
		store := newFakeEventStore()
		pub := &fakePublisher{err: errors.New("queue down")}
		r := resourceRunner(store, pub, clock.NewMockClock(now), runnerConfig())

		evt, _, err := r.Execute(context.Background(), resourceID, meta, decideCreate)

		require.NoError(t, err)
		assert.Equal(t, int64(1), evt.Version)
	})

	t.Run("stream gap surfaces marked", func(t *testing.T) {
		store := newFakeEventStore()
		store.loadErr = &eventstore.GapError{
			StreamType: "resource", StreamID: resourceID.String(), Expected: 2, Actual: 4,
		}
		pub := &fakePublisher{}
		r := resourceRunner(store, pub, clock.NewMockClock(now), runnerConfig())

		_, _, err := r.Execute(context.Background(), resourceID, meta, decideCreate)

		assert.ErrorIs(t, err, ErrStreamGap)
		var gap *eventstore.GapError
		assert.ErrorAs(t, err, &gap)
	})
}

func TestRunnerSnapshots(t *testing.T) {
	now := builder.BaseTime
	resourceID := uuid.New()
	meta := event.Meta{CommandName: "CreateReservationInResource"}

	reserve := func(r *Runner[*resource.State], from time.Time) error {
		_, _, err := r.Execute(context.Background(), resourceID, meta,
			func(s *resource.State, at time.Time) (event.Proposed, error) {
				return resource.Decide(s, resource.AddReservation{
					ReservationID: uuid.New(),
					ResourceID:    resourceID,
					UserID:        uuid.New(),
					FromUTC:       from,
					ToUTC:         from.Add(30 * time.Minute),
				}, at)
			})
		return err
	}

	t.Run("snapshot lands on the threshold version and rehydration uses it", func(t *testing.T) {
		store := newFakeEventStore()
		pub := &fakePublisher{}
		cfg := runnerConfig()
		cfg.SnapshotByStreamType = config.SnapshotThresholds{"resource": 3}
		r := resourceRunner(store, pub, clock.NewMockClock(now), cfg)

		_, _, err := r.Execute(context.Background(), resourceID, meta, decideCreateFn(resourceID))
		require.NoError(t, err)

		for i := 0; i < 4; i++ {
			require.NoError(t, reserve(r, now.Add(time.Duration(24*(i+1))*time.Hour)))
		}

		key := streamKey(event.StreamTypeResource, resourceID)
		require.Len(t, store.snaps[key], 1)
		snap := store.snaps[key][0]
		assert.Equal(t, int64(3), snap.SnapshotVersion)
		assert.Equal(t, snap.SnapshotVersion, snap.LastEventVersion)

		// Folding the tail onto the snapshot reproduces the full fold.
		var fromSnap *resource.State
		require.NoError(t, json.Unmarshal(snap.State, &fromSnap))
		tail, err := store.LoadStream(context.Background(), event.StreamTypeResource, resourceID, snap.LastEventVersion+1)
		require.NoError(t, err)
		for _, e := range tail {
			fromSnap = resource.Fold(fromSnap, e)
		}

		var full *resource.State
		for _, e := range store.streams[key] {
			full = resource.Fold(full, e)
		}
		assert.Equal(t, full, fromSnap)
	})

	t.Run("threshold zero disables snapshots for the type", func(t *testing.T) {
		store := newFakeEventStore()
		pub := &fakePublisher{}
		cfg := runnerConfig()
		cfg.SnapshotByStreamType = config.SnapshotThresholds{"resource": 0}
		r := resourceRunner(store, pub, clock.NewMockClock(now), cfg)

		_, _, err := r.Execute(context.Background(), resourceID, meta, decideCreateFn(resourceID))
		require.NoError(t, err)
		assert.Zero(t, store.snapshotPuts)
	})

	t.Run("snapshot write failure is swallowed", func(t *testing.T) {
		store := newFakeEventStore()
		store.snapErr = errors.New("s3 down")
		pub := &fakePublisher{}
		cfg := runnerConfig()
		cfg.SnapshotByStreamType = config.SnapshotThresholds{"resource": 1}
		r := resourceRunner(store, pub, clock.NewMockClock(now), cfg)

		_, _, err := r.Execute(context.Background(), resourceID, meta, decideCreateFn(resourceID))

		require.NoError(t, err)
		assert.Equal(t, 1, store.snapshotPuts)
	})
}

func TestRunnerConflictTelemetry(t *testing.T) {
	now := builder.BaseTime
	resourceID := uuid.New()
	meta := event.Meta{CommandName: "CreateResource", ActorUserID: uuid.New().String()}
	decideCreate := decideCreateFn(resourceID)

	t.Run("disabled by default", func(t *testing.T) {
		store := newFakeEventStore()
		store.loseNextAppends = 2
		r := resourceRunner(store, &fakePublisher{}, clock.NewMockClock(now), runnerConfig())

		_, _, err := r.Execute(context.Background(), resourceID, meta, decideCreate)

		assert.ErrorIs(t, err, ErrVersionConflict)
		assert.Empty(t, store.streams[streamKey(event.StreamTypeResource, resourceID)])
	})

	t.Run("enabled appends one audit event at the tail", func(t *testing.T) {
		store := newFakeEventStore()
		store.loseNextAppends = 2
		cfg := runnerConfig()
		cfg.EmitConflictUnresolved = true
		r := resourceRunner(store, &fakePublisher{}, clock.NewMockClock(now), cfg)

		_, _, err := r.Execute(context.Background(), resourceID, meta, decideCreate)

		assert.ErrorIs(t, err, ErrVersionConflict)
		evts := store.streams[streamKey(event.StreamTypeResource, resourceID)]
		require.Len(t, evts, 1)
		assert.Equal(t, resource.EventTypeConcurrencyConflictUnresolved, evts[0].Type)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(evts[0].Payload, &payload))
		assert.Equal(t, float64(2), payload["attempts"])
		assert.Equal(t, meta.ActorUserID, payload["actorUserId"])

		// Folds treat the audit event as identity.
		var state *resource.State
		for _, e := range evts {
			state = resource.Fold(state, e)
		}
		assert.Nil(t, state)
	})
}

func TestRunnerConcurrentWriters(t *testing.T) {
	t.Run("every writer wins an append or reports a conflict", func(t *testing.T) {
		store := newFakeEventStore()
		cfg := runnerConfig()
		cfg.VersionConflictMaxRetries = 2
		r := resourceRunner(store, &fakePublisher{}, clock.NewMockClock(builder.BaseTime), cfg)

		resourceID := uuid.New()
		_, _, err := r.Execute(context.Background(), resourceID,
			event.Meta{CommandName: "CreateResource"}, decideCreateFn(resourceID))
		require.NoError(t, err)

		const writers = 8
		results := make([]error, writers)
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				// Disjoint slots keep the decider out of the way: only the
				// version race decides who must retry.
				from := builder.BaseTime.Add(time.Duration(n+1) * time.Hour)
				_, _, err := r.Execute(context.Background(), resourceID,
					event.Meta{CommandName: "CreateReservationInResource"},
					func(s *resource.State, at time.Time) (event.Proposed, error) {
						return resource.Decide(s, resource.AddReservation{
							ReservationID: uuid.New(),
							ResourceID:    resourceID,
							UserID:        uuid.New(),
							FromUTC:       from,
							ToUTC:         from.Add(time.Hour),
						}, at)
					})
				results[n] = err
			}(i)
		}
		wg.Wait()

		wins := 0
		for _, err := range results {
			if err == nil {
				wins++
				continue
			}
			require.ErrorIs(t, err, ErrVersionConflict)
		}
		require.GreaterOrEqual(t, wins, 1, "some writer must win the first round")

		events, err := store.LoadStream(context.Background(), event.StreamTypeResource, resourceID, 1)
		require.NoError(t, err)
		require.Len(t, events, wins+1, "final version equals the appended event count")
		for i, e := range events {
			assert.Equal(t, int64(i+1), e.Version)
		}
	})
}
