package commands

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gabpmcp/bolivar-test/internal/domain/event"
	"github.com/gabpmcp/bolivar-test/internal/domain/resource"
	"github.com/gabpmcp/bolivar-test/internal/infra/eventstore"
	"github.com/gabpmcp/bolivar-test/internal/pkg/clock"
	"github.com/gabpmcp/bolivar-test/internal/pkg/config"
	"github.com/gabpmcp/bolivar-test/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	// ErrVersionConflict is returned after the optimistic retry budget is
	// spent without winning an append.
	ErrVersionConflict = errs.New("version conflict unresolved after retries")

	// ErrStreamGap is returned when rehydration hit a hole in the stream
	// that survived the store's own retry.
	ErrStreamGap = errs.New("stream gap detected")
)

// Decide is the per-command body the runner executes once per attempt. It
// receives the rehydrated state and the attempt's wall clock, builds the
// command, and returns the decider's verdict. It must stay free of side
// effects: under a version conflict the whole closure runs again against
// fresher state.
type Decide[S any] func(state S, now time.Time) (event.Proposed, error)

// Runner drives one aggregate type through the command procedure: rehydrate
// from snapshot plus tail, decide, append at the next version, publish,
// maybe snapshot. All writes are optimistic; a lost append race rewinds to
// rehydration until the retry budget runs out.
type Runner[S any] struct {
	streamType event.StreamType
	fold       func(S, event.Event) S
	store      EventStore
	publisher  EventPublisher
	clock      clock.Clock
	cfg        config.RunnerConfig
	slogger    *slog.Logger
}

func NewRunner[S any](
	streamType event.StreamType,
	fold func(S, event.Event) S,
	store EventStore,
	publisher EventPublisher,
	clk clock.Clock,
	cfg config.RunnerConfig,
	slogger *slog.Logger,
) *Runner[S] {
	return &Runner[S]{
		streamType: streamType,
		fold:       fold,
		store:      store,
		publisher:  publisher,
		clock:      clk,
		cfg:        cfg,
		slogger:    slogger,
	}
}

// Execute runs decide against the stream and commits the accepted event.
// Returns the recorded event and the state folded up to and including it.
func (r *Runner[S]) Execute(ctx context.Context, streamID uuid.UUID, meta event.Meta, decide Decide[S]) (event.Event, S, error) {
	var zero S

	attempts := r.cfg.VersionConflictMaxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		state, lastVersion, err := r.rehydrate(ctx, streamID)
		if err != nil {
			return event.Event{}, zero, err
		}

		now := r.clock.Now()
		proposed, err := decide(state, now)
		if err != nil {
			return event.Event{}, zero, err
		}

		evt, err := event.New(r.streamType, streamID, lastVersion+1, proposed, now, meta)
		if err != nil {
			return event.Event{}, zero, err
		}

		err = r.store.AppendEvent(ctx, evt, lastVersion)
		if err == nil {
			next := r.fold(state, evt)
			r.publish(ctx, evt)
			r.maybeSnapshot(ctx, streamID, next, evt.Version)
			return evt, next, nil
		}
		if !errors.Is(err, eventstore.ErrVersionConflict) {
			return event.Event{}, zero, err
		}

		r.slogger.Warn("append lost version race",
			slog.String("stream_type", r.streamType.String()),
			slog.String("stream_id", streamID.String()),
			slog.Int64("expected_version", lastVersion),
			slog.Int("attempt", attempt),
		)
	}

	if r.cfg.EmitConflictUnresolved {
		r.appendConflictUnresolved(ctx, streamID, meta, attempts)
	}
	return event.Event{}, zero, errs.Mark(
		errs.Newf("stream %s/%s still conflicted after %d attempts", r.streamType, streamID, attempts),
		ErrVersionConflict,
	)
}

// rehydrate folds the latest snapshot plus the tail after it. With no
// snapshot the fold starts from the zero state at version 1.
func (r *Runner[S]) rehydrate(ctx context.Context, streamID uuid.UUID) (S, int64, error) {
	var state S
	var lastVersion int64

	snap, err := r.store.LoadLatestSnapshot(ctx, r.streamType, streamID)
	if err != nil {
		return state, 0, errs.Wrap(err, "load latest snapshot")
	}
	if snap != nil {
		if err := json.Unmarshal(snap.State, &state); err != nil {
			// A snapshot that no longer decodes is dropped, not fatal:
			// the full fold below rebuilds the same state.
			r.slogger.Warn("snapshot state undecodable, folding from scratch",
				slog.String("stream_id", streamID.String()),
				slog.Int64("snapshot_version", snap.SnapshotVersion),
				slog.String("error", err.Error()),
			)
			var zero S
			state = zero
		} else {
			lastVersion = snap.LastEventVersion
		}
	}

	tail, err := r.store.LoadStream(ctx, r.streamType, streamID, lastVersion+1)
	if err != nil {
		var gap *eventstore.GapError
		if errors.As(err, &gap) {
			return state, 0, errs.Mark(err, ErrStreamGap)
		}
		return state, 0, errs.Wrap(err, "load stream tail")
	}

	for _, e := range tail {
		state = r.fold(state, e)
	}
	if len(tail) > 0 {
		lastVersion = tail[len(tail)-1].Version
	}
	return state, lastVersion, nil
}

// publish is best-effort: a committed event that fails to enqueue is
// recovered by the redrive tool, never by failing the command.
func (r *Runner[S]) publish(ctx context.Context, evt event.Event) {
	if err := r.publisher.Publish(ctx, evt); err != nil {
		r.slogger.Warn("publish failed, event awaits redrive",
			slog.String("event_id", evt.EventID.String()),
			slog.String("stream_id", evt.StreamID.String()),
			slog.Int64("version", evt.Version),
			slog.String("error", err.Error()),
		)
	}
}

// maybeSnapshot caches the fold when the stream crosses its cadence. A
// threshold of zero disables snapshots for the stream type.
func (r *Runner[S]) maybeSnapshot(ctx context.Context, streamID uuid.UUID, state S, version int64) {
	threshold := r.cfg.SnapshotThreshold(r.streamType.String())
	if threshold <= 0 || version%int64(threshold) != 0 {
		return
	}

	raw, err := json.Marshal(state)
	if err != nil {
		r.slogger.Warn("snapshot state marshal failed",
			slog.String("stream_id", streamID.String()),
			slog.String("error", err.Error()),
		)
		return
	}

	snap := event.Snapshot{
		StreamID:         streamID,
		StreamType:       r.streamType,
		SnapshotVersion:  version,
		LastEventVersion: version,
		State:            raw,
		CreatedAtUTC:     r.clock.Now(),
	}
	if err := r.store.PutSnapshot(ctx, snap); err != nil && !errors.Is(err, eventstore.ErrSnapshotExists) {
		r.slogger.Warn("snapshot write failed",
			slog.String("stream_id", streamID.String()),
			slog.Int64("version", version),
			slog.String("error", err.Error()),
		)
	}
}

// conflictUnresolvedPayload is the audit trail left behind when a command
// gives up its retry budget. Folds and projections ignore the event.
type conflictUnresolvedPayload struct {
	ResourceID       uuid.UUID `json:"resourceId"`
	CommandName      string    `json:"commandName"`
	ActorUserID      string    `json:"actorUserId"`
	Attempts         int       `json:"attempts"`
	LastKnownVersion int64     `json:"lastKnownVersion"`
}

// appendConflictUnresolved records one telemetry event at the current tail.
// Every failure in here is swallowed: the audit trail must never mask the
// conflict response itself.
func (r *Runner[S]) appendConflictUnresolved(ctx context.Context, streamID uuid.UUID, meta event.Meta, attempts int) {
	_, lastVersion, err := r.rehydrate(ctx, streamID)
	if err != nil {
		r.slogger.Warn("conflict telemetry rehydrate failed",
			slog.String("stream_id", streamID.String()),
			slog.String("error", err.Error()),
		)
		return
	}

	evt, err := event.New(r.streamType, streamID, lastVersion+1, event.Proposed{
		Type: resource.EventTypeConcurrencyConflictUnresolved,
		Payload: conflictUnresolvedPayload{
			ResourceID:       streamID,
			CommandName:      meta.CommandName,
			ActorUserID:      meta.ActorUserID,
			Attempts:         attempts,
			LastKnownVersion: lastVersion,
		},
	}, r.clock.Now(), meta)
	if err != nil {
		return
	}

	if err := r.store.AppendEvent(ctx, evt, lastVersion); err != nil {
		r.slogger.Warn("conflict telemetry append failed",
			slog.String("stream_id", streamID.String()),
			slog.String("error", err.Error()),
		)
		return
	}
	r.publish(ctx, evt)
}
