package commands

import (
	"context"
	"time"

	"github.com/gabpmcp/bolivar-test/internal/domain/event"
	"github.com/gabpmcp/bolivar-test/internal/domain/user"

	"github.com/google/uuid"
)

// Ports are declared here, on the consuming side; the infra packages
// implement them.

// EventStore is the append-only log the runner rehydrates from and commits
// to. AppendEvent must fail with eventstore.ErrVersionConflict when another
// writer recorded expectedVersion+1 first.
type EventStore interface {
	LoadStream(ctx context.Context, st event.StreamType, id uuid.UUID, fromVersion int64) ([]event.Event, error)
	LoadLatestSnapshot(ctx context.Context, st event.StreamType, id uuid.UUID) (*event.Snapshot, error)
	AppendEvent(ctx context.Context, e event.Event, expectedVersion int64) error
	PutSnapshot(ctx context.Context, snap event.Snapshot) error
}

// EventPublisher hands a committed event to the projection pipeline.
type EventPublisher interface {
	Publish(ctx context.Context, e event.Event) error
}

// IdempotencyRecord is the reply stored for one completed mutation.
type IdempotencyRecord struct {
	IdempotencyKey string
	ContentHash    string
	StatusCode     int
	ResponseBody   []byte
	CreatedAtUTC   time.Time
}

// IdempotencyStore is the ledger behind the gate. Save is insert-once: a
// duplicate insert surfaces as infra.KindDuplicateKey.
type IdempotencyStore interface {
	Find(ctx context.Context, key string) (*IdempotencyRecord, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

// Actor is the authenticated subject a command runs under.
type Actor struct {
	UserID uuid.UUID
	Role   user.Role
}
