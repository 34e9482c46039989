//go:build unit || e2e

package builder

import (
	"encoding/json"
	"time"

	"github.com/gabpmcp/bolivar-test/internal/domain/event"

	"github.com/google/uuid"
)

// BaseTime is the fixed "now" most builders anchor on so tests stay
// deterministic. Reservations default to slots after this instant.
var BaseTime = time.Date(2026, 12, 1, 9, 0, 0, 0, time.UTC)

type EventBuilder struct {
	EventID    uuid.UUID
	StreamID   uuid.UUID
	StreamType event.StreamType
	Version    int64
	Type       string
	Payload    any
	OccurredAt time.Time
	Meta       event.Meta
}

func NewEventBuilder() *EventBuilder {
	return &EventBuilder{
		EventID:    mustV7(),
		StreamID:   uuid.New(),
		StreamType: event.StreamTypeResource,
		Version:    1,
		Type:       "ResourceCreated",
		Payload:    map[string]any{},
		OccurredAt: BaseTime,
	}
}

func (b *EventBuilder) With(mutate func(*EventBuilder)) *EventBuilder {
	mutate(b)
	return b
}

func (b *EventBuilder) WithStream(st event.StreamType, id uuid.UUID) *EventBuilder {
	b.StreamType = st
	b.StreamID = id
	return b
}

func (b *EventBuilder) WithVersion(v int64) *EventBuilder {
	b.Version = v
	return b
}

func (b *EventBuilder) WithType(t string) *EventBuilder {
	b.Type = t
	return b
}

func (b *EventBuilder) WithPayload(p any) *EventBuilder {
	b.Payload = p
	return b
}

func (b *EventBuilder) WithOccurredAt(at time.Time) *EventBuilder {
	b.OccurredAt = at
	return b
}

func (b *EventBuilder) Build() event.Event {
	payload, err := json.Marshal(b.Payload)
	if err != nil {
		panic(err)
	}
	return event.Event{
		EventID:       b.EventID,
		StreamID:      b.StreamID,
		StreamType:    b.StreamType,
		Version:       b.Version,
		Type:          b.Type,
		Payload:       payload,
		OccurredAtUTC: b.OccurredAt,
		Meta:          b.Meta,
	}
}

func mustV7() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		panic(err)
	}
	return id
}
