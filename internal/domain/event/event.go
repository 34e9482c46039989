package event

import (
	"encoding/json"
	"time"

	"github.com/gabpmcp/bolivar-test/internal/pkg/errs"

	"github.com/google/uuid"
)

type StreamType string

const (
	StreamTypeUser     StreamType = "user"
	StreamTypeResource StreamType = "resource"
)

func (s StreamType) String() string {
	return string(s)
}

func (s StreamType) IsValid() bool {
	switch s {
	case StreamTypeUser, StreamTypeResource:
		return true
	default:
		return false
	}
}

// Event is one immutable entry of a stream. Versions start at 1 and are
// contiguous per stream; the payload is opaque JSON owned by the aggregate
// that emitted it. Field names are the wire format, both in the object store
// and on the queue.
type Event struct {
	EventID       uuid.UUID       `json:"eventId"`
	StreamID      uuid.UUID       `json:"streamId"`
	StreamType    StreamType      `json:"streamType"`
	Version       int64           `json:"version"`
	Type          string          `json:"type"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAtUTC time.Time       `json:"occurredAtUtc"`
	Meta          Meta            `json:"meta"`
}

// Meta carries request-scoped context for audits. It never participates in
// folds, so adding fields is safe.
type Meta struct {
	CommandName string `json:"commandName,omitempty"`
	ActorUserID string `json:"actorUserId,omitempty"`
}

// Proposed is a decider-accepted event before it is recorded. The command
// runner assigns the id, version and timestamp at append time.
type Proposed struct {
	Type    string
	Payload any
}

// New seals a proposed event into a recorded one. Event ids are UUIDv7 so
// they sort by creation time across streams.
func New(streamType StreamType, streamID uuid.UUID, version int64, p Proposed, occurredAt time.Time, meta Meta) (Event, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Event{}, errs.Wrap(err, "generate event id")
	}

	payload, err := json.Marshal(p.Payload)
	if err != nil {
		return Event{}, errs.Wrapf(err, "marshal %s payload", p.Type)
	}

	return Event{
		EventID:       id,
		StreamID:      streamID,
		StreamType:    streamType,
		Version:       version,
		Type:          p.Type,
		Payload:       payload,
		OccurredAtUTC: occurredAt.UTC(),
		Meta:          meta,
	}, nil
}

// DecodePayload unmarshals the payload into the aggregate's typed form.
func DecodePayload[T any](e Event) (T, error) {
	var out T
	if err := json.Unmarshal(e.Payload, &out); err != nil {
		return out, errs.Wrapf(err, "decode %s payload", e.Type)
	}
	return out, nil
}
