package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Snapshot is a cached fold of a stream prefix. It is an accelerator only:
// rehydration must produce the same state with or without it, and a snapshot
// whose SnapshotVersion differs from LastEventVersion must never be written.
type Snapshot struct {
	StreamID         uuid.UUID       `json:"streamId"`
	StreamType       StreamType      `json:"streamType"`
	SnapshotVersion  int64           `json:"snapshotVersion"`
	LastEventVersion int64           `json:"lastEventVersion"`
	State            json.RawMessage `json:"state"`
	CreatedAtUTC     time.Time       `json:"createdAtUtc"`
}
