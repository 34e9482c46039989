// Package eventstore holds the errors shared between event log
// implementations and their consumers. The concrete S3 store lives in the
// s3store subpackage.
package eventstore

import (
	"fmt"

	"github.com/gabpmcp/bolivar-test/internal/pkg/errs"
)

// ErrVersionConflict marks an append that lost the optimistic-concurrency
// race: another writer recorded the expected version first.
var ErrVersionConflict = errs.New("stream version conflict")

// ErrSnapshotExists marks a snapshot put that found the version already
// cached. Snapshots are immutable per version, so this is not a failure.
var ErrSnapshotExists = errs.New("snapshot already exists")

// GapError reports a hole in a stream read that survived one retry. A gap
// means the log is corrupted or an object is still propagating; rehydration
// must not silently fold past it.
type GapError struct {
	StreamType string
	StreamID   string
	Expected   int64
	Actual     int64
}

func (e *GapError) Error() string {
	return fmt.Sprintf("stream %s/%s has a gap: expected version %d, found %d",
		e.StreamType, e.StreamID, e.Expected, e.Actual)
}
