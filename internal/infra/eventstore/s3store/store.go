// Package s3store persists event streams as one JSON object per event.
//
// Layout in the bucket:
//
//	{streamType}/{streamId}/{version:012}.json
//	snapshots/{streamType}/{streamId}/{version:012}.json
//
// Appends use If-None-Match so the first writer of a version wins and every
// later writer observes a version conflict.
package s3store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/gabpmcp/bolivar-test/internal/domain/event"
	"github.com/gabpmcp/bolivar-test/internal/infra"
	"github.com/gabpmcp/bolivar-test/internal/infra/eventstore"
	"github.com/gabpmcp/bolivar-test/internal/pkg/errs"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
)

// API is the slice of the S3 client the store touches.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type Store struct {
	client  API
	bucket  string
	slogger *slog.Logger
}

func New(client API, bucket string, slogger *slog.Logger) *Store {
	return &Store{client: client, bucket: bucket, slogger: slogger}
}

func eventKey(st event.StreamType, id uuid.UUID, version int64) string {
	return fmt.Sprintf("%s/%s/%012d.json", st, id, version)
}

func snapshotKey(st event.StreamType, id uuid.UUID, version int64) string {
	return fmt.Sprintf("snapshots/%s/%s/%012d.json", st, id, version)
}

func streamPrefix(st event.StreamType, id uuid.UUID) string {
	return fmt.Sprintf("%s/%s/", st, id)
}

func snapshotPrefix(st event.StreamType, id uuid.UUID) string {
	return fmt.Sprintf("snapshots/%s/%s/", st, id)
}

func versionFromKey(key string) (int64, bool) {
	raw, ok := strings.CutSuffix(path.Base(key), ".json")
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 1 {
		return 0, false
	}
	return v, true
}

// AppendEvent records e as version expectedVersion+1 of its stream. A
// concurrent writer that got there first surfaces as ErrVersionConflict.
func (s *Store) AppendEvent(ctx context.Context, e event.Event, expectedVersion int64) error {
	if e.Version != expectedVersion+1 {
		return errs.Newf("append version %d does not follow expected version %d", e.Version, expectedVersion)
	}

	body, err := json.Marshal(e)
	if err != nil {
		return errs.Wrap(err, "marshal event")
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(eventKey(e.StreamType, e.StreamID, e.Version)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		if isConditionalFailure(err) {
			return errs.Mark(err, eventstore.ErrVersionConflict)
		}
		return infra.WrapRepoErr(s.slogger, infra.KindStoreFailure, "append event", err)
	}
	return nil
}

// LoadStream returns the events of a stream with version >= fromVersion, in
// order. A gap observed on the first read is retried once before it becomes a
// GapError, since a concurrent append may still be propagating through the
// object listing.
func (s *Store) LoadStream(ctx context.Context, st event.StreamType, id uuid.UUID, fromVersion int64) ([]event.Event, error) {
	events, err := s.loadOnce(ctx, st, id, fromVersion)

	var gap *eventstore.GapError
	if errors.As(err, &gap) {
		s.slogger.Warn("stream gap on first read, retrying",
			slog.String("stream_id", id.String()),
			slog.Int64("expected", gap.Expected),
			slog.Int64("actual", gap.Actual),
		)
		events, err = s.loadOnce(ctx, st, id, fromVersion)
	}
	return events, err
}

func (s *Store) loadOnce(ctx context.Context, st event.StreamType, id uuid.UUID, fromVersion int64) ([]event.Event, error) {
	versions, err := s.listVersions(ctx, streamPrefix(st, id))
	if err != nil {
		return nil, err
	}

	versions = slices.DeleteFunc(versions, func(v int64) bool { return v < fromVersion })
	for i, v := range versions {
		if expected := fromVersion + int64(i); v != expected {
			return nil, &eventstore.GapError{
				StreamType: st.String(),
				StreamID:   id.String(),
				Expected:   expected,
				Actual:     v,
			}
		}
	}

	events := make([]event.Event, 0, len(versions))
	for _, v := range versions {
		e, err := s.getEvent(ctx, eventKey(st, id, v))
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

func (s *Store) listVersions(ctx context.Context, prefix string) ([]int64, error) {
	var versions []int64

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, infra.WrapRepoErr(s.slogger, infra.KindStoreFailure, "list stream objects", err)
		}
		for _, obj := range page.Contents {
			if v, ok := versionFromKey(aws.ToString(obj.Key)); ok {
				versions = append(versions, v)
			}
		}
	}

	slices.Sort(versions)
	return versions, nil
}

func (s *Store) getEvent(ctx context.Context, key string) (event.Event, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return event.Event{}, infra.WrapRepoErr(s.slogger, infra.KindStoreFailure, "get event object", err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return event.Event{}, infra.WrapRepoErr(s.slogger, infra.KindStoreFailure, "read event object", err)
	}

	var e event.Event
	if err := json.Unmarshal(raw, &e); err != nil {
		return event.Event{}, infra.WrapRepoErr(s.slogger, infra.KindStoreFailure, "decode event object", err)
	}
	return e, nil
}

// LoadLatestSnapshot returns the newest snapshot of a stream, or nil when the
// stream has none. A snapshot whose versions disagree is ignored so
// rehydration falls back to the full fold.
func (s *Store) LoadLatestSnapshot(ctx context.Context, st event.StreamType, id uuid.UUID) (*event.Snapshot, error) {
	versions, err := s.listVersions(ctx, snapshotPrefix(st, id))
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, nil
	}

	latest := versions[len(versions)-1]
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(snapshotKey(st, id, latest)),
	})
	if err != nil {
		return nil, infra.WrapRepoErr(s.slogger, infra.KindStoreFailure, "get snapshot object", err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, infra.WrapRepoErr(s.slogger, infra.KindStoreFailure, "read snapshot object", err)
	}

	var snap event.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, infra.WrapRepoErr(s.slogger, infra.KindStoreFailure, "decode snapshot object", err)
	}
	if snap.SnapshotVersion != snap.LastEventVersion {
		s.slogger.Warn("ignoring inconsistent snapshot",
			slog.String("stream_id", id.String()),
			slog.Int64("snapshot_version", snap.SnapshotVersion),
			slog.Int64("last_event_version", snap.LastEventVersion),
		)
		return nil, nil
	}
	return &snap, nil
}

// PutSnapshot caches a fold at its version. Losing the create race to another
// writer surfaces as ErrSnapshotExists; the content is identical either way.
func (s *Store) PutSnapshot(ctx context.Context, snap event.Snapshot) error {
	if snap.SnapshotVersion != snap.LastEventVersion {
		return errs.Newf("snapshot version %d does not match last event version %d",
			snap.SnapshotVersion, snap.LastEventVersion)
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return errs.Wrap(err, "marshal snapshot")
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(snapshotKey(snap.StreamType, snap.StreamID, snap.SnapshotVersion)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		IfNoneMatch: aws.String("*"),
		Metadata: map[string]string{
			"snapshotversion":  strconv.FormatInt(snap.SnapshotVersion, 10),
			"lasteventversion": strconv.FormatInt(snap.LastEventVersion, 10),
		},
	})
	if err != nil {
		if isConditionalFailure(err) {
			return errs.Mark(err, eventstore.ErrSnapshotExists)
		}
		return infra.WrapRepoErr(s.slogger, infra.KindStoreFailure, "put snapshot", err)
	}
	return nil
}

// ListStreamIDs walks the stream ids recorded under a stream type. Used by
// the redrive tool to replay whole families of streams.
func (s *Store) ListStreamIDs(ctx context.Context, st event.StreamType) ([]uuid.UUID, error) {
	var ids []uuid.UUID

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(st.String() + "/"),
		Delimiter: aws.String("/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, infra.WrapRepoErr(s.slogger, infra.KindStoreFailure, "list stream prefixes", err)
		}
		for _, cp := range page.CommonPrefixes {
			raw := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), st.String()+"/"), "/")
			id, err := uuid.Parse(raw)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func isConditionalFailure(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	default:
		return false
	}
}
