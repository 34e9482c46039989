// Command redrive republishes stored events onto the projection queue so the
// worker can rebuild the read side after a wipe or a poisoned batch.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/gabpmcp/bolivar-test/cmd/bootstrap"
	"github.com/gabpmcp/bolivar-test/internal/domain/event"
	"github.com/gabpmcp/bolivar-test/internal/infra/eventstore/s3store"
	"github.com/gabpmcp/bolivar-test/internal/infra/queue"
	"github.com/gabpmcp/bolivar-test/internal/pkg/config"

	"github.com/google/uuid"
)

func main() {
	var (
		streamTypeFlag = flag.String("stream-type", "", "stream type to redrive: user or resource")
		streamIDFlag   = flag.String("stream-id", "", "redrive a single stream (uuid, optional)")
		fromVersion    = flag.Int64("from-version", 1, "first version to republish")
	)
	flag.Parse()

	if err := run(*streamTypeFlag, *streamIDFlag, *fromVersion); err != nil {
		fmt.Fprintln(os.Stderr, "redrive:", err)
		os.Exit(1)
	}
}

func run(streamTypeFlag, streamIDFlag string, fromVersion int64) error {
	streamType := event.StreamType(streamTypeFlag)
	if !streamType.IsValid() {
		return fmt.Errorf("unknown stream type %q", streamTypeFlag)
	}
	if fromVersion < 1 {
		return fmt.Errorf("from-version must be >= 1, got %d", fromVersion)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.Events.QueueURL == "" {
		return fmt.Errorf("SQS_QUEUE_URL is empty; nothing to redrive into")
	}

	awsCfg, err := bootstrap.NewAWSConfig(cfg)
	if err != nil {
		return err
	}
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	store := s3store.New(bootstrap.NewS3Client(cfg, awsCfg), cfg.Events.Bucket, slogger)
	publisher := queue.NewPublisher(bootstrap.NewSQSClient(cfg, awsCfg), cfg.Events.QueueURL, slogger)

	ctx := context.Background()
	streamIDs, err := resolveStreams(ctx, store, streamType, streamIDFlag)
	if err != nil {
		return err
	}

	var republished int
	for _, id := range streamIDs {
		events, err := store.LoadStream(ctx, streamType, id, fromVersion)
		if err != nil {
			return fmt.Errorf("load %s/%s: %w", streamType, id, err)
		}
		for _, e := range events {
			if err := publisher.Publish(ctx, e); err != nil {
				return fmt.Errorf("publish %s/%s v%d: %w", streamType, id, e.Version, err)
			}
			republished++
		}
	}

	slogger.Info("redrive finished",
		slog.String("stream_type", string(streamType)),
		slog.Int("streams", len(streamIDs)),
		slog.Int("events", republished),
	)
	return nil
}

func resolveStreams(ctx context.Context, store *s3store.Store, st event.StreamType, streamIDFlag string) ([]uuid.UUID, error) {
	if streamIDFlag != "" {
		id, err := uuid.Parse(streamIDFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid stream-id: %w", err)
		}
		return []uuid.UUID{id}, nil
	}
	return store.ListStreamIDs(ctx, st)
}
