// Package worker pumps recorded events from the queue into the projection
// tables. Delivery is at least once and ops are idempotent, so the loop's
// only real job is ordering within a message and honest acknowledgement.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gabpmcp/bolivar-test/internal/domain/event"
	"github.com/gabpmcp/bolivar-test/internal/infra/queue"
	"github.com/gabpmcp/bolivar-test/internal/projection"
	"github.com/gabpmcp/bolivar-test/internal/pkg/errs"
)

type Consumer interface {
	Receive(ctx context.Context) ([]queue.Message, error)
	Delete(ctx context.Context, receiptHandle string) error
}

type ProjectionWriter interface {
	Apply(ctx context.Context, op projection.Op) error
	UpsertLag(ctx context.Context, lastProjectedAt time.Time, eventsBehind int) error
}

type Worker struct {
	consumer Consumer
	writer   ProjectionWriter
	slogger  *slog.Logger
}

func New(consumer Consumer, writer ProjectionWriter, slogger *slog.Logger) *Worker {
	return &Worker{consumer: consumer, writer: writer, slogger: slogger}
}

// Run pumps batches until the context ends.
func (w *Worker) Run(ctx context.Context) error {
	w.slogger.Info("projection worker started")
	for {
		if ctx.Err() != nil {
			w.slogger.Info("projection worker stopped")
			return nil
		}
		w.RunOnce(ctx)
	}
}

// RunOnce drains one receive batch. A message that fails anywhere before its
// delete stays on the queue and is redelivered, so failures here are logged
// and swallowed, never fatal.
func (w *Worker) RunOnce(ctx context.Context) {
	messages, err := w.consumer.Receive(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.slogger.Error("receive batch failed", slog.String("error", err.Error()))
		w.pause(ctx)
		return
	}

	for _, m := range messages {
		if err := w.process(ctx, m); err != nil {
			w.slogger.Warn("projection failed, message will be redelivered",
				slog.String("error", err.Error()),
			)
			continue
		}
		if err := w.consumer.Delete(ctx, m.ReceiptHandle); err != nil {
			w.slogger.Warn("ack failed, message will be redelivered",
				slog.String("error", err.Error()),
			)
		}
	}
}

func (w *Worker) process(ctx context.Context, m queue.Message) error {
	var e event.Event
	if err := json.Unmarshal([]byte(m.Body), &e); err != nil {
		return errs.Wrap(err, "decode event message")
	}

	ops, err := projection.Project(e)
	if err != nil {
		return errs.Wrapf(err, "project %s", e.Type)
	}
	for _, op := range ops {
		if err := w.writer.Apply(ctx, op); err != nil {
			return errs.Wrapf(err, "apply %T", op)
		}
	}

	if err := w.writer.UpsertLag(ctx, e.OccurredAtUTC, 0); err != nil {
		return errs.Wrap(err, "upsert projection lag")
	}
	return nil
}

// pause keeps a broken queue from turning the loop into a busy wait.
func (w *Worker) pause(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
	}
}
