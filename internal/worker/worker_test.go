//go:build unit

package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gabpmcp/bolivar-test/internal/domain/event"
	"github.com/gabpmcp/bolivar-test/internal/infra/queue"
	"github.com/gabpmcp/bolivar-test/internal/pkg/errs"
	"github.com/gabpmcp/bolivar-test/internal/projection"
	"github.com/gabpmcp/bolivar-test/tests/common/builder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConsumer struct {
	batches   [][]queue.Message
	receives  int
	onReceive func()
	deleted   []string
	deleteErr error
}

func (f *fakeConsumer) Receive(_ context.Context) ([]queue.Message, error) {
	f.receives++
	if f.onReceive != nil {
		f.onReceive()
	}
	if len(f.batches) == 0 {
		return nil, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

func (f *fakeConsumer) Delete(_ context.Context, receiptHandle string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, receiptHandle)
	return nil
}

type fakeWriter struct {
	ops        []projection.Op
	applyFails int
	lagAt      []time.Time
	lagErr     error
}

func (f *fakeWriter) Apply(_ context.Context, op projection.Op) error {
	if f.applyFails > 0 {
		f.applyFails--
		return errs.New("dynamo write failed")
	}
	f.ops = append(f.ops, op)
	return nil
}

func (f *fakeWriter) UpsertLag(_ context.Context, lastProjectedAt time.Time, _ int) error {
	if f.lagErr != nil {
		return f.lagErr
	}
	f.lagAt = append(f.lagAt, lastProjectedAt)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func eventMessage(t *testing.T, e event.Event, receiptHandle string) queue.Message {
	t.Helper()
	body, err := json.Marshal(e)
	require.NoError(t, err)
	return queue.Message{Body: string(body), ReceiptHandle: receiptHandle}
}

func TestRunOnce(t *testing.T) {
	t.Run("success: a batch projects in order and acks every message", func(t *testing.T) {
		first := builder.NewResourceBuilder().WithName("SalaA").BuildCreatedEvent()
		second := builder.NewResourceBuilder().WithName("SalaB").BuildCreatedEvent()
		consumer := &fakeConsumer{batches: [][]queue.Message{{
			eventMessage(t, first, "rh-1"),
			eventMessage(t, second, "rh-2"),
		}}}
		writer := &fakeWriter{}

		New(consumer, writer, discardLogger()).RunOnce(context.Background())

		require.Len(t, writer.ops, 2)
		putA, ok := writer.ops[0].(projection.PutResource)
		require.True(t, ok)
		assert.Equal(t, "SalaA", putA.Name)
		putB, ok := writer.ops[1].(projection.PutResource)
		require.True(t, ok)
		assert.Equal(t, "SalaB", putB.Name)

		assert.Equal(t, []string{"rh-1", "rh-2"}, consumer.deleted)
		require.Len(t, writer.lagAt, 2)
		assert.True(t, writer.lagAt[0].Equal(first.OccurredAtUTC))
	})

	t.Run("success: unknown event types ack without table writes", func(t *testing.T) {
		ping := builder.NewEventBuilder().WithType("TelemetryPing").Build()
		consumer := &fakeConsumer{batches: [][]queue.Message{{eventMessage(t, ping, "rh-1")}}}
		writer := &fakeWriter{}

		New(consumer, writer, discardLogger()).RunOnce(context.Background())

		assert.Empty(t, writer.ops)
		assert.Len(t, writer.lagAt, 1)
		assert.Equal(t, []string{"rh-1"}, consumer.deleted)
	})

	t.Run("error: malformed body stays on the queue", func(t *testing.T) {
		consumer := &fakeConsumer{batches: [][]queue.Message{{
			{Body: "{not json", ReceiptHandle: "rh-1"},
		}}}
		writer := &fakeWriter{}

		New(consumer, writer, discardLogger()).RunOnce(context.Background())

		assert.Empty(t, writer.ops)
		assert.Empty(t, consumer.deleted)
	})

	t.Run("error: a failed write keeps only that message on the queue", func(t *testing.T) {
		first := builder.NewResourceBuilder().WithName("SalaA").BuildCreatedEvent()
		second := builder.NewResourceBuilder().WithName("SalaB").BuildCreatedEvent()
		consumer := &fakeConsumer{batches: [][]queue.Message{{
			eventMessage(t, first, "rh-1"),
			eventMessage(t, second, "rh-2"),
		}}}
		writer := &fakeWriter{applyFails: 1}

		New(consumer, writer, discardLogger()).RunOnce(context.Background())

		require.Len(t, writer.ops, 1)
		put, ok := writer.ops[0].(projection.PutResource)
		require.True(t, ok)
		assert.Equal(t, "SalaB", put.Name)
		assert.Equal(t, []string{"rh-2"}, consumer.deleted)
	})

	t.Run("error: a failed lag upsert keeps the message on the queue", func(t *testing.T) {
		e := builder.NewResourceBuilder().BuildCreatedEvent()
		consumer := &fakeConsumer{batches: [][]queue.Message{{eventMessage(t, e, "rh-1")}}}
		writer := &fakeWriter{lagErr: errs.New("dynamo write failed")}

		New(consumer, writer, discardLogger()).RunOnce(context.Background())

		// The table write already landed; redelivery reapplies it and converges.
		assert.Len(t, writer.ops, 1)
		assert.Empty(t, consumer.deleted)
	})

	t.Run("error: a failed ack is swallowed so the next message still runs", func(t *testing.T) {
		e := builder.NewResourceBuilder().BuildCreatedEvent()
		consumer := &fakeConsumer{
			batches:   [][]queue.Message{{eventMessage(t, e, "rh-1")}},
			deleteErr: errs.New("sqs unavailable"),
		}
		writer := &fakeWriter{}

		New(consumer, writer, discardLogger()).RunOnce(context.Background())

		assert.Len(t, writer.ops, 1)
		assert.Empty(t, consumer.deleted)
	})
}

func TestRun(t *testing.T) {
	t.Run("processes batches until the context ends", func(t *testing.T) {
		e := builder.NewResourceBuilder().BuildCreatedEvent()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		consumer := &fakeConsumer{batches: [][]queue.Message{{eventMessage(t, e, "rh-1")}}}
		consumer.onReceive = func() {
			if consumer.receives >= 2 {
				cancel()
			}
		}
		writer := &fakeWriter{}

		err := New(consumer, writer, discardLogger()).Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, []string{"rh-1"}, consumer.deleted)
		assert.Len(t, writer.ops, 1)
	})

	t.Run("returns without receiving when already cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		consumer := &fakeConsumer{}
		err := New(consumer, &fakeWriter{}, discardLogger()).Run(ctx)

		require.NoError(t, err)
		assert.Zero(t, consumer.receives)
	})
}
