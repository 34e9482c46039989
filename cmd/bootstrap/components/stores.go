package components

import (
	"log/slog"

	"github.com/gabpmcp/bolivar-test/internal/infra/dynamo"
	"github.com/gabpmcp/bolivar-test/internal/infra/eventstore/s3store"
	"github.com/gabpmcp/bolivar-test/internal/infra/queue"
	"github.com/gabpmcp/bolivar-test/internal/infra/readstore"
	"github.com/gabpmcp/bolivar-test/internal/infra/writerepo"
	"github.com/gabpmcp/bolivar-test/internal/pkg/config"
	"github.com/gabpmcp/bolivar-test/internal/usecase/commands"
	"github.com/gabpmcp/bolivar-test/internal/usecase/queries"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/fx"
)

var StoreModule = fx.Module("stores",
	fx.Provide(
		NewTables,
		fx.Annotate(
			NewEventStore,
			fx.As(new(commands.EventStore)),
		),
		fx.Annotate(
			NewEventPublisher,
			fx.As(new(commands.EventPublisher)),
		),
		fx.Annotate(
			NewIdempotencyStore,
			fx.As(new(commands.IdempotencyStore)),
		),
		fx.Annotate(
			NewUserReadStore,
			fx.As(new(queries.UserReadStore)),
		),
		fx.Annotate(
			NewResourceReadStore,
			fx.As(new(queries.ResourceReadStore)),
		),
		fx.Annotate(
			NewReservationReadStore,
			fx.As(new(queries.ReservationReadStore)),
		),
		fx.Annotate(
			NewLagReadStore,
			fx.As(new(queries.LagReadStore)),
		),
	),
)

func NewTables(cfg config.Config) dynamo.Tables {
	return dynamo.Tables{
		Users:         cfg.Tables.Users,
		Resources:     cfg.Tables.Resources,
		Reservations:  cfg.Tables.Reservations,
		Idempotency:   cfg.Tables.Idempotency,
		ProjectionLag: cfg.Tables.ProjectionLag,
	}
}

func NewEventStore(client *s3.Client, cfg config.Config, slogger *slog.Logger) *s3store.Store {
	return s3store.New(client, cfg.Events.Bucket, slogger)
}

func NewEventPublisher(client *sqs.Client, cfg config.Config, slogger *slog.Logger) *queue.Publisher {
	return queue.NewPublisher(client, cfg.Events.QueueURL, slogger)
}

func NewIdempotencyStore(client *dynamodb.Client, cfg config.Config, slogger *slog.Logger) *writerepo.IdempotencyRepository {
	return writerepo.NewIdempotencyRepository(client, cfg.Tables.Idempotency, slogger)
}

func NewUserReadStore(client *dynamodb.Client, cfg config.Config, slogger *slog.Logger) *readstore.UserReadStore {
	return readstore.NewUserReadStore(client, cfg.Tables.Users, slogger)
}

func NewResourceReadStore(client *dynamodb.Client, cfg config.Config, slogger *slog.Logger) *readstore.ResourceReadStore {
	return readstore.NewResourceReadStore(client, cfg.Tables.Resources, slogger)
}

func NewReservationReadStore(client *dynamodb.Client, cfg config.Config, slogger *slog.Logger) *readstore.ReservationReadStore {
	return readstore.NewReservationReadStore(client, cfg.Tables.Reservations, slogger)
}

func NewLagReadStore(client *dynamodb.Client, cfg config.Config, slogger *slog.Logger) *readstore.LagReadStore {
	return readstore.NewLagReadStore(client, cfg.Tables.ProjectionLag, slogger)
}
