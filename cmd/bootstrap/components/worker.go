package components

import (
	"log/slog"

	"github.com/gabpmcp/bolivar-test/internal/infra/dynamo"
	"github.com/gabpmcp/bolivar-test/internal/infra/queue"
	"github.com/gabpmcp/bolivar-test/internal/infra/writerepo"
	"github.com/gabpmcp/bolivar-test/internal/pkg/config"
	"github.com/gabpmcp/bolivar-test/internal/worker"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Provide(
		fx.Annotate(
			NewQueueConsumer,
			fx.As(new(worker.Consumer)),
		),
		fx.Annotate(
			NewProjectionWriter,
			fx.As(new(worker.ProjectionWriter)),
		),
		worker.New,
	),
)

func NewQueueConsumer(client *sqs.Client, cfg config.Config, slogger *slog.Logger) *queue.Consumer {
	return queue.NewConsumer(client, cfg.Events.QueueURL, slogger)
}

func NewProjectionWriter(client *dynamodb.Client, tables dynamo.Tables, slogger *slog.Logger) *writerepo.ProjectionRepository {
	return writerepo.NewProjectionRepository(client, tables, slogger)
}
