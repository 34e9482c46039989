//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gabpmcp/bolivar-test/cmd/bootstrap"
	"github.com/gabpmcp/bolivar-test/cmd/bootstrap/components"
	"github.com/gabpmcp/bolivar-test/internal/handler/middleware"
	"github.com/gabpmcp/bolivar-test/internal/pkg/config"
	"github.com/gabpmcp/bolivar-test/internal/worker"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamotypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/docker/go-connections/nat"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/fx"
)

var (
	localstackOnce      sync.Once
	localstackContainer testcontainers.Container
)

type ContainerInfo struct {
	Host string
	Port nat.Port
}

// ------------------------------------------------------------
// Per-suite environment: one shared localstack, one app per suite
// ------------------------------------------------------------
func setupE2EEnvironment(t *testing.T) (*gin.Engine, config.Config) {
	info := startContainers(t)

	cfg := prepareAWS(t, info)

	router, projectionWorker, app := buildE2EApp(cfg)
	require.NotNil(t, router, "router setup failed")

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.Stop(ctx); err != nil {
			slog.Warn("failed to stop fx application", "error", err.Error())
		}
	})

	startProjectionWorker(t, projectionWorker)

	slog.Info("e2e environment ready",
		"localstack_host", info.Host,
		"localstack_port", info.Port.Port(),
		"bucket", cfg.Events.Bucket)

	return router, cfg
}

func startContainers(t *testing.T) ContainerInfo {
	gin.SetMode(gin.TestMode)
	startLocalStackContainerOnce(t)

	info, err := getContainerHostPort(localstackContainer, "4566/tcp")
	require.NoError(t, err, "failed to resolve localstack address")

	return info
}

// ------------------------------------------------------------
// AWS resource preparation
// ------------------------------------------------------------
// prepareAWS carves a fresh bucket, queue and projection tables out of the
// shared localstack, so every suite runs against its own store.
func prepareAWS(t *testing.T, info ContainerInfo) config.Config {
	endpoint := fmt.Sprintf("http://%s:%s", info.Host, info.Port.Port())
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")

	cfg := config.NewTestConfig()
	cfg.AWS.S3Endpoint = endpoint
	cfg.AWS.SQSEndpoint = endpoint
	cfg.AWS.DynamoEndpoint = endpoint
	cfg.Events.Bucket = "events-" + suffix
	cfg.Tables = config.TablesConfig{
		Users:         "users_projection_" + suffix,
		Resources:     "resources_projection_" + suffix,
		Reservations:  "reservations_projection_" + suffix,
		Idempotency:   "idempotency_" + suffix,
		ProjectionLag: "projection_lag_" + suffix,
	}

	awsCfg, err := bootstrap.NewAWSConfig(cfg)
	require.NoError(t, err, "failed to load aws config")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	s3Client := bootstrap.NewS3Client(cfg, awsCfg)
	_, err = s3Client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(cfg.Events.Bucket)})
	require.NoError(t, err, "failed to create event bucket")

	sqsClient := bootstrap.NewSQSClient(cfg, awsCfg)
	queue, err := sqsClient.CreateQueue(ctx, &sqs.CreateQueueInput{QueueName: aws.String("events-" + suffix)})
	require.NoError(t, err, "failed to create event queue")
	cfg.Events.QueueURL = aws.ToString(queue.QueueUrl)

	dynamoClient := bootstrap.NewDynamoClient(cfg, awsCfg)
	createProjectionTables(t, ctx, dynamoClient, cfg.Tables)

	return cfg
}

func createProjectionTables(t *testing.T, ctx context.Context, client *dynamodb.Client, tables config.TablesConfig) {
	t.Helper()

	keys := map[string]string{
		tables.Users:         "userId",
		tables.Resources:     "resourceId",
		tables.Reservations:  "reservationId",
		tables.Idempotency:   "idempotencyKey",
		tables.ProjectionLag: "projection",
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	for table, key := range keys {
		_, err := client.CreateTable(ctx, &dynamodb.CreateTableInput{
			TableName:   aws.String(table),
			BillingMode: dynamotypes.BillingModePayPerRequest,
			AttributeDefinitions: []dynamotypes.AttributeDefinition{
				{AttributeName: aws.String(key), AttributeType: dynamotypes.ScalarAttributeTypeS},
			},
			KeySchema: []dynamotypes.KeySchemaElement{
				{AttributeName: aws.String(key), KeyType: dynamotypes.KeyTypeHash},
			},
		})
		require.NoError(t, err, "failed to create table "+table)

		err = waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)}, 30*time.Second)
		require.NoError(t, err, "table never became active: "+table)
	}
}

// ------------------------------------------------------------
// Application build
// Returns router, worker, and fx.App for proper lifecycle management
// ------------------------------------------------------------
func buildE2EApp(cfg config.Config) (*gin.Engine, *worker.Worker, *fx.App) {
	var router *gin.Engine
	var projectionWorker *worker.Worker

	testConfigModule := fx.Module("testconfig",
		fx.Provide(func() config.Config { return cfg }),
	)

	app := fx.New(
		testConfigModule,
		bootstrap.AWSModule,
		bootstrap.JWTModule,
		components.StoreModule,
		components.UseCaseModule,
		components.HandlerModule,
		components.WorkerModule,

		fx.Provide(
			func(cfg config.Config) *slog.Logger {
				return middleware.NewLogger(cfg.Log).GetSlogLogger()
			},
			func() *gin.Engine { return gin.New() },
		),

		fx.Populate(&router, &projectionWorker),

		fx.NopLogger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		panic(fmt.Sprintf("failed to start fx app: %v", err))
	}

	return router, projectionWorker, app
}

// startProjectionWorker pumps the suite's queue for as long as the suite
// lives, so command replies and read models converge like production.
func startProjectionWorker(t *testing.T, projectionWorker *worker.Worker) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		if err := projectionWorker.Run(ctx); err != nil {
			slog.Warn("projection worker exited", "error", err.Error())
		}
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			slog.Warn("projection worker did not stop in time")
		}
	})
}

// ------------------------------------------------------------
// Container helpers
// ------------------------------------------------------------
func startGenericContainer(req testcontainers.ContainerRequest, timeoutSec int) (testcontainers.Container, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()

	return testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
}

// startLocalStackContainerOnce starts one localstack per test process. Suites
// in the same process share it; isolation comes from per-suite names.
func startLocalStackContainerOnce(t *testing.T) {
	localstackOnce.Do(func() {
		req := testcontainers.ContainerRequest{
			Image:        "localstack/localstack:3.8",
			ExposedPorts: []string{"4566/tcp"},
			Env: map[string]string{
				"SERVICES":              "s3,sqs,dynamodb",
				"EAGER_SERVICE_LOADING": "1",
			},
			WaitingFor: wait.ForHTTP("/_localstack/health").
				WithPort("4566/tcp").
				WithStartupTimeout(90 * time.Second),
			Labels: map[string]string{"purpose": "e2e-tests"},
		}

		var err error
		localstackContainer, err = startGenericContainer(req, 180)
		require.NoError(t, err, "failed to start localstack container")

		t.Cleanup(func() {
			if localstackContainer != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := localstackContainer.Terminate(ctx); err != nil {
					slog.Warn("failed to terminate localstack container", "error", err.Error())
				}
			}
		})
	})
}

func getContainerHostPort(c testcontainers.Container, port string) (ContainerInfo, error) {
	ctx := context.Background()
	mappedPort, err := c.MappedPort(ctx, nat.Port(port))
	if err != nil {
		return ContainerInfo{}, err
	}
	host, err := c.Host(ctx)
	if err != nil {
		return ContainerInfo{}, err
	}
	return ContainerInfo{Host: host, Port: mappedPort}, nil
}

// ------------------------------------------------------------
// Shared suite base
// ------------------------------------------------------------
// SharedSuite owns one app against its own bucket, queue and tables. Tests
// isolate by working on their own aggregates, so no reset between tests.
type SharedSuite struct {
	suite.Suite
	Router *gin.Engine
	Config config.Config
}

func (s *SharedSuite) SetupSharedSuite(t *testing.T) {
	router, cfg := setupE2EEnvironment(t)
	s.Router = router
	s.Config = cfg
	require.NotNil(t, s.Router, "router setup failed")
	require.NotEmpty(t, s.Config.Events.Bucket, "config setup failed")
}

func (s *SharedSuite) SetupSuite() {
	s.SetupSharedSuite(s.T())
}

// WaitForProjection polls until the probe holds. Projections trail commands
// over the queue, so every read-side assertion goes through here.
func (s *SharedSuite) WaitForProjection(probe func() bool) {
	s.T().Helper()
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		if probe() {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	s.T().Fatal("projection did not converge before the deadline")
}
