package bootstrap

import (
	"github.com/gabpmcp/bolivar-test/cmd/bootstrap/components"
	"github.com/gabpmcp/bolivar-test/internal/pkg/config"

	"go.uber.org/fx"
)

// ConfigModule resolves the environment once; every other module depends on
// the result. Missing required settings fail the app before any provider
// touches AWS.
var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
	),
)

// Module wires the API server: command and query sides plus the HTTP surface.
var Module = fx.Options(
	ConfigModule,
	AWSModule,
	JWTModule,
	components.StoreModule,
	components.UseCaseModule,
	components.HandlerModule,
)

// WorkerModule wires the projection worker. It shares the store providers so
// both processes resolve clients and table names the same way.
var WorkerModule = fx.Options(
	ConfigModule,
	AWSModule,
	components.StoreModule,
	components.WorkerModule,
)
