package components

import (
	"github.com/gabpmcp/bolivar-test/internal/pkg/clock"
	"github.com/gabpmcp/bolivar-test/internal/pkg/config"
	"github.com/gabpmcp/bolivar-test/internal/pkg/password"
	"github.com/gabpmcp/bolivar-test/internal/usecase/commands"
	"github.com/gabpmcp/bolivar-test/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseCommandsModule,
	usecaseQueriesModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	NewPasswordHasher,
	NewRunnerConfig,
	commands.NewGate,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewAuthCommands,
		commands.NewResourceCommands,
		commands.NewReservationCommands,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewUserQueries,
		NewResourceQueries,
		NewReservationQueries,
		queries.NewLagQueries,
	),
)

func NewPasswordHasher(cfg config.Config) (password.Hasher, error) {
	return password.NewHasher(cfg.Auth.PasswordHasher)
}

func NewRunnerConfig(cfg config.Config) config.RunnerConfig {
	return cfg.Runner
}

func NewResourceQueries(resources queries.ResourceReadStore, cfg config.Config) queries.ResourceQueries {
	return queries.NewResourceQueries(resources, cfg.Query.PageLimitDefault)
}

func NewReservationQueries(reservations queries.ReservationReadStore, cfg config.Config) queries.ReservationQueries {
	return queries.NewReservationQueries(reservations, cfg.Query.PageLimitDefault)
}
