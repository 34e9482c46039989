package components

import (
	"github.com/gabpmcp/bolivar-test/internal/handler"
	"github.com/gabpmcp/bolivar-test/internal/handler/api"
	"github.com/gabpmcp/bolivar-test/internal/handler/middleware"
	"github.com/gabpmcp/bolivar-test/internal/pkg/config"
	"github.com/gabpmcp/bolivar-test/internal/usecase/commands"
	"github.com/gabpmcp/bolivar-test/internal/usecase/queries"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		NewAuthHandler,
		api.NewResourceHandler,
		api.NewReservationHandler,
		api.NewProjectionHandler,
		middleware.NewAuthMiddleware,
		middleware.NewIdempotencyMiddleware,
		NewHandlers,
	),
	fx.Invoke(handler.NewRouter),
)

func NewAuthHandler(auth commands.AuthCommands, users queries.UserQueries, lag queries.LagQueries, cfg config.Config) *api.AuthHandler {
	return api.NewAuthHandler(auth, users, lag, cfg.Auth.AdminBootstrapKey)
}

func NewHandlers(
	auth *api.AuthHandler,
	resource *api.ResourceHandler,
	reservation *api.ReservationHandler,
	projection *api.ProjectionHandler,
) handler.Handlers {
	return handler.Handlers{
		Auth:        auth,
		Resource:    resource,
		Reservation: reservation,
		Projection:  projection,
	}
}
