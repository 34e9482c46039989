package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gabpmcp/bolivar-test/internal/handler/api"
	"github.com/gabpmcp/bolivar-test/internal/handler/middleware"
	"github.com/gabpmcp/bolivar-test/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

type Handlers struct {
	Auth        *api.AuthHandler
	Resource    *api.ResourceHandler
	Reservation *api.ReservationHandler
	Projection  *api.ProjectionHandler
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	handlers Handlers,
	authMiddleware *middleware.AuthMiddleware,
	idempotencyMiddleware *middleware.IdempotencyMiddleware,
) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, handlers, authMiddleware, idempotencyMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(nil, cfg.Log))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(
	engine *gin.Engine,
	handlers Handlers,
	authMiddleware *middleware.AuthMiddleware,
	idempotencyMiddleware *middleware.IdempotencyMiddleware,
) {
	engine.GET("/health", healthCheck)

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Idempotency wraps every mutating route. On authenticated groups it runs
	// after RequireAuth so the actor is part of the request fingerprint.
	idem := idempotencyMiddleware.Require()

	apiGroup := engine.Group("/api")
	{
		auth := apiGroup.Group("/auth")
		{
			addRoutes(auth, []route{
				{Method: http.MethodPost, Path: "/bootstrap", Handler: handlers.Auth.Bootstrap, Mw: []gin.HandlerFunc{idem}},
				{Method: http.MethodPost, Path: "/register", Handler: handlers.Auth.Register, Mw: []gin.HandlerFunc{idem}},
				{Method: http.MethodPost, Path: "/login", Handler: handlers.Auth.Login, Mw: []gin.HandlerFunc{idem}},
			})

			authRequired := auth.Group("")
			authRequired.Use(authMiddleware.RequireAuth())
			addRoutes(authRequired, []route{
				{Method: http.MethodGet, Path: "/me", Handler: handlers.Auth.Me},
			})
		}

		resources := apiGroup.Group("/resources")
		resources.Use(authMiddleware.RequireAuth())
		{
			addRoutes(resources, []route{
				{Method: http.MethodPost, Path: "", Handler: handlers.Resource.Create, Mw: []gin.HandlerFunc{idem}},
				{Method: http.MethodGet, Path: "", Handler: handlers.Resource.List},
				{Method: http.MethodGet, Path: "/:id", Handler: handlers.Resource.Get},
				{Method: http.MethodPatch, Path: "/:id", Handler: handlers.Resource.UpdateMetadata, Mw: []gin.HandlerFunc{idem}},
				{Method: http.MethodPost, Path: "/:id/reservations", Handler: handlers.Reservation.Create, Mw: []gin.HandlerFunc{idem}},
				{Method: http.MethodPost, Path: "/:id/reservations/:reservationId/cancel", Handler: handlers.Reservation.Cancel, Mw: []gin.HandlerFunc{idem}},
			})
		}

		reservations := apiGroup.Group("/reservations")
		reservations.Use(authMiddleware.RequireAuth())
		{
			addRoutes(reservations, []route{
				{Method: http.MethodGet, Path: "", Handler: handlers.Reservation.List},
			})
		}

		projection := apiGroup.Group("/projection")
		projection.Use(authMiddleware.RequireAuth())
		{
			addRoutes(projection, []route{
				{Method: http.MethodGet, Path: "/lag", Handler: handlers.Projection.Lag},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		// Route middlewares join gin's own chain so c.Next() lets them run
		// after the handler, which response recording depends on.
		hs := make([]gin.HandlerFunc, 0, len(r.Mw)+1)
		hs = append(hs, r.Mw...)
		hs = append(hs, r.Handler)
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, hs...)
		case http.MethodPost:
			g.POST(r.Path, hs...)
		case http.MethodPut:
			g.PUT(r.Path, hs...)
		case http.MethodPatch:
			g.PATCH(r.Path, hs...)
		case http.MethodDelete:
			g.DELETE(r.Path, hs...)
		default:
			g.Any(r.Path, hs...)
		}
	}
}
