package api

import (
	"log/slog"
	"net/http"

	resdto "github.com/gabpmcp/bolivar-test/internal/handler/dto/response"
	"github.com/gabpmcp/bolivar-test/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type ProjectionHandler struct {
	lag queries.LagQueries
}

func NewProjectionHandler(lag queries.LagQueries) *ProjectionHandler {
	return &ProjectionHandler{lag: lag}
}

// @Summary Projection lag
// @Description How far the read side trails the event streams
// @Tags projection
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.ProjectionLagResponse
// @Failure 401 {object} httperr.Response
// @Router /projection/lag [get]
func (h *ProjectionHandler) Lag(c *gin.Context) {
	view, err := h.lag.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromLagView(view))
}

// fetchLag embeds staleness metadata into read replies. Lag is advisory, so
// a failing lag row degrades to "unknown" instead of failing the read.
func fetchLag(c *gin.Context, lag queries.LagQueries) *queries.ProjectionLagView {
	view, err := lag.Get(c.Request.Context())
	if err != nil {
		slog.Warn("Failed to fetch projection lag", "error", err.Error())
		return nil
	}
	return view
}
