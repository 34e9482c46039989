package api

import (
	"net/http"
	"strconv"

	reqdto "github.com/gabpmcp/bolivar-test/internal/handler/dto/request"
	resdto "github.com/gabpmcp/bolivar-test/internal/handler/dto/response"
	"github.com/gabpmcp/bolivar-test/internal/handler/middleware"
	"github.com/gabpmcp/bolivar-test/internal/pkg/errs"
	"github.com/gabpmcp/bolivar-test/internal/usecase/commands"
	"github.com/gabpmcp/bolivar-test/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ResourceHandler struct {
	resources commands.ResourceCommands
	queries   queries.ResourceQueries
	lag       queries.LagQueries
}

func NewResourceHandler(resources commands.ResourceCommands, resourceQueries queries.ResourceQueries, lag queries.LagQueries) *ResourceHandler {
	return &ResourceHandler{
		resources: resources,
		queries:   resourceQueries,
		lag:       lag,
	}
}

// @Summary Create resource
// @Description Create a reservable resource (admin only)
// @Tags resources
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string true "Idempotency key"
// @Param request body reqdto.CreateResourceRequest true "CreateResource command"
// @Success 201 {object} resdto.ResourceResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /resources [post]
func (h *ResourceHandler) Create(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		respondError(c, errs.New("actor missing from context"))
		return
	}

	var req reqdto.CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	result, err := h.resources.Create(c.Request.Context(), actor, req.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.FromResourceResult(result))
}

// @Summary Update resource metadata
// @Description Patch name and/or details of a resource (admin only)
// @Tags resources
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string true "Idempotency key"
// @Param id path string true "Resource ID"
// @Param request body reqdto.UpdateResourceMetadataRequest true "UpdateResourceMetadata command"
// @Success 200 {object} resdto.ResourceResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /resources/{id} [patch]
func (h *ResourceHandler) UpdateMetadata(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		respondError(c, errs.New("actor missing from context"))
		return
	}

	resourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondInvalidRequest(c, err)
		return
	}

	var req reqdto.UpdateResourceMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	result, err := h.resources.UpdateMetadata(c.Request.Context(), actor, req.ToInput(resourceID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromResourceResult(result))
}

// @Summary Get resource
// @Description Resource detail from the projection, with projection lag
// @Tags resources
// @Produce json
// @Security BearerAuth
// @Param id path string true "Resource ID"
// @Success 200 {object} resdto.ResourceDetailResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /resources/{id} [get]
func (h *ResourceHandler) Get(c *gin.Context) {
	resourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondInvalidRequest(c, err)
		return
	}

	view, err := h.queries.GetByID(c.Request.Context(), resourceID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromResourceDetail(view, fetchLag(c, h.lag)))
}

// @Summary List resources
// @Description Page through the resources projection, with projection lag
// @Tags resources
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param cursor query string false "Continuation cursor"
// @Success 200 {object} resdto.ResourceListResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Router /resources [get]
func (h *ResourceHandler) List(c *gin.Context) {
	limit, cursor, err := listParams(c)
	if err != nil {
		respondInvalidRequest(c, err)
		return
	}

	views, next, err := h.queries.List(c.Request.Context(), cursor, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromResourceList(views, next, fetchLag(c, h.lag)))
}

func listParams(c *gin.Context) (int, *queries.Cursor, error) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return 0, nil, errs.Wrap(err, "parse limit")
		}
		limit = parsed
	}

	var cursor *queries.Cursor
	if raw := c.Query("cursor"); raw != "" {
		cursor = &queries.Cursor{After: raw}
	}
	return limit, cursor, nil
}
