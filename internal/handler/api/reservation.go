package api

import (
	"net/http"

	reqdto "github.com/gabpmcp/bolivar-test/internal/handler/dto/request"
	resdto "github.com/gabpmcp/bolivar-test/internal/handler/dto/response"
	"github.com/gabpmcp/bolivar-test/internal/handler/middleware"
	"github.com/gabpmcp/bolivar-test/internal/pkg/errs"
	"github.com/gabpmcp/bolivar-test/internal/usecase/commands"
	"github.com/gabpmcp/bolivar-test/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReservationHandler struct {
	reservations commands.ReservationCommands
	queries      queries.ReservationQueries
	lag          queries.LagQueries
}

func NewReservationHandler(reservations commands.ReservationCommands, reservationQueries queries.ReservationQueries, lag queries.LagQueries) *ReservationHandler {
	return &ReservationHandler{
		reservations: reservations,
		queries:      reservationQueries,
		lag:          lag,
	}
}

// @Summary Create reservation
// @Description Book a half-open interval on a resource
// @Tags reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string true "Idempotency key"
// @Param id path string true "Resource ID"
// @Param request body reqdto.CreateReservationRequest true "CreateReservationInResource command"
// @Success 201 {object} resdto.ReservationResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /resources/{id}/reservations [post]
func (h *ReservationHandler) Create(c *gin.Context) {
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

	var req reqdto.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	result, err := h.reservations.Create(c.Request.Context(), actor, req.ToInput(resourceID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.FromReservationResult(result))
}

// @Summary Cancel reservation
// @Description Cancel a reservation; owners cancel their own, admins any
// @Tags reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string true "Idempotency key"
// @Param id path string true "Resource ID"
// @Param reservationId path string true "Reservation ID"
// @Param request body reqdto.CancelReservationRequest true "CancelReservationInResource command"
// @Success 200 {object} resdto.ReservationResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /resources/{id}/reservations/{reservationId}/cancel [post]
func (h *ReservationHandler) Cancel(c *gin.Context) {
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
	reservationID, err := uuid.Parse(c.Param("reservationId"))
	if err != nil {
		respondInvalidRequest(c, err)
		return
	}

	var req reqdto.CancelReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	result, err := h.reservations.Cancel(c.Request.Context(), actor, req.ToInput(resourceID, reservationID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromReservationResult(result))
}

// @Summary List reservations
// @Description Page through the reservations projection, optionally filtered
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param userId query string false "Filter by owner"
// @Param status query string false "Filter by status (active|cancelled)"
// @Param limit query int false "Page size"
// @Param cursor query string false "Continuation cursor"
// @Success 200 {object} resdto.ReservationListResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Router /reservations [get]
func (h *ReservationHandler) List(c *gin.Context) {
	limit, cursor, err := listParams(c)
	if err != nil {
		respondInvalidRequest(c, err)
		return
	}

	filter, err := reservationFilter(c)
	if err != nil {
		respondInvalidRequest(c, err)
		return
	}

	views, next, err := h.queries.List(c.Request.Context(), filter, cursor, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromReservationList(views, next, fetchLag(c, h.lag)))
}

func reservationFilter(c *gin.Context) (queries.ReservationFilter, error) {
	var filter queries.ReservationFilter

	if raw := c.Query("userId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, errs.Wrap(err, "parse userId filter")
		}
		filter.UserID = &id
	}
	if raw := c.Query("status"); raw != "" {
		if raw != "active" && raw != "cancelled" {
			return filter, errs.Newf("unknown status filter %q", raw)
		}
		filter.Status = &raw
	}
	return filter, nil
}
