package api

import (
	"errors"
	"net/http"

	"github.com/gabpmcp/bolivar-test/internal/domain/resource"
	"github.com/gabpmcp/bolivar-test/internal/domain/user"
	"github.com/gabpmcp/bolivar-test/internal/handler/httperr"
	"github.com/gabpmcp/bolivar-test/internal/infra/eventstore"
	"github.com/gabpmcp/bolivar-test/internal/usecase/commands"
	"github.com/gabpmcp/bolivar-test/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

// respondError translates command and query failures into the error
// envelope. Anything unrecognized collapses to INTERNAL_ERROR so internals
// never leak to clients.
func respondError(c *gin.Context, err error) {
	httperr.AbortWithError(c, err, errorResponse(err))
}

func errorResponse(err error) httperr.Response {
	switch {
	case errors.Is(err, user.ErrInvalidCredentials):
		return httperr.New(http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password", nil)
	case errors.Is(err, user.ErrAlreadyExists):
		return httperr.New(http.StatusConflict, "USER_ALREADY_EXISTS", "a user with this email already exists", nil)
	case errors.Is(err, resource.ErrForbidden):
		return httperr.New(http.StatusForbidden, "FORBIDDEN", "admin role required", nil)
	case errors.Is(err, resource.ErrAlreadyExists):
		return httperr.New(http.StatusConflict, "RESOURCE_ALREADY_EXISTS", "resource already exists", nil)
	case errors.Is(err, commands.ErrResourceNameTaken):
		return httperr.New(http.StatusConflict, "RESOURCE_NAME_TAKEN", "a resource with this name already exists", nil)
	case errors.Is(err, resource.ErrInvalidInterval):
		return httperr.New(http.StatusBadRequest, "INVALID_INTERVAL", "reservation interval is empty or inverted", nil)
	case errors.Is(err, resource.ErrReservationInPast):
		return httperr.New(http.StatusBadRequest, "RESERVATION_IN_PAST", "reservation must start in the future", nil)
	case errors.Is(err, resource.ErrReservationOverlap):
		return httperr.New(http.StatusConflict, "RESERVATION_OVERLAP", "reservation overlaps an active reservation", nil)
	case errors.Is(err, resource.ErrReservationNotFound):
		return httperr.New(http.StatusNotFound, "RESERVATION_NOT_FOUND", "reservation not found", nil)
	case errors.Is(err, resource.ErrReservationAlreadyCancelled):
		return httperr.New(http.StatusConflict, "RESERVATION_ALREADY_CANCELLED", "reservation is already cancelled", nil)
	case errors.Is(err, resource.ErrUnauthorizedCancel):
		return httperr.New(http.StatusForbidden, "UNAUTHORIZED_CANCEL", "only the owner or an admin may cancel", nil)
	case errors.Is(err, resource.ErrNotFound), errors.Is(err, queries.ErrResourceNotFound):
		return httperr.New(http.StatusNotFound, "RESOURCE_NOT_FOUND", "resource not found", nil)
	case errors.Is(err, queries.ErrUserNotFound):
		return httperr.New(http.StatusNotFound, "USER_NOT_FOUND", "user not found", nil)
	case errors.Is(err, queries.ErrInvalidCursor):
		return httperr.New(http.StatusBadRequest, "INVALID_REQUEST", "invalid cursor", nil)
	case errors.Is(err, commands.ErrVersionConflict):
		return httperr.New(http.StatusConflict, "VERSION_CONFLICT", "stream changed concurrently, retry the request", nil)
	case errors.Is(err, commands.ErrStreamGap):
		var gap *eventstore.GapError
		var meta map[string]any
		if errors.As(err, &gap) {
			meta = map[string]any{
				"streamType": gap.StreamType,
				"streamId":   gap.StreamID,
				"expected":   gap.Expected,
				"actual":     gap.Actual,
			}
		}
		return httperr.New(http.StatusInternalServerError, "STREAM_GAP_DETECTED", "event stream is missing a version", meta)
	default:
		return httperr.New(http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
	}
}

func respondInvalidRequest(c *gin.Context, err error) {
	httperr.AbortWithError(c, err,
		httperr.New(http.StatusBadRequest, "INVALID_REQUEST", "invalid request format", nil))
}
