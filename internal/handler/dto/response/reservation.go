package response

import (
	"time"

	"github.com/gabpmcp/bolivar-test/internal/usecase/commands"
	"github.com/gabpmcp/bolivar-test/internal/usecase/queries"

	"github.com/google/uuid"
)

// ReservationResponse is the command-side reply for create and cancel.
type ReservationResponse struct {
	ReservationID  uuid.UUID  `json:"reservationId"`
	ResourceID     uuid.UUID  `json:"resourceId"`
	UserID         uuid.UUID  `json:"userId"`
	FromUTC        time.Time  `json:"fromUtc"`
	ToUTC          time.Time  `json:"toUtc"`
	Status         string     `json:"status"`
	CreatedAtUTC   time.Time  `json:"createdAtUtc"`
	CancelledAtUTC *time.Time `json:"cancelledAtUtc,omitempty"`
	Version        int64      `json:"version"`
}

func FromReservationResult(r *commands.ReservationResult) *ReservationResponse {
	return &ReservationResponse{
		ReservationID:  r.ReservationID,
		ResourceID:     r.ResourceID,
		UserID:         r.UserID,
		FromUTC:        r.FromUTC,
		ToUTC:          r.ToUTC,
		Status:         r.Status,
		CreatedAtUTC:   r.CreatedAtUTC,
		CancelledAtUTC: r.CancelledAtUTC,
		Version:        r.Version,
	}
}

type ReservationViewResponse struct {
	ReservationID  uuid.UUID  `json:"reservationId"`
	ResourceID     uuid.UUID  `json:"resourceId"`
	UserID         uuid.UUID  `json:"userId"`
	FromUTC        time.Time  `json:"fromUtc"`
	ToUTC          time.Time  `json:"toUtc"`
	Status         string     `json:"status"`
	CreatedAtUTC   time.Time  `json:"createdAtUtc"`
	CancelledAtUTC *time.Time `json:"cancelledAtUtc,omitempty"`
}

func FromReservationView(v *queries.ReservationView) *ReservationViewResponse {
	return &ReservationViewResponse{
		ReservationID:  v.ReservationID,
		ResourceID:     v.ResourceID,
		UserID:         v.UserID,
		FromUTC:        v.FromUTC,
		ToUTC:          v.ToUTC,
		Status:         v.Status,
		CreatedAtUTC:   v.CreatedAtUTC,
		CancelledAtUTC: v.CancelledAtUTC,
	}
}

type ReservationListResponse struct {
	Items         []*ReservationViewResponse `json:"items"`
	NextCursor    *string                    `json:"nextCursor,omitempty"`
	ProjectionLag *ProjectionLagResponse     `json:"projectionLag"`
}

func FromReservationList(views []*queries.ReservationView, next *queries.Cursor, lag *queries.ProjectionLagView) *ReservationListResponse {
	items := make([]*ReservationViewResponse, 0, len(views))
	for _, v := range views {
		items = append(items, FromReservationView(v))
	}
	resp := &ReservationListResponse{
		Items:         items,
		ProjectionLag: EmbeddedLag(lag),
	}
	if next != nil {
		resp.NextCursor = &next.After
	}
	return resp
}
