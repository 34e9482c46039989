package queries

import (
	"context"
	"time"

	"github.com/gabpmcp/bolivar-test/internal/pkg/errs"

	"github.com/google/uuid"
)

type ReservationView struct {
	ReservationID  uuid.UUID  `json:"reservationId"`
	ResourceID     uuid.UUID  `json:"resourceId"`
	UserID         uuid.UUID  `json:"userId"`
	FromUTC        time.Time  `json:"fromUtc"`
	ToUTC          time.Time  `json:"toUtc"`
	Status         string     `json:"status"`
	CreatedAtUTC   time.Time  `json:"createdAtUtc"`
	CancelledAtUTC *time.Time `json:"cancelledAtUtc,omitempty"`
}

// ReservationFilter narrows a list to one owner, one status, or both.
type ReservationFilter struct {
	UserID *uuid.UUID
	Status *string
}

type ReservationQueries interface {
	List(ctx context.Context, filter ReservationFilter, after *Cursor, limit int) ([]*ReservationView, *Cursor, error)
}

type ReservationReadStore interface {
	List(ctx context.Context, filter ReservationFilter, limit int, startKey map[string]string) ([]*ReservationView, map[string]string, error)
}

type reservationQueriesImpl struct {
	reservations ReservationReadStore
	defaultLimit int
}

func NewReservationQueries(reservations ReservationReadStore, defaultLimit int) ReservationQueries {
	return &reservationQueriesImpl{reservations: reservations, defaultLimit: defaultLimit}
}

func (q *reservationQueriesImpl) List(ctx context.Context, filter ReservationFilter, after *Cursor, limit int) ([]*ReservationView, *Cursor, error) {
	limit = ValidateLimit(limit, q.defaultLimit)

	var startKey map[string]string
	if after != nil {
		decoded, err := DecodeCursor(after.After)
		if err != nil {
			return nil, nil, err
		}
		startKey = decoded
	}

	views, lastKey, err := q.reservations.List(ctx, filter, limit, startKey)
	if err != nil {
		return nil, nil, errs.Wrap(err, "list reservations")
	}

	next, err := EncodeCursor(lastKey)
	if err != nil {
		return nil, nil, err
	}
	if next == "" {
		return views, nil, nil
	}
	return views, &Cursor{After: next}, nil
}
