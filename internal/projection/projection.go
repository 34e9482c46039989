// Package projection derives read-model writes from recorded events. The
// mapping is pure so the worker can replay any slice of the log and converge
// on the same tables.
package projection

import (
	"time"

	"github.com/gabpmcp/bolivar-test/internal/domain/event"
	"github.com/gabpmcp/bolivar-test/internal/domain/resource"
	"github.com/gabpmcp/bolivar-test/internal/domain/user"

	"github.com/google/uuid"
)

// Op is one idempotent write against a projection table. Applying the same op
// twice converges on the same row, which is what makes at-least-once delivery
// safe.
type Op interface {
	isOp()
}

type PutUser struct {
	UserID       uuid.UUID
	Email        string
	Role         string
	CreatedAtUTC time.Time
}

type SetUserLastLogin struct {
	UserID         uuid.UUID
	LastLoginAtUTC time.Time
}

type PutResource struct {
	ResourceID   uuid.UUID
	Name         string
	Details      string
	Status       string
	CreatedAtUTC time.Time
	UpdatedAtUTC time.Time
}

type UpdateResourceDetails struct {
	ResourceID   uuid.UUID
	Name         string
	Details      string
	UpdatedAtUTC time.Time
}

type PutReservation struct {
	ReservationID uuid.UUID
	ResourceID    uuid.UUID
	UserID        uuid.UUID
	FromUTC       time.Time
	ToUTC         time.Time
	Status        string
	CreatedAtUTC  time.Time
}

type CancelReservation struct {
	ReservationID  uuid.UUID
	CancelledAtUTC time.Time
}

func (PutUser) isOp()               {}
func (SetUserLastLogin) isOp()      {}
func (PutResource) isOp()           {}
func (UpdateResourceDetails) isOp() {}
func (PutReservation) isOp()        {}
func (CancelReservation) isOp()     {}

// Project maps one event to its table writes. Unknown event types project to
// nothing, so telemetry and future events flow through the worker untouched.
func Project(e event.Event) ([]Op, error) {
	switch e.Type {
	case user.EventTypeAdminBootstrapped:
		p, err := event.DecodePayload[user.AdminBootstrappedPayload](e)
		if err != nil {
			return nil, err
		}
		return []Op{PutUser{
			UserID:       p.UserID,
			Email:        p.Email,
			Role:         user.RoleAdmin.String(),
			CreatedAtUTC: e.OccurredAtUTC,
		}}, nil

	case user.EventTypeUserRegistered:
		p, err := event.DecodePayload[user.UserRegisteredPayload](e)
		if err != nil {
			return nil, err
		}
		return []Op{PutUser{
			UserID:       p.UserID,
			Email:        p.Email,
			Role:         p.Role.String(),
			CreatedAtUTC: e.OccurredAtUTC,
		}}, nil

	case user.EventTypeUserLoggedIn:
		p, err := event.DecodePayload[user.UserLoggedInPayload](e)
		if err != nil {
			return nil, err
		}
		return []Op{SetUserLastLogin{
			UserID:         p.UserID,
			LastLoginAtUTC: e.OccurredAtUTC,
		}}, nil

	case resource.EventTypeCreated:
		p, err := event.DecodePayload[resource.CreatedPayload](e)
		if err != nil {
			return nil, err
		}
		return []Op{PutResource{
			ResourceID:   p.ResourceID,
			Name:         p.Name,
			Details:      p.Details,
			Status:       p.Status.String(),
			CreatedAtUTC: e.OccurredAtUTC,
			UpdatedAtUTC: e.OccurredAtUTC,
		}}, nil

	case resource.EventTypeMetadataUpdated:
		p, err := event.DecodePayload[resource.MetadataUpdatedPayload](e)
		if err != nil {
			return nil, err
		}
		return []Op{UpdateResourceDetails{
			ResourceID:   p.ResourceID,
			Name:         p.Name,
			Details:      p.Details,
			UpdatedAtUTC: e.OccurredAtUTC,
		}}, nil

	case resource.EventTypeReservationAdded:
		p, err := event.DecodePayload[resource.ReservationAddedPayload](e)
		if err != nil {
			return nil, err
		}
		return []Op{PutReservation{
			ReservationID: p.ReservationID,
			ResourceID:    p.ResourceID,
			UserID:        p.UserID,
			FromUTC:       p.FromUTC,
			ToUTC:         p.ToUTC,
			Status:        p.Status.String(),
			CreatedAtUTC:  p.CreatedAtUTC,
		}}, nil

	case resource.EventTypeReservationCancelled:
		p, err := event.DecodePayload[resource.ReservationCancelledPayload](e)
		if err != nil {
			return nil, err
		}
		return []Op{CancelReservation{
			ReservationID:  p.ReservationID,
			CancelledAtUTC: p.CancelledAtUTC,
		}}, nil

	default:
		return nil, nil
	}
}
