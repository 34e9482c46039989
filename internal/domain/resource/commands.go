package resource

import (
	"time"

	"github.com/gabpmcp/bolivar-test/internal/domain/user"

	"github.com/google/uuid"
)

// Command is the closed set of operations a resource stream accepts. The
// names returned by CommandName match the wire envelope types.
type Command interface {
	CommandName() string
}

type CreateResource struct {
	ResourceID uuid.UUID
	Name       string
	Details    string
	ActorRole  user.Role
}

func (CreateResource) CommandName() string { return "CreateResource" }

// UpdateMetadata patches name and details. Nil fields keep their current
// value.
type UpdateMetadata struct {
	ResourceID uuid.UUID
	Name       *string
	Details    *string
	ActorRole  user.Role
}

func (UpdateMetadata) CommandName() string { return "UpdateResourceMetadata" }

type AddReservation struct {
	ReservationID uuid.UUID
	ResourceID    uuid.UUID
	UserID        uuid.UUID
	FromUTC       time.Time
	ToUTC         time.Time
}

func (AddReservation) CommandName() string { return "CreateReservationInResource" }

type CancelReservation struct {
	ReservationID uuid.UUID
	ResourceID    uuid.UUID
	ActorUserID   uuid.UUID
	ActorRole     user.Role
}

func (CancelReservation) CommandName() string { return "CancelReservationInResource" }
