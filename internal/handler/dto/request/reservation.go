package request

import (
	"time"

	"github.com/gabpmcp/bolivar-test/internal/usecase/commands"

	"github.com/google/uuid"
)

type CreateReservationPayload struct {
	FromUTC time.Time `json:"fromUtc" binding:"required"`
	ToUTC   time.Time `json:"toUtc" binding:"required"`
}

type CreateReservationCommand struct {
	Type    string                   `json:"type" binding:"required,eq=CreateReservationInResource"`
	Payload CreateReservationPayload `json:"payload" binding:"required"`
}

type CreateReservationRequest struct {
	Command CreateReservationCommand `json:"command" binding:"required"`
}

func (r *CreateReservationRequest) ToInput(resourceID uuid.UUID) commands.CreateReservationInput {
	return commands.CreateReservationInput{
		ResourceID: resourceID,
		FromUTC:    r.Command.Payload.FromUTC.UTC(),
		ToUTC:      r.Command.Payload.ToUTC.UTC(),
	}
}

// CancelReservationCommand carries no payload; both ids travel in the path.
type CancelReservationCommand struct {
	Type string `json:"type" binding:"required,eq=CancelReservationInResource"`
}

type CancelReservationRequest struct {
	Command CancelReservationCommand `json:"command" binding:"required"`
}

func (r *CancelReservationRequest) ToInput(resourceID, reservationID uuid.UUID) commands.CancelReservationInput {
	return commands.CancelReservationInput{
		ResourceID:    resourceID,
		ReservationID: reservationID,
	}
}
