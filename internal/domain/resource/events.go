package resource

import (
	"time"

	"github.com/google/uuid"
)

// Event types recorded on resource streams. ConcurrencyConflictUnresolved is
// telemetry appended by the command runner when optimistic retries run out;
// folds and projections ignore it.
const (
	EventTypeCreated                       = "ResourceCreated"
	EventTypeMetadataUpdated               = "ResourceMetadataUpdated"
	EventTypeReservationAdded              = "ReservationAddedToResource"
	EventTypeReservationCancelled          = "ResourceReservationCancelled"
	EventTypeConcurrencyConflictUnresolved = "ConcurrencyConflictUnresolved"
)

type CreatedPayload struct {
	ResourceID uuid.UUID `json:"resourceId"`
	Name       string    `json:"name"`
	Details    string    `json:"details"`
	Status     Status    `json:"status"`
}

// MetadataUpdatedPayload carries the resolved values, not the patch: the
// decider coalesces omitted fields from current state before emitting.
type MetadataUpdatedPayload struct {
	ResourceID uuid.UUID `json:"resourceId"`
	Name       string    `json:"name"`
	Details    string    `json:"details"`
}

type ReservationAddedPayload struct {
	ReservationID uuid.UUID         `json:"reservationId"`
	ResourceID    uuid.UUID         `json:"resourceId"`
	UserID        uuid.UUID         `json:"userId"`
	FromUTC       time.Time         `json:"fromUtc"`
	ToUTC         time.Time         `json:"toUtc"`
	Status        ReservationStatus `json:"status"`
	CreatedAtUTC  time.Time         `json:"createdAtUtc"`
}

type ReservationCancelledPayload struct {
	ReservationID  uuid.UUID `json:"reservationId"`
	ResourceID     uuid.UUID `json:"resourceId"`
	CancelledBy    uuid.UUID `json:"cancelledBy"`
	CancelledAtUTC time.Time `json:"cancelledAtUtc"`
}
