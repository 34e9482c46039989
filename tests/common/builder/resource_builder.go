//go:build unit || e2e

package builder

import (
	"time"

	"github.com/gabpmcp/bolivar-test/internal/domain/event"
	"github.com/gabpmcp/bolivar-test/internal/domain/resource"
	"github.com/gabpmcp/bolivar-test/internal/usecase/queries"

	"github.com/google/uuid"
)

type ResourceBuilder struct {
	ResourceID   uuid.UUID
	Name         string
	Details      string
	Reservations []resource.Reservation
}

func NewResourceBuilder() *ResourceBuilder {
	return &ResourceBuilder{
		ResourceID: uuid.New(),
		Name:       "SalaA",
		Details:    "Piso 1",
	}
}

func (b *ResourceBuilder) With(mutate func(*ResourceBuilder)) *ResourceBuilder {
	mutate(b)
	return b
}

func (b *ResourceBuilder) WithResourceID(id uuid.UUID) *ResourceBuilder {
	b.ResourceID = id
	return b
}

func (b *ResourceBuilder) WithName(name string) *ResourceBuilder {
	b.Name = name
	return b
}

func (b *ResourceBuilder) WithDetails(details string) *ResourceBuilder {
	b.Details = details
	return b
}

// WithActiveReservation adds a held slot [from, to) owned by userID.
func (b *ResourceBuilder) WithActiveReservation(id, userID uuid.UUID, from, to time.Time) *ResourceBuilder {
	b.Reservations = append(b.Reservations, resource.Reservation{
		ReservationID: id,
		UserID:        userID,
		FromUTC:       from,
		ToUTC:         to,
		Status:        resource.ReservationStatusActive,
		CreatedAtUTC:  BaseTime,
	})
	return b
}

func (b *ResourceBuilder) WithCancelledReservation(id, userID uuid.UUID, from, to time.Time) *ResourceBuilder {
	at := BaseTime
	b.Reservations = append(b.Reservations, resource.Reservation{
		ReservationID:  id,
		UserID:         userID,
		FromUTC:        from,
		ToUTC:          to,
		Status:         resource.ReservationStatusCancelled,
		CreatedAtUTC:   BaseTime,
		CancelledAtUTC: &at,
	})
	return b
}

func (b *ResourceBuilder) BuildState() *resource.State {
	return &resource.State{
		ResourceID:   b.ResourceID,
		Name:         b.Name,
		Details:      b.Details,
		Status:       resource.StatusActive,
		Reservations: b.Reservations,
	}
}

func (b *ResourceBuilder) BuildReadModel() *queries.ResourceView {
	return &queries.ResourceView{
		ResourceID:   b.ResourceID,
		Name:         b.Name,
		Details:      b.Details,
		Status:       resource.StatusActive.String(),
		CreatedAtUTC: BaseTime,
		UpdatedAtUTC: BaseTime,
	}
}

func (b *ResourceBuilder) BuildCreatedEvent() event.Event {
	return NewEventBuilder().
		WithStream(event.StreamTypeResource, b.ResourceID).
		WithType(resource.EventTypeCreated).
		WithPayload(resource.CreatedPayload{
			ResourceID: b.ResourceID,
			Name:       b.Name,
			Details:    b.Details,
			Status:     resource.StatusActive,
		}).
		Build()
}
