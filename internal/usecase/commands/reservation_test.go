//go:build unit

package commands

import (
	"context"
	"testing"
	"time"

	"github.com/gabpmcp/bolivar-test/internal/domain/event"
	"github.com/gabpmcp/bolivar-test/internal/domain/resource"
	"github.com/gabpmcp/bolivar-test/internal/domain/user"
	"github.com/gabpmcp/bolivar-test/internal/pkg/clock"
	"github.com/gabpmcp/bolivar-test/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reservationFixture struct {
	service    ReservationCommands
	store      *fakeEventStore
	clk        *clock.MockClock
	admin      Actor
	owner      Actor
	stranger   Actor
	resourceID uuid.UUID
}

func newReservationFixture(t *testing.T) *reservationFixture {
	t.Helper()
	store := newFakeEventStore()
	clk := clock.NewMockClock(builder.BaseTime)
	admin := Actor{UserID: uuid.New(), Role: user.RoleAdmin}

	resources := NewResourceCommands(store, &fakePublisher{}, newFakeResourceReadStore(), clk, runnerConfig(), discardLogger())
	created, err := resources.Create(context.Background(), admin, CreateResourceInput{Name: "SalaA", Details: "Piso 1"})
	require.NoError(t, err)

	service := NewReservationCommands(store, &fakePublisher{}, clk, runnerConfig(), discardLogger())
	return &reservationFixture{
		service:    service,
		store:      store,
		clk:        clk,
		admin:      admin,
		owner:      Actor{UserID: uuid.New(), Role: user.RoleUser},
		stranger:   Actor{UserID: uuid.New(), Role: user.RoleUser},
		resourceID: created.ResourceID,
	}
}

func (f *reservationFixture) slot(hoursFromNow int) (time.Time, time.Time) {
	from := f.clk.Now().Add(time.Duration(hoursFromNow) * time.Hour)
	return from, from.Add(time.Hour)
}

func TestCreateReservation(t *testing.T) {
	t.Run("books a free slot", func(t *testing.T) {
		f := newReservationFixture(t)
		from, to := f.slot(1)

		result, err := f.service.Create(context.Background(), f.owner, CreateReservationInput{
			ResourceID: f.resourceID, FromUTC: from, ToUTC: to,
		})

		require.NoError(t, err)
		assert.Equal(t, f.resourceID, result.ResourceID)
		assert.Equal(t, f.owner.UserID, result.UserID)
		assert.Equal(t, "active", result.Status)
		assert.Equal(t, int64(2), result.Version)
		assert.True(t, result.CreatedAtUTC.Equal(f.clk.Now()))
		assert.Nil(t, result.CancelledAtUTC)

		stream := f.store.streams[streamKey(event.StreamTypeResource, f.resourceID)]
		require.Len(t, stream, 2)
		assert.Equal(t, "CreateReservationInResource", stream[1].Meta.CommandName)
	})

	t.Run("overlapping slot is rejected", func(t *testing.T) {
		f := newReservationFixture(t)
		from, to := f.slot(1)
		_, err := f.service.Create(context.Background(), f.owner, CreateReservationInput{
			ResourceID: f.resourceID, FromUTC: from, ToUTC: to,
		})
		require.NoError(t, err)

		_, err = f.service.Create(context.Background(), f.stranger, CreateReservationInput{
			ResourceID: f.resourceID, FromUTC: from.Add(30 * time.Minute), ToUTC: to.Add(30 * time.Minute),
		})

		assert.ErrorIs(t, err, resource.ErrReservationOverlap)
	})

	t.Run("back-to-back slot sharing the boundary is accepted", func(t *testing.T) {
		f := newReservationFixture(t)
		from, to := f.slot(1)
		_, err := f.service.Create(context.Background(), f.owner, CreateReservationInput{
			ResourceID: f.resourceID, FromUTC: from, ToUTC: to,
		})
		require.NoError(t, err)

		result, err := f.service.Create(context.Background(), f.stranger, CreateReservationInput{
			ResourceID: f.resourceID, FromUTC: to, ToUTC: to.Add(time.Hour),
		})

		require.NoError(t, err)
		assert.Equal(t, int64(3), result.Version)
	})

	t.Run("unknown resource is not found", func(t *testing.T) {
		f := newReservationFixture(t)
		from, to := f.slot(1)

		_, err := f.service.Create(context.Background(), f.owner, CreateReservationInput{
			ResourceID: uuid.New(), FromUTC: from, ToUTC: to,
		})

		assert.ErrorIs(t, err, resource.ErrNotFound)
	})
}

func TestCancelReservation(t *testing.T) {
	book := func(t *testing.T, f *reservationFixture) *ReservationResult {
		t.Helper()
		from, to := f.slot(1)
		result, err := f.service.Create(context.Background(), f.owner, CreateReservationInput{
			ResourceID: f.resourceID, FromUTC: from, ToUTC: to,
		})
		require.NoError(t, err)
		return result
	}

	t.Run("owner cancels and frees the slot", func(t *testing.T) {
		f := newReservationFixture(t)
		booked := book(t, f)
		f.clk.Add(10 * time.Minute)

		result, err := f.service.Cancel(context.Background(), f.owner, CancelReservationInput{
			ResourceID: f.resourceID, ReservationID: booked.ReservationID,
		})

		require.NoError(t, err)
		assert.Equal(t, "cancelled", result.Status)
		require.NotNil(t, result.CancelledAtUTC)
		assert.True(t, result.CancelledAtUTC.Equal(f.clk.Now()))

		// The cancelled slot no longer blocks a new booking.
		_, err = f.service.Create(context.Background(), f.stranger, CreateReservationInput{
			ResourceID: f.resourceID, FromUTC: booked.FromUTC, ToUTC: booked.ToUTC,
		})
		assert.NoError(t, err)
	})

	t.Run("admin may cancel anyone's reservation", func(t *testing.T) {
		f := newReservationFixture(t)
		booked := book(t, f)

		result, err := f.service.Cancel(context.Background(), f.admin, CancelReservationInput{
			ResourceID: f.resourceID, ReservationID: booked.ReservationID,
		})

		require.NoError(t, err)
		assert.Equal(t, "cancelled", result.Status)
	})

	t.Run("a stranger may not cancel", func(t *testing.T) {
		f := newReservationFixture(t)
		booked := book(t, f)

		_, err := f.service.Cancel(context.Background(), f.stranger, CancelReservationInput{
			ResourceID: f.resourceID, ReservationID: booked.ReservationID,
		})

		assert.ErrorIs(t, err, resource.ErrUnauthorizedCancel)
	})

	t.Run("cancelling twice is rejected", func(t *testing.T) {
		f := newReservationFixture(t)
		booked := book(t, f)
		_, err := f.service.Cancel(context.Background(), f.owner, CancelReservationInput{
			ResourceID: f.resourceID, ReservationID: booked.ReservationID,
		})
		require.NoError(t, err)

		_, err = f.service.Cancel(context.Background(), f.owner, CancelReservationInput{
			ResourceID: f.resourceID, ReservationID: booked.ReservationID,
		})

		assert.ErrorIs(t, err, resource.ErrReservationAlreadyCancelled)
	})

	t.Run("unknown reservation is not found", func(t *testing.T) {
		f := newReservationFixture(t)
		book(t, f)

		_, err := f.service.Cancel(context.Background(), f.owner, CancelReservationInput{
			ResourceID: f.resourceID, ReservationID: uuid.New(),
		})

		assert.ErrorIs(t, err, resource.ErrReservationNotFound)
	})
}
