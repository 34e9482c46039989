//go:build unit

package projection_test

import (
	"testing"
	"time"

	"github.com/gabpmcp/bolivar-test/internal/domain/event"
	"github.com/gabpmcp/bolivar-test/internal/domain/resource"
	"github.com/gabpmcp/bolivar-test/internal/domain/user"
	"github.com/gabpmcp/bolivar-test/internal/projection"
	"github.com/gabpmcp/bolivar-test/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject(t *testing.T) {
	occurred := builder.BaseTime.Add(30 * time.Minute)

	t.Run("registered user becomes a full row", func(t *testing.T) {
		userID := uuid.New()
		e := builder.NewEventBuilder().
			WithStream(event.StreamTypeUser, userID).
			WithType(user.EventTypeUserRegistered).
			WithPayload(user.UserRegisteredPayload{UserID: userID, Email: "test@example.com", PasswordHash: "h", Role: user.RoleUser}).
			WithOccurredAt(occurred).
			Build()

		ops, err := projection.Project(e)

		require.NoError(t, err)
		require.Len(t, ops, 1)
		put, ok := ops[0].(projection.PutUser)
		require.True(t, ok)
		assert.Equal(t, "user", put.Role)
		assert.Equal(t, occurred, put.CreatedAtUTC)
	})

	t.Run("bootstrapped admin pins the admin role", func(t *testing.T) {
		userID := uuid.New()
		e := builder.NewEventBuilder().
			WithStream(event.StreamTypeUser, userID).
			WithType(user.EventTypeAdminBootstrapped).
			WithPayload(user.AdminBootstrappedPayload{UserID: userID, Email: "admin@test.com", PasswordHash: "h", Role: user.RoleAdmin}).
			WithOccurredAt(occurred).
			Build()

		ops, err := projection.Project(e)

		require.NoError(t, err)
		require.Len(t, ops, 1)
		put, ok := ops[0].(projection.PutUser)
		require.True(t, ok)
		assert.Equal(t, "admin", put.Role)
	})

	t.Run("login stamps last login from the event time", func(t *testing.T) {
		userID := uuid.New()
		e := builder.NewEventBuilder().
			WithStream(event.StreamTypeUser, userID).
			WithType(user.EventTypeUserLoggedIn).
			WithPayload(user.UserLoggedInPayload{UserID: userID, Email: "test@example.com"}).
			WithOccurredAt(occurred).
			Build()

		ops, err := projection.Project(e)

		require.NoError(t, err)
		require.Len(t, ops, 1)
		set, ok := ops[0].(projection.SetUserLastLogin)
		require.True(t, ok)
		assert.Equal(t, occurred, set.LastLoginAtUTC)
	})

	t.Run("created resource carries both timestamps", func(t *testing.T) {
		e := builder.NewResourceBuilder().BuildCreatedEvent()

		ops, err := projection.Project(e)

		require.NoError(t, err)
		require.Len(t, ops, 1)
		put, ok := ops[0].(projection.PutResource)
		require.True(t, ok)
		assert.Equal(t, put.CreatedAtUTC, put.UpdatedAtUTC)
		assert.Equal(t, "active", put.Status)
	})

	t.Run("metadata update touches only details columns", func(t *testing.T) {
		resourceID := uuid.New()
		e := builder.NewEventBuilder().
			WithStream(event.StreamTypeResource, resourceID).
			WithVersion(2).
			WithType(resource.EventTypeMetadataUpdated).
			WithPayload(resource.MetadataUpdatedPayload{ResourceID: resourceID, Name: "SalaB", Details: "Piso 2"}).
			WithOccurredAt(occurred).
			Build()

		ops, err := projection.Project(e)

		require.NoError(t, err)
		require.Len(t, ops, 1)
		upd, ok := ops[0].(projection.UpdateResourceDetails)
		require.True(t, ok)
		assert.Equal(t, "SalaB", upd.Name)
		assert.Equal(t, occurred, upd.UpdatedAtUTC)
	})

	t.Run("added reservation projects an active row", func(t *testing.T) {
		resourceID, reservationID, userID := uuid.New(), uuid.New(), uuid.New()
		e := builder.NewEventBuilder().
			WithStream(event.StreamTypeResource, resourceID).
			WithVersion(2).
			WithType(resource.EventTypeReservationAdded).
			WithPayload(resource.ReservationAddedPayload{
				ReservationID: reservationID,
				ResourceID:    resourceID,
				UserID:        userID,
				FromUTC:       occurred.Add(time.Hour),
				ToUTC:         occurred.Add(2 * time.Hour),
				Status:        resource.ReservationStatusActive,
				CreatedAtUTC:  occurred,
			}).
			Build()

		ops, err := projection.Project(e)

		require.NoError(t, err)
		require.Len(t, ops, 1)
		put, ok := ops[0].(projection.PutReservation)
		require.True(t, ok)
		assert.Equal(t, reservationID, put.ReservationID)
		assert.Equal(t, "active", put.Status)
	})

	t.Run("cancellation takes its time from the payload", func(t *testing.T) {
		reservationID := uuid.New()
		cancelledAt := occurred.Add(45 * time.Minute)
		e := builder.NewEventBuilder().
			WithStream(event.StreamTypeResource, uuid.New()).
			WithVersion(3).
			WithType(resource.EventTypeReservationCancelled).
			WithPayload(resource.ReservationCancelledPayload{
				ReservationID:  reservationID,
				ResourceID:     uuid.New(),
				CancelledBy:    uuid.New(),
				CancelledAtUTC: cancelledAt,
			}).
			WithOccurredAt(occurred).
			Build()

		ops, err := projection.Project(e)

		require.NoError(t, err)
		require.Len(t, ops, 1)
		cancel, ok := ops[0].(projection.CancelReservation)
		require.True(t, ok)
		assert.Equal(t, cancelledAt, cancel.CancelledAtUTC)
	})

	t.Run("telemetry and unknown events project nothing", func(t *testing.T) {
		for _, typ := range []string{resource.EventTypeConcurrencyConflictUnresolved, "SomethingNew"} {
			e := builder.NewEventBuilder().WithType(typ).Build()

			ops, err := projection.Project(e)

			require.NoError(t, err)
			assert.Empty(t, ops)
		}
	})

	t.Run("undecodable payload surfaces an error", func(t *testing.T) {
		e := builder.NewEventBuilder().
			WithType(user.EventTypeUserRegistered).
			WithPayload("not-an-object").
			Build()

		_, err := projection.Project(e)

		assert.Error(t, err)
	})
}
