package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/gabpmcp/bolivar-test/internal/domain/event"
	"github.com/gabpmcp/bolivar-test/internal/domain/resource"
	"github.com/gabpmcp/bolivar-test/internal/pkg/clock"
	"github.com/gabpmcp/bolivar-test/internal/pkg/config"
	"github.com/gabpmcp/bolivar-test/internal/pkg/errs"

	"github.com/google/uuid"
)

type CreateReservationInput struct {
	ResourceID uuid.UUID
	FromUTC    time.Time
	ToUTC      time.Time
}

type CancelReservationInput struct {
	ResourceID    uuid.UUID
	ReservationID uuid.UUID
}

// ReservationResult mirrors the reservation inside the resource state right
// after the accepted event, plus the stream version it landed at.
type ReservationResult struct {
	ReservationID  uuid.UUID
	ResourceID     uuid.UUID
	UserID         uuid.UUID
	FromUTC        time.Time
	ToUTC          time.Time
	Status         string
	CreatedAtUTC   time.Time
	CancelledAtUTC *time.Time
	Version        int64
}

type ReservationCommands interface {
	Create(ctx context.Context, actor Actor, in CreateReservationInput) (*ReservationResult, error)
	Cancel(ctx context.Context, actor Actor, in CancelReservationInput) (*ReservationResult, error)
}

type reservationCommandsImpl struct {
	runner *Runner[*resource.State]
}

func NewReservationCommands(
	store EventStore,
	publisher EventPublisher,
	clk clock.Clock,
	cfg config.RunnerConfig,
	slogger *slog.Logger,
) ReservationCommands {
	return &reservationCommandsImpl{
		runner: NewRunner(event.StreamTypeResource, resource.Fold, store, publisher, clk, cfg, slogger),
	}
}

func (r *reservationCommandsImpl) Create(ctx context.Context, actor Actor, in CreateReservationInput) (*ReservationResult, error) {
	// The id is fixed before the retry loop so a conflict replay books the
	// same reservation instead of a twin.
	reservationID := uuid.New()
	cmd := resource.AddReservation{
		ReservationID: reservationID,
		ResourceID:    in.ResourceID,
		UserID:        actor.UserID,
		FromUTC:       in.FromUTC.UTC(),
		ToUTC:         in.ToUTC.UTC(),
	}
	meta := event.Meta{CommandName: cmd.CommandName(), ActorUserID: actor.UserID.String()}

	evt, state, err := r.runner.Execute(ctx, in.ResourceID, meta, func(s *resource.State, now time.Time) (event.Proposed, error) {
		return resource.Decide(s, cmd, now)
	})
	if err != nil {
		return nil, err
	}
	return reservationResult(state, reservationID, evt.Version)
}

func (r *reservationCommandsImpl) Cancel(ctx context.Context, actor Actor, in CancelReservationInput) (*ReservationResult, error) {
	cmd := resource.CancelReservation{
		ReservationID: in.ReservationID,
		ResourceID:    in.ResourceID,
		ActorUserID:   actor.UserID,
		ActorRole:     actor.Role,
	}
	meta := event.Meta{CommandName: cmd.CommandName(), ActorUserID: actor.UserID.String()}

	evt, state, err := r.runner.Execute(ctx, in.ResourceID, meta, func(s *resource.State, now time.Time) (event.Proposed, error) {
		return resource.Decide(s, cmd, now)
	})
	if err != nil {
		return nil, err
	}
	return reservationResult(state, in.ReservationID, evt.Version)
}

func reservationResult(s *resource.State, reservationID uuid.UUID, version int64) (*ReservationResult, error) {
	for _, res := range s.Reservations {
		if res.ReservationID != reservationID {
			continue
		}
		return &ReservationResult{
			ReservationID:  res.ReservationID,
			ResourceID:     s.ResourceID,
			UserID:         res.UserID,
			FromUTC:        res.FromUTC,
			ToUTC:          res.ToUTC,
			Status:         res.Status.String(),
			CreatedAtUTC:   res.CreatedAtUTC,
			CancelledAtUTC: res.CancelledAtUTC,
			Version:        version,
		}, nil
	}
	return nil, errs.Newf("reservation %s missing from folded state", reservationID)
}
