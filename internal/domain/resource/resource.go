package resource

import (
	"time"

	"github.com/gabpmcp/bolivar-test/internal/domain/event"
	"github.com/gabpmcp/bolivar-test/internal/pkg/errs"
	"github.com/gabpmcp/bolivar-test/internal/pkg/ptr"

	"github.com/google/uuid"
)

var (
	ErrForbidden                   = errs.New("actor is not an admin")
	ErrAlreadyExists               = errs.New("resource already exists")
	ErrNotFound                    = errs.New("resource not found")
	ErrInvalidInterval             = errs.New("reservation interval is empty or inverted")
	ErrReservationInPast           = errs.New("reservation starts in the past")
	ErrReservationOverlap          = errs.New("reservation overlaps an active reservation")
	ErrReservationNotFound         = errs.New("reservation not found")
	ErrReservationAlreadyCancelled = errs.New("reservation is already cancelled")
	ErrUnauthorizedCancel          = errs.New("actor may not cancel this reservation")
)

// Reservation is one slot held on a resource. Intervals are half-open
// [FromUTC, ToUTC), so back-to-back slots sharing a boundary do not overlap.
type Reservation struct {
	ReservationID  uuid.UUID         `json:"reservationId"`
	UserID         uuid.UUID         `json:"userId"`
	FromUTC        time.Time         `json:"fromUtc"`
	ToUTC          time.Time         `json:"toUtc"`
	Status         ReservationStatus `json:"status"`
	CreatedAtUTC   time.Time         `json:"createdAtUtc"`
	CancelledAtUTC *time.Time        `json:"cancelledAtUtc,omitempty"`
}

// State is the fold of a resource stream. A nil state means the resource does
// not exist yet.
type State struct {
	ResourceID   uuid.UUID     `json:"resourceId"`
	Name         string        `json:"name"`
	Details      string        `json:"details"`
	Status       Status        `json:"status"`
	Reservations []Reservation `json:"reservations"`
}

func (s *State) clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.Reservations = append([]Reservation(nil), s.Reservations...)
	return &out
}

func (s *State) findReservation(id uuid.UUID) *Reservation {
	for i := range s.Reservations {
		if s.Reservations[i].ReservationID == id {
			return &s.Reservations[i]
		}
	}
	return nil
}

// overlapsActive reports whether [from, to) intersects any active
// reservation. Cancelled reservations free their slot.
func (s *State) overlapsActive(from, to time.Time) bool {
	for _, r := range s.Reservations {
		if r.Status != ReservationStatusActive {
			continue
		}
		if from.Before(r.ToUTC) && r.FromUTC.Before(to) {
			return true
		}
	}
	return false
}

// Fold applies one recorded event to the state. It is total: unknown event
// types and undecodable payloads leave the state unchanged.
func Fold(s *State, e event.Event) *State {
	switch e.Type {
	case EventTypeCreated:
		p, err := event.DecodePayload[CreatedPayload](e)
		if err != nil {
			return s
		}
		return &State{ResourceID: p.ResourceID, Name: p.Name, Details: p.Details, Status: p.Status}
	case EventTypeMetadataUpdated:
		p, err := event.DecodePayload[MetadataUpdatedPayload](e)
		if err != nil || s == nil {
			return s
		}
		out := s.clone()
		out.Name = p.Name
		out.Details = p.Details
		return out
	case EventTypeReservationAdded:
		p, err := event.DecodePayload[ReservationAddedPayload](e)
		if err != nil || s == nil {
			return s
		}
		out := s.clone()
		out.Reservations = append(out.Reservations, Reservation{
			ReservationID: p.ReservationID,
			UserID:        p.UserID,
			FromUTC:       p.FromUTC,
			ToUTC:         p.ToUTC,
			Status:        p.Status,
			CreatedAtUTC:  p.CreatedAtUTC,
		})
		return out
	case EventTypeReservationCancelled:
		p, err := event.DecodePayload[ReservationCancelledPayload](e)
		if err != nil || s == nil {
			return s
		}
		out := s.clone()
		if r := out.findReservation(p.ReservationID); r != nil {
			at := p.CancelledAtUTC
			r.Status = ReservationStatusCancelled
			r.CancelledAtUTC = &at
		}
		return out
	default:
		return s
	}
}

// Decide accepts or rejects a command against the current state. now comes
// from the caller so decisions stay deterministic under retry.
func Decide(s *State, cmd Command, now time.Time) (event.Proposed, error) {
	switch c := cmd.(type) {
	case CreateResource:
		return decideCreate(s, c)
	case UpdateMetadata:
		return decideUpdateMetadata(s, c)
	case AddReservation:
		return decideAddReservation(s, c, now)
	case CancelReservation:
		return decideCancelReservation(s, c, now)
	default:
		return event.Proposed{}, errs.Newf("unknown resource command %T", cmd)
	}
}

func decideCreate(s *State, c CreateResource) (event.Proposed, error) {
	if !c.ActorRole.IsAdmin() {
		return event.Proposed{}, ErrForbidden
	}
	if s != nil {
		return event.Proposed{}, errs.Wrapf(ErrAlreadyExists, "resource %s", c.ResourceID)
	}
	return event.Proposed{
		Type: EventTypeCreated,
		Payload: CreatedPayload{
			ResourceID: c.ResourceID,
			Name:       c.Name,
			Details:    c.Details,
			Status:     StatusActive,
		},
	}, nil
}

func decideUpdateMetadata(s *State, c UpdateMetadata) (event.Proposed, error) {
	if !c.ActorRole.IsAdmin() {
		return event.Proposed{}, ErrForbidden
	}
	if s == nil {
		return event.Proposed{}, errs.Wrapf(ErrNotFound, "resource %s", c.ResourceID)
	}
	return event.Proposed{
		Type: EventTypeMetadataUpdated,
		Payload: MetadataUpdatedPayload{
			ResourceID: c.ResourceID,
			Name:       ptr.Deref(c.Name, s.Name),
			Details:    ptr.Deref(c.Details, s.Details),
		},
	}, nil
}

func decideAddReservation(s *State, c AddReservation, now time.Time) (event.Proposed, error) {
	if s == nil {
		return event.Proposed{}, errs.Wrapf(ErrNotFound, "resource %s", c.ResourceID)
	}
	if !c.FromUTC.Before(c.ToUTC) {
		return event.Proposed{}, ErrInvalidInterval
	}
	if c.FromUTC.Before(now) {
		return event.Proposed{}, ErrReservationInPast
	}
	if s.overlapsActive(c.FromUTC, c.ToUTC) {
		return event.Proposed{}, ErrReservationOverlap
	}
	return event.Proposed{
		Type: EventTypeReservationAdded,
		Payload: ReservationAddedPayload{
			ReservationID: c.ReservationID,
			ResourceID:    c.ResourceID,
			UserID:        c.UserID,
			FromUTC:       c.FromUTC,
			ToUTC:         c.ToUTC,
			Status:        ReservationStatusActive,
			CreatedAtUTC:  now,
		},
	}, nil
}

func decideCancelReservation(s *State, c CancelReservation, now time.Time) (event.Proposed, error) {
	if s == nil {
		return event.Proposed{}, errs.Wrapf(ErrNotFound, "resource %s", c.ResourceID)
	}
	r := s.findReservation(c.ReservationID)
	if r == nil {
		return event.Proposed{}, errs.Wrapf(ErrReservationNotFound, "reservation %s", c.ReservationID)
	}
	if r.Status == ReservationStatusCancelled {
		return event.Proposed{}, ErrReservationAlreadyCancelled
	}
	if !c.ActorRole.IsAdmin() && r.UserID != c.ActorUserID {
		return event.Proposed{}, ErrUnauthorizedCancel
	}
	return event.Proposed{
		Type: EventTypeReservationCancelled,
		Payload: ReservationCancelledPayload{
			ReservationID:  c.ReservationID,
			ResourceID:     c.ResourceID,
			CancelledBy:    c.ActorUserID,
			CancelledAtUTC: now,
		},
	}, nil
}
