package user

import (
	"github.com/gabpmcp/bolivar-test/internal/domain/event"
	"github.com/gabpmcp/bolivar-test/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrAlreadyExists      = errs.New("user already exists")
	ErrInvalidCredentials = errs.New("invalid credentials")
)

// State is the fold of a user stream. A nil state means the stream has no
// events yet, i.e. the user does not exist.
type State struct {
	UserID       uuid.UUID `json:"userId"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Role         Role      `json:"role"`
}

// Fold applies one recorded event to the state. It is total: unknown event
// types and undecodable payloads leave the state unchanged, so replaying a
// stream written by a newer build never fails.
func Fold(s *State, e event.Event) *State {
	switch e.Type {
	case EventTypeAdminBootstrapped:
		p, err := event.DecodePayload[AdminBootstrappedPayload](e)
		if err != nil {
			return s
		}
		return &State{UserID: p.UserID, Email: p.Email, PasswordHash: p.PasswordHash, Role: RoleAdmin}
	case EventTypeUserRegistered:
		p, err := event.DecodePayload[UserRegisteredPayload](e)
		if err != nil {
			return s
		}
		return &State{UserID: p.UserID, Email: p.Email, PasswordHash: p.PasswordHash, Role: p.Role}
	default:
		return s
	}
}

// Decide accepts or rejects a command against the current state. It is pure:
// password hashing and verification happen in the callers, the stored hash is
// opaque here.
func Decide(s *State, cmd Command) (event.Proposed, error) {
	switch c := cmd.(type) {
	case BootstrapAdmin:
		if s != nil {
			return event.Proposed{}, errs.Wrapf(ErrAlreadyExists, "user %s", c.UserID)
		}
		return event.Proposed{
			Type: EventTypeAdminBootstrapped,
			Payload: AdminBootstrappedPayload{
				UserID:       c.UserID,
				Email:        c.Email,
				PasswordHash: c.PasswordHash,
				Role:         RoleAdmin,
			},
		}, nil
	case RegisterUser:
		if s != nil {
			return event.Proposed{}, errs.Wrapf(ErrAlreadyExists, "user %s", c.UserID)
		}
		return event.Proposed{
			Type: EventTypeUserRegistered,
			Payload: UserRegisteredPayload{
				UserID:       c.UserID,
				Email:        c.Email,
				PasswordHash: c.PasswordHash,
				Role:         c.Role,
			},
		}, nil
	case LoginUser:
		if s == nil || s.Email != c.Email {
			return event.Proposed{}, ErrInvalidCredentials
		}
		return event.Proposed{
			Type:    EventTypeUserLoggedIn,
			Payload: UserLoggedInPayload{UserID: c.UserID, Email: c.Email},
		}, nil
	default:
		return event.Proposed{}, errs.Newf("unknown user command %T", cmd)
	}
}
