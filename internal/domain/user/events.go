package user

import (
	"github.com/google/uuid"
)

// Event types recorded on user streams.
const (
	EventTypeAdminBootstrapped = "AdminBootstrapped"
	EventTypeUserRegistered    = "UserRegistered"
	EventTypeUserLoggedIn      = "UserLoggedIn"
)

type AdminBootstrappedPayload struct {
	UserID       uuid.UUID `json:"userId"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Role         Role      `json:"role"`
}

type UserRegisteredPayload struct {
	UserID       uuid.UUID `json:"userId"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Role         Role      `json:"role"`
}

type UserLoggedInPayload struct {
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
}
