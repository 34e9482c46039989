package response

import (
	"github.com/gabpmcp/bolivar-test/internal/usecase/commands"

	"github.com/google/uuid"
)

type AuthResponse struct {
	UserID uuid.UUID `json:"userId"`
	Token  string    `json:"token"`
}

func FromAuthResult(r *commands.AuthResult) *AuthResponse {
	return &AuthResponse{
		UserID: r.UserID,
		Token:  r.Token,
	}
}
