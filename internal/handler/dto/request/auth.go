package request

import (
	"github.com/gabpmcp/bolivar-test/internal/usecase/commands"
)

type CredentialsPayload struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type BootstrapAdminCommand struct {
	Type    string             `json:"type" binding:"required,eq=BootstrapAdmin"`
	Payload CredentialsPayload `json:"payload" binding:"required"`
}

type BootstrapAdminRequest struct {
	Command BootstrapAdminCommand `json:"command" binding:"required"`
}

func (r *BootstrapAdminRequest) ToInput() commands.BootstrapAdminInput {
	return commands.BootstrapAdminInput{
		Email:    r.Command.Payload.Email,
		Password: r.Command.Payload.Password,
	}
}

type RegisterCommand struct {
	Type    string             `json:"type" binding:"required,eq=RegisterUser"`
	Payload CredentialsPayload `json:"payload" binding:"required"`
}

type RegisterRequest struct {
	Command RegisterCommand `json:"command" binding:"required"`
}

func (r *RegisterRequest) ToInput() commands.RegisterInput {
	return commands.RegisterInput{
		Email:    r.Command.Payload.Email,
		Password: r.Command.Payload.Password,
	}
}

type LoginCommand struct {
	Type    string             `json:"type" binding:"required,eq=LoginUser"`
	Payload CredentialsPayload `json:"payload" binding:"required"`
}

type LoginRequest struct {
	Command LoginCommand `json:"command" binding:"required"`
}

func (r *LoginRequest) ToInput() commands.LoginInput {
	return commands.LoginInput{
		Email:    r.Command.Payload.Email,
		Password: r.Command.Payload.Password,
	}
}
