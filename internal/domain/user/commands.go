package user

import (
	"github.com/google/uuid"
)

// Command is the closed set of operations a user stream accepts.
type Command interface {
	CommandName() string
}

type BootstrapAdmin struct {
	UserID       uuid.UUID
	Email        string
	PasswordHash string
}

func (BootstrapAdmin) CommandName() string { return "BootstrapAdmin" }

type RegisterUser struct {
	UserID       uuid.UUID
	Email        string
	PasswordHash string
	Role         Role
}

func (RegisterUser) CommandName() string { return "RegisterUser" }

type LoginUser struct {
	UserID uuid.UUID
	Email  string
}

func (LoginUser) CommandName() string { return "LoginUser" }
