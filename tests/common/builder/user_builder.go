//go:build unit || e2e

package builder

import (
	"github.com/gabpmcp/bolivar-test/internal/domain/event"
	"github.com/gabpmcp/bolivar-test/internal/domain/user"
	"github.com/gabpmcp/bolivar-test/internal/usecase/queries"

	"github.com/google/uuid"
)

type UserBuilder struct {
	UserID       uuid.UUID
	Email        string
	PasswordHash string
	Role         string
}

func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		UserID:       uuid.New(),
		Email:        "test@example.com",
		PasswordHash: "hashed_password",
		Role:         "user",
	}
}

func (b *UserBuilder) With(mutate func(*UserBuilder)) *UserBuilder {
	mutate(b)
	return b
}

func (b *UserBuilder) WithUserID(id uuid.UUID) *UserBuilder {
	b.UserID = id
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.Email = email
	return b
}

func (b *UserBuilder) WithPasswordHash(hash string) *UserBuilder {
	b.PasswordHash = hash
	return b
}

func (b *UserBuilder) WithRole(role string) *UserBuilder {
	b.Role = role
	return b
}

func (b *UserBuilder) AsAdmin() *UserBuilder {
	b.Role = "admin"
	return b
}

func (b *UserBuilder) BuildState() *user.State {
	return &user.State{
		UserID:       b.UserID,
		Email:        b.Email,
		PasswordHash: b.PasswordHash,
		Role:         user.Role(b.Role),
	}
}

func (b *UserBuilder) BuildReadModel() *queries.UserView {
	return &queries.UserView{
		UserID:       b.UserID,
		Email:        b.Email,
		Role:         b.Role,
		CreatedAtUTC: BaseTime,
	}
}

// BuildRegisteredEvent is the v1 event a register command would record.
func (b *UserBuilder) BuildRegisteredEvent() event.Event {
	return NewEventBuilder().
		WithStream(event.StreamTypeUser, b.UserID).
		WithType(user.EventTypeUserRegistered).
		WithPayload(user.UserRegisteredPayload{
			UserID:       b.UserID,
			Email:        b.Email,
			PasswordHash: b.PasswordHash,
			Role:         user.Role(b.Role),
		}).
		Build()
}
