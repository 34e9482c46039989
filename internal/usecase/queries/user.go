package queries

import (
	"context"
	"time"

	"github.com/gabpmcp/bolivar-test/internal/infra"
	"github.com/gabpmcp/bolivar-test/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrUserNotFound = errs.New("user not found")

// Read models (DTO for read side)
type UserView struct {
	UserID         uuid.UUID  `json:"userId"`
	Email          string     `json:"email"`
	Role           string     `json:"role"`
	CreatedAtUTC   time.Time  `json:"createdAtUtc"`
	LastLoginAtUTC *time.Time `json:"lastLoginAtUtc,omitempty"`
}

type UserQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*UserView, error)
}

type UserReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*UserView, error)
	FindByEmail(ctx context.Context, email string) (*UserView, error)
}

type userQueriesImpl struct {
	users UserReadStore
}

func NewUserQueries(users UserReadStore) UserQueries {
	return &userQueriesImpl{users: users}
}

func (q *userQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*UserView, error) {
	view, err := q.users.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, ErrUserNotFound)
		}
		return nil, errs.Wrap(err, "find user")
	}
	return view, nil
}
