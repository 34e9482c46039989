package response

import (
	"time"

	"github.com/gabpmcp/bolivar-test/internal/usecase/queries"

	"github.com/google/uuid"
)

type UserViewResponse struct {
	UserID         uuid.UUID  `json:"userId"`
	Email          string     `json:"email"`
	Role           string     `json:"role"`
	CreatedAtUTC   time.Time  `json:"createdAtUtc"`
	LastLoginAtUTC *time.Time `json:"lastLoginAtUtc,omitempty"`
}

func FromUserView(v *queries.UserView) *UserViewResponse {
	return &UserViewResponse{
		UserID:         v.UserID,
		Email:          v.Email,
		Role:           v.Role,
		CreatedAtUTC:   v.CreatedAtUTC,
		LastLoginAtUTC: v.LastLoginAtUTC,
	}
}

type UserDetailResponse struct {
	User          *UserViewResponse      `json:"user"`
	ProjectionLag *ProjectionLagResponse `json:"projectionLag"`
}

func FromUserDetail(v *queries.UserView, lag *queries.ProjectionLagView) *UserDetailResponse {
	return &UserDetailResponse{
		User:          FromUserView(v),
		ProjectionLag: EmbeddedLag(lag),
	}
}
