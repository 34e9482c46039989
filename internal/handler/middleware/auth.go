package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gabpmcp/bolivar-test/internal/domain/user"
	"github.com/gabpmcp/bolivar-test/internal/handler/httperr"
	"github.com/gabpmcp/bolivar-test/internal/pkg/errs"
	"github.com/gabpmcp/bolivar-test/internal/pkg/jwt"
	"github.com/gabpmcp/bolivar-test/internal/usecase/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var errMissingToken = errs.New("missing bearer token")

type AuthMiddleware struct {
	jwtService *jwt.Service
}

const (
	ctxUserIDKey   = "user_id"
	ctxUserRoleKey = "user_role"
)

func NewAuthMiddleware(jwtService *jwt.Service) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimSpace(authHeader[len("Bearer "):])
		}

		if token == "" {
			httperr.AbortWithError(c, errMissingToken,
				httperr.New(http.StatusUnauthorized, "UNAUTHORIZED", "bearer token required", nil))
			return
		}

		claims, err := m.jwtService.ValidateToken(token)
		if err != nil {
			slog.Warn("Token validation failed in auth middleware", "error", err.Error())
			httperr.AbortWithError(c, err,
				httperr.New(http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token", nil))
			return
		}

		role, err := user.NewRole(claims.Role)
		if err != nil {
			slog.Warn("Token carried an unknown role", "role", claims.Role)
			httperr.AbortWithError(c, err,
				httperr.New(http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token", nil))
			return
		}

		c.Set(ctxUserIDKey, claims.UserID)
		c.Set(ctxUserRoleKey, role)
		c.Set("jwt_claims", map[string]any{
			"user_id": claims.UserID.String(),
			"role":    string(role),
		})
		c.Next()
	}
}

func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get(ctxUserIDKey)
	if !exists {
		return uuid.Nil, false
	}

	id, ok := userID.(uuid.UUID)
	return id, ok
}

func GetUserRole(c *gin.Context) (user.Role, bool) {
	userRole, exists := c.Get(ctxUserRoleKey)
	if !exists {
		return "", false
	}

	role, ok := userRole.(user.Role)
	return role, ok
}

// GetActor returns the authenticated caller as a command actor.
// Only meaningful on routes behind RequireAuth().
func GetActor(c *gin.Context) (commands.Actor, bool) {
	id, ok := GetUserID(c)
	if !ok {
		return commands.Actor{}, false
	}
	role, ok := GetUserRole(c)
	if !ok {
		return commands.Actor{}, false
	}
	return commands.Actor{UserID: id, Role: role}, true
}
