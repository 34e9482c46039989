//go:build unit || e2e

package authtest

import (
	"net/http"
	"testing"

	"github.com/gabpmcp/bolivar-test/internal/handler/dto/request"
	"github.com/gabpmcp/bolivar-test/internal/handler/dto/response"
	"github.com/gabpmcp/bolivar-test/tests/common/httptest"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// BootstrapAdmin creates the first admin through the real route and returns
// its id and token.
func BootstrapAdmin(t *testing.T, router *gin.Engine, bootstrapKey, email, password string) (uuid.UUID, string) {
	t.Helper()

	body := request.BootstrapAdminRequest{
		Command: request.BootstrapAdminCommand{
			Type:    "BootstrapAdmin",
			Payload: request.CredentialsPayload{Email: email, Password: password},
		},
	}
	w := httptest.PerformRequestWithHeaders(t, router, http.MethodPost, "/api/auth/bootstrap", body, "", map[string]string{
		"Idempotency-Key":       uuid.NewString(),
		"x-admin-bootstrap-key": bootstrapKey,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp response.AuthResponse
	httptest.DecodeResponseBody(t, w.Body, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.UserID, resp.Token
}

func RegisterUser(t *testing.T, router *gin.Engine, email, password string) (uuid.UUID, string) {
	t.Helper()

	body := request.RegisterRequest{
		Command: request.RegisterCommand{
			Type:    "RegisterUser",
			Payload: request.CredentialsPayload{Email: email, Password: password},
		},
	}
	w := httptest.PerformRequestWithHeaders(t, router, http.MethodPost, "/api/auth/register", body, "", map[string]string{
		"Idempotency-Key": uuid.NewString(),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp response.AuthResponse
	httptest.DecodeResponseBody(t, w.Body, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.UserID, resp.Token
}

func LoginUser(t *testing.T, router *gin.Engine, email, password string) (uuid.UUID, string) {
	t.Helper()

	body := request.LoginRequest{
		Command: request.LoginCommand{
			Type:    "LoginUser",
			Payload: request.CredentialsPayload{Email: email, Password: password},
		},
	}
	w := httptest.PerformRequestWithHeaders(t, router, http.MethodPost, "/api/auth/login", body, "", map[string]string{
		"Idempotency-Key": uuid.NewString(),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp response.AuthResponse
	httptest.DecodeResponseBody(t, w.Body, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.UserID, resp.Token
}
