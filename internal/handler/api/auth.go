package api

import (
	"crypto/subtle"
	"net/http"

	reqdto "github.com/gabpmcp/bolivar-test/internal/handler/dto/request"
	resdto "github.com/gabpmcp/bolivar-test/internal/handler/dto/response"
	"github.com/gabpmcp/bolivar-test/internal/handler/httperr"
	"github.com/gabpmcp/bolivar-test/internal/handler/middleware"
	"github.com/gabpmcp/bolivar-test/internal/pkg/errs"
	"github.com/gabpmcp/bolivar-test/internal/usecase/commands"
	"github.com/gabpmcp/bolivar-test/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

var errBootstrapKeyRejected = errs.New("bootstrap key missing or wrong")

type AuthHandler struct {
	auth         commands.AuthCommands
	users        queries.UserQueries
	lag          queries.LagQueries
	bootstrapKey string
}

func NewAuthHandler(auth commands.AuthCommands, users queries.UserQueries, lag queries.LagQueries, bootstrapKey string) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		users:        users,
		lag:          lag,
		bootstrapKey: bootstrapKey,
	}
}

// @Summary Bootstrap the first admin
// @Description Create the initial admin account, guarded by the bootstrap key
// @Tags auth
// @Accept json
// @Produce json
// @Param x-admin-bootstrap-key header string true "Bootstrap key"
// @Param Idempotency-Key header string true "Idempotency key"
// @Param request body reqdto.BootstrapAdminRequest true "BootstrapAdmin command"
// @Success 201 {object} resdto.AuthResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /auth/bootstrap [post]
func (h *AuthHandler) Bootstrap(c *gin.Context) {
	// An unconfigured key keeps the route closed.
	supplied := c.GetHeader("x-admin-bootstrap-key")
	if h.bootstrapKey == "" ||
		subtle.ConstantTimeCompare([]byte(supplied), []byte(h.bootstrapKey)) != 1 {
		httperr.AbortWithError(c, errBootstrapKeyRejected,
			httperr.New(http.StatusForbidden, "BOOTSTRAP_FORBIDDEN", "bootstrap key missing or wrong", nil))
		return
	}

	var req reqdto.BootstrapAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	result, err := h.auth.BootstrapAdmin(c.Request.Context(), req.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.FromAuthResult(result))
}

// @Summary Register a user
// @Description Create a regular account and return a signed token
// @Tags auth
// @Accept json
// @Produce json
// @Param Idempotency-Key header string true "Idempotency key"
// @Param request body reqdto.RegisterRequest true "RegisterUser command"
// @Success 201 {object} resdto.AuthResponse
// @Failure 400 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req reqdto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	result, err := h.auth.Register(c.Request.Context(), req.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.FromAuthResult(result))
}

// @Summary Log in
// @Description Verify credentials and return a signed token
// @Tags auth
// @Accept json
// @Produce json
// @Param Idempotency-Key header string true "Idempotency key"
// @Param request body reqdto.LoginRequest true "LoginUser command"
// @Success 200 {object} resdto.AuthResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req reqdto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromAuthResult(result))
}

// @Summary Get current user
// @Description Current user from the users projection, with projection lag
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} resdto.UserDetailResponse
// @Failure 401 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, errs.New("user id missing from context"))
		return
	}

	view, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromUserDetail(view, fetchLag(c, h.lag)))
}
