package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/gabpmcp/bolivar-test/internal/domain/event"
	"github.com/gabpmcp/bolivar-test/internal/domain/user"
	"github.com/gabpmcp/bolivar-test/internal/infra"
	"github.com/gabpmcp/bolivar-test/internal/pkg/clock"
	"github.com/gabpmcp/bolivar-test/internal/pkg/config"
	"github.com/gabpmcp/bolivar-test/internal/pkg/errs"
	"github.com/gabpmcp/bolivar-test/internal/pkg/jwt"
	"github.com/gabpmcp/bolivar-test/internal/pkg/password"
	"github.com/gabpmcp/bolivar-test/internal/usecase/queries"

	"github.com/google/uuid"
)

var ErrTokenGeneration = errs.New("token generation failed")

type BootstrapAdminInput struct {
	Email    string
	Password string
}

type RegisterInput struct {
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is the reply of every auth command: the subject and a signed
// bearer token for it.
type AuthResult struct {
	UserID uuid.UUID
	Token  string
}

type AuthCommands interface {
	BootstrapAdmin(ctx context.Context, in BootstrapAdminInput) (*AuthResult, error)
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
}

type authCommandsImpl struct {
	runner     *Runner[*user.State]
	users      queries.UserReadStore
	hasher     password.Hasher
	jwtService *jwt.Service
}

func NewAuthCommands(
	store EventStore,
	publisher EventPublisher,
	users queries.UserReadStore,
	hasher password.Hasher,
	jwtService *jwt.Service,
	clk clock.Clock,
	cfg config.RunnerConfig,
	slogger *slog.Logger,
) AuthCommands {
	return &authCommandsImpl{
		runner:     NewRunner(event.StreamTypeUser, user.Fold, store, publisher, clk, cfg, slogger),
		users:      users,
		hasher:     hasher,
		jwtService: jwtService,
	}
}

func (a *authCommandsImpl) BootstrapAdmin(ctx context.Context, in BootstrapAdminInput) (*AuthResult, error) {
	return a.createUser(ctx, in.Email, in.Password, func(userID uuid.UUID, hash string) user.Command {
		return user.BootstrapAdmin{UserID: userID, Email: in.Email, PasswordHash: hash}
	})
}

func (a *authCommandsImpl) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	return a.createUser(ctx, in.Email, in.Password, func(userID uuid.UUID, hash string) user.Command {
		return user.RegisterUser{UserID: userID, Email: in.Email, PasswordHash: hash, Role: user.RoleUser}
	})
}

// createUser is the shared build path of bootstrap and register: advisory
// email check against the projection, KDF, then the decider on a fresh
// stream. The projection check is advisory only; the stream itself is the
// source of truth.
func (a *authCommandsImpl) createUser(ctx context.Context, email, plain string, build func(uuid.UUID, string) user.Command) (*AuthResult, error) {
	if err := a.checkEmailFree(ctx, email); err != nil {
		return nil, err
	}

	hash, err := a.hasher.Hash(plain)
	if err != nil {
		return nil, errs.Wrap(err, "hash password")
	}

	userID := uuid.New()
	cmd := build(userID, hash)
	meta := event.Meta{CommandName: cmd.CommandName(), ActorUserID: userID.String()}

	_, state, err := a.runner.Execute(ctx, userID, meta, func(s *user.State, _ time.Time) (event.Proposed, error) {
		return user.Decide(s, cmd)
	})
	if err != nil {
		return nil, err
	}

	token, err := a.jwtService.GenerateToken(userID, state.Role)
	if err != nil {
		return nil, errs.Mark(err, ErrTokenGeneration)
	}
	return &AuthResult{UserID: userID, Token: token}, nil
}

func (a *authCommandsImpl) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	// Any lookup failure reads as bad credentials so the endpoint cannot be
	// used to enumerate accounts.
	view, err := a.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, errs.Mark(err, user.ErrInvalidCredentials)
	}

	userID := view.UserID
	meta := event.Meta{CommandName: user.LoginUser{}.CommandName(), ActorUserID: userID.String()}

	_, state, err := a.runner.Execute(ctx, userID, meta, func(s *user.State, _ time.Time) (event.Proposed, error) {
		if s == nil {
			return event.Proposed{}, user.ErrInvalidCredentials
		}
		match, verifyErr := a.hasher.Verify(in.Password, s.PasswordHash)
		if verifyErr != nil || !match {
			return event.Proposed{}, user.ErrInvalidCredentials
		}
		return user.Decide(s, user.LoginUser{UserID: userID, Email: in.Email})
	})
	if err != nil {
		return nil, err
	}

	token, err := a.jwtService.GenerateToken(userID, state.Role)
	if err != nil {
		return nil, errs.Mark(err, ErrTokenGeneration)
	}
	return &AuthResult{UserID: userID, Token: token}, nil
}

func (a *authCommandsImpl) checkEmailFree(ctx context.Context, email string) error {
	_, err := a.users.FindByEmail(ctx, email)
	if err == nil {
		return errs.Mark(errs.Newf("email %s already registered", email), user.ErrAlreadyExists)
	}
	if infra.IsKind(err, infra.KindNotFound) {
		return nil
	}
	return errs.Wrap(err, "check email uniqueness")
}
