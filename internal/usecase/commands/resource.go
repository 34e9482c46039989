package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/gabpmcp/bolivar-test/internal/domain/event"
	"github.com/gabpmcp/bolivar-test/internal/domain/resource"
	"github.com/gabpmcp/bolivar-test/internal/infra"
	"github.com/gabpmcp/bolivar-test/internal/pkg/clock"
	"github.com/gabpmcp/bolivar-test/internal/pkg/config"
	"github.com/gabpmcp/bolivar-test/internal/pkg/errs"
	"github.com/gabpmcp/bolivar-test/internal/usecase/queries"

	"github.com/google/uuid"
)

// ErrResourceNameTaken is the advisory rejection when the resources
// projection already shows the requested name. The stream append is the real
// guard; this check only catches the common case early.
var ErrResourceNameTaken = errs.New("resource name already taken")

type CreateResourceInput struct {
	Name    string
	Details string
}

type UpdateResourceMetadataInput struct {
	ResourceID uuid.UUID
	Name       *string
	Details    *string
}

// ResourceResult mirrors the resource state right after the accepted event,
// plus the stream version it landed at.
type ResourceResult struct {
	ResourceID uuid.UUID
	Name       string
	Details    string
	Status     string
	Version    int64
}

type ResourceCommands interface {
	Create(ctx context.Context, actor Actor, in CreateResourceInput) (*ResourceResult, error)
	UpdateMetadata(ctx context.Context, actor Actor, in UpdateResourceMetadataInput) (*ResourceResult, error)
}

type resourceCommandsImpl struct {
	runner    *Runner[*resource.State]
	resources queries.ResourceReadStore
}

func NewResourceCommands(
	store EventStore,
	publisher EventPublisher,
	resources queries.ResourceReadStore,
	clk clock.Clock,
	cfg config.RunnerConfig,
	slogger *slog.Logger,
) ResourceCommands {
	return &resourceCommandsImpl{
		runner:    NewRunner(event.StreamTypeResource, resource.Fold, store, publisher, clk, cfg, slogger),
		resources: resources,
	}
}

func (r *resourceCommandsImpl) Create(ctx context.Context, actor Actor, in CreateResourceInput) (*ResourceResult, error) {
	if err := r.checkNameFree(ctx, in.Name, uuid.Nil); err != nil {
		return nil, err
	}

	resourceID := uuid.New()
	cmd := resource.CreateResource{
		ResourceID: resourceID,
		Name:       in.Name,
		Details:    in.Details,
		ActorRole:  actor.Role,
	}
	meta := event.Meta{CommandName: cmd.CommandName(), ActorUserID: actor.UserID.String()}

	evt, state, err := r.runner.Execute(ctx, resourceID, meta, func(s *resource.State, now time.Time) (event.Proposed, error) {
		return resource.Decide(s, cmd, now)
	})
	if err != nil {
		return nil, err
	}
	return resourceResult(state, evt.Version), nil
}

func (r *resourceCommandsImpl) UpdateMetadata(ctx context.Context, actor Actor, in UpdateResourceMetadataInput) (*ResourceResult, error) {
	if in.Name != nil {
		if err := r.checkNameFree(ctx, *in.Name, in.ResourceID); err != nil {
			return nil, err
		}
	}

	cmd := resource.UpdateMetadata{
		ResourceID: in.ResourceID,
		Name:       in.Name,
		Details:    in.Details,
		ActorRole:  actor.Role,
	}
	meta := event.Meta{CommandName: cmd.CommandName(), ActorUserID: actor.UserID.String()}

	evt, state, err := r.runner.Execute(ctx, in.ResourceID, meta, func(s *resource.State, now time.Time) (event.Proposed, error) {
		return resource.Decide(s, cmd, now)
	})
	if err != nil {
		return nil, err
	}
	return resourceResult(state, evt.Version), nil
}

// checkNameFree consults the projection; self matches are fine so a resource
// can re-assert its own name.
func (r *resourceCommandsImpl) checkNameFree(ctx context.Context, name string, self uuid.UUID) error {
	view, err := r.resources.FindByName(ctx, name)
	if err == nil {
		if view.ResourceID == self {
			return nil
		}
		return errs.Mark(errs.Newf("resource name %q already in use", name), ErrResourceNameTaken)
	}
	if infra.IsKind(err, infra.KindNotFound) {
		return nil
	}
	return errs.Wrap(err, "check resource name uniqueness")
}

func resourceResult(s *resource.State, version int64) *ResourceResult {
	return &ResourceResult{
		ResourceID: s.ResourceID,
		Name:       s.Name,
		Details:    s.Details,
		Status:     s.Status.String(),
		Version:    version,
	}
}
