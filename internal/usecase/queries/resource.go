package queries

import (
	"context"
	"time"

	"github.com/gabpmcp/bolivar-test/internal/infra"
	"github.com/gabpmcp/bolivar-test/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrResourceNotFound = errs.New("resource not found")

type ResourceView struct {
	ResourceID   uuid.UUID `json:"resourceId"`
	Name         string    `json:"name"`
	Details      string    `json:"details"`
	Status       string    `json:"status"`
	CreatedAtUTC time.Time `json:"createdAtUtc"`
	UpdatedAtUTC time.Time `json:"updatedAtUtc"`
}

type ResourceQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*ResourceView, error)
	List(ctx context.Context, after *Cursor, limit int) ([]*ResourceView, *Cursor, error)
}

type ResourceReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ResourceView, error)
	FindByName(ctx context.Context, name string) (*ResourceView, error)
	List(ctx context.Context, limit int, startKey map[string]string) ([]*ResourceView, map[string]string, error)
}

type resourceQueriesImpl struct {
	resources    ResourceReadStore
	defaultLimit int
}

func NewResourceQueries(resources ResourceReadStore, defaultLimit int) ResourceQueries {
	return &resourceQueriesImpl{resources: resources, defaultLimit: defaultLimit}
}

func (q *resourceQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*ResourceView, error) {
	view, err := q.resources.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, ErrResourceNotFound)
		}
		return nil, errs.Wrap(err, "find resource")
	}
	return view, nil
}

func (q *resourceQueriesImpl) List(ctx context.Context, after *Cursor, limit int) ([]*ResourceView, *Cursor, error) {
	limit = ValidateLimit(limit, q.defaultLimit)

	var startKey map[string]string
	if after != nil {
		decoded, err := DecodeCursor(after.After)
		if err != nil {
			return nil, nil, err
		}
		startKey = decoded
	}

	views, lastKey, err := q.resources.List(ctx, limit, startKey)
	if err != nil {
		return nil, nil, errs.Wrap(err, "list resources")
	}

	next, err := EncodeCursor(lastKey)
	if err != nil {
		return nil, nil, err
	}
	if next == "" {
		return views, nil, nil
	}
	return views, &Cursor{After: next}, nil
}
