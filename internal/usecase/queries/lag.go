package queries

import (
	"context"
	"time"

	"github.com/gabpmcp/bolivar-test/internal/infra"
	"github.com/gabpmcp/bolivar-test/internal/pkg/errs"
)

// ProjectionLagView mirrors the single heartbeat row the worker maintains. A
// nil LastProjectedAtUTC means no event has ever been projected.
type ProjectionLagView struct {
	Projection         string     `json:"projection"`
	LastProjectedAtUTC *time.Time `json:"lastProjectedAtUtc"`
	EventsBehind       int        `json:"eventsBehind"`
}

type LagQueries interface {
	Get(ctx context.Context) (*ProjectionLagView, error)
}

type LagReadStore interface {
	Get(ctx context.Context) (*ProjectionLagView, error)
}

type lagQueriesImpl struct {
	lag LagReadStore
}

func NewLagQueries(lag LagReadStore) LagQueries {
	return &lagQueriesImpl{lag: lag}
}

func (q *lagQueriesImpl) Get(ctx context.Context) (*ProjectionLagView, error) {
	view, err := q.lag.Get(ctx)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return &ProjectionLagView{Projection: "main"}, nil
		}
		return nil, errs.Wrap(err, "get projection lag")
	}
	return view, nil
}
