package response

import (
	"time"

	"github.com/gabpmcp/bolivar-test/internal/usecase/queries"
)

// ProjectionLagResponse tells the client how stale the read side may be.
// Projection is only set on the dedicated lag route; embedded copies omit it.
type ProjectionLagResponse struct {
	Projection         string     `json:"projection,omitempty"`
	LastProjectedAtUTC *time.Time `json:"lastProjectedAtUtc"`
	EventsBehind       int        `json:"eventsBehind"`
}

func FromLagView(v *queries.ProjectionLagView) *ProjectionLagResponse {
	return &ProjectionLagResponse{
		Projection:         v.Projection,
		LastProjectedAtUTC: v.LastProjectedAtUTC,
		EventsBehind:       v.EventsBehind,
	}
}

// EmbeddedLag strips the projection name for inclusion in list and detail
// replies. A nil view collapses to "nothing projected yet".
func EmbeddedLag(v *queries.ProjectionLagView) *ProjectionLagResponse {
	if v == nil {
		return &ProjectionLagResponse{}
	}
	return &ProjectionLagResponse{
		LastProjectedAtUTC: v.LastProjectedAtUTC,
		EventsBehind:       v.EventsBehind,
	}
}
