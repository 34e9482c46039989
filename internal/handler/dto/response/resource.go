package response

import (
	"time"

	"github.com/gabpmcp/bolivar-test/internal/usecase/commands"
	"github.com/gabpmcp/bolivar-test/internal/usecase/queries"

	"github.com/google/uuid"
)

// ResourceResponse is the command-side reply, built from the accepted event's
// folded state rather than from the eventually consistent projection.
type ResourceResponse struct {
	ResourceID uuid.UUID `json:"resourceId"`
	Name       string    `json:"name"`
	Details    string    `json:"details"`
	Status     string    `json:"status"`
	Version    int64     `json:"version"`
}

func FromResourceResult(r *commands.ResourceResult) *ResourceResponse {
	return &ResourceResponse{
		ResourceID: r.ResourceID,
		Name:       r.Name,
		Details:    r.Details,
		Status:     r.Status,
		Version:    r.Version,
	}
}

type ResourceViewResponse struct {
	ResourceID   uuid.UUID `json:"resourceId"`
	Name         string    `json:"name"`
	Details      string    `json:"details"`
	Status       string    `json:"status"`
	CreatedAtUTC time.Time `json:"createdAtUtc"`
	UpdatedAtUTC time.Time `json:"updatedAtUtc"`
}

func FromResourceView(v *queries.ResourceView) *ResourceViewResponse {
	return &ResourceViewResponse{
		ResourceID:   v.ResourceID,
		Name:         v.Name,
		Details:      v.Details,
		Status:       v.Status,
		CreatedAtUTC: v.CreatedAtUTC,
		UpdatedAtUTC: v.UpdatedAtUTC,
	}
}

type ResourceDetailResponse struct {
	Resource      *ResourceViewResponse  `json:"resource"`
	ProjectionLag *ProjectionLagResponse `json:"projectionLag"`
}

func FromResourceDetail(v *queries.ResourceView, lag *queries.ProjectionLagView) *ResourceDetailResponse {
	return &ResourceDetailResponse{
		Resource:      FromResourceView(v),
		ProjectionLag: EmbeddedLag(lag),
	}
}

type ResourceListResponse struct {
	Items         []*ResourceViewResponse `json:"items"`
	NextCursor    *string                 `json:"nextCursor,omitempty"`
	ProjectionLag *ProjectionLagResponse  `json:"projectionLag"`
}

func FromResourceList(views []*queries.ResourceView, next *queries.Cursor, lag *queries.ProjectionLagView) *ResourceListResponse {
	items := make([]*ResourceViewResponse, 0, len(views))
	for _, v := range views {
		items = append(items, FromResourceView(v))
	}
	resp := &ResourceListResponse{
		Items:         items,
		ProjectionLag: EmbeddedLag(lag),
	}
	if next != nil {
		resp.NextCursor = &next.After
	}
	return resp
}
