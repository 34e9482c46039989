package request

import (
	"strings"

	"github.com/gabpmcp/bolivar-test/internal/usecase/commands"

	"github.com/google/uuid"
)

type CreateResourcePayload struct {
	Name    string `json:"name" binding:"required,min=1,max=200"`
	Details string `json:"details" binding:"max=2000"`
}

type CreateResourceCommand struct {
	Type    string                `json:"type" binding:"required,eq=CreateResource"`
	Payload CreateResourcePayload `json:"payload" binding:"required"`
}

type CreateResourceRequest struct {
	Command CreateResourceCommand `json:"command" binding:"required"`
}

func (r *CreateResourceRequest) ToInput() commands.CreateResourceInput {
	return commands.CreateResourceInput{
		Name:    strings.TrimSpace(r.Command.Payload.Name),
		Details: strings.TrimSpace(r.Command.Payload.Details),
	}
}

type UpdateResourceMetadataPayload struct {
	Name    *string `json:"name,omitempty" binding:"omitempty,min=1,max=200"`
	Details *string `json:"details,omitempty" binding:"omitempty,max=2000"`
}

type UpdateResourceMetadataCommand struct {
	Type    string                        `json:"type" binding:"required,eq=UpdateResourceMetadata"`
	Payload UpdateResourceMetadataPayload `json:"payload" binding:"required"`
}

type UpdateResourceMetadataRequest struct {
	Command UpdateResourceMetadataCommand `json:"command" binding:"required"`
}

func (r *UpdateResourceMetadataRequest) ToInput(resourceID uuid.UUID) commands.UpdateResourceMetadataInput {
	in := commands.UpdateResourceMetadataInput{ResourceID: resourceID}
	if r.Command.Payload.Name != nil {
		trimmed := strings.TrimSpace(*r.Command.Payload.Name)
		in.Name = &trimmed
	}
	if r.Command.Payload.Details != nil {
		trimmed := strings.TrimSpace(*r.Command.Payload.Details)
		in.Details = &trimmed
	}
	return in
}
