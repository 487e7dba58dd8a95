package dto

import (
	"time"

	"github.com/noah-isme/enrollment-api/internal/models"
)

// ActionLogListRequest defines filters for listing action log entries.
type ActionLogListRequest struct {
	Action      string
	PerformedBy string
	Limit       int
}

// ActionLogResponse serializes an action log entry.
type ActionLogResponse struct {
	ID            uint                   `json:"id"`
	Action        string                 `json:"action"`
	PerformedBy   string                 `json:"performed_by"`
	PerformerName string                 `json:"performer_name,omitempty"`
	ActorRole     string                 `json:"actor_role,omitempty"`
	EntityType    string                 `json:"entity_type,omitempty"`
	EntityID      string                 `json:"entity_id,omitempty"`
	Details       map[string]interface{} `json:"details,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// NewActionLogResponse converts an action log model into a DTO.
func NewActionLogResponse(entry models.ActionLog) ActionLogResponse {
	var details map[string]interface{}
	if len(entry.Details) > 0 {
		details = make(map[string]interface{}, len(entry.Details))
		for key, value := range entry.Details {
			details[key] = value
		}
	}

	return ActionLogResponse{
		ID:          entry.ID,
		Action:      entry.Action,
		PerformedBy: entry.PerformedBy,
		ActorRole:   entry.ActorRole,
		EntityType:  entry.EntityType,
		EntityID:    entry.EntityID,
		Details:     details,
		CreatedAt:   entry.CreatedAt,
	}
}
