package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/payslip-tracker/constants"
)

// ActionLog is one audit entry.
type ActionLog struct {
	ID        uuid.UUID            `json:"id"`
	Action    constants.ActionType `json:"action"`
	Message   string               `json:"message"`
	Details   map[string]any       `json:"details,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}
