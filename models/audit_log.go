package models

import "time"

// Audit actions
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// AuditLog represents one immutable entry in the audit trail
type AuditLog struct {
	ID         int64     `json:"id"`
	EntityType string    `json:"entity_type"`
	EntityID   int       `json:"entity_id"`
	Action     string    `json:"action"`
	User       string    `json:"user"`
	Details    string    `json:"details"`
	Timestamp  time.Time `json:"timestamp"`
}
