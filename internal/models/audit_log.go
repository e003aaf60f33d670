package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	AuditCreated = "created"
	AuditDeleted = "deleted"
)

// AuditLog is append-only; one row per record creation or deletion.
type AuditLog struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentKind DocumentKind `gorm:"index" json:"documentKind"`
	DocumentID   uuid.UUID    `gorm:"type:uuid;index" json:"documentId"`
	SerialNo     string       `gorm:"index" json:"serialNo"`
	Action       string       `json:"action"`
	CreatedAt    time.Time    `json:"createdAt"`
}
