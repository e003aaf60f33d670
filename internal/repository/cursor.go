package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cursor is the (created_at, id) of the last row on the previous page.
// id breaks ties between rows created in the same instant.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

func (c Cursor) IsZero() bool {
	return c.CreatedAt.IsZero() && c.ID == uuid.Nil
}

func (c Cursor) apply(db *gorm.DB) *gorm.DB {
	db = db.Order("created_at DESC").Order("id DESC")
	if c.IsZero() {
		return db
	}
	return db.Where("(created_at, id) < (?, ?)", c.CreatedAt, c.ID)
}
