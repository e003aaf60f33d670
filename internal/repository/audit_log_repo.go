package repository

import (
	"context"

	"medbill-backend/internal/models"

	"gorm.io/gorm"
)

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// List returns the newest entries, optionally narrowed to one serial number.
func (r *AuditLogRepository) List(ctx context.Context, serialNo string, limit int) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	query := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if serialNo != "" {
		query = query.Where("serial_no = ?", serialNo)
	}
	err := query.Find(&entries).Error
	return entries, err
}
