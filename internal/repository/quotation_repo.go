package repository

import (
	"context"

	"medbill-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuotationRepository struct {
	db *gorm.DB
}

func NewQuotationRepository(db *gorm.DB) *QuotationRepository {
	return &QuotationRepository{db: db}
}

func (r *QuotationRepository) Create(ctx context.Context, q *models.Quotation) error {
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *QuotationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Quotation, error) {
	var q models.Quotation
	if err := r.db.WithContext(ctx).First(&q, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuotationRepository) GetBySerial(ctx context.Context, serialNo string) (*models.Quotation, error) {
	var q models.Quotation
	if err := r.db.WithContext(ctx).First(&q, "serial_no = ?", serialNo).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuotationRepository) List(ctx context.Context, after Cursor, limit int) ([]models.Quotation, error) {
	var quotations []models.Quotation
	err := after.apply(r.db.WithContext(ctx)).Limit(limit).Find(&quotations).Error
	return quotations, err
}

func (r *QuotationRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.Quotation{}, "id = ?", id)
	return result.RowsAffected > 0, result.Error
}
