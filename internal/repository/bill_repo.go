package repository

import (
	"context"
	"time"

	"medbill-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BillRepository struct {
	db *gorm.DB
}

func NewBillRepository(db *gorm.DB) *BillRepository {
	return &BillRepository{db: db}
}

func (r *BillRepository) Create(ctx context.Context, bill *models.Bill) error {
	return r.db.WithContext(ctx).Create(bill).Error
}

// GetByID fetch a single bill by ID
func (r *BillRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Bill, error) {
	var bill models.Bill
	if err := r.db.WithContext(ctx).First(&bill, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &bill, nil
}

func (r *BillRepository) GetBySerial(ctx context.Context, serialNo string) (*models.Bill, error) {
	var bill models.Bill
	if err := r.db.WithContext(ctx).First(&bill, "serial_no = ?", serialNo).Error; err != nil {
		return nil, err
	}
	return &bill, nil
}

// FindBySerial is the search variant: no match is an empty slice, not an error.
func (r *BillRepository) FindBySerial(ctx context.Context, serialNo string) ([]models.Bill, error) {
	var bills []models.Bill
	err := r.db.WithContext(ctx).
		Where("serial_no = ?", serialNo).
		Order("date DESC").
		Find(&bills).Error
	return bills, err
}

// List returns up to limit bills after the cursor in (created_at, id)
// descending order. A zero cursor starts from the newest bill.
func (r *BillRepository) List(ctx context.Context, after Cursor, limit int) ([]models.Bill, error) {
	var bills []models.Bill
	err := after.apply(r.db.WithContext(ctx)).Limit(limit).Find(&bills).Error
	return bills, err
}

// ListBetween returns bills dated in [from, to), newest first.
func (r *BillRepository) ListBetween(ctx context.Context, from, to time.Time) ([]models.Bill, error) {
	var bills []models.Bill
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", from, to).
		Order("date DESC").
		Find(&bills).Error
	return bills, err
}

// PeriodStats aggregates stored totals over a date range.
type PeriodStats struct {
	Count       int64           `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CGSTAmount  decimal.Decimal `json:"cgstAmount"`
	SGSTAmount  decimal.Decimal `json:"sgstAmount"`
	Discount    decimal.Decimal `json:"discount"`
}

func (r *BillRepository) StatsBetween(ctx context.Context, from, to time.Time) (PeriodStats, error) {
	var stats PeriodStats
	err := r.db.WithContext(ctx).Model(&models.Bill{}).
		Where("date >= ? AND date < ?", from, to).
		Select(`COUNT(*) AS count,
			COALESCE(SUM(total_amount), 0) AS total_amount,
			COALESCE(SUM(cgst_amount), 0) AS cgst_amount,
			COALESCE(SUM(sgst_amount), 0) AS sgst_amount,
			COALESCE(SUM(discount), 0) AS discount`).
		Scan(&stats).Error
	return stats, err
}

// Delete removes a bill and reports whether a row existed.
func (r *BillRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.Bill{}, "id = ?", id)
	return result.RowsAffected > 0, result.Error
}
