package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medbill-backend/internal/apierror"
	"medbill-backend/internal/models"
	"medbill-backend/internal/pdf"
	"medbill-backend/internal/repository"
	"medbill-backend/internal/services/billing"
	"medbill-backend/internal/services/serial"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 100
	maxPageSize     = 100
)

type BillStore interface {
	Create(ctx context.Context, bill *models.Bill) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Bill, error)
	GetBySerial(ctx context.Context, serialNo string) (*models.Bill, error)
	FindBySerial(ctx context.Context, serialNo string) ([]models.Bill, error)
	List(ctx context.Context, after repository.Cursor, limit int) ([]models.Bill, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]models.Bill, error)
	StatsBetween(ctx context.Context, from, to time.Time) (repository.PeriodStats, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type QuotationStore interface {
	Create(ctx context.Context, q *models.Quotation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Quotation, error)
	GetBySerial(ctx context.Context, serialNo string) (*models.Quotation, error)
	List(ctx context.Context, after repository.Cursor, limit int) ([]models.Quotation, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type AuditStore interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, serialNo string, limit int) ([]models.AuditLog, error)
}

// Service creates, looks up and removes bills and quotations.
type Service struct {
	bills      BillStore
	quotations QuotationStore
	audit      AuditStore
	allocator  *serial.Allocator
	renderer   *pdf.Renderer
	loc        *time.Location
	now        func() time.Time
}

func NewService(
	bills BillStore,
	quotations QuotationStore,
	audit AuditStore,
	allocator *serial.Allocator,
	renderer *pdf.Renderer,
	loc *time.Location,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		bills:      bills,
		quotations: quotations,
		audit:      audit,
		allocator:  allocator,
		renderer:   renderer,
		loc:        loc,
		now:        time.Now,
	}
}

func (s *Service) NextSerial(ctx context.Context, kind models.DocumentKind) (string, error) {
	serialNo, err := s.allocator.AllocateNext(ctx, kind)
	if err != nil {
		log.Error().Err(err).Str("kind", string(kind)).Msg("serial allocation failed")
		return "", err
	}
	return serialNo, nil
}

// AuditLogs returns the newest audit entries, optionally for one serial.
func (s *Service) AuditLogs(ctx context.Context, serialNo string) ([]models.AuditLog, error) {
	entries, err := s.audit.List(ctx, serialNo, defaultPageSize)
	if err != nil {
		return nil, apierror.Persistence("failed to fetch audit logs", err)
	}
	return entries, nil
}

// serialFor uses the caller's serial when one was fetched beforehand,
// otherwise allocates a fresh one. A caller's serial must be one the
// allocator already handed out this month.
func (s *Service) serialFor(ctx context.Context, kind models.DocumentKind, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return s.NextSerial(ctx, kind)
	}
	if !serial.Valid(kind, requested) {
		return "", apierror.ValidationFields("invalid serial number", map[string]string{
			"patient.serialNo": fmt.Sprintf("%q is not a %s serial number", requested, kind),
		})
	}
	issued, err := s.allocator.Issued(ctx, kind, requested)
	if err != nil {
		return "", err
	}
	if !issued {
		return "", apierror.ValidationFields("invalid serial number", map[string]string{
			"patient.serialNo": fmt.Sprintf("%q was not issued for this month", requested),
		})
	}
	return requested, nil
}

func (s *Service) recordAudit(ctx context.Context, kind models.DocumentKind, id uuid.UUID, serialNo, action string) {
	entry := &models.AuditLog{
		ID:           uuid.New(),
		DocumentKind: kind,
		DocumentID:   id,
		SerialNo:     serialNo,
		Action:       action,
		CreatedAt:    s.now(),
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		// the record change already happened; the missing audit row is logged, not retried
		log.Error().Err(err).
			Str("serial_no", serialNo).
			Str("action", action).
			Msg("failed to write audit log")
	}
}

func toPatient(in PatientInput) models.Patient {
	return models.Patient{
		Name:    strings.TrimSpace(in.Name),
		Address: strings.TrimSpace(in.Address),
		Contact: strings.TrimSpace(in.Contact),
		Age:     strings.TrimSpace(in.Age),
		Gender:  strings.TrimSpace(in.Gender),
	}
}

func toLineItem(in ItemInput) models.LineItem {
	return models.LineItem{
		Type:             strings.TrimSpace(in.Type),
		Description:      in.Description,
		Quantity:         in.Quantity,
		UnitPrice:        in.Price,
		PriceIncludesGst: in.PriceIncludesGst,
		Amount:           in.Price.Mul(decimal.NewFromInt(int64(in.Quantity))),
	}
}

func calcItem(it models.LineItem) billing.Item {
	return billing.Item{
		Type:             it.Type,
		Quantity:         it.Quantity,
		UnitPrice:        it.UnitPrice,
		PriceIncludesGst: it.PriceIncludesGst,
	}
}

func parseItemDate(raw string, loc *time.Location) (time.Time, bool) {
	for _, layout := range itemDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Cursors are "<created_at RFC 3339 UTC>_<id>". The UTC form keeps '+'
// out of query strings.
func encodeCursor(createdAt time.Time, id uuid.UUID) string {
	return createdAt.UTC().Format(time.RFC3339Nano) + "_" + id.String()
}

func parseCursor(cursor string) (repository.Cursor, error) {
	if cursor == "" {
		return repository.Cursor{}, nil
	}
	ts, rawID, ok := strings.Cut(cursor, "_")
	if !ok {
		return repository.Cursor{}, apierror.Validation("invalid cursor")
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return repository.Cursor{}, apierror.Validation("invalid cursor")
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return repository.Cursor{}, apierror.Validation("invalid cursor")
	}
	return repository.Cursor{CreatedAt: t, ID: id}, nil
}

func pageSize(limit int) int {
	if limit <= 0 || limit > maxPageSize {
		return defaultPageSize
	}
	return limit
}

// storeError maps repository errors onto the API taxonomy.
func storeError(err error, what, op string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apierror.NotFound(what + " not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apierror.ValidationFields("serial number already used", map[string]string{
			"patient.serialNo": "already used",
		})
	default:
		return apierror.Persistence(fmt.Sprintf("failed to %s %s", op, what), err)
	}
}
