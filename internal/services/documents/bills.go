package documents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"medbill-backend/internal/apierror"
	"medbill-backend/internal/models"
	"medbill-backend/internal/services/billing"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CreateBill computes totals, assigns a serial number and stores the bill.
// Validation runs before allocation so a rejected request never consumes
// a serial.
func (s *Service) CreateBill(ctx context.Context, req CreateRequest) (*BillResult, error) {
	if len(req.Items) == 0 {
		return nil, apierror.ValidationFields("at least one item is required", map[string]string{
			"items": "required",
		})
	}

	items := make([]models.LineItem, len(req.Items))
	calc := make([]billing.Item, len(req.Items))
	for i, in := range req.Items {
		items[i] = toLineItem(in)
		calc[i] = calcItem(items[i])
	}

	result, err := billing.Calculate(models.KindBill, calc, req.Discount)
	if err != nil {
		return nil, err
	}

	serialNo, err := s.serialFor(ctx, models.KindBill, req.Patient.SerialNo)
	if err != nil {
		return nil, err
	}

	now := s.now()
	bill := &models.Bill{
		ID:            uuid.New(),
		SerialNo:      serialNo,
		Date:          now.In(s.loc),
		Patient:       toPatient(req.Patient),
		Items:         items,
		Totals:        result.Totals(),
		ModeOfPayment: strings.TrimSpace(req.ModeOfPayment),
		CreatedAt:     now,
	}
	if err := s.bills.Create(ctx, bill); err != nil {
		return nil, storeError(err, "bill", "create")
	}

	s.recordAudit(ctx, models.KindBill, bill.ID, bill.SerialNo, models.AuditCreated)

	log.Info().
		Str("serial_no", bill.SerialNo).
		Str("total", bill.TotalAmount.StringFixed(2)).
		Msg("bill created")

	return &BillResult{Bill: bill, Warnings: result.Warnings()}, nil
}

func (s *Service) GetBill(ctx context.Context, id uuid.UUID) (*models.Bill, error) {
	bill, err := s.bills.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "bill", "fetch")
	}
	return bill, nil
}

// BillAutofill returns the stored bill in the shape the entry form prefills from.
func (s *Service) BillAutofill(ctx context.Context, serialNo string) (*Autofill[models.LineItem], error) {
	bill, err := s.bills.GetBySerial(ctx, serialNo)
	if err != nil {
		return nil, storeError(err, "bill", "fetch")
	}
	return &Autofill[models.LineItem]{
		Patient:     AutofillPatient{Patient: bill.Patient, SerialNo: bill.SerialNo},
		Items:       bill.Items,
		TotalAmount: bill.TotalAmount,
		Discount:    bill.Discount,
		CGSTAmount:  bill.CGSTAmount,
		SGSTAmount:  bill.SGSTAmount,
	}, nil
}

// SearchBills matches an exact serial number. No match is an empty result.
func (s *Service) SearchBills(ctx context.Context, serialNo string) ([]models.Bill, error) {
	serialNo = strings.TrimSpace(serialNo)
	if serialNo == "" {
		return nil, apierror.Validation("serialNo is required")
	}
	bills, err := s.bills.FindBySerial(ctx, serialNo)
	if err != nil {
		return nil, storeError(err, "bills", "search")
	}
	if bills == nil {
		bills = []models.Bill{}
	}
	return bills, nil
}

// ListBills pages through bills newest first. The cursor names the last bill
// on the previous page by creation time and id.
func (s *Service) ListBills(ctx context.Context, cursor string, limit int) (*Page[models.Bill], error) {
	after, err := parseCursor(cursor)
	if err != nil {
		return nil, err
	}
	limit = pageSize(limit)

	bills, err := s.bills.List(ctx, after, limit+1)
	if err != nil {
		return nil, storeError(err, "bills", "list")
	}

	page := &Page[models.Bill]{Items: bills}
	if len(bills) > limit {
		page.Items = bills[:limit]
		page.HasMore = true
	}
	if page.Items == nil {
		page.Items = []models.Bill{}
	}
	if n := len(page.Items); n > 0 {
		last := page.Items[n-1]
		page.NextCursor = encodeCursor(last.CreatedAt, last.ID)
	}
	return page, nil
}

// MonthlyBills returns bills dated in the given YYYY-MM month plus totals.
func (s *Service) MonthlyBills(ctx context.Context, month string) (*MonthlyReport, error) {
	start, err := time.ParseInLocation("2006-01", month, s.loc)
	if err != nil {
		return nil, apierror.ValidationFields("invalid month", map[string]string{
			"month": "expected YYYY-MM",
		})
	}
	end := start.AddDate(0, 1, 0)

	bills, err := s.bills.ListBetween(ctx, start, end)
	if err != nil {
		return nil, storeError(err, "bills", "list")
	}
	stats, err := s.bills.StatsBetween(ctx, start, end)
	if err != nil {
		return nil, storeError(err, "bill stats", "compute")
	}
	if bills == nil {
		bills = []models.Bill{}
	}
	return &MonthlyReport{Month: month, Bills: bills, Stats: stats}, nil
}

// VerifyBill recomputes totals from the stored items and discount.
func (s *Service) VerifyBill(ctx context.Context, id uuid.UUID) (*Verification, error) {
	bill, err := s.GetBill(ctx, id)
	if err != nil {
		return nil, err
	}
	calc := make([]billing.Item, len(bill.Items))
	for i, it := range bill.Items {
		calc[i] = calcItem(it)
	}
	result, err := billing.Calculate(models.KindBill, calc, bill.Discount)
	if err != nil {
		return nil, err
	}
	return &Verification{
		SerialNo:   bill.SerialNo,
		Stored:     bill.Totals,
		Recomputed: result.Totals(),
		Consistent: result.Matches(bill.Totals),
	}, nil
}

func (s *Service) BillPDF(ctx context.Context, id uuid.UUID) (*PDF, error) {
	bill, err := s.GetBill(ctx, id)
	if err != nil {
		return nil, err
	}
	content, err := s.renderer.RenderBill(bill)
	if err != nil {
		return nil, fmt.Errorf("render bill %s: %w", bill.SerialNo, err)
	}
	return &PDF{Filename: pdfFilename("INV-", bill.SerialNo), Content: content}, nil
}

func (s *Service) DeleteBill(ctx context.Context, id uuid.UUID) error {
	bill, err := s.GetBill(ctx, id)
	if err != nil {
		return err
	}
	deleted, err := s.bills.Delete(ctx, id)
	if err != nil {
		return storeError(err, "bill", "delete")
	}
	if !deleted {
		return apierror.NotFound("bill not found")
	}
	s.recordAudit(ctx, models.KindBill, bill.ID, bill.SerialNo, models.AuditDeleted)
	return nil
}

// pdfFilename makes a serial safe for Content-Disposition.
func pdfFilename(prefix, serialNo string) string {
	return prefix + strings.ReplaceAll(serialNo, "/", "-") + ".pdf"
}
