package documents

import (
	"context"
	"fmt"

	"medbill-backend/internal/apierror"
	"medbill-backend/internal/models"
	"medbill-backend/internal/services/billing"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func (s *Service) CreateQuotation(ctx context.Context, req CreateRequest) (*QuotationResult, error) {
	if len(req.Items) == 0 {
		return nil, apierror.ValidationFields("at least one item is required", map[string]string{
			"items": "required",
		})
	}

	now := s.now()
	date := now.In(s.loc)

	items := make([]models.QuotationItem, len(req.Items))
	calc := make([]billing.Item, len(req.Items))
	fields := make(map[string]string)
	for i, in := range req.Items {
		itemDate := date
		if in.Date != "" {
			parsed, ok := parseItemDate(in.Date, s.loc)
			if !ok {
				fields[fmt.Sprintf("items[%d].date", i)] = "unrecognised date"
			}
			itemDate = parsed
		}
		srNo := in.SrNo
		if srNo <= 0 {
			srNo = i + 1
		}
		items[i] = models.QuotationItem{LineItem: toLineItem(in), Date: itemDate, SrNo: srNo}
		calc[i] = calcItem(items[i].LineItem)
	}
	if len(fields) > 0 {
		return nil, apierror.ValidationFields("invalid line items", fields)
	}

	result, err := billing.Calculate(models.KindQuotation, calc, req.Discount)
	if err != nil {
		return nil, err
	}

	serialNo, err := s.serialFor(ctx, models.KindQuotation, req.Patient.SerialNo)
	if err != nil {
		return nil, err
	}

	q := &models.Quotation{
		ID:        uuid.New(),
		SerialNo:  serialNo,
		Date:      date,
		Patient:   toPatient(req.Patient),
		Items:     items,
		Totals:    result.Totals(),
		CreatedAt: now,
	}
	if err := s.quotations.Create(ctx, q); err != nil {
		return nil, storeError(err, "quotation", "create")
	}

	s.recordAudit(ctx, models.KindQuotation, q.ID, q.SerialNo, models.AuditCreated)

	log.Info().
		Str("serial_no", q.SerialNo).
		Str("total", q.TotalAmount.StringFixed(2)).
		Msg("quotation created")

	return &QuotationResult{Quotation: q, Warnings: result.Warnings()}, nil
}

func (s *Service) GetQuotation(ctx context.Context, id uuid.UUID) (*models.Quotation, error) {
	q, err := s.quotations.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "quotation", "fetch")
	}
	return q, nil
}

func (s *Service) QuotationAutofill(ctx context.Context, serialNo string) (*Autofill[models.QuotationItem], error) {
	q, err := s.quotations.GetBySerial(ctx, serialNo)
	if err != nil {
		return nil, storeError(err, "quotation", "fetch")
	}
	return &Autofill[models.QuotationItem]{
		Patient:     AutofillPatient{Patient: q.Patient, SerialNo: q.SerialNo},
		Items:       q.Items,
		TotalAmount: q.TotalAmount,
		Discount:    q.Discount,
		CGSTAmount:  q.CGSTAmount,
		SGSTAmount:  q.SGSTAmount,
	}, nil
}

func (s *Service) ListQuotations(ctx context.Context, cursor string, limit int) (*Page[models.Quotation], error) {
	after, err := parseCursor(cursor)
	if err != nil {
		return nil, err
	}
	limit = pageSize(limit)

	quotations, err := s.quotations.List(ctx, after, limit+1)
	if err != nil {
		return nil, storeError(err, "quotations", "list")
	}

	page := &Page[models.Quotation]{Items: quotations}
	if len(quotations) > limit {
		page.Items = quotations[:limit]
		page.HasMore = true
	}
	if page.Items == nil {
		page.Items = []models.Quotation{}
	}
	if n := len(page.Items); n > 0 {
		last := page.Items[n-1]
		page.NextCursor = encodeCursor(last.CreatedAt, last.ID)
	}
	return page, nil
}

func (s *Service) VerifyQuotation(ctx context.Context, id uuid.UUID) (*Verification, error) {
	q, err := s.GetQuotation(ctx, id)
	if err != nil {
		return nil, err
	}
	calc := make([]billing.Item, len(q.Items))
	for i, it := range q.Items {
		calc[i] = calcItem(it.LineItem)
	}
	result, err := billing.Calculate(models.KindQuotation, calc, q.Discount)
	if err != nil {
		return nil, err
	}
	return &Verification{
		SerialNo:   q.SerialNo,
		Stored:     q.Totals,
		Recomputed: result.Totals(),
		Consistent: result.Matches(q.Totals),
	}, nil
}

func (s *Service) QuotationPDF(ctx context.Context, id uuid.UUID) (*PDF, error) {
	q, err := s.GetQuotation(ctx, id)
	if err != nil {
		return nil, err
	}
	content, err := s.renderer.RenderQuotation(q)
	if err != nil {
		return nil, fmt.Errorf("render quotation %s: %w", q.SerialNo, err)
	}
	return &PDF{Filename: pdfFilename("", q.SerialNo), Content: content}, nil
}

func (s *Service) DeleteQuotation(ctx context.Context, id uuid.UUID) error {
	q, err := s.GetQuotation(ctx, id)
	if err != nil {
		return err
	}
	deleted, err := s.quotations.Delete(ctx, id)
	if err != nil {
		return storeError(err, "quotation", "delete")
	}
	if !deleted {
		return apierror.NotFound("quotation not found")
	}
	s.recordAudit(ctx, models.KindQuotation, q.ID, q.SerialNo, models.AuditDeleted)
	return nil
}
