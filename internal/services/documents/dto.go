package documents

import (
	"time"

	"medbill-backend/internal/models"
	"medbill-backend/internal/repository"

	"github.com/shopspring/decimal"
)

type PatientInput struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
	Contact string `json:"contact" validate:"required"`
	Age     string `json:"age" validate:"required"`
	Gender  string `json:"gender" validate:"required"`
	// SerialNo is optional; when empty the server allocates one.
	SerialNo string `json:"serialNo"`
}

type ItemInput struct {
	Type             string          `json:"type"`
	Description      string          `json:"description"`
	Quantity         int             `json:"quantity"`
	Price            decimal.Decimal `json:"price"`
	PriceIncludesGst bool            `json:"isPriceInclGst"`
	// Date and SrNo are only kept on quotation items. Date accepts
	// RFC 3339, YYYY-MM-DD or DD/MM/YYYY.
	Date string `json:"date"`
	SrNo int    `json:"srNo"`
}

// CreateRequest is the body of a bill or quotation POST. Totals are always
// computed server-side.
type CreateRequest struct {
	Patient       PatientInput    `json:"patient"`
	Items         []ItemInput     `json:"items" validate:"required,min=1"`
	Discount      decimal.Decimal `json:"discount" validate:"gte=0"`
	ModeOfPayment string          `json:"modeOfPayment"`
}

type BillResult struct {
	Bill     *models.Bill `json:"bill"`
	Warnings []string     `json:"warnings,omitempty"`
}

type QuotationResult struct {
	Quotation *models.Quotation `json:"quotation"`
	Warnings  []string          `json:"warnings,omitempty"`
}

type AutofillPatient struct {
	models.Patient
	SerialNo string `json:"serialNo"`
}

// Autofill is the by-serial lookup shape used to prefill the entry form.
type Autofill[T any] struct {
	Patient     AutofillPatient `json:"patient"`
	Items       []T             `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Discount    decimal.Decimal `json:"discount"`
	CGSTAmount  decimal.Decimal `json:"cgstAmount"`
	SGSTAmount  decimal.Decimal `json:"sgstAmount"`
}

type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor"`
	HasMore    bool   `json:"has_more"`
}

type MonthlyReport struct {
	Month string                 `json:"month"`
	Bills []models.Bill          `json:"bills"`
	Stats repository.PeriodStats `json:"stats"`
}

type Verification struct {
	SerialNo   string        `json:"serialNo"`
	Stored     models.Totals `json:"stored"`
	Recomputed models.Totals `json:"recomputed"`
	Consistent bool          `json:"consistent"`
}

// PDF is a rendered document ready to stream.
type PDF struct {
	Filename string
	Content  []byte
}

var itemDateLayouts = []string{time.RFC3339, "2006-01-02", "02/01/2006"}
