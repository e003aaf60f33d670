package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// amounts go over the wire as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

type DocumentKind string

const (
	KindBill      DocumentKind = "bill"
	KindQuotation DocumentKind = "quotation"
)

// Patient is copied onto each record at creation time.
type Patient struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Contact string `json:"contact"`
	Age     string `json:"age"`
	Gender  string `json:"gender"`
}

// LineItem is embedded in a record's items column, never stored on its own.
type LineItem struct {
	Type             string          `json:"type,omitempty"`
	Description      string          `json:"description"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"price"`
	PriceIncludesGst bool            `json:"isPriceInclGst"`
	Amount           decimal.Decimal `json:"amount"`
}

type QuotationItem struct {
	LineItem
	Date time.Time `json:"date"`
	SrNo int       `json:"srNo"`
}

// Totals are the calculator's figures as stored on a record.
type Totals struct {
	ItemsTotal    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"itemsTotal"`
	CGSTAmount    decimal.Decimal `gorm:"column:cgst_amount;type:numeric(14,2);not null" json:"cgstAmount"`
	SGSTAmount    decimal.Decimal `gorm:"column:sgst_amount;type:numeric(14,2);not null" json:"sgstAmount"`
	Discount      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"discount"`
	TotalAmount   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"totalAmount"`
	AmountInWords string          `gorm:"not null" json:"amountInWords"`
}
