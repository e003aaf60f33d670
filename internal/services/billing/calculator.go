package billing

import (
	"fmt"

	"medbill-backend/internal/apierror"
	"medbill-backend/internal/models"

	"github.com/shopspring/decimal"
)

var (
	CGSTRate = decimal.RequireFromString("0.025")
	SGSTRate = decimal.RequireFromString("0.025")

	gstDivisor = decimal.NewFromInt(1).Add(CGSTRate).Add(SGSTRate)
)

// Item is the part of a line item the totals depend on.
type Item struct {
	Type             string
	Quantity         int
	UnitPrice        decimal.Decimal
	PriceIncludesGst bool
}

// Result holds the figures for one bill or quotation. Money values are
// rounded to two places; Total is rounded after summing unrounded parts.
type Result struct {
	ItemsTotal decimal.Decimal
	CGST       decimal.Decimal
	SGST       decimal.Decimal
	// Discount is the effective discount, never above ItemsTotal.
	Discount        decimal.Decimal
	DiscountClamped bool
	AllInclusive    bool
	Total           decimal.Decimal
	AmountInWords   string
}

// BasePrice strips GST from a tax-inclusive unit price.
func BasePrice(inclusive decimal.Decimal) decimal.Decimal {
	return inclusive.Div(gstDivisor)
}

// Calculate computes item total, CGST, SGST and the grand total.
//
// Tax is folded into the grand total only when at least one item is priced
// exclusive of GST. A batch where every price already includes GST totals
// to itemsTotal minus discount.
func Calculate(kind models.DocumentKind, items []Item, discount decimal.Decimal) (Result, error) {
	if err := validate(kind, items, discount); err != nil {
		return Result{}, err
	}

	itemsTotal := decimal.Zero
	cgst := decimal.Zero
	sgst := decimal.Zero
	allInclusive := true

	for _, it := range items {
		qty := decimal.NewFromInt(int64(it.Quantity))
		taxable := it.UnitPrice
		if it.PriceIncludesGst {
			taxable = BasePrice(it.UnitPrice)
		} else {
			allInclusive = false
		}
		itemsTotal = itemsTotal.Add(it.UnitPrice.Mul(qty))
		cgst = cgst.Add(taxable.Mul(CGSTRate).Mul(qty))
		sgst = sgst.Add(taxable.Mul(SGSTRate).Mul(qty))
	}

	effective := decimal.Min(discount, itemsTotal)

	total := itemsTotal.Sub(effective)
	if !allInclusive {
		total = total.Add(cgst).Add(sgst)
	}
	total = total.Round(2)

	return Result{
		ItemsTotal:      itemsTotal.Round(2),
		CGST:            cgst.Round(2),
		SGST:            sgst.Round(2),
		Discount:        effective.Round(2),
		DiscountClamped: discount.GreaterThan(itemsTotal),
		AllInclusive:    allInclusive,
		Total:           total,
		AmountInWords:   AmountInWords(total),
	}, nil
}

// Totals converts the result to the stored form.
func (r Result) Totals() models.Totals {
	return models.Totals{
		ItemsTotal:    r.ItemsTotal,
		CGSTAmount:    r.CGST,
		SGSTAmount:    r.SGST,
		Discount:      r.Discount,
		TotalAmount:   r.Total,
		AmountInWords: r.AmountInWords,
	}
}

// Warnings lists non-fatal adjustments made while calculating.
func (r Result) Warnings() []string {
	if !r.DiscountClamped {
		return nil
	}
	return []string{fmt.Sprintf("discount cannot exceed the total bill amount; applied %s", r.Discount.StringFixed(2))}
}

// Matches reports whether stored totals agree with this result.
func (r Result) Matches(t models.Totals) bool {
	return r.ItemsTotal.Equal(t.ItemsTotal) &&
		r.CGST.Equal(t.CGSTAmount) &&
		r.SGST.Equal(t.SGSTAmount) &&
		r.Discount.Equal(t.Discount) &&
		r.Total.Equal(t.TotalAmount)
}

func validate(kind models.DocumentKind, items []Item, discount decimal.Decimal) error {
	fields := make(map[string]string)
	for i, it := range items {
		if it.Quantity <= 0 {
			fields[fmt.Sprintf("items[%d].quantity", i)] = "must be at least 1"
		}
		if !it.UnitPrice.IsPositive() {
			fields[fmt.Sprintf("items[%d].price", i)] = "must be greater than 0"
		}
		if kind == models.KindQuotation && it.Type == "" {
			fields[fmt.Sprintf("items[%d].type", i)] = "required"
		}
	}
	if discount.IsNegative() {
		fields["discount"] = "must not be negative"
	}
	if len(fields) > 0 {
		return apierror.ValidationFields("invalid line items", fields)
	}
	return nil
}
