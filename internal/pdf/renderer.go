// Package pdf draws A4 tax invoices and quotations with go-pdf/fpdf.
package pdf

import (
	"bytes"
	"fmt"
	"time"

	"medbill-backend/internal/models"
	"medbill-backend/internal/services/billing"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// Shop is the letterhead printed on every document.
type Shop struct {
	Name    string
	Address string
	Contact string
	Email   string
	GST     string
}

type Renderer struct {
	shop Shop
}

func NewRenderer(shop Shop) *Renderer {
	return &Renderer{shop: shop}
}

type row struct {
	date     time.Time
	srNo     int
	product  string
	quantity int
	rate     decimal.Decimal
	amount   decimal.Decimal
}

type document struct {
	title         string
	serialNo      string
	date          time.Time
	patient       models.Patient
	rows          []row
	modeOfPayment string
	totals        models.Totals
}

func (r *Renderer) RenderBill(b *models.Bill) ([]byte, error) {
	doc := document{
		title:         "TAX - INVOICE",
		serialNo:      "INV-" + b.SerialNo,
		date:          b.Date,
		patient:       b.Patient,
		modeOfPayment: b.ModeOfPayment,
		totals:        b.Totals,
	}
	if doc.modeOfPayment == "" {
		doc.modeOfPayment = "Cash"
	}
	for i, it := range b.Items {
		doc.rows = append(doc.rows, lineRow(it, b.Date, i+1))
	}
	return r.render(doc)
}

func (r *Renderer) RenderQuotation(q *models.Quotation) ([]byte, error) {
	doc := document{
		title:    "QUOTATION",
		serialNo: q.SerialNo,
		date:     q.Date,
		patient:  q.Patient,
		totals:   q.Totals,
	}
	for i, it := range q.Items {
		date := it.Date
		if date.IsZero() {
			date = q.Date
		}
		srNo := it.SrNo
		if srNo == 0 {
			srNo = i + 1
		}
		doc.rows = append(doc.rows, lineRow(it.LineItem, date, srNo))
	}
	return r.render(doc)
}

// lineRow prints inclusive prices at their pre-tax base rate.
func lineRow(it models.LineItem, date time.Time, srNo int) row {
	rate := it.UnitPrice
	if it.PriceIncludesGst {
		rate = billing.BasePrice(it.UnitPrice)
	}
	product := it.Description
	if it.Type != "" && it.Type != it.Description {
		product = it.Type + " - " + it.Description
	}
	return row{
		date:     date,
		srNo:     srNo,
		product:  product,
		quantity: it.Quantity,
		rate:     rate,
		amount:   rate.Mul(decimal.NewFromInt(int64(it.Quantity))),
	}
}

func (r *Renderer) render(doc document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 20)
	pdf.SetAutoPageBreak(true, 40)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - 35

	// letterhead
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 8, r.shop.Name, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, r.shop.Address, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("CELL : %s    %s", r.shop.Contact, r.shop.Email), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "GST NO : "+r.shop.GST, "", 1, "L", false, 0, "")
	pdf.Ln(6)

	// title band
	y := pdf.GetY()
	pdf.Line(15, y, pageW-15, y)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 12, doc.title, "", 1, "C", false, 0, "")
	y = pdf.GetY()
	pdf.Line(15, y, pageW-15, y)
	pdf.Ln(6)

	// patient block with serial and date on the right
	top := pdf.GetY()
	pdf.SetFont("Helvetica", "", 10)
	for _, f := range [][2]string{
		{"To :", doc.patient.Name},
		{"Address :", doc.patient.Address},
		{"Contact :", doc.patient.Contact},
		{"Age :", doc.patient.Age},
		{"Sex :", doc.patient.Gender},
	} {
		pdf.CellFormat(20, 6, f[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(90, 6, f[1], "", 1, "L", false, 0, "")
	}
	bottom := pdf.GetY()
	pdf.SetXY(pageW-75, top)
	pdf.CellFormat(20, 6, "S.NO :", "", 0, "L", false, 0, "")
	pdf.CellFormat(40, 6, doc.serialNo, "", 1, "L", false, 0, "")
	pdf.SetX(pageW - 75)
	pdf.CellFormat(20, 6, "Date :", "", 0, "L", false, 0, "")
	pdf.CellFormat(40, 6, doc.date.Format("02/01/2006"), "", 1, "L", false, 0, "")
	pdf.SetY(bottom + 4)

	// items
	widths := []float64{25, 15, 65, 15, 25, 30}
	pdf.SetFont("Helvetica", "B", 9)
	for i, h := range []string{"Date", "S.NO", "Product", "QTY", "Rate", "Amount"} {
		align := "L"
		if i >= 3 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, h, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, rw := range doc.rows {
		product := truncate(rw.product, 40)
		pdf.CellFormat(widths[0], 6, rw.date.Format("02/01/2006"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, fmt.Sprint(rw.srNo), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, product, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 6, fmt.Sprint(rw.quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, rw.rate.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 6, rw.amount.StringFixed(2), "1", 1, "R", false, 0, "")
	}

	// summary
	labelX := 15 + widths[0] + widths[1] + widths[2] + widths[3]
	summary := [][2]string{}
	if doc.modeOfPayment != "" {
		summary = append(summary, [2]string{"Mode of payment", doc.modeOfPayment})
	}
	summary = append(summary,
		[2]string{"Discount (-)", doc.totals.Discount.StringFixed(2)},
		[2]string{"CGST 2.5 % (+)", doc.totals.CGSTAmount.StringFixed(2)},
		[2]string{"SGST 2.5 % (+)", doc.totals.SGSTAmount.StringFixed(2)},
		[2]string{"Total", doc.totals.TotalAmount.StringFixed(2)},
	)
	pdf.SetFont("Helvetica", "B", 9)
	for _, s := range summary {
		pdf.SetX(labelX)
		pdf.CellFormat(widths[4], 6, s[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[5], 6, s[1], "1", 1, "R", false, 0, "")
	}
	pdf.CellFormat(widths[0]+widths[1], 7, "Rs. (In Words)", "1", 0, "L", false, 0, "")
	pdf.CellFormat(contentW-widths[0]-widths[1], 7, doc.totals.AmountInWords, "1", 1, "L", false, 0, "")

	// footer
	pdf.SetFont("Helvetica", "B", 9)
	pdf.Text(pageW-20-pdf.GetStringWidth("For "+r.shop.Name), pageH-55, "For "+r.shop.Name)
	pdf.SetFont("Helvetica", "", 8)
	pdf.Text(15, pageH-30, "- Goods once sold will not be taken back.")
	pdf.Text(15, pageH-25, "- Subject to Hyderabad Jurisdiction")
	pdf.SetFont("Helvetica", "", 9)
	pdf.Text(pageW-20-pdf.GetStringWidth("Authorized Signature"), pageH-20, "Authorized Signature")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render %s: %w", doc.serialNo, err)
	}
	return buf.Bytes(), nil
}

// truncate cuts s longer than n runes to its first n-1 runes plus "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "..."
}
