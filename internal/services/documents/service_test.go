package documents

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"medbill-backend/internal/apierror"
	"medbill-backend/internal/models"
	"medbill-backend/internal/pdf"
	"medbill-backend/internal/repository"
	"medbill-backend/internal/services/serial"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── in-memory stubs ──────────────────────────────────────────────────────────

type memCounter struct {
	mu   sync.Mutex
	seqs map[string]int64
}

func (c *memCounter) Increment(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seqs[key]++
	return c.seqs[key], nil
}

func (c *memCounter) Current(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seqs[key], nil
}

type memBills struct {
	mu    sync.Mutex
	bills map[uuid.UUID]models.Bill
}

func (m *memBills) Create(_ context.Context, b *models.Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.bills {
		if existing.SerialNo == b.SerialNo {
			return gorm.ErrDuplicatedKey
		}
	}
	m.bills[b.ID] = *b
	return nil
}

func (m *memBills) GetByID(_ context.Context, id uuid.UUID) (*models.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &b, nil
}

func (m *memBills) GetBySerial(ctx context.Context, serialNo string) (*models.Bill, error) {
	found, _ := m.FindBySerial(ctx, serialNo)
	if len(found) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &found[0], nil
}

func (m *memBills) FindBySerial(_ context.Context, serialNo string) ([]models.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Bill
	for _, b := range m.bills {
		if b.SerialNo == serialNo {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memBills) sorted() []models.Bill {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Bill, 0, len(m.bills))
	for _, b := range m.bills {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return olderThan(out[j], out[i].CreatedAt, out[i].ID) })
	return out
}

// olderThan compares like the (created_at, id) row tuple in Postgres.
func olderThan(b models.Bill, createdAt time.Time, id uuid.UUID) bool {
	if !b.CreatedAt.Equal(createdAt) {
		return b.CreatedAt.Before(createdAt)
	}
	return bytes.Compare(b.ID[:], id[:]) < 0
}

func (m *memBills) List(_ context.Context, after repository.Cursor, limit int) ([]models.Bill, error) {
	var out []models.Bill
	for _, b := range m.sorted() {
		if !after.IsZero() && !olderThan(b, after.CreatedAt, after.ID) {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, b)
	}
	return out, nil
}

func (m *memBills) ListBetween(_ context.Context, from, to time.Time) ([]models.Bill, error) {
	var out []models.Bill
	for _, b := range m.sorted() {
		if !b.Date.Before(from) && b.Date.Before(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memBills) StatsBetween(ctx context.Context, from, to time.Time) (repository.PeriodStats, error) {
	bills, _ := m.ListBetween(ctx, from, to)
	var stats repository.PeriodStats
	for _, b := range bills {
		stats.Count++
		stats.TotalAmount = stats.TotalAmount.Add(b.TotalAmount)
		stats.CGSTAmount = stats.CGSTAmount.Add(b.CGSTAmount)
		stats.SGSTAmount = stats.SGSTAmount.Add(b.SGSTAmount)
		stats.Discount = stats.Discount.Add(b.Discount)
	}
	return stats, nil
}

func (m *memBills) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.bills[id]
	delete(m.bills, id)
	return ok, nil
}

type memQuotations struct {
	mu         sync.Mutex
	quotations map[uuid.UUID]models.Quotation
}

func (m *memQuotations) Create(_ context.Context, q *models.Quotation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotations[q.ID] = *q
	return nil
}

func (m *memQuotations) GetByID(_ context.Context, id uuid.UUID) (*models.Quotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &q, nil
}

func (m *memQuotations) GetBySerial(_ context.Context, serialNo string) (*models.Quotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.quotations {
		if q.SerialNo == serialNo {
			return &q, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memQuotations) List(_ context.Context, _ repository.Cursor, limit int) ([]models.Quotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Quotation
	for _, q := range m.quotations {
		if len(out) == limit {
			break
		}
		out = append(out, q)
	}
	return out, nil
}

func (m *memQuotations) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.quotations[id]
	delete(m.quotations, id)
	return ok, nil
}

type memAudit struct {
	mu      sync.Mutex
	entries []models.AuditLog
	err     error
}

func (m *memAudit) Create(_ context.Context, e *models.AuditLog) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memAudit) List(_ context.Context, serialNo string, _ int) ([]models.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AuditLog
	for _, e := range m.entries {
		if serialNo == "" || e.SerialNo == serialNo {
			out = append(out, e)
		}
	}
	return out, nil
}

// ── fixtures ─────────────────────────────────────────────────────────────────

type fixture struct {
	svc        *Service
	counter    *memCounter
	bills      *memBills
	quotations *memQuotations
	audit      *memAudit
	clock      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		counter:    &memCounter{seqs: map[string]int64{}},
		bills:      &memBills{bills: map[uuid.UUID]models.Bill{}},
		quotations: &memQuotations{quotations: map[uuid.UUID]models.Quotation{}},
		audit:      &memAudit{},
		clock:      time.Date(2024, time.May, 10, 9, 30, 0, 0, time.UTC),
	}
	now := func() time.Time {
		f.clock = f.clock.Add(time.Second)
		return f.clock
	}
	alloc := serial.NewAllocator(f.counter, serial.WithClock(func() time.Time { return f.clock }))
	f.svc = NewService(f.bills, f.quotations, f.audit, alloc, pdf.NewRenderer(pdf.Shop{Name: "Test Pharmacy"}), time.UTC)
	f.svc.now = now
	return f
}

func patient() PatientInput {
	return PatientInput{Name: "Asha", Address: "12 MG Road", Contact: "9800000000", Age: "42", Gender: "F"}
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ── tests ────────────────────────────────────────────────────────────────────

func TestCreateBill_AllocatesSerialAndComputesTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.CreateBill(ctx, CreateRequest{
		Patient:  patient(),
		Items:    []ItemInput{{Description: "Syringe", Quantity: 2, Price: d("50")}},
		Discount: d("10"),
	})
	require.NoError(t, err)

	assert.Equal(t, "05/24-00001", res.Bill.SerialNo)
	assert.True(t, d("95").Equal(res.Bill.TotalAmount), "got %s", res.Bill.TotalAmount)
	assert.True(t, d("2.5").Equal(res.Bill.CGSTAmount))
	assert.Equal(t, "Ninety Five Rupees", res.Bill.AmountInWords)
	assert.Empty(t, res.Warnings)

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, models.AuditCreated, f.audit.entries[0].Action)
	assert.Equal(t, res.Bill.SerialNo, f.audit.entries[0].SerialNo)
}

func TestCreateBill_ValidationDoesNotConsumeSerial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateBill(ctx, CreateRequest{
		Patient: patient(),
		Items:   []ItemInput{{Description: "Bad", Quantity: 0, Price: d("10")}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierror.ErrValidation))

	res, err := f.svc.CreateBill(ctx, CreateRequest{
		Patient: patient(),
		Items:   []ItemInput{{Description: "Good", Quantity: 1, Price: d("10")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "05/24-00001", res.Bill.SerialNo)
}

func TestCreateBill_RejectsEmptyItems(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateBill(context.Background(), CreateRequest{Patient: patient()})
	assert.True(t, errors.Is(err, apierror.ErrValidation))
}

func TestCreateBill_ClampedDiscountWarns(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.CreateBill(context.Background(), CreateRequest{
		Patient:  patient(),
		Items:    []ItemInput{{Description: "Gauze", Quantity: 1, Price: d("100"), PriceIncludesGst: true}},
		Discount: d("150"),
	})
	require.NoError(t, err)
	assert.True(t, res.Bill.TotalAmount.IsZero())
	assert.True(t, d("100").Equal(res.Bill.Discount))
	assert.Len(t, res.Warnings, 1)
}

func TestCreateBill_UsesRequestedSerial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	next, err := f.svc.NextSerial(ctx, models.KindBill)
	require.NoError(t, err)

	req := CreateRequest{
		Patient: patient(),
		Items:   []ItemInput{{Description: "Mask", Quantity: 1, Price: d("20")}},
	}
	req.Patient.SerialNo = next
	res, err := f.svc.CreateBill(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, next, res.Bill.SerialNo)

	// same serial again is rejected
	_, err = f.svc.CreateBill(ctx, req)
	assert.True(t, errors.Is(err, apierror.ErrValidation))

	req.Patient.SerialNo = "QT-05/24-00001"
	_, err = f.svc.CreateBill(ctx, req)
	assert.True(t, errors.Is(err, apierror.ErrValidation))
}

func TestCreateBill_RejectsUnissuedSerial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := CreateRequest{
		Patient: patient(),
		Items:   []ItemInput{{Description: "Mask", Quantity: 1, Price: d("20")}},
	}

	// a number the counter has not reached yet
	req.Patient.SerialNo = "05/24-00002"
	_, err := f.svc.CreateBill(ctx, req)
	assert.True(t, errors.Is(err, apierror.ErrValidation))

	// a well-formed serial from another month
	req.Patient.SerialNo = "01/19-00001"
	_, err = f.svc.CreateBill(ctx, req)
	assert.True(t, errors.Is(err, apierror.ErrValidation))

	assert.Empty(t, f.bills.bills)

	// the allocator later hands out 00001 and 00002; both are still usable
	for _, want := range []string{"05/24-00001", "05/24-00002"} {
		next, err := f.svc.NextSerial(ctx, models.KindBill)
		require.NoError(t, err)
		require.Equal(t, want, next)

		req.Patient.SerialNo = next
		res, err := f.svc.CreateBill(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, want, res.Bill.SerialNo)
	}
}

func TestBillAutofill(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.svc.CreateBill(ctx, CreateRequest{
		Patient: patient(),
		Items:   []ItemInput{{Description: "Tablet", Quantity: 1, Price: d("105"), PriceIncludesGst: true}},
	})
	require.NoError(t, err)

	fill, err := f.svc.BillAutofill(ctx, res.Bill.SerialNo)
	require.NoError(t, err)
	assert.Equal(t, res.Bill.SerialNo, fill.Patient.SerialNo)
	assert.Equal(t, "Asha", fill.Patient.Name)
	assert.Len(t, fill.Items, 1)
	assert.True(t, d("105").Equal(fill.TotalAmount))

	_, err = f.svc.BillAutofill(ctx, "01/20-99999")
	assert.True(t, errors.Is(err, apierror.ErrNotFound))
}

func TestSearchBills(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	found, err := f.svc.SearchBills(ctx, "05/24-00042")
	require.NoError(t, err)
	assert.NotNil(t, found)
	assert.Empty(t, found)

	_, err = f.svc.SearchBills(ctx, "  ")
	assert.True(t, errors.Is(err, apierror.ErrValidation))
}

func TestListBills_Paginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.svc.CreateBill(ctx, CreateRequest{
			Patient: patient(),
			Items:   []ItemInput{{Description: "Item", Quantity: 1, Price: d("10")}},
		})
		require.NoError(t, err)
	}

	page, err := f.svc.ListBills(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, "05/24-00003", page.Items[0].SerialNo)

	page, err = f.svc.ListBills(ctx, page.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.False(t, page.HasMore)
	assert.Equal(t, "05/24-00001", page.Items[0].SerialNo)

	_, err = f.svc.ListBills(ctx, "yesterday", 2)
	assert.True(t, errors.Is(err, apierror.ErrValidation))
}

func TestListBills_SharedCreationTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	same := time.Date(2024, time.May, 10, 9, 30, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return same }

	for i := 0; i < 5; i++ {
		_, err := f.svc.CreateBill(ctx, CreateRequest{
			Patient: patient(),
			Items:   []ItemInput{{Description: "Item", Quantity: 1, Price: d("10")}},
		})
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	cursor := ""
	for pages := 0; pages < 10; pages++ {
		page, err := f.svc.ListBills(ctx, cursor, 2)
		require.NoError(t, err)
		for _, b := range page.Items {
			assert.False(t, seen[b.SerialNo], "%s listed twice", b.SerialNo)
			seen[b.SerialNo] = true
		}
		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}
	assert.Len(t, seen, 5)
}

func TestMonthlyBills(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateBill(ctx, CreateRequest{
		Patient: patient(),
		Items:   []ItemInput{{Description: "Item", Quantity: 2, Price: d("50")}},
	})
	require.NoError(t, err)

	report, err := f.svc.MonthlyBills(ctx, "2024-05")
	require.NoError(t, err)
	assert.Len(t, report.Bills, 1)
	assert.EqualValues(t, 1, report.Stats.Count)
	assert.True(t, d("105").Equal(report.Stats.TotalAmount), "got %s", report.Stats.TotalAmount)
	assert.True(t, d("2.5").Equal(report.Stats.CGSTAmount), "got %s", report.Stats.CGSTAmount)

	report, err = f.svc.MonthlyBills(ctx, "2024-06")
	require.NoError(t, err)
	assert.Empty(t, report.Bills)

	_, err = f.svc.MonthlyBills(ctx, "May 2024")
	assert.True(t, errors.Is(err, apierror.ErrValidation))
}

func TestVerifyBill(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.svc.CreateBill(ctx, CreateRequest{
		Patient: patient(),
		Items: []ItemInput{
			{Description: "A", Quantity: 1, Price: d("105"), PriceIncludesGst: true},
			{Description: "B", Quantity: 3, Price: d("33.33")},
		},
		Discount: d("5"),
	})
	require.NoError(t, err)

	v, err := f.svc.VerifyBill(ctx, res.Bill.ID)
	require.NoError(t, err)
	assert.True(t, v.Consistent)

	tampered := f.bills.bills[res.Bill.ID]
	tampered.TotalAmount = tampered.TotalAmount.Add(d("1"))
	f.bills.bills[res.Bill.ID] = tampered

	v, err = f.svc.VerifyBill(ctx, res.Bill.ID)
	require.NoError(t, err)
	assert.False(t, v.Consistent)
}

func TestDeleteBill(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.svc.CreateBill(ctx, CreateRequest{
		Patient: patient(),
		Items:   []ItemInput{{Description: "Item", Quantity: 1, Price: d("10")}},
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteBill(ctx, res.Bill.ID))
	err = f.svc.DeleteBill(ctx, res.Bill.ID)
	assert.True(t, errors.Is(err, apierror.ErrNotFound))

	logs, err := f.svc.AuditLogs(ctx, res.Bill.SerialNo)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.AuditDeleted, logs[1].Action)
}

func TestAuditFailureDoesNotFailCreate(t *testing.T) {
	f := newFixture(t)
	f.audit.err = errors.New("audit table locked")

	_, err := f.svc.CreateBill(context.Background(), CreateRequest{
		Patient: patient(),
		Items:   []ItemInput{{Description: "Item", Quantity: 1, Price: d("10")}},
	})
	assert.NoError(t, err)
}

func TestBillPDF(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.svc.CreateBill(ctx, CreateRequest{
		Patient: patient(),
		Items:   []ItemInput{{Description: "Item", Quantity: 1, Price: d("10")}},
	})
	require.NoError(t, err)

	doc, err := f.svc.BillPDF(ctx, res.Bill.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-05-24-00001.pdf", doc.Filename)
	assert.Equal(t, "%PDF-", string(doc.Content[:5]))

	_, err = f.svc.BillPDF(ctx, uuid.New())
	assert.True(t, errors.Is(err, apierror.ErrNotFound))
}

func TestCreateQuotation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.CreateQuotation(ctx, CreateRequest{
		Patient: patient(),
		Items: []ItemInput{
			{Type: "Surgical", Description: "Stent", Quantity: 1, Price: d("1000"), Date: "2024-05-02"},
			{Type: "Consumable", Description: "Gloves", Quantity: 10, Price: d("15"), SrNo: 7},
		},
	})
	require.NoError(t, err)

	q := res.Quotation
	assert.Equal(t, "QT-05/24-00001", q.SerialNo)
	require.Len(t, q.Items, 2)
	assert.Equal(t, time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC), q.Items[0].Date)
	assert.Equal(t, 1, q.Items[0].SrNo)
	assert.Equal(t, 7, q.Items[1].SrNo)
	assert.True(t, d("1207.5").Equal(q.TotalAmount), "got %s", q.TotalAmount)

	fill, err := f.svc.QuotationAutofill(ctx, q.SerialNo)
	require.NoError(t, err)
	assert.Equal(t, q.SerialNo, fill.Patient.SerialNo)

	v, err := f.svc.VerifyQuotation(ctx, q.ID)
	require.NoError(t, err)
	assert.True(t, v.Consistent)
}

func TestCreateQuotation_RequiresType(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateQuotation(context.Background(), CreateRequest{
		Patient: patient(),
		Items:   []ItemInput{{Description: "Stent", Quantity: 1, Price: d("1000")}},
	})
	var apiErr *apierror.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Contains(t, apiErr.Fields, "items[0].type")
	assert.Empty(t, f.counter.seqs)
}

func TestCreateQuotation_BadItemDate(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateQuotation(context.Background(), CreateRequest{
		Patient: patient(),
		Items:   []ItemInput{{Type: "X", Description: "Y", Quantity: 1, Price: d("1"), Date: "soon"}},
	})
	assert.True(t, errors.Is(err, apierror.ErrValidation))
}

func TestDeleteQuotation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	err := f.svc.DeleteQuotation(ctx, uuid.New())
	assert.True(t, errors.Is(err, apierror.ErrNotFound))
}
