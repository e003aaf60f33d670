package serial

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"medbill-backend/internal/apierror"
	"medbill-backend/internal/models"
)

const (
	quotationPrefix = "QT-"
	seqWidth        = 5
)

var (
	billPattern      = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}-\d{5,}$`)
	quotationPattern = regexp.MustCompile(`^QT-(0[1-9]|1[0-2])/\d{2}-\d{5,}$`)
)

// CounterStore performs the single atomic upsert-and-increment the allocator
// relies on. Increment must create an absent key at 1 in the same step.
// Current reads the last value handed out, 0 for an absent key.
type CounterStore interface {
	Increment(ctx context.Context, key string) (int64, error)
	Current(ctx context.Context, key string) (int64, error)
}

type Allocator struct {
	store CounterStore
	now   func() time.Time
}

type Option func(*Allocator)

// WithClock overrides the time source used to pick the month prefix.
func WithClock(now func() time.Time) Option {
	return func(a *Allocator) { a.now = now }
}

// InLocation computes prefixes from wall time in loc.
func InLocation(loc *time.Location) Option {
	return func(a *Allocator) {
		a.now = func() time.Time { return time.Now().In(loc) }
	}
}

func NewAllocator(store CounterStore, opts ...Option) *Allocator {
	a := &Allocator{store: store, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Prefix returns "MM/YY-" for bills and "QT-MM/YY-" for quotations.
func Prefix(kind models.DocumentKind, t time.Time) string {
	p := t.Format("01/06-")
	if kind == models.KindQuotation {
		return quotationPrefix + p
	}
	return p
}

// Format joins a prefix and a sequence value, padding to five digits.
func Format(prefix string, seq int64) string {
	return fmt.Sprintf("%s%0*d", prefix, seqWidth, seq)
}

// AllocateNext hands out the next serial for kind in the current month.
// There is no fallback: if the store cannot increment, the call fails.
func (a *Allocator) AllocateNext(ctx context.Context, kind models.DocumentKind) (string, error) {
	if kind != models.KindBill && kind != models.KindQuotation {
		return "", apierror.Validation(fmt.Sprintf("unknown document kind %q", kind))
	}

	prefix := Prefix(kind, a.now())
	seq, err := a.store.Increment(ctx, prefix)
	if err != nil {
		return "", apierror.Allocation(err)
	}
	return Format(prefix, seq), nil
}

// Issued reports whether serialNo was handed out by AllocateNext for kind in
// the current month. Serials from other months or beyond the counter are not.
func (a *Allocator) Issued(ctx context.Context, kind models.DocumentKind, serialNo string) (bool, error) {
	if !Valid(kind, serialNo) {
		return false, nil
	}
	prefix := Prefix(kind, a.now())
	if !strings.HasPrefix(serialNo, prefix) {
		return false, nil
	}
	seq, err := strconv.ParseInt(strings.TrimPrefix(serialNo, prefix), 10, 64)
	if err != nil || seq < 1 {
		return false, nil
	}
	current, err := a.store.Current(ctx, prefix)
	if err != nil {
		return false, apierror.Allocation(err)
	}
	return seq <= current, nil
}

// Valid reports whether serialNo has the shape of a serial for kind.
func Valid(kind models.DocumentKind, serialNo string) bool {
	if kind == models.KindQuotation {
		return quotationPattern.MatchString(serialNo)
	}
	return billPattern.MatchString(serialNo)
}
