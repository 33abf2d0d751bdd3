package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tadweer/internal/domain"
	"tadweer/internal/orders"
)

// FieldErrors maps field names to inline validation messages. An empty map
// means the step passed.
type FieldErrors map[string]string

// ErrNotReady is returned when Submit is attempted before the final data
// step or after the form already submitted.
var ErrNotReady = errors.New("form is not on its final step")

const orderFormSteps = 3

// OrderForm is the company-side purchase order flow: volume, date, location,
// then submit. Only Submit touches shared state.
type OrderForm struct {
	step      int
	submitted bool
	closed    bool

	Volume         string
	CollectionDate string
	Location       *domain.Location

	volumes []string
	now     func() time.Time
}

// NewOrderForm starts at step 1. allowedVolumes come from config; an empty
// list accepts any non-empty volume.
func NewOrderForm(allowedVolumes []string, now func() time.Time) *OrderForm {
	if now == nil {
		now = time.Now
	}
	return &OrderForm{step: 1, volumes: allowedVolumes, now: now}
}

func (f *OrderForm) Step() int { return f.step }

func (f *OrderForm) Submitted() bool { return f.submitted }

func (f *OrderForm) Closed() bool { return f.closed }

func (f *OrderForm) FinalStep() bool { return f.step == orderFormSteps }

// SetLocation records a resolved pick; nil clears it.
func (f *OrderForm) SetLocation(loc *domain.Location) {
	f.Location = loc
}

func (f *OrderForm) validateStep() FieldErrors {
	errs := FieldErrors{}
	switch f.step {
	case 1:
		if f.Volume == "" {
			errs["volume"] = "Please select a volume"
		} else if len(f.volumes) > 0 && !contains(f.volumes, f.Volume) {
			errs["volume"] = fmt.Sprintf("Volume must be one of %v", f.volumes)
		}
	case 2:
		if msg := validateFutureDate(f.CollectionDate, f.now()); msg != "" {
			errs["collectionDate"] = msg
		}
	case 3:
		if f.Location == nil || f.Location.Address == "" {
			errs["location"] = "Please pick a collection location"
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Next advances one step if the current step validates; otherwise the step
// is unchanged and the field errors are returned.
func (f *OrderForm) Next() FieldErrors {
	if f.closed || f.submitted || f.step >= orderFormSteps {
		return nil
	}
	if errs := f.validateStep(); errs != nil {
		return errs
	}
	f.step++
	return nil
}

// Back moves one step backward, keeping every entered value.
func (f *OrderForm) Back() {
	if !f.closed && !f.submitted && f.step > 1 {
		f.step--
	}
}

// Submit validates the final step and creates the order. It is the single
// point where the store is mutated.
func (f *OrderForm) Submit(ctx context.Context, store *orders.Store) (domain.Order, FieldErrors, error) {
	if f.closed || f.submitted || f.step != orderFormSteps {
		return domain.Order{}, nil, ErrNotReady
	}
	if errs := f.validateStep(); errs != nil {
		return domain.Order{}, errs, nil
	}
	if err := ctx.Err(); err != nil {
		return domain.Order{}, nil, err
	}
	o, err := store.Create(ctx, orders.OrderInput{
		Volume:         f.Volume,
		CollectionDate: f.CollectionDate,
		Location:       *f.Location,
	})
	if err != nil {
		return domain.Order{}, nil, err
	}
	f.submitted = true
	return o, nil, nil
}

// Close discards the form state and hands control back to the caller; every
// later transition is a no-op.
func (f *OrderForm) Close() {
	*f = OrderForm{closed: true, volumes: f.volumes, now: f.now}
}

// Restart clears every field and returns to step 1 within the same session.
func (f *OrderForm) Restart() {
	if f.closed {
		return
	}
	*f = OrderForm{step: 1, volumes: f.volumes, now: f.now}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// validateFutureDate checks an ISO date that must not be in the past.
func validateFutureDate(value string, now time.Time) string {
	if value == "" {
		return "Please select a date"
	}
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		return "Date must be YYYY-MM-DD"
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if d.Before(today) {
		return "Please select a future date"
	}
	return ""
}
