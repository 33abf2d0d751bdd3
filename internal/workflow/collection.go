package workflow

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cast"

	"tadweer/internal/domain"
	"tadweer/internal/orders"
)

var phoneRegex = regexp.MustCompile(`^\+?[\d\s-]{8,}$`)

const collectionSteps = 2

// CollectionRequest is the customer-side pickup flow: container details and
// contact first, then schedule and location, then a confirmation screen.
type CollectionRequest struct {
	step      int
	submitted bool
	closed    bool

	ContainerSize string
	Quantity      string
	Phone         string
	Date          string
	TimeSlot      string
	Location      *domain.Location
	Notes         string

	sizes []string
	slots []string
	now   func() time.Time
}

// NewCollectionRequest starts at step 1 with the configured container sizes
// and time slots.
func NewCollectionRequest(sizes, slots []string, now func() time.Time) *CollectionRequest {
	if now == nil {
		now = time.Now
	}
	return &CollectionRequest{step: 1, sizes: sizes, slots: slots, now: now}
}

func (f *CollectionRequest) Step() int { return f.step }

func (f *CollectionRequest) Submitted() bool { return f.submitted }

func (f *CollectionRequest) Closed() bool { return f.closed }

func (f *CollectionRequest) SetLocation(loc *domain.Location) {
	f.Location = loc
}

func (f *CollectionRequest) validateStep() FieldErrors {
	errs := FieldErrors{}
	switch f.step {
	case 1:
		if f.ContainerSize == "" {
			errs["containerSize"] = "Please select a container size"
		} else if len(f.sizes) > 0 && !contains(f.sizes, f.ContainerSize) {
			errs["containerSize"] = fmt.Sprintf("Container size must be one of %v", f.sizes)
		}
		if f.Quantity == "" {
			errs["quantity"] = "Please enter the quantity"
		} else if qty, err := cast.ToIntE(f.Quantity); err != nil || qty <= 0 {
			errs["quantity"] = "Quantity must be greater than 0"
		}
		if f.Phone == "" {
			errs["phone"] = "Please enter your phone number"
		} else if !phoneRegex.MatchString(f.Phone) {
			errs["phone"] = "Please enter a valid phone number"
		}
	case 2:
		if msg := validateFutureDate(f.Date, f.now()); msg != "" {
			errs["date"] = msg
		}
		if f.TimeSlot == "" {
			errs["time"] = "Please select a time slot"
		} else if len(f.slots) > 0 && !contains(f.slots, f.TimeSlot) {
			errs["time"] = "Please pick one of the offered time slots"
		}
		if f.Location == nil || f.Location.Address == "" {
			errs["location"] = "Please enter your location"
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Next advances one step if the current step validates.
func (f *CollectionRequest) Next() FieldErrors {
	if f.closed || f.submitted || f.step >= collectionSteps {
		return nil
	}
	if errs := f.validateStep(); errs != nil {
		return errs
	}
	f.step++
	return nil
}

// Back moves one step backward, keeping every entered value.
func (f *CollectionRequest) Back() {
	if !f.closed && !f.submitted && f.step > 1 {
		f.step--
	}
}

// totalVolume folds quantity and container size into one descriptor, so
// three 10L containers become "30L".
func (f *CollectionRequest) totalVolume() string {
	size, err := cast.ToIntE(strings.TrimSuffix(f.ContainerSize, "L"))
	if err != nil {
		return f.ContainerSize
	}
	qty := cast.ToInt(f.Quantity)
	return fmt.Sprintf("%dL", size*qty)
}

// Submit validates the schedule step, creates the order, then attaches the
// customer details the store only accepts via update.
func (f *CollectionRequest) Submit(ctx context.Context, store *orders.Store) (domain.Order, FieldErrors, error) {
	if f.closed || f.submitted || f.step != collectionSteps {
		return domain.Order{}, nil, ErrNotReady
	}
	if errs := f.validateStep(); errs != nil {
		return domain.Order{}, errs, nil
	}
	if err := ctx.Err(); err != nil {
		return domain.Order{}, nil, err
	}
	o, err := store.Create(ctx, orders.OrderInput{
		Volume:         f.totalVolume(),
		CollectionDate: f.Date,
		Location:       *f.Location,
	})
	if err != nil {
		return domain.Order{}, nil, err
	}
	customerNotes := f.customerNotes()
	store.Update(ctx, o.ID, orders.OrderPatch{CustomerNotes: &customerNotes})
	o, _ = store.GetByID(o.ID)
	f.submitted = true
	return o, nil, nil
}

func (f *CollectionRequest) customerNotes() string {
	parts := []string{
		fmt.Sprintf("%s x %s, contact %s", f.Quantity, f.ContainerSize, f.Phone),
		"Preferred slot: " + f.TimeSlot,
	}
	if f.Notes != "" {
		parts = append(parts, f.Notes)
	}
	return strings.Join(parts, "\n")
}

// Close discards the form state and hands control back to the caller; every
// later transition is a no-op.
func (f *CollectionRequest) Close() {
	*f = CollectionRequest{closed: true, sizes: f.sizes, slots: f.slots, now: f.now}
}

// Restart clears every field and returns to step 1 within the same session.
func (f *CollectionRequest) Restart() {
	if f.closed {
		return
	}
	*f = CollectionRequest{step: 1, sizes: f.sizes, slots: f.slots, now: f.now}
}
