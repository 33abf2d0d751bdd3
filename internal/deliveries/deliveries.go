// Package deliveries derives tracking views from scheduled orders. The
// progression is simulated from wall-clock distance to the ETA; nothing
// here talks to a real fleet.
package deliveries

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"tadweer/internal/domain"
	"tadweer/internal/orders"
)

// transitWindow is how long before the ETA a delivery reads as in transit.
const transitWindow = 2 * time.Hour

type Tracker struct {
	Store   *orders.Store
	Drivers []domain.Driver
	Now     func() time.Time
}

func New(store *orders.Store, drivers []domain.Driver) *Tracker {
	return &Tracker{Store: store, Drivers: drivers, Now: time.Now}
}

func (t *Tracker) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

// driverFor picks a stable driver for an order so repeated renders agree.
func (t *Tracker) driverFor(orderID string) domain.Driver {
	if len(t.Drivers) == 0 {
		return domain.Driver{Name: "Unassigned"}
	}
	h := fnv.New32a()
	h.Write([]byte(orderID))
	return t.Drivers[int(h.Sum32())%len(t.Drivers)]
}

// Schedule moves a pending order into the delivery flow: assigns a driver,
// stamps an ETA on the collection date, and marks the order scheduled.
func (t *Tracker) Schedule(ctx context.Context, orderID string) (domain.Order, error) {
	o, ok := t.Store.GetByID(orderID)
	if !ok {
		return domain.Order{}, fmt.Errorf("order %s not found", orderID)
	}
	driver := t.driverFor(orderID)
	eta := o.EstimatedTime
	if eta == "" {
		if d, err := time.Parse("2006-01-02", o.CollectionDate); err == nil {
			eta = d.Add(14 * time.Hour).UTC().Format(time.RFC3339)
		}
	}
	t.Store.Update(ctx, orderID, orders.OrderPatch{
		AssignedDriver: &driver.Name,
		EstimatedTime:  &eta,
	})
	if res := t.Store.UpdateStatus(ctx, orderID, domain.StatusScheduled, "pickup scheduled, driver "+driver.Name); res != orders.Updated {
		return domain.Order{}, fmt.Errorf("order %s not found", orderID)
	}
	o, _ = t.Store.GetByID(orderID)
	return o, nil
}

// List renders a delivery view for every order in the delivery flow.
func (t *Tracker) List() []domain.Delivery {
	var out []domain.Delivery
	for _, o := range t.Store.List() {
		if o.Status != domain.StatusScheduled && o.Status != domain.StatusCompleted {
			continue
		}
		out = append(out, t.view(o))
	}
	return out
}

// Get returns the delivery view for one order.
func (t *Tracker) Get(orderID string) (domain.Delivery, bool) {
	o, ok := t.Store.GetByID(orderID)
	if !ok || (o.Status != domain.StatusScheduled && o.Status != domain.StatusCompleted) {
		return domain.Delivery{}, false
	}
	return t.view(o), true
}

func (t *Tracker) view(o domain.Order) domain.Delivery {
	d := domain.Delivery{
		OrderID:          o.ID,
		Volume:           o.Volume,
		Destination:      o.Location,
		EstimatedArrival: o.EstimatedTime,
		Driver:           t.driverFor(o.ID),
	}
	if o.AssignedDriver != "" {
		d.Driver.Name = o.AssignedDriver
	}
	d.Status, d.Progress = t.progress(o)
	return d
}

func (t *Tracker) progress(o domain.Order) (string, int) {
	if o.Status == domain.StatusCompleted {
		return domain.DeliveryDelivered, 100
	}
	eta, err := time.Parse(time.RFC3339, o.EstimatedTime)
	if err != nil {
		return domain.DeliveryScheduled, 0
	}
	now := t.now()
	if now.After(eta) {
		return domain.DeliveryDelayed, 95
	}
	remaining := eta.Sub(now)
	if remaining > transitWindow {
		return domain.DeliveryScheduled, 0
	}
	pct := int(float64(transitWindow-remaining) / float64(transitWindow) * 90)
	return domain.DeliveryInTransit, pct
}
