// Package orders owns the canonical order list. All reads and writes go
// through Store; every mutation persists a full snapshot to durable storage
// and notifies subscribers.
package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tadweer/internal/domain"
	"tadweer/internal/events"
	"tadweer/internal/storage"
)

// StorageKey is the fixed durable-storage key the snapshot lives under.
const StorageKey = "tadweer_orders"

// OrderInput is what a workflow hands over after validation. ID, status and
// timestamps are owned by the store.
type OrderInput struct {
	Volume         string
	CollectionDate string
	Location       domain.Location
}

// OrderPatch carries a partial update; nil fields are left untouched.
type OrderPatch struct {
	Volume         *string
	CollectionDate *string
	Location       *domain.Location
	Status         *string
	Notes          *string
	CustomerNotes  *string
	EstimatedTime  *string
	AssignedDriver *string
}

// UpdateResult reports whether a mutation matched an order. A missing id is
// not an error; callers that want strict handling check for NotFound.
type UpdateResult int

const (
	Updated UpdateResult = iota
	NotFound
)

type Store struct {
	mu      sync.RWMutex
	orders  []domain.Order
	kv      storage.KV
	events  events.Writer
	log     *zap.Logger
	subs    map[int]func([]domain.Order)
	nextSub int

	Now     func() time.Time
	ActorID string
}

// New builds a store and rehydrates it from the durable key. Read or parse
// failure degrades to an empty list; the application must come up regardless
// of what is on disk.
func New(ctx context.Context, kv storage.KV, ev events.Writer, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		kv:      kv,
		events:  ev,
		log:     log,
		subs:    map[int]func([]domain.Order){},
		Now:     time.Now,
		ActorID: "local-user",
	}
	raw, err := kv.ReadKey(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warn("loading orders snapshot failed, starting empty", zap.Error(err))
		}
		return s
	}
	var saved []domain.Order
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		log.Warn("orders snapshot unreadable, starting empty", zap.Error(err))
		return s
	}
	s.orders = saved
	return s
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func newOrderID() string {
	return "ORD-" + strings.ToUpper(uuid.New().String())
}

// Create validates structural shape only; business rules belong to the
// calling workflow. The new order is prepended so the list stays
// newest-first.
func (s *Store) Create(ctx context.Context, in OrderInput) (domain.Order, error) {
	if in.Volume == "" {
		return domain.Order{}, fmt.Errorf("volume is required")
	}
	if in.CollectionDate == "" {
		return domain.Order{}, fmt.Errorf("collection date is required")
	}
	if in.Location.Address == "" {
		return domain.Order{}, fmt.Errorf("location with address is required")
	}
	now := s.now().UTC().Format(time.RFC3339Nano)
	o := domain.Order{
		ID:             newOrderID(),
		Volume:         in.Volume,
		CollectionDate: in.CollectionDate,
		Location:       in.Location,
		Status:         domain.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	s.mu.Lock()
	s.orders = append([]domain.Order{o}, s.orders...)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.appendEvent(ctx, "order.created", o.ID, events.EventPayload{"volume": o.Volume, "status": o.Status})
	s.notify()
	return o, nil
}

// UpdateStatus sets the order status and optionally appends a note. The
// status graph is deliberately unrestricted; any status may follow any
// other.
func (s *Store) UpdateStatus(ctx context.Context, id, status, note string) UpdateResult {
	var from string
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return NotFound
	}
	o := &s.orders[idx]
	from = o.Status
	o.Status = status
	if note != "" {
		if o.Notes != "" {
			o.Notes += "\n"
		}
		o.Notes += note
	}
	o.UpdatedAt = s.now().UTC().Format(time.RFC3339Nano)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.appendEvent(ctx, "order.status.changed", id, events.EventPayload{"from": from, "to": status})
	s.notify()
	return Updated
}

// Update merges a partial patch into the matched order.
func (s *Store) Update(ctx context.Context, id string, patch OrderPatch) UpdateResult {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return NotFound
	}
	o := &s.orders[idx]
	if patch.Volume != nil {
		o.Volume = *patch.Volume
	}
	if patch.CollectionDate != nil {
		o.CollectionDate = *patch.CollectionDate
	}
	if patch.Location != nil {
		o.Location = *patch.Location
	}
	if patch.Status != nil {
		o.Status = *patch.Status
	}
	if patch.Notes != nil {
		o.Notes = *patch.Notes
	}
	if patch.CustomerNotes != nil {
		o.CustomerNotes = *patch.CustomerNotes
	}
	if patch.EstimatedTime != nil {
		o.EstimatedTime = *patch.EstimatedTime
	}
	if patch.AssignedDriver != nil {
		o.AssignedDriver = *patch.AssignedDriver
	}
	o.UpdatedAt = s.now().UTC().Format(time.RFC3339Nano)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.appendEvent(ctx, "order.updated", id, nil)
	s.notify()
	return Updated
}

// Delete removes the matched order.
func (s *Store) Delete(ctx context.Context, id string) UpdateResult {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return NotFound
	}
	s.orders = append(s.orders[:idx], s.orders[idx+1:]...)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.appendEvent(ctx, "order.deleted", id, nil)
	s.notify()
	return Updated
}

// GetByID is a pure lookup.
func (s *Store) GetByID(id string) (domain.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return domain.Order{}, false
	}
	return s.orders[idx], true
}

// List returns a newest-first copy of the order list.
func (s *Store) List() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// Clear empties the list and erases the durable key.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.orders = nil
	err := s.kv.DeleteKey(ctx, StorageKey)
	s.mu.Unlock()
	if err != nil {
		s.log.Warn("clearing orders key failed", zap.Error(err))
	}
	s.appendEvent(ctx, "orders.cleared", "", nil)
	s.notify()
	return err
}

// Subscribe registers fn to run with a fresh copy of the list after every
// mutation. The returned func cancels the subscription.
func (s *Store) Subscribe(fn func([]domain.Order)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) indexLocked(id string) int {
	for i := range s.orders {
		if s.orders[i].ID == id {
			return i
		}
	}
	return -1
}

// persistLocked serializes the whole list under the fixed key. Write
// failures are logged, never surfaced; persistence is best effort.
func (s *Store) persistLocked(ctx context.Context) {
	data, err := json.Marshal(s.orders)
	if err != nil {
		s.log.Warn("marshal orders snapshot failed", zap.Error(err))
		return
	}
	if err := s.kv.WriteKey(ctx, StorageKey, string(data)); err != nil {
		s.log.Warn("persist orders snapshot failed", zap.Error(err))
	}
}

func (s *Store) appendEvent(ctx context.Context, evtType, orderID string, payload events.EventPayload) {
	if err := s.events.Append(ctx, evtType, "order", orderID, s.ActorID, payload); err != nil {
		s.log.Warn("append event failed", zap.String("type", evtType), zap.Error(err))
	}
}

func (s *Store) notify() {
	s.mu.RLock()
	fns := make([]func([]domain.Order), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()
	if len(fns) == 0 {
		return
	}
	snapshot := s.List()
	for _, fn := range fns {
		fn(snapshot)
	}
}
