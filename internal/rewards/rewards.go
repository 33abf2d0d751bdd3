// Package rewards keeps the loyalty points ledger. Points accrue when an
// order reaches completed and are spent on catalog rewards; the ledger
// persists under its own durable key next to the orders snapshot.
package rewards

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"tadweer/internal/analytics"
	"tadweer/internal/domain"
	"tadweer/internal/events"
	"tadweer/internal/orders"
	"tadweer/internal/storage"
)

// LedgerKey is the durable-storage key the ledger snapshot lives under.
const LedgerKey = "tadweer_points"

var (
	ErrUnknownReward      = errors.New("unknown reward")
	ErrInsufficientPoints = errors.New("not enough points")
)

type Ledger struct {
	mu      sync.Mutex
	entries []domain.LedgerEntry
	kv      storage.KV
	events  events.Writer
	log     *zap.Logger

	catalog  []domain.Reward
	perLiter int

	Now     func() time.Time
	ActorID string
}

// New rehydrates the ledger from storage with the same degrade-to-empty
// policy the order store uses.
func New(ctx context.Context, kv storage.KV, ev events.Writer, catalog []domain.Reward, perLiter int, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	if perLiter <= 0 {
		perLiter = 10
	}
	l := &Ledger{
		kv:       kv,
		events:   ev,
		log:      log,
		catalog:  catalog,
		perLiter: perLiter,
		Now:      time.Now,
		ActorID:  "local-user",
	}
	raw, err := kv.ReadKey(ctx, LedgerKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warn("loading points ledger failed, starting empty", zap.Error(err))
		}
		return l
	}
	var saved []domain.LedgerEntry
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		log.Warn("points ledger unreadable, starting empty", zap.Error(err))
		return l
	}
	l.entries = saved
	return l
}

func (l *Ledger) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// Catalog returns the configured rewards.
func (l *Ledger) Catalog() []domain.Reward {
	out := make([]domain.Reward, len(l.catalog))
	copy(out, l.catalog)
	return out
}

// Balance is the sum of all ledger movements.
func (l *Ledger) Balance() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceLocked()
}

func (l *Ledger) balanceLocked() int {
	total := 0
	for _, e := range l.entries {
		total += e.Points
	}
	return total
}

// Entries returns the ledger newest-first.
func (l *Ledger) Entries() []domain.LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.LedgerEntry, len(l.entries))
	for i, e := range l.entries {
		out[len(l.entries)-1-i] = e
	}
	return out
}

// Attach subscribes the ledger to a store so completed orders earn points
// exactly once. The returned func detaches.
func (l *Ledger) Attach(store *orders.Store) func() {
	return store.Subscribe(func(list []domain.Order) {
		l.creditCompleted(context.Background(), list)
	})
}

// CreditCompleted awards points for completed orders that have not been
// credited yet; the ledger's order ids are the dedupe record.
func (l *Ledger) CreditCompleted(ctx context.Context, list []domain.Order) {
	l.creditCompleted(ctx, list)
}

func (l *Ledger) creditCompleted(ctx context.Context, list []domain.Order) {
	l.mu.Lock()
	credited := map[string]bool{}
	for _, e := range l.entries {
		if e.OrderID != "" {
			credited[e.OrderID] = true
		}
	}
	var added []domain.LedgerEntry
	for _, o := range list {
		if o.Status != domain.StatusCompleted || credited[o.ID] {
			continue
		}
		pts := analytics.Liters(o.Volume) * l.perLiter
		if pts <= 0 {
			continue
		}
		entry := domain.LedgerEntry{
			Action:  "Oil Collection",
			Points:  pts,
			OrderID: o.ID,
			TS:      l.now().UTC().Format(time.RFC3339),
		}
		l.entries = append(l.entries, entry)
		added = append(added, entry)
	}
	if len(added) > 0 {
		l.persistLocked(ctx)
	}
	l.mu.Unlock()

	for _, entry := range added {
		if err := l.events.Append(ctx, "points.earned", "order", entry.OrderID, l.ActorID, events.EventPayload{"points": entry.Points}); err != nil {
			l.log.Warn("append points event failed", zap.Error(err))
		}
	}
}

// Redeem spends points on a catalog reward.
func (l *Ledger) Redeem(ctx context.Context, rewardID string) (domain.Reward, error) {
	var reward domain.Reward
	found := false
	for _, r := range l.catalog {
		if r.ID == rewardID {
			reward = r
			found = true
			break
		}
	}
	if !found {
		return domain.Reward{}, ErrUnknownReward
	}

	l.mu.Lock()
	if l.balanceLocked() < reward.PointsCost {
		l.mu.Unlock()
		return domain.Reward{}, ErrInsufficientPoints
	}
	l.entries = append(l.entries, domain.LedgerEntry{
		Action: "Reward Redemption: " + reward.Title,
		Points: -reward.PointsCost,
		TS:     l.now().UTC().Format(time.RFC3339),
	})
	l.persistLocked(ctx)
	l.mu.Unlock()

	if err := l.events.Append(ctx, "reward.redeemed", "reward", reward.ID, l.ActorID, events.EventPayload{"points": reward.PointsCost}); err != nil {
		l.log.Warn("append redeem event failed", zap.Error(err))
	}
	return reward, nil
}

func (l *Ledger) persistLocked(ctx context.Context) {
	data, err := json.Marshal(l.entries)
	if err != nil {
		l.log.Warn("marshal points ledger failed", zap.Error(err))
		return
	}
	if err := l.kv.WriteKey(ctx, LedgerKey, string(data)); err != nil {
		l.log.Warn("persist points ledger failed", zap.Error(err))
	}
}

// Leaderboard merges the seeded entries with the session's own total and
// ranks the result by points.
func (l *Ledger) Leaderboard(seeds []domain.LeaderboardEntry, you string) []domain.LeaderboardEntry {
	l.mu.Lock()
	balance := l.balanceLocked()
	liters := 0
	for _, e := range l.entries {
		if e.OrderID != "" {
			liters += e.Points / l.perLiter
		}
	}
	l.mu.Unlock()

	out := make([]domain.LeaderboardEntry, len(seeds))
	copy(out, seeds)
	if you == "" {
		you = "You"
	}
	out = append(out, domain.LeaderboardEntry{Name: you, Points: balance, LitersRecycled: liters})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Points > out[j].Points })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
