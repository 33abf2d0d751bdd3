package rewards

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"tadweer/internal/domain"
	"tadweer/internal/events"
	"tadweer/internal/orders"
	"tadweer/internal/storage"
)

var testCatalog = []domain.Reward{
	{ID: "free-pickup", Title: "Free Priority Pickup", PointsCost: 1000},
	{ID: "eco-kit", Title: "Eco Starter Kit", PointsCost: 800},
}

func testLedger(t *testing.T, kv storage.KV) *Ledger {
	t.Helper()
	return New(context.Background(), kv, events.Writer{}, testCatalog, 10, zap.NewNop())
}

func completedOrder(id, volume string) domain.Order {
	return domain.Order{ID: id, Volume: volume, Status: domain.StatusCompleted}
}

func TestCreditCompletedEarnsOnce(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t, storage.NewMemory())

	list := []domain.Order{completedOrder("ORD-A", "500L")}
	l.CreditCompleted(ctx, list)
	if got := l.Balance(); got != 5000 {
		t.Fatalf("balance = %d, want 5000", got)
	}

	// same snapshot again must not double-credit
	l.CreditCompleted(ctx, list)
	if got := l.Balance(); got != 5000 {
		t.Fatalf("balance after replay = %d, want 5000", got)
	}
}

func TestCreditSkipsPendingAndMalformed(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t, storage.NewMemory())

	l.CreditCompleted(ctx, []domain.Order{
		{ID: "ORD-A", Volume: "500L", Status: domain.StatusPending},
		{ID: "ORD-B", Volume: "junk", Status: domain.StatusCompleted},
	})
	if got := l.Balance(); got != 0 {
		t.Fatalf("balance = %d, want 0", got)
	}
}

func TestRedeem(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t, storage.NewMemory())
	l.CreditCompleted(ctx, []domain.Order{completedOrder("ORD-A", "100L")})

	if _, err := l.Redeem(ctx, "free-pickup"); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if got := l.Balance(); got != 0 {
		t.Fatalf("balance = %d, want 0", got)
	}
	if _, err := l.Redeem(ctx, "eco-kit"); err != ErrInsufficientPoints {
		t.Fatalf("err = %v, want ErrInsufficientPoints", err)
	}
	if _, err := l.Redeem(ctx, "nope"); err != ErrUnknownReward {
		t.Fatalf("err = %v, want ErrUnknownReward", err)
	}
}

func TestLedgerSurvivesReload(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()

	l := testLedger(t, kv)
	l.CreditCompleted(ctx, []domain.Order{completedOrder("ORD-A", "200L")})

	reloaded := testLedger(t, kv)
	if got := reloaded.Balance(); got != 2000 {
		t.Fatalf("balance after reload = %d, want 2000", got)
	}
	// dedupe record survives too
	reloaded.CreditCompleted(ctx, []domain.Order{completedOrder("ORD-A", "200L")})
	if got := reloaded.Balance(); got != 2000 {
		t.Fatalf("balance after replay = %d, want 2000", got)
	}
}

func TestAttachCreditsOnCompletion(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	store := orders.New(ctx, kv, events.Writer{}, zap.NewNop())
	l := testLedger(t, kv)
	detach := l.Attach(store)
	defer detach()

	o, err := store.Create(ctx, orders.OrderInput{
		Volume:         "500L",
		CollectionDate: "2026-10-01",
		Location:       domain.Location{Lat: 23.58, Lng: 58.38, Address: "Muscat"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := l.Balance(); got != 0 {
		t.Fatalf("balance before completion = %d, want 0", got)
	}

	store.UpdateStatus(ctx, o.ID, domain.StatusCompleted, "")
	if got := l.Balance(); got != 5000 {
		t.Fatalf("balance after completion = %d, want 5000", got)
	}
}

func TestLeaderboardRanks(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t, storage.NewMemory())
	l.CreditCompleted(ctx, []domain.Order{completedOrder("ORD-A", "300L")})

	seeds := []domain.LeaderboardEntry{
		{Name: "Green Valley Restaurant", Points: 5000, LitersRecycled: 500},
		{Name: "Corner Cafe", Points: 1200, LitersRecycled: 120},
	}
	board := l.Leaderboard(seeds, "You")
	if len(board) != 3 {
		t.Fatalf("len = %d, want 3", len(board))
	}
	if board[0].Name != "Green Valley Restaurant" || board[0].Rank != 1 {
		t.Fatalf("top = %+v", board[0])
	}
	if board[1].Name != "You" || board[1].Points != 3000 || board[1].LitersRecycled != 300 {
		t.Fatalf("you = %+v", board[1])
	}
	if board[2].Rank != 3 {
		t.Fatalf("last rank = %d, want 3", board[2].Rank)
	}
}
