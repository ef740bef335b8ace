package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"wellness-entitlements/models"
)

func TestLedger_EarnAndSpendConserveMP(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	for _, amt := range []int64{300, 200} {
		if _, err := e.Ledger.Earn(ctx, "u1", amt, "test"); err != nil {
			t.Fatalf("Earn(%d): %v", amt, err)
		}
	}
	bal, err := e.Ledger.Spend(ctx, "u1", 150, "unlock:x")
	if err != nil {
		t.Fatalf("Spend: %v", err)
	}
	if bal.CurrentMP != 350 || bal.LifetimeMP != 500 {
		t.Fatalf("expected 350/500, got %d/%d", bal.CurrentMP, bal.LifetimeMP)
	}
}

func TestLedger_SpendFailsClosed(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	if _, err := e.Ledger.Earn(ctx, "u1", 100, "seed"); err != nil {
		t.Fatalf("Earn: %v", err)
	}
	_, err := e.Ledger.Spend(ctx, "u1", 150, "unlock:x")
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	var funds *InsufficientFundsError
	if !errors.As(err, &funds) || funds.Required != 150 || funds.Available != 100 {
		t.Fatalf("unexpected error detail: %#v", err)
	}

	bal, _ := e.Ledger.Balance(ctx, "u1")
	if bal.CurrentMP != 100 || bal.LifetimeMP != 100 {
		t.Fatalf("balance changed after failed spend: %+v", bal)
	}
	feed, _ := e.Ledger.RecentActivity(ctx, "u1", 0)
	if len(feed) != 1 {
		t.Fatalf("failed spend must not be recorded, feed has %d entries", len(feed))
	}
}

func TestLedger_RejectsNonPositiveAmounts(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	for _, amt := range []int64{0, -5} {
		if _, err := e.Ledger.Earn(ctx, "u1", amt, "bad"); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("Earn(%d): expected ErrInvalidAmount, got %v", amt, err)
		}
		if _, err := e.Ledger.Spend(ctx, "u1", amt, "bad"); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("Spend(%d): expected ErrInvalidAmount, got %v", amt, err)
		}
	}
}

func TestLedger_RecentActivityNewestFirst(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	for i := 1; i <= 3; i++ {
		if _, err := e.Ledger.Earn(ctx, "u1", int64(i*10), fmt.Sprintf("r%d", i)); err != nil {
			t.Fatalf("Earn: %v", err)
		}
	}
	feed, err := e.Ledger.RecentActivity(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("RecentActivity: %v", err)
	}
	if len(feed) != 2 || feed[0].Reason != "r3" || feed[1].Reason != "r2" {
		t.Fatalf("unexpected feed: %+v", feed)
	}
	if feed[0].BalanceAfter != 60 || feed[0].Kind != models.LedgerEarn {
		t.Fatalf("unexpected head entry: %+v", feed[0])
	}
}

func TestLedger_ActivityFeedIsCapped(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	for i := 0; i < models.MaxActivityEntries+10; i++ {
		if _, err := e.Ledger.Earn(ctx, "u1", 1, "tick"); err != nil {
			t.Fatalf("Earn: %v", err)
		}
	}
	p, _ := e.Repo.Get(ctx, "u1")
	if len(p.Activity) != models.MaxActivityEntries {
		t.Fatalf("expected %d entries, got %d", models.MaxActivityEntries, len(p.Activity))
	}
	if p.LifetimeMP != int64(models.MaxActivityEntries+10) {
		t.Fatalf("lifetime MP must not be affected by the feed cap, got %d", p.LifetimeMP)
	}
}

func TestLedger_ActivitySince(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	cursor, err := e.Ledger.ActivityCursor(ctx, "u1")
	if err != nil || cursor != "" {
		t.Fatalf("empty feed: got %q %v", cursor, err)
	}

	if _, err := e.Ledger.Earn(ctx, "u1", 10, "r1"); err != nil {
		t.Fatalf("Earn: %v", err)
	}
	cursor, _ = e.Ledger.ActivityCursor(ctx, "u1")
	if cursor == "" {
		t.Fatalf("expected cursor at head")
	}

	for _, r := range []string{"r2", "r3"} {
		if _, err := e.Ledger.Earn(ctx, "u1", 10, r); err != nil {
			t.Fatalf("Earn: %v", err)
		}
	}
	entries, next, err := e.Ledger.ActivitySince(ctx, "u1", cursor)
	if err != nil {
		t.Fatalf("ActivitySince: %v", err)
	}
	if len(entries) != 2 || entries[0].Reason != "r2" || entries[1].Reason != "r3" {
		t.Fatalf("expected r2, r3 oldest first, got %+v", entries)
	}
	if entries, _, _ = e.Ledger.ActivitySince(ctx, "u1", next); len(entries) != 0 {
		t.Fatalf("expected nothing new, got %+v", entries)
	}
}

func TestLedger_ActivitySinceEmptyCursorReturnsFirstEntries(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	cursor, _ := e.Ledger.ActivityCursor(ctx, "new-user")
	for _, r := range []string{"first", "second"} {
		if _, err := e.Ledger.Earn(ctx, "new-user", 5, r); err != nil {
			t.Fatalf("Earn: %v", err)
		}
	}

	entries, next, err := e.Ledger.ActivitySince(ctx, "new-user", cursor)
	if err != nil {
		t.Fatalf("ActivitySince: %v", err)
	}
	if len(entries) != 2 || entries[0].Reason != "first" || entries[1].Reason != "second" {
		t.Fatalf("expected both entries oldest first, got %+v", entries)
	}
	if next != entries[1].ID {
		t.Fatalf("cursor = %q, want %q", next, entries[1].ID)
	}
}

func TestLedger_EarnOverflowRejected(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	if _, err := e.Ledger.Earn(ctx, "u1", math.MaxInt64, "huge"); err != nil {
		t.Fatalf("Earn: %v", err)
	}
	if _, err := e.Ledger.Earn(ctx, "u1", 1, "one more"); !errors.Is(err, ErrBalanceOverflow) {
		t.Fatalf("expected ErrBalanceOverflow, got %v", err)
	}
	bal, _ := e.Ledger.Balance(ctx, "u1")
	if bal.CurrentMP != math.MaxInt64 || bal.LifetimeMP != math.MaxInt64 {
		t.Fatalf("balance changed after rejected earn: %+v", bal)
	}
}
