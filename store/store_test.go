package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"wellness-entitlements/database"
	"wellness-entitlements/models"
)

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	if _, found, err := kv.Load(ctx, ProgressKey("nobody")); err != nil || found {
		t.Fatalf("expected absent key, found=%v err=%v", found, err)
	}
	if err := kv.Save(ctx, ProgressKey("u1"), []byte(`{"v":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := kv.Save(ctx, ProgressKey("u1"), []byte(`{"v":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, found, err := kv.Load(ctx, ProgressKey("u1"))
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if string(got) != `{"v":2}` {
		t.Fatalf("expected last write to win, got %s", got)
	}
}

func TestMemoryKV(t *testing.T) {
	exerciseKV(t, NewMemoryKV())
}

func TestMemoryKV_ReturnsCopies(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()
	buf := []byte("abc")
	_ = kv.Save(ctx, "k", buf)
	buf[0] = 'x'
	got, _, _ := kv.Load(ctx, "k")
	if string(got) != "abc" {
		t.Fatalf("stored value aliased caller buffer: %s", got)
	}
}

func TestGormKV(t *testing.T) {
	exerciseKV(t, NewGormKV(database.OpenTestDB(t)))
}

func TestGormAuditLog_AppendIsIdempotentAndOrdered(t *testing.T) {
	audit := NewGormAuditLog(database.OpenTestDB(t))
	ctx := context.Background()
	now := time.Now()

	var entries []models.LedgerEntry
	for i := 0; i < 3; i++ {
		entries = append(entries, models.LedgerEntry{
			ID:        fmt.Sprintf("entry-%02d", i),
			UserID:    "u1",
			Kind:      models.LedgerEarn,
			Amount:    int64(10 * (i + 1)),
			Reason:    "test",
			CreatedAt: now,
		})
	}
	if err := audit.Append(ctx, entries); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := audit.Append(ctx, entries[:1]); err != nil {
		t.Fatalf("re-append: %v", err)
	}

	got, err := audit.Recent(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0].ID != "entry-02" {
		t.Fatalf("expected newest first, got %s", got[0].ID)
	}
}
