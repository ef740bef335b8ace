package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"wellness-entitlements/logger"
	"wellness-entitlements/models"
	"wellness-entitlements/store"
)

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func newTestRepo(t *testing.T, kv store.KV) *ProgressRepository {
	t.Helper()
	if kv == nil {
		kv = store.NewMemoryKV()
	}
	repo := NewProgressRepository(kv, &SyncPersister{KV: kv}, logger.Nop())
	repo.Now = func() time.Time { return fixedNow }
	return repo
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(
		newTestRepo(t, nil),
		models.DefaultTierCatalogs(),
		models.MustAchievementCatalog(models.DefaultAchievements...),
		models.TemplateStepLimits,
		logger.Nop(),
	)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

// failingKV fails every operation.
type failingKV struct{}

var errStorageDown = errors.New("storage down")

func (failingKV) Load(context.Context, string) ([]byte, bool, error) { return nil, false, errStorageDown }
func (failingKV) Save(context.Context, string, []byte) error        { return errStorageDown }
