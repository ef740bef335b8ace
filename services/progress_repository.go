package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"wellness-entitlements/logger"
	"wellness-entitlements/models"
	"wellness-entitlements/store"
)

// Persister receives a snapshot after every successful mutation. Implementations
// must not block the caller for long; persistence is a side effect, not part of
// the operation.
type Persister interface {
	Persist(userID string, snapshot []byte, entries []models.LedgerEntry)
}

// AuditLog records MP movements outside the capped in-snapshot feed.
type AuditLog interface {
	Append(ctx context.Context, entries []models.LedgerEntry) error
}

type session struct {
	mu       sync.Mutex
	loaded   bool
	evicted  bool
	lastUsed time.Time
	progress *models.UserProgress
}

// pendingTracker is implemented by persisters that buffer writes. A session
// with an unwritten snapshot is never evicted.
type pendingTracker interface {
	HasPending(userID string) bool
}

// ProgressRepository owns the in-process sessions for every active user.
// Each user has one lock; users never contend with each other.
type ProgressRepository struct {
	kv        store.KV
	persister Persister
	log       *logger.Logger
	Now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func NewProgressRepository(kv store.KV, persister Persister, log *logger.Logger) *ProgressRepository {
	return &ProgressRepository{
		kv:        kv,
		persister: persister,
		log:       log.With("service", "ProgressRepository"),
		Now:       time.Now,
		sessions:  map[string]*session{},
	}
}

func (r *ProgressRepository) session(userID string) *session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	if !ok {
		s = &session{}
		r.sessions[userID] = s
	}
	return s
}

// acquire returns the user's session locked and loaded. A session evicted
// between lookup and lock is discarded and looked up again.
func (r *ProgressRepository) acquire(ctx context.Context, userID string) (*session, error) {
	for {
		s := r.session(userID)
		s.mu.Lock()
		if s.evicted {
			s.mu.Unlock()
			continue
		}
		if err := r.ensureLoaded(ctx, userID, s); err != nil {
			s.mu.Unlock()
			return nil, err
		}
		s.lastUsed = r.Now()
		return s, nil
	}
}

// EvictIdle drops sessions unused for at least idle, returning how many were
// dropped. Busy sessions and ones with unwritten snapshots are kept.
func (r *ProgressRepository) EvictIdle(idle time.Duration) int {
	r.mu.Lock()
	candidates := make(map[string]*session, len(r.sessions))
	for id, s := range r.sessions {
		candidates[id] = s
	}
	r.mu.Unlock()

	tracker, _ := r.persister.(pendingTracker)
	cutoff := r.Now().Add(-idle)
	evicted := 0
	for userID, s := range candidates {
		if !s.mu.TryLock() {
			continue
		}
		if s.loaded && s.lastUsed.After(cutoff) {
			s.mu.Unlock()
			continue
		}
		if tracker != nil && tracker.HasPending(userID) {
			s.mu.Unlock()
			continue
		}
		s.evicted = true
		r.mu.Lock()
		if r.sessions[userID] == s {
			delete(r.sessions, userID)
		}
		r.mu.Unlock()
		s.mu.Unlock()
		evicted++
	}
	if evicted > 0 {
		r.log.Debug("Evicted idle sessions", "count", evicted)
	}
	return evicted
}

// Sessions reports how many users currently have an in-process session.
func (r *ProgressRepository) Sessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// ensureLoaded must be called with s.mu held.
func (r *ProgressRepository) ensureLoaded(ctx context.Context, userID string, s *session) error {
	if s.loaded {
		return nil
	}
	p, err := r.load(ctx, userID)
	if err != nil {
		return err
	}
	s.progress = p
	s.loaded = true
	return nil
}

// load never fails on absent or malformed data; only storage I/O errors are returned,
// so a transient outage can't be mistaken for an empty account and overwrite it.
func (r *ProgressRepository) load(ctx context.Context, userID string) (*models.UserProgress, error) {
	raw, found, err := r.kv.Load(ctx, store.ProgressKey(userID))
	if err != nil {
		return nil, fmt.Errorf("load progress for %s: %w", userID, err)
	}
	if !found {
		r.log.Debug("Creating fresh progress", "user_id", userID)
		return models.NewUserProgress(userID, r.Now()), nil
	}

	p, err := decodeProgress(raw)
	if err != nil {
		r.log.Warn("Resetting malformed progress snapshot", "user_id", userID, "error", err)
		return models.NewUserProgress(userID, r.Now()), nil
	}
	p.UserID = userID
	return p, nil
}

func decodeProgress(raw []byte) (*models.UserProgress, error) {
	var p models.UserProgress
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	if p.CurrentMP < 0 || p.LifetimeMP < 0 || p.CurrentMP > p.LifetimeMP {
		return nil, fmt.Errorf("%w: balance current=%d lifetime=%d", ErrMalformedState, p.CurrentMP, p.LifetimeMP)
	}
	p.Normalize()
	return &p, nil
}

// Get returns a copy of the user's progress, creating it on first access.
func (r *ProgressRepository) Get(ctx context.Context, userID string) (*models.UserProgress, error) {
	s, err := r.acquire(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	return s.progress.Clone(), nil
}

// Update applies fn to a staged copy of the user's progress. If fn returns an
// error nothing is applied; otherwise the copy replaces the session state and
// is handed to the persister. The returned value is a copy.
func (r *ProgressRepository) Update(ctx context.Context, userID string, fn func(p *models.UserProgress) error) (*models.UserProgress, error) {
	s, err := r.acquire(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	staged := s.progress.Clone()
	if err := fn(staged); err != nil {
		return nil, err
	}
	staged.UpdatedAt = r.Now()

	entries := newEntries(s.progress.Activity, staged.Activity)
	s.progress = staged
	r.persist(userID, staged, entries)
	return staged.Clone(), nil
}

func (r *ProgressRepository) persist(userID string, p *models.UserProgress, entries []models.LedgerEntry) {
	if r.persister == nil {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		r.log.Error("Failed to encode progress snapshot", "user_id", userID, "error", err)
		return
	}
	r.persister.Persist(userID, raw, entries)
}

// newEntries returns the entries prepended to before to produce after.
func newEntries(before, after []models.LedgerEntry) []models.LedgerEntry {
	if len(before) == 0 {
		return append([]models.LedgerEntry(nil), after...)
	}
	head := before[0].ID
	for i, e := range after {
		if e.ID == head {
			return append([]models.LedgerEntry(nil), after[:i]...)
		}
	}
	return append([]models.LedgerEntry(nil), after...)
}

// SyncPersister writes through on the caller's goroutine. Used with the
// in-memory backend and in tests; errors are logged, never returned.
type SyncPersister struct {
	KV    store.KV
	Audit AuditLog
	Log   *logger.Logger
}

func (p *SyncPersister) Persist(userID string, snapshot []byte, entries []models.LedgerEntry) {
	ctx := context.Background()
	if err := p.KV.Save(ctx, store.ProgressKey(userID), snapshot); err != nil && p.Log != nil {
		p.Log.Error("Failed to save progress snapshot", "user_id", userID, "error", err)
	}
	if p.Audit != nil && len(entries) > 0 {
		if err := p.Audit.Append(ctx, entries); err != nil && p.Log != nil {
			p.Log.Error("Failed to append ledger entries", "user_id", userID, "error", err)
		}
	}
}
