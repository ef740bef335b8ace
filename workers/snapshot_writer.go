// workers/snapshot_writer.go
package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"wellness-entitlements/logger"
	"wellness-entitlements/models"
	"wellness-entitlements/services"
	"wellness-entitlements/store"
)

// SnapshotWriter is a write-behind Persister. It keeps only the newest snapshot
// per user and writes them on a ticker, so a burst of mutations costs one write.
type SnapshotWriter struct {
	kv       store.KV
	audit    services.AuditLog
	interval time.Duration
	log      *logger.Logger

	mu      sync.Mutex
	pending map[string][]byte
	entries []models.LedgerEntry
	stopped bool
	done    chan struct{}
}

// NewSnapshotWriter builds a writer; audit may be nil.
func NewSnapshotWriter(kv store.KV, audit services.AuditLog, interval time.Duration, log *logger.Logger) *SnapshotWriter {
	return &SnapshotWriter{
		kv:       kv,
		audit:    audit,
		interval: interval,
		log:      log.With("service", "SnapshotWriter"),
		pending:  map[string][]byte{},
		done:     make(chan struct{}),
	}
}

// Persist queues a snapshot and never blocks on I/O while the writer runs.
// Once the writer has stopped it writes through on the caller's goroutine.
func (w *SnapshotWriter) Persist(userID string, snapshot []byte, entries []models.LedgerEntry) {
	w.mu.Lock()
	if !w.stopped {
		w.pending[userID] = snapshot
		w.entries = append(w.entries, entries...)
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.kv.Save(ctx, store.ProgressKey(userID), snapshot); err != nil {
		w.log.Error("Late snapshot write failed", "user_id", userID, "error", err)
	}
	if w.audit != nil && len(entries) > 0 {
		if err := w.audit.Append(ctx, entries); err != nil {
			w.log.Error("Late ledger append failed", "user_id", userID, "error", err)
		}
	}
}

// Pending reports how many users have unwritten snapshots.
func (w *SnapshotWriter) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// HasPending reports whether userID has a snapshot waiting to be written.
func (w *SnapshotWriter) HasPending(userID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.pending[userID]
	return ok
}

func (w *SnapshotWriter) Start(ctx context.Context) {
	w.log.Info("Starting snapshot writer", "interval", w.interval.String())
	go w.run(ctx)
}

// Done is closed after the final flush that follows ctx cancellation.
func (w *SnapshotWriter) Done() <-chan struct{} { return w.done }

func (w *SnapshotWriter) run(ctx context.Context) {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.Flush(ctx); err != nil {
				w.log.Warn("Snapshot flush incomplete, retrying next tick", "error", err)
			}
		case <-ctx.Done():
			w.mu.Lock()
			w.stopped = true
			w.mu.Unlock()
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := w.Flush(flushCtx); err != nil {
				w.log.Error("Final snapshot flush failed", "error", err, "pending", w.Pending())
			}
			cancel()
			w.log.Info("Snapshot writer stopped")
			return
		}
	}
}

// Flush writes everything queued so far. Snapshots that fail stay queued unless
// a newer one arrived meanwhile; failed audit entries are re-queued.
func (w *SnapshotWriter) Flush(ctx context.Context) error {
	w.mu.Lock()
	batch := w.pending
	entries := w.entries
	w.pending = map[string][]byte{}
	w.entries = nil
	w.mu.Unlock()

	var errs []error
	written := 0
	for userID, snapshot := range batch {
		if err := w.kv.Save(ctx, store.ProgressKey(userID), snapshot); err != nil {
			errs = append(errs, err)
			w.requeue(userID, snapshot)
			continue
		}
		written++
	}

	if w.audit != nil && len(entries) > 0 {
		if err := w.audit.Append(ctx, entries); err != nil {
			errs = append(errs, err)
			w.mu.Lock()
			w.entries = append(entries, w.entries...)
			w.mu.Unlock()
		}
	}

	if written > 0 {
		w.log.Debug("Snapshots written", "count", written, "ledger_entries", len(entries))
	}
	return errors.Join(errs...)
}

func (w *SnapshotWriter) requeue(userID string, snapshot []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, newer := w.pending[userID]; !newer {
		w.pending[userID] = snapshot
	}
}
