// Package ledger tracks which inbound message ids have been processed.
package ledger

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/smartkrishi/smsgate/internal/store"
)

// Ledger is the dedup set of processed message ids. The poller is the
// only writer; other components may read concurrently.
type Ledger struct {
	path   string
	logger *slog.Logger

	mu  sync.RWMutex
	ids map[string]struct{}
}

// Load builds a ledger backed by the JSON file at path. A missing or
// unreadable file starts the ledger empty: reprocessing old messages is
// cheaper than refusing to start.
func Load(log *slog.Logger, path string) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	l := &Ledger{
		path:   path,
		logger: log.With(slog.String("component", "ledger")),
		ids:    map[string]struct{}{},
	}

	var saved []string
	if err := store.Load(path, &saved); err != nil {
		l.logger.Warn("load processed ids failed, starting empty", slog.Any("error", err))
		return l
	}
	for _, id := range saved {
		l.ids[id] = struct{}{}
	}
	if len(l.ids) > 0 {
		l.logger.Info("loaded processed ids", slog.Int("count", len(l.ids)))
	}
	return l
}

// IsNew reports whether id has not been processed yet.
func (l *Ledger) IsNew(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, seen := l.ids[id]
	return !seen
}

// MarkProcessed records id and persists the set. Persistence failure is
// logged and ignored; the in-memory set stays authoritative.
func (l *Ledger) MarkProcessed(id string) {
	l.mu.Lock()
	l.ids[id] = struct{}{}
	snapshot := l.snapshotLocked()
	l.mu.Unlock()

	if err := store.Save(l.path, snapshot); err != nil {
		l.logger.Error("persist processed ids failed", slog.Any("error", err))
	}
}

// Count returns the number of processed ids.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.ids)
}

func (l *Ledger) snapshotLocked() []string {
	ids := make([]string, 0, len(l.ids))
	for id := range l.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
