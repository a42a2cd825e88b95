package conversation

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/smartkrishi/smsgate/internal/store"
)

// Store holds all conversation records behind one mutex. History reads
// return copies; callers never observe in-place mutation.
type Store struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	records map[string]*record
}

// NewStore loads the conversation file at path, defaulting to empty
// state when the file is absent or unreadable.
func NewStore(log *slog.Logger, path string) *Store {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{
		path:    path,
		logger:  log.With(slog.String("component", "conversation")),
		records: map[string]*record{},
	}

	saved := map[string]*record{}
	if err := store.Load(path, &saved); err != nil {
		s.logger.Warn("load conversations failed, starting empty", slog.Any("error", err))
		return s
	}
	for phone, rec := range saved {
		if rec != nil {
			s.records[phone] = rec
		}
	}
	if len(s.records) > 0 {
		s.logger.Info("loaded conversations", slog.Int("count", len(s.records)))
	}
	return s
}

// Append adds one entry to phone's history, creating the record if
// needed, and persists.
func (s *Store) Append(phone string, role Role, direction Direction, text string) {
	s.mu.Lock()
	rec := s.ensureLocked(phone)
	rec.Messages = append(rec.Messages, Entry{
		Role:      role,
		Text:      text,
		Timestamp: time.Now().UTC(),
		Direction: direction,
	})
	s.persistLocked()
	s.mu.Unlock()
}

// History returns a copy of the most recent limit entries for phone
// (all entries when limit <= 0) and the total entry count.
func (s *Store) History(phone string, limit int) ([]Entry, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[phone]
	if !ok {
		return nil, 0
	}
	total := len(rec.Messages)
	start := 0
	if limit > 0 && total > limit {
		start = total - limit
	}
	out := make([]Entry, total-start)
	copy(out, rec.Messages[start:])
	return out, total
}

// Register marks phone as eligible for automatic AI replies, creating
// its record if needed. It reports whether the phone was newly registered.
func (s *Store) Register(phone string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.ensureLocked(phone)
	if rec.Registered {
		return false
	}
	rec.Registered = true
	s.persistLocked()
	return true
}

// Unregister removes phone from the registered set. History is kept.
func (s *Store) Unregister(phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[phone]
	if !ok || !rec.Registered {
		return
	}
	rec.Registered = false
	s.persistLocked()
}

// IsRegistered reports whether phone receives automatic AI replies.
func (s *Store) IsRegistered(phone string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[phone]
	return ok && rec.Registered
}

// Registered returns the sorted registered phone numbers.
func (s *Store) Registered() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	phones := make([]string, 0, len(s.records))
	for phone, rec := range s.records {
		if rec.Registered {
			phones = append(phones, phone)
		}
	}
	sort.Strings(phones)
	return phones
}

// Clear removes phone's record entirely: history, registration, and the
// session reference. It returns the session handle that must be
// invalidated and whether a record existed.
func (s *Store) Clear(phone string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[phone]
	if !ok {
		return "", false
	}
	handle := rec.SessionHandle
	delete(s.records, phone)
	s.persistLocked()
	return handle, true
}

// SessionHandle returns the stored AI session reference for phone.
func (s *Store) SessionHandle(phone string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[phone]; ok {
		return rec.SessionHandle
	}
	return ""
}

// SetSessionHandle stores the AI session reference for phone.
func (s *Store) SetSessionHandle(phone, handle string) {
	s.mu.Lock()
	rec := s.ensureLocked(phone)
	rec.SessionHandle = handle
	s.persistLocked()
	s.mu.Unlock()
}

// UserTurns returns a copy of up to limit most recent user-role texts,
// oldest first. Used to rehydrate a fresh AI session after restart.
func (s *Store) UserTurns(phone string, limit int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[phone]
	if !ok {
		return nil
	}
	turns := make([]string, 0, limit)
	for _, entry := range rec.Messages {
		if entry.Role == RoleUser {
			turns = append(turns, entry.Text)
		}
	}
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns
}

func (s *Store) ensureLocked(phone string) *record {
	rec, ok := s.records[phone]
	if !ok {
		rec = &record{}
		s.records[phone] = rec
	}
	return rec
}

// persistLocked writes the full record map. Failure is logged only; the
// in-memory state stays authoritative until the next successful save.
func (s *Store) persistLocked() {
	if err := store.Save(s.path, s.records); err != nil {
		s.logger.Error("persist conversations failed", slog.Any("error", err))
	}
}
