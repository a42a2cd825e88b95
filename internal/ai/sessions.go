package ai

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/smartkrishi/smsgate/internal/conversation"
)

// maxRehydrateTurns bounds how many persisted user turns are replayed
// into a fresh session. Replay costs one model call per turn.
const maxRehydrateTurns = 20

// Sessions maps phone numbers to live backend sessions. Sessions do not
// survive restarts; a fresh one is created on demand and rehydrated
// from the persisted conversation history.
type Sessions struct {
	backend Backend
	conv    *conversation.Store
	logger  *slog.Logger

	mu      sync.Mutex
	byPhone map[string]Handle
}

// NewSessions builds the session manager over backend and conv.
func NewSessions(log *slog.Logger, backend Backend, conv *conversation.Store) *Sessions {
	if log == nil {
		log = slog.Default()
	}
	return &Sessions{
		backend: backend,
		conv:    conv,
		logger:  log.With(slog.String("component", "sessions")),
		byPhone: map[string]Handle{},
	}
}

// Send delivers one user turn for phone, creating and rehydrating a
// session first when none is live.
func (s *Sessions) Send(ctx context.Context, phone, text string, grounding bool) (string, error) {
	h, err := s.handleFor(ctx, phone, text, grounding)
	if err != nil {
		return "", err
	}

	reply, err := s.backend.SendMessage(ctx, h, text, grounding)
	if err == nil {
		return reply, nil
	}
	if errors.Is(err, ErrSessionNotFound) {
		// Session evicted underneath us; retry once on a fresh one.
		s.Invalidate(phone)
		if h, err = s.handleFor(ctx, phone, text, grounding); err != nil {
			return "", err
		}
		return s.backend.SendMessage(ctx, h, text, grounding)
	}
	return "", err
}

// Invalidate drops phone's session, destroying it on the backend.
func (s *Sessions) Invalidate(phone string) {
	s.mu.Lock()
	h, ok := s.byPhone[phone]
	delete(s.byPhone, phone)
	s.mu.Unlock()
	if ok {
		s.backend.DestroySession(h)
	}
}

// ActiveCount returns the number of live sessions.
func (s *Sessions) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byPhone)
}

func (s *Sessions) handleFor(ctx context.Context, phone, pendingText string, grounding bool) (Handle, error) {
	s.mu.Lock()
	if h, ok := s.byPhone[phone]; ok {
		s.mu.Unlock()
		return h, nil
	}
	s.mu.Unlock()

	h, err := s.backend.CreateSession(ctx)
	if err != nil {
		return "", err
	}
	s.rehydrate(ctx, h, phone, pendingText, grounding)

	s.mu.Lock()
	s.byPhone[phone] = h
	s.mu.Unlock()

	s.conv.SetSessionHandle(phone, string(h))
	return h, nil
}

// rehydrate replays persisted user turns into a fresh session so the
// model regains multi-turn context after a restart. The turn about to
// be sent is already in history at this point and is skipped. Replay
// failures are logged; the session is still usable.
func (s *Sessions) rehydrate(ctx context.Context, h Handle, phone, pendingText string, grounding bool) {
	turns := s.conv.UserTurns(phone, maxRehydrateTurns)
	if n := len(turns); n > 0 && turns[n-1] == pendingText {
		turns = turns[:n-1]
	}
	if len(turns) == 0 {
		return
	}
	s.logger.Info("rehydrating session", slog.String("phone", phone), slog.Int("turns", len(turns)))
	for _, turn := range turns {
		if _, err := s.backend.SendMessage(ctx, h, turn, grounding); err != nil {
			s.logger.Warn("rehydration turn failed", slog.String("phone", phone), slog.Any("error", err))
		}
	}
}
