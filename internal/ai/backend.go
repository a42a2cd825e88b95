// Package ai defines the conversational AI backend contract, its Gemini
// implementation, and per-phone session management.
package ai

import (
	"context"
	"errors"
)

// Handle is an opaque reference to one AI conversation session.
type Handle string

// ErrSessionNotFound is returned when a handle no longer maps to a live session.
var ErrSessionNotFound = errors.New("ai: session not found")

// Backend abstracts the hosted conversational model.
type Backend interface {
	// CreateSession opens a fresh conversation seeded with the system prompt.
	CreateSession(ctx context.Context) (Handle, error)
	// SendMessage sends one user turn and returns the model reply text.
	// grounding enables search-grounded generation where supported.
	SendMessage(ctx context.Context, h Handle, text string, grounding bool) (string, error)
	// DestroySession releases the session behind h. Unknown handles are ignored.
	DestroySession(h Handle)
}
