// Package sms defines the carrier SMS transport contract, the Termux
// implementation, and GSM-aware message chunking.
package sms

import (
	"context"
	"time"
)

// Message is one inbound SMS as reported by the transport. The ID is
// transport-assigned and stable across polls.
type Message struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	Text        string    `json:"message"`
	ReceivedAt  time.Time `json:"timestamp"`
}

// Transport abstracts the OS/carrier SMS subsystem.
type Transport interface {
	// ListMessages returns the current inbox window in transport order.
	// Previously seen messages may be included.
	ListMessages(ctx context.Context) ([]Message, error)
	// Send delivers a single carrier-safe chunk to phone.
	Send(ctx context.Context, phone, text string) error
	// Available reports whether the transport is reachable.
	Available(ctx context.Context) bool
}
