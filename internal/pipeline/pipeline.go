// Package pipeline is the message processing core: it polls the SMS
// transport, deduplicates and records inbound traffic, dispatches
// registered senders' messages to the AI backend, and schedules chunked
// outbound replies. It also exposes the request-layer contract consumed
// by the HTTP handlers.
package pipeline

import (
	"errors"
	"regexp"
	"time"
)

var (
	// ErrQueueFull signals a bounded queue rejected the newest job.
	ErrQueueFull = errors.New("pipeline: queue full")
	// ErrNoNewMessages signals a long-poll wait elapsed without traffic.
	ErrNoNewMessages = errors.New("pipeline: no new messages")
	// ErrInvalidPhone rejects malformed phone numbers at the request boundary.
	ErrInvalidPhone = errors.New("pipeline: invalid phone number")
	// ErrEmptyMessage rejects empty payloads at the request boundary.
	ErrEmptyMessage = errors.New("pipeline: empty message")
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// Config tunes the pipeline loops and queues. Zero values fall back to
// the defaults below.
type Config struct {
	PollInterval    time.Duration
	LongPollTimeout time.Duration
	ChunkDelay      time.Duration

	DispatchQueueSize int
	SendQueueSize     int
	DispatchWorkers   int

	Grounding   bool
	AckText     string
	ApologyText string
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.LongPollTimeout <= 0 {
		c.LongPollTimeout = 30 * time.Second
	}
	if c.ChunkDelay <= 0 {
		c.ChunkDelay = time.Second
	}
	if c.DispatchQueueSize <= 0 {
		c.DispatchQueueSize = 64
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = 128
	}
	if c.DispatchWorkers <= 0 {
		// One worker keeps strict per-enqueue ordering of AI replies.
		c.DispatchWorkers = 1
	}
	return c
}

// dispatchJob is one inbound user turn awaiting an AI reply.
type dispatchJob struct {
	phone string
	text  string
}

// sendJob is one outbound message; the send worker chunks it.
type sendJob struct {
	phone string
	text  string
}

func validPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}
