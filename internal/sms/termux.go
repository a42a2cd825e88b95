package sms

import (
	"context"
	"encoding/json"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	listTimeout = 10 * time.Second
	sendTimeout = 30 * time.Second

	termuxTimeLayout = "2006-01-02 15:04:05"
)

// Termux is the SMS transport backed by the termux-api shell commands
// (termux-sms-list / termux-sms-send).
type Termux struct {
	listLimit int
	logger    *slog.Logger
}

// NewTermux builds a Termux transport that lists at most listLimit messages per poll.
func NewTermux(log *slog.Logger, listLimit int) *Termux {
	if log == nil {
		log = slog.Default()
	}
	if listLimit <= 0 {
		listLimit = 50
	}
	return &Termux{
		listLimit: listLimit,
		logger:    log.With(slog.String("component", "termux")),
	}
}

type termuxMessage struct {
	ID       json.Number `json:"_id"`
	Number   string      `json:"number"`
	Body     string      `json:"body"`
	Type     string      `json:"type"`
	Received string      `json:"received"`
}

// ListMessages runs termux-sms-list and returns inbox messages in
// transport order. Command or decode failures are returned to the
// caller; the poller retries on its next cycle.
func (t *Termux) ListMessages(ctx context.Context) ([]Message, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "termux-sms-list", "-l", strconv.Itoa(t.listLimit)).Output()
	if err != nil {
		return nil, err
	}
	return parseList(out)
}

// Send runs termux-sms-send for a single chunk.
func (t *Termux) Send(ctx context.Context, phone, text string) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := exec.CommandContext(ctx, "termux-sms-send", "-n", phone, text).Run(); err != nil {
		return err
	}
	t.logger.Info("sms sent", slog.String("phone", phone), slog.Int("length", len(text)))
	return nil
}

// Available reports whether termux-sms-list runs successfully.
func (t *Termux) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	if err := exec.CommandContext(ctx, "termux-sms-list").Run(); err != nil {
		t.logger.Warn("termux api unavailable", slog.Any("error", err))
		return false
	}
	return true
}

// parseList decodes termux-sms-list JSON output, keeping inbox entries
// with a usable id and sender.
func parseList(out []byte) ([]Message, error) {
	var raw []termuxMessage
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, err
	}

	messages := make([]Message, 0, len(raw))
	for _, item := range raw {
		if item.Type != "inbox" {
			continue
		}
		id := item.ID.String()
		phone := strings.TrimSpace(item.Number)
		if id == "" || phone == "" {
			continue
		}
		receivedAt, err := time.ParseInLocation(termuxTimeLayout, item.Received, time.Local)
		if err != nil {
			receivedAt = time.Now()
		}
		messages = append(messages, Message{
			ID:          id,
			PhoneNumber: phone,
			Text:        item.Body,
			ReceivedAt:  receivedAt,
		})
	}
	return messages, nil
}
