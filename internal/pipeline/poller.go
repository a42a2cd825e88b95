package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/smartkrishi/smsgate/internal/conversation"
	"github.com/smartkrishi/smsgate/internal/sms"
)

// runPoller queries the transport at a fixed interval. A failed cycle
// is logged and retried on the next tick; the interval itself is the
// rate limit, so no extra backoff is applied.
func (s *Service) runPoller(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("poller stop")
			return
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

// pollOnce processes one transport listing. New messages are marked in
// the ledger, published to long-poll waiters, and handled in transport
// order, so per-sender ordering within a cycle is preserved.
func (s *Service) pollOnce(ctx context.Context) {
	messages, err := s.transport.ListMessages(ctx)
	if err != nil {
		s.logger.Warn("list messages failed", slog.Any("error", err))
		return
	}

	for _, msg := range messages {
		if !s.ledger.IsNew(msg.ID) {
			continue
		}
		s.ledger.MarkProcessed(msg.ID)
		s.logger.Info("inbound sms",
			slog.String("id", msg.ID),
			slog.String("phone", msg.PhoneNumber),
			slog.Int("length", len(msg.Text)),
		)
		s.broker.Publish(msg)
		s.handleInbound(msg)
	}
}

// handleInbound applies keyword commands, records the message, and
// dispatches registered senders' traffic to the AI queue. Unregistered
// traffic is recorded in history but never dispatched.
func (s *Service) handleInbound(msg sms.Message) {
	phone := msg.PhoneNumber
	text := strings.TrimSpace(msg.Text)

	switch strings.ToLower(text) {
	case commandRegister:
		if s.conv.Register(phone) {
			s.logger.Info("registered via sms", slog.String("phone", phone))
			s.sendOrLog(phone, registeredText)
		} else {
			s.sendOrLog(phone, alreadyRegisteredText)
		}
		return
	case commandClear:
		s.clearConversation(phone)
		s.sendOrLog(phone, clearedText)
		return
	}

	s.conv.Append(phone, conversation.RoleUser, conversation.DirectionInbound, text)

	if !s.conv.IsRegistered(phone) {
		s.logger.Info("unregistered sender, not dispatching", slog.String("phone", phone))
		return
	}

	s.sendAck(phone)
	if err := s.enqueueDispatch(phone, text); err != nil {
		s.conv.Append(phone, conversation.RoleSystem, conversation.DirectionOutbound,
			"Message not processed: dispatch queue full")
	}
}

func (s *Service) sendOrLog(phone, text string) {
	if err := s.enqueueSend(phone, text); err != nil {
		s.logger.Warn("confirmation dropped", slog.String("phone", phone), slog.Any("error", err))
	}
}
