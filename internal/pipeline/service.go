package pipeline

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/smartkrishi/smsgate/internal/ai"
	"github.com/smartkrishi/smsgate/internal/conversation"
	"github.com/smartkrishi/smsgate/internal/ledger"
	"github.com/smartkrishi/smsgate/internal/sms"
)

// Inbound SMS keyword commands: "chat" registers the sender, "clear"
// wipes their history and session.
const (
	commandRegister = "chat"
	commandClear    = "clear"

	registeredText        = "Your number has been registered successfully."
	alreadyRegisteredText = "Your number is already registered. You can start chatting!"
	clearedText           = "Chat history cleared successfully"
)

// Service owns the poller, the dispatch and send queues with their
// workers, and the long-poll broker.
type Service struct {
	cfg       Config
	transport sms.Transport
	ledger    *ledger.Ledger
	conv      *conversation.Store
	sessions  *ai.Sessions
	broker    *Broker
	logger    *slog.Logger

	dispatchQueue chan dispatchJob
	sendQueue     chan sendJob
	sendLimiter   *rate.Limiter
}

// NewService wires the pipeline from its collaborators.
func NewService(log *slog.Logger, cfg Config, transport sms.Transport, led *ledger.Ledger, conv *conversation.Store, sessions *ai.Sessions) *Service {
	if log == nil {
		log = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Service{
		cfg:           cfg,
		transport:     transport,
		ledger:        led,
		conv:          conv,
		sessions:      sessions,
		broker:        NewBroker(),
		logger:        log.With(slog.String("component", "pipeline")),
		dispatchQueue: make(chan dispatchJob, cfg.DispatchQueueSize),
		sendQueue:     make(chan sendJob, cfg.SendQueueSize),
		sendLimiter:   rate.NewLimiter(rate.Every(cfg.ChunkDelay), 1),
	}
}

// Start launches the poller and worker loops. They run until ctx is
// cancelled; durable state is persisted as it changes, so a hard stop
// loses nothing that cannot be reprocessed.
func (s *Service) Start(ctx context.Context) {
	s.logger.Info("pipeline start",
		slog.Duration("poll_interval", s.cfg.PollInterval),
		slog.Int("dispatch_workers", s.cfg.DispatchWorkers),
		slog.Bool("grounding", s.cfg.Grounding),
	)
	go s.runPoller(ctx)
	for i := 0; i < s.cfg.DispatchWorkers; i++ {
		go s.runDispatchWorker(ctx, i)
	}
	go s.runSendWorker(ctx)
}

// Status is the system status snapshot exposed to the request layer.
type Status struct {
	TransportAvailable bool `json:"termux_api"`
	RegisteredNumbers  int  `json:"registered_numbers"`
	ActiveSessions     int  `json:"active_chats"`
	ProcessedCount     int  `json:"processed_sms_count"`
	SendQueueDepth     int  `json:"send_queue_size"`
	DispatchQueueDepth int  `json:"dispatch_queue_size"`
	GroundingEnabled   bool `json:"grounding_enabled"`
}

// Status reports counts and queue depths for the status endpoint.
func (s *Service) Status(ctx context.Context) Status {
	return Status{
		TransportAvailable: s.transport.Available(ctx),
		RegisteredNumbers:  len(s.conv.Registered()),
		ActiveSessions:     s.sessions.ActiveCount(),
		ProcessedCount:     s.ledger.Count(),
		SendQueueDepth:     len(s.sendQueue),
		DispatchQueueDepth: len(s.dispatchQueue),
		GroundingEnabled:   s.cfg.Grounding,
	}
}

// EnqueueOutbound queues text for delivery to phone. The send worker
// chunks it; outbound API traffic is recorded when a conversation
// record already exists.
func (s *Service) EnqueueOutbound(phone, text string) error {
	if !validPhone(phone) {
		return ErrInvalidPhone
	}
	if text == "" {
		return ErrEmptyMessage
	}
	if err := s.enqueueSend(phone, text); err != nil {
		return err
	}
	if _, total := s.conv.History(phone, 1); total > 0 || s.conv.IsRegistered(phone) {
		s.conv.Append(phone, conversation.RoleSystem, conversation.DirectionOutbound, text)
	}
	return nil
}

// AwaitInbound blocks until the next inbound message or the configured
// long-poll timeout (ErrNoNewMessages).
func (s *Service) AwaitInbound(ctx context.Context) (sms.Message, error) {
	return s.broker.AwaitNext(ctx, s.cfg.LongPollTimeout)
}

// Register adds phone to the registered set and queues a confirmation
// SMS when it was not registered before. It reports whether the
// registration is new.
func (s *Service) Register(phone string) (bool, error) {
	if !validPhone(phone) {
		return false, ErrInvalidPhone
	}
	created := s.conv.Register(phone)
	if created {
		if err := s.enqueueSend(phone, registeredText); err != nil {
			s.logger.Warn("registration confirmation dropped", slog.String("phone", phone), slog.Any("error", err))
		}
	}
	return created, nil
}

// UnregisterAndClear removes phone's history and registration,
// invalidates its AI session, and queues a confirmation SMS.
func (s *Service) UnregisterAndClear(phone string) error {
	if !validPhone(phone) {
		return ErrInvalidPhone
	}
	s.clearConversation(phone)
	if err := s.enqueueSend(phone, clearedText); err != nil {
		s.logger.Warn("clear confirmation dropped", slog.String("phone", phone), slog.Any("error", err))
	}
	return nil
}

// History returns a copy of phone's most recent limit entries and the
// total entry count.
func (s *Service) History(phone string, limit int) ([]conversation.Entry, int, error) {
	if !validPhone(phone) {
		return nil, 0, ErrInvalidPhone
	}
	entries, total := s.conv.History(phone, limit)
	return entries, total, nil
}

// ChatMessage records text as an inbound user turn for phone,
// registering the number if needed, and dispatches it to the AI.
func (s *Service) ChatMessage(phone, text string) error {
	if !validPhone(phone) {
		return ErrInvalidPhone
	}
	if text == "" {
		return ErrEmptyMessage
	}
	s.conv.Register(phone)
	s.conv.Append(phone, conversation.RoleUser, conversation.DirectionInbound, text)
	s.sendAck(phone)
	return s.enqueueDispatch(phone, text)
}

// ListRegistered returns the registered phone numbers.
func (s *Service) ListRegistered() []string {
	return s.conv.Registered()
}

func (s *Service) clearConversation(phone string) {
	if _, existed := s.conv.Clear(phone); existed {
		s.logger.Info("conversation cleared", slog.String("phone", phone))
	}
	s.sessions.Invalidate(phone)
}

func (s *Service) sendAck(phone string) {
	if s.cfg.AckText == "" {
		return
	}
	if err := s.enqueueSend(phone, s.cfg.AckText); err != nil {
		s.logger.Warn("ack dropped", slog.String("phone", phone), slog.Any("error", err))
	}
}

// enqueueSend offers a job to the bounded send queue without blocking.
func (s *Service) enqueueSend(phone, text string) error {
	select {
	case s.sendQueue <- sendJob{phone: phone, text: text}:
		return nil
	default:
		s.logger.Error("send queue full, dropping job", slog.String("phone", phone))
		return ErrQueueFull
	}
}

// enqueueDispatch offers a job to the bounded dispatch queue without blocking.
func (s *Service) enqueueDispatch(phone, text string) error {
	select {
	case s.dispatchQueue <- dispatchJob{phone: phone, text: text}:
		return nil
	default:
		s.logger.Error("dispatch queue full, dropping job", slog.String("phone", phone))
		return ErrQueueFull
	}
}
