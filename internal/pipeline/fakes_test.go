package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/smartkrishi/smsgate/internal/ai"
	"github.com/smartkrishi/smsgate/internal/conversation"
	"github.com/smartkrishi/smsgate/internal/ledger"
	"github.com/smartkrishi/smsgate/internal/sms"
)

type sentSMS struct {
	phone string
	text  string
}

// fakeTransport is an in-memory SMS transport for pipeline tests.
type fakeTransport struct {
	mu      sync.Mutex
	inbox   []sms.Message
	sent    []sentSMS
	listErr error
	sendErr func(text string) error
	offline bool
}

func (f *fakeTransport) ListMessages(context.Context) ([]sms.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]sms.Message, len(f.inbox))
	copy(out, f.inbox)
	return out, nil
}

func (f *fakeTransport) Send(_ context.Context, phone, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		if err := f.sendErr(text); err != nil {
			return err
		}
	}
	f.sent = append(f.sent, sentSMS{phone: phone, text: text})
	return nil
}

func (f *fakeTransport) Available(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.offline
}

func (f *fakeTransport) receive(id, phone, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inbox = append(f.inbox, sms.Message{
		ID:          id,
		PhoneNumber: phone,
		Text:        text,
		ReceivedAt:  time.Now(),
	})
}

func (f *fakeTransport) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	texts := make([]string, len(f.sent))
	for i, s := range f.sent {
		texts[i] = s.text
	}
	return texts
}

// fakeBackend is a scripted AI backend for pipeline tests.
type fakeBackend struct {
	mu      sync.Mutex
	created int
	turns   []string
	reply   string
	sendErr error
	live    map[ai.Handle]bool
}

func newFakeBackend(reply string) *fakeBackend {
	return &fakeBackend{reply: reply, live: map[ai.Handle]bool{}}
}

func (b *fakeBackend) CreateSession(context.Context) (ai.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.created++
	h := ai.Handle(fmt.Sprintf("sess-%d", b.created))
	b.live[h] = true
	return h, nil
}

func (b *fakeBackend) SendMessage(_ context.Context, h ai.Handle, text string, _ bool) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.live[h] {
		return "", ai.ErrSessionNotFound
	}
	if b.sendErr != nil {
		return "", b.sendErr
	}
	b.turns = append(b.turns, text)
	return b.reply, nil
}

func (b *fakeBackend) DestroySession(h ai.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.live, h)
}

type testEnv struct {
	svc       *Service
	transport *fakeTransport
	backend   *fakeBackend
	conv      *conversation.Store
}

func newTestEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{
		PollInterval:    10 * time.Millisecond,
		LongPollTimeout: 100 * time.Millisecond,
		ChunkDelay:      time.Millisecond,
		AckText:         "", // most tests want clean queue counts
	}
	if mutate != nil {
		mutate(&cfg)
	}

	transport := &fakeTransport{}
	backend := newFakeBackend("the reply")
	conv := conversation.NewStore(nil, filepath.Join(dir, "history.json"))
	led := ledger.Load(nil, filepath.Join(dir, "processed.json"))
	sessions := ai.NewSessions(nil, backend, conv)

	return &testEnv{
		svc:       NewService(nil, cfg, transport, led, conv, sessions),
		transport: transport,
		backend:   backend,
		conv:      conv,
	}
}

// drainDispatch synchronously processes every queued dispatch job.
func (e *testEnv) drainDispatch(t *testing.T) {
	t.Helper()
	for {
		select {
		case job := <-e.svc.dispatchQueue:
			e.svc.processDispatch(context.Background(), e.svc.logger, job)
		default:
			return
		}
	}
}

// drainSend synchronously processes every queued send job.
func (e *testEnv) drainSend(t *testing.T) {
	t.Helper()
	for {
		select {
		case job := <-e.svc.sendQueue:
			e.svc.processSend(context.Background(), job)
		default:
			return
		}
	}
}
