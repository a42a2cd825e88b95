package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSenderChunksLongReply(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	text := strings.Repeat("abcdefghi ", 40) // 400 GSM chars -> 3 segments

	env.svc.processSend(context.Background(), sendJob{phone: "+15550001", text: text})

	texts := env.transport.sentTexts()
	if len(texts) != 3 {
		t.Fatalf("sent %d chunks, want 3", len(texts))
	}
	if strings.Join(texts, "") != text {
		t.Fatal("chunked sends do not reconstruct the reply")
	}
}

func TestSenderAttemptsRemainingChunksAfterFailure(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	text := strings.Repeat("abcdefghi ", 40)
	var failedOnce bool
	env.transport.sendErr = func(string) error {
		if !failedOnce {
			failedOnce = true
			return errors.New("carrier glitch")
		}
		return nil
	}

	env.svc.processSend(context.Background(), sendJob{phone: "+15550001", text: text})

	if got := len(env.transport.sentTexts()); got != 2 {
		t.Fatalf("delivered %d of 3 chunks, want the 2 after the failed one", got)
	}
}

func TestSenderSkipsEmptyJob(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.svc.processSend(context.Background(), sendJob{phone: "+15550001", text: ""})
	if got := len(env.transport.sentTexts()); got != 0 {
		t.Fatalf("sent %d chunks for empty text, want 0", got)
	}
}

func TestSendQueueBound(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, func(cfg *Config) { cfg.SendQueueSize = 2 })

	if err := env.svc.enqueueSend("+15550001", "a"); err != nil {
		t.Fatal(err)
	}
	if err := env.svc.enqueueSend("+15550001", "b"); err != nil {
		t.Fatal(err)
	}
	if err := env.svc.enqueueSend("+15550001", "c"); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("overflow error = %v, want ErrQueueFull", err)
	}
	if depth := len(env.svc.sendQueue); depth != 2 {
		t.Fatalf("queue depth = %d, want bound of 2", depth)
	}
}
