package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/smartkrishi/smsgate/internal/sms"
)

// Broker is the long-poll notification primitive. Every waiter present
// at publish time receives the published message (broadcast); a message
// published with no waiters is not buffered.
type Broker struct {
	mu      sync.Mutex
	waiters map[uint64]chan sms.Message
	nextID  uint64
}

// NewBroker builds an empty broker.
func NewBroker() *Broker {
	return &Broker{waiters: map[uint64]chan sms.Message{}}
}

// Publish delivers msg to every current waiter and clears them.
func (b *Broker) Publish(msg sms.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.waiters {
		select {
		case ch <- msg:
		default:
		}
		delete(b.waiters, id)
	}
}

// AwaitNext blocks until the next message published after the call
// began, the timeout elapses (ErrNoNewMessages), or ctx is done.
func (b *Broker) AwaitNext(ctx context.Context, timeout time.Duration) (sms.Message, error) {
	ch := make(chan sms.Message, 1)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.waiters[id] = ch
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.waiters, id)
		b.mu.Unlock()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg := <-ch:
		return msg, nil
	case <-timer.C:
		return sms.Message{}, ErrNoNewMessages
	case <-ctx.Done():
		return sms.Message{}, ctx.Err()
	}
}
