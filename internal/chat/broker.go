package chat

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nettrack/backend/internal/models"
)

var errBrokerClosed = errors.New("chat broker closed")

// MessageSource is the read side the broker refreshes subscriptions from.
type MessageSource interface {
	Conversation(ctx context.Context, key string) ([]models.ChatMessage, error)
}

// Broker turns the store's poll-based freshness into a push-style
// subscription interface. Each subscription re-reads its conversation on a
// fixed interval and whenever Notify is called for the key, and delivers the
// full message list as a snapshot; a newer snapshot replaces an unconsumed
// older one.
type Broker struct {
	source   MessageSource
	interval time.Duration
	logger   *slog.Logger

	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// Subscription is a live view onto one conversation.
type Subscription struct {
	// Snapshots receives the full message list after every refresh.
	Snapshots <-chan []models.ChatMessage

	key     string
	ch      chan []models.ChatMessage
	refresh chan struct{}
	close   func()
	once    sync.Once
}

// Key returns the conversation key this subscription watches.
func (s *Subscription) Key() string { return s.key }

// Close tears the subscription down and stops its poll goroutine.
func (s *Subscription) Close() {
	s.once.Do(s.close)
}

// NewBroker constructs a Broker polling at the provided interval.
func NewBroker(source MessageSource, interval time.Duration, logger *slog.Logger) *Broker {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Broker{
		source:   source,
		interval: interval,
		logger:   logger,
		subs:     make(map[string]map[*Subscription]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Subscribe opens a live view onto the conversation key. An initial snapshot
// is delivered before the first tick. The subscription ends when ctx is
// cancelled, Close is called, or the broker shuts down.
func (b *Broker) Subscribe(ctx context.Context, key string) (*Subscription, error) {
	select {
	case <-b.ctx.Done():
		return nil, errBrokerClosed
	default:
	}

	subCtx, cancel := context.WithCancel(ctx)

	sub := &Subscription{
		key:     key,
		ch:      make(chan []models.ChatMessage, 1),
		refresh: make(chan struct{}, 1),
	}
	sub.Snapshots = sub.ch
	sub.close = cancel

	b.mu.Lock()
	if b.subs[key] == nil {
		b.subs[key] = make(map[*Subscription]struct{})
	}
	b.subs[key][sub] = struct{}{}
	b.mu.Unlock()

	b.wg.Add(1)
	go b.run(subCtx, sub)

	return sub, nil
}

// Notify wakes every subscription on the conversation key so local writes
// are visible without waiting for the next tick.
func (b *Broker) Notify(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs[key] {
		select {
		case sub.refresh <- struct{}{}:
		default:
		}
	}
}

// Shutdown stops all subscriptions and waits for their goroutines to exit.
func (b *Broker) Shutdown(ctx context.Context) error {
	b.once.Do(b.cancel)

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (b *Broker) run(ctx context.Context, sub *Subscription) {
	defer b.wg.Done()
	defer b.remove(sub)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.deliver(ctx, sub)

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.ctx.Done():
			return
		case <-ticker.C:
			b.deliver(ctx, sub)
		case <-sub.refresh:
			b.deliver(ctx, sub)
		}
	}
}

func (b *Broker) deliver(ctx context.Context, sub *Subscription) {
	messages, err := b.source.Conversation(ctx, sub.key)
	if err != nil {
		if ctx.Err() == nil {
			b.logger.Warn("refresh conversation failed", "conversation", sub.key, "error", err)
		}
		return
	}

	// Replace an unconsumed snapshot so the receiver always sees the
	// latest list.
	select {
	case sub.ch <- messages:
	default:
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- messages:
		default:
		}
	}
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	if set, ok := b.subs[sub.key]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(b.subs, sub.key)
		}
	}
	b.mu.Unlock()
	close(sub.ch)
}
