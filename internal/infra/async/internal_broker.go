package async

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

type BrokerTopicName string

// BrokerMessage travels between server-side components, e.g. from the config
// service to the websocket fan-out when a registry document changes.
type BrokerMessage struct {
	Event string
	Value any
	Span  trace.Span
}

type InternalBroker interface {
	Subscribe(topic BrokerTopicName) (Subscription, error)
	Unsubscribe(topic BrokerTopicName, subscription Subscription) error
	Publish(ctx context.Context, topic BrokerTopicName, msg BrokerMessage) error
	Stop()
}

// Worker is a long-running background component driven from main.
type Worker interface {
	Run(context.Context, func())
	Shutdown()
}

var ErrTopicNotFound = errors.New("topic not found")
var ErrSubscriptionNotFound = errors.New("subscription not found")
var ErrBrokerStopped = errors.New("broker stopped")

var _ InternalBroker = (*LocalBroker)(nil)

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{
		topics: make(map[BrokerTopicName][]*subscriber),
	}
}

// LocalBroker is an in-process topic broker. Delivery is asynchronous; each
// subscription owns a receiver channel closed exactly once on unsubscribe or
// stop.
type LocalBroker struct {
	mu      sync.RWMutex
	topics  map[BrokerTopicName][]*subscriber
	stopped bool
}

type Subscription struct {
	ID       string
	Receiver chan BrokerMessage
}

type subscriber struct {
	subscription Subscription
	active       bool
	once         sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() {
		s.active = false
		close(s.subscription.Receiver)
	})
}

func (b *LocalBroker) Subscribe(topic BrokerTopicName) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return Subscription{}, ErrBrokerStopped
	}

	subscription := Subscription{
		ID:       uuid.NewString(),
		Receiver: make(chan BrokerMessage),
	}
	b.topics[topic] = append(b.topics[topic], &subscriber{subscription: subscription, active: true})

	return subscription, nil
}

func (b *LocalBroker) Unsubscribe(topic BrokerTopicName, subscription Subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscribers, ok := b.topics[topic]
	if !ok {
		return ErrTopicNotFound
	}

	for _, s := range subscribers {
		if s.subscription.ID == subscription.ID {
			s.close()
			return nil
		}
	}

	return ErrSubscriptionNotFound
}

func (b *LocalBroker) Publish(ctx context.Context, topic BrokerTopicName, msg BrokerMessage) error {
	msg.Span = trace.SpanFromContext(ctx)

	b.mu.RLock()
	subscribers, ok := b.topics[topic]
	snapshot := make([]*subscriber, len(subscribers))
	copy(snapshot, subscribers)
	b.mu.RUnlock()

	if !ok {
		return ErrTopicNotFound
	}

	go func() {
		for _, s := range snapshot {
			if s.active {
				s.subscription.Receiver <- msg
			}
		}
	}()

	return nil
}

func (b *LocalBroker) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopped = true
	for _, subscribers := range b.topics {
		for _, s := range subscribers {
			s.close()
		}
	}
}
