package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub/v2"
	"google.golang.org/api/option"
)

var ErrPubSubProjectIDRequired = errors.New("messaging: pubsub project id is required")

type PubSubConfig struct {
	ProjectID     string
	ClientOptions []option.ClientOption
}

// PubSub publishes to topics and consumes from the subscription named by
// WithGroup. Subscriptions are provisioned outside this process.
type PubSub struct {
	client *pubsub.Client

	mu         sync.Mutex
	closed     bool
	publishers map[string]*pubsub.Publisher
}

func NewPubSub(ctx context.Context, cfg PubSubConfig) (*PubSub, error) {
	if cfg.ProjectID == "" {
		return nil, ErrPubSubProjectIDRequired
	}

	c, err := pubsub.NewClient(ctx, cfg.ProjectID, cfg.ClientOptions...)
	if err != nil {
		return nil, fmt.Errorf("messaging: pubsub new client: %w", err)
	}

	return &PubSub{client: c, publishers: map[string]*pubsub.Publisher{}}, nil
}

func (p *PubSub) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	pubs := p.publishers
	p.publishers = nil
	p.mu.Unlock()

	for _, pub := range pubs {
		pub.Stop()
	}
	return p.client.Close()
}

func (p *PubSub) Publish(ctx context.Context, topic string, env Envelope) error {
	if topic == "" {
		return ErrTopicRequired
	}

	pub, err := p.publisher(topic)
	if err != nil {
		return err
	}

	res := pub.Publish(ctx, &pubsub.Message{
		Data:        env.Body,
		Attributes:  env.Headers,
		OrderingKey: env.Key,
	})
	if _, err := res.Get(ctx); err != nil {
		return fmt.Errorf("messaging: pubsub publish: %w", err)
	}
	return nil
}

func (p *PubSub) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	co := newConsumeOptions(opts...)
	if co.group == "" {
		return ErrGroupRequired
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrClosed
	}

	sub := p.client.Subscriber(co.group)
	sub.ReceiveSettings.NumGoroutines = co.concurrency
	sub.ReceiveSettings.MaxOutstandingMessages = co.maxInFlight

	return sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		d := &delivery{
			id:        m.ID,
			topic:     topic,
			body:      m.Data,
			headers:   m.Attributes,
			timestamp: m.PublishTime,
			ack:       func() error { m.Ack(); return nil },
			nack:      func() error { m.Nack(); return nil },
		}
		_ = dispatch(ctx, DriverGooglePubSub, handler, d, co.autoAck)
	})
}

func (p *PubSub) publisher(topic string) (*pubsub.Publisher, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	if pub, ok := p.publishers[topic]; ok {
		return pub, nil
	}
	pub := p.client.Publisher(topic)
	p.publishers[topic] = pub
	return pub, nil
}
