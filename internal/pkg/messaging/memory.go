package messaging

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/atomic"
)

const (
	defaultRedeliveryDelay = 100 * time.Millisecond
	maxRedeliveryDelay     = 5 * time.Second
)

// Memory is an in-process broker. Each group receives every message once;
// consumers sharing a group compete for it. A nacked message is redelivered
// to the same group until acked, after a delay that doubles per attempt.
type Memory struct {
	seq atomic.Int64

	redeliveryDelay time.Duration

	mu     sync.RWMutex
	groups map[string]map[string]chan *memoryMessage
	closed bool
	done   chan struct{}
}

type memoryMessage struct {
	id        string
	topic     string
	body      []byte
	headers   map[string]string
	timestamp time.Time
	attempts  int
}

type MemoryOption func(*Memory)

// WithRedeliveryDelay sets the wait before the first redelivery of a nacked
// message.
func WithRedeliveryDelay(d time.Duration) MemoryOption {
	return func(m *Memory) {
		if d > 0 {
			m.redeliveryDelay = d
		}
	}
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		redeliveryDelay: defaultRedeliveryDelay,
		groups:          make(map[string]map[string]chan *memoryMessage),
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// Publish fans the message out to every group subscribed to topic. A topic
// with no group drops the message, like a broker without subscriptions.
func (m *Memory) Publish(ctx context.Context, topic string, env Envelope) error {
	if topic == "" {
		return ErrTopicRequired
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrClosed
	}

	headers := make(map[string]string, len(env.Headers))
	for k, v := range env.Headers {
		headers[k] = v
	}
	msg := &memoryMessage{
		id:        strconv.FormatInt(m.seq.Inc(), 10),
		topic:     topic,
		body:      append([]byte(nil), env.Body...),
		headers:   headers,
		timestamp: time.Now(),
	}

	for _, ch := range m.groups[topic] {
		select {
		case ch <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (m *Memory) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	co := newConsumeOptions(opts...)

	ch, err := m.subscribe(topic, co)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-m.done:
					return
				case msg := <-ch:
					d := &delivery{
						id:        msg.id,
						topic:     msg.topic,
						body:      msg.body,
						headers:   msg.headers,
						timestamp: msg.timestamp,
						nack: func() error {
							go m.redeliver(ctx, ch, msg)
							return nil
						},
					}
					_ = dispatch(ctx, DriverMemory, handler, d, co.autoAck)
				}
			}
		})
	}
	wg.Wait()

	return nil
}

func (m *Memory) subscribe(topic string, co consumeOptions) (chan *memoryMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	group := co.group
	if group == "" {
		group = "_" + strconv.FormatInt(m.seq.Inc(), 10)
	}

	byGroup, ok := m.groups[topic]
	if !ok {
		byGroup = make(map[string]chan *memoryMessage)
		m.groups[topic] = byGroup
	}
	ch, ok := byGroup[group]
	if !ok {
		ch = make(chan *memoryMessage, max(co.maxInFlight, 64))
		byGroup[group] = ch
	}
	return ch, nil
}

func (m *Memory) backoff(attempts int) time.Duration {
	d := m.redeliveryDelay << min(attempts, 16)
	if d <= 0 || d > maxRedeliveryDelay {
		return maxRedeliveryDelay
	}
	return d
}

func (m *Memory) redeliver(ctx context.Context, ch chan *memoryMessage, msg *memoryMessage) {
	next := *msg
	next.attempts++

	timer := time.NewTimer(m.backoff(msg.attempts))
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		return
	case <-m.done:
		return
	}

	select {
	case ch <- &next:
	case <-ctx.Done():
	case <-m.done:
	}
}
