package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

var ErrNATSURLRequired = errors.New("messaging: nats url is required")

type NATSConfig struct {
	URL     string
	Options []nats.Option
}

// NATS is a core NATS client. Core NATS has no redelivery, so Nack only
// releases the worker slot.
type NATS struct {
	conn *nats.Conn

	mu     sync.Mutex
	subs   []*nats.Subscription
	closed bool
}

func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	conn, err := nats.Connect(cfg.URL, cfg.Options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}

	return &NATS{conn: conn}, nil
}

func (n *NATS) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	subs := append([]*nats.Subscription{}, n.subs...)
	n.mu.Unlock()

	var closeErr error
	for _, sub := range subs {
		if err := sub.Drain(); err != nil {
			closeErr = errors.Join(closeErr, err)
		}
	}
	if err := n.conn.Drain(); err != nil {
		closeErr = errors.Join(closeErr, err)
	}
	n.conn.Close()
	return closeErr
}

func (n *NATS) Publish(ctx context.Context, topic string, env Envelope) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := nats.NewMsg(topic)
	msg.Data = env.Body
	for k, v := range env.Headers {
		msg.Header.Set(k, v)
	}
	if env.Key != "" {
		msg.Header.Set("Nats-Msg-Key", env.Key)
	}

	if err := n.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("messaging: nats publish: %w", err)
	}
	return nil
}

func (n *NATS) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	co := newConsumeOptions(opts...)

	msgCh := make(chan *nats.Msg, co.maxInFlight)
	cb := func(msg *nats.Msg) {
		select {
		case msgCh <- msg:
		case <-ctx.Done():
		}
	}

	var (
		sub *nats.Subscription
		err error
	)
	if co.group != "" {
		sub, err = n.conn.QueueSubscribe(topic, co.group, cb)
	} else {
		sub, err = n.conn.Subscribe(topic, cb)
	}
	if err != nil {
		return fmt.Errorf("messaging: nats subscribe: %w", err)
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		_ = sub.Unsubscribe()
		return ErrClosed
	}
	n.subs = append(n.subs, sub)
	n.mu.Unlock()

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case msg := <-msgCh:
					_ = dispatch(ctx, DriverNATS, handler, natsDelivery(msg), co.autoAck)
				}
			}
		})
	}

	<-ctx.Done()
	drainErr := sub.Drain()
	wg.Wait()

	if errors.Is(ctx.Err(), context.Canceled) {
		return drainErr
	}
	return errors.Join(ctx.Err(), drainErr)
}

func natsDelivery(msg *nats.Msg) *delivery {
	headers := make(map[string]string, len(msg.Header))
	for k := range msg.Header {
		headers[k] = msg.Header.Get(k)
	}

	return &delivery{
		id:        msg.Header.Get(nats.MsgIdHdr),
		topic:     msg.Subject,
		body:      msg.Data,
		headers:   headers,
		timestamp: time.Now(),
	}
}
