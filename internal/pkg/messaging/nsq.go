package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nsqio/go-nsq"
)

var (
	ErrNSQAddressRequired = errors.New("messaging: nsqd or lookupd address is required")
	ErrNSQFrame           = errors.New("messaging: malformed nsq frame")
)

type NSQConfig struct {
	// NSQDAddress is used for publishing and, without lookupds, for consuming.
	NSQDAddress      string
	LookupdAddresses []string
	RequeueDelay     time.Duration
}

// NSQ frames every body as JSON so headers survive, since NSQ has none.
type NSQ struct {
	cfg      NSQConfig
	producer *nsq.Producer

	mu        sync.Mutex
	consumers []*nsq.Consumer
	closed    bool
}

type nsqFrame struct {
	Headers map[string]string `json:"h,omitempty"`
	Body    []byte            `json:"b"`
}

func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	if cfg.NSQDAddress == "" {
		return nil, ErrNSQAddressRequired
	}
	if cfg.RequeueDelay <= 0 {
		cfg.RequeueDelay = 5 * time.Second
	}

	producer, err := nsq.NewProducer(cfg.NSQDAddress, nsq.NewConfig())
	if err != nil {
		return nil, fmt.Errorf("messaging: nsq producer: %w", err)
	}

	return &NSQ{cfg: cfg, producer: producer}, nil
}

func (n *NSQ) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	consumers := n.consumers
	n.consumers = nil
	n.mu.Unlock()

	for _, c := range consumers {
		c.Stop()
		<-c.StopChan
	}
	n.producer.Stop()
	return nil
}

func (n *NSQ) Publish(ctx context.Context, topic string, env Envelope) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := encodeNSQFrame(env)
	if err != nil {
		return err
	}
	if err := n.producer.Publish(topic, body); err != nil {
		return fmt.Errorf("messaging: nsq publish: %w", err)
	}
	return nil
}

func (n *NSQ) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
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

	cfg := nsq.NewConfig()
	cfg.MaxInFlight = co.maxInFlight

	consumer, err := nsq.NewConsumer(topic, co.group, cfg)
	if err != nil {
		return fmt.Errorf("messaging: nsq consumer: %w", err)
	}
	consumer.SetLoggerLevel(nsq.LogLevelWarning)

	consumer.AddConcurrentHandlers(nsq.HandlerFunc(func(msg *nsq.Message) error {
		msg.DisableAutoResponse()

		d, err := n.delivery(topic, msg)
		if err != nil {
			// poison message, requeueing would loop forever
			msg.Finish()
			return nil
		}
		return dispatch(ctx, DriverNSQ, handler, d, co.autoAck)
	}), co.concurrency)

	if len(n.cfg.LookupdAddresses) > 0 {
		err = consumer.ConnectToNSQLookupds(n.cfg.LookupdAddresses)
	} else {
		err = consumer.ConnectToNSQD(n.cfg.NSQDAddress)
	}
	if err != nil {
		consumer.Stop()
		return fmt.Errorf("messaging: nsq connect: %w", err)
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		consumer.Stop()
		return ErrClosed
	}
	n.consumers = append(n.consumers, consumer)
	n.mu.Unlock()

	select {
	case <-ctx.Done():
		consumer.Stop()
		<-consumer.StopChan
		return nil
	case <-consumer.StopChan:
		return ErrClosed
	}
}

func (n *NSQ) delivery(topic string, msg *nsq.Message) (*delivery, error) {
	frame, err := decodeNSQFrame(msg.Body)
	if err != nil {
		return nil, err
	}

	return &delivery{
		id:        string(msg.ID[:]),
		topic:     topic,
		body:      frame.Body,
		headers:   frame.Headers,
		timestamp: time.Unix(0, msg.Timestamp),
		ack: func() error {
			msg.Finish()
			return nil
		},
		nack: func() error {
			msg.Requeue(n.cfg.RequeueDelay)
			return nil
		},
	}, nil
}

func encodeNSQFrame(env Envelope) ([]byte, error) {
	b, err := json.Marshal(nsqFrame{Headers: env.Headers, Body: env.Body})
	if err != nil {
		return nil, fmt.Errorf("messaging: nsq frame: %w", err)
	}
	return b, nil
}

func decodeNSQFrame(b []byte) (nsqFrame, error) {
	var f nsqFrame
	if err := json.Unmarshal(b, &f); err != nil {
		return nsqFrame{}, fmt.Errorf("%w: %v", ErrNSQFrame, err)
	}
	if f.Headers == nil {
		f.Headers = map[string]string{}
	}
	return f, nil
}
