// Package messaging publishes and consumes events through NATS, Kafka, NSQ,
// Google Pub/Sub or an in-process broker behind one interface.
//
// Every driver carries string headers end to end, so request scoped values
// such as the correlation id survive the hop to a consumer.
package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrTopicRequired   = errors.New("messaging: topic is required")
	ErrHandlerRequired = errors.New("messaging: handler is required")
	ErrGroupRequired   = errors.New("messaging: consumer group is required")
	ErrClosed          = errors.New("messaging: client is closed")
)

type Messaging interface {
	io.Closer
	Publisher
	Consumer
}

type Publisher interface {
	Publish(ctx context.Context, topic string, env Envelope) error
}

// Consumer blocks in Consume until ctx is canceled or the broker fails.
type Consumer interface {
	Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes one delivery. With auto-ack enabled a nil error acks the
// message and a non-nil error asks the broker to redeliver it.
type Handler func(ctx context.Context, msg Message) error

// Envelope is an outgoing message.
type Envelope struct {
	// Key drives partitioning on Kafka and ordering on Pub/Sub. Optional.
	Key     string
	Body    []byte
	Headers map[string]string
}

// Message is a received delivery.
type Message interface {
	ID() string
	Topic() string
	Body() []byte
	Header(key string) string
	Headers() map[string]string
	Timestamp() time.Time
	Ack(ctx context.Context) error
	Nack(ctx context.Context) error
}
