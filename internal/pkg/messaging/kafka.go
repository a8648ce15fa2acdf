package messaging

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/segmentio/kafka-go"
)

var ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers are required")

type KafkaConfig struct {
	Brokers  []string
	ClientID string
}

type Kafka struct {
	cfg    KafkaConfig
	dialer *kafka.Dialer

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	readers []*kafka.Reader
	closed  bool
}

func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}

	return &Kafka{
		cfg:     cfg,
		dialer:  &kafka.Dialer{ClientID: cfg.ClientID, DualStack: true},
		writers: make(map[string]*kafka.Writer),
	}, nil
}

func (k *Kafka) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	writers := k.writers
	readers := k.readers
	k.writers = nil
	k.readers = nil
	k.mu.Unlock()

	var closeErr error
	for _, w := range writers {
		closeErr = errors.Join(closeErr, w.Close())
	}
	for _, r := range readers {
		closeErr = errors.Join(closeErr, r.Close())
	}
	return closeErr
}

func (k *Kafka) Publish(ctx context.Context, topic string, env Envelope) error {
	if topic == "" {
		return ErrTopicRequired
	}

	w, err := k.writer(topic)
	if err != nil {
		return err
	}

	msg := kafka.Message{Value: env.Body}
	if env.Key != "" {
		msg.Key = []byte(env.Key)
	}
	for key, v := range env.Headers {
		msg.Headers = append(msg.Headers, kafka.Header{Key: key, Value: []byte(v)})
	}

	if err := w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("messaging: kafka publish: %w", err)
	}
	return nil
}

func (k *Kafka) writer(topic string) (*kafka.Writer, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return nil, ErrClosed
	}
	if w, ok := k.writers[topic]; ok {
		return w, nil
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(k.cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	k.writers[topic] = w
	return w, nil
}

// Consume commits offsets only on Ack. A Nack leaves the offset in place so
// the message is redelivered after a rebalance or restart.
func (k *Kafka) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
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

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: k.cfg.Brokers,
		GroupID: co.group,
		Topic:   topic,
		Dialer:  k.dialer,
	})

	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		_ = reader.Close()
		return ErrClosed
	}
	k.readers = append(k.readers, reader)
	k.mu.Unlock()

	msgCh := make(chan kafka.Message, co.maxInFlight)
	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for msg := range msgCh {
				_ = dispatch(ctx, DriverKafka, handler, kafkaDelivery(ctx, reader, msg), co.autoAck)
			}
		})
	}

	var fetchErr error
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				fetchErr = fmt.Errorf("messaging: kafka fetch: %w", err)
			}
			break
		}
		msgCh <- msg
	}
	close(msgCh)
	wg.Wait()

	return fetchErr
}

func kafkaDelivery(ctx context.Context, reader *kafka.Reader, msg kafka.Message) *delivery {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}

	return &delivery{
		id:        msg.Topic + "/" + strconv.Itoa(msg.Partition) + "/" + strconv.FormatInt(msg.Offset, 10),
		topic:     msg.Topic,
		body:      msg.Value,
		headers:   headers,
		timestamp: msg.Time,
		ack: func() error {
			return reader.CommitMessages(context.WithoutCancel(ctx), msg)
		},
	}
}
