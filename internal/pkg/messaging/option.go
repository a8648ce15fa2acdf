package messaging

type consumeOptions struct {
	group       string
	concurrency int
	maxInFlight int
	autoAck     bool
}

type ConsumeOption func(*consumeOptions)

func newConsumeOptions(opts ...ConsumeOption) consumeOptions {
	co := consumeOptions{concurrency: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&co)
		}
	}
	if co.concurrency < 1 {
		co.concurrency = 1
	}
	if co.maxInFlight < co.concurrency {
		co.maxInFlight = co.concurrency
	}
	return co
}

// WithGroup names the competing consumer set: the Kafka group id, the NATS
// queue group, the NSQ channel or the Pub/Sub subscription id.
func WithGroup(group string) ConsumeOption {
	return func(o *consumeOptions) { o.group = group }
}

// WithConcurrency sets how many handlers run in parallel.
func WithConcurrency(n int) ConsumeOption {
	return func(o *consumeOptions) { o.concurrency = n }
}

// WithMaxInFlight bounds unacknowledged deliveries where the broker supports it.
func WithMaxInFlight(n int) ConsumeOption {
	return func(o *consumeOptions) { o.maxInFlight = n }
}

// WithAutoAck acks on handler success and nacks on failure.
func WithAutoAck(autoAck bool) ConsumeOption {
	return func(o *consumeOptions) { o.autoAck = autoAck }
}
