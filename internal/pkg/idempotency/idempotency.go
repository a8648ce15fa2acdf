// Package idempotency tracks the state of keyed operations in Redis so that
// redelivered messages run their side effects at most once.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrAlreadyInProgress = errors.New("operation already in progress")
	ErrAlreadyCompleted  = errors.New("operation already completed")
	ErrAlreadyFailed     = errors.New("operation already failed")
	ErrInvalidState      = errors.New("invalid state")
)

type State string

const (
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateError      State = "error"
)

func (s State) String() string {
	return string(s)
}

type Idempotency interface {
	Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error)
	MarkCompleted(ctx context.Context, key string, ttl time.Duration) error
	MarkFailed(ctx context.Context, key string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

// StateTracker stores one string per key under a common prefix.
type StateTracker struct {
	client redis.UniversalClient
	prefix string
}

func New(client redis.UniversalClient, prefix string) *StateTracker {
	if prefix == "" {
		prefix = "idempotency:"
	}
	return &StateTracker{client: client, prefix: prefix}
}

const (
	defaultLockDuration = time.Minute
	defaultStateTTL     = 24 * time.Hour
)

type Option func(*execOptions)

type execOptions struct {
	lockDuration  time.Duration
	stateTTL      time.Duration
	stickyFailure bool
}

// WithLockDuration bounds how long an in-progress marker survives a crashed worker.
func WithLockDuration(d time.Duration) Option {
	return func(o *execOptions) { o.lockDuration = d }
}

// WithStateTTL sets how long the terminal state is remembered.
func WithStateTTL(d time.Duration) Option {
	return func(o *execOptions) { o.stateTTL = d }
}

// WithStickyFailure records a failed run so later attempts return
// ErrAlreadyFailed. Without it a failed run releases the key and the next
// delivery may try again.
func WithStickyFailure() Option {
	return func(o *execOptions) { o.stickyFailure = true }
}

func (s *StateTracker) key(k string) string {
	return s.prefix + k
}

// Acquire marks key as in progress when it has no state yet and otherwise
// reports the state it found.
func (s *StateTracker) Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error) {
	fk := s.key(key)

	for range 2 {
		acquired, err := s.client.SetNX(ctx, fk, StateInProgress.String(), lockDuration).Result()
		if err != nil {
			return StateError, err
		}
		if acquired {
			return StateNone, nil
		}

		result, err := s.client.Get(ctx, fk).Result()
		if errors.Is(err, redis.Nil) {
			// expired between SetNX and Get
			continue
		}
		if err != nil {
			return StateError, err
		}

		switch State(result) {
		case StateInProgress, StateCompleted, StateFailed:
			return State(result), nil
		default:
			return StateError, ErrInvalidState
		}
	}

	return StateError, ErrInvalidState
}

func (s *StateTracker) MarkCompleted(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(key), StateCompleted.String(), ttl).Err()
}

func (s *StateTracker) MarkFailed(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(key), StateFailed.String(), ttl).Err()
}

func (s *StateTracker) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

// Exec runs fn at most once per key.
func (s *StateTracker) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := &execOptions{lockDuration: defaultLockDuration, stateTTL: defaultStateTTL}
	for _, opt := range opts {
		opt(o)
	}
	if o.lockDuration <= 0 {
		o.lockDuration = defaultLockDuration
	}
	if o.stateTTL <= 0 {
		o.stateTTL = defaultStateTTL
	}

	state, err := s.Acquire(ctx, key, o.lockDuration)
	if err != nil {
		return err
	}

	switch state {
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	case StateFailed:
		return ErrAlreadyFailed
	}

	if err := fn(ctx); err != nil {
		var markErr error
		if o.stickyFailure {
			markErr = s.MarkFailed(ctx, key, o.stateTTL)
		} else {
			markErr = s.Release(ctx, key)
		}
		return errors.Join(err, markErr)
	}

	return s.MarkCompleted(ctx, key, o.stateTTL)
}

// IsDuplicate reports whether err means the operation was already handled or
// is being handled by someone else.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrAlreadyCompleted) || errors.Is(err, ErrAlreadyInProgress)
}
