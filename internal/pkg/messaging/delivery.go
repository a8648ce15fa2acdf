package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/shandysiswandi/goverify/internal/pkg/stacktrace"
	"go.uber.org/atomic"
)

// delivery adapts any broker message to Message. ack and nack run at most
// once between them.
type delivery struct {
	id        string
	topic     string
	body      []byte
	headers   map[string]string
	timestamp time.Time

	ack  func() error
	nack func() error

	responded atomic.Bool
}

func (d *delivery) ID() string                 { return d.id }
func (d *delivery) Topic() string              { return d.topic }
func (d *delivery) Body() []byte               { return d.body }
func (d *delivery) Headers() map[string]string { return d.headers }
func (d *delivery) Timestamp() time.Time       { return d.timestamp }

func (d *delivery) Header(key string) string {
	return d.headers[key]
}

func (d *delivery) Ack(ctx context.Context) error {
	return d.respond(ctx, d.ack)
}

func (d *delivery) Nack(ctx context.Context) error {
	return d.respond(ctx, d.nack)
}

func (d *delivery) respond(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !d.responded.CompareAndSwap(false, true) || fn == nil {
		return nil
	}
	return fn()
}

// dispatch runs handler with panic recovery and, when autoAck is set and the
// handler did not respond itself, acks or nacks based on its result.
func dispatch(ctx context.Context, driver string, handler Handler, d *delivery, autoAck bool) error {
	herr := callWithRecover(ctx, driver, func() error { return handler(ctx, d) })

	if !autoAck || d.responded.Load() {
		return herr
	}
	if herr != nil {
		return d.Nack(context.WithoutCancel(ctx))
	}
	return d.Ack(context.WithoutCancel(ctx))
}

func callWithRecover(ctx context.Context, driver string, fn func() error) (err error) {
	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}

		stack := debug.Stack()
		if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
			slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "panic", rvr, "stack", paths)
		} else {
			slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "panic", rvr, "stack", string(stack))
		}
		err = fmt.Errorf("messaging: panic in %s handler: %v", driver, rvr)
	}()

	return fn()
}
