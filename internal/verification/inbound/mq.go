package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/goverify/internal/pkg/config"
	"github.com/shandysiswandi/goverify/internal/pkg/goroutine"
	"github.com/shandysiswandi/goverify/internal/pkg/idempotency"
	"github.com/shandysiswandi/goverify/internal/pkg/instrument"
	"github.com/shandysiswandi/goverify/internal/pkg/messaging"
	"github.com/shandysiswandi/goverify/internal/pkg/uid"
	"github.com/shandysiswandi/goverify/internal/shared/event"
)

type MQConsumerDependency struct {
	Config      config.Config
	Routine     *goroutine.Manager
	Messaging   messaging.Consumer
	UUID        uid.StringID
	Keyer       keyer
	Idempotency idempotency.Idempotency
	Instrument  instrument.Instrumentation
}

// RegisterMQConsumer starts the consumers listed in
// modules.verification.consumer_names.
func RegisterMQConsumer(ctx context.Context, dep MQConsumerDependency, uc uc) {
	h := &MQHandler{
		uc:    uc,
		uuid:  dep.UUID,
		keyer: dep.Keyer,
		idem:  dep.Idempotency,
		ins:   dep.Instrument,
	}

	enabled := dep.Config.GetArray("modules.verification.consumer_names")

	consumers := []struct {
		name    string
		topic   string
		handler messaging.Handler
	}{
		{
			name:    event.AccountRegisteredConsumerIssue,
			topic:   event.AccountRegisteredDestination,
			handler: h.AccountRegistered,
		},
		{
			name:    event.AccountEmailVerifiedConsumerDrop,
			topic:   event.AccountEmailVerifiedDestination,
			handler: h.AccountEmailVerified,
		},
	}

	for _, consumer := range consumers {
		if !slices.Contains(enabled, consumer.name) {
			continue
		}
		dep.Routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
			return dep.Messaging.Consume(pCtx,
				consumer.topic,
				consumer.handler,
				messaging.WithGroup(consumer.name),
				messaging.WithAutoAck(true),
				messaging.WithConcurrency(4),
				messaging.WithMaxInFlight(16),
			)
		})
	}
}
