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

type keyer interface {
	Key(plaintext string) string
}

type MQConsumerDependency struct {
	Config      config.Config
	Routine     *goroutine.Manager
	Messaging   messaging.Consumer
	UUID        uid.StringID
	Keyer       keyer
	Idempotency idempotency.Idempotency
	Instrument  instrument.Instrumentation
}

func RegisterMQConsumer(ctx context.Context, dep MQConsumerDependency, uc uc) {
	mqHandler := &MQHandler{
		uc:    uc,
		uuid:  dep.UUID,
		keyer: dep.Keyer,
		idem:  dep.Idempotency,
		ins:   dep.Instrument,
	}

	enableConsumerNames := dep.Config.GetArray("modules.notification.consumer_names")

	consumers := []struct {
		name    string
		topic   string
		handler messaging.Handler
	}{
		{
			name:    event.VerificationCodeIssuedConsumerNotification,
			topic:   event.VerificationCodeIssuedDestination,
			handler: mqHandler.CodeIssuedNotification,
		},
		{
			name:    event.VerificationCompletedConsumerNotification,
			topic:   event.VerificationCompletedDestination,
			handler: mqHandler.VerificationCompletedNotification,
		},
	}

	for _, consumer := range consumers {
		if len(enableConsumerNames) > 0 && slices.Contains(enableConsumerNames, consumer.name) {
			dep.Routine.Go(ctx, func(pCtx context.Context) error {
				slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
				return dep.Messaging.Consume(pCtx,
					consumer.topic,
					consumer.handler,
					messaging.WithGroup(consumer.name),
					messaging.WithAutoAck(true),
					messaging.WithConcurrency(10),
					messaging.WithMaxInFlight(10),
				)
			})
		}
	}
}
