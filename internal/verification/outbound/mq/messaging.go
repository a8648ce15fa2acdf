package mq

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/shandysiswandi/goverify/internal/pkg/instrument"
	"github.com/shandysiswandi/goverify/internal/pkg/messaging"
	"github.com/shandysiswandi/goverify/internal/shared/event"
	"github.com/shandysiswandi/goverify/internal/verification/usecase"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishCodeIssued(ctx context.Context, msg usecase.CodeIssuedEvent) error {
	ctx, span := m.ins.Tracer("verification.outbound.mq").Start(ctx, "PublishCodeIssued")
	defer span.End()

	return m.publish(ctx, span, event.VerificationCodeIssuedDestination, msg.AccountID, event.VerificationCodeIssuedMessage{
		EventID:   msg.EventID,
		AccountID: msg.AccountID,
		Email:     msg.Email,
		FullName:  msg.FullName,
		Purpose:   msg.Purpose.String(),
		Code:      msg.Code,
		ExpiresAt: msg.ExpiresAt.Unix(),
	})
}

func (m *Messaging) PublishVerificationCompleted(ctx context.Context, msg usecase.VerificationCompletedEvent) error {
	ctx, span := m.ins.Tracer("verification.outbound.mq").Start(ctx, "PublishVerificationCompleted")
	defer span.End()

	return m.publish(ctx, span, event.VerificationCompletedDestination, msg.AccountID, event.VerificationCompletedMessage{
		EventID:     msg.EventID,
		AccountID:   msg.AccountID,
		Email:       msg.Email,
		FullName:    msg.FullName,
		Purpose:     msg.Purpose.String(),
		CompletedAt: msg.CompletedAt.Unix(),
	})
}

// publish keys every message by account so brokers that support ordering
// keep one account's events in sequence.
func (m *Messaging) publish(ctx context.Context, span trace.Span, topic string, accountID int64, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := m.client.Publish(ctx, topic, messaging.Envelope{
		Key:     strconv.FormatInt(accountID, 10),
		Body:    body,
		Headers: map[string]string{event.HeaderCorrelationID: instrument.GetCorrelationID(ctx)},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
