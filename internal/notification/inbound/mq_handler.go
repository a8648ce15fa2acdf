package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/goverify/internal/notification/usecase"
	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/pkg/idempotency"
	"github.com/shandysiswandi/goverify/internal/pkg/instrument"
	"github.com/shandysiswandi/goverify/internal/pkg/messaging"
	"github.com/shandysiswandi/goverify/internal/pkg/uid"
	"github.com/shandysiswandi/goverify/internal/shared/event"
)

type MQHandler struct {
	uc    uc
	uuid  uid.StringID
	keyer keyer
	idem  idempotency.Idempotency
	ins   instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cID := msg.Header(event.HeaderCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// deliverOnce sends at most one email per event. Invalid payloads are acked
// and dropped, anything else is returned so the broker redelivers.
func (h *MQHandler) deliverOnce(ctx context.Context, scope, eventID string, fn func(context.Context) error) error {
	err := h.idem.Exec(ctx, "notification:"+scope+":"+h.keyer.Key(eventID), fn)
	if err == nil {
		return nil
	}
	if idempotency.IsDuplicate(err) {
		slog.InfoContext(ctx, "notification already delivered", "scope", scope, "event_id", eventID)
		return nil
	}

	var gerr *goerror.Error
	if errors.As(err, &gerr) && gerr.Type() == goerror.TypeValidation {
		return nil
	}
	return err
}

func (h *MQHandler) CodeIssuedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "CodeIssuedNotification")
	defer span.End()

	var payload event.VerificationCodeIssuedMessage
	if err := json.Unmarshal(msg.Body(), &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of verification code issued", "message_id", msg.ID(), "error", err)
		return nil
	}

	slog.InfoContext(ctx, "consume: verification code issued", "account_id", payload.AccountID, "purpose", payload.Purpose)

	eventID := payload.EventID
	if eventID == "" {
		eventID = msg.ID()
	}

	return h.deliverOnce(ctx, event.VerificationCodeIssuedConsumerNotification, eventID, func(ctx context.Context) error {
		return h.uc.ConsumeCodeIssued(ctx, usecase.ConsumeCodeIssuedInput{
			EventID:   eventID,
			AccountID: payload.AccountID,
			Email:     payload.Email,
			FullName:  payload.FullName,
			Purpose:   payload.Purpose,
			Code:      payload.Code,
			ExpiresAt: time.Unix(payload.ExpiresAt, 0),
		})
	})
}

func (h *MQHandler) VerificationCompletedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "VerificationCompletedNotification")
	defer span.End()

	var payload event.VerificationCompletedMessage
	if err := json.Unmarshal(msg.Body(), &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of verification completed", "message_id", msg.ID(), "error", err)
		return nil
	}

	slog.InfoContext(ctx, "consume: verification completed", "account_id", payload.AccountID, "purpose", payload.Purpose)

	eventID := payload.EventID
	if eventID == "" {
		eventID = msg.ID()
	}

	return h.deliverOnce(ctx, event.VerificationCompletedConsumerNotification, eventID, func(ctx context.Context) error {
		return h.uc.ConsumeVerificationCompleted(ctx, usecase.ConsumeVerificationCompletedInput{
			EventID:     eventID,
			AccountID:   payload.AccountID,
			Email:       payload.Email,
			FullName:    payload.FullName,
			Purpose:     payload.Purpose,
			CompletedAt: time.Unix(payload.CompletedAt, 0),
		})
	})
}
