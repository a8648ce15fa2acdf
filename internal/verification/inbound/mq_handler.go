package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/pkg/idempotency"
	"github.com/shandysiswandi/goverify/internal/pkg/instrument"
	"github.com/shandysiswandi/goverify/internal/pkg/messaging"
	"github.com/shandysiswandi/goverify/internal/pkg/uid"
	"github.com/shandysiswandi/goverify/internal/shared/event"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
	"github.com/shandysiswandi/goverify/internal/verification/usecase"
)

type keyer interface {
	Key(plaintext string) string
}

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

// once runs fn at most once per event. Duplicates are acked, a failed run is
// nacked so the broker redelivers it.
func (h *MQHandler) once(ctx context.Context, scope, eventID string, fn func(context.Context) error) error {
	err := h.idem.Exec(ctx, "verification:"+scope+":"+h.keyer.Key(eventID), fn)
	if idempotency.IsDuplicate(err) || errors.Is(err, idempotency.ErrAlreadyFailed) {
		slog.InfoContext(ctx, "event already handled", "scope", scope, "event_id", eventID)
		return nil
	}
	return err
}

// permanent reports errors that a redelivery cannot fix.
func permanent(err error) bool {
	var gerr *goerror.Error
	return errors.As(err, &gerr) && gerr.Type() != goerror.TypeServer
}

func (h *MQHandler) AccountRegistered(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("verification.inbound.mq").Start(ctx, "AccountRegistered")
	defer span.End()

	var payload event.AccountRegisteredMessage
	if err := json.Unmarshal(msg.Body(), &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of account registered", "message_id", msg.ID(), "error", err)
		return nil
	}

	eventID := payload.EventID
	if eventID == "" {
		eventID = msg.ID()
	}

	err := h.once(ctx, event.AccountRegisteredConsumerIssue, eventID, func(ctx context.Context) error {
		return h.uc.IssueInitialCode(ctx, usecase.IssueInitialCodeInput{AccountID: payload.AccountID})
	})
	if err != nil && permanent(err) {
		slog.WarnContext(ctx, "dropping account registered event", "account_id", payload.AccountID, "error", err)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue initial code", "account_id", payload.AccountID, "error", err)
		return err
	}

	return nil
}

func (h *MQHandler) AccountEmailVerified(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("verification.inbound.mq").Start(ctx, "AccountEmailVerified")
	defer span.End()

	var payload event.AccountEmailVerifiedMessage
	if err := json.Unmarshal(msg.Body(), &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of account email verified", "message_id", msg.ID(), "error", err)
		return nil
	}

	eventID := payload.EventID
	if eventID == "" {
		eventID = msg.ID()
	}

	err := h.once(ctx, event.AccountEmailVerifiedConsumerDrop, eventID, func(ctx context.Context) error {
		return h.uc.Supersede(ctx, usecase.SupersedeInput{
			AccountID: payload.AccountID,
			Purpose:   entity.PurposeEmailConfirmation.String(),
		})
	})
	if err != nil && permanent(err) {
		slog.WarnContext(ctx, "dropping account email verified event", "account_id", payload.AccountID, "error", err)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to supersede email confirmation", "account_id", payload.AccountID, "error", err)
		return err
	}

	return nil
}
