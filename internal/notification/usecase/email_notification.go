package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/goverify/internal/notification/entity"
	"github.com/shandysiswandi/goverify/internal/pkg/mail"
	"github.com/shandysiswandi/goverify/internal/pkg/valueobject"
)

type emailNotificationInput struct {
	AccountID    int64
	EventID      string
	Email        string
	TriggerKey   entity.TriggerKey
	TemplateData map[string]any
	LogData      valueobject.JSONMap
}

// sendEmailNotification records a queued delivery, sends the email and marks
// the log sent or failed. It returns the send error so the consumer can ask
// for a redelivery.
func (s *Usecase) sendEmailNotification(ctx context.Context, in emailNotificationInput) error {
	tpl, err := renderTemplate(in.TriggerKey, in.TemplateData)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render email", "account_id", in.AccountID, "trigger_key", in.TriggerKey.String(), "error", err)
		return nil
	}

	logID := s.uid.Generate()
	if err := s.repoDB.CreateDeliveryLog(ctx, entity.CreateDeliveryLog{
		ID:         logID,
		AccountID:  in.AccountID,
		EventID:    in.EventID,
		TriggerKey: in.TriggerKey,
		Channel:    entity.ChannelEmail,
		Recipient:  in.Email,
		Status:     entity.DeliveryStatusQueued,
		Data:       in.LogData,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo create delivery log", "account_id", in.AccountID, "trigger_key", in.TriggerKey.String(), "error", err)
		return err
	}

	mailErr := s.repoMail.Send(ctx, mail.Message{
		To:       []string{in.Email},
		Subject:  tpl.Subject,
		HTMLBody: tpl.Body,
	})
	if mailErr == nil {
		up := entity.UpdateDeliveryLog{
			ID:               logID,
			Status:           entity.DeliveryStatusSent,
			ProviderResponse: valueobject.JSONMap{},
		}
		if err := s.repoDB.UpdateDeliveryLogStatus(ctx, up); err != nil {
			slog.ErrorContext(ctx, "failed to repo update delivery log status sent", "log_id", logID, "error", err)
		}
		return nil
	}

	nextRetry := s.clock.Now().Add(s.retryDelay())
	up := entity.UpdateDeliveryLog{
		ID:               logID,
		Status:           entity.DeliveryStatusFailed,
		ProviderResponse: valueobject.JSONMap{"error": mailErr.Error()},
		NextRetryAt:      &nextRetry,
	}
	if err := s.repoDB.UpdateDeliveryLogStatus(ctx, up); err != nil {
		slog.ErrorContext(ctx, "failed to repo update delivery log status failed", "log_id", logID, "error", err)
	}

	slog.ErrorContext(ctx, "failed to send notification email", "log_id", logID, "account_id", in.AccountID, "trigger_key", in.TriggerKey.String(), "error", mailErr)
	return mailErr
}
