package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/goverify/internal/notification/entity"
	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/pkg/valueobject"
)

type ConsumeVerificationCompletedInput struct {
	EventID     string
	AccountID   int64  `validate:"required,gt=0"`
	Email       string `validate:"required,email"`
	FullName    string
	Purpose     string `validate:"required,oneof=email_confirmation password_reset"`
	CompletedAt time.Time
}

func (s *Usecase) ConsumeVerificationCompleted(ctx context.Context, in ConsumeVerificationCompletedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeVerificationCompleted")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "account_id", in.AccountID, "error", err)
		return goerror.NewInvalidInput(err)
	}

	tk, _ := entity.CompletionTrigger(in.Purpose)

	data := s.baseEmailTemplateData()
	data["full_name"] = displayName(in.FullName, in.Email)
	data["completed_at"] = in.CompletedAt.UTC().Format(time.RFC1123)

	return s.sendEmailNotification(ctx, emailNotificationInput{
		AccountID:    in.AccountID,
		EventID:      in.EventID,
		Email:        in.Email,
		TriggerKey:   tk,
		TemplateData: data,
		LogData: valueobject.JSONMap{
			"purpose":      in.Purpose,
			"completed_at": in.CompletedAt.UTC().Format(time.RFC3339),
		},
	})
}
