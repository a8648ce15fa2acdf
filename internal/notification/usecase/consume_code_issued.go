package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/goverify/internal/notification/entity"
	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/pkg/valueobject"
)

type ConsumeCodeIssuedInput struct {
	EventID   string
	AccountID int64  `validate:"required,gt=0"`
	Email     string `validate:"required,email"`
	FullName  string
	Purpose   string `validate:"required,oneof=email_confirmation password_reset"`
	Code      string `validate:"required,otpcode"`
	ExpiresAt time.Time
}

// ConsumeCodeIssued emails a freshly issued code. The code itself is never
// written to the delivery log.
func (s *Usecase) ConsumeCodeIssued(ctx context.Context, in ConsumeCodeIssuedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeCodeIssued")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "account_id", in.AccountID, "error", err)
		return goerror.NewInvalidInput(err)
	}

	tk, _ := entity.CodeTrigger(in.Purpose)

	data := s.baseEmailTemplateData()
	data["full_name"] = displayName(in.FullName, in.Email)
	data["code"] = in.Code
	data["expires_at"] = in.ExpiresAt.UTC().Format(time.RFC1123)

	return s.sendEmailNotification(ctx, emailNotificationInput{
		AccountID:    in.AccountID,
		EventID:      in.EventID,
		Email:        in.Email,
		TriggerKey:   tk,
		TemplateData: data,
		LogData: valueobject.JSONMap{
			"purpose":    in.Purpose,
			"expires_at": in.ExpiresAt.UTC().Format(time.RFC3339),
		},
	})
}

func displayName(fullName, email string) string {
	if fullName != "" {
		return fullName
	}
	return email
}
