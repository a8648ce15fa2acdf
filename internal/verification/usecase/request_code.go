package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
)

type RequestCodeInput struct {
	Email   string `validate:"required,email"`
	Purpose string `validate:"required,oneof=email_confirmation password_reset"`
}

type RequestCodeOutput struct {
	ExpiresAt               time.Time
	CooldownEndsAt          time.Time
	RemainingResendAttempts int
}

func (s *Usecase) RequestCode(ctx context.Context, in RequestCodeInput) (*RequestCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "RequestCode")
	defer span.End()

	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	purpose := entity.Purpose(in.Purpose)
	acc, _, err := s.resolveAccount(ctx, in.Email, purpose)
	if err != nil {
		return nil, err
	}

	var prev entity.Record
	rec, err := s.compareAndSwap(ctx, acc.ID, purpose, ReasonTooManyAttempts, func(cur entity.Record, now time.Time) (*entity.RecordSwap, error) {
		d := entity.DecideResend(cur, now)

		switch d.Outcome {
		case entity.ResendLocked:
			slog.WarnContext(ctx, "code requested during resend lockout", "account_id", acc.ID, "purpose", purpose)
			return nil, errResendLocked(now, d.RetryAt)

		case entity.ResendCoolingDown:
			slog.WarnContext(ctx, "code requested during cooldown", "account_id", acc.ID, "purpose", purpose)
			return nil, errResendCoolingDown(now, d.RetryAt)

		case entity.ResendExhausted:
			slog.WarnContext(ctx, "resend budget exhausted, lockout started", "account_id", acc.ID, "purpose", purpose)
			return &entity.RecordSwap{ExpectedVersion: cur.Version, Next: d.Next}, errResendLocked(now, d.RetryAt)
		}

		secret, err := s.otp.NewSecret()
		if err != nil {
			slog.ErrorContext(ctx, "failed to generate code secret", "account_id", acc.ID, "error", err)
			return nil, goerror.NewServer(err)
		}

		prev = cur
		return &entity.RecordSwap{ExpectedVersion: cur.Version, Next: d.Next.Issued(secret, now)}, nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.announceIssued(ctx, acc, rec, prev); err != nil {
		return nil, err
	}

	return &RequestCodeOutput{
		ExpiresAt:               *rec.ExpiresAt,
		CooldownEndsAt:          *rec.ResendCooldownEndsAt,
		RemainingResendAttempts: entity.RemainingResends(*rec),
	}, nil
}
