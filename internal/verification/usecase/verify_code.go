package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
)

type VerifyCodeInput struct {
	Email       string `validate:"required,email"`
	Purpose     string `validate:"required,oneof=email_confirmation password_reset"`
	Code        string `validate:"required,otpcode"`
	NewPassword string `validate:"omitempty,password"`
}

type VerifyCodeOutput struct {
	Success bool
}

func (s *Usecase) VerifyCode(ctx context.Context, in VerifyCodeInput) (*VerifyCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyCode")
	defer span.End()

	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	purpose := entity.Purpose(in.Purpose)
	acc, policy, err := s.resolveAccount(ctx, in.Email, purpose)
	if err != nil {
		return nil, err
	}

	if policy.RequiresNewPassword && in.NewPassword == "" {
		return nil, goerror.NewInvalidInput(nil, "new_password", "new_password is a required field")
	}

	var passwordHash string
	if _, err := s.compareAndSwap(ctx, acc.ID, purpose, ReasonTooManyRequests, func(cur entity.Record, now time.Time) (*entity.RecordSwap, error) {
		d := entity.DecideVerify(cur, now, func(secret []byte) bool {
			return s.otp.Matches(secret, in.Code, now)
		})

		if d.Throttled {
			slog.WarnContext(ctx, "verification attempt inside advisory delay", "account_id", acc.ID, "purpose", purpose, "attempts", cur.AttemptCount)
		}

		switch d.Outcome {
		case entity.VerifyNoCode:
			slog.WarnContext(ctx, "no outstanding verification code", "account_id", acc.ID, "purpose", purpose)
			return nil, errUserNotFound()

		case entity.VerifyExpired:
			return nil, errCodeExpired()

		case entity.VerifyLocked:
			slog.WarnContext(ctx, "verification attempts exhausted", "account_id", acc.ID, "purpose", purpose)
			return nil, errAttemptsExhausted()

		case entity.VerifyMismatch:
			return &entity.RecordSwap{ExpectedVersion: cur.Version, Next: d.Next}, errInvalidCode(d.RemainingAttempts)
		}

		if policy.RequiresNewPassword && passwordHash == "" {
			h, err := s.argon2id.Hash(in.NewPassword)
			if err != nil {
				slog.ErrorContext(ctx, "failed to hash new password", "account_id", acc.ID, "error", err)
				return nil, goerror.NewServer(err)
			}
			passwordHash = string(h)
		}

		effect := policy.Effect(acc.ID, passwordHash)
		return &entity.RecordSwap{ExpectedVersion: cur.Version, Next: d.Next, Effect: &effect}, nil
	}); err != nil {
		return nil, err
	}

	if err := s.repoMessaging.PublishVerificationCompleted(ctx, VerificationCompletedEvent{
		EventID:     s.uuid.Generate(),
		AccountID:   acc.ID,
		Email:       acc.Email,
		FullName:    acc.FullName,
		Purpose:     purpose,
		CompletedAt: s.clock.Now(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish verification completed", "account_id", acc.ID, "purpose", purpose, "error", err)
	}

	return &VerifyCodeOutput{Success: true}, nil
}
