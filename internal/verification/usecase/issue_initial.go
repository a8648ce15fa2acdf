package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
)

type IssueInitialCodeInput struct {
	AccountID int64 `validate:"required,gt=0"`
}

// IssueInitialCode sends the first email confirmation code after
// registration. Accounts that are already verified or already hold a code
// are left alone, so redelivered events are harmless.
func (s *Usecase) IssueInitialCode(ctx context.Context, in IssueInitialCodeInput) error {
	ctx, span := s.startSpan(ctx, "IssueInitialCode")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	acc, err := s.repoDB.GetAccountByID(ctx, in.AccountID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "registered account not found", "account_id", in.AccountID)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account by id", "account_id", in.AccountID, "error", err)
		return goerror.NewServer(err)
	}

	if acc.EmailVerified {
		slog.InfoContext(ctx, "account already verified, skipping initial code", "account_id", acc.ID)
		return nil
	}

	_, issued, err := s.issueIfIdle(ctx, acc, entity.PurposeEmailConfirmation)
	if err != nil {
		return err
	}
	if !issued {
		slog.InfoContext(ctx, "code already outstanding, skipping initial code", "account_id", acc.ID)
	}

	return nil
}

type SupersedeInput struct {
	AccountID int64  `validate:"required,gt=0"`
	Purpose   string `validate:"required,oneof=email_confirmation password_reset"`
}

// Supersede clears a record whose goal was reached through another channel.
func (s *Usecase) Supersede(ctx context.Context, in SupersedeInput) error {
	ctx, span := s.startSpan(ctx, "Supersede")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	_, err := s.compareAndSwap(ctx, in.AccountID, entity.Purpose(in.Purpose), ReasonTooManyRequests, func(cur entity.Record, _ time.Time) (*entity.RecordSwap, error) {
		if cur.Version == 0 {
			return nil, nil
		}
		return &entity.RecordSwap{ExpectedVersion: cur.Version, Next: cur.Cleared()}, nil
	})
	return err
}
