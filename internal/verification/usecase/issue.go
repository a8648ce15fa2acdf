package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
)

// issueIfIdle stores a first code when none is outstanding. It returns the
// current record and whether a code was issued by this call.
func (s *Usecase) issueIfIdle(ctx context.Context, acc *entity.Account, purpose entity.Purpose) (*entity.Record, bool, error) {
	var (
		prev   entity.Record
		issued bool
	)

	rec, err := s.compareAndSwap(ctx, acc.ID, purpose, ReasonTooManyAttempts, func(cur entity.Record, now time.Time) (*entity.RecordSwap, error) {
		issued = false
		if cur.HasCode() {
			return nil, nil
		}

		secret, err := s.otp.NewSecret()
		if err != nil {
			slog.ErrorContext(ctx, "failed to generate code secret", "account_id", acc.ID, "error", err)
			return nil, goerror.NewServer(err)
		}

		prev, issued = cur, true
		return &entity.RecordSwap{ExpectedVersion: cur.Version, Next: cur.InitiallyIssued(secret, now)}, nil
	})
	if err != nil {
		return nil, false, err
	}

	if issued {
		if err := s.announceIssued(ctx, acc, rec, prev); err != nil {
			return nil, false, err
		}
	}

	return rec, issued, nil
}

// announceIssued derives the code and publishes it for delivery. When that
// fails the record is swapped back to prev so an undelivered code costs the
// user nothing.
func (s *Usecase) announceIssued(ctx context.Context, acc *entity.Account, rec *entity.Record, prev entity.Record) error {
	code, err := s.otp.Derive(rec.Secret, s.clock.Now())
	if err == nil {
		err = s.repoMessaging.PublishCodeIssued(ctx, CodeIssuedEvent{
			EventID:   s.uuid.Generate(),
			AccountID: acc.ID,
			Email:     acc.Email,
			FullName:  acc.FullName,
			Purpose:   rec.Purpose,
			Code:      code,
			ExpiresAt: *rec.ExpiresAt,
		})
	}
	if err == nil {
		return nil
	}

	slog.ErrorContext(ctx, "failed to publish verification code issued", "account_id", acc.ID, "purpose", rec.Purpose, "error", err)
	s.rollbackIssue(context.WithoutCancel(ctx), rec, prev)

	return goerror.NewServer(err)
}

func (s *Usecase) rollbackIssue(ctx context.Context, rec *entity.Record, prev entity.Record) {
	restore := prev.Clone()
	if prev.Version == 0 {
		restore = rec.Cleared()
	}

	if _, err := s.repoDB.SwapRecord(ctx, entity.RecordSwap{ExpectedVersion: rec.Version, Next: restore}); err != nil {
		slog.ErrorContext(ctx, "failed to repo rollback issued code", "account_id", rec.AccountID, "purpose", rec.Purpose, "error", err)
	}
}
