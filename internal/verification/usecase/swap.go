package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
)

// decideFunc computes the next state from a freshly read record. A nil swap
// skips the write. The error is returned to the caller once the swap, if
// any, is stored, so one decision can persist state and still fail the call.
type decideFunc func(cur entity.Record, now time.Time) (*entity.RecordSwap, error)

// compareAndSwap reads the record, lets decide compute the next state and
// stores it guarded by the version that was read. A lost race re-reads and
// decides again until the retry budget is spent, then fails with
// contendedReason, the reason of the budget the caller's predicate guards.
func (s *Usecase) compareAndSwap(ctx context.Context, accountID int64, purpose entity.Purpose, contendedReason string, decide decideFunc) (*entity.Record, error) {
	var (
		stored  *entity.Record
		outcome error
		tries   int
	)

	backoff := retry.WithMaxRetries(s.swapMaxRetries,
		retry.WithJitter(s.swapBackoff/2, retry.NewConstant(s.swapBackoff)))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		tries++

		cur, err := s.repoDB.GetRecord(ctx, accountID, purpose)
		if errors.Is(err, goerror.ErrNotFound) {
			fresh := entity.NewRecord(accountID, purpose)
			cur, err = &fresh, nil
		}
		if err != nil {
			return err
		}

		swap, derr := decide(*cur, s.clock.Now())
		if swap == nil {
			stored, outcome = cur, derr
			return nil
		}

		next, err := s.repoDB.SwapRecord(ctx, *swap)
		if errors.Is(err, goerror.ErrConflict) {
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}

		stored, outcome = next, derr
		return nil
	})

	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "verification record stayed contended", "account_id", accountID, "purpose", purpose, "tries", tries)
		return nil, errContended(contendedReason)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo swap verification record", "account_id", accountID, "purpose", purpose, "error", err)
		return nil, goerror.NewServer(err)
	}

	return stored, outcome
}
