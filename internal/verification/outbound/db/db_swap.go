package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/pkg/secretbox"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
)

const (
	insertRecordSQL = `INSERT INTO verification_records (
	account_id, purpose, secret, expires_at, attempt_count, last_attempt_at,
	resend_count, last_resend_at, resend_cooldown_ends_at, resend_blocked, resend_blocked_until, version
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1)
ON CONFLICT (account_id, purpose) DO NOTHING
RETURNING version`

	updateRecordSQL = `UPDATE verification_records SET
	secret = $3, expires_at = $4, attempt_count = $5, last_attempt_at = $6,
	resend_count = $7, last_resend_at = $8, resend_cooldown_ends_at = $9,
	resend_blocked = $10, resend_blocked_until = $11,
	version = version + 1, updated_at = now()
WHERE account_id = $1 AND purpose = $2 AND version = $12
RETURNING version`

	markEmailVerifiedSQL = `UPDATE accounts SET email_verified = TRUE, updated_at = now() WHERE id = $1`
	setPasswordSQL       = `UPDATE accounts SET password_hash = $2, updated_at = now() WHERE id = $1`
)

// SwapRecord writes swap.Next only if the stored version still matches
// swap.ExpectedVersion, and applies swap.Effect in the same transaction. A
// lost race yields goerror.ErrConflict.
func (s *DB) SwapRecord(ctx context.Context, swap entity.RecordSwap) (_ *entity.Record, err error) {
	ctx, span := s.startSpan(ctx, "SwapRecord")
	defer func() { s.endSpan(span, err) }()

	next := swap.Next.Clone()

	var sealed []byte
	if len(next.Secret) > 0 {
		sealed, err = s.box.Seal(next.Secret, secretbox.Scope{AccountID: next.AccountID, Purpose: next.Purpose.String()})
		if err != nil {
			return nil, err
		}
	}

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	args := []any{
		next.AccountID,
		next.Purpose.String(),
		sealed,
		fromTime(next.ExpiresAt),
		next.AttemptCount,
		fromTime(next.LastAttemptAt),
		next.ResendCount,
		fromTime(next.LastResendAt),
		fromTime(next.ResendCooldownEndsAt),
		next.ResendBlocked,
		fromTime(next.ResendBlockedUntil),
	}

	query := insertRecordSQL
	if swap.ExpectedVersion != 0 {
		query = updateRecordSQL
		args = append(args, swap.ExpectedVersion)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&next.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, goerror.ErrConflict
		}
		return nil, s.mapError(err)
	}

	if swap.Effect != nil {
		if err := s.applyEffect(ctx, tx, *swap.Effect); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &next, nil
}

func (s *DB) applyEffect(ctx context.Context, tx pgx.Tx, eff entity.AccountEffect) error {
	var (
		query string
		args  []any
	)

	switch eff.Kind {
	case entity.EffectMarkEmailVerified:
		query, args = markEmailVerifiedSQL, []any{eff.AccountID}
	case entity.EffectSetPassword:
		query, args = setPasswordSQL, []any{eff.AccountID, eff.PasswordHash}
	default:
		return nil
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}
	return nil
}
