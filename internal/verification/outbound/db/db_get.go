package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shandysiswandi/goverify/internal/pkg/secretbox"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
)

const (
	selectAccountColumns = `SELECT id, email, full_name, email_verified, password_hash IS NOT NULL FROM accounts`

	selectRecordSQL = `SELECT account_id, purpose, secret, expires_at, attempt_count, last_attempt_at,
	resend_count, last_resend_at, resend_cooldown_ends_at, resend_blocked, resend_blocked_until, version
FROM verification_records
WHERE account_id = $1 AND purpose = $2`
)

func (s *DB) GetAccountByEmail(ctx context.Context, email string) (_ *entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "GetAccountByEmail")
	defer func() { s.endSpan(span, err) }()

	acc, err := scanAccount(s.conn.QueryRow(ctx, selectAccountColumns+` WHERE lower(email) = lower($1)`, email))
	if err != nil {
		return nil, s.mapError(err)
	}
	return acc, nil
}

func (s *DB) GetAccountByID(ctx context.Context, id int64) (_ *entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "GetAccountByID")
	defer func() { s.endSpan(span, err) }()

	acc, err := scanAccount(s.conn.QueryRow(ctx, selectAccountColumns+` WHERE id = $1`, id))
	if err != nil {
		return nil, s.mapError(err)
	}
	return acc, nil
}

func scanAccount(row pgx.Row) (*entity.Account, error) {
	var acc entity.Account
	if err := row.Scan(&acc.ID, &acc.Email, &acc.FullName, &acc.EmailVerified, &acc.HasPassword); err != nil {
		return nil, err
	}
	return &acc, nil
}

func (s *DB) GetRecord(ctx context.Context, accountID int64, purpose entity.Purpose) (_ *entity.Record, err error) {
	ctx, span := s.startSpan(ctx, "GetRecord")
	defer func() { s.endSpan(span, err) }()

	var (
		rec     entity.Record
		purp    string
		sealed  []byte
		expires pgtype.Timestamptz
		lastAtt pgtype.Timestamptz
		lastRes pgtype.Timestamptz
		cooling pgtype.Timestamptz
		blocked pgtype.Timestamptz
	)

	err = s.conn.QueryRow(ctx, selectRecordSQL, accountID, string(purpose)).Scan(
		&rec.AccountID, &purp, &sealed, &expires, &rec.AttemptCount, &lastAtt,
		&rec.ResendCount, &lastRes, &cooling, &rec.ResendBlocked, &blocked, &rec.Version,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	rec.Purpose = entity.Purpose(purp)
	rec.ExpiresAt = toTime(expires)
	rec.LastAttemptAt = toTime(lastAtt)
	rec.LastResendAt = toTime(lastRes)
	rec.ResendCooldownEndsAt = toTime(cooling)
	rec.ResendBlockedUntil = toTime(blocked)

	if len(sealed) > 0 {
		rec.Secret, err = s.box.Open(sealed, secretbox.Scope{AccountID: rec.AccountID, Purpose: purp})
		if err != nil {
			return nil, fmt.Errorf("open verification secret: %w", err)
		}
	}

	return &rec, nil
}
