package entity

import (
	"time"

	"github.com/samber/lo"
)

// Status is the public projection of a record. It never carries the secret.
type Status struct {
	CanResend               bool
	RemainingResendAttempts int
	CanResendAt             *time.Time
	RemainingCodeAttempts   int
	CanTryCodeAt            *time.Time
	IsResendBlocked         bool
	ResendBlockedUntil      *time.Time
	CodeExpiresAt           *time.Time
}

func ProjectStatus(rec Record, now time.Time) Status {
	rec = rec.withLapsedBlockCleared(now)

	st := Status{
		RemainingResendAttempts: RemainingResends(rec),
		RemainingCodeAttempts:   max(0, MaxCodeAttempts-rec.AttemptCount),
		IsResendBlocked:         rec.blockActive(now),
		CodeExpiresAt:           cloneTime(rec.ExpiresAt),
	}

	coolingDown := rec.ResendCooldownEndsAt != nil && now.Before(*rec.ResendCooldownEndsAt)
	st.CanResend = !st.IsResendBlocked && !coolingDown && rec.ResendCount < MaxResendAttempts

	switch {
	case st.IsResendBlocked:
		st.ResendBlockedUntil = cloneTime(rec.ResendBlockedUntil)
		st.CanResendAt = cloneTime(rec.ResendBlockedUntil)
	case rec.ResendCount >= MaxResendAttempts:
		// The next request starts the lockout, so a resend succeeds no
		// earlier than a full lockout after the cooldown.
		from := now
		if coolingDown {
			from = *rec.ResendCooldownEndsAt
		}
		st.CanResendAt = lo.ToPtr(from.Add(LockoutDuration))
	case coolingDown:
		st.CanResendAt = cloneTime(rec.ResendCooldownEndsAt)
	}

	if at := NextAttemptAt(rec); at != nil && at.After(now) {
		st.CanTryCodeAt = at
	}

	return st
}
