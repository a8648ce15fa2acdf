package entity

import (
	"time"

	"github.com/samber/lo"
)

type VerifyOutcome int8

const (
	VerifyNoCode VerifyOutcome = iota
	VerifyExpired
	VerifyLocked
	VerifyMismatch
	VerifyMatch
)

func (o VerifyOutcome) String() string {
	switch o {
	case VerifyNoCode:
		return "no_code"
	case VerifyExpired:
		return "expired"
	case VerifyLocked:
		return "locked"
	case VerifyMismatch:
		return "mismatch"
	case VerifyMatch:
		return "match"
	default:
		return "unknown"
	}
}

type VerifyDecision struct {
	Outcome VerifyOutcome
	// Next is the record to persist for mismatch and match. Other outcomes
	// leave the record untouched.
	Next              Record
	RemainingAttempts int
	// Throttled reports an attempt made before the advisory delay elapsed.
	// It never blocks the attempt.
	Throttled bool
}

// DecideVerify runs the ordered verification checks. matches is consulted
// only when the code is live and attempts remain.
func DecideVerify(rec Record, now time.Time, matches func(secret []byte) bool) VerifyDecision {
	if !rec.HasCode() {
		return VerifyDecision{Outcome: VerifyNoCode}
	}

	remaining := max(0, MaxCodeAttempts-rec.AttemptCount)

	if rec.Expired(now) {
		return VerifyDecision{Outcome: VerifyExpired, RemainingAttempts: remaining}
	}

	if rec.AttemptCount >= MaxCodeAttempts {
		return VerifyDecision{Outcome: VerifyLocked}
	}

	throttled := false
	if at := NextAttemptAt(rec); at != nil && now.Before(*at) {
		throttled = true
	}

	if !matches(rec.Secret) {
		next := rec.Clone()
		next.AttemptCount++
		next.LastAttemptAt = lo.ToPtr(now)
		return VerifyDecision{
			Outcome:           VerifyMismatch,
			Next:              next,
			RemainingAttempts: max(0, MaxCodeAttempts-next.AttemptCount),
			Throttled:         throttled,
		}
	}

	return VerifyDecision{
		Outcome:           VerifyMatch,
		Next:              rec.Cleared(),
		RemainingAttempts: remaining,
		Throttled:         throttled,
	}
}

func ThrottleDelay(attempts int) time.Duration {
	idx := min(max(attempts, 0), len(ThrottleDelays)-1)
	return ThrottleDelays[idx]
}

// NextAttemptAt is lastAttemptAt plus the advisory delay, or nil when no
// attempt has been made.
func NextAttemptAt(rec Record) *time.Time {
	if rec.LastAttemptAt == nil {
		return nil
	}
	return lo.ToPtr(rec.LastAttemptAt.Add(ThrottleDelay(rec.AttemptCount)))
}
