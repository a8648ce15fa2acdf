package entity

import (
	"time"

	"github.com/samber/lo"
)

type ResendOutcome int8

const (
	// ResendIssue means a new code may be issued on Next.
	ResendIssue ResendOutcome = iota
	// ResendLocked means an earlier lockout is still running.
	ResendLocked
	// ResendCoolingDown means the previous code was sent too recently.
	ResendCoolingDown
	// ResendExhausted means the budget just ran out and Next carries the new
	// lockout that must be persisted.
	ResendExhausted
)

func (o ResendOutcome) String() string {
	switch o {
	case ResendIssue:
		return "issue"
	case ResendLocked:
		return "locked"
	case ResendCoolingDown:
		return "cooling_down"
	case ResendExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

type ResendDecision struct {
	Outcome ResendOutcome
	Next    Record
	// RetryAt is when the caller may try again for every outcome but issue.
	RetryAt time.Time
}

// DecideResend applies, in order, the lockout, the cooldown and the budget
// checks to rec at now. A lapsed lockout is cleared first.
func DecideResend(rec Record, now time.Time) ResendDecision {
	next := rec.withLapsedBlockCleared(now)

	if next.blockActive(now) {
		return ResendDecision{Outcome: ResendLocked, Next: next, RetryAt: *next.ResendBlockedUntil}
	}

	if next.ResendCooldownEndsAt != nil && now.Before(*next.ResendCooldownEndsAt) {
		return ResendDecision{Outcome: ResendCoolingDown, Next: next, RetryAt: *next.ResendCooldownEndsAt}
	}

	if next.ResendCount >= MaxResendAttempts {
		next = next.Clone()
		next.ResendBlocked = true
		next.ResendBlockedUntil = lo.ToPtr(now.Add(LockoutDuration))
		return ResendDecision{Outcome: ResendExhausted, Next: next, RetryAt: *next.ResendBlockedUntil}
	}

	return ResendDecision{Outcome: ResendIssue, Next: next}
}

func RemainingResends(rec Record) int {
	return max(0, MaxResendAttempts-rec.ResendCount)
}
