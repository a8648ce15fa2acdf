package entity

import (
	"slices"
	"time"

	"github.com/samber/lo"
)

const (
	CodeTTL           = 5 * time.Minute
	MaxCodeAttempts   = 5
	MaxResendAttempts = 5
	ResendCooldown    = 30 * time.Second
	LockoutDuration   = 30 * time.Minute
	CodeDigits        = 6
)

// ThrottleDelays is indexed by min(attemptCount, len-1).
var ThrottleDelays = [...]time.Duration{0, 2 * time.Second, 5 * time.Second, 15 * time.Second, 30 * time.Second}

// Record is the per (account, purpose) verification state. Secret is the
// plaintext code secret and is non-nil exactly when ExpiresAt is non-nil.
type Record struct {
	AccountID int64
	Purpose   Purpose

	Secret    []byte
	ExpiresAt *time.Time

	AttemptCount  int
	LastAttemptAt *time.Time

	ResendCount          int
	LastResendAt         *time.Time
	ResendCooldownEndsAt *time.Time

	ResendBlocked      bool
	ResendBlockedUntil *time.Time

	// Version is 0 for a record that has never been stored.
	Version int64
}

func NewRecord(accountID int64, purpose Purpose) Record {
	return Record{AccountID: accountID, Purpose: purpose}
}

func (r Record) Clone() Record {
	c := r
	c.Secret = slices.Clone(r.Secret)
	c.ExpiresAt = cloneTime(r.ExpiresAt)
	c.LastAttemptAt = cloneTime(r.LastAttemptAt)
	c.LastResendAt = cloneTime(r.LastResendAt)
	c.ResendCooldownEndsAt = cloneTime(r.ResendCooldownEndsAt)
	c.ResendBlockedUntil = cloneTime(r.ResendBlockedUntil)
	return c
}

func (r Record) HasCode() bool {
	return len(r.Secret) > 0 && r.ExpiresAt != nil
}

func (r Record) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && r.ExpiresAt.Before(now)
}

// Cleared returns the record with every field except identity and version
// reset, as after a successful verification.
func (r Record) Cleared() Record {
	c := NewRecord(r.AccountID, r.Purpose)
	c.Version = r.Version
	return c
}

// Issued returns the record holding a fresh code counted against the resend
// budget.
func (r Record) Issued(secret []byte, now time.Time) Record {
	c := r.Clone()
	c.Secret = slices.Clone(secret)
	c.ExpiresAt = lo.ToPtr(now.Add(CodeTTL))
	c.AttemptCount = 0
	c.LastAttemptAt = nil
	c.ResendCount++
	c.LastResendAt = lo.ToPtr(now)
	c.ResendCooldownEndsAt = lo.ToPtr(now.Add(ResendCooldown))
	return c
}

// InitiallyIssued returns a first code that costs no resend budget and starts
// no cooldown.
func (r Record) InitiallyIssued(secret []byte, now time.Time) Record {
	c := NewRecord(r.AccountID, r.Purpose)
	c.Version = r.Version
	c.Secret = slices.Clone(secret)
	c.ExpiresAt = lo.ToPtr(now.Add(CodeTTL))
	return c
}

// blockActive reports a resend block that has not yet lapsed. A block with no
// end time is treated as lapsed.
func (r Record) blockActive(now time.Time) bool {
	return r.ResendBlocked && r.ResendBlockedUntil != nil && now.Before(*r.ResendBlockedUntil)
}

// withLapsedBlockCleared restores the resend budget once a lockout is over.
func (r Record) withLapsedBlockCleared(now time.Time) Record {
	if !r.ResendBlocked || r.blockActive(now) {
		return r
	}
	c := r.Clone()
	c.ResendBlocked = false
	c.ResendBlockedUntil = nil
	c.ResendCount = 0
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	return lo.ToPtr(*t)
}
