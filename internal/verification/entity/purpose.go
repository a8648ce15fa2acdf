package entity

import (
	"errors"
)

var (
	ErrPurposeUnknown         = errors.New("verification: purpose is unknown")
	ErrAccountAlreadyVerified = errors.New("verification: account already verified")
	ErrEmailNotVerified       = errors.New("verification: email not verified")
)

type Purpose string

const (
	PurposeEmailConfirmation Purpose = "email_confirmation"
	PurposePasswordReset     Purpose = "password_reset"
)

func (p Purpose) String() string { return string(p) }

func ParsePurpose(raw string) (Purpose, error) {
	p := Purpose(raw)
	if _, ok := purposePolicies[p]; !ok {
		return "", ErrPurposeUnknown
	}
	return p, nil
}

// EffectKind is the account mutation applied together with clearing the
// record when a code is redeemed.
type EffectKind int8

const (
	EffectNone EffectKind = iota
	EffectMarkEmailVerified
	EffectSetPassword
)

type AccountEffect struct {
	Kind         EffectKind
	AccountID    int64
	PasswordHash string
}

// PurposePolicy parameterizes the shared code lifecycle for one purpose.
type PurposePolicy struct {
	Purpose             Purpose
	RequiresNewPassword bool

	precondition func(Account) error
	effect       EffectKind
}

var purposePolicies = map[Purpose]PurposePolicy{
	PurposeEmailConfirmation: {
		Purpose: PurposeEmailConfirmation,
		precondition: func(a Account) error {
			if a.EmailVerified {
				return ErrAccountAlreadyVerified
			}
			return nil
		},
		effect: EffectMarkEmailVerified,
	},
	PurposePasswordReset: {
		Purpose:             PurposePasswordReset,
		RequiresNewPassword: true,
		precondition: func(a Account) error {
			if !a.PasswordResetAllowed() {
				return ErrEmailNotVerified
			}
			return nil
		},
		effect: EffectSetPassword,
	},
}

func PolicyFor(p Purpose) (PurposePolicy, error) {
	pp, ok := purposePolicies[p]
	if !ok {
		return PurposePolicy{}, ErrPurposeUnknown
	}
	return pp, nil
}

// Check reports whether the account is in the state the purpose requires.
func (pp PurposePolicy) Check(a Account) error {
	return pp.precondition(a)
}

func (pp PurposePolicy) Effect(accountID int64, passwordHash string) AccountEffect {
	eff := AccountEffect{Kind: pp.effect, AccountID: accountID}
	if pp.effect == EffectSetPassword {
		eff.PasswordHash = passwordHash
	}
	return eff
}
