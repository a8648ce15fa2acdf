// Package otp derives and checks short numeric codes from a per-record secret
// using TOTP (RFC 6238). The step length equals the lifetime of a code, and a
// skew of one step is tolerated on either side.
package otp

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// SecretSize follows the RFC 4226 recommendation of 160 bits.
const SecretSize = 20

// ErrEmptySecret is returned when deriving from a missing secret.
var ErrEmptySecret = errors.New("otp: empty secret")

// Engine produces and checks codes for a raw secret.
type Engine interface {
	NewSecret() ([]byte, error)
	Derive(secret []byte, at time.Time) (string, error)
	Matches(secret []byte, code string, at time.Time) bool
}

// TOTP implements Engine on top of pquerna/otp.
type TOTP struct {
	opts totp.ValidateOpts
}

// NewTOTP builds an engine. A zero step falls back to 30 seconds and any digit
// count other than 6 or 8 falls back to 6.
func NewTOTP(step time.Duration, skew uint, digits otp.Digits) *TOTP {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	period := uint(step / time.Second)
	if period == 0 {
		period = 30
	}

	return &TOTP{opts: totp.ValidateOpts{
		Period:    period,
		Skew:      skew,
		Digits:    digits,
		Algorithm: otp.AlgorithmSHA1,
	}}
}

// NewSecret returns SecretSize random bytes.
func (o *TOTP) NewSecret() ([]byte, error) {
	secret := make([]byte, SecretSize)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	return secret, nil
}

// Derive returns the code valid for secret at the given instant.
func (o *TOTP) Derive(secret []byte, at time.Time) (string, error) {
	if len(secret) == 0 {
		return "", ErrEmptySecret
	}
	return totp.GenerateCodeCustom(encode(secret), at, o.opts)
}

// Matches reports whether code is valid for secret at the given instant.
// pquerna compares in constant time.
func (o *TOTP) Matches(secret []byte, code string, at time.Time) bool {
	if len(secret) == 0 || code == "" {
		return false
	}

	ok, err := totp.ValidateCustom(code, encode(secret), at, o.opts)
	return ok && err == nil
}

func encode(secret []byte) string {
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secret)
}
