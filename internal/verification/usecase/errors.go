package usecase

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
)

const (
	ReasonUserNotFound            = "USER_NOT_FOUND"
	ReasonAccountAlreadyVerified  = "ACCOUNT_ALREADY_VERIFIED"
	ReasonEmailNotVerified        = "EMAIL_NOT_VERIFIED"
	ReasonInvalidVerificationCode = "INVALID_VERIFICATION_CODE"
	ReasonVerificationCodeExpired = "VERIFICATION_CODE_EXPIRED"
	ReasonTooManyAttempts         = "TOO_MANY_ATTEMPTS"
	ReasonTooManyRequests         = "TOO_MANY_REQUESTS"
)

const (
	FieldRemainingAttempts  = "remaining_attempts"
	FieldCanResendAt        = "can_resend_at"
	FieldResendBlockedUntil = "resend_blocked_until"
)

func errUserNotFound() error {
	return goerror.NewBusiness("user not found", goerror.CodeNotFound,
		goerror.WithReason(ReasonUserNotFound))
}

func errAccountAlreadyVerified() error {
	return goerror.NewBusiness("account is already verified", goerror.CodeConflict,
		goerror.WithReason(ReasonAccountAlreadyVerified))
}

func errEmailNotVerified() error {
	return goerror.NewBusiness("email is not verified, verify it first", goerror.CodeForbidden,
		goerror.WithReason(ReasonEmailNotVerified))
}

func errInvalidCode(remaining int) error {
	msg := fmt.Sprintf("invalid verification code, %d attempts left for this code", remaining)
	if remaining == 1 {
		msg = "invalid verification code, 1 attempt left for this code"
	}
	return goerror.NewBusiness(msg, goerror.CodeUnauthorized,
		goerror.WithReason(ReasonInvalidVerificationCode),
		goerror.WithFields(FieldRemainingAttempts, strconv.Itoa(remaining)))
}

func errCodeExpired() error {
	return goerror.NewBusiness("verification code expired, request a new code", goerror.CodeGone,
		goerror.WithReason(ReasonVerificationCodeExpired))
}

func errAttemptsExhausted() error {
	return goerror.NewBusiness("attempt limit reached for this code, request a new code", goerror.CodeTooManyRequest,
		goerror.WithReason(ReasonTooManyRequests),
		goerror.WithFields(FieldRemainingAttempts, "0"))
}

func errResendCoolingDown(now, until time.Time) error {
	return goerror.NewBusiness("wait before requesting another code", goerror.CodeTooManyRequest,
		goerror.WithReason(ReasonTooManyAttempts),
		goerror.WithFields(
			FieldCanResendAt, until.UTC().Format(time.RFC3339),
			goerror.FieldRetryAfter, retryAfter(now, until),
		))
}

func errResendLocked(now, until time.Time) error {
	return goerror.NewBusiness("too many codes requested, try again later", goerror.CodeTooManyRequest,
		goerror.WithReason(ReasonTooManyAttempts),
		goerror.WithFields(
			FieldCanResendAt, until.UTC().Format(time.RFC3339),
			FieldResendBlockedUntil, until.UTC().Format(time.RFC3339),
			goerror.FieldRetryAfter, retryAfter(now, until),
		))
}

// errContended is returned when every compare-and-swap try lost a race.
func errContended(reason string) error {
	return goerror.NewBusiness("too many concurrent requests, try again", goerror.CodeTooManyRequest,
		goerror.WithReason(reason))
}

func retryAfter(now, until time.Time) string {
	secs := int64(until.Sub(now).Round(time.Second) / time.Second)
	return strconv.FormatInt(max(secs, 1), 10)
}
