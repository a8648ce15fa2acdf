package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
)

func TestUsecase_GetStatus_LazyIssuance(t *testing.T) {
	// Arrange
	h := newHarness(t)
	ctx := context.Background()
	in := GetStatusInput{Email: testEmail, Purpose: "email_confirmation"}

	// Act
	out, err := h.uc.GetStatus(ctx, in)

	// Assert
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if !out.CanResend || out.RemainingResendAttempts != entity.MaxResendAttempts || out.RemainingCodeAttempts != entity.MaxCodeAttempts {
		t.Fatalf("status = %+v", out.Status)
	}
	if out.CodeExpiresAt == nil || !out.CodeExpiresAt.Equal(t0.Add(entity.CodeTTL)) {
		t.Fatalf("CodeExpiresAt = %v", out.CodeExpiresAt)
	}
	if len(h.msgs.issued) != 1 {
		t.Fatalf("issued events = %d, want 1", len(h.msgs.issued))
	}

	h.clock.Advance(time.Minute)
	if _, err := h.uc.GetStatus(ctx, in); err != nil {
		t.Fatalf("GetStatus() second call error = %v", err)
	}
	if len(h.msgs.issued) != 1 {
		t.Fatalf("status poll issued another code")
	}
}

func TestUsecase_GetStatus_NeverLeaksCode(t *testing.T) {
	// Arrange
	h := newHarness(t)

	// Act
	out, err := h.uc.GetStatus(context.Background(), GetStatusInput{Email: testEmail, Purpose: "email_confirmation"})
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	raw, err := json.Marshal(out)

	// Assert
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	code := h.msgs.lastCode(t)
	if bytes.Contains(raw, []byte(code)) {
		t.Fatalf("status %s contains the code", raw)
	}
	rec := h.store.record(t, testAccountID, entity.PurposeEmailConfirmation)
	if bytes.Contains(raw, rec.Secret) {
		t.Fatalf("status %s contains the secret", raw)
	}
}

func TestUsecase_GetStatus_Preconditions(t *testing.T) {
	h := newHarness(t, entity.Account{ID: 1, Email: testEmail, EmailVerified: true, HasPassword: true})

	_, err := h.uc.GetStatus(context.Background(), GetStatusInput{Email: testEmail, Purpose: "email_confirmation"})

	assertReason(t, err, ReasonAccountAlreadyVerified)
}

func TestUsecase_GetStatus_PublishFailure(t *testing.T) {
	// Arrange
	h := newHarness(t)
	h.msgs.failIssue = errors.New("broker down")

	// Act
	_, err := h.uc.GetStatus(context.Background(), GetStatusInput{Email: testEmail, Purpose: "email_confirmation"})

	// Assert
	assertCode(t, err, goerror.CodeInternal)
	if rec := h.store.record(t, testAccountID, entity.PurposeEmailConfirmation); rec.HasCode() {
		t.Fatalf("undelivered code kept: %+v", rec)
	}
}

// A new account confirms its email: the first status poll issues a code,
// five wrong codes lock it, each resend restores the attempts, and the
// resend budget finally locks for the lockout duration.
func TestUsecase_Scenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	status := GetStatusInput{Email: testEmail, Purpose: "email_confirmation"}

	st, err := h.uc.GetStatus(ctx, status)
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if st.RemainingResendAttempts != 5 || !st.CanResend {
		t.Fatalf("initial status = %+v", st.Status)
	}

	for round := range entity.MaxResendAttempts + 1 {
		code := h.msgs.lastCode(t)
		for range entity.MaxCodeAttempts {
			_, err := h.uc.VerifyCode(ctx, VerifyCodeInput{Email: testEmail, Purpose: "email_confirmation", Code: wrongCode(code)})
			assertReason(t, err, ReasonInvalidVerificationCode)
			h.clock.Advance(time.Second)
		}

		_, err := h.uc.VerifyCode(ctx, VerifyCodeInput{Email: testEmail, Purpose: "email_confirmation", Code: wrongCode(code)})
		assertReason(t, err, ReasonTooManyRequests)

		h.clock.Advance(entity.ResendCooldown)
		_, err = h.uc.RequestCode(ctx, RequestCodeInput{Email: testEmail, Purpose: "email_confirmation"})

		if round < entity.MaxResendAttempts {
			if err != nil {
				t.Fatalf("round %d RequestCode() error = %v", round, err)
			}
			if rec := h.store.record(t, testAccountID, entity.PurposeEmailConfirmation); rec.AttemptCount != 0 {
				t.Fatalf("round %d AttemptCount = %d, want 0", round, rec.AttemptCount)
			}
			continue
		}
		assertReason(t, err, ReasonTooManyAttempts)
	}

	st, err = h.uc.GetStatus(ctx, status)
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if !st.IsResendBlocked || st.CanResend || st.ResendBlockedUntil == nil {
		t.Fatalf("final status = %+v", st.Status)
	}
	if want := h.clock.Now().Add(entity.LockoutDuration); !st.ResendBlockedUntil.Equal(want) {
		t.Fatalf("ResendBlockedUntil = %v, want %v", st.ResendBlockedUntil, want)
	}
}
