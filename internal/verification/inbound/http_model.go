package inbound

import "time"

type RequestCodeRequest struct {
	Email   string `json:"email" example:"ana@example.com"`
	Purpose string `json:"purpose" example:"email_confirmation" enums:"email_confirmation,password_reset"`
}

type RequestCodeResponse struct {
	ExpiresAt               time.Time `json:"expires_at" example:"2026-01-02T03:09:05Z"`
	CooldownEndsAt          time.Time `json:"cooldown_ends_at" example:"2026-01-02T03:04:35Z"`
	RemainingResendAttempts int       `json:"remaining_resend_attempts" example:"4"`
}

func (RequestCodeResponse) Message() string { return "verification code sent" }

type VerifyCodeRequest struct {
	Email       string `json:"email" example:"ana@example.com"`
	Purpose     string `json:"purpose" example:"password_reset" enums:"email_confirmation,password_reset"`
	Code        string `json:"code" example:"123456"`
	NewPassword string `json:"new_password,omitempty" example:"n3w-Passw0rd"`
}

type VerifyCodeResponse struct {
	Success bool `json:"success" example:"true"`
}

func (VerifyCodeResponse) Message() string { return "verification succeeded" }

type StatusResponse struct {
	CanResend               bool       `json:"can_resend" example:"false"`
	RemainingResendAttempts int        `json:"remaining_resend_attempts" example:"4"`
	CanResendAt             *time.Time `json:"can_resend_at" example:"2026-01-02T03:04:35Z"`
	RemainingCodeAttempts   int        `json:"remaining_code_attempts" example:"5"`
	CanTryCodeAt            *time.Time `json:"can_try_code_at"`
	IsResendBlocked         bool       `json:"is_resend_blocked" example:"false"`
	ResendBlockedUntil      *time.Time `json:"resend_blocked_until"`
	CodeExpiresAt           *time.Time `json:"code_expires_at" example:"2026-01-02T03:09:05Z"`
}
