package inbound

import (
	"github.com/shandysiswandi/goverify/internal/pkg/router"
	"github.com/shandysiswandi/goverify/internal/verification/usecase"
)

// HTTPEndpoint exposes the verification code lifecycle over HTTP.
type HTTPEndpoint struct {
	uc uc
}

// RequestCode issues a new code, subject to cooldown and resend limits.
// @Summary Request verification code
// @Description Issues a fresh code for the purpose and emails it. The previous code stops working.
// @Tags Verification
// @Accept json
// @Produce json
// @Param request body RequestCodeRequest true "Request code payload"
// @Success 200 {object} router.successResponse{data=RequestCodeResponse} "Code issued"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 403 {object} router.errorResponse "Email not verified"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 409 {object} router.errorResponse "Account already verified"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Cooling down or resend blocked"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/verification/code [post]
func (h *HTTPEndpoint) RequestCode(r *router.Request) (any, error) {
	var req RequestCodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RequestCode(r.Context(), usecase.RequestCodeInput{
		Email:   req.Email,
		Purpose: req.Purpose,
	})
	if err != nil {
		return nil, err
	}

	return RequestCodeResponse{
		ExpiresAt:               resp.ExpiresAt,
		CooldownEndsAt:          resp.CooldownEndsAt,
		RemainingResendAttempts: resp.RemainingResendAttempts,
	}, nil
}

// VerifyCode redeems a code. A password reset also sets the new password.
// @Summary Verify code
// @Description Checks the code for the purpose. On success the code is consumed and the purpose effect is applied.
// @Tags Verification
// @Accept json
// @Produce json
// @Param request body VerifyCodeRequest true "Verify code payload"
// @Success 200 {object} router.successResponse{data=VerifyCodeResponse} "Verification result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid verification code"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 410 {object} router.errorResponse "Verification code expired"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many attempts"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/verification/code/verify [post]
func (h *HTTPEndpoint) VerifyCode(r *router.Request) (any, error) {
	var req VerifyCodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyCode(r.Context(), usecase.VerifyCodeInput{
		Email:       req.Email,
		Purpose:     req.Purpose,
		Code:        req.Code,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return nil, err
	}

	return VerifyCodeResponse{Success: resp.Success}, nil
}

// GetStatus reports remaining budgets and the next allowed times.
// @Summary Verification status
// @Description Projects the record for the purpose without revealing the code. Issues a first code when none is outstanding.
// @Tags Verification
// @Produce json
// @Param email query string true "Account email"
// @Param purpose query string true "Verification purpose" Enums(email_confirmation, password_reset)
// @Success 200 {object} router.successResponse{data=StatusResponse} "Current status"
// @Failure 403 {object} router.errorResponse "Email not verified"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 409 {object} router.errorResponse "Account already verified"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/verification/status [get]
func (h *HTTPEndpoint) GetStatus(r *router.Request) (any, error) {
	resp, err := h.uc.GetStatus(r.Context(), usecase.GetStatusInput{
		Email:   r.GetQuery("email"),
		Purpose: r.GetQuery("purpose"),
	})
	if err != nil {
		return nil, err
	}

	return StatusResponse{
		CanResend:               resp.CanResend,
		RemainingResendAttempts: resp.RemainingResendAttempts,
		CanResendAt:             resp.CanResendAt,
		RemainingCodeAttempts:   resp.RemainingCodeAttempts,
		CanTryCodeAt:            resp.CanTryCodeAt,
		IsResendBlocked:         resp.IsResendBlocked,
		ResendBlockedUntil:      resp.ResendBlockedUntil,
		CodeExpiresAt:           resp.CodeExpiresAt,
	}, nil
}
