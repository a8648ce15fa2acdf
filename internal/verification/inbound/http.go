package inbound

import (
	"context"

	"github.com/shandysiswandi/goverify/internal/pkg/router"
	"github.com/shandysiswandi/goverify/internal/verification/usecase"
)

type uc interface {
	RequestCode(ctx context.Context, in usecase.RequestCodeInput) (*usecase.RequestCodeOutput, error)
	VerifyCode(ctx context.Context, in usecase.VerifyCodeInput) (*usecase.VerifyCodeOutput, error)
	GetStatus(ctx context.Context, in usecase.GetStatusInput) (*usecase.GetStatusOutput, error)

	IssueInitialCode(ctx context.Context, in usecase.IssueInitialCodeInput) error
	Supersede(ctx context.Context, in usecase.SupersedeInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/verification/code", end.RequestCode)
	r.POST("/api/v1/verification/code/verify", end.VerifyCode)
	r.GET("/api/v1/verification/status", end.GetStatus)
}
