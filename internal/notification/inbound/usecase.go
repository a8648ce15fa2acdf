package inbound

import (
	"context"

	"github.com/shandysiswandi/goverify/internal/notification/usecase"
)

type uc interface {
	ConsumeCodeIssued(ctx context.Context, in usecase.ConsumeCodeIssuedInput) error
	ConsumeVerificationCompleted(ctx context.Context, in usecase.ConsumeVerificationCompletedInput) error
}
