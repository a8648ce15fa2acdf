package usecase

import (
	"context"

	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
)

type GetStatusInput struct {
	Email   string `validate:"required,email"`
	Purpose string `validate:"required,oneof=email_confirmation password_reset"`
}

type GetStatusOutput struct {
	entity.Status
}

// GetStatus projects the record. With no outstanding code it first issues
// one, so a polling client always sees an expiry.
func (s *Usecase) GetStatus(ctx context.Context, in GetStatusInput) (*GetStatusOutput, error) {
	ctx, span := s.startSpan(ctx, "GetStatus")
	defer span.End()

	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	purpose := entity.Purpose(in.Purpose)
	acc, _, err := s.resolveAccount(ctx, in.Email, purpose)
	if err != nil {
		return nil, err
	}

	rec, _, err := s.issueIfIdle(ctx, acc, purpose)
	if err != nil {
		return nil, err
	}

	return &GetStatusOutput{Status: entity.ProjectStatus(*rec, s.clock.Now())}, nil
}
