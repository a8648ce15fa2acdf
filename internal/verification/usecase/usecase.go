package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/goverify/internal/pkg/clock"
	"github.com/shandysiswandi/goverify/internal/pkg/config"
	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/pkg/hash"
	"github.com/shandysiswandi/goverify/internal/pkg/instrument"
	"github.com/shandysiswandi/goverify/internal/pkg/otp"
	"github.com/shandysiswandi/goverify/internal/pkg/uid"
	"github.com/shandysiswandi/goverify/internal/pkg/validator"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultSwapMaxRetries = 4
	defaultSwapBackoff    = 10 * time.Millisecond
)

type CodeIssuedEvent struct {
	EventID   string
	AccountID int64
	Email     string
	FullName  string
	Purpose   entity.Purpose
	Code      string
	ExpiresAt time.Time
}

type VerificationCompletedEvent struct {
	EventID     string
	AccountID   int64
	Email       string
	FullName    string
	Purpose     entity.Purpose
	CompletedAt time.Time
}

type repoMessaging interface {
	PublishCodeIssued(ctx context.Context, msg CodeIssuedEvent) error
	PublishVerificationCompleted(ctx context.Context, msg VerificationCompletedEvent) error
}

type repoDB interface {
	GetAccountByEmail(ctx context.Context, email string) (*entity.Account, error)
	GetAccountByID(ctx context.Context, id int64) (*entity.Account, error)
	GetRecord(ctx context.Context, accountID int64, purpose entity.Purpose) (*entity.Record, error)
	SwapRecord(ctx context.Context, swap entity.RecordSwap) (*entity.Record, error)
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	validator     validator.Validator
	argon2id      hash.Hash
	uuid          uid.StringID
	otp           otp.Engine
	clock         clock.Clocker
	ins           instrument.Instrumentation

	swapMaxRetries uint64
	swapBackoff    time.Duration
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Validator     validator.Validator
	Config        config.Config
	Argon2ID      hash.Hash
	UUID          uid.StringID
	OTP           otp.Engine
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	s := &Usecase{
		repoDB:         dep.RepoDB,
		repoMessaging:  dep.RepoMessaging,
		validator:      dep.Validator,
		argon2id:       dep.Argon2ID,
		uuid:           dep.UUID,
		otp:            dep.OTP,
		clock:          dep.Clock,
		ins:            dep.Instrument,
		swapMaxRetries: defaultSwapMaxRetries,
		swapBackoff:    defaultSwapBackoff,
	}

	if dep.Config != nil {
		if n := dep.Config.GetInt("verification.swap_max_retries"); n > 0 {
			s.swapMaxRetries = uint64(n)
		}
		if d := dep.Config.GetMillisecond("verification.swap_backoff_ms"); d > 0 {
			s.swapBackoff = d
		}
	}

	return s
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("verification.usecase").Start(ctx, name)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// resolveAccount loads the account by email and checks the purpose
// precondition.
func (s *Usecase) resolveAccount(ctx context.Context, email string, purpose entity.Purpose) (*entity.Account, entity.PurposePolicy, error) {
	policy, err := entity.PolicyFor(purpose)
	if err != nil {
		return nil, entity.PurposePolicy{}, goerror.NewInvalidInput(nil, "purpose", "purpose is not supported")
	}

	acc, err := s.repoDB.GetAccountByEmail(ctx, email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "account not found", "email", email)
		return nil, policy, errUserNotFound()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account by email", "email", email, "error", err)
		return nil, policy, goerror.NewServer(err)
	}

	if err := policy.Check(*acc); err != nil {
		slog.WarnContext(ctx, "account state does not allow purpose", "account_id", acc.ID, "purpose", purpose, "reason", err)
		switch {
		case errors.Is(err, entity.ErrAccountAlreadyVerified):
			return nil, policy, errAccountAlreadyVerified()
		case errors.Is(err, entity.ErrEmailNotVerified):
			return nil, policy, errEmailNotVerified()
		default:
			return nil, policy, goerror.NewServer(err)
		}
	}

	return acc, policy, nil
}
