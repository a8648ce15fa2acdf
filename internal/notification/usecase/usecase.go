package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/goverify/internal/notification/entity"
	"github.com/shandysiswandi/goverify/internal/pkg/clock"
	"github.com/shandysiswandi/goverify/internal/pkg/config"
	"github.com/shandysiswandi/goverify/internal/pkg/instrument"
	"github.com/shandysiswandi/goverify/internal/pkg/mail"
	"github.com/shandysiswandi/goverify/internal/pkg/uid"
	"github.com/shandysiswandi/goverify/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const defaultRetryDelay = 2 * time.Minute

type repoDB interface {
	CreateDeliveryLog(ctx context.Context, dl entity.CreateDeliveryLog) error
	UpdateDeliveryLogStatus(ctx context.Context, u entity.UpdateDeliveryLog) error
}

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

type Usecase struct {
	repoDB    repoDB
	repoMail  repoMail
	cfg       config.Config
	uid       uid.NumberID
	clock     clock.Clocker
	validator validator.Validator
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	RepoMail   repoMail
	Config     config.Config
	UID        uid.NumberID
	Clock      clock.Clocker
	Validator  validator.Validator
	Instrument instrument.Instrumentation
}

func NewNotification(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		repoMail:  dep.RepoMail,
		cfg:       dep.Config,
		uid:       dep.UID,
		clock:     dep.Clock,
		validator: dep.Validator,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

func (s *Usecase) baseEmailTemplateData() map[string]any {
	return map[string]any{
		"support_email":   s.cfg.GetString("app.support_email"),
		"company_name":    s.cfg.GetString("app.name"),
		"company_address": s.cfg.GetString("app.address"),
		"web_url":         s.cfg.GetString("app.web"),
		"year":            s.clock.Now().Format("2006"),
	}
}

func (s *Usecase) retryDelay() time.Duration {
	if d := s.cfg.GetSecond("modules.notification.retry_delay_seconds"); d > 0 {
		return d
	}
	return defaultRetryDelay
}
