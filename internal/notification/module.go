package notification

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/goverify/internal/notification/inbound"
	"github.com/shandysiswandi/goverify/internal/notification/outbound/db"
	"github.com/shandysiswandi/goverify/internal/notification/outbound/email"
	"github.com/shandysiswandi/goverify/internal/notification/usecase"
	"github.com/shandysiswandi/goverify/internal/pkg/clock"
	"github.com/shandysiswandi/goverify/internal/pkg/config"
	"github.com/shandysiswandi/goverify/internal/pkg/goroutine"
	"github.com/shandysiswandi/goverify/internal/pkg/hash"
	"github.com/shandysiswandi/goverify/internal/pkg/idempotency"
	"github.com/shandysiswandi/goverify/internal/pkg/instrument"
	"github.com/shandysiswandi/goverify/internal/pkg/mail"
	"github.com/shandysiswandi/goverify/internal/pkg/messaging"
	"github.com/shandysiswandi/goverify/internal/pkg/uid"
	"github.com/shandysiswandi/goverify/internal/pkg/validator"
)

type Dependency struct {
	Ctx         context.Context
	DBConn      *pgxpool.Pool
	Messaging   messaging.Messaging
	Idempotency idempotency.Idempotency
	Config      config.Config
	Instrument  instrument.Instrumentation
	UID         uid.NumberID
	UUID        uid.StringID
	HMAC        *hash.HMACSHA256
	Clock       clock.Clocker
	Goroutine   *goroutine.Manager
	Validator   validator.Validator
	Mail        mail.Mail
}

func New(dep Dependency) error {
	dbNotif := db.NewDB(dep.DBConn, dep.Instrument)
	repoMail := email.New(dep.Mail, dep.Config.GetString("mail.from"), dep.Instrument)

	uc := usecase.NewNotification(usecase.Dependency{
		RepoDB:     dbNotif,
		RepoMail:   repoMail,
		Config:     dep.Config,
		UID:        dep.UID,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		Instrument: dep.Instrument,
	})

	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, inbound.MQConsumerDependency{
			Config:      dep.Config,
			Routine:     dep.Goroutine,
			Messaging:   dep.Messaging,
			UUID:        dep.UUID,
			Keyer:       dep.HMAC,
			Idempotency: dep.Idempotency,
			Instrument:  dep.Instrument,
		}, uc)
	}

	return nil
}
