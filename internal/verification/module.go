package verification

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/goverify/internal/pkg/clock"
	"github.com/shandysiswandi/goverify/internal/pkg/config"
	"github.com/shandysiswandi/goverify/internal/pkg/goroutine"
	"github.com/shandysiswandi/goverify/internal/pkg/hash"
	"github.com/shandysiswandi/goverify/internal/pkg/idempotency"
	"github.com/shandysiswandi/goverify/internal/pkg/instrument"
	"github.com/shandysiswandi/goverify/internal/pkg/messaging"
	"github.com/shandysiswandi/goverify/internal/pkg/otp"
	"github.com/shandysiswandi/goverify/internal/pkg/router"
	"github.com/shandysiswandi/goverify/internal/pkg/secretbox"
	"github.com/shandysiswandi/goverify/internal/pkg/uid"
	"github.com/shandysiswandi/goverify/internal/pkg/validator"
	"github.com/shandysiswandi/goverify/internal/verification/inbound"
	"github.com/shandysiswandi/goverify/internal/verification/outbound/db"
	"github.com/shandysiswandi/goverify/internal/verification/outbound/mq"
	"github.com/shandysiswandi/goverify/internal/verification/usecase"
)

type Dependency struct {
	Ctx         context.Context
	DBConn      *pgxpool.Pool              `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UUID        uid.StringID               `validate:"required"`
	HMAC        *hash.HMACSHA256           `validate:"required"`
	Argon2ID    hash.Hash                  `validate:"required"`
	SecretBox   secretbox.Box              `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	OTP         otp.Engine                 `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbVerification := db.NewDB(dep.DBConn, dep.SecretBox, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        dbVerification,
		RepoMessaging: repoMsg,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Argon2ID:      dep.Argon2ID,
		UUID:          dep.UUID,
		OTP:           dep.OTP,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
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
