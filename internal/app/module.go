package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/goverify/internal/notification"
	"github.com/shandysiswandi/goverify/internal/verification"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.verification.enabled") {
		if err := verification.New(verification.Dependency{
			Ctx:         a.ctx,
			DBConn:      a.dbConn,
			Goroutine:   a.goroutine,
			Router:      a.router,
			Idempotency: a.idemp,
			Messaging:   a.messaging,
			Config:      a.config,
			Instrument:  a.ins,
			UUID:        a.uuid,
			HMAC:        a.hmac,
			Argon2ID:    a.argon2id,
			SecretBox:   a.secretBox,
			Clock:       a.clock,
			OTP:         a.otp,
			Validator:   a.validator,
		}); err != nil {
			slog.Error("failed to init module verification", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:         a.ctx,
			DBConn:      a.dbConn,
			Messaging:   a.messaging,
			Idempotency: a.idemp,
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			UUID:        a.uuid,
			HMAC:        a.hmac,
			Clock:       a.clock,
			Goroutine:   a.goroutine,
			Validator:   a.validator,
			Mail:        a.mail,
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
	}
}
