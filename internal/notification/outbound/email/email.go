package email

import (
	"context"

	"github.com/shandysiswandi/goverify/internal/pkg/instrument"
	"github.com/shandysiswandi/goverify/internal/pkg/mail"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Mail struct {
	client mail.Mail
	from   string
	ins    instrument.Instrumentation
}

// New wraps a mail client. from fills Message.From when the caller leaves it empty.
func New(client mail.Mail, from string, ins instrument.Instrumentation) *Mail {
	return &Mail{client: client, from: from, ins: ins}
}

func (m *Mail) Send(ctx context.Context, msg mail.Message) error {
	ctx, span := m.ins.Tracer("notification.outbound.email").Start(ctx, "Send")
	defer span.End()

	if msg.From == "" {
		msg.From = m.from
	}
	span.SetAttributes(attribute.Int("mail.recipients", len(msg.To)))

	if err := m.client.Send(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
