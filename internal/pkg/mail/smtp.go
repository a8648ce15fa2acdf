package mail

import (
	"context"
	"errors"

	"gopkg.in/gomail.v2"
)

var (
	ErrSMTPHostPortRequired = errors.New("smtp host and port are required")
	ErrSMTPNoRecipients     = errors.New("no recipients provided")
	ErrSMTPNoSender         = errors.New("no sender provided")
	ErrSMTPNoBody           = errors.New("no body provided")
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is used when Message.From is empty.
	From string
}

// SMTP dials the server for every message, so it holds no connection to close.
type SMTP struct {
	dialer      *gomail.Dialer
	defaultFrom string
}

func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrSMTPHostPortRequired
	}

	return &SMTP{
		dialer:      gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		defaultFrom: cfg.From,
	}, nil
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	m, err := s.build(msg)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return s.dialer.DialAndSend(m)
}

func (s *SMTP) build(msg Message) (*gomail.Message, error) {
	if len(msg.To)+len(msg.Cc)+len(msg.Bcc) == 0 {
		return nil, ErrSMTPNoRecipients
	}

	from := msg.From
	if from == "" {
		from = s.defaultFrom
	}
	if from == "" {
		return nil, ErrSMTPNoSender
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	if len(msg.To) > 0 {
		m.SetHeader("To", msg.To...)
	}
	if len(msg.Cc) > 0 {
		m.SetHeader("Cc", msg.Cc...)
	}
	if len(msg.Bcc) > 0 {
		m.SetHeader("Bcc", msg.Bcc...)
	}
	m.SetHeader("Subject", msg.Subject)

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		m.SetBody("text/plain", msg.TextBody)
		m.AddAlternative("text/html", msg.HTMLBody)
	case msg.HTMLBody != "":
		m.SetBody("text/html", msg.HTMLBody)
	case msg.TextBody != "":
		m.SetBody("text/plain", msg.TextBody)
	default:
		return nil, ErrSMTPNoBody
	}

	return m, nil
}

func (s *SMTP) Close() error {
	return nil
}
