// Package mail sends email through a provider hidden behind the Mail interface.
package mail

import (
	"context"
	"io"
)

// Message is a provider agnostic email. When both bodies are set the HTML
// body is sent as an alternative to the text body.
type Message struct {
	From     string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	TextBody string
	HTMLBody string
}

type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
