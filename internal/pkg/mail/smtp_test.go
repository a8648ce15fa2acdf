package mail

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestSMTP_Build(t *testing.T) {
	s, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 1025, From: "noreply@goverify.local"})
	if err != nil {
		t.Fatalf("NewSMTP() error = %v", err)
	}

	tests := []struct {
		name    string
		msg     Message
		wantErr error
		want    []string
	}{
		{
			name: "multipart with default sender",
			msg:  Message{To: []string{"a@b.co"}, Subject: "Your code", TextBody: "123456", HTMLBody: "<b>123456</b>"},
			want: []string{"From: noreply@goverify.local", "To: a@b.co", "Subject: Your code", "multipart/alternative", "text/html"},
		},
		{name: "no recipients", msg: Message{Subject: "x", TextBody: "x"}, wantErr: ErrSMTPNoRecipients},
		{name: "no body", msg: Message{To: []string{"a@b.co"}}, wantErr: ErrSMTPNoBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := s.build(tt.msg)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("build() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}

			buf := &bytes.Buffer{}
			if _, err := m.WriteTo(buf); err != nil {
				t.Fatalf("WriteTo() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Fatalf("message missing %q:\n%s", w, buf.String())
				}
			}
		})
	}
}

func TestNewSMTP_RequiresHostPort(t *testing.T) {
	if _, err := NewSMTP(SMTPConfig{Host: "localhost"}); !errors.Is(err, ErrSMTPHostPortRequired) {
		t.Fatalf("NewSMTP() error = %v, want %v", err, ErrSMTPHostPortRequired)
	}
}

func TestSMTP_NoSender(t *testing.T) {
	s, _ := NewSMTP(SMTPConfig{Host: "localhost", Port: 25})
	if _, err := s.build(Message{To: []string{"a@b.co"}, TextBody: "x"}); !errors.Is(err, ErrSMTPNoSender) {
		t.Fatalf("build() error = %v, want %v", err, ErrSMTPNoSender)
	}
}
