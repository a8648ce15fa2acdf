package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/goverify/internal/pkg/instrument"
	"github.com/shandysiswandi/goverify/internal/pkg/messaging"
	"github.com/shandysiswandi/goverify/internal/shared/event"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
	"github.com/shandysiswandi/goverify/internal/verification/usecase"
)

type capture struct {
	topic string
	env   messaging.Envelope
	err   error
}

func (c *capture) Publish(_ context.Context, topic string, env messaging.Envelope) error {
	c.topic = topic
	c.env = env
	return c.err
}

func TestMessaging_PublishCodeIssued(t *testing.T) {
	// Arrange
	client := &capture{}
	pub := NewMessaging(client, instrument.NewNoop())
	ctx := instrument.SetCorrelationID(context.Background(), "corr-1")
	expires := time.Unix(1_700_000_300, 0)

	// Act
	err := pub.PublishCodeIssued(ctx, usecase.CodeIssuedEvent{
		EventID:   "evt-1",
		AccountID: 7,
		Email:     "ana@example.com",
		Purpose:   entity.PurposeEmailConfirmation,
		Code:      "123456",
		ExpiresAt: expires,
	})

	// Assert
	if err != nil {
		t.Fatalf("PublishCodeIssued() error = %v", err)
	}
	if client.topic != event.VerificationCodeIssuedDestination {
		t.Fatalf("topic = %q, want %q", client.topic, event.VerificationCodeIssuedDestination)
	}
	if client.env.Key != "7" {
		t.Fatalf("key = %q, want %q", client.env.Key, "7")
	}
	if client.env.Headers[event.HeaderCorrelationID] != "corr-1" {
		t.Fatalf("correlation header = %q, want %q", client.env.Headers[event.HeaderCorrelationID], "corr-1")
	}

	var body event.VerificationCodeIssuedMessage
	if err := json.Unmarshal(client.env.Body, &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body.Code != "123456" || body.Purpose != "email_confirmation" || body.ExpiresAt != expires.Unix() {
		t.Fatalf("body = %+v", body)
	}
}

func TestMessaging_PublishVerificationCompleted(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		// Arrange
		client := &capture{}
		pub := NewMessaging(client, instrument.NewNoop())

		// Act
		err := pub.PublishVerificationCompleted(context.Background(), usecase.VerificationCompletedEvent{
			EventID:     "evt-2",
			AccountID:   9,
			Purpose:     entity.PurposePasswordReset,
			CompletedAt: time.Unix(1_700_000_000, 0),
		})

		// Assert
		if err != nil {
			t.Fatalf("PublishVerificationCompleted() error = %v", err)
		}
		if client.topic != event.VerificationCompletedDestination {
			t.Fatalf("topic = %q, want %q", client.topic, event.VerificationCompletedDestination)
		}
	})

	t.Run("broker failure is returned", func(t *testing.T) {
		// Arrange
		boom := errors.New("boom")
		pub := NewMessaging(&capture{err: boom}, instrument.NewNoop())

		// Act
		err := pub.PublishVerificationCompleted(context.Background(), usecase.VerificationCompletedEvent{AccountID: 1})

		// Assert
		if !errors.Is(err, boom) {
			t.Fatalf("PublishVerificationCompleted() error = %v, want %v", err, boom)
		}
	})
}
