package inbound

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/pkg/instrument"
	"github.com/shandysiswandi/goverify/internal/shared/event"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
)

func newHandler(uc *fakeUC) *MQHandler {
	return &MQHandler{
		uc:    uc,
		uuid:  fixedID("generated"),
		keyer: plainKeyer{},
		idem:  newMemIdempotency(),
		ins:   instrument.NewNoop(),
	}
}

func TestMQHandler_AccountRegistered(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		issueErr   error
		deliveries int
		wantErr    bool
		wantIssued int
	}{
		{
			name:       "issues once across redeliveries",
			body:       `{"event_id":"evt-1","account_id":7,"email":"ana@example.com"}`,
			deliveries: 3,
			wantIssued: 1,
		},
		{
			name:       "malformed body is dropped",
			body:       `{not json`,
			deliveries: 1,
			wantIssued: 0,
		},
		{
			name:       "storage failure is redelivered",
			body:       `{"event_id":"evt-2","account_id":7}`,
			issueErr:   goerror.NewServer(errors.New("db down")),
			deliveries: 2,
			wantErr:    true,
			wantIssued: 2,
		},
		{
			name:       "validation failure is dropped",
			body:       `{"event_id":"evt-3","account_id":0}`,
			issueErr:   goerror.NewInvalidInput(errors.New("account_id is required")),
			deliveries: 1,
			wantIssued: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			uc := &fakeUC{issueErr: tt.issueErr}
			h := newHandler(uc)
			msg := &fakeMessage{id: "m-1", body: []byte(tt.body), headers: map[string]string{event.HeaderCorrelationID: "cid"}}

			// Act
			var err error
			for range tt.deliveries {
				err = h.AccountRegistered(context.Background(), msg)
			}

			// Assert
			if (err != nil) != tt.wantErr {
				t.Fatalf("AccountRegistered() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(uc.issued) != tt.wantIssued {
				t.Fatalf("issued = %v, want %d calls", uc.issued, tt.wantIssued)
			}
		})
	}
}

func TestMQHandler_AccountEmailVerified(t *testing.T) {
	// Arrange
	uc := &fakeUC{}
	h := newHandler(uc)
	msg := &fakeMessage{id: "m-9", body: []byte(`{"account_id":9,"email":"bo@example.com"}`)}

	// Act
	first := h.AccountEmailVerified(context.Background(), msg)
	second := h.AccountEmailVerified(context.Background(), msg)

	// Assert
	if first != nil || second != nil {
		t.Fatalf("AccountEmailVerified() errors = %v, %v", first, second)
	}
	if len(uc.superseded) != 1 {
		t.Fatalf("superseded = %v, want one call keyed by message id", uc.superseded)
	}
	if got := uc.superseded[0]; got.AccountID != 9 || got.Purpose != entity.PurposeEmailConfirmation.String() {
		t.Fatalf("supersede input = %+v", got)
	}
}
