package inbound

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/goverify/internal/pkg/config"
	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/pkg/instrument"
	"github.com/shandysiswandi/goverify/internal/pkg/router"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
	"github.com/shandysiswandi/goverify/internal/verification/usecase"
)

func newServer(t *testing.T, uc *fakeUC) *router.Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  name: test\n"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	r := router.NewRouter(router.Config{Config: cfg, UUID: fixedID("cid"), Instrument: instrument.NewNoop()})
	RegisterHTTPEndpoint(r, uc)
	return r
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Message string            `json:"message"`
	Reason  string            `json:"reason"`
	Data    json.RawMessage   `json:"data"`
	Error   map[string]string `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return env
}

func TestHTTPEndpoint_RequestCode(t *testing.T) {
	expires := time.Date(2026, 1, 2, 3, 9, 5, 0, time.UTC)

	tests := []struct {
		name       string
		body       string
		uc         *fakeUC
		wantStatus int
		check      func(t *testing.T, uc *fakeUC, rec *httptest.ResponseRecorder)
	}{
		{
			name: "issued",
			body: `{"email":"ana@example.com","purpose":"email_confirmation"}`,
			uc: &fakeUC{requestOut: &usecase.RequestCodeOutput{
				ExpiresAt:               expires,
				CooldownEndsAt:          expires.Add(-4*time.Minute - 30*time.Second),
				RemainingResendAttempts: 4,
			}},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, uc *fakeUC, rec *httptest.ResponseRecorder) {
				if uc.requestIn.Email != "ana@example.com" || uc.requestIn.Purpose != "email_confirmation" {
					t.Fatalf("usecase input = %+v", uc.requestIn)
				}
				var data RequestCodeResponse
				if err := json.Unmarshal(decode(t, rec).Data, &data); err != nil {
					t.Fatalf("decode data: %v", err)
				}
				if data.RemainingResendAttempts != 4 || !data.ExpiresAt.Equal(expires) {
					t.Fatalf("data = %+v", data)
				}
				if strings.Contains(rec.Body.String(), "code\"") {
					t.Fatalf("response leaks a code: %s", rec.Body.String())
				}
			},
		},
		{
			name:       "unknown field is a bad request",
			body:       `{"email":"ana@example.com","purpose":"email_confirmation","extra":1}`,
			uc:         &fakeUC{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "cooldown maps to 429 with retry after",
			body: `{"email":"ana@example.com","purpose":"email_confirmation"}`,
			uc: &fakeUC{err: goerror.NewBusiness("Please wait", goerror.CodeTooManyRequest,
				goerror.WithReason(usecase.ReasonTooManyAttempts),
				goerror.WithFields(goerror.FieldRetryAfter, "12"))},
			wantStatus: http.StatusTooManyRequests,
			check: func(t *testing.T, _ *fakeUC, rec *httptest.ResponseRecorder) {
				if got := rec.Header().Get(router.HeaderRetryAfter); got != "12" {
					t.Fatalf("Retry-After = %q, want %q", got, "12")
				}
				if env := decode(t, rec); env.Reason != usecase.ReasonTooManyAttempts {
					t.Fatalf("reason = %q, want %q", env.Reason, usecase.ReasonTooManyAttempts)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			srv := newServer(t, tt.uc)

			// Act
			rec := serve(srv, http.MethodPost, "/api/v1/verification/code", tt.body)

			// Assert
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.check != nil {
				tt.check(t, tt.uc, rec)
			}
		})
	}
}

func TestHTTPEndpoint_VerifyCode(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		// Arrange
		uc := &fakeUC{verifyOut: &usecase.VerifyCodeOutput{Success: true}}
		srv := newServer(t, uc)

		// Act
		rec := serve(srv, http.MethodPost, "/api/v1/verification/code/verify",
			`{"email":"ana@example.com","purpose":"password_reset","code":"123456","new_password":"n3w-Passw0rd"}`)

		// Assert
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		if uc.verifyIn.NewPassword != "n3w-Passw0rd" || uc.verifyIn.Code != "123456" {
			t.Fatalf("usecase input = %+v", uc.verifyIn)
		}
		var data VerifyCodeResponse
		if err := json.Unmarshal(decode(t, rec).Data, &data); err != nil || !data.Success {
			t.Fatalf("data = %+v, err = %v", data, err)
		}
	})

	t.Run("wrong code carries remaining attempts", func(t *testing.T) {
		// Arrange
		uc := &fakeUC{err: goerror.NewBusiness("Invalid verification code", goerror.CodeUnauthorized,
			goerror.WithReason(usecase.ReasonInvalidVerificationCode),
			goerror.WithFields(usecase.FieldRemainingAttempts, "3"))}
		srv := newServer(t, uc)

		// Act
		rec := serve(srv, http.MethodPost, "/api/v1/verification/code/verify",
			`{"email":"ana@example.com","purpose":"email_confirmation","code":"000000"}`)

		// Assert
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
		env := decode(t, rec)
		if env.Reason != usecase.ReasonInvalidVerificationCode || env.Error[usecase.FieldRemainingAttempts] != "3" {
			t.Fatalf("envelope = %+v", env)
		}
	})
}

func TestHTTPEndpoint_GetStatus(t *testing.T) {
	// Arrange
	expires := time.Date(2026, 1, 2, 3, 9, 5, 0, time.UTC)
	uc := &fakeUC{statusOut: &usecase.GetStatusOutput{Status: entity.Status{
		RemainingResendAttempts: 5,
		RemainingCodeAttempts:   5,
		CanResend:               true,
		CodeExpiresAt:           &expires,
	}}}
	srv := newServer(t, uc)

	// Act
	rec := serve(srv, http.MethodGet, "/api/v1/verification/status?email=ana@example.com&purpose=email_confirmation", "")

	// Assert
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if uc.statusIn.Email != "ana@example.com" || uc.statusIn.Purpose != "email_confirmation" {
		t.Fatalf("usecase input = %+v", uc.statusIn)
	}
	var data StatusResponse
	if err := json.Unmarshal(decode(t, rec).Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if !data.CanResend || data.RemainingCodeAttempts != 5 || data.CodeExpiresAt == nil || !data.CodeExpiresAt.Equal(expires) {
		t.Fatalf("data = %+v", data)
	}
}
