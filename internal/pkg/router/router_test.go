package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shandysiswandi/goverify/internal/pkg/config"
	"github.com/shandysiswandi/goverify/internal/pkg/goerror"
	"github.com/shandysiswandi/goverify/internal/pkg/instrument"
)

type fixedID string

func (f fixedID) Generate() string { return string(f) }

type created struct {
	ID int `json:"id"`
}

func (created) Message() string { return "created" }
func (created) StatusCode() int { return http.StatusCreated }

func newTestRouter(t *testing.T, yaml string) *Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	r := NewRouter(Config{Config: cfg, UUID: fixedID("cid-generated"), Instrument: instrument.NewNoop()})
	r.POST("/items", func(req *Request) (any, error) {
		var in struct {
			Name string `json:"name"`
		}
		if err := req.DecodeBody(&in); err != nil {
			return nil, err
		}
		return created{ID: 1}, nil
	})
	r.GET("/limited", func(*Request) (any, error) {
		return nil, goerror.NewBusiness("Too many attempts", goerror.CodeTooManyRequest,
			goerror.WithReason("TOO_MANY_ATTEMPTS"),
			goerror.WithFields(goerror.FieldRetryAfter, "30"))
	})
	r.GET("/empty", func(*Request) (any, error) { return nil, nil })
	r.GET("/boom", func(*Request) (any, error) { return nil, errors.New("db down") })
	r.GET("/panic", func(*Request) (any, error) { panic("bad") })

	return r
}

func TestRouter_Envelopes(t *testing.T) {
	r := newTestRouter(t, "app:\n  name: test\n")

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		check      func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name: "success with custom message and status", method: http.MethodPost, path: "/items",
			body: `{"name":"a"}`, wantStatus: http.StatusCreated,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var env successResponse
				_ = json.Unmarshal(rec.Body.Bytes(), &env)
				if env.Message != "created" {
					t.Fatalf("message = %q, want created", env.Message)
				}
			},
		},
		{
			name: "unknown field rejected", method: http.MethodPost, path: "/items",
			body: `{"name":"a","x":1}`, wantStatus: http.StatusBadRequest,
		},
		{
			name: "trailing value rejected", method: http.MethodPost, path: "/items",
			body: `{"name":"a"}{}`, wantStatus: http.StatusBadRequest,
		},
		{
			name: "business error carries reason and retry-after", method: http.MethodGet, path: "/limited",
			wantStatus: http.StatusTooManyRequests,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var env errorResponse
				_ = json.Unmarshal(rec.Body.Bytes(), &env)
				if env.Reason != "TOO_MANY_ATTEMPTS" {
					t.Fatalf("reason = %q, want TOO_MANY_ATTEMPTS", env.Reason)
				}
				if rec.Header().Get(HeaderRetryAfter) != "30" {
					t.Fatalf("Retry-After = %q, want 30", rec.Header().Get(HeaderRetryAfter))
				}
			},
		},
		{name: "nil payload", method: http.MethodGet, path: "/empty", wantStatus: http.StatusNoContent},
		{
			name: "plain error hidden", method: http.MethodGet, path: "/boom", wantStatus: http.StatusInternalServerError,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				if strings.Contains(rec.Body.String(), "db down") {
					t.Fatalf("internal error leaked: %s", rec.Body.String())
				}
			},
		},
		{name: "panic recovered", method: http.MethodGet, path: "/panic", wantStatus: http.StatusInternalServerError},
		{name: "not found", method: http.MethodGet, path: "/nope", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			// Act
			r.ServeHTTP(rec, req)

			// Assert
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body=%s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.check != nil {
				tt.check(t, rec)
			}
		})
	}
}

func TestRouter_CorrelationID(t *testing.T) {
	r := newTestRouter(t, "app:\n  name: test\n")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/empty", nil))
	if got := rec.Header().Get(HeaderCorrelationID); got != "cid-generated" {
		t.Fatalf("generated cid = %q, want cid-generated", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/empty", nil)
	req.Header.Set(HeaderRequestID, "  from-proxy ")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get(HeaderCorrelationID); got != "from-proxy" {
		t.Fatalf("forwarded cid = %q, want from-proxy", got)
	}
}

func TestRouter_Maintenance(t *testing.T) {
	r := newTestRouter(t, "app:\n  maintenance:\n    endpoints: \"POST /items\"\n")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(`{"name":"a"}`)))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/empty", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "x-forwarded-for first hop", headers: map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, remote: "1.1.1.1:80", want: "10.0.0.1"},
		{name: "garbage header falls back", headers: map[string]string{"X-Real-IP": "nope"}, remote: "1.1.1.1:80", want: "1.1.1.1"},
		{name: "true-client-ip wins", headers: map[string]string{"True-Client-IP": "2.2.2.2", "X-Real-IP": "3.3.3.3"}, remote: "1.1.1.1:80", want: "2.2.2.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := clientIP(req); got != tt.want {
				t.Fatalf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
