package config

import (
	"testing"
	"time"
)

const sample = `
app:
  name: goverify
  maintenance:
    endpoints: "POST /a, GET /b,,"
modules:
  notification:
    consumer_names:
      - code_issued
      - " verification_completed "
verification:
  secret_key: "AAAA"
  swap_backoff_ms: 25
server:
  timeout: 3
`

func TestViper_Getters(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}

	if got := cfg.GetString("app.name"); got != "goverify" {
		t.Fatalf("GetString() = %q, want goverify", got)
	}
	if got := cfg.GetSecond("server.timeout"); got != 3*time.Second {
		t.Fatalf("GetSecond() = %v, want 3s", got)
	}
	if got := cfg.GetMillisecond("verification.swap_backoff_ms"); got != 25*time.Millisecond {
		t.Fatalf("GetMillisecond() = %v, want 25ms", got)
	}
	if got := cfg.GetBinary("verification.secret_key"); len(got) != 3 {
		t.Fatalf("len(GetBinary()) = %d, want 3", len(got))
	}
	if got := cfg.GetArray("missing"); len(got) != 0 {
		t.Fatalf("GetArray(missing) = %v, want empty", got)
	}

	tests := []struct {
		key  string
		want []string
	}{
		{key: "app.maintenance.endpoints", want: []string{"POST /a", "GET /b"}},
		{key: "modules.notification.consumer_names", want: []string{"code_issued", "verification_completed"}},
	}
	for _, tt := range tests {
		got := cfg.GetArray(tt.key)
		if len(got) != len(tt.want) {
			t.Fatalf("GetArray(%q) = %v, want %v", tt.key, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("GetArray(%q)[%d] = %q, want %q", tt.key, i, got[i], tt.want[i])
			}
		}
	}
}

func TestViper_EnvOverride(t *testing.T) {
	t.Setenv("GOVERIFY_APP_NAME", "from-env")

	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}

	if got := cfg.GetString("app.name"); got != "from-env" {
		t.Fatalf("GetString() = %q, want from-env", got)
	}
}

func TestNewViperFromBytes_RequiresType(t *testing.T) {
	if _, err := NewViperFromBytes(" ", nil); err == nil {
		t.Fatalf("NewViperFromBytes() error = nil, want error")
	}
}
