package uid

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUID_Generate(t *testing.T) {
	id := NewUUID().Generate()

	parsed, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("uuid.Parse(%q) error = %v", id, err)
	}
	if parsed.Version() != 7 {
		t.Fatalf("version = %d, want 7", parsed.Version())
	}
}

func TestSnowflake_Generate(t *testing.T) {
	gen, err := NewSnowflake(1)
	if err != nil {
		t.Fatalf("NewSnowflake() error = %v", err)
	}

	seen := make(map[int64]struct{}, 1000)
	var prev int64
	for range 1000 {
		id := gen.Generate()
		if id <= prev {
			t.Fatalf("Generate() = %d, not greater than %d", id, prev)
		}
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = struct{}{}
		prev = id
	}

	if _, err := NewSnowflake(4096); err == nil {
		t.Fatalf("NewSnowflake(4096) error = nil, want error")
	}
}
