package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id hashes passwords into the PHC string format. A pepper is appended
// to every plaintext and the number of concurrent derivations is bounded,
// since each one allocates the full memory cost.
type Argon2id struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	saltLength  uint32
	keyLength   uint32
	pepper      string
	sem         chan struct{}
}

func NewArgon2id(pepper string) *Argon2id {
	return &Argon2id{
		memory:      32 * 1024,
		iterations:  3,
		parallelism: 2,
		saltLength:  16,
		keyLength:   32,
		pepper:      pepper,
		sem:         make(chan struct{}, 2),
	}
}

func (a *Argon2id) derive(plaintext string, salt []byte, t, m uint32, p uint8, n uint32) []byte {
	a.sem <- struct{}{}
	defer func() { <-a.sem }()

	return argon2.IDKey([]byte(plaintext+a.pepper), salt, t, m, p, n)
}

func (a *Argon2id) Hash(plaintext string) ([]byte, error) {
	salt := make([]byte, a.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key := a.derive(plaintext, salt, a.iterations, a.memory, a.parallelism, a.keyLength)

	return fmt.Appendf(nil, "$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, a.memory, a.iterations, a.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (a *Argon2id) Verify(hashed, plaintext string) bool {
	if hashed == "" || plaintext == "" {
		return false
	}

	// $argon2id$v=19$m=..,t=..,p=..$salt$key
	parts := strings.Split(hashed, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var m, t uint32
	var p uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	got := a.derive(plaintext, salt, t, m, p, uint32(len(want)))
	return subtle.ConstantTimeCompare(want, got) == 1
}
