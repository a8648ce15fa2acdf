package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 yields hex encoded HMAC-SHA256 digests. The output is stable for
// a given secret, which makes it suitable for cache and dedupe keys.
type HMACSHA256 struct {
	secret []byte
}

func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{secret: []byte(secret)}
}

func (s *HMACSHA256) Hash(plaintext string) ([]byte, error) {
	return s.sum(plaintext), nil
}

func (s *HMACSHA256) Verify(hashed, plaintext string) bool {
	return hmac.Equal([]byte(hashed), s.sum(plaintext))
}

// Key is Hash without the error, for call sites building lookup keys.
func (s *HMACSHA256) Key(plaintext string) string {
	return string(s.sum(plaintext))
}

func (s *HMACSHA256) sum(plaintext string) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(plaintext))
	return hex.AppendEncode(nil, mac.Sum(nil))
}
