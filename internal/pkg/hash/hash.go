// Package hash hashes and verifies secrets. Argon2id is used for passwords and
// HMAC-SHA256 for deterministic keys that must not expose the raw input.
package hash

// Hash produces a digest of a plaintext and checks a plaintext against one.
type Hash interface {
	Hash(plaintext string) ([]byte, error)
	Verify(hashed, plaintext string) bool
}
