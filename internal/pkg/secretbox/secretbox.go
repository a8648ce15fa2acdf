// Package secretbox seals small secrets with AES-256-GCM before they are
// persisted. Every ciphertext is bound to a Scope through the additional
// authenticated data, so a sealed value moved to another row fails to open.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
)

// Layout: uint16 version | 12-byte nonce | ciphertext+tag.
const (
	version   uint16 = 1
	nonceSize        = 12
	keySize          = 32
	headerLen        = 2 + nonceSize
)

var (
	ErrInvalidKey         = errors.New("secretbox: key must be 32 bytes")
	ErrEmptyPlaintext     = errors.New("secretbox: plaintext is empty")
	ErrTooShort           = errors.New("secretbox: ciphertext too short")
	ErrUnsupportedVersion = errors.New("secretbox: unsupported ciphertext version")
	ErrOpen               = errors.New("secretbox: open failed")
)

// Scope identifies the owner of a sealed value.
type Scope struct {
	AccountID int64
	Purpose   string
}

func (s Scope) aad() []byte {
	sum := sha256.Sum256(fmt.Appendf(nil, "account=%d\npurpose=%s\n", s.AccountID, s.Purpose))
	return sum[:]
}

// Box seals and opens scoped secrets.
type Box interface {
	Seal(plaintext []byte, scope Scope) ([]byte, error)
	Open(ciphertext []byte, scope Scope) ([]byte, error)
}

// AESGCM implements Box with a single static key.
type AESGCM struct {
	aead cipher.AEAD
}

// NewAESGCM builds a box from a raw 32-byte key.
func NewAESGCM(key []byte) (*AESGCM, error) {
	if len(key) != keySize {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secretbox: aes init: %w", err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("secretbox: gcm init: %w", err)
	}

	return &AESGCM{aead: aead}, nil
}

// NewAESGCMFromBase64 decodes a standard base64 key and builds a box.
func NewAESGCMFromBase64(encoded string) (*AESGCM, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("secretbox: decode key: %w", err)
	}
	return NewAESGCM(key)
}

func (b *AESGCM) Seal(plaintext []byte, scope Scope) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, ErrEmptyPlaintext
	}

	out := make([]byte, headerLen, headerLen+len(plaintext)+b.aead.Overhead())
	binary.BigEndian.PutUint16(out[:2], version)
	if _, err := rand.Read(out[2:headerLen]); err != nil {
		return nil, fmt.Errorf("secretbox: nonce: %w", err)
	}

	return b.aead.Seal(out, out[2:headerLen], plaintext, scope.aad()), nil
}

func (b *AESGCM) Open(ciphertext []byte, scope Scope) ([]byte, error) {
	if len(ciphertext) <= headerLen {
		return nil, ErrTooShort
	}
	if v := binary.BigEndian.Uint16(ciphertext[:2]); v != version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	plain, err := b.aead.Open(nil, ciphertext[2:headerLen], ciphertext[headerLen:], scope.aad())
	if err != nil {
		// never say whether the key, the scope or the payload was wrong
		return nil, ErrOpen
	}
	return plain, nil
}
