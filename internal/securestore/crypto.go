package securestore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/neuroscope-selfcheck/internal/domain"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// Crypto is the authenticated-encryption provider. A store without one refuses to
// write and reports every read as unavailable.
type Crypto interface {
	GenerateKey() ([]byte, error)
	Seal(key, plaintext, aad []byte) (nonce, ciphertext []byte, err error)
	Open(key, nonce, ciphertext, aad []byte) ([]byte, error)
}

// AESGCM implements Crypto with AES-256-GCM and a fresh random 12-byte nonce per seal.
type AESGCM struct {
	random io.Reader
}

// NewAESGCM creates the AES-GCM provider. A nil reader uses crypto/rand.
func NewAESGCM(random io.Reader) *AESGCM {
	if random == nil {
		random = rand.Reader
	}
	return &AESGCM{random: random}
}

// GenerateKey returns fresh key material.
func (a *AESGCM) GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(a.random, key); err != nil {
		return nil, fmt.Errorf("%w: generate key: %v", domain.ErrUnavailable, err)
	}
	return key, nil
}

// Seal encrypts plaintext bound to aad.
func (a *AESGCM) Seal(key, plaintext, aad []byte) ([]byte, []byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(a.random, nonce); err != nil {
		return nil, nil, fmt.Errorf("%w: generate nonce: %v", domain.ErrUnavailable, err)
	}
	return nonce, gcm.Seal(nil, nonce, plaintext, aad), nil
}

// Open authenticates and decrypts. Any failure is domain.ErrCorrupt.
func (a *AESGCM) Open(key, nonce, ciphertext, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("%w: nonce has %d bytes", domain.ErrCorrupt, len(nonce))
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorrupt, err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", domain.ErrUnavailable, KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: create AES cipher: %v", domain.ErrUnavailable, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: create GCM: %v", domain.ErrUnavailable, err)
	}
	return gcm, nil
}
