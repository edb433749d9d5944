package securestore

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/neuroscope-selfcheck/internal/domain"
)

// Envelope format constants
const (
	EnvelopeVersion = 1
	NonceSize       = 12
	// AAD binds every ciphertext to this application and payload type.
	AAD = "app:v1|type:answers"
)

// Envelope is the persisted wrapper around one sealed value.
type Envelope struct {
	V  int    `json:"v"`
	IV string `json:"iv"`
	C  string `json:"c"`
}

// ParseEnvelope recognises our envelope. Anything else, including plaintext written by
// older versions, yields domain.ErrForeignFormat.
func ParseEnvelope(raw string) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", domain.ErrForeignFormat, err)
	}
	if env.V != EnvelopeVersion || env.IV == "" || env.C == "" {
		return Envelope{}, domain.ErrForeignFormat
	}
	return env, nil
}

// IsEnvelope reports whether raw parses as our envelope.
func IsEnvelope(raw string) bool {
	_, err := ParseEnvelope(raw)
	return err == nil
}

// Seal builds an envelope from a nonce and ciphertext.
func Seal(nonce, ciphertext []byte) Envelope {
	return Envelope{
		V:  EnvelopeVersion,
		IV: base64.StdEncoding.EncodeToString(nonce),
		C:  base64.StdEncoding.EncodeToString(ciphertext),
	}
}

// Decode returns the nonce and ciphertext. Malformed base64 or a nonce of the wrong
// length is domain.ErrCorrupt.
func (e Envelope) Decode() (nonce, ciphertext []byte, err error) {
	nonce, err = base64.StdEncoding.DecodeString(e.IV)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: iv: %v", domain.ErrCorrupt, err)
	}
	if len(nonce) != NonceSize {
		return nil, nil, fmt.Errorf("%w: iv has %d bytes", domain.ErrCorrupt, len(nonce))
	}
	ciphertext, err = base64.StdEncoding.DecodeString(e.C)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: ciphertext: %v", domain.ErrCorrupt, err)
	}
	return nonce, ciphertext, nil
}

// String returns the JSON form written to the value backend.
func (e Envelope) String() string {
	data, _ := json.Marshal(e)
	return string(data)
}
