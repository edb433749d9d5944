package securestore

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/neuroscope-selfcheck/internal/domain"
)

// MasterKeyID is the fixed id of the device master key. The key is never rotated.
const MasterKeyID = "master_v1"

// KeyState describes where the master key currently lives.
type KeyState int

const (
	KeyStateNone KeyState = iota
	KeyStateDurable
	KeyStateVolatile
)

// String returns the state name.
func (s KeyState) String() string {
	switch s {
	case KeyStateDurable:
		return "durable"
	case KeyStateVolatile:
		return "volatile"
	default:
		return "none"
	}
}

// KeyManager loads or creates the master key.
//
// The durable store is consulted on every call. When it cannot be read, or a freshly
// generated key cannot be saved, the key is held in memory for the life of the process
// only; anything sealed under a volatile key is unreadable after a restart.
type KeyManager struct {
	mu       sync.Mutex
	store    KeyStore
	crypto   Crypto
	logger   *logrus.Logger
	volatile []byte
	state    KeyState
}

// NewKeyManager creates a key manager. A nil store always uses a volatile key.
func NewKeyManager(logger *logrus.Logger, store KeyStore, crypto Crypto) *KeyManager {
	return &KeyManager{
		store:  store,
		crypto: crypto,
		logger: logger,
	}
}

// Key returns the master key, generating it on first use.
func (k *KeyManager) Key(ctx context.Context) ([]byte, error) {
	material, _, err := k.resolve(ctx)
	return material, err
}

// resolve returns the master key and whether it is authoritative. A key is not
// authoritative when the durable store could not be read: data sealed under the
// durable key may then exist and must not be judged with the fallback key.
func (k *KeyManager) resolve(ctx context.Context) ([]byte, bool, error) {
	if k.crypto == nil {
		return nil, false, domain.ErrUnavailable
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	var (
		material []byte
		found    bool
		err      error
	)
	if k.store != nil {
		material, found, err = k.store.LoadKey(ctx, MasterKeyID)
	}
	readFailed := err != nil
	state := KeyStateDurable
	if readFailed {
		k.logger.WithError(err).Warn("Failed to read master key, using in-memory key")
	}
	if (readFailed || !found) && k.volatile != nil {
		material, found, state = k.volatile, true, KeyStateVolatile
	}

	if found {
		if len(material) != KeySize {
			return nil, false, fmt.Errorf("%w: stored master key has %d bytes", domain.ErrUnavailable, len(material))
		}
		k.state = state
		return material, !readFailed, nil
	}

	material, err = k.crypto.GenerateKey()
	if err != nil {
		return nil, false, err
	}

	// A failed read must never overwrite a durable key that may still exist.
	if k.store == nil || readFailed {
		k.keepVolatile(material)
		return material, !readFailed, nil
	}
	if err := k.store.SaveKey(ctx, MasterKeyID, material); err != nil {
		k.logger.WithError(err).Warn("Failed to persist master key, data will not survive a restart")
		k.keepVolatile(material)
		return material, true, nil
	}

	k.state = KeyStateDurable
	k.logger.WithField("key_id", MasterKeyID).Info("Generated master key")
	return material, true, nil
}

func (k *KeyManager) keepVolatile(material []byte) {
	k.volatile = material
	k.state = KeyStateVolatile
}

// State reports where the key lives after the last call to Key.
func (k *KeyManager) State() KeyState {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.state
}
