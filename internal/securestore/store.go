package securestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/neuroscope-selfcheck/internal/domain"
)

// LookupStatus classifies the outcome of Get.
type LookupStatus int

const (
	// LookupMissing means nothing is stored under the key.
	LookupMissing LookupStatus = iota
	// LookupFound means the value was decrypted and authenticated.
	LookupFound
	// LookupForeign means an entry exists but is not an envelope, e.g. legacy plaintext.
	LookupForeign
	// LookupPurged means authentication or decoding failed and the entry was deleted.
	LookupPurged
	// LookupUnavailable means encryption or the backend could not be used.
	LookupUnavailable
)

// String returns the status name.
func (s LookupStatus) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupForeign:
		return "foreign"
	case LookupPurged:
		return "purged"
	case LookupUnavailable:
		return "unavailable"
	default:
		return "missing"
	}
}

// Lookup is the result of Get. Value is set only for LookupFound.
type Lookup struct {
	Status LookupStatus
	Value  json.RawMessage
	Err    error
}

// Found reports whether a value was returned.
func (l Lookup) Found() bool {
	return l.Status == LookupFound
}

// Decode unmarshals the value into dst. It returns domain.ErrNotFound unless found.
func (l Lookup) Decode(dst any) error {
	if !l.Found() {
		return fmt.Errorf("%w: lookup %s", domain.ErrNotFound, l.Status)
	}
	if err := json.Unmarshal(l.Value, dst); err != nil {
		return fmt.Errorf("failed to decode stored value: %w", err)
	}
	return nil
}

// MigrationResult is the outcome of MigrateIfNeeded.
type MigrationResult int

const (
	MigrationNothingToDo MigrationResult = iota
	MigrationSkippedAlreadyEncrypted
	MigrationMigratedLegacy
	MigrationMigratedInPlace
	MigrationAborted
)

// String returns the result name.
func (r MigrationResult) String() string {
	switch r {
	case MigrationSkippedAlreadyEncrypted:
		return "skipped_already_encrypted"
	case MigrationMigratedLegacy:
		return "migrated_legacy"
	case MigrationMigratedInPlace:
		return "migrated_in_place"
	case MigrationAborted:
		return "aborted"
	default:
		return "nothing_to_do"
	}
}

// MarshalText renders the result by name.
func (r MigrationResult) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Store seals values before they reach the value backend.
type Store struct {
	values ValueBackend
	keys   *KeyManager
	crypto Crypto
	logger *logrus.Logger
}

// NewStore creates a store. A nil crypto yields a store that never writes and
// reports every read as unavailable.
func NewStore(logger *logrus.Logger, values ValueBackend, keys KeyStore, crypto Crypto) *Store {
	return &Store{
		values: values,
		keys:   NewKeyManager(logger, keys, crypto),
		crypto: crypto,
		logger: logger,
	}
}

// KeyState reports where the master key lives.
func (s *Store) KeyState() KeyState {
	return s.keys.State()
}

// Set serialises value as JSON, seals it and writes the envelope under key.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	if s.crypto == nil {
		return domain.ErrUnavailable
	}

	plaintext, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value for %s: %w", key, err)
	}

	master, err := s.keys.Key(ctx)
	if err != nil {
		return err
	}
	nonce, ciphertext, err := s.crypto.Seal(master, plaintext, []byte(AAD))
	if err != nil {
		return err
	}

	if err := s.values.Set(ctx, key, Seal(nonce, ciphertext).String()); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Get reads, authenticates and decrypts the value under key. An entry that fails
// authentication is deleted so that later reads report it missing. When the master
// key could not be read the entry is left alone and the lookup is unavailable.
func (s *Store) Get(ctx context.Context, key string) Lookup {
	if s.crypto == nil {
		return Lookup{Status: LookupUnavailable, Err: domain.ErrUnavailable}
	}

	raw, found, err := s.values.Get(ctx, key)
	if err != nil {
		return Lookup{Status: LookupUnavailable, Err: fmt.Errorf("failed to read %s: %w", key, err)}
	}
	if !found {
		return Lookup{Status: LookupMissing}
	}

	env, err := ParseEnvelope(raw)
	if err != nil {
		return Lookup{Status: LookupForeign, Err: err}
	}

	master, authoritative, err := s.keys.resolve(ctx)
	if err != nil {
		return Lookup{Status: LookupUnavailable, Err: err}
	}

	plaintext, err := s.open(master, env)
	if err != nil {
		if !authoritative {
			return Lookup{Status: LookupUnavailable, Err: fmt.Errorf("%w: master key could not be read: %v", domain.ErrUnavailable, err)}
		}
		return s.purge(ctx, key, err)
	}
	return Lookup{Status: LookupFound, Value: plaintext}
}

func (s *Store) open(master []byte, env Envelope) (json.RawMessage, error) {
	nonce, ciphertext, err := env.Decode()
	if err != nil {
		return nil, err
	}
	plaintext, err := s.crypto.Open(master, nonce, ciphertext, []byte(AAD))
	if err != nil {
		return nil, err
	}
	if !json.Valid(plaintext) {
		return nil, fmt.Errorf("%w: payload is not JSON", domain.ErrCorrupt)
	}
	return json.RawMessage(plaintext), nil
}

// purge deletes an entry that failed authentication.
func (s *Store) purge(ctx context.Context, key string, cause error) Lookup {
	entry := s.logger.WithField("key", key)
	if err := s.values.Delete(ctx, key); err != nil {
		entry.WithError(err).Warn("Failed to delete corrupted entry")
	} else {
		entry.Warn("Deleted entry that failed authentication")
	}
	return Lookup{Status: LookupPurged, Err: cause}
}

// GetInto decodes the value under key into dst. It reports false without error when
// nothing usable is stored, and returns the cause when the store is unavailable.
func (s *Store) GetInto(ctx context.Context, key string, dst any) (bool, error) {
	l := s.Get(ctx, key)
	switch l.Status {
	case LookupFound:
		if err := l.Decode(dst); err != nil {
			return false, err
		}
		return true, nil
	case LookupUnavailable:
		return false, l.Err
	default:
		return false, nil
	}
}

// Remove deletes key. Deleting a missing key is not an error; a backend failure is
// returned so that callers decide explicitly whether to ignore it.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.values.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// MigrateIfNeeded encrypts plaintext left by older versions. The source is legacyKey
// when it holds an entry, else a non-envelope entry under key. A source that is not
// JSON is stored as a JSON string. The legacy entry is deleted only after the sealed
// copy was written; on any failure before that the source is left untouched and the
// result is MigrationAborted. Repeated calls are no-ops once key holds an envelope.
func (s *Store) MigrateIfNeeded(ctx context.Context, key, legacyKey string) (MigrationResult, error) {
	current, hasCurrent, err := s.values.Get(ctx, key)
	if err != nil {
		return MigrationAborted, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if hasCurrent && IsEnvelope(current) {
		return MigrationSkippedAlreadyEncrypted, nil
	}

	var (
		source    string
		sourceRaw string
	)
	if legacyKey != "" && legacyKey != key {
		raw, found, err := s.values.Get(ctx, legacyKey)
		if err != nil {
			return MigrationAborted, fmt.Errorf("failed to read %s: %w", legacyKey, err)
		}
		if found {
			source, sourceRaw = legacyKey, raw
		}
	}
	if source == "" && hasCurrent {
		source, sourceRaw = key, current
	}
	if source == "" {
		return MigrationNothingToDo, nil
	}

	var value any = sourceRaw
	if json.Valid([]byte(sourceRaw)) {
		value = json.RawMessage(sourceRaw)
	}

	if err := s.Set(ctx, key, value); err != nil {
		s.logger.WithError(err).WithField("source", source).Warn("Migration aborted, source left untouched")
		return MigrationAborted, err
	}

	if source == key {
		s.logger.WithField("key", key).Info("Encrypted plaintext entry in place")
		return MigrationMigratedInPlace, nil
	}

	s.logger.WithFields(logrus.Fields{"key": key, "legacy_key": legacyKey}).Info("Migrated legacy entry")
	if err := s.Remove(ctx, legacyKey); err != nil {
		return MigrationMigratedLegacy, fmt.Errorf("migrated but failed to remove legacy entry: %w", err)
	}
	return MigrationMigratedLegacy, nil
}

// IsUnavailable reports whether err means encryption cannot be used.
func IsUnavailable(err error) bool {
	return errors.Is(err, domain.ErrUnavailable)
}
