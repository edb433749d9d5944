package securestore

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/neuroscope-selfcheck/internal/domain"
)

// BreakerBackend guards a remote backend with a circuit breaker. While the breaker is
// open every call fails fast with a transient error instead of waiting on the network.
type BreakerBackend struct {
	values  ValueBackend
	keys    KeyStore
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerBackend wraps values and, optionally, keys behind one breaker.
func NewBreakerBackend(logger *logrus.Logger, name string, cfg domain.BreakerConfig, values ValueBackend, keys KeyStore) *BreakerBackend {
	maxRequests := cfg.MaxRequests
	if maxRequests == 0 {
		maxRequests = 3
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	failures := cfg.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: maxRequests,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker changed state")
		},
	})

	return &BreakerBackend{values: values, keys: keys, breaker: breaker}
}

// State returns the breaker state.
func (b *BreakerBackend) State() gobreaker.State {
	return b.breaker.State()
}

type lookupResult struct {
	value []byte
	found bool
}

func (b *BreakerBackend) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.breaker.Execute(fn)
	if err != nil {
		return nil, fmt.Errorf("%s backend: %w", b.breaker.Name(), err)
	}
	return result, nil
}

// Get implements ValueBackend.
func (b *BreakerBackend) Get(ctx context.Context, key string) (string, bool, error) {
	result, err := b.execute(func() (interface{}, error) {
		v, found, err := b.values.Get(ctx, key)
		return lookupResult{value: []byte(v), found: found}, err
	})
	if err != nil {
		return "", false, err
	}
	r := result.(lookupResult)
	return string(r.value), r.found, nil
}

// Set implements ValueBackend.
func (b *BreakerBackend) Set(ctx context.Context, key, value string) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.values.Set(ctx, key, value)
	})
	return err
}

// Delete implements ValueBackend.
func (b *BreakerBackend) Delete(ctx context.Context, key string) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.values.Delete(ctx, key)
	})
	return err
}

// LoadKey implements KeyStore.
func (b *BreakerBackend) LoadKey(ctx context.Context, id string) ([]byte, bool, error) {
	if b.keys == nil {
		return nil, false, fmt.Errorf("%s backend has no key store", b.breaker.Name())
	}
	result, err := b.execute(func() (interface{}, error) {
		v, found, err := b.keys.LoadKey(ctx, id)
		return lookupResult{value: v, found: found}, err
	})
	if err != nil {
		return nil, false, err
	}
	r := result.(lookupResult)
	return r.value, r.found, nil
}

// SaveKey implements KeyStore.
func (b *BreakerBackend) SaveKey(ctx context.Context, id string, material []byte) error {
	if b.keys == nil {
		return fmt.Errorf("%s backend has no key store", b.breaker.Name())
	}
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.keys.SaveKey(ctx, id, material)
	})
	return err
}
