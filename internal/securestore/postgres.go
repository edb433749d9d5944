package securestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Namespaces of the shared Postgres table
const (
	NamespaceValues = "values"
	NamespaceKeys   = "keys"
)

// PostgresBackend stores entries in the secure_entries table created by the database
// migrations. The namespace column keeps key material apart from sealed values.
type PostgresBackend struct {
	db        *sql.DB
	namespace string
}

// NewPostgresBackend wraps an open connection for one namespace.
func NewPostgresBackend(db *sql.DB, namespace string) (*PostgresBackend, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if namespace == "" {
		return nil, fmt.Errorf("namespace is required")
	}
	return &PostgresBackend{db: db, namespace: namespace}, nil
}

func (p *PostgresBackend) get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := p.db.QueryRowContext(ctx,
		"SELECT value FROM secure_entries WHERE namespace = $1 AND key = $2",
		p.namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read entry: %w", err)
	}
	return value, true, nil
}

func (p *PostgresBackend) put(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO secure_entries (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (namespace, key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := p.db.ExecContext(ctx, query, p.namespace, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}
	return nil
}

// Get implements ValueBackend.
func (p *PostgresBackend) Get(ctx context.Context, key string) (string, bool, error) {
	v, found, err := p.get(ctx, key)
	return string(v), found, err
}

// Set implements ValueBackend.
func (p *PostgresBackend) Set(ctx context.Context, key, value string) error {
	return p.put(ctx, key, []byte(value))
}

// Delete implements ValueBackend.
func (p *PostgresBackend) Delete(ctx context.Context, key string) error {
	_, err := p.db.ExecContext(ctx,
		"DELETE FROM secure_entries WHERE namespace = $1 AND key = $2",
		p.namespace, key,
	)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

// LoadKey implements KeyStore.
func (p *PostgresBackend) LoadKey(ctx context.Context, id string) ([]byte, bool, error) {
	return p.get(ctx, id)
}

// SaveKey implements KeyStore.
func (p *PostgresBackend) SaveKey(ctx context.Context, id string, material []byte) error {
	return p.put(ctx, id, material)
}
