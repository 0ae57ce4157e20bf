package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ghostwriterd/internal/core"
)

const keySchema = `
CREATE TABLE IF NOT EXISTS api_keys (
	id TEXT PRIMARY KEY,
	provider TEXT NOT NULL,
	key_name TEXT NOT NULL,
	sealed_value BLOB NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_api_keys_provider ON api_keys(provider);
`

// KeyInfo is the metadata of a stored credential. Plaintext never appears
// in listings.
type KeyInfo struct {
	ID        string    `json:"id"`
	Provider  string    `json:"provider"`
	KeyName   string    `json:"keyName"`
	CreatedAt time.Time `json:"createdAt"`
}

// Key is a retrieved credential including its unsealed value.
type Key struct {
	KeyInfo
	Value string `json:"keyValue"`
}

// KeyStore persists sealed credentials in the shared embedded database.
type KeyStore struct {
	db     *sql.DB
	sealer Sealer
	now    func() time.Time
}

// NewKeyStore bootstraps the key table. The sealer decides whether the
// vault is usable; an unavailable sealer keeps listings working but rejects
// store and retrieve.
func NewKeyStore(db *sql.DB, sealer Sealer) (*KeyStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if sealer == nil {
		return nil, fmt.Errorf("sealer is required")
	}
	if _, err := db.Exec(keySchema); err != nil {
		return nil, fmt.Errorf("failed to create api_keys table: %w", err)
	}
	return &KeyStore{db: db, sealer: sealer, now: time.Now}, nil
}

// Available reports whether credentials can be sealed in this session.
func (s *KeyStore) Available() bool {
	return s.sealer.Available()
}

// StoreKey seals and persists a credential, returning its generated id.
func (s *KeyStore) StoreKey(ctx context.Context, provider, keyName, keyValue string) (string, error) {
	if strings.TrimSpace(provider) == "" {
		return "", core.NewValidationError("provider is required")
	}
	if strings.TrimSpace(keyName) == "" {
		return "", core.NewValidationError("key name is required")
	}
	if keyValue == "" {
		return "", core.NewValidationError("key value is required")
	}
	if !s.sealer.Available() {
		return "", core.NewStoreUnavailableError("encryption is not available", ErrSealerUnavailable)
	}

	sealed, err := s.sealer.Seal([]byte(keyValue))
	if err != nil {
		return "", core.NewInternalError("failed to seal key", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO api_keys (id, provider, key_name, sealed_value, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, provider, keyName, sealed, s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", core.NewStoreUnavailableError("failed to store key", err)
	}
	return id, nil
}

// RetrieveKey loads and unseals one credential by id.
func (s *KeyStore) RetrieveKey(ctx context.Context, id string) (*Key, error) {
	if strings.TrimSpace(id) == "" {
		return nil, core.NewValidationError("key id is required")
	}
	if !s.sealer.Available() {
		return nil, core.NewStoreUnavailableError("encryption is not available", ErrSealerUnavailable)
	}

	var (
		key       Key
		sealed    []byte
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, provider, key_name, sealed_value, created_at FROM api_keys WHERE id = ?`, id,
	).Scan(&key.ID, &key.Provider, &key.KeyName, &sealed, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewNotFoundError("key not found")
	}
	if err != nil {
		return nil, core.NewStoreUnavailableError("failed to load key", err)
	}

	plaintext, err := s.sealer.Unseal(sealed)
	if err != nil {
		return nil, core.NewInternalError("failed to unseal key", err)
	}
	key.Value = string(plaintext)
	key.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &key, nil
}

// ListKeys returns metadata for all stored credentials, newest first.
func (s *KeyStore) ListKeys(ctx context.Context) ([]KeyInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, provider, key_name, created_at FROM api_keys ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, core.NewStoreUnavailableError("failed to list keys", err)
	}
	defer rows.Close()

	keys := make([]KeyInfo, 0)
	for rows.Next() {
		var (
			info      KeyInfo
			createdAt string
		)
		if err := rows.Scan(&info.ID, &info.Provider, &info.KeyName, &createdAt); err != nil {
			return nil, core.NewStoreUnavailableError("failed to scan key row", err)
		}
		info.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		keys = append(keys, info)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewStoreUnavailableError("error iterating key rows", err)
	}
	return keys, nil
}

// DeleteKey removes one credential by id.
func (s *KeyStore) DeleteKey(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return core.NewValidationError("key id is required")
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = ?`, id)
	if err != nil {
		return core.NewStoreUnavailableError("failed to delete key", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.NewNotFoundError("key not found")
	}
	return nil
}
