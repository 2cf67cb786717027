package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/lockboxlabs/licenser/internal/licenser/domain"
	"github.com/lockboxlabs/licenser/internal/licenser/store"
)

type cryptoKeysRepo struct {
	db dbtx
}

const cryptoKeyColumns = `id, type, algorithm, public_key_pem, private_key_encrypted,
	active, expires_at, usage_count, created_at, created_by`

func (r *cryptoKeysRepo) CreateKey(ctx context.Context, key domain.CryptoKey) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO crypto_keys (`+cryptoKeyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		key.ID, string(key.Type), key.Algorithm, key.PublicKeyPEM, key.PrivateKeyEncrypted,
		key.Active, optionalTime(key.ExpiresAt), key.UsageCount, key.CreatedAt, key.CreatedBy,
	)
	return mapConstraint(err)
}

func (r *cryptoKeysRepo) GetKey(ctx context.Context, id string) (domain.CryptoKey, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+cryptoKeyColumns+` FROM crypto_keys WHERE id = ?`, id)
	return scanCryptoKey(row)
}

func (r *cryptoKeysRepo) ListKeys(ctx context.Context) ([]domain.CryptoKey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+cryptoKeyColumns+` FROM crypto_keys
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []domain.CryptoKey
	for rows.Next() {
		key, err := scanCryptoKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// SelectActiveSigningKey implements the deterministic selection rule in SQL:
// signing keys only, active, not past expiry on the given day, newest
// CreatedAt first with the key id as tie-breaker.
func (r *cryptoKeysRepo) SelectActiveSigningKey(ctx context.Context, today time.Time) (domain.CryptoKey, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+cryptoKeyColumns+` FROM crypto_keys
		WHERE type = ? AND active = 1 AND (expires_at IS NULL OR expires_at >= ?)
		ORDER BY created_at DESC, id DESC
		LIMIT 1`,
		string(domain.KeyTypeSigning), domain.DateOnly(today),
	)
	return scanCryptoKey(row)
}

func (r *cryptoKeysRepo) IncrementUsage(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE crypto_keys SET usage_count = usage_count + 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *cryptoKeysRepo) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE crypto_keys SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *cryptoKeysRepo) DeleteKey(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM crypto_keys WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCryptoKey(row rowScanner) (domain.CryptoKey, error) {
	var (
		key       domain.CryptoKey
		keyType   string
		expiresAt sql.NullTime
	)
	err := row.Scan(
		&key.ID, &keyType, &key.Algorithm, &key.PublicKeyPEM, &key.PrivateKeyEncrypted,
		&key.Active, &expiresAt, &key.UsageCount, &key.CreatedAt, &key.CreatedBy,
	)
	if err != nil {
		return domain.CryptoKey{}, mapNotFound(err)
	}

	key.Type = domain.KeyType(keyType)
	if expiresAt.Valid {
		t := expiresAt.Time
		key.ExpiresAt = &t
	}
	return key, nil
}

func optionalTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
