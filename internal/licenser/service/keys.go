package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lockboxlabs/licenser/internal/licenser/domain"
	"github.com/lockboxlabs/licenser/internal/licenser/metrics"
	"github.com/lockboxlabs/licenser/internal/licenser/store"
	"github.com/lockboxlabs/licenser/pkg/cryptox"
)

// KeyService owns the lifecycle of asymmetric key pairs and imported
// certificates: generation, import, activation state, expiry, usage
// counting, and the deterministic selection of the current signing key.
//
// There is no hidden "current key" state anywhere; selection is a pure
// query over the key store, so concurrent signers and restarts always
// agree on the same key.
type KeyService struct {
	Store     store.Store
	Logger    *slog.Logger
	Algorithm string // default algorithm for generated pairs, e.g. "RSA-2048"
}

// GenerateKeyPair generates a fresh asymmetric key pair under the given
// identifier. The private half is encrypted at rest; the record starts
// active. A taken key id fails with ErrDuplicateKey and never touches the
// existing record.
func (s *KeyService) GenerateKeyPair(ctx context.Context, keyID string, keyType domain.KeyType, expiresAt *time.Time, createdBy string) error {
	if keyID == "" {
		return invalidInput("keyId", "must not be empty")
	}
	if !domain.ValidKeyType(keyType) {
		return invalidInput("keyType", fmt.Sprintf("unknown key type %q", keyType))
	}

	algorithm := s.Algorithm
	if algorithm == "" {
		algorithm = domain.AlgorithmRSA2048
	}

	privatePEM, err := generatePrivateKey(algorithm)
	if err != nil {
		return err
	}

	publicPEM, err := cryptox.MarshalPublicKey(privatePEM)
	if err != nil {
		return err
	}

	encrypted, err := cryptox.EncryptPrivateKey(privatePEM)
	if err != nil {
		return fmt.Errorf("failed to encrypt private key: %w", err)
	}

	key := domain.CryptoKey{
		ID:                  keyID,
		Type:                keyType,
		Algorithm:           algorithm,
		PublicKeyPEM:        publicPEM,
		PrivateKeyEncrypted: encrypted,
		Active:              true,
		ExpiresAt:           normalizeExpiry(expiresAt),
		CreatedAt:           time.Now().UTC(),
		CreatedBy:           createdBy,
	}

	if err := s.Store.CryptoKeys().CreateKey(ctx, key); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return ErrDuplicateKey
		}
		return err
	}

	metrics.KeysGenerated.Inc()
	s.Logger.Info("key pair generated", "key_id", keyID, "type", keyType, "algorithm", algorithm)
	return nil
}

// ImportCertificate parses a PKCS#12 container, re-encodes the key pair and
// stores it as a certificate-type key. The record's expiry comes from the
// certificate validity period. Nothing is stored on failure.
func (s *KeyService) ImportCertificate(ctx context.Context, p12 []byte, password, createdBy string) (string, error) {
	imported, err := cryptox.ImportPKCS12(p12, password)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCertificate, err)
	}

	encrypted, err := cryptox.EncryptPrivateKey(imported.PrivateKeyPEM)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt imported key: %w", err)
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", fmt.Errorf("failed to generate key id: %w", err)
	}
	keyID := "cert-" + token

	notAfter := imported.NotAfter.UTC()
	key := domain.CryptoKey{
		ID:                  keyID,
		Type:                domain.KeyTypeCertificate,
		Algorithm:           imported.Algorithm,
		PublicKeyPEM:        imported.PublicKeyPEM,
		PrivateKeyEncrypted: encrypted,
		Active:              true,
		ExpiresAt:           &notAfter,
		CreatedAt:           time.Now().UTC(),
		CreatedBy:           createdBy,
	}

	if err := s.Store.CryptoKeys().CreateKey(ctx, key); err != nil {
		return "", err
	}

	metrics.CertificatesImported.Inc()
	s.Logger.Info("certificate imported", "key_id", keyID, "subject", imported.Subject,
		"algorithm", imported.Algorithm, "expires_at", notAfter)
	return keyID, nil
}

// ActiveSigningKey returns the signing key the selection rule picks right
// now and counts the use. Selection is deterministic for an unchanged key
// set: most recent CreatedAt wins, ties broken by key id descending.
func (s *KeyService) ActiveSigningKey(ctx context.Context) (domain.CryptoKey, error) {
	return s.ActiveSigningKeyIn(ctx, s.Store)
}

// ActiveSigningKeyIn is ActiveSigningKey against an explicit store, so
// license generation can run key selection inside its own transaction.
func (s *KeyService) ActiveSigningKeyIn(ctx context.Context, st store.Store) (domain.CryptoKey, error) {
	key, err := st.CryptoKeys().SelectActiveSigningKey(ctx, time.Now().UTC())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.CryptoKey{}, ErrNoActiveSigningKey
		}
		return domain.CryptoKey{}, err
	}

	// The increment is an atomic in-place update at the store level, so
	// concurrent signers never lose counts.
	if err := st.CryptoKeys().IncrementUsage(ctx, key.ID); err != nil {
		return domain.CryptoKey{}, err
	}
	key.UsageCount++

	return key, nil
}

// SigningKeyAvailable reports whether ActiveSigningKey would succeed,
// without the usage-count side effect.
func (s *KeyService) SigningKeyAvailable(ctx context.Context) bool {
	_, err := s.Store.CryptoKeys().SelectActiveSigningKey(ctx, time.Now().UTC())
	return err == nil
}

// SigningMaterial decrypts and returns the key's private PEM. The result
// stays in memory only for the duration of a signing operation.
func (s *KeyService) SigningMaterial(key domain.CryptoKey) ([]byte, error) {
	if len(key.PrivateKeyEncrypted) == 0 {
		return nil, fmt.Errorf("key %s holds no private material", key.ID)
	}
	return cryptox.DecryptPrivateKey(key.PrivateKeyEncrypted)
}

// Key returns one key record by id.
func (s *KeyService) Key(ctx context.Context, keyID string) (domain.CryptoKey, error) {
	key, err := s.Store.CryptoKeys().GetKey(ctx, keyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.CryptoKey{}, ErrKeyNotFound
		}
		return domain.CryptoKey{}, err
	}
	return key, nil
}

// PublicKey returns the PEM-encoded public key for a key id.
func (s *KeyService) PublicKey(ctx context.Context, keyID string) ([]byte, error) {
	return s.PublicKeyIn(ctx, s.Store, keyID)
}

// PublicKeyIn is PublicKey against an explicit store.
func (s *KeyService) PublicKeyIn(ctx context.Context, st store.Store, keyID string) ([]byte, error) {
	key, err := st.CryptoKeys().GetKey(ctx, keyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return key.PublicKeyPEM, nil
}

// DeactivateKey soft-disables a key. Idempotent: deactivating an inactive
// key is a no-op success. Keys are never reactivated automatically.
func (s *KeyService) DeactivateKey(ctx context.Context, keyID string) error {
	key, err := s.Store.CryptoKeys().GetKey(ctx, keyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrKeyNotFound
		}
		return err
	}

	if !key.Active {
		return nil
	}

	if err := s.Store.CryptoKeys().SetActive(ctx, keyID, false); err != nil {
		return err
	}
	s.Logger.Info("key deactivated", "key_id", keyID)
	return nil
}

// RotateSigningKey generates a fresh signing key and deactivates all other
// active signing keys in one transaction. Returns the new key id.
func (s *KeyService) RotateSigningKey(ctx context.Context, expiresAt *time.Time, actor string) (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", fmt.Errorf("failed to generate key id: %w", err)
	}
	keyID := "sign-" + token

	algorithm := s.Algorithm
	if algorithm == "" {
		algorithm = domain.AlgorithmRSA2048
	}

	privatePEM, err := generatePrivateKey(algorithm)
	if err != nil {
		return "", err
	}
	publicPEM, err := cryptox.MarshalPublicKey(privatePEM)
	if err != nil {
		return "", err
	}
	encrypted, err := cryptox.EncryptPrivateKey(privatePEM)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt private key: %w", err)
	}

	newKey := domain.CryptoKey{
		ID:                  keyID,
		Type:                domain.KeyTypeSigning,
		Algorithm:           algorithm,
		PublicKeyPEM:        publicPEM,
		PrivateKeyEncrypted: encrypted,
		Active:              true,
		ExpiresAt:           normalizeExpiry(expiresAt),
		CreatedAt:           time.Now().UTC(),
		CreatedBy:           actor,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.CryptoKeys().CreateKey(ctx, newKey); err != nil {
			return err
		}

		keys, err := tx.CryptoKeys().ListKeys(ctx)
		if err != nil {
			return err
		}
		for _, key := range keys {
			if key.ID == keyID || key.Type != domain.KeyTypeSigning || !key.Active {
				continue
			}
			if err := tx.CryptoKeys().SetActive(ctx, key.ID, false); err != nil {
				return fmt.Errorf("failed to deactivate key %s: %w", key.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	metrics.KeysGenerated.Inc()
	s.Logger.Info("signing key rotated", "key_id", keyID, "actor", actor)
	return keyID, nil
}

// ListKeys returns all key records, newest first. Private material stays
// encrypted in the returned records and is stripped by the handlers.
func (s *KeyService) ListKeys(ctx context.Context) ([]domain.CryptoKey, error) {
	return s.Store.CryptoKeys().ListKeys(ctx)
}

// DeleteKey physically removes a key record. This breaks validation of
// every license signed with the key, so it requires explicit confirmation
// and is logged loudly.
func (s *KeyService) DeleteKey(ctx context.Context, keyID string, confirm bool) error {
	if !confirm {
		return invalidInput("confirm", "physical key deletion requires explicit confirmation")
	}

	if err := s.Store.CryptoKeys().DeleteKey(ctx, keyID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrKeyNotFound
		}
		return err
	}

	s.Logger.Warn("key physically deleted, licenses signed with it can no longer be validated",
		"key_id", keyID)
	return nil
}

func generatePrivateKey(algorithm string) ([]byte, error) {
	switch algorithm {
	case domain.AlgorithmRSA2048:
		return cryptox.GenerateRSAKey(2048)
	case domain.AlgorithmRSA4096:
		return cryptox.GenerateRSAKey(4096)
	case domain.AlgorithmECDSAP256:
		return cryptox.GenerateECDSAP256Key()
	case domain.AlgorithmEd25519:
		return cryptox.GenerateEd25519Key()
	default:
		return nil, fmt.Errorf("unsupported algorithm: %s", algorithm)
	}
}

func normalizeExpiry(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	day := domain.DateOnly(*t)
	return &day
}
