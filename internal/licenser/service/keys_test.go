package service

import (
	"context"
	"testing"
	"time"

	"github.com/lockboxlabs/licenser/internal/licenser/domain"
	"github.com/lockboxlabs/licenser/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeyPairStoresUsableKey(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.keys.GenerateKeyPair(ctx, "sign-main", domain.KeyTypeSigning, nil, "tester"))

	key, err := env.store.CryptoKeys().GetKey(ctx, "sign-main")
	require.NoError(t, err)
	require.Equal(t, domain.KeyTypeSigning, key.Type)
	require.Equal(t, domain.AlgorithmEd25519, key.Algorithm)
	require.True(t, key.Active)
	require.NotEmpty(t, key.PublicKeyPEM)
	require.NotEmpty(t, key.PrivateKeyEncrypted)
	require.EqualValues(t, 0, key.UsageCount)

	// The private half is never stored as plaintext PEM.
	require.NotContains(t, string(key.PrivateKeyEncrypted), "PRIVATE KEY")

	// Decrypted material signs, and the stored public half verifies.
	privPEM, err := env.keys.SigningMaterial(key)
	require.NoError(t, err)
	sig, err := cryptox.Sign(privPEM, []byte("payload"))
	require.NoError(t, err)
	require.NoError(t, cryptox.Verify(key.PublicKeyPEM, []byte("payload"), sig))
}

func TestGenerateKeyPairRejectsDuplicateID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.keys.GenerateKeyPair(ctx, "sign-main", domain.KeyTypeSigning, nil, "tester"))

	before, err := env.store.CryptoKeys().GetKey(ctx, "sign-main")
	require.NoError(t, err)

	err = env.keys.GenerateKeyPair(ctx, "sign-main", domain.KeyTypeSigning, nil, "intruder")
	require.ErrorIs(t, err, ErrDuplicateKey)

	// The original record survives untouched.
	after, err := env.store.CryptoKeys().GetKey(ctx, "sign-main")
	require.NoError(t, err)
	require.Equal(t, before.PublicKeyPEM, after.PublicKeyPEM)
	require.Equal(t, before.PrivateKeyEncrypted, after.PrivateKeyEncrypted)
	require.Equal(t, "tester", after.CreatedBy)
}

func TestGenerateKeyPairValidatesInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var invalid *InvalidInputError
	require.ErrorAs(t, env.keys.GenerateKeyPair(ctx, "", domain.KeyTypeSigning, nil, ""), &invalid)
	require.ErrorAs(t, env.keys.GenerateKeyPair(ctx, "k", domain.KeyType("banana"), nil, ""), &invalid)
}

func TestActiveSigningKeySelectionIsDeterministic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	insert := func(id string, createdAt time.Time) {
		key := domain.CryptoKey{
			ID:           id,
			Type:         domain.KeyTypeSigning,
			Algorithm:    domain.AlgorithmEd25519,
			PublicKeyPEM: []byte("pem"),
			Active:       true,
			CreatedAt:    createdAt,
		}
		require.NoError(t, env.store.CryptoKeys().CreateKey(ctx, key))
	}

	insert("older", base)
	insert("newer", base.Add(time.Hour))
	insert("tie-a", base.Add(2*time.Hour))
	insert("tie-b", base.Add(2*time.Hour))

	// Most recent CreatedAt wins, ties broken by id descending. Repeated
	// selection over an unchanged key set always agrees.
	for i := 0; i < 3; i++ {
		key, err := env.keys.ActiveSigningKey(ctx)
		require.NoError(t, err)
		require.Equal(t, "tie-b", key.ID)
	}
}

func TestActiveSigningKeySkipsExpiredAndInactive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	require.NoError(t, env.store.CryptoKeys().CreateKey(ctx, domain.CryptoKey{
		ID:           "expired",
		Type:         domain.KeyTypeSigning,
		Algorithm:    domain.AlgorithmEd25519,
		PublicKeyPEM: []byte("pem"),
		Active:       true,
		ExpiresAt:    &yesterday,
		CreatedAt:    time.Now().UTC(),
	}))
	require.NoError(t, env.store.CryptoKeys().CreateKey(ctx, domain.CryptoKey{
		ID:           "disabled",
		Type:         domain.KeyTypeSigning,
		Algorithm:    domain.AlgorithmEd25519,
		PublicKeyPEM: []byte("pem"),
		Active:       false,
		CreatedAt:    time.Now().UTC(),
	}))

	_, err := env.keys.ActiveSigningKey(ctx)
	require.ErrorIs(t, err, ErrNoActiveSigningKey)
	require.False(t, env.keys.SigningKeyAvailable(ctx))
}

func TestActiveSigningKeyExpiryDayIsInclusive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	today := domain.DateOnly(time.Now().UTC())
	require.NoError(t, env.keys.GenerateKeyPair(ctx, "expires-today", domain.KeyTypeSigning, &today, "tester"))

	key, err := env.keys.ActiveSigningKey(ctx)
	require.NoError(t, err)
	require.Equal(t, "expires-today", key.ID)
}

func TestActiveSigningKeyCountsUsage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.keys.GenerateKeyPair(ctx, "sign-main", domain.KeyTypeSigning, nil, "tester"))

	for i := 1; i <= 3; i++ {
		key, err := env.keys.ActiveSigningKey(ctx)
		require.NoError(t, err)
		require.EqualValues(t, i, key.UsageCount)
	}

	stored, err := env.store.CryptoKeys().GetKey(ctx, "sign-main")
	require.NoError(t, err)
	require.EqualValues(t, 3, stored.UsageCount)
}

func TestDeactivateKeyIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.keys.GenerateKeyPair(ctx, "sign-main", domain.KeyTypeSigning, nil, "tester"))
	require.NoError(t, env.keys.DeactivateKey(ctx, "sign-main"))
	require.NoError(t, env.keys.DeactivateKey(ctx, "sign-main"))

	require.ErrorIs(t, env.keys.DeactivateKey(ctx, "ghost"), ErrKeyNotFound)

	_, err := env.keys.ActiveSigningKey(ctx)
	require.ErrorIs(t, err, ErrNoActiveSigningKey)
}

func TestRotateSigningKeyRetiresPredecessors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.keys.GenerateKeyPair(ctx, "sign-old", domain.KeyTypeSigning, nil, "tester"))

	newID, err := env.keys.RotateSigningKey(ctx, nil, "rotator")
	require.NoError(t, err)
	require.NotEqual(t, "sign-old", newID)

	old, err := env.store.CryptoKeys().GetKey(ctx, "sign-old")
	require.NoError(t, err)
	require.False(t, old.Active)

	selected, err := env.keys.ActiveSigningKey(ctx)
	require.NoError(t, err)
	require.Equal(t, newID, selected.ID)
}

func TestDeleteKeyRequiresConfirmation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.keys.GenerateKeyPair(ctx, "sign-main", domain.KeyTypeSigning, nil, "tester"))

	var invalid *InvalidInputError
	require.ErrorAs(t, env.keys.DeleteKey(ctx, "sign-main", false), &invalid)

	_, err := env.store.CryptoKeys().GetKey(ctx, "sign-main")
	require.NoError(t, err)

	require.NoError(t, env.keys.DeleteKey(ctx, "sign-main", true))
	_, err = env.keys.PublicKey(ctx, "sign-main")
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.ErrorIs(t, env.keys.DeleteKey(ctx, "sign-main", true), ErrKeyNotFound)
}
