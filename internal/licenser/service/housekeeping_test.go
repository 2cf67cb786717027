package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/lockboxlabs/licenser/internal/licenser/domain"
	"github.com/stretchr/testify/require"
)

func TestSweepDeactivatesExpiredKeys(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	require.NoError(t, env.keys.GenerateKeyPair(ctx, "lapsed", domain.KeyTypeSigning, &yesterday, "tester"))
	require.NoError(t, env.keys.GenerateKeyPair(ctx, "current", domain.KeyTypeSigning, nil, "tester"))

	hk := NewHousekeepingService(env.store, env.keys, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Hour)
	hk.sweep()

	lapsed, err := env.store.CryptoKeys().GetKey(ctx, "lapsed")
	require.NoError(t, err)
	require.False(t, lapsed.Active)

	current, err := env.store.CryptoKeys().GetKey(ctx, "current")
	require.NoError(t, err)
	require.True(t, current.Active)
}

func TestHousekeepingStartStop(t *testing.T) {
	env := newTestEnv(t)

	hk := NewHousekeepingService(env.store, env.keys, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Hour)
	hk.Start()
	hk.Stop()
}
