package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lockboxlabs/licenser/internal/licenser/service"
	"github.com/lockboxlabs/licenser/pkg/cryptox"
)

// initSigningKeys configures key encryption and, when enabled, provisions
// an initial signing key so a fresh installation can issue licenses without
// a manual key generation step. Existing keys are never touched.
func initSigningKeys(ctx context.Context, cfg Config, keys *service.KeyService, logger *slog.Logger) error {
	if cfg.MasterKeyPath != "" {
		cryptox.SetMasterKeyPath(cfg.MasterKeyPath)
		logger.Info("master key path configured", "path", cfg.MasterKeyPath)
	}

	if keys.SigningKeyAvailable(ctx) {
		return nil
	}

	if !cfg.AutoProvisionKey {
		logger.Warn("no active signing key and auto-provisioning is disabled, license issuance will fail until a key is created")
		return nil
	}

	keyID, err := keys.RotateSigningKey(ctx, nil, "startup")
	if err != nil {
		return fmt.Errorf("failed to provision initial signing key: %w", err)
	}

	logger.Info("initial signing key provisioned", "key_id", keyID, "algorithm", cfg.Algorithm)
	return nil
}
