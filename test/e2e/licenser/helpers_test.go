package licenser_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"

	httpapi "github.com/lockboxlabs/licenser/internal/licenser/http"
	"github.com/lockboxlabs/licenser/internal/licenser/service"
	"github.com/lockboxlabs/licenser/internal/licenser/store/drivers/sqlite"
	"github.com/lockboxlabs/licenser/pkg/licsdk"
	"github.com/stretchr/testify/require"
)

// setupService wires the full HTTP stack against a throwaway database and
// serves it from an in-process test server.
func setupService(t *testing.T) *licsdk.Client {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "licenser.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	keys := &service.KeyService{Store: st, Logger: logger, Algorithm: "Ed25519"}
	licenses := &service.LicenseService{Store: st, Keys: keys, Logger: logger, Issuer: "licenser"}
	documents := &service.DocumentService{Store: st, Licenses: licenses, Logger: logger}
	directory := &service.DirectoryService{Store: st, Logger: logger}

	router := httpapi.NewRouter("test", st, logger)
	router.KeyService = keys
	router.LicenseService = licenses
	router.DocumentService = documents
	router.DirectoryService = directory
	router.ApplyRoutes()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return licsdk.NewClient(server.URL)
}

// seedMasterData registers the application and customer records used by
// the flow tests, plus an initial signing key.
func seedMasterData(t *testing.T, client *licsdk.Client) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, client.RegisterApplication(ctx, licsdk.RegisterApplicationRequest{
		AppID:     "A1",
		Name:      "Inventory Suite",
		Publisher: "Acme Software",
		Version:   "4.2",
	}))
	require.NoError(t, client.RegisterCustomer(ctx, licsdk.RegisterCustomerRequest{
		CustomerNo: "C-0001",
		Name:       "Acme Corp",
		Contact:    "licensing@acme.example",
	}))
	require.NoError(t, client.GenerateKey(ctx, licsdk.GenerateKeyRequest{
		KeyID: "sign-main",
		Type:  "signing",
	}))
}
