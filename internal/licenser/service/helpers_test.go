package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/lockboxlabs/licenser/internal/licenser/domain"
	"github.com/lockboxlabs/licenser/internal/licenser/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

// testEnv wires the full service stack against a throwaway database file.
// Ed25519 keeps key generation fast in tests.
type testEnv struct {
	dsn       string
	store     *sqlite.Store
	keys      *KeyService
	licenses  *LicenseService
	documents *DocumentService
	directory *DirectoryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "licenser.db")
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	keys := &KeyService{Store: st, Logger: logger, Algorithm: domain.AlgorithmEd25519}
	licenses := &LicenseService{Store: st, Keys: keys, Logger: logger, Issuer: "licenser-test"}

	return &testEnv{
		dsn:       dsn,
		store:     st,
		keys:      keys,
		licenses:  licenses,
		documents: &DocumentService{Store: st, Licenses: licenses, Logger: logger},
		directory: &DirectoryService{Store: st, Logger: logger},
	}
}

// rawDB opens a second connection to the same database file so tests can
// modify records out of band, the way an attacker with file access would.
// The fresh connection does not enable foreign key enforcement, which lets
// tests break referential integrity on purpose.
func (e *testEnv) rawDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", e.dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// seedDirectory registers the master data most tests need.
func (e *testEnv) seedDirectory(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, e.directory.RegisterApplication(ctx, "A1", "Inventory Suite", "Acme Software", "4.2"))
	require.NoError(t, e.directory.RegisterApplication(ctx, "A2", "Reporting Engine", "Acme Software", "1.0"))
	require.NoError(t, e.directory.RegisterCustomer(ctx, "C-0001", "Acme Corp", "licensing@acme.example"))
}

// issueTestLicense seeds a signing key and generates one license with a
// one-year window starting today.
func (e *testEnv) issueTestLicense(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	e.seedDirectory(t)
	require.NoError(t, e.keys.GenerateKeyPair(ctx, "sign-main", domain.KeyTypeSigning, nil, "tester"))

	id, err := e.licenses.Generate(ctx, GenerateRequest{
		AppID:        "A1",
		CustomerName: "Acme Corp",
		ValidFrom:    time.Now().UTC(),
		ValidTo:      time.Now().UTC().AddDate(1, 0, 0),
		Features:     []string{"Core", "Reports"},
	})
	require.NoError(t, err)
	return id
}
