package store

import (
	"context"
	"errors"
	"time"

	"github.com/lockboxlabs/licenser/internal/licenser/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for
// now) implement this. It exposes sub-repositories to keep concerns tidy
// and testable, and a transactional entry point for the operations that
// must be atomic (license generation, document release).
type Store interface {
	CryptoKeys() CryptoKeys
	Licenses() Licenses
	Documents() Documents
	Applications() Applications
	Customers() Customers

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. This is the
	// recommended way to run multi-step operations.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It exposes the same repos plus
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type CryptoKeys interface {
	// CreateKey inserts a new key record. Returns ErrAlreadyExists when the
	// key id is taken; the unique constraint is what arbitrates concurrent
	// generation races.
	CreateKey(ctx context.Context, key domain.CryptoKey) error

	// GetKey returns a key by id.
	GetKey(ctx context.Context, id string) (domain.CryptoKey, error)

	// ListKeys returns all keys ordered by creation date (newest first).
	ListKeys(ctx context.Context) ([]domain.CryptoKey, error)

	// SelectActiveSigningKey returns the signing key the deterministic
	// selection rule picks for the given day: active, type signing, not
	// expired, most recent CreatedAt, ties broken by id descending.
	SelectActiveSigningKey(ctx context.Context, today time.Time) (domain.CryptoKey, error)

	// IncrementUsage applies an atomic in-place usage count increment, so
	// concurrent signers never lose updates.
	IncrementUsage(ctx context.Context, id string) error

	// SetActive flips the active flag. Deactivating an inactive key is a
	// no-op at this level.
	SetActive(ctx context.Context, id string, active bool) error

	// DeleteKey physically removes a key record. Destructive and
	// irreversible; only the explicitly-confirmed administrative path calls
	// this.
	DeleteKey(ctx context.Context, id string) error
}

type Licenses interface {
	// CreateLicense inserts a freshly signed license record.
	CreateLicense(ctx context.Context, lic domain.License) error

	// GetLicense returns a license by id.
	GetLicense(ctx context.Context, id string) (domain.License, error)

	// ListLicenses returns all licenses ordered by creation date (newest
	// first).
	ListLicenses(ctx context.Context) ([]domain.License, error)

	// UpdateStatus sets the stored status. Only the explicitly-set states
	// (active, suspended, revoked, invalid) are ever written.
	UpdateStatus(ctx context.Context, id string, status domain.LicenseStatus) error

	// RecordValidation stamps LastValidated and ValidationResult.
	// Last-writer-wins is acceptable for these audit fields.
	RecordValidation(ctx context.Context, id string, at time.Time, result string) error
}

type Documents interface {
	// CreateDocument inserts a new header and returns its sequence-assigned
	// document number.
	CreateDocument(ctx context.Context, customerNo string, createdAt time.Time) (string, error)

	// GetDocument returns a header with its lines.
	GetDocument(ctx context.Context, no string) (domain.LicenseDocument, error)

	// ListDocuments returns all headers (without lines), newest first.
	ListDocuments(ctx context.Context) ([]domain.LicenseDocument, error)

	// SetStatus writes the stored workflow state. Release details are only
	// set on the open->released transition and cleared on reopen.
	SetStatus(ctx context.Context, no string, status domain.DocumentStatus, releasedAt *time.Time, releasedBy string) error

	// AddLine appends a line to a document.
	AddLine(ctx context.Context, line domain.LicenseDocumentLine) error

	// UpdateLine replaces the editable fields of a line and clears any
	// previously generated license id, so the next release signs it anew.
	UpdateLine(ctx context.Context, line domain.LicenseDocumentLine) error

	// DeleteLine removes a line.
	DeleteLine(ctx context.Context, docNo string, lineNo int) error

	// SetLineLicense records the license generated for a line on release.
	SetLineLicense(ctx context.Context, docNo string, lineNo int, licenseID string) error
}

type Applications interface {
	CreateApplication(ctx context.Context, app domain.Application) error
	GetApplication(ctx context.Context, id string) (domain.Application, error)
	ListApplications(ctx context.Context) ([]domain.Application, error)
}

type Customers interface {
	CreateCustomer(ctx context.Context, c domain.Customer) error
	GetCustomer(ctx context.Context, no string) (domain.Customer, error)
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
}
