package domain

import "time"

// LicenseStatus is the stored status of a license. Expired is a computed
// projection of the validity window and is never persisted; only the
// explicitly-set states are written to the store.
type LicenseStatus string

const (
	LicenseActive    LicenseStatus = "active"
	LicenseExpired   LicenseStatus = "expired" // projection only, never stored
	LicenseSuspended LicenseStatus = "suspended"
	LicenseRevoked   LicenseStatus = "revoked"
	LicenseInvalid   LicenseStatus = "invalid" // tamper detected on validation
)

// Validation result diagnostics recorded on the license after each
// validation run.
const (
	ResultValid             = "Valid"
	ResultSignatureMismatch = "Signature mismatch"
	ResultExpired           = "Expired"
	ResultKeyNotFound       = "Key not found"
	ResultRevoked           = "Revoked"
	ResultSuspended         = "Suspended"
)

// License is a signed grant binding an application, a customer, a validity
// window and a feature set. The signature covers the canonical payload of
// {AppID, CustomerName, ValidFrom, ValidTo, Features} plus SigningKeyID, so
// any post-issuance mutation of those fields is detectable. Licenses are
// never deleted; status is the only field that changes after creation.
type License struct {
	ID               string // ULID
	AppID            string
	CustomerName     string
	ValidFrom        time.Time // date-granular, UTC midnight
	ValidTo          time.Time // date-granular, UTC midnight
	Features         []string
	SigningKeyID     string
	Signature        []byte
	Status           LicenseStatus
	CreatedAt        time.Time
	LastValidated    *time.Time
	ValidationResult string
}

// EffectiveStatus projects the license status at the given time. Revoked,
// Suspended and Invalid are terminal overrides; an Active license whose
// ValidTo has passed projects as Expired without any stored transition.
func (l *License) EffectiveStatus(now time.Time) LicenseStatus {
	switch l.Status {
	case LicenseRevoked, LicenseSuspended, LicenseInvalid:
		return l.Status
	}
	if DateOnly(now).After(l.ValidTo) {
		return LicenseExpired
	}
	return LicenseActive
}

// DateOnly truncates t to UTC midnight. License validity is date-granular,
// so all window comparisons go through this.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
