package domain

import "time"

// KeyType classifies stored key records.
type KeyType string

const (
	KeyTypeSigning     KeyType = "signing"
	KeyTypeValidation  KeyType = "validation"
	KeyTypeMaster      KeyType = "master"
	KeyTypeCertificate KeyType = "certificate"
)

// Supported key algorithm tags. These match what pkg/cryptox reports for
// parsed keys.
const (
	AlgorithmRSA2048   = "RSA-2048"
	AlgorithmRSA4096   = "RSA-4096"
	AlgorithmECDSAP256 = "ECDSA-P256"
	AlgorithmEd25519   = "Ed25519"
)

// ValidKeyType reports whether t is one of the known key types.
func ValidKeyType(t KeyType) bool {
	switch t {
	case KeyTypeSigning, KeyTypeValidation, KeyTypeMaster, KeyTypeCertificate:
		return true
	}
	return false
}

// CryptoKey is a stored asymmetric key pair or imported certificate.
// Records are immutable once created except for Active and UsageCount;
// deactivation is a soft-disable and keys are never silently deleted, since
// existing licenses reference them for verification.
type CryptoKey struct {
	ID                  string // caller-supplied key identifier, unique
	Type                KeyType
	Algorithm           string // "RSA-2048", "RSA-4096", "ECDSA-P256", "Ed25519"
	PublicKeyPEM        []byte
	PrivateKeyEncrypted []byte // AES-256-GCM encrypted PEM, nil for validation-only keys
	Active              bool
	ExpiresAt           *time.Time // nil = never expires
	UsageCount          int64      // incremented on every signing use
	CreatedAt           time.Time
	CreatedBy           string
}

// Usable reports whether the key may be selected for signing at the given
// time: it must be active and not past its expiry date.
func (k *CryptoKey) Usable(now time.Time) bool {
	if !k.Active {
		return false
	}
	if k.ExpiresAt == nil {
		return true
	}
	return !k.ExpiresAt.Before(DateOnly(now))
}
