package cryptox

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"fmt"
)

// ErrSignatureMismatch reports that a signature did not verify against the
// given payload and public key. Callers treat this as a normal validation
// outcome, not a system fault.
var ErrSignatureMismatch = errors.New("cryptox: signature mismatch")

// Sign computes an asymmetric signature over payload using a PEM-encoded
// private key. RSA keys sign PKCS1v15 over SHA-256, ECDSA signs ASN.1 over
// SHA-256, Ed25519 signs the payload directly (the scheme hashes internally).
func Sign(privatePEM, payload []byte) ([]byte, error) {
	signer, err := ParsePrivateKey(privatePEM)
	if err != nil {
		return nil, err
	}

	switch key := signer.(type) {
	case *rsa.PrivateKey:
		digest := sha256.Sum256(payload)
		sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
		if err != nil {
			return nil, fmt.Errorf("cryptox: RSA signing failed: %w", err)
		}
		return sig, nil

	case *ecdsa.PrivateKey:
		digest := sha256.Sum256(payload)
		sig, err := ecdsa.SignASN1(rand.Reader, key, digest[:])
		if err != nil {
			return nil, fmt.Errorf("cryptox: ECDSA signing failed: %w", err)
		}
		return sig, nil

	case ed25519.PrivateKey:
		return ed25519.Sign(key, payload), nil

	default:
		return nil, fmt.Errorf("cryptox: unsupported signing key type %T", signer)
	}
}

// Verify checks signature against payload using a PEM-encoded PKIX public
// key. Returns ErrSignatureMismatch when the signature does not match and a
// descriptive error for malformed keys.
func Verify(publicPEM, payload, signature []byte) error {
	pub, err := ParsePublicKey(publicPEM)
	if err != nil {
		return err
	}

	switch key := pub.(type) {
	case *rsa.PublicKey:
		digest := sha256.Sum256(payload)
		if err := rsa.VerifyPKCS1v15(key, crypto.SHA256, digest[:], signature); err != nil {
			return ErrSignatureMismatch
		}
		return nil

	case *ecdsa.PublicKey:
		digest := sha256.Sum256(payload)
		if !ecdsa.VerifyASN1(key, digest[:], signature) {
			return ErrSignatureMismatch
		}
		return nil

	case ed25519.PublicKey:
		if !ed25519.Verify(key, payload, signature) {
			return ErrSignatureMismatch
		}
		return nil

	default:
		return fmt.Errorf("cryptox: unsupported public key type %T", pub)
	}
}
