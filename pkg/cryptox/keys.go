package cryptox

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// ParsePrivateKey decodes a PEM-encoded private key. PKCS8 is the canonical
// format; PKCS1 (legacy RSA) and SEC1 (legacy EC) blocks are accepted for
// keys imported from external tooling.
func ParsePrivateKey(pemData []byte) (crypto.Signer, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, fmt.Errorf("cryptox: no PEM block found in private key data")
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, fmt.Errorf("cryptox: unsupported private key type %T", key)
		}
		return signer, nil
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	if key, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	return nil, fmt.Errorf("cryptox: failed to parse private key")
}

// ParsePublicKey decodes a PEM-encoded PKIX public key.
func ParsePublicKey(pemData []byte) (crypto.PublicKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, fmt.Errorf("cryptox: no PEM block found in public key data")
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to parse public key: %w", err)
	}

	return key, nil
}

// MarshalPublicKey extracts the public half of a PEM-encoded private key and
// returns it as PKIX PEM. This is what gets stored alongside the encrypted
// private material and handed to verifiers.
func MarshalPublicKey(privatePEM []byte) ([]byte, error) {
	signer, err := ParsePrivateKey(privatePEM)
	if err != nil {
		return nil, err
	}

	return MarshalPublic(signer.Public())
}

// MarshalPublic encodes any supported public key as PKIX PEM.
func MarshalPublic(pub crypto.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to marshal public key: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// KeyAlgorithm returns the algorithm tag for a parsed private key, matching
// the tags used on stored key records.
func KeyAlgorithm(signer crypto.Signer) (string, error) {
	switch key := signer.(type) {
	case *rsa.PrivateKey:
		return fmt.Sprintf("RSA-%d", key.N.BitLen()), nil
	case *ecdsa.PrivateKey:
		if key.Curve.Params().Name != "P-256" {
			return "", fmt.Errorf("cryptox: unsupported ECDSA curve %s", key.Curve.Params().Name)
		}
		return "ECDSA-P256", nil
	case ed25519.PrivateKey:
		return "Ed25519", nil
	default:
		return "", fmt.Errorf("cryptox: unsupported private key type %T", signer)
	}
}
