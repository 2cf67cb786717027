package cryptox

import (
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"time"

	"golang.org/x/crypto/pkcs12"
)

// ImportedCertificate is the result of decoding a PKCS#12 container: the key
// pair re-encoded as PEM plus the certificate metadata the key record needs.
type ImportedCertificate struct {
	PrivateKeyPEM []byte // PKCS8, nil when the container held no private key
	PublicKeyPEM  []byte // PKIX public key from the certificate
	Algorithm     string
	Subject       string
	NotBefore     time.Time
	NotAfter      time.Time
}

// ImportPKCS12 decodes a PKCS#12 byte stream with the given password.
// Malformed input and wrong passwords both surface as a single decode error;
// nothing is returned partially.
func ImportPKCS12(data []byte, password string) (*ImportedCertificate, error) {
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to decode PKCS#12 container: %w", err)
	}
	if cert == nil {
		return nil, fmt.Errorf("cryptox: PKCS#12 container holds no certificate")
	}

	publicPEM, err := MarshalPublic(cert.PublicKey)
	if err != nil {
		return nil, err
	}

	imported := &ImportedCertificate{
		PublicKeyPEM: publicPEM,
		Subject:      cert.Subject.CommonName,
		NotBefore:    cert.NotBefore,
		NotAfter:     cert.NotAfter,
	}

	signer, ok := priv.(crypto.Signer)
	if !ok || signer == nil {
		return nil, fmt.Errorf("cryptox: PKCS#12 container holds no usable private key")
	}

	alg, err := KeyAlgorithm(signer)
	if err != nil {
		return nil, err
	}
	imported.Algorithm = alg

	keyBytes, err := x509.MarshalPKCS8PrivateKey(signer)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to marshal imported key: %w", err)
	}
	imported.PrivateKeyPEM = pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyBytes})

	return imported, nil
}
