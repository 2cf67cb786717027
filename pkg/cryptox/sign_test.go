package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	generators := map[string]func() ([]byte, error){
		"RSA-2048":   func() ([]byte, error) { return GenerateRSAKey(2048) },
		"ECDSA-P256": GenerateECDSAP256Key,
		"Ed25519":    GenerateEd25519Key,
	}

	for name, generate := range generators {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			privPEM, err := generate()
			require.NoError(t, err)

			pubPEM, err := MarshalPublicKey(privPEM)
			require.NoError(t, err)

			payload := []byte("the canonical payload bytes")
			sig, err := Sign(privPEM, payload)
			require.NoError(t, err)

			require.NoError(t, Verify(pubPEM, payload, sig))

			// Any payload change must break verification.
			tampered := append([]byte(nil), payload...)
			tampered[0] ^= 0x01
			require.ErrorIs(t, Verify(pubPEM, tampered, sig), ErrSignatureMismatch)

			// So must a signature from a different key.
			otherPEM, err := generate()
			require.NoError(t, err)
			otherSig, err := Sign(otherPEM, payload)
			require.NoError(t, err)
			require.ErrorIs(t, Verify(pubPEM, payload, otherSig), ErrSignatureMismatch)
		})
	}
}

func TestGenerateRSAKeyRejectsWeakSizes(t *testing.T) {
	t.Parallel()

	_, err := GenerateRSAKey(1024)
	require.Error(t, err)
}

func TestKeyAlgorithmTags(t *testing.T) {
	t.Parallel()

	privPEM, err := GenerateECDSAP256Key()
	require.NoError(t, err)

	signer, err := ParsePrivateKey(privPEM)
	require.NoError(t, err)

	alg, err := KeyAlgorithm(signer)
	require.NoError(t, err)
	require.Equal(t, "ECDSA-P256", alg)
}
