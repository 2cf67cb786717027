package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptPrivateKey(t *testing.T) {
	t.Setenv("LICENSER_MASTER_KEY", "test-master-key-material")
	ResetMasterKeyForTesting()
	t.Cleanup(ResetMasterKeyForTesting)

	privPEM, err := GenerateEd25519Key()
	require.NoError(t, err)

	encrypted, err := EncryptPrivateKey(privPEM)
	require.NoError(t, err)
	require.NotEqual(t, privPEM, encrypted)

	decrypted, err := DecryptPrivateKey(encrypted)
	require.NoError(t, err)
	require.Equal(t, privPEM, decrypted)
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	t.Setenv("LICENSER_MASTER_KEY", "test-master-key-material")
	ResetMasterKeyForTesting()
	t.Cleanup(ResetMasterKeyForTesting)

	encrypted, err := EncryptPrivateKey([]byte("secret PEM"))
	require.NoError(t, err)

	encrypted[len(encrypted)-1] ^= 0x01
	_, err = DecryptPrivateKey(encrypted)
	require.Error(t, err)
}

func TestDecryptRejectsShortCiphertext(t *testing.T) {
	t.Setenv("LICENSER_MASTER_KEY", "test-master-key-material")
	ResetMasterKeyForTesting()
	t.Cleanup(ResetMasterKeyForTesting)

	_, err := DecryptPrivateKey([]byte{0x01, 0x02})
	require.Error(t, err)
}
