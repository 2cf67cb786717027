package licfile

import (
	"strings"
	"testing"
	"time"

	"github.com/lockboxlabs/licenser/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestFileRoundTrip(t *testing.T) {
	t.Parallel()

	privPEM, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	pubPEM, err := cryptox.MarshalPublicKey(privPEM)
	require.NoError(t, err)

	fields := sampleFields()
	payload, err := EncodePayload(fields)
	require.NoError(t, err)
	sig, err := cryptox.Sign(privPEM, payload)
	require.NoError(t, err)

	file := &File{LicenseID: "01TESTLICENSE", Fields: fields, Signature: sig}
	data, err := file.Marshal()
	require.NoError(t, err)

	// Marshal is byte-stable.
	again, err := file.Marshal()
	require.NoError(t, err)
	require.Equal(t, data, again)

	parsed, err := Verify(data, pubPEM)
	require.NoError(t, err)
	require.Equal(t, file.LicenseID, parsed.LicenseID)
	require.Equal(t, fields.AppID, parsed.Fields.AppID)
	require.Equal(t, []string{"Core", "Reports"}, parsed.Fields.Features)
}

func TestVerifyDetectsFieldTampering(t *testing.T) {
	t.Parallel()

	privPEM, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	pubPEM, err := cryptox.MarshalPublicKey(privPEM)
	require.NoError(t, err)

	fields := sampleFields()
	payload, err := EncodePayload(fields)
	require.NoError(t, err)
	sig, err := cryptox.Sign(privPEM, payload)
	require.NoError(t, err)

	file := &File{LicenseID: "01TESTLICENSE", Fields: fields, Signature: sig}
	data, err := file.Marshal()
	require.NoError(t, err)

	tampered := []byte(strings.Replace(string(data),
		"Features: Core,Reports", "Features: Core,Reports,Premium", 1))

	_, err = Verify(tampered, pubPEM)
	require.ErrorIs(t, err, cryptox.ErrSignatureMismatch)
}

func TestMarshalRejectsLineBreaks(t *testing.T) {
	t.Parallel()

	// The format is line-oriented; a value carrying a line break would
	// render a file that can never be parsed and verified again.
	cases := []struct {
		name   string
		mutate func(f *File)
	}{
		{"newline in customer", func(f *File) { f.Fields.CustomerName = "Acme\nCorp" }},
		{"carriage return in customer", func(f *File) { f.Fields.CustomerName = "Acme\rCorp" }},
		{"newline in app id", func(f *File) { f.Fields.AppID = "A1\nA2" }},
		{"newline in feature", func(f *File) { f.Fields.Features = []string{"Core\nReports"} }},
		{"newline in key id", func(f *File) { f.Fields.SigningKeyID = "sign\nmain" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			file := &File{LicenseID: "01TESTLICENSE", Fields: sampleFields(), Signature: []byte("sig")}
			tc.mutate(file)

			_, err := file.Marshal()
			require.Error(t, err)
		})
	}
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := Unmarshal([]byte("not a license file"))
	require.ErrorIs(t, err, ErrMalformedFile)

	_, err = Unmarshal([]byte("LICENSER LICENSE FILE V1\nLicense-Id: x\n"))
	require.ErrorIs(t, err, ErrMalformedFile)
}

func TestFilename(t *testing.T) {
	t.Parallel()

	name := Filename("Acme Corp, Inc.", time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))
	require.Equal(t, "license_acme-corp-inc_20251231.lic", name)
}
