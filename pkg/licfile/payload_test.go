package licfile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sampleFields() Fields {
	return Fields{
		AppID:        "A1",
		CustomerName: "Acme",
		ValidFrom:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidTo:      time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		Features:     []string{"Core", "Reports"},
		SigningKeyID: "key-1",
	}
}

func TestEncodePayloadDeterministic(t *testing.T) {
	t.Parallel()

	a, err := EncodePayload(sampleFields())
	require.NoError(t, err)

	b, err := EncodePayload(sampleFields())
	require.NoError(t, err)
	require.Equal(t, a, b)

	// Feature order and duplicates don't change the bytes.
	shuffled := sampleFields()
	shuffled.Features = []string{"Reports", "Core", "Core"}
	c, err := EncodePayload(shuffled)
	require.NoError(t, err)
	require.Equal(t, a, c)

	// Time-of-day noise on date fields doesn't either.
	noisy := sampleFields()
	noisy.ValidFrom = time.Date(2025, 1, 1, 13, 37, 42, 0, time.UTC)
	d, err := EncodePayload(noisy)
	require.NoError(t, err)
	require.Equal(t, a, d)
}

func TestEncodePayloadFieldSensitivity(t *testing.T) {
	t.Parallel()

	base, err := EncodePayload(sampleFields())
	require.NoError(t, err)

	mutations := map[string]func(*Fields){
		"app id":    func(f *Fields) { f.AppID = "A2" },
		"customer":  func(f *Fields) { f.CustomerName = "Acme Ltd" },
		"from date": func(f *Fields) { f.ValidFrom = f.ValidFrom.AddDate(0, 0, 1) },
		"to date":   func(f *Fields) { f.ValidTo = f.ValidTo.AddDate(0, 0, -1) },
		"features":  func(f *Fields) { f.Features = []string{"Core"} },
		"key id":    func(f *Fields) { f.SigningKeyID = "key-2" },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f := sampleFields()
			mutate(&f)
			encoded, err := EncodePayload(f)
			require.NoError(t, err)
			require.NotEqual(t, base, encoded)
		})
	}
}

func TestEncodePayloadVersionPrefix(t *testing.T) {
	t.Parallel()

	encoded, err := EncodePayload(sampleFields())
	require.NoError(t, err)
	require.Equal(t, []byte("LICP\x01"), encoded[:5])
}
