package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLicenseEffectiveStatus(t *testing.T) {
	t.Parallel()

	now := date(2025, 6, 15)

	lic := License{Status: LicenseActive, ValidFrom: date(2025, 1, 1), ValidTo: date(2025, 12, 31)}
	require.Equal(t, LicenseActive, lic.EffectiveStatus(now))

	lic.ValidTo = date(2025, 6, 14)
	require.Equal(t, LicenseExpired, lic.EffectiveStatus(now))

	// ValidTo is inclusive: a license expiring today is still active.
	lic.ValidTo = date(2025, 6, 15)
	require.Equal(t, LicenseActive, lic.EffectiveStatus(now))

	// Terminal states override dates in both directions.
	lic.Status = LicenseRevoked
	lic.ValidTo = date(2099, 1, 1)
	require.Equal(t, LicenseRevoked, lic.EffectiveStatus(now))

	lic.Status = LicenseSuspended
	require.Equal(t, LicenseSuspended, lic.EffectiveStatus(now))

	lic.Status = LicenseInvalid
	require.Equal(t, LicenseInvalid, lic.EffectiveStatus(now))
}

func TestCryptoKeyUsable(t *testing.T) {
	t.Parallel()

	now := date(2025, 6, 15)

	key := CryptoKey{Active: true}
	require.True(t, key.Usable(now))

	expired := date(2024, 1, 1)
	key.ExpiresAt = &expired
	require.False(t, key.Usable(now))

	// Expiry on the selection day still counts as usable.
	today := date(2025, 6, 15)
	key.ExpiresAt = &today
	require.True(t, key.Usable(now))

	key.Active = false
	require.False(t, key.Usable(now))
}

func TestDocumentEffectiveStatus(t *testing.T) {
	t.Parallel()

	now := date(2025, 6, 15)

	doc := LicenseDocument{Status: DocumentOpen}
	require.Equal(t, DocumentOpen, doc.EffectiveStatus(now))

	doc.Status = DocumentReleased
	doc.Lines = []LicenseDocumentLine{
		{EndDate: date(2025, 3, 1)},
		{EndDate: date(2025, 12, 31)},
	}
	require.Equal(t, DocumentReleased, doc.EffectiveStatus(now))

	doc.Lines[1].EndDate = date(2025, 6, 1)
	require.Equal(t, DocumentExpired, doc.EffectiveStatus(now))

	doc.Status = DocumentArchived
	require.Equal(t, DocumentArchived, doc.EffectiveStatus(now))
}

func TestDocumentDerivedDatesAndLineNo(t *testing.T) {
	t.Parallel()

	doc := LicenseDocument{}
	_, ok := doc.StartDate()
	require.False(t, ok)
	require.Equal(t, LineNoStep, doc.NextLineNo())

	doc.Lines = []LicenseDocumentLine{
		{LineNo: LineNoStep, StartDate: date(2025, 2, 1), EndDate: date(2025, 11, 30)},
		{LineNo: 2 * LineNoStep, StartDate: date(2025, 1, 1), EndDate: date(2025, 12, 31)},
	}

	start, ok := doc.StartDate()
	require.True(t, ok)
	require.Equal(t, date(2025, 1, 1), start)

	end, ok := doc.EndDate()
	require.True(t, ok)
	require.Equal(t, date(2025, 12, 31), end)

	require.Equal(t, 3*LineNoStep, doc.NextLineNo())
}
