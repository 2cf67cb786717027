package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/lockboxlabs/licenser/internal/licenser/domain"
	"github.com/lockboxlabs/licenser/pkg/cryptox"
	"github.com/lockboxlabs/licenser/pkg/idx"
	"github.com/lockboxlabs/licenser/pkg/licfile"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.issueTestLicense(t)

	lic, err := env.licenses.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "A1", lic.AppID)
	require.Equal(t, "Acme Corp", lic.CustomerName)
	require.Equal(t, []string{"Core", "Reports"}, lic.Features)
	require.Equal(t, "sign-main", lic.SigningKeyID)
	require.Equal(t, domain.LicenseActive, lic.Status)
	require.NotEmpty(t, lic.Signature)

	res, err := env.licenses.Validate(ctx, id)
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.Equal(t, domain.ResultValid, res.Result)
	require.Equal(t, domain.LicenseActive, res.EffectiveStatus)

	// The run leaves an audit stamp on the record.
	lic, err = env.licenses.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, lic.LastValidated)
	require.Equal(t, domain.ResultValid, lic.ValidationResult)
}

func TestValidateDetectsTamperedFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.issueTestLicense(t)

	// Strip a feature out from under the signature, the way someone with
	// database access would try to alter an entitlement.
	db := env.rawDB(t)
	_, err := db.ExecContext(ctx, `UPDATE licenses SET features = 'Core' WHERE id = ?`, id)
	require.NoError(t, err)

	res, err := env.licenses.Validate(ctx, id)
	require.NoError(t, err)
	require.False(t, res.Valid)
	require.Equal(t, domain.ResultSignatureMismatch, res.Result)
	require.Equal(t, domain.LicenseInvalid, res.EffectiveStatus)

	// Tamper sticks: the stored status is now invalid.
	lic, err := env.licenses.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.LicenseInvalid, lic.Status)
	require.Equal(t, domain.ResultSignatureMismatch, lic.ValidationResult)
}

func TestValidateReportsMissingSigningKey(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.issueTestLicense(t)

	db := env.rawDB(t)
	_, err := db.ExecContext(ctx, `UPDATE licenses SET signing_key_id = 'ghost' WHERE id = ?`, id)
	require.NoError(t, err)

	_, err = env.licenses.Validate(ctx, id)
	require.ErrorIs(t, err, ErrKeyNotFound)

	lic, err := env.licenses.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.ResultKeyNotFound, lic.ValidationResult)
}

func TestValidateProjectsExpiryWithoutStoringIt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedDirectory(t)
	require.NoError(t, env.keys.GenerateKeyPair(ctx, "sign-main", domain.KeyTypeSigning, nil, "tester"))

	// Issuance refuses windows that are already over, so build an intact
	// but lapsed license directly against the store.
	key, err := env.store.CryptoKeys().GetKey(ctx, "sign-main")
	require.NoError(t, err)
	privPEM, err := env.keys.SigningMaterial(key)
	require.NoError(t, err)

	fields := licfile.Fields{
		AppID:        "A1",
		CustomerName: "Acme Corp",
		ValidFrom:    domain.DateOnly(time.Now().UTC().AddDate(-1, 0, 0)),
		ValidTo:      domain.DateOnly(time.Now().UTC().AddDate(0, 0, -1)),
		Features:     []string{"Core"},
		SigningKeyID: key.ID,
	}
	payload, err := licfile.EncodePayload(fields)
	require.NoError(t, err)
	sig, err := cryptox.Sign(privPEM, payload)
	require.NoError(t, err)

	id := idx.New().String()
	require.NoError(t, env.store.Licenses().CreateLicense(ctx, domain.License{
		ID:           id,
		AppID:        fields.AppID,
		CustomerName: fields.CustomerName,
		ValidFrom:    fields.ValidFrom,
		ValidTo:      fields.ValidTo,
		Features:     fields.Features,
		SigningKeyID: key.ID,
		Signature:    sig,
		Status:       domain.LicenseActive,
		CreatedAt:    time.Now().UTC(),
	}))

	res, err := env.licenses.Validate(ctx, id)
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.Equal(t, domain.ResultExpired, res.Result)
	require.Equal(t, domain.LicenseExpired, res.EffectiveStatus)

	// Expiry is a projection; the stored status stays active.
	lic, err := env.licenses.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.LicenseActive, lic.Status)
}

func TestRevokeIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.issueTestLicense(t)
	require.NoError(t, env.licenses.Revoke(ctx, id))

	res, err := env.licenses.Validate(ctx, id)
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.Equal(t, domain.ResultRevoked, res.Result)

	// No path out of revoked.
	var precondition *WorkflowPreconditionError
	require.ErrorAs(t, env.licenses.Suspend(ctx, id), &precondition)
	require.ErrorAs(t, env.licenses.Resume(ctx, id), &precondition)
}

func TestSuspendAndResume(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.issueTestLicense(t)

	require.NoError(t, env.licenses.Suspend(ctx, id))
	res, err := env.licenses.Validate(ctx, id)
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.Equal(t, domain.ResultSuspended, res.Result)

	require.NoError(t, env.licenses.Resume(ctx, id))
	res, err = env.licenses.Validate(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.ResultValid, res.Result)

	var precondition *WorkflowPreconditionError
	require.ErrorAs(t, env.licenses.Resume(ctx, id), &precondition)
}

func TestGenerateValidatesInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedDirectory(t)
	require.NoError(t, env.keys.GenerateKeyPair(ctx, "sign-main", domain.KeyTypeSigning, nil, "tester"))

	now := time.Now().UTC()
	valid := GenerateRequest{
		AppID: "A1", CustomerName: "Acme Corp",
		ValidFrom: now, ValidTo: now.AddDate(1, 0, 0),
	}

	cases := []struct {
		name   string
		mutate func(r *GenerateRequest)
		field  string
	}{
		{"empty app id", func(r *GenerateRequest) { r.AppID = " " }, "appId"},
		{"unknown app id", func(r *GenerateRequest) { r.AppID = "nope" }, "appId"},
		{"empty customer", func(r *GenerateRequest) { r.CustomerName = "" }, "customerName"},
		{"missing valid from", func(r *GenerateRequest) { r.ValidFrom = time.Time{} }, "validFrom"},
		{"missing valid to", func(r *GenerateRequest) { r.ValidTo = time.Time{} }, "validTo"},
		{"inverted window", func(r *GenerateRequest) { r.ValidFrom = r.ValidTo.AddDate(0, 1, 0) }, "validFrom"},
		{"window already over", func(r *GenerateRequest) { r.ValidFrom = now.AddDate(-1, 0, 0); r.ValidTo = now.AddDate(0, 0, -1) }, "validTo"},
		{"comma in feature", func(r *GenerateRequest) { r.Features = []string{"Core,Reports"} }, "features"},
		{"newline in customer", func(r *GenerateRequest) { r.CustomerName = "Acme\nCorp" }, "customerName"},
		{"carriage return in customer", func(r *GenerateRequest) { r.CustomerName = "Acme\rCorp" }, "customerName"},
		{"newline in app id", func(r *GenerateRequest) { r.AppID = "A1\nA2" }, "appId"},
		{"control character in feature", func(r *GenerateRequest) { r.Features = []string{"Core\rReports"} }, "features"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			_, err := env.licenses.Generate(ctx, req)

			var invalid *InvalidInputError
			require.ErrorAs(t, err, &invalid)
			require.Equal(t, tc.field, invalid.Field)
		})
	}

	// Nothing was persisted by the rejected requests.
	all, err := env.licenses.List(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestGenerateFailsClosedWithoutSigningKey(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedDirectory(t)

	_, err := env.licenses.Generate(ctx, GenerateRequest{
		AppID: "A1", CustomerName: "Acme Corp",
		ValidFrom: time.Now().UTC(), ValidTo: time.Now().UTC().AddDate(1, 0, 0),
	})
	require.ErrorIs(t, err, ErrNoActiveSigningKey)

	all, err := env.licenses.List(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestGenerateNormalizesFeatures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedDirectory(t)
	require.NoError(t, env.keys.GenerateKeyPair(ctx, "sign-main", domain.KeyTypeSigning, nil, "tester"))

	id, err := env.licenses.Generate(ctx, GenerateRequest{
		AppID: "A1", CustomerName: "Acme Corp",
		ValidFrom: time.Now().UTC(), ValidTo: time.Now().UTC().AddDate(1, 0, 0),
		Features: []string{"Reports", "Core", "Reports"},
	})
	require.NoError(t, err)

	lic, err := env.licenses.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, []string{"Core", "Reports"}, lic.Features)
}

func TestExportFileVerifiesOffline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.issueTestLicense(t)

	filename, data, err := env.licenses.Export(ctx, id)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(filename, "license_acme-corp_"))
	require.True(t, strings.HasSuffix(filename, ".lic"))

	pubPEM, err := env.keys.PublicKey(ctx, "sign-main")
	require.NoError(t, err)

	file, err := licfile.Verify(data, pubPEM)
	require.NoError(t, err)
	require.Equal(t, id, file.LicenseID)
	require.Equal(t, []string{"Core", "Reports"}, file.Fields.Features)

	// A flipped feature in the exported artifact fails verification.
	tampered := []byte(strings.Replace(string(data), "Core", "Gold", 1))
	_, err = licfile.Verify(tampered, pubPEM)
	require.ErrorIs(t, err, cryptox.ErrSignatureMismatch)
}

func TestExportTokenVerifiesOffline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.issueTestLicense(t)

	token, err := env.licenses.ExportToken(ctx, id)
	require.NoError(t, err)

	pubPEM, err := env.keys.PublicKey(ctx, "sign-main")
	require.NoError(t, err)

	claims, err := licfile.VerifyToken(token, pubPEM)
	require.NoError(t, err)
	require.Equal(t, id, claims.Subject)
	require.Equal(t, "licenser-test", claims.Issuer)
	require.Equal(t, "A1", claims.AppID)
	require.Equal(t, "Acme Corp", claims.Customer)
	require.Equal(t, []string{"Core", "Reports"}, claims.Features)

	// A token signed by a different key is rejected.
	require.NoError(t, env.keys.GenerateKeyPair(ctx, "sign-other", domain.KeyTypeSigning, nil, "tester"))
	otherPub, err := env.keys.PublicKey(ctx, "sign-other")
	require.NoError(t, err)
	_, err = licfile.VerifyToken(token, otherPub)
	require.Error(t, err)
}

func TestLicenseLookupErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.licenses.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrLicenseNotFound)
	_, err = env.licenses.Validate(ctx, "missing")
	require.ErrorIs(t, err, ErrLicenseNotFound)
	require.ErrorIs(t, env.licenses.Revoke(ctx, "missing"), ErrLicenseNotFound)
}
