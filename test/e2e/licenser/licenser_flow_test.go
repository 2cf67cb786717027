package licenser_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/lockboxlabs/licenser/pkg/licfile"
	"github.com/lockboxlabs/licenser/pkg/licsdk"
	"github.com/stretchr/testify/require"
)

func futureWindow() (string, string) {
	now := time.Now().UTC()
	return now.Format(licsdk.DateFormat), now.AddDate(1, 0, 0).Format(licsdk.DateFormat)
}

// TestLicenseLifecycleOverHTTP walks the full issue, validate, suspend,
// resume and revoke flow through the public API.
func TestLicenseLifecycleOverHTTP(t *testing.T) {
	client := setupService(t)
	ctx := context.Background()

	seedMasterData(t, client)
	from, to := futureWindow()

	id, err := client.GenerateLicense(ctx, licsdk.GenerateLicenseRequest{
		AppID:        "A1",
		CustomerName: "Acme Corp",
		ValidFrom:    from,
		ValidTo:      to,
		Features:     []string{"Core", "Reports"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	res, err := client.ValidateLicense(ctx, id)
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.Equal(t, "Valid", res.Result)
	require.Equal(t, "active", res.EffectiveStatus)

	require.NoError(t, client.SuspendLicense(ctx, id))
	res, err = client.ValidateLicense(ctx, id)
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.Equal(t, "Suspended", res.Result)

	require.NoError(t, client.ResumeLicense(ctx, id))
	require.NoError(t, client.RevokeLicense(ctx, id))

	res, err = client.ValidateLicense(ctx, id)
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.Equal(t, "Revoked", res.Result)

	// Revocation is terminal.
	var apiErr *licsdk.APIError
	err = client.ResumeLicense(ctx, id)
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusConflict, apiErr.StatusCode)
}

// TestExportedFileVerifiesAgainstPublishedKey checks the offline story:
// export a license file, fetch the public key, verify without the service.
func TestExportedFileVerifiesAgainstPublishedKey(t *testing.T) {
	client := setupService(t)
	ctx := context.Background()

	seedMasterData(t, client)
	from, to := futureWindow()

	id, err := client.GenerateLicense(ctx, licsdk.GenerateLicenseRequest{
		AppID:        "A1",
		CustomerName: "Acme Corp",
		ValidFrom:    from,
		ValidTo:      to,
		Features:     []string{"Core"},
	})
	require.NoError(t, err)

	filename, data, err := client.ExportLicense(ctx, id)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(filename, ".lic"))

	pub, err := client.PublicKey(ctx, "sign-main")
	require.NoError(t, err)

	file, err := licfile.Verify(data, []byte(pub.PublicKeyPEM))
	require.NoError(t, err)
	require.Equal(t, id, file.LicenseID)
	require.Equal(t, "A1", file.Fields.AppID)

	// The token export verifies against the same key.
	token, err := client.ExportLicenseToken(ctx, id)
	require.NoError(t, err)
	claims, err := licfile.VerifyToken(token, []byte(pub.PublicKeyPEM))
	require.NoError(t, err)
	require.Equal(t, id, claims.Subject)
}

// TestDocumentWorkflowOverHTTP drafts a document, releases it and checks
// the issued licenses, then reopens and archives.
func TestDocumentWorkflowOverHTTP(t *testing.T) {
	client := setupService(t)
	ctx := context.Background()

	seedMasterData(t, client)
	from, to := futureWindow()

	no, err := client.CreateDocument(ctx, licsdk.CreateDocumentRequest{CustomerNo: "C-0001"})
	require.NoError(t, err)
	require.Equal(t, "LIC-DOC-000001", no)

	lineNo, err := client.AddDocumentLine(ctx, no, licsdk.DocumentLineRequest{
		AppID:     "A1",
		StartDate: from,
		EndDate:   to,
		Features:  []string{"Core"},
	})
	require.NoError(t, err)
	require.Equal(t, 10000, lineNo)

	require.NoError(t, client.ReleaseDocument(ctx, no, licsdk.ReleaseDocumentRequest{Actor: "ops"}))

	doc, err := client.GetDocument(ctx, no)
	require.NoError(t, err)
	require.Equal(t, "released", doc.Status)
	require.Equal(t, "ops", doc.ReleasedBy)
	require.Len(t, doc.Lines, 1)
	require.NotEmpty(t, doc.Lines[0].GeneratedLicenseID)

	lic, err := client.GetLicense(ctx, doc.Lines[0].GeneratedLicenseID)
	require.NoError(t, err)
	require.Equal(t, "Acme Corp", lic.CustomerName)

	require.NoError(t, client.ReopenDocument(ctx, no))
	require.NoError(t, client.ReleaseDocument(ctx, no, licsdk.ReleaseDocumentRequest{Actor: "ops"}))
	require.NoError(t, client.ArchiveDocument(ctx, no))

	var apiErr *licsdk.APIError
	err = client.ReleaseDocument(ctx, no, licsdk.ReleaseDocumentRequest{})
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, licsdk.ErrorCodePreconditionFailed, apiErr.Code)
}

// TestValidationErrorsOverHTTP checks the error envelope for the common
// failure classes.
func TestValidationErrorsOverHTTP(t *testing.T) {
	client := setupService(t)
	ctx := context.Background()

	seedMasterData(t, client)
	from, to := futureWindow()

	var apiErr *licsdk.APIError

	// Malformed request: bad date format never reaches the service layer.
	_, err := client.GenerateLicense(ctx, licsdk.GenerateLicenseRequest{
		AppID:        "A1",
		CustomerName: "Acme Corp",
		ValidFrom:    "01/01/2026",
		ValidTo:      to,
	})
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, licsdk.ErrorCodeInvalidRequest, apiErr.Code)

	// Unknown application.
	_, err = client.GenerateLicense(ctx, licsdk.GenerateLicenseRequest{
		AppID:        "nope",
		CustomerName: "Acme Corp",
		ValidFrom:    from,
		ValidTo:      to,
	})
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	// Unknown license id.
	_, err = client.ValidateLicense(ctx, "01XXXXXXXXXXXXXXXXXXXXXXXX")
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.Equal(t, licsdk.ErrorCodeNotFound, apiErr.Code)

	// Duplicate key id.
	err = client.GenerateKey(ctx, licsdk.GenerateKeyRequest{KeyID: "sign-main", Type: "signing"})
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusConflict, apiErr.StatusCode)
	require.Equal(t, licsdk.ErrorCodeConflict, apiErr.Code)

	// Unconfirmed key deletion.
	err = client.DeleteKey(ctx, "sign-main", false)
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

// TestKeyRotationOverHTTP rotates the signing key and confirms new
// licenses reference the replacement while old ones still validate.
func TestKeyRotationOverHTTP(t *testing.T) {
	client := setupService(t)
	ctx := context.Background()

	seedMasterData(t, client)
	from, to := futureWindow()

	oldID, err := client.GenerateLicense(ctx, licsdk.GenerateLicenseRequest{
		AppID:        "A1",
		CustomerName: "Acme Corp",
		ValidFrom:    from,
		ValidTo:      to,
	})
	require.NoError(t, err)

	newKeyID, err := client.RotateKey(ctx, licsdk.RotateKeyRequest{Actor: "ops"})
	require.NoError(t, err)
	require.NotEqual(t, "sign-main", newKeyID)

	newID, err := client.GenerateLicense(ctx, licsdk.GenerateLicenseRequest{
		AppID:        "A1",
		CustomerName: "Acme Corp",
		ValidFrom:    from,
		ValidTo:      to,
	})
	require.NoError(t, err)

	newLic, err := client.GetLicense(ctx, newID)
	require.NoError(t, err)
	require.Equal(t, newKeyID, newLic.SigningKeyID)

	// Licenses signed before the rotation keep validating: the retired key
	// remains stored for verification.
	res, err := client.ValidateLicense(ctx, oldID)
	require.NoError(t, err)
	require.True(t, res.Valid)

	keys, err := client.ListKeys(ctx)
	require.NoError(t, err)
	var oldActive bool
	for _, key := range keys {
		if key.KeyID == "sign-main" {
			oldActive = key.Active
		}
	}
	require.False(t, oldActive)
}

// TestHealthEndpoints checks liveness and readiness reporting.
func TestHealthEndpoints(t *testing.T) {
	client := setupService(t)
	ctx := context.Background()

	live, err := client.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)

	// Readiness degrades while no signing key exists.
	_, err = client.GetReadiness(ctx)
	var apiErr *licsdk.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)

	require.NoError(t, client.GenerateKey(ctx, licsdk.GenerateKeyRequest{KeyID: "sign-main", Type: "signing"}))

	ready, err := client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.Equal(t, "ok", ready.Checks.SigningKey)
}
