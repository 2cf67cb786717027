package licsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the license service HTTP API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GenerateKey creates a named asymmetric key pair.
func (c *Client) GenerateKey(ctx context.Context, req GenerateKeyRequest) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/keys", req)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusCreated)
}

// ImportCertificate imports a PKCS#12 container and returns the assigned
// key id.
func (c *Client) ImportCertificate(ctx context.Context, req ImportCertificateRequest) (string, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/keys/import", req)
	if err != nil {
		return "", err
	}
	var out ImportCertificateResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return "", err
	}
	return out.KeyID, nil
}

// RotateKey generates a replacement signing key and returns its id.
func (c *Client) RotateKey(ctx context.Context, req RotateKeyRequest) (string, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/keys/rotate", req)
	if err != nil {
		return "", err
	}
	var out RotateKeyResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return "", err
	}
	return out.KeyID, nil
}

// ListKeys returns all stored keys.
func (c *Client) ListKeys(ctx context.Context) ([]KeyInfo, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/v1/keys", nil)
	if err != nil {
		return nil, err
	}
	var out ListKeysResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Keys, nil
}

// PublicKey returns the PEM-encoded public half of a key.
func (c *Client) PublicKey(ctx context.Context, keyID string) (PublicKeyResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/v1/keys/"+url.PathEscape(keyID)+"/public", nil)
	if err != nil {
		return PublicKeyResponse{}, err
	}
	var out PublicKeyResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return PublicKeyResponse{}, err
	}
	return out, nil
}

// DeactivateKey soft-disables a key.
func (c *Client) DeactivateKey(ctx context.Context, keyID string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/keys/"+url.PathEscape(keyID)+"/deactivate", nil)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}

// DeleteKey physically removes a key. The confirm flag must be true; the
// service refuses unconfirmed deletions.
func (c *Client) DeleteKey(ctx context.Context, keyID string, confirm bool) error {
	path := fmt.Sprintf("/v1/keys/%s?confirm=%t", url.PathEscape(keyID), confirm)
	resp, err := c.doJSON(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}

// GenerateLicense signs and stores a new license, returning its id.
func (c *Client) GenerateLicense(ctx context.Context, req GenerateLicenseRequest) (string, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/licenses", req)
	if err != nil {
		return "", err
	}
	var out GenerateLicenseResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return "", err
	}
	return out.LicenseID, nil
}

// GetLicense returns one license.
func (c *Client) GetLicense(ctx context.Context, licenseID string) (LicenseInfo, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/v1/licenses/"+url.PathEscape(licenseID), nil)
	if err != nil {
		return LicenseInfo{}, err
	}
	var out LicenseInfo
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return LicenseInfo{}, err
	}
	return out, nil
}

// ListLicenses returns all licenses.
func (c *Client) ListLicenses(ctx context.Context) ([]LicenseInfo, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/v1/licenses", nil)
	if err != nil {
		return nil, err
	}
	var out ListLicensesResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Licenses, nil
}

// ValidateLicense runs a signature and status check on a stored license.
func (c *Client) ValidateLicense(ctx context.Context, licenseID string) (ValidateLicenseResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/licenses/"+url.PathEscape(licenseID)+"/validate", nil)
	if err != nil {
		return ValidateLicenseResponse{}, err
	}
	var out ValidateLicenseResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return ValidateLicenseResponse{}, err
	}
	return out, nil
}

// RevokeLicense permanently revokes a license.
func (c *Client) RevokeLicense(ctx context.Context, licenseID string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/licenses/"+url.PathEscape(licenseID)+"/revoke", nil)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}

// SuspendLicense pauses an active license.
func (c *Client) SuspendLicense(ctx context.Context, licenseID string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/licenses/"+url.PathEscape(licenseID)+"/suspend", nil)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}

// ResumeLicense lifts a suspension.
func (c *Client) ResumeLicense(ctx context.Context, licenseID string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/licenses/"+url.PathEscape(licenseID)+"/resume", nil)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}

// ExportLicense downloads the portable license file. The filename comes
// from the Content-Disposition header.
func (c *Client) ExportLicense(ctx context.Context, licenseID string) (filename string, data []byte, err error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/v1/licenses/"+url.PathEscape(licenseID)+"/export", nil)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", nil, parseErrorResponse(resp, body)
	}

	filename = resp.Header.Get("Content-Disposition")
	if i := strings.Index(filename, `filename="`); i >= 0 {
		filename = strings.TrimSuffix(filename[i+len(`filename="`):], `"`)
	}
	return filename, body, nil
}

// ExportLicenseToken fetches the license as a compact signed token.
func (c *Client) ExportLicenseToken(ctx context.Context, licenseID string) (string, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/v1/licenses/"+url.PathEscape(licenseID)+"/token", nil)
	if err != nil {
		return "", err
	}
	var out LicenseTokenResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return "", err
	}
	return out.Token, nil
}

// CreateDocument opens a new license document and returns its number.
func (c *Client) CreateDocument(ctx context.Context, req CreateDocumentRequest) (string, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/documents", req)
	if err != nil {
		return "", err
	}
	var out CreateDocumentResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return "", err
	}
	return out.DocumentNo, nil
}

// GetDocument returns a document with its lines.
func (c *Client) GetDocument(ctx context.Context, docNo string) (DocumentInfo, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/v1/documents/"+url.PathEscape(docNo), nil)
	if err != nil {
		return DocumentInfo{}, err
	}
	var out DocumentInfo
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return DocumentInfo{}, err
	}
	return out, nil
}

// ListDocuments returns all document headers.
func (c *Client) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/v1/documents", nil)
	if err != nil {
		return nil, err
	}
	var out ListDocumentsResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

// AddDocumentLine appends a line to an open document.
func (c *Client) AddDocumentLine(ctx context.Context, docNo string, req DocumentLineRequest) (int, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/documents/"+url.PathEscape(docNo)+"/lines", req)
	if err != nil {
		return 0, err
	}
	var out AddLineResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return 0, err
	}
	return out.LineNo, nil
}

// UpdateDocumentLine replaces the editable fields of a line.
func (c *Client) UpdateDocumentLine(ctx context.Context, docNo string, lineNo int, req DocumentLineRequest) error {
	path := fmt.Sprintf("/v1/documents/%s/lines/%d", url.PathEscape(docNo), lineNo)
	resp, err := c.doJSON(ctx, http.MethodPut, path, req)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}

// DeleteDocumentLine removes a line from an open document.
func (c *Client) DeleteDocumentLine(ctx context.Context, docNo string, lineNo int) error {
	path := fmt.Sprintf("/v1/documents/%s/lines/%d", url.PathEscape(docNo), lineNo)
	resp, err := c.doJSON(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}

// ReleaseDocument releases a document, issuing one license per line.
func (c *Client) ReleaseDocument(ctx context.Context, docNo string, req ReleaseDocumentRequest) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/documents/"+url.PathEscape(docNo)+"/release", req)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}

// ReopenDocument returns a released document to the open state.
func (c *Client) ReopenDocument(ctx context.Context, docNo string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/documents/"+url.PathEscape(docNo)+"/reopen", nil)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}

// ArchiveDocument retires a released document.
func (c *Client) ArchiveDocument(ctx context.Context, docNo string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/documents/"+url.PathEscape(docNo)+"/archive", nil)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}

// RegisterApplication records a licensable application.
func (c *Client) RegisterApplication(ctx context.Context, req RegisterApplicationRequest) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/applications", req)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusCreated)
}

// ListApplications returns all registered applications.
func (c *Client) ListApplications(ctx context.Context) ([]ApplicationInfo, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/v1/applications", nil)
	if err != nil {
		return nil, err
	}
	var out ListApplicationsResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Applications, nil
}

// RegisterCustomer records a customer master record.
func (c *Client) RegisterCustomer(ctx context.Context, req RegisterCustomerRequest) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/customers", req)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusCreated)
}

// ListCustomers returns all customers.
func (c *Client) ListCustomers(ctx context.Context) ([]CustomerInfo, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/v1/customers", nil)
	if err != nil {
		return nil, err
	}
	var out ListCustomersResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Customers, nil
}

// GetLiveness checks the liveness endpoint.
func (c *Client) GetLiveness(ctx context.Context) (HealthResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/livez", nil)
	if err != nil {
		return HealthResponse{}, err
	}
	var out HealthResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return HealthResponse{}, err
	}
	return out, nil
}

// GetReadiness checks the readiness endpoint.
func (c *Client) GetReadiness(ctx context.Context) (HealthResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/readyz", nil)
	if err != nil {
		return HealthResponse{}, err
	}
	var out HealthResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return HealthResponse{}, err
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

// decodeJSON decodes a response into target, expecting the given status.
// Non-matching statuses are turned into *APIError.
func decodeJSON(resp *http.Response, target any, expectedStatus int) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != expectedStatus {
		return parseErrorResponse(resp, body)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// checkStatus drains the response and returns a typed error unless the
// status matches.
func checkStatus(resp *http.Response, expectedStatus int) error {
	defer resp.Body.Close()

	if resp.StatusCode != expectedStatus {
		body, _ := io.ReadAll(resp.Body)
		return parseErrorResponse(resp, body)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
