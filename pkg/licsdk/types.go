package licsdk

// DateFormat is the wire format for all date fields. Validity is
// date-granular; the service interprets dates as UTC.
const DateFormat = "2006-01-02"

// ErrorResponse is the standard error body returned by every endpoint.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// GenerateKeyRequest creates a named asymmetric key pair.
type GenerateKeyRequest struct {
	KeyID string `json:"key_id" validate:"required,max=128"`
	// Type is one of "signing", "validation", "master".
	Type string `json:"type" validate:"required,oneof=signing validation master"`
	// ExpiresAt is an optional "YYYY-MM-DD" expiry date, inclusive.
	ExpiresAt string `json:"expires_at,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CreatedBy string `json:"created_by,omitempty" validate:"omitempty,max=128"`
}

// ImportCertificateRequest imports a PKCS#12 container. The Certificate
// field carries the raw container bytes base64-encoded by encoding/json.
type ImportCertificateRequest struct {
	Certificate []byte `json:"certificate" validate:"required"`
	Password    string `json:"password"`
	CreatedBy   string `json:"created_by,omitempty" validate:"omitempty,max=128"`
}

// ImportCertificateResponse returns the id assigned to the imported key.
type ImportCertificateResponse struct {
	KeyID string `json:"key_id"`
}

// RotateKeyRequest generates a replacement signing key and retires the
// current one.
type RotateKeyRequest struct {
	ExpiresAt string `json:"expires_at,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Actor     string `json:"actor,omitempty" validate:"omitempty,max=128"`
}

// RotateKeyResponse returns the id of the freshly generated signing key.
type RotateKeyResponse struct {
	KeyID string `json:"key_id"`
}

// KeyInfo describes a stored key. Private material is never included.
type KeyInfo struct {
	KeyID      string `json:"key_id"`
	Type       string `json:"type"`
	Algorithm  string `json:"algorithm"`
	Active     bool   `json:"active"`
	ExpiresAt  string `json:"expires_at,omitempty"`
	UsageCount int64  `json:"usage_count"`
	CreatedAt  string `json:"created_at"`
	CreatedBy  string `json:"created_by,omitempty"`
}

// ListKeysResponse lists all stored keys, newest first.
type ListKeysResponse struct {
	Keys []KeyInfo `json:"keys"`
}

// PublicKeyResponse returns the PEM-encoded public half of a key.
type PublicKeyResponse struct {
	KeyID        string `json:"key_id"`
	Algorithm    string `json:"algorithm"`
	PublicKeyPEM string `json:"public_key_pem"`
}

// GenerateLicenseRequest signs and stores a new license.
type GenerateLicenseRequest struct {
	AppID        string   `json:"app_id" validate:"required,max=64"`
	CustomerName string   `json:"customer_name" validate:"required,max=256"`
	ValidFrom    string   `json:"valid_from" validate:"required,datetime=2006-01-02"`
	ValidTo      string   `json:"valid_to" validate:"required,datetime=2006-01-02"`
	Features     []string `json:"features,omitempty" validate:"omitempty,dive,required,max=64"`
}

// GenerateLicenseResponse returns the id of the issued license.
type GenerateLicenseResponse struct {
	LicenseID string `json:"license_id"`
}

// LicenseInfo describes a stored license.
type LicenseInfo struct {
	LicenseID        string   `json:"license_id"`
	AppID            string   `json:"app_id"`
	CustomerName     string   `json:"customer_name"`
	ValidFrom        string   `json:"valid_from"`
	ValidTo          string   `json:"valid_to"`
	Features         []string `json:"features"`
	SigningKeyID     string   `json:"signing_key_id"`
	Status           string   `json:"status"`
	EffectiveStatus  string   `json:"effective_status"`
	CreatedAt        string   `json:"created_at"`
	LastValidated    string   `json:"last_validated,omitempty"`
	ValidationResult string   `json:"validation_result,omitempty"`
}

// ListLicensesResponse lists all licenses, newest first.
type ListLicensesResponse struct {
	Licenses []LicenseInfo `json:"licenses"`
}

// ValidateLicenseResponse is the outcome of a validation run. Valid
// reports cryptographic integrity; EffectiveStatus tells whether the
// license currently grants anything.
type ValidateLicenseResponse struct {
	LicenseID       string `json:"license_id"`
	Valid           bool   `json:"valid"`
	Result          string `json:"result"`
	EffectiveStatus string `json:"effective_status"`
}

// LicenseTokenResponse carries the license as a compact signed token.
type LicenseTokenResponse struct {
	LicenseID string `json:"license_id"`
	Token     string `json:"token"`
}

// CreateDocumentRequest opens a new license document for a customer.
type CreateDocumentRequest struct {
	CustomerNo string `json:"customer_no" validate:"required,max=64"`
}

// CreateDocumentResponse returns the sequence-assigned document number.
type CreateDocumentResponse struct {
	DocumentNo string `json:"document_no"`
}

// DocumentLineRequest carries the editable fields of a document line.
type DocumentLineRequest struct {
	AppID     string   `json:"app_id" validate:"required,max=64"`
	StartDate string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string   `json:"end_date" validate:"required,datetime=2006-01-02"`
	Features  []string `json:"features,omitempty" validate:"omitempty,dive,required,max=64"`
}

// AddLineResponse returns the number assigned to a new line.
type AddLineResponse struct {
	DocumentNo string `json:"document_no"`
	LineNo     int    `json:"line_no"`
}

// DocumentLineInfo describes a document line.
type DocumentLineInfo struct {
	LineNo             int      `json:"line_no"`
	AppID              string   `json:"app_id"`
	StartDate          string   `json:"start_date"`
	EndDate            string   `json:"end_date"`
	Features           []string `json:"features"`
	GeneratedLicenseID string   `json:"generated_license_id,omitempty"`
}

// DocumentInfo describes a license document. StartDate and EndDate are
// derived from the lines and empty while the document has none.
type DocumentInfo struct {
	DocumentNo      string             `json:"document_no"`
	CustomerNo      string             `json:"customer_no"`
	Status          string             `json:"status"`
	EffectiveStatus string             `json:"effective_status"`
	StartDate       string             `json:"start_date,omitempty"`
	EndDate         string             `json:"end_date,omitempty"`
	CreatedAt       string             `json:"created_at"`
	ReleasedAt      string             `json:"released_at,omitempty"`
	ReleasedBy      string             `json:"released_by,omitempty"`
	Lines           []DocumentLineInfo `json:"lines,omitempty"`
}

// ListDocumentsResponse lists all document headers, newest first.
type ListDocumentsResponse struct {
	Documents []DocumentInfo `json:"documents"`
}

// ReleaseDocumentRequest releases a document, issuing one license per line.
type ReleaseDocumentRequest struct {
	Actor string `json:"actor,omitempty" validate:"omitempty,max=128"`
}

// RegisterApplicationRequest records a licensable application.
type RegisterApplicationRequest struct {
	AppID     string `json:"app_id" validate:"required,max=64"`
	Name      string `json:"name" validate:"required,max=256"`
	Publisher string `json:"publisher,omitempty" validate:"omitempty,max=256"`
	Version   string `json:"version,omitempty" validate:"omitempty,max=64"`
}

// ApplicationInfo describes a registered application.
type ApplicationInfo struct {
	AppID     string `json:"app_id"`
	Name      string `json:"name"`
	Publisher string `json:"publisher,omitempty"`
	Version   string `json:"version,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ListApplicationsResponse lists all registered applications.
type ListApplicationsResponse struct {
	Applications []ApplicationInfo `json:"applications"`
}

// RegisterCustomerRequest records a customer master record.
type RegisterCustomerRequest struct {
	CustomerNo string `json:"customer_no" validate:"required,max=64"`
	Name       string `json:"name" validate:"required,max=256"`
	Contact    string `json:"contact,omitempty" validate:"omitempty,max=256"`
}

// CustomerInfo describes a customer master record.
type CustomerInfo struct {
	CustomerNo string `json:"customer_no"`
	Name       string `json:"name"`
	Contact    string `json:"contact,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// ListCustomersResponse lists all customers.
type ListCustomersResponse struct {
	Customers []CustomerInfo `json:"customers"`
}

// HealthResponse is returned by the liveness and readiness endpoints.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the state of the critical dependencies.
type HealthChecks struct {
	Database   string `json:"database"`
	SigningKey string `json:"signing_key"`
}
