package licsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Machine-readable error codes used in ErrorResponse.Error.
const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeNotFound           = "not_found"
	ErrorCodeConflict           = "conflict"
	ErrorCodePreconditionFailed = "precondition_failed"
	ErrorCodeNoSigningKey       = "no_signing_key"
	ErrorCodeServerError        = "server_error"
)

// APIError is a typed error carrying the HTTP status and the error body
// returned by the service. It is used both by handlers to write responses
// and by the SDK client to surface failures.
type APIError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// NewAPIError creates an APIError with the given status, code and
// description.
func NewAPIError(statusCode int, code, description string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Description: description}
}

// parseErrorResponse turns a non-2xx response body into an *APIError.
// Returns nil for 2xx responses.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
