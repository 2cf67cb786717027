package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/lockboxlabs/licenser/internal/licenser/service"
	"github.com/lockboxlabs/licenser/pkg/httpx"
	"github.com/lockboxlabs/licenser/pkg/licsdk"
)

// validate checks the licsdk request structs against their struct tags.
var validate = validator.New()

// decodeRequest parses and validates a JSON request body. On failure it
// writes the error response and returns false.
func decodeRequest(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		httpx.WriteError(w, http.StatusBadRequest,
			licsdk.ErrorCodeInvalidRequest, "Invalid JSON in request body")
		return false
	}

	if err := validate.Struct(target); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			httpx.WriteError(w, http.StatusBadRequest, licsdk.ErrorCodeInvalidRequest,
				"Field '"+fe.Field()+"' failed validation on '"+fe.Tag()+"'")
			return false
		}
		httpx.WriteError(w, http.StatusBadRequest,
			licsdk.ErrorCodeInvalidRequest, "Request failed validation")
		return false
	}

	return true
}

// writeServiceError translates service layer failures into the standard
// error envelope. Unknown errors are logged and flattened to a 500 so no
// internal detail leaks.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	var invalid *service.InvalidInputError
	if errors.As(err, &invalid) {
		httpx.WriteError(w, http.StatusBadRequest, licsdk.ErrorCodeInvalidRequest, invalid.Error())
		return
	}

	var precondition *service.WorkflowPreconditionError
	if errors.As(err, &precondition) {
		httpx.WriteError(w, http.StatusConflict, licsdk.ErrorCodePreconditionFailed, precondition.Error())
		return
	}

	switch {
	case errors.Is(err, service.ErrKeyNotFound),
		errors.Is(err, service.ErrLicenseNotFound),
		errors.Is(err, service.ErrDocumentNotFound):
		httpx.WriteError(w, http.StatusNotFound, licsdk.ErrorCodeNotFound, err.Error())
	case errors.Is(err, service.ErrDuplicateKey):
		httpx.WriteError(w, http.StatusConflict, licsdk.ErrorCodeConflict, err.Error())
	case errors.Is(err, service.ErrNoActiveSigningKey):
		httpx.WriteError(w, http.StatusConflict, licsdk.ErrorCodeNoSigningKey, err.Error())
	case errors.Is(err, service.ErrInvalidCertificate):
		httpx.WriteError(w, http.StatusBadRequest, licsdk.ErrorCodeInvalidRequest, err.Error())
	default:
		log.Error("request failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, licsdk.ErrorCodeServerError, "Internal server error")
	}
}
