package service

import (
	"errors"
	"fmt"
)

// Typed failures surfaced by the licensing core. Handlers map these onto
// HTTP status codes; none of them ever carries private key material.
var (
	// ErrDuplicateKey reports a key id that already exists.
	ErrDuplicateKey = errors.New("key id already exists")

	// ErrKeyNotFound reports a missing key record.
	ErrKeyNotFound = errors.New("key not found")

	// ErrNoActiveSigningKey reports that no usable signing key exists.
	ErrNoActiveSigningKey = errors.New("no active signing key available")

	// ErrInvalidCertificate reports a malformed PKCS#12 container or a
	// wrong password.
	ErrInvalidCertificate = errors.New("invalid certificate")

	// ErrLicenseNotFound reports a missing license record.
	ErrLicenseNotFound = errors.New("license not found")

	// ErrDocumentNotFound reports a missing license document.
	ErrDocumentNotFound = errors.New("license document not found")
)

// InvalidInputError names the offending field of a rejected request.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input in field %q: %s", e.Field, e.Reason)
}

func invalidInput(field, reason string) error {
	return &InvalidInputError{Field: field, Reason: reason}
}

// WorkflowPreconditionError reports a document workflow transition rejected
// against the current state.
type WorkflowPreconditionError struct {
	Reason string
}

func (e *WorkflowPreconditionError) Error() string {
	return fmt.Sprintf("workflow precondition failed: %s", e.Reason)
}

func workflowPrecondition(format string, args ...any) error {
	return &WorkflowPreconditionError{Reason: fmt.Sprintf(format, args...)}
}
