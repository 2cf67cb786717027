package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lockboxlabs/licenser/internal/licenser/domain"
	"github.com/lockboxlabs/licenser/internal/licenser/metrics"
	"github.com/lockboxlabs/licenser/internal/licenser/store"
	"github.com/lockboxlabs/licenser/pkg/cryptox"
	"github.com/lockboxlabs/licenser/pkg/idx"
	"github.com/lockboxlabs/licenser/pkg/licfile"
)

// LicenseService signs new licenses and proves whether stored ones are
// authentic and unmodified. Signing and validation share one canonical
// payload codec (pkg/licfile), so the two sides can never drift.
type LicenseService struct {
	Store  store.Store
	Keys   *KeyService
	Logger *slog.Logger

	// Issuer is the iss claim on exported license tokens.
	Issuer string
}

// GenerateRequest carries the semantic license fields. Everything here ends
// up under the signature.
type GenerateRequest struct {
	AppID        string
	CustomerName string
	ValidFrom    time.Time
	ValidTo      time.Time
	Features     []string
}

// ValidateResult is the outcome of a validation run. Valid reports
// integrity only; entitlement callers must also consult EffectiveStatus.
type ValidateResult struct {
	Valid           bool
	Result          string
	EffectiveStatus domain.LicenseStatus
}

// Generate validates the request, signs the canonical payload with the
// active signing key and persists the license. All-or-nothing: a failure at
// any step leaves no partial record behind.
func (s *LicenseService) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	var licenseID string
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		id, err := s.GenerateIn(ctx, tx, req)
		if err != nil {
			return err
		}
		licenseID = id
		return nil
	})
	if err != nil {
		return "", err
	}
	return licenseID, nil
}

// GenerateIn runs license generation against an explicit store, so document
// release can sign many lines inside a single transaction.
func (s *LicenseService) GenerateIn(ctx context.Context, st store.Store, req GenerateRequest) (string, error) {
	if err := s.validateRequest(ctx, st, req); err != nil {
		return "", err
	}

	key, err := s.Keys.ActiveSigningKeyIn(ctx, st)
	if err != nil {
		return "", err
	}

	privatePEM, err := s.Keys.SigningMaterial(key)
	if err != nil {
		return "", err
	}

	validFrom := domain.DateOnly(req.ValidFrom)
	validTo := domain.DateOnly(req.ValidTo)
	features := licfile.NormalizeFeatures(req.Features)

	payload, err := licfile.EncodePayload(licfile.Fields{
		AppID:        req.AppID,
		CustomerName: req.CustomerName,
		ValidFrom:    validFrom,
		ValidTo:      validTo,
		Features:     features,
		SigningKeyID: key.ID,
	})
	if err != nil {
		return "", err
	}

	signature, err := cryptox.Sign(privatePEM, payload)
	if err != nil {
		return "", fmt.Errorf("failed to sign license payload: %w", err)
	}

	lic := domain.License{
		ID:           idx.New().String(),
		AppID:        req.AppID,
		CustomerName: req.CustomerName,
		ValidFrom:    validFrom,
		ValidTo:      validTo,
		Features:     features,
		SigningKeyID: key.ID,
		Signature:    signature,
		Status:       domain.LicenseActive,
		CreatedAt:    time.Now().UTC(),
	}

	if err := st.Licenses().CreateLicense(ctx, lic); err != nil {
		return "", err
	}

	metrics.LicensesIssued.Inc()
	s.Logger.Info("license generated",
		"license_id", lic.ID, "app_id", lic.AppID, "customer", lic.CustomerName,
		"signing_key_id", key.ID)
	return lic.ID, nil
}

// Validate rebuilds the canonical payload from the stored fields, verifies
// the signature with the signer's public key and projects the effective
// status. Every run stamps LastValidated and a short diagnostic on the
// record; last-writer-wins between concurrent validations is fine for
// these audit fields.
func (s *LicenseService) Validate(ctx context.Context, licenseID string) (ValidateResult, error) {
	lic, err := s.getLicense(ctx, licenseID)
	if err != nil {
		return ValidateResult{}, err
	}

	now := time.Now().UTC()

	payload, err := licfile.EncodePayload(licfile.Fields{
		AppID:        lic.AppID,
		CustomerName: lic.CustomerName,
		ValidFrom:    lic.ValidFrom,
		ValidTo:      lic.ValidTo,
		Features:     lic.Features,
		SigningKeyID: lic.SigningKeyID,
	})
	if err != nil {
		return ValidateResult{}, err
	}

	publicPEM, err := s.Keys.PublicKeyIn(ctx, s.Store, lic.SigningKeyID)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			s.record(ctx, lic.ID, now, domain.ResultKeyNotFound)
			return ValidateResult{}, ErrKeyNotFound
		}
		return ValidateResult{}, err
	}

	if err := cryptox.Verify(publicPEM, payload, lic.Signature); err != nil {
		if errors.Is(err, cryptox.ErrSignatureMismatch) {
			// Tamper detected. Permanent: the stored fields no longer match
			// what was signed.
			s.record(ctx, lic.ID, now, domain.ResultSignatureMismatch)
			if uerr := s.Store.Licenses().UpdateStatus(ctx, lic.ID, domain.LicenseInvalid); uerr != nil {
				return ValidateResult{}, uerr
			}
			s.Logger.Warn("license failed integrity check", "license_id", lic.ID)
			return ValidateResult{
				Valid:           false,
				Result:          domain.ResultSignatureMismatch,
				EffectiveStatus: domain.LicenseInvalid,
			}, nil
		}
		return ValidateResult{}, err
	}

	effective := lic.EffectiveStatus(now)
	result := domain.ResultValid
	switch effective {
	case domain.LicenseRevoked:
		result = domain.ResultRevoked
	case domain.LicenseSuspended:
		result = domain.ResultSuspended
	case domain.LicenseExpired:
		result = domain.ResultExpired
	}

	s.record(ctx, lic.ID, now, result)

	// The boolean communicates integrity: an intact but expired, suspended
	// or revoked license still verified correctly.
	return ValidateResult{Valid: true, Result: result, EffectiveStatus: effective}, nil
}

// Revoke sets the terminal revoked status unconditionally. There is no
// un-revoke.
func (s *LicenseService) Revoke(ctx context.Context, licenseID string) error {
	if _, err := s.getLicense(ctx, licenseID); err != nil {
		return err
	}

	if err := s.Store.Licenses().UpdateStatus(ctx, licenseID, domain.LicenseRevoked); err != nil {
		return err
	}
	s.Logger.Info("license revoked", "license_id", licenseID)
	return nil
}

// Suspend pauses an active license. Revoked and invalid licenses stay
// where they are.
func (s *LicenseService) Suspend(ctx context.Context, licenseID string) error {
	lic, err := s.getLicense(ctx, licenseID)
	if err != nil {
		return err
	}
	if lic.Status != domain.LicenseActive {
		return workflowPrecondition("cannot suspend a license in status %s", lic.Status)
	}
	return s.Store.Licenses().UpdateStatus(ctx, licenseID, domain.LicenseSuspended)
}

// Resume lifts a suspension. Only suspended licenses can be resumed.
func (s *LicenseService) Resume(ctx context.Context, licenseID string) error {
	lic, err := s.getLicense(ctx, licenseID)
	if err != nil {
		return err
	}
	if lic.Status != domain.LicenseSuspended {
		return workflowPrecondition("cannot resume a license in status %s", lic.Status)
	}
	return s.Store.Licenses().UpdateStatus(ctx, licenseID, domain.LicenseActive)
}

// Get returns a license by id.
func (s *LicenseService) Get(ctx context.Context, licenseID string) (domain.License, error) {
	return s.getLicense(ctx, licenseID)
}

// List returns all licenses, newest first.
func (s *LicenseService) List(ctx context.Context) ([]domain.License, error) {
	return s.Store.Licenses().ListLicenses(ctx)
}

// Export renders the license as a portable text artifact with a
// deterministic filename. The file round-trips: parsing it back rebuilds
// the byte-identical payload the signature was computed over.
func (s *LicenseService) Export(ctx context.Context, licenseID string) (string, []byte, error) {
	lic, err := s.getLicense(ctx, licenseID)
	if err != nil {
		return "", nil, err
	}

	file := &licfile.File{
		LicenseID: lic.ID,
		Fields: licfile.Fields{
			AppID:        lic.AppID,
			CustomerName: lic.CustomerName,
			ValidFrom:    lic.ValidFrom,
			ValidTo:      lic.ValidTo,
			Features:     lic.Features,
			SigningKeyID: lic.SigningKeyID,
		},
		Signature: lic.Signature,
	}

	data, err := file.Marshal()
	if err != nil {
		return "", nil, err
	}

	return licfile.Filename(lic.CustomerName, lic.ValidTo), data, nil
}

// ExportToken renders the license as a compact signed JWT whose kid header
// names the signing key, verifiable offline via pkg/licfile.
func (s *LicenseService) ExportToken(ctx context.Context, licenseID string) (string, error) {
	lic, err := s.getLicense(ctx, licenseID)
	if err != nil {
		return "", err
	}

	key, err := s.Store.CryptoKeys().GetKey(ctx, lic.SigningKeyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrKeyNotFound
		}
		return "", err
	}

	privatePEM, err := s.Keys.SigningMaterial(key)
	if err != nil {
		return "", err
	}
	signer, err := cryptox.ParsePrivateKey(privatePEM)
	if err != nil {
		return "", err
	}

	method, err := signingMethodFor(key.Algorithm)
	if err != nil {
		return "", err
	}

	claims := licfile.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:  s.Issuer,
			Subject: lic.ID,
			// ValidTo is inclusive, so the token survives until the end of
			// that day.
			ExpiresAt: jwt.NewNumericDate(lic.ValidTo.AddDate(0, 0, 1)),
			NotBefore: jwt.NewNumericDate(lic.ValidFrom),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
		},
		AppID:    lic.AppID,
		Customer: lic.CustomerName,
		Features: lic.Features,
	}

	token := jwt.NewWithClaims(method, claims)
	token.Header["kid"] = key.ID

	signed, err := token.SignedString(signer)
	if err != nil {
		return "", fmt.Errorf("failed to sign license token: %w", err)
	}
	return signed, nil
}

func (s *LicenseService) getLicense(ctx context.Context, licenseID string) (domain.License, error) {
	lic, err := s.Store.Licenses().GetLicense(ctx, licenseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.License{}, ErrLicenseNotFound
		}
		return domain.License{}, err
	}
	return lic, nil
}

func (s *LicenseService) record(ctx context.Context, licenseID string, at time.Time, result string) {
	metrics.Validations.WithLabelValues(result).Inc()
	if err := s.Store.Licenses().RecordValidation(ctx, licenseID, at, result); err != nil {
		s.Logger.Error("failed to record validation result",
			"license_id", licenseID, "result", result, "error", err)
	}
}

func (s *LicenseService) validateRequest(ctx context.Context, st store.Store, req GenerateRequest) error {
	if strings.TrimSpace(req.AppID) == "" {
		return invalidInput("appId", "must not be empty")
	}
	if strings.ContainsFunc(req.AppID, unicode.IsControl) {
		return invalidInput("appId", "must not contain control characters")
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		return invalidInput("customerName", "must not be empty")
	}
	// The export artifact is line-oriented, so a name with embedded
	// control characters would produce a file that never parses back.
	if strings.ContainsFunc(req.CustomerName, unicode.IsControl) {
		return invalidInput("customerName", "must not contain control characters")
	}
	if req.ValidFrom.IsZero() {
		return invalidInput("validFrom", "must be set")
	}
	if req.ValidTo.IsZero() {
		return invalidInput("validTo", "must be set")
	}
	if domain.DateOnly(req.ValidFrom).After(domain.DateOnly(req.ValidTo)) {
		return invalidInput("validFrom", "must not be after validTo")
	}
	// Policy check, not a crypto invariant: we don't issue licenses that
	// are already expired.
	if domain.DateOnly(req.ValidTo).Before(domain.DateOnly(time.Now().UTC())) {
		return invalidInput("validTo", "must not be in the past")
	}
	for _, feature := range req.Features {
		if strings.Contains(feature, ",") || strings.ContainsFunc(feature, unicode.IsControl) {
			return invalidInput("features", fmt.Sprintf("feature %q must not contain commas or control characters", feature))
		}
	}

	// Licenses bind a real application from the directory.
	if _, err := st.Applications().GetApplication(ctx, req.AppID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return invalidInput("appId", fmt.Sprintf("unknown application %q", req.AppID))
		}
		return err
	}

	return nil
}

func signingMethodFor(algorithm string) (jwt.SigningMethod, error) {
	switch algorithm {
	case domain.AlgorithmRSA2048, domain.AlgorithmRSA4096:
		return jwt.SigningMethodRS256, nil
	case domain.AlgorithmECDSAP256:
		return jwt.SigningMethodES256, nil
	case domain.AlgorithmEd25519:
		return jwt.SigningMethodEdDSA, nil
	default:
		return nil, fmt.Errorf("unsupported signing algorithm: %s", algorithm)
	}
}
