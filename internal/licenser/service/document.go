package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lockboxlabs/licenser/internal/licenser/domain"
	"github.com/lockboxlabs/licenser/internal/licenser/metrics"
	"github.com/lockboxlabs/licenser/internal/licenser/store"
	"github.com/lockboxlabs/licenser/pkg/licfile"
)

// DocumentService runs the license document workflow: draft a batch of
// license lines under one header, then release the whole batch atomically.
// Release delegates the actual signing to LicenseService inside a single
// transaction, so a batch either yields every license or none.
type DocumentService struct {
	Store    store.Store
	Licenses *LicenseService
	Logger   *slog.Logger
}

// LineInput carries the editable fields of a document line.
type LineInput struct {
	AppID     string
	StartDate time.Time
	EndDate   time.Time
	Features  []string
}

// Create opens a new empty document for a known customer and returns its
// sequence-assigned number.
func (s *DocumentService) Create(ctx context.Context, customerNo string) (string, error) {
	if strings.TrimSpace(customerNo) == "" {
		return "", invalidInput("customerNo", "must not be empty")
	}
	if _, err := s.Store.Customers().GetCustomer(ctx, customerNo); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", invalidInput("customerNo", fmt.Sprintf("unknown customer %q", customerNo))
		}
		return "", err
	}

	no, err := s.Store.Documents().CreateDocument(ctx, customerNo, time.Now().UTC())
	if err != nil {
		return "", err
	}

	s.Logger.Info("license document created", "document_no", no, "customer_no", customerNo)
	return no, nil
}

// AddLine appends a line to an open document and returns its assigned line
// number. Lines are spaced by a fixed step so manual inserts between
// existing lines stay possible.
func (s *DocumentService) AddLine(ctx context.Context, docNo string, in LineInput) (int, error) {
	if err := s.validateLine(ctx, in); err != nil {
		return 0, err
	}

	doc, err := s.getDocument(ctx, docNo)
	if err != nil {
		return 0, err
	}
	if doc.Status != domain.DocumentOpen {
		return 0, workflowPrecondition("lines can only be added while the document is open, not %s", doc.Status)
	}

	line := domain.LicenseDocumentLine{
		DocumentNo: doc.No,
		LineNo:     doc.NextLineNo(),
		AppID:      in.AppID,
		StartDate:  domain.DateOnly(in.StartDate),
		EndDate:    domain.DateOnly(in.EndDate),
		Features:   licfile.NormalizeFeatures(in.Features),
	}
	if err := s.Store.Documents().AddLine(ctx, line); err != nil {
		return 0, err
	}
	return line.LineNo, nil
}

// UpdateLine replaces the editable fields of an existing line on an open
// document.
func (s *DocumentService) UpdateLine(ctx context.Context, docNo string, lineNo int, in LineInput) error {
	if err := s.validateLine(ctx, in); err != nil {
		return err
	}

	doc, err := s.getDocument(ctx, docNo)
	if err != nil {
		return err
	}
	if doc.Status != domain.DocumentOpen {
		return workflowPrecondition("lines can only be edited while the document is open, not %s", doc.Status)
	}
	if !hasLine(doc, lineNo) {
		return invalidInput("lineNo", fmt.Sprintf("no line %d on document %s", lineNo, docNo))
	}

	return s.Store.Documents().UpdateLine(ctx, domain.LicenseDocumentLine{
		DocumentNo: doc.No,
		LineNo:     lineNo,
		AppID:      in.AppID,
		StartDate:  domain.DateOnly(in.StartDate),
		EndDate:    domain.DateOnly(in.EndDate),
		Features:   licfile.NormalizeFeatures(in.Features),
	})
}

// DeleteLine removes a line from an open document.
func (s *DocumentService) DeleteLine(ctx context.Context, docNo string, lineNo int) error {
	doc, err := s.getDocument(ctx, docNo)
	if err != nil {
		return err
	}
	if doc.Status != domain.DocumentOpen {
		return workflowPrecondition("lines can only be deleted while the document is open, not %s", doc.Status)
	}
	if !hasLine(doc, lineNo) {
		return invalidInput("lineNo", fmt.Sprintf("no line %d on document %s", lineNo, docNo))
	}
	return s.Store.Documents().DeleteLine(ctx, docNo, lineNo)
}

// Release signs a license for every line that does not already carry one
// and flips the document to released, all inside a single transaction.
// Lines that kept their license through a reopen are left untouched. If
// any line fails to sign the whole release rolls back and the document
// stays open with no new licenses issued.
func (s *DocumentService) Release(ctx context.Context, docNo, actor string) error {
	now := time.Now().UTC()

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		doc, err := s.getDocumentIn(ctx, tx, docNo)
		if err != nil {
			return err
		}
		if doc.Status != domain.DocumentOpen {
			return workflowPrecondition("only open documents can be released, not %s", doc.Status)
		}
		if len(doc.Lines) == 0 {
			return workflowPrecondition("document %s has no lines to release", docNo)
		}

		customer, err := tx.Customers().GetCustomer(ctx, doc.CustomerNo)
		if err != nil {
			return err
		}

		for _, line := range doc.Lines {
			if line.GeneratedLicenseID != nil && *line.GeneratedLicenseID != "" {
				continue
			}
			licenseID, err := s.Licenses.GenerateIn(ctx, tx, GenerateRequest{
				AppID:        line.AppID,
				CustomerName: customer.Name,
				ValidFrom:    line.StartDate,
				ValidTo:      line.EndDate,
				Features:     line.Features,
			})
			if err != nil {
				return fmt.Errorf("line %d: %w", line.LineNo, err)
			}
			if err := tx.Documents().SetLineLicense(ctx, doc.No, line.LineNo, licenseID); err != nil {
				return err
			}
		}

		return tx.Documents().SetStatus(ctx, doc.No, domain.DocumentReleased, &now, actor)
	})
	if err != nil {
		return err
	}

	metrics.DocumentsReleased.Inc()
	s.Logger.Info("license document released", "document_no", docNo, "released_by", actor)
	return nil
}

// Reopen returns a released document to the open state for corrections.
// Already-issued licenses are left untouched and keep their lines;
// re-releasing only signs lines added since. Documents whose coverage
// window has lapsed stay closed.
func (s *DocumentService) Reopen(ctx context.Context, docNo string) error {
	doc, err := s.getDocument(ctx, docNo)
	if err != nil {
		return err
	}
	if doc.Status != domain.DocumentReleased {
		return workflowPrecondition("only released documents can be reopened, not %s", doc.Status)
	}
	if doc.EffectiveStatus(time.Now().UTC()) == domain.DocumentExpired {
		return workflowPrecondition("document %s has expired and cannot be reopened", docNo)
	}
	return s.Store.Documents().SetStatus(ctx, docNo, domain.DocumentOpen, nil, "")
}

// Archive retires a released document. Archived documents are read-only.
func (s *DocumentService) Archive(ctx context.Context, docNo string) error {
	doc, err := s.getDocument(ctx, docNo)
	if err != nil {
		return err
	}
	if doc.Status != domain.DocumentReleased {
		return workflowPrecondition("only released documents can be archived, not %s", doc.Status)
	}
	return s.Store.Documents().SetStatus(ctx, docNo, domain.DocumentArchived, doc.ReleasedAt, doc.ReleasedBy)
}

// Get returns a document with its lines.
func (s *DocumentService) Get(ctx context.Context, docNo string) (domain.LicenseDocument, error) {
	return s.getDocument(ctx, docNo)
}

// List returns all document headers, newest first.
func (s *DocumentService) List(ctx context.Context) ([]domain.LicenseDocument, error) {
	return s.Store.Documents().ListDocuments(ctx)
}

func (s *DocumentService) getDocument(ctx context.Context, docNo string) (domain.LicenseDocument, error) {
	return s.getDocumentIn(ctx, s.Store, docNo)
}

func (s *DocumentService) getDocumentIn(ctx context.Context, st store.Store, docNo string) (domain.LicenseDocument, error) {
	doc, err := st.Documents().GetDocument(ctx, docNo)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.LicenseDocument{}, ErrDocumentNotFound
		}
		return domain.LicenseDocument{}, err
	}
	return doc, nil
}

func (s *DocumentService) validateLine(ctx context.Context, in LineInput) error {
	if strings.TrimSpace(in.AppID) == "" {
		return invalidInput("appId", "must not be empty")
	}
	if in.StartDate.IsZero() {
		return invalidInput("startDate", "must be set")
	}
	if in.EndDate.IsZero() {
		return invalidInput("endDate", "must be set")
	}
	if domain.DateOnly(in.StartDate).After(domain.DateOnly(in.EndDate)) {
		return invalidInput("startDate", "must not be after endDate")
	}
	for _, feature := range in.Features {
		if strings.ContainsAny(feature, ",\n") {
			return invalidInput("features", fmt.Sprintf("feature %q must not contain commas or newlines", feature))
		}
	}
	if _, err := s.Store.Applications().GetApplication(ctx, in.AppID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return invalidInput("appId", fmt.Sprintf("unknown application %q", in.AppID))
		}
		return err
	}
	return nil
}

func hasLine(doc domain.LicenseDocument, lineNo int) bool {
	for _, line := range doc.Lines {
		if line.LineNo == lineNo {
			return true
		}
	}
	return false
}
