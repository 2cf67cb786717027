package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lockboxlabs/licenser/internal/licenser/domain"
)

type documentsRepo struct {
	db dbtx
}

// CreateDocument assigns the next sequence number inside the insert itself,
// so sqlite's single-writer locking arbitrates concurrent creations.
func (r *documentsRepo) CreateDocument(ctx context.Context, customerNo string, createdAt time.Time) (string, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO license_documents (no, customer_no, status, created_at)
		VALUES (
			printf('LIC-DOC-%06d', (SELECT COALESCE(MAX(seq), 0) + 1 FROM license_documents)),
			?, ?, ?
		)`,
		customerNo, string(domain.DocumentOpen), createdAt,
	)
	if err != nil {
		return "", mapConstraint(err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return "", err
	}

	var no string
	err = r.db.QueryRowContext(ctx, `
		SELECT no FROM license_documents WHERE seq = ?`, seq).Scan(&no)
	if err != nil {
		return "", fmt.Errorf("sqlite: failed to read back document no: %w", err)
	}
	return no, nil
}

func (r *documentsRepo) GetDocument(ctx context.Context, no string) (domain.LicenseDocument, error) {
	doc, err := r.scanHeader(r.db.QueryRowContext(ctx, `
		SELECT no, customer_no, status, created_at, released_at, released_by
		FROM license_documents WHERE no = ?`, no))
	if err != nil {
		return domain.LicenseDocument{}, err
	}

	lines, err := r.listLines(ctx, no)
	if err != nil {
		return domain.LicenseDocument{}, err
	}
	doc.Lines = lines
	return doc, nil
}

func (r *documentsRepo) ListDocuments(ctx context.Context) ([]domain.LicenseDocument, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT no, customer_no, status, created_at, released_at, released_by
		FROM license_documents ORDER BY seq DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []domain.LicenseDocument
	for rows.Next() {
		doc, err := r.scanHeader(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *documentsRepo) SetStatus(ctx context.Context, no string, status domain.DocumentStatus, releasedAt *time.Time, releasedBy string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE license_documents SET status = ?, released_at = ?, released_by = ?
		WHERE no = ?`,
		string(status), optionalTime(releasedAt), releasedBy, no)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *documentsRepo) AddLine(ctx context.Context, line domain.LicenseDocumentLine) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO license_document_lines
			(document_no, line_no, app_id, start_date, end_date, features, generated_license_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		line.DocumentNo, line.LineNo, line.AppID, line.StartDate, line.EndDate,
		joinList(line.Features), optionalString(line.GeneratedLicenseID),
	)
	return mapConstraint(err)
}

func (r *documentsRepo) UpdateLine(ctx context.Context, line domain.LicenseDocumentLine) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE license_document_lines
		SET app_id = ?, start_date = ?, end_date = ?, features = ?, generated_license_id = NULL
		WHERE document_no = ? AND line_no = ?`,
		line.AppID, line.StartDate, line.EndDate, joinList(line.Features),
		line.DocumentNo, line.LineNo)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *documentsRepo) DeleteLine(ctx context.Context, docNo string, lineNo int) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM license_document_lines WHERE document_no = ? AND line_no = ?`,
		docNo, lineNo)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *documentsRepo) SetLineLicense(ctx context.Context, docNo string, lineNo int, licenseID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE license_document_lines SET generated_license_id = ?
		WHERE document_no = ? AND line_no = ?`,
		licenseID, docNo, lineNo)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *documentsRepo) listLines(ctx context.Context, docNo string) ([]domain.LicenseDocumentLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT document_no, line_no, app_id, start_date, end_date, features, generated_license_id
		FROM license_document_lines WHERE document_no = ? ORDER BY line_no`, docNo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.LicenseDocumentLine
	for rows.Next() {
		var (
			line      domain.LicenseDocumentLine
			features  string
			licenseID sql.NullString
		)
		err := rows.Scan(&line.DocumentNo, &line.LineNo, &line.AppID,
			&line.StartDate, &line.EndDate, &features, &licenseID)
		if err != nil {
			return nil, err
		}
		line.Features = splitList(features)
		line.StartDate = line.StartDate.UTC()
		line.EndDate = line.EndDate.UTC()
		if licenseID.Valid {
			id := licenseID.String
			line.GeneratedLicenseID = &id
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *documentsRepo) scanHeader(row rowScanner) (domain.LicenseDocument, error) {
	var (
		doc        domain.LicenseDocument
		status     string
		releasedAt sql.NullTime
	)
	err := row.Scan(&doc.No, &doc.CustomerNo, &status, &doc.CreatedAt, &releasedAt, &doc.ReleasedBy)
	if err != nil {
		return domain.LicenseDocument{}, mapNotFound(err)
	}

	doc.Status = domain.DocumentStatus(status)
	if releasedAt.Valid {
		t := releasedAt.Time
		doc.ReleasedAt = &t
	}
	return doc, nil
}

func optionalString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
