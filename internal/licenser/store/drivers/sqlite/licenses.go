package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/lockboxlabs/licenser/internal/licenser/domain"
)

type licensesRepo struct {
	db dbtx
}

const licenseColumns = `id, app_id, customer_name, valid_from, valid_to, features,
	signing_key_id, signature, status, created_at, last_validated, validation_result`

func (r *licensesRepo) CreateLicense(ctx context.Context, lic domain.License) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO licenses (`+licenseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lic.ID, lic.AppID, lic.CustomerName, lic.ValidFrom, lic.ValidTo, joinList(lic.Features),
		lic.SigningKeyID, lic.Signature, string(lic.Status), lic.CreatedAt,
		optionalTime(lic.LastValidated), lic.ValidationResult,
	)
	return mapConstraint(err)
}

func (r *licensesRepo) GetLicense(ctx context.Context, id string) (domain.License, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+licenseColumns+` FROM licenses WHERE id = ?`, id)
	return scanLicense(row)
}

func (r *licensesRepo) ListLicenses(ctx context.Context) ([]domain.License, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+licenseColumns+` FROM licenses ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var licenses []domain.License
	for rows.Next() {
		lic, err := scanLicense(rows)
		if err != nil {
			return nil, err
		}
		licenses = append(licenses, lic)
	}
	return licenses, rows.Err()
}

func (r *licensesRepo) UpdateStatus(ctx context.Context, id string, status domain.LicenseStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE licenses SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *licensesRepo) RecordValidation(ctx context.Context, id string, at time.Time, result string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE licenses SET last_validated = ?, validation_result = ? WHERE id = ?`,
		at, result, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func scanLicense(row rowScanner) (domain.License, error) {
	var (
		lic           domain.License
		features      string
		status        string
		lastValidated sql.NullTime
	)
	err := row.Scan(
		&lic.ID, &lic.AppID, &lic.CustomerName, &lic.ValidFrom, &lic.ValidTo, &features,
		&lic.SigningKeyID, &lic.Signature, &status, &lic.CreatedAt,
		&lastValidated, &lic.ValidationResult,
	)
	if err != nil {
		return domain.License{}, mapNotFound(err)
	}

	lic.Features = splitList(features)
	lic.Status = domain.LicenseStatus(status)
	lic.ValidFrom = lic.ValidFrom.UTC()
	lic.ValidTo = lic.ValidTo.UTC()
	if lastValidated.Valid {
		t := lastValidated.Time
		lic.LastValidated = &t
	}
	return lic, nil
}
