package sqlite

import (
	"context"

	"github.com/lockboxlabs/licenser/internal/licenser/domain"
)

type applicationsRepo struct {
	db dbtx
}

func (r *applicationsRepo) CreateApplication(ctx context.Context, app domain.Application) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO applications (id, name, publisher, version, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		app.ID, app.Name, app.Publisher, app.Version, app.CreatedAt)
	return mapConstraint(err)
}

func (r *applicationsRepo) GetApplication(ctx context.Context, id string) (domain.Application, error) {
	var app domain.Application
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, publisher, version, created_at FROM applications WHERE id = ?`, id).
		Scan(&app.ID, &app.Name, &app.Publisher, &app.Version, &app.CreatedAt)
	if err != nil {
		return domain.Application{}, mapNotFound(err)
	}
	return app, nil
}

func (r *applicationsRepo) ListApplications(ctx context.Context) ([]domain.Application, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, publisher, version, created_at FROM applications ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []domain.Application
	for rows.Next() {
		var app domain.Application
		if err := rows.Scan(&app.ID, &app.Name, &app.Publisher, &app.Version, &app.CreatedAt); err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

type customersRepo struct {
	db dbtx
}

func (r *customersRepo) CreateCustomer(ctx context.Context, c domain.Customer) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (no, name, contact, created_at) VALUES (?, ?, ?, ?)`,
		c.No, c.Name, c.Contact, c.CreatedAt)
	return mapConstraint(err)
}

func (r *customersRepo) GetCustomer(ctx context.Context, no string) (domain.Customer, error) {
	var c domain.Customer
	err := r.db.QueryRowContext(ctx, `
		SELECT no, name, contact, created_at FROM customers WHERE no = ?`, no).
		Scan(&c.No, &c.Name, &c.Contact, &c.CreatedAt)
	if err != nil {
		return domain.Customer{}, mapNotFound(err)
	}
	return c, nil
}

func (r *customersRepo) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT no, name, contact, created_at FROM customers ORDER BY no`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.No, &c.Name, &c.Contact, &c.CreatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}
