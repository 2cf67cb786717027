package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/lockboxlabs/licenser/internal/licenser/domain"
	"github.com/lockboxlabs/licenser/internal/licenser/store"
)

// DirectoryService manages the master data licenses refer to: the
// applications that can be licensed and the customers they are licensed
// to.
type DirectoryService struct {
	Store  store.Store
	Logger *slog.Logger
}

// RegisterApplication records a licensable application.
func (s *DirectoryService) RegisterApplication(ctx context.Context, id, name, publisher, version string) error {
	if strings.TrimSpace(id) == "" {
		return invalidInput("id", "must not be empty")
	}
	if strings.TrimSpace(name) == "" {
		return invalidInput("name", "must not be empty")
	}

	err := s.Store.Applications().CreateApplication(ctx, domain.Application{
		ID:        id,
		Name:      name,
		Publisher: publisher,
		Version:   version,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return invalidInput("id", "application already registered")
		}
		return err
	}

	s.Logger.Info("application registered", "app_id", id, "name", name)
	return nil
}

// GetApplication returns one application by id.
func (s *DirectoryService) GetApplication(ctx context.Context, id string) (domain.Application, error) {
	app, err := s.Store.Applications().GetApplication(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Application{}, invalidInput("id", "unknown application")
		}
		return domain.Application{}, err
	}
	return app, nil
}

// ListApplications returns all registered applications.
func (s *DirectoryService) ListApplications(ctx context.Context) ([]domain.Application, error) {
	return s.Store.Applications().ListApplications(ctx)
}

// RegisterCustomer records a customer master record.
func (s *DirectoryService) RegisterCustomer(ctx context.Context, no, name, contact string) error {
	if strings.TrimSpace(no) == "" {
		return invalidInput("no", "must not be empty")
	}
	if strings.TrimSpace(name) == "" {
		return invalidInput("name", "must not be empty")
	}

	err := s.Store.Customers().CreateCustomer(ctx, domain.Customer{
		No:        no,
		Name:      name,
		Contact:   contact,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return invalidInput("no", "customer already registered")
		}
		return err
	}

	s.Logger.Info("customer registered", "customer_no", no, "name", name)
	return nil
}

// GetCustomer returns one customer by number.
func (s *DirectoryService) GetCustomer(ctx context.Context, no string) (domain.Customer, error) {
	c, err := s.Store.Customers().GetCustomer(ctx, no)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Customer{}, invalidInput("no", "unknown customer")
		}
		return domain.Customer{}, err
	}
	return c, nil
}

// ListCustomers returns all customers.
func (s *DirectoryService) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.Store.Customers().ListCustomers(ctx)
}
