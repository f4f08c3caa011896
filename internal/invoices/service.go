package invoices

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/streamvault/streamvault-backend/pkg/db/models"
	pkgerrors "github.com/streamvault/streamvault-backend/pkg/errors"
	"github.com/streamvault/streamvault-backend/pkg/pagination"
)

var ErrInvoiceNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")

// ServiceParams groups dependencies for the invoice service.
type ServiceParams struct {
	Repo Repository
}

// Service exposes invoice history reads. Invoice writes happen inside the
// subscription and billing transactions, not here.
type Service struct {
	repo Repository
}

// NewService builds an invoice service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	return &Service{repo: params.Repo}, nil
}

// ListForUser returns the user's billing history, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Invoice, *pagination.Cursor, error) {
	return s.repo.ListByUser(ctx, userID, params)
}

// List returns invoices across all users for admin screens.
func (s *Service) List(ctx context.Context, query ListInvoicesQuery) ([]models.Invoice, *pagination.Cursor, error) {
	return s.repo.List(ctx, query)
}

// FindForUser returns an invoice only when it belongs to the requesting user.
func (s *Service) FindForUser(ctx context.Context, userID, invoiceID uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil || invoice.UserID != userID {
		return nil, ErrInvoiceNotFound
	}
	return invoice, nil
}
