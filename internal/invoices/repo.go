package invoices

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/streamvault/streamvault-backend/pkg/db/models"
	"github.com/streamvault/streamvault-backend/pkg/pagination"
)

// Repository handles invoice persistence. Invoices are append-only; there is
// no update or delete path.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, invoice *models.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Invoice, *pagination.Cursor, error)
	List(ctx context.Context, params ListInvoicesQuery) ([]models.Invoice, *pagination.Cursor, error)
}

// ListInvoicesQuery configures admin invoice list queries.
type ListInvoicesQuery struct {
	UserID     *uuid.UUID
	Pagination pagination.Params
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an invoice repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&invoice).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Invoice, *pagination.Cursor, error) {
	return r.List(ctx, ListInvoicesQuery{UserID: &userID, Pagination: params})
}

func (r *repository) List(ctx context.Context, params ListInvoicesQuery) ([]models.Invoice, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Pagination.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Pagination.Limit))

	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}

	cursor, err := pagination.ParseCursor(params.Pagination.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var invoices []models.Invoice
	if err := query.Find(&invoices).Error; err != nil {
		return nil, nil, err
	}

	var next *pagination.Cursor
	if len(invoices) > limit {
		invoices = invoices[:limit]
		last := invoices[len(invoices)-1]
		next = &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return invoices, next, nil
}
