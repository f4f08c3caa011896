package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/streamvault/streamvault-backend/api/responses"
	"github.com/streamvault/streamvault-backend/internal/invoices"
	"github.com/streamvault/streamvault-backend/pkg/db/models"
	pkgerrors "github.com/streamvault/streamvault-backend/pkg/errors"
	"github.com/streamvault/streamvault-backend/pkg/logger"
	"github.com/streamvault/streamvault-backend/pkg/pagination"
)

// InvoiceService describes the invoice methods used by the HTTP controllers.
type InvoiceService interface {
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Invoice, *pagination.Cursor, error)
	List(ctx context.Context, query invoices.ListInvoicesQuery) ([]models.Invoice, *pagination.Cursor, error)
	FindForUser(ctx context.Context, userID, invoiceID uuid.UUID) (*models.Invoice, error)
}

type invoiceResponse struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Amount      string `json:"amount"`
	Status      string `json:"status"`
	Description string `json:"description"`
	InvoiceDate string `json:"invoice_date"`
	DueDate     string `json:"due_date"`
	CreatedAt   string `json:"created_at"`
}

type invoiceListResponse struct {
	Invoices   []invoiceResponse `json:"invoices"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// InvoicesList returns the caller's billing history, newest first.
func InvoicesList(svc InvoiceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		records, cursor, err := svc.ListForUser(ctx, userID, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, buildInvoiceList(records, cursor))
	}
}

// InvoiceDetail returns one invoice when it belongs to the caller.
func InvoiceDetail(svc InvoiceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		invoiceID, err := pathUUID(r, "invoiceId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		invoice, err := svc.FindForUser(ctx, userID, invoiceID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, invoiceToResponse(invoice))
	}
}

func AdminInvoicesList(svc InvoiceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var userID *uuid.UUID
		if raw := strings.TrimSpace(r.URL.Query().Get("user_id")); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user_id"))
				return
			}
			userID = &parsed
		}

		records, cursor, err := svc.List(ctx, invoices.ListInvoicesQuery{
			UserID:     userID,
			Pagination: params,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, buildInvoiceList(records, cursor))
	}
}

func buildInvoiceList(records []models.Invoice, cursor *pagination.Cursor) invoiceListResponse {
	result := invoiceListResponse{
		Invoices:   make([]invoiceResponse, 0, len(records)),
		NextCursor: nextCursor(cursor),
	}
	for _, invoice := range records {
		result.Invoices = append(result.Invoices, invoiceToResponse(&invoice))
	}
	return result
}

func invoiceToResponse(invoice *models.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:          invoice.ID.String(),
		UserID:      invoice.UserID.String(),
		Amount:      invoice.Amount.StringFixed(2),
		Status:      string(invoice.Status),
		Description: invoice.Description,
		InvoiceDate: invoice.InvoiceDate.UTC().Format(time.RFC3339),
		DueDate:     invoice.DueDate.UTC().Format(time.RFC3339),
		CreatedAt:   invoice.CreatedAt.UTC().Format(time.RFC3339),
	}
}
