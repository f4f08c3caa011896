package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/streamvault/streamvault-backend/api/responses"
	"github.com/streamvault/streamvault-backend/api/validators"
	"github.com/streamvault/streamvault-backend/pkg/db/models"
	pkgerrors "github.com/streamvault/streamvault-backend/pkg/errors"
	"github.com/streamvault/streamvault-backend/pkg/logger"
	"github.com/streamvault/streamvault-backend/pkg/pagination"
)

// PromotionService describes the promotion methods used by the HTTP controllers.
type PromotionService interface {
	Current(ctx context.Context, now time.Time) (*models.Promotion, error)
	Find(ctx context.Context, id uuid.UUID) (*models.Promotion, error)
	List(ctx context.Context, params pagination.Params) ([]models.Promotion, *pagination.Cursor, error)
	Create(ctx context.Context, promo *models.Promotion) error
	Update(ctx context.Context, promo *models.Promotion) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type promotionResponse struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Description        string  `json:"description,omitempty"`
	DiscountPercentage *string `json:"discount_percentage,omitempty"`
	DiscountAmount     *string `json:"discount_amount,omitempty"`
	Active             bool    `json:"active"`
	StartsAt           *string `json:"starts_at,omitempty"`
	EndsAt             *string `json:"ends_at,omitempty"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}

type promotionListResponse struct {
	Promotions []promotionResponse `json:"promotions"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

type promotionUpsertRequest struct {
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	DiscountPercentage *string `json:"discount_percentage"`
	DiscountAmount     *string `json:"discount_amount"`
	Active             *bool   `json:"active"`
	StartsAt           *string `json:"starts_at"`
	EndsAt             *string `json:"ends_at"`
}

// PromotionCurrent exposes the live promotion so the storefront can banner it.
// Responds 200 with a null promotion when nothing is live.
func PromotionCurrent(svc PromotionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotion service unavailable"))
			return
		}

		promo, err := svc.Current(ctx, time.Now().UTC())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if promo == nil {
			responses.WriteSuccess(w, map[string]any{"promotion": nil})
			return
		}
		responses.WriteSuccess(w, map[string]any{"promotion": promotionToResponse(promo)})
	}
}

func AdminPromotionsList(svc PromotionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotion service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		promos, cursor, err := svc.List(ctx, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result := promotionListResponse{
			Promotions: make([]promotionResponse, 0, len(promos)),
			NextCursor: nextCursor(cursor),
		}
		for _, promo := range promos {
			result.Promotions = append(result.Promotions, promotionToResponse(&promo))
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminPromotionCreate(svc PromotionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotion service unavailable"))
			return
		}

		var payload promotionUpsertRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		promo, err := buildPromotionFromRequest(payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Create(ctx, promo); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, promotionToResponse(promo))
	}
}

func AdminPromotionUpdate(svc PromotionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotion service unavailable"))
			return
		}

		promoID, err := pathUUID(r, "promotionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		existing, err := svc.Find(ctx, promoID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload promotionUpsertRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		promo, err := buildPromotionFromRequest(payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		promo.ID = existing.ID
		promo.CreatedAt = existing.CreatedAt
		if err := svc.Update(ctx, promo); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, promotionToResponse(promo))
	}
}

func AdminPromotionDelete(svc PromotionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotion service unavailable"))
			return
		}

		promoID, err := pathUUID(r, "promotionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Delete(ctx, promoID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func promotionToResponse(promo *models.Promotion) promotionResponse {
	return promotionResponse{
		ID:                 promo.ID.String(),
		Name:               promo.Name,
		Description:        promo.Description,
		DiscountPercentage: decimalString(promo.DiscountPercentage),
		DiscountAmount:     decimalString(promo.DiscountAmount),
		Active:             promo.Active,
		StartsAt:           timeString(promo.StartsAt),
		EndsAt:             timeString(promo.EndsAt),
		CreatedAt:          promo.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          promo.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func buildPromotionFromRequest(payload promotionUpsertRequest) (*models.Promotion, error) {
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	percentage, amount, err := parseDiscountPair(payload.DiscountPercentage, payload.DiscountAmount)
	if err != nil {
		return nil, err
	}

	startsAt, err := parseOptionalTime(payload.StartsAt, "starts_at")
	if err != nil {
		return nil, err
	}
	endsAt, err := parseOptionalTime(payload.EndsAt, "ends_at")
	if err != nil {
		return nil, err
	}
	if startsAt != nil && endsAt != nil && endsAt.Before(*startsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ends_at must not precede starts_at")
	}

	return &models.Promotion{
		Name:               name,
		Description:        strings.TrimSpace(payload.Description),
		DiscountPercentage: percentage,
		DiscountAmount:     amount,
		Active:             boolValue(payload.Active, false),
		StartsAt:           startsAt,
		EndsAt:             endsAt,
	}, nil
}

// parseDiscountPair enforces the single-discount rule shared by promotions
// and coupons: exactly one of percentage or amount.
func parseDiscountPair(percentageRaw, amountRaw *string) (*decimal.Decimal, *decimal.Decimal, error) {
	percentage, err := parseOptionalDecimal(percentageRaw, "discount_percentage")
	if err != nil {
		return nil, nil, err
	}
	amount, err := parseOptionalDecimal(amountRaw, "discount_amount")
	if err != nil {
		return nil, nil, err
	}

	if percentage != nil && amount != nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "set either discount_percentage or discount_amount, not both")
	}
	if percentage == nil && amount == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "a discount_percentage or discount_amount is required")
	}
	if percentage != nil && percentage.GreaterThan(decimal.NewFromInt(100)) {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "discount_percentage must not exceed 100")
	}
	return percentage, amount, nil
}

func parseOptionalDecimal(raw *string, field string) (*decimal.Decimal, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	if value.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, field+" must be non-negative")
	}
	return &value, nil
}

func parseOptionalTime(raw *string, field string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	utc := t.UTC()
	return &utc, nil
}

func decimalString(value *decimal.Decimal) *string {
	if value == nil {
		return nil
	}
	s := value.StringFixed(2)
	return &s
}

func timeString(value *time.Time) *string {
	if value == nil {
		return nil
	}
	s := value.UTC().Format(time.RFC3339)
	return &s
}

func boolValue(ptr *bool, fallback bool) bool {
	if ptr == nil {
		return fallback
	}
	return *ptr
}
