package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/streamvault/streamvault-backend/api/responses"
	"github.com/streamvault/streamvault-backend/api/validators"
	"github.com/streamvault/streamvault-backend/pkg/db/models"
	pkgerrors "github.com/streamvault/streamvault-backend/pkg/errors"
	"github.com/streamvault/streamvault-backend/pkg/logger"
	"github.com/streamvault/streamvault-backend/pkg/pagination"
)

// CouponService describes the coupon methods used by the HTTP controllers.
type CouponService interface {
	Validate(ctx context.Context, code string, now time.Time) (*models.Coupon, error)
	Find(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	List(ctx context.Context, params pagination.Params) ([]models.Coupon, *pagination.Cursor, error)
	Create(ctx context.Context, coupon *models.Coupon) error
	Update(ctx context.Context, coupon *models.Coupon) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type couponValidateRequest struct {
	Code string `json:"code" validate:"required"`
}

// couponValidateResponse is the customer-facing view. Usage counters stay
// private to admin screens.
type couponValidateResponse struct {
	Code               string  `json:"code"`
	Description        string  `json:"description,omitempty"`
	DiscountPercentage *string `json:"discount_percentage,omitempty"`
	DiscountAmount     *string `json:"discount_amount,omitempty"`
}

type couponResponse struct {
	ID                 string  `json:"id"`
	Code               string  `json:"code"`
	Description        string  `json:"description,omitempty"`
	DiscountPercentage *string `json:"discount_percentage,omitempty"`
	DiscountAmount     *string `json:"discount_amount,omitempty"`
	MaxUses            *int    `json:"max_uses,omitempty"`
	CurrentUses        int     `json:"current_uses"`
	Active             bool    `json:"active"`
	StartsAt           *string `json:"starts_at,omitempty"`
	EndsAt             *string `json:"ends_at,omitempty"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}

type couponListResponse struct {
	Coupons    []couponResponse `json:"coupons"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

type couponUpsertRequest struct {
	Code               string  `json:"code"`
	Description        string  `json:"description"`
	DiscountPercentage *string `json:"discount_percentage"`
	DiscountAmount     *string `json:"discount_amount"`
	MaxUses            *int    `json:"max_uses"`
	Active             *bool   `json:"active"`
	StartsAt           *string `json:"starts_at"`
	EndsAt             *string `json:"ends_at"`
}

// CouponValidate checks a code for the checkout screen without consuming a
// use. The real redemption happens inside the plan change.
func CouponValidate(svc CouponService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		var body couponValidateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		coupon, err := svc.Validate(ctx, body.Code, time.Now().UTC())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, couponValidateResponse{
			Code:               coupon.Code,
			Description:        coupon.Description,
			DiscountPercentage: decimalString(coupon.DiscountPercentage),
			DiscountAmount:     decimalString(coupon.DiscountAmount),
		})
	}
}

func AdminCouponsList(svc CouponService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		coupons, cursor, err := svc.List(ctx, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result := couponListResponse{
			Coupons:    make([]couponResponse, 0, len(coupons)),
			NextCursor: nextCursor(cursor),
		}
		for _, coupon := range coupons {
			result.Coupons = append(result.Coupons, couponToResponse(&coupon))
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminCouponCreate(svc CouponService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		var payload couponUpsertRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		coupon, err := buildCouponFromRequest(payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Create(ctx, coupon); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, couponToResponse(coupon))
	}
}

func AdminCouponUpdate(svc CouponService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		couponID, err := pathUUID(r, "couponId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		existing, err := svc.Find(ctx, couponID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload couponUpsertRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		coupon, err := buildCouponFromRequest(payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		coupon.ID = existing.ID
		coupon.CurrentUses = existing.CurrentUses
		coupon.CreatedAt = existing.CreatedAt
		if err := svc.Update(ctx, coupon); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, couponToResponse(coupon))
	}
}

func AdminCouponDelete(svc CouponService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		couponID, err := pathUUID(r, "couponId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Delete(ctx, couponID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func couponToResponse(coupon *models.Coupon) couponResponse {
	return couponResponse{
		ID:                 coupon.ID.String(),
		Code:               coupon.Code,
		Description:        coupon.Description,
		DiscountPercentage: decimalString(coupon.DiscountPercentage),
		DiscountAmount:     decimalString(coupon.DiscountAmount),
		MaxUses:            coupon.MaxUses,
		CurrentUses:        coupon.CurrentUses,
		Active:             coupon.Active,
		StartsAt:           timeString(coupon.StartsAt),
		EndsAt:             timeString(coupon.EndsAt),
		CreatedAt:          coupon.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          coupon.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func buildCouponFromRequest(payload couponUpsertRequest) (*models.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(payload.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}

	percentage, amount, err := parseDiscountPair(payload.DiscountPercentage, payload.DiscountAmount)
	if err != nil {
		return nil, err
	}

	if payload.MaxUses != nil && *payload.MaxUses < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max_uses must be positive")
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

	return &models.Coupon{
		Code:               code,
		Description:        strings.TrimSpace(payload.Description),
		DiscountPercentage: percentage,
		DiscountAmount:     amount,
		MaxUses:            payload.MaxUses,
		Active:             boolValue(payload.Active, false),
		StartsAt:           startsAt,
		EndsAt:             endsAt,
	}, nil
}
