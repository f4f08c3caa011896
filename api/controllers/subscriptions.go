package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/streamvault/streamvault-backend/api/responses"
	"github.com/streamvault/streamvault-backend/api/validators"
	"github.com/streamvault/streamvault-backend/internal/pricing"
	"github.com/streamvault/streamvault-backend/internal/subscriptions"
	"github.com/streamvault/streamvault-backend/pkg/db/models"
	"github.com/streamvault/streamvault-backend/pkg/enums"
	pkgerrors "github.com/streamvault/streamvault-backend/pkg/errors"
	"github.com/streamvault/streamvault-backend/pkg/logger"
	"github.com/streamvault/streamvault-backend/pkg/pagination"
)

// SubscriptionService describes the subscription methods used by the HTTP
// controllers.
type SubscriptionService interface {
	Preview(ctx context.Context, planID uuid.UUID, couponCode string) (pricing.Quote, error)
	ChangePlan(ctx context.Context, input subscriptions.ChangePlanInput) (*subscriptions.ChangePlanResult, error)
	Cancel(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	FindForUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	List(ctx context.Context, params pagination.Params) ([]models.Subscription, *pagination.Cursor, error)
	AdminOverride(ctx context.Context, id uuid.UUID, input subscriptions.AdminOverrideInput) (*models.Subscription, error)
}

type changePlanRequest struct {
	PlanID     string `json:"plan_id" validate:"required,uuid4"`
	CouponCode string `json:"coupon_code"`
}

type previewRequest struct {
	PlanID     string `json:"plan_id" validate:"required,uuid4"`
	CouponCode string `json:"coupon_code"`
}

type subscriptionResponse struct {
	ID              string `json:"id"`
	UserID          string `json:"user_id"`
	PlanID          string `json:"plan_id"`
	PlanName        string `json:"plan_name"`
	Price           string `json:"price"`
	Status          string `json:"status"`
	NextBillingDate string `json:"next_billing_date"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

type quoteResponse struct {
	BasePrice         string  `json:"base_price"`
	PromotionName     string  `json:"promotion_name,omitempty"`
	PromotionDiscount string  `json:"promotion_discount"`
	CouponCode        string  `json:"coupon_code,omitempty"`
	CouponDiscount    string  `json:"coupon_discount"`
	FinalPrice        string  `json:"final_price"`
	PromotionID       *string `json:"promotion_id,omitempty"`
	CouponID          *string `json:"coupon_id,omitempty"`
}

type changePlanResponse struct {
	Subscription subscriptionResponse `json:"subscription"`
	Invoice      invoiceResponse      `json:"invoice"`
	Quote        quoteResponse        `json:"quote"`
}

type subscriptionListResponse struct {
	Subscriptions []subscriptionResponse `json:"subscriptions"`
	NextCursor    string                 `json:"next_cursor,omitempty"`
}

type subscriptionOverrideRequest struct {
	Price           *string `json:"price"`
	Status          *string `json:"status"`
	NextBillingDate *string `json:"next_billing_date"`
}

// SubscriptionDetail returns the caller's subscription.
func SubscriptionDetail(svc SubscriptionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sub, err := svc.FindForUser(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, subscriptionToResponse(sub))
	}
}

// SubscriptionPreview prices a plan change without committing anything.
func SubscriptionPreview(svc SubscriptionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		var body previewRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		planID, err := uuid.Parse(strings.TrimSpace(body.PlanID))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid plan_id"))
			return
		}

		quote, err := svc.Preview(ctx, planID, body.CouponCode)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, quoteToResponse(quote))
	}
}

// SubscriptionChangePlan switches the caller onto a plan at the composed
// price.
func SubscriptionChangePlan(svc SubscriptionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body changePlanRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		planID, err := uuid.Parse(strings.TrimSpace(body.PlanID))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid plan_id"))
			return
		}

		result, err := svc.ChangePlan(ctx, subscriptions.ChangePlanInput{
			UserID:     userID,
			PlanID:     planID,
			CouponCode: body.CouponCode,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, changePlanResponse{
			Subscription: subscriptionToResponse(result.Subscription),
			Invoice:      invoiceToResponse(result.Invoice),
			Quote:        quoteToResponse(result.Quote),
		})
	}
}

// SubscriptionCancel marks the caller's subscription cancelled.
func SubscriptionCancel(svc SubscriptionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sub, err := svc.Cancel(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, subscriptionToResponse(sub))
	}
}

func AdminSubscriptionsList(svc SubscriptionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		subs, cursor, err := svc.List(ctx, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result := subscriptionListResponse{
			Subscriptions: make([]subscriptionResponse, 0, len(subs)),
			NextCursor:    nextCursor(cursor),
		}
		for _, sub := range subs {
			result.Subscriptions = append(result.Subscriptions, subscriptionToResponse(&sub))
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminSubscriptionUpdate applies a manual price, status, or billing date
// override.
func AdminSubscriptionUpdate(svc SubscriptionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		subID, err := pathUUID(r, "subscriptionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body subscriptionOverrideRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var input subscriptions.AdminOverrideInput
		if body.Price != nil {
			price, err := parsePrice(*body.Price)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.Price = &price
		}
		if body.Status != nil {
			status, err := enums.ParseSubscriptionStatus(strings.TrimSpace(*body.Status))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Status = &status
		}
		if body.NextBillingDate != nil {
			input.NextBillingDate, err = parseOptionalTime(body.NextBillingDate, "next_billing_date")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}

		sub, err := svc.AdminOverride(ctx, subID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, subscriptionToResponse(sub))
	}
}

func subscriptionToResponse(sub *models.Subscription) subscriptionResponse {
	return subscriptionResponse{
		ID:              sub.ID.String(),
		UserID:          sub.UserID.String(),
		PlanID:          sub.PlanID.String(),
		PlanName:        sub.PlanName,
		Price:           sub.Price.StringFixed(2),
		Status:          string(sub.Status),
		NextBillingDate: sub.NextBillingDate.UTC().Format(time.RFC3339),
		CreatedAt:       sub.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       sub.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func quoteToResponse(quote pricing.Quote) quoteResponse {
	resp := quoteResponse{
		BasePrice:         quote.BasePrice.StringFixed(2),
		PromotionName:     quote.PromotionName,
		PromotionDiscount: quote.PromotionDiscount.StringFixed(2),
		CouponCode:        quote.CouponCode,
		CouponDiscount:    quote.CouponDiscount.StringFixed(2),
		FinalPrice:        quote.FinalPrice.StringFixed(2),
	}
	if quote.PromotionID != nil {
		id := quote.PromotionID.String()
		resp.PromotionID = &id
	}
	if quote.CouponID != nil {
		id := quote.CouponID.String()
		resp.CouponID = &id
	}
	return resp
}
