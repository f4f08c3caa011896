package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/streamvault/streamvault-backend/api/middleware"
	"github.com/streamvault/streamvault-backend/internal/pricing"
	"github.com/streamvault/streamvault-backend/internal/subscriptions"
	"github.com/streamvault/streamvault-backend/pkg/db/models"
	"github.com/streamvault/streamvault-backend/pkg/enums"
	"github.com/streamvault/streamvault-backend/pkg/logger"
	"github.com/streamvault/streamvault-backend/pkg/pagination"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func TestSubscriptionChangePlan(t *testing.T) {
	logg := testLogger()
	userID := uuid.New()
	planID := uuid.New()

	t.Run("missing user", func(t *testing.T) {
		body := strings.NewReader(`{"plan_id":"` + planID.String() + `"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/change-plan", body)
		rec := httptest.NewRecorder()
		SubscriptionChangePlan(&stubSubscriptionService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 when user missing, got %d", rec.Code)
		}
	})

	t.Run("invalid plan id", func(t *testing.T) {
		ctx := middleware.WithUserID(context.Background(), userID.String())
		body := strings.NewReader(`{"plan_id":"not-a-uuid"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/change-plan", body).WithContext(ctx)
		rec := httptest.NewRecorder()
		SubscriptionChangePlan(&stubSubscriptionService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for invalid plan id, got %d", rec.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		stub := &stubSubscriptionService{
			changeResult: &subscriptions.ChangePlanResult{
				Subscription: &models.Subscription{
					ID:              uuid.New(),
					UserID:          userID,
					PlanID:          planID,
					PlanName:        "Premium",
					Price:           decimal.RequireFromString("40"),
					Status:          enums.SubscriptionStatusActive,
					NextBillingDate: time.Now().AddDate(0, 1, 0),
				},
				Invoice: &models.Invoice{
					ID:     uuid.New(),
					UserID: userID,
					Amount: decimal.RequireFromString("40"),
					Status: enums.InvoiceStatusPaid,
				},
				Quote: pricing.Quote{
					BasePrice:  decimal.RequireFromString("100"),
					FinalPrice: decimal.RequireFromString("40"),
				},
			},
		}

		ctx := middleware.WithUserID(context.Background(), userID.String())
		body := strings.NewReader(`{"plan_id":"` + planID.String() + `","coupon_code":"welcome20"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/change-plan", body).WithContext(ctx)
		rec := httptest.NewRecorder()
		SubscriptionChangePlan(stub, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 on success, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.changeInput.UserID != userID {
			t.Fatalf("expected user id to be forwarded")
		}
		if stub.changeInput.PlanID != planID {
			t.Fatalf("expected plan id to be forwarded")
		}
		if stub.changeInput.CouponCode != "welcome20" {
			t.Fatalf("expected coupon code to be forwarded, got %q", stub.changeInput.CouponCode)
		}

		var payload struct {
			Data changePlanResponse `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if payload.Data.Quote.FinalPrice != "40.00" {
			t.Fatalf("expected final price 40.00, got %q", payload.Data.Quote.FinalPrice)
		}
		if payload.Data.Subscription.PlanName != "Premium" {
			t.Fatalf("expected plan name in response, got %q", payload.Data.Subscription.PlanName)
		}
	})
}

func TestSubscriptionPreview(t *testing.T) {
	logg := testLogger()
	planID := uuid.New()

	stub := &stubSubscriptionService{
		quote: pricing.Quote{
			BasePrice:         decimal.RequireFromString("100"),
			PromotionDiscount: decimal.RequireFromString("50"),
			CouponDiscount:    decimal.RequireFromString("10"),
			FinalPrice:        decimal.RequireFromString("40"),
		},
	}

	body := strings.NewReader(`{"plan_id":"` + planID.String() + `","coupon_code":"WELCOME20"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pricing/preview", body)
	rec := httptest.NewRecorder()
	SubscriptionPreview(stub, logg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Data quoteResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Data.BasePrice != "100.00" || payload.Data.FinalPrice != "40.00" {
		t.Fatalf("unexpected quote breakdown: %+v", payload.Data)
	}
}

func TestAdminSubscriptionUpdate(t *testing.T) {
	logg := testLogger()
	subID := uuid.New()

	withSubID := func(req *http.Request) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("subscriptionId", subID.String())
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	t.Run("invalid status", func(t *testing.T) {
		body := strings.NewReader(`{"status":"paused"}`)
		req := withSubID(httptest.NewRequest(http.MethodPut, "/api/admin/v1/subscriptions/"+subID.String(), body))
		rec := httptest.NewRecorder()
		AdminSubscriptionUpdate(&stubSubscriptionService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
		}
	})

	t.Run("negative price", func(t *testing.T) {
		body := strings.NewReader(`{"price":"-5.00"}`)
		req := withSubID(httptest.NewRequest(http.MethodPut, "/api/admin/v1/subscriptions/"+subID.String(), body))
		rec := httptest.NewRecorder()
		AdminSubscriptionUpdate(&stubSubscriptionService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for negative price, got %d", rec.Code)
		}
	})

	t.Run("applies overrides", func(t *testing.T) {
		stub := &stubSubscriptionService{
			overrideSub: &models.Subscription{
				ID:              subID,
				UserID:          uuid.New(),
				PlanID:          uuid.New(),
				PlanName:        "Premium",
				Price:           decimal.RequireFromString("19.99"),
				Status:          enums.SubscriptionStatusInactive,
				NextBillingDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
			},
		}
		body := strings.NewReader(`{"price":"19.99","status":"inactive","next_billing_date":"2026-10-01T00:00:00Z"}`)
		req := withSubID(httptest.NewRequest(http.MethodPut, "/api/admin/v1/subscriptions/"+subID.String(), body))
		rec := httptest.NewRecorder()
		AdminSubscriptionUpdate(stub, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.overrideID != subID {
			t.Fatalf("expected subscription id to be forwarded")
		}
		if stub.overrideInput.Price == nil || !stub.overrideInput.Price.Equal(decimal.RequireFromString("19.99")) {
			t.Fatalf("expected price override to be forwarded, got %+v", stub.overrideInput.Price)
		}
		if stub.overrideInput.Status == nil || *stub.overrideInput.Status != enums.SubscriptionStatusInactive {
			t.Fatalf("expected status override to be forwarded")
		}
		if stub.overrideInput.NextBillingDate == nil {
			t.Fatalf("expected billing date override to be forwarded")
		}

		var payload struct {
			Data subscriptionResponse `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if payload.Data.Price != "19.99" {
			t.Fatalf("expected price 19.99, got %q", payload.Data.Price)
		}
		if payload.Data.Status != "inactive" {
			t.Fatalf("expected status inactive, got %q", payload.Data.Status)
		}
	})
}

type stubSubscriptionService struct {
	changeInput   subscriptions.ChangePlanInput
	changeResult  *subscriptions.ChangePlanResult
	quote         pricing.Quote
	overrideID    uuid.UUID
	overrideInput subscriptions.AdminOverrideInput
	overrideSub   *models.Subscription
}

func (s *stubSubscriptionService) Preview(ctx context.Context, planID uuid.UUID, couponCode string) (pricing.Quote, error) {
	return s.quote, nil
}

func (s *stubSubscriptionService) ChangePlan(ctx context.Context, input subscriptions.ChangePlanInput) (*subscriptions.ChangePlanResult, error) {
	s.changeInput = input
	return s.changeResult, nil
}

func (s *stubSubscriptionService) Cancel(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	panic("unimplemented")
}

func (s *stubSubscriptionService) FindForUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	panic("unimplemented")
}

func (s *stubSubscriptionService) List(ctx context.Context, params pagination.Params) ([]models.Subscription, *pagination.Cursor, error) {
	panic("unimplemented")
}

func (s *stubSubscriptionService) AdminOverride(ctx context.Context, id uuid.UUID, input subscriptions.AdminOverrideInput) (*models.Subscription, error) {
	s.overrideID = id
	s.overrideInput = input
	return s.overrideSub, nil
}
