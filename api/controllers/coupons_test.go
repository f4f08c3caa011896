package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/streamvault/streamvault-backend/internal/coupons"
	"github.com/streamvault/streamvault-backend/pkg/db/models"
	"github.com/streamvault/streamvault-backend/pkg/pagination"
)

func TestCouponValidate(t *testing.T) {
	logg := testLogger()

	t.Run("valid code", func(t *testing.T) {
		pct := decimal.RequireFromString("20")
		stub := &stubCouponService{
			coupon: &models.Coupon{
				ID:                 uuid.New(),
				Code:               "WELCOME20",
				Description:        "20% off for new customers",
				DiscountPercentage: &pct,
				Active:             true,
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/api/v1/coupons/validate", strings.NewReader(`{"code":"welcome20"}`))
		rec := httptest.NewRecorder()
		CouponValidate(stub, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.validatedCode != "welcome20" {
			t.Fatalf("expected raw code to be forwarded, got %q", stub.validatedCode)
		}

		var payload struct {
			Data couponValidateResponse `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if payload.Data.Code != "WELCOME20" {
			t.Fatalf("expected canonical code, got %q", payload.Data.Code)
		}
		if payload.Data.DiscountPercentage == nil || *payload.Data.DiscountPercentage != "20.00" {
			t.Fatalf("expected discount percentage 20.00, got %v", payload.Data.DiscountPercentage)
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		stub := &stubCouponService{err: coupons.ErrCouponNotFound}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/coupons/validate", strings.NewReader(`{"code":"NOPE"}`))
		rec := httptest.NewRecorder()
		CouponValidate(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404 for unknown code, got %d", rec.Code)
		}
	})

	t.Run("expired code", func(t *testing.T) {
		stub := &stubCouponService{err: coupons.ErrCouponExpired}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/coupons/validate", strings.NewReader(`{"code":"OLD"}`))
		rec := httptest.NewRecorder()
		CouponValidate(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for expired code, got %d", rec.Code)
		}

		var payload struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if payload.Error.Message != "coupon has expired" {
			t.Fatalf("expected pass-through message, got %q", payload.Error.Message)
		}
	})

	t.Run("missing code", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/coupons/validate", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		CouponValidate(&stubCouponService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for missing code, got %d", rec.Code)
		}
	})
}

type stubCouponService struct {
	coupon        *models.Coupon
	err           error
	validatedCode string
}

func (s *stubCouponService) Validate(ctx context.Context, code string, now time.Time) (*models.Coupon, error) {
	s.validatedCode = code
	if s.err != nil {
		return nil, s.err
	}
	return s.coupon, nil
}

func (s *stubCouponService) Find(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	panic("unimplemented")
}

func (s *stubCouponService) List(ctx context.Context, params pagination.Params) ([]models.Coupon, *pagination.Cursor, error) {
	panic("unimplemented")
}

func (s *stubCouponService) Create(ctx context.Context, coupon *models.Coupon) error {
	panic("unimplemented")
}

func (s *stubCouponService) Update(ctx context.Context, coupon *models.Coupon) error {
	panic("unimplemented")
}

func (s *stubCouponService) Delete(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}
