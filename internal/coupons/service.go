package coupons

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/streamvault/streamvault-backend/pkg/db/models"
	pkgerrors "github.com/streamvault/streamvault-backend/pkg/errors"
	"github.com/streamvault/streamvault-backend/pkg/pagination"
)

// Validation outcomes surfaced to clients. Each one maps to a distinct
// user-facing message; controllers pass them through unchanged.
var (
	ErrCouponNotFound   = pkgerrors.New(pkgerrors.CodeNotFound, "coupon code not found")
	ErrCouponNotStarted = pkgerrors.New(pkgerrors.CodeValidation, "coupon is not active yet")
	ErrCouponExpired    = pkgerrors.New(pkgerrors.CodeValidation, "coupon has expired")
	ErrCouponExhausted  = pkgerrors.New(pkgerrors.CodeValidation, "coupon usage limit has been reached")
)

// ServiceParams groups dependencies for the coupon service.
type ServiceParams struct {
	Repo Repository
}

// Service orchestrates coupon validation and administration.
type Service struct {
	repo Repository
}

// NewService builds a coupon service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	return &Service{repo: params.Repo}, nil
}

// Validate checks a code against the activation flag, date window, and usage
// cap. It never mutates current_uses; redemption happens separately inside
// the plan-change transaction.
func (s *Service) Validate(ctx context.Context, code string, now time.Time) (*models.Coupon, error) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if coupon == nil || !coupon.Active {
		return nil, ErrCouponNotFound
	}
	if coupon.StartsAt != nil && coupon.StartsAt.After(now) {
		return nil, ErrCouponNotStarted
	}
	if coupon.EndsAt != nil && coupon.EndsAt.Before(now) {
		return nil, ErrCouponExpired
	}
	if coupon.Exhausted() {
		return nil, ErrCouponExhausted
	}
	return coupon, nil
}

// Redeem consumes one use of the coupon. Callers run this inside the same
// transaction as the subscription change via Repo().WithTx.
func (s *Service) Redeem(ctx context.Context, repo Repository, id uuid.UUID) error {
	if repo == nil {
		repo = s.repo
	}
	ok, err := repo.IncrementUses(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCouponExhausted
	}
	return nil
}

// Repo exposes the repository so transactional callers can rebind it.
func (s *Service) Repo() Repository {
	return s.repo
}

func (s *Service) Create(ctx context.Context, coupon *models.Coupon) error {
	if strings.TrimSpace(coupon.Code) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	return s.repo.Create(ctx, coupon)
}

func (s *Service) Update(ctx context.Context, coupon *models.Coupon) error {
	return s.repo.Update(ctx, coupon)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if coupon == nil {
		return ErrCouponNotFound
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Find(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return coupon, nil
}

func (s *Service) List(ctx context.Context, params pagination.Params) ([]models.Coupon, *pagination.Cursor, error) {
	return s.repo.List(ctx, params)
}
