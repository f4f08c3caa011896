package promotions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/streamvault/streamvault-backend/pkg/db/models"
	pkgerrors "github.com/streamvault/streamvault-backend/pkg/errors"
	"github.com/streamvault/streamvault-backend/pkg/pagination"
)

var ErrPromotionNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")

// ServiceParams groups dependencies for the promotion service.
type ServiceParams struct {
	Repo Repository
}

// Service orchestrates promotion selection and administration.
type Service struct {
	repo Repository
}

// NewService builds a promotion service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	return &Service{repo: params.Repo}, nil
}

// Current returns the promotion in effect at the given instant, or nil when
// no promotion is live. Callers treat nil as "no automatic discount".
func (s *Service) Current(ctx context.Context, now time.Time) (*models.Promotion, error) {
	return s.repo.FindLive(ctx, now)
}

func (s *Service) Create(ctx context.Context, promo *models.Promotion) error {
	return s.repo.Create(ctx, promo)
}

func (s *Service) Update(ctx context.Context, promo *models.Promotion) error {
	return s.repo.Update(ctx, promo)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	promo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if promo == nil {
		return ErrPromotionNotFound
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Find(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	promo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if promo == nil {
		return nil, ErrPromotionNotFound
	}
	return promo, nil
}

func (s *Service) List(ctx context.Context, params pagination.Params) ([]models.Promotion, *pagination.Cursor, error) {
	return s.repo.List(ctx, params)
}
