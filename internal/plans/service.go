package plans

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/streamvault/streamvault-backend/pkg/db/models"
	"github.com/streamvault/streamvault-backend/pkg/enums"
	pkgerrors "github.com/streamvault/streamvault-backend/pkg/errors"
)

var ErrPlanNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "plan not found")

// ServiceParams groups dependencies for the plan service.
type ServiceParams struct {
	Repo Repository
}

// Service orchestrates plan catalog operations.
type Service struct {
	repo Repository
}

// NewService builds a plan service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	return &Service{repo: params.Repo}, nil
}

// ListActive returns the customer-facing catalog, cheapest first.
func (s *Service) ListActive(ctx context.Context) ([]models.Plan, error) {
	status := enums.PlanStatusActive
	return s.repo.List(ctx, ListPlansQuery{Status: &status})
}

// ListAll returns every plan including hidden ones, for admin screens.
func (s *Service) ListAll(ctx context.Context) ([]models.Plan, error) {
	return s.repo.List(ctx, ListPlansQuery{})
}

func (s *Service) Find(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

// FindActive resolves a plan customers are allowed to subscribe to.
func (s *Service) FindActive(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	plan, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan.Status != enums.PlanStatusActive {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

func (s *Service) Create(ctx context.Context, plan *models.Plan) error {
	if !plan.Status.IsValid() {
		plan.Status = enums.PlanStatusActive
	}
	return s.repo.Create(ctx, plan)
}

func (s *Service) Update(ctx context.Context, plan *models.Plan) error {
	return s.repo.Update(ctx, plan)
}

// Hide soft-deletes a plan from the catalog. Existing subscriptions keep
// their denormalized plan name and price, so nothing else changes.
func (s *Service) Hide(ctx context.Context, id uuid.UUID) error {
	plan, err := s.Find(ctx, id)
	if err != nil {
		return err
	}
	plan.Status = enums.PlanStatusHidden
	return s.repo.Update(ctx, plan)
}
