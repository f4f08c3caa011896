package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/streamvault/streamvault-backend/api/responses"
	"github.com/streamvault/streamvault-backend/api/validators"
	"github.com/streamvault/streamvault-backend/pkg/db/models"
	"github.com/streamvault/streamvault-backend/pkg/enums"
	pkgerrors "github.com/streamvault/streamvault-backend/pkg/errors"
	"github.com/streamvault/streamvault-backend/pkg/logger"
)

// PlanService describes the plan catalog methods used by the HTTP controllers.
type PlanService interface {
	ListActive(ctx context.Context) ([]models.Plan, error)
	ListAll(ctx context.Context) ([]models.Plan, error)
	Find(ctx context.Context, id uuid.UUID) (*models.Plan, error)
	FindActive(ctx context.Context, id uuid.UUID) (*models.Plan, error)
	Create(ctx context.Context, plan *models.Plan) error
	Update(ctx context.Context, plan *models.Plan) error
	Hide(ctx context.Context, id uuid.UUID) error
}

type planResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       string   `json:"price"`
	Features    []string `json:"features"`
	MaxScreens  int      `json:"max_screens"`
	PlanType    *string  `json:"plan_type,omitempty"`
	Status      string   `json:"status"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

type planListResponse struct {
	Plans []planResponse `json:"plans"`
}

type planUpsertRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	Features    []string `json:"features"`
	MaxScreens  *int     `json:"max_screens"`
	PlanType    *string  `json:"plan_type"`
	Status      string   `json:"status"`
}

// PlansList returns the customer-facing catalog, cheapest plan first.
func PlansList(svc PlanService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "plan service unavailable"))
			return
		}

		plans, err := svc.ListActive(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, planListResponse{Plans: plansToResponse(plans)})
	}
}

// PlanDetail returns one active plan by id.
func PlanDetail(svc PlanService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "plan service unavailable"))
			return
		}

		planID, err := pathUUID(r, "planId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		plan, err := svc.FindActive(ctx, planID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, planToResponse(plan))
	}
}

func AdminPlansList(svc PlanService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "plan service unavailable"))
			return
		}

		plans, err := svc.ListAll(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, planListResponse{Plans: plansToResponse(plans)})
	}
}

func AdminPlanCreate(svc PlanService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "plan service unavailable"))
			return
		}

		var payload planUpsertRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		plan, err := buildPlanFromRequest(payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Create(ctx, plan); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, planToResponse(plan))
	}
}

func AdminPlanUpdate(svc PlanService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "plan service unavailable"))
			return
		}

		planID, err := pathUUID(r, "planId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		existing, err := svc.Find(ctx, planID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload planUpsertRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		plan, err := buildPlanFromRequest(payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		plan.ID = existing.ID
		plan.CreatedAt = existing.CreatedAt
		if err := svc.Update(ctx, plan); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, planToResponse(plan))
	}
}

// AdminPlanDelete hides the plan from the catalog instead of removing the row.
func AdminPlanDelete(svc PlanService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "plan service unavailable"))
			return
		}

		planID, err := pathUUID(r, "planId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Hide(ctx, planID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		plan, err := svc.Find(ctx, planID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, planToResponse(plan))
	}
}

func plansToResponse(plans []models.Plan) []planResponse {
	result := make([]planResponse, 0, len(plans))
	for _, plan := range plans {
		result = append(result, planToResponse(&plan))
	}
	return result
}

func planToResponse(plan *models.Plan) planResponse {
	features := make([]string, len(plan.Features))
	copy(features, plan.Features)

	return planResponse{
		ID:          plan.ID.String(),
		Name:        plan.Name,
		Description: plan.Description,
		Price:       plan.Price.StringFixed(2),
		Features:    features,
		MaxScreens:  plan.MaxScreens,
		PlanType:    plan.PlanType,
		Status:      string(plan.Status),
		CreatedAt:   plan.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   plan.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func buildPlanFromRequest(payload planUpsertRequest) (*models.Plan, error) {
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	price, err := parsePrice(payload.Price)
	if err != nil {
		return nil, err
	}

	status := enums.PlanStatusActive
	if trimmed := strings.TrimSpace(payload.Status); trimmed != "" {
		status, err = enums.ParsePlanStatus(trimmed)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
	}

	maxScreens := 1
	if payload.MaxScreens != nil {
		if *payload.MaxScreens < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "max_screens must be positive")
		}
		maxScreens = *payload.MaxScreens
	}

	return &models.Plan{
		Name:        name,
		Description: strings.TrimSpace(payload.Description),
		Price:       price,
		Features:    pq.StringArray(payload.Features),
		MaxScreens:  maxScreens,
		PlanType:    payload.PlanType,
		Status:      status,
	}, nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "price is required")
	}
	price, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}
	if price.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}
	return price, nil
}
