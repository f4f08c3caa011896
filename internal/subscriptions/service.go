package subscriptions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/streamvault/streamvault-backend/internal/coupons"
	"github.com/streamvault/streamvault-backend/internal/invoices"
	"github.com/streamvault/streamvault-backend/internal/plans"
	"github.com/streamvault/streamvault-backend/internal/pricing"
	"github.com/streamvault/streamvault-backend/internal/promotions"
	"github.com/streamvault/streamvault-backend/pkg/config"
	"github.com/streamvault/streamvault-backend/pkg/db/models"
	"github.com/streamvault/streamvault-backend/pkg/enums"
	pkgerrors "github.com/streamvault/streamvault-backend/pkg/errors"
	"github.com/streamvault/streamvault-backend/pkg/pagination"
)

var ErrSubscriptionNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service orchestrates subscription lifecycle operations. Plan changes run
// the full pricing pipeline: live promotion, optional coupon, sequential
// composition, then one transaction for the subscription row, the coupon
// counter, and the invoice.
type Service struct {
	repo        Repository
	tx          txRunner
	plans       *plans.Service
	promotions  *promotions.Service
	coupons     *coupons.Service
	invoiceRepo invoices.Repository
	billing     config.BillingConfig
}

// ChangePlanInput captures a customer plan change request.
type ChangePlanInput struct {
	UserID     uuid.UUID
	PlanID     uuid.UUID
	CouponCode string
}

// ChangePlanResult is returned to controllers after a successful change.
type ChangePlanResult struct {
	Subscription *models.Subscription
	Invoice      *models.Invoice
	Quote        pricing.Quote
}

// NewService builds a subscription service with the required dependencies.
func NewService(
	repo Repository,
	tx txRunner,
	planSvc *plans.Service,
	promoSvc *promotions.Service,
	couponSvc *coupons.Service,
	invoiceRepo invoices.Repository,
	billing config.BillingConfig,
) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("subscriptions repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if planSvc == nil {
		return nil, fmt.Errorf("plan service required")
	}
	if promoSvc == nil {
		return nil, fmt.Errorf("promotion service required")
	}
	if couponSvc == nil {
		return nil, fmt.Errorf("coupon service required")
	}
	if invoiceRepo == nil {
		return nil, fmt.Errorf("invoice repository required")
	}
	return &Service{
		repo:        repo,
		tx:          tx,
		plans:       planSvc,
		promotions:  promoSvc,
		coupons:     couponSvc,
		invoiceRepo: invoiceRepo,
		billing:     billing,
	}, nil
}

// Preview prices a plan change without committing anything. The coupon is
// validated but its usage counter is untouched.
func (s *Service) Preview(ctx context.Context, planID uuid.UUID, couponCode string) (pricing.Quote, error) {
	now := time.Now().UTC()

	plan, err := s.plans.FindActive(ctx, planID)
	if err != nil {
		return pricing.Quote{}, err
	}

	promo, err := s.promotions.Current(ctx, now)
	if err != nil {
		return pricing.Quote{}, err
	}

	var coupon *models.Coupon
	if strings.TrimSpace(couponCode) != "" {
		coupon, err = s.coupons.Validate(ctx, couponCode, now)
		if err != nil {
			return pricing.Quote{}, err
		}
	}

	return pricing.Compose(plan.Price, promo, coupon), nil
}

// ChangePlan switches the user onto a plan at the composed price. The
// subscription upsert, coupon redemption, and invoice insert commit together
// or not at all; a coupon that hits its cap between validation and commit
// rolls the whole change back.
func (s *Service) ChangePlan(ctx context.Context, input ChangePlanInput) (*ChangePlanResult, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.PlanID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan id required")
	}

	now := time.Now().UTC()

	plan, err := s.plans.FindActive(ctx, input.PlanID)
	if err != nil {
		return nil, err
	}

	promo, err := s.promotions.Current(ctx, now)
	if err != nil {
		return nil, err
	}

	var coupon *models.Coupon
	if strings.TrimSpace(input.CouponCode) != "" {
		coupon, err = s.coupons.Validate(ctx, input.CouponCode, now)
		if err != nil {
			return nil, err
		}
	}

	quote := pricing.Compose(plan.Price, promo, coupon)

	result := &ChangePlanResult{Quote: quote}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		sub, err := repo.FindByUser(ctx, input.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
		}
		if sub == nil {
			sub = &models.Subscription{
				ID:     uuid.New(),
				UserID: input.UserID,
			}
		}

		sub.PlanID = plan.ID
		sub.PlanName = plan.Name
		sub.Price = quote.FinalPrice
		sub.Status = enums.SubscriptionStatusActive
		sub.NextBillingDate = now.AddDate(0, 1, 0)

		if sub.CreatedAt.IsZero() {
			if err := repo.Create(ctx, sub); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription")
			}
		} else if err := repo.Update(ctx, sub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update subscription")
		}

		if coupon != nil {
			if err := s.coupons.Redeem(ctx, s.coupons.Repo().WithTx(tx), coupon.ID); err != nil {
				return err
			}
		}

		invoice := &models.Invoice{
			ID:          uuid.New(),
			UserID:      input.UserID,
			Amount:      quote.FinalPrice,
			Status:      enums.InvoiceStatusPaid,
			Description: changeDescription(plan.Name, promo, coupon),
			InvoiceDate: now,
			DueDate:     now.AddDate(0, 0, s.billing.InvoiceDueDays),
		}
		if err := s.invoiceRepo.WithTx(tx).Create(ctx, invoice); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invoice")
		}

		result.Subscription = sub
		result.Invoice = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Cancel marks the user's subscription cancelled. The row survives so history
// and the denormalized plan name remain queryable.
func (s *Service) Cancel(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrSubscriptionNotFound
	}
	if sub.Status == enums.SubscriptionStatusCancelled {
		return sub, nil
	}
	sub.Status = enums.SubscriptionStatusCancelled
	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// FindForUser returns the user's subscription, or ErrSubscriptionNotFound.
func (s *Service) FindForUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrSubscriptionNotFound
	}
	return sub, nil
}

// List returns subscriptions for admin screens, newest first.
func (s *Service) List(ctx context.Context, params pagination.Params) ([]models.Subscription, *pagination.Cursor, error) {
	return s.repo.List(ctx, params)
}

// AdminOverrideInput carries optional manual corrections for a subscription.
// Nil fields are left untouched.
type AdminOverrideInput struct {
	Price           *decimal.Decimal
	Status          *enums.SubscriptionStatus
	NextBillingDate *time.Time
}

// AdminOverride applies manual corrections without running the pricing
// pipeline. Support uses this to honor grandfathered prices or to push a
// billing date after a payment dispute.
func (s *Service) AdminOverride(ctx context.Context, id uuid.UUID, input AdminOverrideInput) (*models.Subscription, error) {
	if input.Price == nil && input.Status == nil && input.NextBillingDate == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid subscription status")
	}
	if input.Price != nil && input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}

	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrSubscriptionNotFound
	}

	if input.Price != nil {
		sub.Price = *input.Price
	}
	if input.Status != nil {
		sub.Status = *input.Status
	}
	if input.NextBillingDate != nil {
		sub.NextBillingDate = input.NextBillingDate.UTC()
	}

	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func changeDescription(planName string, promo *models.Promotion, coupon *models.Coupon) string {
	desc := fmt.Sprintf("Plan change to %s", planName)
	var parts []string
	if promo != nil {
		parts = append(parts, fmt.Sprintf("promotion %s", promo.Name))
	}
	if coupon != nil {
		parts = append(parts, fmt.Sprintf("coupon %s", coupon.Code))
	}
	if len(parts) > 0 {
		desc = fmt.Sprintf("%s (%s)", desc, strings.Join(parts, ", "))
	}
	return desc
}
