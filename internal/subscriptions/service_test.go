package subscriptions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/streamvault/streamvault-backend/internal/coupons"
	"github.com/streamvault/streamvault-backend/internal/invoices"
	"github.com/streamvault/streamvault-backend/internal/plans"
	"github.com/streamvault/streamvault-backend/internal/promotions"
	"github.com/streamvault/streamvault-backend/pkg/config"
	"github.com/streamvault/streamvault-backend/pkg/db/models"
	"github.com/streamvault/streamvault-backend/pkg/enums"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

func setupSubscriptionsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE IF NOT EXISTS plans (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  price TEXT NOT NULL,
  features TEXT,
  max_screens INTEGER NOT NULL DEFAULT 1,
  plan_type TEXT,
  status TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS promotions (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  discount_percentage TEXT,
  discount_amount TEXT,
  active INTEGER NOT NULL DEFAULT 0,
  starts_at DATETIME,
  ends_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS coupons (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL,
  description TEXT,
  discount_percentage TEXT,
  discount_amount TEXT,
  max_uses INTEGER,
  current_uses INTEGER NOT NULL DEFAULT 0,
  active INTEGER NOT NULL DEFAULT 0,
  starts_at DATETIME,
  ends_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS subscriptions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  plan_id TEXT NOT NULL,
  plan_name TEXT NOT NULL,
  price TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  next_billing_date DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS invoices (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  amount TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  description TEXT NOT NULL,
  invoice_date DATETIME NOT NULL,
  due_date DATETIME NOT NULL,
  created_at DATETIME
);`}

	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}

	return db
}

func newTestService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()

	planSvc, err := plans.NewService(plans.ServiceParams{Repo: plans.NewRepository(db)})
	require.NoError(t, err)
	promoSvc, err := promotions.NewService(promotions.ServiceParams{Repo: promotions.NewRepository(db)})
	require.NoError(t, err)
	couponSvc, err := coupons.NewService(coupons.ServiceParams{Repo: coupons.NewRepository(db)})
	require.NoError(t, err)

	svc, err := NewService(
		NewRepository(db),
		gormTxRunner{db: db},
		planSvc,
		promoSvc,
		couponSvc,
		invoices.NewRepository(db),
		config.BillingConfig{RenewalBatch: 250, InvoiceDueDays: 7},
	)
	require.NoError(t, err)
	return svc
}

func seedPlan(t *testing.T, db *gorm.DB, price string) *models.Plan {
	t.Helper()
	plan := &models.Plan{
		ID:     uuid.New(),
		Name:   "Premium",
		Price:  mustDecimal(t, price),
		Status: enums.PlanStatusActive,
	}
	require.NoError(t, db.Create(plan).Error)
	return plan
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func decimalPtr(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d := mustDecimal(t, s)
	return &d
}

func intPtr(v int) *int { return &v }

func TestChangePlan_ComposesPromotionThenCoupon(t *testing.T) {
	db := setupSubscriptionsTestDB(t)
	svc := newTestService(t, db)

	plan := seedPlan(t, db, "100.00")
	require.NoError(t, db.Create(&models.Promotion{
		ID:                 uuid.New(),
		Name:               "half off",
		DiscountPercentage: decimalPtr(t, "50"),
		Active:             true,
		CreatedAt:          time.Now().UTC().Add(-time.Hour),
	}).Error)
	coupon := &models.Coupon{
		ID:                 uuid.New(),
		Code:               "SAVE20",
		DiscountPercentage: decimalPtr(t, "20"),
		MaxUses:            intPtr(10),
		Active:             true,
	}
	require.NoError(t, db.Create(coupon).Error)

	userID := uuid.New()
	result, err := svc.ChangePlan(context.Background(), ChangePlanInput{
		UserID:     userID,
		PlanID:     plan.ID,
		CouponCode: "save20",
	})
	require.NoError(t, err)

	assert.True(t, result.Quote.FinalPrice.Equal(mustDecimal(t, "40")),
		"final price = %s", result.Quote.FinalPrice)
	assert.True(t, result.Subscription.Price.Equal(mustDecimal(t, "40")))
	assert.Equal(t, enums.SubscriptionStatusActive, result.Subscription.Status)
	assert.Equal(t, plan.Name, result.Subscription.PlanName)

	var storedSub models.Subscription
	require.NoError(t, db.Where("user_id = ?", userID).First(&storedSub).Error)
	assert.Equal(t, plan.ID, storedSub.PlanID)

	var storedInvoice models.Invoice
	require.NoError(t, db.Where("user_id = ?", userID).First(&storedInvoice).Error)
	assert.True(t, storedInvoice.Amount.Equal(mustDecimal(t, "40")))
	assert.Equal(t, enums.InvoiceStatusPaid, storedInvoice.Status)
	assert.Contains(t, storedInvoice.Description, "SAVE20")
	assert.Contains(t, storedInvoice.Description, "half off")

	var storedCoupon models.Coupon
	require.NoError(t, db.Where("id = ?", coupon.ID).First(&storedCoupon).Error)
	assert.Equal(t, 1, storedCoupon.CurrentUses)
}

func TestChangePlan_UpsertsExistingSubscription(t *testing.T) {
	db := setupSubscriptionsTestDB(t)
	svc := newTestService(t, db)

	first := seedPlan(t, db, "9.99")
	second := &models.Plan{
		ID:     uuid.New(),
		Name:   "Family",
		Price:  mustDecimal(t, "19.99"),
		Status: enums.PlanStatusActive,
	}
	require.NoError(t, db.Create(second).Error)

	userID := uuid.New()
	_, err := svc.ChangePlan(context.Background(), ChangePlanInput{UserID: userID, PlanID: first.ID})
	require.NoError(t, err)

	result, err := svc.ChangePlan(context.Background(), ChangePlanInput{UserID: userID, PlanID: second.ID})
	require.NoError(t, err)
	assert.Equal(t, "Family", result.Subscription.PlanName)

	var count int64
	require.NoError(t, db.Model(&models.Subscription{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var invoiceCount int64
	require.NoError(t, db.Model(&models.Invoice{}).Where("user_id = ?", userID).Count(&invoiceCount).Error)
	assert.Equal(t, int64(2), invoiceCount)
}

func TestChangePlan_RejectsHiddenPlan(t *testing.T) {
	db := setupSubscriptionsTestDB(t)
	svc := newTestService(t, db)

	hidden := &models.Plan{
		ID:     uuid.New(),
		Name:   "Legacy",
		Price:  mustDecimal(t, "4.99"),
		Status: enums.PlanStatusHidden,
	}
	require.NoError(t, db.Create(hidden).Error)

	_, err := svc.ChangePlan(context.Background(), ChangePlanInput{UserID: uuid.New(), PlanID: hidden.ID})
	require.ErrorIs(t, err, plans.ErrPlanNotFound)
}

func TestChangePlan_InvalidCouponLeavesNoRows(t *testing.T) {
	db := setupSubscriptionsTestDB(t)
	svc := newTestService(t, db)

	plan := seedPlan(t, db, "15.00")
	require.NoError(t, db.Create(&models.Coupon{
		ID:          uuid.New(),
		Code:        "CAPPED",
		MaxUses:     intPtr(1),
		CurrentUses: 1,
		Active:      true,
	}).Error)

	userID := uuid.New()
	_, err := svc.ChangePlan(context.Background(), ChangePlanInput{
		UserID:     userID,
		PlanID:     plan.ID,
		CouponCode: "CAPPED",
	})
	require.ErrorIs(t, err, coupons.ErrCouponExhausted)

	var count int64
	require.NoError(t, db.Model(&models.Subscription{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestChangePlan_RollsBackOnInvoiceFailure(t *testing.T) {
	db := setupSubscriptionsTestDB(t)
	svc := newTestService(t, db)

	plan := seedPlan(t, db, "25.00")
	coupon := &models.Coupon{
		ID:      uuid.New(),
		Code:    "SAVE5",
		MaxUses: intPtr(10),
		Active:  true,
	}
	require.NoError(t, db.Create(coupon).Error)

	// Invoice insert fails mid-transaction; nothing may survive.
	require.NoError(t, db.Exec("DROP TABLE invoices").Error)

	userID := uuid.New()
	_, err := svc.ChangePlan(context.Background(), ChangePlanInput{
		UserID:     userID,
		PlanID:     plan.ID,
		CouponCode: "SAVE5",
	})
	require.Error(t, err)

	var subCount int64
	require.NoError(t, db.Model(&models.Subscription{}).Where("user_id = ?", userID).Count(&subCount).Error)
	assert.Equal(t, int64(0), subCount)

	var storedCoupon models.Coupon
	require.NoError(t, db.Where("id = ?", coupon.ID).First(&storedCoupon).Error)
	assert.Equal(t, 0, storedCoupon.CurrentUses, "coupon increment must roll back")
}

func TestPreview_DoesNotTouchAnything(t *testing.T) {
	db := setupSubscriptionsTestDB(t)
	svc := newTestService(t, db)

	plan := seedPlan(t, db, "20.00")
	coupon := &models.Coupon{
		ID:             uuid.New(),
		Code:           "FIVER",
		DiscountAmount: decimalPtr(t, "5.00"),
		MaxUses:        intPtr(3),
		Active:         true,
	}
	require.NoError(t, db.Create(coupon).Error)
	require.NoError(t, db.Create(&models.Promotion{
		ID:                 uuid.New(),
		Name:               "ten off",
		DiscountPercentage: decimalPtr(t, "10"),
		Active:             true,
		CreatedAt:          time.Now().UTC().Add(-time.Hour),
	}).Error)

	quote, err := svc.Preview(context.Background(), plan.ID, "fiver")
	require.NoError(t, err)
	assert.True(t, quote.FinalPrice.Equal(mustDecimal(t, "13")), "final price = %s", quote.FinalPrice)

	var storedCoupon models.Coupon
	require.NoError(t, db.Where("id = ?", coupon.ID).First(&storedCoupon).Error)
	assert.Equal(t, 0, storedCoupon.CurrentUses)

	var subCount int64
	require.NoError(t, db.Model(&models.Subscription{}).Count(&subCount).Error)
	assert.Equal(t, int64(0), subCount)
}

func TestCancel(t *testing.T) {
	db := setupSubscriptionsTestDB(t)
	svc := newTestService(t, db)

	plan := seedPlan(t, db, "12.00")
	userID := uuid.New()
	_, err := svc.ChangePlan(context.Background(), ChangePlanInput{UserID: userID, PlanID: plan.ID})
	require.NoError(t, err)

	sub, err := svc.Cancel(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, enums.SubscriptionStatusCancelled, sub.Status)

	// Cancelling twice is a no-op.
	again, err := svc.Cancel(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, enums.SubscriptionStatusCancelled, again.Status)

	_, err = svc.Cancel(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func TestAdminOverride(t *testing.T) {
	db := setupSubscriptionsTestDB(t)
	svc := newTestService(t, db)

	plan := seedPlan(t, db, "30.00")
	userID := uuid.New()
	result, err := svc.ChangePlan(context.Background(), ChangePlanInput{UserID: userID, PlanID: plan.ID})
	require.NoError(t, err)
	subID := result.Subscription.ID

	t.Run("nothing to update", func(t *testing.T) {
		_, err := svc.AdminOverride(context.Background(), subID, AdminOverrideInput{})
		require.Error(t, err)
	})

	t.Run("negative price", func(t *testing.T) {
		_, err := svc.AdminOverride(context.Background(), subID, AdminOverrideInput{
			Price: decimalPtr(t, "-1"),
		})
		require.Error(t, err)
	})

	t.Run("unknown subscription", func(t *testing.T) {
		status := enums.SubscriptionStatusInactive
		_, err := svc.AdminOverride(context.Background(), uuid.New(), AdminOverrideInput{Status: &status})
		require.ErrorIs(t, err, ErrSubscriptionNotFound)
	})

	t.Run("applies overrides", func(t *testing.T) {
		status := enums.SubscriptionStatusInactive
		nextDate := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
		sub, err := svc.AdminOverride(context.Background(), subID, AdminOverrideInput{
			Price:           decimalPtr(t, "19.99"),
			Status:          &status,
			NextBillingDate: &nextDate,
		})
		require.NoError(t, err)
		assert.True(t, sub.Price.Equal(mustDecimal(t, "19.99")))
		assert.Equal(t, enums.SubscriptionStatusInactive, sub.Status)
		assert.True(t, sub.NextBillingDate.Equal(nextDate))

		var stored models.Subscription
		require.NoError(t, db.Where("id = ?", subID).First(&stored).Error)
		assert.True(t, stored.Price.Equal(mustDecimal(t, "19.99")))
		assert.Equal(t, enums.SubscriptionStatusInactive, stored.Status)
	})
}
