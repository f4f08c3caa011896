package cron

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/streamvault/streamvault-backend/internal/invoices"
	"github.com/streamvault/streamvault-backend/internal/subscriptions"
	"github.com/streamvault/streamvault-backend/pkg/config"
	"github.com/streamvault/streamvault-backend/pkg/db/models"
	"github.com/streamvault/streamvault-backend/pkg/enums"
	"github.com/streamvault/streamvault-backend/pkg/logger"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

func setupRenewalTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
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

func newRenewalJob(t *testing.T, db *gorm.DB, now time.Time) *RenewalJob {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	job, err := NewRenewalJob(RenewalJobParams{
		Subscriptions: subscriptions.NewRepository(db),
		Invoices:      invoices.NewRepository(db),
		Tx:            gormTxRunner{db: db},
		Logger:        logg,
		Billing:       config.BillingConfig{RenewalBatch: 250, InvoiceDueDays: 7},
	})
	require.NoError(t, err)
	job.now = func() time.Time { return now }
	return job
}

func seedSubscription(t *testing.T, db *gorm.DB, status enums.SubscriptionStatus, nextBilling time.Time) *models.Subscription {
	t.Helper()
	sub := &models.Subscription{
		ID:              uuid.New(),
		UserID:          uuid.New(),
		PlanID:          uuid.New(),
		PlanName:        "Premium",
		Price:           decimal.RequireFromString("19.99"),
		Status:          status,
		NextBillingDate: nextBilling,
	}
	require.NoError(t, db.Create(sub).Error)
	return sub
}

func TestRenewalJob_RenewsDueSubscriptions(t *testing.T) {
	now := time.Date(2026, 7, 1, 3, 0, 0, 0, time.UTC)
	db := setupRenewalTestDB(t)
	job := newRenewalJob(t, db, now)

	due := seedSubscription(t, db, enums.SubscriptionStatusActive, now.Add(-time.Hour))
	notDue := seedSubscription(t, db, enums.SubscriptionStatusActive, now.Add(24*time.Hour))
	cancelled := seedSubscription(t, db, enums.SubscriptionStatusCancelled, now.Add(-time.Hour))

	require.NoError(t, job.Run(context.Background()))

	var renewed models.Subscription
	require.NoError(t, db.First(&renewed, "id = ?", due.ID).Error)
	assert.True(t, renewed.NextBillingDate.After(now), "billing date must advance past now")

	var untouched models.Subscription
	require.NoError(t, db.First(&untouched, "id = ?", notDue.ID).Error)
	assert.Equal(t, notDue.NextBillingDate.Unix(), untouched.NextBillingDate.Unix())

	var invoiceCount int64
	require.NoError(t, db.Model(&models.Invoice{}).Count(&invoiceCount).Error)
	assert.Equal(t, int64(1), invoiceCount)

	var invoice models.Invoice
	require.NoError(t, db.First(&invoice, "user_id = ?", due.UserID).Error)
	assert.True(t, invoice.Amount.Equal(due.Price))
	assert.Equal(t, enums.InvoiceStatusPaid, invoice.Status)
	assert.Contains(t, invoice.Description, "Premium")

	var skipped models.Subscription
	require.NoError(t, db.First(&skipped, "id = ?", cancelled.ID).Error)
	assert.Equal(t, cancelled.NextBillingDate.Unix(), skipped.NextBillingDate.Unix())
}

func TestRenewalJob_CatchesUpLongOverdue(t *testing.T) {
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	db := setupRenewalTestDB(t)
	job := newRenewalJob(t, db, now)

	overdue := seedSubscription(t, db, enums.SubscriptionStatusActive, now.AddDate(0, -3, 0))

	require.NoError(t, job.Run(context.Background()))

	var renewed models.Subscription
	require.NoError(t, db.First(&renewed, "id = ?", overdue.ID).Error)
	assert.True(t, renewed.NextBillingDate.After(now))
	assert.False(t, renewed.NextBillingDate.After(now.AddDate(0, 1, 0)),
		"catch-up must land within one month of now")

	// One invoice for the cycle, not one per missed month.
	var invoiceCount int64
	require.NoError(t, db.Model(&models.Invoice{}).Count(&invoiceCount).Error)
	assert.Equal(t, int64(1), invoiceCount)
}

func TestRenewalJob_NoDueSubscriptionsIsNoOp(t *testing.T) {
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	db := setupRenewalTestDB(t)
	job := newRenewalJob(t, db, now)

	seedSubscription(t, db, enums.SubscriptionStatusActive, now.Add(time.Hour))

	require.NoError(t, job.Run(context.Background()))

	var invoiceCount int64
	require.NoError(t, db.Model(&models.Invoice{}).Count(&invoiceCount).Error)
	assert.Equal(t, int64(0), invoiceCount)
}
