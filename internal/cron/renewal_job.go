package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/streamvault/streamvault-backend/internal/invoices"
	"github.com/streamvault/streamvault-backend/internal/subscriptions"
	"github.com/streamvault/streamvault-backend/pkg/config"
	"github.com/streamvault/streamvault-backend/pkg/db/models"
	"github.com/streamvault/streamvault-backend/pkg/enums"
	"github.com/streamvault/streamvault-backend/pkg/logger"
)

const renewalJobName = "subscription_renewal"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RenewalJob advances billing dates for active subscriptions that are due and
// writes one renewal invoice per cycle. Each subscription renews in its own
// transaction so one bad row never blocks the batch.
type RenewalJob struct {
	subs     subscriptions.Repository
	invoices invoices.Repository
	tx       txRunner
	logg     *logger.Logger
	billing  config.BillingConfig
	now      func() time.Time
}

// RenewalJobParams configure the renewal job.
type RenewalJobParams struct {
	Subscriptions subscriptions.Repository
	Invoices      invoices.Repository
	Tx            txRunner
	Logger        *logger.Logger
	Billing       config.BillingConfig
}

// NewRenewalJob builds a subscription renewal job.
func NewRenewalJob(params RenewalJobParams) (*RenewalJob, error) {
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscriptions repository required")
	}
	if params.Invoices == nil {
		return nil, fmt.Errorf("invoices repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &RenewalJob{
		subs:     params.Subscriptions,
		invoices: params.Invoices,
		tx:       params.Tx,
		logg:     params.Logger,
		billing:  params.Billing,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Name implements Job.
func (j *RenewalJob) Name() string { return renewalJobName }

// Run implements Job.
func (j *RenewalJob) Run(ctx context.Context) error {
	now := j.now()

	due, err := j.subs.ListDueForRenewal(ctx, now, j.billing.RenewalBatch)
	if err != nil {
		return fmt.Errorf("list due subscriptions: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	ctx = j.logg.WithField(ctx, "due_count", len(due))
	j.logg.Info(ctx, "renewing subscriptions")

	var errs error
	renewed := 0
	for i := range due {
		sub := due[i]
		if err := j.renewOne(ctx, &sub, now); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("subscription %s: %w", sub.ID, err))
			continue
		}
		renewed++
	}

	j.logg.Info(j.logg.WithField(ctx, "renewed_count", renewed), "renewal pass complete")
	return errs
}

func (j *RenewalJob) renewOne(ctx context.Context, sub *models.Subscription, now time.Time) error {
	return j.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.subs.WithTx(tx)

		// Catch up by whole months; a subscription long overdue still gets a
		// single invoice for this cycle.
		next := sub.NextBillingDate
		for !next.After(now) {
			next = next.AddDate(0, 1, 0)
		}
		sub.NextBillingDate = next

		if err := repo.Update(ctx, sub); err != nil {
			return fmt.Errorf("advance billing date: %w", err)
		}

		invoice := &models.Invoice{
			ID:          uuid.New(),
			UserID:      sub.UserID,
			Amount:      sub.Price,
			Status:      enums.InvoiceStatusPaid,
			Description: fmt.Sprintf("Subscription renewal: %s", sub.PlanName),
			InvoiceDate: now,
			DueDate:     now.AddDate(0, 0, j.billing.InvoiceDueDays),
		}
		if err := j.invoices.WithTx(tx).Create(ctx, invoice); err != nil {
			return fmt.Errorf("create renewal invoice: %w", err)
		}
		return nil
	})
}
