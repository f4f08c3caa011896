package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/streamvault/streamvault-backend/pkg/enums"
)

// Subscription records which plan a user holds and at what negotiated price.
// PlanName is denormalized so invoices and receipts survive plan renames, and
// Price may differ from the plan's base price after discounts or an admin
// override.
type Subscription struct {
	ID              uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID                `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	PlanID          uuid.UUID                `gorm:"column:plan_id;type:uuid;not null;index"`
	PlanName        string                   `gorm:"column:plan_name;not null"`
	Price           decimal.Decimal          `gorm:"column:price;type:numeric(12,2);not null"`
	Status          enums.SubscriptionStatus `gorm:"column:status;type:subscription_status;not null;default:'active'"`
	NextBillingDate time.Time                `gorm:"column:next_billing_date;not null"`
	CreatedAt       time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
