package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/streamvault/streamvault-backend/pkg/enums"
)

// Plan is a priced subscription tier. Price is the undiscounted monthly
// reference value; discounts are always computed relative to it and never
// written back.
type Plan struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string           `gorm:"column:name;not null"`
	Description string           `gorm:"column:description"`
	Price       decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	Features    pq.StringArray   `gorm:"column:features;type:text[];default:ARRAY[]::text[]"`
	MaxScreens  int              `gorm:"column:max_screens;not null;default:1"`
	PlanType    *string          `gorm:"column:plan_type"`
	Status      enums.PlanStatus `gorm:"column:status;type:plan_status;not null;default:'active'"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
