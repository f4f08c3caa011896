package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/streamvault/streamvault-backend/pkg/enums"
)

// Invoice is an immutable record of a charge event. Description carries the
// human-readable summary of which plan, coupon, and promotion applied.
type Invoice struct {
	ID          uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Amount      decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Status      enums.InvoiceStatus `gorm:"column:status;type:invoice_status;not null"`
	Description string              `gorm:"column:description;not null"`
	InvoiceDate time.Time           `gorm:"column:invoice_date;not null"`
	DueDate     time.Time           `gorm:"column:due_date;not null"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
}
