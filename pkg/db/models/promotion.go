package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Promotion is a store-wide discount applied automatically to eligible
// purchases. Exactly one of DiscountPercentage / DiscountAmount is expected to
// be set; a row with both null simply contributes no discount.
type Promotion struct {
	ID                 uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name               string           `gorm:"column:name;not null"`
	Description        string           `gorm:"column:description"`
	DiscountPercentage *decimal.Decimal `gorm:"column:discount_percentage;type:numeric(5,2)"`
	DiscountAmount     *decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2)"`
	Active             bool             `gorm:"column:active;not null;default:false"`
	StartsAt           *time.Time       `gorm:"column:starts_at"`
	EndsAt             *time.Time       `gorm:"column:ends_at"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// LiveAt reports whether the promotion is active and inside its date window.
// Both window edges are inclusive.
func (p Promotion) LiveAt(now time.Time) bool {
	if !p.Active {
		return false
	}
	if p.StartsAt != nil && p.StartsAt.After(now) {
		return false
	}
	if p.EndsAt != nil && p.EndsAt.Before(now) {
		return false
	}
	return true
}
