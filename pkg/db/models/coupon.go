package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coupon is a user-supplied discount code. Codes are stored upper-cased and
// matched case-insensitively. CurrentUses only ever increases; there is no
// coupon return path.
type Coupon struct {
	ID                 uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Code               string           `gorm:"column:code;not null;uniqueIndex"`
	Description        string           `gorm:"column:description"`
	DiscountPercentage *decimal.Decimal `gorm:"column:discount_percentage;type:numeric(5,2)"`
	DiscountAmount     *decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2)"`
	MaxUses            *int             `gorm:"column:max_uses"`
	CurrentUses        int              `gorm:"column:current_uses;not null;default:0"`
	Active             bool             `gorm:"column:active;not null;default:false"`
	StartsAt           *time.Time       `gorm:"column:starts_at"`
	EndsAt             *time.Time       `gorm:"column:ends_at"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// Exhausted reports whether the redemption cap has been reached.
func (c Coupon) Exhausted() bool {
	return c.MaxUses != nil && c.CurrentUses >= *c.MaxUses
}
