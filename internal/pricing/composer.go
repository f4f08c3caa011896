package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/streamvault/streamvault-backend/pkg/db/models"
)

var oneHundred = decimal.NewFromInt(100)

// Quote is the priced breakdown for a plan after applying the live promotion
// and an optional coupon. Discounts compose sequentially: the promotion is
// applied to the base price first, then the coupon is applied to the already
// discounted amount.
type Quote struct {
	BasePrice         decimal.Decimal `json:"base_price"`
	PromotionID       *uuid.UUID      `json:"promotion_id,omitempty"`
	PromotionName     string          `json:"promotion_name,omitempty"`
	PromotionDiscount decimal.Decimal `json:"promotion_discount"`
	CouponID          *uuid.UUID      `json:"coupon_id,omitempty"`
	CouponCode        string          `json:"coupon_code,omitempty"`
	CouponDiscount    decimal.Decimal `json:"coupon_discount"`
	FinalPrice        decimal.Decimal `json:"final_price"`
}

// Compose prices a plan with the given promotion and coupon, either of which
// may be nil. The running amount is clamped at zero after each discount, and
// the final amount is rounded half-up to 2 decimal places exactly once.
func Compose(base decimal.Decimal, promo *models.Promotion, coupon *models.Coupon) Quote {
	quote := Quote{
		BasePrice:         base,
		PromotionDiscount: decimal.Zero,
		CouponDiscount:    decimal.Zero,
	}

	price := base
	if promo != nil {
		discounted := applyDiscount(price, promo.DiscountPercentage, promo.DiscountAmount)
		quote.PromotionID = &promo.ID
		quote.PromotionName = promo.Name
		quote.PromotionDiscount = price.Sub(discounted)
		price = discounted
	}

	if coupon != nil {
		discounted := applyDiscount(price, coupon.DiscountPercentage, coupon.DiscountAmount)
		quote.CouponID = &coupon.ID
		quote.CouponCode = coupon.Code
		quote.CouponDiscount = price.Sub(discounted)
		price = discounted
	}

	quote.FinalPrice = price.Round(2)
	return quote
}

// FinalPrice is the composition without the breakdown.
func FinalPrice(base decimal.Decimal, promo *models.Promotion, coupon *models.Coupon) decimal.Decimal {
	return Compose(base, promo, coupon).FinalPrice
}

func applyDiscount(price decimal.Decimal, percentage, amount *decimal.Decimal) decimal.Decimal {
	switch {
	case percentage != nil:
		factor := oneHundred.Sub(*percentage).Div(oneHundred)
		price = price.Mul(factor)
	case amount != nil:
		price = price.Sub(*amount)
	}

	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}
