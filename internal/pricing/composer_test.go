package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/streamvault/streamvault-backend/pkg/db/models"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func decPtr(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d := dec(t, s)
	return &d
}

func percentPromo(t *testing.T, pct string) *models.Promotion {
	t.Helper()
	return &models.Promotion{
		ID:                 uuid.New(),
		Name:               "test promo",
		DiscountPercentage: decPtr(t, pct),
	}
}

func amountPromo(t *testing.T, amount string) *models.Promotion {
	t.Helper()
	return &models.Promotion{
		ID:             uuid.New(),
		Name:           "test promo",
		DiscountAmount: decPtr(t, amount),
	}
}

func percentCoupon(t *testing.T, pct string) *models.Coupon {
	t.Helper()
	return &models.Coupon{
		ID:                 uuid.New(),
		Code:               "TEST",
		DiscountPercentage: decPtr(t, pct),
	}
}

func amountCoupon(t *testing.T, amount string) *models.Coupon {
	t.Helper()
	return &models.Coupon{
		ID:             uuid.New(),
		Code:           "TEST",
		DiscountAmount: decPtr(t, amount),
	}
}

func TestFinalPrice_SequentialComposition(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		promo  *models.Promotion
		coupon *models.Coupon
		want   string
	}{
		{
			name:   "percent promo then percent coupon",
			base:   "100.00",
			promo:  percentPromo(t, "50"),
			coupon: percentCoupon(t, "20"),
			want:   "40",
		},
		{
			name:   "percent promo then fixed coupon",
			base:   "20.00",
			promo:  percentPromo(t, "10"),
			coupon: amountCoupon(t, "5.00"),
			want:   "13",
		},
		{
			name:   "two fifty percent discounts",
			base:   "50.00",
			promo:  percentPromo(t, "50"),
			coupon: percentCoupon(t, "50"),
			want:   "12.5",
		},
		{
			name:  "promo only",
			base:  "29.99",
			promo: amountPromo(t, "10.00"),
			want:  "19.99",
		},
		{
			name:   "coupon only",
			base:   "29.99",
			coupon: percentCoupon(t, "25"),
			want:   "22.49",
		},
		{
			name: "no discounts is identity",
			base: "14.99",
			want: "14.99",
		},
		{
			name:   "fixed coupon exceeding price clamps at zero",
			base:   "10.00",
			coupon: amountCoupon(t, "100.00"),
			want:   "0",
		},
		{
			name:  "hundred percent promo",
			base:  "49.99",
			promo: percentPromo(t, "100"),
			want:  "0",
		},
		{
			name:  "zero percent promo",
			base:  "49.99",
			promo: percentPromo(t, "0"),
			want:  "49.99",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := FinalPrice(dec(t, tc.base), tc.promo, tc.coupon)
			if !got.Equal(dec(t, tc.want)) {
				t.Fatalf("FinalPrice(%s) = %s, want %s", tc.base, got, tc.want)
			}
		})
	}
}

func TestFinalPrice_RoundsHalfUpOnceAtEnd(t *testing.T) {
	// 10.99 * 0.85 = 9.3415, rounds to 9.34
	got := FinalPrice(dec(t, "10.99"), percentPromo(t, "15"), nil)
	if !got.Equal(dec(t, "9.34")) {
		t.Fatalf("got %s, want 9.34", got)
	}

	// Exact half: 10.05 * 0.5 = 5.025, half-up to 5.03
	got = FinalPrice(dec(t, "10.05"), percentPromo(t, "50"), nil)
	if !got.Equal(dec(t, "5.03")) {
		t.Fatalf("got %s, want 5.03", got)
	}

	// Intermediate value keeps full precision: 33.33% of 9.99 then 50% off.
	// 9.99 * 0.6667 * 0.5 = 3.3301665 -> 3.33
	got = FinalPrice(dec(t, "9.99"), percentPromo(t, "33.33"), percentCoupon(t, "50"))
	if !got.Equal(dec(t, "3.33")) {
		t.Fatalf("got %s, want 3.33", got)
	}
}

func TestFinalPrice_NeverNegative(t *testing.T) {
	// Promotion drives price to zero, coupon percent of zero stays zero.
	got := FinalPrice(dec(t, "15.00"), amountPromo(t, "20.00"), percentCoupon(t, "50"))
	if !got.Equal(decimal.Zero) {
		t.Fatalf("got %s, want 0", got)
	}
}

func TestCompose_Breakdown(t *testing.T) {
	promo := percentPromo(t, "50")
	coupon := percentCoupon(t, "20")

	quote := Compose(dec(t, "100.00"), promo, coupon)

	if !quote.BasePrice.Equal(dec(t, "100.00")) {
		t.Fatalf("base price = %s", quote.BasePrice)
	}
	if quote.PromotionID == nil || *quote.PromotionID != promo.ID {
		t.Fatalf("promotion id not carried through")
	}
	if !quote.PromotionDiscount.Equal(dec(t, "50")) {
		t.Fatalf("promotion discount = %s, want 50", quote.PromotionDiscount)
	}
	if quote.CouponID == nil || *quote.CouponID != coupon.ID {
		t.Fatalf("coupon id not carried through")
	}
	if !quote.CouponDiscount.Equal(dec(t, "10")) {
		t.Fatalf("coupon discount = %s, want 10", quote.CouponDiscount)
	}
	if !quote.FinalPrice.Equal(dec(t, "40")) {
		t.Fatalf("final price = %s, want 40", quote.FinalPrice)
	}
}

func TestCompose_NilDiscountColumnsAreNoOps(t *testing.T) {
	promo := &models.Promotion{ID: uuid.New(), Name: "empty"}
	coupon := &models.Coupon{ID: uuid.New(), Code: "EMPTY"}

	quote := Compose(dec(t, "25.00"), promo, coupon)
	if !quote.FinalPrice.Equal(dec(t, "25.00")) {
		t.Fatalf("final price = %s, want 25.00", quote.FinalPrice)
	}
	if !quote.PromotionDiscount.IsZero() || !quote.CouponDiscount.IsZero() {
		t.Fatalf("expected zero discounts, got promo=%s coupon=%s", quote.PromotionDiscount, quote.CouponDiscount)
	}
}
