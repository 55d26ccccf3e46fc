// Package loyalty holds the pure loyalty math: tier classification,
// accrual multipliers and redemption bounds. The only state it ever
// sees is the customer's current point balance passed in by the
// settlement engine.
package loyalty

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Tiers by lifetime balance. Each tier carries an accrual multiplier;
// the redemption rate is flat: 100 points buy $10 of discount.
const (
	TierBronze = "bronze"
	TierSilver = "silver"
	TierGold   = "gold"

	silverThreshold = 500
	goldThreshold   = 1000

	// MinRedeemPoints is the minimum balance before redemption is
	// offered at all. Below it, redemption is refused with a reason
	// rather than silently clamped to zero.
	MinRedeemPoints = 100

	// pointsPerDollar converts ticket value to the points needed to
	// zero it out (100 points = $10).
	pointsPerDollar = 10
)

var (
	ErrRedemptionBelowThreshold = errors.New("loyalty balance below minimum redemption threshold")
	ErrInsufficientPoints       = errors.New("insufficient loyalty points")
	ErrRedeemExceedsCharge      = errors.New("redeemed points exceed ticket value")
)

var (
	bronzeRate = decimal.NewFromInt(1)
	silverRate = decimal.NewFromFloat(1.5)
	goldRate   = decimal.NewFromInt(2)
)

// TierOf classifies a point balance: bronze [0,500), silver [500,1000),
// gold [1000,∞).
func TierOf(points int64) string {
	switch {
	case points >= goldThreshold:
		return TierGold
	case points >= silverThreshold:
		return TierSilver
	default:
		return TierBronze
	}
}

// AccrualRate returns the earn multiplier for a tier (1.0 / 1.5 / 2.0).
func AccrualRate(tier string) decimal.Decimal {
	switch tier {
	case TierGold:
		return goldRate
	case TierSilver:
		return silverRate
	default:
		return bronzeRate
	}
}

// DiscountFromPoints converts redeemed points to a dollar discount.
func DiscountFromPoints(points int64) decimal.Decimal {
	return decimal.NewFromInt(points).Div(decimal.NewFromInt(pointsPerDollar))
}

// MaxRedeemable returns the largest number of points the customer may
// redeem against a ticket: never more than the balance, and never more
// than needed to zero out the ticket.
func MaxRedeemable(points int64, total decimal.Decimal) int64 {
	toZero := total.Mul(decimal.NewFromInt(pointsPerDollar)).Floor().IntPart()
	if points < toZero {
		return points
	}
	return toZero
}

// ValidateRedemption checks a requested redemption against the balance
// and the ticket total. A zero request is always fine (the sale simply
// proceeds without redemption).
func ValidateRedemption(balance, redeem int64, total decimal.Decimal) error {
	if redeem <= 0 {
		return nil
	}
	if balance < MinRedeemPoints {
		return ErrRedemptionBelowThreshold
	}
	if redeem > balance {
		return ErrInsufficientPoints
	}
	if redeem > MaxRedeemable(balance, total) {
		return ErrRedeemExceedsCharge
	}
	return nil
}

// PointsEarned computes accrual on the cash-equivalent portion of a
// sale: floor(charge * rate). The redeemed-point value never accrues
// further points because it is subtracted before this is called.
func PointsEarned(effectiveCharge decimal.Decimal, tier string) int64 {
	if effectiveCharge.IsNegative() {
		return 0
	}
	return effectiveCharge.Mul(AccrualRate(tier)).Floor().IntPart()
}
