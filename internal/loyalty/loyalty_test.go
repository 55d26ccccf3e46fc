package loyalty

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestTierOf(t *testing.T) {
	cases := []struct {
		points int64
		tier   string
	}{
		{0, TierBronze},
		{499, TierBronze},
		{500, TierSilver},
		{999, TierSilver},
		{1000, TierGold},
		{25000, TierGold},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.tier, TierOf(tc.points), "points=%d", tc.points)
	}
}

func TestDiscountFromPoints(t *testing.T) {
	assert.True(t, DiscountFromPoints(100).Equal(d("10")))
	assert.True(t, DiscountFromPoints(200).Equal(d("20")))
	assert.True(t, DiscountFromPoints(250).Equal(d("25")))
	assert.True(t, DiscountFromPoints(0).Equal(decimal.Zero))
}

func TestMaxRedeemable(t *testing.T) {
	// Balance caps redemption.
	assert.EqualValues(t, 150, MaxRedeemable(150, d("200")))
	// Ticket value caps redemption: $20 ticket needs 200 points to zero.
	assert.EqualValues(t, 200, MaxRedeemable(600, d("20")))
	// Fractional tickets floor to whole points.
	assert.EqualValues(t, 125, MaxRedeemable(600, d("12.55")))
}

// The two §-style invariants: maxRedeemable never exceeds the balance,
// and the resulting discount never exceeds the ticket total.
func TestRedemptionBoundsProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		points := rng.Int63n(5000)
		total := decimal.NewFromInt(rng.Int63n(50000)).Div(decimal.NewFromInt(100)) // up to $500, cents precision
		max := MaxRedeemable(points, total)
		require.LessOrEqual(t, max, points)
		require.True(t, DiscountFromPoints(max).LessThanOrEqual(total),
			"points=%d total=%s max=%d", points, total, max)
	}
}

func TestValidateRedemption(t *testing.T) {
	total := d("50")

	require.NoError(t, ValidateRedemption(600, 0, total))
	require.NoError(t, ValidateRedemption(600, 200, d("200")))

	assert.ErrorIs(t, ValidateRedemption(50, 50, total), ErrRedemptionBelowThreshold)
	assert.ErrorIs(t, ValidateRedemption(99, 10, total), ErrRedemptionBelowThreshold)
	assert.ErrorIs(t, ValidateRedemption(200, 300, total), ErrInsufficientPoints)
	// $50 ticket zeroes out at 500 points; 600 would overshoot.
	assert.ErrorIs(t, ValidateRedemption(1000, 600, total), ErrRedeemExceedsCharge)
}

func TestPointsEarned(t *testing.T) {
	// Silver tier at 1.5x: $180 earns floor(270) = 270.
	assert.EqualValues(t, 270, PointsEarned(d("180"), TierSilver))
	// Bronze at 1.0x floors fractional cents.
	assert.EqualValues(t, 12, PointsEarned(d("12.90"), TierBronze))
	// Gold at 2.0x.
	assert.EqualValues(t, 400, PointsEarned(d("200"), TierGold))
	// Negative charge never mints points.
	assert.EqualValues(t, 0, PointsEarned(d("-5"), TierGold))
}
