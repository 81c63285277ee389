package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewDiscount(t *testing.T) {
	t.Run("ValidPercentage", func(t *testing.T) {
		d, err := NewDiscount(DiscountPercentage, dec("20"))
		require.NoError(t, err)
		assert.Equal(t, DiscountPercentage, d.Kind)
		assert.True(t, d.Value.Equal(dec("20")))
	})

	t.Run("ValidFixedAmount", func(t *testing.T) {
		d, err := NewDiscount(DiscountFixedAmount, dec("100"))
		require.NoError(t, err)
		assert.Equal(t, DiscountFixedAmount, d.Kind)
	})

	t.Run("RejectsZeroValue", func(t *testing.T) {
		_, err := NewDiscount(DiscountPercentage, decimal.Zero)
		assert.ErrorIs(t, err, ErrInvalidDiscountValue)

		_, err = NewDiscount(DiscountFixedAmount, dec("-5"))
		assert.ErrorIs(t, err, ErrInvalidDiscountValue)
	})

	t.Run("RejectsPercentageOverHundred", func(t *testing.T) {
		_, err := NewDiscount(DiscountPercentage, dec("100.01"))
		assert.ErrorIs(t, err, ErrPercentageOutOfRange)
	})

	t.Run("RejectsUnknownKind", func(t *testing.T) {
		_, err := NewDiscount(DiscountKind("bogus"), dec("10"))
		assert.ErrorIs(t, err, ErrInvalidDiscountKind)
	})
}

func TestResolveDiscount(t *testing.T) {
	t.Run("PercentageCorrectness", func(t *testing.T) {
		d, err := NewPercentage(dec("20"))
		require.NoError(t, err)

		amount, err := ResolveDiscount(d, dec("100.00"))
		require.NoError(t, err)
		assert.True(t, amount.Equal(dec("20.00")), "got %s", amount)
	})

	t.Run("PercentageRoundsHalfUp", func(t *testing.T) {
		d, err := NewPercentage(dec("15"))
		require.NoError(t, err)

		// 15% of 33.30 = 4.995 -> 5.00
		amount, err := ResolveDiscount(d, dec("33.30"))
		require.NoError(t, err)
		assert.True(t, amount.Equal(dec("5.00")), "got %s", amount)
	})

	t.Run("FixedAmountCap", func(t *testing.T) {
		d, err := NewFixedAmount(dec("150"))
		require.NoError(t, err)

		amount, err := ResolveDiscount(d, dec("80.00"))
		require.NoError(t, err)
		assert.True(t, amount.Equal(dec("80.00")), "fixed discount must be capped at the target")
	})

	t.Run("FixedAmountBelowTarget", func(t *testing.T) {
		d, err := NewFixedAmount(dec("25.50"))
		require.NoError(t, err)

		amount, err := ResolveDiscount(d, dec("80.00"))
		require.NoError(t, err)
		assert.True(t, amount.Equal(dec("25.50")))
	})

	t.Run("ZeroTargetYieldsZero", func(t *testing.T) {
		d, err := NewFixedAmount(dec("100"))
		require.NoError(t, err)

		amount, err := ResolveDiscount(d, decimal.Zero)
		require.NoError(t, err)
		assert.True(t, amount.IsZero())
	})

	t.Run("RejectsNegativeTarget", func(t *testing.T) {
		d, err := NewPercentage(dec("10"))
		require.NoError(t, err)

		_, err = ResolveDiscount(d, dec("-1"))
		assert.ErrorIs(t, err, ErrNegativeTarget)
	})

	t.Run("OutputBounds", func(t *testing.T) {
		// 0 <= amount <= target for a spread of inputs
		targets := []string{"0", "0.01", "1", "99.99", "1000", "123456.78"}
		percents := []string{"0.01", "1", "33.33", "50", "99.99", "100"}
		for _, ts := range targets {
			target := dec(ts)
			for _, ps := range percents {
				d, err := NewPercentage(dec(ps))
				require.NoError(t, err)
				amount, err := ResolveDiscount(d, target)
				require.NoError(t, err)
				assert.False(t, amount.IsNegative(), "target=%s pct=%s", ts, ps)
				assert.True(t, amount.LessThanOrEqual(target), "target=%s pct=%s amount=%s", ts, ps, amount)
			}
		}
	})
}
