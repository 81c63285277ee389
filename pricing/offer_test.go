package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLine(t *testing.T, name string, qty int, unit string) Line {
	t.Helper()
	l, err := NewLine(name, qty, dec(unit), "")
	require.NoError(t, err)
	return l
}

func mustPercentOffer(t *testing.T, id uint, value string, applicable ...string) Offer {
	t.Helper()
	d, err := NewPercentage(dec(value))
	require.NoError(t, err)
	return Offer{ID: id, Title: "Test Offer", ClinicID: 1, Discount: d, ApplicableTreatments: applicable}
}

func TestTreatmentMatching(t *testing.T) {
	cases := []struct {
		line, entry string
		want        bool
	}{
		{"Dental Implant", "Dental Implant", true},
		{"dental implant", "DENTAL IMPLANT", true},
		{"Dental Implant", "Implant", true},
		{"Implant", "Dental Implant", true}, // substring in either direction
		{"Crown Lengthening", "Crown", true},
		{"Teeth Whitening", "Implant", false},
		{"", "Implant", false},
		{"Implant", "  ", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, matchesTreatment(c.line, c.entry), "%q vs %q", c.line, c.entry)
	}
}

func TestOfferValidityWindow(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	from := now.Add(-24 * time.Hour)
	until := now.Add(24 * time.Hour)

	assert.True(t, Offer{ValidFrom: &from, ValidUntil: &until}.Active(now))
	assert.True(t, Offer{}.Active(now))
	assert.False(t, Offer{ValidFrom: &until}.Active(now))
	assert.False(t, Offer{ValidUntil: &from}.Active(now))
}

func TestApplySpecialOffer(t *testing.T) {
	t.Run("ScopedPercentageRepricesMatchedLines", func(t *testing.T) {
		lines := []Line{
			mustLine(t, "Dental Implant", 2, "1000.00"),
			mustLine(t, "Teeth Whitening", 1, "300.00"),
		}
		offer := mustPercentOffer(t, 10, "20", "Dental Implant")

		res, err := ApplySpecialOffer(offer, lines)
		require.NoError(t, err)
		assert.Equal(t, 1, res.MatchedCount)
		assert.True(t, res.OfferDiscount.Equal(dec("400.00")), "got %s", res.OfferDiscount)

		implant := res.Lines[0]
		assert.True(t, implant.UnitPriceGBP.Equal(dec("800.00")), "got %s", implant.UnitPriceGBP)
		assert.True(t, implant.IsSpecialOffer)
		require.NotNil(t, implant.Offer)
		assert.Equal(t, uint(10), implant.Offer.ID)
		assert.True(t, implant.OriginalUnitPriceGBP.Equal(dec("1000.00")), "pristine price must survive")

		whitening := res.Lines[1]
		assert.False(t, whitening.IsSpecialOffer)
		assert.True(t, whitening.UnitPriceGBP.Equal(dec("300.00")))
	})

	t.Run("UnscopedOfferDiscountsWholeSubtotal", func(t *testing.T) {
		lines := []Line{
			mustLine(t, "Dental Implant", 1, "1000.00"),
			mustLine(t, "Teeth Whitening", 1, "300.00"),
		}
		offer := mustPercentOffer(t, 11, "10")

		res, err := ApplySpecialOffer(offer, lines)
		require.NoError(t, err)
		assert.Equal(t, 2, res.MatchedCount)
		assert.True(t, res.OfferDiscount.Equal(dec("130.00")), "got %s", res.OfferDiscount)
		for _, l := range res.Lines {
			assert.True(t, l.IsSpecialOffer)
			// aggregate discount leaves unit prices untouched
			assert.True(t, l.UnitPriceGBP.Equal(l.OriginalUnitPriceGBP))
		}
	})

	t.Run("ZeroMatchesIsWarningNotError", func(t *testing.T) {
		lines := []Line{mustLine(t, "Teeth Whitening", 1, "300.00")}
		offer := mustPercentOffer(t, 12, "50", "Dental Implant")

		res, err := ApplySpecialOffer(offer, lines)
		require.NoError(t, err)
		assert.True(t, res.OfferDiscount.IsZero())
		assert.Equal(t, 0, res.MatchedCount)
		assert.Contains(t, res.Warnings, WarningOfferMatchedNoLines)
	})

	t.Run("FullDiscountFlagsBonusLine", func(t *testing.T) {
		lines := []Line{mustLine(t, "Consultation", 1, "50.00")}
		offer := mustPercentOffer(t, 13, "100", "Consultation")

		res, err := ApplySpecialOffer(offer, lines)
		require.NoError(t, err)
		res.Lines[0].reprice(dec("1.25"))
		assert.True(t, res.Lines[0].UnitPriceGBP.IsZero())
		assert.True(t, res.Lines[0].IsBonus)
	})

	t.Run("PartialDiscountIsNotBonus", func(t *testing.T) {
		lines := []Line{mustLine(t, "Consultation", 1, "50.00")}
		offer := mustPercentOffer(t, 14, "99", "Consultation")

		res, err := ApplySpecialOffer(offer, lines)
		require.NoError(t, err)
		res.Lines[0].reprice(dec("1.25"))
		assert.False(t, res.Lines[0].IsBonus)
	})

	t.Run("ReplacementNeverCompounds", func(t *testing.T) {
		pristine := []Line{mustLine(t, "Dental Implant", 2, "1000.00")}
		offerA := mustPercentOffer(t, 20, "30", "Dental Implant")
		offerB := mustPercentOffer(t, 21, "20", "Dental Implant")

		afterA, err := ApplySpecialOffer(offerA, pristine)
		require.NoError(t, err)
		afterAB, err := ApplySpecialOffer(offerB, afterA.Lines)
		require.NoError(t, err)
		onlyB, err := ApplySpecialOffer(offerB, pristine)
		require.NoError(t, err)

		assert.True(t, afterAB.OfferDiscount.Equal(onlyB.OfferDiscount))
		assert.True(t, afterAB.Lines[0].UnitPriceGBP.Equal(onlyB.Lines[0].UnitPriceGBP))
	})

	t.Run("FixedAmountSpreadAcrossMatchedLines", func(t *testing.T) {
		d, err := NewFixedAmount(dec("90.00"))
		require.NoError(t, err)
		offer := Offer{ID: 30, ClinicID: 1, Discount: d, ApplicableTreatments: []string{"Crown"}}
		lines := []Line{
			mustLine(t, "Zirconia Crown", 1, "200.00"),
			mustLine(t, "Porcelain Crown", 1, "100.00"),
		}

		res, err := ApplySpecialOffer(offer, lines)
		require.NoError(t, err)
		assert.True(t, res.OfferDiscount.Equal(dec("90.00")))

		// discounted line values must sum to matched subtotal minus discount
		sum := lineValueSum(res.Lines)
		assert.True(t, sum.Equal(dec("210.00")), "got %s", sum)
	})
}
