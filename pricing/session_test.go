package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession(dec("1.25"))
	s.SetClock(time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC))
	return s
}

func summer100(t *testing.T) CodeRecord {
	t.Helper()
	d, err := NewFixedAmount(dec("100"))
	require.NoError(t, err)
	return CodeRecord{ID: 1, Code: "SUMMER100", Discount: d, Active: true}
}

func TestSessionLifecycle(t *testing.T) {
	t.Run("StartsEmpty", func(t *testing.T) {
		s := newTestSession(t)
		assert.Equal(t, StatusEmpty, s.Status)
		assert.True(t, s.TotalGBP.IsZero())
	})

	t.Run("AddTreatmentPrices", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.AddTreatment("Dental Implant", 2, dec("1000.00"), "10 years"))
		assert.Equal(t, StatusPriced, s.Status)
		assert.True(t, s.SubtotalGBP.Equal(dec("2000.00")))
		assert.True(t, s.TotalGBP.Equal(dec("2000.00")))
		assert.True(t, s.SubtotalUSD.Equal(dec("2500.00")))
	})

	t.Run("RemoveLastTreatmentGoesEmpty", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.AddTreatment("Filling", 1, dec("40.00"), ""))
		require.NoError(t, s.RemoveTreatment(0))
		assert.Equal(t, StatusEmpty, s.Status)
		assert.True(t, s.SubtotalGBP.IsZero())
	})

	t.Run("RejectsInvalidQuantity", func(t *testing.T) {
		s := newTestSession(t)
		assert.ErrorIs(t, s.AddTreatment("Filling", 0, dec("40.00"), ""), ErrInvalidQuantity)
	})

	t.Run("LockedQuoteRefusesMutation", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.AddTreatment("Filling", 1, dec("40.00"), ""))
		require.NoError(t, s.LockForCheckout())
		assert.Equal(t, StatusLockedForCheckout, s.Status)

		err := s.AddTreatment("Extraction", 1, dec("90.00"), "")
		assert.ErrorIs(t, err, ErrQuoteLocked)
		assert.Len(t, s.Lines, 1, "no partial mutation on a locked quote")
	})

	t.Run("CannotLockEmptyQuote", func(t *testing.T) {
		s := newTestSession(t)
		assert.ErrorIs(t, s.LockForCheckout(), ErrQuoteEmpty)
	})

	t.Run("ConvertedQuoteIsImmutable", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.AddTreatment("Filling", 1, dec("40.00"), ""))
		require.NoError(t, s.LockForCheckout())
		s.Status = StatusConverted

		assert.ErrorIs(t, s.AddTreatment("Extraction", 1, dec("90.00"), ""), ErrQuoteConverted)
		assert.ErrorIs(t, s.ClearPromoCode(), ErrQuoteConverted)
		assert.ErrorIs(t, s.Recompute(), ErrQuoteConverted)
		assert.ErrorIs(t, s.Abandon(), ErrQuoteConverted)
		assert.Equal(t, StatusConverted, s.Status, "status survives rejected mutations")
	})

	t.Run("AbandonedQuoteIsTerminal", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.AddTreatment("Filling", 1, dec("40.00"), ""))
		require.NoError(t, s.Abandon())
		assert.ErrorIs(t, s.AddTreatment("Extraction", 1, dec("90.00"), ""), ErrQuoteAbandoned)
	})

	t.Run("PackageLinesCannotBeRemovedIndividually", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.SetPackage(PackageDef{
			ID: 1, BundlePriceGBP: dec("500.00"),
			Items: []PackageItem{
				{TreatmentKey: "Veneer", Quantity: 4, CatalogUnitPriceGBP: dec("180.00")},
			},
		}))
		assert.ErrorIs(t, s.RemoveTreatment(0), ErrLineLocked)

		require.NoError(t, s.ClearPackage())
		assert.Equal(t, StatusEmpty, s.Status)
		assert.True(t, s.PackageSavingsGBP.IsZero())
	})
}

func TestEndToEndScenarios(t *testing.T) {
	// Scenario A: one treatment line + scoped 20% offer
	t.Run("ScenarioA_ScopedPercentageOffer", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.AddTreatment("Dental Implant", 2, dec("1000.00"), ""))
		require.NoError(t, s.SetOffer(mustPercentOffer(t, 5, "20", "Dental Implant")))

		assert.True(t, s.SubtotalGBP.Equal(dec("2000.00")), "subtotal %s", s.SubtotalGBP)
		assert.True(t, s.OfferDiscountGBP.Equal(dec("400.00")), "offer discount %s", s.OfferDiscountGBP)
		assert.True(t, s.TotalGBP.Equal(dec("1600.00")), "total %s", s.TotalGBP)
		assert.True(t, s.Lines[0].UnitPriceGBP.Equal(dec("800.00")))
		assert.True(t, s.Lines[0].IsSpecialOffer)
	})

	// Scenario B: scenario A plus promo code SUMMER100 (fixed 100)
	t.Run("ScenarioB_OfferPlusPromoCode", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.AddTreatment("Dental Implant", 2, dec("1000.00"), ""))
		require.NoError(t, s.SetOffer(mustPercentOffer(t, 5, "20", "Dental Implant")))
		require.NoError(t, s.SetPromoCode(summer100(t)))

		assert.True(t, s.PromoDiscountGBP.Equal(dec("100.00")))
		assert.True(t, s.DiscountGBP.Equal(dec("500.00")))
		assert.True(t, s.TotalGBP.Equal(dec("1500.00")))
		require.NotNil(t, s.PromoCode)
		assert.Equal(t, "SUMMER100", *s.PromoCode)
	})

	// Scenario C: empty quote, discounts are zero-value successes
	t.Run("ScenarioC_EmptyQuote", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.SetOffer(mustPercentOffer(t, 5, "20", "Dental Implant")))
		require.NoError(t, s.SetPromoCode(summer100(t)))

		assert.True(t, s.SubtotalGBP.IsZero())
		assert.True(t, s.OfferDiscountGBP.IsZero())
		assert.True(t, s.PromoDiscountGBP.IsZero())
		assert.True(t, s.TotalGBP.IsZero())
	})
}

func TestDiscountComposition(t *testing.T) {
	t.Run("OfferReplacementIdempotence", func(t *testing.T) {
		build := func() *Session {
			s := newTestSession(t)
			require.NoError(t, s.AddTreatment("Dental Implant", 2, dec("1000.00"), ""))
			return s
		}

		sAB := build()
		require.NoError(t, sAB.SetOffer(mustPercentOffer(t, 1, "30", "Dental Implant")))
		require.NoError(t, sAB.SetOffer(mustPercentOffer(t, 2, "20", "Dental Implant")))

		sB := build()
		require.NoError(t, sB.SetOffer(mustPercentOffer(t, 2, "20", "Dental Implant")))

		assert.True(t, sAB.TotalGBP.Equal(sB.TotalGBP))
		assert.True(t, sAB.OfferDiscountGBP.Equal(sB.OfferDiscountGBP))
		assert.True(t, sAB.Lines[0].UnitPriceGBP.Equal(sB.Lines[0].UnitPriceGBP))
		require.NotNil(t, sAB.SpecialOfferID)
		assert.Equal(t, uint(2), *sAB.SpecialOfferID)
	})

	t.Run("PromoOfferOrderIndependence", func(t *testing.T) {
		offer := mustPercentOffer(t, 1, "20", "Dental Implant")

		s1 := newTestSession(t)
		require.NoError(t, s1.AddTreatment("Dental Implant", 2, dec("1000.00"), ""))
		require.NoError(t, s1.SetOffer(offer))
		require.NoError(t, s1.SetPromoCode(summer100(t)))

		s2 := newTestSession(t)
		require.NoError(t, s2.AddTreatment("Dental Implant", 2, dec("1000.00"), ""))
		require.NoError(t, s2.SetPromoCode(summer100(t)))
		require.NoError(t, s2.SetOffer(offer))

		assert.True(t, s1.TotalGBP.Equal(s2.TotalGBP), "%s vs %s", s1.TotalGBP, s2.TotalGBP)
		assert.True(t, s1.DiscountGBP.Equal(s2.DiscountGBP))
	})

	t.Run("PromoCodeReplacementNotAdditive", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.AddTreatment("Dental Implant", 1, dec("1000.00"), ""))
		require.NoError(t, s.SetPromoCode(summer100(t)))

		d, err := NewFixedAmount(dec("50"))
		require.NoError(t, err)
		require.NoError(t, s.SetPromoCode(CodeRecord{ID: 2, Code: "WELCOME50", Discount: d, Active: true}))

		assert.True(t, s.PromoDiscountGBP.Equal(dec("50.00")), "got %s", s.PromoDiscountGBP)
	})

	t.Run("ExpiredPromoCodeRejectedWithoutMutation", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.AddTreatment("Dental Implant", 1, dec("1000.00"), ""))

		expired := summer100(t)
		past := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		expired.ExpiresAt = &past

		assert.ErrorIs(t, s.SetPromoCode(expired), ErrPromoCodeExpired)
		assert.Nil(t, s.PromoCode)
		assert.True(t, s.PromoDiscountGBP.IsZero())
	})

	t.Run("InactivePromoCodeRejected", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.AddTreatment("Dental Implant", 1, dec("1000.00"), ""))

		inactive := summer100(t)
		inactive.Active = false
		assert.ErrorIs(t, s.SetPromoCode(inactive), ErrPromoCodeInactive)
	})

	t.Run("TotalNeverNegative", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.AddTreatment("Cleaning", 1, dec("30.00"), ""))

		d, err := NewFixedAmount(dec("500"))
		require.NoError(t, err)
		require.NoError(t, s.SetPromoCode(CodeRecord{ID: 3, Code: "BIG", Discount: d, Active: true}))

		assert.False(t, s.TotalGBP.IsNegative())
		assert.True(t, s.PromoDiscountGBP.Equal(dec("30.00")), "capped at subtotal, got %s", s.PromoDiscountGBP)
	})

	t.Run("ZeroMatchOfferKeepsQuoteValidWithWarning", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.AddTreatment("Teeth Whitening", 1, dec("300.00"), ""))
		require.NoError(t, s.SetOffer(mustPercentOffer(t, 9, "50", "Dental Implant")))

		assert.True(t, s.OfferDiscountGBP.IsZero())
		assert.True(t, s.TotalGBP.Equal(dec("300.00")))
		assert.Contains(t, s.Warnings, WarningOfferMatchedNoLines)

		// the warning clears once the offer matches
		require.NoError(t, s.AddTreatment("Dental Implant", 1, dec("1000.00"), ""))
		assert.NotContains(t, s.Warnings, WarningOfferMatchedNoLines)
		assert.True(t, s.OfferDiscountGBP.Equal(dec("500.00")))
	})

	t.Run("RecomputeIsIdempotent", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.AddTreatment("Dental Implant", 2, dec("1000.00"), ""))
		require.NoError(t, s.SetOffer(mustPercentOffer(t, 5, "20", "Dental Implant")))
		require.NoError(t, s.SetPromoCode(summer100(t)))

		total := s.TotalGBP
		for range 5 {
			require.NoError(t, s.Recompute())
		}
		assert.True(t, s.TotalGBP.Equal(total))
		assert.True(t, s.Lines[0].OriginalUnitPriceGBP.Equal(dec("1000.00")))
	})

	t.Run("PackageSavingsNotSummedIntoDiscount", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.SetPackage(PackageDef{
			ID: 1, BundlePriceGBP: dec("2500.00"),
			Items: []PackageItem{
				{TreatmentKey: "Dental Implant", Quantity: 2, CatalogUnitPriceGBP: dec("1000.00")},
				{TreatmentKey: "Zirconia Crown", Quantity: 4, CatalogUnitPriceGBP: dec("250.00")},
			},
		}))

		assert.True(t, s.PackageSavingsGBP.Equal(dec("500.00")))
		assert.True(t, s.SubtotalGBP.Equal(dec("2500.00")), "bundle price is the committed subtotal")
		assert.True(t, s.DiscountGBP.IsZero(), "package savings are informational only")
		assert.True(t, s.TotalGBP.Equal(dec("2500.00")))
	})
}
