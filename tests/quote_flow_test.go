// Package tests contains integration tests for the quote building flow
package tests

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smiletrip/smiletrip/app/dto"
	businessflow "github.com/smiletrip/smiletrip/business_flow"
	"github.com/smiletrip/smiletrip/models"
	"github.com/smiletrip/smiletrip/pricing"
	"github.com/smiletrip/smiletrip/repository"
	testingutil "github.com/smiletrip/smiletrip/testing"
	"github.com/smiletrip/smiletrip/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newQuoteFlow(testDB *testingutil.TestDB) businessflow.QuoteFlow {
	return businessflow.NewQuoteFlow(
		repository.NewQuoteRepository(testDB.DB),
		repository.NewClinicRepository(testDB.DB),
		repository.NewTreatmentRepository(testDB.DB),
		repository.NewTreatmentPackageRepository(testDB.DB),
		repository.NewSpecialOfferRepository(testDB.DB),
		repository.NewPromoCodeRepository(testDB.DB),
		repository.NewAppliedSpecialOfferRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		testDB.DB,
		dec("1.25"),
	)
}

func testMetadata() *businessflow.ClientMetadata {
	return businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")
}

func TestQuoteFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		quoteFlow := newQuoteFlow(testDB)
		ctx := context.Background()
		metadata := testMetadata()

		newBuildingQuote := func(t *testing.T) (*models.Customer, *models.Clinic, string) {
			t.Helper()
			customer, err := fixtures.CreateTestCustomer(models.AccountTypePatient)
			require.NoError(t, err)
			clinic, err := fixtures.CreateTestClinic(models.ClinicTierMid)
			require.NoError(t, err)
			created, err := quoteFlow.CreateQuote(ctx, &dto.CreateQuoteRequest{ClinicUUID: clinic.UUID.String()}, customer.ID, metadata)
			require.NoError(t, err)
			return customer, clinic, created.Quote.UUID
		}

		t.Run("CreateQuoteStartsEmpty", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer(models.AccountTypePatient)
			require.NoError(t, err)
			clinic, err := fixtures.CreateTestClinic(models.ClinicTierAffordable)
			require.NoError(t, err)

			created, err := quoteFlow.CreateQuote(ctx, &dto.CreateQuoteRequest{ClinicUUID: clinic.UUID.String()}, customer.ID, metadata)
			require.NoError(t, err)
			assert.Equal(t, models.QuoteStatusEmpty, created.Quote.Status)
			assert.NotEmpty(t, created.Quote.UUID)
			assert.True(t, created.Quote.TotalGBP.IsZero())
			assert.True(t, created.Quote.USDRate.Equal(dec("1.25")))
		})

		t.Run("CreateQuoteRejectsInactiveClinic", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer(models.AccountTypePatient)
			require.NoError(t, err)
			clinic, err := fixtures.CreateTestClinic(models.ClinicTierMid)
			require.NoError(t, err)
			clinic.IsActive = utils.ToPtr(false)
			require.NoError(t, testDB.DB.Save(clinic).Error)

			_, err = quoteFlow.CreateQuote(ctx, &dto.CreateQuoteRequest{ClinicUUID: clinic.UUID.String()}, customer.ID, metadata)
			assert.True(t, businessflow.IsClinicInactive(err))
		})

		t.Run("AddTreatmentPricesQuote", func(t *testing.T) {
			customer, _, quoteUUID := newBuildingQuote(t)
			_, err := fixtures.CreateTestTreatment("Dental Implant", dec("100.00"))
			require.NoError(t, err)

			resp, err := quoteFlow.AddTreatment(ctx, quoteUUID, customer.ID,
				&dto.AddTreatmentRequest{TreatmentKey: "Dental Implant", Quantity: 2}, metadata)
			require.NoError(t, err)

			assert.Equal(t, models.QuoteStatusPriced, resp.Quote.Status)
			require.Len(t, resp.Quote.Items, 1)
			assert.True(t, resp.Quote.SubtotalGBP.Equal(dec("200.00")))
			assert.True(t, resp.Quote.SubtotalUSD.Equal(dec("250.00")))
			assert.True(t, resp.Quote.TotalGBP.Equal(dec("200.00")))
			assert.True(t, resp.Quote.TotalUSD.Equal(dec("250.00")))
		})

		t.Run("AddTreatmentUnknownKey", func(t *testing.T) {
			customer, _, quoteUUID := newBuildingQuote(t)

			_, err := quoteFlow.AddTreatment(ctx, quoteUUID, customer.ID,
				&dto.AddTreatmentRequest{TreatmentKey: "No Such Treatment", Quantity: 1}, metadata)
			assert.True(t, businessflow.IsTreatmentNotFound(err))
		})

		t.Run("RemoveTreatmentEmptiesQuote", func(t *testing.T) {
			customer, _, quoteUUID := newBuildingQuote(t)
			_, err := fixtures.CreateTestTreatment("Tooth Filling", dec("40.00"))
			require.NoError(t, err)

			_, err = quoteFlow.AddTreatment(ctx, quoteUUID, customer.ID,
				&dto.AddTreatmentRequest{TreatmentKey: "Tooth Filling", Quantity: 1}, metadata)
			require.NoError(t, err)

			resp, err := quoteFlow.RemoveTreatment(ctx, quoteUUID, customer.ID, 0, metadata)
			require.NoError(t, err)
			assert.Equal(t, models.QuoteStatusEmpty, resp.Quote.Status)
			assert.Empty(t, resp.Quote.Items)
			assert.True(t, resp.Quote.TotalGBP.IsZero())
		})

		t.Run("RemoveTreatmentBadPosition", func(t *testing.T) {
			customer, _, quoteUUID := newBuildingQuote(t)

			_, err := quoteFlow.RemoveTreatment(ctx, quoteUUID, customer.ID, 5, metadata)
			assert.ErrorIs(t, err, pricing.ErrLineNotFound)
		})

		t.Run("ApplyPackageExpandsLockedLines", func(t *testing.T) {
			customer, clinic, quoteUUID := newBuildingQuote(t)
			_, err := fixtures.CreateTestTreatment("Zirconia Crown", dec("50.00"))
			require.NoError(t, err)
			_, err = fixtures.CreateTestTreatment("Sinus Lift", dec("100.00"))
			require.NoError(t, err)
			pkg, err := fixtures.CreateTestPackage(clinic.ID, dec("260.00"), map[string]int{
				"Zirconia Crown": 2,
				"Sinus Lift":     2,
			})
			require.NoError(t, err)

			resp, err := quoteFlow.ApplyPackage(ctx, quoteUUID, customer.ID,
				&dto.ApplyPackageRequest{PackageUUID: pkg.UUID.String()}, metadata)
			require.NoError(t, err)

			assert.Equal(t, models.QuoteStatusPriced, resp.Quote.Status)
			require.NotNil(t, resp.Quote.PackageID)
			require.Len(t, resp.Quote.Items, 2)
			for _, item := range resp.Quote.Items {
				assert.True(t, item.IsPackageItem)
				assert.True(t, item.IsLocked)
			}
			// Line subtotals sum to the bundle price, savings carry the
			// catalog difference (2x50 + 2x100 = 300 catalog vs 260 bundle).
			assert.True(t, resp.Quote.SubtotalGBP.Equal(dec("260.00")))
			assert.True(t, resp.Quote.TotalGBP.Equal(dec("260.00")))
			assert.True(t, resp.Quote.PackageSavingsGBP.Equal(dec("40.00")))

			// Package lines cannot be removed individually.
			_, err = quoteFlow.RemoveTreatment(ctx, quoteUUID, customer.ID, 0, metadata)
			assert.True(t, pricing.IsLineLocked(err))

			// Clearing the package drops its lines wholesale.
			cleared, err := quoteFlow.ClearPackage(ctx, quoteUUID, customer.ID, metadata)
			require.NoError(t, err)
			assert.Nil(t, cleared.Quote.PackageID)
			assert.Empty(t, cleared.Quote.Items)
			assert.True(t, cleared.Quote.PackageSavingsGBP.IsZero())
		})

		t.Run("ApplyOfferDiscountsWholeQuote", func(t *testing.T) {
			customer, clinic, quoteUUID := newBuildingQuote(t)
			_, err := fixtures.CreateTestTreatment("Porcelain Veneer", dec("100.00"))
			require.NoError(t, err)
			offer, err := fixtures.CreateTestOffer(clinic.ID, string(pricing.DiscountPercentage), dec("10"), nil)
			require.NoError(t, err)

			_, err = quoteFlow.AddTreatment(ctx, quoteUUID, customer.ID,
				&dto.AddTreatmentRequest{TreatmentKey: "Porcelain Veneer", Quantity: 2}, metadata)
			require.NoError(t, err)

			resp, err := quoteFlow.ApplyOffer(ctx, quoteUUID, customer.ID,
				&dto.ApplyOfferRequest{OfferUUID: offer.UUID.String()}, metadata)
			require.NoError(t, err)

			assert.True(t, resp.Quote.SubtotalGBP.Equal(dec("200.00")))
			assert.True(t, resp.Quote.OfferDiscountGBP.Equal(dec("20.00")))
			assert.True(t, resp.Quote.TotalGBP.Equal(dec("180.00")))
			require.NotNil(t, resp.Quote.SpecialOfferID)

			// A pending usage record is written alongside.
			appliedOfferRepo := repository.NewAppliedSpecialOfferRepository(testDB.DB)
			var quote models.Quote
			require.NoError(t, testDB.DB.Where("uuid = ?", quoteUUID).First(&quote).Error)
			pending, err := appliedOfferRepo.PendingByQuote(ctx, quote.ID)
			require.NoError(t, err)
			require.NotNil(t, pending)
			assert.Equal(t, models.OfferUsagePending, pending.UsageStatus)

			// Clearing restores pristine totals and retires the usage record.
			cleared, err := quoteFlow.ClearOffer(ctx, quoteUUID, customer.ID, metadata)
			require.NoError(t, err)
			assert.True(t, cleared.Quote.OfferDiscountGBP.IsZero())
			assert.True(t, cleared.Quote.TotalGBP.Equal(dec("200.00")))
			retired, err := appliedOfferRepo.PendingByQuote(ctx, quote.ID)
			require.NoError(t, err)
			assert.Nil(t, retired)
		})

		t.Run("ApplyOfferFromAnotherClinic", func(t *testing.T) {
			customer, _, quoteUUID := newBuildingQuote(t)
			otherClinic, err := fixtures.CreateTestClinic(models.ClinicTierPremium)
			require.NoError(t, err)
			offer, err := fixtures.CreateTestOffer(otherClinic.ID, string(pricing.DiscountPercentage), dec("10"), nil)
			require.NoError(t, err)

			_, err = quoteFlow.ApplyOffer(ctx, quoteUUID, customer.ID,
				&dto.ApplyOfferRequest{OfferUUID: offer.UUID.String()}, metadata)
			assert.True(t, businessflow.IsOfferWrongClinic(err))
		})

		t.Run("ApplyPromoCodeStacksWithOffer", func(t *testing.T) {
			customer, clinic, quoteUUID := newBuildingQuote(t)
			_, err := fixtures.CreateTestTreatment("Bone Graft", dec("100.00"))
			require.NoError(t, err)
			offer, err := fixtures.CreateTestOffer(clinic.ID, string(pricing.DiscountPercentage), dec("10"), nil)
			require.NoError(t, err)
			_, err = fixtures.CreateTestPromoCode("WELCOME15", string(pricing.DiscountFixedAmount), dec("15.00"), 0)
			require.NoError(t, err)

			_, err = quoteFlow.AddTreatment(ctx, quoteUUID, customer.ID,
				&dto.AddTreatmentRequest{TreatmentKey: "Bone Graft", Quantity: 2}, metadata)
			require.NoError(t, err)
			_, err = quoteFlow.ApplyOffer(ctx, quoteUUID, customer.ID,
				&dto.ApplyOfferRequest{OfferUUID: offer.UUID.String()}, metadata)
			require.NoError(t, err)

			resp, err := quoteFlow.ApplyPromoCode(ctx, quoteUUID, customer.ID,
				&dto.ApplyPromoCodeRequest{Code: "WELCOME15"}, metadata)
			require.NoError(t, err)

			// Both discounts compute off the pre-offer subtotal, never chained.
			assert.True(t, resp.Quote.OfferDiscountGBP.Equal(dec("20.00")))
			assert.True(t, resp.Quote.PromoDiscountGBP.Equal(dec("15.00")))
			assert.True(t, resp.Quote.DiscountGBP.Equal(dec("35.00")))
			assert.True(t, resp.Quote.TotalGBP.Equal(dec("165.00")))
			require.NotNil(t, resp.Quote.PromoCode)
			assert.Equal(t, "WELCOME15", *resp.Quote.PromoCode)
		})

		t.Run("ApplyPromoCodeUsedUp", func(t *testing.T) {
			customer, _, quoteUUID := newBuildingQuote(t)
			promo, err := fixtures.CreateTestPromoCode("ONESHOT", string(pricing.DiscountFixedAmount), dec("10.00"), 1)
			require.NoError(t, err)
			promo.UsedCount = 1
			require.NoError(t, testDB.DB.Save(promo).Error)

			_, err = quoteFlow.ApplyPromoCode(ctx, quoteUUID, customer.ID,
				&dto.ApplyPromoCodeRequest{Code: "ONESHOT"}, metadata)
			assert.True(t, businessflow.IsPromoCodeUsedUp(err))
		})

		t.Run("LockForCheckoutFreezesQuote", func(t *testing.T) {
			customer, _, quoteUUID := newBuildingQuote(t)
			_, err := fixtures.CreateTestTreatment("Root Canal", dec("75.00"))
			require.NoError(t, err)

			_, err = quoteFlow.AddTreatment(ctx, quoteUUID, customer.ID,
				&dto.AddTreatmentRequest{TreatmentKey: "Root Canal", Quantity: 1}, metadata)
			require.NoError(t, err)

			locked, err := quoteFlow.LockForCheckout(ctx, quoteUUID, customer.ID, metadata)
			require.NoError(t, err)
			assert.Equal(t, models.QuoteStatusLockedForCheckout, locked.Quote.Status)

			// Locked quotes refuse further mutation.
			_, err = quoteFlow.AddTreatment(ctx, quoteUUID, customer.ID,
				&dto.AddTreatmentRequest{TreatmentKey: "Root Canal", Quantity: 1}, metadata)
			assert.True(t, pricing.IsQuoteLocked(err))
		})

		t.Run("LockForCheckoutRejectsEmptyQuote", func(t *testing.T) {
			customer, _, quoteUUID := newBuildingQuote(t)

			_, err := quoteFlow.LockForCheckout(ctx, quoteUUID, customer.ID, metadata)
			assert.ErrorIs(t, err, pricing.ErrQuoteEmpty)
		})

		t.Run("AbandonQuoteIsTerminal", func(t *testing.T) {
			customer, _, quoteUUID := newBuildingQuote(t)

			resp, err := quoteFlow.AbandonQuote(ctx, quoteUUID, customer.ID, metadata)
			require.NoError(t, err)
			assert.Equal(t, models.QuoteStatusAbandoned, resp.Quote.Status)

			_, err = quoteFlow.AbandonQuote(ctx, quoteUUID, customer.ID, metadata)
			require.NoError(t, err) // abandoning twice is a no-op

			_, err = quoteFlow.ClearPromoCode(ctx, quoteUUID, customer.ID, metadata)
			assert.True(t, pricing.IsQuoteAbandoned(err))
		})

		t.Run("ConvertedQuoteIsImmutable", func(t *testing.T) {
			customer, _, quoteUUID := newBuildingQuote(t)
			_, err := fixtures.CreateTestTreatment("Bridge "+quoteUUID[:8], dec("150.00"))
			require.NoError(t, err)

			_, err = quoteFlow.AddTreatment(ctx, quoteUUID, customer.ID,
				&dto.AddTreatmentRequest{TreatmentKey: "Bridge " + quoteUUID[:8], Quantity: 1}, metadata)
			require.NoError(t, err)
			_, err = quoteFlow.LockForCheckout(ctx, quoteUUID, customer.ID, metadata)
			require.NoError(t, err)

			require.NoError(t, testDB.DB.Model(&models.Quote{}).
				Where("uuid = ?", quoteUUID).
				Update("status", models.QuoteStatusConverted).Error)

			_, err = quoteFlow.AddTreatment(ctx, quoteUUID, customer.ID,
				&dto.AddTreatmentRequest{TreatmentKey: "Bridge " + quoteUUID[:8], Quantity: 1}, metadata)
			assert.True(t, pricing.IsQuoteConverted(err))

			_, err = quoteFlow.ClearPromoCode(ctx, quoteUUID, customer.ID, metadata)
			assert.True(t, pricing.IsQuoteConverted(err))

			_, err = quoteFlow.AbandonQuote(ctx, quoteUUID, customer.ID, metadata)
			assert.True(t, pricing.IsQuoteConverted(err))

			resp, err := quoteFlow.GetQuote(ctx, quoteUUID, customer.ID)
			require.NoError(t, err)
			assert.Equal(t, models.QuoteStatusConverted, resp.Quote.Status)
			require.Len(t, resp.Quote.Items, 1)
			assert.True(t, resp.Quote.TotalGBP.Equal(dec("150.00")))
		})

		t.Run("QuoteOwnershipEnforced", func(t *testing.T) {
			_, _, quoteUUID := newBuildingQuote(t)
			stranger, err := fixtures.CreateTestCustomer(models.AccountTypePatient)
			require.NoError(t, err)

			_, err = quoteFlow.GetQuote(ctx, quoteUUID, stranger.ID)
			assert.True(t, businessflow.IsQuoteAccessDenied(err))
		})

		t.Run("ListQuotesPagination", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer(models.AccountTypePatient)
			require.NoError(t, err)
			clinic, err := fixtures.CreateTestClinic(models.ClinicTierMid)
			require.NoError(t, err)
			for i := 0; i < 3; i++ {
				_, err := quoteFlow.CreateQuote(ctx, &dto.CreateQuoteRequest{ClinicUUID: clinic.UUID.String()}, customer.ID, metadata)
				require.NoError(t, err)
			}

			quotes, err := quoteFlow.ListQuotes(ctx, customer.ID, 1, 2)
			require.NoError(t, err)
			assert.Len(t, quotes, 2)

			rest, err := quoteFlow.ListQuotes(ctx, customer.ID, 2, 2)
			require.NoError(t, err)
			assert.Len(t, rest, 1)

			_, err = quoteFlow.ListQuotes(ctx, customer.ID, 0, 2)
			assert.True(t, businessflow.IsInvalidPage(err))
		})

		return nil
	})
	require.NoError(t, err)
}
