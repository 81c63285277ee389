// Package tests contains integration tests for clinic staff administration
package tests

import (
	"context"
	"testing"

	"github.com/smiletrip/smiletrip/app/dto"
	businessflow "github.com/smiletrip/smiletrip/business_flow"
	"github.com/smiletrip/smiletrip/models"
	"github.com/smiletrip/smiletrip/repository"
	testingutil "github.com/smiletrip/smiletrip/testing"
	"github.com/smiletrip/smiletrip/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClinicAdminFlow(testDB *testingutil.TestDB) businessflow.ClinicAdminFlow {
	return businessflow.NewClinicAdminFlow(
		repository.NewSpecialOfferRepository(testDB.DB),
		repository.NewPromoCodeRepository(testDB.DB),
		repository.NewTreatmentPackageRepository(testDB.DB),
		repository.NewTreatmentRepository(testDB.DB),
		repository.NewAppliedSpecialOfferRepository(testDB.DB),
		repository.NewQuoteRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		testDB.DB,
	)
}

func TestClinicAdminFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		adminFlow := newClinicAdminFlow(testDB)
		ctx := context.Background()
		metadata := testMetadata()

		newStaff := func(t *testing.T) (*models.Customer, *models.Clinic) {
			t.Helper()
			clinic, err := fixtures.CreateTestClinic(models.ClinicTierMid)
			require.NoError(t, err)
			staff, err := fixtures.CreateTestClinicStaff(clinic.ID)
			require.NoError(t, err)
			return staff, clinic
		}

		t.Run("PatientCannotManageOffers", func(t *testing.T) {
			patient, err := fixtures.CreateTestCustomer(models.AccountTypePatient)
			require.NoError(t, err)

			_, err = adminFlow.ListOffers(ctx, patient)
			assert.True(t, businessflow.IsQuoteAccessDenied(err))
		})

		t.Run("CreateOfferForOwnClinic", func(t *testing.T) {
			staff, clinic := newStaff(t)

			offer, err := adminFlow.CreateOffer(ctx, staff, &dto.CreateOfferRequest{
				Title:         "Summer Smile",
				DiscountType:  "percentage",
				DiscountValue: dec("15"),
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, "Summer Smile", offer.Title)

			var stored models.SpecialOffer
			require.NoError(t, testDB.DB.Where("uuid = ?", offer.UUID).First(&stored).Error)
			assert.Equal(t, clinic.ID, stored.ClinicID)
			assert.True(t, utils.IsTrue(stored.IsActive))

			offers, err := adminFlow.ListOffers(ctx, staff)
			require.NoError(t, err)
			require.Len(t, offers, 1)
			assert.Equal(t, offer.UUID, offers[0].UUID)
		})

		t.Run("CreateOfferRejectsUnknownTreatmentScope", func(t *testing.T) {
			staff, _ := newStaff(t)

			_, err := adminFlow.CreateOffer(ctx, staff, &dto.CreateOfferRequest{
				Title:                "Typo Offer",
				DiscountType:         "percentage",
				DiscountValue:        dec("10"),
				ApplicableTreatments: []string{"Not A Treatment"},
			}, metadata)
			assert.True(t, businessflow.IsTreatmentNotFound(err))
		})

		t.Run("UpdateOfferDeactivates", func(t *testing.T) {
			staff, clinic := newStaff(t)
			offer, err := fixtures.CreateTestOffer(clinic.ID, "percentage", dec("10"), nil)
			require.NoError(t, err)

			_, err = adminFlow.UpdateOffer(ctx, staff, offer.UUID.String(),
				&dto.UpdateOfferRequest{IsActive: utils.ToPtr(false)}, metadata)
			require.NoError(t, err)

			var stored models.SpecialOffer
			require.NoError(t, testDB.DB.First(&stored, offer.ID).Error)
			assert.False(t, utils.IsTrue(stored.IsActive))
		})

		t.Run("UpdateOfferOfAnotherClinicRejected", func(t *testing.T) {
			staff, _ := newStaff(t)
			otherClinic, err := fixtures.CreateTestClinic(models.ClinicTierPremium)
			require.NoError(t, err)
			offer, err := fixtures.CreateTestOffer(otherClinic.ID, "percentage", dec("10"), nil)
			require.NoError(t, err)

			_, err = adminFlow.UpdateOffer(ctx, staff, offer.UUID.String(),
				&dto.UpdateOfferRequest{IsActive: utils.ToPtr(false)}, metadata)
			assert.True(t, businessflow.IsOfferWrongClinic(err))
		})

		t.Run("CreatePromoCodeNormalizesAndGuardsDuplicates", func(t *testing.T) {
			staff, _ := newStaff(t)

			promo, err := adminFlow.CreatePromoCode(ctx, staff, &dto.CreatePromoCodeRequest{
				Code:          "  winter20  ",
				DiscountType:  "percentage",
				DiscountValue: dec("20"),
				MaxUses:       50,
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, "WINTER20", promo.Code)
			assert.Equal(t, 50, promo.MaxUses)

			_, err = adminFlow.CreatePromoCode(ctx, staff, &dto.CreatePromoCodeRequest{
				Code:          "WINTER20",
				DiscountType:  "percentage",
				DiscountValue: dec("20"),
			}, metadata)
			assert.True(t, businessflow.IsPromoCodeExists(err))
		})

		t.Run("CreatePackageWithItems", func(t *testing.T) {
			staff, clinic := newStaff(t)
			_, err := fixtures.CreateTestTreatment("Admin Crown", dec("80.00"))
			require.NoError(t, err)
			_, err = fixtures.CreateTestTreatment("Admin Whitening", dec("60.00"))
			require.NoError(t, err)

			pkg, err := adminFlow.CreatePackage(ctx, staff, &dto.CreatePackageRequest{
				Name:           "Hollywood Smile",
				BundlePriceGBP: dec("500.00"),
				Items: []dto.CreatePackageItemRequest{
					{TreatmentKey: "Admin Crown", Quantity: 4},
					{TreatmentKey: "Admin Whitening", Quantity: 1},
				},
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, clinic.ID, pkg.ClinicID)
			require.Len(t, pkg.Items, 2)

			_, err = adminFlow.CreatePackage(ctx, staff, &dto.CreatePackageRequest{
				Name:           "Broken Bundle",
				BundlePriceGBP: dec("100.00"),
				Items:          []dto.CreatePackageItemRequest{{TreatmentKey: "Missing", Quantity: 1}},
			}, metadata)
			assert.True(t, businessflow.IsTreatmentNotFound(err))
		})

		t.Run("ListOfferUsageReportsAppliedQuotes", func(t *testing.T) {
			staff, clinic := newStaff(t)
			offer, err := fixtures.CreateTestOffer(clinic.ID, "percentage", dec("10"), nil)
			require.NoError(t, err)

			// A patient builds a quote against the clinic and rides the offer.
			quoteFlow := newQuoteFlow(testDB)
			patient, err := fixtures.CreateTestCustomer(models.AccountTypePatient)
			require.NoError(t, err)
			created, err := quoteFlow.CreateQuote(ctx, &dto.CreateQuoteRequest{ClinicUUID: clinic.UUID.String()}, patient.ID, metadata)
			require.NoError(t, err)
			_, err = fixtures.CreateTestTreatment("Usage Implant", dec("100.00"))
			require.NoError(t, err)
			_, err = quoteFlow.AddTreatment(ctx, created.Quote.UUID, patient.ID,
				&dto.AddTreatmentRequest{TreatmentKey: "Usage Implant", Quantity: 1}, metadata)
			require.NoError(t, err)
			_, err = quoteFlow.ApplyOffer(ctx, created.Quote.UUID, patient.ID,
				&dto.ApplyOfferRequest{OfferUUID: offer.UUID.String()}, metadata)
			require.NoError(t, err)

			usage, err := adminFlow.ListOfferUsage(ctx, staff, offer.UUID.String(), 1, 20)
			require.NoError(t, err)
			require.Len(t, usage, 1)
			assert.Equal(t, created.Quote.UUID, usage[0].QuoteUUID)
			assert.Equal(t, models.OfferUsagePending, usage[0].UsageStatus)
			assert.True(t, usage[0].OriginalPriceGBP.Equal(dec("100.00")))
			assert.True(t, usage[0].DiscountedPriceGBP.Equal(dec("90.00")))
		})

		return nil
	})
	require.NoError(t, err)
}
