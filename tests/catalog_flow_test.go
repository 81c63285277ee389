// Package tests contains integration tests for the public catalog flow
package tests

import (
	"context"
	"testing"
	"time"

	businessflow "github.com/smiletrip/smiletrip/business_flow"
	"github.com/smiletrip/smiletrip/models"
	"github.com/smiletrip/smiletrip/repository"
	testingutil "github.com/smiletrip/smiletrip/testing"
	"github.com/smiletrip/smiletrip/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogFlow(testDB *testingutil.TestDB) businessflow.CatalogFlow {
	// nil redis client: the flow serves straight from the database when no
	// cache is configured.
	return businessflow.NewCatalogFlow(
		repository.NewClinicRepository(testDB.DB),
		repository.NewTreatmentRepository(testDB.DB),
		repository.NewTreatmentPackageRepository(testDB.DB),
		repository.NewSpecialOfferRepository(testDB.DB),
		nil,
		0,
		dec("1.25"),
	)
}

func TestCatalogFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		catalogFlow := newCatalogFlow(testDB)
		ctx := context.Background()

		t.Run("ListClinicsSkipsInactive", func(t *testing.T) {
			active, err := fixtures.CreateTestClinic(models.ClinicTierMid)
			require.NoError(t, err)
			inactive, err := fixtures.CreateTestClinic(models.ClinicTierMid)
			require.NoError(t, err)
			inactive.IsActive = utils.ToPtr(false)
			require.NoError(t, testDB.DB.Save(inactive).Error)

			clinics, err := catalogFlow.ListClinics(ctx)
			require.NoError(t, err)

			listed := make(map[string]bool, len(clinics))
			for _, c := range clinics {
				listed[c.UUID] = true
			}
			assert.True(t, listed[active.UUID.String()])
			assert.False(t, listed[inactive.UUID.String()])
		})

		t.Run("ClinicCatalogPricesAtTier", func(t *testing.T) {
			clinic, err := fixtures.CreateTestClinic(models.ClinicTierPremium)
			require.NoError(t, err)

			treatment := &models.Treatment{
				Key:                "Tiered Implant",
				Category:           "Implants",
				Guarantee:          "10 years",
				PriceAffordableGBP: dec("80.00"),
				PriceMidGBP:        dec("100.00"),
				PricePremiumGBP:    dec("120.00"),
				UKPriceGBP:         dec("300.00"),
				IsActive:           utils.ToPtr(true),
			}
			require.NoError(t, testDB.DB.Create(treatment).Error)

			catalog, err := catalogFlow.GetClinicCatalog(ctx, clinic.UUID.String())
			require.NoError(t, err)
			assert.Equal(t, clinic.UUID.String(), catalog.Clinic.UUID)

			var found bool
			for _, td := range catalog.Treatments {
				if td.Key != "Tiered Implant" {
					continue
				}
				found = true
				assert.True(t, td.UnitPriceGBP.Equal(dec("120.00")))
				assert.True(t, td.UnitPriceUSD.Equal(dec("150.00")))
				require.NotNil(t, td.SavingsGBP)
				assert.True(t, td.SavingsGBP.Equal(dec("180.00")))
			}
			assert.True(t, found)
		})

		t.Run("ClinicCatalogListsPackagesWithSavings", func(t *testing.T) {
			clinic, err := fixtures.CreateTestClinic(models.ClinicTierMid)
			require.NoError(t, err)
			_, err = fixtures.CreateTestTreatment("Catalog Crown", dec("50.00"))
			require.NoError(t, err)
			pkg, err := fixtures.CreateTestPackage(clinic.ID, dec("180.00"), map[string]int{"Catalog Crown": 4})
			require.NoError(t, err)

			catalog, err := catalogFlow.GetClinicCatalog(ctx, clinic.UUID.String())
			require.NoError(t, err)
			require.Len(t, catalog.Packages, 1)
			assert.Equal(t, pkg.UUID.String(), catalog.Packages[0].UUID)
			assert.True(t, catalog.Packages[0].BundlePriceGBP.Equal(dec("180.00")))
			// 4x50 bought separately vs the 180 bundle.
			assert.True(t, catalog.Packages[0].SavingsGBP.Equal(dec("20.00")))
		})

		t.Run("ClinicCatalogHidesDeadOffers", func(t *testing.T) {
			clinic, err := fixtures.CreateTestClinic(models.ClinicTierMid)
			require.NoError(t, err)
			live, err := fixtures.CreateTestOffer(clinic.ID, "percentage", dec("10"), nil)
			require.NoError(t, err)
			expired, err := fixtures.CreateTestOffer(clinic.ID, "percentage", dec("20"), nil)
			require.NoError(t, err)
			expired.ValidUntil = utils.ToPtr(utils.UTCNowAdd(-1 * time.Hour))
			require.NoError(t, testDB.DB.Save(expired).Error)

			catalog, err := catalogFlow.GetClinicCatalog(ctx, clinic.UUID.String())
			require.NoError(t, err)
			require.Len(t, catalog.Offers, 1)
			assert.Equal(t, live.UUID.String(), catalog.Offers[0].UUID)
		})

		t.Run("InactiveClinicNotServed", func(t *testing.T) {
			clinic, err := fixtures.CreateTestClinic(models.ClinicTierMid)
			require.NoError(t, err)
			clinic.IsActive = utils.ToPtr(false)
			require.NoError(t, testDB.DB.Save(clinic).Error)

			_, err = catalogFlow.GetClinicCatalog(ctx, clinic.UUID.String())
			assert.True(t, businessflow.IsClinicInactive(err))
		})

		t.Run("MalformedClinicIdentifier", func(t *testing.T) {
			_, err := catalogFlow.GetClinicCatalog(ctx, "not-a-uuid")
			var be *businessflow.BusinessError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, "INVALID_CLINIC", be.Code)
		})

		return nil
	})
	require.NoError(t, err)
}
