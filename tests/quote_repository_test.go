// Package tests contains integration tests for quote persistence
package tests

import (
	"context"
	"testing"
	"time"

	"github.com/smiletrip/smiletrip/models"
	"github.com/smiletrip/smiletrip/repository"
	testingutil "github.com/smiletrip/smiletrip/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		quoteRepo := repository.NewQuoteRepository(testDB.DB)
		ctx := context.Background()

		newQuote := func(t *testing.T, status string) *models.Quote {
			t.Helper()
			customer, err := fixtures.CreateTestCustomer(models.AccountTypePatient)
			require.NoError(t, err)
			clinic, err := fixtures.CreateTestClinic(models.ClinicTierMid)
			require.NoError(t, err)
			quote := &models.Quote{
				CustomerID: customer.ID,
				ClinicID:   clinic.ID,
				Status:     status,
				USDRate:    dec("1.25"),
				Version:    1,
			}
			require.NoError(t, quoteRepo.Save(ctx, quote))
			return quote
		}

		t.Run("VersionedUpdateBumpsVersion", func(t *testing.T) {
			quote := newQuote(t, models.QuoteStatusEmpty)

			quote.Status = models.QuoteStatusPriced
			quote.TotalGBP = dec("120.00")
			require.NoError(t, quoteRepo.UpdateWithVersion(ctx, quote, 1))
			assert.EqualValues(t, 2, quote.Version)

			stored, err := quoteRepo.ByID(ctx, quote.ID)
			require.NoError(t, err)
			assert.Equal(t, models.QuoteStatusPriced, stored.Status)
			assert.EqualValues(t, 2, stored.Version)
		})

		t.Run("StaleVersionRejected", func(t *testing.T) {
			quote := newQuote(t, models.QuoteStatusEmpty)
			require.NoError(t, quoteRepo.UpdateWithVersion(ctx, quote, 1))

			// A writer still holding version 1 loses.
			quote.Status = models.QuoteStatusAbandoned
			err := quoteRepo.UpdateWithVersion(ctx, quote, 1)
			assert.ErrorIs(t, err, repository.ErrStaleQuote)
		})

		t.Run("VersionedUpdateReplacesItems", func(t *testing.T) {
			quote := newQuote(t, models.QuoteStatusEmpty)

			quote.Status = models.QuoteStatusPriced
			quote.Items = []models.QuoteItem{{
				QuoteID:              quote.ID,
				Position:             0,
				Name:                 "Dental Implant",
				Quantity:             2,
				UnitPriceGBP:         dec("100.00"),
				UnitPriceUSD:         dec("125.00"),
				SubtotalGBP:          dec("200.00"),
				SubtotalUSD:          dec("250.00"),
				OriginalUnitPriceGBP: dec("100.00"),
			}}
			require.NoError(t, quoteRepo.UpdateWithVersion(ctx, quote, 1))

			quote.Items = nil
			require.NoError(t, quoteRepo.UpdateWithVersion(ctx, quote, 2))

			stored, err := quoteRepo.ByUUIDWithItems(ctx, quote.UUID.String())
			require.NoError(t, err)
			assert.Empty(t, stored.Items)
		})

		t.Run("ListStaleBuildingFindsOldQuotes", func(t *testing.T) {
			stale := newQuote(t, models.QuoteStatusPriced)
			fresh := newQuote(t, models.QuoteStatusPriced)
			locked := newQuote(t, models.QuoteStatusLockedForCheckout)

			old := time.Now().UTC().Add(-48 * time.Hour)
			require.NoError(t, testDB.DB.Model(&models.Quote{}).
				Where("id IN ?", []uint{stale.ID, locked.ID}).
				Update("updated_at", old).Error)

			cutoff := time.Now().UTC().Add(-24 * time.Hour)
			found, err := quoteRepo.ListStaleBuilding(ctx, cutoff, 100)
			require.NoError(t, err)

			ids := make(map[uint]bool, len(found))
			for _, q := range found {
				ids[q.ID] = true
			}
			assert.True(t, ids[stale.ID])
			assert.False(t, ids[fresh.ID], "recently touched quotes are not stale")
			assert.False(t, ids[locked.ID], "locked quotes are never swept")
		})

		return nil
	})
	require.NoError(t, err)
}
