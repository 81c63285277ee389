// Package tests contains integration tests for admin quote exports
package tests

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/smiletrip/smiletrip/app/dto"
	businessflow "github.com/smiletrip/smiletrip/business_flow"
	"github.com/smiletrip/smiletrip/models"
	"github.com/smiletrip/smiletrip/repository"
	testingutil "github.com/smiletrip/smiletrip/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminReportFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		reportFlow := businessflow.NewAdminReportFlow(
			repository.NewQuoteRepository(testDB.DB),
			repository.NewClinicRepository(testDB.DB),
		)
		ctx := context.Background()

		t.Run("ExportQuotesInsideWindow", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer(models.AccountTypePatient)
			require.NoError(t, err)
			clinic, err := fixtures.CreateTestClinic(models.ClinicTierMid)
			require.NoError(t, err)

			inside := &models.Quote{
				CustomerID:  customer.ID,
				ClinicID:    clinic.ID,
				Status:      models.QuoteStatusPriced,
				SubtotalGBP: dec("200.00"),
				SubtotalUSD: dec("250.00"),
				TotalGBP:    dec("200.00"),
				TotalUSD:    dec("250.00"),
				USDRate:     dec("1.25"),
				Version:     1,
				CreatedAt:   time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
				UpdatedAt:   time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
			}
			require.NoError(t, testDB.DB.Create(inside).Error)

			outside := &models.Quote{
				CustomerID: customer.ID,
				ClinicID:   clinic.ID,
				Status:     models.QuoteStatusEmpty,
				USDRate:    dec("1.25"),
				Version:    1,
				CreatedAt:  time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
				UpdatedAt:  time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
			}
			require.NoError(t, testDB.DB.Create(outside).Error)

			filename, content, err := reportFlow.ExportQuotes(ctx, &dto.QuoteReportRequest{
				StartDate: "2026-03-01",
				EndDate:   "2026-03-31",
			})
			require.NoError(t, err)
			assert.Equal(t, "quotes_2026-03-01_to_2026-03-31.xlsx", filename)
			require.NotEmpty(t, content)

			xl, err := excelize.OpenReader(bytes.NewReader(content))
			require.NoError(t, err)
			defer xl.Close()

			rows, err := xl.GetRows("quotes")
			require.NoError(t, err)
			require.Len(t, rows, 2) // header plus the one quote in the window

			assert.Equal(t, "uuid", rows[0][0])
			assert.Equal(t, inside.UUID.String(), rows[1][0])
			assert.Equal(t, models.QuoteStatusPriced, rows[1][1])
			assert.Equal(t, clinic.Name, rows[1][3])
			assert.Equal(t, "200.00", rows[1][9])
		})

		t.Run("ExportRejectsInvertedWindow", func(t *testing.T) {
			_, _, err := reportFlow.ExportQuotes(ctx, &dto.QuoteReportRequest{
				StartDate: "2026-04-01",
				EndDate:   "2026-03-01",
			})
			assert.True(t, businessflow.IsStartDateAfterEndDate(err))
		})

		t.Run("ExportRejectsMalformedDate", func(t *testing.T) {
			_, _, err := reportFlow.ExportQuotes(ctx, &dto.QuoteReportRequest{
				StartDate: "01/03/2026",
				EndDate:   "2026-03-31",
			})
			require.Error(t, err)
		})

		return nil
	})
	require.NoError(t, err)
}
