// Package tests contains integration tests for the checkout and payment flow
package tests

import (
	"context"
	"testing"

	"github.com/smiletrip/smiletrip/app/dto"
	"github.com/smiletrip/smiletrip/app/services"
	businessflow "github.com/smiletrip/smiletrip/business_flow"
	"github.com/smiletrip/smiletrip/models"
	"github.com/smiletrip/smiletrip/repository"
	testingutil "github.com/smiletrip/smiletrip/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockGateway stands in for the payment provider during tests
type mockGateway struct {
	token      string
	err        error
	tokenCalls int
}

func (g *mockGateway) GetToken(ctx context.Context, req *services.GatewayTokenRequest) (string, error) {
	g.tokenCalls++
	if g.err != nil {
		return "", g.err
	}
	return g.token, nil
}

func (g *mockGateway) PaymentURL(token string) string {
	return "https://gateway.example.com/pay/" + token
}

func newCheckoutFlow(testDB *testingutil.TestDB, gateway services.PaymentGateway) businessflow.CheckoutFlow {
	return businessflow.NewCheckoutFlow(
		repository.NewQuoteRepository(testDB.DB),
		repository.NewBookingRepository(testDB.DB),
		repository.NewPaymentRequestRepository(testDB.DB),
		repository.NewAppliedSpecialOfferRepository(testDB.DB),
		repository.NewPromoCodeRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		gateway,
		testDB.DB,
		dec("20"),
	)
}

func TestCheckoutFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		quoteFlow := newQuoteFlow(testDB)
		ctx := context.Background()
		metadata := testMetadata()

		// lockedQuote builds a quote worth 185.00: 2x100 treatment minus a
		// 15.00 promo code, locked for checkout.
		lockedQuote := func(t *testing.T, promoCode string) (*models.Customer, string) {
			t.Helper()
			customer, err := fixtures.CreateTestCustomer(models.AccountTypePatient)
			require.NoError(t, err)
			clinic, err := fixtures.CreateTestClinic(models.ClinicTierMid)
			require.NoError(t, err)

			created, err := quoteFlow.CreateQuote(ctx, &dto.CreateQuoteRequest{ClinicUUID: clinic.UUID.String()}, customer.ID, metadata)
			require.NoError(t, err)
			quoteUUID := created.Quote.UUID

			treatmentKey := "Implant " + quoteUUID[:8]
			_, err = fixtures.CreateTestTreatment(treatmentKey, dec("100.00"))
			require.NoError(t, err)
			_, err = quoteFlow.AddTreatment(ctx, quoteUUID, customer.ID,
				&dto.AddTreatmentRequest{TreatmentKey: treatmentKey, Quantity: 2}, metadata)
			require.NoError(t, err)

			if promoCode != "" {
				_, err = quoteFlow.ApplyPromoCode(ctx, quoteUUID, customer.ID,
					&dto.ApplyPromoCodeRequest{Code: promoCode}, metadata)
				require.NoError(t, err)
			}

			_, err = quoteFlow.LockForCheckout(ctx, quoteUUID, customer.ID, metadata)
			require.NoError(t, err)
			return customer, quoteUUID
		}

		t.Run("StartCheckoutRequiresLockedQuote", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer(models.AccountTypePatient)
			require.NoError(t, err)
			clinic, err := fixtures.CreateTestClinic(models.ClinicTierMid)
			require.NoError(t, err)
			created, err := quoteFlow.CreateQuote(ctx, &dto.CreateQuoteRequest{ClinicUUID: clinic.UUID.String()}, customer.ID, metadata)
			require.NoError(t, err)

			checkoutFlow := newCheckoutFlow(testDB, &mockGateway{token: "tok-unlocked"})
			_, err = checkoutFlow.StartCheckout(ctx, customer.ID, &dto.StartCheckoutRequest{
				QuoteUUID:   created.Quote.UUID,
				RedirectURL: "https://smiletrip.co.uk/checkout/return",
			}, metadata)
			assert.True(t, businessflow.IsQuoteNotLocked(err))
		})

		t.Run("StartCheckoutTokenizesDeposit", func(t *testing.T) {
			customer, quoteUUID := lockedQuote(t, "")
			gateway := &mockGateway{token: "tok-deposit"}
			checkoutFlow := newCheckoutFlow(testDB, gateway)

			resp, err := checkoutFlow.StartCheckout(ctx, customer.ID, &dto.StartCheckoutRequest{
				QuoteUUID:   quoteUUID,
				RedirectURL: "https://smiletrip.co.uk/checkout/return",
			}, metadata)
			require.NoError(t, err)

			assert.Equal(t, 1, gateway.tokenCalls)
			assert.Equal(t, "tok-deposit", resp.GatewayToken)
			assert.Equal(t, "https://gateway.example.com/pay/tok-deposit", resp.PaymentURL)
			assert.True(t, resp.TotalGBP.Equal(dec("200.00")))
			assert.True(t, resp.DepositGBP.Equal(dec("40.00")))
			assert.NotEmpty(t, resp.ExpiresAt)

			paymentRepo := repository.NewPaymentRequestRepository(testDB.DB)
			pr, err := paymentRepo.ByGatewayToken(ctx, "tok-deposit")
			require.NoError(t, err)
			require.NotNil(t, pr)
			assert.Equal(t, models.PaymentRequestStatusPending, pr.Status)
			assert.True(t, pr.AmountGBP.Equal(dec("40.00")))
		})

		t.Run("CallbackConvertsQuote", func(t *testing.T) {
			promo, err := fixtures.CreateTestPromoCode("CONVERT15", "fixed_amount", dec("15.00"), 0)
			require.NoError(t, err)
			customer, quoteUUID := lockedQuote(t, "CONVERT15")

			gateway := &mockGateway{token: "tok-convert"}
			checkoutFlow := newCheckoutFlow(testDB, gateway)
			_, err = checkoutFlow.StartCheckout(ctx, customer.ID, &dto.StartCheckoutRequest{
				QuoteUUID:   quoteUUID,
				RedirectURL: "https://smiletrip.co.uk/checkout/return",
			}, metadata)
			require.NoError(t, err)

			result, err := checkoutFlow.HandleCallback(ctx, &dto.PaymentCallbackRequest{
				Token:     "tok-convert",
				Status:    "2",
				State:     "OK",
				Reference: "ref-123",
				MaskedPAN: "4111********1111",
			}, metadata)
			require.NoError(t, err)

			assert.True(t, result.Completed)
			require.NotNil(t, result.Booking)
			assert.Equal(t, models.BookingStatusDepositPaid, result.Booking.Status)
			assert.True(t, result.Booking.TotalGBP.Equal(dec("185.00")))
			assert.True(t, result.Booking.DepositGBP.Equal(dec("37.00")))
			assert.True(t, result.Booking.BalanceGBP.Equal(dec("148.00")))

			var quote models.Quote
			require.NoError(t, testDB.DB.Where("uuid = ?", quoteUUID).First(&quote).Error)
			assert.Equal(t, models.QuoteStatusConverted, quote.Status)

			// Conversion burns the promo code usage.
			var burned models.PromoCode
			require.NoError(t, testDB.DB.First(&burned, promo.ID).Error)
			assert.Equal(t, 1, burned.UsedCount)
		})

		t.Run("DuplicateCallbackAnsweredFromStoredOutcome", func(t *testing.T) {
			customer, quoteUUID := lockedQuote(t, "")
			gateway := &mockGateway{token: "tok-replay"}
			checkoutFlow := newCheckoutFlow(testDB, gateway)
			_, err := checkoutFlow.StartCheckout(ctx, customer.ID, &dto.StartCheckoutRequest{
				QuoteUUID:   quoteUUID,
				RedirectURL: "https://smiletrip.co.uk/checkout/return",
			}, metadata)
			require.NoError(t, err)

			callback := &dto.PaymentCallbackRequest{Token: "tok-replay", Status: "2", State: "OK"}
			first, err := checkoutFlow.HandleCallback(ctx, callback, metadata)
			require.NoError(t, err)
			require.True(t, first.Completed)

			second, err := checkoutFlow.HandleCallback(ctx, callback, metadata)
			require.NoError(t, err)
			assert.True(t, second.Completed)
			require.NotNil(t, second.Booking)
			assert.Equal(t, first.Booking.UUID, second.Booking.UUID)

			// Still exactly one booking for the quote.
			var quote models.Quote
			require.NoError(t, testDB.DB.Where("uuid = ?", quoteUUID).First(&quote).Error)
			var count int64
			require.NoError(t, testDB.DB.Model(&models.Booking{}).Where("quote_id = ?", quote.ID).Count(&count).Error)
			assert.EqualValues(t, 1, count)
		})

		t.Run("FailedCallbackKeepsQuoteLocked", func(t *testing.T) {
			customer, quoteUUID := lockedQuote(t, "")
			gateway := &mockGateway{token: "tok-failed"}
			checkoutFlow := newCheckoutFlow(testDB, gateway)
			_, err := checkoutFlow.StartCheckout(ctx, customer.ID, &dto.StartCheckoutRequest{
				QuoteUUID:   quoteUUID,
				RedirectURL: "https://smiletrip.co.uk/checkout/return",
			}, metadata)
			require.NoError(t, err)

			result, err := checkoutFlow.HandleCallback(ctx, &dto.PaymentCallbackRequest{
				Token:  "tok-failed",
				Status: "7",
				State:  "CANCELED",
			}, metadata)
			require.NoError(t, err)
			assert.False(t, result.Completed)
			assert.Nil(t, result.Booking)

			paymentRepo := repository.NewPaymentRequestRepository(testDB.DB)
			pr, err := paymentRepo.ByGatewayToken(ctx, "tok-failed")
			require.NoError(t, err)
			require.NotNil(t, pr)
			assert.Equal(t, models.PaymentRequestStatusFailed, pr.Status)

			var quote models.Quote
			require.NoError(t, testDB.DB.Where("uuid = ?", quoteUUID).First(&quote).Error)
			assert.Equal(t, models.QuoteStatusLockedForCheckout, quote.Status)
		})

		t.Run("CallbackUnknownToken", func(t *testing.T) {
			checkoutFlow := newCheckoutFlow(testDB, &mockGateway{token: "tok-none"})
			_, err := checkoutFlow.HandleCallback(ctx, &dto.PaymentCallbackRequest{Token: "tok-unknown"}, metadata)
			assert.True(t, businessflow.IsPaymentRequestNotFound(err))
		})

		t.Run("DoubleBookingRejected", func(t *testing.T) {
			customer, quoteUUID := lockedQuote(t, "")
			gateway := &mockGateway{token: "tok-double"}
			checkoutFlow := newCheckoutFlow(testDB, gateway)
			_, err := checkoutFlow.StartCheckout(ctx, customer.ID, &dto.StartCheckoutRequest{
				QuoteUUID:   quoteUUID,
				RedirectURL: "https://smiletrip.co.uk/checkout/return",
			}, metadata)
			require.NoError(t, err)

			_, err = checkoutFlow.HandleCallback(ctx, &dto.PaymentCallbackRequest{Token: "tok-double", Status: "2", State: "OK"}, metadata)
			require.NoError(t, err)

			_, err = checkoutFlow.StartCheckout(ctx, customer.ID, &dto.StartCheckoutRequest{
				QuoteUUID:   quoteUUID,
				RedirectURL: "https://smiletrip.co.uk/checkout/return",
			}, metadata)
			assert.True(t, businessflow.IsQuoteAlreadyBooked(err))
		})

		return nil
	})
	require.NoError(t, err)
}
