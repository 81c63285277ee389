// Package businessflow contains the core business logic and use cases for checkout workflows
package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smiletrip/smiletrip/app/dto"
	"github.com/smiletrip/smiletrip/app/services"
	"github.com/smiletrip/smiletrip/models"
	"github.com/smiletrip/smiletrip/pricing"
	"github.com/smiletrip/smiletrip/repository"
	"github.com/smiletrip/smiletrip/utils"
	"gorm.io/gorm"
)

// CheckoutFlow turns a locked quote into a booking through a deposit payment
type CheckoutFlow interface {
	StartCheckout(ctx context.Context, customerID uint, req *dto.StartCheckoutRequest, metadata *ClientMetadata) (*dto.StartCheckoutResponse, error)
	HandleCallback(ctx context.Context, req *dto.PaymentCallbackRequest, metadata *ClientMetadata) (*dto.PaymentCallbackResponse, error)
}

// CheckoutFlowImpl implements the checkout business flow
type CheckoutFlowImpl struct {
	quoteRepo        repository.QuoteRepository
	bookingRepo      repository.BookingRepository
	paymentRepo      repository.PaymentRequestRepository
	appliedOfferRepo repository.AppliedSpecialOfferRepository
	promoRepo        repository.PromoCodeRepository
	auditRepo        repository.AuditLogRepository
	gateway          services.PaymentGateway
	db               *gorm.DB

	// depositPercent is the share of the quote total collected upfront,
	// e.g. 20 means a 20% deposit.
	depositPercent decimal.Decimal
}

// NewCheckoutFlow creates a new checkout flow instance
func NewCheckoutFlow(
	quoteRepo repository.QuoteRepository,
	bookingRepo repository.BookingRepository,
	paymentRepo repository.PaymentRequestRepository,
	appliedOfferRepo repository.AppliedSpecialOfferRepository,
	promoRepo repository.PromoCodeRepository,
	auditRepo repository.AuditLogRepository,
	gateway services.PaymentGateway,
	db *gorm.DB,
	depositPercent decimal.Decimal,
) CheckoutFlow {
	return &CheckoutFlowImpl{
		quoteRepo:        quoteRepo,
		bookingRepo:      bookingRepo,
		paymentRepo:      paymentRepo,
		appliedOfferRepo: appliedOfferRepo,
		promoRepo:        promoRepo,
		auditRepo:        auditRepo,
		gateway:          gateway,
		db:               db,
		depositPercent:   depositPercent,
	}
}

// StartCheckout creates a payment request for the quote's deposit and
// tokenizes it with the gateway.
func (cf *CheckoutFlowImpl) StartCheckout(ctx context.Context, customerID uint, req *dto.StartCheckoutRequest, metadata *ClientMetadata) (*dto.StartCheckoutResponse, error) {
	var quote *models.Quote
	var paymentRequest *models.PaymentRequest
	var gatewayToken string

	err := repository.WithTransaction(ctx, cf.db, func(txCtx context.Context) error {
		var err error
		quote, err = cf.quoteRepo.ByUUID(txCtx, req.QuoteUUID)
		if err != nil {
			return err
		}
		if quote == nil {
			return ErrQuoteNotFound
		}
		if quote.CustomerID != customerID {
			return ErrQuoteAccessDenied
		}
		if quote.Status != models.QuoteStatusLockedForCheckout {
			return ErrQuoteNotLocked
		}

		existing, err := cf.bookingRepo.ByQuoteID(txCtx, quote.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrQuoteAlreadyBooked
		}

		deposit := pricing.Round2(quote.TotalGBP.Mul(cf.depositPercent).Div(decimal.NewFromInt(100)))

		expiresAt := utils.UTCNowAdd(utils.PaymentRequestExpiry)
		paymentRequest = &models.PaymentRequest{
			CustomerID:    customerID,
			QuoteID:       quote.ID,
			AmountGBP:     deposit,
			Currency:      utils.GBPCurrency,
			Description:   fmt.Sprintf("Deposit for quote %s", quote.UUID),
			InvoiceNumber: newInvoiceNumber(quote.ID),
			RedirectURL:   req.RedirectURL,
			Status:        models.PaymentRequestStatusCreated,
			ExpiresAt:     &expiresAt,
		}
		if err := cf.paymentRepo.Save(txCtx, paymentRequest); err != nil {
			return err
		}

		gatewayToken, err = cf.gateway.GetToken(txCtx, &services.GatewayTokenRequest{
			AmountGBP:     deposit,
			Currency:      utils.GBPCurrency,
			InvoiceNumber: paymentRequest.InvoiceNumber,
			Description:   paymentRequest.Description,
			RedirectURL:   paymentRequest.RedirectURL,
		})
		if err != nil {
			return err
		}
		if gatewayToken == "" {
			return ErrGatewayTokenEmpty
		}

		paymentRequest.GatewayToken = gatewayToken
		paymentRequest.GatewayStatus = "OK"
		paymentRequest.Status = models.PaymentRequestStatusPending
		paymentRequest.StatusReason = "payment request tokenized successfully"
		paymentRequest.UpdatedAt = utils.UTCNow()
		return cf.paymentRepo.Save(txCtx, paymentRequest)
	})

	if err != nil {
		errMsg := fmt.Sprintf("Checkout failed: %s", err.Error())
		cf.audit(ctx, &customerID, models.AuditActionCheckoutStarted, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("CHECKOUT_FAILED", "Checkout failed", err)
	}

	msg := fmt.Sprintf("Checkout started for quote %d, invoice %s", quote.ID, paymentRequest.InvoiceNumber)
	cf.audit(ctx, &customerID, models.AuditActionCheckoutStarted, msg, true, nil, metadata)

	return &dto.StartCheckoutResponse{
		PaymentRequestUUID: paymentRequest.UUID.String(),
		PaymentURL:         cf.gateway.PaymentURL(gatewayToken),
		GatewayToken:       gatewayToken,
		DepositGBP:         paymentRequest.AmountGBP,
		TotalGBP:           quote.TotalGBP,
		ExpiresAt:          paymentRequest.ExpiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// HandleCallback processes the gateway redirect after the patient pays. A
// repeated callback for an already-final payment request is answered from the
// stored outcome instead of being reprocessed.
func (cf *CheckoutFlowImpl) HandleCallback(ctx context.Context, req *dto.PaymentCallbackRequest, metadata *ClientMetadata) (*dto.PaymentCallbackResponse, error) {
	var paymentRequest *models.PaymentRequest
	var booking *models.Booking
	var completed bool

	err := repository.WithTransaction(ctx, cf.db, func(txCtx context.Context) error {
		var err error
		paymentRequest, err = cf.paymentRepo.ByGatewayToken(txCtx, req.Token)
		if err != nil {
			return err
		}
		if paymentRequest == nil {
			return ErrPaymentRequestNotFound
		}

		if paymentRequest.IsFinal() {
			if paymentRequest.Status == models.PaymentRequestStatusCompleted {
				completed = true
				booking, err = cf.bookingRepo.ByQuoteID(txCtx, paymentRequest.QuoteID)
				return err
			}
			return ErrPaymentRequestAlreadyProcessed
		}

		if paymentRequest.IsExpired() {
			paymentRequest.Status = models.PaymentRequestStatusExpired
			paymentRequest.StatusReason = "payment request expired before callback"
			return cf.paymentRepo.Save(txCtx, paymentRequest)
		}

		paymentRequest.PaymentState = req.State
		paymentRequest.PaymentReference = req.Reference
		paymentRequest.PaymentMaskedPAN = req.MaskedPAN
		paymentRequest.GatewayStatus = req.Status
		paymentRequest.UpdatedAt = utils.UTCNow()

		if req.Status != "2" || req.State != "OK" {
			paymentRequest.Status = models.PaymentRequestStatusFailed
			paymentRequest.StatusReason = fmt.Sprintf("gateway reported state=%s status=%s", req.State, req.Status)
			return cf.paymentRepo.Save(txCtx, paymentRequest)
		}

		paymentRequest.Status = models.PaymentRequestStatusCompleted
		paymentRequest.StatusReason = "payment completed"
		if err := cf.paymentRepo.Save(txCtx, paymentRequest); err != nil {
			return err
		}

		booking, err = cf.convertQuote(txCtx, paymentRequest)
		if err != nil {
			return err
		}

		completed = true
		return nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Payment callback failed: %s", err.Error())
		cf.audit(ctx, customerIDOf(paymentRequest), models.AuditActionPaymentFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("PAYMENT_CALLBACK_FAILED", "Payment callback failed", err)
	}

	if !completed {
		msg := fmt.Sprintf("Payment failed for invoice %s: state=%s status=%s", paymentRequest.InvoiceNumber, req.State, req.Status)
		cf.audit(ctx, customerIDOf(paymentRequest), models.AuditActionPaymentFailed, msg, true, nil, metadata)

		return &dto.PaymentCallbackResponse{
			Completed: false,
			Message:   "Payment was not completed",
		}, nil
	}

	msg := fmt.Sprintf("Payment completed for invoice %s", paymentRequest.InvoiceNumber)
	cf.audit(ctx, customerIDOf(paymentRequest), models.AuditActionPaymentCompleted, msg, true, nil, metadata)

	if booking != nil {
		convMsg := fmt.Sprintf("Quote %d converted to booking %d", paymentRequest.QuoteID, booking.ID)
		cf.audit(ctx, customerIDOf(paymentRequest), models.AuditActionQuoteConverted, convMsg, true, nil, metadata)
	}

	return &dto.PaymentCallbackResponse{
		Completed: true,
		Message:   "Payment completed successfully",
		Booking:   toBookingDTO(booking),
	}, nil
}

// convertQuote creates the booking, marks the quote converted, settles the
// applied offer and burns the promo code usage.
func (cf *CheckoutFlowImpl) convertQuote(ctx context.Context, paymentRequest *models.PaymentRequest) (*models.Booking, error) {
	quote, err := cf.quoteRepo.ByID(ctx, paymentRequest.QuoteID)
	if err != nil {
		return nil, err
	}
	if quote == nil {
		return nil, ErrQuoteNotFound
	}

	existing, err := cf.bookingRepo.ByQuoteID(ctx, quote.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	booking := &models.Booking{
		QuoteID:          quote.ID,
		CustomerID:       quote.CustomerID,
		ClinicID:         quote.ClinicID,
		Status:           models.BookingStatusDepositPaid,
		TotalGBP:         quote.TotalGBP,
		TotalUSD:         quote.TotalUSD,
		DepositGBP:       paymentRequest.AmountGBP,
		BalanceGBP:       pricing.Round2(quote.TotalGBP.Sub(paymentRequest.AmountGBP)),
		PaymentRequestID: &paymentRequest.ID,
	}
	if err := cf.bookingRepo.Save(ctx, booking); err != nil {
		return nil, err
	}

	quote.Status = models.QuoteStatusConverted
	if err := cf.quoteRepo.UpdateWithVersion(ctx, quote, quote.Version); err != nil {
		return nil, err
	}

	pendingOffer, err := cf.appliedOfferRepo.PendingByQuote(ctx, quote.ID)
	if err != nil {
		return nil, err
	}
	if pendingOffer != nil {
		if err := cf.appliedOfferRepo.UpdateUsageStatus(ctx, pendingOffer.ID, models.OfferUsageConverted, &booking.ID); err != nil {
			return nil, err
		}
	}

	if quote.PromoCodeID != nil {
		if err := cf.promoRepo.IncrementUsage(ctx, *quote.PromoCodeID); err != nil {
			return nil, err
		}
	}

	return booking, nil
}

func newInvoiceNumber(quoteID uint) string {
	return fmt.Sprintf("%s-%d-%d", utils.InvoicePrefix, quoteID, utils.UTCNow().UnixNano())
}

func customerIDOf(pr *models.PaymentRequest) *uint {
	if pr == nil {
		return nil
	}
	return &pr.CustomerID
}

func toBookingDTO(b *models.Booking) *dto.BookingDTO {
	if b == nil {
		return nil
	}
	out := &dto.BookingDTO{
		UUID:       b.UUID.String(),
		Status:     b.Status,
		TotalGBP:   b.TotalGBP,
		TotalUSD:   b.TotalUSD,
		DepositGBP: b.DepositGBP,
		BalanceGBP: b.BalanceGBP,
		CreatedAt:  b.CreatedAt.UTC().Format(time.RFC3339),
	}
	if b.Quote.ID != 0 {
		out.QuoteUUID = b.Quote.UUID.String()
	}
	if b.TreatmentDate != nil {
		s := b.TreatmentDate.UTC().Format("2006-01-02")
		out.TreatmentDate = &s
	}
	return out
}

func (cf *CheckoutFlowImpl) audit(ctx context.Context, customerID *uint, action string, description string, success bool, errMsg *string, metadata *ClientMetadata) {
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		CustomerID:   customerID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errMsg,
	}

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		audit.RequestID = &requestID
	}

	_ = cf.auditRepo.Save(ctx, audit)
}
