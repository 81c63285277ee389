// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/smiletrip/smiletrip/app/dto"
	"github.com/smiletrip/smiletrip/app/middleware"
	businessflow "github.com/smiletrip/smiletrip/business_flow"
)

// CheckoutHandlerInterface defines the contract for checkout handlers
type CheckoutHandlerInterface interface {
	StartCheckout(c fiber.Ctx) error
	HandleCallback(c fiber.Ctx) error
}

// CheckoutHandler handles deposit payment HTTP requests
type CheckoutHandler struct {
	checkoutFlow businessflow.CheckoutFlow
	validator    *validator.Validate
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutFlow businessflow.CheckoutFlow) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutFlow: checkoutFlow,
		validator:    newValidator(),
	}
}

// StartCheckout creates a payment request for a locked quote's deposit
// @Summary Start Checkout
// @Tags Checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.StartCheckoutRequest true "Quote and redirect URL"
// @Success 200 {object} dto.APIResponse{data=dto.StartCheckoutResponse} "Gateway redirect"
// @Router /api/v1/checkout [post]
func (h *CheckoutHandler) StartCheckout(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	var req dto.StartCheckoutRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.checkoutFlow.StartCheckout(createRequestContext(c), customerID, &req, clientMetadata(c))
	if err != nil {
		switch {
		case businessflow.IsQuoteNotFound(err):
			return errorResponse(c, fiber.StatusNotFound, "Quote not found", "QUOTE_NOT_FOUND", nil)
		case businessflow.IsQuoteAccessDenied(err):
			return errorResponse(c, fiber.StatusForbidden, "Quote belongs to another customer", "QUOTE_ACCESS_DENIED", nil)
		case businessflow.IsQuoteNotLocked(err):
			return errorResponse(c, fiber.StatusConflict, "Quote must be locked before checkout", "QUOTE_NOT_LOCKED", nil)
		case businessflow.IsQuoteAlreadyBooked(err):
			return errorResponse(c, fiber.StatusConflict, "Quote already has a booking", "QUOTE_ALREADY_BOOKED", nil)
		case businessflow.IsGatewayTokenEmpty(err):
			return errorResponse(c, fiber.StatusBadGateway, "Payment gateway rejected the request", "GATEWAY_ERROR", nil)
		}
		log.Println("Failed to start checkout", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to start checkout", "START_CHECKOUT_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Checkout started", result)
}

// HandleCallback processes the gateway's post-payment redirect. The route is
// public, the gateway token identifies the payment request.
// @Summary Payment Callback
// @Tags Checkout
// @Accept json
// @Produce json
// @Param request body dto.PaymentCallbackRequest true "Gateway callback payload"
// @Success 200 {object} dto.APIResponse{data=dto.PaymentCallbackResponse} "Payment outcome"
// @Router /api/v1/checkout/callback [post]
func (h *CheckoutHandler) HandleCallback(c fiber.Ctx) error {
	var req dto.PaymentCallbackRequest
	if err := c.Bind().Body(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid callback payload", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.checkoutFlow.HandleCallback(createRequestContext(c), &req, clientMetadata(c))
	if err != nil {
		switch {
		case businessflow.IsPaymentRequestNotFound(err):
			return errorResponse(c, fiber.StatusNotFound, "Payment request not found", "PAYMENT_REQUEST_NOT_FOUND", nil)
		case businessflow.IsPaymentRequestAlreadyProcessed(err):
			return errorResponse(c, fiber.StatusConflict, "Payment request already processed", "PAYMENT_ALREADY_PROCESSED", nil)
		case businessflow.IsPaymentRequestExpired(err):
			return errorResponse(c, fiber.StatusGone, "Payment request expired", "PAYMENT_REQUEST_EXPIRED", nil)
		}
		log.Println("Failed to process payment callback", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to process payment callback", "CALLBACK_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, result.Message, result)
}
