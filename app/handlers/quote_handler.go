// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"errors"
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/smiletrip/smiletrip/app/dto"
	"github.com/smiletrip/smiletrip/app/middleware"
	businessflow "github.com/smiletrip/smiletrip/business_flow"
	"github.com/smiletrip/smiletrip/pricing"
)

// QuoteHandlerInterface defines the contract for quote handlers
type QuoteHandlerInterface interface {
	CreateQuote(c fiber.Ctx) error
	GetQuote(c fiber.Ctx) error
	ListQuotes(c fiber.Ctx) error
	AddTreatment(c fiber.Ctx) error
	RemoveTreatment(c fiber.Ctx) error
	ApplyPackage(c fiber.Ctx) error
	ClearPackage(c fiber.Ctx) error
	ApplyOffer(c fiber.Ctx) error
	ClearOffer(c fiber.Ctx) error
	ApplyPromoCode(c fiber.Ctx) error
	ClearPromoCode(c fiber.Ctx) error
	LockForCheckout(c fiber.Ctx) error
	AbandonQuote(c fiber.Ctx) error
}

// QuoteHandler handles quote-building HTTP requests
type QuoteHandler struct {
	quoteFlow businessflow.QuoteFlow
	validator *validator.Validate
}

// NewQuoteHandler creates a new quote handler
func NewQuoteHandler(quoteFlow businessflow.QuoteFlow) *QuoteHandler {
	return &QuoteHandler{
		quoteFlow: quoteFlow,
		validator: newValidator(),
	}
}

// CreateQuote opens a new quote against a clinic
// @Summary Create Quote
// @Tags Quotes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateQuoteRequest true "Clinic selection"
// @Success 201 {object} dto.APIResponse{data=dto.QuoteResponse} "Quote created"
// @Router /api/v1/quotes [post]
func (h *QuoteHandler) CreateQuote(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	var req dto.CreateQuoteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.quoteFlow.CreateQuote(createRequestContext(c), &req, customerID, clientMetadata(c))
	if err != nil {
		return h.mapQuoteError(c, err, "CREATE_QUOTE_FAILED", "Failed to create quote")
	}

	return successResponse(c, fiber.StatusCreated, "Quote created", result)
}

// GetQuote returns one quote with its lines and totals
// @Summary Get Quote
// @Tags Quotes
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Quote UUID"
// @Success 200 {object} dto.APIResponse{data=dto.QuoteResponse} "Quote"
// @Router /api/v1/quotes/{uuid} [get]
func (h *QuoteHandler) GetQuote(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	result, err := h.quoteFlow.GetQuote(createRequestContext(c), c.Params("uuid"), customerID)
	if err != nil {
		return h.mapQuoteError(c, err, "GET_QUOTE_FAILED", "Failed to load quote")
	}

	return successResponse(c, fiber.StatusOK, "Quote", result)
}

// ListQuotes returns the customer's quotes, newest first
// @Summary List Quotes
// @Tags Quotes
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page, starting at 1"
// @Param page_size query int false "Page size, max 100"
// @Success 200 {object} dto.APIResponse{data=[]dto.QuoteDTO} "Quotes"
// @Router /api/v1/quotes [get]
func (h *QuoteHandler) ListQuotes(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 20)

	result, err := h.quoteFlow.ListQuotes(createRequestContext(c), customerID, page, pageSize)
	if err != nil {
		return h.mapQuoteError(c, err, "LIST_QUOTES_FAILED", "Failed to list quotes")
	}

	return successResponse(c, fiber.StatusOK, "Quotes", result)
}

// AddTreatment appends a treatment line to the quote
// @Summary Add Treatment
// @Tags Quotes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Quote UUID"
// @Param request body dto.AddTreatmentRequest true "Treatment line"
// @Success 200 {object} dto.APIResponse{data=dto.QuoteResponse} "Updated quote"
// @Router /api/v1/quotes/{uuid}/treatments [post]
func (h *QuoteHandler) AddTreatment(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	var req dto.AddTreatmentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.quoteFlow.AddTreatment(createRequestContext(c), c.Params("uuid"), customerID, &req, clientMetadata(c))
	if err != nil {
		return h.mapQuoteError(c, err, "ADD_TREATMENT_FAILED", "Failed to add treatment")
	}

	return successResponse(c, fiber.StatusOK, "Treatment added", result)
}

// RemoveTreatment deletes a treatment line by position
// @Summary Remove Treatment
// @Tags Quotes
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Quote UUID"
// @Param position path int true "Line position"
// @Success 200 {object} dto.APIResponse{data=dto.QuoteResponse} "Updated quote"
// @Router /api/v1/quotes/{uuid}/treatments/{position} [delete]
func (h *QuoteHandler) RemoveTreatment(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	position, err := strconv.Atoi(c.Params("position"))
	if err != nil || position < 0 {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid line position", "INVALID_POSITION", nil)
	}

	result, err := h.quoteFlow.RemoveTreatment(createRequestContext(c), c.Params("uuid"), customerID, position, clientMetadata(c))
	if err != nil {
		return h.mapQuoteError(c, err, "REMOVE_TREATMENT_FAILED", "Failed to remove treatment")
	}

	return successResponse(c, fiber.StatusOK, "Treatment removed", result)
}

// ApplyPackage replaces the quote's lines with a package's contents
// @Summary Apply Package
// @Tags Quotes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Quote UUID"
// @Param request body dto.ApplyPackageRequest true "Package selection"
// @Success 200 {object} dto.APIResponse{data=dto.QuoteResponse} "Updated quote"
// @Router /api/v1/quotes/{uuid}/package [post]
func (h *QuoteHandler) ApplyPackage(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	var req dto.ApplyPackageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.quoteFlow.ApplyPackage(createRequestContext(c), c.Params("uuid"), customerID, &req, clientMetadata(c))
	if err != nil {
		return h.mapQuoteError(c, err, "APPLY_PACKAGE_FAILED", "Failed to apply package")
	}

	return successResponse(c, fiber.StatusOK, "Package applied", result)
}

// ClearPackage removes the applied package and its lines
// @Summary Clear Package
// @Tags Quotes
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Quote UUID"
// @Success 200 {object} dto.APIResponse{data=dto.QuoteResponse} "Updated quote"
// @Router /api/v1/quotes/{uuid}/package [delete]
func (h *QuoteHandler) ClearPackage(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	result, err := h.quoteFlow.ClearPackage(createRequestContext(c), c.Params("uuid"), customerID, clientMetadata(c))
	if err != nil {
		return h.mapQuoteError(c, err, "CLEAR_PACKAGE_FAILED", "Failed to clear package")
	}

	return successResponse(c, fiber.StatusOK, "Package cleared", result)
}

// ApplyOffer applies a special offer to the quote
// @Summary Apply Offer
// @Tags Quotes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Quote UUID"
// @Param request body dto.ApplyOfferRequest true "Offer selection"
// @Success 200 {object} dto.APIResponse{data=dto.QuoteResponse} "Updated quote"
// @Router /api/v1/quotes/{uuid}/offer [post]
func (h *QuoteHandler) ApplyOffer(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	var req dto.ApplyOfferRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.quoteFlow.ApplyOffer(createRequestContext(c), c.Params("uuid"), customerID, &req, clientMetadata(c))
	if err != nil {
		return h.mapQuoteError(c, err, "APPLY_OFFER_FAILED", "Failed to apply offer")
	}

	return successResponse(c, fiber.StatusOK, "Offer applied", result)
}

// ClearOffer removes the applied special offer
// @Summary Clear Offer
// @Tags Quotes
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Quote UUID"
// @Success 200 {object} dto.APIResponse{data=dto.QuoteResponse} "Updated quote"
// @Router /api/v1/quotes/{uuid}/offer [delete]
func (h *QuoteHandler) ClearOffer(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	result, err := h.quoteFlow.ClearOffer(createRequestContext(c), c.Params("uuid"), customerID, clientMetadata(c))
	if err != nil {
		return h.mapQuoteError(c, err, "CLEAR_OFFER_FAILED", "Failed to clear offer")
	}

	return successResponse(c, fiber.StatusOK, "Offer cleared", result)
}

// ApplyPromoCode applies a promo code to the quote
// @Summary Apply Promo Code
// @Tags Quotes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Quote UUID"
// @Param request body dto.ApplyPromoCodeRequest true "Promo code"
// @Success 200 {object} dto.APIResponse{data=dto.QuoteResponse} "Updated quote"
// @Router /api/v1/quotes/{uuid}/promo-code [post]
func (h *QuoteHandler) ApplyPromoCode(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	var req dto.ApplyPromoCodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.quoteFlow.ApplyPromoCode(createRequestContext(c), c.Params("uuid"), customerID, &req, clientMetadata(c))
	if err != nil {
		return h.mapQuoteError(c, err, "APPLY_PROMO_FAILED", "Failed to apply promo code")
	}

	return successResponse(c, fiber.StatusOK, "Promo code applied", result)
}

// ClearPromoCode removes the applied promo code
// @Summary Clear Promo Code
// @Tags Quotes
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Quote UUID"
// @Success 200 {object} dto.APIResponse{data=dto.QuoteResponse} "Updated quote"
// @Router /api/v1/quotes/{uuid}/promo-code [delete]
func (h *QuoteHandler) ClearPromoCode(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	result, err := h.quoteFlow.ClearPromoCode(createRequestContext(c), c.Params("uuid"), customerID, clientMetadata(c))
	if err != nil {
		return h.mapQuoteError(c, err, "CLEAR_PROMO_FAILED", "Failed to clear promo code")
	}

	return successResponse(c, fiber.StatusOK, "Promo code cleared", result)
}

// LockForCheckout freezes the quote for payment
// @Summary Lock Quote
// @Tags Quotes
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Quote UUID"
// @Success 200 {object} dto.APIResponse{data=dto.QuoteResponse} "Locked quote"
// @Router /api/v1/quotes/{uuid}/lock [post]
func (h *QuoteHandler) LockForCheckout(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	result, err := h.quoteFlow.LockForCheckout(createRequestContext(c), c.Params("uuid"), customerID, clientMetadata(c))
	if err != nil {
		return h.mapQuoteError(c, err, "LOCK_QUOTE_FAILED", "Failed to lock quote")
	}

	return successResponse(c, fiber.StatusOK, "Quote locked for checkout", result)
}

// AbandonQuote marks the quote abandoned
// @Summary Abandon Quote
// @Tags Quotes
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Quote UUID"
// @Success 200 {object} dto.APIResponse{data=dto.QuoteResponse} "Abandoned quote"
// @Router /api/v1/quotes/{uuid}/abandon [post]
func (h *QuoteHandler) AbandonQuote(c fiber.Ctx) error {
	customerID, ok := middleware.GetCustomerIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	result, err := h.quoteFlow.AbandonQuote(createRequestContext(c), c.Params("uuid"), customerID, clientMetadata(c))
	if err != nil {
		return h.mapQuoteError(c, err, "ABANDON_QUOTE_FAILED", "Failed to abandon quote")
	}

	return successResponse(c, fiber.StatusOK, "Quote abandoned", result)
}

// mapQuoteError translates business errors into HTTP responses
func (h *QuoteHandler) mapQuoteError(c fiber.Ctx, err error, fallbackCode, fallbackMessage string) error {
	switch {
	case businessflow.IsQuoteNotFound(err):
		return errorResponse(c, fiber.StatusNotFound, "Quote not found", "QUOTE_NOT_FOUND", nil)
	case businessflow.IsQuoteAccessDenied(err):
		return errorResponse(c, fiber.StatusForbidden, "Quote belongs to another customer", "QUOTE_ACCESS_DENIED", nil)
	case businessflow.IsQuoteConflict(err):
		return errorResponse(c, fiber.StatusConflict, "Quote was updated by another request, retry", "QUOTE_CONFLICT", nil)
	case pricing.IsQuoteLocked(err):
		return errorResponse(c, fiber.StatusConflict, "Quote is locked for checkout", "QUOTE_LOCKED", nil)
	case pricing.IsQuoteConverted(err):
		return errorResponse(c, fiber.StatusConflict, "Quote has already been booked", "QUOTE_CONVERTED", nil)
	case pricing.IsQuoteAbandoned(err):
		return errorResponse(c, fiber.StatusConflict, "Quote is abandoned", "QUOTE_ABANDONED", nil)
	case pricing.IsLineLocked(err):
		return errorResponse(c, fiber.StatusBadRequest, "Line is locked by the applied package", "LINE_LOCKED", nil)
	case errors.Is(err, pricing.ErrLineNotFound) || businessflow.IsQuoteItemNotFound(err):
		return errorResponse(c, fiber.StatusNotFound, "Quote line not found", "QUOTE_ITEM_NOT_FOUND", nil)
	case errors.Is(err, pricing.ErrQuoteEmpty):
		return errorResponse(c, fiber.StatusBadRequest, "Quote has no treatment lines", "QUOTE_EMPTY", nil)
	case errors.Is(err, pricing.ErrInvalidQuantity):
		return errorResponse(c, fiber.StatusBadRequest, "Quantity must be positive", "INVALID_QUANTITY", nil)
	case pricing.IsPromoCodeExpired(err):
		return errorResponse(c, fiber.StatusBadRequest, "Promo code is expired or inactive", "PROMO_EXPIRED", nil)
	case businessflow.IsClinicNotFound(err):
		return errorResponse(c, fiber.StatusNotFound, "Clinic not found", "CLINIC_NOT_FOUND", nil)
	case businessflow.IsClinicInactive(err):
		return errorResponse(c, fiber.StatusBadRequest, "Clinic is not active", "CLINIC_INACTIVE", nil)
	case businessflow.IsTreatmentNotFound(err):
		return errorResponse(c, fiber.StatusNotFound, "Treatment not found", "TREATMENT_NOT_FOUND", nil)
	case businessflow.IsPackageNotFound(err):
		return errorResponse(c, fiber.StatusNotFound, "Package not found", "PACKAGE_NOT_FOUND", nil)
	case businessflow.IsPackageInactive(err):
		return errorResponse(c, fiber.StatusBadRequest, "Package is not active", "PACKAGE_INACTIVE", nil)
	case businessflow.IsOfferNotFound(err):
		return errorResponse(c, fiber.StatusNotFound, "Offer not found", "OFFER_NOT_FOUND", nil)
	case businessflow.IsOfferInactive(err):
		return errorResponse(c, fiber.StatusBadRequest, "Offer is not active", "OFFER_INACTIVE", nil)
	case businessflow.IsOfferWrongClinic(err):
		return errorResponse(c, fiber.StatusBadRequest, "Offer belongs to another clinic", "OFFER_WRONG_CLINIC", nil)
	case businessflow.IsPromoCodeNotFound(err):
		return errorResponse(c, fiber.StatusNotFound, "Promo code not found", "PROMO_NOT_FOUND", nil)
	case businessflow.IsPromoCodeUsedUp(err):
		return errorResponse(c, fiber.StatusBadRequest, "Promo code has no remaining uses", "PROMO_USED_UP", nil)
	case businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err):
		return errorResponse(c, fiber.StatusBadRequest, "Invalid pagination", "INVALID_PAGINATION", nil)
	}

	log.Println(fallbackMessage, err)
	return errorResponse(c, fiber.StatusInternalServerError, fallbackMessage, fallbackCode, nil)
}

func queryInt(c fiber.Ctx, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
