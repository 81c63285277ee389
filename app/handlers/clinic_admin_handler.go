// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/smiletrip/smiletrip/app/dto"
	"github.com/smiletrip/smiletrip/app/middleware"
	businessflow "github.com/smiletrip/smiletrip/business_flow"
	"github.com/smiletrip/smiletrip/models"
)

// ClinicAdminHandlerInterface defines the contract for clinic staff handlers
type ClinicAdminHandlerInterface interface {
	CreateOffer(c fiber.Ctx) error
	UpdateOffer(c fiber.Ctx) error
	ListOffers(c fiber.Ctx) error
	ListOfferUsage(c fiber.Ctx) error
	CreatePromoCode(c fiber.Ctx) error
	CreatePackage(c fiber.Ctx) error
}

// ClinicAdminHandler handles clinic staff HTTP requests. Every route behind it
// runs after RequireClinicStaff, so the customer local is always present.
type ClinicAdminHandler struct {
	adminFlow businessflow.ClinicAdminFlow
	validator *validator.Validate
}

// NewClinicAdminHandler creates a new clinic admin handler
func NewClinicAdminHandler(adminFlow businessflow.ClinicAdminFlow) *ClinicAdminHandler {
	return &ClinicAdminHandler{
		adminFlow: adminFlow,
		validator: newValidator(),
	}
}

func (h *ClinicAdminHandler) staff(c fiber.Ctx) (*models.Customer, error) {
	customer, ok := middleware.GetCustomerFromContext(c)
	if !ok {
		return nil, errorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}
	return customer, nil
}

// CreateOffer publishes a new special offer for the staff member's clinic
// @Summary Create Offer
// @Tags Clinic Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateOfferRequest true "Offer definition"
// @Success 201 {object} dto.APIResponse{data=dto.OfferDTO} "Offer created"
// @Router /api/v1/clinic-admin/offers [post]
func (h *ClinicAdminHandler) CreateOffer(c fiber.Ctx) error {
	staff, err := h.staff(c)
	if err != nil {
		return err
	}

	var req dto.CreateOfferRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.adminFlow.CreateOffer(createRequestContext(c), staff, &req, clientMetadata(c))
	if err != nil {
		return h.mapAdminError(c, err, "CREATE_OFFER_FAILED", "Failed to create offer")
	}

	return successResponse(c, fiber.StatusCreated, "Offer created", result)
}

// UpdateOffer changes an existing offer's state
// @Summary Update Offer
// @Tags Clinic Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Offer UUID"
// @Param request body dto.UpdateOfferRequest true "Offer changes"
// @Success 200 {object} dto.APIResponse{data=dto.OfferDTO} "Offer updated"
// @Router /api/v1/clinic-admin/offers/{uuid} [put]
func (h *ClinicAdminHandler) UpdateOffer(c fiber.Ctx) error {
	staff, err := h.staff(c)
	if err != nil {
		return err
	}

	var req dto.UpdateOfferRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.adminFlow.UpdateOffer(createRequestContext(c), staff, c.Params("uuid"), &req, clientMetadata(c))
	if err != nil {
		return h.mapAdminError(c, err, "UPDATE_OFFER_FAILED", "Failed to update offer")
	}

	return successResponse(c, fiber.StatusOK, "Offer updated", result)
}

// ListOffers lists the clinic's offers, live and expired alike
// @Summary List Offers
// @Tags Clinic Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.OfferDTO} "Offers"
// @Router /api/v1/clinic-admin/offers [get]
func (h *ClinicAdminHandler) ListOffers(c fiber.Ctx) error {
	staff, err := h.staff(c)
	if err != nil {
		return err
	}

	result, err := h.adminFlow.ListOffers(createRequestContext(c), staff)
	if err != nil {
		return h.mapAdminError(c, err, "LIST_OFFERS_FAILED", "Failed to list offers")
	}

	return successResponse(c, fiber.StatusOK, "Offers", result)
}

// ListOfferUsage reports which quotes used an offer
// @Summary List Offer Usage
// @Tags Clinic Admin
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Offer UUID"
// @Param page query int false "Page, starting at 1"
// @Param page_size query int false "Page size, max 100"
// @Success 200 {object} dto.APIResponse{data=[]dto.OfferUsageDTO} "Usage rows"
// @Router /api/v1/clinic-admin/offers/{uuid}/usage [get]
func (h *ClinicAdminHandler) ListOfferUsage(c fiber.Ctx) error {
	staff, err := h.staff(c)
	if err != nil {
		return err
	}

	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 20)

	result, err := h.adminFlow.ListOfferUsage(createRequestContext(c), staff, c.Params("uuid"), page, pageSize)
	if err != nil {
		return h.mapAdminError(c, err, "LIST_OFFER_USAGE_FAILED", "Failed to list offer usage")
	}

	return successResponse(c, fiber.StatusOK, "Offer usage", result)
}

// CreatePromoCode registers a new promo code
// @Summary Create Promo Code
// @Tags Clinic Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreatePromoCodeRequest true "Promo code definition"
// @Success 201 {object} dto.APIResponse{data=models.PromoCode} "Promo code created"
// @Router /api/v1/clinic-admin/promo-codes [post]
func (h *ClinicAdminHandler) CreatePromoCode(c fiber.Ctx) error {
	staff, err := h.staff(c)
	if err != nil {
		return err
	}

	var req dto.CreatePromoCodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.adminFlow.CreatePromoCode(createRequestContext(c), staff, &req, clientMetadata(c))
	if err != nil {
		return h.mapAdminError(c, err, "CREATE_PROMO_FAILED", "Failed to create promo code")
	}

	return successResponse(c, fiber.StatusCreated, "Promo code created", result)
}

// CreatePackage publishes a fixed-price treatment bundle
// @Summary Create Package
// @Tags Clinic Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreatePackageRequest true "Package definition"
// @Success 201 {object} dto.APIResponse{data=models.TreatmentPackage} "Package created"
// @Router /api/v1/clinic-admin/packages [post]
func (h *ClinicAdminHandler) CreatePackage(c fiber.Ctx) error {
	staff, err := h.staff(c)
	if err != nil {
		return err
	}

	var req dto.CreatePackageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.adminFlow.CreatePackage(createRequestContext(c), staff, &req, clientMetadata(c))
	if err != nil {
		return h.mapAdminError(c, err, "CREATE_PACKAGE_FAILED", "Failed to create package")
	}

	return successResponse(c, fiber.StatusCreated, "Package created", result)
}

func (h *ClinicAdminHandler) mapAdminError(c fiber.Ctx, err error, fallbackCode, fallbackMessage string) error {
	switch {
	case businessflow.IsQuoteAccessDenied(err):
		return errorResponse(c, fiber.StatusForbidden, "Clinic staff access required", "CLINIC_STAFF_REQUIRED", nil)
	case businessflow.IsOfferNotFound(err):
		return errorResponse(c, fiber.StatusNotFound, "Offer not found", "OFFER_NOT_FOUND", nil)
	case businessflow.IsOfferWrongClinic(err):
		return errorResponse(c, fiber.StatusForbidden, "Offer belongs to another clinic", "OFFER_WRONG_CLINIC", nil)
	case businessflow.IsTreatmentNotFound(err):
		return errorResponse(c, fiber.StatusBadRequest, "Unknown treatment key", "TREATMENT_NOT_FOUND", nil)
	case businessflow.IsPromoCodeExists(err):
		return errorResponse(c, fiber.StatusConflict, "Promo code already exists", "PROMO_CODE_EXISTS", nil)
	case businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err):
		return errorResponse(c, fiber.StatusBadRequest, "Invalid pagination", "INVALID_PAGINATION", nil)
	}

	log.Println(fallbackMessage, err)
	return errorResponse(c, fiber.StatusInternalServerError, fallbackMessage, fallbackCode, nil)
}
