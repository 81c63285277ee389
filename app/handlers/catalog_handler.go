// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/gofiber/fiber/v3"
	businessflow "github.com/smiletrip/smiletrip/business_flow"
)

// CatalogHandlerInterface defines the contract for public catalog handlers
type CatalogHandlerInterface interface {
	ListClinics(c fiber.Ctx) error
	GetClinicCatalog(c fiber.Ctx) error
}

// CatalogHandler serves the public clinic catalog
type CatalogHandler struct {
	catalogFlow businessflow.CatalogFlow
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogFlow businessflow.CatalogFlow) *CatalogHandler {
	return &CatalogHandler{catalogFlow: catalogFlow}
}

// ListClinics lists every active partner clinic
// @Summary List Clinics
// @Tags Catalog
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]dto.ClinicDTO} "Clinics"
// @Router /api/v1/clinics [get]
func (h *CatalogHandler) ListClinics(c fiber.Ctx) error {
	result, err := h.catalogFlow.ListClinics(createRequestContext(c))
	if err != nil {
		log.Println("Failed to list clinics", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to list clinics", "LIST_CLINICS_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Clinics", result)
}

// GetClinicCatalog returns one clinic's treatments, packages and live offers
// @Summary Get Clinic Catalog
// @Tags Catalog
// @Produce json
// @Param uuid path string true "Clinic UUID"
// @Success 200 {object} dto.APIResponse{data=dto.ClinicCatalogResponse} "Clinic catalog"
// @Router /api/v1/clinics/{uuid} [get]
func (h *CatalogHandler) GetClinicCatalog(c fiber.Ctx) error {
	result, err := h.catalogFlow.GetClinicCatalog(createRequestContext(c), c.Params("uuid"))
	if err != nil {
		switch {
		case businessflow.IsClinicNotFound(err):
			return errorResponse(c, fiber.StatusNotFound, "Clinic not found", "CLINIC_NOT_FOUND", nil)
		case businessflow.IsClinicInactive(err):
			return errorResponse(c, fiber.StatusNotFound, "Clinic not found", "CLINIC_NOT_FOUND", nil)
		}
		if be, ok := err.(*businessflow.BusinessError); ok && be.Code == "INVALID_CLINIC" {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid clinic identifier", "INVALID_CLINIC", nil)
		}
		log.Println("Failed to load clinic catalog", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to load clinic catalog", "GET_CATALOG_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Clinic catalog", result)
}
