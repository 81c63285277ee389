// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/smiletrip/smiletrip/app/dto"
	businessflow "github.com/smiletrip/smiletrip/business_flow"
)

// ReportHandlerInterface defines the contract for admin report handlers
type ReportHandlerInterface interface {
	ExportQuotes(c fiber.Ctx) error
}

// ReportHandler serves platform-admin exports
type ReportHandler struct {
	reportFlow businessflow.AdminReportFlow
	validator  *validator.Validate
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportFlow businessflow.AdminReportFlow) *ReportHandler {
	return &ReportHandler{
		reportFlow: reportFlow,
		validator:  newValidator(),
	}
}

// ExportQuotes streams an xlsx workbook of quotes created in a date window
// @Summary Export Quotes
// @Tags Admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param start_date query string true "Window start, YYYY-MM-DD"
// @Param end_date query string true "Window end, YYYY-MM-DD"
// @Success 200 {file} binary "Workbook"
// @Router /api/v1/admin/reports/quotes [get]
func (h *ReportHandler) ExportQuotes(c fiber.Ctx) error {
	req := dto.QuoteReportRequest{
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	filename, content, err := h.reportFlow.ExportQuotes(createRequestContext(c), &req)
	if err != nil {
		if businessflow.IsStartDateAfterEndDate(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Start date cannot be after end date", "INVALID_DATE_RANGE", nil)
		}
		log.Println("Failed to export quotes", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to export quotes", "EXPORT_FAILED", nil)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(content)
}
