// Package businessflow contains the core business logic and use cases for admin reporting workflows
package businessflow

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/smiletrip/smiletrip/app/dto"
	"github.com/smiletrip/smiletrip/repository"
	"github.com/xuri/excelize/v2"
)

// AdminReportFlow builds platform-level exports for back-office use
type AdminReportFlow interface {
	// ExportQuotes returns an xlsx workbook of every quote created inside the
	// inclusive date window, one row per quote.
	ExportQuotes(ctx context.Context, req *dto.QuoteReportRequest) (string, []byte, error)
}

// AdminReportFlowImpl implements the admin reporting flow
type AdminReportFlowImpl struct {
	quoteRepo  repository.QuoteRepository
	clinicRepo repository.ClinicRepository
}

// NewAdminReportFlow creates a new admin report flow instance
func NewAdminReportFlow(quoteRepo repository.QuoteRepository, clinicRepo repository.ClinicRepository) AdminReportFlow {
	return &AdminReportFlowImpl{quoteRepo: quoteRepo, clinicRepo: clinicRepo}
}

// ExportQuotes builds the workbook. The window is interpreted in UTC, the end
// date extends to the end of that day.
func (f *AdminReportFlowImpl) ExportQuotes(ctx context.Context, req *dto.QuoteReportRequest) (string, []byte, error) {
	start, err := time.ParseInLocation("2006-01-02", req.StartDate, time.UTC)
	if err != nil {
		return "", nil, NewBusinessError("VALIDATION_ERROR", "Invalid start_date", err)
	}
	end, err := time.ParseInLocation("2006-01-02", req.EndDate, time.UTC)
	if err != nil {
		return "", nil, NewBusinessError("VALIDATION_ERROR", "Invalid end_date", err)
	}
	if start.After(end) {
		return "", nil, NewBusinessError("VALIDATION_ERROR", "start_date is after end_date", ErrStartDateAfterEndDate)
	}
	end = end.Add(24*time.Hour - time.Nanosecond)

	quotes, err := f.quoteRepo.ListCreatedBetween(ctx, start, end)
	if err != nil {
		return "", nil, NewBusinessError("FETCH_QUOTES_FAILED", "Failed to fetch quotes", err)
	}

	clinicNames := make(map[uint]string)

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "quotes"
	xl.SetSheetName(xl.GetSheetName(0), sheet)

	header := []string{"uuid", "status", "customer_id", "clinic", "subtotal_gbp", "offer_discount_gbp", "promo_discount_gbp", "package_savings_gbp", "discount_gbp", "total_gbp", "total_usd", "promo_code", "version", "created_at", "updated_at"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for ri, q := range quotes {
		clinicName, ok := clinicNames[q.ClinicID]
		if !ok {
			clinic, err := f.clinicRepo.ByID(ctx, q.ClinicID)
			if err == nil && clinic != nil {
				clinicName = clinic.Name
			}
			clinicNames[q.ClinicID] = clinicName
		}

		promoCode := ""
		if q.PromoCode != nil {
			promoCode = *q.PromoCode
		}

		row := []string{
			q.UUID.String(),
			q.Status,
			strconv.FormatUint(uint64(q.CustomerID), 10),
			clinicName,
			q.SubtotalGBP.StringFixed(2),
			q.OfferDiscountGBP.StringFixed(2),
			q.PromoDiscountGBP.StringFixed(2),
			q.PackageSavingsGBP.StringFixed(2),
			q.DiscountGBP.StringFixed(2),
			q.TotalGBP.StringFixed(2),
			q.TotalUSD.StringFixed(2),
			promoCode,
			strconv.FormatUint(uint64(q.Version), 10),
			q.CreatedAt.UTC().Format(time.RFC3339),
			q.UpdatedAt.UTC().Format(time.RFC3339),
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(sheet, cellRef, &row)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to build workbook", err)
	}

	filename := fmt.Sprintf("quotes_%s_to_%s.xlsx", req.StartDate, req.EndDate)
	return filename, buf.Bytes(), nil
}
