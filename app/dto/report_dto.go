package dto

// QuoteReportRequest selects the window an admin quote export covers.
// Dates are inclusive, format 2006-01-02, interpreted in UTC.
type QuoteReportRequest struct {
	StartDate string `json:"start_date" query:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" query:"end_date" validate:"required,datetime=2006-01-02"`
}

// QuoteReportResponse describes the generated export file
type QuoteReportResponse struct {
	FileName string `json:"file_name"`
	Rows     int    `json:"rows"`
}
