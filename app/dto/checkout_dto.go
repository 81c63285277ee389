package dto

import "github.com/shopspring/decimal"

// StartCheckoutRequest begins deposit payment for a locked quote
type StartCheckoutRequest struct {
	QuoteUUID   string `json:"quote_uuid" validate:"required,uuid4"`
	RedirectURL string `json:"redirect_url" validate:"required,url"`
}

// StartCheckoutResponse carries the gateway redirect for the deposit payment
type StartCheckoutResponse struct {
	PaymentRequestUUID string          `json:"payment_request_uuid"`
	PaymentURL         string          `json:"payment_url"`
	GatewayToken       string          `json:"gateway_token"`
	DepositGBP         decimal.Decimal `json:"deposit_gbp"`
	TotalGBP           decimal.Decimal `json:"total_gbp"`
	ExpiresAt          string          `json:"expires_at"`
}

// PaymentCallbackRequest is the gateway's redirect payload after payment
type PaymentCallbackRequest struct {
	State     string `json:"state" form:"state"`
	Status    string `json:"status" form:"status"`
	Reference string `json:"reference" form:"reference"`
	Token     string `json:"token" form:"token" validate:"required"`
	MaskedPAN string `json:"masked_pan" form:"masked_pan"`
}

// BookingDTO is the converted-quote confirmation
type BookingDTO struct {
	UUID          string          `json:"uuid"`
	QuoteUUID     string          `json:"quote_uuid"`
	Status        string          `json:"status"`
	TotalGBP      decimal.Decimal `json:"total_gbp"`
	TotalUSD      decimal.Decimal `json:"total_usd"`
	DepositGBP    decimal.Decimal `json:"deposit_gbp"`
	BalanceGBP    decimal.Decimal `json:"balance_gbp"`
	TreatmentDate *string         `json:"treatment_date,omitempty"`
	CreatedAt     string          `json:"created_at"`
}

// PaymentCallbackResponse reports the outcome of a gateway callback
type PaymentCallbackResponse struct {
	Completed bool        `json:"completed"`
	Message   string      `json:"message"`
	Booking   *BookingDTO `json:"booking,omitempty"`
}
