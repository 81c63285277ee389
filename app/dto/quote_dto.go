// Package dto contains Data Transfer Objects for API request and response structures
package dto

import "github.com/shopspring/decimal"

// CreateQuoteRequest opens a new quote against a clinic
type CreateQuoteRequest struct {
	ClinicUUID string `json:"clinic_uuid" validate:"required,uuid4"`
}

// AddTreatmentRequest appends a catalog treatment to a quote
type AddTreatmentRequest struct {
	TreatmentKey string `json:"treatment_key" validate:"required,max=255"`
	Quantity     int    `json:"quantity" validate:"required,min=1,max=32"`
}

// ApplyPackageRequest attaches a treatment package to a quote
type ApplyPackageRequest struct {
	PackageUUID string `json:"package_uuid" validate:"required,uuid4"`
}

// ApplyOfferRequest attaches a special offer to a quote
type ApplyOfferRequest struct {
	OfferUUID string `json:"offer_uuid" validate:"required,uuid4"`
}

// ApplyPromoCodeRequest redeems a promo code on a quote
type ApplyPromoCodeRequest struct {
	Code string `json:"code" validate:"required,min=2,max=64"`
}

// QuoteItemDTO is one treatment line in a quote response
type QuoteItemDTO struct {
	Name                 string          `json:"name"`
	Quantity             int             `json:"quantity"`
	Guarantee            string          `json:"guarantee,omitempty"`
	UnitPriceGBP         decimal.Decimal `json:"unit_price_gbp"`
	UnitPriceUSD         decimal.Decimal `json:"unit_price_usd"`
	SubtotalGBP          decimal.Decimal `json:"subtotal_gbp"`
	SubtotalUSD          decimal.Decimal `json:"subtotal_usd"`
	OriginalUnitPriceGBP decimal.Decimal `json:"original_unit_price_gbp"`
	IsLocked             bool            `json:"is_locked"`
	IsBonus              bool            `json:"is_bonus"`
	IsSpecialOffer       bool            `json:"is_special_offer"`
	IsPackageItem        bool            `json:"is_package_item"`
	SpecialOfferID       *uint           `json:"special_offer_id,omitempty"`
	PackageID            *uint           `json:"package_id,omitempty"`
}

// QuoteDTO is the full quote representation returned by every quote endpoint
type QuoteDTO struct {
	UUID              string          `json:"uuid"`
	ClinicID          uint            `json:"clinic_id"`
	Status            string          `json:"status"`
	Items             []QuoteItemDTO  `json:"treatments"`
	SubtotalGBP       decimal.Decimal `json:"subtotal_gbp"`
	SubtotalUSD       decimal.Decimal `json:"subtotal_usd"`
	OfferDiscountGBP  decimal.Decimal `json:"offer_discount_gbp"`
	PromoDiscountGBP  decimal.Decimal `json:"promo_discount_gbp"`
	PackageSavingsGBP decimal.Decimal `json:"package_savings_gbp"`
	DiscountGBP       decimal.Decimal `json:"discount_gbp"`
	TotalGBP          decimal.Decimal `json:"total_gbp"`
	TotalUSD          decimal.Decimal `json:"total_usd"`
	USDRate           decimal.Decimal `json:"usd_rate"`
	PackageID         *uint           `json:"package_id,omitempty"`
	SpecialOfferID    *uint           `json:"special_offer_id,omitempty"`
	PromoCode         *string         `json:"promo_code,omitempty"`
	CreatedAt         string          `json:"created_at"`
	UpdatedAt         string          `json:"updated_at"`
}

// QuoteResponse wraps a quote with any non-fatal warnings from the last
// recomputation
type QuoteResponse struct {
	Quote    QuoteDTO `json:"quote"`
	Warnings []string `json:"warnings,omitempty"`
}
