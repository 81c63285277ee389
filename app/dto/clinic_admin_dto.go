package dto

import "github.com/shopspring/decimal"

// CreateOfferRequest publishes a new special offer for the staff member's clinic
type CreateOfferRequest struct {
	Title                string          `json:"title" validate:"required,max=255"`
	DiscountType         string          `json:"discount_type" validate:"required,oneof=percentage fixed_amount"`
	DiscountValue        decimal.Decimal `json:"discount_value" validate:"required"`
	ApplicableTreatments []string        `json:"applicable_treatments,omitempty" validate:"omitempty,dive,max=255"`
	ValidFrom            *string         `json:"valid_from,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	ValidUntil           *string         `json:"valid_until,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// UpdateOfferRequest changes an existing offer's state
type UpdateOfferRequest struct {
	IsActive   *bool   `json:"is_active,omitempty"`
	ValidUntil *string `json:"valid_until,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// CreatePromoCodeRequest registers a new promo code
type CreatePromoCodeRequest struct {
	Code          string          `json:"code" validate:"required,min=2,max=64"`
	DiscountType  string          `json:"discount_type" validate:"required,oneof=percentage fixed_amount"`
	DiscountValue decimal.Decimal `json:"discount_value" validate:"required"`
	MaxUses       int             `json:"max_uses" validate:"min=0"`
	ExpiresAt     *string         `json:"expires_at,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// CreatePackageItemRequest is one item of a new package
type CreatePackageItemRequest struct {
	TreatmentKey string           `json:"treatment_key" validate:"required,max=255"`
	Quantity     int              `json:"quantity" validate:"required,min=1,max=32"`
	SplitGBP     *decimal.Decimal `json:"split_gbp,omitempty"`
}

// CreatePackageRequest publishes a fixed-price bundle
type CreatePackageRequest struct {
	Name           string                     `json:"name" validate:"required,max=255"`
	BundlePriceGBP decimal.Decimal            `json:"bundle_price_gbp" validate:"required"`
	Items          []CreatePackageItemRequest `json:"items" validate:"required,min=1,dive"`
}

// OfferUsageDTO is one row of an offer's usage report
type OfferUsageDTO struct {
	QuoteUUID          string          `json:"quote_uuid"`
	UsageStatus        string          `json:"usage_status"`
	OriginalPriceGBP   decimal.Decimal `json:"original_price_gbp"`
	DiscountedPriceGBP decimal.Decimal `json:"discounted_price_gbp"`
	CreatedAt          string          `json:"created_at"`
}
