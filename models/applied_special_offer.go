package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Applied-offer usage states
const (
	OfferUsagePending   = "pending"
	OfferUsageUsed      = "used"
	OfferUsageConverted = "converted"
)

// AppliedSpecialOffer records a special offer attached to a quote, with the
// before and after prices it produced. One pending record per quote at a
// time: attaching a different offer replaces the pending record.
type AppliedSpecialOffer struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_applied_special_offers_uuid" json:"uuid"`

	QuoteID        uint `gorm:"not null;index:idx_applied_special_offers_quote_id" json:"quote_id"`
	SpecialOfferID uint `gorm:"not null;index:idx_applied_special_offers_offer_id" json:"special_offer_id"`
	CustomerID     uint `gorm:"not null;index:idx_applied_special_offers_customer_id" json:"customer_id"`

	UsageStatus string `gorm:"type:varchar(16);not null;default:'pending';index:idx_applied_special_offers_usage_status" json:"usage_status"`

	OriginalPriceGBP   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"original_price_gbp"`
	DiscountedPriceGBP decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discounted_price_gbp"`

	// BookingID is set when the quote converts and the offer moves to "converted".
	BookingID *uint `json:"booking_id,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	// Relationships
	Quote        Quote        `gorm:"foreignKey:QuoteID" json:"quote,omitempty"`
	SpecialOffer SpecialOffer `gorm:"foreignKey:SpecialOfferID" json:"special_offer,omitempty"`
}

func (AppliedSpecialOffer) TableName() string {
	return "applied_special_offers"
}

// BeforeCreate ensures UUID is set for AppliedSpecialOffer
func (a *AppliedSpecialOffer) BeforeCreate(tx *gorm.DB) error {
	if a.UUID == uuid.Nil {
		a.UUID = uuid.New()
	}
	return nil
}

// AppliedSpecialOfferFilter represents filter criteria for applied offer queries
type AppliedSpecialOfferFilter struct {
	ID             *uint   `json:"id,omitempty"`
	QuoteID        *uint   `json:"quote_id,omitempty"`
	SpecialOfferID *uint   `json:"special_offer_id,omitempty"`
	CustomerID     *uint   `json:"customer_id,omitempty"`
	UsageStatus    *string `json:"usage_status,omitempty"`
}
