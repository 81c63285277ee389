package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Quote lifecycle states
const (
	QuoteStatusEmpty             = "empty"
	QuoteStatusBuilding          = "building"
	QuoteStatusPriced            = "priced"
	QuoteStatusLockedForCheckout = "locked_for_checkout"
	QuoteStatusConverted         = "converted"
	QuoteStatusAbandoned         = "abandoned"
)

// Quote is the persisted itemized, priced set of treatments a patient is
// considering, with all discounts applied. It mirrors a pricing session;
// totals are never patched incrementally, only replaced wholesale after a
// full recomputation.
type Quote struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_quotes_uuid" json:"uuid"`

	CustomerID uint `gorm:"not null;index:idx_quotes_customer_id" json:"customer_id"`
	ClinicID   uint `gorm:"not null;index:idx_quotes_clinic_id" json:"clinic_id"`

	Status string `gorm:"type:varchar(32);not null;index:idx_quotes_status" json:"status"`

	SubtotalGBP       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"subtotal_gbp"`
	SubtotalUSD       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"subtotal_usd"`
	OfferDiscountGBP  decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"offer_discount_gbp"`
	PromoDiscountGBP  decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"promo_discount_gbp"`
	PackageSavingsGBP decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"package_savings_gbp"`
	DiscountGBP       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"discount_gbp"`
	TotalGBP          decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"total_gbp"`
	TotalUSD          decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"total_usd"`

	// USDRate is the fixed GBP to USD rate the quote was priced at, frozen on
	// creation so GBP and USD figures stay mutually consistent for its lifetime.
	USDRate decimal.Decimal `gorm:"type:numeric(10,4);not null" json:"usd_rate"`

	PackageID      *uint   `gorm:"index:idx_quotes_package_id" json:"package_id,omitempty"`
	SpecialOfferID *uint   `gorm:"index:idx_quotes_special_offer_id" json:"special_offer_id,omitempty"`
	PromoCodeID    *uint   `json:"promo_code_id,omitempty"`
	PromoCode      *string `gorm:"size:64" json:"promo_code,omitempty"`

	// Version guards concurrent mutation: updates carry WHERE version = ? and
	// fail when another writer got there first.
	Version uint `gorm:"not null;default:1" json:"version"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	// Relationships
	Customer Customer    `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Clinic   Clinic      `gorm:"foreignKey:ClinicID" json:"clinic,omitempty"`
	Items    []QuoteItem `gorm:"foreignKey:QuoteID" json:"items,omitempty"`
}

func (Quote) TableName() string {
	return "quotes"
}

// BeforeCreate ensures UUID is set for Quote
func (q *Quote) BeforeCreate(tx *gorm.DB) error {
	if q.UUID == uuid.Nil {
		q.UUID = uuid.New()
	}
	return nil
}

// Terminal reports whether the quote may no longer be recomputed.
func (q *Quote) Terminal() bool {
	return q.Status == QuoteStatusConverted || q.Status == QuoteStatusAbandoned
}

// QuoteItem is one persisted treatment line. Unit prices use four decimal
// places: package apportioning may assign sub-penny unit shares so the line
// values sum to the bundle price exactly.
type QuoteItem struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	QuoteID uint `gorm:"not null;index:idx_quote_items_quote_id" json:"quote_id"`

	Position  int    `gorm:"not null;default:0" json:"position"`
	Name      string `gorm:"size:255;not null" json:"name"`
	Quantity  int    `gorm:"not null" json:"quantity"`
	Guarantee string `gorm:"size:128" json:"guarantee"`

	UnitPriceGBP decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"unit_price_gbp"`
	UnitPriceUSD decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"unit_price_usd"`
	SubtotalGBP  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal_gbp"`
	SubtotalUSD  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal_usd"`

	OriginalUnitPriceGBP decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"original_unit_price_gbp"`

	IsLocked       bool `gorm:"not null;default:false" json:"is_locked"`
	IsBonus        bool `gorm:"not null;default:false" json:"is_bonus"`
	IsSpecialOffer bool `gorm:"not null;default:false" json:"is_special_offer"`
	IsPackageItem  bool `gorm:"not null;default:false" json:"is_package_item"`

	SpecialOfferID *uint `json:"special_offer_id,omitempty"`
	PackageID      *uint `json:"package_id,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

func (QuoteItem) TableName() string {
	return "quote_items"
}

// QuoteFilter represents filter criteria for quote queries
type QuoteFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	CustomerID    *uint      `json:"customer_id,omitempty"`
	ClinicID      *uint      `json:"clinic_id,omitempty"`
	Status        *string    `json:"status,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
