package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Treatment is a catalog procedure with a GBP base price per clinic tier.
// USD figures are derived from GBP at the platform's fixed conversion rate,
// never stored.
type Treatment struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_treatments_uuid" json:"uuid"`

	// Key is the catalog name quotes and offers reference, e.g. "Dental Implant"
	Key       string `gorm:"size:255;not null;uniqueIndex:uk_treatments_key" json:"key"`
	Category  string `gorm:"size:128;index:idx_treatments_category" json:"category"`
	Guarantee string `gorm:"size:128" json:"guarantee"`

	PriceAffordableGBP decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price_affordable_gbp"`
	PriceMidGBP        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price_mid_gbp"`
	PricePremiumGBP    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price_premium_gbp"`

	// UKPriceGBP is the comparable UK private price used for savings display
	UKPriceGBP decimal.Decimal `gorm:"type:numeric(12,2)" json:"uk_price_gbp"`

	IsActive *bool `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Treatment) TableName() string {
	return "treatments"
}

// BeforeCreate ensures UUID is set for Treatment
func (t *Treatment) BeforeCreate(tx *gorm.DB) error {
	if t.UUID == uuid.Nil {
		t.UUID = uuid.New()
	}
	return nil
}

// PriceForTier returns the GBP unit price for a clinic tier.
func (t *Treatment) PriceForTier(tier string) decimal.Decimal {
	switch tier {
	case ClinicTierPremium:
		return t.PricePremiumGBP
	case ClinicTierMid:
		return t.PriceMidGBP
	default:
		return t.PriceAffordableGBP
	}
}

// TreatmentFilter represents filter criteria for treatment queries
type TreatmentFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	Key           *string    `json:"key,omitempty"`
	Category      *string    `json:"category,omitempty"`
	IsActive      *bool      `json:"is_active,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
