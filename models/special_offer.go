package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SpecialOffer is a clinic-authored promotional discount, optionally scoped
// to specific treatments. An empty ApplicableTreatments array means the
// offer applies to the whole quote subtotal.
type SpecialOffer struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_special_offers_uuid" json:"uuid"`

	ClinicID uint   `gorm:"not null;index:idx_special_offers_clinic_id" json:"clinic_id"`
	Title    string `gorm:"size:255;not null" json:"title"`

	// DiscountType is "percentage" or "fixed_amount"; DiscountValue is a
	// percentage in (0, 100] or an absolute GBP amount respectively.
	DiscountType  string          `gorm:"type:varchar(20);not null" json:"discount_type"`
	DiscountValue decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount_value"`

	ApplicableTreatments pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"applicable_treatments"`

	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`

	IsActive *bool `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	// Relationships
	Clinic Clinic `gorm:"foreignKey:ClinicID" json:"clinic,omitempty"`
}

func (SpecialOffer) TableName() string {
	return "special_offers"
}

// BeforeCreate ensures UUID is set for SpecialOffer
func (o *SpecialOffer) BeforeCreate(tx *gorm.DB) error {
	if o.UUID == uuid.Nil {
		o.UUID = uuid.New()
	}
	return nil
}

// SpecialOfferFilter represents filter criteria for special offer queries
type SpecialOfferFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	ClinicID      *uint      `json:"clinic_id,omitempty"`
	DiscountType  *string    `json:"discount_type,omitempty"`
	IsActive      *bool      `json:"is_active,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
