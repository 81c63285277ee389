package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PromoCode is a user-entered token resolving to a discount. Unlike a
// special offer it is validated against this registry rather than carried on
// the treatment lines.
type PromoCode struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_promo_codes_uuid" json:"uuid"`

	Code string `gorm:"size:64;not null;uniqueIndex:uk_promo_codes_code" json:"code"`

	DiscountType  string          `gorm:"type:varchar(20);not null" json:"discount_type"`
	DiscountValue decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount_value"`

	// MaxUses of 0 means unlimited
	MaxUses   int `gorm:"not null;default:0" json:"max_uses"`
	UsedCount int `gorm:"not null;default:0" json:"used_count"`

	IsActive  *bool      `gorm:"default:true" json:"is_active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (PromoCode) TableName() string {
	return "promo_codes"
}

// BeforeCreate ensures UUID is set for PromoCode
func (p *PromoCode) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	return nil
}

// Exhausted reports whether the code's usage cap is spent.
func (p *PromoCode) Exhausted() bool {
	return p.MaxUses > 0 && p.UsedCount >= p.MaxUses
}

// PromoCodeFilter represents filter criteria for promo code queries
type PromoCodeFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	Code          *string    `json:"code,omitempty"`
	IsActive      *bool      `json:"is_active,omitempty"`
	ExpiresAfter  *time.Time `json:"expires_after,omitempty"`
	ExpiresBefore *time.Time `json:"expires_before,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
