// Package models contains domain entities and business models for the booking platform
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Clinic pricing tier determines the base treatment prices a patient sees.
const (
	ClinicTierAffordable = "affordable"
	ClinicTierMid        = "mid"
	ClinicTierPremium    = "premium"
)

// Clinic represents a partner dental clinic
type Clinic struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_clinics_uuid" json:"uuid"`

	Name    string `gorm:"size:255;not null" json:"name"`
	Tier    string `gorm:"type:varchar(20);not null;index:idx_clinics_tier" json:"tier"`
	City    string `gorm:"size:128" json:"city"`
	Country string `gorm:"size:128" json:"country"`

	IsActive *bool `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Clinic) TableName() string {
	return "clinics"
}

// BeforeCreate ensures UUID is set for Clinic
func (c *Clinic) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	return nil
}

// ValidTier reports whether the given tier name is one of the known tiers.
func ValidTier(tier string) bool {
	switch tier {
	case ClinicTierAffordable, ClinicTierMid, ClinicTierPremium:
		return true
	default:
		return false
	}
}

// ClinicFilter represents filter criteria for clinic queries
type ClinicFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	Tier          *string    `json:"tier,omitempty"`
	IsActive      *bool      `json:"is_active,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
