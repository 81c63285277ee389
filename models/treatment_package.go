package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TreatmentPackage is a fixed-price bundle of treatments sold as a single
// non-editable unit. The bundle price supersedes the sum of the individual
// catalog prices; the catalog prices are kept only for savings display.
type TreatmentPackage struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_treatment_packages_uuid" json:"uuid"`

	ClinicID uint   `gorm:"not null;index:idx_treatment_packages_clinic_id" json:"clinic_id"`
	Name     string `gorm:"size:255;not null" json:"name"`

	BundlePriceGBP decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"bundle_price_gbp"`

	IsActive *bool `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	// Relationships
	Clinic Clinic                 `gorm:"foreignKey:ClinicID" json:"clinic,omitempty"`
	Items  []TreatmentPackageItem `gorm:"foreignKey:PackageID" json:"items,omitempty"`
}

func (TreatmentPackage) TableName() string {
	return "treatment_packages"
}

// BeforeCreate ensures UUID is set for TreatmentPackage
func (p *TreatmentPackage) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	return nil
}

// TreatmentPackageItem is one treatment inside a package with its required
// quantity. SplitGBP, when authored on every item of a package, fixes that
// item's share of the bundle price instead of pro-rata apportioning.
type TreatmentPackageItem struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	PackageID uint `gorm:"not null;index:idx_treatment_package_items_package_id" json:"package_id"`

	TreatmentKey string           `gorm:"size:255;not null" json:"treatment_key"`
	Quantity     int              `gorm:"not null" json:"quantity"`
	Position     int              `gorm:"not null;default:0" json:"position"`
	SplitGBP     *decimal.Decimal `gorm:"type:numeric(12,2)" json:"split_gbp,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

func (TreatmentPackageItem) TableName() string {
	return "treatment_package_items"
}

// TreatmentPackageFilter represents filter criteria for package queries
type TreatmentPackageFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	ClinicID      *uint      `json:"clinic_id,omitempty"`
	IsActive      *bool      `json:"is_active,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
