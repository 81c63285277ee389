// Package models contains domain entities and business models for the dental tourism platform
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account types
const (
	AccountTypePatient     = "patient"
	AccountTypeClinicStaff = "clinic_staff"
	AccountTypeAdmin       = "admin"
)

type Customer struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_customers_uuid" json:"uuid"`
	AccountType string    `gorm:"type:varchar(16);not null;default:'patient';index:idx_customers_account_type" json:"account_type"`

	FirstName string  `gorm:"size:255;not null" json:"first_name"`
	LastName  string  `gorm:"size:255;not null" json:"last_name"`
	Mobile    *string `gorm:"size:20" json:"mobile,omitempty"`

	Email        string `gorm:"size:255;not null;uniqueIndex:idx_customers_email" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"` // Never serialize password hash

	// Country of residence, used for savings comparisons against home prices
	Country *string `gorm:"size:64" json:"country,omitempty"`

	// Clinic staff accounts are scoped to one clinic
	ClinicID *uint   `gorm:"index:idx_customers_clinic_id" json:"clinic_id,omitempty"`
	Clinic   *Clinic `gorm:"foreignKey:ClinicID;references:ID" json:"clinic,omitempty"`

	// Status and verification
	IsEmailVerified *bool `gorm:"default:false" json:"is_email_verified"`
	IsActive        *bool `gorm:"default:true;index:idx_customers_is_active" json:"is_active"`

	// Timestamps
	CreatedAt       time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_customers_created_at" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	LastLoginAt     *time.Time `gorm:"index:idx_customers_last_login_at" json:"last_login_at,omitempty"`

	// Relations
	Sessions  []CustomerSession `gorm:"foreignKey:CustomerID" json:"-"`
	AuditLogs []AuditLog        `gorm:"foreignKey:CustomerID" json:"-"`
	Quotes    []Quote           `gorm:"foreignKey:CustomerID" json:"quotes,omitempty"`
	Bookings  []Booking         `gorm:"foreignKey:CustomerID" json:"bookings,omitempty"`
}

func (Customer) TableName() string {
	return "customers"
}

// BeforeCreate ensures UUID is set for Customer
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	return nil
}

// CustomerFilter represents filter criteria for customer queries
type CustomerFilter struct {
	ID              *uint
	UUID            *uuid.UUID
	AccountType     *string
	Email           *string
	Mobile          *string
	ClinicID        *uint
	IsEmailVerified *bool
	IsActive        *bool
	CreatedAfter    *time.Time
	CreatedBefore   *time.Time
	LastLoginAfter  *time.Time
	LastLoginBefore *time.Time
}

func (c *Customer) IsPatient() bool {
	return c.AccountType == AccountTypePatient
}

func (c *Customer) IsClinicStaff() bool {
	return c.AccountType == AccountTypeClinicStaff
}

func (c *Customer) IsAdmin() bool {
	return c.AccountType == AccountTypeAdmin
}
