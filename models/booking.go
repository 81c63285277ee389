package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Booking statuses
const (
	BookingStatusDepositPaid = "deposit_paid"
	BookingStatusConfirmed   = "confirmed"
	BookingStatusCompleted   = "completed"
	BookingStatusCancelled   = "cancelled"
)

// Booking is a converted quote: the patient paid the deposit and the clinic
// slot is held. Quote totals are copied onto the booking so later catalog or
// offer changes cannot shift the agreed price.
type Booking struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_bookings_uuid" json:"uuid"`

	QuoteID    uint `gorm:"not null;uniqueIndex:uk_bookings_quote_id" json:"quote_id"`
	CustomerID uint `gorm:"not null;index:idx_bookings_customer_id" json:"customer_id"`
	ClinicID   uint `gorm:"not null;index:idx_bookings_clinic_id" json:"clinic_id"`

	Status string `gorm:"type:varchar(16);not null;default:'deposit_paid';index:idx_bookings_status" json:"status"`

	TotalGBP   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_gbp"`
	TotalUSD   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_usd"`
	DepositGBP decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"deposit_gbp"`
	BalanceGBP decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"balance_gbp"` // Payable at the clinic

	PaymentRequestID *uint `json:"payment_request_id,omitempty"`

	TreatmentDate *time.Time `gorm:"index:idx_bookings_treatment_date" json:"treatment_date,omitempty"`
	Notes         *string    `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_bookings_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	// Relationships
	Quote          Quote           `gorm:"foreignKey:QuoteID" json:"quote,omitempty"`
	Customer       Customer        `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Clinic         Clinic          `gorm:"foreignKey:ClinicID" json:"clinic,omitempty"`
	PaymentRequest *PaymentRequest `gorm:"foreignKey:PaymentRequestID" json:"payment_request,omitempty"`
}

func (Booking) TableName() string {
	return "bookings"
}

// BeforeCreate ensures UUID is set for Booking
func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.UUID == uuid.Nil {
		b.UUID = uuid.New()
	}
	return nil
}

// BookingFilter represents filter criteria for booking queries
type BookingFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	QuoteID       *uint      `json:"quote_id,omitempty"`
	CustomerID    *uint      `json:"customer_id,omitempty"`
	ClinicID      *uint      `json:"clinic_id,omitempty"`
	Status        *string    `json:"status,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
