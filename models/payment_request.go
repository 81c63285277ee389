package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smiletrip/smiletrip/utils"
	"gorm.io/gorm"
)

// PaymentRequestStatus represents the status of a payment request
type PaymentRequestStatus string

const (
	PaymentRequestStatusCreated   PaymentRequestStatus = "created"   // Payment request created, waiting for gateway token
	PaymentRequestStatusTokenized PaymentRequestStatus = "tokenized" // Gateway token received, waiting for user payment
	PaymentRequestStatusPending   PaymentRequestStatus = "pending"   // User redirected to gateway, payment in progress
	PaymentRequestStatusCompleted PaymentRequestStatus = "completed" // Payment completed successfully
	PaymentRequestStatusFailed    PaymentRequestStatus = "failed"    // Payment failed
	PaymentRequestStatusCancelled PaymentRequestStatus = "cancelled" // User cancelled payment
	PaymentRequestStatusExpired   PaymentRequestStatus = "expired"   // Payment request expired
	PaymentRequestStatusRefunded  PaymentRequestStatus = "refunded"  // Payment was refunded
)

// PaymentRequest represents a deposit payment request sent to the card gateway
// for a locked quote at checkout.
type PaymentRequest struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID          uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;default:gen_random_uuid()" json:"uuid"`
	CorrelationID uuid.UUID `gorm:"type:uuid;index;not null" json:"correlation_id"` // Links related records

	// Customer and quote information
	CustomerID uint `gorm:"not null;index" json:"customer_id"`
	QuoteID    uint `gorm:"not null;index" json:"quote_id"`

	// Payment details
	AmountGBP   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount_gbp"` // Deposit amount in GBP
	Currency    string          `gorm:"type:varchar(3);not null;default:'GBP'" json:"currency"`
	Description string          `gorm:"type:text" json:"description"`

	// Gateway request parameters
	InvoiceNumber string `gorm:"type:varchar(255);uniqueIndex;not null" json:"invoice_number"` // Merchant-side unique ID
	RedirectURL   string `gorm:"type:text;not null" json:"redirect_url"`                       // Return URL after payment

	// Gateway response data
	GatewayToken  string `gorm:"type:varchar(255);index" json:"gateway_token"` // Token from gateway tokenize call
	GatewayStatus string `gorm:"type:varchar(50)" json:"gateway_status"`       // Status reported by gateway

	// Payment result data (from redirect callback)
	PaymentState     string `gorm:"type:varchar(50)" json:"payment_state"`
	PaymentReference string `gorm:"type:varchar(255);index" json:"payment_reference"` // Gateway reference number
	PaymentMaskedPAN string `gorm:"type:varchar(255)" json:"payment_masked_pan"`

	// Status tracking
	Status       PaymentRequestStatus `gorm:"type:varchar(20);not null;default:'created';index" json:"status"`
	StatusReason string               `gorm:"type:text" json:"status_reason"` // Reason for status change

	// Metadata and audit
	Metadata  json.RawMessage `gorm:"type:jsonb;default:'{}'" json:"metadata"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`

	// Expiration tracking
	ExpiresAt *time.Time `gorm:"index" json:"expires_at"` // When payment request expires

	// Relationships
	Customer Customer `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"customer,omitempty"`
	Quote    Quote    `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE" json:"quote,omitempty"`
}

// BeforeCreate ensures UUID and CorrelationID are set
func (pr *PaymentRequest) BeforeCreate(tx *gorm.DB) error {
	if pr.UUID == uuid.Nil {
		pr.UUID = uuid.New()
	}
	if pr.CorrelationID == uuid.Nil {
		pr.CorrelationID = uuid.New()
	}
	return nil
}

// IsFinal returns true if the payment request is in a final state
func (pr *PaymentRequest) IsFinal() bool {
	return pr.Status == PaymentRequestStatusCompleted ||
		pr.Status == PaymentRequestStatusFailed ||
		pr.Status == PaymentRequestStatusCancelled ||
		pr.Status == PaymentRequestStatusExpired ||
		pr.Status == PaymentRequestStatusRefunded
}

// IsPending returns true if the payment request is still being processed
func (pr *PaymentRequest) IsPending() bool {
	return pr.Status == PaymentRequestStatusCreated ||
		pr.Status == PaymentRequestStatusTokenized ||
		pr.Status == PaymentRequestStatusPending
}

// IsExpired returns true if the payment request has expired
func (pr *PaymentRequest) IsExpired() bool {
	if pr.ExpiresAt == nil {
		return false
	}
	return utils.UTCNow().After(*pr.ExpiresAt)
}

// CanBeProcessed returns true if the payment request can still be processed
func (pr *PaymentRequest) CanBeProcessed() bool {
	return pr.IsPending() && !pr.IsExpired()
}

// PaymentRequestFilter represents filter criteria for payment request queries
type PaymentRequestFilter struct {
	ID               *uint                 `json:"id,omitempty"`
	UUID             *uuid.UUID            `json:"uuid,omitempty"`
	CorrelationID    *uuid.UUID            `json:"correlation_id,omitempty"`
	CustomerID       *uint                 `json:"customer_id,omitempty"`
	QuoteID          *uint                 `json:"quote_id,omitempty"`
	Currency         *string               `json:"currency,omitempty"`
	InvoiceNumber    *string               `json:"invoice_number,omitempty"`
	GatewayToken     *string               `json:"gateway_token,omitempty"`
	PaymentReference *string               `json:"payment_reference,omitempty"`
	Status           *PaymentRequestStatus `json:"status,omitempty"`
	CreatedAfter     *time.Time            `json:"created_after,omitempty"`
	CreatedBefore    *time.Time            `json:"created_before,omitempty"`
	ExpiresAfter     *time.Time            `json:"expires_after,omitempty"`
	ExpiresBefore    *time.Time            `json:"expires_before,omitempty"`
}
