package models

import (
	"encoding/json"
	"time"
)

type AuditLog struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	CustomerID   *uint           `gorm:"index:idx_audit_customer_id" json:"customer_id,omitempty"`
	Customer     *Customer       `gorm:"foreignKey:CustomerID;references:ID" json:"customer,omitempty"`
	Action       string          `gorm:"type:varchar(64);not null;index:idx_audit_action" json:"action"`
	Description  *string         `gorm:"type:text" json:"description,omitempty"`
	IPAddress    *string         `gorm:"type:inet;index:idx_audit_ip_address" json:"ip_address,omitempty"`
	UserAgent    *string         `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID    *string         `gorm:"size:255;index:idx_audit_request_id" json:"request_id,omitempty"`
	Metadata     json.RawMessage `gorm:"type:jsonb;index:idx_audit_metadata,type:gin" json:"metadata,omitempty"`
	Success      *bool           `gorm:"default:true;index:idx_audit_success" json:"success"`
	ErrorMessage *string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time       `gorm:"default:CURRENT_TIMESTAMP;index:idx_audit_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// Audit action constants
const (
	AuditActionSignupCompleted  = "signup_completed"
	AuditActionEmailVerified    = "email_verified"
	AuditActionLoginSuccessful  = "login_successful"
	AuditActionLoginFailed      = "login_failed"
	AuditActionLogout           = "logout"
	AuditActionSessionCreated   = "session_created"
	AuditActionSessionExpired   = "session_expired"
	AuditActionQuoteCreated     = "quote_created"
	AuditActionTreatmentAdded   = "treatment_added"
	AuditActionTreatmentRemoved = "treatment_removed"
	AuditActionPackageApplied   = "package_applied"
	AuditActionPackageCleared   = "package_cleared"
	AuditActionOfferApplied     = "offer_applied"
	AuditActionOfferCleared     = "offer_cleared"
	AuditActionPromoApplied     = "promo_applied"
	AuditActionPromoCleared     = "promo_cleared"
	AuditActionQuoteLocked      = "quote_locked"
	AuditActionQuoteAbandoned   = "quote_abandoned"
	AuditActionQuoteConverted   = "quote_converted"
	AuditActionCheckoutStarted  = "checkout_started"
	AuditActionOfferCreated     = "offer_created"
	AuditActionOfferUpdated     = "offer_updated"
	AuditActionPromoCreated     = "promo_code_created"
	AuditActionPackageCreated   = "package_created"
	AuditActionPaymentCompleted = "payment_completed"
	AuditActionPaymentFailed    = "payment_failed"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint
	CustomerID    *uint
	Action        *string
	Success       *bool
	IPAddress     *string
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}

func (a *AuditLog) IsSecurityEvent() bool {
	securityActions := map[string]bool{
		AuditActionLoginSuccessful: true,
		AuditActionLoginFailed:     true,
		AuditActionSessionCreated:  true,
		AuditActionSessionExpired:  true,
	}
	return securityActions[a.Action]
}
