// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/smiletrip/smiletrip/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
}

// ClinicRepository defines operations for partner clinics
type ClinicRepository interface {
	Repository[models.Clinic, models.ClinicFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Clinic, error)
	ListActive(ctx context.Context) ([]*models.Clinic, error)
	ListByTier(ctx context.Context, tier string) ([]*models.Clinic, error)
}

// TreatmentRepository defines operations for the treatment catalog
type TreatmentRepository interface {
	Repository[models.Treatment, models.TreatmentFilter]
	ByKey(ctx context.Context, key string) (*models.Treatment, error)
	ListActive(ctx context.Context) ([]*models.Treatment, error)
	ListByCategory(ctx context.Context, category string) ([]*models.Treatment, error)
}

// TreatmentPackageRepository defines operations for bundled treatment packages
type TreatmentPackageRepository interface {
	Repository[models.TreatmentPackage, models.TreatmentPackageFilter]
	ByUUID(ctx context.Context, uuid string) (*models.TreatmentPackage, error)
	ByIDWithItems(ctx context.Context, id uint) (*models.TreatmentPackage, error)
	ListActiveByClinic(ctx context.Context, clinicID uint) ([]*models.TreatmentPackage, error)
}

// SpecialOfferRepository defines operations for clinic special offers
type SpecialOfferRepository interface {
	Repository[models.SpecialOffer, models.SpecialOfferFilter]
	ByUUID(ctx context.Context, uuid string) (*models.SpecialOffer, error)
	ListActiveByClinic(ctx context.Context, clinicID uint, now time.Time) ([]*models.SpecialOffer, error)
	ListByClinic(ctx context.Context, clinicID uint) ([]*models.SpecialOffer, error)
}

// PromoCodeRepository defines operations for promo codes
type PromoCodeRepository interface {
	Repository[models.PromoCode, models.PromoCodeFilter]
	ByCode(ctx context.Context, code string) (*models.PromoCode, error)
	IncrementUsage(ctx context.Context, promoCodeID uint) error
	ListActive(ctx context.Context) ([]*models.PromoCode, error)
}

// QuoteRepository defines operations for quotes and their items
type QuoteRepository interface {
	Repository[models.Quote, models.QuoteFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Quote, error)
	ByUUIDWithItems(ctx context.Context, uuid string) (*models.Quote, error)
	ListByCustomer(ctx context.Context, customerID uint, limit, offset int) ([]*models.Quote, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*models.Quote, error)
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*models.Quote, error)
	// UpdateWithVersion persists the quote and replaces its items. The update
	// carries a version predicate and fails with ErrStaleQuote when another
	// writer already bumped it.
	UpdateWithVersion(ctx context.Context, quote *models.Quote, expectedVersion uint) error
	ListStaleBuilding(ctx context.Context, olderThan time.Time, limit int) ([]*models.Quote, error)
}

// AppliedSpecialOfferRepository defines operations for offer usage tracking
type AppliedSpecialOfferRepository interface {
	Repository[models.AppliedSpecialOffer, models.AppliedSpecialOfferFilter]
	PendingByQuote(ctx context.Context, quoteID uint) (*models.AppliedSpecialOffer, error)
	UpdateUsageStatus(ctx context.Context, id uint, usageStatus string, bookingID *uint) error
	ListByOffer(ctx context.Context, specialOfferID uint, limit, offset int) ([]*models.AppliedSpecialOffer, error)
}

// CustomerRepository defines operations for customers
type CustomerRepository interface {
	Repository[models.Customer, models.CustomerFilter]
	ByEmail(ctx context.Context, email string) (*models.Customer, error)
	ByUUID(ctx context.Context, uuid string) (*models.Customer, error)
	UpdatePassword(ctx context.Context, customerID uint, passwordHash string) error
	UpdateLastLogin(ctx context.Context, customerID uint, at time.Time) error
}

// CustomerSessionRepository defines operations for customer sessions
type CustomerSessionRepository interface {
	Repository[models.CustomerSession, models.CustomerSessionFilter]
	BySessionToken(ctx context.Context, token string) (*models.CustomerSession, error)
	ByRefreshToken(ctx context.Context, token string) (*models.CustomerSession, error)
	ExpireSession(ctx context.Context, sessionID uint) error
	ExpireAllCustomerSessions(ctx context.Context, customerID uint) error
	CleanupExpiredSessions(ctx context.Context) error
	GetLatestByCorrelationID(ctx context.Context, correlationID uuid.UUID) (*models.CustomerSession, error)
}

// BookingRepository defines operations for bookings
type BookingRepository interface {
	Repository[models.Booking, models.BookingFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Booking, error)
	ByQuoteID(ctx context.Context, quoteID uint) (*models.Booking, error)
	ListByCustomer(ctx context.Context, customerID uint, limit, offset int) ([]*models.Booking, error)
	ListByClinic(ctx context.Context, clinicID uint, limit, offset int) ([]*models.Booking, error)
}

// PaymentRequestRepository defines operations for payment requests
type PaymentRequestRepository interface {
	Repository[models.PaymentRequest, models.PaymentRequestFilter]
	ByUUID(ctx context.Context, uuid string) (*models.PaymentRequest, error)
	ByInvoiceNumber(ctx context.Context, invoiceNumber string) (*models.PaymentRequest, error)
	ByGatewayToken(ctx context.Context, token string) (*models.PaymentRequest, error)
	UpdateStatus(ctx context.Context, id uint, status models.PaymentRequestStatus, reason string) error
	ListPendingByQuote(ctx context.Context, quoteID uint) ([]*models.PaymentRequest, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByCustomer(ctx context.Context, customerID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}
