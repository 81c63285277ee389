package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smiletrip/smiletrip/models"
	"gorm.io/gorm"
)

// PaymentRequestRepositoryImpl implements PaymentRequestRepository interface
type PaymentRequestRepositoryImpl struct {
	*BaseRepository[models.PaymentRequest, models.PaymentRequestFilter]
}

// NewPaymentRequestRepository creates a new payment request repository
func NewPaymentRequestRepository(db *gorm.DB) PaymentRequestRepository {
	return &PaymentRequestRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PaymentRequest, models.PaymentRequestFilter](db),
	}
}

// ByUUID finds a payment request by UUID
func (r *PaymentRequestRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.PaymentRequest, error) {
	db := r.getDB(ctx)
	var request models.PaymentRequest
	err := db.Where("uuid = ?", uuid).Last(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// ByInvoiceNumber finds a payment request by merchant invoice number
func (r *PaymentRequestRepositoryImpl) ByInvoiceNumber(ctx context.Context, invoiceNumber string) (*models.PaymentRequest, error) {
	db := r.getDB(ctx)
	var request models.PaymentRequest
	err := db.Where("invoice_number = ?", invoiceNumber).Last(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// ByGatewayToken finds a payment request by the gateway token
func (r *PaymentRequestRepositoryImpl) ByGatewayToken(ctx context.Context, token string) (*models.PaymentRequest, error) {
	db := r.getDB(ctx)
	var request models.PaymentRequest
	err := db.Where("gateway_token = ?", token).Last(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// UpdateStatus transitions a payment request and records the reason
func (r *PaymentRequestRepositoryImpl) UpdateStatus(ctx context.Context, id uint, status models.PaymentRequestStatus, reason string) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.PaymentRequest{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        status,
			"status_reason": reason,
			"updated_at":    time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update payment request status: %w", err)
	}

	return nil
}

// ListPendingByQuote retrieves in-flight payment requests for a quote
func (r *PaymentRequestRepositoryImpl) ListPendingByQuote(ctx context.Context, quoteID uint) ([]*models.PaymentRequest, error) {
	db := r.getDB(ctx)

	pendingStatuses := []models.PaymentRequestStatus{
		models.PaymentRequestStatusCreated,
		models.PaymentRequestStatusTokenized,
		models.PaymentRequestStatusPending,
	}

	var requests []*models.PaymentRequest
	err := db.Where("quote_id = ? AND status IN ?", quoteID, pendingStatuses).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending payment requests by quote: %w", err)
	}

	return requests, nil
}
