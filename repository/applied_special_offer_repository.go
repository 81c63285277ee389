package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smiletrip/smiletrip/models"
	"gorm.io/gorm"
)

// AppliedSpecialOfferRepositoryImpl implements AppliedSpecialOfferRepository interface
type AppliedSpecialOfferRepositoryImpl struct {
	*BaseRepository[models.AppliedSpecialOffer, models.AppliedSpecialOfferFilter]
}

// NewAppliedSpecialOfferRepository creates a new applied special offer repository
func NewAppliedSpecialOfferRepository(db *gorm.DB) AppliedSpecialOfferRepository {
	return &AppliedSpecialOfferRepositoryImpl{
		BaseRepository: NewBaseRepository[models.AppliedSpecialOffer, models.AppliedSpecialOfferFilter](db),
	}
}

// PendingByQuote retrieves the pending applied offer for a quote, if any
func (r *AppliedSpecialOfferRepositoryImpl) PendingByQuote(ctx context.Context, quoteID uint) (*models.AppliedSpecialOffer, error) {
	db := r.getDB(ctx)

	var applied models.AppliedSpecialOffer
	err := db.Where("quote_id = ? AND usage_status = ?", quoteID, models.OfferUsagePending).
		Last(&applied).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find pending applied offer by quote: %w", err)
	}

	return &applied, nil
}

// UpdateUsageStatus transitions an applied offer record, optionally linking the booking
func (r *AppliedSpecialOfferRepositoryImpl) UpdateUsageStatus(ctx context.Context, id uint, usageStatus string, bookingID *uint) error {
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

	updates := map[string]any{
		"usage_status": usageStatus,
		"updated_at":   time.Now().UTC(),
	}
	if bookingID != nil {
		updates["booking_id"] = *bookingID
	}

	err = db.Model(&models.AppliedSpecialOffer{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to update applied offer usage status: %w", err)
	}

	return nil
}

// ListByOffer retrieves usage records for one special offer with pagination
func (r *AppliedSpecialOfferRepositoryImpl) ListByOffer(ctx context.Context, specialOfferID uint, limit, offset int) ([]*models.AppliedSpecialOffer, error) {
	db := r.getDB(ctx)

	var applied []*models.AppliedSpecialOffer
	err := db.Where("special_offer_id = ?", specialOfferID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Preload("Quote").
		Find(&applied).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list applied offers by offer: %w", err)
	}

	return applied, nil
}
