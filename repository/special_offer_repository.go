package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smiletrip/smiletrip/models"
	"gorm.io/gorm"
)

// SpecialOfferRepositoryImpl implements SpecialOfferRepository interface
type SpecialOfferRepositoryImpl struct {
	*BaseRepository[models.SpecialOffer, models.SpecialOfferFilter]
}

// NewSpecialOfferRepository creates a new special offer repository
func NewSpecialOfferRepository(db *gorm.DB) SpecialOfferRepository {
	return &SpecialOfferRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SpecialOffer, models.SpecialOfferFilter](db),
	}
}

// ByUUID retrieves a special offer by its UUID
func (r *SpecialOfferRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.SpecialOffer, error) {
	db := r.getDB(ctx)

	var offer models.SpecialOffer
	err := db.Where("uuid = ?", uuid).Last(&offer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find special offer by UUID: %w", err)
	}

	return &offer, nil
}

// ListActiveByClinic retrieves offers currently inside their validity window for a clinic
func (r *SpecialOfferRepositoryImpl) ListActiveByClinic(ctx context.Context, clinicID uint, now time.Time) ([]*models.SpecialOffer, error) {
	db := r.getDB(ctx)

	var offers []*models.SpecialOffer
	err := db.Where("clinic_id = ? AND is_active = ?", clinicID, true).
		Where("(valid_from IS NULL OR valid_from <= ?) AND (valid_until IS NULL OR valid_until >= ?)", now, now).
		Order("created_at DESC").
		Find(&offers).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list active offers by clinic: %w", err)
	}

	return offers, nil
}

// ListByClinic retrieves all offers a clinic has ever published
func (r *SpecialOfferRepositoryImpl) ListByClinic(ctx context.Context, clinicID uint) ([]*models.SpecialOffer, error) {
	db := r.getDB(ctx)

	var offers []*models.SpecialOffer
	err := db.Where("clinic_id = ?", clinicID).
		Order("created_at DESC").
		Find(&offers).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list offers by clinic: %w", err)
	}

	return offers, nil
}
