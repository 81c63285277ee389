package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/smiletrip/smiletrip/models"
	"gorm.io/gorm"
)

// ClinicRepositoryImpl implements ClinicRepository interface
type ClinicRepositoryImpl struct {
	*BaseRepository[models.Clinic, models.ClinicFilter]
}

// NewClinicRepository creates a new clinic repository
func NewClinicRepository(db *gorm.DB) ClinicRepository {
	return &ClinicRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Clinic, models.ClinicFilter](db),
	}
}

// ByUUID retrieves a clinic by its UUID
func (r *ClinicRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Clinic, error) {
	db := r.getDB(ctx)

	var clinic models.Clinic
	err := db.Where("uuid = ?", uuid).Last(&clinic).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find clinic by UUID: %w", err)
	}

	return &clinic, nil
}

// ListActive retrieves all active clinics ordered by name
func (r *ClinicRepositoryImpl) ListActive(ctx context.Context) ([]*models.Clinic, error) {
	db := r.getDB(ctx)

	var clinics []*models.Clinic
	err := db.Where("is_active = ?", true).
		Order("name ASC").
		Find(&clinics).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list active clinics: %w", err)
	}

	return clinics, nil
}

// ListByTier retrieves active clinics for a pricing tier
func (r *ClinicRepositoryImpl) ListByTier(ctx context.Context, tier string) ([]*models.Clinic, error) {
	db := r.getDB(ctx)

	var clinics []*models.Clinic
	err := db.Where("tier = ? AND is_active = ?", tier, true).
		Order("name ASC").
		Find(&clinics).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list clinics by tier: %w", err)
	}

	return clinics, nil
}
