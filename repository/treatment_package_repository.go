package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/smiletrip/smiletrip/models"
	"gorm.io/gorm"
)

// TreatmentPackageRepositoryImpl implements TreatmentPackageRepository interface
type TreatmentPackageRepositoryImpl struct {
	*BaseRepository[models.TreatmentPackage, models.TreatmentPackageFilter]
}

// NewTreatmentPackageRepository creates a new treatment package repository
func NewTreatmentPackageRepository(db *gorm.DB) TreatmentPackageRepository {
	return &TreatmentPackageRepositoryImpl{
		BaseRepository: NewBaseRepository[models.TreatmentPackage, models.TreatmentPackageFilter](db),
	}
}

// ByUUID retrieves a package with its items by UUID
func (r *TreatmentPackageRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.TreatmentPackage, error) {
	db := r.getDB(ctx)

	var pkg models.TreatmentPackage
	err := db.Where("uuid = ?", uuid).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Last(&pkg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find package by UUID: %w", err)
	}

	return &pkg, nil
}

// ByIDWithItems retrieves a package with its items by primary key
func (r *TreatmentPackageRepositoryImpl) ByIDWithItems(ctx context.Context, id uint) (*models.TreatmentPackage, error) {
	db := r.getDB(ctx)

	var pkg models.TreatmentPackage
	err := db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Last(&pkg, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find package by ID %d: %w", id, err)
	}

	return &pkg, nil
}

// ListActiveByClinic retrieves active packages offered by a clinic
func (r *TreatmentPackageRepositoryImpl) ListActiveByClinic(ctx context.Context, clinicID uint) ([]*models.TreatmentPackage, error) {
	db := r.getDB(ctx)

	var pkgs []*models.TreatmentPackage
	err := db.Where("clinic_id = ? AND is_active = ?", clinicID, true).
		Order("name ASC").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Find(&pkgs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list packages by clinic: %w", err)
	}

	return pkgs, nil
}
