package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smiletrip/smiletrip/models"
	"gorm.io/gorm"
)

// TreatmentRepositoryImpl implements TreatmentRepository interface
type TreatmentRepositoryImpl struct {
	*BaseRepository[models.Treatment, models.TreatmentFilter]
}

// NewTreatmentRepository creates a new treatment repository
func NewTreatmentRepository(db *gorm.DB) TreatmentRepository {
	return &TreatmentRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Treatment, models.TreatmentFilter](db),
	}
}

// ByKey retrieves a treatment by its catalog key (case-insensitive)
func (r *TreatmentRepositoryImpl) ByKey(ctx context.Context, key string) (*models.Treatment, error) {
	db := r.getDB(ctx)

	var treatment models.Treatment
	err := db.Where("LOWER(key) = ?", strings.ToLower(strings.TrimSpace(key))).Last(&treatment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find treatment by key: %w", err)
	}

	return &treatment, nil
}

// ListActive retrieves all active catalog treatments ordered by category then name
func (r *TreatmentRepositoryImpl) ListActive(ctx context.Context) ([]*models.Treatment, error) {
	db := r.getDB(ctx)

	var treatments []*models.Treatment
	err := db.Where("is_active = ?", true).
		Order("category ASC, key ASC").
		Find(&treatments).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list active treatments: %w", err)
	}

	return treatments, nil
}

// ListByCategory retrieves active treatments in one category
func (r *TreatmentRepositoryImpl) ListByCategory(ctx context.Context, category string) ([]*models.Treatment, error) {
	db := r.getDB(ctx)

	var treatments []*models.Treatment
	err := db.Where("category = ? AND is_active = ?", category, true).
		Order("key ASC").
		Find(&treatments).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list treatments by category: %w", err)
	}

	return treatments, nil
}
