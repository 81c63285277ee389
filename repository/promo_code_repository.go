package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smiletrip/smiletrip/models"
	"gorm.io/gorm"
)

// PromoCodeRepositoryImpl implements PromoCodeRepository interface
type PromoCodeRepositoryImpl struct {
	*BaseRepository[models.PromoCode, models.PromoCodeFilter]
}

// NewPromoCodeRepository creates a new promo code repository
func NewPromoCodeRepository(db *gorm.DB) PromoCodeRepository {
	return &PromoCodeRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PromoCode, models.PromoCodeFilter](db),
	}
}

// ByCode retrieves a promo code by its code, case-insensitively
func (r *PromoCodeRepositoryImpl) ByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	db := r.getDB(ctx)

	var promo models.PromoCode
	err := db.Where("UPPER(code) = ?", strings.ToUpper(strings.TrimSpace(code))).Last(&promo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find promo code: %w", err)
	}

	return &promo, nil
}

// IncrementUsage bumps the used counter for a redeemed code
func (r *PromoCodeRepositoryImpl) IncrementUsage(ctx context.Context, promoCodeID uint) error {
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

	err = db.Model(&models.PromoCode{}).
		Where("id = ?", promoCodeID).
		UpdateColumn("used_count", gorm.Expr("used_count + 1")).Error
	if err != nil {
		return fmt.Errorf("failed to increment promo code usage: %w", err)
	}

	return nil
}

// ListActive retrieves all currently active codes
func (r *PromoCodeRepositoryImpl) ListActive(ctx context.Context) ([]*models.PromoCode, error) {
	db := r.getDB(ctx)

	var promos []*models.PromoCode
	err := db.Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&promos).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list active promo codes: %w", err)
	}

	return promos, nil
}
