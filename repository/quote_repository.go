package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smiletrip/smiletrip/models"
	"gorm.io/gorm"
)

// ErrStaleQuote is returned when an optimistic-concurrency update finds the
// quote was modified by another writer since it was read.
var ErrStaleQuote = errors.New("quote was modified concurrently")

// QuoteRepositoryImpl implements QuoteRepository interface
type QuoteRepositoryImpl struct {
	*BaseRepository[models.Quote, models.QuoteFilter]
}

// NewQuoteRepository creates a new quote repository
func NewQuoteRepository(db *gorm.DB) QuoteRepository {
	return &QuoteRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Quote, models.QuoteFilter](db),
	}
}

// ByUUID retrieves a quote by its UUID without items
func (r *QuoteRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Quote, error) {
	db := r.getDB(ctx)

	var quote models.Quote
	err := db.Where("uuid = ?", uuid).Last(&quote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find quote by UUID: %w", err)
	}

	return &quote, nil
}

// ByUUIDWithItems retrieves a quote and its items ordered by position
func (r *QuoteRepositoryImpl) ByUUIDWithItems(ctx context.Context, uuid string) (*models.Quote, error) {
	db := r.getDB(ctx)

	var quote models.Quote
	err := db.Where("uuid = ?", uuid).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Last(&quote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find quote with items by UUID: %w", err)
	}

	return &quote, nil
}

// ListByCustomer retrieves quotes for a customer with pagination
func (r *QuoteRepositoryImpl) ListByCustomer(ctx context.Context, customerID uint, limit, offset int) ([]*models.Quote, error) {
	db := r.getDB(ctx)

	var quotes []*models.Quote
	err := db.Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&quotes).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list quotes by customer: %w", err)
	}

	return quotes, nil
}

// ListByStatus retrieves quotes in a lifecycle state with pagination
func (r *QuoteRepositoryImpl) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*models.Quote, error) {
	db := r.getDB(ctx)

	var quotes []*models.Quote
	err := db.Where("status = ?", status).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&quotes).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list quotes by status: %w", err)
	}

	return quotes, nil
}

// ListCreatedBetween retrieves quotes created in a time window, items included
func (r *QuoteRepositoryImpl) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*models.Quote, error) {
	db := r.getDB(ctx)

	var quotes []*models.Quote
	err := db.Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Clinic").
		Find(&quotes).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list quotes created between %s and %s: %w", from, to, err)
	}

	return quotes, nil
}

// UpdateWithVersion persists the quote header and replaces its items. The
// version predicate rejects the write when the stored row has moved on; the
// caller should re-read and retry.
func (r *QuoteRepositoryImpl) UpdateWithVersion(ctx context.Context, quote *models.Quote, expectedVersion uint) error {
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

	quote.Version = expectedVersion + 1
	quote.UpdatedAt = time.Now().UTC()

	items := quote.Items
	res := db.Model(&models.Quote{}).
		Where("id = ? AND version = ?", quote.ID, expectedVersion).
		Select("status", "subtotal_gbp", "subtotal_usd", "offer_discount_gbp", "promo_discount_gbp",
			"package_savings_gbp", "discount_gbp", "total_gbp", "total_usd",
			"package_id", "special_offer_id", "promo_code_id", "promo_code", "version", "updated_at").
		Updates(quote)
	if res.Error != nil {
		err = fmt.Errorf("failed to update quote %d: %w", quote.ID, res.Error)
		return err
	}
	if res.RowsAffected == 0 {
		err = ErrStaleQuote
		return err
	}

	err = db.Where("quote_id = ?", quote.ID).Delete(&models.QuoteItem{}).Error
	if err != nil {
		err = fmt.Errorf("failed to clear quote items for quote %d: %w", quote.ID, err)
		return err
	}

	for i := range items {
		items[i].ID = 0
		items[i].QuoteID = quote.ID
		items[i].Position = i
	}
	if len(items) > 0 {
		err = db.Create(&items).Error
		if err != nil {
			err = fmt.Errorf("failed to insert quote items for quote %d: %w", quote.ID, err)
			return err
		}
	}
	quote.Items = items

	return nil
}

// ListStaleBuilding retrieves building quotes untouched since the cutoff, for
// the abandonment sweep
func (r *QuoteRepositoryImpl) ListStaleBuilding(ctx context.Context, olderThan time.Time, limit int) ([]*models.Quote, error) {
	db := r.getDB(ctx)

	var quotes []*models.Quote
	err := db.Where("status IN ? AND updated_at < ?", []string{models.QuoteStatusBuilding, models.QuoteStatusPriced}, olderThan).
		Order("updated_at ASC").
		Limit(limit).
		Find(&quotes).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list stale building quotes: %w", err)
	}

	return quotes, nil
}
