package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/smiletrip/smiletrip/models"
	"gorm.io/gorm"
)

// BookingRepositoryImpl implements BookingRepository interface
type BookingRepositoryImpl struct {
	*BaseRepository[models.Booking, models.BookingFilter]
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &BookingRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Booking, models.BookingFilter](db),
	}
}

// ByUUID retrieves a booking by its UUID
func (r *BookingRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Booking, error) {
	db := r.getDB(ctx)

	var booking models.Booking
	err := db.Where("uuid = ?", uuid).
		Preload("Quote").
		Preload("Clinic").
		Last(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find booking by UUID: %w", err)
	}

	return &booking, nil
}

// ByQuoteID retrieves the booking created from a quote, if any
func (r *BookingRepositoryImpl) ByQuoteID(ctx context.Context, quoteID uint) (*models.Booking, error) {
	db := r.getDB(ctx)

	var booking models.Booking
	err := db.Where("quote_id = ?", quoteID).Last(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find booking by quote ID: %w", err)
	}

	return &booking, nil
}

// ListByCustomer retrieves bookings for a customer with pagination
func (r *BookingRepositoryImpl) ListByCustomer(ctx context.Context, customerID uint, limit, offset int) ([]*models.Booking, error) {
	db := r.getDB(ctx)

	var bookings []*models.Booking
	err := db.Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Preload("Clinic").
		Find(&bookings).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list bookings by customer: %w", err)
	}

	return bookings, nil
}

// ListByClinic retrieves bookings at a clinic with pagination
func (r *BookingRepositoryImpl) ListByClinic(ctx context.Context, clinicID uint, limit, offset int) ([]*models.Booking, error) {
	db := r.getDB(ctx)

	var bookings []*models.Booking
	err := db.Where("clinic_id = ?", clinicID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Preload("Customer").
		Find(&bookings).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list bookings by clinic: %w", err)
	}

	return bookings, nil
}
