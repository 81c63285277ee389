// Package businessflow contains the core business logic and use cases for quoting and booking workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Customer-related errors
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrIncorrectPassword  = errors.New("incorrect password")
	ErrEmailAlreadyExists = errors.New("email already exists")

	// Catalog errors
	ErrClinicNotFound    = errors.New("clinic not found")
	ErrClinicInactive    = errors.New("clinic is inactive")
	ErrTreatmentNotFound = errors.New("treatment not found")
	ErrPackageNotFound   = errors.New("treatment package not found")
	ErrPackageInactive   = errors.New("treatment package is inactive")
	ErrOfferNotFound     = errors.New("special offer not found")
	ErrOfferInactive     = errors.New("special offer is not active")
	ErrOfferWrongClinic  = errors.New("special offer belongs to another clinic")
	ErrPromoCodeNotFound = errors.New("promo code not found")
	ErrPromoCodeExists   = errors.New("promo code already exists")
	ErrPromoCodeUsedUp   = errors.New("promo code has no remaining uses")

	// Quote errors
	ErrQuoteNotFound        = errors.New("quote not found")
	ErrQuoteAccessDenied    = errors.New("quote access denied")
	ErrQuoteNotLocked       = errors.New("quote is not locked for checkout")
	ErrQuoteAlreadyBooked   = errors.New("quote already has a booking")
	ErrQuoteConflict        = errors.New("quote was updated by another request")
	ErrQuoteItemNotFound    = errors.New("quote item not found")
	ErrInvalidClinicTier    = errors.New("invalid clinic tier")
	ErrInvalidDiscountInput = errors.New("invalid discount input")

	// Checkout and payment errors
	ErrGatewayTokenEmpty              = errors.New("payment gateway token is empty")
	ErrPaymentRequestNotFound         = errors.New("payment request not found")
	ErrPaymentRequestAlreadyProcessed = errors.New("payment request already processed")
	ErrPaymentRequestExpired          = errors.New("payment request expired")
	ErrBookingNotFound                = errors.New("booking not found")

	// Filter errors
	ErrInvalidPage           = errors.New("page must be at least 1")
	ErrInvalidPageSize       = errors.New("page size must be between 1 and 100")
	ErrStartDateAfterEndDate = errors.New("start date cannot be after end date")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsCustomerNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsEmailAlreadyExists(err error) bool {
	return errors.Is(err, ErrEmailAlreadyExists)
}

func IsClinicNotFound(err error) bool {
	return errors.Is(err, ErrClinicNotFound)
}

func IsClinicInactive(err error) bool {
	return errors.Is(err, ErrClinicInactive)
}

func IsTreatmentNotFound(err error) bool {
	return errors.Is(err, ErrTreatmentNotFound)
}

func IsPackageNotFound(err error) bool {
	return errors.Is(err, ErrPackageNotFound)
}

func IsPackageInactive(err error) bool {
	return errors.Is(err, ErrPackageInactive)
}

func IsOfferNotFound(err error) bool {
	return errors.Is(err, ErrOfferNotFound)
}

func IsOfferInactive(err error) bool {
	return errors.Is(err, ErrOfferInactive)
}

func IsOfferWrongClinic(err error) bool {
	return errors.Is(err, ErrOfferWrongClinic)
}

func IsPromoCodeNotFound(err error) bool {
	return errors.Is(err, ErrPromoCodeNotFound)
}

func IsPromoCodeExists(err error) bool {
	return errors.Is(err, ErrPromoCodeExists)
}

func IsPromoCodeUsedUp(err error) bool {
	return errors.Is(err, ErrPromoCodeUsedUp)
}

func IsQuoteNotFound(err error) bool {
	return errors.Is(err, ErrQuoteNotFound)
}

func IsQuoteAccessDenied(err error) bool {
	return errors.Is(err, ErrQuoteAccessDenied)
}

func IsQuoteNotLocked(err error) bool {
	return errors.Is(err, ErrQuoteNotLocked)
}

func IsQuoteAlreadyBooked(err error) bool {
	return errors.Is(err, ErrQuoteAlreadyBooked)
}

func IsQuoteConflict(err error) bool {
	return errors.Is(err, ErrQuoteConflict)
}

func IsQuoteItemNotFound(err error) bool {
	return errors.Is(err, ErrQuoteItemNotFound)
}

func IsInvalidClinicTier(err error) bool {
	return errors.Is(err, ErrInvalidClinicTier)
}

func IsInvalidDiscountInput(err error) bool {
	return errors.Is(err, ErrInvalidDiscountInput)
}

func IsGatewayTokenEmpty(err error) bool {
	return errors.Is(err, ErrGatewayTokenEmpty)
}

func IsPaymentRequestNotFound(err error) bool {
	return errors.Is(err, ErrPaymentRequestNotFound)
}

func IsPaymentRequestAlreadyProcessed(err error) bool {
	return errors.Is(err, ErrPaymentRequestAlreadyProcessed)
}

func IsPaymentRequestExpired(err error) bool {
	return errors.Is(err, ErrPaymentRequestExpired)
}

func IsBookingNotFound(err error) bool {
	return errors.Is(err, ErrBookingNotFound)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}

func IsStartDateAfterEndDate(err error) bool {
	return errors.Is(err, ErrStartDateAfterEndDate)
}
