// Package pricing implements the quote pricing and discount composition engine.
package pricing

import "errors"

// Engine error constants
var (
	// Discount resolver errors
	ErrInvalidDiscountValue = errors.New("discount value must be positive")
	ErrPercentageOutOfRange = errors.New("percentage discount must be between 0 and 100")
	ErrInvalidDiscountKind  = errors.New("unknown discount kind")
	ErrNegativeTarget       = errors.New("target amount cannot be negative")

	// Package expansion errors
	ErrEmptyPackage       = errors.New("package has no items")
	ErrInvalidBundlePrice = errors.New("package bundle price must be positive")
	ErrInvalidSplit       = errors.New("package item splits do not sum to bundle price")

	// Promo code errors
	ErrPromoCodeInactive = errors.New("promo code is inactive")
	ErrPromoCodeExpired  = errors.New("promo code has expired")

	// Session state errors
	ErrQuoteLocked      = errors.New("quote is locked for checkout")
	ErrQuoteConverted   = errors.New("quote has been converted to a booking")
	ErrQuoteAbandoned   = errors.New("quote is abandoned")
	ErrQuoteEmpty       = errors.New("quote has no treatment lines")
	ErrLineLocked       = errors.New("treatment line is locked by a package")
	ErrLineNotFound     = errors.New("treatment line not found")
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrInvalidUnitPrice = errors.New("unit price cannot be negative")
)

func IsQuoteLocked(err error) bool {
	return errors.Is(err, ErrQuoteLocked)
}

func IsQuoteConverted(err error) bool {
	return errors.Is(err, ErrQuoteConverted)
}

func IsQuoteAbandoned(err error) bool {
	return errors.Is(err, ErrQuoteAbandoned)
}

func IsLineLocked(err error) bool {
	return errors.Is(err, ErrLineLocked)
}

func IsPromoCodeExpired(err error) bool {
	return errors.Is(err, ErrPromoCodeExpired) || errors.Is(err, ErrPromoCodeInactive)
}
