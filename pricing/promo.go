package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// CodeRecord is a server-side resolved promo code: the discount it grants
// plus its activation state. Lookup by code string is the caller's job; the
// engine only checks state and computes the discount.
type CodeRecord struct {
	ID        uint            `json:"id"`
	Code      string          `json:"code"`
	Discount  Discount        `json:"discount"`
	Active    bool            `json:"active"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

// ApplyCodeResult is the outcome of applying a promo code.
type ApplyCodeResult struct {
	PromoDiscount decimal.Decimal
}

// ApplyPromoCode validates the code record state and computes its discount
// against the quote subtotal. The discount base is the same subtotal the
// offer discount is computed against, so offer and promo amounts sum rather
// than chain and the combination is order-independent.
//
// A valid code on a zero subtotal is a zero-value success, not an error.
func ApplyPromoCode(rec CodeRecord, subtotal decimal.Decimal, now time.Time) (ApplyCodeResult, error) {
	if !rec.Active {
		return ApplyCodeResult{}, ErrPromoCodeInactive
	}
	if rec.ExpiresAt != nil && now.After(*rec.ExpiresAt) {
		return ApplyCodeResult{}, ErrPromoCodeExpired
	}

	discount, err := ResolveDiscount(rec.Discount, subtotal)
	if err != nil {
		return ApplyCodeResult{}, err
	}
	return ApplyCodeResult{PromoDiscount: discount}, nil
}
