package pricing

import "github.com/shopspring/decimal"

// DiscountKind enumerates the supported discount types.
type DiscountKind string

const (
	DiscountPercentage  DiscountKind = "percentage"
	DiscountFixedAmount DiscountKind = "fixed_amount"
)

// Discount is a tagged value: a kind plus a positive magnitude. Offers and
// promo codes both resolve to this shape, so a single resolver covers both.
type Discount struct {
	Kind  DiscountKind    `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

// NewPercentage builds a percentage discount. Value must be in (0, 100].
func NewPercentage(value decimal.Decimal) (Discount, error) {
	if value.LessThanOrEqual(decimal.Zero) {
		return Discount{}, ErrInvalidDiscountValue
	}
	if value.GreaterThan(decimal.NewFromInt(100)) {
		return Discount{}, ErrPercentageOutOfRange
	}
	return Discount{Kind: DiscountPercentage, Value: value}, nil
}

// NewFixedAmount builds an absolute-amount discount. Value must be positive.
func NewFixedAmount(value decimal.Decimal) (Discount, error) {
	if value.LessThanOrEqual(decimal.Zero) {
		return Discount{}, ErrInvalidDiscountValue
	}
	return Discount{Kind: DiscountFixedAmount, Value: value}, nil
}

// NewDiscount builds a discount from a kind string and value, validating both.
func NewDiscount(kind DiscountKind, value decimal.Decimal) (Discount, error) {
	switch kind {
	case DiscountPercentage:
		return NewPercentage(value)
	case DiscountFixedAmount:
		return NewFixedAmount(value)
	default:
		return Discount{}, ErrInvalidDiscountKind
	}
}

// ResolveDiscount computes the discount amount for a target. The result is
// guaranteed to satisfy 0 <= amount <= target. A fixed amount larger than the
// target is capped at the target so totals can never go negative.
func ResolveDiscount(d Discount, target decimal.Decimal) (decimal.Decimal, error) {
	if target.IsNegative() {
		return decimal.Zero, ErrNegativeTarget
	}
	if d.Value.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrInvalidDiscountValue
	}

	switch d.Kind {
	case DiscountPercentage:
		if d.Value.GreaterThan(decimal.NewFromInt(100)) {
			return decimal.Zero, ErrPercentageOutOfRange
		}
		return Round2(target.Mul(d.Value).Div(decimal.NewFromInt(100))), nil
	case DiscountFixedAmount:
		return minDecimal(Round2(d.Value), target), nil
	default:
		return decimal.Zero, ErrInvalidDiscountKind
	}
}
