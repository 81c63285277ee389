package pricing

import "github.com/shopspring/decimal"

// OfferRef is the back-reference an affected line keeps to the special offer
// that repriced it, retained for display and audit.
type OfferRef struct {
	ID       uint            `json:"id"`
	Title    string          `json:"title"`
	Kind     DiscountKind    `json:"kind"`
	Value    decimal.Decimal `json:"value"`
	ClinicID uint            `json:"clinic_id"`
}

// Line is one selected procedure on a quote. Discounts never mutate a line in
// place: the engine produces a new line with the pristine catalog price kept
// in OriginalUnitPriceGBP so savings stay auditable.
type Line struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Guarantee string `json:"guarantee,omitempty"`

	UnitPriceGBP decimal.Decimal `json:"unit_price_gbp"`
	UnitPriceUSD decimal.Decimal `json:"unit_price_usd"`
	SubtotalGBP  decimal.Decimal `json:"subtotal_gbp"`
	SubtotalUSD  decimal.Decimal `json:"subtotal_usd"`

	// OriginalUnitPriceGBP is the price before any special offer repricing.
	// For package lines it is the apportioned bundle share, not the catalog
	// price; the bundle price is authoritative for those lines.
	OriginalUnitPriceGBP decimal.Decimal `json:"original_unit_price_gbp"`

	IsLocked       bool `json:"is_locked"`
	IsBonus        bool `json:"is_bonus"`
	IsSpecialOffer bool `json:"is_special_offer"`
	IsPackageItem  bool `json:"is_package_item"`

	Offer     *OfferRef `json:"special_offer,omitempty"`
	PackageID *uint     `json:"package_id,omitempty"`
}

// NewLine builds a plain catalog line. Quantity must be positive and the unit
// price non-negative.
func NewLine(name string, quantity int, unitPriceGBP decimal.Decimal, guarantee string) (Line, error) {
	if quantity <= 0 {
		return Line{}, ErrInvalidQuantity
	}
	if unitPriceGBP.IsNegative() {
		return Line{}, ErrInvalidUnitPrice
	}
	unit := Round2(unitPriceGBP)
	return Line{
		Name:                 name,
		Quantity:             quantity,
		Guarantee:            guarantee,
		UnitPriceGBP:         unit,
		OriginalUnitPriceGBP: unit,
	}, nil
}

// baseSubtotal is the line's pre-offer contribution to the quote subtotal.
// All discounts are computed against this base and summed, never chained.
func (l *Line) baseSubtotal() decimal.Decimal {
	return Round2(l.OriginalUnitPriceGBP.Mul(decimal.NewFromInt(int64(l.Quantity))))
}

// reprice recomputes the line's subtotal and USD mirror from its current unit
// price and flags a fully discounted line as a bonus.
func (l *Line) reprice(usdRate decimal.Decimal) {
	qty := decimal.NewFromInt(int64(l.Quantity))
	l.SubtotalGBP = Round2(l.UnitPriceGBP.Mul(qty))
	l.UnitPriceUSD = toUSD(l.UnitPriceGBP, usdRate)
	l.SubtotalUSD = toUSD(l.SubtotalGBP, usdRate)
	l.IsBonus = l.IsSpecialOffer && l.UnitPriceGBP.IsZero()
}

// clearOffer restores the pristine price and drops offer markings.
func (l *Line) clearOffer() {
	l.UnitPriceGBP = l.OriginalUnitPriceGBP
	l.IsSpecialOffer = false
	l.IsBonus = false
	l.Offer = nil
}
