package pricing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Offer is a clinic-authored promotional discount, optionally scoped to
// specific treatments. An empty ApplicableTreatments list means the offer
// applies to the whole quote subtotal.
type Offer struct {
	ID                   uint            `json:"id"`
	Title                string          `json:"title"`
	ClinicID             uint            `json:"clinic_id"`
	Discount             Discount        `json:"discount"`
	ApplicableTreatments []string        `json:"applicable_treatments,omitempty"`
	ValidFrom            *time.Time      `json:"valid_from,omitempty"`
	ValidUntil           *time.Time      `json:"valid_until,omitempty"`
}

// Active reports whether the offer's validity window covers the given moment.
func (o Offer) Active(now time.Time) bool {
	if o.ValidFrom != nil && now.Before(*o.ValidFrom) {
		return false
	}
	if o.ValidUntil != nil && now.After(*o.ValidUntil) {
		return false
	}
	return true
}

// matchesTreatment reports whether a line name falls under an applicability
// entry. The match is case-insensitive and substring-based in either
// direction. The fuzziness is intentional: it tolerates minor catalog-name
// drift between offer authoring and the treatment catalog, at the cost of
// occasionally matching treatments that merely share a substring.
func matchesTreatment(lineName, entry string) bool {
	a := strings.ToLower(strings.TrimSpace(lineName))
	b := strings.ToLower(strings.TrimSpace(entry))
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

// Applies reports whether the offer covers the given line. An unscoped offer
// covers every line.
func (o Offer) Applies(line Line) bool {
	if len(o.ApplicableTreatments) == 0 {
		return true
	}
	for _, entry := range o.ApplicableTreatments {
		if matchesTreatment(line.Name, entry) {
			return true
		}
	}
	return false
}

// ApplyOfferResult is the outcome of applying a special offer to a line set.
type ApplyOfferResult struct {
	Lines         []Line
	OfferDiscount decimal.Decimal
	MatchedCount  int
	Warnings      []Warning
}

// ApplySpecialOffer applies an offer to a copy of the given lines and returns
// the repriced set together with the total offer discount. Discounts are
// always computed from the pristine (pre-offer) prices, so applying a second
// offer over an already-discounted set never compounds.
//
// A scoped offer that matches zero lines is not an error: it contributes a
// zero discount and a warning the caller can surface.
func ApplySpecialOffer(offer Offer, lines []Line) (ApplyOfferResult, error) {
	out := make([]Line, len(lines))
	copy(out, lines)
	for i := range out {
		out[i].clearOffer()
	}

	ref := &OfferRef{
		ID:       offer.ID,
		Title:    offer.Title,
		Kind:     offer.Discount.Kind,
		Value:    offer.Discount.Value,
		ClinicID: offer.ClinicID,
	}

	scoped := len(offer.ApplicableTreatments) > 0

	matchedSubtotal := decimal.Zero
	matched := 0
	for i := range out {
		if offer.Applies(out[i]) {
			matched++
			matchedSubtotal = matchedSubtotal.Add(out[i].baseSubtotal())
		}
	}

	res := ApplyOfferResult{Lines: out}
	if scoped && matched == 0 {
		res.Warnings = append(res.Warnings, WarningOfferMatchedNoLines)
		return res, nil
	}

	discount, err := ResolveDiscount(offer.Discount, matchedSubtotal)
	if err != nil {
		return ApplyOfferResult{}, err
	}
	res.OfferDiscount = discount
	res.MatchedCount = matched

	if scoped {
		repriceMatchedLines(out, offer, ref, discount, matchedSubtotal)
	} else {
		// A whole-subtotal offer discounts the aggregate, not individual
		// units; lines keep their prices but carry the offer marking.
		for i := range out {
			out[i].IsSpecialOffer = true
			out[i].Offer = ref
		}
	}

	return res, nil
}

// repriceMatchedLines distributes a scoped offer's discount across the
// matched lines pro-rata by their base subtotals, remainder on the first
// matched line, and reprices each affected unit.
func repriceMatchedLines(lines []Line, offer Offer, ref *OfferRef, discount, matchedSubtotal decimal.Decimal) {
	if matchedSubtotal.IsZero() {
		for i := range lines {
			if offer.Applies(lines[i]) {
				lines[i].IsSpecialOffer = true
				lines[i].Offer = ref
			}
		}
		return
	}

	remaining := discount
	first := -1
	for i := range lines {
		if !offer.Applies(lines[i]) {
			continue
		}
		if first < 0 {
			first = i
			continue // first matched line absorbs the remainder below
		}
		share := Round2(discount.Mul(lines[i].baseSubtotal()).Div(matchedSubtotal))
		applyLineDiscount(&lines[i], ref, share)
		remaining = remaining.Sub(share)
	}
	if first >= 0 {
		applyLineDiscount(&lines[first], ref, remaining)
	}
}

// applyLineDiscount reduces the line's subtotal by the given amount via its
// unit price, keeping unit price * quantity penny-consistent.
func applyLineDiscount(l *Line, ref *OfferRef, amount decimal.Decimal) {
	qty := decimal.NewFromInt(int64(l.Quantity))
	newSubtotal := maxDecimal(decimal.Zero, l.baseSubtotal().Sub(amount))
	l.UnitPriceGBP = newSubtotal.Div(qty)
	l.IsSpecialOffer = true
	l.Offer = ref
}
