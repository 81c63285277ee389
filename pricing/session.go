package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a quote session.
type Status string

const (
	StatusEmpty             Status = "empty"
	StatusBuilding          Status = "building"
	StatusPriced            Status = "priced"
	StatusLockedForCheckout Status = "locked_for_checkout"
	StatusConverted         Status = "converted"
	StatusAbandoned         Status = "abandoned"
)

// Warning is a non-fatal data-quality signal attached to a successful
// computation so the caller can prompt the user instead of failing the quote.
type Warning string

const (
	WarningOfferMatchedNoLines    Warning = "offer_matched_no_lines"
	WarningNegativePackageSavings Warning = "negative_package_savings"
)

// Session is the quote aggregate the engine computes over. It is a plain
// value passed between calls; persistence belongs to the caller. The engine
// assumes exclusive access for the duration of one mutation.
type Session struct {
	Status Status `json:"status"`
	Lines  []Line `json:"treatments"`

	SubtotalGBP       decimal.Decimal `json:"subtotal_gbp"`
	SubtotalUSD       decimal.Decimal `json:"subtotal_usd"`
	OfferDiscountGBP  decimal.Decimal `json:"offer_discount_gbp"`
	PromoDiscountGBP  decimal.Decimal `json:"promo_discount_gbp"`
	PackageSavingsGBP decimal.Decimal `json:"package_savings_gbp"`
	DiscountGBP       decimal.Decimal `json:"discount_gbp"`
	TotalGBP          decimal.Decimal `json:"total_gbp"`
	TotalUSD          decimal.Decimal `json:"total_usd"`

	PackageID      *uint   `json:"package_id,omitempty"`
	SpecialOfferID *uint   `json:"special_offer_id,omitempty"`
	PromoCodeID    *uint   `json:"promo_code_id,omitempty"`
	PromoCode      *string `json:"promo_code,omitempty"`

	// USDRate is the fixed GBP to USD conversion rate applied uniformly to
	// every figure on the session.
	USDRate decimal.Decimal `json:"usd_rate"`

	Warnings []Warning `json:"warnings,omitempty"`

	offer *Offer
	promo *CodeRecord
	now   time.Time
}

// NewSession creates an empty quote session priced at the given USD rate.
func NewSession(usdRate decimal.Decimal) *Session {
	return &Session{
		Status:  StatusEmpty,
		USDRate: usdRate,
		now:     time.Now().UTC(),
	}
}

// SetClock fixes the instant used for validity checks. Callers that rebuild
// a session from persisted state set this once per mutation pass.
func (s *Session) SetClock(now time.Time) {
	s.now = now
}

// RestoreOffer reattaches a persisted special offer without recomputation,
// used when rehydrating a session from storage before a mutation.
func (s *Session) RestoreOffer(offer Offer) {
	o := offer
	s.offer = &o
	s.SpecialOfferID = &o.ID
}

// RestorePromoCode reattaches a persisted promo code without recomputation.
func (s *Session) RestorePromoCode(rec CodeRecord) {
	r := rec
	s.promo = &r
	s.PromoCodeID = &r.ID
	s.PromoCode = &r.Code
}

// mutable rejects mutations on terminal or checkout-locked sessions. The
// quote stays exactly as it was; no partial update is ever applied.
func (s *Session) mutable() error {
	switch s.Status {
	case StatusLockedForCheckout:
		return ErrQuoteLocked
	case StatusConverted:
		return ErrQuoteConverted
	case StatusAbandoned:
		return ErrQuoteAbandoned
	default:
		return nil
	}
}

// AddTreatment appends a catalog line and recomputes.
func (s *Session) AddTreatment(name string, quantity int, unitPriceGBP decimal.Decimal, guarantee string) error {
	if err := s.mutable(); err != nil {
		return err
	}
	line, err := NewLine(name, quantity, unitPriceGBP, guarantee)
	if err != nil {
		return err
	}
	s.Lines = append(s.Lines, line)
	return s.Recompute()
}

// RemoveTreatment removes the line at the given index. Package lines are
// locked: they leave the quote only when the whole package is removed.
func (s *Session) RemoveTreatment(index int) error {
	if err := s.mutable(); err != nil {
		return err
	}
	if index < 0 || index >= len(s.Lines) {
		return ErrLineNotFound
	}
	if s.Lines[index].IsLocked {
		return ErrLineLocked
	}
	s.Lines = append(s.Lines[:index], s.Lines[index+1:]...)
	return s.Recompute()
}

// SetPackage replaces any current package with the given one, expanding it
// into locked lines. Previous package lines are dropped first.
func (s *Session) SetPackage(def PackageDef) error {
	if err := s.mutable(); err != nil {
		return err
	}
	res, err := ExpandPackage(def)
	if err != nil {
		return err
	}
	s.dropPackageLines()
	s.Lines = append(s.Lines, res.Lines...)
	s.PackageID = &def.ID
	s.PackageSavingsGBP = res.Savings
	s.Warnings = append(s.Warnings, res.Warnings...)
	return s.Recompute()
}

// ClearPackage removes the package and its locked lines.
func (s *Session) ClearPackage() error {
	if err := s.mutable(); err != nil {
		return err
	}
	s.dropPackageLines()
	s.PackageID = nil
	s.PackageSavingsGBP = decimal.Zero
	return s.Recompute()
}

func (s *Session) dropPackageLines() {
	kept := s.Lines[:0]
	for _, l := range s.Lines {
		if !l.IsPackageItem {
			kept = append(kept, l)
		}
	}
	s.Lines = kept
}

// SetOffer attaches a special offer, replacing any previous one. The quote
// carries at most one active offer; replacement recomputes from the pristine
// prices so offers never compound.
func (s *Session) SetOffer(offer Offer) error {
	if err := s.mutable(); err != nil {
		return err
	}
	o := offer
	s.offer = &o
	s.SpecialOfferID = &o.ID
	return s.Recompute()
}

// ClearOffer detaches the special offer and restores pristine line prices.
func (s *Session) ClearOffer() error {
	if err := s.mutable(); err != nil {
		return err
	}
	s.offer = nil
	s.SpecialOfferID = nil
	return s.Recompute()
}

// SetPromoCode attaches a promo code, replacing any previous one. The prior
// promo discount is discarded entirely, never accumulated across codes.
func (s *Session) SetPromoCode(rec CodeRecord) error {
	if err := s.mutable(); err != nil {
		return err
	}
	// Validate before touching session state so a rejected code leaves the
	// quote exactly as it was.
	if _, err := ApplyPromoCode(rec, s.SubtotalGBP, s.clock()); err != nil {
		return err
	}
	r := rec
	s.promo = &r
	s.PromoCodeID = &r.ID
	s.PromoCode = &r.Code
	return s.Recompute()
}

// ClearPromoCode detaches the promo code.
func (s *Session) ClearPromoCode() error {
	if err := s.mutable(); err != nil {
		return err
	}
	s.promo = nil
	s.PromoCodeID = nil
	s.PromoCode = nil
	return s.Recompute()
}

// LockForCheckout freezes the session for payment. Further mutations are
// rejected until the caller either converts or abandons the quote.
func (s *Session) LockForCheckout() error {
	if err := s.mutable(); err != nil {
		return err
	}
	if len(s.Lines) == 0 {
		return ErrQuoteEmpty
	}
	s.Status = StatusLockedForCheckout
	return nil
}

// Abandon marks the session terminal. Abandoning an already abandoned
// session is a no-op; a converted session stays converted.
func (s *Session) Abandon() error {
	if s.Status == StatusAbandoned {
		return nil
	}
	if s.Status == StatusConverted {
		return ErrQuoteConverted
	}
	s.Status = StatusAbandoned
	return nil
}

// Recompute runs the full totals recomputation from scratch. It is
// idempotent and all-or-nothing: every aggregate figure is recomputed on
// every call rather than incrementally patched, so repeated application can
// never drift.
//
// The discount base is the pre-offer subtotal: offer and promo discounts are
// both resolved against it and then summed, making the combination
// order-independent. Package savings are informational only; the bundle
// price already is the committed total for package lines.
func (s *Session) Recompute() error {
	if err := s.mutable(); err != nil {
		return err
	}

	s.Warnings = filterWarnings(s.Warnings, WarningOfferMatchedNoLines)

	// Offer application works on pristine prices; it restores any prior
	// repricing before applying, so replacement never compounds.
	if s.offer != nil {
		res, err := ApplySpecialOffer(*s.offer, s.Lines)
		if err != nil {
			return err
		}
		s.Lines = res.Lines
		s.OfferDiscountGBP = res.OfferDiscount
		s.Warnings = append(s.Warnings, res.Warnings...)
	} else {
		for i := range s.Lines {
			s.Lines[i].clearOffer()
		}
		s.OfferDiscountGBP = decimal.Zero
	}

	subtotal := decimal.Zero
	for i := range s.Lines {
		s.Lines[i].reprice(s.USDRate)
		subtotal = subtotal.Add(s.Lines[i].baseSubtotal())
	}
	s.SubtotalGBP = subtotal
	s.SubtotalUSD = toUSD(subtotal, s.USDRate)

	if s.promo != nil {
		res, err := ApplyPromoCode(*s.promo, subtotal, s.clock())
		if err != nil {
			return err
		}
		s.PromoDiscountGBP = res.PromoDiscount
	} else {
		s.PromoDiscountGBP = decimal.Zero
	}

	s.DiscountGBP = s.OfferDiscountGBP.Add(s.PromoDiscountGBP)
	s.TotalGBP = maxDecimal(decimal.Zero, Round2(subtotal.Sub(s.DiscountGBP)))
	s.TotalUSD = toUSD(s.TotalGBP, s.USDRate)

	if len(s.Lines) == 0 {
		s.Status = StatusEmpty
	} else {
		s.Status = StatusPriced
	}
	return nil
}

func (s *Session) clock() time.Time {
	if s.now.IsZero() {
		return time.Now().UTC()
	}
	return s.now
}

func filterWarnings(ws []Warning, drop Warning) []Warning {
	kept := ws[:0]
	for _, w := range ws {
		if w != drop {
			kept = append(kept, w)
		}
	}
	return kept
}
