package businessflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smiletrip/smiletrip/app/dto"
	"github.com/smiletrip/smiletrip/models"
	"github.com/smiletrip/smiletrip/pricing"
	"github.com/smiletrip/smiletrip/repository"
	"github.com/smiletrip/smiletrip/utils"
	"gorm.io/gorm"
)

// QuoteFlow handles the full quote lifecycle: building the treatment list,
// attaching packages, offers and promo codes, and the lock/abandon
// transitions. Every mutation recomputes all totals from scratch inside one
// transaction guarded by the quote's version.
type QuoteFlow interface {
	CreateQuote(ctx context.Context, req *dto.CreateQuoteRequest, customerID uint, metadata *ClientMetadata) (*dto.QuoteResponse, error)
	GetQuote(ctx context.Context, quoteUUID string, customerID uint) (*dto.QuoteResponse, error)
	ListQuotes(ctx context.Context, customerID uint, page, pageSize int) ([]dto.QuoteDTO, error)
	AddTreatment(ctx context.Context, quoteUUID string, customerID uint, req *dto.AddTreatmentRequest, metadata *ClientMetadata) (*dto.QuoteResponse, error)
	RemoveTreatment(ctx context.Context, quoteUUID string, customerID uint, position int, metadata *ClientMetadata) (*dto.QuoteResponse, error)
	ApplyPackage(ctx context.Context, quoteUUID string, customerID uint, req *dto.ApplyPackageRequest, metadata *ClientMetadata) (*dto.QuoteResponse, error)
	ClearPackage(ctx context.Context, quoteUUID string, customerID uint, metadata *ClientMetadata) (*dto.QuoteResponse, error)
	ApplyOffer(ctx context.Context, quoteUUID string, customerID uint, req *dto.ApplyOfferRequest, metadata *ClientMetadata) (*dto.QuoteResponse, error)
	ClearOffer(ctx context.Context, quoteUUID string, customerID uint, metadata *ClientMetadata) (*dto.QuoteResponse, error)
	ApplyPromoCode(ctx context.Context, quoteUUID string, customerID uint, req *dto.ApplyPromoCodeRequest, metadata *ClientMetadata) (*dto.QuoteResponse, error)
	ClearPromoCode(ctx context.Context, quoteUUID string, customerID uint, metadata *ClientMetadata) (*dto.QuoteResponse, error)
	LockForCheckout(ctx context.Context, quoteUUID string, customerID uint, metadata *ClientMetadata) (*dto.QuoteResponse, error)
	AbandonQuote(ctx context.Context, quoteUUID string, customerID uint, metadata *ClientMetadata) (*dto.QuoteResponse, error)
}

// QuoteFlowImpl implements the quote business flow
type QuoteFlowImpl struct {
	quoteRepo        repository.QuoteRepository
	clinicRepo       repository.ClinicRepository
	treatmentRepo    repository.TreatmentRepository
	packageRepo      repository.TreatmentPackageRepository
	offerRepo        repository.SpecialOfferRepository
	promoRepo        repository.PromoCodeRepository
	appliedOfferRepo repository.AppliedSpecialOfferRepository
	auditRepo        repository.AuditLogRepository
	db               *gorm.DB
	usdRate          decimal.Decimal
}

// NewQuoteFlow creates a new quote flow instance
func NewQuoteFlow(
	quoteRepo repository.QuoteRepository,
	clinicRepo repository.ClinicRepository,
	treatmentRepo repository.TreatmentRepository,
	packageRepo repository.TreatmentPackageRepository,
	offerRepo repository.SpecialOfferRepository,
	promoRepo repository.PromoCodeRepository,
	appliedOfferRepo repository.AppliedSpecialOfferRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
	usdRate decimal.Decimal,
) QuoteFlow {
	return &QuoteFlowImpl{
		quoteRepo:        quoteRepo,
		clinicRepo:       clinicRepo,
		treatmentRepo:    treatmentRepo,
		packageRepo:      packageRepo,
		offerRepo:        offerRepo,
		promoRepo:        promoRepo,
		appliedOfferRepo: appliedOfferRepo,
		auditRepo:        auditRepo,
		db:               db,
		usdRate:          usdRate,
	}
}

// CreateQuote opens an empty quote against a clinic
func (f *QuoteFlowImpl) CreateQuote(ctx context.Context, req *dto.CreateQuoteRequest, customerID uint, metadata *ClientMetadata) (*dto.QuoteResponse, error) {
	clinic, err := f.clinicRepo.ByUUID(ctx, req.ClinicUUID)
	if err != nil {
		return nil, NewBusinessError("CLINIC_LOOKUP_FAILED", "Failed to look up clinic", err)
	}
	if clinic == nil {
		return nil, ErrClinicNotFound
	}
	if !utils.IsTrue(clinic.IsActive) {
		return nil, ErrClinicInactive
	}

	quote := &models.Quote{
		CustomerID: customerID,
		ClinicID:   clinic.ID,
		Status:     models.QuoteStatusEmpty,
		USDRate:    f.usdRate,
		Version:    1,
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.quoteRepo.Save(txCtx, quote); err != nil {
			return NewBusinessError("QUOTE_CREATE_FAILED", "Failed to create quote", err)
		}
		f.audit(txCtx, customerID, models.AuditActionQuoteCreated,
			fmt.Sprintf("Quote %s created for clinic %s", quote.UUID, clinic.Name), metadata, true)
		return nil
	})
	if err != nil {
		return nil, err
	}

	quoteDTO := ToQuoteDTO(quote)
	return &dto.QuoteResponse{Quote: quoteDTO}, nil
}

// GetQuote retrieves a quote with its items
func (f *QuoteFlowImpl) GetQuote(ctx context.Context, quoteUUID string, customerID uint) (*dto.QuoteResponse, error) {
	quote, err := f.loadQuote(ctx, quoteUUID, customerID)
	if err != nil {
		return nil, err
	}
	quoteDTO := ToQuoteDTO(quote)
	return &dto.QuoteResponse{Quote: quoteDTO}, nil
}

// ListQuotes retrieves a page of the customer's quotes, newest first
func (f *QuoteFlowImpl) ListQuotes(ctx context.Context, customerID uint, page, pageSize int) ([]dto.QuoteDTO, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, ErrInvalidPageSize
	}

	quotes, err := f.quoteRepo.ListByCustomer(ctx, customerID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("QUOTE_LIST_FAILED", "Failed to list quotes", err)
	}

	out := make([]dto.QuoteDTO, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, ToQuoteDTO(q))
	}
	return out, nil
}

// AddTreatment appends a catalog treatment line, priced at the clinic's tier
func (f *QuoteFlowImpl) AddTreatment(ctx context.Context, quoteUUID string, customerID uint, req *dto.AddTreatmentRequest, metadata *ClientMetadata) (*dto.QuoteResponse, error) {
	return f.mutate(ctx, quoteUUID, customerID, models.AuditActionTreatmentAdded, metadata,
		func(txCtx context.Context, quote *models.Quote, session *pricing.Session) error {
			treatment, err := f.treatmentRepo.ByKey(txCtx, req.TreatmentKey)
			if err != nil {
				return NewBusinessError("TREATMENT_LOOKUP_FAILED", "Failed to look up treatment", err)
			}
			if treatment == nil || !utils.IsTrue(treatment.IsActive) {
				return ErrTreatmentNotFound
			}

			clinic, err := f.clinicRepo.ByID(txCtx, quote.ClinicID)
			if err != nil {
				return NewBusinessError("CLINIC_LOOKUP_FAILED", "Failed to look up clinic", err)
			}
			if clinic == nil {
				return ErrClinicNotFound
			}

			return session.AddTreatment(treatment.Key, req.Quantity, treatment.PriceForTier(clinic.Tier), treatment.Guarantee)
		})
}

// RemoveTreatment removes the line at the given position
func (f *QuoteFlowImpl) RemoveTreatment(ctx context.Context, quoteUUID string, customerID uint, position int, metadata *ClientMetadata) (*dto.QuoteResponse, error) {
	return f.mutate(ctx, quoteUUID, customerID, models.AuditActionTreatmentRemoved, metadata,
		func(txCtx context.Context, quote *models.Quote, session *pricing.Session) error {
			return session.RemoveTreatment(position)
		})
}

// ApplyPackage replaces the quote's package with the given one
func (f *QuoteFlowImpl) ApplyPackage(ctx context.Context, quoteUUID string, customerID uint, req *dto.ApplyPackageRequest, metadata *ClientMetadata) (*dto.QuoteResponse, error) {
	return f.mutate(ctx, quoteUUID, customerID, models.AuditActionPackageApplied, metadata,
		func(txCtx context.Context, quote *models.Quote, session *pricing.Session) error {
			pkg, err := f.packageRepo.ByUUID(txCtx, req.PackageUUID)
			if err != nil {
				return NewBusinessError("PACKAGE_LOOKUP_FAILED", "Failed to look up package", err)
			}
			if pkg == nil {
				return ErrPackageNotFound
			}
			if !utils.IsTrue(pkg.IsActive) {
				return ErrPackageInactive
			}
			if pkg.ClinicID != quote.ClinicID {
				return ErrPackageNotFound
			}

			def, err := f.toPackageDef(txCtx, pkg)
			if err != nil {
				return err
			}
			return session.SetPackage(def)
		})
}

// ClearPackage removes the package and its locked lines
func (f *QuoteFlowImpl) ClearPackage(ctx context.Context, quoteUUID string, customerID uint, metadata *ClientMetadata) (*dto.QuoteResponse, error) {
	return f.mutate(ctx, quoteUUID, customerID, models.AuditActionPackageCleared, metadata,
		func(txCtx context.Context, quote *models.Quote, session *pricing.Session) error {
			return session.ClearPackage()
		})
}

// ApplyOffer attaches a special offer, replacing any previous one. The
// pending usage record is replaced alongside.
func (f *QuoteFlowImpl) ApplyOffer(ctx context.Context, quoteUUID string, customerID uint, req *dto.ApplyOfferRequest, metadata *ClientMetadata) (*dto.QuoteResponse, error) {
	return f.mutate(ctx, quoteUUID, customerID, models.AuditActionOfferApplied,
		metadata, func(txCtx context.Context, quote *models.Quote, session *pricing.Session) error {
			offer, err := f.offerRepo.ByUUID(txCtx, req.OfferUUID)
			if err != nil {
				return NewBusinessError("OFFER_LOOKUP_FAILED", "Failed to look up offer", err)
			}
			if offer == nil {
				return ErrOfferNotFound
			}
			if offer.ClinicID != quote.ClinicID {
				return ErrOfferWrongClinic
			}

			engineOffer, err := toPricingOffer(offer)
			if err != nil {
				return err
			}
			if !utils.IsTrue(offer.IsActive) || !engineOffer.Active(time.Now().UTC()) {
				return ErrOfferInactive
			}

			originalTotal := session.TotalGBP
			if err := session.SetOffer(engineOffer); err != nil {
				return err
			}

			// Replace the pending usage record for this quote.
			pending, err := f.appliedOfferRepo.PendingByQuote(txCtx, quote.ID)
			if err != nil {
				return NewBusinessError("APPLIED_OFFER_LOOKUP_FAILED", "Failed to look up applied offer", err)
			}
			if pending != nil {
				if err := f.appliedOfferRepo.UpdateUsageStatus(txCtx, pending.ID, models.OfferUsageUsed, nil); err != nil {
					return NewBusinessError("APPLIED_OFFER_UPDATE_FAILED", "Failed to update applied offer", err)
				}
			}
			applied := &models.AppliedSpecialOffer{
				QuoteID:            quote.ID,
				SpecialOfferID:     offer.ID,
				CustomerID:         customerID,
				UsageStatus:        models.OfferUsagePending,
				OriginalPriceGBP:   originalTotal,
				DiscountedPriceGBP: session.TotalGBP,
			}
			if err := f.appliedOfferRepo.Save(txCtx, applied); err != nil {
				return NewBusinessError("APPLIED_OFFER_SAVE_FAILED", "Failed to record applied offer", err)
			}
			return nil
		})
}

// ClearOffer detaches the special offer and restores pristine prices
func (f *QuoteFlowImpl) ClearOffer(ctx context.Context, quoteUUID string, customerID uint, metadata *ClientMetadata) (*dto.QuoteResponse, error) {
	return f.mutate(ctx, quoteUUID, customerID, models.AuditActionOfferCleared, metadata,
		func(txCtx context.Context, quote *models.Quote, session *pricing.Session) error {
			if err := session.ClearOffer(); err != nil {
				return err
			}
			pending, err := f.appliedOfferRepo.PendingByQuote(txCtx, quote.ID)
			if err != nil {
				return NewBusinessError("APPLIED_OFFER_LOOKUP_FAILED", "Failed to look up applied offer", err)
			}
			if pending != nil {
				if err := f.appliedOfferRepo.UpdateUsageStatus(txCtx, pending.ID, models.OfferUsageUsed, nil); err != nil {
					return NewBusinessError("APPLIED_OFFER_UPDATE_FAILED", "Failed to update applied offer", err)
				}
			}
			return nil
		})
}

// ApplyPromoCode attaches a promo code, replacing any previous one
func (f *QuoteFlowImpl) ApplyPromoCode(ctx context.Context, quoteUUID string, customerID uint, req *dto.ApplyPromoCodeRequest, metadata *ClientMetadata) (*dto.QuoteResponse, error) {
	return f.mutate(ctx, quoteUUID, customerID, models.AuditActionPromoApplied, metadata,
		func(txCtx context.Context, quote *models.Quote, session *pricing.Session) error {
			promo, err := f.promoRepo.ByCode(txCtx, req.Code)
			if err != nil {
				return NewBusinessError("PROMO_LOOKUP_FAILED", "Failed to look up promo code", err)
			}
			if promo == nil {
				return ErrPromoCodeNotFound
			}
			if promo.Exhausted() {
				return ErrPromoCodeUsedUp
			}

			rec, err := toPricingCode(promo)
			if err != nil {
				return err
			}
			return session.SetPromoCode(rec)
		})
}

// ClearPromoCode detaches the promo code
func (f *QuoteFlowImpl) ClearPromoCode(ctx context.Context, quoteUUID string, customerID uint, metadata *ClientMetadata) (*dto.QuoteResponse, error) {
	return f.mutate(ctx, quoteUUID, customerID, models.AuditActionPromoCleared, metadata,
		func(txCtx context.Context, quote *models.Quote, session *pricing.Session) error {
			return session.ClearPromoCode()
		})
}

// LockForCheckout freezes the quote for payment
func (f *QuoteFlowImpl) LockForCheckout(ctx context.Context, quoteUUID string, customerID uint, metadata *ClientMetadata) (*dto.QuoteResponse, error) {
	return f.mutate(ctx, quoteUUID, customerID, models.AuditActionQuoteLocked, metadata,
		func(txCtx context.Context, quote *models.Quote, session *pricing.Session) error {
			return session.LockForCheckout()
		})
}

// AbandonQuote marks the quote terminal. Abandoning twice is a no-op.
func (f *QuoteFlowImpl) AbandonQuote(ctx context.Context, quoteUUID string, customerID uint, metadata *ClientMetadata) (*dto.QuoteResponse, error) {
	quote, err := f.loadQuote(ctx, quoteUUID, customerID)
	if err != nil {
		return nil, err
	}
	if quote.Status == models.QuoteStatusAbandoned {
		quoteDTO := ToQuoteDTO(quote)
		return &dto.QuoteResponse{Quote: quoteDTO}, nil
	}

	return f.mutate(ctx, quoteUUID, customerID, models.AuditActionQuoteAbandoned, metadata,
		func(txCtx context.Context, quote *models.Quote, session *pricing.Session) error {
			return session.Abandon()
		})
}

// mutate is the shared mutation path: load the quote, rehydrate the pricing
// session, run the mutation, persist with the version check, and audit. The
// whole pass runs inside one transaction; any failure leaves the quote in its
// prior state.
func (f *QuoteFlowImpl) mutate(
	ctx context.Context,
	quoteUUID string,
	customerID uint,
	action string,
	metadata *ClientMetadata,
	fn func(txCtx context.Context, quote *models.Quote, session *pricing.Session) error,
) (*dto.QuoteResponse, error) {
	var response *dto.QuoteResponse

	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		quote, err := f.loadQuote(txCtx, quoteUUID, customerID)
		if err != nil {
			return err
		}

		// Terminal quotes never recompute.
		if quote.Terminal() {
			if quote.Status == models.QuoteStatusConverted {
				return pricing.ErrQuoteConverted
			}
			return pricing.ErrQuoteAbandoned
		}

		session, err := f.rehydrate(txCtx, quote)
		if err != nil {
			return err
		}

		if err := fn(txCtx, quote, session); err != nil {
			f.audit(txCtx, customerID, action, fmt.Sprintf("Quote %s: %v", quoteUUID, err), metadata, false)
			return err
		}

		expectedVersion := quote.Version
		applySession(quote, session)
		if err := f.quoteRepo.UpdateWithVersion(txCtx, quote, expectedVersion); err != nil {
			if errors.Is(err, repository.ErrStaleQuote) {
				return ErrQuoteConflict
			}
			return NewBusinessError("QUOTE_UPDATE_FAILED", "Failed to persist quote", err)
		}

		f.audit(txCtx, customerID, action, fmt.Sprintf("Quote %s updated", quoteUUID), metadata, true)

		quoteDTO := ToQuoteDTO(quote)
		response = &dto.QuoteResponse{Quote: quoteDTO, Warnings: warningsToStrings(session.Warnings)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return response, nil
}

// loadQuote fetches the quote with items and enforces ownership
func (f *QuoteFlowImpl) loadQuote(ctx context.Context, quoteUUID string, customerID uint) (*models.Quote, error) {
	quote, err := f.quoteRepo.ByUUIDWithItems(ctx, quoteUUID)
	if err != nil {
		return nil, NewBusinessError("QUOTE_LOOKUP_FAILED", "Failed to look up quote", err)
	}
	if quote == nil {
		return nil, ErrQuoteNotFound
	}
	if quote.CustomerID != customerID {
		return nil, ErrQuoteAccessDenied
	}
	return quote, nil
}

// rehydrate rebuilds the in-memory pricing session from the persisted quote,
// reattaching any stored offer and promo code so the next recomputation sees
// the same inputs the last one did.
func (f *QuoteFlowImpl) rehydrate(ctx context.Context, quote *models.Quote) (*pricing.Session, error) {
	session := pricing.NewSession(quote.USDRate)
	session.SetClock(time.Now().UTC())
	session.Status = pricing.Status(quote.Status)
	session.PackageID = quote.PackageID

	// Carry the persisted aggregates so a pass that does not recompute
	// (lock, abandon) writes back the same totals it read.
	session.SubtotalGBP = quote.SubtotalGBP
	session.SubtotalUSD = quote.SubtotalUSD
	session.OfferDiscountGBP = quote.OfferDiscountGBP
	session.PromoDiscountGBP = quote.PromoDiscountGBP
	session.PackageSavingsGBP = quote.PackageSavingsGBP
	session.DiscountGBP = quote.DiscountGBP
	session.TotalGBP = quote.TotalGBP
	session.TotalUSD = quote.TotalUSD

	var offerRef *pricing.OfferRef
	if quote.SpecialOfferID != nil {
		offer, err := f.offerRepo.ByID(ctx, *quote.SpecialOfferID)
		if err != nil {
			return nil, NewBusinessError("OFFER_LOOKUP_FAILED", "Failed to look up stored offer", err)
		}
		if offer != nil {
			engineOffer, err := toPricingOffer(offer)
			if err != nil {
				return nil, err
			}
			session.RestoreOffer(engineOffer)
			offerRef = &pricing.OfferRef{
				ID:       engineOffer.ID,
				Title:    engineOffer.Title,
				Kind:     engineOffer.Discount.Kind,
				Value:    engineOffer.Discount.Value,
				ClinicID: engineOffer.ClinicID,
			}
		}
	}

	session.Lines = make([]pricing.Line, 0, len(quote.Items))
	for _, item := range quote.Items {
		line := pricing.Line{
			Name:                 item.Name,
			Quantity:             item.Quantity,
			Guarantee:            item.Guarantee,
			UnitPriceGBP:         item.UnitPriceGBP,
			UnitPriceUSD:         item.UnitPriceUSD,
			SubtotalGBP:          item.SubtotalGBP,
			SubtotalUSD:          item.SubtotalUSD,
			OriginalUnitPriceGBP: item.OriginalUnitPriceGBP,
			IsLocked:             item.IsLocked,
			IsBonus:              item.IsBonus,
			IsSpecialOffer:       item.IsSpecialOffer,
			IsPackageItem:        item.IsPackageItem,
			PackageID:            item.PackageID,
		}
		if item.SpecialOfferID != nil {
			line.Offer = offerRef
		}
		session.Lines = append(session.Lines, line)
	}

	if quote.PromoCodeID != nil {
		promo, err := f.promoRepo.ByID(ctx, *quote.PromoCodeID)
		if err != nil {
			return nil, NewBusinessError("PROMO_LOOKUP_FAILED", "Failed to look up stored promo code", err)
		}
		if promo != nil {
			rec, err := toPricingCode(promo)
			if err != nil {
				return nil, err
			}
			session.RestorePromoCode(rec)
		}
	}

	return session, nil
}

// applySession copies the recomputed session state back onto the quote model
func applySession(quote *models.Quote, session *pricing.Session) {
	quote.Status = string(session.Status)
	quote.SubtotalGBP = session.SubtotalGBP
	quote.SubtotalUSD = session.SubtotalUSD
	quote.OfferDiscountGBP = session.OfferDiscountGBP
	quote.PromoDiscountGBP = session.PromoDiscountGBP
	quote.PackageSavingsGBP = session.PackageSavingsGBP
	quote.DiscountGBP = session.DiscountGBP
	quote.TotalGBP = session.TotalGBP
	quote.TotalUSD = session.TotalUSD
	quote.PackageID = session.PackageID
	quote.SpecialOfferID = session.SpecialOfferID
	quote.PromoCodeID = session.PromoCodeID
	quote.PromoCode = session.PromoCode

	items := make([]models.QuoteItem, 0, len(session.Lines))
	for i, line := range session.Lines {
		item := models.QuoteItem{
			QuoteID:              quote.ID,
			Position:             i,
			Name:                 line.Name,
			Quantity:             line.Quantity,
			Guarantee:            line.Guarantee,
			UnitPriceGBP:         line.UnitPriceGBP,
			UnitPriceUSD:         line.UnitPriceUSD,
			SubtotalGBP:          line.SubtotalGBP,
			SubtotalUSD:          line.SubtotalUSD,
			OriginalUnitPriceGBP: line.OriginalUnitPriceGBP,
			IsLocked:             line.IsLocked,
			IsBonus:              line.IsBonus,
			IsSpecialOffer:       line.IsSpecialOffer,
			IsPackageItem:        line.IsPackageItem,
			PackageID:            line.PackageID,
		}
		if line.Offer != nil {
			offerID := line.Offer.ID
			item.SpecialOfferID = &offerID
		}
		items = append(items, item)
	}
	quote.Items = items
}

// toPackageDef resolves a package and its items against the treatment catalog
func (f *QuoteFlowImpl) toPackageDef(ctx context.Context, pkg *models.TreatmentPackage) (pricing.PackageDef, error) {
	clinic, err := f.clinicRepo.ByID(ctx, pkg.ClinicID)
	if err != nil {
		return pricing.PackageDef{}, NewBusinessError("CLINIC_LOOKUP_FAILED", "Failed to look up clinic", err)
	}
	if clinic == nil {
		return pricing.PackageDef{}, ErrClinicNotFound
	}

	def := pricing.PackageDef{
		ID:             pkg.ID,
		Name:           pkg.Name,
		BundlePriceGBP: pkg.BundlePriceGBP,
		Items:          make([]pricing.PackageItem, 0, len(pkg.Items)),
	}
	for _, item := range pkg.Items {
		treatment, err := f.treatmentRepo.ByKey(ctx, item.TreatmentKey)
		if err != nil {
			return pricing.PackageDef{}, NewBusinessError("TREATMENT_LOOKUP_FAILED", "Failed to look up package treatment", err)
		}
		if treatment == nil {
			return pricing.PackageDef{}, NewBusinessErrorf("PACKAGE_TREATMENT_MISSING", "package references unknown treatment %q", ErrTreatmentNotFound, item.TreatmentKey)
		}
		def.Items = append(def.Items, pricing.PackageItem{
			TreatmentKey:        treatment.Key,
			Quantity:            item.Quantity,
			CatalogUnitPriceGBP: treatment.PriceForTier(clinic.Tier),
			Guarantee:           treatment.Guarantee,
			SplitGBP:            item.SplitGBP,
		})
	}
	return def, nil
}

// toPricingOffer converts a stored special offer to its engine form
func toPricingOffer(offer *models.SpecialOffer) (pricing.Offer, error) {
	discount, err := pricing.NewDiscount(pricing.DiscountKind(offer.DiscountType), offer.DiscountValue)
	if err != nil {
		return pricing.Offer{}, NewBusinessError("OFFER_DISCOUNT_INVALID", "Offer has an invalid discount", err)
	}
	return pricing.Offer{
		ID:                   offer.ID,
		Title:                offer.Title,
		ClinicID:             offer.ClinicID,
		Discount:             discount,
		ApplicableTreatments: offer.ApplicableTreatments,
		ValidFrom:            offer.ValidFrom,
		ValidUntil:           offer.ValidUntil,
	}, nil
}

// toPricingCode converts a stored promo code to its engine form
func toPricingCode(promo *models.PromoCode) (pricing.CodeRecord, error) {
	discount, err := pricing.NewDiscount(pricing.DiscountKind(promo.DiscountType), promo.DiscountValue)
	if err != nil {
		return pricing.CodeRecord{}, NewBusinessError("PROMO_DISCOUNT_INVALID", "Promo code has an invalid discount", err)
	}
	return pricing.CodeRecord{
		ID:        promo.ID,
		Code:      promo.Code,
		Discount:  discount,
		Active:    utils.IsTrue(promo.IsActive) && !promo.Exhausted(),
		ExpiresAt: promo.ExpiresAt,
	}, nil
}

func warningsToStrings(ws []pricing.Warning) []string {
	if len(ws) == 0 {
		return nil
	}
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, string(w))
	}
	return out
}

// audit writes an audit log record; failures are swallowed so auditing never
// blocks the main operation.
func (f *QuoteFlowImpl) audit(ctx context.Context, customerID uint, action, description string, metadata *ClientMetadata, success bool) {
	log := &models.AuditLog{
		CustomerID:  &customerID,
		Action:      action,
		Description: &description,
		Success:     &success,
		CreatedAt:   time.Now().UTC(),
	}
	if metadata != nil {
		if metadata.IPAddress != "" {
			log.IPAddress = &metadata.IPAddress
		}
		if metadata.UserAgent != "" {
			log.UserAgent = &metadata.UserAgent
		}
		if metadata.RequestID != "" {
			log.RequestID = &metadata.RequestID
		}
		if meta, err := json.Marshal(metadata); err == nil {
			log.Metadata = meta
		}
	}
	_ = f.auditRepo.Save(ctx, log)
}
