// Package businessflow contains the core business logic and use cases for clinic staff workflows
package businessflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/smiletrip/smiletrip/app/dto"
	"github.com/smiletrip/smiletrip/models"
	"github.com/smiletrip/smiletrip/repository"
	"github.com/smiletrip/smiletrip/utils"
	"gorm.io/gorm"
)

// ClinicAdminFlow lets clinic staff manage their own clinic's offers, promo
// codes and packages. Every operation is scoped to the staff member's clinic.
type ClinicAdminFlow interface {
	CreateOffer(ctx context.Context, staff *models.Customer, req *dto.CreateOfferRequest, metadata *ClientMetadata) (*dto.OfferDTO, error)
	UpdateOffer(ctx context.Context, staff *models.Customer, offerUUID string, req *dto.UpdateOfferRequest, metadata *ClientMetadata) (*dto.OfferDTO, error)
	ListOffers(ctx context.Context, staff *models.Customer) ([]dto.OfferDTO, error)
	ListOfferUsage(ctx context.Context, staff *models.Customer, offerUUID string, page, pageSize int) ([]dto.OfferUsageDTO, error)
	CreatePromoCode(ctx context.Context, staff *models.Customer, req *dto.CreatePromoCodeRequest, metadata *ClientMetadata) (*models.PromoCode, error)
	CreatePackage(ctx context.Context, staff *models.Customer, req *dto.CreatePackageRequest, metadata *ClientMetadata) (*models.TreatmentPackage, error)
}

// ClinicAdminFlowImpl implements the clinic staff business flow
type ClinicAdminFlowImpl struct {
	offerRepo        repository.SpecialOfferRepository
	promoRepo        repository.PromoCodeRepository
	packageRepo      repository.TreatmentPackageRepository
	treatmentRepo    repository.TreatmentRepository
	appliedOfferRepo repository.AppliedSpecialOfferRepository
	quoteRepo        repository.QuoteRepository
	auditRepo        repository.AuditLogRepository
	db               *gorm.DB
}

// NewClinicAdminFlow creates a new clinic staff flow instance
func NewClinicAdminFlow(
	offerRepo repository.SpecialOfferRepository,
	promoRepo repository.PromoCodeRepository,
	packageRepo repository.TreatmentPackageRepository,
	treatmentRepo repository.TreatmentRepository,
	appliedOfferRepo repository.AppliedSpecialOfferRepository,
	quoteRepo repository.QuoteRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) ClinicAdminFlow {
	return &ClinicAdminFlowImpl{
		offerRepo:        offerRepo,
		promoRepo:        promoRepo,
		packageRepo:      packageRepo,
		treatmentRepo:    treatmentRepo,
		appliedOfferRepo: appliedOfferRepo,
		quoteRepo:        quoteRepo,
		auditRepo:        auditRepo,
		db:               db,
	}
}

func staffClinicID(staff *models.Customer) (uint, error) {
	if staff == nil || !staff.IsClinicStaff() || staff.ClinicID == nil {
		return 0, ErrQuoteAccessDenied
	}
	return *staff.ClinicID, nil
}

// CreateOffer publishes a new special offer for the staff member's clinic
func (caf *ClinicAdminFlowImpl) CreateOffer(ctx context.Context, staff *models.Customer, req *dto.CreateOfferRequest, metadata *ClientMetadata) (*dto.OfferDTO, error) {
	clinicID, err := staffClinicID(staff)
	if err != nil {
		return nil, NewBusinessError("OFFER_CREATE_FAILED", "Not authorized to manage offers", err)
	}

	validFrom, err := parseRFC3339Ptr(req.ValidFrom)
	if err != nil {
		return nil, NewBusinessError("OFFER_CREATE_FAILED", "Invalid valid_from", err)
	}
	validUntil, err := parseRFC3339Ptr(req.ValidUntil)
	if err != nil {
		return nil, NewBusinessError("OFFER_CREATE_FAILED", "Invalid valid_until", err)
	}

	// Only known catalog keys may be scoped, a typo would silently make the
	// offer flag-only.
	for _, key := range req.ApplicableTreatments {
		t, err := caf.treatmentRepo.ByKey(ctx, key)
		if err != nil {
			return nil, NewBusinessError("OFFER_CREATE_FAILED", "Failed to validate treatments", err)
		}
		if t == nil {
			return nil, NewBusinessErrorf("OFFER_CREATE_FAILED", fmt.Sprintf("Unknown treatment %q", key), ErrTreatmentNotFound)
		}
	}

	offer := &models.SpecialOffer{
		ClinicID:             clinicID,
		Title:                strings.TrimSpace(req.Title),
		DiscountType:         req.DiscountType,
		DiscountValue:        req.DiscountValue,
		ApplicableTreatments: pq.StringArray(req.ApplicableTreatments),
		ValidFrom:            validFrom,
		ValidUntil:           validUntil,
		IsActive:             utils.ToPtr(true),
	}
	if offer.ApplicableTreatments == nil {
		offer.ApplicableTreatments = pq.StringArray{}
	}

	err = repository.WithTransaction(ctx, caf.db, func(txCtx context.Context) error {
		return caf.offerRepo.Save(txCtx, offer)
	})
	if err != nil {
		return nil, NewBusinessError("OFFER_CREATE_FAILED", "Failed to create offer", err)
	}

	caf.audit(ctx, staff, models.AuditActionOfferCreated, fmt.Sprintf("Offer %s created for clinic %d", offer.UUID, clinicID), metadata)

	result := toOfferDTO(offer)
	return &result, nil
}

// UpdateOffer toggles an offer's active state or shortens its validity window
func (caf *ClinicAdminFlowImpl) UpdateOffer(ctx context.Context, staff *models.Customer, offerUUID string, req *dto.UpdateOfferRequest, metadata *ClientMetadata) (*dto.OfferDTO, error) {
	clinicID, err := staffClinicID(staff)
	if err != nil {
		return nil, NewBusinessError("OFFER_UPDATE_FAILED", "Not authorized to manage offers", err)
	}

	offer, err := caf.offerRepo.ByUUID(ctx, offerUUID)
	if err != nil {
		return nil, NewBusinessError("OFFER_UPDATE_FAILED", "Failed to load offer", err)
	}
	if offer == nil {
		return nil, NewBusinessError("OFFER_NOT_FOUND", "Offer not found", ErrOfferNotFound)
	}
	if offer.ClinicID != clinicID {
		return nil, NewBusinessError("OFFER_UPDATE_FAILED", "Offer belongs to another clinic", ErrOfferWrongClinic)
	}

	if req.IsActive != nil {
		offer.IsActive = req.IsActive
	}
	if req.ValidUntil != nil {
		validUntil, err := parseRFC3339Ptr(req.ValidUntil)
		if err != nil {
			return nil, NewBusinessError("OFFER_UPDATE_FAILED", "Invalid valid_until", err)
		}
		offer.ValidUntil = validUntil
	}
	offer.UpdatedAt = utils.UTCNow()

	err = repository.WithTransaction(ctx, caf.db, func(txCtx context.Context) error {
		return caf.offerRepo.Save(txCtx, offer)
	})
	if err != nil {
		return nil, NewBusinessError("OFFER_UPDATE_FAILED", "Failed to update offer", err)
	}

	caf.audit(ctx, staff, models.AuditActionOfferUpdated, fmt.Sprintf("Offer %s updated", offer.UUID), metadata)

	result := toOfferDTO(offer)
	return &result, nil
}

// ListOffers returns every offer of the staff member's clinic, live or not
func (caf *ClinicAdminFlowImpl) ListOffers(ctx context.Context, staff *models.Customer) ([]dto.OfferDTO, error) {
	clinicID, err := staffClinicID(staff)
	if err != nil {
		return nil, NewBusinessError("OFFER_LIST_FAILED", "Not authorized to manage offers", err)
	}

	offers, err := caf.offerRepo.ListByClinic(ctx, clinicID)
	if err != nil {
		return nil, NewBusinessError("OFFER_LIST_FAILED", "Failed to list offers", err)
	}

	result := make([]dto.OfferDTO, 0, len(offers))
	for _, o := range offers {
		result = append(result, toOfferDTO(o))
	}
	return result, nil
}

// ListOfferUsage reports which quotes rode an offer and with what prices
func (caf *ClinicAdminFlowImpl) ListOfferUsage(ctx context.Context, staff *models.Customer, offerUUID string, page, pageSize int) ([]dto.OfferUsageDTO, error) {
	clinicID, err := staffClinicID(staff)
	if err != nil {
		return nil, NewBusinessError("OFFER_USAGE_FAILED", "Not authorized to manage offers", err)
	}
	if page < 1 {
		return nil, NewBusinessError("OFFER_USAGE_FAILED", "Invalid page", ErrInvalidPage)
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, NewBusinessError("OFFER_USAGE_FAILED", "Invalid page size", ErrInvalidPageSize)
	}

	offer, err := caf.offerRepo.ByUUID(ctx, offerUUID)
	if err != nil {
		return nil, NewBusinessError("OFFER_USAGE_FAILED", "Failed to load offer", err)
	}
	if offer == nil {
		return nil, NewBusinessError("OFFER_NOT_FOUND", "Offer not found", ErrOfferNotFound)
	}
	if offer.ClinicID != clinicID {
		return nil, NewBusinessError("OFFER_USAGE_FAILED", "Offer belongs to another clinic", ErrOfferWrongClinic)
	}

	usages, err := caf.appliedOfferRepo.ListByOffer(ctx, offer.ID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("OFFER_USAGE_FAILED", "Failed to list offer usage", err)
	}

	result := make([]dto.OfferUsageDTO, 0, len(usages))
	for _, u := range usages {
		row := dto.OfferUsageDTO{
			UsageStatus:        u.UsageStatus,
			OriginalPriceGBP:   u.OriginalPriceGBP,
			DiscountedPriceGBP: u.DiscountedPriceGBP,
			CreatedAt:          u.CreatedAt.UTC().Format(time.RFC3339),
		}
		quote, err := caf.quoteRepo.ByID(ctx, u.QuoteID)
		if err == nil && quote != nil {
			row.QuoteUUID = quote.UUID.String()
		}
		result = append(result, row)
	}
	return result, nil
}

// CreatePromoCode registers a new promo code. Codes are global, but only
// clinic staff accounts may mint them.
func (caf *ClinicAdminFlowImpl) CreatePromoCode(ctx context.Context, staff *models.Customer, req *dto.CreatePromoCodeRequest, metadata *ClientMetadata) (*models.PromoCode, error) {
	if _, err := staffClinicID(staff); err != nil {
		return nil, NewBusinessError("PROMO_CREATE_FAILED", "Not authorized to manage promo codes", err)
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))

	existing, err := caf.promoRepo.ByCode(ctx, code)
	if err != nil {
		return nil, NewBusinessError("PROMO_CREATE_FAILED", "Failed to check promo code", err)
	}
	if existing != nil {
		return nil, NewBusinessErrorf("PROMO_CREATE_FAILED", fmt.Sprintf("Promo code %q already exists", code), ErrPromoCodeExists)
	}

	expiresAt, err := parseRFC3339Ptr(req.ExpiresAt)
	if err != nil {
		return nil, NewBusinessError("PROMO_CREATE_FAILED", "Invalid expires_at", err)
	}

	promo := &models.PromoCode{
		Code:          code,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		MaxUses:       req.MaxUses,
		ExpiresAt:     expiresAt,
		IsActive:      utils.ToPtr(true),
	}

	err = repository.WithTransaction(ctx, caf.db, func(txCtx context.Context) error {
		return caf.promoRepo.Save(txCtx, promo)
	})
	if err != nil {
		return nil, NewBusinessError("PROMO_CREATE_FAILED", "Failed to create promo code", err)
	}

	caf.audit(ctx, staff, models.AuditActionPromoCreated, fmt.Sprintf("Promo code %s created", promo.Code), metadata)
	return promo, nil
}

// CreatePackage publishes a fixed-price bundle for the staff member's clinic
func (caf *ClinicAdminFlowImpl) CreatePackage(ctx context.Context, staff *models.Customer, req *dto.CreatePackageRequest, metadata *ClientMetadata) (*models.TreatmentPackage, error) {
	clinicID, err := staffClinicID(staff)
	if err != nil {
		return nil, NewBusinessError("PACKAGE_CREATE_FAILED", "Not authorized to manage packages", err)
	}

	items := make([]models.TreatmentPackageItem, 0, len(req.Items))
	for _, item := range req.Items {
		t, err := caf.treatmentRepo.ByKey(ctx, item.TreatmentKey)
		if err != nil {
			return nil, NewBusinessError("PACKAGE_CREATE_FAILED", "Failed to validate treatments", err)
		}
		if t == nil {
			return nil, NewBusinessErrorf("PACKAGE_CREATE_FAILED", fmt.Sprintf("Unknown treatment %q", item.TreatmentKey), ErrTreatmentNotFound)
		}
		items = append(items, models.TreatmentPackageItem{
			TreatmentKey: t.Key,
			Quantity:     item.Quantity,
			SplitGBP:     item.SplitGBP,
		})
	}

	pkg := &models.TreatmentPackage{
		ClinicID:       clinicID,
		Name:           strings.TrimSpace(req.Name),
		BundlePriceGBP: req.BundlePriceGBP,
		IsActive:       utils.ToPtr(true),
		Items:          items,
	}

	err = repository.WithTransaction(ctx, caf.db, func(txCtx context.Context) error {
		return caf.packageRepo.Save(txCtx, pkg)
	})
	if err != nil {
		return nil, NewBusinessError("PACKAGE_CREATE_FAILED", "Failed to create package", err)
	}

	caf.audit(ctx, staff, models.AuditActionPackageCreated, fmt.Sprintf("Package %s created for clinic %d", pkg.UUID, clinicID), metadata)
	return pkg, nil
}

func parseRFC3339Ptr(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, err
	}
	u := t.UTC()
	return &u, nil
}

func (caf *ClinicAdminFlowImpl) audit(ctx context.Context, staff *models.Customer, action string, description string, metadata *ClientMetadata) {
	var customerID *uint
	if staff != nil {
		customerID = &staff.ID
	}

	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		CustomerID:  customerID,
		Action:      action,
		Description: &description,
		Success:     utils.ToPtr(true),
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	}

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		audit.RequestID = &requestID
	}

	_ = caf.auditRepo.Save(ctx, audit)
}
