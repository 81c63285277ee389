package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/smiletrip/smiletrip/app/dto"
	"github.com/smiletrip/smiletrip/models"
	"github.com/smiletrip/smiletrip/pricing"
	"github.com/smiletrip/smiletrip/repository"
	"github.com/smiletrip/smiletrip/utils"
)

// CatalogFlow serves the public browsing surface: clinics, tier-priced
// treatments, packages and live special offers.
type CatalogFlow interface {
	ListClinics(ctx context.Context) ([]dto.ClinicDTO, error)
	GetClinicCatalog(ctx context.Context, clinicUUID string) (*dto.ClinicCatalogResponse, error)
}

// CatalogFlowImpl implements the catalog business flow
type CatalogFlowImpl struct {
	clinicRepo    repository.ClinicRepository
	treatmentRepo repository.TreatmentRepository
	packageRepo   repository.TreatmentPackageRepository
	offerRepo     repository.SpecialOfferRepository
	cache         *redis.Client
	cacheTTL      time.Duration
	usdRate       decimal.Decimal
}

// NewCatalogFlow creates a new catalog flow instance. cache may be nil, in
// which case every call hits the database.
func NewCatalogFlow(
	clinicRepo repository.ClinicRepository,
	treatmentRepo repository.TreatmentRepository,
	packageRepo repository.TreatmentPackageRepository,
	offerRepo repository.SpecialOfferRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
	usdRate decimal.Decimal,
) CatalogFlow {
	if cacheTTL <= 0 {
		cacheTTL = utils.CatalogCacheTTL
	}
	return &CatalogFlowImpl{
		clinicRepo:    clinicRepo,
		treatmentRepo: treatmentRepo,
		packageRepo:   packageRepo,
		offerRepo:     offerRepo,
		cache:         cache,
		cacheTTL:      cacheTTL,
		usdRate:       usdRate,
	}
}

// ListClinics returns every active partner clinic
func (cf *CatalogFlowImpl) ListClinics(ctx context.Context) ([]dto.ClinicDTO, error) {
	cacheKey := "catalog:clinics"

	var cached []dto.ClinicDTO
	if cf.readCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	clinics, err := cf.clinicRepo.ListActive(ctx)
	if err != nil {
		return nil, NewBusinessError("CATALOG_FAILED", "Failed to list clinics", err)
	}

	result := make([]dto.ClinicDTO, 0, len(clinics))
	for _, c := range clinics {
		result = append(result, toClinicDTO(c))
	}


	cf.writeCache(ctx, cacheKey, result)
	return result, nil
}

// GetClinicCatalog returns one clinic with its tier-priced treatment list,
// packages and currently live special offers.
func (cf *CatalogFlowImpl) GetClinicCatalog(ctx context.Context, clinicUUID string) (*dto.ClinicCatalogResponse, error) {
	id, err := uuid.Parse(clinicUUID)
	if err != nil {
		return nil, NewBusinessError("INVALID_CLINIC", "Invalid clinic identifier", err)
	}

	cacheKey := fmt.Sprintf("catalog:clinic:%s", id)

	var cached dto.ClinicCatalogResponse
	if cf.readCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	clinic, err := cf.clinicRepo.ByUUID(ctx, id.String())
	if err != nil {
		return nil, NewBusinessError("CATALOG_FAILED", "Failed to load clinic", err)
	}
	if clinic == nil {
		return nil, NewBusinessError("CLINIC_NOT_FOUND", "Clinic not found", ErrClinicNotFound)
	}
	if !utils.IsTrue(clinic.IsActive) {
		return nil, NewBusinessError("CLINIC_INACTIVE", "Clinic is not active", ErrClinicInactive)
	}

	treatments, err := cf.treatmentRepo.ListActive(ctx)
	if err != nil {
		return nil, NewBusinessError("CATALOG_FAILED", "Failed to load treatments", err)
	}

	packages, err := cf.packageRepo.ListActiveByClinic(ctx, clinic.ID)
	if err != nil {
		return nil, NewBusinessError("CATALOG_FAILED", "Failed to load packages", err)
	}

	offers, err := cf.offerRepo.ListActiveByClinic(ctx, clinic.ID, utils.UTCNow())
	if err != nil {
		return nil, NewBusinessError("CATALOG_FAILED", "Failed to load special offers", err)
	}

	byKey := make(map[string]*models.Treatment, len(treatments))
	treatmentDTOs := make([]dto.TreatmentDTO, 0, len(treatments))
	for _, t := range treatments {
		byKey[t.Key] = t
		treatmentDTOs = append(treatmentDTOs, toTreatmentDTO(t, clinic.Tier, cf.usdRate))
	}

	packageDTOs := make([]dto.PackageDTO, 0, len(packages))
	for _, p := range packages {
		packageDTOs = append(packageDTOs, cf.toPackageDTO(p, clinic.Tier, byKey))
	}

	offerDTOs := make([]dto.OfferDTO, 0, len(offers))
	for _, o := range offers {
		offerDTOs = append(offerDTOs, toOfferDTO(o))
	}

	response := &dto.ClinicCatalogResponse{
		Clinic:     toClinicDTO(clinic),
		Treatments: treatmentDTOs,
		Packages:   packageDTOs,
		Offers:     offerDTOs,
	}

	cf.writeCache(ctx, cacheKey, response)
	return response, nil
}

func toClinicDTO(c *models.Clinic) dto.ClinicDTO {
	return dto.ClinicDTO{
		UUID:    c.UUID.String(),
		Name:    c.Name,
		City:    c.City,
		Country: c.Country,
		Tier:    c.Tier,
	}
}

func toTreatmentDTO(t *models.Treatment, tier string, usdRate decimal.Decimal) dto.TreatmentDTO {
	unitGBP := t.PriceForTier(tier)

	out := dto.TreatmentDTO{
		Key:          t.Key,
		Category:     t.Category,
		Guarantee:    t.Guarantee,
		UnitPriceGBP: unitGBP,
		UnitPriceUSD: pricing.Round2(unitGBP.Mul(usdRate)),
	}

	if t.UKPriceGBP.IsPositive() {
		ukPrice := t.UKPriceGBP
		savings := pricing.Round2(ukPrice.Sub(unitGBP))
		out.UKPriceGBP = &ukPrice
		out.SavingsGBP = &savings
	}

	return out
}

// toPackageDTO prices the package against buying each treatment separately at
// the clinic's tier. Savings can come out negative when the bundle is priced
// above the sum of its parts, the DTO reports it as-is.
func (cf *CatalogFlowImpl) toPackageDTO(p *models.TreatmentPackage, tier string, byKey map[string]*models.Treatment) dto.PackageDTO {
	items := make([]dto.PackageItemDTO, 0, len(p.Items))
	separate := decimal.Zero
	for _, item := range p.Items {
		items = append(items, dto.PackageItemDTO{
			TreatmentKey: item.TreatmentKey,
			Quantity:     item.Quantity,
		})
		if t, ok := byKey[item.TreatmentKey]; ok {
			separate = separate.Add(pricing.Round2(t.PriceForTier(tier).Mul(decimal.NewFromInt(int64(item.Quantity)))))
		}
	}

	return dto.PackageDTO{
		UUID:           p.UUID.String(),
		Name:           p.Name,
		BundlePriceGBP: p.BundlePriceGBP,
		BundlePriceUSD: pricing.Round2(p.BundlePriceGBP.Mul(cf.usdRate)),
		SavingsGBP:     pricing.Round2(separate.Sub(p.BundlePriceGBP)),
		Items:          items,
	}
}

func toOfferDTO(o *models.SpecialOffer) dto.OfferDTO {
	out := dto.OfferDTO{
		UUID:                 o.UUID.String(),
		Title:                o.Title,
		DiscountType:         o.DiscountType,
		DiscountValue:        o.DiscountValue,
		ApplicableTreatments: o.ApplicableTreatments,
	}
	if o.ValidFrom != nil {
		s := o.ValidFrom.UTC().Format(time.RFC3339)
		out.ValidFrom = &s
	}
	if o.ValidUntil != nil {
		s := o.ValidUntil.UTC().Format(time.RFC3339)
		out.ValidUntil = &s
	}
	return out
}

func (cf *CatalogFlowImpl) readCache(ctx context.Context, key string, dest any) bool {
	if cf.cache == nil {
		return false
	}
	raw, err := cf.cache.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (cf *CatalogFlowImpl) writeCache(ctx context.Context, key string, value any) {
	if cf.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	// Cache write failures are invisible to callers, the next read falls
	// through to the database.
	_ = cf.cache.Set(ctx, key, raw, cf.cacheTTL).Err()
}
