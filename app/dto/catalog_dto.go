package dto

import "github.com/shopspring/decimal"

// ClinicDTO is one partner clinic in catalog responses
type ClinicDTO struct {
	UUID        string  `json:"uuid"`
	Name        string  `json:"name"`
	City        string  `json:"city"`
	Country     string  `json:"country"`
	Tier        string  `json:"tier"`
	Description *string `json:"description,omitempty"`
}

// TreatmentDTO is one catalog procedure priced for a clinic tier. SavingsGBP
// compares against the UK private price when one is known.
type TreatmentDTO struct {
	Key          string           `json:"key"`
	Category     string           `json:"category"`
	Guarantee    string           `json:"guarantee,omitempty"`
	UnitPriceGBP decimal.Decimal  `json:"unit_price_gbp"`
	UnitPriceUSD decimal.Decimal  `json:"unit_price_usd"`
	UKPriceGBP   *decimal.Decimal `json:"uk_price_gbp,omitempty"`
	SavingsGBP   *decimal.Decimal `json:"savings_gbp,omitempty"`
}

// PackageItemDTO is one treatment inside a package listing
type PackageItemDTO struct {
	TreatmentKey string `json:"treatment_key"`
	Quantity     int    `json:"quantity"`
}

// PackageDTO is one fixed-price bundle in catalog responses
type PackageDTO struct {
	UUID           string           `json:"uuid"`
	Name           string           `json:"name"`
	BundlePriceGBP decimal.Decimal  `json:"bundle_price_gbp"`
	BundlePriceUSD decimal.Decimal  `json:"bundle_price_usd"`
	SavingsGBP     decimal.Decimal  `json:"savings_gbp"`
	Items          []PackageItemDTO `json:"items"`
}

// OfferDTO is one live special offer in catalog responses
type OfferDTO struct {
	UUID                 string          `json:"uuid"`
	Title                string          `json:"title"`
	DiscountType         string          `json:"discount_type"`
	DiscountValue        decimal.Decimal `json:"discount_value"`
	ApplicableTreatments []string        `json:"applicable_treatments,omitempty"`
	ValidFrom            *string         `json:"valid_from,omitempty"`
	ValidUntil           *string         `json:"valid_until,omitempty"`
}

// ClinicCatalogResponse bundles everything a patient browsing one clinic needs
type ClinicCatalogResponse struct {
	Clinic     ClinicDTO      `json:"clinic"`
	Treatments []TreatmentDTO `json:"treatments"`
	Packages   []PackageDTO   `json:"packages"`
	Offers     []OfferDTO     `json:"special_offers"`
}
