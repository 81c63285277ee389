package pricing

import "github.com/shopspring/decimal"

// PackageItem is one treatment inside a package definition with its required
// quantity and the current catalog unit price (display/audit weight only; the
// bundle price, not the sum of parts, is authoritative).
type PackageItem struct {
	TreatmentKey        string          `json:"treatment_key"`
	Quantity            int             `json:"quantity"`
	CatalogUnitPriceGBP decimal.Decimal `json:"catalog_unit_price_gbp"`
	Guarantee           string          `json:"guarantee,omitempty"`

	// SplitGBP, when set on every item, is the authoring-time explicit share
	// of the bundle price for this item in place of pro-rata apportioning.
	SplitGBP *decimal.Decimal `json:"split_gbp,omitempty"`
}

// PackageDef is an immutable treatment bundle: an ordered item list plus a
// single bundle price that supersedes the sum of individual prices.
type PackageDef struct {
	ID             uint            `json:"id"`
	Name           string          `json:"name"`
	BundlePriceGBP decimal.Decimal `json:"bundle_price_gbp"`
	Items          []PackageItem   `json:"items"`
}

// ExpandResult carries the materialized package lines, the informational
// savings figure, and any data-quality warnings.
type ExpandResult struct {
	Lines    []Line
	Savings  decimal.Decimal
	Warnings []Warning
}

// ExpandPackage materializes a package into locked treatment lines whose
// subtotals are apportioned from the bundle price. The apportioning is
// penny-perfect: any rounding remainder lands on the first line so the line
// subtotals always sum to the bundle price exactly.
func ExpandPackage(def PackageDef) (ExpandResult, error) {
	if len(def.Items) == 0 {
		return ExpandResult{}, ErrEmptyPackage
	}
	if def.BundlePriceGBP.LessThanOrEqual(decimal.Zero) {
		return ExpandResult{}, ErrInvalidBundlePrice
	}
	for _, it := range def.Items {
		if it.Quantity <= 0 {
			return ExpandResult{}, ErrInvalidQuantity
		}
		if it.CatalogUnitPriceGBP.IsNegative() {
			return ExpandResult{}, ErrInvalidUnitPrice
		}
	}

	bundle := Round2(def.BundlePriceGBP)
	allocations, err := apportion(def.Items, bundle)
	if err != nil {
		return ExpandResult{}, err
	}

	pkgID := def.ID
	lines := make([]Line, 0, len(def.Items))
	for i, it := range def.Items {
		qty := decimal.NewFromInt(int64(it.Quantity))
		unit := allocations[i].Div(qty)
		lines = append(lines, Line{
			Name:                 it.TreatmentKey,
			Quantity:             it.Quantity,
			Guarantee:            it.Guarantee,
			UnitPriceGBP:         unit,
			OriginalUnitPriceGBP: unit,
			IsLocked:             true,
			IsPackageItem:        true,
			PackageID:            &pkgID,
		})
	}

	res := ExpandResult{Lines: lines}

	catalogTotal := decimal.Zero
	for _, it := range def.Items {
		catalogTotal = catalogTotal.Add(it.CatalogUnitPriceGBP.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	savings := Round2(catalogTotal.Sub(bundle))
	if savings.IsNegative() {
		// A bundle priced above the sum of its parts is a catalog data
		// problem, not a customer-visible negative saving.
		res.Savings = decimal.Zero
		res.Warnings = append(res.Warnings, WarningNegativePackageSavings)
	} else {
		res.Savings = savings
	}

	return res, nil
}

// apportion splits the bundle price across items: by explicit splits when
// every item carries one, otherwise pro-rata by catalog weight. The rounding
// remainder is assigned to the first item.
func apportion(items []PackageItem, bundle decimal.Decimal) ([]decimal.Decimal, error) {
	allocations := make([]decimal.Decimal, len(items))

	explicit := true
	for _, it := range items {
		if it.SplitGBP == nil {
			explicit = false
			break
		}
	}
	if explicit {
		sum := decimal.Zero
		for i, it := range items {
			allocations[i] = Round2(*it.SplitGBP)
			sum = sum.Add(allocations[i])
		}
		if !sum.Equal(bundle) {
			return nil, ErrInvalidSplit
		}
		return allocations, nil
	}

	totalWeight := decimal.Zero
	for _, it := range items {
		totalWeight = totalWeight.Add(it.CatalogUnitPriceGBP.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	assigned := decimal.Zero
	for i, it := range items {
		if totalWeight.IsZero() {
			// Zero-priced catalog data: fall back to an even split.
			allocations[i] = Round2(bundle.Div(decimal.NewFromInt(int64(len(items)))))
		} else {
			weight := it.CatalogUnitPriceGBP.Mul(decimal.NewFromInt(int64(it.Quantity)))
			allocations[i] = Round2(bundle.Mul(weight).Div(totalWeight))
		}
		assigned = assigned.Add(allocations[i])
	}

	// Penny remainder onto the first line keeps sum(lines) == bundle exact.
	allocations[0] = allocations[0].Add(bundle.Sub(assigned))
	return allocations, nil
}
