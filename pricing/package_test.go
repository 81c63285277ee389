package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lineValueSum(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(Round2(l.UnitPriceGBP.Mul(decimal.NewFromInt(int64(l.Quantity)))))
	}
	return sum
}

func TestExpandPackage(t *testing.T) {
	t.Run("PennyConservation", func(t *testing.T) {
		defs := []PackageDef{
			{
				ID: 1, Name: "Smile Makeover", BundlePriceGBP: dec("2500.00"),
				Items: []PackageItem{
					{TreatmentKey: "Dental Implant", Quantity: 2, CatalogUnitPriceGBP: dec("1000.00")},
					{TreatmentKey: "Zirconia Crown", Quantity: 4, CatalogUnitPriceGBP: dec("250.00")},
				},
			},
			{
				ID: 2, Name: "Single Item", BundlePriceGBP: dec("99.99"),
				Items: []PackageItem{
					{TreatmentKey: "Teeth Whitening", Quantity: 1, CatalogUnitPriceGBP: dec("150.00")},
				},
			},
			{
				ID: 3, Name: "Awkward Thirds", BundlePriceGBP: dec("100.00"),
				Items: []PackageItem{
					{TreatmentKey: "Filling", Quantity: 1, CatalogUnitPriceGBP: dec("33.00")},
					{TreatmentKey: "Extraction", Quantity: 1, CatalogUnitPriceGBP: dec("33.00")},
					{TreatmentKey: "Cleaning", Quantity: 1, CatalogUnitPriceGBP: dec("33.00")},
				},
			},
		}

		for _, def := range defs {
			res, err := ExpandPackage(def)
			require.NoError(t, err, def.Name)
			sum := lineValueSum(res.Lines)
			assert.True(t, sum.Equal(Round2(def.BundlePriceGBP)),
				"%s: line sum %s != bundle %s", def.Name, sum, def.BundlePriceGBP)
		}
	})

	t.Run("LinesAreLockedPackageItems", func(t *testing.T) {
		res, err := ExpandPackage(PackageDef{
			ID: 7, BundlePriceGBP: dec("500.00"),
			Items: []PackageItem{
				{TreatmentKey: "Veneer", Quantity: 4, CatalogUnitPriceGBP: dec("180.00")},
			},
		})
		require.NoError(t, err)
		require.Len(t, res.Lines, 1)
		l := res.Lines[0]
		assert.True(t, l.IsLocked)
		assert.True(t, l.IsPackageItem)
		require.NotNil(t, l.PackageID)
		assert.Equal(t, uint(7), *l.PackageID)
	})

	t.Run("SavingsFromCatalogPrices", func(t *testing.T) {
		res, err := ExpandPackage(PackageDef{
			ID: 1, BundlePriceGBP: dec("2500.00"),
			Items: []PackageItem{
				{TreatmentKey: "Dental Implant", Quantity: 2, CatalogUnitPriceGBP: dec("1000.00")},
				{TreatmentKey: "Zirconia Crown", Quantity: 4, CatalogUnitPriceGBP: dec("250.00")},
			},
		})
		require.NoError(t, err)
		// catalog total 3000 - bundle 2500
		assert.True(t, res.Savings.Equal(dec("500.00")), "got %s", res.Savings)
		assert.Empty(t, res.Warnings)
	})

	t.Run("NegativeSavingsClampedWithWarning", func(t *testing.T) {
		res, err := ExpandPackage(PackageDef{
			ID: 2, BundlePriceGBP: dec("400.00"),
			Items: []PackageItem{
				{TreatmentKey: "Teeth Whitening", Quantity: 1, CatalogUnitPriceGBP: dec("150.00")},
			},
		})
		require.NoError(t, err)
		assert.True(t, res.Savings.IsZero())
		assert.Contains(t, res.Warnings, WarningNegativePackageSavings)
	})

	t.Run("ExplicitSplits", func(t *testing.T) {
		s1, s2 := dec("300.00"), dec("200.00")
		res, err := ExpandPackage(PackageDef{
			ID: 4, BundlePriceGBP: dec("500.00"),
			Items: []PackageItem{
				{TreatmentKey: "Implant", Quantity: 1, CatalogUnitPriceGBP: dec("400.00"), SplitGBP: &s1},
				{TreatmentKey: "Crown", Quantity: 2, CatalogUnitPriceGBP: dec("150.00"), SplitGBP: &s2},
			},
		})
		require.NoError(t, err)
		assert.True(t, res.Lines[0].UnitPriceGBP.Equal(dec("300.00")))
		assert.True(t, res.Lines[1].UnitPriceGBP.Equal(dec("100.00")))
	})

	t.Run("ExplicitSplitsMustSumToBundle", func(t *testing.T) {
		s1, s2 := dec("300.00"), dec("150.00")
		_, err := ExpandPackage(PackageDef{
			ID: 4, BundlePriceGBP: dec("500.00"),
			Items: []PackageItem{
				{TreatmentKey: "Implant", Quantity: 1, CatalogUnitPriceGBP: dec("400.00"), SplitGBP: &s1},
				{TreatmentKey: "Crown", Quantity: 2, CatalogUnitPriceGBP: dec("150.00"), SplitGBP: &s2},
			},
		})
		assert.ErrorIs(t, err, ErrInvalidSplit)
	})

	t.Run("RejectsEmptyPackage", func(t *testing.T) {
		_, err := ExpandPackage(PackageDef{ID: 5, BundlePriceGBP: dec("100.00")})
		assert.ErrorIs(t, err, ErrEmptyPackage)
	})

	t.Run("RejectsNonPositiveBundlePrice", func(t *testing.T) {
		_, err := ExpandPackage(PackageDef{
			ID: 6, BundlePriceGBP: decimal.Zero,
			Items: []PackageItem{
				{TreatmentKey: "Filling", Quantity: 1, CatalogUnitPriceGBP: dec("40.00")},
			},
		})
		assert.ErrorIs(t, err, ErrInvalidBundlePrice)
	})
}
