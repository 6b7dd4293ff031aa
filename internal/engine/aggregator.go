package engine

import (
	"salesdash/internal/models"

	"github.com/shopspring/decimal"
)

// DateLayout is the key format of SumByDate. It sorts chronologically as a string.
const DateLayout = "2006-01-02"

// Every grouping below only creates keys that occur in the view. An empty view
// yields an empty, non-nil result.

// SumByStore maps each store present in view to the sum of its total prices.
func SumByStore(view []models.SalesRecord) map[string]float64 {
	return sumBy(view, func(r *models.SalesRecord) string { return r.Store })
}

// SumByCategory maps each category present in view to the sum of its total prices.
func SumByCategory(view []models.SalesRecord) map[string]float64 {
	return sumBy(view, func(r *models.SalesRecord) string { return r.Category })
}

// SumByDate maps each order date (DateLayout) present in view to the sum of
// its total prices. The map is unordered; callers plotting a trend sort the keys.
func SumByDate(view []models.SalesRecord) map[string]float64 {
	return sumBy(view, func(r *models.SalesRecord) string { return r.OrderDate.Format(DateLayout) })
}

// CountByTypeAndGender counts orders per (customer type, gender). The result
// is sparse: combinations with no orders are absent, not zero. Callers that
// need the full type x gender grid fill in the zeros themselves.
func CountByTypeAndGender(view []models.SalesRecord) map[models.TypeGender]int {
	out := make(map[models.TypeGender]int)
	for i := range view {
		out[models.TypeGender{CustomerType: view[i].CustomerType, Gender: view[i].Gender}]++
	}
	return out
}

// RatingDistributionByCategory collects the ratings of each category in view
// order. No quantiles are computed here.
func RatingDistributionByCategory(view []models.SalesRecord) map[string][]float64 {
	out := make(map[string][]float64)
	for i := range view {
		out[view[i].Category] = append(out[view[i].Category], view[i].Rating)
	}
	return out
}

// PriceQuantityRows projects every record of view to a CorrelationRow, one per
// record and in view order.
func PriceQuantityRows(view []models.SalesRecord) []models.CorrelationRow {
	out := make([]models.CorrelationRow, len(view))
	for i := range view {
		out[i] = models.CorrelationRow{
			UnitPrice:  view[i].UnitPrice,
			Quantity:   view[i].Quantity,
			Category:   view[i].Category,
			TotalPrice: view[i].TotalPrice,
		}
	}
	return out
}

func sumBy(view []models.SalesRecord, key func(*models.SalesRecord) string) map[string]float64 {
	acc := make(map[string]decimal.Decimal)
	for i := range view {
		k := key(&view[i])
		acc[k] = acc[k].Add(decimal.NewFromFloat(view[i].TotalPrice))
	}

	out := make(map[string]float64, len(acc))
	for k, v := range acc {
		out[k] = v.InexactFloat64()
	}
	return out
}
