package engine

import (
	"salesdash/internal/models"

	"github.com/shopspring/decimal"
)

// Sums go through decimal so totals built from two-place prices come out at
// two places, whatever order the rows arrive in.

func TotalSales(view []models.SalesRecord) float64 {
	return sumTotals(view).InexactFloat64()
}

func OrderCount(view []models.SalesRecord) int {
	return len(view)
}

// AvgOrderValue is TotalSales / OrderCount, or 0 for an empty view.
func AvgOrderValue(view []models.SalesRecord) float64 {
	if len(view) == 0 {
		return 0
	}
	return sumTotals(view).Div(decimal.NewFromInt(int64(len(view)))).InexactFloat64()
}

// AvgRating is the mean rating, or 0 for an empty view.
func AvgRating(view []models.SalesRecord) float64 {
	if len(view) == 0 {
		return 0
	}
	sum := decimal.Zero
	for i := range view {
		sum = sum.Add(decimal.NewFromFloat(view[i].Rating))
	}
	return sum.Div(decimal.NewFromInt(int64(len(view)))).InexactFloat64()
}

// Summarize computes the four headline metrics. An empty view yields the zero
// Summary.
func Summarize(view []models.SalesRecord) models.Summary {
	return models.Summary{
		TotalSales:    TotalSales(view),
		OrderCount:    OrderCount(view),
		AvgOrderValue: AvgOrderValue(view),
		AvgRating:     AvgRating(view),
	}
}

func sumTotals(view []models.SalesRecord) decimal.Decimal {
	sum := decimal.Zero
	for i := range view {
		sum = sum.Add(decimal.NewFromFloat(view[i].TotalPrice))
	}
	return sum
}
