// Package report turns the engine's raw aggregates into chart-ready series.
// It is the consumer the engine's contracts leave work to: it sorts the daily
// trend, fills the customer grid with zeros and summarizes rating multisets.
package report

import (
	"sort"

	"salesdash/internal/engine"
	"salesdash/internal/models"
)

var (
	customerTypes = []models.CustomerType{models.Member, models.Regular}
	genders       = []models.Gender{models.Male, models.Female}
)

// Build computes every dashboard panel over one filtered view.
func Build(view []models.SalesRecord) *models.DashboardData {
	return &models.DashboardData{
		Summary:         engine.Summarize(view),
		StoreSales:      StoreSales(engine.SumByStore(view)),
		CategorySales:   CategoryShares(engine.SumByCategory(view)),
		DailySales:      DailyTrend(engine.SumByDate(view)),
		CustomerSegment: DenseSegments(engine.CountByTypeAndGender(view)),
		RatingBoxes:     RatingBoxes(engine.RatingDistributionByCategory(view)),
		Scatter:         engine.PriceQuantityRows(view),
	}
}

// StoreSales orders stores by name so bars keep their place as filters change.
func StoreSales(byStore map[string]float64) []models.NamedValue {
	out := make([]models.NamedValue, 0, len(byStore))
	for name, v := range byStore {
		out = append(out, models.NamedValue{Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CategoryShares adds each category's percentage of the total, largest first.
func CategoryShares(byCategory map[string]float64) []models.CategoryShare {
	var total float64
	for _, v := range byCategory {
		total += v
	}

	out := make([]models.CategoryShare, 0, len(byCategory))
	for name, v := range byCategory {
		share := models.CategoryShare{Category: name, Sales: v}
		if total > 0 {
			share.Percent = v / total * 100
		}
		out = append(out, share)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sales != out[j].Sales {
			return out[i].Sales > out[j].Sales
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// DailyTrend sorts the per-date sums chronologically.
func DailyTrend(byDate map[string]float64) []models.DailyPoint {
	out := make([]models.DailyPoint, 0, len(byDate))
	for d, v := range byDate {
		out = append(out, models.DailyPoint{Date: d, Sales: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// DenseSegments expands the sparse type x gender counts to the full grid,
// with zero for combinations that have no orders.
func DenseSegments(counts map[models.TypeGender]int) []models.SegmentCount {
	out := make([]models.SegmentCount, 0, len(customerTypes)*len(genders))
	for _, ct := range customerTypes {
		for _, g := range genders {
			out = append(out, models.SegmentCount{
				CustomerType: ct,
				Gender:       g,
				Orders:       counts[models.TypeGender{CustomerType: ct, Gender: g}],
			})
		}
	}
	return out
}

// SparseSegments lists only the combinations present, in grid order.
func SparseSegments(counts map[models.TypeGender]int) []models.SegmentCount {
	out := make([]models.SegmentCount, 0, len(counts))
	for _, s := range DenseSegments(counts) {
		if _, ok := counts[models.TypeGender{CustomerType: s.CustomerType, Gender: s.Gender}]; ok {
			out = append(out, s)
		}
	}
	return out
}

// RatingBoxes summarizes each category's ratings, ordered by category name.
func RatingBoxes(dist map[string][]float64) []models.RatingBox {
	out := make([]models.RatingBox, 0, len(dist))
	for category, ratings := range dist {
		out = append(out, BoxStats(category, ratings))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
