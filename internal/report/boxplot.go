package report

import (
	"math"
	"sort"

	"salesdash/internal/models"
)

// whisker is the Tukey fence multiplier applied to the interquartile range.
const whisker = 1.5

// BoxStats computes a box-plot summary. Quartiles use linear interpolation
// between closest ranks. Min and Max are the whisker ends: the most extreme
// values inside the fences; anything beyond is an outlier. values is not
// modified.
func BoxStats(category string, values []float64) models.RatingBox {
	box := models.RatingBox{Category: category, Count: len(values)}
	if len(values) == 0 {
		return box
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	box.Q1 = quantile(sorted, 0.25)
	box.Median = quantile(sorted, 0.5)
	box.Q3 = quantile(sorted, 0.75)

	iqr := box.Q3 - box.Q1
	lo, hi := box.Q1-whisker*iqr, box.Q3+whisker*iqr

	box.Min, box.Max = math.Inf(1), math.Inf(-1)
	for _, v := range sorted {
		if v < lo || v > hi {
			box.Outliers = append(box.Outliers, v)
			continue
		}
		box.Min = math.Min(box.Min, v)
		box.Max = math.Max(box.Max, v)
	}
	return box
}

// quantile expects sorted input.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	i := int(math.Floor(pos))
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(i)
	return sorted[i] + frac*(sorted[i+1]-sorted[i])
}
