package engine

import (
	"testing"
	"time"

	"salesdash/internal/models"

	"github.com/stretchr/testify/assert"
)

const tolerance = 1e-9

func TestSummarize_SampleDefaults(t *testing.T) {
	store := SampleStore()

	s := Summarize(store.Filter(store.DefaultConstraints()))

	assert.InDelta(t, 1287.43, s.TotalSales, tolerance)
	assert.Equal(t, 5, s.OrderCount)
	assert.InDelta(t, 257.486, s.AvgOrderValue, tolerance)
	assert.InDelta(t, 7.5, s.AvgRating, tolerance)
}

func TestSummarize_February(t *testing.T) {
	store := SampleStore()
	c := store.DefaultConstraints()
	c.Start = day(2022, time.February, 1)
	c.End = day(2022, time.February, 28)

	s := Summarize(store.Filter(c))

	assert.InDelta(t, 222.44, s.TotalSales, tolerance)
	assert.Equal(t, 2, s.OrderCount)
	assert.InDelta(t, 111.22, s.AvgOrderValue, tolerance)
	assert.InDelta(t, 5.2, s.AvgRating, tolerance)
}

func TestSummarize_EmptyView(t *testing.T) {
	store := SampleStore()
	c := store.DefaultConstraints()
	c.Categories = []string{}

	view := store.Filter(c)

	assert.Equal(t, 0, OrderCount(view))
	assert.Equal(t, models.Summary{}, Summarize(view))
	assert.Equal(t, models.Summary{}, Summarize(nil))
}

func TestSummarize_Independent(t *testing.T) {
	view := SampleRecords()

	assert.InDelta(t, TotalSales(view), Summarize(view).TotalSales, tolerance)
	assert.InDelta(t, AvgOrderValue(view)*float64(OrderCount(view)), TotalSales(view), 1e-6)
}
