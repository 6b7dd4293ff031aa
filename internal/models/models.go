package models

import "time"

type CustomerType string

const (
	Member  CustomerType = "member"
	Regular CustomerType = "regular"
)

type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// SalesRecord is one order row. TotalPrice is stored as ingested and never
// re-derived from UnitPrice * Quantity.
type SalesRecord struct {
	OrderID      string       `json:"order_id"`
	Store        string       `json:"store"`
	City         string       `json:"city"`
	CustomerType CustomerType `json:"customer_type"`
	Gender       Gender       `json:"gender"`
	Category     string       `json:"category"`
	UnitPrice    float64      `json:"unit_price"`
	Quantity     int          `json:"quantity"`
	TotalPrice   float64      `json:"total_price"`
	OrderDate    time.Time    `json:"order_date"`
	OrderTime    string       `json:"order_time"`
	Rating       float64      `json:"rating"`
}

// FilterConstraints narrows a record set. Start and End are inclusive and only
// their calendar date is compared. Empty Stores or Categories match nothing.
type FilterConstraints struct {
	Start      time.Time
	End        time.Time
	Stores     []string
	Categories []string
}

// Summary holds the scalar dashboard metrics. Averages are 0 for an empty view.
type Summary struct {
	TotalSales    float64 `json:"total_sales"`
	OrderCount    int     `json:"order_count"`
	AvgOrderValue float64 `json:"avg_order_value"`
	AvgRating     float64 `json:"avg_rating"`
}

type TypeGender struct {
	CustomerType CustomerType `json:"customer_type"`
	Gender       Gender       `json:"gender"`
}

// CorrelationRow is the unaggregated projection used for price/quantity scatter plots.
type CorrelationRow struct {
	UnitPrice  float64 `json:"unit_price"`
	Quantity   int     `json:"quantity"`
	Category   string  `json:"category"`
	TotalPrice float64 `json:"total_price"`
}
