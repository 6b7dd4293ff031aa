package models

type DashboardData struct {
	Summary         Summary          `json:"summary"`
	StoreSales      []NamedValue     `json:"store_sales"`
	CategorySales   []CategoryShare  `json:"category_sales"`
	DailySales      []DailyPoint     `json:"daily_sales"`
	CustomerSegment []SegmentCount   `json:"customer_segments"`
	RatingBoxes     []RatingBox      `json:"rating_boxes"`
	Scatter         []CorrelationRow `json:"scatter"`
}

type NamedValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type CategoryShare struct {
	Category string  `json:"category"`
	Sales    float64 `json:"sales"`
	Percent  float64 `json:"percent"`
}

type DailyPoint struct {
	Date  string  `json:"date"`
	Sales float64 `json:"sales"`
}

type SegmentCount struct {
	CustomerType CustomerType `json:"customer_type"`
	Gender       Gender       `json:"gender"`
	Orders       int          `json:"orders"`
}

// RatingBox is a five-number summary with Tukey outliers for one category.
type RatingBox struct {
	Category string    `json:"category"`
	Count    int       `json:"count"`
	Min      float64   `json:"min"`
	Q1       float64   `json:"q1"`
	Median   float64   `json:"median"`
	Q3       float64   `json:"q3"`
	Max      float64   `json:"max"`
	Outliers []float64 `json:"outliers,omitempty"`
}

type DatasetInfo struct {
	Source      string   `json:"source"`
	Rows        int      `json:"rows"`
	Fingerprint string   `json:"fingerprint"`
	MinDate     string   `json:"min_date,omitempty"`
	MaxDate     string   `json:"max_date,omitempty"`
	Stores      []string `json:"stores"`
	Categories  []string `json:"categories"`
}

type FilterOptions struct {
	Stores     []string `json:"stores"`
	Categories []string `json:"categories"`
}
