package engine

import (
	"time"

	"salesdash/internal/models"
)

// SampleSource names the built-in dataset used when nothing was uploaded.
const SampleSource = "sample"

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SampleRecords returns the five-row demo dataset. Each call returns a fresh slice.
func SampleRecords() []models.SalesRecord {
	return []models.SalesRecord{
		{OrderID: "1123-19-1176", Store: "1号店", City: "太原", CustomerType: models.Member, Gender: models.Male, Category: "健康美容", UnitPrice: 58.22, Quantity: 8, TotalPrice: 465.76, OrderDate: day(2022, time.January, 27), OrderTime: "20:33", Rating: 8.4},
		{OrderID: "1226-31-3081", Store: "3号店", City: "临汾", CustomerType: models.Regular, Gender: models.Female, Category: "电子配件", UnitPrice: 15.28, Quantity: 5, TotalPrice: 76.40, OrderDate: day(2022, time.March, 8), OrderTime: "10:29", Rating: 9.6},
		{OrderID: "1692-92-5582", Store: "2号店", City: "大同", CustomerType: models.Member, Gender: models.Female, Category: "食品饮料", UnitPrice: 54.84, Quantity: 3, TotalPrice: 164.52, OrderDate: day(2022, time.February, 20), OrderTime: "13:27", Rating: 5.9},
		{OrderID: "1750-67-8428", Store: "1号店", City: "太原", CustomerType: models.Member, Gender: models.Female, Category: "健康美容", UnitPrice: 74.69, Quantity: 7, TotalPrice: 522.83, OrderDate: day(2022, time.January, 5), OrderTime: "13:08", Rating: 9.1},
		{OrderID: "1351-62-0822", Store: "2号店", City: "大同", CustomerType: models.Member, Gender: models.Female, Category: "时尚配饰", UnitPrice: 14.48, Quantity: 4, TotalPrice: 57.92, OrderDate: day(2022, time.February, 6), OrderTime: "18:07", Rating: 4.5},
	}
}

// SampleStore wraps SampleRecords in a RecordStore.
func SampleStore() *RecordStore {
	return NewRecordStore(SampleRecords(), SampleSource)
}
