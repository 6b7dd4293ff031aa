package engine

import (
	"fmt"
	"io"

	"salesdash/internal/models"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/ipc"
	"github.com/apache/arrow/go/v18/arrow/memory"
)

// ArrowSchema is the column layout of WriteArrow's single record batch.
var ArrowSchema = arrow.NewSchema([]arrow.Field{
	{Name: "order_id", Type: arrow.BinaryTypes.String},
	{Name: "store", Type: arrow.BinaryTypes.String},
	{Name: "city", Type: arrow.BinaryTypes.String},
	{Name: "customer_type", Type: arrow.BinaryTypes.String},
	{Name: "gender", Type: arrow.BinaryTypes.String},
	{Name: "category", Type: arrow.BinaryTypes.String},
	{Name: "unit_price", Type: arrow.PrimitiveTypes.Float64},
	{Name: "quantity", Type: arrow.PrimitiveTypes.Int64},
	{Name: "total_price", Type: arrow.PrimitiveTypes.Float64},
	{Name: "order_date", Type: arrow.FixedWidthTypes.Date32},
	{Name: "order_time", Type: arrow.BinaryTypes.String},
	{Name: "rating", Type: arrow.PrimitiveTypes.Float64},
}, nil)

// WriteArrow streams view to w as an Arrow IPC stream holding one record batch.
func WriteArrow(w io.Writer, view []models.SalesRecord) error {
	mem := memory.NewGoAllocator()

	b := array.NewRecordBuilder(mem, ArrowSchema)
	defer b.Release()

	orderIDs := b.Field(0).(*array.StringBuilder)
	stores := b.Field(1).(*array.StringBuilder)
	cities := b.Field(2).(*array.StringBuilder)
	types := b.Field(3).(*array.StringBuilder)
	genders := b.Field(4).(*array.StringBuilder)
	categories := b.Field(5).(*array.StringBuilder)
	prices := b.Field(6).(*array.Float64Builder)
	quantities := b.Field(7).(*array.Int64Builder)
	totals := b.Field(8).(*array.Float64Builder)
	dates := b.Field(9).(*array.Date32Builder)
	times := b.Field(10).(*array.StringBuilder)
	ratings := b.Field(11).(*array.Float64Builder)

	for i := range view {
		r := &view[i]
		orderIDs.Append(r.OrderID)
		stores.Append(r.Store)
		cities.Append(r.City)
		types.Append(string(r.CustomerType))
		genders.Append(string(r.Gender))
		categories.Append(r.Category)
		prices.Append(r.UnitPrice)
		quantities.Append(int64(r.Quantity))
		totals.Append(r.TotalPrice)
		dates.Append(arrow.Date32FromTime(r.OrderDate))
		times.Append(r.OrderTime)
		ratings.Append(r.Rating)
	}

	rec := b.NewRecord()
	defer rec.Release()

	wr := ipc.NewWriter(w, ipc.WithSchema(ArrowSchema), ipc.WithAllocator(mem))
	if err := wr.Write(rec); err != nil {
		_ = wr.Close()
		return fmt.Errorf("failed to write arrow batch: %w", err)
	}
	return wr.Close()
}
