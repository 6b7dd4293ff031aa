package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"salesdash/internal/models"

	"github.com/xuri/excelize/v2"
)

type column int

const (
	colOrderID column = iota
	colStore
	colCity
	colCustomerType
	colGender
	colCategory
	colUnitPrice
	colQuantity
	colTotal
	colDate
	colTime
	colRating
	numColumns
)

var columnNames = [numColumns]string{
	"order id", "store", "city", "customer type", "gender", "product category",
	"unit price", "quantity", "total price", "date", "time", "rating",
}

// City and time are carried for display only.
var optionalColumns = map[column]bool{colCity: true, colTime: true}

// headerAliases is keyed by normalizeHeader(header).
var headerAliases = map[string]column{
	"订单号": colOrderID, "invoiceid": colOrderID, "orderid": colOrderID,
	"分店": colStore, "branch": colStore, "store": colStore,
	"城市": colCity, "city": colCity,
	"顾客类型": colCustomerType, "customertype": colCustomerType,
	"性别": colGender, "gender": colGender,
	"产品类型": colCategory, "productline": colCategory, "productcategory": colCategory, "category": colCategory,
	"单价": colUnitPrice, "unitprice": colUnitPrice,
	"数量": colQuantity, "quantity": colQuantity,
	"总价": colTotal, "total": colTotal, "totalprice": colTotal,
	"日期": colDate, "date": colDate, "orderdate": colDate,
	"时间": colTime, "time": colTime, "ordertime": colTime,
	"评分": colRating, "rating": colRating,
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
}

// columnMap holds the cell index of each column, -1 when absent.
type columnMap [numColumns]int

func mapHeader(header []string) (columnMap, error) {
	var cols columnMap
	for i := range cols {
		cols[i] = -1
	}
	for i, h := range header {
		if c, ok := headerAliases[normalizeHeader(h)]; ok && cols[c] < 0 {
			cols[c] = i
		}
	}

	var missing []string
	for c, idx := range cols {
		if idx < 0 && !optionalColumns[column(c)] {
			missing = append(missing, columnNames[c])
		}
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return cols, nil
}

func (m *columnMap) cell(row []string, c column) string {
	idx := m[c]
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (m *columnMap) decode(row []string) (models.SalesRecord, error) {
	rec := models.SalesRecord{
		OrderID:   m.cell(row, colOrderID),
		Store:     m.cell(row, colStore),
		City:      m.cell(row, colCity),
		Category:  m.cell(row, colCategory),
		OrderTime: m.cell(row, colTime),
	}
	if rec.Store == "" {
		return rec, fmt.Errorf("%w: empty store", ErrInvalidRecord)
	}
	if rec.Category == "" {
		return rec, fmt.Errorf("%w: empty product category", ErrInvalidRecord)
	}

	var err error
	if rec.CustomerType, err = parseCustomerType(m.cell(row, colCustomerType)); err != nil {
		return rec, err
	}
	if rec.Gender, err = parseGender(m.cell(row, colGender)); err != nil {
		return rec, err
	}
	if rec.UnitPrice, err = parseAmount(m.cell(row, colUnitPrice), "unit price"); err != nil {
		return rec, err
	}
	if rec.Quantity, err = parseQuantity(m.cell(row, colQuantity)); err != nil {
		return rec, err
	}
	if rec.TotalPrice, err = parseAmount(m.cell(row, colTotal), "total price"); err != nil {
		return rec, err
	}
	if rec.OrderDate, err = parseDate(m.cell(row, colDate)); err != nil {
		return rec, err
	}
	if rec.Rating, err = parseRating(m.cell(row, colRating)); err != nil {
		return rec, err
	}
	return rec, nil
}

func parseCustomerType(s string) (models.CustomerType, error) {
	switch strings.ToLower(s) {
	case "会员用户", "会员", "member":
		return models.Member, nil
	case "普通用户", "普通", "normal", "regular":
		return models.Regular, nil
	}
	return "", fmt.Errorf("%w: unknown customer type %q", ErrInvalidRecord, s)
}

func parseGender(s string) (models.Gender, error) {
	switch strings.ToLower(s) {
	case "男性", "男", "male":
		return models.Male, nil
	case "女性", "女", "female":
		return models.Female, nil
	}
	return "", fmt.Errorf("%w: unknown gender %q", ErrInvalidRecord, s)
}

var amountCleaner = strings.NewReplacer(",", "", "¥", "", "￥", "", "$", "", " ", "")

func parseAmount(s, field string) (float64, error) {
	v, err := strconv.ParseFloat(amountCleaner.Replace(s), 64)
	if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: bad %s %q", ErrInvalidRecord, field, s)
	}
	return v, nil
}

func parseQuantity(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n, nil
	}
	// Spreadsheets sometimes hand back "7.0"
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 && f == math.Trunc(f) && f <= math.MaxInt32 {
		return int(f), nil
	}
	return 0, fmt.Errorf("%w: bad quantity %q", ErrInvalidRecord, s)
}

func parseRating(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > 10 {
		return 0, fmt.Errorf("%w: bad rating %q", ErrInvalidRecord, s)
	}
	return v, nil
}

var dateLayouts = []string{
	DateLayout,
	"2006/01/02",
	"2006/1/2",
	"2006-1-2",
	"1/2/2006",
	"01-02-06",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006年1月2日",
	"20060102",
}

// Excel serial day numbers run from 1 (1900-01-01) to 2958465 (9999-12-31).
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

// parseDate accepts the layouts above or an Excel serial day number. Any time
// of day is dropped; the result is midnight UTC.
func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= minExcelSerial && serial < maxExcelSerial+1 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: bad date %q", ErrInvalidRecord, s)
}
