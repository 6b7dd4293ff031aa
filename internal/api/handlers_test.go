package api

import (
	"bytes"
	"io"
	"log/slog"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"salesdash/internal/engine"
	"salesdash/internal/models"

	"github.com/apache/arrow/go/v18/arrow/ipc"
	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const uploadCSV = `订单号,分店,城市,顾客类型,性别,产品类型,单价,数量,总价,日期,时间,评分
A-1,5号店,太原,会员用户,男性,运动旅行,10.00,2,20.00,2023-05-01,09:00,7.0
A-2,5号店,太原,普通用户,女性,运动旅行,5.50,2,11.00,2023-05-02,10:00,8.0
`

// helper: server around the sample dataset
func setupTestServer(store *engine.RecordStore) (*echo.Echo, *Session) {
	session := NewSession(store)
	e := NewServer(ServerOptions{MaxUploadSize: "1M", UploadRate: 100}, session, slog.New(slog.DiscardHandler))
	return e, session
}

func doGet(t *testing.T, e *echo.Echo, path string, query url.Values) *httptest.ResponseRecorder {
	t.Helper()
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func doUpload(t *testing.T, e *echo.Echo, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/dataset", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	e, session := setupTestServer(nil)

	rec := doGet(t, e, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "loading", decode[map[string]string](t, rec)["status"])

	session.Replace(engine.SampleStore())
	rec = doGet(t, e, "/api/health", nil)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}

func TestLoadingDatasetReturns503(t *testing.T) {
	e, _ := setupTestServer(nil)

	for _, path := range []string{"/api/summary", "/api/dataset", "/api/options", "/api/dashboard", "/api/records"} {
		rec := doGet(t, e, path, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
		assert.Equal(t, "dataset_loading", decode[ErrorResponse](t, rec).Error, path)
	}
}

func TestGetSummary(t *testing.T) {
	e, _ := setupTestServer(engine.SampleStore())

	tests := []struct {
		name       string
		query      url.Values
		wantTotal  float64
		wantCount  int
		wantAvg    float64
		wantRating float64
	}{
		{
			name:       "defaults select everything",
			wantTotal:  1287.43,
			wantCount:  5,
			wantAvg:    257.486,
			wantRating: 7.5,
		},
		{
			name:       "february only",
			query:      url.Values{"start": {"2022-02-01"}, "end": {"2022-02-28"}},
			wantTotal:  222.44,
			wantCount:  2,
			wantAvg:    111.22,
			wantRating: 5.2,
		},
		{
			name:      "inverted range",
			query:     url.Values{"start": {"2022-03-01"}, "end": {"2022-01-01"}},
			wantTotal: 0,
		},
		{
			name:  "blank store selects nothing",
			query: url.Values{"store": {""}},
		},
		{
			name:       "repeated and comma separated stores",
			query:      url.Values{"store": {"1号店,3号店"}, "category": {"健康美容", "电子配件"}},
			wantTotal:  1064.99,
			wantCount:  3,
			wantAvg:    354.99666666666667,
			wantRating: 9.033333333333333,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doGet(t, e, "/api/summary", tt.query)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			got := decode[models.Summary](t, rec)
			assert.InDelta(t, tt.wantTotal, got.TotalSales, 1e-6)
			assert.Equal(t, tt.wantCount, got.OrderCount)
			assert.InDelta(t, tt.wantAvg, got.AvgOrderValue, 1e-6)
			assert.InDelta(t, tt.wantRating, got.AvgRating, 1e-6)
		})
	}
}

func TestGetSummary_InvalidDate(t *testing.T) {
	e, _ := setupTestServer(engine.SampleStore())

	rec := doGet(t, e, "/api/summary", url.Values{"start": {"27/01/2022"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_query", decode[ErrorResponse](t, rec).Error)
}

func TestETagFollowsDataset(t *testing.T) {
	store := engine.SampleStore()
	e, _ := setupTestServer(store)

	rec := doGet(t, e, "/api/summary", nil)
	assert.Equal(t, strconv.Quote(store.Fingerprint()), rec.Header().Get("ETag"))
}

func TestIfNoneMatch(t *testing.T) {
	store := engine.SampleStore()
	e, session := setupTestServer(store)
	etag := strconv.Quote(store.Fingerprint())

	get := func(ifNoneMatch string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
		req.Header.Set("If-None-Match", ifNoneMatch)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	rec := get(etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
	assert.Equal(t, etag, rec.Header().Get("ETag"))

	assert.Equal(t, http.StatusNotModified, get(`"other", W/`+etag).Code)
	assert.Equal(t, http.StatusOK, get(`"other"`).Code)

	// A new dataset invalidates the old tag
	require.Equal(t, http.StatusCreated, doUpload(t, e, "may.csv", uploadCSV).Code)
	rec = get(etag)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, strconv.Quote(session.Store().Fingerprint()), rec.Header().Get("ETag"))
}

func TestResetDataset_IgnoresIfNoneMatch(t *testing.T) {
	store := engine.SampleStore()
	e, _ := setupTestServer(store)

	req := httptest.NewRequest(http.MethodDelete, "/api/dataset", nil)
	req.Header.Set("If-None-Match", strconv.Quote(store.Fingerprint()))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetSalesByStore(t *testing.T) {
	e, _ := setupTestServer(engine.SampleStore())

	rec := doGet(t, e, "/api/breakdown/stores", url.Values{"store": {"1号店"}})
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[map[string]float64](t, rec)
	require.Len(t, got, 1)
	assert.InDelta(t, 988.59, got["1号店"], 1e-9)
}

func TestGetSalesByDate_Sorted(t *testing.T) {
	e, _ := setupTestServer(engine.SampleStore())

	rec := doGet(t, e, "/api/breakdown/daily", url.Values{"sorted": {"true"}})
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[[]models.DailyPoint](t, rec)
	require.Len(t, got, 5)
	assert.Equal(t, "2022-01-05", got[0].Date)
	assert.Equal(t, "2022-03-08", got[4].Date)
}

func TestGetCustomerSegments(t *testing.T) {
	e, _ := setupTestServer(engine.SampleStore())

	sparse := decode[[]models.SegmentCount](t, doGet(t, e, "/api/breakdown/customers", nil))
	dense := decode[[]models.SegmentCount](t, doGet(t, e, "/api/breakdown/customers", url.Values{"dense": {"true"}}))

	assert.Len(t, sparse, 3)
	assert.Len(t, dense, 4)

	total := 0
	for _, s := range dense {
		total += s.Orders
	}
	assert.Equal(t, 5, total)
}

func TestGetRatingDistribution_Box(t *testing.T) {
	e, _ := setupTestServer(engine.SampleStore())

	rec := doGet(t, e, "/api/breakdown/ratings", url.Values{"summary": {"box"}, "category": {"健康美容"}})
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[[]models.RatingBox](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, "健康美容", got[0].Category)
	assert.Equal(t, 2, got[0].Count)
	assert.InDelta(t, 8.4, got[0].Min, 1e-9)
	assert.InDelta(t, 9.1, got[0].Max, 1e-9)
}

func TestGetOptions_Cascade(t *testing.T) {
	e, _ := setupTestServer(engine.SampleStore())
	feb := url.Values{"start": {"2022-02-01"}, "end": {"2022-02-28"}}

	got := decode[models.FilterOptions](t, doGet(t, e, "/api/options", feb))
	assert.Equal(t, []string{"2号店"}, got.Stores)
	assert.Equal(t, []string{"食品饮料", "时尚配饰"}, got.Categories)

	feb.Set("store", "1号店")
	got = decode[models.FilterOptions](t, doGet(t, e, "/api/options", feb))
	assert.Equal(t, []string{"2号店"}, got.Stores)
	assert.Empty(t, got.Categories)
}

func TestGetDashboard(t *testing.T) {
	e, _ := setupTestServer(engine.SampleStore())

	rec := doGet(t, e, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[models.DashboardData](t, rec)
	assert.InDelta(t, 1287.43, got.Summary.TotalSales, 1e-9)
	assert.Len(t, got.StoreSales, 3)
	assert.Len(t, got.CategorySales, 4)
	assert.Len(t, got.DailySales, 5)
	assert.Len(t, got.CustomerSegment, 4)
	assert.Len(t, got.Scatter, 5)
}

func TestGetRecords_Pagination(t *testing.T) {
	e, _ := setupTestServer(engine.SampleStore())

	type page struct {
		Data   []models.SalesRecord `json:"data"`
		Total  int                  `json:"total"`
		Limit  int                  `json:"limit"`
		Offset int                  `json:"offset"`
	}

	got := decode[page](t, doGet(t, e, "/api/records", url.Values{"limit": {"2"}, "offset": {"1"}}))
	assert.Equal(t, 5, got.Total)
	require.Len(t, got.Data, 2)
	assert.Equal(t, "1226-31-3081", got.Data[0].OrderID)

	got = decode[page](t, doGet(t, e, "/api/records", url.Values{"offset": {"10"}}))
	assert.Equal(t, 5, got.Total)
	assert.Empty(t, got.Data)

	huge := strconv.Itoa(math.MaxInt)
	rec := doGet(t, e, "/api/records", url.Values{"limit": {huge}, "offset": {"1"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got = decode[page](t, rec)
	assert.Len(t, got.Data, 4)
	assert.Equal(t, 4, got.Limit)
	assert.Equal(t, 1, got.Offset)
}

func TestGetRecordsArrow(t *testing.T) {
	e, _ := setupTestServer(engine.SampleStore())

	rec := doGet(t, e, "/api/records.arrow", url.Values{"store": {"1号店"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, arrowStreamMIME, rec.Header().Get(echo.HeaderContentType))

	rdr, err := ipc.NewReader(rec.Body)
	require.NoError(t, err)
	defer rdr.Release()

	require.True(t, rdr.Next())
	assert.EqualValues(t, 2, rdr.Record().NumRows())
}

func TestUploadDataset(t *testing.T) {
	e, session := setupTestServer(engine.SampleStore())
	before := session.Store().Fingerprint()

	rec := doUpload(t, e, "may.csv", uploadCSV)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Upload-ID"))

	info := decode[models.DatasetInfo](t, rec)
	assert.Equal(t, "may.csv", info.Source)
	assert.Equal(t, 2, info.Rows)
	assert.Equal(t, "2023-05-01", info.MinDate)
	assert.Equal(t, "2023-05-02", info.MaxDate)
	assert.Equal(t, []string{"5号店"}, info.Stores)
	assert.NotEqual(t, before, info.Fingerprint)

	summary := decode[models.Summary](t, doGet(t, e, "/api/summary", nil))
	assert.InDelta(t, 31.0, summary.TotalSales, 1e-9)
	assert.Equal(t, 2, summary.OrderCount)
}

func TestUploadDataset_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		wantCode int
	}{
		{name: "missing file", wantCode: http.StatusBadRequest},
		{name: "unsupported extension", filename: "sales.txt", content: uploadCSV, wantCode: http.StatusUnsupportedMediaType},
		{name: "missing column", filename: "bad.csv", content: "订单号,分店\nA-1,5号店\n", wantCode: http.StatusBadRequest},
		{name: "header only", filename: "empty.csv", content: "订单号,分店,城市,顾客类型,性别,产品类型,单价,数量,总价,日期,时间,评分\n", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := engine.SampleStore()
			e, session := setupTestServer(store)

			rec := doUpload(t, e, tt.filename, tt.content)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Same(t, store, session.Store())
		})
	}
}

func TestResetDataset(t *testing.T) {
	e, session := setupTestServer(engine.SampleStore())
	require.Equal(t, http.StatusCreated, doUpload(t, e, "may.csv", uploadCSV).Code)

	req := httptest.NewRequest(http.MethodDelete, "/api/dataset", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, engine.SampleSource, decode[models.DatasetInfo](t, rec).Source)
	assert.Equal(t, 5, session.Store().Len())
}
