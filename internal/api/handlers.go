package api

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"salesdash/internal/engine"
	"salesdash/internal/models"
	"salesdash/internal/report"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var (
	errDatasetLoading = errors.New("dataset is still loading")
	errInvalidQuery   = errors.New("invalid query")
	errMissingFile    = errors.New("multipart field 'file' is required")
	errNotModified    = errors.New("not modified")
)

const arrowStreamMIME = "application/vnd.apache.arrow.stream"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type Handler struct {
	session  *Session
	logger   *slog.Logger
	encoding string
}

func NewHandler(session *Session, logger *slog.Logger, csvEncoding string) *Handler {
	return &Handler{session: session, logger: logger, encoding: csvEncoding}
}

func (h *Handler) RegisterRoutes(e *echo.Echo, uploadMiddleware ...echo.MiddlewareFunc) {
	api := e.Group("/api")
	api.GET("/health", h.Health)

	api.GET("/dataset", h.GetDataset)
	api.POST("/dataset", h.UploadDataset, uploadMiddleware...)
	api.DELETE("/dataset", h.ResetDataset)
	api.GET("/options", h.GetOptions)

	api.GET("/summary", h.GetSummary)
	api.GET("/breakdown/stores", h.GetSalesByStore)
	api.GET("/breakdown/categories", h.GetSalesByCategory)
	api.GET("/breakdown/daily", h.GetSalesByDate)
	api.GET("/breakdown/customers", h.GetCustomerSegments)
	api.GET("/breakdown/ratings", h.GetRatingDistribution)
	api.GET("/breakdown/scatter", h.GetPriceQuantity)
	api.GET("/dashboard", h.GetDashboard)

	api.GET("/records", h.GetRecords)
	api.GET("/records.arrow", h.GetRecordsArrow)
}

// --- HELPERS ---

func (h *Handler) respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, errNotModified):
		return c.NoContent(http.StatusNotModified)
	case errors.Is(err, errDatasetLoading):
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "dataset_loading", Message: err.Error()})
	case errors.Is(err, errInvalidQuery):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_query", Message: err.Error()})
	case errors.Is(err, engine.ErrUnsupportedFormat):
		return c.JSON(http.StatusUnsupportedMediaType, ErrorResponse{Error: "unsupported_format", Message: err.Error()})
	case errors.Is(err, errMissingFile),
		errors.Is(err, engine.ErrEmptyDataset),
		errors.Is(err, engine.ErrMissingColumn),
		errors.Is(err, engine.ErrInvalidRecord),
		errors.Is(err, engine.ErrUnsupportedEncoding):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_dataset", Message: err.Error()})
	default:
		h.logger.Error("request failed",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_server_error"})
	}
}

func (h *Handler) currentStore(c echo.Context) (*engine.RecordStore, error) {
	store := h.session.Store()
	if store == nil {
		return nil, errDatasetLoading
	}
	etag := strconv.Quote(store.Fingerprint())
	c.Response().Header().Set("ETag", etag)
	if isRead(c.Request().Method) && etagMatches(c.Request().Header.Get("If-None-Match"), etag) {
		return nil, errNotModified
	}
	return store, nil
}

func isRead(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

// etagMatches reports whether an If-None-Match header lists etag. Weak
// validators compare equal to strong ones.
func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

// filtered resolves the query's constraints against the current store and
// returns the filtered view.
func (h *Handler) filtered(c echo.Context) ([]models.SalesRecord, error) {
	store, err := h.currentStore(c)
	if err != nil {
		return nil, err
	}
	fc, err := parseConstraints(c.QueryParams(), store)
	if err != nil {
		return nil, err
	}
	return store.Filter(fc), nil
}

func datasetInfo(store *engine.RecordStore) models.DatasetInfo {
	info := models.DatasetInfo{
		Source:      store.Source(),
		Rows:        store.Len(),
		Fingerprint: store.Fingerprint(),
		Stores:      store.Stores(),
		Categories:  store.Categories(),
	}
	if info.Stores == nil {
		info.Stores = []string{}
	}
	if info.Categories == nil {
		info.Categories = []string{}
	}
	if first, last, ok := store.DateSpan(); ok {
		info.MinDate = first.Format(engine.DateLayout)
		info.MaxDate = last.Format(engine.DateLayout)
	}
	return info
}

func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// --- HANDLERS ---

func (h *Handler) Health(c echo.Context) error {
	status := "ok"
	if h.session.Store() == nil {
		status = "loading"
	}
	return c.JSON(http.StatusOK, map[string]string{"status": status})
}

func (h *Handler) GetDataset(c echo.Context) error {
	store, err := h.currentStore(c)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, datasetInfo(store))
}

// UploadDataset replaces the session's dataset with an uploaded CSV/XLSX file.
func (h *Handler) UploadDataset(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return h.respondError(c, errMissingFile)
	}

	format, err := engine.FormatFromName(file.Filename)
	if err != nil {
		return h.respondError(c, err)
	}

	src, err := file.Open()
	if err != nil {
		return h.respondError(c, err)
	}
	defer src.Close()

	encoding := c.FormValue("encoding")
	if encoding == "" {
		encoding = h.encoding
	}

	records, err := engine.Load(src, format, engine.LoadOptions{Encoding: encoding})
	if err != nil {
		h.logger.Warn("upload rejected",
			slog.String("file", file.Filename),
			slog.String("error", err.Error()))
		return h.respondError(c, err)
	}

	uploadID := uuid.NewString()
	store := engine.NewRecordStore(records, file.Filename)
	h.session.Replace(store)

	h.logger.Info("dataset replaced",
		slog.String("upload_id", uploadID),
		slog.String("file", file.Filename),
		slog.Int("rows", store.Len()),
		slog.String("fingerprint", store.Fingerprint()))

	c.Response().Header().Set("ETag", strconv.Quote(store.Fingerprint()))
	c.Response().Header().Set("X-Upload-ID", uploadID)
	return c.JSON(http.StatusCreated, datasetInfo(store))
}

// ResetDataset drops any upload and goes back to the built-in sample.
func (h *Handler) ResetDataset(c echo.Context) error {
	h.session.Replace(engine.SampleStore())
	h.logger.Info("dataset reset to sample")
	return h.GetDataset(c)
}

// GetOptions returns the cascading selector options: stores active in the
// date range, then categories active in the range at the selected stores.
func (h *Handler) GetOptions(c echo.Context) error {
	store, err := h.currentStore(c)
	if err != nil {
		return h.respondError(c, err)
	}
	fc, err := parseConstraints(c.QueryParams(), store)
	if err != nil {
		return h.respondError(c, err)
	}

	stores := store.StoresBetween(fc.Start, fc.End)
	selected := stores
	if _, ok := c.QueryParams()["store"]; ok {
		selected = fc.Stores
	}

	return c.JSON(http.StatusOK, models.FilterOptions{
		Stores:     stores,
		Categories: store.CategoriesFor(fc.Start, fc.End, selected),
	})
}

func (h *Handler) GetSummary(c echo.Context) error {
	view, err := h.filtered(c)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, engine.Summarize(view))
}

func (h *Handler) GetSalesByStore(c echo.Context) error {
	view, err := h.filtered(c)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, engine.SumByStore(view))
}

func (h *Handler) GetSalesByCategory(c echo.Context) error {
	view, err := h.filtered(c)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, engine.SumByCategory(view))
}

// GetSalesByDate returns the daily totals; ?sorted=true gives a chronological list.
func (h *Handler) GetSalesByDate(c echo.Context) error {
	view, err := h.filtered(c)
	if err != nil {
		return h.respondError(c, err)
	}
	byDate := engine.SumByDate(view)
	if c.QueryParam("sorted") == "true" {
		return c.JSON(http.StatusOK, report.DailyTrend(byDate))
	}
	return c.JSON(http.StatusOK, byDate)
}

// GetCustomerSegments lists order counts per customer type and gender. Only
// present combinations are listed unless ?dense=true.
func (h *Handler) GetCustomerSegments(c echo.Context) error {
	view, err := h.filtered(c)
	if err != nil {
		return h.respondError(c, err)
	}
	counts := engine.CountByTypeAndGender(view)
	if c.QueryParam("dense") == "true" {
		return c.JSON(http.StatusOK, report.DenseSegments(counts))
	}
	return c.JSON(http.StatusOK, report.SparseSegments(counts))
}

// GetRatingDistribution returns raw ratings per category, or box-plot
// statistics with ?summary=box.
func (h *Handler) GetRatingDistribution(c echo.Context) error {
	view, err := h.filtered(c)
	if err != nil {
		return h.respondError(c, err)
	}
	dist := engine.RatingDistributionByCategory(view)
	if c.QueryParam("summary") == "box" {
		return c.JSON(http.StatusOK, report.RatingBoxes(dist))
	}
	return c.JSON(http.StatusOK, dist)
}

func (h *Handler) GetPriceQuantity(c echo.Context) error {
	view, err := h.filtered(c)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, engine.PriceQuantityRows(view))
}

func (h *Handler) GetDashboard(c echo.Context) error {
	view, err := h.filtered(c)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, report.Build(view))
}

func (h *Handler) GetRecords(c echo.Context) error {
	view, err := h.filtered(c)
	if err != nil {
		return h.respondError(c, err)
	}
	total := len(view)
	limit, offset := getPaginationParams(c, total)
	if offset > total {
		offset = total
	}
	if limit > total-offset {
		limit = total - offset
	}
	end := offset + limit

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":   view[offset:end],
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) GetRecordsArrow(c echo.Context) error {
	view, err := h.filtered(c)
	if err != nil {
		return h.respondError(c, err)
	}
	var buf bytes.Buffer
	if err := engine.WriteArrow(&buf, view); err != nil {
		return h.respondError(c, err)
	}
	return c.Blob(http.StatusOK, arrowStreamMIME, buf.Bytes())
}
