package engine

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"salesdash/internal/models"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	ErrEmptyDataset        = errors.New("dataset has no rows")
	ErrMissingColumn       = errors.New("missing required column")
	ErrInvalidRecord       = errors.New("invalid record")
	ErrUnsupportedFormat   = errors.New("unsupported file format")
	ErrUnsupportedEncoding = errors.New("unsupported text encoding")
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFromName picks the format from a file name's extension.
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

type LoadOptions struct {
	// Encoding of CSV input: "" or "utf-8" (BOM tolerated), "gb18030" or "gbk".
	Encoding string
}

// LoadFile reads a CSV or XLSX file from disk.
func LoadFile(path string, opts LoadOptions) ([]models.SalesRecord, error) {
	format, err := FormatFromName(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Load(f, format, opts)
}

// Load parses a whole dataset. Every returned record satisfies the SalesRecord
// schema; the first invalid row aborts the load.
func Load(r io.Reader, format Format, opts LoadOptions) ([]models.SalesRecord, error) {
	start := time.Now()

	var (
		rows [][]string
		err  error
	)
	switch format {
	case FormatCSV:
		rows, err = readCSV(r, opts.Encoding)
	case FormatXLSX:
		rows, err = readXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	records, err := decodeRows(rows)
	if err != nil {
		return nil, err
	}

	slog.Debug("dataset decoded",
		slog.String("format", string(format)),
		slog.Int("rows", len(records)),
		slog.Duration("duration", time.Since(start)))

	return records, nil
}

func readCSV(r io.Reader, encoding string) ([][]string, error) {
	var src io.Reader
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		src = transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	case "gb18030", "gbk", "gb2312":
		src = transform.NewReader(r, simplifiedchinese.GB18030.NewDecoder())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, encoding)
	}

	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return rows, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyDataset
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// decodeRows maps the header, then decodes data rows in parallel chunks. Each
// worker writes into its own window of a pre-sized slice so input order holds.
func decodeRows(rows [][]string) ([]models.SalesRecord, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyDataset
	}

	cols, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	// Keep the 1-based data row number for error messages
	type numbered struct {
		line  int
		cells []string
	}
	data := make([]numbered, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		data = append(data, numbered{line: i + 1, cells: row})
	}
	if len(data) == 0 {
		return nil, ErrEmptyDataset
	}

	out := make([]models.SalesRecord, len(data))

	numWorkers := runtime.NumCPU()
	chunkSize := (len(data) + numWorkers - 1) / numWorkers

	var g errgroup.Group
	for start := 0; start < len(data); start += chunkSize {
		end := min(start+chunkSize, len(data))
		g.Go(func() error {
			for j := start; j < end; j++ {
				rec, err := cols.decode(data[j].cells)
				if err != nil {
					return fmt.Errorf("row %d: %w", data[j].line, err)
				}
				out[j] = rec
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
