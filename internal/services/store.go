package services

import (
	"context"
	"encoding/csv"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"sales-dashboard/internal/models"
)

const (
	batchSize    = 10000
	maxWorkers   = 8
	cacheVersion = "v1"
	cacheDir     = ".cache"
)

// requiredColumns are resolved from the CSV header by name, so the file
// may order its columns however it likes.
var requiredColumns = []string{
	"YEAR", "MONTH", "SUPPLIER", "ITEM CODE", "ITEM DESCRIPTION",
	"ITEM TYPE", "RETAIL SALES", "RETAIL TRANSFERS", "WAREHOUSE SALES",
}

// Dataset holds the parsed records plus load bookkeeping. It is the
// unit cached to disk between restarts.
type Dataset struct {
	Records      []models.SalesRecord
	SkippedRows  int64
	LastModified time.Time
}

// SalesStore owns the in-memory dataset. The dataset is swapped in once
// under the mutex and read-only afterwards; aggregation never mutates it.
type SalesStore struct {
	mu         sync.RWMutex
	dataset    *Dataset
	options    models.FilterOptions
	rowsLoaded atomic.Int64
	logger     *slog.Logger
}

func NewSalesStore() *SalesStore {
	return &SalesStore{
		dataset: &Dataset{},
		logger:  slog.Default(),
	}
}

// SetRecords installs records directly, bypassing the CSV loader.
func (s *SalesStore) SetRecords(records []models.SalesRecord) {
	ds := &Dataset{
		Records:      records,
		LastModified: time.Now(),
	}

	s.mu.Lock()
	s.dataset = ds
	s.options = computeOptions(records)
	s.mu.Unlock()

	s.rowsLoaded.Store(int64(len(records)))
}

func (s *SalesStore) LoadFromCSV(ctx context.Context, filename string) error {
	if cached, err := s.loadFromCache(filename); err == nil {
		fileInfo, err := os.Stat(filename)
		if err == nil && fileInfo.ModTime().Before(cached.LastModified) {
			s.install(cached)
			s.logger.Info("loaded dataset from cache", "records", len(cached.Records))
			return nil
		}
	}

	start := time.Now()
	s.logger.Info("parsing sales CSV", "filename", filename)

	ds, err := s.parseCSV(ctx, filename)
	if err != nil {
		return fmt.Errorf("parse csv: %w", err)
	}
	s.install(ds)

	if err := s.saveToCache(filename); err != nil {
		s.logger.Warn("failed to save dataset cache", "error", err)
	}

	duration := time.Since(start)
	count := s.rowsLoaded.Load()
	s.logger.Info("csv load complete",
		"records", count,
		"skipped", ds.SkippedRows,
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(count)/duration.Seconds()))

	if ds.SkippedRows > 0 {
		s.logger.Warn("malformed rows were skipped", "skipped", ds.SkippedRows)
	}

	return nil
}

func (s *SalesStore) install(ds *Dataset) {
	s.mu.Lock()
	s.dataset = ds
	s.options = computeOptions(ds.Records)
	s.mu.Unlock()

	s.rowsLoaded.Store(int64(len(ds.Records)))
}

func (s *SalesStore) parseCSV(ctx context.Context, filename string) (*Dataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return s.parseRows(ctx, file)
}

func (s *SalesStore) parseRows(ctx context.Context, src io.Reader) (*Dataset, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: empty file")
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{LastModified: time.Now()}

	batch := make([][]string, 0, batchSize)
	flush := func() error {
		records, skipped, err := parseBatch(ctx, batch, cols)
		if err != nil {
			return err
		}
		ds.Records = append(ds.Records, records...)
		ds.SkippedRows += skipped
		batch = batch[:0]
		return nil
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				// Structurally broken row (bad quoting, etc). Skip it,
				// the reader can continue with the next line.
				ds.SkippedRows++
				continue
			}
			// Anything else is an I/O failure the reader would keep
			// returning; retrying cannot make progress.
			return nil, fmt.Errorf("read row: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		batch = append(batch, row)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if len(batch) > 0 {
		if err := flush(); err != nil {
			return nil, err
		}
	}

	if len(ds.Records) == 0 {
		return nil, fmt.Errorf("no valid records found")
	}

	return ds, nil
}

// parseBatch converts raw rows into records on a bounded worker group.
// Each worker writes to its own index, so dataset order follows file order.
func parseBatch(ctx context.Context, rows [][]string, cols columnIndex) ([]models.SalesRecord, int64, error) {
	type parsed struct {
		rec models.SalesRecord
		ok  bool
	}
	results := make([]parsed, len(rows))

	var wg errgroup.Group
	wg.SetLimit(maxWorkers)

	for i, row := range rows {
		wg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			rec, err := parseRecord(row, cols)
			if err != nil {
				return nil // counted as skipped below
			}
			results[i] = parsed{rec: rec, ok: true}
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		return nil, 0, err
	}

	records := make([]models.SalesRecord, 0, len(rows))
	skipped := int64(0)
	for _, p := range results {
		if p.ok {
			records = append(records, p.rec)
		} else {
			skipped++
		}
	}
	return records, skipped, nil
}

type columnIndex struct {
	year, month, supplier        int
	itemCode, itemDesc, itemType int
	retail, transfers, warehouse int
}

func resolveColumns(header []string) (columnIndex, error) {
	byName := make(map[string]int, len(header))
	for i, name := range header {
		byName[strings.ToUpper(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := byName[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return columnIndex{}, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	return columnIndex{
		year:      byName["YEAR"],
		month:     byName["MONTH"],
		supplier:  byName["SUPPLIER"],
		itemCode:  byName["ITEM CODE"],
		itemDesc:  byName["ITEM DESCRIPTION"],
		itemType:  byName["ITEM TYPE"],
		retail:    byName["RETAIL SALES"],
		transfers: byName["RETAIL TRANSFERS"],
		warehouse: byName["WAREHOUSE SALES"],
	}, nil
}

func parseRecord(row []string, cols columnIndex) (models.SalesRecord, error) {
	maxIdx := cols.year
	for _, idx := range []int{cols.month, cols.supplier, cols.itemCode, cols.itemDesc, cols.itemType, cols.retail, cols.transfers, cols.warehouse} {
		if idx > maxIdx {
			maxIdx = idx
		}
	}
	if len(row) <= maxIdx {
		return models.SalesRecord{}, fmt.Errorf("short row: %d fields", len(row))
	}

	year, err := strconv.Atoi(strings.TrimSpace(row[cols.year]))
	if err != nil {
		return models.SalesRecord{}, fmt.Errorf("year: %w", err)
	}

	month, err := strconv.Atoi(strings.TrimSpace(row[cols.month]))
	if err != nil {
		return models.SalesRecord{}, fmt.Errorf("month: %w", err)
	}
	if month < 1 || month > 12 {
		return models.SalesRecord{}, fmt.Errorf("month out of range: %d", month)
	}

	retail, err := parseAmount(row[cols.retail])
	if err != nil {
		return models.SalesRecord{}, fmt.Errorf("retail sales: %w", err)
	}
	transfers, err := parseAmount(row[cols.transfers])
	if err != nil {
		return models.SalesRecord{}, fmt.Errorf("retail transfers: %w", err)
	}
	warehouse, err := parseAmount(row[cols.warehouse])
	if err != nil {
		return models.SalesRecord{}, fmt.Errorf("warehouse sales: %w", err)
	}

	return models.SalesRecord{
		Year:            year,
		Month:           month,
		Supplier:        strings.TrimSpace(row[cols.supplier]),
		ItemCode:        strings.TrimSpace(row[cols.itemCode]),
		ItemDescription: strings.TrimSpace(row[cols.itemDesc]),
		ItemType:        strings.TrimSpace(row[cols.itemType]),
		RetailSales:     retail,
		RetailTransfers: transfers,
		WarehouseSales:  warehouse,
	}, nil
}

// parseAmount treats a blank sales cell as zero; anything else must be
// a valid decimal number.
func parseAmount(field string) (decimal.Decimal, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(field)
}

func computeOptions(records []models.SalesRecord) models.FilterOptions {
	yearSet := make(map[int]struct{})
	supplierSet := make(map[string]struct{})
	typeSet := make(map[string]struct{})

	for _, r := range records {
		yearSet[r.Year] = struct{}{}
		if r.Supplier != "" {
			supplierSet[r.Supplier] = struct{}{}
		}
		if r.ItemType != "" {
			typeSet[r.ItemType] = struct{}{}
		}
	}

	opts := models.FilterOptions{
		Years:     make([]int, 0, len(yearSet)),
		Suppliers: make([]string, 0, len(supplierSet)),
		ItemTypes: make([]string, 0, len(typeSet)),
	}
	for y := range yearSet {
		opts.Years = append(opts.Years, y)
	}
	for s := range supplierSet {
		opts.Suppliers = append(opts.Suppliers, s)
	}
	for t := range typeSet {
		opts.ItemTypes = append(opts.ItemTypes, t)
	}
	slices.Sort(opts.Years)
	slices.Sort(opts.Suppliers)
	slices.Sort(opts.ItemTypes)
	return opts
}

// Cache management
func (s *SalesStore) getCacheFilename(csvPath string) string {
	return fmt.Sprintf("%s/%s_%s.gob", cacheDir, strings.ReplaceAll(csvPath, "/", "_"), cacheVersion)
}

func (s *SalesStore) saveToCache(csvPath string) error {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return err
	}

	file, err := os.Create(s.getCacheFilename(csvPath))
	if err != nil {
		return err
	}
	defer file.Close()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return gob.NewEncoder(file).Encode(s.dataset)
}

func (s *SalesStore) loadFromCache(csvPath string) (*Dataset, error) {
	file, err := os.Open(s.getCacheFilename(csvPath))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var ds Dataset
	if err := gob.NewDecoder(file).Decode(&ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Aggregate derives the dashboard summary for one filter selection.
// Pure with respect to the dataset: same records and filter, same view.
func (s *SalesStore) Aggregate(f models.Filter) models.AggregateView {
	s.mu.RLock()
	records := s.dataset.Records
	s.mu.RUnlock()

	return ComputeAggregates(records, f)
}

// FilteredRecords returns the records matching the filter, in load order.
func (s *SalesStore) FilteredRecords(f models.Filter) []models.SalesRecord {
	s.mu.RLock()
	records := s.dataset.Records
	s.mu.RUnlock()

	if f.IsZero() {
		return records
	}
	matched := make([]models.SalesRecord, 0)
	for _, r := range records {
		if f.Matches(r) {
			matched = append(matched, r)
		}
	}
	return matched
}

func (s *SalesStore) Options() models.FilterOptions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.options
}

// Stats reports dataset-level counters for the admin endpoint.
func (s *SalesStore) Stats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"record_count": len(s.dataset.Records),
		"skipped_rows": s.dataset.SkippedRows,
		"last_loaded":  s.dataset.LastModified,
		"years":        len(s.options.Years),
		"suppliers":    len(s.options.Suppliers),
		"item_types":   len(s.options.ItemTypes),
	}
}
