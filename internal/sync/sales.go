package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"cigamsync/internal/cigam"
	"cigamsync/internal/database/models"
)

// SalesSyncResult drives the composite user-facing status message. A
// mapping miss is reported apart from Errors: it reflects missing
// master data, not a processing fault.
type SalesSyncResult struct {
	Inserted          int      `json:"inserted"`
	Updated           int      `json:"updated"`
	SkippedCPFs       int      `json:"skipped_cpfs"`
	SkippedStores     int      `json:"skipped_stores"`
	UnmappedCPFs      []string `json:"unmapped_cpfs"`
	UnmappedStores    []string `json:"unmapped_stores"`
	Errors            int      `json:"errors"`
	TotalCigamRecords int      `json:"total_cigam_records"`
}

// Classify maps the result onto the four outcome levels: success
// (progress, clean), warning (progress with omissions), info (no
// progress, only omissions), error (no progress, hard failures).
func (r *SalesSyncResult) Classify() string {
	progress := r.Inserted+r.Updated > 0
	omissions := r.SkippedCPFs+r.SkippedStores > 0

	switch {
	case progress && !omissions && r.Errors == 0:
		return "success"
	case progress:
		return "warning"
	case r.Errors > 0:
		return "error"
	default:
		return "info"
	}
}

// Message builds the composite human-readable summary.
func (r *SalesSyncResult) Message() string {
	parts := []string{
		fmt.Sprintf("%d inserted, %d updated of %d CIGAM records", r.Inserted, r.Updated, r.TotalCigamRecords),
	}
	if r.SkippedCPFs > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped for unregistered employees (%s)",
			r.SkippedCPFs, strings.Join(r.UnmappedCPFs, ", ")))
	}
	if r.SkippedStores > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped for unregistered stores (%s)",
			r.SkippedStores, strings.Join(r.UnmappedStores, ", ")))
	}
	if r.Errors > 0 {
		parts = append(parts, fmt.Sprintf("%d rows failed", r.Errors))
	}
	return strings.Join(parts, "; ")
}

// SalesEngine imports daily sales aggregates from CIGAM. Unlike
// products there is no lock concept: CIGAM is authoritative for rows it
// owns and corrective pulls update them in place.
type SalesEngine struct {
	db     *gorm.DB
	source cigam.Source
}

func NewSalesEngine(db *gorm.DB, source cigam.Source) *SalesEngine {
	return &SalesEngine{db: db, source: source}
}

func (e *SalesEngine) SyncDateRange(ctx context.Context, start, end time.Time, storeFilter string) (*SalesSyncResult, error) {
	if end.Before(start) {
		return nil, &ValidationError{Field: "end", Message: "end date before start date"}
	}
	if !e.source.IsAvailable(ctx) {
		return nil, ErrSourceUnavailable
	}

	records, err := e.source.FetchSales(ctx, start, end, storeFilter)
	if err != nil {
		return nil, fmt.Errorf("fetch sales: %w", err)
	}

	employeeByCPF, err := e.employeeIndex(ctx)
	if err != nil {
		return nil, err
	}
	storeByCode, err := e.storeIndex(ctx)
	if err != nil {
		return nil, err
	}

	result := &SalesSyncResult{TotalCigamRecords: len(records)}
	seenCPFs := map[string]bool{}
	seenStores := map[string]bool{}

	for _, rec := range records {
		cpf := normalizeCPF(rec.EmployeeCPF)

		employeeID, ok := employeeByCPF[cpf]
		if !ok {
			result.SkippedCPFs++
			if !seenCPFs[cpf] {
				seenCPFs[cpf] = true
				result.UnmappedCPFs = append(result.UnmappedCPFs, cpf)
			}
			continue
		}

		storeID, ok := storeByCode[rec.StoreCode]
		if !ok {
			result.SkippedStores++
			if !seenStores[rec.StoreCode] {
				seenStores[rec.StoreCode] = true
				result.UnmappedStores = append(result.UnmappedStores, rec.StoreCode)
			}
			continue
		}

		created, err := e.upsertSale(ctx, storeID, employeeID, rec)
		if err != nil {
			result.Errors++
			continue
		}
		if created {
			result.Inserted++
		} else {
			result.Updated++
		}
	}

	return result, nil
}

func (e *SalesEngine) upsertSale(ctx context.Context, storeID, employeeID int64, rec cigam.SaleRecord) (bool, error) {
	day := truncateToDay(rec.Date)

	var existing models.Sale
	err := e.db.WithContext(ctx).
		Where("store_id = ? AND employee_id = ? AND date_sales = ?", storeID, employeeID, day).
		First(&existing).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		sale := models.Sale{
			StoreID:    storeID,
			EmployeeID: employeeID,
			DateSales:  day,
			TotalSales: rec.Total,
			QtdeTotal:  rec.Qty,
			Source:     models.SaleSourceCigam,
		}
		if err := e.db.WithContext(ctx).Create(&sale).Error; err != nil {
			return false, err
		}
		return true, nil
	}
	if err != nil {
		return false, err
	}

	existing.TotalSales = rec.Total
	existing.QtdeTotal = rec.Qty
	existing.Source = models.SaleSourceCigam
	return false, e.db.WithContext(ctx).Save(&existing).Error
}

// AutoSync picks up from the day after the last CIGAM-sourced sale,
// defaulting to one month back, and runs through yesterday. The current
// day's figures are not final upstream.
func (e *SalesEngine) AutoSync(ctx context.Context) (*SalesSyncResult, time.Time, time.Time, error) {
	yesterday := truncateToDay(time.Now().AddDate(0, 0, -1))

	start := truncateToDay(time.Now().AddDate(0, -1, 0))
	var last models.Sale
	err := e.db.WithContext(ctx).
		Where("source = ?", models.SaleSourceCigam).
		Order("date_sales desc").
		First(&last).Error
	if err == nil {
		start = truncateToDay(last.DateSales).AddDate(0, 0, 1)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, time.Time{}, time.Time{}, err
	}

	if start.After(yesterday) {
		// Already current: nothing to pull.
		return &SalesSyncResult{}, start, yesterday, nil
	}

	result, err := e.SyncDateRange(ctx, start, yesterday, "")
	return result, start, yesterday, err
}

func (e *SalesEngine) employeeIndex(ctx context.Context) (map[string]int64, error) {
	var employees []models.Employee
	if err := e.db.WithContext(ctx).Find(&employees).Error; err != nil {
		return nil, err
	}
	index := make(map[string]int64, len(employees))
	for _, emp := range employees {
		index[normalizeCPF(emp.CPF)] = emp.ID
	}
	return index, nil
}

func (e *SalesEngine) storeIndex(ctx context.Context) (map[string]int64, error) {
	var stores []models.Store
	if err := e.db.WithContext(ctx).Find(&stores).Error; err != nil {
		return nil, err
	}
	index := make(map[string]int64, len(stores))
	for _, store := range stores {
		index[store.Code] = store.ID
	}
	return index, nil
}

func normalizeCPF(cpf string) string {
	var b strings.Builder
	for _, r := range cpf {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
