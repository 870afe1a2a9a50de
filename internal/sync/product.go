package sync

import (
	"context"
	"errors"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cigamsync/internal/cigam"
	"cigamsync/internal/database"
	"cigamsync/internal/database/models"
)

const (
	PRODUCTS_CACHE_KEY = "cigamsync:products"
	LOOKUPS_CACHE_KEY  = "cigamsync:lookups"
	CACHE_TTL_MEDIUM   = 30 * time.Minute

	MinChunkSize = 50
	MaxChunkSize = 2000

	// leaseTTL bounds how long a crashed run can hold the slot.
	leaseTTL = 4 * time.Hour

	PhaseCounting = "counting"
	PhaseLookups  = "lookups"
	PhaseProducts = "products"
	PhasePrices   = "prices"
)

type recordOutcome int

const (
	outcomeInserted recordOutcome = iota
	outcomeUpdated
	outcomeSkipped
)

// ChunkResult is what one ProcessChunk call reports back to the caller
// driving the loop.
type ChunkResult struct {
	ProcessedInChunk int    `json:"processed_in_chunk"`
	LastReference    string `json:"last_reference"`
	Done             bool   `json:"done"`
}

// PriceSyncResult summarizes a price-only pass.
type PriceSyncResult struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// ProductEngine orchestrates lookup sync, chunked product upsert, the
// price-only pass and the sync log lifecycle against the CIGAM source.
type ProductEngine struct {
	db     *gorm.DB
	source cigam.Source
	cache  *redis.Client
	lease  SlotLease

	mu         stdsync.Mutex
	leaseToken string
}

func NewProductEngine(db *gorm.DB, source cigam.Source, cache *redis.Client, lease SlotLease) *ProductEngine {
	return &ProductEngine{
		db:     db,
		source: source,
		cache:  cache,
		lease:  lease,
	}
}

func (e *ProductEngine) IsAvailable(ctx context.Context) bool {
	return e.source.IsAvailable(ctx)
}

// InitSync creates a running log after winning the sync slot. A lost
// slot or a log already running resolves to a ConflictError carrying
// the existing log.
func (e *ProductEngine) InitSync(ctx context.Context, syncType models.SyncType, startedBy string) (*models.ProductSyncLog, error) {
	if !syncType.IsValid() {
		return nil, &ValidationError{Field: "sync_type", Message: fmt.Sprintf("unknown sync type %q", syncType)}
	}
	if !e.source.IsAvailable(ctx) {
		return nil, ErrSourceUnavailable
	}

	token := uuid.NewString()
	acquired, err := e.lease.Acquire(ctx, token, leaseTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire sync slot: %w", err)
	}
	if !acquired {
		return nil, &ConflictError{ExistingLog: e.runningLog(ctx)}
	}

	// The lease can outlive a log and vice versa after a crash, so the
	// running-log check stays alongside it.
	if existing := e.runningLog(ctx); existing != nil {
		_ = e.lease.Release(ctx, token)
		return nil, &ConflictError{ExistingLog: existing}
	}

	var total int64
	switch syncType {
	case models.SyncTypeFull, models.SyncTypeIncremental, models.SyncTypeByPeriod:
		if n, err := e.source.CountProducts(ctx); err == nil {
			total = n
		}
	}

	logRow := &models.ProductSyncLog{
		SyncType:     syncType,
		Status:       models.SyncStatusRunning,
		CurrentPhase: PhaseCounting,
		TotalRecords: total,
		ErrorDetails: database.StringArray{},
		StartedAt:    time.Now(),
		StartedBy:    startedBy,
	}
	if err := e.db.WithContext(ctx).Create(logRow).Error; err != nil {
		_ = e.lease.Release(ctx, token)
		return nil, err
	}

	e.mu.Lock()
	e.leaseToken = token
	e.mu.Unlock()

	return logRow, nil
}

func (e *ProductEngine) runningLog(ctx context.Context) *models.ProductSyncLog {
	var existing models.ProductSyncLog
	err := e.db.WithContext(ctx).
		Where("status = ?", models.SyncStatusRunning).
		Order("started_at desc").
		First(&existing).Error
	if err != nil {
		return nil
	}
	return &existing
}

// SyncLookups upserts every lookup table from one pull. Entries absent
// from the pull are left stale, never deleted, so product code
// references stay resolvable. Fast enough to run inline.
func (e *ProductEngine) SyncLookups(ctx context.Context) (map[string]int, error) {
	if !e.source.IsAvailable(ctx) {
		return nil, ErrSourceUnavailable
	}

	lookups, err := e.source.FetchLookups(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch lookups: %w", err)
	}

	counts := map[string]int{}
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "is_active", "updated_at"}),
		}

		if len(lookups.Brands) > 0 {
			rows := make([]models.Brand, 0, len(lookups.Brands))
			for _, l := range lookups.Brands {
				rows = append(rows, models.Brand{Code: l.Code, Name: l.Name, IsActive: true})
			}
			if err := tx.Clauses(upsert).Create(&rows).Error; err != nil {
				return err
			}
		}
		counts["brands"] = len(lookups.Brands)

		if len(lookups.Collections) > 0 {
			rows := make([]models.Collection, 0, len(lookups.Collections))
			for _, l := range lookups.Collections {
				rows = append(rows, models.Collection{Code: l.Code, Name: l.Name, IsActive: true})
			}
			if err := tx.Clauses(upsert).Create(&rows).Error; err != nil {
				return err
			}
		}
		counts["collections"] = len(lookups.Collections)

		if len(lookups.Categories) > 0 {
			rows := make([]models.Category, 0, len(lookups.Categories))
			for _, l := range lookups.Categories {
				rows = append(rows, models.Category{Code: l.Code, Name: l.Name, IsActive: true})
			}
			if err := tx.Clauses(upsert).Create(&rows).Error; err != nil {
				return err
			}
		}
		counts["categories"] = len(lookups.Categories)

		if len(lookups.Colors) > 0 {
			rows := make([]models.Color, 0, len(lookups.Colors))
			for _, l := range lookups.Colors {
				rows = append(rows, models.Color{Code: l.Code, Name: l.Name, IsActive: true})
			}
			if err := tx.Clauses(upsert).Create(&rows).Error; err != nil {
				return err
			}
		}
		counts["colors"] = len(lookups.Colors)

		if len(lookups.Materials) > 0 {
			rows := make([]models.Material, 0, len(lookups.Materials))
			for _, l := range lookups.Materials {
				rows = append(rows, models.Material{Code: l.Code, Name: l.Name, IsActive: true})
			}
			if err := tx.Clauses(upsert).Create(&rows).Error; err != nil {
				return err
			}
		}
		counts["materials"] = len(lookups.Materials)

		if len(lookups.Sizes) > 0 {
			rows := make([]models.Size, 0, len(lookups.Sizes))
			for _, l := range lookups.Sizes {
				rows = append(rows, models.Size{Code: l.Code, Name: l.Name, IsActive: true})
			}
			if err := tx.Clauses(upsert).Create(&rows).Error; err != nil {
				return err
			}
		}
		counts["sizes"] = len(lookups.Sizes)

		if len(lookups.ArticleComplements) > 0 {
			rows := make([]models.ArticleComplement, 0, len(lookups.ArticleComplements))
			for _, l := range lookups.ArticleComplements {
				rows = append(rows, models.ArticleComplement{Code: l.Code, Name: l.Name, IsActive: true})
			}
			if err := tx.Clauses(upsert).Create(&rows).Error; err != nil {
				return err
			}
		}
		counts["article_complements"] = len(lookups.ArticleComplements)

		if len(lookups.Suppliers) > 0 {
			rows := make([]models.Supplier, 0, len(lookups.Suppliers))
			for _, l := range lookups.Suppliers {
				rows = append(rows, models.Supplier{Code: l.Code, Name: l.Name, IsActive: true})
			}
			if err := tx.Clauses(upsert).Create(&rows).Error; err != nil {
				return err
			}
		}
		counts["suppliers"] = len(lookups.Suppliers)

		return nil
	})
	if err != nil {
		return nil, err
	}

	e.invalidateCaches(ctx)
	return counts, nil
}

// ProcessChunk advances one resumable unit of work. A single bad record
// never aborts the chunk; per-record failures accumulate on the log.
func (e *ProductEngine) ProcessChunk(ctx context.Context, logID int64, lastReference string, chunkSize int) (*ChunkResult, error) {
	if chunkSize < MinChunkSize || chunkSize > MaxChunkSize {
		return nil, &ValidationError{
			Field:   "chunk_size",
			Message: fmt.Sprintf("must be between %d and %d", MinChunkSize, MaxChunkSize),
		}
	}

	logRow, err := e.loadLog(ctx, logID)
	if err != nil {
		return nil, err
	}
	if logRow.Status != models.SyncStatusRunning {
		return nil, ErrLogNotRunning
	}

	records, err := e.source.FetchProductsChunk(ctx, lastReference, chunkSize)
	if err != nil {
		// Failure outside the per-record scope: the whole run fails.
		fetchErr := fmt.Errorf("fetch products chunk after %q: %w", lastReference, err)
		e.markFailed(ctx, logRow, fetchErr)
		return nil, fetchErr
	}

	var inserted, updated, skipped int
	var recordErrors []string
	prevRef := lastReference
	newLast := lastReference

	for _, rec := range records {
		// The cursor contract assumes a stable total order; violations
		// are a data-quality fault to surface, not to tolerate.
		if rec.Reference <= prevRef {
			recordErrors = append(recordErrors,
				fmt.Sprintf("reference %q out of order after %q", rec.Reference, prevRef))
			continue
		}
		prevRef = rec.Reference
		newLast = rec.Reference

		outcome, err := e.processRecord(ctx, rec)
		if err != nil {
			recordErrors = append(recordErrors, fmt.Sprintf("reference %s: %v", rec.Reference, err))
			continue
		}
		switch outcome {
		case outcomeInserted:
			inserted++
		case outcomeUpdated:
			updated++
		case outcomeSkipped:
			skipped++
		}
	}

	if err := e.bumpCounters(ctx, logRow.ID, PhaseProducts, len(records), inserted, updated, skipped, recordErrors); err != nil {
		return nil, err
	}

	if len(records) > 0 {
		e.invalidateCaches(ctx)
	}

	return &ChunkResult{
		ProcessedInChunk: len(records),
		LastReference:    newLast,
		Done:             len(records) < chunkSize,
	}, nil
}

func (e *ProductEngine) processRecord(ctx context.Context, rec cigam.ProductRecord) (recordOutcome, error) {
	var product models.Product
	err := e.db.WithContext(ctx).Where("reference = ?", rec.Reference).First(&product).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := e.insertProduct(ctx, rec); err != nil {
			return 0, err
		}
		return outcomeInserted, nil
	}
	if err != nil {
		return 0, err
	}

	if !applyDelta(&product, deltaFromRecord(rec)) {
		return outcomeSkipped, nil
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&product).Error; err != nil {
			return err
		}
		return upsertVariants(tx, product.ID, rec.Variants)
	})
	if err != nil {
		return 0, err
	}
	return outcomeUpdated, nil
}

func (e *ProductEngine) insertProduct(ctx context.Context, rec cigam.ProductRecord) error {
	product := models.Product{
		Reference: rec.Reference,
		IsActive:  true,
	}
	applyDelta(&product, deltaFromRecord(rec))

	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		return upsertVariants(tx, product.ID, rec.Variants)
	})
}

func upsertVariants(tx *gorm.DB, productID int64, variants []cigam.VariantRecord) error {
	for i, v := range variants {
		if v.Barcode == "" {
			continue
		}

		var existing models.ProductVariant
		err := tx.Where("barcode = ?", v.Barcode).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			variant := models.ProductVariant{
				ProductID:    productID,
				Barcode:      v.Barcode,
				AuxReference: GenerateEAN13(productID*100 + int64(i)),
				SizeCode:     v.SizeCode,
				IsActive:     true,
			}
			if err := tx.Create(&variant).Error; err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}

		existing.ProductID = productID
		existing.SizeCode = v.SizeCode
		existing.IsActive = true
		if err := tx.Save(&existing).Error; err != nil {
			return err
		}
	}
	return nil
}

// SyncPrices refreshes only the price fields of active, unlocked
// products, bypassing the chunk cursor.
func (e *ProductEngine) SyncPrices(ctx context.Context, logID int64) (*PriceSyncResult, error) {
	logRow, err := e.loadLog(ctx, logID)
	if err != nil {
		return nil, err
	}
	if logRow.Status != models.SyncStatusRunning {
		return nil, ErrLogNotRunning
	}

	prices, err := e.source.FetchPrices(ctx)
	if err != nil {
		fetchErr := fmt.Errorf("fetch prices: %w", err)
		e.markFailed(ctx, logRow, fetchErr)
		return nil, fetchErr
	}

	result := &PriceSyncResult{}
	var recordErrors []string
	for _, p := range prices {
		result.Processed++
		res := e.db.WithContext(ctx).Model(&models.Product{}).
			Where("reference = ? AND is_active = ? AND sync_locked = ?", p.Reference, true, false).
			Updates(map[string]interface{}{
				"sale_price": p.SalePrice,
				"cost_price": p.CostPrice,
			})
		if res.Error != nil {
			result.Errors++
			recordErrors = append(recordErrors, fmt.Sprintf("price for %s: %v", p.Reference, res.Error))
			continue
		}
		if res.RowsAffected == 0 {
			result.Skipped++
			continue
		}
		result.Updated++
	}

	if err := e.bumpCounters(ctx, logRow.ID, PhasePrices, result.Processed, 0, result.Updated, result.Skipped, recordErrors); err != nil {
		return nil, err
	}

	e.invalidateCaches(ctx)
	return result, nil
}

// FinalizeSync marks the run completed. Calling it on a log already in
// a terminal state is a no-op returning the current row.
func (e *ProductEngine) FinalizeSync(ctx context.Context, logID int64) (*models.ProductSyncLog, error) {
	logRow, err := e.loadLog(ctx, logID)
	if err != nil {
		return nil, err
	}
	if logRow.Status.IsTerminal() {
		return logRow, nil
	}

	now := time.Now()
	logRow.Status = models.SyncStatusCompleted
	logRow.CompletedAt = &now
	if err := e.db.WithContext(ctx).Save(logRow).Error; err != nil {
		return nil, err
	}

	e.releaseSlot(ctx)
	return logRow, nil
}

// CancelSync is valid only from running. It does not interrupt a chunk
// in flight; the next ProcessChunk call sees the terminal status and
// refuses to proceed.
func (e *ProductEngine) CancelSync(ctx context.Context, logID int64) (*models.ProductSyncLog, error) {
	logRow, err := e.loadLog(ctx, logID)
	if err != nil {
		return nil, err
	}
	if logRow.Status != models.SyncStatusRunning {
		return nil, ErrLogNotRunning
	}

	now := time.Now()
	logRow.Status = models.SyncStatusCancelled
	logRow.CompletedAt = &now
	if err := e.db.WithContext(ctx).Save(logRow).Error; err != nil {
		return nil, err
	}

	e.releaseSlot(ctx)
	return logRow, nil
}

// GetLog returns one log snapshot for progress polling.
func (e *ProductEngine) GetLog(ctx context.Context, logID int64) (*models.ProductSyncLog, error) {
	return e.loadLog(ctx, logID)
}

// ListLogs returns sync history, newest first.
func (e *ProductEngine) ListLogs(ctx context.Context, page, pageSize int) ([]models.ProductSyncLog, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var total int64
	if err := e.db.WithContext(ctx).Model(&models.ProductSyncLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.ProductSyncLog
	err := e.db.WithContext(ctx).
		Order("started_at desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&logs).Error
	return logs, total, err
}

func (e *ProductEngine) loadLog(ctx context.Context, logID int64) (*models.ProductSyncLog, error) {
	var logRow models.ProductSyncLog
	err := e.db.WithContext(ctx).First(&logRow, logID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLogNotFound
	}
	if err != nil {
		return nil, err
	}
	return &logRow, nil
}

func (e *ProductEngine) bumpCounters(ctx context.Context, logID int64, phase string, processed, inserted, updated, skipped int, recordErrors []string) error {
	err := e.db.WithContext(ctx).Model(&models.ProductSyncLog{}).
		Where("id = ?", logID).
		Updates(map[string]interface{}{
			"current_phase":     phase,
			"processed_records": gorm.Expr("processed_records + ?", processed),
			"inserted_records":  gorm.Expr("inserted_records + ?", inserted),
			"updated_records":   gorm.Expr("updated_records + ?", updated),
			"skipped_records":   gorm.Expr("skipped_records + ?", skipped),
			"error_count":       gorm.Expr("error_count + ?", len(recordErrors)),
		}).Error
	if err != nil {
		return err
	}

	if len(recordErrors) == 0 {
		return nil
	}

	// ErrorDetails is only ever written by the owning run, so a plain
	// read-modify-write is safe here.
	logRow, err := e.loadLog(ctx, logID)
	if err != nil {
		return err
	}
	logRow.ErrorDetails = append(logRow.ErrorDetails, recordErrors...)
	return e.db.WithContext(ctx).Model(logRow).Update("error_details", logRow.ErrorDetails).Error
}

func (e *ProductEngine) markFailed(ctx context.Context, logRow *models.ProductSyncLog, cause error) {
	now := time.Now()
	logRow.Status = models.SyncStatusFailed
	logRow.CompletedAt = &now
	logRow.ErrorCount++
	logRow.ErrorDetails = append(logRow.ErrorDetails, cause.Error())
	_ = e.db.WithContext(ctx).Save(logRow).Error

	e.releaseSlot(ctx)
}

func (e *ProductEngine) releaseSlot(ctx context.Context) {
	e.mu.Lock()
	token := e.leaseToken
	e.leaseToken = ""
	e.mu.Unlock()

	if token != "" {
		_ = e.lease.Release(ctx, token)
	}
}

func (e *ProductEngine) invalidateCaches(ctx context.Context) {
	if e.cache == nil {
		return
	}
	_ = e.cache.Del(ctx, PRODUCTS_CACHE_KEY, LOOKUPS_CACHE_KEY)
}
