package sync

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cigamsync/internal/cigam"
	"cigamsync/internal/database/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	return db
}

// stubSource is a scriptable CIGAM adapter for tests.
type stubSource struct {
	available   bool
	lookups     cigam.Lookups
	products    []cigam.ProductRecord
	prices      []cigam.PriceRecord
	sales       []cigam.SaleRecord
	productsErr error
	salesErr    error

	// when set, FetchProductsChunk returns records verbatim instead of
	// applying cursor ordering, to simulate a misbehaving source.
	rawChunks [][]cigam.ProductRecord
}

func (s *stubSource) IsAvailable(ctx context.Context) bool { return s.available }

func (s *stubSource) FetchLookups(ctx context.Context) (*cigam.Lookups, error) {
	return &s.lookups, nil
}

func (s *stubSource) CountProducts(ctx context.Context) (int64, error) {
	return int64(len(s.products)), nil
}

func (s *stubSource) FetchProductsChunk(ctx context.Context, afterReference string, limit int) ([]cigam.ProductRecord, error) {
	if s.productsErr != nil {
		return nil, s.productsErr
	}
	if len(s.rawChunks) > 0 {
		chunk := s.rawChunks[0]
		s.rawChunks = s.rawChunks[1:]
		return chunk, nil
	}

	sorted := make([]cigam.ProductRecord, len(s.products))
	copy(sorted, s.products)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Reference < sorted[j].Reference })

	var out []cigam.ProductRecord
	for _, rec := range sorted {
		if rec.Reference <= afterReference {
			continue
		}
		out = append(out, rec)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *stubSource) FetchPrices(ctx context.Context) ([]cigam.PriceRecord, error) {
	return s.prices, nil
}

func (s *stubSource) FetchSales(ctx context.Context, start, end time.Time, storeCodeFilter string) ([]cigam.SaleRecord, error) {
	if s.salesErr != nil {
		return nil, s.salesErr
	}
	var out []cigam.SaleRecord
	for _, rec := range s.sales {
		if rec.Date.Before(start) || rec.Date.After(end.AddDate(0, 0, 1)) {
			continue
		}
		if storeCodeFilter != "" && rec.StoreCode != storeCodeFilter {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func makeProducts(n int) []cigam.ProductRecord {
	out := make([]cigam.ProductRecord, 0, n)
	for i := 1; i <= n; i++ {
		ref := fmt.Sprintf("REF-%04d", i)
		out = append(out, cigam.ProductRecord{
			Reference:    ref,
			Description:  "Product " + ref,
			BrandCode:    "B01",
			CategoryCode: "C01",
			SalePrice:    "100.00",
			CostPrice:    "40.00",
			Variants: []cigam.VariantRecord{
				{Barcode: ref + "-BC", SizeCode: "M"},
			},
		})
	}
	return out
}

func newTestEngine(t *testing.T, source cigam.Source) (*ProductEngine, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewProductEngine(db, source, nil, NewMemorySlotLease()), db
}
