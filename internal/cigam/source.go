package cigam

import (
	"context"
	"time"
)

// LookupEntry is one row of a CIGAM lookup table (brand, collection,
// category, color, material, size, article complement, supplier).
type LookupEntry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type Lookups struct {
	Brands             []LookupEntry `json:"brands"`
	Collections        []LookupEntry `json:"collections"`
	Categories         []LookupEntry `json:"categories"`
	Colors             []LookupEntry `json:"colors"`
	Materials          []LookupEntry `json:"materials"`
	Sizes              []LookupEntry `json:"sizes"`
	ArticleComplements []LookupEntry `json:"article_complements"`
	Suppliers          []LookupEntry `json:"suppliers"`
}

type VariantRecord struct {
	Barcode  string `json:"barcode"`
	SizeCode string `json:"size_code"`
}

type ProductRecord struct {
	Reference         string          `json:"reference"`
	Description       string          `json:"description"`
	BrandCode         string          `json:"brand_code"`
	CollectionCode    string          `json:"collection_code"`
	SubcollectionCode string          `json:"subcollection_code"`
	CategoryCode      string          `json:"category_code"`
	ColorCode         string          `json:"color_code"`
	MaterialCode      string          `json:"material_code"`
	SupplierCode      string          `json:"supplier_code"`
	SalePrice         string          `json:"sale_price"`
	CostPrice         string          `json:"cost_price"`
	Variants          []VariantRecord `json:"variants"`
}

type PriceRecord struct {
	Reference string `json:"reference"`
	SalePrice string `json:"sale_price"`
	CostPrice string `json:"cost_price"`
}

// SaleRecord is a per-day aggregate keyed by the selling employee's CPF
// and the CIGAM store code.
type SaleRecord struct {
	EmployeeCPF string    `json:"employee_cpf"`
	StoreCode   string    `json:"store_code"`
	Date        time.Time `json:"date"`
	Total       string    `json:"total"`
	Qty         int32     `json:"qty"`
}

// Source is the read-only contract the sync pipeline expects from the
// CIGAM ERP. FetchProductsChunk must return records ordered by reference
// ascending; afterReference = "" starts from the beginning.
type Source interface {
	IsAvailable(ctx context.Context) bool
	FetchLookups(ctx context.Context) (*Lookups, error)
	CountProducts(ctx context.Context) (int64, error)
	FetchProductsChunk(ctx context.Context, afterReference string, limit int) ([]ProductRecord, error)
	FetchPrices(ctx context.Context) ([]PriceRecord, error)
	FetchSales(ctx context.Context, start, end time.Time, storeCodeFilter string) ([]SaleRecord, error)
}
