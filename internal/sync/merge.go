package sync

import (
	"cigamsync/internal/cigam"
	"cigamsync/internal/database/models"
)

// productDelta carries the mutable fields a sync pull is allowed to
// overwrite. Keeping the merge in one place makes the lock contract
// auditable instead of scattering per-field conditionals over the
// update path.
type productDelta struct {
	Description       string
	BrandCode         string
	CollectionCode    string
	SubcollectionCode string
	CategoryCode      string
	ColorCode         string
	MaterialCode      string
	SupplierCode      string
	SalePrice         string
	CostPrice         string
}

func deltaFromRecord(rec cigam.ProductRecord) productDelta {
	return productDelta{
		Description:       rec.Description,
		BrandCode:         rec.BrandCode,
		CollectionCode:    rec.CollectionCode,
		SubcollectionCode: rec.SubcollectionCode,
		CategoryCode:      rec.CategoryCode,
		ColorCode:         rec.ColorCode,
		MaterialCode:      rec.MaterialCode,
		SupplierCode:      rec.SupplierCode,
		SalePrice:         rec.SalePrice,
		CostPrice:         rec.CostPrice,
	}
}

// applyDelta merges a pull onto an existing product. Returns false
// without touching the row when the product is locked: the lock wins
// over sync, always, until explicit unlock.
func applyDelta(p *models.Product, d productDelta) bool {
	if p.SyncLocked {
		return false
	}

	p.Description = d.Description
	p.BrandCode = d.BrandCode
	p.CollectionCode = d.CollectionCode
	p.SubcollectionCode = d.SubcollectionCode
	p.CategoryCode = d.CategoryCode
	p.ColorCode = d.ColorCode
	p.MaterialCode = d.MaterialCode
	p.SupplierCode = d.SupplierCode
	p.SalePrice = d.SalePrice
	p.CostPrice = d.CostPrice
	p.IsActive = true
	return true
}
