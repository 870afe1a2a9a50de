package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cigamsync/internal/cigam"
	"cigamsync/internal/database/models"
)

func TestApplyDeltaUnlocked(t *testing.T) {
	product := models.Product{
		Reference:   "REF-1",
		Description: "Old",
		SalePrice:   "10.00",
	}
	rec := cigam.ProductRecord{
		Reference:    "REF-1",
		Description:  "FromSource",
		BrandCode:    "B01",
		CategoryCode: "C01",
		SalePrice:    "20.00",
		CostPrice:    "8.00",
	}

	applied := applyDelta(&product, deltaFromRecord(rec))

	assert.True(t, applied)
	assert.Equal(t, "FromSource", product.Description)
	assert.Equal(t, "B01", product.BrandCode)
	assert.Equal(t, "20.00", product.SalePrice)
	assert.True(t, product.IsActive)
}

func TestApplyDeltaLockedLeavesEveryFieldUntouched(t *testing.T) {
	product := models.Product{
		Reference:    "REF-1",
		Description:  "ManualFix",
		BrandCode:    "B99",
		CategoryCode: "C99",
		SalePrice:    "15.00",
		CostPrice:    "5.00",
		SyncLocked:   true,
	}
	before := product

	applied := applyDelta(&product, deltaFromRecord(cigam.ProductRecord{
		Description: "FromSource",
		SalePrice:   "20.00",
	}))

	assert.False(t, applied)
	assert.Equal(t, before, product)
}
