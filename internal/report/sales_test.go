package report

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cigamsync/internal/database/models"
)

const ecommerceCode = "900"

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

type fixture struct {
	centro    models.Store
	praia     models.Store
	ecommerce models.Store
	maria     models.Employee // active contract at centro
	joao      models.Employee // no active contract
}

func seedStores(t *testing.T, db *gorm.DB) fixture {
	t.Helper()

	f := fixture{
		centro:    models.Store{Code: "001", Name: "Centro", IsActive: true},
		praia:     models.Store{Code: "002", Name: "Praia", IsActive: true},
		ecommerce: models.Store{Code: ecommerceCode, Name: "E-commerce", IsActive: true},
	}
	require.NoError(t, db.Create(&f.centro).Error)
	require.NoError(t, db.Create(&f.praia).Error)
	require.NoError(t, db.Create(&f.ecommerce).Error)

	f.maria = models.Employee{Name: "Maria", CPF: "11122233344", StoreCode: "001", IsActive: true}
	f.joao = models.Employee{Name: "Joao", CPF: "55566677788", StoreCode: ecommerceCode, IsActive: true}
	require.NoError(t, db.Create(&f.maria).Error)
	require.NoError(t, db.Create(&f.joao).Error)

	require.NoError(t, db.Create(&models.EmploymentContract{
		EmployeeID: f.maria.ID,
		StoreCode:  "001",
		StartDate:  time.Now().AddDate(-1, 0, 0),
	}).Error)

	// Joao's only contract ended last year.
	ended := time.Now().AddDate(-1, 0, 0)
	require.NoError(t, db.Create(&models.EmploymentContract{
		EmployeeID: f.joao.ID,
		StoreCode:  "002",
		StartDate:  time.Now().AddDate(-2, 0, 0),
		EndDate:    &ended,
	}).Error)

	return f
}

func createSale(t *testing.T, db *gorm.DB, store models.Store, employee models.Employee, day time.Time, total string, qty int32) {
	t.Helper()
	require.NoError(t, db.Create(&models.Sale{
		StoreID:    store.ID,
		EmployeeID: employee.ID,
		DateSales:  day,
		TotalSales: total,
		QtdeTotal:  qty,
		Source:     models.SaleSourceCigam,
	}).Error)
}

func TestAllStoresRemapsEcommerceToActiveContractStore(t *testing.T) {
	db := newTestDB(t)
	f := seedStores(t, db)
	reporter := NewReporter(db, ecommerceCode)

	day := time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC)
	createSale(t, db, f.centro, f.maria, day, "500.00", 5)
	createSale(t, db, f.ecommerce, f.maria, day.AddDate(0, 0, 1), "200.00", 2)
	createSale(t, db, f.ecommerce, f.joao, day, "300.00", 3)

	groups, err := reporter.GroupByStore(context.Background(), 2026, time.August, "")
	require.NoError(t, err)
	require.Len(t, groups, 2)

	byCode := map[string]StoreGroup{}
	for _, g := range groups {
		byCode[g.StoreCode] = g
	}

	// Maria's e-commerce sale follows her active contract to Centro.
	centro := byCode["001"]
	assert.Equal(t, "700.00", centro.TotalSales)
	assert.Equal(t, int32(7), centro.QtdeTotal)
	require.Len(t, centro.Employees, 1)
	assert.Equal(t, "700.00", centro.Employees[0].TotalSales)

	// Joao has no active contract, so his sale stays on e-commerce.
	ecom := byCode[ecommerceCode]
	assert.Equal(t, "300.00", ecom.TotalSales)
	require.Len(t, ecom.Employees, 1)
	assert.Equal(t, f.joao.ID, ecom.Employees[0].EmployeeID)

	// Stores sorted by total descending.
	assert.Equal(t, "001", groups[0].StoreCode)
	assert.Equal(t, ecommerceCode, groups[1].StoreCode)
}

func TestSingleStoreModeIncludesConsultantEcommerceSales(t *testing.T) {
	db := newTestDB(t)
	f := seedStores(t, db)
	reporter := NewReporter(db, ecommerceCode)

	day := time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC)
	createSale(t, db, f.centro, f.maria, day, "500.00", 5)
	createSale(t, db, f.ecommerce, f.maria, day.AddDate(0, 0, 1), "200.00", 2)
	createSale(t, db, f.ecommerce, f.joao, day, "300.00", 3)
	createSale(t, db, f.praia, f.joao, day, "150.00", 1)

	groups, err := reporter.GroupByStore(context.Background(), 2026, time.August, "001")
	require.NoError(t, err)
	require.Len(t, groups, 1)

	group := groups[0]
	assert.Equal(t, "001", group.StoreCode)
	assert.Equal(t, "700.00", group.TotalSales, "store sales plus the consultant's e-commerce sales")
	require.Len(t, group.Employees, 1)
	assert.Equal(t, f.maria.ID, group.Employees[0].EmployeeID)
}

func TestSingleStoreModeEcommerceFilter(t *testing.T) {
	db := newTestDB(t)
	f := seedStores(t, db)
	reporter := NewReporter(db, ecommerceCode)

	day := time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC)
	createSale(t, db, f.ecommerce, f.maria, day, "200.00", 2)
	createSale(t, db, f.ecommerce, f.joao, day, "300.00", 3)
	createSale(t, db, f.centro, f.maria, day, "500.00", 5)

	groups, err := reporter.GroupByStore(context.Background(), 2026, time.August, ecommerceCode)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	// Filtering on the virtual store itself shows raw e-commerce rows,
	// no remapping.
	assert.Equal(t, "500.00", groups[0].TotalSales)
	assert.Len(t, groups[0].Employees, 2)
}

func TestEmployeesSortedByTotalDescending(t *testing.T) {
	db := newTestDB(t)
	f := seedStores(t, db)
	reporter := NewReporter(db, ecommerceCode)

	day := time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC)
	createSale(t, db, f.praia, f.maria, day, "100.00", 1)
	createSale(t, db, f.praia, f.joao, day, "900.00", 9)

	groups, err := reporter.GroupByStore(context.Background(), 2026, time.August, "002")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Employees, 2)
	assert.Equal(t, f.joao.ID, groups[0].Employees[0].EmployeeID)
	assert.Equal(t, f.maria.ID, groups[0].Employees[1].EmployeeID)
}

func TestMonthBoundaries(t *testing.T) {
	db := newTestDB(t)
	f := seedStores(t, db)
	reporter := NewReporter(db, ecommerceCode)

	createSale(t, db, f.centro, f.maria, time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC), "111.00", 1)
	createSale(t, db, f.centro, f.maria, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), "222.00", 2)

	groups, err := reporter.GroupByStore(context.Background(), 2026, time.August, "001")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "222.00", groups[0].TotalSales)
}
