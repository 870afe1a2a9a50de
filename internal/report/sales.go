package report

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"cigamsync/internal/database/models"
)

type EmployeeTotal struct {
	EmployeeID   int64  `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	TotalSales   string `json:"total_sales"`
	QtdeTotal    int32  `json:"qtde_total"`

	total decimal.Decimal
}

type StoreGroup struct {
	StoreCode  string          `json:"store_code"`
	StoreName  string          `json:"store_name"`
	TotalSales string          `json:"total_sales"`
	QtdeTotal  int32           `json:"qtde_total"`
	Employees  []EmployeeTotal `json:"employees"`

	total decimal.Decimal
}

// Reporter groups synced and manual sales by effective store.
// E-commerce sales are commissioned to consultants who physically work
// at a brick-and-mortar store; management wants totals that reflect
// where the selling effort originated.
type Reporter struct {
	db            *gorm.DB
	ecommerceCode string
}

func NewReporter(db *gorm.DB, ecommerceCode string) *Reporter {
	return &Reporter{db: db, ecommerceCode: ecommerceCode}
}

// GroupByStore aggregates one month of sales. With a store filter the
// single-store mode applies: every matching sale, including e-commerce
// sales of that store's consultants, lands under the one store. Without
// a filter the all-stores mode remaps each e-commerce sale to the
// selling employee's active contract store when one exists.
func (r *Reporter) GroupByStore(ctx context.Context, year int, month time.Month, storeCode string) ([]StoreGroup, error) {
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	if storeCode != "" {
		return r.singleStore(ctx, monthStart, monthEnd, storeCode)
	}
	return r.allStores(ctx, monthStart, monthEnd)
}

func (r *Reporter) singleStore(ctx context.Context, monthStart, monthEnd time.Time, storeCode string) ([]StoreGroup, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("code = ?", storeCode).First(&store).Error; err != nil {
		return nil, err
	}

	var sales []models.Sale
	query := r.db.WithContext(ctx).
		Preload("Store").
		Preload("Employee").
		Where("date_sales >= ? AND date_sales < ?", monthStart, monthEnd)

	if storeCode == r.ecommerceCode {
		query = query.Where("store_id = ?", store.ID)
	} else {
		// Pre-filter e-commerce rows to this store's consultants via
		// their active contracts.
		consultantIDs := r.db.Model(&models.EmploymentContract{}).
			Select("employee_id").
			Where("store_code = ?", storeCode).
			Where("start_date <= ?", time.Now()).
			Where("end_date IS NULL OR end_date >= ?", time.Now())

		var ecommerce models.Store
		err := r.db.WithContext(ctx).Where("code = ?", r.ecommerceCode).First(&ecommerce).Error
		if err == nil {
			query = query.Where("store_id = ? OR (store_id = ? AND employee_id IN (?))",
				store.ID, ecommerce.ID, consultantIDs)
		} else {
			query = query.Where("store_id = ?", store.ID)
		}
	}

	if err := query.Find(&sales).Error; err != nil {
		return nil, err
	}

	group := StoreGroup{
		StoreCode: store.Code,
		StoreName: store.Name,
		total:     decimal.Zero,
	}
	employees := map[int64]*EmployeeTotal{}
	for i := range sales {
		accumulate(&group, employees, &sales[i])
	}

	finishGroup(&group, employees)
	return []StoreGroup{group}, nil
}

func (r *Reporter) allStores(ctx context.Context, monthStart, monthEnd time.Time) ([]StoreGroup, error) {
	var sales []models.Sale
	err := r.db.WithContext(ctx).
		Preload("Store").
		Preload("Employee").
		Where("date_sales >= ? AND date_sales < ?", monthStart, monthEnd).
		Find(&sales).Error
	if err != nil {
		return nil, err
	}

	storesByCode, err := r.storeIndex(ctx)
	if err != nil {
		return nil, err
	}
	contractStore, err := r.activeContractIndex(ctx)
	if err != nil {
		return nil, err
	}

	groups := map[string]*StoreGroup{}
	groupEmployees := map[string]map[int64]*EmployeeTotal{}

	for i := range sales {
		sale := &sales[i]
		store := sale.Store
		if store == nil {
			continue
		}

		effective := store
		if store.Code == r.ecommerceCode {
			if homeCode, ok := contractStore[sale.EmployeeID]; ok && homeCode != r.ecommerceCode {
				if home, ok := storesByCode[homeCode]; ok {
					effective = home
				}
			}
		}

		group, ok := groups[effective.Code]
		if !ok {
			group = &StoreGroup{
				StoreCode: effective.Code,
				StoreName: effective.Name,
				total:     decimal.Zero,
			}
			groups[effective.Code] = group
			groupEmployees[effective.Code] = map[int64]*EmployeeTotal{}
		}
		accumulate(group, groupEmployees[effective.Code], sale)
	}

	result := make([]StoreGroup, 0, len(groups))
	for code, group := range groups {
		finishGroup(group, groupEmployees[code])
		result = append(result, *group)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].total.GreaterThan(result[j].total)
	})
	return result, nil
}

func accumulate(group *StoreGroup, employees map[int64]*EmployeeTotal, sale *models.Sale) {
	amount, _ := decimal.NewFromString(sale.TotalSales)
	group.total = group.total.Add(amount)
	group.QtdeTotal += sale.QtdeTotal

	emp, ok := employees[sale.EmployeeID]
	if !ok {
		name := ""
		if sale.Employee != nil {
			name = sale.Employee.Name
		}
		emp = &EmployeeTotal{
			EmployeeID:   sale.EmployeeID,
			EmployeeName: name,
			total:        decimal.Zero,
		}
		employees[sale.EmployeeID] = emp
	}
	emp.total = emp.total.Add(amount)
	emp.QtdeTotal += sale.QtdeTotal
}

func finishGroup(group *StoreGroup, employees map[int64]*EmployeeTotal) {
	group.TotalSales = group.total.StringFixed(2)
	group.Employees = make([]EmployeeTotal, 0, len(employees))
	for _, emp := range employees {
		emp.TotalSales = emp.total.StringFixed(2)
		group.Employees = append(group.Employees, *emp)
	}
	sort.Slice(group.Employees, func(i, j int) bool {
		return group.Employees[i].total.GreaterThan(group.Employees[j].total)
	})
}

func (r *Reporter) storeIndex(ctx context.Context) (map[string]*models.Store, error) {
	var stores []models.Store
	if err := r.db.WithContext(ctx).Find(&stores).Error; err != nil {
		return nil, err
	}
	index := make(map[string]*models.Store, len(stores))
	for i := range stores {
		index[stores[i].Code] = &stores[i]
	}
	return index, nil
}

// activeContractIndex maps employee id to the home store code of their
// currently active contract, latest start date winning.
func (r *Reporter) activeContractIndex(ctx context.Context) (map[int64]string, error) {
	now := time.Now()
	var contracts []models.EmploymentContract
	err := r.db.WithContext(ctx).
		Where("start_date <= ?", now).
		Where("end_date IS NULL OR end_date >= ?", now).
		Order("start_date asc").
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}

	index := map[int64]string{}
	for _, c := range contracts {
		index[c.EmployeeID] = c.StoreCode
	}
	return index, nil
}
