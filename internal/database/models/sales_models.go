package models

import "time"

// SaleSource tags who owns a sale row. CIGAM rows are overwritten by
// corrective syncs; manual rows are only touched by manual edits.
type SaleSource string

const (
	SaleSourceManual SaleSource = "manual"
	SaleSourceCigam  SaleSource = "cigam"
)

func (s SaleSource) IsValid() bool {
	switch s {
	case SaleSourceManual, SaleSourceCigam:
		return true
	default:
		return false
	}
}

type Store struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Code      string `gorm:"type:varchar(32);uniqueIndex;not null"`
	Name      string `gorm:"type:varchar(128);not null"`
	IsActive  bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Employee struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"type:varchar(128);not null"`
	CPF       string `gorm:"type:varchar(14);uniqueIndex;not null"`
	StoreCode string `gorm:"type:varchar(32);index"`
	IsActive  bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Contracts []EmploymentContract `gorm:"foreignKey:EmployeeID"`
}

// EmploymentContract answers "what is this employee's home store right
// now" during e-commerce remapping. A nil EndDate means the contract is
// currently active.
type EmploymentContract struct {
	ID         int64      `gorm:"primaryKey;autoIncrement"`
	EmployeeID int64      `gorm:"index;not null"`
	StoreCode  string     `gorm:"type:varchar(32);not null"`
	StartDate  time.Time  `gorm:"not null"`
	EndDate    *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Sale holds one day's aggregate for a (store, employee) pair. The
// composite unique index backs the at-most-one-row-per-key invariant in
// addition to the application-level check.
type Sale struct {
	ID         int64      `gorm:"primaryKey;autoIncrement"`
	StoreID    int64      `gorm:"not null;uniqueIndex:idx_sales_store_employee_date"`
	EmployeeID int64      `gorm:"not null;uniqueIndex:idx_sales_store_employee_date"`
	DateSales  time.Time  `gorm:"type:date;not null;uniqueIndex:idx_sales_store_employee_date"`
	TotalSales string     `gorm:"type:decimal(18,2);not null;default:'0.00'"`
	QtdeTotal  int32      `gorm:"not null;default:0"`
	Source     SaleSource `gorm:"type:varchar(16);not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Store    *Store    `gorm:"foreignKey:StoreID"`
	Employee *Employee `gorm:"foreignKey:EmployeeID"`
}
