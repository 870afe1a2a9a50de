package models

import "time"

// Product mirrors the CIGAM product master. All *Code fields reference
// lookup tables by their CIGAM code, not by internal id, matching how
// the ERP exports them.
type Product struct {
	ID                int64  `gorm:"primaryKey;autoIncrement"`
	Reference         string `gorm:"type:varchar(32);uniqueIndex;not null"`
	Description       string `gorm:"type:varchar(255);not null"`
	BrandCode         string `gorm:"type:varchar(32);index"`
	CollectionCode    string `gorm:"type:varchar(32)"`
	SubcollectionCode string `gorm:"type:varchar(32)"`
	CategoryCode      string `gorm:"type:varchar(32);index"`
	ColorCode         string `gorm:"type:varchar(32)"`
	MaterialCode      string `gorm:"type:varchar(32)"`
	SupplierCode      string `gorm:"type:varchar(32)"`
	SalePrice         string `gorm:"type:decimal(18,2);not null;default:'0.00'"`
	CostPrice         string `gorm:"type:decimal(18,2);not null;default:'0.00'"`
	IsActive          bool   `gorm:"not null;default:true"`

	// SyncLocked is set by the manual-edit path and only cleared by an
	// explicit unlock. While set, the sync engine must not touch any
	// other field of this row.
	SyncLocked bool `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Variants []ProductVariant `gorm:"foreignKey:ProductID"`
}

type ProductVariant struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	ProductID    int64  `gorm:"index;not null"`
	Barcode      string `gorm:"type:varchar(64);uniqueIndex;not null"`
	AuxReference string `gorm:"type:varchar(13)"` // generated EAN-13
	SizeCode     string `gorm:"type:varchar(16)"`
	IsActive     bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

// Lookup tables synced from CIGAM. Entries absent from a pull are left
// stale (IsActive untouched by absence), never deleted, so product code
// references stay resolvable.

type Brand struct {
	ID        int32  `gorm:"primaryKey;autoIncrement"`
	Code      string `gorm:"type:varchar(32);uniqueIndex;not null"`
	Name      string `gorm:"type:varchar(128);not null"`
	IsActive  bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Collection struct {
	ID        int32  `gorm:"primaryKey;autoIncrement"`
	Code      string `gorm:"type:varchar(32);uniqueIndex;not null"`
	Name      string `gorm:"type:varchar(128);not null"`
	IsActive  bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Category struct {
	ID        int32  `gorm:"primaryKey;autoIncrement"`
	Code      string `gorm:"type:varchar(32);uniqueIndex;not null"`
	Name      string `gorm:"type:varchar(128);not null"`
	IsActive  bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Color struct {
	ID        int32  `gorm:"primaryKey;autoIncrement"`
	Code      string `gorm:"type:varchar(32);uniqueIndex;not null"`
	Name      string `gorm:"type:varchar(128);not null"`
	IsActive  bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Material struct {
	ID        int32  `gorm:"primaryKey;autoIncrement"`
	Code      string `gorm:"type:varchar(32);uniqueIndex;not null"`
	Name      string `gorm:"type:varchar(128);not null"`
	IsActive  bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Size struct {
	ID        int32  `gorm:"primaryKey;autoIncrement"`
	Code      string `gorm:"type:varchar(16);uniqueIndex;not null"`
	Name      string `gorm:"type:varchar(64);not null"`
	IsActive  bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ArticleComplement struct {
	ID        int32  `gorm:"primaryKey;autoIncrement"`
	Code      string `gorm:"type:varchar(32);uniqueIndex;not null"`
	Name      string `gorm:"type:varchar(128);not null"`
	IsActive  bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Supplier struct {
	ID        int32  `gorm:"primaryKey;autoIncrement"`
	Code      string `gorm:"type:varchar(32);uniqueIndex;not null"`
	Name      string `gorm:"type:varchar(128);not null"`
	IsActive  bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
