package models

import (
	"time"

	"gorm.io/gorm"

	"cigamsync/internal/database"
)

type SyncType string

const (
	SyncTypeFull        SyncType = "full"
	SyncTypeIncremental SyncType = "incremental"
	SyncTypeLookupsOnly SyncType = "lookups_only"
	SyncTypePricesOnly  SyncType = "prices_only"
	SyncTypeByPeriod    SyncType = "by_period"
)

func (t SyncType) IsValid() bool {
	switch t {
	case SyncTypeFull, SyncTypeIncremental, SyncTypeLookupsOnly, SyncTypePricesOnly, SyncTypeByPeriod:
		return true
	default:
		return false
	}
}

type SyncStatus string

const (
	SyncStatusRunning   SyncStatus = "running"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusFailed    SyncStatus = "failed"
	SyncStatusCancelled SyncStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed.
func (s SyncStatus) IsTerminal() bool {
	switch s {
	case SyncStatusCompleted, SyncStatusFailed, SyncStatusCancelled:
		return true
	default:
		return false
	}
}

// ProductSyncLog tracks one sync run. Created as running, mutated only
// by the owning run, immutable once terminal.
type ProductSyncLog struct {
	ID               int64                `gorm:"primaryKey;autoIncrement"`
	SyncType         SyncType             `gorm:"type:varchar(16);not null"`
	Status           SyncStatus           `gorm:"type:varchar(16);not null;index"`
	CurrentPhase     string               `gorm:"type:varchar(64)"`
	TotalRecords     int64                `gorm:"not null;default:0"`
	ProcessedRecords int64                `gorm:"not null;default:0"`
	InsertedRecords  int64                `gorm:"not null;default:0"`
	UpdatedRecords   int64                `gorm:"not null;default:0"`
	SkippedRecords   int64                `gorm:"not null;default:0"`
	ErrorCount       int64                `gorm:"not null;default:0"`
	ErrorDetails     database.StringArray `gorm:"type:text"`
	StartedAt        time.Time            `gorm:"not null"`
	CompletedAt      *time.Time
	StartedBy        string `gorm:"type:varchar(128)"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Brand{},
		&Collection{},
		&Category{},
		&Color{},
		&Material{},
		&Size{},
		&ArticleComplement{},
		&Supplier{},
		&Product{},
		&ProductVariant{},
		&Store{},
		&Employee{},
		&EmploymentContract{},
		&Sale{},
		&ProductSyncLog{},
	)
}
