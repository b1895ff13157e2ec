package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pharmacare-app/pharmacare-backend/pkg/enums"
)

// Medication is a catalog item. Quantity is mutated exclusively through the
// stock ledger; the column can never go negative. Items are disabled, never
// deleted.
type Medication struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	Name         string                 `gorm:"column:name;not null;index"`
	UnitPrice    decimal.Decimal        `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity     int                    `gorm:"column:quantity;not null;default:0"`
	MinThreshold int                    `gorm:"column:min_threshold;not null;default:0"`
	Status       enums.MedicationStatus `gorm:"column:status;type:text;not null;default:'active'"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the identifier app-side so both drivers behave the same.
func (m *Medication) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
