package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pharmacare-app/pharmacare-backend/pkg/enums"
)

// Order is the fulfillment unit created from exactly one processed
// prescription. The unique index on prescription_id is load-bearing: it is the
// second line of defense against two staff processing the same prescription.
// TotalAmount is frozen at creation; the status workflow is the only mutator
// afterwards.
type Order struct {
	ID                 uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	ClientID           uuid.UUID         `gorm:"column:client_id;type:uuid;not null;index"`
	PrescriptionID     uuid.UUID         `gorm:"column:prescription_id;type:uuid;not null;uniqueIndex"`
	TotalAmount        decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Status             enums.OrderStatus `gorm:"column:status;type:text;not null;default:'in_preparation'"`
	DeliveryAgentID    *uuid.UUID        `gorm:"column:delivery_agent_id;type:uuid"`
	CancellationReason *string           `gorm:"column:cancellation_reason"`
	ReadyAt            *time.Time        `gorm:"column:ready_at"`
	CompletedAt        *time.Time        `gorm:"column:completed_at"`
	CancelledAt        *time.Time        `gorm:"column:cancelled_at"`
	Items              []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
