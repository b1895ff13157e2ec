package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmacare-app/pharmacare-backend/pkg/enums"
)

// Prescription is a client's submitted prescription. Status flips out of
// pending exactly once, either to processed (by the fulfillment path) or to
// rejected. Records are never deleted.
type Prescription struct {
	ID              uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	ClientID        uuid.UUID                `gorm:"column:client_id;type:uuid;not null;index"`
	Reference       string                   `gorm:"column:reference;not null;uniqueIndex"`
	ImageRef        string                   `gorm:"column:image_ref;not null"`
	Status          enums.PrescriptionStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	ProcessedByID   *uuid.UUID               `gorm:"column:processed_by_id;type:uuid"`
	RejectionReason *string                  `gorm:"column:rejection_reason"`
	CreatedAt       time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Prescription) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
