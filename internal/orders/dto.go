package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharmacare-app/pharmacare-backend/pkg/db/models"
	"github.com/pharmacare-app/pharmacare-backend/pkg/enums"
)

// OrderDTO is the transport shape for orders.
type OrderDTO struct {
	ID                 uuid.UUID         `json:"id"`
	ClientID           uuid.UUID         `json:"client_id"`
	PrescriptionID     uuid.UUID         `json:"prescription_id"`
	TotalAmount        decimal.Decimal   `json:"total_amount"`
	Status             enums.OrderStatus `json:"status"`
	DeliveryAgentID    *uuid.UUID        `json:"delivery_agent_id,omitempty"`
	CancellationReason *string           `json:"cancellation_reason,omitempty"`
	ReadyAt            *time.Time        `json:"ready_at,omitempty"`
	CompletedAt        *time.Time        `json:"completed_at,omitempty"`
	CancelledAt        *time.Time        `json:"cancelled_at,omitempty"`
	Items              []OrderItemDTO    `json:"items"`
	CreatedAt          time.Time         `json:"created_at"`
}

// OrderItemDTO is one order line with its frozen unit price.
type OrderItemDTO struct {
	MedicationID uuid.UUID       `json:"medication_id"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

// FromModel maps a persisted order into its transport shape.
func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemDTO{
			MedicationID: item.MedicationID,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
		})
	}
	return &OrderDTO{
		ID:                 o.ID,
		ClientID:           o.ClientID,
		PrescriptionID:     o.PrescriptionID,
		TotalAmount:        o.TotalAmount,
		Status:             o.Status,
		DeliveryAgentID:    o.DeliveryAgentID,
		CancellationReason: o.CancellationReason,
		ReadyAt:            o.ReadyAt,
		CompletedAt:        o.CompletedAt,
		CancelledAt:        o.CancelledAt,
		Items:              items,
		CreatedAt:          o.CreatedAt,
	}
}

// FromModels maps a page of orders.
func FromModels(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
