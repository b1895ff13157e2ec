package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pharmacare-app/pharmacare-backend/internal/stock"
	"github.com/pharmacare-app/pharmacare-backend/pkg/db"
	"github.com/pharmacare-app/pharmacare-backend/pkg/db/models"
	"github.com/pharmacare-app/pharmacare-backend/pkg/enums"
	pkgerrors "github.com/pharmacare-app/pharmacare-backend/pkg/errors"
)

// The unique index backing one-order-per-prescription surfaces under two
// names: Postgres reports the index, SQLite the indexed column path.
const (
	prescriptionConstraint = "idx_orders_prescription"
	prescriptionColumnPath = "orders.prescription_id"
)

// Build turns a reserved batch into an order plus items inside the caller's
// transaction. The total is computed from the frozen unit prices, not live
// catalog rows. A unique violation on prescription_id means another request
// already converted the prescription; it surfaces as a state conflict so
// both racers report the same failure mode.
func Build(ctx context.Context, tx *gorm.DB, prescriptionID, clientID uuid.UUID, reserved []stock.ReservedItem) (*models.Order, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction handle required")
	}
	if prescriptionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prescription id required")
	}
	if clientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id required")
	}
	if len(reserved) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one reserved item required")
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(reserved))
	for _, item := range reserved {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reserved quantity must be positive")
		}
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		items = append(items, models.OrderItem{
			MedicationID: item.MedicationID,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
		})
	}

	order := &models.Order{
		ClientID:       clientID,
		PrescriptionID: prescriptionID,
		TotalAmount:    total,
		Status:         enums.OrderStatusInPreparation,
		Items:          items,
	}
	if err := tx.WithContext(ctx).Create(order).Error; err != nil {
		if db.IsUniqueViolation(err, prescriptionConstraint, prescriptionColumnPath) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "prescription already processed")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
	}
	return order, nil
}
