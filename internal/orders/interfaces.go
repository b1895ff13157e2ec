package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmacare-app/pharmacare-backend/pkg/db/models"
	"github.com/pharmacare-app/pharmacare-backend/pkg/enums"
	"github.com/pharmacare-app/pharmacare-backend/pkg/pagination"
)

// Repository exposes order persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByPrescriptionID(ctx context.Context, prescriptionID uuid.UUID) (*models.Order, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	List(ctx context.Context, status *enums.OrderStatus, params pagination.Params) ([]models.Order, string, error)
	UpdateStatusGuarded(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, updates map[string]any) (bool, error)
}
