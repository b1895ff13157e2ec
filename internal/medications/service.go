package medications

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pharmacare-app/pharmacare-backend/internal/stock"
	"github.com/pharmacare-app/pharmacare-backend/pkg/db/models"
	"github.com/pharmacare-app/pharmacare-backend/pkg/enums"
	pkgerrors "github.com/pharmacare-app/pharmacare-backend/pkg/errors"
	"github.com/pharmacare-app/pharmacare-backend/pkg/pagination"
)

// Service covers catalog management. Items are disabled, never deleted:
// existing order items keep pointing at them.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Medication, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Medication, error)
	Disable(ctx context.Context, id uuid.UUID) (*models.Medication, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Medication, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Medication, string, error)
	ListLowStock(ctx context.Context) ([]models.Medication, error)
	CheckAvailability(ctx context.Context, lines []stock.Line) ([]stock.Shortfall, error)
}

// CreateInput holds a new catalog item.
type CreateInput struct {
	Name         string
	UnitPrice    decimal.Decimal
	Quantity     int
	MinThreshold int
}

// UpdateInput holds optional catalog updates; nil fields are untouched.
type UpdateInput struct {
	Name         *string
	UnitPrice    *decimal.Decimal
	Quantity     *int
	MinThreshold *int
}

type service struct {
	repo Repository
	db   *gorm.DB
}

// NewService builds the catalog service. The raw DB handle backs the
// advisory availability check.
func NewService(repo Repository, db *gorm.DB) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("medications repository required")
	}
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	return &service{repo: repo, db: db}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Medication, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	if input.UnitPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if input.MinThreshold < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min threshold cannot be negative")
	}

	return s.repo.Create(ctx, &models.Medication{
		Name:         name,
		UnitPrice:    input.UnitPrice,
		Quantity:     input.Quantity,
		MinThreshold: input.MinThreshold,
		Status:       enums.MedicationStatusActive,
	})
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Medication, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "medication id required")
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = name
	}
	if input.UnitPrice != nil {
		if input.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
		}
		updates["unit_price"] = *input.UnitPrice
	}
	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
		}
		updates["quantity"] = *input.Quantity
	}
	if input.MinThreshold != nil {
		if *input.MinThreshold < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "min threshold cannot be negative")
		}
		updates["min_threshold"] = *input.MinThreshold
	}

	return s.repo.Update(ctx, id, updates)
}

func (s *service) Disable(ctx context.Context, id uuid.UUID) (*models.Medication, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "medication id required")
	}
	return s.repo.Update(ctx, id, map[string]any{"status": enums.MedicationStatusDisabled})
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Medication, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "medication id required")
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Medication, string, error) {
	return s.repo.List(ctx, filter, params)
}

func (s *service) ListLowStock(ctx context.Context) ([]models.Medication, error) {
	return s.repo.ListLowStock(ctx)
}

// CheckAvailability answers the advisory pre-check without reserving anything.
func (s *service) CheckAvailability(ctx context.Context, lines []stock.Line) ([]stock.Shortfall, error) {
	return stock.CheckAvailability(ctx, s.db, lines)
}
