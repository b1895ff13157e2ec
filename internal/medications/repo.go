package medications

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmacare-app/pharmacare-backend/pkg/db/models"
	"github.com/pharmacare-app/pharmacare-backend/pkg/enums"
	pkgerrors "github.com/pharmacare-app/pharmacare-backend/pkg/errors"
	"github.com/pharmacare-app/pharmacare-backend/pkg/pagination"
)

// Repository exposes catalog persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, medication *models.Medication) (*models.Medication, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Medication, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Medication, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Medication, string, error)
	ListLowStock(ctx context.Context) ([]models.Medication, error)
}

// ListFilter narrows the catalog listing.
type ListFilter struct {
	Query      string
	ActiveOnly bool
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a medications repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, medication *models.Medication) (*models.Medication, error) {
	if medication.Status == "" {
		medication.Status = enums.MedicationStatusActive
	}
	if err := r.db.WithContext(ctx).Create(medication).Error; err != nil {
		return nil, err
	}
	return medication, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Medication, error) {
	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&models.Medication{}).
			Where("id = ?", id).
			Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "medication not found")
		}
	}
	return r.FindByID(ctx, id)
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Medication, error) {
	var medication models.Medication
	if err := r.db.WithContext(ctx).First(&medication, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "medication not found")
		}
		return nil, err
	}
	return &medication, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Medication, string, error) {
	query := r.db.WithContext(ctx).Model(&models.Medication{})
	if filter.ActiveOnly {
		query = query.Where("status = ?", enums.MedicationStatusActive)
	}
	if filter.Query != "" {
		query = query.Where("name LIKE ?", "%"+filter.Query+"%")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.Medication
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

// ListLowStock returns active medications at or below their reorder
// threshold, most depleted first.
func (r *repository) ListLowStock(ctx context.Context) ([]models.Medication, error) {
	var rows []models.Medication
	err := r.db.WithContext(ctx).
		Where("status = ? AND quantity <= min_threshold", enums.MedicationStatusActive).
		Order("quantity ASC, name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
